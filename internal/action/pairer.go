package action

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Unit is one argument, or one (Source, Destination) pair, an action runs on.
type Unit struct {
	Source      string
	Destination string
	pair        bool
}

// Single returns a unary unit.
func Single(arg string) Unit { return Unit{Source: arg} }

// Pair returns a binary unit.
func Pair(src, dst string) Unit { return Unit{Source: src, Destination: dst, pair: true} }

// IsPair reports whether the unit carries a destination.
func (u Unit) IsPair() bool { return u.pair }

func (u Unit) String() string {
	if u.pair {
		return fmt.Sprintf("(%s, %s)", u.Source, u.Destination)
	}
	return u.Source
}

// PairArgs groups a flat argument list into units. For binary modes an odd
// count fails before anything is returned.
func PairArgs(mode Mode, args []string) ([]Unit, error) {
	if len(args) == 0 {
		return nil, &UsageError{Msg: "no arguments for the given option"}
	}

	if !mode.Binary() {
		units := make([]Unit, len(args))
		for i, a := range args {
			units[i] = Single(a)
		}
		return units, nil
	}

	if len(args)%2 != 0 {
		return nil, &ArityError{Mode: mode, Count: len(args)}
	}
	units := make([]Unit, 0, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		units = append(units, Pair(args[i], args[i+1]))
	}
	return units, nil
}

// ReadArgs reads newline separated arguments, trimming each line and dropping
// blank ones.
func ReadArgs(r io.Reader) ([]string, error) {
	var args []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			args = append(args, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read arguments: %w", err)
	}
	return args, nil
}
