package action

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intp(i int) *int { return &i }

func TestResolve_TooFewOptions(t *testing.T) {
	_, _, err := Resolve(Modes{}, TargetUnset, Options{})
	var usage *UsageError
	require.ErrorAs(t, err, &usage)
	assert.Equal(t, "too few options", usage.Msg)
}

func TestResolve_ModesAreExclusive(t *testing.T) {
	cases := []Modes{
		{List: true, Info: true},
		{Rename: true, Move: true},
		{Push: true, Pull: true},
		{Compare: true, Push: true, Download: true},
	}
	for _, m := range cases {
		spec, _, err := Resolve(m, TargetDir, Options{})
		assert.Nil(t, spec)
		var usage *UsageError
		assert.ErrorAs(t, err, &usage)
		assert.Contains(t, usage.Msg, "mutually exclusive")
	}
}

func TestResolve_TargetVariants(t *testing.T) {
	cases := []struct {
		modes  Modes
		target Target
		want   ID
		binary bool
	}{
		{Modes{Rename: true}, TargetUnset, RenameFile, true},
		{Modes{Rename: true}, TargetFile, RenameFile, true},
		{Modes{Rename: true}, TargetDir, RenameDir, true},
		{Modes{Move: true}, TargetDir, MoveDir, true},
		{Modes{Remove: true}, TargetFile, RemoveFile, false},
		{Modes{Remove: true}, TargetDir, RemoveDir, false},
		{Modes{Download: true}, TargetDir, DownloadDir, false},
		{Modes{Download: true}, TargetUnset, DownloadFile, false},
		{Modes{Compare: true}, TargetDir, CompareDir, true},
		{Modes{Compare: true}, TargetFile, CompareFile, true},
		{Modes{Upload: true}, TargetDir, Upload, false},
		{Modes{Mkdir: true}, TargetUnset, Mkdir, false},
		{Modes{Push: true}, TargetUnset, Push, true},
		{Modes{Pull: true}, TargetDir, Pull, true},
		{Modes{List: true}, TargetUnset, List, false},
		{Modes{Info: true}, TargetUnset, Info, false},
	}
	for _, tc := range cases {
		spec, _, err := Resolve(tc.modes, tc.target, Options{})
		require.NoError(t, err)
		assert.Equal(t, tc.want, spec.ID)
		assert.Equal(t, tc.binary, spec.Binary, "binary flag for %s", tc.want)
	}
}

func TestResolve_IsPure(t *testing.T) {
	opts := Options{Limit: intp(10), Fields: "name,size", Excludes: Excludes{Pattern: `\.tmp$`}, Delete: true}
	for _, m := range []Modes{{List: true}, {Push: true}, {Pull: true}, {Compare: true}} {
		a, _, err := Resolve(m, TargetDir, opts)
		require.NoError(t, err)
		b, _, err := Resolve(m, TargetDir, opts)
		require.NoError(t, err)
		assert.Equal(t, a, b)
	}
}

func TestResolve_ListOmitsAbsentOptions(t *testing.T) {
	spec, _, err := Resolve(Modes{List: true}, TargetUnset, Options{Offset: intp(0)})
	require.NoError(t, err)
	assert.Nil(t, spec.List.Limit)
	require.NotNil(t, spec.List.Offset)
	assert.Equal(t, 0, *spec.List.Offset)
	assert.Nil(t, spec.List.Fields)

	spec, _, err = Resolve(Modes{List: true}, TargetUnset, Options{Fields: "name, size,,sha1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "size", "sha1"}, spec.List.Fields)
}

func TestResolve_RemoveDirCarriesRecursive(t *testing.T) {
	spec, _, err := Resolve(Modes{Remove: true}, TargetDir, Options{Recursive: true})
	require.NoError(t, err)
	assert.True(t, spec.Remove.Recursive)

	spec, _, err = Resolve(Modes{Remove: true}, TargetFile, Options{Recursive: true})
	require.NoError(t, err)
	assert.False(t, spec.Remove.Recursive)
}

func TestResolve_SyncOptions(t *testing.T) {
	opts := Options{
		Chdir:          "/work",
		Excludes:       Excludes{Pattern: `2\.txt`},
		Delete:         true,
		DeleteExcluded: true,
		DryRun:         true,
		Verbose:        true,
	}

	push, _, err := Resolve(Modes{Push: true}, TargetUnset, opts)
	require.NoError(t, err)
	assert.Equal(t, SyncOptions{
		Chdir: "/work", Excludes: opts.Excludes, Delete: true, DeleteExcluded: true, DryRun: true,
	}, push.Sync)

	pull, _, err := Resolve(Modes{Pull: true}, TargetUnset, opts)
	require.NoError(t, err)
	assert.True(t, pull.Sync.Verbose)

	cmp, _, err := Resolve(Modes{Compare: true}, TargetDir, opts)
	require.NoError(t, err)
	assert.Equal(t, SyncOptions{Excludes: opts.Excludes}, cmp.Sync)

	up, _, err := Resolve(Modes{Upload: true}, TargetUnset, opts)
	require.NoError(t, err)
	assert.False(t, up.Transfer.Verbose)
	assert.Equal(t, "/work", up.Transfer.Chdir)

	down, _, err := Resolve(Modes{Download: true}, TargetUnset, opts)
	require.NoError(t, err)
	assert.True(t, down.Transfer.Verbose)
}

func TestParseTarget(t *testing.T) {
	for _, s := range []string{"", "f", "d"} {
		_, err := ParseTarget(s)
		assert.NoError(t, err)
	}
	_, err := ParseTarget("x")
	var usage *UsageError
	assert.ErrorAs(t, err, &usage)
}
