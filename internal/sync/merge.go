package sync

import "iter"

// merged is one step of the lock-step walk. Exactly one of src and dst is nil
// unless the path exists on both sides.
type merged struct {
	path string
	src  *Entry
	dst  *Entry
}

// mergeTrees zips two pre-order walks by relative path. Each walk is pulled
// once; an error from either side ends the sequence.
func mergeTrees(src, dst iter.Seq2[Entry, error]) iter.Seq2[merged, error] {
	return func(yield func(merged, error) bool) {
		nextSrc, stopSrc := iter.Pull2(src)
		defer stopSrc()
		nextDst, stopDst := iter.Pull2(dst)
		defer stopDst()

		pull := func(next func() (Entry, error, bool)) (*Entry, error) {
			e, err, ok := next()
			if !ok {
				return nil, nil
			}
			if err != nil {
				return nil, err
			}
			return &e, nil
		}

		s, err := pull(nextSrc)
		if err != nil {
			yield(merged{}, err)
			return
		}
		d, err := pull(nextDst)
		if err != nil {
			yield(merged{}, err)
			return
		}

		for s != nil || d != nil {
			var m merged
			var c int
			switch {
			case s == nil:
				c = 1
			case d == nil:
				c = -1
			default:
				c = comparePaths(s.Path, d.Path)
			}

			switch {
			case c < 0:
				m = merged{path: s.Path, src: s}
			case c > 0:
				m = merged{path: d.Path, dst: d}
			default:
				m = merged{path: s.Path, src: s, dst: d}
			}
			if !yield(m, nil) {
				return
			}

			if m.src != nil {
				if s, err = pull(nextSrc); err != nil {
					yield(merged{}, err)
					return
				}
			}
			if m.dst != nil {
				if d, err = pull(nextDst); err != nil {
					yield(merged{}, err)
					return
				}
			}
		}
	}
}
