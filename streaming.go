package visionchat

import (
	"io"
	"iter"
	"strings"
)

// A fragment sequence is a lazy, finite, non-restartable stream of text
// deltas produced by one generation call. Each driver builds its own sequence
// from the vendor transport; collectStream is the single normalization point
// shared by all of them.
//
// collectStream drains frags in arrival order, writing every fragment to sink
// as it arrives and accumulating it, and returns the ordered concatenation
// once the sequence ends. A sequence error aborts the drain and is returned
// as-is; drivers wrap their transport errors before yielding them.
func collectStream(sink io.Writer, frags iter.Seq2[string, error]) (string, error) {
	var b strings.Builder
	for frag, err := range frags {
		if err != nil {
			return "", err
		}
		if frag == "" {
			continue
		}
		if sink != nil {
			if _, err := io.WriteString(sink, frag); err != nil {
				return "", err
			}
		}
		b.WriteString(frag)
	}
	return b.String(), nil
}
