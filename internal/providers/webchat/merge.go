package webchat

import "strings"

// maxOverlapWindow caps the suffix/prefix scan so merging stays
// constant-cost per chunk on long accumulations.
const maxOverlapWindow = 256

// MergeText folds a streamed chunk into the accumulated text. It
// handles the three chunk patterns the backends produce without the
// caller knowing which one it is talking to:
//   - cumulative snapshots (chunk restates everything so far),
//   - true deltas,
//   - deltas whose boundaries overlap by a few characters.
func MergeText(acc, chunk string) string {
	if chunk == "" {
		return acc
	}
	if acc == "" {
		return chunk
	}
	if strings.HasPrefix(chunk, acc) {
		return chunk
	}
	if strings.Contains(acc, chunk) {
		return acc
	}

	max := maxOverlapWindow
	if len(acc) < max {
		max = len(acc)
	}
	if len(chunk) < max {
		max = len(chunk)
	}
	for n := max; n > 0; n-- {
		if acc[len(acc)-n:] == chunk[:n] {
			return acc + chunk[n:]
		}
	}
	return acc + chunk
}
