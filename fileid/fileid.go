// Package fileid assigns and parses the file identifiers that name every
// data/hint file pair in a database directory (spec §3, §4.8). New files
// take the current millisecond timestamp; recovered files have their id
// recovered from the basename by scanning for the largest contiguous run
// of digits, mirroring the numeric-basename convention segmentmanager
// used for its own "segment-%04d.log" files.
package fileid

import (
	"fmt"
	"time"
)

const (
	DataExt = ".data"
	HintExt = ".hnt"
)

// New allocates a file-id for a newly created file: the current time in
// milliseconds since the Unix epoch. Ids are monotonic under normal clock
// behavior, which is all §3's recency ordering requires.
func New() int64 {
	return time.Now().UnixMilli()
}

// DataName returns the data-file basename for id.
func DataName(id int64) string {
	return fmt.Sprintf("%d%s", id, DataExt)
}

// HintName returns the hint-file basename for id.
func HintName(id int64) string {
	return fmt.Sprintf("%d%s", id, HintExt)
}

// Parse extracts a file-id from basename by scanning it for the largest
// contiguous run of digits. It does not look at the extension; callers
// filter by extension themselves before calling Parse. ok is false if
// basename contains no digits at all.
func Parse(basename string) (id int64, ok bool) {
	bestStart, bestLen := -1, 0
	curStart, curLen := -1, 0

	flush := func(end int) {
		if curLen > bestLen {
			bestStart, bestLen = curStart, curLen
		}
		curStart, curLen = -1, 0
		_ = end
	}

	for i := 0; i < len(basename); i++ {
		c := basename[i]
		if c >= '0' && c <= '9' {
			if curLen == 0 {
				curStart = i
			}
			curLen++
		} else {
			flush(i)
		}
	}
	flush(len(basename))

	if bestLen == 0 {
		return 0, false
	}

	digits := basename[bestStart : bestStart+bestLen]

	var n int64
	for i := 0; i < len(digits); i++ {
		n = n*10 + int64(digits[i]-'0')
	}

	return n, true
}
