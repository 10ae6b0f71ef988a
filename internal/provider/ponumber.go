package provider

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// POSequencer is implemented by providers that can tell which PO numbers of
// a day are already taken.
type POSequencer interface {
	// NextPOSequence returns the first unused sequence for prefix on day,
	// starting at 1.
	NextPOSequence(ctx context.Context, prefix string, day time.Time) (int, error)
}

// PONumber renders PREFIX-YYYYMMDD-NNNN.
func PONumber(prefix string, day time.Time, seq int) string {
	return fmt.Sprintf("%s%04d", PONumberStem(prefix, day), seq)
}

// PONumberStem is the part of a PO number shared by every order of a day.
func PONumberStem(prefix string, day time.Time) string {
	return prefix + "-" + day.Format("20060102") + "-"
}

// POSequence extracts the sequence of number when it belongs to prefix and
// day.
func POSequence(number string, prefix string, day time.Time) (int, bool) {
	rest, ok := strings.CutPrefix(number, PONumberStem(prefix, day))
	if !ok || rest == "" {
		return 0, false
	}
	seq, err := strconv.Atoi(rest)
	if err != nil || seq < 1 || strings.HasPrefix(rest, "+") {
		return 0, false
	}
	return seq, true
}
