package series

import (
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tlms-tools/sprtrc/pkg/parser"
)

// DefaultSeatingThreshold is the spreader height below which the spreader
// counts as seated on the container or chassis.
const DefaultSeatingThreshold = 5000

const notSeatedSuffix = "_Not_seated"

// Label builds the output name for a parsed file:
//
//	Lane_<lane|xx>_Pos_<position|yy>_<task|na>_<stem>[_Not_seated]
//
// Lane, position and task come from the first record of the unfilled
// sequence. The suffix is added when no record reports a spreader height
// below threshold; threshold <= 0 selects DefaultSeatingThreshold.
func Label(seq *parser.Sequence, path string, threshold int) string {
	if threshold <= 0 {
		threshold = DefaultSeatingThreshold
	}

	first := seq.First()

	lane := "xx"
	if v, ok := first.Int(parser.FieldLane); ok {
		lane = strconv.Itoa(v)
	}
	pos := "yy"
	if v, ok := first.Text(parser.FieldPosition); ok {
		pos = codeName(v)
	}
	task := "na"
	if v, ok := first.Text(parser.FieldTask); ok {
		task = codeName(v)
	}

	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	label := "Lane_" + lane + "_Pos_" + pos + "_" + task + "_" + stem

	if !Seated(seq, threshold) {
		label += notSeatedSuffix
	}
	return label
}

// Seated reports whether any record has SpTrMsg_position_Z below threshold.
func Seated(seq *parser.Sequence, threshold int) bool {
	return seq.Any(func(r *parser.Record) bool {
		z, ok := r.Int(parser.FieldMsgZ)
		return ok && z < threshold
	})
}

// codeName returns the name part of a "<code> - <name>" value: the text
// between the first and second '-', trimmed. Values without a '-' are
// returned trimmed.
func codeName(v string) string {
	parts := strings.Split(v, "-")
	if len(parts) < 2 {
		return strings.TrimSpace(v)
	}
	return strings.TrimSpace(parts[1])
}
