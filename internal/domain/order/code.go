package order

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const draftCodeMarker = "D-"

// DraftCode derives the temporary order code from the database-generated
// row id, so it is unique without coordination.
// Format: D-YYMMDD-<id> (e.g. D-260830-17).
func DraftCode(id uint64, at time.Time) string {
	return fmt.Sprintf("D-%s-%d", at.Format("060102"), id)
}

// IsDraftCode reports whether code is a temporary draft code that must be
// replaced by an official code on submission.
func IsDraftCode(code string) bool {
	return strings.HasPrefix(code, draftCodeMarker)
}

// OfficialCode formats a permanent order code.
// Format: <PREFIX>-<year>-<sequence> (e.g. SO-2026-001); the sequence widens
// past three digits.
func OfficialCode(prefix string, year int, sequence int64) string {
	return fmt.Sprintf("%s-%d-%03d", prefix, year, sequence)
}

// SequenceFromCode parses the trailing sequence number of an official code.
// Returns false for draft codes and malformed input.
func SequenceFromCode(code string) (int64, bool) {
	if IsDraftCode(code) {
		return 0, false
	}
	idx := strings.LastIndex(code, "-")
	if idx < 0 || idx == len(code)-1 {
		return 0, false
	}
	seq, err := strconv.ParseInt(code[idx+1:], 10, 64)
	if err != nil || seq < 0 {
		return 0, false
	}
	return seq, true
}
