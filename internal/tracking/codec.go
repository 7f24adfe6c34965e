// Package tracking generates, validates and parses the tracking
// identifiers users quote to check submission status.
//
// The identifier grammar is a bit-exact external contract:
//
//	TRK + YYYYMMDD (UTC calendar date at generation) + "-" + 8 uppercase base-36 characters
package tracking

import (
	"crypto/rand"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

const suffixAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

const suffixLength = 8

var (
	idPattern     = regexp.MustCompile(`^TRK\d{8}-[A-Z0-9]{8}$`)
	prefixPattern = regexp.MustCompile(`^TRK(\d{8})-`)
)

// Generate produces a new tracking identifier. Failure means the entropy
// source is broken, which is an environment error, not a normal path.
func Generate() (string, error) {
	return generateAt(time.Now())
}

func generateAt(now time.Time) (string, error) {
	buf := make([]byte, suffixLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read entropy for tracking id: %w", err)
	}

	suffix := make([]byte, suffixLength)
	for i, b := range buf {
		suffix[i] = suffixAlphabet[int(b)%len(suffixAlphabet)]
	}

	return fmt.Sprintf("TRK%s-%s", now.UTC().Format("20060102"), suffix), nil
}

// IsValid checks the identifier grammar only. It says nothing about
// whether a submission with this id exists or the embedded date is sane.
func IsValid(id string) bool {
	return idPattern.MatchString(id)
}

// ExtractDate parses the calendar date embedded in a tracking identifier,
// in local time. It returns false when the prefix doesn't match TRK\d{8}-.
//
// The encoding stores the month 1-indexed; time.Month is also 1-based, so
// the digits map straight into time.Date with no off-by-one adjustment.
// (Callers porting from systems with 0-indexed months: the conversion
// happens here, not at the call site.)
func ExtractDate(id string) (time.Time, bool) {
	m := prefixPattern.FindStringSubmatch(id)
	if m == nil {
		return time.Time{}, false
	}

	digits := m[1]
	year, _ := strconv.Atoi(digits[0:4])
	month, _ := strconv.Atoi(digits[4:6])
	day, _ := strconv.Atoi(digits[6:8])

	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.Local), true
}
