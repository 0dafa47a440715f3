package tags

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/donaldgifford/imagereport/internal/hub"
)

// ErrTimestampFormat is returned for a last_updated value in neither of the
// two layouts the hub emits.
var ErrTimestampFormat = errors.New("unrecognized timestamp format")

const (
	layoutSeconds  = "2006-01-02T15:04:05Z"
	layoutFraction = "2006-01-02T15:04:05.999999999Z"
)

// Fractions of up to nine digits are accepted, the full precision of time.Time.
var (
	secondsPattern  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}Z$`)
	fractionPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d{1,9}Z$`)
)

// Record is a tag with its parsed last-updated instant.
type Record struct {
	Name        string
	LastUpdated time.Time
}

// ParseTimestamp parses a hub last_updated value. A value shaped exactly like
// 2024-01-01T00:00:00Z uses the whole-seconds layout; every other value must
// carry fractional seconds, as in 2024-01-01T00:00:00.123456Z.
func ParseTimestamp(s string) (time.Time, error) {
	layout := layoutFraction
	if secondsPattern.MatchString(s) {
		layout = layoutSeconds
	} else if !fractionPattern.MatchString(s) {
		return time.Time{}, fmt.Errorf("%w: %q", ErrTimestampFormat, s)
	}

	t, err := time.Parse(layout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q: %w", ErrTimestampFormat, s, err)
	}

	return t, nil
}

// SortByLastUpdated parses every tag and orders them newest first. Tags with
// the same instant are ordered by name ascending.
func SortByLastUpdated(tags []hub.Tag) ([]Record, error) {
	records := make([]Record, 0, len(tags))

	for _, t := range tags {
		ts, err := ParseTimestamp(t.LastUpdated)
		if err != nil {
			return nil, fmt.Errorf("tag %s: %w", t.Name, err)
		}

		records = append(records, Record{Name: t.Name, LastUpdated: ts})
	}

	slices.SortStableFunc(records, func(a, b Record) int {
		if c := b.LastUpdated.Compare(a.LastUpdated); c != 0 {
			return c
		}

		return strings.Compare(a.Name, b.Name)
	})

	return records, nil
}
