// Package dates resolves publication timestamps from the free-form date
// strings, URLs and body text that heterogeneous news sites expose.
package dates

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// Layouts tried in order against cleaned date text. Sites in the registry use
// all of these; keep the list ordered from strict to sloppy.
var layouts = []string{
	"2006-01-02",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05.000Z",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"2 Jan 2006",
	"1/2/2006",
	"2/1/2006",
	"2006/1/2",
	"2-1-2006",
	"1-2-2006",
}

var extractPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(\d{4}-\d{2}-\d{2})`),
	regexp.MustCompile(`(\d{1,2}/\d{1,2}/\d{4})`),
	regexp.MustCompile(`([A-Za-z]+ \d{1,2}, \d{4})`),
	regexp.MustCompile(`(\d{1,2} [A-Za-z]+ \d{4})`),
}

// URL path shapes carrying year/month/day groups.
var urlPatterns = []*regexp.Regexp{
	regexp.MustCompile(`/(\d{4})/(\d{2})/(\d{2})/`),
	regexp.MustCompile(`/(\d{4})-(\d{2})-(\d{2})/`),
	regexp.MustCompile(`/(\d{4})(\d{2})(\d{2})/`),
	regexp.MustCompile(`-(\d{4})-(\d{2})-(\d{2})`),
	regexp.MustCompile(`(\d{4})-(\d{2})-(\d{2})`),
}

var textPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b([A-Za-z]+ \d{1,2}, \d{4})\b`),
	regexp.MustCompile(`\b(\d{1,2} [A-Za-z]+ \d{4})\b`),
	regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2})\b`),
}

// ParseText parses free-form date text. Tries the explicit layout list, then
// a lenient parse, then regex-extracts a date-shaped substring and retries.
func ParseText(text string) (time.Time, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return time.Time{}, false
	}

	for _, layout := range layouts {
		if t, err := time.Parse(layout, text); err == nil {
			return t, true
		}
	}

	if t, err := dateparse.ParseAny(text); err == nil {
		return t, true
	}

	for _, pattern := range extractPatterns {
		match := pattern.FindStringSubmatch(text)
		if match == nil {
			continue
		}
		for _, layout := range layouts {
			if t, err := time.Parse(layout, match[1]); err == nil {
				return t, true
			}
		}
	}

	return time.Time{}, false
}

// FromURL extracts a date from year/month/day groups in URL path segments.
func FromURL(rawURL string) (time.Time, bool) {
	for _, pattern := range urlPatterns {
		match := pattern.FindStringSubmatch(rawURL)
		if len(match) != 4 {
			continue
		}

		year, errY := strconv.Atoi(match[1])
		month, errM := strconv.Atoi(match[2])
		day, errD := strconv.Atoi(match[3])
		if errY != nil || errM != nil || errD != nil {
			continue
		}
		if month < 1 || month > 12 || day < 1 || day > 31 {
			continue
		}

		return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), true
	}

	return time.Time{}, false
}

// FromText scans running text for date-shaped substrings and returns the
// first one that parses and is not more than 30 days in the future. The
// future guard keeps OCR-like garbage out of the recency filter.
func FromText(text string) (time.Time, bool) {
	cutoff := time.Now().Add(30 * 24 * time.Hour)

	for _, pattern := range textPatterns {
		for _, match := range pattern.FindAllStringSubmatch(text, -1) {
			t, ok := ParseText(match[1])
			if !ok {
				continue
			}
			if t.After(cutoff) {
				continue
			}
			return t, true
		}
	}

	return time.Time{}, false
}

// Resolve runs the full fallback chain: date text, then URL, then body text.
// Callers must treat a false result as "unknown", never as "now".
func Resolve(text, rawURL, body string) (time.Time, bool) {
	if t, ok := ParseText(text); ok {
		return t, ok
	}
	if rawURL != "" {
		if t, ok := FromURL(rawURL); ok {
			return t, ok
		}
	}
	if body != "" {
		if t, ok := FromText(body); ok {
			return t, ok
		}
	}
	return time.Time{}, false
}

// IsRecent reports whether a resolved timestamp falls inside the maximum-age
// window. An unresolved date is never recent: unknown-dated content is
// dropped rather than risking a stale republish.
func IsRecent(t time.Time, ok bool, maxAgeDays int) bool {
	if !ok {
		return false
	}
	return time.Since(t) <= time.Duration(maxAgeDays)*24*time.Hour
}
