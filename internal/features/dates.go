package features

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Employment periods older than this are treated as parser noise rather
// than work history.
const (
	minPlausibleYear = 1900
	maxExperienceCap = 60.0
)

// monthAlt lists month names in both languages. English entries carry \b so
// they only match as whole words; \b is ASCII-only in Go regexp and would
// never match adjacent to Arabic letters, so the Arabic entries go bare.
const monthAlt = `يناير|فبراير|مارس|أبريل|ابريل|مايو|يونيو|يوليو|أغسطس|اغسطس|سبتمبر|أكتوبر|اكتوبر|نوفمبر|ديسمبر|` +
	`\bjan(?:uary)?|\bfeb(?:ruary)?|\bmar(?:ch)?|\bapr(?:il)?|\bmay|\bjun(?:e)?|\bjul(?:y)?|\baug(?:ust)?|\bsep(?:t(?:ember)?)?|\boct(?:ober)?|\bnov(?:ember)?|\bdec(?:ember)?`

// dateRangeRe captures one employment period: an optional month (name or
// numeric MM/), a four-digit start year, a separator, and an end that is
// either another month/year pair or an open-ended marker.
var dateRangeRe = regexp.MustCompile(`(?i)(?:(` + monthAlt + `)\.?\s+|(\d{1,2})\s*/\s*)?\b(\d{4})\s*(?:[-–—]|\bto\b|\buntil\b|\bthrough\b|حتى|إلى)\s*(?:(` + monthAlt + `)\.?\s+|(\d{1,2})\s*/\s*)?(\d{4}\b|present\b|current\b|now\b|today\b|ongoing\b|الآن|تاريخه)`)

var englishMonths = map[string]int{
	"jan": 1, "feb": 2, "mar": 3, "apr": 4, "may": 5, "jun": 6,
	"jul": 7, "aug": 8, "sep": 9, "oct": 10, "nov": 11, "dec": 12,
}

var arabicMonths = map[string]int{
	"يناير": 1, "فبراير": 2, "مارس": 3, "أبريل": 4, "ابريل": 4,
	"مايو": 5, "يونيو": 6, "يوليو": 7, "أغسطس": 8, "اغسطس": 8,
	"سبتمبر": 9, "أكتوبر": 10, "اكتوبر": 10, "نوفمبر": 11, "ديسمبر": 12,
}

// experienceSummary aggregates the date evidence found in an experience
// section: total non-overlapping years plus how many ranges parsed cleanly
// versus ran backwards.
type experienceSummary struct {
	Years         float64
	ValidRanges   int
	InvalidRanges int
}

type dateSpan struct {
	start float64
	end   float64
}

// summarizeExperience parses every employment period in text and returns
// the merged span total. Overlapping periods count once, open-ended periods
// run to now, and the total is clipped to maxExperienceCap. Ranges whose
// end precedes their start are counted as invalid and excluded from the
// total; matches with implausible years are discarded outright.
func summarizeExperience(text string, now time.Time) experienceSummary {
	var summary experienceSummary
	var spans []dateSpan

	maxYear := now.Year() + 1
	nowPoint := float64(now.Year()) + float64(now.Month()-1)/12

	for _, m := range dateRangeRe.FindAllStringSubmatch(text, -1) {
		startYear, err := strconv.Atoi(m[3])
		if err != nil || startYear < minPlausibleYear || startYear > maxYear {
			continue
		}
		start := float64(startYear) + float64(monthNumber(m[1], m[2])-1)/12

		var end float64
		if endYear, err := strconv.Atoi(m[6]); err == nil {
			if endYear < minPlausibleYear || endYear > maxYear {
				continue
			}
			end = float64(endYear) + float64(monthNumber(m[4], m[5])-1)/12
		} else {
			end = nowPoint
		}

		if end < start {
			summary.InvalidRanges++
			continue
		}
		summary.ValidRanges++
		spans = append(spans, dateSpan{start: start, end: end})
	}

	summary.Years = math.Min(mergeSpanTotal(spans), maxExperienceCap)
	summary.Years = math.Round(summary.Years*10) / 10
	return summary
}

// mergeSpanTotal sums span lengths after merging overlaps, so concurrent
// jobs are not double counted.
func mergeSpanTotal(spans []dateSpan) float64 {
	if len(spans) == 0 {
		return 0
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })

	total := 0.0
	current := spans[0]
	for _, span := range spans[1:] {
		if span.start <= current.end {
			if span.end > current.end {
				current.end = span.end
			}
			continue
		}
		total += current.end - current.start
		current = span
	}
	total += current.end - current.start
	return total
}

// monthNumber resolves a captured month to 1..12, defaulting to January
// when the period named only years.
func monthNumber(name, numeric string) int {
	if numeric != "" {
		if n, err := strconv.Atoi(numeric); err == nil && n >= 1 && n <= 12 {
			return n
		}
		return 1
	}
	if name == "" {
		return 1
	}
	lower := strings.ToLower(name)
	if n, ok := arabicMonths[lower]; ok {
		return n
	}
	if len(lower) >= 3 {
		if n, ok := englishMonths[lower[:3]]; ok {
			return n
		}
	}
	return 1
}
