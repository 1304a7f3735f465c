package features

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// Fixed reference time so open-ended periods are reproducible.
var testNow = time.Date(2026, time.August, 15, 0, 0, 0, 0, time.UTC)

func TestSummarizeExperienceMergesOverlap(t *testing.T) {
	text := "Data Engineer\n2018 - 2020\nAnalyst\n2019 - 2021"

	summary := summarizeExperience(text, testNow)

	assert.Equal(t, 3.0, summary.Years, "overlapping periods must count once")
	assert.Equal(t, 2, summary.ValidRanges)
	assert.Equal(t, 0, summary.InvalidRanges)
}

func TestSummarizeExperienceOpenEnded(t *testing.T) {
	summary := summarizeExperience("Jan 2020 - Present", testNow)

	// 2020.0 through 2026 + 7/12, rounded to one decimal.
	assert.Equal(t, 6.6, summary.Years)
	assert.Equal(t, 1, summary.ValidRanges)
}

func TestSummarizeExperienceMonthPrecision(t *testing.T) {
	summary := summarizeExperience("Mar 2018 to Jun 2019", testNow)

	assert.Equal(t, 1.3, summary.Years)
}

func TestSummarizeExperienceNumericMonths(t *testing.T) {
	summary := summarizeExperience("03/2018 - 06/2019", testNow)

	assert.Equal(t, 1.3, summary.Years)
}

func TestSummarizeExperienceArabic(t *testing.T) {
	summary := summarizeExperience("مهندس برمجيات\nيناير 2019 حتى الآن", testNow)

	assert.Equal(t, 7.6, summary.Years)
	assert.Equal(t, 1, summary.ValidRanges)
}

func TestSummarizeExperienceInvalidRange(t *testing.T) {
	summary := summarizeExperience("2022 - 2019", testNow)

	assert.Zero(t, summary.Years)
	assert.Equal(t, 0, summary.ValidRanges)
	assert.Equal(t, 1, summary.InvalidRanges)
}

func TestSummarizeExperienceClipsTotal(t *testing.T) {
	summary := summarizeExperience("1950 - present", testNow)

	assert.Equal(t, 60.0, summary.Years)
}

func TestSummarizeExperienceIgnoresImplausibleYears(t *testing.T) {
	cases := map[string]string{
		"future start":  "2031 - 2035",
		"ancient start": "1111 - 1115",
		"no ranges":     "Responsible for quarterly reporting.",
	}
	for name, text := range cases {
		t.Run(name, func(t *testing.T) {
			summary := summarizeExperience(text, testNow)
			assert.Zero(t, summary.Years)
			assert.Zero(t, summary.ValidRanges)
			assert.Zero(t, summary.InvalidRanges)
		})
	}
}

func TestMonthNumber(t *testing.T) {
	assert.Equal(t, 1, monthNumber("", ""))
	assert.Equal(t, 9, monthNumber("Sept", ""))
	assert.Equal(t, 12, monthNumber("December", ""))
	assert.Equal(t, 3, monthNumber("مارس", ""))
	assert.Equal(t, 6, monthNumber("", "6"))
	assert.Equal(t, 1, monthNumber("", "31"))
}
