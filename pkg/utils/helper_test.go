package utils

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseInt(t *testing.T) {
	assert.Equal(t, 5, ParseInt("5", 1))
	assert.Equal(t, 1, ParseInt("", 1))
	assert.Equal(t, 1, ParseInt("abc", 1))
	assert.Equal(t, 1, ParseInt("0", 1))
	assert.Equal(t, 1, ParseInt("-3", 1))
}

func TestGenerateReferenceFormat(t *testing.T) {
	ref := GenerateReference()
	assert.Regexp(t, regexp.MustCompile(`^RET-\d{8}-\d{6}-\d{4}$`), ref)
}

func TestDaysBetween(t *testing.T) {
	from := time.Date(2026, 1, 15, 23, 50, 0, 0, time.UTC)
	to := time.Date(2026, 1, 18, 0, 10, 0, 0, time.UTC)

	// Time of day is irrelevant.
	assert.Equal(t, 3, DaysBetween(from, to))
	assert.Equal(t, -3, DaysBetween(to, from))
	assert.Equal(t, 0, DaysBetween(from, from))
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "123.45", FormatAmount(12345))
	assert.Equal(t, "0.05", FormatAmount(5))
	assert.Equal(t, "10.00", FormatAmount(1000))
	assert.Equal(t, "0.00", FormatAmount(0))
}
