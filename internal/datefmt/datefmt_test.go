package datefmt

import (
	"github.com/stretchr/testify/assert"
	"testing"
	"time"
)

func TestSuffix(t *testing.T) {
	tests := []struct {
		day  int
		want string
	}{
		{day: 1, want: "st"},
		{day: 2, want: "nd"},
		{day: 3, want: "rd"},
		{day: 4, want: "th"},
		{day: 11, want: "th"},
		{day: 12, want: "th"},
		{day: 13, want: "th"},
		{day: 21, want: "st"},
		{day: 22, want: "nd"},
		{day: 23, want: "rd"},
		{day: 30, want: "th"},
		{day: 31, want: "st"},
	}

	for _, tt := range tests {
		t.Run(Ordinal(tt.day), func(t *testing.T) {
			assert.Equal(t, tt.want, Suffix(tt.day))
		})
	}
}

func TestFormat(t *testing.T) {
	ts := time.Date(2022, time.August, 5, 17, 0, 0, 0, time.UTC)
	assert.Equal(t, "Friday (August 5th) at 05:00PM", Format("Monday (January {S}) at 03:04PM", ts))
	assert.Equal(t, "August 5th", Format("January {S}", ts))
	assert.Equal(t, "2022-08-05", Format("2006-01-02", ts))
}
