package dates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKnownLayouts(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want string
	}{
		{"comma separated", "25/12/2024, 14:30:00", "25-12-2024 14:30:00"},
		{"canonical", "25-12-2024 14:30:00", "25-12-2024 14:30:00"},
		{"rfc3339", "2024-12-25T14:30:00Z", "25-12-2024 14:30:00"},
		{"iso without zone", "2024-12-25T14:30:00", "25-12-2024 14:30:00"},
		{"space separated iso", "2024-12-25 14:30:00", "25-12-2024 14:30:00"},
		{"slash with time", "25/12/2024 14:30:00", "25-12-2024 14:30:00"},
		{"slash date only", "25/12/2024", "25-12-2024 00:00:00"},
		{"iso date only", "2024-12-25", "25-12-2024 00:00:00"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			parsed, ok := Parse(tc.raw)
			require.True(t, ok)
			assert.Equal(t, tc.want, Format(parsed))
		})
	}
}

func TestParseUnparseable(t *testing.T) {
	for _, raw := range []string{"not-a-date", "", "  ", "32/13/2024, 99:99:99"} {
		_, ok := Parse(raw)
		assert.False(t, ok, "expected %q to fail parsing", raw)
	}
}

func TestEnd(t *testing.T) {
	start, ok := Parse("25/12/2024, 14:30:00")
	require.True(t, ok)

	end := End(start, 90)
	assert.Equal(t, "25-12-2024 16:00:00", Format(end))

	assert.Equal(t, start, End(start, 0))
	assert.Equal(t, start, End(start, -15))
}

func TestSameDay(t *testing.T) {
	parsed, ok := Parse("25/12/2024, 23:59:59")
	require.True(t, ok)

	assert.True(t, SameDay(parsed, "2024-12-25"))
	assert.False(t, SameDay(parsed, "2024-12-26"))
	assert.False(t, SameDay(time.Time{}, "2024-12-25"))
}

func TestValidDay(t *testing.T) {
	assert.True(t, ValidDay("2024-12-25"))
	assert.False(t, ValidDay("25-12-2024"))
	assert.False(t, ValidDay("2024-13-01"))
	assert.False(t, ValidDay("today"))
}
