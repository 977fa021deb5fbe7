package gs1_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pragavigithub/Emerald-Barcode-20260129/internal/gs1"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want map[string]string
	}{
		{
			name: "empty input",
			raw:  "",
			want: map[string]string{},
		},
		{
			name: "sscc only",
			raw:  "00123456789012345678",
			want: map[string]string{"00": "123456789012345678"},
		},
		{
			name: "gtin expiry batch",
			raw:  "01012345678901281726033110BATCH7",
			want: map[string]string{
				"01": "01234567890128",
				"17": "260331",
				"10": "BATCH7",
			},
		},
		{
			name: "human readable parentheses stripped",
			raw:  "(01)01234567890128(10)LOTX",
			want: map[string]string{
				"01": "01234567890128",
				"10": "LOTX",
			},
		},
		{
			name: "group separator bounds variable value",
			raw:  "10ABC|21SN1",
			want: map[string]string{
				"10": "ABC",
				"21": "SN1",
			},
		},
		{
			name: "ascii gs character treated as separator",
			raw:  "10ABC\x1d21SN1",
			want: map[string]string{
				"10": "ABC",
				"21": "SN1",
			},
		},
		{
			name: "unknown leading characters skipped",
			raw:  "99XX10ABC",
			want: map[string]string{"10": "ABC"},
		},
		{
			name: "three character additional product id",
			raw:  "240ABC123|10L1",
			want: map[string]string{
				"240": "ABC123",
				"10":  "L1",
			},
		},
		{
			name: "truncated fixed value kept as-is",
			raw:  "1726",
			want: map[string]string{"17": "26"},
		},
		{
			name: "adjacent variable values without separator",
			raw:  "10AB21CD",
			want: map[string]string{
				"10": "AB",
				"21": "CD",
			},
		},
		{
			name: "mfg and expiry stay raw",
			raw:  "1125010117270101",
			want: map[string]string{
				"11": "250101",
				"17": "270101",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := gs1.Decode(tt.raw)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got)
		})
	}
}

// A variable-length value containing a known AI digraph is cut short at that
// digraph. Scanner firmware behaves the same way, so the decoder keeps the
// behaviour rather than guessing where the value really ends.
func TestDecode_ValueContainingAIDigraph(t *testing.T) {
	got := gs1.Decode("10X92Y")

	assert.Equal(t, map[string]string{
		"10": "X",
		"92": "Y",
	}, got)
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		want   time.Time
		wantOK bool
	}{
		{"valid date", "260331", time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC), true},
		{"day zero resolves to month end", "260200", time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC), true},
		{"wrong length", "2603", time.Time{}, false},
		{"non numeric", "26AB31", time.Time{}, false},
		{"month out of range", "261301", time.Time{}, false},
		{"day out of range", "260342", time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := gs1.ParseDate(tt.raw)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}
