package compress

import (
	"testing"
)

func TestRateNeverNegative(t *testing.T) {
	cases := []struct {
		name     string
		original int64
		result   int64
		want     string
	}{
		{"halved", 1000, 500, "50.00"},
		{"fractional", 3000, 1000, "66.67"},
		{"no change", 1000, 1000, "0.00"},
		{"grew", 1000, 1500, "0.00"},
		{"zero original", 0, 100, "0.00"},
		{"tiny reduction", 10000, 9999, "0.01"},
	}
	for _, tc := range cases {
		if got := Rate(tc.original, tc.result); got != tc.want {
			t.Errorf("%s: Rate(%d, %d) = %q, want %q", tc.name, tc.original, tc.result, got, tc.want)
		}
	}
}

func TestLevelPolicy(t *testing.T) {
	cases := []struct {
		level   Level
		quality int
		scale   float64
		png     bool
	}{
		{LevelLow, 85, 2.0, true},
		{LevelMedium, 55, 1.5, false},
		{LevelHigh, 25, 1.2, false},
	}
	for _, tc := range cases {
		pol, err := tc.level.policy()
		if err != nil {
			t.Fatalf("%s: %v", tc.level, err)
		}
		if pol.quality != tc.quality || pol.scale != tc.scale || pol.png != tc.png {
			t.Errorf("%s policy = %+v, want quality %d scale %v png %v",
				tc.level, pol, tc.quality, tc.scale, tc.png)
		}
	}

	if _, err := Level("extreme").policy(); err == nil {
		t.Error("unknown level should be rejected")
	}
}
