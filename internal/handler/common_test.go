package handler

import "testing"

func TestParsePositionKey(t *testing.T) {
	cases := []struct {
		key  string
		want int
		ok   bool
	}{
		{"pos1", 1, true},
		{"pos8", 8, true},
		{"pos12", 12, true},
		{"1", 0, false},
		{"position1", 0, false},
		{"pos", 0, false},
		{"posx", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		n, err := parsePositionKey(tc.key)
		if tc.ok && (err != nil || n != tc.want) {
			t.Errorf("parsePositionKey(%q) = %d, %v; want %d", tc.key, n, err, tc.want)
		}
		if !tc.ok && err == nil {
			t.Errorf("parsePositionKey(%q) succeeded with %d, want error", tc.key, n)
		}
	}
}

func TestPositionKey(t *testing.T) {
	for _, n := range []int{1, 8} {
		got, err := parsePositionKey(positionKey(n))
		if err != nil || got != n {
			t.Errorf("round trip of %d = %d, %v", n, got, err)
		}
	}
}
