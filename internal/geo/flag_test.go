package geo

import "testing"

func TestCountryFlag(t *testing.T) {
	tests := []struct {
		code string
		want string
	}{
		{"NO", "\U0001F1F3\U0001F1F4"},
		{"no", "\U0001F1F3\U0001F1F4"},
		{"US", "\U0001F1FA\U0001F1F8"},
		{"CN", "\U0001F1E8\U0001F1F3"},
		{"", flagGlobe},
		{"X", flagGlobe},
		{"XYZ", flagGlobe},
		{"12", flagGlobe},
	}

	for _, tt := range tests {
		if got := CountryFlag(tt.code); got != tt.want {
			t.Errorf("CountryFlag(%q) = %q, want %q", tt.code, got, tt.want)
		}
	}
}

func TestCountryFlagDeterministic(t *testing.T) {
	first := CountryFlag("NO")
	for i := 0; i < 10; i++ {
		if got := CountryFlag("NO"); got != first {
			t.Fatalf("CountryFlag(\"NO\") 第 %d 次调用返回 %q, 首次返回 %q", i, got, first)
		}
	}
}
