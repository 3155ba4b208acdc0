package catalog

import "testing"

func TestDeriveTitle(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{"01 - neon_rain.flac", "Neon Rain"},
		{"7. midnight drive.mp3", "Midnight Drive"},
		{"intro.wav", "Intro"},
		{"deep__blue-sea.opus", "Deep Blue Sea"},
		{"1234 not a number.flac", "1234 Not A Number"},
	}
	for _, tc := range cases {
		if got := DeriveTitle(tc.name); got != tc.want {
			t.Errorf("DeriveTitle(%q) = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestSplitNumberPrefix(t *testing.T) {
	cases := []struct {
		name       string
		wantNumber int
		wantRest   string
	}{
		{"01 intro", 1, "intro"},
		{"03 - slow burn", 3, "slow burn"},
		{"12.encore", 12, "encore"},
		{"01intro", 0, "01intro"},
		{"07", 7, "07"},
		{"intro", 0, "intro"},
		{"1234 overlong", 0, "1234 overlong"},
	}
	for _, tc := range cases {
		number, rest := splitNumberPrefix(tc.name)
		if number != tc.wantNumber || rest != tc.wantRest {
			t.Errorf("splitNumberPrefix(%q) = (%d, %q), want (%d, %q)",
				tc.name, number, rest, tc.wantNumber, tc.wantRest)
		}
	}
}

func TestSlugify(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{"Neon Rain", "neon-rain"},
		{"A.B. & Friends!", "a-b-friends"},
		{"  ---  ", "untitled"},
		{"Already-Slugged", "already-slugged"},
	}
	for _, tc := range cases {
		if got := Slugify(tc.name); got != tc.want {
			t.Errorf("Slugify(%q) = %q, want %q", tc.name, got, tc.want)
		}
	}
}
