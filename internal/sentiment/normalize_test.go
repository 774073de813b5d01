package sentiment

import "testing"

func TestNormalize(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   string
		want string
	}{
		{"lowercases", "BTC To The MOON", "btc to the moon"},
		{"strips punctuation", "bitcoin!!! $100k?? yes.", "bitcoin k yes"},
		{"strips digits without separator", "top10coins", "topcoins"},
		{"keeps unicode letters", "Café Über", "café über"},
		{"keeps whitespace shape", "a\tb\nc", "a\tb\nc"},
		{"empty", "", ""},
		{"only symbols", "$$$ 123 %%%", "  "},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := Normalize(tc.in); got != tc.want {
				t.Fatalf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}
