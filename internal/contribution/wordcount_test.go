package contribution

import "testing"

func TestCountWords(t *testing.T) {
	cases := []struct {
		name    string
		content string
		want    int
	}{
		{"simple", "Hello world", 2},
		{"mixed whitespace", "one  two\tthree", 3},
		{"surrounding whitespace", "   a   ", 1},
		{"newlines", "line one\nline two\n", 4},
		{"empty", "", 0},
		{"whitespace only", " \t\n ", 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CountWords(tc.content); got != tc.want {
				t.Errorf("CountWords(%q): got %d, want %d", tc.content, got, tc.want)
			}
		})
	}
}
