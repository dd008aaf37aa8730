package dedup

import "testing"

func TestKey(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{"dotted version", "Foo Bar 6.4.2", "foo bar"},
		{"no version", "Foo Bar Pro", "foo bar pro"},
		{"hyphenated suffix", "App Pro-2", "app"},
		{"single digit", "Tracker 2", "tracker"},
		{"build tag", "Life360 v24.1.0", "life360"},
		{"extra whitespace", "  Family   Locator\t1.0 ", "family locator"},
		{"mixed case", "FIND My Phone", "find my phone"},
		{"only a number", "2048", "2048"},
		{"number title with version", "2048 1.2", "2048"},
		{"stacked suffixes", "Foo 2 3", "foo"},
		{"punctuation kept", "Foo (Beta)", "foo (beta)"},
		{"empty", "", ""},
		{"whitespace only", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Key(tt.title); got != tt.want {
				t.Errorf("Key(%q) = %q, want %q", tt.title, got, tt.want)
			}
		})
	}
}

func TestKeyIdempotent(t *testing.T) {
	titles := []string{
		"Foo Bar 6.4.2",
		"Foo 2 3",
		"App Pro-2 6.4",
		"Kids Tracker",
		"2048 1.2",
		"Qustodio Parental Control 180.52.1",
		"a1 b2 c3",
		"",
	}

	for _, title := range titles {
		once := Key(title)
		twice := Key(once)
		if once != twice {
			t.Errorf("Key not idempotent for %q: %q then %q", title, once, twice)
		}
	}
}

func TestVersion(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"App 6.4.2", "6.4.2"},
		{"App 12.0.1", "12.0.1"},
		{"App 7", "7"},
		{"App Pro", ""},
		{"App Pro-2", ""},
		{"App v6.4", ""},
		{"App 6..4", ""},
		{"App 6.4.", ""},
		{"App 6.4-beta", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := Version(tt.title); got != tt.want {
			t.Errorf("Version(%q) = %q, want %q", tt.title, got, tt.want)
		}
	}
}
