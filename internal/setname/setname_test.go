package setname

import "testing"

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"strips punctuation", "My Cool Set!!", "My_Cool_Set"},
		{"empty input", "", ""},
		{"only punctuation", "!!!???", ""},
		{"collapses runs", "a  - b", "a_b"},
		{"keeps underscores", "foo_bar", "foo_bar"},
		{"trailing hyphen", "abc-", "abc_"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sanitize(tt.in); got != tt.want {
				t.Fatalf("Sanitize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSanitizeBounds(t *testing.T) {
	long := ""
	for i := 0; i < 30; i++ {
		long += "abcde"
	}
	got := Sanitize(long)
	if len(got) != 50 {
		t.Fatalf("expected 50-char result, got %d", len(got))
	}
	for _, r := range got {
		ok := r == '_' || r == '-' ||
			(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
		if !ok {
			t.Fatalf("unexpected rune %q in sanitized output %q", r, got)
		}
	}
}

func TestSanitizeIdempotent(t *testing.T) {
	inputs := []string{"My Cool Set!!", "a  - b", "FooBar", "x-y-z"}
	for _, in := range inputs {
		once := Sanitize(in)
		if twice := Sanitize(once); twice != once {
			t.Fatalf("Sanitize not idempotent: %q -> %q -> %q", in, once, twice)
		}
	}
}

func TestFromText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"share link", "https://t.me/addstickers/FooBar", "FooBar"},
		{"plain text", "FooBar", "FooBar"},
		{"link with whitespace", "  https://t.me/addstickers/FooBar  ", "FooBar"},
		{"empty", "   ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FromText(tt.in); got != tt.want {
				t.Fatalf("FromText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
