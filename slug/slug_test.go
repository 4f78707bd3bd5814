package slug

import (
	"strings"
	"testing"
)

func TestMake(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Hello World", "hello-world"},
		{"About Us", "about-us"},
		{"Contact", "contact"},
		{"Hello, World!", "hello-world"},
		{"What's New? Price: $99.99!", "what-s-new-price-99-99"},
		{"Email@example.com", "email-example-com"},
		{"  Hello  World  ", "hello-world"},
		{"Multiple   Spaces", "multiple-spaces"},
		{"\tTabs\tand\tSpaces\t", "tabs-and-spaces"},
		{"UPPERCASE TITLE", "uppercase-title"},
		{"Page 2", "page-2"},
		{"2024 Report", "2024-report"},
		{"", "untitled"},
		{"   ", "untitled"},
		{"!!!", "untitled"},
		{"---", "untitled"},
		{"Déjà Vu", "d-j-vu"},
	}
	for _, tt := range tests {
		if got := Make(tt.title); got != tt.want {
			t.Errorf("Make(%q) = %q, want %q", tt.title, got, tt.want)
		}
	}
}

func TestMake_Truncation(t *testing.T) {
	long := strings.Repeat("word ", 50) // 250 chars before sanitization
	got := Make(long)
	if len(got) > MaxLen {
		t.Fatalf("len = %d, want <= %d", len(got), MaxLen)
	}
	if strings.HasSuffix(got, "-") {
		t.Errorf("truncated slug ends in hyphen: %q", got)
	}
	if !IsValid(got) {
		t.Errorf("truncated slug invalid: %q", got)
	}
}

func TestUnique_NoCollision(t *testing.T) {
	got := Unique("about-us", func(string) bool { return false })
	if got != "about-us" {
		t.Errorf("Unique = %q, want %q", got, "about-us")
	}
}

func TestUnique_Suffixes(t *testing.T) {
	taken := map[string]bool{
		"test-page-without-slug":   true,
		"test-page-without-slug-2": true,
	}
	got := Unique("test-page-without-slug", func(s string) bool { return taken[s] })
	if got != "test-page-without-slug-3" {
		t.Errorf("Unique = %q, want %q", got, "test-page-without-slug-3")
	}
}

func TestUnique_SuffixRespectsMaxLen(t *testing.T) {
	base := strings.Repeat("a", MaxLen)
	taken := map[string]bool{base: true}
	got := Unique(base, func(s string) bool {
		if taken[s] {
			return true
		}
		taken[s] = true
		return false
	})
	if len(got) > MaxLen {
		t.Fatalf("len = %d, want <= %d", len(got), MaxLen)
	}
	if !strings.HasSuffix(got, "-2") {
		t.Errorf("got %q, want -2 suffix", got)
	}
	if !IsValid(got) {
		t.Errorf("suffixed slug invalid: %q", got)
	}
}

func TestIsValid(t *testing.T) {
	tests := []struct {
		s    string
		want bool
	}{
		{"hello-world", true},
		{"a", true},
		{"page-2", true},
		{"", false},
		{"-leading", false},
		{"trailing-", false},
		{"UPPER", false},
		{"has space", false},
		{strings.Repeat("a", MaxLen), true},
		{strings.Repeat("a", MaxLen+1), false},
	}
	for _, tt := range tests {
		if got := IsValid(tt.s); got != tt.want {
			t.Errorf("IsValid(%q) = %v, want %v", tt.s, got, tt.want)
		}
	}
}
