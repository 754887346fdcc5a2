package dashboard

import (
	"html"
	"strings"
	"testing"
)

func TestEscape(t *testing.T) {
	var nilStr *string
	tests := []struct {
		name  string
		input any
		want  string
	}{
		{name: "nil", input: nil, want: ""},
		{name: "typed-nil", input: nilStr, want: ""},
		{name: "plain", input: "pipeline-a", want: "pipeline-a"},
		{name: "all-reserved", input: `<a href="x">'&'</a>`, want: "&lt;a href=&quot;x&quot;&gt;&#39;&amp;&#39;&lt;/a&gt;"},
		{name: "int", input: 500, want: "500"},
		{name: "float", input: 12.5, want: "12.5"},
		{name: "double-escape", input: "&amp;", want: "&amp;amp;"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Escape(tt.input); got != tt.want {
				t.Fatalf("Escape() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEscapeRoundTrip(t *testing.T) {
	inputs := []string{
		`<script>alert('x')</script>`,
		`a & b > c < d "quoted"`,
		`'''&&&<<<>>>"""`,
		`plain text`,
		`уже & юникод <тег>`,
	}

	for _, in := range inputs {
		got := Escape(in)
		if strings.ContainsAny(got, `<>"'`) {
			t.Fatalf("Escape(%q) = %q contains a reserved character", in, got)
		}
		// каждый & в выводе начинает сущность
		if strings.Count(got, "&") != strings.Count(got, ";") {
			t.Fatalf("Escape(%q) = %q has a bare ampersand", in, got)
		}
		if back := html.UnescapeString(got); back != in {
			t.Fatalf("UnescapeString(Escape(%q)) = %q", in, back)
		}
	}
}
