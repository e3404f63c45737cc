package markdown

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

func TestRenderHeadings(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"# Heading 1", `<h1 id="heading-1">Heading 1</h1>`},
		{"## Heading 2", `<h2 id="heading-2">Heading 2</h2>`},
		{"### Heading 3", `<h3 id="heading-3">Heading 3</h3>`},
	}
	tr := New()
	for _, tt := range tests {
		got, err := tr.Render(tt.input)
		if err != nil {
			t.Fatalf("Render(%q) error: %v", tt.input, err)
		}
		if !strings.Contains(got, tt.expected) {
			t.Errorf("Render(%q) = %q, want it to contain %q", tt.input, got, tt.expected)
		}
	}
}

func TestRenderInline(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"**bold**", "<strong>bold</strong>"},
		{"*italic*", "<em>italic</em>"},
		{"`code`", "<code>code</code>"},
		{"[link](https://example.com)", `<a href="https://example.com">link</a>`},
	}
	tr := New()
	for _, tt := range tests {
		got, err := tr.Render(tt.input)
		if err != nil {
			t.Fatalf("Render(%q) error: %v", tt.input, err)
		}
		if !strings.Contains(got, tt.expected) {
			t.Errorf("Render(%q) = %q, want it to contain %q", tt.input, got, tt.expected)
		}
	}
}

func TestRenderGFMExtensions(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"table", "| a | b |\n|---|---|\n| 1 | 2 |", "<table>"},
		{"table cell", "| a | b |\n|---|---|\n| 1 | 2 |", "<td>1</td>"},
		{"strikethrough", "~~gone~~", "<del>gone</del>"},
		{"autolink", "see https://example.com now", `<a href="https://example.com">https://example.com</a>`},
		{"tasklist", "- [x] done", `<input checked="" disabled="" type="checkbox"`},
	}
	tr := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tr.Render(tt.input)
			if err != nil {
				t.Fatalf("Render error: %v", err)
			}
			if !strings.Contains(got, tt.expected) {
				t.Errorf("Render(%q) = %q, want it to contain %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestRenderRawHTMLOmittedByDefault(t *testing.T) {
	input := "<script>alert(1)</script>\n\ntext"

	got, err := New().Render(input)
	if err != nil {
		t.Fatalf("Render error: %v", err)
	}
	if strings.Contains(got, "<script>") {
		t.Errorf("raw HTML should be omitted by default: %q", got)
	}

	got, err = New(WithUnsafeHTML()).Render(input)
	if err != nil {
		t.Fatalf("Render error: %v", err)
	}
	if !strings.Contains(got, "<script>") {
		t.Errorf("raw HTML should pass through with WithUnsafeHTML: %q", got)
	}
}

func TestRenderHighlighting(t *testing.T) {
	input := "```go\nfunc main() {}\n```"
	got, err := New(WithHighlighting("github")).Render(input)
	if err != nil {
		t.Fatalf("Render error: %v", err)
	}
	if !strings.Contains(got, `class="chroma"`) {
		t.Errorf("highlighted code should carry chroma classes: %q", got)
	}
}

func TestRenderFootnotes(t *testing.T) {
	input := "text[^1]\n\n[^1]: note"
	got, err := New(WithFootnotes()).Render(input)
	if err != nil {
		t.Fatalf("Render error: %v", err)
	}
	if !strings.Contains(got, `class="footnotes"`) {
		t.Errorf("footnotes should be rendered: %q", got)
	}
}

func TestRenderInvalidUTF8(t *testing.T) {
	_, err := New().Render("ok \xff\xfe bad")
	if !errors.Is(err, ErrParse) {
		t.Fatalf("expected ErrParse, got %v", err)
	}
}

func TestRenderInputTooLarge(t *testing.T) {
	tr := New(WithMaxInputSize(16))
	_, err := tr.Render(strings.Repeat("a", 17))
	if !errors.Is(err, ErrParse) {
		t.Fatalf("expected ErrParse, got %v", err)
	}
	if _, err := tr.Render(strings.Repeat("a", 16)); err != nil {
		t.Fatalf("input at the limit should render: %v", err)
	}
}

func TestRenderDeterministic(t *testing.T) {
	tr := New()
	input := "# Title\n\nSome *text* and a [link](/x)."
	first, err := tr.Render(input)
	if err != nil {
		t.Fatalf("Render error: %v", err)
	}
	for i := 0; i < 3; i++ {
		again, err := tr.Render(input)
		if err != nil {
			t.Fatalf("Render error: %v", err)
		}
		if again != first {
			t.Fatalf("Render is not deterministic: %q vs %q", again, first)
		}
	}
}

func TestComponent(t *testing.T) {
	var buf bytes.Buffer
	cmp := New().Component("(:sidenote note :sidenote) text", true)
	if err := cmp.Render(context.Background(), &buf); err != nil {
		t.Fatalf("Component render error: %v", err)
	}
	got := buf.String()
	if !strings.Contains(got, `id="mn-1"`) {
		t.Errorf("component should rewrite sidenotes: %q", got)
	}
}

func TestComponentPropagatesParseError(t *testing.T) {
	var buf bytes.Buffer
	err := New().Component("\xff", false).Render(context.Background(), &buf)
	if !errors.Is(err, ErrParse) {
		t.Fatalf("expected ErrParse, got %v", err)
	}
}
