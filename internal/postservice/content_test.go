package postservice

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractThumbnail(t *testing.T) {
	testCases := []struct {
		name     string
		markdown string
		expected *string
	}{
		{
			name:     "no image",
			markdown: "Just some text with a [link](https://example.com).",
			expected: nil,
		},
		{
			name:     "single image",
			markdown: "Intro\n\n![cover](https://cdn.example.com/cover.png)\n\nBody",
			expected: strptr("https://cdn.example.com/cover.png"),
		},
		{
			name:     "first of several images",
			markdown: "![a](https://example.com/a.png) and ![b](https://example.com/b.png)",
			expected: strptr("https://example.com/a.png"),
		},
		{
			name:     "empty alt text",
			markdown: "![](https://example.com/c.jpg)",
			expected: strptr("https://example.com/c.jpg"),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := extractThumbnail(tc.markdown)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestMakeExcerpt(t *testing.T) {
	testCases := []struct {
		name     string
		markdown string
		expected string
	}{
		{
			name:     "strips markup",
			markdown: "# Heading\n\nSome **bold** text and `code`.",
			expected: "Heading Some bold text and code.",
		},
		{
			name:     "drops images keeps link text",
			markdown: "![cover](https://example.com/a.png) Read [the docs](https://example.com) now.",
			expected: "Read the docs now.",
		},
		{
			name:     "collapses whitespace",
			markdown: "line one\n\n\nline   two",
			expected: "line one line two",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := makeExcerpt(tc.markdown)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestMakeExcerptTruncation(t *testing.T) {
	long := strings.Repeat("word ", 100)

	got := makeExcerpt(long)
	assert.Equal(t, excerptLength, len([]rune(got)))
}

func TestSanitizeMarkdown(t *testing.T) {
	in := "before <script>alert('x')</script> after"

	got := sanitizeMarkdown(in)
	assert.Equal(t, "before  after", got)
	assert.NotContains(t, got, "script")
}
