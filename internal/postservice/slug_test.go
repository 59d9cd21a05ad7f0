package postservice

import (
	"strings"
	"testing"
	"time"
)

func TestMakeSlug(t *testing.T) {
	now := time.Date(2025, 3, 14, 9, 26, 53, 589_793_000, time.UTC)

	testCases := []struct {
		name         string
		title        string
		expectedBase string
	}{
		{name: "simple title", title: "Hello World", expectedBase: "hello-world"},
		{name: "mixed case", title: "Going Deeper With Go", expectedBase: "going-deeper-with-go"},
		{name: "punctuation collapsed", title: "What's new in Go 1.22?", expectedBase: "what-s-new-in-go-1-22"},
		{name: "leading and trailing separators", title: "  --Hello--  ", expectedBase: "hello"},
		{name: "non-ascii", title: "日本語のタイトル", expectedBase: "post"},
		{name: "empty title", title: "", expectedBase: "post"},
		{name: "only punctuation", title: "!?!?", expectedBase: "post"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			slug := makeSlug(tc.title, now)

			if !strings.HasPrefix(slug, tc.expectedBase+"-") {
				t.Errorf("expected slug to start with %q, got %q", tc.expectedBase+"-", slug)
			}

			// the suffix is six millisecond digits plus four microsecond digits
			suffix := strings.TrimPrefix(slug, tc.expectedBase+"-")
			if len(suffix) != 10 {
				t.Errorf("expected a 10 digit suffix, got %q", suffix)
			}
		})
	}
}

func TestMakeSlugDistinctInstants(t *testing.T) {
	a := makeSlug("Hello World", time.Date(2025, 3, 14, 9, 26, 53, 589_793_000, time.UTC))
	b := makeSlug("Hello World", time.Date(2025, 3, 14, 9, 26, 53, 589_921_000, time.UTC))

	if a == b {
		t.Errorf("expected different slugs for different instants, got %q twice", a)
	}
}

func TestMakeSlugDeterministic(t *testing.T) {
	now := time.Date(2025, 3, 14, 9, 26, 53, 589_793_000, time.UTC)

	a := makeSlug("Hello World", now)
	b := makeSlug("Hello World", now)

	if a != b {
		t.Errorf("expected identical slugs for the same instant, got %q and %q", a, b)
	}
}
