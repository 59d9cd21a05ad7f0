package postservice

import (
	"regexp"
	"strings"
)

var (
	imageLinkRX = regexp.MustCompile(`!\[.*?\]\((.*?)\)`)
	linkRX      = regexp.MustCompile(`\[(.*?)\]\(.*?\)`)
	scriptTagRX = regexp.MustCompile(`(?i)<\s*script[^>]*>(.*?)<\s*/\s*script\s*>`)
)

func sanitizeMarkdown(markdown string) string {
	return scriptTagRX.ReplaceAllString(markdown, "")
}

// extractThumbnail returns the URL of the first image reference in the
// markdown content, or nil if there is none.
func extractThumbnail(markdown string) *string {
	match := imageLinkRX.FindStringSubmatch(markdown)
	if match == nil {
		return nil
	}

	url := match[1]
	return &url
}

const excerptLength = 200

// makeExcerpt derives a plain-text preview from markdown content.
func makeExcerpt(markdown string) string {
	s := imageLinkRX.ReplaceAllString(markdown, "")
	s = linkRX.ReplaceAllString(s, "$1")
	s = strings.NewReplacer("#", "", "*", "", "`", "", ">", "").Replace(s)
	s = strings.Join(strings.Fields(s), " ")

	runes := []rune(s)
	if len(runes) > excerptLength {
		return string(runes[:excerptLength])
	}

	return s
}
