package postservice

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var nonAlnumRX = regexp.MustCompile(`[^a-z0-9]+`)

// makeSlug derives a URL-safe slug from the title: lower-cased, every run of
// non-alphanumeric characters (including anything outside ASCII) collapsed
// to a single hyphen, hyphens trimmed at both ends. A suffix derived from
// the creation instant guarantees collision-freedom without a round-trip
// existence check; the unique constraint on posts.slug backs the guarantee.
func makeSlug(title string, now time.Time) string {
	base := nonAlnumRX.ReplaceAllString(strings.ToLower(title), "-")
	base = strings.Trim(base, "-")
	if base == "" {
		base = "post"
	}

	ms := now.UnixMilli() % 1_000_000
	us := (now.Nanosecond() / 1_000) % 10_000

	return fmt.Sprintf("%s-%06d%04d", base, ms, us)
}
