package digest

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hkmon/hknews/internal/feed"
)

const fingerprintRunes = 30

// Aggregate sorts entries newest first and collapses near-duplicates that
// share a title fingerprint, keeping the first occurrence. This is the
// same-run title dedup, separate from the cross-run link store.
func Aggregate(entries []feed.Entry) []feed.Entry {
	sorted := make([]feed.Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Published.After(sorted[j].Published)
	})

	seen := make(map[string]struct{}, len(sorted))
	out := make([]feed.Entry, 0, len(sorted))
	for _, e := range sorted {
		fp := Fingerprint(e.Title)
		if _, dup := seen[fp]; dup {
			continue
		}
		seen[fp] = struct{}{}
		out = append(out, e)
	}
	return out
}

// Fingerprint is the first 30 characters of the title. Titles are mostly
// CJK, so the cut is by rune, not byte.
func Fingerprint(title string) string {
	runes := []rune(title)
	if len(runes) > fingerprintRunes {
		runes = runes[:fingerprintRunes]
	}
	return string(runes)
}

// Render builds the Telegram HTML message: a header, one labelled block per
// source with at most maxPerSource linked titles, then a fixed footer.
// Sources appear in first-seen order; truncation past maxPerSource is
// silent. Empty input renders an empty string and must not be delivered.
func Render(entries []feed.Entry, maxPerSource int, footerURL string) string {
	if len(entries) == 0 {
		return ""
	}

	groups := make(map[string][]feed.Entry)
	order := []string{}
	for _, e := range entries {
		if _, ok := groups[e.Source]; !ok {
			order = append(order, e.Source)
		}
		groups[e.Source] = append(groups[e.Source], e)
	}

	var b strings.Builder
	b.WriteString("🇭🇰 <b>香港新聞速遞</b>\n")
	b.WriteString("━━━━━━━━━━━━━━━━━━━━\n\n")

	for _, source := range order {
		b.WriteString(fmt.Sprintf("📰 <b>%s</b>\n", source))
		for i, e := range groups[source] {
			if i >= maxPerSource {
				break
			}
			b.WriteString(fmt.Sprintf("• <a href=\"%s\">%s</a>\n", e.Link, e.Title))
		}
		b.WriteString("\n")
	}

	b.WriteString("━━━━━━━━━━━━━━━━━━━━\n")
	b.WriteString(fmt.Sprintf("🤖 <a href=\"%s\">hknews monitor</a>", footerURL))

	return b.String()
}
