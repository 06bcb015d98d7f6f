package digest

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/hkmon/hknews/internal/feed"
)

func at(hour int) time.Time {
	return time.Date(2026, 8, 30, hour, 0, 0, 0, time.UTC)
}

func TestFingerprint_ThirtyRunes(t *testing.T) {
	long := strings.Repeat("關", 40)
	fp := Fingerprint(long)
	if got := len([]rune(fp)); got != 30 {
		t.Errorf("want 30-rune fingerprint, got %d runes", got)
	}
	short := "香港海關"
	if Fingerprint(short) != short {
		t.Errorf("short title fingerprint should be the title itself")
	}
}

func TestAggregate_SortsNewestFirst(t *testing.T) {
	entries := []feed.Entry{
		{Title: "舊新聞", Link: "https://e.com/1", Published: at(9)},
		{Title: "新新聞", Link: "https://e.com/2", Published: at(12)},
	}
	out := Aggregate(entries)
	if out[0].Title != "新新聞" {
		t.Errorf("want newest first, got %q", out[0].Title)
	}
}

func TestAggregate_FingerprintDedupFirstWins(t *testing.T) {
	base := strings.Repeat("海", 30)
	entries := []feed.Entry{
		{Title: base + "甲", Link: "https://e.com/1", Published: at(12)},
		{Title: base + "乙", Link: "https://e.com/2", Published: at(11)},
		{Title: "完全不同的標題", Link: "https://e.com/3", Published: at(10)},
	}
	out := Aggregate(entries)
	if len(out) != 2 {
		t.Fatalf("want 2 survivors, got %d", len(out))
	}
	if out[0].Link != "https://e.com/1" {
		t.Errorf("the earlier entry in sort order must survive, got %s", out[0].Link)
	}
}

func TestRender_EmptyInput(t *testing.T) {
	if msg := Render(nil, 5, "https://example.com"); msg != "" {
		t.Errorf("empty input must render nothing, got %q", msg)
	}
}

func TestRender_GroupsBySourceInFirstSeenOrder(t *testing.T) {
	entries := []feed.Entry{
		{Source: "乙社", Title: "標題一", Link: "https://e.com/1", Published: at(12)},
		{Source: "甲社", Title: "標題二", Link: "https://e.com/2", Published: at(11)},
		{Source: "乙社", Title: "標題三", Link: "https://e.com/3", Published: at(10)},
	}
	msg := Render(entries, 5, "https://example.com")

	first := strings.Index(msg, "乙社")
	second := strings.Index(msg, "甲社")
	if first < 0 || second < 0 {
		t.Fatalf("both sources must appear in the message:\n%s", msg)
	}
	if first > second {
		t.Errorf("sources must keep first-seen order, got 甲社 before 乙社")
	}
	if strings.Count(msg, "乙社") != 1 {
		t.Errorf("each source heading must appear once")
	}
}

func TestRender_CapsPerSourceSilently(t *testing.T) {
	var entries []feed.Entry
	for i := 0; i < 8; i++ {
		entries = append(entries, feed.Entry{
			Source:    "甲社",
			Title:     fmt.Sprintf("標題%d", i),
			Link:      fmt.Sprintf("https://e.com/%d", i),
			Published: at(12),
		})
	}
	msg := Render(entries, 5, "https://example.com")
	if got := strings.Count(msg, "<a href=\"https://e.com/"); got != 5 {
		t.Errorf("want 5 article links, got %d", got)
	}
	if strings.Contains(msg, "more") || strings.Contains(msg, "更多") {
		t.Errorf("truncation must be silent, no more-indicator:\n%s", msg)
	}
}

func TestRender_HeaderLinksAndFooter(t *testing.T) {
	entries := []feed.Entry{
		{Source: "甲社", Title: "香港海關檢獲毒品", Link: "https://e.com/1", Published: at(12)},
	}
	msg := Render(entries, 5, "https://github.com/hkmon/hknews")
	if !strings.Contains(msg, `<a href="https://e.com/1">香港海關檢獲毒品</a>`) {
		t.Errorf("title must be a hyperlink to its article:\n%s", msg)
	}
	if !strings.Contains(msg, "https://github.com/hkmon/hknews") {
		t.Errorf("fixed footer link missing:\n%s", msg)
	}
}
