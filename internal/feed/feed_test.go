package feed

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hkmon/hknews/internal/config"
)

func rssServer(t *testing.T, items string) *httptest.Server {
	t.Helper()
	body := `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>test</title>` + items + `</channel></rss>`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchRSS_ParsesTitleLinkAndDate(t *testing.T) {
	srv := rssServer(t, `<item>
<title>香港海關檢獲毒品</title>
<link>https://example.com/a</link>
<pubDate>Sun, 30 Aug 2026 10:00:00 +0800</pubDate>
</item>
<item>
<title>無日期新聞</title>
<link>https://example.com/b</link>
</item>`)

	f := New(5*time.Second, 30)
	entries, err := f.Fetch(context.Background(), config.Source{Name: "測試", URL: srv.URL, Kind: config.KindRSS})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("want 2 entries, got %d", len(entries))
	}
	if entries[0].Title != "香港海關檢獲毒品" || entries[0].Link != "https://example.com/a" {
		t.Errorf("bad first entry: %+v", entries[0])
	}
	if entries[0].Published.IsZero() {
		t.Errorf("dated entry must carry its timestamp")
	}
	if !entries[1].Published.IsZero() {
		t.Errorf("entry without pubDate must be dateless, got %v", entries[1].Published)
	}
	if entries[0].Source != "測試" {
		t.Errorf("entry must carry the source name, got %q", entries[0].Source)
	}
}

func TestFetchRSS_CapsEntries(t *testing.T) {
	var items strings.Builder
	for i := 0; i < 40; i++ {
		fmt.Fprintf(&items, `<item><title>新聞%d</title><link>https://example.com/%d</link></item>`, i, i)
	}
	srv := rssServer(t, items.String())

	f := New(5*time.Second, 30)
	entries, err := f.Fetch(context.Background(), config.Source{Name: "測試", URL: srv.URL, Kind: config.KindRSS})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 30 {
		t.Errorf("want 30-entry cap, got %d", len(entries))
	}
}

func TestFetchRSS_FailureYieldsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := New(5*time.Second, 30)
	entries, err := f.Fetch(context.Background(), config.Source{Name: "壞源", URL: srv.URL, Kind: config.KindRSS})
	if err == nil {
		t.Errorf("want an error for the caller to log")
	}
	if len(entries) != 0 {
		t.Errorf("failed source must yield zero entries, got %d", len(entries))
	}
}

func TestFetchJSON_VendorShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":[
			{"title":"海關檢獲私煙","url":"https://example.com/1","publishTime":"2026-08-30T09:15:00.123456+08:00"},
			{"title":"更新公告","url":"https://example.com/2","updated":"2026-08-29T18:00:00.000000+08:00"}
		]}`))
	}))
	defer srv.Close()

	f := New(5*time.Second, 30)
	entries, err := f.Fetch(context.Background(), config.Source{Name: "公告", URL: srv.URL, Kind: config.KindJSON})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("want 2 entries, got %d", len(entries))
	}
	want := time.Date(2026, 8, 30, 9, 15, 0, 123456000, time.FixedZone("", 8*3600))
	if !entries[0].Published.Equal(want) {
		t.Errorf("microsecond timestamp parsed wrong: %v", entries[0].Published)
	}
	if entries[1].Published.IsZero() {
		t.Errorf("updated field must back-fill a missing publishTime")
	}
}

func TestFetchJSON_BadPayloadYieldsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json at all`))
	}))
	defer srv.Close()

	f := New(5*time.Second, 30)
	if _, err := f.Fetch(context.Background(), config.Source{Name: "壞源", URL: srv.URL, Kind: config.KindJSON}); err == nil {
		t.Errorf("malformed vendor payload must be an error")
	}
}

func TestStripSiteSuffix(t *testing.T) {
	cases := []struct{ in, want string }{
		{"香港海關檢獲毒品 - 明報", "香港海關檢獲毒品"},
		{"價格升至 3 - 5 成 - 星島日報", "價格升至 3 - 5 成"},
		{"無後綴標題", "無後綴標題"},
	}
	for _, c := range cases {
		if got := stripSiteSuffix(c.in); got != c.want {
			t.Errorf("stripSiteSuffix(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestIsGoogleNews(t *testing.T) {
	if !isGoogleNews("https://news.google.com/rss/search?q=x") {
		t.Errorf("google news host not recognized")
	}
	if isGoogleNews("https://rthk9.rthk.hk/rthk/news/rss/c.xml") {
		t.Errorf("regular host misdetected as google news")
	}
}

func TestParseVendorTime(t *testing.T) {
	if got := parseVendorTime("2026-08-30T09:15:00.123456+08:00"); got.IsZero() {
		t.Errorf("ISO-8601 with microseconds and offset must parse")
	}
	if got := parseVendorTime("yesterday"); !got.IsZero() {
		t.Errorf("unparseable value must come back zero, got %v", got)
	}
	if got := parseVendorTime(""); !got.IsZero() {
		t.Errorf("empty value must come back zero")
	}
}
