package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/hkmon/hknews/internal/config"
)

// Entry is one raw article pulled from a feed. Link is the article identity.
// A zero Published means the feed carried no parseable timestamp; such
// entries are excluded from date-filtered flows.
type Entry struct {
	Source    string
	Title     string
	Link      string
	Published time.Time
}

// Fetcher retrieves entries from configured sources, one HTTP attempt each.
type Fetcher struct {
	client     *http.Client
	parser     *gofeed.Parser
	maxEntries int
}

func New(timeout time.Duration, maxEntries int) *Fetcher {
	client := &http.Client{Timeout: timeout}
	parser := gofeed.NewParser()
	parser.Client = client
	return &Fetcher{
		client:     client,
		parser:     parser,
		maxEntries: maxEntries,
	}
}

// Fetch returns the entries of one source, capped at maxEntries. Any fetch
// or parse failure comes back as an error with zero entries; the caller
// logs it and treats the source as empty for this cycle.
func (f *Fetcher) Fetch(ctx context.Context, src config.Source) ([]Entry, error) {
	switch src.Kind {
	case config.KindJSON:
		return f.fetchJSON(ctx, src)
	default:
		return f.fetchRSS(ctx, src)
	}
}

func (f *Fetcher) fetchRSS(ctx context.Context, src config.Source) ([]Entry, error) {
	parsed, err := f.parser.ParseURLWithContext(src.URL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", src.Name, err)
	}

	googleNews := isGoogleNews(src.URL)
	entries := make([]Entry, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if len(entries) >= f.maxEntries {
			break
		}
		title := strings.TrimSpace(item.Title)
		if googleNews {
			title = stripSiteSuffix(title)
		}
		if title == "" || item.Link == "" {
			continue
		}

		var published time.Time
		if item.PublishedParsed != nil {
			published = *item.PublishedParsed
		} else if item.UpdatedParsed != nil {
			published = *item.UpdatedParsed
		}

		entries = append(entries, Entry{
			Source:    src.Name,
			Title:     title,
			Link:      item.Link,
			Published: published,
		})
	}
	return entries, nil
}

// vendorItem mirrors the JSON news API: a data list of objects whose
// timestamps are ISO-8601 with microseconds and offset.
type vendorItem struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	PublishTime string `json:"publishTime"`
	Updated     string `json:"updated"`
}

type vendorResponse struct {
	Data []vendorItem `json:"data"`
}

func (f *Fetcher) fetchJSON(ctx context.Context, src config.Source) ([]Entry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", src.Name, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", src.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", src.Name, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", src.Name, err)
	}

	var vr vendorResponse
	if err := json.Unmarshal(body, &vr); err != nil {
		return nil, fmt.Errorf("decode %s: %w", src.Name, err)
	}

	entries := make([]Entry, 0, len(vr.Data))
	for _, item := range vr.Data {
		if len(entries) >= f.maxEntries {
			break
		}
		title := strings.TrimSpace(item.Title)
		if title == "" || item.URL == "" {
			continue
		}

		raw := item.PublishTime
		if raw == "" {
			raw = item.Updated
		}
		published := parseVendorTime(raw)

		entries = append(entries, Entry{
			Source:    src.Name,
			Title:     title,
			Link:      item.URL,
			Published: published,
		})
	}
	return entries, nil
}

func parseVendorTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}

func isGoogleNews(feedURL string) bool {
	u, err := url.Parse(feedURL)
	if err != nil {
		return false
	}
	return strings.HasSuffix(u.Hostname(), "news.google.com")
}

// stripSiteSuffix drops the trailing " - <site>" a Google News search feed
// appends to every title.
func stripSiteSuffix(title string) string {
	if idx := strings.LastIndex(title, " - "); idx > 0 {
		return strings.TrimSpace(title[:idx])
	}
	return title
}
