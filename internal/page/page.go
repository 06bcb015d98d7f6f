package page

import (
	"context"
	"html/template"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/hkmon/hknews/internal/config"
	"github.com/hkmon/hknews/internal/logger"
)

// Row is one rendered table line.
type Row struct {
	Source    string
	Title     string
	Link      string
	Published time.Time
}

// Section groups rows for display. The news section is today-only, the
// blog section is unfiltered.
type Section struct {
	Name string
	Rows []Row
}

// Renderer fetches the page's own feed list and renders a browsable table.
// It has no dependency on the sent store or the classifier.
type Renderer struct {
	sources  []config.PageSource
	parser   *gofeed.Parser
	location *time.Location
	now      func() time.Time
}

func NewRenderer(sources []config.PageSource, timeout time.Duration, loc *time.Location) *Renderer {
	parser := gofeed.NewParser()
	parser.Client = &http.Client{Timeout: timeout}
	return &Renderer{
		sources:  sources,
		parser:   parser,
		location: loc,
		now:      time.Now,
	}
}

// Build fetches everything and assembles the sections, newest first within
// each. Per-source failures are logged and skipped.
func (r *Renderer) Build(ctx context.Context) []Section {
	today := r.now().In(r.location)
	bySection := make(map[string][]Row)

	for _, src := range r.sources {
		parsed, err := r.parser.ParseURLWithContext(src.URL, ctx)
		if err != nil {
			logger.Warn("page feed fetch failed", "source", src.Name, "error", err)
			continue
		}
		for _, item := range parsed.Items {
			title := StripHTML(item.Title)
			if title == "" || item.Link == "" {
				continue
			}
			var published time.Time
			if item.PublishedParsed != nil {
				published = *item.PublishedParsed
			} else if item.UpdatedParsed != nil {
				published = *item.UpdatedParsed
			}
			if src.Section == "news" && !sameDay(published.In(r.location), today) {
				continue
			}
			bySection[src.Section] = append(bySection[src.Section], Row{
				Source:    src.Name,
				Title:     title,
				Link:      item.Link,
				Published: published,
			})
		}
	}

	sections := make([]Section, 0, len(bySection))
	for _, name := range []string{"news", "blog"} {
		rows, ok := bySection[name]
		if !ok {
			continue
		}
		sort.SliceStable(rows, func(i, j int) bool {
			return rows[i].Published.After(rows[j].Published)
		})
		sections = append(sections, Section{Name: name, Rows: rows})
	}
	return sections
}

// Handler serves the rendered table.
func (r *Renderer) Handler(w http.ResponseWriter, req *http.Request) {
	sections := r.Build(req.Context())
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplate.Execute(w, sections); err != nil {
		logger.Error("render digest page", "error", err)
	}
}

// StripHTML flattens any markup a feed smuggles into a title down to its
// text content.
func StripHTML(s string) string {
	if !strings.ContainsAny(s, "<>") {
		return strings.TrimSpace(s)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(doc.Text())
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

var pageTemplate = template.Must(template.New("digest").Parse(`<!DOCTYPE html>
<html lang="zh-Hant">
<head>
<meta charset="utf-8">
<title>香港新聞一覽</title>
<style>
body { font-family: sans-serif; margin: 2rem; }
table { border-collapse: collapse; width: 100%; margin-bottom: 2rem; }
th, td { border: 1px solid #ccc; padding: 0.4rem 0.6rem; text-align: left; }
h2 { text-transform: capitalize; }
</style>
</head>
<body>
<h1>香港新聞一覽</h1>
{{range .}}
<h2>{{.Name}}</h2>
<table>
<tr><th>時間</th><th>來源</th><th>標題</th></tr>
{{range .Rows}}
<tr>
<td>{{.Published.Format "01-02 15:04"}}</td>
<td>{{.Source}}</td>
<td><a href="{{.Link}}">{{.Title}}</a></td>
</tr>
{{end}}
</table>
{{end}}
</body>
</html>
`))
