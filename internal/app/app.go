package app

import (
	"context"
	"time"

	"github.com/hkmon/hknews/internal/config"
	"github.com/hkmon/hknews/internal/digest"
	"github.com/hkmon/hknews/internal/feed"
	"github.com/hkmon/hknews/internal/logger"
	"github.com/hkmon/hknews/internal/metrics"
)

// Fetcher pulls the raw entries of one source.
type Fetcher interface {
	Fetch(ctx context.Context, src config.Source) ([]feed.Entry, error)
}

// Classifier decides whether a headline is in scope. It never fails.
type Classifier interface {
	IsRelevant(ctx context.Context, title, source string) bool
}

// Notifier delivers a formatted message to the chat channel.
type Notifier interface {
	Configured() bool
	Send(ctx context.Context, text string) error
}

// Store persists the set of already-notified links between runs.
type Store interface {
	Load() (map[string]struct{}, error)
	Save(links map[string]struct{}) error
}

// App wires the monitor pipeline: fetch, classify, aggregate, deliver,
// persist. One RunCycle per scheduler invocation, strictly sequential.
type App struct {
	cfg        *config.Config
	fetcher    Fetcher
	classifier Classifier
	notifier   Notifier
	store      Store
	now        func() time.Time
}

func New(cfg *config.Config, fetcher Fetcher, classifier Classifier, notifier Notifier, store Store) *App {
	return &App{
		cfg:        cfg,
		fetcher:    fetcher,
		classifier: classifier,
		notifier:   notifier,
		store:      store,
		now:        time.Now,
	}
}

// RunCycle executes one fetch-to-notify pass. No failure inside the cycle
// is fatal: fetch, classifier, delivery and store errors all degrade, and
// the worst case is a missed or repeated notification next cycle.
func (a *App) RunCycle(ctx context.Context) {
	started := time.Now()
	defer func() {
		metrics.Global.RecordCycle(time.Since(started))
	}()

	sent, err := a.store.Load()
	if err != nil {
		logger.Warn("sent store load failed, starting from empty set", "error", err)
	}

	loc := a.cfg.Location()
	today := a.now().In(loc)

	var candidates []feed.Entry
	for _, src := range a.cfg.Sources {
		entries, err := a.fetcher.Fetch(ctx, src)
		if err != nil {
			logger.Warn("fetch failed, source yields no articles this cycle", "source", src.Name, "error", err)
			continue
		}
		metrics.Global.AddEntriesFetched(len(entries))
		logger.Info("fetched source", "source", src.Name, "entries", len(entries))

		for _, e := range entries {
			// Already-notified links never reach the classifier; remote
			// classification is metered.
			if _, done := sent[e.Link]; done {
				metrics.Global.IncrementSkippedAlreadySent()
				continue
			}
			// RSS-path entries must have been published today in the target
			// timezone; the vendor JSON feed only serves a recent slice and
			// is notified as-is.
			if src.Kind != config.KindJSON && !publishedToday(e, today, loc) {
				continue
			}
			if !a.classifier.IsRelevant(ctx, e.Title, e.Source) {
				continue
			}
			metrics.Global.IncrementClassifiedRelevant()
			candidates = append(candidates, e)
		}
	}

	if len(candidates) == 0 {
		logger.Info("no new relevant articles this cycle")
		return
	}

	aggregated := digest.Aggregate(candidates)
	metrics.Global.AddDuplicatesCollapsed(len(candidates) - len(aggregated))
	message := digest.Render(aggregated, a.cfg.MaxPerSource, a.cfg.FooterURL)

	if !a.notifier.Configured() {
		logger.Warn("notifier credentials missing, skipping delivery",
			"candidates", len(aggregated))
		return
	}

	// Gate evaluated once per cycle; a run crossing the window boundary
	// keeps the decision made here.
	if !a.withinWindow(a.now().In(loc)) {
		logger.Info("outside delivery window, suppressing notification once",
			"candidates", len(aggregated))
		a.markSent(sent, candidates)
		return
	}

	if err := a.notifier.Send(ctx, message); err != nil {
		// Leave the candidates unmarked so the next cycle retries them.
		logger.Error("delivery failed, candidates kept for next cycle", "error", err)
		metrics.Global.SetError(err.Error())
		return
	}
	metrics.Global.IncrementMessagesSent()
	logger.Info("notification delivered", "articles", len(aggregated))
	a.markSent(sent, candidates)
}

// markSent records every candidate link, including fingerprint-collapsed
// twins, so none of them resurfaces alone next cycle, then persists.
func (a *App) markSent(sent map[string]struct{}, candidates []feed.Entry) {
	for _, e := range candidates {
		sent[e.Link] = struct{}{}
	}
	if err := a.store.Save(sent); err != nil {
		logger.Warn("sent store save failed, links may be re-sent", "error", err)
	}
}

func (a *App) withinWindow(now time.Time) bool {
	return now.Hour() >= a.cfg.WindowStartHour && now.Hour() <= a.cfg.WindowEndHour
}

func publishedToday(e feed.Entry, today time.Time, loc *time.Location) bool {
	if e.Published.IsZero() {
		return false
	}
	p := e.Published.In(loc)
	return p.Year() == today.Year() && p.YearDay() == today.YearDay()
}
