package classify

import (
	"context"
	"regexp"
	"strings"

	"golang.org/x/time/rate"

	"github.com/hkmon/hknews/internal/logger"
	"github.com/hkmon/hknews/internal/metrics"
)

// Remote is the optional AI backend. A nil Remote means keyword-only mode.
type Remote interface {
	Classify(ctx context.Context, title string) (bool, error)
}

// Classifier decides whether a headline is in scope. Order of checks:
// excluded-region veto, then the remote model when available, then the
// keyword conjunction. Every failure path resolves to the keyword rule.
type Classifier struct {
	core     []string
	region   []string
	excluded []string

	remote  Remote
	budget  int // remote calls allowed per run, 0 = unlimited
	used    int
	limiter *rate.Limiter
}

func New(core, region, excluded []string, remote Remote, budget int) *Classifier {
	return &Classifier{
		core:     core,
		region:   region,
		excluded: excluded,
		remote:   remote,
		budget:   budget,
		// The remote endpoint is metered; keep calls well under 1 QPS.
		limiter: rate.NewLimiter(rate.Limit(0.5), 1),
	}
}

// IsRelevant reports whether the article titled title from source should be
// notified. It never fails: remote errors fall back to the keyword rule.
func (c *Classifier) IsRelevant(ctx context.Context, title, source string) bool {
	if containsAny(title, c.excluded) {
		logger.Debug("excluded region veto", "title", title, "source", source)
		return false
	}

	if c.remote == nil {
		return c.keywordRelevant(title)
	}
	if c.budget > 0 && c.used >= c.budget {
		logger.Debug("classifier budget exhausted, using keyword rule", "title", title)
		return c.keywordRelevant(title)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return c.keywordRelevant(title)
	}
	c.used++
	metrics.Global.IncrementRemoteCalls()

	relevant, err := c.remote.Classify(ctx, title)
	if err != nil {
		logger.Warn("remote classifier failed, using keyword rule", "title", title, "error", err)
		return c.keywordRelevant(title)
	}
	return relevant
}

// keywordRelevant is the offline rule: a title must carry at least one core
// topic keyword AND at least one region keyword. The conjunction keeps the
// false-positive rate low when the remote model is unavailable.
func (c *Classifier) keywordRelevant(title string) bool {
	return containsAny(title, c.core) && containsAny(title, c.region)
}

// containsAny distinguishes phrases and short ASCII tokens so a keyword
// like "ai" cannot match inside "said". CJK keywords match as substrings.
func containsAny(text string, keywords []string) bool {
	lowered := strings.ToLower(text)

	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" {
			continue
		}

		if strings.Contains(k, " ") {
			if strings.Contains(lowered, k) {
				return true
			}
			continue
		}

		if isASCII(k) && len(k) <= 3 {
			re := regexp.MustCompile(`\b` + regexp.QuoteMeta(k) + `\b`)
			if re.MatchString(lowered) {
				return true
			}
			continue
		}

		if strings.Contains(lowered, k) {
			return true
		}
	}
	return false
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}
