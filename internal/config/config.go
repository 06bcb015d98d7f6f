package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// SourceKind tells the fetcher how to decode a feed endpoint.
type SourceKind string

const (
	KindRSS  SourceKind = "rss"
	KindJSON SourceKind = "json"
)

// Source is one configured news feed. Immutable during a run.
type Source struct {
	Name string     `yaml:"name"`
	URL  string     `yaml:"url"`
	Kind SourceKind `yaml:"kind"`
}

// PageSource is a feed shown on the digest page, independent of the monitor.
type PageSource struct {
	Name    string `yaml:"name"`
	URL     string `yaml:"url"`
	Section string `yaml:"section"` // "news" (today only) or "blog" (unfiltered)
}

type Config struct {
	// Telegram settings
	TelegramToken  string
	TelegramChatID string

	// Classifier settings
	ClassifierAPIKey      string
	ClassifierGroupID     string
	ClassifierAPIURL      string
	ClassifierModel       string
	MaxClassifierRequests int // remote calls per run, 0 = unlimited

	// Monitor feed settings
	Sources           []Source
	MaxEntriesPerFeed int
	MaxPerSource      int // articles per source in the rendered message

	// Relevance vocabulary
	CoreKeywords    []string
	RegionKeywords  []string
	ExcludedRegions []string

	// Delivery window, hours in Timezone
	Timezone        string
	WindowStartHour int
	WindowEndHour   int

	// Dedup store
	SentFilePath string

	// Digest page feeds
	PageSources []PageSource

	// App settings
	Debug           bool
	RequestTimeout  time.Duration
	FeedsConfigPath string
	FooterURL       string
}

// fileConfig is the optional YAML override file.
type fileConfig struct {
	Sources         []Source     `yaml:"sources"`
	PageSources     []PageSource `yaml:"page_sources"`
	CoreKeywords    []string     `yaml:"core_keywords"`
	RegionKeywords  []string     `yaml:"region_keywords"`
	ExcludedRegions []string     `yaml:"excluded_regions"`
}

// Load builds the config from fixed defaults, an optional YAML file and
// environment variables. Missing credentials are not an error here: the
// pipeline degrades per component instead of refusing to start.
func Load() (*Config, error) {
	cfg := &Config{
		ClassifierAPIURL:      "https://api.minimax.chat/v1/text/chatcompletion_v2",
		ClassifierModel:       "MiniMax-Text-01",
		MaxClassifierRequests: 30,
		Sources:               defaultSources(),
		MaxEntriesPerFeed:     30,
		MaxPerSource:          5,
		CoreKeywords:          defaultCoreKeywords(),
		RegionKeywords:        defaultRegionKeywords(),
		ExcludedRegions:       defaultExcludedRegions(),
		Timezone:              "Asia/Hong_Kong",
		WindowStartHour:       8,
		WindowEndHour:         19,
		SentFilePath:          "sent_links.txt",
		PageSources:           defaultPageSources(),
		RequestTimeout:        20 * time.Second,
		FeedsConfigPath:       getEnvOrDefault("FEEDS_CONFIG_PATH", ""),
		FooterURL:             "https://github.com/hkmon/hknews",
	}

	if cfg.FeedsConfigPath != "" {
		if err := cfg.applyFile(cfg.FeedsConfigPath); err != nil {
			return nil, fmt.Errorf("load feeds config %s: %w", cfg.FeedsConfigPath, err)
		}
	}

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	cfg.TelegramChatID = os.Getenv("TELEGRAM_CHAT_ID")
	cfg.ClassifierAPIKey = os.Getenv("CLASSIFIER_API_KEY")
	cfg.ClassifierGroupID = os.Getenv("CLASSIFIER_GROUP_ID")

	if v := os.Getenv("CLASSIFIER_API_URL"); v != "" {
		cfg.ClassifierAPIURL = v
	}
	if v := os.Getenv("CLASSIFIER_MODEL"); v != "" {
		cfg.ClassifierModel = v
	}
	cfg.SentFilePath = getEnvOrDefault("SENT_FILE_PATH", cfg.SentFilePath)
	cfg.MaxClassifierRequests = getEnvIntOrDefault("MAX_CLASSIFIER_REQUESTS", cfg.MaxClassifierRequests)

	if v := getEnvIntOrDefault("REQUEST_TIMEOUT_SECONDS", 0); v > 0 {
		cfg.RequestTimeout = time.Duration(v) * time.Second
	}
	if os.Getenv("DEBUG") == "true" {
		cfg.Debug = true
	}

	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var fc fileConfig
	if err := yaml.NewDecoder(f).Decode(&fc); err != nil {
		return err
	}
	if len(fc.Sources) > 0 {
		c.Sources = fc.Sources
	}
	if len(fc.PageSources) > 0 {
		c.PageSources = fc.PageSources
	}
	if len(fc.CoreKeywords) > 0 {
		c.CoreKeywords = fc.CoreKeywords
	}
	if len(fc.RegionKeywords) > 0 {
		c.RegionKeywords = fc.RegionKeywords
	}
	if len(fc.ExcludedRegions) > 0 {
		c.ExcludedRegions = fc.ExcludedRegions
	}
	return nil
}

// Location resolves the configured timezone, falling back to UTC when the
// zone database lookup fails.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func defaultSources() []Source {
	return []Source{
		{Name: "香港政府新聞網", URL: "https://www.news.gov.hk/rss/news/rss_c_admin.xml", Kind: KindRSS},
		{Name: "RTHK 即時新聞", URL: "https://rthk9.rthk.hk/rthk/news/rss/c_expressnews_clocal.xml", Kind: KindRSS},
		{Name: "Google News 搜尋", URL: "https://news.google.com/rss/search?q=%E9%A6%99%E6%B8%AF%E6%B5%B7%E9%97%9C&hl=zh-HK&gl=HK&ceid=HK:zh-Hant", Kind: KindRSS},
		{Name: "香港海關公告", URL: "https://www.customs.gov.hk/api/news?lang=tc", Kind: KindJSON},
	}
}

func defaultCoreKeywords() []string {
	return []string{
		"海關", "走私", "緝私", "緝毒", "毒品", "私煙", "水貨",
		"冒牌", "侵權", "檢獲", "拘捕", "關員",
	}
}

func defaultRegionKeywords() []string {
	return []string{
		"香港", "港府", "港島", "九龍", "新界", "本港",
	}
}

func defaultExcludedRegions() []string {
	return []string{
		"台灣", "台湾", "澳門", "澳门", "新加坡", "馬來西亞", "日本", "韓國",
	}
}

func defaultPageSources() []PageSource {
	return []PageSource{
		{Name: "香港政府新聞網", URL: "https://www.news.gov.hk/rss/news/rss_c_admin.xml", Section: "news"},
		{Name: "RTHK 即時新聞", URL: "https://rthk9.rthk.hk/rthk/news/rss/c_expressnews_clocal.xml", Section: "news"},
		{Name: "香港海關新聞公報", URL: "https://www.customs.gov.hk/tc/publication_press/press/index_rss.xml", Section: "blog"},
	}
}
