package store

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
)

// SentStore persists the links already delivered, one URL per line. Both
// operations degrade instead of failing the cycle: a broken read yields an
// empty set, a broken write leaves the previous file in place. The worst
// case of either is a re-sent notification, never a crash.
type SentStore struct {
	path string
}

func New(path string) *SentStore {
	return &SentStore{path: path}
}

// Load reads the persisted link set. Lines that do not start with a URL
// scheme are ignored, so a corrupt or partial file still loads. A missing
// file is a normal first run. The returned set is always usable even when
// err is non-nil.
func (s *SentStore) Load() (map[string]struct{}, error) {
	links := make(map[string]struct{})

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return links, nil
	}
	if err != nil {
		return links, fmt.Errorf("read sent file %s: %w", s.path, err)
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if !isURL(line) {
			continue
		}
		links[line] = struct{}{}
	}
	return links, nil
}

// Save writes the set back in sorted order for reproducible diffs.
func (s *SentStore) Save(links map[string]struct{}) error {
	sorted := make([]string, 0, len(links))
	for link := range links {
		sorted = append(sorted, link)
	}
	sort.Strings(sorted)

	var b strings.Builder
	for _, link := range sorted {
		b.WriteString(link)
		b.WriteByte('\n')
	}

	if err := os.WriteFile(s.path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("write sent file %s: %w", s.path, err)
	}
	return nil
}

func isURL(line string) bool {
	return strings.HasPrefix(line, "http://") || strings.HasPrefix(line, "https://")
}
