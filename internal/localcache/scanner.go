package localcache

import (
	"log/slog"
	"math"

	"github.com/castlemilk/budgetsync/internal/budget"
	"github.com/castlemilk/budgetsync/internal/schema"
)

// Scanner looks through every locally cached snapshot under a key prefix and
// picks the richest one by budget.Score.
type Scanner struct {
	cache  Cache
	prefix string
	logger *slog.Logger
}

// NewScanner scans keys of cache starting with prefix.
func NewScanner(cache Cache, prefix string, logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{cache: cache, prefix: prefix, logger: logger}
}

// FindBest returns the highest scoring parsable snapshot. Ties go to the
// first key in ascending order.
func (s *Scanner) FindBest() (map[string]any, bool) {
	keys, err := s.cache.Keys(HasPrefix(s.prefix))
	if err != nil {
		s.logger.Warn("list local backups", "error", err)
		return nil, false
	}

	var best map[string]any
	bestScore := math.Inf(-1)
	for _, k := range keys {
		data, ok, err := s.cache.Get(k)
		if err != nil || !ok || data == "" {
			continue
		}
		raw, ok := schema.ParseJSON([]byte(data))
		if !ok {
			s.logger.Debug("skipping unparsable backup", "key", k)
			continue
		}
		if score := budget.Score(raw); score > bestScore {
			best, bestScore = raw, score
		}
	}
	return best, best != nil
}
