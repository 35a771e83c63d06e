package service

import (
	"log/slog"
	"sort"
	"time"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/mmcdole/vidcat/internal/domain"
)

const defaultHistorySize = 50

// HistoryService records played files and the last browsed location
type HistoryService struct {
	store  domain.HistoryStore
	limit  int
	logger *slog.Logger
	now    func() time.Time
}

// NewHistoryService creates a history service keeping at most limit records
func NewHistoryService(store domain.HistoryStore, limit int, logger *slog.Logger) *HistoryService {
	if logger == nil {
		logger = slog.Default()
	}
	if limit <= 0 {
		limit = defaultHistorySize
	}
	return &HistoryService{store: store, limit: limit, logger: logger, now: time.Now}
}

// Record adds file, played from prefix, to the history
func (s *HistoryService) Record(file domain.File, prefix string) {
	rec := domain.PlayRecord{Key: file.Key, Name: file.Name, Prefix: prefix, PlayedAt: s.now()}
	if err := s.store.RecordPlay(rec); err != nil {
		s.logger.Warn("failed to record play", "error", err, "key", file.Key)
	}
}

// Recent returns the newest records first
func (s *HistoryService) Recent() []domain.PlayRecord {
	recs, err := s.store.RecentPlays(s.limit)
	if err != nil {
		s.logger.Warn("failed to load history", "error", err)
		return nil
	}
	return recs
}

// Search ranks history records by fuzzy match against their names
func (s *HistoryService) Search(query string) []domain.PlayRecord {
	recs := s.Recent()
	if query == "" {
		return recs
	}

	names := make([]string, len(recs))
	for i, r := range recs {
		names[i] = r.Name
	}
	ranks := fuzzy.RankFindFold(query, names)
	sort.Stable(ranks)

	out := make([]domain.PlayRecord, 0, len(ranks))
	for _, r := range ranks {
		out = append(out, recs[r.OriginalIndex])
	}
	return out
}

// Clear empties the history
func (s *HistoryService) Clear() error {
	return s.store.ClearHistory()
}

// SaveLocation persists the breadcrumb trail
func (s *HistoryService) SaveLocation(trail []domain.Breadcrumb) {
	if err := s.store.SaveLocation(trail); err != nil {
		s.logger.Warn("failed to save location", "error", err)
	}
}

// LastLocation returns the persisted breadcrumb trail, if any
func (s *HistoryService) LastLocation() ([]domain.Breadcrumb, bool) {
	return s.store.LastLocation()
}
