package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"dugout/internal/report/models"
	id "dugout/pkg/domain"
	"dugout/pkg/platform/sentinel"
)

// InMemory mirrors the Postgres store's semantics, including the uniqueness
// checks the schema would enforce, so service tests exercise the same error
// paths. FindCurrentForUpdate takes no lock here; serialization of the
// version-creation sequence is the transaction runner's job.
type InMemory struct {
	mu      sync.RWMutex
	reports map[id.ReportID]*models.Report
	order   []id.ReportID
}

func NewInMemory() *InMemory {
	return &InMemory{reports: map[id.ReportID]*models.Report{}}
}

func (s *InMemory) Insert(_ context.Context, report *models.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.reports[report.ID]; exists {
		return fmt.Errorf("insert report version: %w", sentinel.ErrConflict)
	}
	if report.PlayerID != nil {
		for _, existing := range s.reports {
			if existing.PlayerID == nil || *existing.PlayerID != *report.PlayerID {
				continue
			}
			if report.IsCurrent && existing.IsCurrent {
				return fmt.Errorf("insert report version: %w", sentinel.ErrConflict)
			}
			if existing.Version == report.Version {
				return fmt.Errorf("insert report version: %w", sentinel.ErrConflict)
			}
		}
	}

	cp := *report
	s.reports[report.ID] = &cp
	s.order = append(s.order, report.ID)
	return nil
}

func (s *InMemory) FindCurrentForUpdate(_ context.Context, playerID id.PlayerID) (*models.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentLocked(func(r *models.Report) bool {
		return r.PlayerID != nil && *r.PlayerID == playerID
	})
}

func (s *InMemory) CurrentByPlayer(_ context.Context, playerID id.PlayerID) (*models.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentLocked(func(r *models.Report) bool {
		return r.PlayerID != nil && *r.PlayerID == playerID
	})
}

func (s *InMemory) CurrentByName(_ context.Context, normalized string) (*models.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentLocked(func(r *models.Report) bool {
		return r.PlayerID == nil && r.NameNormalized == normalized
	})
}

func (s *InMemory) currentLocked(match func(*models.Report) bool) (*models.Report, error) {
	var found []*models.Report
	for _, r := range s.reports {
		if r.IsCurrent && match(r) {
			found = append(found, r)
		}
	}
	switch len(found) {
	case 0:
		return nil, sentinel.ErrNotFound
	case 1:
		cp := *found[0]
		return &cp, nil
	default:
		return nil, fmt.Errorf("%d rows marked current: %w", len(found), sentinel.ErrInvalidState)
	}
}

func (s *InMemory) Supersede(_ context.Context, reportID id.ReportID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	report, exists := s.reports[reportID]
	if !exists || !report.IsCurrent {
		return sentinel.ErrNotFound
	}
	report.IsCurrent = false
	return nil
}

func (s *InMemory) ListByPlayer(_ context.Context, playerID id.PlayerID) ([]*models.Report, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var reports []*models.Report
	for _, r := range s.reports {
		if r.PlayerID != nil && *r.PlayerID == playerID {
			cp := *r
			reports = append(reports, &cp)
		}
	}
	sort.Slice(reports, func(i, j int) bool { return reports[i].Version > reports[j].Version })
	return reports, len(reports), nil
}

func (s *InMemory) ListRecent(_ context.Context, limit, offset int, includeExpired bool, now time.Time) ([]*models.Report, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Newest insertion first, matching the created_at ordering in SQL.
	var all []*models.Report
	for i := len(s.order) - 1; i >= 0; i-- {
		r := s.reports[s.order[i]]
		if !includeExpired && r.Expired(now) {
			continue
		}
		cp := *r
		all = append(all, &cp)
	}

	total := len(all)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}
