package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"dugout/internal/player/models"
	id "dugout/pkg/domain"
	"dugout/pkg/platform/sentinel"
)

// InMemory is a map-backed player store with the same contract as the
// Postgres store. It backs unit tests and local runs without a database.
type InMemory struct {
	mu      sync.RWMutex
	players map[id.PlayerID]*models.Player
	aliases map[id.AliasID]*models.Alias
}

// NewInMemory constructs an empty in-memory player store.
func NewInMemory() *InMemory {
	return &InMemory{
		players: make(map[id.PlayerID]*models.Player),
		aliases: make(map[id.AliasID]*models.Alias),
	}
}

func (s *InMemory) Create(_ context.Context, player *models.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.players[player.ID]; exists {
		return sentinel.ErrConflict
	}
	if err := s.checkExternalIDsLocked(player); err != nil {
		return err
	}
	cp := *player
	s.players[player.ID] = &cp
	return nil
}

func (s *InMemory) Update(_ context.Context, player *models.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.players[player.ID]; !exists {
		return sentinel.ErrNotFound
	}
	if err := s.checkExternalIDsLocked(player); err != nil {
		return err
	}
	cp := *player
	s.players[player.ID] = &cp
	return nil
}

func (s *InMemory) FindByID(_ context.Context, playerID id.PlayerID) (*models.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, exists := s.players[playerID]
	if !exists || !p.Active {
		return nil, sentinel.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *InMemory) FindByExternalID(_ context.Context, system models.ExternalSystem, value string) (*models.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.players {
		if p.Active && p.ExternalID(system) == value {
			cp := *p
			return &cp, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) FindByNormalizedName(_ context.Context, normalized string) ([]*models.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Player
	for _, p := range s.players {
		if p.Active && p.NameNormalized == normalized {
			cp := *p
			out = append(out, &cp)
		}
	}
	sortPlayers(out)
	return out, nil
}

func (s *InMemory) FindByAlias(_ context.Context, normalized string) ([]*models.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[id.PlayerID]bool)
	var out []*models.Player
	for _, a := range s.aliases {
		if a.NameNormalized != normalized || seen[a.PlayerID] {
			continue
		}
		p, exists := s.players[a.PlayerID]
		if !exists || !p.Active {
			continue
		}
		seen[a.PlayerID] = true
		cp := *p
		out = append(out, &cp)
	}
	sortPlayers(out)
	return out, nil
}

func (s *InMemory) Search(_ context.Context, normalized string, limit int) ([]*models.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 10
	}
	var out []*models.Player
	for _, p := range s.players {
		if p.Active && strings.Contains(p.NameNormalized, normalized) {
			cp := *p
			out = append(out, &cp)
		}
	}
	sortPlayers(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *InMemory) List(_ context.Context, filter ListFilter) ([]*models.Player, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*models.Player
	for _, p := range s.players {
		if !p.Active && !filter.IncludeInactive {
			continue
		}
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		if filter.Team != "" && !strings.EqualFold(p.TeamAbbrev, filter.Team) {
			continue
		}
		if filter.Position != "" && !strings.EqualFold(p.Position, filter.Position) {
			continue
		}
		cp := *p
		matched = append(matched, &cp)
	}
	sortPlayers(matched)

	total := len(matched)
	limit := filter.limitOrDefault()
	offset := filter.Offset
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return matched[offset:end], total, nil
}

func (s *InMemory) AddAlias(_ context.Context, alias *models.Alias) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.players[alias.PlayerID]; !exists {
		return sentinel.ErrNotFound
	}
	for _, existing := range s.aliases {
		if existing.PlayerID == alias.PlayerID && existing.NameNormalized == alias.NameNormalized {
			return sentinel.ErrConflict
		}
	}
	cp := *alias
	s.aliases[alias.ID] = &cp
	return nil
}

func (s *InMemory) ListAliases(_ context.Context, playerID id.PlayerID) ([]*models.Alias, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Alias
	for _, a := range s.aliases {
		if a.PlayerID == playerID {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NameNormalized < out[j].NameNormalized })
	return out, nil
}

// checkExternalIDsLocked enforces global uniqueness of external identifiers,
// mirroring the partial unique indexes in the Postgres schema.
func (s *InMemory) checkExternalIDsLocked(candidate *models.Player) error {
	for _, p := range s.players {
		if p.ID == candidate.ID {
			continue
		}
		for _, system := range models.AllExternalSystems {
			v := candidate.ExternalID(system)
			if v != "" && p.ExternalID(system) == v {
				return sentinel.ErrConflict
			}
		}
	}
	return nil
}

func sortPlayers(players []*models.Player) {
	sort.Slice(players, func(i, j int) bool {
		if players[i].FullName != players[j].FullName {
			return players[i].FullName < players[j].FullName
		}
		return players[i].ID.String() < players[j].ID.String()
	})
}
