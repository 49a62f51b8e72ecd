// Package service owns player registry lifecycle rules: creation, updates,
// soft deletion, aliases, and batch ingestion. Stores stay pure I/O.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"dugout/internal/audit"
	playermetrics "dugout/internal/player/metrics"
	"dugout/internal/player/models"
	"dugout/internal/player/store"
	id "dugout/pkg/domain"
	dErrors "dugout/pkg/domain-errors"
	"dugout/pkg/platform/sentinel"
	"dugout/pkg/requestcontext"
)

// Store is the persistence contract the service depends on. Both the
// Postgres and in-memory stores satisfy it.
type Store interface {
	Create(ctx context.Context, player *models.Player) error
	Update(ctx context.Context, player *models.Player) error
	FindByID(ctx context.Context, playerID id.PlayerID) (*models.Player, error)
	FindByExternalID(ctx context.Context, system models.ExternalSystem, value string) (*models.Player, error)
	FindByNormalizedName(ctx context.Context, normalized string) ([]*models.Player, error)
	Search(ctx context.Context, normalized string, limit int) ([]*models.Player, error)
	List(ctx context.Context, filter store.ListFilter) ([]*models.Player, int, error)
	AddAlias(ctx context.Context, alias *models.Alias) error
	ListAliases(ctx context.Context, playerID id.PlayerID) ([]*models.Alias, error)
}

// Service orchestrates player registry operations.
type Service struct {
	players Store
	logger  *slog.Logger
	audit   audit.Publisher
	metrics *playermetrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher audit.Publisher) Option {
	return func(s *Service) { s.audit = publisher }
}

func WithMetrics(m *playermetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// New constructs a Service.
func New(players Store, opts ...Option) *Service {
	s := &Service{players: players}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateInput carries the fields accepted when registering a player.
type CreateInput struct {
	FullName    string
	FirstName   string
	LastName    string
	NameSuffix  string
	MLBID       *int64
	FangraphsID string
	BBRefID     string
	TeamAbbrev  string
	Position    string
	Status      string
}

// CreatePlayer registers a new canonical player record.
func (s *Service) CreatePlayer(ctx context.Context, input CreateInput) (*models.Player, error) {
	now := requestcontext.Now(ctx)
	player, err := models.NewPlayer(id.NewPlayerID(), input.FullName, now)
	if err != nil {
		return nil, err
	}

	status := models.StatusActive
	if input.Status != "" {
		status, err = models.ParseStatus(input.Status)
		if err != nil {
			return nil, err
		}
	}

	player.FirstName = strings.TrimSpace(input.FirstName)
	player.LastName = strings.TrimSpace(input.LastName)
	player.NameSuffix = strings.TrimSpace(input.NameSuffix)
	player.MLBID = input.MLBID
	player.FangraphsID = strings.TrimSpace(input.FangraphsID)
	player.BBRefID = strings.TrimSpace(input.BBRefID)
	player.TeamAbbrev = strings.ToUpper(strings.TrimSpace(input.TeamAbbrev))
	player.Position = strings.ToUpper(strings.TrimSpace(input.Position))
	player.Status = status

	if err := s.players.Create(ctx, player); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "external identifier already linked to another player")
		}
		return nil, wrapStoreErr(err, "create player")
	}

	s.emit(ctx, audit.Event{
		Action:   audit.ActionPlayerCreated,
		PlayerID: player.ID.String(),
		Detail:   player.FullName,
	})
	if s.metrics != nil {
		s.metrics.IncrementPlayersCreated()
	}
	if s.logger != nil {
		s.logger.InfoContext(ctx, "player created",
			"request_id", requestcontext.RequestID(ctx),
			"player_id", player.ID,
			"full_name", player.FullName,
		)
	}
	return player, nil
}

// GetPlayer fetches an active player with its aliases.
func (s *Service) GetPlayer(ctx context.Context, playerID id.PlayerID) (*models.Player, []*models.Alias, error) {
	player, err := s.players.FindByID(ctx, playerID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, nil, dErrors.New(dErrors.CodeNotFound, "player not found")
		}
		return nil, nil, wrapStoreErr(err, "get player")
	}
	aliases, err := s.players.ListAliases(ctx, playerID)
	if err != nil {
		return nil, nil, wrapStoreErr(err, "get player aliases")
	}
	return player, aliases, nil
}

// UpdateInput carries the mutable player fields. Nil pointers mean "leave
// unchanged".
type UpdateInput struct {
	FullName    *string
	TeamAbbrev  *string
	Position    *string
	Status      *string
	MLBID       *int64
	FangraphsID *string
	BBRefID     *string
}

// UpdatePlayer applies an administrative or ingestion refresh to a player.
func (s *Service) UpdatePlayer(ctx context.Context, playerID id.PlayerID, input UpdateInput) (*models.Player, error) {
	player, err := s.players.FindByID(ctx, playerID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "player not found")
		}
		return nil, wrapStoreErr(err, "update player")
	}

	now := requestcontext.Now(ctx)
	if input.FullName != nil {
		if err := player.Rename(*input.FullName, now); err != nil {
			return nil, err
		}
	}
	if input.TeamAbbrev != nil {
		player.TeamAbbrev = strings.ToUpper(strings.TrimSpace(*input.TeamAbbrev))
	}
	if input.Position != nil {
		player.Position = strings.ToUpper(strings.TrimSpace(*input.Position))
	}
	if input.Status != nil {
		status, err := models.ParseStatus(*input.Status)
		if err != nil {
			return nil, err
		}
		player.Status = status
	}
	if input.MLBID != nil {
		player.MLBID = input.MLBID
	}
	if input.FangraphsID != nil {
		player.FangraphsID = strings.TrimSpace(*input.FangraphsID)
	}
	if input.BBRefID != nil {
		player.BBRefID = strings.TrimSpace(*input.BBRefID)
	}
	player.UpdatedAt = now

	if err := s.players.Update(ctx, player); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "external identifier already linked to another player")
		}
		return nil, wrapStoreErr(err, "update player")
	}
	return player, nil
}

// DeactivatePlayer soft-deletes a player. The record stays for audit but
// disappears from every resolution and lookup path.
func (s *Service) DeactivatePlayer(ctx context.Context, playerID id.PlayerID) error {
	player, err := s.players.FindByID(ctx, playerID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "player not found")
		}
		return wrapStoreErr(err, "deactivate player")
	}

	if err := player.CanDeactivate(); err != nil {
		return err
	}
	player.ApplyDeactivation(requestcontext.Now(ctx))

	if err := s.players.Update(ctx, player); err != nil {
		return wrapStoreErr(err, "deactivate player")
	}

	s.emit(ctx, audit.Event{
		Action:   audit.ActionPlayerDeactivated,
		PlayerID: player.ID.String(),
		Detail:   player.FullName,
	})
	if s.logger != nil {
		s.logger.InfoContext(ctx, "player deactivated",
			"request_id", requestcontext.RequestID(ctx),
			"player_id", player.ID,
		)
	}
	return nil
}

// AddAlias binds an alternate name to a player.
func (s *Service) AddAlias(ctx context.Context, playerID id.PlayerID, name, aliasType string) (*models.Alias, error) {
	parsedType, err := models.ParseAliasType(aliasType)
	if err != nil {
		return nil, err
	}
	alias, err := models.NewAlias(id.NewAliasID(), playerID, name, parsedType, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}

	if err := s.players.AddAlias(ctx, alias); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrConflict):
			return nil, dErrors.New(dErrors.CodeConflict, "alias already exists for this player")
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.New(dErrors.CodeNotFound, "player not found")
		}
		return nil, wrapStoreErr(err, "add alias")
	}

	s.emit(ctx, audit.Event{
		Action:   audit.ActionAliasAdded,
		PlayerID: playerID.String(),
		Detail:   alias.Name,
	})
	if s.metrics != nil {
		s.metrics.IncrementAliasesAdded()
	}
	return alias, nil
}

// SearchPlayers finds active players by partial normalized name.
func (s *Service) SearchPlayers(ctx context.Context, query string, limit int) ([]*models.Player, error) {
	normalized := models.NormalizeName(query)
	if normalized == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "search query is required")
	}
	players, err := s.players.Search(ctx, normalized, limit)
	if err != nil {
		return nil, wrapStoreErr(err, "search players")
	}
	return players, nil
}

// ListPlayers pages through the registry with optional filters.
func (s *Service) ListPlayers(ctx context.Context, filter store.ListFilter) ([]*models.Player, int, error) {
	if filter.Status != "" {
		if _, err := models.ParseStatus(string(filter.Status)); err != nil {
			return nil, 0, err
		}
	}
	players, total, err := s.players.List(ctx, filter)
	if err != nil {
		return nil, 0, wrapStoreErr(err, "list players")
	}
	return players, total, nil
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.audit == nil {
		return
	}
	event.Timestamp = requestcontext.Now(ctx)
	event.RequestID = requestcontext.RequestID(ctx)
	if err := s.audit.Emit(ctx, event); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "action", event.Action, "error", err)
	}
}

// wrapStoreErr classifies unexpected store failures as infrastructure
// unavailability, never as not-found.
func wrapStoreErr(err error, op string) error {
	return dErrors.Wrap(err, dErrors.CodeUnavailable, op+" failed")
}
