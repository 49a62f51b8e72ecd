// Package resolver maps free-form player references onto canonical player
// identities. Resolution runs through fixed tiers in descending confidence:
// external identifiers, exact normalized name, alias, then context
// disambiguation over whatever candidate set the name tiers produced.
package resolver

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"dugout/internal/player/models"
	resolvermetrics "dugout/internal/resolver/metrics"
	id "dugout/pkg/domain"
	dErrors "dugout/pkg/domain-errors"
	"dugout/pkg/platform/sentinel"
)

// Status classifies the outcome of a resolution attempt.
type Status string

const (
	StatusResolved   Status = "resolved"
	StatusAmbiguous  Status = "ambiguous"
	StatusUnresolved Status = "unresolved"
)

// Method names the tier that produced a resolution.
type Method string

const (
	MethodExternalID   Method = "external-id"
	MethodExactMatch   Method = "exact-match"
	MethodAliasMatch   Method = "alias-match"
	MethodContextMatch Method = "context-match"
	MethodUnresolved   Method = "unresolved"
)

// Tier confidences are fixed; a lower tier can never outrank a higher one.
const (
	ConfidenceExternalID = 1.0
	ConfidenceExactMatch = 0.95
	ConfidenceAliasMatch = 0.90
	ConfidenceContext    = 0.85
)

// Context carries optional hints supplied alongside the name. Any external
// identifier present short-circuits name matching entirely; team and
// position only narrow a multi-candidate name match.
type Context struct {
	TeamAbbrev  string
	Position    string
	MLBID       *int64
	FangraphsID string
	BBRefID     string
}

func (c Context) externalID(system models.ExternalSystem) string {
	switch system {
	case models.SystemMLB:
		if c.MLBID != nil {
			return strconv.FormatInt(*c.MLBID, 10)
		}
	case models.SystemFangraphs:
		return c.FangraphsID
	case models.SystemBBRef:
		return c.BBRefID
	}
	return ""
}

// Resolution is the verdict for a single input. Player is set only when
// Status is resolved; Candidates and RequiresConfirmation are set only
// when Status is ambiguous.
type Resolution struct {
	Status               Status
	Method               Method
	Confidence           float64
	Player               *models.Player
	Candidates           []*models.Player
	RequiresConfirmation bool
}

// PlayerFinder is the slice of the player store the resolver reads from.
type PlayerFinder interface {
	FindByID(ctx context.Context, playerID id.PlayerID) (*models.Player, error)
	FindByExternalID(ctx context.Context, system models.ExternalSystem, value string) (*models.Player, error)
	FindByNormalizedName(ctx context.Context, normalized string) ([]*models.Player, error)
	FindByAlias(ctx context.Context, normalized string) ([]*models.Player, error)
}

// IDCache is an optional read-through cache from external identifier to
// player id. Implementations absorb their own failures; a miss and an
// unavailable cache look the same to the resolver.
type IDCache interface {
	Get(ctx context.Context, system models.ExternalSystem, value string) (id.PlayerID, bool)
	Set(ctx context.Context, system models.ExternalSystem, value string, playerID id.PlayerID)
}

type Resolver struct {
	players PlayerFinder
	cache   IDCache
	logger  *slog.Logger
	metrics *resolvermetrics.Metrics
	tracer  trace.Tracer
}

type Option func(*Resolver)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) { r.logger = logger }
}

func WithCache(cache IDCache) Option {
	return func(r *Resolver) { r.cache = cache }
}

func WithMetrics(m *resolvermetrics.Metrics) Option {
	return func(r *Resolver) { r.metrics = m }
}

func New(players PlayerFinder, opts ...Option) *Resolver {
	r := &Resolver{
		players: players,
		logger:  slog.Default(),
		tracer:  otel.Tracer("dugout/resolver"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve runs the tiers in order and returns the first verdict. Only
// store failures surface as errors; not finding anyone is a valid
// unresolved verdict.
func (r *Resolver) Resolve(ctx context.Context, name string, hints Context) (*Resolution, error) {
	ctx, span := r.tracer.Start(ctx, "resolver.Resolve")
	defer span.End()

	start := time.Now()
	res, err := r.resolve(ctx, name, hints)
	if err != nil {
		return nil, err
	}

	span.SetAttributes(
		attribute.String("resolution.status", string(res.Status)),
		attribute.String("resolution.method", string(res.Method)),
	)
	if r.metrics != nil {
		r.metrics.Observe(string(res.Method), string(res.Status), time.Since(start))
	}
	return res, nil
}

func (r *Resolver) resolve(ctx context.Context, name string, hints Context) (*Resolution, error) {
	if res, err := r.byExternalID(ctx, hints); err != nil || res != nil {
		return res, err
	}

	normalized := models.NormalizeName(name)
	if normalized == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "player name is required")
	}

	candidates, err := r.players.FindByNormalizedName(ctx, normalized)
	if err != nil {
		return nil, wrapStoreErr(err, "find players by name")
	}

	switch len(candidates) {
	case 1:
		return resolved(candidates[0], MethodExactMatch, ConfidenceExactMatch), nil
	case 0:
		return r.byAlias(ctx, normalized, hints)
	default:
		return r.disambiguate(candidates, hints), nil
	}
}

// byExternalID checks each identifier system in fixed priority order. A hit
// wins outright; a provided identifier that matches nobody falls through to
// name matching rather than failing the resolution.
func (r *Resolver) byExternalID(ctx context.Context, hints Context) (*Resolution, error) {
	for _, system := range models.AllExternalSystems {
		value := hints.externalID(system)
		if value == "" {
			continue
		}

		if player, ok := r.fromCache(ctx, system, value); ok {
			return resolved(player, MethodExternalID, ConfidenceExternalID), nil
		}

		player, err := r.players.FindByExternalID(ctx, system, value)
		if errors.Is(err, sentinel.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, wrapStoreErr(err, "find player by external id")
		}

		if r.cache != nil {
			r.cache.Set(ctx, system, value, player.ID)
		}
		return resolved(player, MethodExternalID, ConfidenceExternalID), nil
	}
	return nil, nil
}

// fromCache maps a cached id back through the store so that a player
// deactivated since the cache write still resolves to nothing.
func (r *Resolver) fromCache(ctx context.Context, system models.ExternalSystem, value string) (*models.Player, bool) {
	if r.cache == nil {
		return nil, false
	}
	playerID, ok := r.cache.Get(ctx, system, value)
	if !ok {
		return nil, false
	}
	player, err := r.players.FindByID(ctx, playerID)
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			r.logger.WarnContext(ctx, "cached player lookup failed", "error", err)
		}
		return nil, false
	}
	return player, true
}

func (r *Resolver) byAlias(ctx context.Context, normalized string, hints Context) (*Resolution, error) {
	candidates, err := r.players.FindByAlias(ctx, normalized)
	if err != nil {
		return nil, wrapStoreErr(err, "find players by alias")
	}

	switch len(candidates) {
	case 1:
		return resolved(candidates[0], MethodAliasMatch, ConfidenceAliasMatch), nil
	case 0:
		return &Resolution{Status: StatusUnresolved, Method: MethodUnresolved}, nil
	default:
		return r.disambiguate(candidates, hints), nil
	}
}

// disambiguate narrows a multi-candidate set with team then position hints.
// A hint that is absent, or that would eliminate every candidate, is
// skipped: a stale hint must not turn a findable player into a miss.
func (r *Resolver) disambiguate(candidates []*models.Player, hints Context) *Resolution {
	candidates = narrow(candidates, hints.TeamAbbrev, func(p *models.Player) string { return p.TeamAbbrev })
	candidates = narrow(candidates, hints.Position, func(p *models.Player) string { return p.Position })

	if len(candidates) == 1 {
		return resolved(candidates[0], MethodContextMatch, ConfidenceContext)
	}
	return &Resolution{
		Status:               StatusAmbiguous,
		Method:               MethodUnresolved,
		Candidates:           candidates,
		RequiresConfirmation: true,
	}
}

func narrow(candidates []*models.Player, hint string, field func(*models.Player) string) []*models.Player {
	if hint == "" {
		return candidates
	}
	var kept []*models.Player
	for _, p := range candidates {
		if strings.EqualFold(field(p), hint) {
			kept = append(kept, p)
		}
	}
	if len(kept) == 0 {
		return candidates
	}
	return kept
}

func resolved(player *models.Player, method Method, confidence float64) *Resolution {
	return &Resolution{
		Status:     StatusResolved,
		Method:     method,
		Confidence: confidence,
		Player:     player,
	}
}

func wrapStoreErr(err error, op string) error {
	return dErrors.Wrap(err, dErrors.CodeUnavailable, op+" failed")
}
