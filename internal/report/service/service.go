// Package service enforces the report-chain discipline: versions are
// append-only and immutable, exactly one row per player is current, and a
// stale current row is a cache miss rather than an error.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"dugout/internal/audit"
	reportmetrics "dugout/internal/report/metrics"
	"dugout/internal/report/models"
	id "dugout/pkg/domain"
	dErrors "dugout/pkg/domain-errors"
	"dugout/pkg/platform/sentinel"
	"dugout/pkg/requestcontext"
)

// Store is the persistence surface the service needs. Postgres and the
// in-memory double both satisfy it.
type Store interface {
	Insert(ctx context.Context, report *models.Report) error
	FindCurrentForUpdate(ctx context.Context, playerID id.PlayerID) (*models.Report, error)
	CurrentByPlayer(ctx context.Context, playerID id.PlayerID) (*models.Report, error)
	CurrentByName(ctx context.Context, normalized string) (*models.Report, error)
	Supersede(ctx context.Context, reportID id.ReportID) error
	ListByPlayer(ctx context.Context, playerID id.PlayerID) ([]*models.Report, int, error)
	ListRecent(ctx context.Context, limit, offset int, includeExpired bool, now time.Time) ([]*models.Report, int, error)
}

// StoreTx runs the version-creation sequence atomically. The Postgres
// implementation opens a row-locking transaction; the in-memory one holds a
// lock for the duration of fn.
type StoreTx interface {
	RunInTx(ctx context.Context, fn func(store Store) error) error
}

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

type Service struct {
	store   Store
	tx      StoreTx
	ttl     time.Duration
	logger  *slog.Logger
	metrics *reportmetrics.Metrics
	audit   audit.Publisher
	tracer  trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *reportmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithAuditPublisher(publisher audit.Publisher) Option {
	return func(s *Service) { s.audit = publisher }
}

func New(store Store, tx StoreTx, ttl time.Duration, opts ...Option) *Service {
	s := &Service{
		store:  store,
		tx:     tx,
		ttl:    ttl,
		logger: slog.Default(),
		tracer: otel.Tracer("dugout/report"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetCurrent returns the player's current report, or nil when there is no
// valid cache entry. A missing or expired row is a miss, not an error;
// includeExpired widens the hit window to expired rows.
func (s *Service) GetCurrent(ctx context.Context, playerID id.PlayerID, includeExpired bool) (*models.Report, error) {
	report, err := s.store.CurrentByPlayer(ctx, playerID)
	if err != nil {
		return nil, s.translateLookupErr(ctx, err, "load current report")
	}
	return s.applyExpiry(ctx, report, includeExpired), nil
}

// GetByName serves rows written before identity resolution existed. Those
// rows carry a name snapshot and no player link.
func (s *Service) GetByName(ctx context.Context, name string, includeExpired bool) (*models.Report, error) {
	normalized := models.NormalizeName(name)
	if normalized == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "player name is required")
	}

	report, err := s.store.CurrentByName(ctx, normalized)
	if err != nil {
		return nil, s.translateLookupErr(ctx, err, "load report by name")
	}
	return s.applyExpiry(ctx, report, includeExpired), nil
}

func (s *Service) applyExpiry(ctx context.Context, report *models.Report, includeExpired bool) *models.Report {
	if report == nil {
		s.observeLookup("miss")
		return nil
	}
	if !includeExpired && report.Expired(requestcontext.Now(ctx)) {
		s.observeLookup("expired")
		return nil
	}
	s.observeLookup("hit")
	return report
}

func (s *Service) translateLookupErr(ctx context.Context, err error, op string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		s.observeLookup("miss")
		return nil
	}
	if errors.Is(err, sentinel.ErrInvalidState) {
		s.logger.ErrorContext(ctx, "multiple current report rows",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		return dErrors.Wrap(err, dErrors.CodeInvariantViolation, "report chain corrupted")
	}
	return dErrors.Wrap(err, dErrors.CodeUnavailable, op+" failed")
}

// CreateVersion appends a new report version for the player, superseding
// the previous current row (expired or not) in the same transaction. The
// first version for a player gets number 1 and no back-reference.
func (s *Service) CreateVersion(ctx context.Context, playerID id.PlayerID, content models.Content, triggerReason string) (*models.Report, error) {
	ctx, span := s.tracer.Start(ctx, "report.CreateVersion")
	defer span.End()

	if playerID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "player id is required")
	}
	trigger, err := models.ParseTriggerReason(triggerReason)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	var created *models.Report

	err = s.tx.RunInTx(ctx, func(store Store) error {
		previous, err := store.FindCurrentForUpdate(ctx, playerID)
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			previous = nil
		case errors.Is(err, sentinel.ErrInvalidState):
			return dErrors.Wrap(err, dErrors.CodeInvariantViolation, "report chain corrupted")
		case err != nil:
			return dErrors.Wrap(err, dErrors.CodeUnavailable, "locate current report failed")
		}

		report, err := models.NewVersion(id.NewReportID(), playerID, previous, content, trigger, s.ttl, now)
		if err != nil {
			return err
		}

		if previous != nil {
			if err := store.Supersede(ctx, previous.ID); err != nil {
				return dErrors.Wrap(err, dErrors.CodeUnavailable, "supersede current report failed")
			}
		}
		if err := store.Insert(ctx, report); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				// A concurrent writer created a version between our read
				// and insert; the caller can retry against the new chain.
				return dErrors.Wrap(err, dErrors.CodeConflict, "concurrent version creation")
			}
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.Wrap(err, dErrors.CodeNotFound, "player not found")
			}
			return dErrors.Wrap(err, dErrors.CodeUnavailable, "insert report version failed")
		}

		created = report
		return nil
	})
	if err != nil {
		return nil, err
	}

	span.SetAttributes(
		attribute.String("report.player_id", playerID.String()),
		attribute.Int("report.version", created.Version),
	)
	if s.metrics != nil {
		s.metrics.VersionsCreated.Inc()
	}
	s.emit(ctx, audit.Event{
		Action:   audit.ActionReportVersionCreated,
		PlayerID: playerID.String(),
		ReportID: created.ID.String(),
		Detail:   string(trigger),
	})
	s.logger.InfoContext(ctx, "report version created",
		"request_id", requestcontext.RequestID(ctx),
		"player_id", playerID.String(),
		"report_id", created.ID.String(),
		"version", created.Version,
		"trigger", string(trigger),
	)
	return created, nil
}

// ListVersions returns the full chain newest-first and verifies its shape:
// contiguous version numbers ending at 1 and at most one current row.
// A malformed chain is reported as corruption, never repaired here.
func (s *Service) ListVersions(ctx context.Context, playerID id.PlayerID) ([]*models.Report, int, error) {
	if playerID.IsNil() {
		return nil, 0, dErrors.New(dErrors.CodeInvalidInput, "player id is required")
	}

	reports, total, err := s.store.ListByPlayer(ctx, playerID)
	if err != nil {
		return nil, 0, dErrors.Wrap(err, dErrors.CodeUnavailable, "list report versions failed")
	}
	if err := verifyChain(reports); err != nil {
		s.logger.ErrorContext(ctx, "report chain corrupted",
			"request_id", requestcontext.RequestID(ctx),
			"player_id", playerID.String(),
			"error", err.Error(),
		)
		return nil, 0, err
	}
	return reports, total, nil
}

// verifyChain expects reports ordered by version descending.
func verifyChain(reports []*models.Report) error {
	currents := 0
	for i, r := range reports {
		if r.IsCurrent {
			currents++
		}
		expected := len(reports) - i
		if r.Version != expected {
			return dErrors.New(dErrors.CodeInvariantViolation, "report chain corrupted: version gap")
		}
	}
	if currents > 1 {
		return dErrors.New(dErrors.CodeInvariantViolation, "report chain corrupted: multiple current rows")
	}
	return nil
}

func (s *Service) ListRecent(ctx context.Context, limit, offset int, includeExpired bool) ([]*models.Report, int, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	reports, total, err := s.store.ListRecent(ctx, limit, offset, includeExpired, requestcontext.Now(ctx))
	if err != nil {
		return nil, 0, dErrors.Wrap(err, dErrors.CodeUnavailable, "list recent reports failed")
	}
	return reports, total, nil
}

func (s *Service) observeLookup(outcome string) {
	if s.metrics != nil {
		s.metrics.CacheLookups.WithLabelValues(outcome).Inc()
	}
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.audit == nil {
		return
	}
	event.Timestamp = requestcontext.Now(ctx)
	event.RequestID = requestcontext.RequestID(ctx)
	if err := s.audit.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "error", err.Error())
	}
}
