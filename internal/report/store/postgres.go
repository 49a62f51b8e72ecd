package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"dugout/internal/report/models"
	id "dugout/pkg/domain"
	"dugout/pkg/platform/sentinel"
)

const reportColumns = `id, player_id, player_name, name_normalized, version, is_current,
	previous_version_id, trigger_reason, summary, recent_stats, injury_status,
	fantasy_outlook, detailed_analysis, sources, token_usage, expires_at, created_at`

// querier is satisfied by both *sql.DB and *sql.Tx so the same store code
// serves plain reads and the locked version-creation transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type PostgresStore struct {
	db querier
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// NewPostgresTx binds the store to an open transaction. Used by the
// RunInTx adapter wired in at startup.
func NewPostgresTx(tx *sql.Tx) *PostgresStore {
	return &PostgresStore{db: tx}
}

func (s *PostgresStore) Insert(ctx context.Context, report *models.Report) error {
	query := `INSERT INTO scouting_reports (` + reportColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`

	_, err := s.db.ExecContext(ctx, query,
		report.ID.String(),
		nullPlayerID(report.PlayerID),
		nullString(report.PlayerName),
		nullString(report.NameNormalized),
		report.Version,
		report.IsCurrent,
		nullReportID(report.PreviousVersionID),
		string(report.Trigger),
		report.Content.Summary,
		nullString(report.Content.RecentStats),
		nullString(report.Content.InjuryStatus),
		nullString(report.Content.FantasyOutlook),
		nullString(report.Content.DetailedAnalysis),
		pq.Array(report.Content.Sources),
		report.Content.TokenUsage,
		report.ExpiresAt,
		report.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			switch pqErr.Code {
			case "23505":
				// Partial unique index on (player_id) WHERE is_current, or
				// the (player_id, version) pair: a concurrent writer won.
				return fmt.Errorf("insert report version: %w", sentinel.ErrConflict)
			case "23503":
				return fmt.Errorf("insert report version: %w", sentinel.ErrNotFound)
			}
		}
		return fmt.Errorf("insert report version: %w", err)
	}
	return nil
}

// FindCurrentForUpdate locks the current row for the player, expired or
// not, so that superseding and inserting happen against a stable view.
// Returns ErrNotFound when the player has no versions yet and
// ErrInvalidState when more than one row claims currency.
func (s *PostgresStore) FindCurrentForUpdate(ctx context.Context, playerID id.PlayerID) (*models.Report, error) {
	query := `SELECT ` + reportColumns + ` FROM scouting_reports
		WHERE player_id = $1 AND is_current
		FOR UPDATE`

	return s.queryOneCurrent(ctx, query, playerID.String())
}

// CurrentByPlayer is the unlocked read path. Expiry filtering happens in
// the service so that request-pinned time applies.
func (s *PostgresStore) CurrentByPlayer(ctx context.Context, playerID id.PlayerID) (*models.Report, error) {
	query := `SELECT ` + reportColumns + ` FROM scouting_reports
		WHERE player_id = $1 AND is_current`

	return s.queryOneCurrent(ctx, query, playerID.String())
}

// CurrentByName serves legacy rows that predate the identity registry:
// no player link, matched on the normalized name snapshot.
func (s *PostgresStore) CurrentByName(ctx context.Context, normalized string) (*models.Report, error) {
	query := `SELECT ` + reportColumns + ` FROM scouting_reports
		WHERE player_id IS NULL AND name_normalized = $1 AND is_current`

	return s.queryOneCurrent(ctx, query, normalized)
}

func (s *PostgresStore) queryOneCurrent(ctx context.Context, query string, arg any) (*models.Report, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("query current report: %w", err)
	}
	defer rows.Close()

	var reports []*models.Report
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate current reports: %w", err)
	}

	switch len(reports) {
	case 0:
		return nil, sentinel.ErrNotFound
	case 1:
		return reports[0], nil
	default:
		return nil, fmt.Errorf("%d rows marked current: %w", len(reports), sentinel.ErrInvalidState)
	}
}

func (s *PostgresStore) Supersede(ctx context.Context, reportID id.ReportID) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE scouting_reports SET is_current = FALSE WHERE id = $1 AND is_current`,
		reportID.String(),
	)
	if err != nil {
		return fmt.Errorf("supersede report: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("supersede report: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListByPlayer(ctx context.Context, playerID id.PlayerID) ([]*models.Report, int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+reportColumns+` FROM scouting_reports
		WHERE player_id = $1
		ORDER BY version DESC`,
		playerID.String(),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list report versions: %w", err)
	}
	defer rows.Close()

	reports, err := collectReports(rows)
	if err != nil {
		return nil, 0, err
	}
	return reports, len(reports), nil
}

func (s *PostgresStore) ListRecent(ctx context.Context, limit, offset int, includeExpired bool, now time.Time) ([]*models.Report, int, error) {
	where := ""
	args := []any{}
	if !includeExpired {
		where = "WHERE expires_at > $1"
		args = append(args, now)
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM scouting_reports " + where
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count reports: %w", err)
	}

	query := fmt.Sprintf(`SELECT `+reportColumns+` FROM scouting_reports %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`, where, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list recent reports: %w", err)
	}
	defer rows.Close()

	reports, err := collectReports(rows)
	if err != nil {
		return nil, 0, err
	}
	return reports, total, nil
}

func collectReports(rows *sql.Rows) ([]*models.Report, error) {
	var reports []*models.Report
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reports: %w", err)
	}
	return reports, nil
}

func scanReport(rows *sql.Rows) (*models.Report, error) {
	var (
		report     models.Report
		rawID      string
		playerID   sql.NullString
		playerName sql.NullString
		normalized sql.NullString
		previousID sql.NullString
		trigger    string
		recent     sql.NullString
		injury     sql.NullString
		outlook    sql.NullString
		analysis   sql.NullString
		sources    pq.StringArray
	)

	err := rows.Scan(
		&rawID,
		&playerID,
		&playerName,
		&normalized,
		&report.Version,
		&report.IsCurrent,
		&previousID,
		&trigger,
		&report.Content.Summary,
		&recent,
		&injury,
		&outlook,
		&analysis,
		&sources,
		&report.Content.TokenUsage,
		&report.ExpiresAt,
		&report.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scan report row: %w", err)
	}

	report.ID, err = id.ParseReportID(rawID)
	if err != nil {
		return nil, fmt.Errorf("scan report row: %w", err)
	}
	if playerID.Valid {
		parsed, err := id.ParsePlayerID(playerID.String)
		if err != nil {
			return nil, fmt.Errorf("scan report row: %w", err)
		}
		report.PlayerID = &parsed
	}
	if previousID.Valid {
		parsed, err := id.ParseReportID(previousID.String)
		if err != nil {
			return nil, fmt.Errorf("scan report row: %w", err)
		}
		report.PreviousVersionID = &parsed
	}
	report.PlayerName = playerName.String
	report.NameNormalized = normalized.String
	report.Trigger = models.TriggerReason(trigger)
	report.Content.RecentStats = recent.String
	report.Content.InjuryStatus = injury.String
	report.Content.FantasyOutlook = outlook.String
	report.Content.DetailedAnalysis = analysis.String
	report.Content.Sources = sources
	return &report, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullPlayerID(playerID *id.PlayerID) sql.NullString {
	if playerID == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: playerID.String(), Valid: true}
}

func nullReportID(reportID *id.ReportID) sql.NullString {
	if reportID == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: reportID.String(), Valid: true}
}
