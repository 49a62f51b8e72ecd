package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/lib/pq"

	"dugout/internal/player/models"
	id "dugout/pkg/domain"
	"dugout/pkg/platform/sentinel"
)

const uniqueViolation = "23505"

const playerColumns = `id, full_name, name_normalized, first_name, last_name, name_suffix,
	mlb_id, fangraphs_id, bbref_id, team_abbrev, position, status, active, created_at, updated_at`

// PostgresStore persists player records in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed player store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, player *models.Player) error {
	query := `
		INSERT INTO players (` + playerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err := s.db.ExecContext(ctx, query,
		player.ID.String(),
		player.FullName,
		player.NameNormalized,
		player.FirstName,
		player.LastName,
		nullString(player.NameSuffix),
		nullInt64(player.MLBID),
		nullString(player.FangraphsID),
		nullString(player.BBRefID),
		nullString(player.TeamAbbrev),
		nullString(player.Position),
		string(player.Status),
		player.Active,
		player.CreatedAt,
		player.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create player: %w", sentinel.ErrConflict)
		}
		return fmt.Errorf("create player: %w", err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, player *models.Player) error {
	query := `
		UPDATE players
		SET full_name = $2, name_normalized = $3, first_name = $4, last_name = $5,
			name_suffix = $6, mlb_id = $7, fangraphs_id = $8, bbref_id = $9,
			team_abbrev = $10, position = $11, status = $12, active = $13, updated_at = $14
		WHERE id = $1
	`
	result, err := s.db.ExecContext(ctx, query,
		player.ID.String(),
		player.FullName,
		player.NameNormalized,
		player.FirstName,
		player.LastName,
		nullString(player.NameSuffix),
		nullInt64(player.MLBID),
		nullString(player.FangraphsID),
		nullString(player.BBRefID),
		nullString(player.TeamAbbrev),
		nullString(player.Position),
		string(player.Status),
		player.Active,
		player.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("update player: %w", sentinel.ErrConflict)
		}
		return fmt.Errorf("update player: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update player rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("update player: %w", sentinel.ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, playerID id.PlayerID) (*models.Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players WHERE id = $1 AND active`
	player, err := scanPlayer(s.db.QueryRowContext(ctx, query, playerID.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("find player by id: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find player by id: %w", err)
	}
	return player, nil
}

func (s *PostgresStore) FindByExternalID(ctx context.Context, system models.ExternalSystem, value string) (*models.Player, error) {
	var query string
	var arg any
	switch system {
	case models.SystemMLB:
		mlbID, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("find player by external id: %w", sentinel.ErrNotFound)
		}
		query = `SELECT ` + playerColumns + ` FROM players WHERE mlb_id = $1 AND active`
		arg = mlbID
	case models.SystemFangraphs:
		query = `SELECT ` + playerColumns + ` FROM players WHERE fangraphs_id = $1 AND active`
		arg = value
	case models.SystemBBRef:
		query = `SELECT ` + playerColumns + ` FROM players WHERE bbref_id = $1 AND active`
		arg = value
	default:
		return nil, fmt.Errorf("find player by external id: unknown system %q", system)
	}

	player, err := scanPlayer(s.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("find player by external id: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find player by external id: %w", err)
	}
	return player, nil
}

func (s *PostgresStore) FindByNormalizedName(ctx context.Context, normalized string) ([]*models.Player, error) {
	query := `
		SELECT ` + playerColumns + `
		FROM players
		WHERE name_normalized = $1 AND active
		ORDER BY full_name, id
	`
	return s.queryPlayers(ctx, "find players by name", query, normalized)
}

func (s *PostgresStore) FindByAlias(ctx context.Context, normalized string) ([]*models.Player, error) {
	query := `
		SELECT DISTINCT p.id, p.full_name, p.name_normalized, p.first_name, p.last_name, p.name_suffix,
			p.mlb_id, p.fangraphs_id, p.bbref_id, p.team_abbrev, p.position, p.status, p.active,
			p.created_at, p.updated_at
		FROM players p
		JOIN player_aliases a ON a.player_id = p.id
		WHERE a.name_normalized = $1 AND p.active
		ORDER BY p.full_name, p.id
	`
	return s.queryPlayers(ctx, "find players by alias", query, normalized)
}

func (s *PostgresStore) Search(ctx context.Context, normalized string, limit int) ([]*models.Player, error) {
	if limit <= 0 {
		limit = 10
	}
	query := `
		SELECT ` + playerColumns + `
		FROM players
		WHERE name_normalized LIKE '%' || $1 || '%' AND active
		ORDER BY full_name, id
		LIMIT $2
	`
	return s.queryPlayers(ctx, "search players", query, normalized, limit)
}

func (s *PostgresStore) List(ctx context.Context, filter ListFilter) ([]*models.Player, int, error) {
	where := `WHERE ($1 = '' OR status = $1)
		AND ($2 = '' OR UPPER(team_abbrev) = UPPER($2))
		AND ($3 = '' OR UPPER(position) = UPPER($3))
		AND (active OR $4)`
	args := []any{string(filter.Status), filter.Team, filter.Position, filter.IncludeInactive}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM players `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count players: %w", err)
	}

	query := `SELECT ` + playerColumns + ` FROM players ` + where + `
		ORDER BY full_name, id
		LIMIT $5 OFFSET $6`
	args = append(args, filter.limitOrDefault(), filter.Offset)

	players, err := s.queryPlayers(ctx, "list players", query, args...)
	if err != nil {
		return nil, 0, err
	}
	return players, total, nil
}

func (s *PostgresStore) AddAlias(ctx context.Context, alias *models.Alias) error {
	query := `
		INSERT INTO player_aliases (id, player_id, name, name_normalized, type, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(ctx, query,
		alias.ID.String(),
		alias.PlayerID.String(),
		alias.Name,
		alias.NameNormalized,
		string(alias.Type),
		alias.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			switch pqErr.Code {
			case uniqueViolation:
				return fmt.Errorf("add alias: %w", sentinel.ErrConflict)
			case "23503": // foreign_key_violation: owning player missing
				return fmt.Errorf("add alias: %w", sentinel.ErrNotFound)
			}
		}
		return fmt.Errorf("add alias: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListAliases(ctx context.Context, playerID id.PlayerID) ([]*models.Alias, error) {
	query := `
		SELECT id, player_id, name, name_normalized, type, created_at
		FROM player_aliases
		WHERE player_id = $1
		ORDER BY name_normalized
	`
	rows, err := s.db.QueryContext(ctx, query, playerID.String())
	if err != nil {
		return nil, fmt.Errorf("list aliases: %w", err)
	}
	defer rows.Close()

	var out []*models.Alias
	for rows.Next() {
		alias, err := scanAlias(rows)
		if err != nil {
			return nil, fmt.Errorf("list aliases: %w", err)
		}
		out = append(out, alias)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list aliases: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) queryPlayers(ctx context.Context, op, query string, args ...any) ([]*models.Player, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var out []*models.Player
	for rows.Next() {
		player, err := scanPlayer(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		out = append(out, player)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

type row interface {
	Scan(dest ...any) error
}

func scanPlayer(r row) (*models.Player, error) {
	var (
		p          models.Player
		rawID      string
		nameSuffix sql.NullString
		mlbID      sql.NullInt64
		fangraphs  sql.NullString
		bbref      sql.NullString
		team       sql.NullString
		position   sql.NullString
		status     string
	)
	if err := r.Scan(&rawID, &p.FullName, &p.NameNormalized, &p.FirstName, &p.LastName, &nameSuffix,
		&mlbID, &fangraphs, &bbref, &team, &position, &status, &p.Active,
		&p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	playerID, err := id.ParsePlayerID(rawID)
	if err != nil {
		return nil, err
	}
	p.ID = playerID
	p.NameSuffix = nameSuffix.String
	if mlbID.Valid {
		v := mlbID.Int64
		p.MLBID = &v
	}
	p.FangraphsID = fangraphs.String
	p.BBRefID = bbref.String
	p.TeamAbbrev = team.String
	p.Position = position.String
	p.Status = models.Status(status)
	return &p, nil
}

func scanAlias(r row) (*models.Alias, error) {
	var (
		a         models.Alias
		rawID     string
		rawPlayer string
		aliasType string
	)
	if err := r.Scan(&rawID, &rawPlayer, &a.Name, &a.NameNormalized, &aliasType, &a.CreatedAt); err != nil {
		return nil, err
	}
	aliasID, err := id.ParseAliasID(rawID)
	if err != nil {
		return nil, err
	}
	playerID, err := id.ParsePlayerID(rawPlayer)
	if err != nil {
		return nil, err
	}
	a.ID = aliasID
	a.PlayerID = playerID
	a.Type = models.AliasType(aliasType)
	return &a, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}
