package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/cypherlabdev/odds-pipeline-service/internal/models"
	"github.com/cypherlabdev/odds-pipeline-service/internal/service"
)

var _ service.Repository = (*PostgresRepository)(nil)

// PostgresRepository stores games, quotes, props and run records in Postgres
type PostgresRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

// PostgresConfig holds Postgres connection settings
type PostgresConfig struct {
	DSN          string
	MaxOpenConns int
}

// NewPostgresRepository opens the database, checks it and bootstraps the schema
func NewPostgresRepository(ctx context.Context, config PostgresConfig, logger zerolog.Logger) (*PostgresRepository, error) {
	if config.DSN == "" {
		return nil, fmt.Errorf("postgres DSN is required")
	}

	db, err := sql.Open("postgres", config.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}
	if config.MaxOpenConns > 0 {
		db.SetMaxOpenConns(config.MaxOpenConns)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	r := NewPostgresRepositoryFromDB(db, logger)
	if err := r.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	r.logger.Info().Msg("postgres repository initialized")
	return r, nil
}

// NewPostgresRepositoryFromDB wraps an already opened database
func NewPostgresRepositoryFromDB(db *sql.DB, logger zerolog.Logger) *PostgresRepository {
	return &PostgresRepository{
		db:     db,
		logger: logger.With().Str("component", "postgres_repository").Logger(),
	}
}

const schema = `
CREATE TABLE IF NOT EXISTS games (
	id TEXT PRIMARY KEY,
	sport VARCHAR(20) NOT NULL,
	home_team VARCHAR(200) NOT NULL,
	away_team VARCHAR(200) NOT NULL,
	commence_time TIMESTAMPTZ NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_games_commence_time ON games(commence_time);

CREATE TABLE IF NOT EXISTS odds_quotes (
	id BIGSERIAL PRIMARY KEY,
	idempotency_key TEXT NOT NULL,
	game_id TEXT NOT NULL REFERENCES games(id),
	sportsbook VARCHAR(100) NOT NULL,
	market VARCHAR(20) NOT NULL,
	line NUMERIC(8, 2),
	home_price INTEGER,
	away_price INTEGER,
	over_price INTEGER,
	under_price INTEGER,
	last_update TIMESTAMPTZ NOT NULL,
	collected_at TIMESTAMPTZ NOT NULL,
	UNIQUE(idempotency_key)
);

CREATE INDEX IF NOT EXISTS idx_odds_quotes_game ON odds_quotes(game_id);

CREATE TABLE IF NOT EXISTS player_props (
	id BIGSERIAL PRIMARY KEY,
	idempotency_key TEXT NOT NULL,
	game_id TEXT NOT NULL REFERENCES games(id),
	player_name VARCHAR(200) NOT NULL,
	prop_type VARCHAR(100) NOT NULL,
	sportsbook VARCHAR(100) NOT NULL,
	line NUMERIC(8, 2) NOT NULL,
	over_price INTEGER,
	under_price INTEGER,
	is_alternate BOOLEAN NOT NULL DEFAULT FALSE,
	last_update TIMESTAMPTZ NOT NULL,
	collected_at TIMESTAMPTZ NOT NULL,
	UNIQUE(idempotency_key)
);

CREATE INDEX IF NOT EXISTS idx_player_props_game ON player_props(game_id);

CREATE TABLE IF NOT EXISTS cron_runs (
	id UUID PRIMARY KEY,
	day VARCHAR(10) NOT NULL,
	status VARCHAR(20) NOT NULL,
	started_at TIMESTAMPTZ NOT NULL,
	completed_at TIMESTAMPTZ,
	results JSONB,
	error TEXT
);

CREATE INDEX IF NOT EXISTS idx_cron_runs_day_status ON cron_runs(day, status);
`

func (r *PostgresRepository) initSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, schema)
	return err
}

// UpsertGame inserts or updates a game keyed by its external id
func (r *PostgresRepository) UpsertGame(ctx context.Context, game *models.Game) (*models.Game, error) {
	if game == nil || game.ID == "" {
		return nil, fmt.Errorf("game external id is required")
	}

	query := `
	INSERT INTO games (id, sport, home_team, away_team, commence_time)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (id) DO UPDATE SET
		sport = EXCLUDED.sport,
		home_team = EXCLUDED.home_team,
		away_team = EXCLUDED.away_team,
		commence_time = EXCLUDED.commence_time,
		updated_at = NOW()
	RETURNING created_at, updated_at
	`

	out := *game
	err := r.db.QueryRowContext(ctx, query,
		game.ID, string(game.Sport), game.HomeTeam, game.AwayTeam, game.CommenceTime.UTC(),
	).Scan(&out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert game %s: %w", game.ID, err)
	}

	return &out, nil
}

// UpsertOddsQuote inserts or updates the quote stored under conflictKey
func (r *PostgresRepository) UpsertOddsQuote(ctx context.Context, quote *models.OddsQuote, conflictKey string) error {
	query := `
	INSERT INTO odds_quotes (
		idempotency_key, game_id, sportsbook, market, line,
		home_price, away_price, over_price, under_price,
		last_update, collected_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	ON CONFLICT (idempotency_key) DO UPDATE SET
		line = EXCLUDED.line,
		home_price = EXCLUDED.home_price,
		away_price = EXCLUDED.away_price,
		over_price = EXCLUDED.over_price,
		under_price = EXCLUDED.under_price,
		last_update = EXCLUDED.last_update,
		collected_at = EXCLUDED.collected_at
	`

	_, err := r.db.ExecContext(ctx, query,
		conflictKey, quote.GameID, quote.Sportsbook, string(quote.Market), quote.Line,
		nullInt(quote.HomePrice), nullInt(quote.AwayPrice), nullInt(quote.OverPrice), nullInt(quote.UnderPrice),
		quote.LastUpdate.UTC(), quote.CollectedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert odds quote %s: %w", conflictKey, err)
	}
	return nil
}

// UpsertPlayerProp inserts or updates the prop stored under conflictKey
func (r *PostgresRepository) UpsertPlayerProp(ctx context.Context, prop *models.PlayerProp, conflictKey string) error {
	query := `
	INSERT INTO player_props (
		idempotency_key, game_id, player_name, prop_type, sportsbook, line,
		over_price, under_price, is_alternate, last_update, collected_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	ON CONFLICT (idempotency_key) DO UPDATE SET
		over_price = EXCLUDED.over_price,
		under_price = EXCLUDED.under_price,
		last_update = EXCLUDED.last_update,
		collected_at = EXCLUDED.collected_at
	`

	_, err := r.db.ExecContext(ctx, query,
		conflictKey, prop.GameID, prop.PlayerName, prop.PropType, prop.Sportsbook, prop.Line,
		nullInt(prop.OverPrice), nullInt(prop.UnderPrice), prop.IsAlternate,
		prop.LastUpdate.UTC(), prop.CollectedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert player prop %s: %w", conflictKey, err)
	}
	return nil
}

const gameColumns = `id, sport, home_team, away_team, commence_time, created_at, updated_at`

// GetGame returns the game with the given external id
func (r *PostgresRepository) GetGame(ctx context.Context, gameID string) (*models.Game, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+gameColumns+` FROM games WHERE id = $1`, gameID)

	game, err := scanGame(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("game %s: %w", gameID, service.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get game %s: %w", gameID, err)
	}
	return game, nil
}

// ListGames returns games commencing in [from, to)
func (r *PostgresRepository) ListGames(ctx context.Context, from, to time.Time) ([]*models.Game, error) {
	query := `SELECT ` + gameColumns + ` FROM games
	WHERE commence_time >= $1 AND commence_time < $2
	ORDER BY commence_time, id`

	rows, err := r.db.QueryContext(ctx, query, from.UTC(), to.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}
	defer rows.Close()

	games := make([]*models.Game, 0)
	for rows.Next() {
		game, err := scanGame(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan game: %w", err)
		}
		games = append(games, game)
	}
	return games, rows.Err()
}

// ListOddsQuotes returns quotes for gameIDs in insertion order. No ids means all quotes.
func (r *PostgresRepository) ListOddsQuotes(ctx context.Context, gameIDs []string) ([]*models.OddsQuote, error) {
	query := `SELECT game_id, sportsbook, market, line, home_price, away_price, over_price, under_price,
	last_update, collected_at FROM odds_quotes`
	var args []interface{}
	if len(gameIDs) > 0 {
		query += ` WHERE game_id = ANY($1)`
		args = append(args, pq.Array(gameIDs))
	}
	query += ` ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list odds quotes: %w", err)
	}
	defer rows.Close()

	quotes := make([]*models.OddsQuote, 0)
	for rows.Next() {
		var (
			q                       models.OddsQuote
			market                  string
			home, away, over, under sql.NullInt64
		)
		if err := rows.Scan(&q.GameID, &q.Sportsbook, &market, &q.Line,
			&home, &away, &over, &under, &q.LastUpdate, &q.CollectedAt); err != nil {
			return nil, fmt.Errorf("failed to scan odds quote: %w", err)
		}
		q.Market = models.MarketType(market)
		q.HomePrice, q.AwayPrice = intPtr(home), intPtr(away)
		q.OverPrice, q.UnderPrice = intPtr(over), intPtr(under)
		quotes = append(quotes, &q)
	}
	return quotes, rows.Err()
}

// ListPlayerProps returns props matching filter in insertion order
func (r *PostgresRepository) ListPlayerProps(ctx context.Context, filter models.PropFilter) ([]*models.PlayerProp, error) {
	var (
		where []string
		args  []interface{}
	)
	if len(filter.GameIDs) > 0 {
		args = append(args, pq.Array(filter.GameIDs))
		where = append(where, fmt.Sprintf("game_id = ANY($%d)", len(args)))
	}
	if filter.PlayerName != "" {
		args = append(args, filter.PlayerName)
		where = append(where, fmt.Sprintf("LOWER(player_name) = LOWER($%d)", len(args)))
	}
	if filter.PropType != "" {
		args = append(args, filter.PropType)
		where = append(where, fmt.Sprintf("LOWER(prop_type) = LOWER($%d)", len(args)))
	}
	if !filter.IncludeAlternate {
		where = append(where, "is_alternate = FALSE")
	}

	query := `SELECT game_id, player_name, prop_type, sportsbook, line, over_price, under_price,
	is_alternate, last_update, collected_at FROM player_props`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list player props: %w", err)
	}
	defer rows.Close()

	props := make([]*models.PlayerProp, 0)
	for rows.Next() {
		var (
			p           models.PlayerProp
			over, under sql.NullInt64
		)
		if err := rows.Scan(&p.GameID, &p.PlayerName, &p.PropType, &p.Sportsbook, &p.Line,
			&over, &under, &p.IsAlternate, &p.LastUpdate, &p.CollectedAt); err != nil {
			return nil, fmt.Errorf("failed to scan player prop: %w", err)
		}
		p.OverPrice, p.UnderPrice = intPtr(over), intPtr(under)
		props = append(props, &p)
	}
	return props, rows.Err()
}

// CountCompletedRuns counts completed runs recorded for day
func (r *PostgresRepository) CountCompletedRuns(ctx context.Context, day string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM cron_runs WHERE day = $1 AND status = $2`,
		day, string(models.RunCompleted),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count runs for %s: %w", day, err)
	}
	return count, nil
}

// CreateRun inserts a new run record
func (r *PostgresRepository) CreateRun(ctx context.Context, run *models.CronRun) error {
	results, err := marshalResults(run.Results)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
	INSERT INTO cron_runs (id, day, status, started_at, completed_at, results, error)
	VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		run.ID.String(), run.Day, string(run.Status), run.StartedAt.UTC(),
		run.CompletedAt, results, nullString(run.Error),
	)
	if err != nil {
		return fmt.Errorf("failed to create run %s: %w", run.ID, err)
	}
	return nil
}

// UpdateRun writes the run's status, completion time, results and error
func (r *PostgresRepository) UpdateRun(ctx context.Context, run *models.CronRun) error {
	results, err := marshalResults(run.Results)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, `
	UPDATE cron_runs SET status = $2, completed_at = $3, results = $4, error = $5
	WHERE id = $1`,
		run.ID.String(), string(run.Status), run.CompletedAt, results, nullString(run.Error),
	)
	if err != nil {
		return fmt.Errorf("failed to update run %s: %w", run.ID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update run %s: %w", run.ID, err)
	}
	if affected == 0 {
		return fmt.Errorf("run %s: %w", run.ID, service.ErrNotFound)
	}
	return nil
}

// FailStaleRuns marks running runs started before cutoff as failed
func (r *PostgresRepository) FailStaleRuns(ctx context.Context, cutoff time.Time, reason string) (int, error) {
	res, err := r.db.ExecContext(ctx, `
	UPDATE cron_runs SET status = $1, completed_at = NOW(), error = $2
	WHERE status = $3 AND started_at < $4`,
		string(models.RunFailed), reason, string(models.RunRunning), cutoff.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to sweep stale runs: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to sweep stale runs: %w", err)
	}
	return int(affected), nil
}

// Ping checks the database connection
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close closes the database connection
func (r *PostgresRepository) Close() error {
	return r.db.Close()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanGame(row rowScanner) (*models.Game, error) {
	var (
		game  models.Game
		sport string
	)
	if err := row.Scan(&game.ID, &sport, &game.HomeTeam, &game.AwayTeam,
		&game.CommenceTime, &game.CreatedAt, &game.UpdatedAt); err != nil {
		return nil, err
	}
	game.Sport = models.Sport(sport)
	return &game, nil
}

func marshalResults(results *models.RunResults) (interface{}, error) {
	if results == nil {
		return nil, nil
	}
	data, err := json.Marshal(results)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal run results: %w", err)
	}
	return data, nil
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
