package anime

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"animeharvest/pkg/database"
	"animeharvest/pkg/models"
)

// Columns is the Animes table column order, shared by the store and the CSV files.
var Columns = []string{
	"Anime_ID", "Title", "Synopsis", "Episodes", "Premiered", "Genre", "Rating",
	"Score", "Scored_By", "Rank", "Popularity", "Members", "Favorites", "Image_URL",
	"cTitle", "cSynopsis", "cGenre", "cRating", "cLanguage",
}

type Repo struct {
	DB      *sql.DB
	Dialect database.Dialect
}

func NewRepo(db *sql.DB, d database.Dialect) *Repo {
	return &Repo{DB: db, Dialect: d}
}

func quotedColumns() string {
	q := make([]string, len(Columns))
	for i, c := range Columns {
		q[i] = `"` + c + `"`
	}
	return strings.Join(q, ", ")
}

// ExistingIDs returns every stored Anime_ID.
func (r *Repo) ExistingIDs(ctx context.Context) (map[int]struct{}, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT "Anime_ID" FROM "Animes"`)
	if err != nil {
		return nil, fmt.Errorf("query ids: %w", err)
	}
	defer rows.Close()

	ids := make(map[int]struct{})
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		ids[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return ids, nil
}

// Append inserts the records in one transaction. It never updates an
// existing row: a duplicate id fails the whole batch.
func (r *Repo) Append(ctx context.Context, records []models.Anime) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(Columns)), ", ")
	stmt, err := tx.PrepareContext(ctx, r.Dialect.Rebind(
		`INSERT INTO "Animes" (`+quotedColumns()+`) VALUES (`+placeholders+`)`,
	))
	if err != nil {
		return fmt.Errorf("prepare stmt: %w", err)
	}
	defer stmt.Close()

	for _, a := range records {
		if _, err := stmt.ExecContext(
			ctx,
			a.ID,
			a.Title,
			a.Synopsis,
			a.Episodes,
			a.Premiered,
			a.Genre,
			a.Rating,
			a.Score,
			a.ScoredBy,
			a.Rank,
			a.Popularity,
			a.Members,
			a.Favorites,
			a.ImageURL,
			a.CleanTitle,
			a.CleanSynopsis,
			a.CleanGenre,
			a.CleanRating,
			a.Language,
		); err != nil {
			return fmt.Errorf("exec insert for %d: %w", a.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// AppendNew appends only records whose id is not stored yet, keeping the
// first of any ids repeated in the batch. It returns how many were written.
func (r *Repo) AppendNew(ctx context.Context, records []models.Anime) (int, error) {
	existing, err := r.ExistingIDs(ctx)
	if err != nil {
		return 0, err
	}

	fresh := make([]models.Anime, 0, len(records))
	for _, a := range records {
		if _, ok := existing[a.ID]; ok {
			continue
		}
		existing[a.ID] = struct{}{}
		fresh = append(fresh, a)
	}
	if err := r.Append(ctx, fresh); err != nil {
		return 0, err
	}
	return len(fresh), nil
}

func (r *Repo) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM "Animes"`).Scan(&total); err != nil {
		return 0, fmt.Errorf("count scan: %w", err)
	}
	return total, nil
}

func (r *Repo) GetByID(ctx context.Context, id int) (*models.Anime, error) {
	row := r.DB.QueryRowContext(ctx, r.Dialect.Rebind(
		`SELECT `+quotedColumns()+` FROM "Animes" WHERE "Anime_ID" = ?`,
	), id)

	a, err := scanAnime(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan getByID: %w", err)
	}
	return a, nil
}

// All returns every row ordered by id. A limit <= 0 means no limit.
func (r *Repo) All(ctx context.Context, limit int) ([]models.Anime, error) {
	query := `SELECT ` + quotedColumns() + ` FROM "Animes" ORDER BY "Anime_ID"`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.DB.QueryContext(ctx, r.Dialect.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list query: %w", err)
	}
	defer rows.Close()

	var out []models.Anime
	for rows.Next() {
		a, err := scanAnime(rows)
		if err != nil {
			return nil, fmt.Errorf("list scan: %w", err)
		}
		out = append(out, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAnime(s scanner) (*models.Anime, error) {
	var (
		a             models.Anime
		synopsis      sql.NullString
		episodes      sql.NullInt64
		premiered     sql.NullString
		genre         sql.NullString
		rating        sql.NullString
		score         sql.NullFloat64
		scoredBy      sql.NullInt64
		rank          sql.NullInt64
		popularity    sql.NullInt64
		members       sql.NullInt64
		favorites     sql.NullInt64
		imageURL      sql.NullString
		cleanTitle    sql.NullString
		cleanSynopsis sql.NullString
		cleanGenre    sql.NullString
		cleanRating   sql.NullString
		language      sql.NullString
	)

	if err := s.Scan(
		&a.ID, &a.Title, &synopsis, &episodes, &premiered, &genre, &rating,
		&score, &scoredBy, &rank, &popularity, &members, &favorites, &imageURL,
		&cleanTitle, &cleanSynopsis, &cleanGenre, &cleanRating, &language,
	); err != nil {
		return nil, err
	}

	a.Synopsis = synopsis.String
	a.Episodes = intPtr(episodes)
	a.Premiered = premiered.String
	a.Genre = genre.String
	a.Rating = rating.String
	if score.Valid {
		v := score.Float64
		a.Score = &v
	}
	a.ScoredBy = intPtr(scoredBy)
	a.Rank = intPtr(rank)
	a.Popularity = intPtr(popularity)
	a.Members = intPtr(members)
	a.Favorites = intPtr(favorites)
	a.ImageURL = imageURL.String
	a.CleanTitle = cleanTitle.String
	a.CleanSynopsis = cleanSynopsis.String
	a.CleanGenre = cleanGenre.String
	a.CleanRating = cleanRating.String
	a.Language = language.String
	return &a, nil
}

func intPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

// runTimeLayout is fixed width so that text order is time order.
const runTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// RecordRun stores the outcome of one harvest run.
func (r *Repo) RecordRun(ctx context.Context, run models.HarvestRun) error {
	var fallback sql.NullString
	if run.FallbackPath != "" {
		fallback = sql.NullString{String: run.FallbackPath, Valid: true}
	}

	_, err := r.DB.ExecContext(ctx, r.Dialect.Rebind(`
		INSERT INTO "Harvest_Runs" ("Run_ID", "Season", "Year", "Listed", "New", "Fetched", "Failed",
			"Appended", "Aborted", "Fallback_Path", "Started_At", "Finished_At")
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`),
		run.ID, run.Season, run.Year, run.Listed, run.New, run.Fetched, run.Failed,
		run.Appended, run.Aborted, fallback,
		run.StartedAt.UTC().Format(runTimeLayout), run.FinishedAt.UTC().Format(runTimeLayout),
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", run.ID, err)
	}
	return nil
}

// LastRun returns the most recent run, or nil when none was recorded.
func (r *Repo) LastRun(ctx context.Context) (*models.HarvestRun, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT "Run_ID", "Season", "Year", "Listed", "New", "Fetched", "Failed",
			"Appended", "Aborted", "Fallback_Path", "Started_At", "Finished_At"
		FROM "Harvest_Runs"
		ORDER BY "Started_At" DESC, "Finished_At" DESC
		LIMIT 1
	`)

	var (
		run               models.HarvestRun
		fallback          sql.NullString
		started, finished string
	)
	if err := row.Scan(
		&run.ID, &run.Season, &run.Year, &run.Listed, &run.New, &run.Fetched, &run.Failed,
		&run.Appended, &run.Aborted, &fallback, &started, &finished,
	); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan last run: %w", err)
	}
	run.FallbackPath = fallback.String

	var err error
	if run.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
		return nil, fmt.Errorf("parse started_at of run %s: %w", run.ID, err)
	}
	if run.FinishedAt, err = time.Parse(time.RFC3339Nano, finished); err != nil {
		return nil, fmt.Errorf("parse finished_at of run %s: %w", run.ID, err)
	}
	return &run, nil
}
