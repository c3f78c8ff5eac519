package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/glebarez/go-sqlite"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"podcast-notes-go/internal/types"
)

type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

var schemas = map[Dialect]string{
	Postgres: `
	CREATE TABLE IF NOT EXISTS podcasts (
		id TEXT PRIMARY KEY,
		user_id TEXT,
		title TEXT NOT NULL,
		description TEXT,
		audio_url TEXT NOT NULL,
		original_filename TEXT,
		file_size BIGINT NOT NULL DEFAULT 0,
		processing_status TEXT NOT NULL DEFAULT 'pending',
		transcript TEXT,
		show_notes TEXT,
		key_takeaways JSONB,
		timestamps JSONB,
		duration INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	CREATE INDEX IF NOT EXISTS podcasts_status_idx ON podcasts (processing_status, updated_at);`,

	SQLite: `
	CREATE TABLE IF NOT EXISTS podcasts (
		id TEXT PRIMARY KEY,
		user_id TEXT,
		title TEXT NOT NULL,
		description TEXT,
		audio_url TEXT NOT NULL,
		original_filename TEXT,
		file_size INTEGER NOT NULL DEFAULT 0,
		processing_status TEXT NOT NULL DEFAULT 'pending',
		transcript TEXT,
		show_notes TEXT,
		key_takeaways TEXT,
		timestamps TEXT,
		duration INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS podcasts_status_idx ON podcasts (processing_status, updated_at);`,
}

// sqliteTimeLayout is fixed width so text ordering matches time ordering.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const selectColumns = `id, user_id, title, description, audio_url, original_filename, file_size,
	processing_status, transcript, show_notes, key_takeaways, timestamps, duration, created_at, updated_at`

// SQLStore keeps podcast records in Postgres or SQLite through database/sql.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time
}

// OpenSQL opens and pings the database and creates the podcasts table when
// it does not exist yet.
func OpenSQL(ctx context.Context, dialect Dialect, dsn string) (*SQLStore, error) {
	driver := "pgx"
	if dialect == SQLite {
		driver = "sqlite"
	} else if dialect != Postgres {
		return nil, fmt.Errorf("unsupported sql dialect %q", dialect)
	}
	if dsn == "" {
		return nil, fmt.Errorf("%s DSN is required", dialect)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialect, err)
	}
	if dialect == SQLite {
		// in-memory databases are per connection
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", dialect, err)
	}

	s := &SQLStore{db: db, dialect: dialect, now: time.Now}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLStore) migrate(ctx context.Context) error {
	for _, stmt := range strings.Split(schemas[s.dialect], ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate %s: %w", s.dialect, err)
		}
	}
	return nil
}

// Insert stores rec as uploaded, assigning an id when it has none.
func (s *SQLStore) Insert(ctx context.Context, rec types.PodcastRecord) (string, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.ProcessingStatus == "" {
		rec.ProcessingStatus = types.StatusPending
	}
	now := s.now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}

	takeaways, err := encodeJSON(rec.KeyTakeaways)
	if err != nil {
		return "", err
	}
	chapters, err := encodeJSON(rec.Timestamps)
	if err != nil {
		return "", err
	}

	q := s.rebind(`INSERT INTO podcasts (id, user_id, title, description, audio_url, original_filename, file_size,
		processing_status, transcript, show_notes, key_takeaways, timestamps, duration, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err = s.db.ExecContext(ctx, q,
		rec.ID, nullString(rec.UserID), rec.Title, nullString(rec.Description), rec.AudioURL,
		nullString(rec.OriginalFilename), rec.FileSize, string(rec.ProcessingStatus),
		nullString(rec.Transcript), nullString(rec.ShowNotes), takeaways, chapters, rec.Duration,
		s.timeArg(rec.CreatedAt), s.timeArg(now),
	)
	if err != nil {
		return "", fmt.Errorf("insert podcast: %w", err)
	}
	return rec.ID, nil
}

// Update writes every changed column in one statement.
func (s *SQLStore) Update(ctx context.Context, id string, u types.StatusUpdate) error {
	cols, vals := columns(u)
	sets := make([]string, 0, len(cols)+1)
	args := make([]any, 0, len(cols)+2)
	for i, col := range cols {
		v := vals[i]
		if col == "key_takeaways" || col == "timestamps" {
			enc, err := encodeJSON(v)
			if err != nil {
				return err
			}
			v = enc
		}
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, s.timeArg(s.now().UTC()), id)

	q := s.rebind("UPDATE podcasts SET " + strings.Join(sets, ", ") + " WHERE id = ?")
	res, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("update podcast %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update podcast %s: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) Get(ctx context.Context, id string) (*types.PodcastRecord, error) {
	row := s.db.QueryRowContext(ctx, s.rebind("SELECT "+selectColumns+" FROM podcasts WHERE id = ?"), id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get podcast %s: %w", id, err)
	}
	return rec, nil
}

func (s *SQLStore) List(ctx context.Context) ([]types.PodcastRecord, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+selectColumns+" FROM podcasts ORDER BY created_at DESC, id")
	if err != nil {
		return nil, fmt.Errorf("list podcasts: %w", err)
	}
	defer rows.Close()

	var out []types.PodcastRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan podcast: %w", err)
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list podcasts: %w", err)
	}
	return out, nil
}

func (s *SQLStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// rebind rewrites ? placeholders to $n for Postgres.
func (s *SQLStore) rebind(q string) string {
	if s.dialect != Postgres {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *SQLStore) timeArg(t time.Time) any {
	if s.dialect == SQLite {
		return t.UTC().Format(sqliteTimeLayout)
	}
	return t
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*types.PodcastRecord, error) {
	var (
		rec                                      types.PodcastRecord
		userID, desc, filename, transcript, show sql.NullString
		takeaways, chapters                      sql.NullString
		status                                   string
		created, updated                         sqlTime
	)
	err := row.Scan(&rec.ID, &userID, &rec.Title, &desc, &rec.AudioURL, &filename, &rec.FileSize,
		&status, &transcript, &show, &takeaways, &chapters, &rec.Duration, &created, &updated)
	if err != nil {
		return nil, err
	}

	rec.UserID = userID.String
	rec.Description = desc.String
	rec.OriginalFilename = filename.String
	rec.ProcessingStatus = types.ProcessingStatus(status)
	rec.Transcript = transcript.String
	rec.ShowNotes = show.String
	rec.CreatedAt = created.Time
	rec.UpdatedAt = updated.Time

	if takeaways.Valid && takeaways.String != "" {
		if err := json.Unmarshal([]byte(takeaways.String), &rec.KeyTakeaways); err != nil {
			return nil, fmt.Errorf("decode key_takeaways: %w", err)
		}
	}
	if chapters.Valid && chapters.String != "" {
		if err := json.Unmarshal([]byte(chapters.String), &rec.Timestamps); err != nil {
			return nil, fmt.Errorf("decode timestamps: %w", err)
		}
	}
	return &rec, nil
}

// sqlTime scans both native timestamps and RFC 3339 text.
type sqlTime struct {
	Time time.Time
}

func (t *sqlTime) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		t.Time = time.Time{}
	case time.Time:
		t.Time = v
	case string:
		return t.parse(v)
	case []byte:
		return t.parse(string(v))
	default:
		return fmt.Errorf("unsupported time value %T", src)
	}
	return nil
}

func (t *sqlTime) parse(s string) error {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05.999999999-07:00", "2006-01-02 15:04:05"} {
		if v, err := time.Parse(layout, s); err == nil {
			t.Time = v
			return nil
		}
	}
	return fmt.Errorf("unparsable time %q", s)
}

func encodeJSON(v any) (any, error) {
	switch x := v.(type) {
	case []string:
		if x == nil {
			return nil, nil
		}
	case []types.Chapter:
		if x == nil {
			return nil, nil
		}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode json column: %w", err)
	}
	return string(b), nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
