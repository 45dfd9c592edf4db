package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	companion "github.com/cyberFlowTech/companion-sdk-go"
	"github.com/cyberFlowTech/companion-sdk-go/emotion"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// SQLite persists sessions in two tables: one row per session and one row
// per memory record. Relationship signals are kept as a JSON column.
type SQLite struct {
	db     *sqlx.DB
	logger *log.Logger
}

// SQLiteOption configures the SQLite store.
type SQLiteOption func(*SQLite)

// WithSQLiteLogger sets the logger used for migration progress.
func WithSQLiteLogger(l *log.Logger) SQLiteOption {
	return func(s *SQLite) { s.logger = l }
}

// NewSQLite opens (or creates) the database at path and runs migrations.
// Use ":memory:" only with a single connection.
func NewSQLite(path string, opts ...SQLiteOption) (*SQLite, error) {
	s := &SQLite{logger: log.New(io.Discard)}
	for _, o := range opts {
		o(s)
	}

	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, errors.Wrap(err, "create sqlite dir")
		}
	}
	db, err := sqlx.Connect("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, errors.Wrap(err, "connect sqlite")
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "enable WAL mode")
	}
	if err := runMigrations(db.DB, s.logger); err != nil {
		db.Close()
		return nil, err
	}
	s.db = db
	return s, nil
}

func runMigrations(db *sql.DB, logger *log.Logger) error {
	goose.SetLogger(goose.NopLogger())
	goose.SetBaseFS(embedMigrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return errors.Wrap(err, "set goose dialect")
	}
	logger.Debug("Running sqlite migrations")
	if err := goose.Up(db, "migrations"); err != nil {
		logger.Error("Sqlite migrations failed", "error", err)
		return errors.Wrap(err, "run migrations")
	}
	return nil
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

type sessionRow struct {
	SessionID         string `db:"session_id"`
	Version           int    `db:"version"`
	PersonaID         string `db:"persona_id"`
	TotalInteractions int    `db:"total_interactions"`
	IntimacyLevel     int    `db:"intimacy_level"`
	FlirtLevel        int    `db:"flirt_level"`
	CurrentMood       string `db:"current_mood"`
	RelationshipJSON  string `db:"relationship_json"`
	SavedAt           string `db:"saved_at"`
}

type memoryRow struct {
	ID             string `db:"id"`
	SessionID      string `db:"session_id"`
	Position       int    `db:"position"`
	Content        string `db:"content"`
	Category       string `db:"category"`
	Emotion        string `db:"emotion"`
	Importance     int    `db:"importance"`
	CreatedAt      string `db:"created_at"`
	AccessCount    int    `db:"access_count"`
	LastAccessedAt string `db:"last_accessed_at"`
}

// relationshipExtras holds the relationship fields without their own column.
type relationshipExtras struct {
	MilestonesReached []int              `json:"milestones_reached"`
	LastInteractionAt string             `json:"last_interaction_at"`
	RecentSignals     []companion.Signal `json:"recent_signals"`
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(v string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "parse time %q", v)
	}
	return t.UTC(), nil
}

func (s *SQLite) Save(ctx context.Context, sessionID string, snap *companion.Snapshot) error {
	if err := ValidateSessionID(sessionID); err != nil {
		return err
	}
	if snap == nil {
		return errors.New("nil snapshot")
	}
	snap = normalizedCopy(snap)
	rel := snap.Relationship

	extras, err := json.Marshal(relationshipExtras{
		MilestonesReached: rel.MilestonesReached,
		LastInteractionAt: formatTime(rel.LastInteractionAt),
		RecentSignals:     rel.RecentSignals,
	})
	if err != nil {
		return errors.Wrap(err, "marshal relationship")
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.NamedExecContext(ctx, `
		INSERT INTO sessions (session_id, version, persona_id, total_interactions,
			intimacy_level, flirt_level, current_mood, relationship_json, saved_at)
		VALUES (:session_id, :version, :persona_id, :total_interactions,
			:intimacy_level, :flirt_level, :current_mood, :relationship_json, :saved_at)
		ON CONFLICT(session_id) DO UPDATE SET
			version = excluded.version,
			persona_id = excluded.persona_id,
			total_interactions = excluded.total_interactions,
			intimacy_level = excluded.intimacy_level,
			flirt_level = excluded.flirt_level,
			current_mood = excluded.current_mood,
			relationship_json = excluded.relationship_json,
			saved_at = excluded.saved_at`,
		sessionRow{
			SessionID:         sessionID,
			Version:           snap.Version,
			PersonaID:         rel.CurrentPersonaID,
			TotalInteractions: rel.TotalInteractions,
			IntimacyLevel:     rel.IntimacyLevel,
			FlirtLevel:        rel.FlirtLevel,
			CurrentMood:       string(rel.CurrentMood),
			RelationshipJSON:  string(extras),
			SavedAt:           formatTime(snap.SavedAt),
		})
	if err != nil {
		return errors.Wrap(err, "upsert session")
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM memories WHERE session_id = ?`, sessionID); err != nil {
		return errors.Wrap(err, "clear memories")
	}
	for i, m := range snap.Memories {
		_, err := tx.NamedExecContext(ctx, `
			INSERT INTO memories (id, session_id, position, content, category, emotion,
				importance, created_at, access_count, last_accessed_at)
			VALUES (:id, :session_id, :position, :content, :category, :emotion,
				:importance, :created_at, :access_count, :last_accessed_at)`,
			memoryRow{
				ID:             m.ID,
				SessionID:      sessionID,
				Position:       i,
				Content:        m.Content,
				Category:       string(m.Category),
				Emotion:        string(m.Emotion),
				Importance:     m.Importance,
				CreatedAt:      formatTime(m.CreatedAt),
				AccessCount:    m.AccessCount,
				LastAccessedAt: formatTime(m.LastAccessedAt),
			})
		if err != nil {
			return errors.Wrapf(err, "insert memory %s", m.ID)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "commit snapshot")
	}
	return nil
}

func (s *SQLite) Load(ctx context.Context, sessionID string) (*companion.Snapshot, error) {
	if err := ValidateSessionID(sessionID); err != nil {
		return nil, err
	}

	var row sessionRow
	err := s.db.GetContext(ctx, &row, `SELECT * FROM sessions WHERE session_id = ?`, sessionID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "select session")
	}

	var extras relationshipExtras
	if err := json.Unmarshal([]byte(row.RelationshipJSON), &extras); err != nil {
		return nil, errors.Wrap(err, "unmarshal relationship")
	}
	lastAt, err := parseTime(extras.LastInteractionAt)
	if err != nil {
		return nil, err
	}
	savedAt, err := parseTime(row.SavedAt)
	if err != nil {
		return nil, err
	}

	var rows []memoryRow
	err = s.db.SelectContext(ctx, &rows,
		`SELECT * FROM memories WHERE session_id = ? ORDER BY position`, sessionID)
	if err != nil {
		return nil, errors.Wrap(err, "select memories")
	}
	memories := make([]companion.MemoryRecord, 0, len(rows))
	for _, r := range rows {
		createdAt, err := parseTime(r.CreatedAt)
		if err != nil {
			return nil, err
		}
		accessedAt, err := parseTime(r.LastAccessedAt)
		if err != nil {
			return nil, err
		}
		memories = append(memories, companion.MemoryRecord{
			ID:             r.ID,
			Content:        r.Content,
			Category:       companion.MemoryCategory(r.Category),
			Emotion:        emotion.Emotion(r.Emotion),
			Importance:     r.Importance,
			CreatedAt:      createdAt,
			AccessCount:    r.AccessCount,
			LastAccessedAt: accessedAt,
		})
	}

	snap := &companion.Snapshot{
		Version:   row.Version,
		SessionID: row.SessionID,
		Relationship: companion.RelationshipState{
			TotalInteractions: row.TotalInteractions,
			IntimacyLevel:     row.IntimacyLevel,
			FlirtLevel:        row.FlirtLevel,
			CurrentPersonaID:  row.PersonaID,
			CurrentMood:       emotion.Emotion(row.CurrentMood),
			MilestonesReached: extras.MilestonesReached,
			LastInteractionAt: lastAt,
			RecentSignals:     extras.RecentSignals,
		},
		Memories: memories,
		SavedAt:  savedAt,
	}
	if err := snap.Validate(); err != nil {
		return nil, err
	}
	return snap.Normalize(), nil
}

// Delete removes a session and its memories.
func (s *SQLite) Delete(ctx context.Context, sessionID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE session_id = ?`, sessionID); err != nil {
		return errors.Wrap(err, "delete session")
	}
	return nil
}
