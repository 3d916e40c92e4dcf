package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fangligamedev/AgentLinkin/internal/repository"
	"github.com/fangligamedev/AgentLinkin/internal/session"
	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(v int64) time.Time {
	return time.UnixMilli(v).UTC()
}

// OpenSQLite opens the database file at path and applies the schema.
func OpenSQLite(ctx context.Context, path string) (*SQLiteRepository, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping sqlite db: %w", err)
	}
	for _, stmt := range sqliteMigrationStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to run sqlite migration: %w", err)
		}
	}
	return &SQLiteRepository{db: db, now: time.Now}, nil
}

func (r *SQLiteRepository) SaveSession(ctx context.Context, s *session.Session) error {
	row, err := encodeSession(s, r.now())
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO boardroom_sessions (
		   id, company_name, created_by, quarter, phase, status, current_agenda_index,
		   participants, agenda, messages, company_state, config,
		   created_at, phase_started_at, updated_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		   company_name = excluded.company_name,
		   quarter = excluded.quarter,
		   phase = excluded.phase,
		   status = excluded.status,
		   current_agenda_index = excluded.current_agenda_index,
		   participants = excluded.participants,
		   agenda = excluded.agenda,
		   messages = excluded.messages,
		   company_state = excluded.company_state,
		   config = excluded.config,
		   phase_started_at = excluded.phase_started_at,
		   updated_at = excluded.updated_at`,
		row.ID, row.CompanyName, row.CreatedBy, row.Quarter, row.Phase, row.Status, row.AgendaIndex,
		string(row.Participants), string(row.Agenda), string(row.Messages), string(row.CompanyState), string(row.Config),
		toMillis(row.CreatedAt), toMillis(row.PhaseStartedAt), toMillis(row.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to save session %s: %w", s.ID, err)
	}
	return nil
}

func (r *SQLiteRepository) GetSession(ctx context.Context, id string) (*session.Session, error) {
	var (
		row                                        sessionRow
		participants, agenda, messages, state, cfg string
		createdAt, phaseStartedAt, updatedAt       int64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, company_name, created_by, quarter, phase, status, current_agenda_index,
		        participants, agenda, messages, company_state, config,
		        created_at, phase_started_at, updated_at
		 FROM boardroom_sessions WHERE id = ?`,
		id).Scan(
		&row.ID, &row.CompanyName, &row.CreatedBy, &row.Quarter, &row.Phase, &row.Status, &row.AgendaIndex,
		&participants, &agenda, &messages, &state, &cfg,
		&createdAt, &phaseStartedAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load session %s: %w", id, err)
	}
	row.Participants = []byte(participants)
	row.Agenda = []byte(agenda)
	row.Messages = []byte(messages)
	row.CompanyState = []byte(state)
	row.Config = []byte(cfg)
	row.CreatedAt = fromMillis(createdAt)
	row.PhaseStartedAt = fromMillis(phaseStartedAt)
	row.UpdatedAt = fromMillis(updatedAt)
	return decodeSession(row)
}

func (r *SQLiteRepository) ListSessions(ctx context.Context, status repository.SessionStatus) ([]repository.SessionSummary, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, company_name, created_by, quarter, phase, status, created_at, updated_at
		 FROM boardroom_sessions
		 WHERE ? = '' OR status = ?
		 ORDER BY created_at DESC, id DESC`,
		string(status), string(status))
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()
	var list []repository.SessionSummary
	for rows.Next() {
		var row sessionRow
		var createdAt, updatedAt int64
		if err := rows.Scan(&row.ID, &row.CompanyName, &row.CreatedBy, &row.Quarter, &row.Phase, &row.Status, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		row.CreatedAt = fromMillis(createdAt)
		row.UpdatedAt = fromMillis(updatedAt)
		list = append(list, summaryOf(row))
	}
	return list, rows.Err()
}

func (r *SQLiteRepository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}
