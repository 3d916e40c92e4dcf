package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fangligamedev/AgentLinkin/internal/repository"
	"github.com/fangligamedev/AgentLinkin/internal/session"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresRepository struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool, now: time.Now}
}

func (r *PostgresRepository) SaveSession(ctx context.Context, s *session.Session) error {
	row, err := encodeSession(s, r.now())
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO boardroom_sessions (
		   id, company_name, created_by, quarter, phase, status, current_agenda_index,
		   participants, agenda, messages, company_state, config,
		   created_at, phase_started_at, updated_at
		 ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		 ON CONFLICT (id) DO UPDATE SET
		   company_name = EXCLUDED.company_name,
		   quarter = EXCLUDED.quarter,
		   phase = EXCLUDED.phase,
		   status = EXCLUDED.status,
		   current_agenda_index = EXCLUDED.current_agenda_index,
		   participants = EXCLUDED.participants,
		   agenda = EXCLUDED.agenda,
		   messages = EXCLUDED.messages,
		   company_state = EXCLUDED.company_state,
		   config = EXCLUDED.config,
		   phase_started_at = EXCLUDED.phase_started_at,
		   updated_at = EXCLUDED.updated_at`,
		row.ID, row.CompanyName, row.CreatedBy, row.Quarter, row.Phase, row.Status, row.AgendaIndex,
		row.Participants, row.Agenda, row.Messages, row.CompanyState, row.Config,
		row.CreatedAt, row.PhaseStartedAt, row.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save session %s: %w", s.ID, err)
	}
	return nil
}

func (r *PostgresRepository) GetSession(ctx context.Context, id string) (*session.Session, error) {
	var row sessionRow
	err := r.pool.QueryRow(ctx,
		`SELECT id, company_name, created_by, quarter, phase, status::TEXT, current_agenda_index,
		        participants, agenda, messages, company_state, config,
		        created_at, phase_started_at, updated_at
		 FROM boardroom_sessions WHERE id = $1`,
		id).Scan(
		&row.ID, &row.CompanyName, &row.CreatedBy, &row.Quarter, &row.Phase, &row.Status, &row.AgendaIndex,
		&row.Participants, &row.Agenda, &row.Messages, &row.CompanyState, &row.Config,
		&row.CreatedAt, &row.PhaseStartedAt, &row.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load session %s: %w", id, err)
	}
	return decodeSession(row)
}

func (r *PostgresRepository) ListSessions(ctx context.Context, status repository.SessionStatus) ([]repository.SessionSummary, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, company_name, created_by, quarter, phase, status::TEXT, created_at, updated_at
		 FROM boardroom_sessions
		 WHERE $1 = '' OR status::TEXT = $1
		 ORDER BY created_at DESC`,
		string(status))
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()
	var list []repository.SessionSummary
	for rows.Next() {
		var row sessionRow
		if err := rows.Scan(&row.ID, &row.CompanyName, &row.CreatedBy, &row.Quarter, &row.Phase, &row.Status, &row.CreatedAt, &row.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, summaryOf(row))
	}
	return list, rows.Err()
}

func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}
