package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oraculo-ai/oraculo/internal/domain"
	"github.com/oraculo-ai/oraculo/internal/pagination"
)

// SessionRepository owns the Session/Message lifecycle. Messages are
// append-only; sessions are created implicitly on first write.
type SessionRepository struct {
	db   dbtx
	pool *pgxpool.Pool
}

func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{db: pool, pool: pool}
}

func NewSessionRepositoryWithTx(tx pgx.Tx) *SessionRepository {
	return &SessionRepository{db: tx}
}

// LoadHistory returns the ordered message sequence for a session. An unknown
// session yields an empty slice, not an error.
func (r *SessionRepository) LoadHistory(ctx context.Context, sessionID string) ([]domain.Message, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, session_id, role, content, position, created_at
		 FROM messages
		 WHERE session_id = $1
		 ORDER BY position ASC`,
		sessionID,
	)
	if err != nil {
		return nil, storageErr(err)
	}
	defer rows.Close()

	messages := make([]domain.Message, 0)
	for rows.Next() {
		var m domain.Message
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Role, &m.Content, &m.Position, &m.CreatedAt); err != nil {
			return nil, storageErr(err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(err)
	}
	return messages, nil
}

// AppendTurn inserts one immutable message at the next position of the
// session. Positions are assigned in the insert statement; the design assumes
// a single in-flight request per session, so no lock is taken.
func (r *SessionRepository) AppendTurn(ctx context.Context, sessionID string, role domain.Role, content string) (*domain.Message, error) {
	if !domain.ValidRole(role) {
		return nil, domain.ErrInvalidRole
	}
	if content == "" {
		return nil, domain.ErrEmptyContent
	}

	m := domain.Message{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}

	err := r.db.QueryRow(ctx,
		`INSERT INTO messages (id, session_id, role, content, position, created_at)
		 VALUES ($1, $2, $3, $4,
		         (SELECT COALESCE(MAX(position) + 1, 0) FROM messages WHERE session_id = $2),
		         $5)
		 RETURNING position`,
		m.ID, m.SessionID, m.Role, m.Content, m.CreatedAt,
	).Scan(&m.Position)
	if err != nil {
		return nil, storageErr(err)
	}

	return &m, nil
}

// AppendExchange persists a user turn and the assistant reply in a single
// transaction. A failure on either insert rolls back both, so a dropped
// connection mid-request never leaves a lone user message behind.
func (r *SessionRepository) AppendExchange(ctx context.Context, sessionID, userContent, assistantContent string) (*domain.Message, *domain.Message, error) {
	if r.pool == nil {
		// Already inside a caller-owned transaction.
		return appendBoth(ctx, r, sessionID, userContent, assistantContent)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, nil, storageErr(err)
	}
	defer tx.Rollback(ctx)

	userMsg, assistantMsg, err := appendBoth(ctx, NewSessionRepositoryWithTx(tx), sessionID, userContent, assistantContent)
	if err != nil {
		return nil, nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, nil, storageErr(err)
	}
	return userMsg, assistantMsg, nil
}

func appendBoth(ctx context.Context, repo *SessionRepository, sessionID, userContent, assistantContent string) (*domain.Message, *domain.Message, error) {
	userMsg, err := repo.AppendTurn(ctx, sessionID, domain.RoleUser, userContent)
	if err != nil {
		return nil, nil, err
	}
	assistantMsg, err := repo.AppendTurn(ctx, sessionID, domain.RoleAssistant, assistantContent)
	if err != nil {
		return nil, nil, err
	}
	return userMsg, assistantMsg, nil
}

// ListSessions returns a cursor-paginated index of sessions ordered by most
// recent activity.
func (r *SessionRepository) ListSessions(ctx context.Context, limit int, cursor string) (*pagination.PageResult[domain.SessionSummary], error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	decoded, err := pagination.DecodeCursor(cursor)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "invalid cursor", err)
	}

	query := `
		SELECT session_id, COUNT(*) AS message_count, MAX(created_at) AS last_activity
		FROM messages
		GROUP BY session_id`
	args := []interface{}{}

	if decoded != nil {
		query += `
		HAVING (MAX(created_at), session_id) < ($1, $2)`
		args = append(args, decoded.Timestamp, decoded.LastID)
	}

	query += fmt.Sprintf(`
		ORDER BY last_activity DESC, session_id DESC
		LIMIT $%d`, len(args)+1)
	args = append(args, limit)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, storageErr(err)
	}
	defer rows.Close()

	sessions := make([]domain.SessionSummary, 0, limit)
	for rows.Next() {
		var s domain.SessionSummary
		if err := rows.Scan(&s.SessionID, &s.MessageCount, &s.LastActivity); err != nil {
			return nil, storageErr(err)
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(err)
	}

	next := pagination.CreateNextCursor(sessions, limit,
		func(s domain.SessionSummary) string { return s.SessionID },
		func(s domain.SessionSummary) time.Time { return s.LastActivity },
	)

	return &pagination.PageResult[domain.SessionSummary]{
		Items:   sessions,
		Cursor:  next,
		HasMore: next != "",
	}, nil
}

func storageErr(err error) error {
	return domain.NewDomainErrorWithCause(domain.ErrCodeUnavailable, "session or chunk storage unavailable", err)
}
