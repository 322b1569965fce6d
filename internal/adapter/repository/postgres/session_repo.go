package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kodbank/kodbank/internal/domain"
)

// SessionRepository implements usecase.SessionRepository.
type SessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

// Create inserts a new session.
func (r *SessionRepository) Create(ctx context.Context, session *domain.Session) error {
	query := `
		INSERT INTO sessions (id, account_id, token, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.pool.Exec(ctx, query,
		session.ID,
		session.AccountID,
		session.Token,
		timeToPgTimestamptz(session.ExpiresAt),
		timeToPgTimestamptz(session.CreatedAt),
	)

	return err
}

// GetByToken retrieves a session by its token.
func (r *SessionRepository) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	query := `
		SELECT id, account_id, token, expires_at, created_at
		FROM sessions
		WHERE token = $1
	`

	var (
		session   domain.Session
		expiresAt pgtype.Timestamptz
		createdAt pgtype.Timestamptz
	)

	err := r.pool.QueryRow(ctx, query, token).Scan(
		&session.ID,
		&session.AccountID,
		&session.Token,
		&expiresAt,
		&createdAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUnauthenticated
		}

		return nil, err
	}

	session.ExpiresAt = expiresAt.Time
	session.CreatedAt = createdAt.Time

	return &session, nil
}

// DeleteByToken removes a session by its token. Deleting an unknown token is
// not an error.
func (r *SessionRepository) DeleteByToken(ctx context.Context, token string) error {
	query := `DELETE FROM sessions WHERE token = $1`

	_, err := r.pool.Exec(ctx, query, token)

	return err
}

// DeleteExpired removes sessions that expired before the given time and
// returns the number of rows deleted.
func (r *SessionRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	query := `DELETE FROM sessions WHERE expires_at < $1`

	tag, err := r.pool.Exec(ctx, query, timeToPgTimestamptz(before))
	if err != nil {
		return 0, err
	}

	return tag.RowsAffected(), nil
}
