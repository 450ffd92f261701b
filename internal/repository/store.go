package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/devdesignhq/enroll/internal/domain"
)

const uniqueViolation = "23505"

// Store is the persistence boundary of the reconciliation core.
type Store interface {
	CreateUser(ctx context.Context, u *domain.User) error
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	CreateSession(ctx context.Context, s *domain.Session) error
	GetSession(ctx context.Context, token uuid.UUID) (*domain.Session, error)
	DeleteSession(ctx context.Context, token uuid.UUID) error

	CreatePasswordReset(ctx context.Context, r *domain.PasswordReset) error
	GetPasswordReset(ctx context.Context, token uuid.UUID) (*domain.PasswordReset, error)
	DeletePasswordResets(ctx context.Context, userID uuid.UUID) error
	UpdateUserPassword(ctx context.Context, userID uuid.UUID, passwordHash string) error

	GetBootcamp(ctx context.Context, id uuid.UUID) (*domain.Bootcamp, error)
	ListActiveBootcamps(ctx context.Context) ([]domain.Bootcamp, error)

	GetDiscountByCode(ctx context.Context, code string) (*domain.DiscountCode, error)

	// FindEnrollment matches on transaction id OR the (user, bootcamp) pair.
	// Returns nil, nil when nothing matches.
	FindEnrollment(ctx context.Context, userID, bootcampID uuid.UUID, transactionID string) (*domain.Enrollment, error)

	// CreateEnrollment inserts the enrollment and, when e.DiscountCodeID is
	// set, consumes one use of that code in the same transaction. When the
	// usage cap has been reached in the meantime the enrollment still commits
	// with a null discount id; discountApplied reports what happened.
	// Returns domain.ErrAlreadyEnrolled when either uniqueness constraint
	// fires.
	CreateEnrollment(ctx context.Context, e *domain.Enrollment) (discountApplied bool, err error)
}

type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) CreateUser(ctx context.Context, u *domain.User) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO users (id, email, name, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, u.ID, u.Email, u.Name, u.PasswordHash, u.CreatedAt)
	if isUniqueViolation(err) {
		return domain.ErrEmailTaken
	}
	return err
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.scanUser(s.db.QueryRow(ctx, `
		SELECT id, email, name, password_hash, created_at
		FROM users WHERE email = $1
	`, email))
}

func (s *PostgresStore) GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.scanUser(s.db.QueryRow(ctx, `
		SELECT id, email, name, password_hash, created_at
		FROM users WHERE id = $1
	`, id))
}

func (s *PostgresStore) scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}

func (s *PostgresStore) CreateSession(ctx context.Context, sess *domain.Session) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO sessions (token, user_id, expires_at, created_at)
		VALUES ($1, $2, $3, $4)
	`, sess.Token, sess.UserID, sess.ExpiresAt, sess.CreatedAt)
	return err
}

func (s *PostgresStore) GetSession(ctx context.Context, token uuid.UUID) (*domain.Session, error) {
	var sess domain.Session
	err := s.db.QueryRow(ctx, `
		SELECT token, user_id, expires_at, created_at
		FROM sessions WHERE token = $1
	`, token).Scan(&sess.Token, &sess.UserID, &sess.ExpiresAt, &sess.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("scan session: %w", err)
	}
	return &sess, nil
}

func (s *PostgresStore) DeleteSession(ctx context.Context, token uuid.UUID) error {
	_, err := s.db.Exec(ctx, `DELETE FROM sessions WHERE token = $1`, token)
	return err
}

func (s *PostgresStore) CreatePasswordReset(ctx context.Context, r *domain.PasswordReset) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO password_resets (token, user_id, expires_at, created_at)
		VALUES ($1, $2, $3, $4)
	`, r.Token, r.UserID, r.ExpiresAt, r.CreatedAt)
	return err
}

func (s *PostgresStore) GetPasswordReset(ctx context.Context, token uuid.UUID) (*domain.PasswordReset, error) {
	var r domain.PasswordReset
	err := s.db.QueryRow(ctx, `
		SELECT token, user_id, expires_at, created_at
		FROM password_resets WHERE token = $1
	`, token).Scan(&r.Token, &r.UserID, &r.ExpiresAt, &r.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrResetTokenInvalid
		}
		return nil, fmt.Errorf("scan password reset: %w", err)
	}
	return &r, nil
}

func (s *PostgresStore) DeletePasswordResets(ctx context.Context, userID uuid.UUID) error {
	_, err := s.db.Exec(ctx, `DELETE FROM password_resets WHERE user_id = $1`, userID)
	return err
}

func (s *PostgresStore) UpdateUserPassword(ctx context.Context, userID uuid.UUID, passwordHash string) error {
	_, err := s.db.Exec(ctx, `UPDATE users SET password_hash = $1 WHERE id = $2`, passwordHash, userID)
	return err
}

func (s *PostgresStore) GetBootcamp(ctx context.Context, id uuid.UUID) (*domain.Bootcamp, error) {
	var b domain.Bootcamp
	err := s.db.QueryRow(ctx, `
		SELECT id, slug, title, description, price_ngn, price_usd, is_active, start_date, created_at
		FROM bootcamps WHERE id = $1
	`, id).Scan(&b.ID, &b.Slug, &b.Title, &b.Description, &b.PriceNGN, &b.PriceUSD, &b.IsActive, &b.StartDate, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBootcampNotFound
		}
		return nil, fmt.Errorf("scan bootcamp: %w", err)
	}
	return &b, nil
}

func (s *PostgresStore) ListActiveBootcamps(ctx context.Context) ([]domain.Bootcamp, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, slug, title, description, price_ngn, price_usd, is_active, start_date, created_at
		FROM bootcamps WHERE is_active ORDER BY created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("query bootcamps: %w", err)
	}
	defer rows.Close()

	var out []domain.Bootcamp
	for rows.Next() {
		var b domain.Bootcamp
		if err := rows.Scan(&b.ID, &b.Slug, &b.Title, &b.Description, &b.PriceNGN, &b.PriceUSD, &b.IsActive, &b.StartDate, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan bootcamp: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *PostgresStore) GetDiscountByCode(ctx context.Context, code string) (*domain.DiscountCode, error) {
	var d domain.DiscountCode
	err := s.db.QueryRow(ctx, `
		SELECT id, code, description, discount_percent, is_active, valid_from, valid_until, max_uses, current_uses, created_at
		FROM discount_codes WHERE code = $1
	`, domain.NormalizeCode(code)).Scan(
		&d.ID, &d.Code, &d.Description, &d.DiscountPercent, &d.IsActive,
		&d.ValidFrom, &d.ValidUntil, &d.MaxUses, &d.CurrentUses, &d.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrDiscountNotFound
		}
		return nil, fmt.Errorf("scan discount: %w", err)
	}
	return &d, nil
}

func (s *PostgresStore) FindEnrollment(ctx context.Context, userID, bootcampID uuid.UUID, transactionID string) (*domain.Enrollment, error) {
	var e domain.Enrollment
	var discountID uuid.NullUUID
	err := s.db.QueryRow(ctx, `
		SELECT id, user_id, bootcamp_id, transaction_id, status, discount_code_id, enrolled_at
		FROM enrollments
		WHERE (user_id = $1 AND bootcamp_id = $2) OR transaction_id = $3
		LIMIT 1
	`, userID, bootcampID, transactionID).Scan(
		&e.ID, &e.UserID, &e.BootcampID, &e.TransactionID, &e.Status, &discountID, &e.EnrolledAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan enrollment: %w", err)
	}
	if discountID.Valid {
		e.DiscountCodeID = &discountID.UUID
	}
	return &e, nil
}

func (s *PostgresStore) CreateEnrollment(ctx context.Context, e *domain.Enrollment) (bool, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	// Consume a use before the insert so a losing insert rolls the increment
	// back with it. The guard keeps current_uses at the cap even when two
	// commits race on the last seat.
	applied := false
	if e.DiscountCodeID != nil {
		tag, err := tx.Exec(ctx, `
			UPDATE discount_codes
			SET current_uses = current_uses + 1
			WHERE id = $1 AND is_active AND (max_uses IS NULL OR current_uses < max_uses)
		`, *e.DiscountCodeID)
		if err != nil {
			return false, fmt.Errorf("consume discount: %w", err)
		}
		applied = tag.RowsAffected() == 1
		if !applied {
			e.DiscountCodeID = nil
		}
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO enrollments (id, user_id, bootcamp_id, transaction_id, status, discount_code_id, enrolled_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, e.ID, e.UserID, e.BootcampID, e.TransactionID, e.Status, e.DiscountCodeID, e.EnrolledAt)
	if err != nil {
		if isUniqueViolation(err) {
			return false, domain.ErrAlreadyEnrolled
		}
		return false, fmt.Errorf("insert enrollment: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		if isUniqueViolation(err) {
			return false, domain.ErrAlreadyEnrolled
		}
		return false, fmt.Errorf("commit: %w", err)
	}
	return applied, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
