package service

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/devdesignhq/enroll/internal/domain"
)

func decimalFromInt(n int64) decimal.Decimal { return decimal.NewFromInt(n) }

// fakeStore is an in-memory Store that mirrors the database's two uniqueness
// constraints and the guarded discount increment, so engine tests exercise
// the same contention semantics the Postgres implementation provides.
type fakeStore struct {
	mu          sync.Mutex
	users       map[uuid.UUID]*domain.User
	sessions    map[uuid.UUID]*domain.Session
	resets      map[uuid.UUID]*domain.PasswordReset
	bootcamps   map[uuid.UUID]*domain.Bootcamp
	discounts   map[string]*domain.DiscountCode
	enrollments []*domain.Enrollment
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:     make(map[uuid.UUID]*domain.User),
		sessions:  make(map[uuid.UUID]*domain.Session),
		resets:    make(map[uuid.UUID]*domain.PasswordReset),
		bootcamps: make(map[uuid.UUID]*domain.Bootcamp),
		discounts: make(map[string]*domain.DiscountCode),
	}
}

func (s *fakeStore) addUser(email string) *domain.User {
	u := &domain.User{ID: uuid.New(), Email: email, Name: "Test User"}
	s.users[u.ID] = u
	return u
}

func (s *fakeStore) addBootcamp(title string, priceNGN, priceUSD int64) *domain.Bootcamp {
	b := &domain.Bootcamp{
		ID:       uuid.New(),
		Slug:     title,
		Title:    title,
		PriceNGN: decimalFromInt(priceNGN),
		PriceUSD: decimalFromInt(priceUSD),
		IsActive: true,
	}
	s.bootcamps[b.ID] = b
	return b
}

func (s *fakeStore) addDiscount(d *domain.DiscountCode) *domain.DiscountCode {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	s.discounts[d.Code] = d
	return d
}

func (s *fakeStore) CreateUser(_ context.Context, u *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return domain.ErrEmailTaken
		}
	}
	s.users[u.ID] = u
	return nil
}

func (s *fakeStore) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (s *fakeStore) GetUserByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return nil, domain.ErrUserNotFound
}

func (s *fakeStore) CreateSession(_ context.Context, sess *domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.Token] = sess
	return nil
}

func (s *fakeStore) GetSession(_ context.Context, token uuid.UUID) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[token]; ok {
		return sess, nil
	}
	return nil, domain.ErrSessionNotFound
}

func (s *fakeStore) DeleteSession(_ context.Context, token uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}

func (s *fakeStore) CreatePasswordReset(_ context.Context, r *domain.PasswordReset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resets[r.Token] = r
	return nil
}

func (s *fakeStore) GetPasswordReset(_ context.Context, token uuid.UUID) (*domain.PasswordReset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.resets[token]; ok {
		return r, nil
	}
	return nil, domain.ErrResetTokenInvalid
}

func (s *fakeStore) DeletePasswordResets(_ context.Context, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for token, r := range s.resets {
		if r.UserID == userID {
			delete(s.resets, token)
		}
	}
	return nil
}

func (s *fakeStore) UpdateUserPassword(_ context.Context, userID uuid.UUID, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[userID]; ok {
		u.PasswordHash = passwordHash
	}
	return nil
}

func (s *fakeStore) GetBootcamp(_ context.Context, id uuid.UUID) (*domain.Bootcamp, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok := s.bootcamps[id]; ok {
		return b, nil
	}
	return nil, domain.ErrBootcampNotFound
}

func (s *fakeStore) ListActiveBootcamps(_ context.Context) ([]domain.Bootcamp, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Bootcamp
	for _, b := range s.bootcamps {
		if b.IsActive {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (s *fakeStore) GetDiscountByCode(_ context.Context, code string) (*domain.DiscountCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d, ok := s.discounts[domain.NormalizeCode(code)]; ok {
		copied := *d
		return &copied, nil
	}
	return nil, domain.ErrDiscountNotFound
}

func (s *fakeStore) FindEnrollment(_ context.Context, userID, bootcampID uuid.UUID, transactionID string) (*domain.Enrollment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findLocked(userID, bootcampID, transactionID), nil
}

func (s *fakeStore) findLocked(userID, bootcampID uuid.UUID, transactionID string) *domain.Enrollment {
	for _, e := range s.enrollments {
		if e.UserID == userID && e.BootcampID == bootcampID {
			return e
		}
		if transactionID != "" && e.TransactionID != nil && *e.TransactionID == transactionID {
			return e
		}
	}
	return nil
}

func (s *fakeStore) CreateEnrollment(_ context.Context, e *domain.Enrollment) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	txID := ""
	if e.TransactionID != nil {
		txID = *e.TransactionID
	}
	if s.findLocked(e.UserID, e.BootcampID, txID) != nil {
		return false, domain.ErrAlreadyEnrolled
	}

	applied := false
	if e.DiscountCodeID != nil {
		for _, d := range s.discounts {
			if d.ID != *e.DiscountCodeID {
				continue
			}
			if d.IsActive && (d.MaxUses == nil || d.CurrentUses < *d.MaxUses) {
				d.CurrentUses++
				applied = true
			}
			break
		}
		if !applied {
			e.DiscountCodeID = nil
		}
	}

	s.enrollments = append(s.enrollments, e)
	return applied, nil
}

func (s *fakeStore) enrollmentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.enrollments)
}

func (s *fakeStore) discountUses(code string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.discounts[code].CurrentUses
}
