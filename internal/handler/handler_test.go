package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/devdesignhq/enroll/internal/config"
	"github.com/devdesignhq/enroll/internal/domain"
	"github.com/devdesignhq/enroll/internal/middleware"
	"github.com/devdesignhq/enroll/internal/notify"
	"github.com/devdesignhq/enroll/internal/service"
)

// memStore is an in-memory Store for handler tests. It enforces the same
// uniqueness rules the database does so the full request paths behave like
// production.
type memStore struct {
	mu          sync.Mutex
	users       map[uuid.UUID]*domain.User
	sessions    map[uuid.UUID]*domain.Session
	resets      map[uuid.UUID]*domain.PasswordReset
	bootcamps   map[uuid.UUID]*domain.Bootcamp
	discounts   map[string]*domain.DiscountCode
	enrollments []*domain.Enrollment
}

func newMemStore() *memStore {
	return &memStore{
		users:     make(map[uuid.UUID]*domain.User),
		sessions:  make(map[uuid.UUID]*domain.Session),
		resets:    make(map[uuid.UUID]*domain.PasswordReset),
		bootcamps: make(map[uuid.UUID]*domain.Bootcamp),
		discounts: make(map[string]*domain.DiscountCode),
	}
}

func (s *memStore) CreateUser(_ context.Context, u *domain.User) error {
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

func (s *memStore) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (s *memStore) GetUserByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return nil, domain.ErrUserNotFound
}

func (s *memStore) CreateSession(_ context.Context, sess *domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.Token] = sess
	return nil
}

func (s *memStore) GetSession(_ context.Context, token uuid.UUID) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[token]; ok {
		return sess, nil
	}
	return nil, domain.ErrSessionNotFound
}

func (s *memStore) DeleteSession(_ context.Context, token uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}

func (s *memStore) CreatePasswordReset(_ context.Context, r *domain.PasswordReset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resets[r.Token] = r
	return nil
}

func (s *memStore) GetPasswordReset(_ context.Context, token uuid.UUID) (*domain.PasswordReset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.resets[token]; ok {
		return r, nil
	}
	return nil, domain.ErrResetTokenInvalid
}

func (s *memStore) DeletePasswordResets(_ context.Context, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for token, r := range s.resets {
		if r.UserID == userID {
			delete(s.resets, token)
		}
	}
	return nil
}

func (s *memStore) UpdateUserPassword(_ context.Context, userID uuid.UUID, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[userID]; ok {
		u.PasswordHash = passwordHash
	}
	return nil
}

func (s *memStore) GetBootcamp(_ context.Context, id uuid.UUID) (*domain.Bootcamp, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok := s.bootcamps[id]; ok {
		return b, nil
	}
	return nil, domain.ErrBootcampNotFound
}

func (s *memStore) ListActiveBootcamps(_ context.Context) ([]domain.Bootcamp, error) {
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

func (s *memStore) GetDiscountByCode(_ context.Context, code string) (*domain.DiscountCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d, ok := s.discounts[domain.NormalizeCode(code)]; ok {
		copied := *d
		return &copied, nil
	}
	return nil, domain.ErrDiscountNotFound
}

func (s *memStore) FindEnrollment(_ context.Context, userID, bootcampID uuid.UUID, transactionID string) (*domain.Enrollment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findLocked(userID, bootcampID, transactionID), nil
}

func (s *memStore) findLocked(userID, bootcampID uuid.UUID, transactionID string) *domain.Enrollment {
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

func (s *memStore) CreateEnrollment(_ context.Context, e *domain.Enrollment) (bool, error) {
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

// fakeRail scripts both provider surfaces for a test.
type fakeRail struct {
	mu           sync.Mutex
	lookupEvent  *domain.PaymentEvent
	lookupErr    error
	secret       string
	parsed       *domain.PaymentEvent
	parseErr     error
	clientSecret string
	intentMeta   map[string]string
	intentAmount decimal.Decimal
}

func (f *fakeRail) Lookup(_ context.Context, transactionID string) (*domain.PaymentEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	event := *f.lookupEvent
	event.TransactionID = transactionID
	return &event, nil
}

func (f *fakeRail) VerifySignature(signatureHeader string, _ []byte) error {
	if f.secret == "" || signatureHeader != f.secret {
		return domain.ErrBadSignature
	}
	return nil
}

func (f *fakeRail) ParseWebhook(_ []byte) (*domain.PaymentEvent, error) {
	if f.parseErr != nil {
		return nil, f.parseErr
	}
	event := *f.parsed
	return &event, nil
}

func (f *fakeRail) CreateIntent(_ context.Context, amountUSD decimal.Decimal, metadata map[string]string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.intentAmount = amountUSD
	f.intentMeta = metadata
	return f.clientSecret, nil
}

type testApp struct {
	router      *gin.Engine
	store       *memStore
	flutterwave *fakeRail
	stripe      *fakeRail
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := newMemStore()
	auth := service.NewAuthService(store)
	pricing := service.NewPricingService(store)
	engine := service.NewReconciliationService(store, pricing, nil)
	poller := service.NewPoller(engine, 2, time.Millisecond)
	flutterwave := &fakeRail{secret: "flw-secret"}
	stripe := &fakeRail{secret: "stripe-secret", clientSecret: "pi_secret_x"}

	h := New(Deps{
		Cfg:         &config.Config{},
		Store:       store,
		Auth:        auth,
		Pricing:     pricing,
		Engine:      engine,
		Poller:      poller,
		Flutterwave: flutterwave,
		Stripe:      stripe,
		Mailer:      notify.NewMailer(nil, ""),
		Limiter:     middleware.NewLimiter(),
	})

	router := gin.New()
	h.Register(router)
	return &testApp{router: router, store: store, flutterwave: flutterwave, stripe: stripe}
}

func (a *testApp) request(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

// registerAndLogin creates a user through the API and returns a bearer token.
func (a *testApp) registerAndLogin(t *testing.T, email string) string {
	t.Helper()
	w := a.request(t, http.MethodPost, "/api/register", gin.H{
		"email":    email,
		"name":     "Test User",
		"password": "long enough password",
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = a.request(t, http.MethodPost, "/api/login", gin.H{
		"email":    email,
		"password": "long enough password",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Token
}

func (a *testApp) addBootcamp(priceNGN, priceUSD int64) *domain.Bootcamp {
	b := &domain.Bootcamp{
		ID:       uuid.New(),
		Slug:     "fullstack",
		Title:    "Fullstack Engineering",
		PriceNGN: decimal.NewFromInt(priceNGN),
		PriceUSD: decimal.NewFromInt(priceUSD),
		IsActive: true,
	}
	a.store.bootcamps[b.ID] = b
	return b
}

func (a *testApp) addDiscount(d *domain.DiscountCode) *domain.DiscountCode {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	a.store.discounts[d.Code] = d
	return d
}
