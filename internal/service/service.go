package service

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"posales/backend/internal/cache"
	"posales/backend/internal/catalog"
	"posales/backend/internal/events"
	"posales/backend/internal/metrics"
	"posales/backend/internal/provider"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrValidation      = errors.New("validation failed")
)

// ValidationError is a user-facing refusal. Message is shown as is.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrValidation}
	}
	return []error{ErrValidation, e.Err}
}

func invalid(field string, message string) error {
	return &ValidationError{Field: field, Message: message}
}

type Options struct {
	SessionTTL      time.Duration
	CatalogCacheTTL time.Duration
	ProviderTimeout time.Duration
	POPrefix        string
	PaymentMethods  []string
	SearchLimit     int
}

func (o Options) withDefaults() Options {
	if o.SessionTTL <= 0 {
		o.SessionTTL = 8 * time.Hour
	}
	if o.CatalogCacheTTL <= 0 {
		o.CatalogCacheTTL = time.Minute
	}
	if o.ProviderTimeout <= 0 {
		o.ProviderTimeout = 15 * time.Second
	}
	if strings.TrimSpace(o.POPrefix) == "" {
		o.POPrefix = "PO"
	}
	if len(o.PaymentMethods) == 0 {
		o.PaymentMethods = []string{"KREDIT", "CASH", "COD", "DP"}
	}
	if o.SearchLimit < 1 {
		o.SearchLimit = catalog.DefaultSearchLimit
	}
	return o
}

type Service struct {
	provider provider.DataProvider
	cache    cache.CatalogCache
	events   events.Publisher
	metrics  *metrics.Registry
	opts     Options
	now      func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

func New(p provider.DataProvider, c cache.CatalogCache, pub events.Publisher, m *metrics.Registry, opts Options) *Service {
	if c == nil {
		c = cache.NoopCatalogCache{}
	}
	if pub == nil {
		pub = events.NoopPublisher{}
	}
	if m == nil {
		m = metrics.NewRegistry()
	}
	return &Service{
		provider: p,
		cache:    c,
		events:   pub,
		metrics:  m,
		opts:     opts.withDefaults(),
		now:      func() time.Time { return time.Now() },
		sessions: make(map[string]*Session),
	}
}

// SetClock replaces the time source. Tests only.
func (s *Service) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Service) PaymentMethods() []string {
	return append([]string(nil), s.opts.PaymentMethods...)
}

func (s *Service) SessionTTL() time.Duration {
	return s.opts.SessionTTL
}

func (s *Service) clock() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now()
}

func (s *Service) providerContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.opts.ProviderTimeout)
}

// session returns a live session and extends its expiry. Expired sessions
// are dropped on the way.
func (s *Service) session(id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.pruneLocked(now)
	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	sess.touch(now, s.opts.SessionTTL)
	return sess, nil
}

func (s *Service) pruneLocked(now time.Time) {
	for id, sess := range s.sessions {
		if sess.expired(now) {
			delete(s.sessions, id)
			log.Printf("[service] session expired session=%s", id)
		}
	}
}

// CloseSession drops the session. Closing an unknown session is not an error.
func (s *Service) CloseSession(_ context.Context, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

func (s *Service) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked(s.now())
	return len(s.sessions)
}
