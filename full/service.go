package full

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/adrianmcphee/crossbase"
	"github.com/adrianmcphee/crossbase/internal/store"
)

// Service owns the storage behind the full backend. Storage is opened on the
// first operation, never when the package is linked.
type Service struct {
	mu         sync.Mutex
	cfg        crossbase.Config
	configured bool
	store      *store.Store
	index      *store.SessionIndex
	sealer     *store.Sealer
	owned      bool

	logger  crossbase.Logger
	metrics crossbase.Metrics
	now     func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithConfig sets the configuration used to open storage. Without it the
// environment is read at first use.
func WithConfig(cfg crossbase.Config) Option {
	return func(s *Service) {
		s.cfg = cfg
		s.configured = true
	}
}

// WithLogger sets the service logger.
func WithLogger(l crossbase.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithMetrics sets the metrics collector passed to the store and index.
func WithMetrics(m crossbase.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// NewService creates a service that has not opened any storage yet.
func NewService(opts ...Option) *Service {
	s := &Service{
		logger:  crossbase.Log(),
		metrics: &crossbase.NoOpMetrics{},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Configure replaces the configuration. Storage opened under the previous
// configuration is closed and reopened on next use.
func (s *Service) Configure(cfg crossbase.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.release()
	s.cfg = cfg
	s.configured = true
	return err
}

// UseStore makes the service use st and idx instead of opening storage from
// configuration. A nil idx disables the session index. The caller keeps
// ownership of both.
func (s *Service) UseStore(st *store.Store, idx *store.SessionIndex) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.release()
	if idx == nil {
		idx = store.NewSessionIndex(nil, messagePrefix)
	}
	s.store = st
	s.index = idx.WithMetrics(s.metrics)
	s.owned = false
}

// Close releases storage the service opened itself.
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.release()
}

// release drops the open handles. Callers hold s.mu.
func (s *Service) release() error {
	var errs []error
	if s.owned {
		if s.store != nil {
			errs = append(errs, s.store.Close())
		}
		if s.index != nil {
			errs = append(errs, s.index.Close())
		}
	}
	s.store, s.index, s.sealer, s.owned = nil, nil, nil, false
	return errors.Join(errs...)
}

// config returns the active configuration, loading it from the environment
// on first use. Callers hold s.mu.
func (s *Service) config() (crossbase.Config, error) {
	if !s.configured {
		cfg, err := crossbase.LoadConfig()
		if err != nil {
			return crossbase.Config{}, err
		}
		s.cfg = cfg
		s.configured = true
	}
	return s.cfg, nil
}

// handles opens storage on first use.
func (s *Service) handles(ctx context.Context) (*store.Store, *store.SessionIndex, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.store != nil {
		return s.store, s.index, nil
	}

	cfg, err := s.config()
	if err != nil {
		return nil, nil, err
	}
	backend, err := store.OpenBackend(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("open full backend storage: %w", err)
	}
	s.store = store.NewWithObservability(backend, s.logger, s.metrics)
	s.index = store.OpenSessionIndex(cfg, messagePrefix).WithMetrics(s.metrics)
	s.owned = true
	s.logger.Info("full backend storage opened",
		"backend", fmt.Sprintf("%T", backend),
		"session_index", s.index.Enabled())
	return s.store, s.index, nil
}

// sealerFor returns the settings sealer built from the configured key.
func (s *Service) sealerFor() (*store.Sealer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sealer != nil {
		return s.sealer, nil
	}
	cfg, err := s.config()
	if err != nil {
		return nil, err
	}
	if len(cfg.SecretKey) == 0 {
		return nil, crossbase.WithContext(
			fmt.Errorf("%w: no secret key for auth settings encryption", crossbase.ErrInvalidConfig),
			map[string]interface{}{"env": "CROSSBASE_SECRET_KEY"},
		)
	}
	sealer, err := store.NewSealer(cfg.SecretKey)
	if err != nil {
		return nil, err
	}
	s.sealer = sealer
	return sealer, nil
}

// fanout is the number of concurrent storage calls per batch.
func (s *Service) fanout() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cfg.WriteFanout > 0 {
		return s.cfg.WriteFanout
	}
	return crossbase.DefaultWriteFanout
}

var defaultService = NewService()

// Default returns the service behind the registered capability groups.
func Default() *Service { return defaultService }

// Configure configures the default service.
func Configure(cfg crossbase.Config) error { return defaultService.Configure(cfg) }

// Close closes the default service's storage.
func Close() error { return defaultService.Close() }
