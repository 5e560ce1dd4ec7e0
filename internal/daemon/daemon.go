package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"github.com/SecretPocketCat/chela/internal/config"
	"github.com/SecretPocketCat/chela/internal/deps"
	"github.com/SecretPocketCat/chela/internal/generator"
	"github.com/SecretPocketCat/chela/internal/logging"
	"github.com/SecretPocketCat/chela/internal/preflight"
	"github.com/SecretPocketCat/chela/internal/preview"
	"github.com/SecretPocketCat/chela/internal/previewcache"
)

// Daemon owns the status map, the generation pool and the preview server, and
// enforces single-instance execution.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger
	cache  *previewcache.Map
	pool   *generator.Pool
	api    *apiServer

	lockPath string
	lock     *flock.Flock

	openMu sync.Mutex
	active atomic.Pointer[activeDir]

	running atomic.Bool
	started time.Time
	ctx     context.Context
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool               `json:"running"`
	PID          int                `json:"pid"`
	Address      string             `json:"address,omitempty"`
	LockFilePath string             `json:"lockFilePath"`
	LogPath      string             `json:"logPath"`
	ActiveDir    string             `json:"activeDir,omitempty"`
	Uptime       string             `json:"uptime,omitempty"`
	Cache        previewcache.Stats `json:"cache"`
	Pool         generator.Stats    `json:"pool"`
	Dependencies []deps.Status      `json:"dependencies"`
}

// Option configures optional Daemon behavior.
type Option func(*options)

type options struct {
	transformer preview.Transformer
}

// WithTransformer replaces the ImageMagick transformer.
func WithTransformer(t preview.Transformer) Option {
	return func(o *options) {
		o.transformer = t
	}
}

// New constructs a daemon with initialized dependencies. Nothing runs until
// Start.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("daemon requires config")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.transformer == nil {
		o.transformer = preview.NewMagick(preview.WithBinary(cfg.Preview.Binary))
	}

	cache := previewcache.New(cfg.NotifyRetryInterval())
	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		cache:    cache,
		pool:     generator.NewPool(cfg, cache, o.transformer, logger),
		lockPath: cfg.LockPath(),
		lock:     flock.New(cfg.LockPath()),
	}
	d.api = newAPIServer(cfg, d, logger)
	return d, nil
}

// Start acquires the daemon lock, launches the pool and begins serving.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}
	if err := d.cfg.EnsureDirectories(); err != nil {
		return err
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another chela daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if err := d.pool.Start(d.ctx); err != nil {
		d.abortStart()
		return fmt.Errorf("start generator: %w", err)
	}
	if err := d.api.start(d.ctx); err != nil {
		d.pool.Stop()
		d.abortStart()
		return err
	}

	d.started = time.Now()
	d.running.Store(true)
	d.runPreflight(d.ctx)
	d.logger.Info("chela daemon started",
		logging.String("lock", d.lockPath),
		logging.String("address", d.api.address()),
		logging.Int("workers", d.pool.Workers()),
	)
	return nil
}

func (d *Daemon) abortStart() {
	_ = d.lock.Unlock()
	d.cancel()
	d.ctx = nil
	d.cancel = nil
}

func (d *Daemon) runPreflight(ctx context.Context) {
	for _, result := range preflight.RunAll(ctx, d.cfg) {
		if result.Passed {
			continue
		}
		logging.WarnWithContext(d.logger, "preflight check failed", "preflight_failed",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail),
			logging.String(logging.FieldErrorHint, "fix the path or permissions and restart"),
		)
	}
	for _, status := range deps.Missing(preflight.CheckSystemDeps(ctx, d.cfg)) {
		logging.WarnWithContext(d.logger, "dependency unavailable", "dependency_missing",
			logging.String("dependency", status.Name),
			logging.String("detail", status.Detail),
			logging.String(logging.FieldErrorHint, "install ImageMagick 7 or set preview.binary"),
			logging.String(logging.FieldImpact, "previews cannot be generated"),
		)
	}
}

// Stop stops serving and rendering and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	// The pool goes first: it fails the previews it drops, which releases
	// preview requests before the server drains them.
	d.pool.Stop()
	d.api.stop()
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("chela daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	return nil
}

// Addr returns the address the preview server listens on, or "" when the
// server is not listening.
func (d *Daemon) Addr() string {
	return d.api.address()
}

// Cache exposes the status map.
func (d *Daemon) Cache() *previewcache.Map {
	return d.cache
}

// Uptime returns the time since Start.
func (d *Daemon) Uptime() time.Duration {
	if !d.running.Load() {
		return 0
	}
	return time.Since(d.started)
}

// Status returns the latest runtime information.
func (d *Daemon) Status(ctx context.Context) Status {
	status := Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		Address:      d.Addr(),
		LockFilePath: d.lockPath,
		LogPath:      d.cfg.LogPath(),
		Cache:        d.cache.Snapshot(),
		Pool:         d.pool.Stats(),
		Dependencies: preflight.CheckSystemDeps(ctx, d.cfg),
	}
	if dir := d.active.Load(); dir != nil {
		status.ActiveDir = dir.path
	}
	if status.Running {
		status.Uptime = FormatUptime(d.Uptime())
	}
	return status
}
