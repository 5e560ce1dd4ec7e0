package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/SecretPocketCat/chela/internal/config"
	"github.com/SecretPocketCat/chela/internal/fileutil"
	"github.com/SecretPocketCat/chela/internal/images"
	"github.com/SecretPocketCat/chela/internal/logging"
	"github.com/SecretPocketCat/chela/internal/preview"
	"github.com/SecretPocketCat/chela/internal/previewcache"
)

// Stats are pool counters since start.
type Stats struct {
	Running   bool  `json:"running"`
	Workers   int   `json:"workers"`
	Queued    int   `json:"queued"`
	Batches   int64 `json:"batches"`
	Generated int64 `json:"generated"`
	Existing  int64 `json:"existing"`
	Failed    int64 `json:"failed"`
	Bailed    int64 `json:"bailed"`
}

type task struct {
	ctx context.Context
	job images.Job
}

// Pool renders previews for dispatched batches.
type Pool struct {
	cache       *previewcache.Map
	transformer preview.Transformer
	logger      *slog.Logger
	dispatch    *Dispatch
	jobs        chan task

	workers     int
	constraints preview.Constraints
	format      string
	validate    bool

	mu      sync.Mutex
	running bool
	stopped bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	batches   atomic.Int64
	generated atomic.Int64
	existing  atomic.Int64
	failed    atomic.Int64
	bailed    atomic.Int64
}

// NewPool constructs a pool sized from cfg. It does not start any goroutines.
func NewPool(cfg *config.Config, cache *previewcache.Map, transformer preview.Transformer, logger *slog.Logger) *Pool {
	workers := WorkerCount(PhysicalCores(), cfg.Preview.ReservedCores, cfg.Preview.Workers)
	return &Pool{
		cache:       cache,
		transformer: transformer,
		logger:      logging.NewComponentLogger(logger, "generator"),
		dispatch:    NewDispatch(),
		jobs:        make(chan task),
		workers:     workers,
		constraints: preview.Constraints{
			MaxWidth:    cfg.Preview.MaxWidth,
			MaxHeight:   cfg.Preview.MaxHeight,
			Quality:     cfg.Preview.Quality,
			ThreadLimit: cfg.Preview.ThreadLimit,
		},
		format:   cfg.PreviewExtension(),
		validate: cfg.Preview.ValidateOutput,
	}
}

// Workers returns the pool size.
func (p *Pool) Workers() int {
	return p.workers
}

// Start launches the dispatcher and the workers.
func (p *Pool) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return errors.New("generator already running")
	}
	if p.stopped {
		return ErrDispatchClosed
	}

	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.running = true

	p.wg.Add(p.workers + 1)
	go p.runDispatcher(runCtx)
	for range p.workers {
		go p.runWorker(runCtx)
	}
	p.logger.Info("generator started", logging.Int("workers", p.workers))
	return nil
}

// Stop closes the dispatch channel, cancels in-flight renders and waits for
// every goroutine to exit. Jobs that were never rendered are marked failed so
// their waiters are released.
func (p *Pool) Stop() {
	p.mu.Lock()
	p.dispatch.Close()
	p.stopped = true
	wasRunning := p.running
	cancel := p.cancel
	p.running = false
	p.cancel = nil
	p.mu.Unlock()

	if wasRunning {
		cancel()
		p.wg.Wait()
	}
	for _, batch := range p.dispatch.drain() {
		p.abandon(batch.Jobs)
	}
	if wasRunning {
		p.logger.Info("generator stopped")
	}
}

// Submit enqueues jobs as a new batch and returns its identifier. It blocks
// while a previous batch is still waiting for the dispatcher.
func (p *Pool) Submit(ctx context.Context, jobs []images.Job) (string, error) {
	batch := Batch{ID: uuid.NewString(), Jobs: jobs}
	if err := p.dispatch.Send(ctx, batch); err != nil {
		return "", err
	}
	return batch.ID, nil
}

// Stats returns a snapshot of the pool counters.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	running := p.running
	p.mu.Unlock()
	return Stats{
		Running:   running,
		Workers:   p.workers,
		Queued:    p.dispatch.Pending(),
		Batches:   p.batches.Load(),
		Generated: p.generated.Load(),
		Existing:  p.existing.Load(),
		Failed:    p.failed.Load(),
		Bailed:    p.bailed.Load(),
	}
}

func (p *Pool) runDispatcher(ctx context.Context) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.dispatch.closed():
			return
		case batch := <-p.dispatch.receive():
			p.abandon(p.schedule(ctx, batch))
		}
	}
}

// schedule hands the batch to the workers and returns the jobs it could not
// hand over before ctx ended.
func (p *Pool) schedule(ctx context.Context, batch Batch) []images.Job {
	p.batches.Add(1)
	batchCtx := logging.WithBatchID(ctx, batch.ID)
	logging.WithContext(batchCtx, p.logger).Info("batch received", logging.Int("jobs", len(batch.Jobs)))
	ordered := Order(batch.Jobs)
	for i, job := range ordered {
		select {
		case p.jobs <- task{ctx: batchCtx, job: job}:
		case <-ctx.Done():
			return ordered[i:]
		}
	}
	return nil
}

// abandon fails still-tracked jobs that will never reach a worker.
func (p *Pool) abandon(jobs []images.Job) {
	failed := 0
	for _, job := range jobs {
		if p.cache.MarkFailed(job.PreviewPath, ErrPoolStopped) {
			failed++
		}
	}
	if failed > 0 {
		p.failed.Add(int64(failed))
		p.logger.Info("pending previews abandoned", logging.Int("count", failed))
	}
}

func (p *Pool) runWorker(ctx context.Context) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case t := <-p.jobs:
			p.process(t.ctx, t.job)
		}
	}
}

func (p *Pool) process(ctx context.Context, job images.Job) {
	logger := logging.WithContext(ctx, p.logger).With(logging.String(logging.FieldPreviewPath, job.PreviewPath))

	if !p.cache.Tracked(job.PreviewPath) {
		p.bailed.Add(1)
		logger.Debug("preview no longer tracked; skipping")
		return
	}

	existed, err := p.generate(ctx, job)
	if err != nil {
		p.failed.Add(1)
		attrs := []logging.Attr{
			logging.String(logging.FieldSourcePath, job.SourcePath),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check that the converter can decode the source file"),
			logging.String(logging.FieldImpact, "preview requests for this image return an error"),
		}
		var genErr *GenerationError
		if errors.As(err, &genErr) && genErr.Output != "" {
			attrs = append(attrs, logging.String("output", genErr.Output))
		}
		logging.WarnWithContext(logger, "preview generation failed", "preview_generation_failed", attrs...)
		p.cache.MarkFailed(job.PreviewPath, err)
		return
	}

	if existed {
		p.existing.Add(1)
		logger.Debug("preview already present")
	} else {
		p.generated.Add(1)
		logger.Debug("preview generated")
	}
	p.cache.MarkReady(job.PreviewPath)
}

func (p *Pool) generate(ctx context.Context, job images.Job) (existed bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			existed = false
			err = &GenerationError{Path: job.PreviewPath, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	exists, err := fileutil.Exists(job.PreviewPath)
	if err != nil {
		return false, &GenerationError{Path: job.PreviewPath, Err: err}
	}
	if exists {
		return true, nil
	}

	if err := os.MkdirAll(filepath.Dir(job.PreviewPath), 0o755); err != nil {
		return false, &GenerationError{Path: job.PreviewPath, Err: fmt.Errorf("create preview directory: %w", err)}
	}

	if err := p.transformer.Transform(ctx, job.SourcePath, job.PreviewPath, p.constraints); err != nil {
		_ = fileutil.RemoveIfExists(job.PreviewPath)
		genErr := &GenerationError{Path: job.PreviewPath, Err: err}
		var cmdErr *preview.CommandError
		if errors.As(err, &cmdErr) {
			genErr.Output = cmdErr.Output
		}
		return false, genErr
	}

	if p.validate {
		if _, err := preview.Validate(job.PreviewPath, p.format, p.constraints.MaxWidth, p.constraints.MaxHeight); err != nil {
			_ = fileutil.RemoveIfExists(job.PreviewPath)
			return false, &GenerationError{Path: job.PreviewPath, Err: err}
		}
	}
	return false, nil
}
