package search

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"github.com/babarot/sift/internal/pathset"
	"github.com/rs/xid"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultBatchSize = 64
	DefaultBuffer    = 4
)

// DefaultSystemFolders are skipped when a request excludes system folders.
// Bare names match the first path component below a search root, absolute
// paths match themselves and everything beneath them.
var DefaultSystemFolders = []string{
	"System", "private", "usr", "bin", "sbin", "cores", "dev", "etc",
	"/proc", "/sys",
}

// Engine runs search jobs. It is safe to start several jobs concurrently.
type Engine struct {
	batchSize int
	workers   int
	buffer    int
	system    []string
	skipDirs  map[string]struct{}
	provider  MetadataProvider
	icons     IconProvider
	logger    *slog.Logger
}

type Option func(*Engine)

func WithBatchSize(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.batchSize = n
		}
	}
}

func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

func WithBuffer(n int) Option {
	return func(e *Engine) {
		if n >= 0 {
			e.buffer = n
		}
	}
}

func WithSystemFolders(folders ...string) Option {
	return func(e *Engine) {
		e.system = folders
	}
}

// WithSkipDirs names directories that are never descended into, such as ".git".
func WithSkipDirs(names ...string) Option {
	return func(e *Engine) {
		for _, n := range names {
			e.skipDirs[n] = struct{}{}
		}
	}
}

func WithMetadataProvider(p MetadataProvider) Option {
	return func(e *Engine) {
		e.provider = p
	}
}

func WithIconProvider(p IconProvider) Option {
	return func(e *Engine) {
		e.icons = p
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

func New(opts ...Option) *Engine {
	e := &Engine{
		batchSize: DefaultBatchSize,
		workers:   runtime.NumCPU(),
		buffer:    DefaultBuffer,
		system:    DefaultSystemFolders,
		skipDirs:  make(map[string]struct{}),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start launches a search and returns immediately. Results arrive on
// Job.Batches, which is closed once every root has been walked or the
// job was cancelled.
func (e *Engine) Start(ctx context.Context, req Request) (*Job, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	jctx, cancel := context.WithCancel(ctx)
	job := &Job{
		ID:      xid.New().String(),
		batches: make(chan []Result, e.buffer),
		done:    make(chan struct{}),
		cancel:  cancel,
	}
	job.settled = job.done
	// Cancellation of the caller's context counts as a cancel of the job.
	stop := context.AfterFunc(ctx, job.markCancelled)

	roots := pathset.Reduce(req.Roots)
	logger := e.logger.With("job", job.ID)
	logger.Debug("search started", "roots", roots, "filters", req.Filters.Strings())

	go func() {
		start := time.Now()
		g, gctx := errgroup.WithContext(jctx)
		g.SetLimit(e.workers)
		for _, root := range roots {
			w := &walker{
				engine: e,
				req:    &req,
				root:   root,
				out:    job.batches,
				stats:  &job.counters,
				needs:  req.Filters.needs(),
				opts:   MatchOptions{CaseSensitive: req.CaseSensitive},
				logger: logger,
			}
			g.Go(func() error {
				w.run(gctx)
				return nil
			})
		}
		_ = g.Wait()

		stop()
		job.finish(time.Since(start), jctx.Err() != nil)
		cancel()
		close(job.batches)
		close(job.done)
		logger.Debug("search finished", "stats", job.Stats())
	}()

	return job, nil
}

// Search is the callback form of Start. onBatch is called sequentially
// from a single goroutine, in the order batches were produced, and never
// after Cancel has returned. onComplete is called exactly once, after the
// last onBatch call, whether the job finished or was cancelled.
func (e *Engine) Search(ctx context.Context, req Request, onBatch func([]Result), onComplete func(Stats)) (*Job, error) {
	job, err := e.Start(ctx, req)
	if err != nil {
		return nil, err
	}
	settled := make(chan struct{})
	job.settled = settled
	go func() {
		defer close(settled)
		for batch := range job.Batches() {
			job.deliver(batch, onBatch)
		}
		<-job.Done()
		if onComplete != nil {
			onComplete(job.Stats())
		}
	}()
	return job, nil
}
