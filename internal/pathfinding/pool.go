package pathfinding

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/tycoon/pkg/math"
)

// Pool defaults.
const (
	DefaultWorkers   = 2
	DefaultQueueSize = 64
)

// Result is the outcome of a background search.
type Result struct {
	Path Path
	Err  error
}

// Task is the handle for a submitted search. A task has no cancel; callers
// that lose interest simply stop polling it.
type Task struct {
	done   chan struct{}
	result Result
}

func newTask() *Task {
	return &Task{done: make(chan struct{})}
}

func (t *Task) finish(p Path, err error) {
	t.result = Result{Path: p, Err: err}
	close(t.done)
}

// Poll returns the result without blocking. ok is false while the search is
// still running.
func (t *Task) Poll() (Result, bool) {
	select {
	case <-t.done:
		return t.result, true
	default:
		return Result{}, false
	}
}

// Wait blocks until the search finishes or ctx is done.
func (t *Task) Wait(ctx context.Context) (Path, error) {
	select {
	case <-t.done:
		return t.result.Path, t.result.Err
	case <-ctx.Done():
		return Path{}, ctx.Err()
	}
}

// Done is closed when the result is available.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

type job struct {
	finder     *Finder
	start, end math.Vec3
	task       *Task
}

// Pool runs searches on background workers. Each Finder handed to Submit
// must read an occupancy snapshot that nothing else mutates.
type Pool struct {
	jobs   chan job
	group  *errgroup.Group
	cancel context.CancelFunc
	log    *zap.Logger

	mu     sync.Mutex
	closed bool
}

// NewPool starts workers that run until ctx is cancelled or Close is called.
func NewPool(ctx context.Context, workers, queueSize int, log *zap.Logger) *Pool {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	if log == nil {
		log = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(ctx)
	group, ctx := errgroup.WithContext(ctx)
	p := &Pool{
		jobs:   make(chan job, queueSize),
		group:  group,
		cancel: cancel,
		log:    log.Named("pathpool"),
	}

	for i := 0; i < workers; i++ {
		group.Go(func() error {
			return p.work(ctx)
		})
	}
	p.log.Info("pathfinding pool started", zap.Int("workers", workers), zap.Int("queue", queueSize))
	return p
}

func (p *Pool) work(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case j, ok := <-p.jobs:
			if !ok {
				return nil
			}
			path, err := j.finder.FindPath(j.start, j.end)
			j.task.finish(path, err)
		}
	}
}

// Submit queues a search without blocking.
func (p *Pool) Submit(f *Finder, start, end math.Vec3) (*Task, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, ErrPoolClosed
	}

	t := newTask()
	select {
	case p.jobs <- job{finder: f, start: start, end: end, task: t}:
		return t, nil
	default:
		return nil, ErrQueueFull
	}
}

// Close stops accepting work, lets queued searches finish and waits for the
// workers to exit.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.jobs)
	p.mu.Unlock()

	err := p.group.Wait()
	p.cancel()

	// Workers stop early when the parent context is cancelled; fail whatever
	// is still queued so pollers are not left waiting.
	for j := range p.jobs {
		j.task.finish(Path{}, context.Canceled)
	}
	p.log.Info("pathfinding pool stopped")
	return err
}
