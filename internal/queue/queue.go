// Package queue implements the sequential ingestion pipeline: enqueued
// report files are drained one at a time against a rate-limited extraction
// provider, with pacing, retry/backoff, and merge deduplication.
package queue

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"assetscan/internal/extract"
	"assetscan/internal/models"
	"assetscan/internal/session"
	"github.com/google/uuid"
)

// AllowedExtensions are the report file types accepted into the queue.
var AllowedExtensions = []string{".html", ".htm", ".mhtml"}

// Enqueue validation failures.
var (
	ErrBadExtension      = errors.New("unsupported file type")
	ErrQueueFull         = errors.New("queue limit reached")
	ErrDuplicateFilename = errors.New("duplicate filename")
)

// Persister is the durable storage boundary. Calls are best-effort: a
// failure is logged and never fails the task that triggered it.
type Persister interface {
	InsertHistory(ctx context.Context, filename string, records []models.AssetRecord) error
	UpsertAssets(ctx context.Context, records []models.AssetRecord) error
}

// Options tunes pacing and retry behavior.
type Options struct {
	MaxFiles    int
	Pacing      time.Duration
	BackoffBase time.Duration
	MaxRetries  int
}

// DefaultOptions matches the provider rate limits the tool is built for:
// 2 s spacing between calls, exponential backoff of 5 s/10 s/20 s across
// up to three retries.
func DefaultOptions() Options {
	return Options{
		MaxFiles:    50,
		Pacing:      2 * time.Second,
		BackoffBase: 2500 * time.Millisecond,
		MaxRetries:  3,
	}
}

// File is a candidate for enqueueing.
type File struct {
	Name    string
	Content []byte
}

// Processor owns the task queue and the single consumer goroutine that
// drains it. At most one task is ever processing; the single-flight
// guarantee comes from there being exactly one consumer, not from a flag.
type Processor struct {
	sess      *session.Session
	providers map[string]extract.Provider
	persister Persister
	opts      Options

	mu    sync.Mutex
	tasks []*models.QueueTask

	kick   chan struct{}
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// sleep is context-aware and replaced in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a processor. persister may be nil to disable durable saves.
func New(sess *session.Session, providers map[string]extract.Provider, persister Persister, opts Options) *Processor {
	ctx, cancel := context.WithCancel(context.Background())
	return &Processor{
		sess:      sess,
		providers: providers,
		persister: persister,
		opts:      opts,
		kick:      make(chan struct{}, 1),
		ctx:       ctx,
		cancel:    cancel,
		sleep:     sleepCtx,
	}
}

// Start launches the consumer goroutine.
func (p *Processor) Start() {
	p.wg.Add(1)
	go p.run()
}

// Stop cancels the consumer and waits for in-flight work to settle.
func (p *Processor) Stop() {
	p.cancel()
	p.wg.Wait()
}

// Kick nudges the consumer. Safe to call from any goroutine; redundant
// kicks coalesce.
func (p *Processor) Kick() {
	select {
	case p.kick <- struct{}{}:
	default:
	}
}

// Tasks returns a snapshot of the queue in FIFO order.
func (p *Processor) Tasks() []models.QueueTask {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]models.QueueTask, len(p.tasks))
	for i, t := range p.tasks {
		out[i] = *t
	}
	return out
}

// Busy reports whether any task is pending or processing.
func (p *Processor) Busy() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, t := range p.tasks {
		if t.Status == models.TaskStatusPending || t.Status == models.TaskStatusProcessing {
			return true
		}
	}
	return false
}

// Add validates and enqueues the candidate files. A candidate is rejected
// when its extension is not allowed, the queue is at capacity, or its name
// matches any task already in the queue regardless of status. One
// aggregated notification is emitted: the rejection message when anything
// was rejected, otherwise a success message for the accepted count.
func (p *Processor) Add(files []File) (accepted int) {
	p.mu.Lock()

	names := make(map[string]bool, len(p.tasks))
	for _, t := range p.tasks {
		names[t.Filename] = true
	}

	var dupes, badExt, overflow int
	for _, f := range files {
		switch err := p.validate(f.Name, names); {
		case errors.Is(err, ErrBadExtension):
			badExt++
		case errors.Is(err, ErrQueueFull):
			overflow++
		case errors.Is(err, ErrDuplicateFilename):
			dupes++
		default:
			names[f.Name] = true
			p.tasks = append(p.tasks, &models.QueueTask{
				ID:        uuid.New().String(),
				Filename:  f.Name,
				Content:   f.Content,
				Status:    models.TaskStatusPending,
				CreatedAt: time.Now().UTC(),
			})
			accepted++
		}
	}
	p.mu.Unlock()

	rejected := dupes + badExt + overflow
	if rejected > 0 {
		p.sess.Notifier.Publish(models.NotifyError, rejectionMessage(dupes, badExt, overflow))
	} else if accepted > 0 {
		p.sess.Notifier.Publish(models.NotifySuccess, fmt.Sprintf("Added %d file(s) to queue.", accepted))
	}

	if accepted > 0 {
		p.Kick()
	}
	return accepted
}

// Clear removes every task that is not currently processing. In-flight
// work is never interrupted.
func (p *Processor) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	kept := p.tasks[:0]
	for _, t := range p.tasks {
		if t.Status == models.TaskStatusProcessing {
			kept = append(kept, t)
		}
	}
	p.tasks = kept
}

func (p *Processor) run() {
	defer p.wg.Done()
	for {
		select {
		case <-p.ctx.Done():
			return
		case <-p.kick:
		}

		for {
			task := p.claimNext()
			if task == nil {
				break
			}
			p.process(task)
			if p.ctx.Err() != nil {
				return
			}
		}
	}
}

// claimNext marks the oldest pending task as processing and returns it.
func (p *Processor) claimNext() *models.QueueTask {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, t := range p.tasks {
		if t.Status == models.TaskStatusPending {
			t.Status = models.TaskStatusProcessing
			return t
		}
	}
	return nil
}

// process runs the claimed task to a terminal status: pacing delay, the
// extraction call, retry with exponential backoff on rate-limit-shaped
// failures, then merge and best-effort persistence.
func (p *Processor) process(task *models.QueueTask) {
	retries := 0
	for {
		var wait time.Duration
		if retries > 0 {
			wait = time.Duration(1<<uint(retries)) * p.opts.BackoffBase
			log.Printf("rate limit hit for %s, retrying in %s (retry %d/%d)", task.Filename, wait, retries, p.opts.MaxRetries)
		} else {
			wait = p.opts.Pacing
		}
		if err := p.sleep(p.ctx, wait); err != nil {
			return
		}

		provider, ok := p.providers[p.sess.Provider()]
		if !ok {
			p.finish(task, fmt.Errorf("unknown extraction provider %q", p.sess.Provider()))
			return
		}

		records, err := provider.Extract(p.ctx, string(task.Content), task.Filename)
		if err == nil {
			added := p.sess.Records.Merge(records)
			p.persistAsync(task.Filename, records)
			p.finish(task, nil)
			p.sess.Notifier.Publish(models.NotifySuccess,
				fmt.Sprintf("Extracted %d record(s) from %s (%d new).", len(records), task.Filename, added))
			return
		}

		if extract.IsRateLimited(err) && retries < p.opts.MaxRetries {
			retries++
			p.setRetries(task, retries)
			continue
		}

		p.finish(task, err)
		p.sess.Notifier.Publish(models.NotifyError,
			fmt.Sprintf("Failed to process %s: %v", task.Filename, err))
		return
	}
}

func (p *Processor) setRetries(task *models.QueueTask, retries int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	task.Retries = retries
}

// finish moves the task to its terminal status.
func (p *Processor) finish(task *models.QueueTask, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		task.Status = models.TaskStatusError
		task.ErrorMessage = err.Error()
		return
	}
	task.Status = models.TaskStatusCompleted
}

// persistAsync writes the extraction to durable storage in the background.
// A failure never fails the task and never blocks the drain loop.
func (p *Processor) persistAsync(filename string, records []models.AssetRecord) {
	if p.persister == nil || len(records) == 0 {
		return
	}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := p.persister.InsertHistory(ctx, filename, records); err != nil {
			log.Printf("history save failed for %s: %v", filename, err)
		}
		if err := p.persister.UpsertAssets(ctx, records); err != nil {
			log.Printf("asset save failed for %s: %v", filename, err)
		}
	}()
}

// validate decides one candidate's fate against the current queue state.
// Caller holds the mutex; names tracks filenames claimed so far in this
// batch on top of the queued ones.
func (p *Processor) validate(name string, names map[string]bool) error {
	switch {
	case !allowedExtension(name):
		return ErrBadExtension
	case len(p.tasks) >= p.opts.MaxFiles:
		return ErrQueueFull
	case names[name]:
		return ErrDuplicateFilename
	}
	return nil
}

func allowedExtension(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range AllowedExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

func rejectionMessage(dupes, badExt, overflow int) string {
	var parts []string
	if dupes > 0 {
		parts = append(parts, fmt.Sprintf("Skipped %d duplicate file(s). File names must be unique.", dupes))
	}
	if badExt > 0 {
		parts = append(parts, fmt.Sprintf("Skipped %d file(s) with unsupported type. Only .html, .htm, .mhtml allowed.", badExt))
	}
	if overflow > 0 {
		parts = append(parts, fmt.Sprintf("Skipped %d file(s): queue limit reached.", overflow))
	}
	return strings.Join(parts, " ")
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
