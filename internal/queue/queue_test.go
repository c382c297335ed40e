package queue

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"assetscan/internal/extract"
	"assetscan/internal/models"
	"assetscan/internal/session"
)

// stubProvider replays a scripted sequence of results.
type stubProvider struct {
	mu     sync.Mutex
	script []stubResult
	calls  int
}

type stubResult struct {
	records []models.AssetRecord
	err     error
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) Extract(ctx context.Context, document, filename string) ([]models.AssetRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.calls
	s.calls++
	if i >= len(s.script) {
		i = len(s.script) - 1
	}
	return s.script[i].records, s.script[i].err
}

func (s *stubProvider) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func rateLimitErr() error {
	return &extract.Error{Provider: "stub", StatusCode: 429, Body: "RESOURCE_EXHAUSTED"}
}

func rec(tag string) models.AssetRecord {
	r := models.AssetRecord{}
	r.Set(models.ColAssetTag, tag)
	r.Set(models.ColComputerName, "PC-"+tag)
	return r
}

// newTestProcessor wires a processor with an instrumented sleep that
// records every requested delay without actually waiting.
func newTestProcessor(t *testing.T, provider extract.Provider, opts Options) (*Processor, *session.Session, *[]time.Duration) {
	t.Helper()
	sess := session.New("stub")
	p := New(sess, map[string]extract.Provider{"stub": provider}, nil, opts)

	var sleeps []time.Duration
	var mu sync.Mutex
	p.sleep = func(ctx context.Context, d time.Duration) error {
		mu.Lock()
		sleeps = append(sleeps, d)
		mu.Unlock()
		return ctx.Err()
	}
	t.Cleanup(p.Stop)
	return p, sess, &sleeps
}

func nextNotification(t *testing.T, sess *session.Session) models.Notification {
	t.Helper()
	select {
	case n := <-sess.Notifier.C():
		return n
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for notification")
		return models.Notification{}
	}
}

func TestAddRejectsDuplicatesAndBadExtensions(t *testing.T) {
	p, sess, _ := newTestProcessor(t, &stubProvider{script: []stubResult{{}}}, DefaultOptions())

	accepted := p.Add([]File{
		{Name: "report.html"},
		{Name: "report.html"},
		{Name: "notes.txt"},
	})
	if accepted != 1 {
		t.Errorf("accepted = %d, want 1", accepted)
	}
	if got := len(p.Tasks()); got != 1 {
		t.Errorf("queue length = %d, want 1", got)
	}

	n := nextNotification(t, sess)
	if n.Kind != models.NotifyError {
		t.Errorf("notification kind = %s, want error", n.Kind)
	}
	if !strings.Contains(n.Message, "1 duplicate file(s)") {
		t.Errorf("message missing duplicate count: %q", n.Message)
	}
	if !strings.Contains(n.Message, "unsupported type") {
		t.Errorf("message missing extension rejection: %q", n.Message)
	}
}

func TestAddRejectsAcrossCompletedTasks(t *testing.T) {
	p, sess, _ := newTestProcessor(t, &stubProvider{script: []stubResult{{}}}, DefaultOptions())

	p.Add([]File{{Name: "report.html"}})
	nextNotification(t, sess)

	p.mu.Lock()
	p.tasks[0].Status = models.TaskStatusCompleted
	p.mu.Unlock()

	if accepted := p.Add([]File{{Name: "report.html"}}); accepted != 0 {
		t.Errorf("accepted = %d, want 0 (name already in queue)", accepted)
	}
	n := nextNotification(t, sess)
	if n.Kind != models.NotifyError {
		t.Errorf("notification kind = %s, want error", n.Kind)
	}
}

func TestValidateClassifiesRejections(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxFiles = 1
	p, _, _ := newTestProcessor(t, &stubProvider{script: []stubResult{{}}}, opts)

	names := map[string]bool{"taken.html": true}
	if err := p.validate("notes.txt", names); !errors.Is(err, ErrBadExtension) {
		t.Errorf("err = %v, want ErrBadExtension", err)
	}
	if err := p.validate("taken.html", names); !errors.Is(err, ErrDuplicateFilename) {
		t.Errorf("err = %v, want ErrDuplicateFilename", err)
	}
	if err := p.validate("fresh.html", names); err != nil {
		t.Errorf("err = %v, want nil", err)
	}

	p.Add([]File{{Name: "a.html"}})
	if err := p.validate("b.html", map[string]bool{}); !errors.Is(err, ErrQueueFull) {
		t.Errorf("err = %v, want ErrQueueFull", err)
	}
}

func TestAddEnforcesCapacity(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxFiles = 1
	p, sess, _ := newTestProcessor(t, &stubProvider{script: []stubResult{{}}}, opts)

	accepted := p.Add([]File{{Name: "a.html"}, {Name: "b.html"}})
	if accepted != 1 {
		t.Errorf("accepted = %d, want 1", accepted)
	}
	n := nextNotification(t, sess)
	if !strings.Contains(n.Message, "queue limit reached") {
		t.Errorf("message = %q, want capacity rejection", n.Message)
	}
}

func TestAddSuccessNotification(t *testing.T) {
	p, sess, _ := newTestProcessor(t, &stubProvider{script: []stubResult{{}}}, DefaultOptions())

	p.Add([]File{{Name: "a.html"}, {Name: "b.htm"}, {Name: "c.mhtml"}})
	n := nextNotification(t, sess)
	if n.Kind != models.NotifySuccess {
		t.Errorf("notification kind = %s, want success", n.Kind)
	}
	if n.Message != "Added 3 file(s) to queue." {
		t.Errorf("message = %q", n.Message)
	}
}

func TestProcessSuccess(t *testing.T) {
	provider := &stubProvider{script: []stubResult{
		{records: []models.AssetRecord{rec("A-1"), rec("A-2")}},
	}}
	p, sess, sleeps := newTestProcessor(t, provider, DefaultOptions())

	p.Add([]File{{Name: "report.html", Content: []byte("<html>")}})
	nextNotification(t, sess)

	task := p.claimNext()
	if task == nil {
		t.Fatal("claimNext returned nil")
	}
	p.process(task)

	if got := *sleeps; len(got) != 1 || got[0] != 2*time.Second {
		t.Errorf("sleeps = %v, want [2s] pacing delay", got)
	}
	if task.Status != models.TaskStatusCompleted {
		t.Errorf("status = %s, want completed", task.Status)
	}
	if got := sess.Records.Len(); got != 2 {
		t.Errorf("store length = %d, want 2", got)
	}
	n := nextNotification(t, sess)
	if n.Message != "Extracted 2 record(s) from report.html (2 new)." {
		t.Errorf("message = %q", n.Message)
	}
}

func TestProcessRetriesOnRateLimit(t *testing.T) {
	provider := &stubProvider{script: []stubResult{
		{err: rateLimitErr()},
		{err: rateLimitErr()},
		{records: []models.AssetRecord{rec("A-1")}},
	}}
	p, sess, sleeps := newTestProcessor(t, provider, DefaultOptions())

	p.Add([]File{{Name: "report.html"}})
	nextNotification(t, sess)

	task := p.claimNext()
	p.process(task)

	want := []time.Duration{2 * time.Second, 5 * time.Second, 10 * time.Second}
	got := *sleeps
	if len(got) != len(want) {
		t.Fatalf("sleeps = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sleep[%d] = %s, want %s", i, got[i], want[i])
		}
	}
	if task.Status != models.TaskStatusCompleted {
		t.Errorf("status = %s, want completed", task.Status)
	}
	if task.Retries != 2 {
		t.Errorf("retries = %d, want 2", task.Retries)
	}
}

func TestProcessExhaustsRetries(t *testing.T) {
	provider := &stubProvider{script: []stubResult{{err: rateLimitErr()}}}
	p, sess, sleeps := newTestProcessor(t, provider, DefaultOptions())

	p.Add([]File{{Name: "report.html"}})
	nextNotification(t, sess)

	task := p.claimNext()
	p.process(task)

	// pacing then the full backoff ladder
	want := []time.Duration{2 * time.Second, 5 * time.Second, 10 * time.Second, 20 * time.Second}
	got := *sleeps
	if len(got) != len(want) {
		t.Fatalf("sleeps = %v, want %v", got, want)
	}
	if provider.callCount() != 4 {
		t.Errorf("provider calls = %d, want 4 (1 initial + 3 retries)", provider.callCount())
	}
	if task.Status != models.TaskStatusError {
		t.Errorf("status = %s, want error", task.Status)
	}
	if task.Retries != 3 {
		t.Errorf("retries = %d, want 3", task.Retries)
	}
	n := nextNotification(t, sess)
	if n.Kind != models.NotifyError || !strings.Contains(n.Message, "report.html") {
		t.Errorf("notification = %+v", n)
	}
}

func TestProcessDoesNotRetryOtherErrors(t *testing.T) {
	provider := &stubProvider{script: []stubResult{{err: errors.New("malformed response")}}}
	p, sess, sleeps := newTestProcessor(t, provider, DefaultOptions())

	p.Add([]File{{Name: "report.html"}})
	nextNotification(t, sess)

	task := p.claimNext()
	p.process(task)

	if provider.callCount() != 1 {
		t.Errorf("provider calls = %d, want 1", provider.callCount())
	}
	if len(*sleeps) != 1 {
		t.Errorf("sleeps = %v, want only the pacing delay", *sleeps)
	}
	if task.Status != models.TaskStatusError {
		t.Errorf("status = %s, want error", task.Status)
	}
	if task.ErrorMessage != "malformed response" {
		t.Errorf("error message = %q", task.ErrorMessage)
	}
}

func TestMergeDeduplicatesAcrossFiles(t *testing.T) {
	provider := &stubProvider{script: []stubResult{
		{records: []models.AssetRecord{rec("A-1")}},
		{records: []models.AssetRecord{rec("A-1"), rec("A-2")}},
	}}
	p, sess, _ := newTestProcessor(t, provider, DefaultOptions())

	p.Add([]File{{Name: "first.html"}, {Name: "second.html"}})
	nextNotification(t, sess)

	p.process(p.claimNext())
	p.process(p.claimNext())

	if got := sess.Records.Len(); got != 2 {
		t.Errorf("store length = %d, want 2 (A-1 deduplicated)", got)
	}
	n := nextNotification(t, sess)
	if n.Message != "Extracted 1 record(s) from first.html (1 new)." {
		t.Errorf("first message = %q", n.Message)
	}
	n = nextNotification(t, sess)
	if n.Message != "Extracted 2 record(s) from second.html (1 new)." {
		t.Errorf("second message = %q", n.Message)
	}
}

func TestConsumerDrainsQueue(t *testing.T) {
	provider := &stubProvider{script: []stubResult{
		{records: []models.AssetRecord{rec("A-1")}},
	}}
	p, sess, _ := newTestProcessor(t, provider, DefaultOptions())
	p.Start()

	p.Add([]File{{Name: "a.html"}, {Name: "b.html"}})

	deadline := time.After(2 * time.Second)
	for p.Busy() {
		select {
		case <-deadline:
			t.Fatal("queue did not drain")
		case <-time.After(10 * time.Millisecond):
		}
	}

	for _, task := range p.Tasks() {
		if task.Status != models.TaskStatusCompleted {
			t.Errorf("task %s status = %s, want completed", task.Filename, task.Status)
		}
	}
	if got := sess.Records.Len(); got != 1 {
		t.Errorf("store length = %d, want 1 (same record from both files)", got)
	}
}

func TestClearKeepsProcessingTask(t *testing.T) {
	p, _, _ := newTestProcessor(t, &stubProvider{script: []stubResult{{}}}, DefaultOptions())

	p.Add([]File{{Name: "a.html"}, {Name: "b.html"}, {Name: "c.html"}})
	p.mu.Lock()
	p.tasks[0].Status = models.TaskStatusProcessing
	p.tasks[1].Status = models.TaskStatusCompleted
	p.mu.Unlock()

	p.Clear()

	tasks := p.Tasks()
	if len(tasks) != 1 {
		t.Fatalf("queue length = %d, want 1", len(tasks))
	}
	if tasks[0].Filename != "a.html" || tasks[0].Status != models.TaskStatusProcessing {
		t.Errorf("kept task = %+v, want the processing one", tasks[0])
	}
}
