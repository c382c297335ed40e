// Package session holds the in-memory state of one assetscan session: the
// authoritative record store and the notification channel.
package session

import (
	"sync"

	"assetscan/internal/models"
	"github.com/google/uuid"
)

// RecordStore is the ordered, authoritative list of extracted asset records
// for the session. The queue processor appends through Merge; the view
// engine edits and deletes by row ID. All access is mutex-guarded so the
// TUI event loop and the queue worker can share it.
type RecordStore struct {
	mu   sync.Mutex
	rows []models.Row
}

// NewRecordStore returns an empty store.
func NewRecordStore() *RecordStore {
	return &RecordStore{}
}

// Rows returns a snapshot copy of the store.
func (s *RecordStore) Rows() []models.Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Row, len(s.rows))
	copy(out, s.rows)
	return out
}

// Len returns the number of records.
func (s *RecordStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

// Merge appends the records whose asset tag is not already present,
// assigning each a fresh row ID. It returns how many were added. Existing
// duplicates already in the store are left alone; dedup applies only to
// the incoming batch.
func (s *RecordStore) Merge(records []models.AssetRecord) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]bool, len(s.rows))
	for _, row := range s.rows {
		seen[row.Record.AssetTag] = true
	}

	added := 0
	for _, rec := range records {
		if seen[rec.AssetTag] {
			continue
		}
		seen[rec.AssetTag] = true
		s.rows = append(s.rows, models.Row{ID: uuid.New().String(), Record: rec})
		added++
	}
	return added
}

// Update replaces the record of the row with the given ID. It reports
// whether the row was found.
func (s *RecordStore) Update(id string, rec models.AssetRecord) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.rows {
		if s.rows[i].ID == id {
			s.rows[i].Record = rec
			return true
		}
	}
	return false
}

// Remove deletes every row whose ID is in ids, in one pass, and returns
// how many rows were removed.
func (s *RecordStore) Remove(ids []string) int {
	if len(ids) == 0 {
		return 0
	}
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.rows[:0]
	removed := 0
	for _, row := range s.rows {
		if drop[row.ID] {
			removed++
			continue
		}
		kept = append(kept, row)
	}
	s.rows = kept
	return removed
}

// Records returns a snapshot of just the asset records, in store order.
// Exporters always receive this full list, never a filtered view.
func (s *RecordStore) Records() []models.AssetRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.AssetRecord, len(s.rows))
	for i, row := range s.rows {
		out[i] = row.Record
	}
	return out
}

// Notifier is a bounded fan-in for ephemeral status messages. Publishers
// never block; when the buffer is full the oldest notification is dropped.
// Consumers receive from C and are responsible for dismissal.
type Notifier struct {
	mu sync.Mutex
	ch chan models.Notification
}

// NewNotifier returns a notifier with a small buffer.
func NewNotifier() *Notifier {
	return &Notifier{ch: make(chan models.Notification, 16)}
}

// Publish emits a notification without blocking.
func (n *Notifier) Publish(kind models.NotificationKind, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	note := models.Notification{Kind: kind, Message: message}
	for {
		select {
		case n.ch <- note:
			return
		default:
			// buffer full: drop the oldest and retry
			select {
			case <-n.ch:
			default:
			}
		}
	}
}

// C is the receive side of the notification channel.
func (n *Notifier) C() <-chan models.Notification {
	return n.ch
}

// Session bundles the per-session state shared by the queue processor and
// the view engine host.
type Session struct {
	Records  *RecordStore
	Notifier *Notifier

	mu       sync.Mutex
	provider string
}

// New creates a session with an empty record store.
func New(provider string) *Session {
	return &Session{
		Records:  NewRecordStore(),
		Notifier: NewNotifier(),
		provider: provider,
	}
}

// Provider returns the currently selected extraction provider name.
func (s *Session) Provider() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.provider
}

// SetProvider switches the extraction provider for subsequent tasks.
func (s *Session) SetProvider(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.provider = name
}
