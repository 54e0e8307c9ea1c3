package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/your-org/reconnect/internal/models"
)

var (
	ErrDuplicateID = errors.New("duplicate record id")
	ErrMissingID   = errors.New("record id is required")
)

// Persister writes the full record set to durable storage.
type Persister interface {
	Persist(ctx context.Context, records []models.PersonRecord) models.Outcome
}

// RecordCache is an advisory local copy of the record set. It is never
// treated as authoritative.
type RecordCache interface {
	PutRecords(ctx context.Context, records []models.PersonRecord) error
}

type Option func(*State)

func WithPersister(p Persister) Option {
	return func(s *State) { s.persister = p }
}

func WithCache(c RecordCache) Option {
	return func(s *State) { s.cache = c }
}

func WithPageSize(n int) Option {
	return func(s *State) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

// State owns the session's record set together with the active search
// results and page position.
type State struct {
	mu       sync.RWMutex
	records  []models.PersonRecord
	ids      map[models.ID]struct{}
	filtered []models.PersonRecord
	criteria Criteria
	page     int
	pageSize int

	persister Persister
	cache     RecordCache
}

func New(opts ...Option) *State {
	s := &State{
		ids:      make(map[models.ID]struct{}),
		page:     1,
		pageSize: DefaultPageSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initialize replaces the record set, e.g. with the canonical document
// loaded at startup.
func (s *State) Initialize(records []models.PersonRecord) error {
	ids := make(map[models.ID]struct{}, len(records))
	for _, r := range records {
		if _, ok := ids[r.ID]; ok {
			return fmt.Errorf("initialize: %w: %s", ErrDuplicateID, r.ID)
		}
		ids[r.ID] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append([]models.PersonRecord(nil), records...)
	s.ids = ids
	s.criteria = Criteria{}
	s.filtered = s.records
	s.page = 1
	return nil
}

func (s *State) InitializeFromDocument(doc models.Document) error {
	return s.Initialize(doc.Records())
}

// Append adds r to the end of the record set, then persists the new
// snapshot in the background. The returned channel yields exactly one
// Outcome; a failed persist does not undo the append.
func (s *State) Append(ctx context.Context, r models.PersonRecord) (<-chan models.Outcome, error) {
	if r.ID.IsZero() {
		return nil, ErrMissingID
	}

	s.mu.Lock()
	if _, ok := s.ids[r.ID]; ok {
		s.mu.Unlock()
		return nil, fmt.Errorf("append: %w: %s", ErrDuplicateID, r.ID)
	}
	s.records = append(s.records, r)
	s.ids[r.ID] = struct{}{}
	s.criteria = Criteria{}
	s.filtered = s.records
	s.page = 1
	snapshot := append([]models.PersonRecord(nil), s.records...)
	s.mu.Unlock()

	slog.Info("person added", "id", r.ID.String(), "name", r.Name, "total", len(snapshot))

	if s.cache != nil {
		if err := s.cache.PutRecords(ctx, snapshot); err != nil {
			slog.Warn("cache record set", "error", err)
		}
	}

	done := make(chan models.Outcome, 1)
	if s.persister == nil {
		done <- models.Outcome{Status: models.OutcomeSkipped, Document: models.NewDocument(snapshot)}
		close(done)
		return done, nil
	}

	go func() {
		defer close(done)
		done <- s.persister.Persist(ctx, snapshot)
	}()
	return done, nil
}

// Snapshot returns a copy of the full record set in insertion order.
func (s *State) Snapshot() []models.PersonRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.PersonRecord(nil), s.records...)
}

func (s *State) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Find looks a record up by id.
func (s *State) Find(id models.ID) (models.PersonRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.records {
		if r.ID == id {
			return r, true
		}
	}
	return models.PersonRecord{}, false
}

// FindByString matches ids by their text form, for callers that only have
// user input.
func (s *State) FindByString(id string) (models.PersonRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.records {
		if r.ID.String() == id {
			return r, true
		}
	}
	return models.PersonRecord{}, false
}

// Search filters the record set and moves to the first page of results.
func (s *State) Search(c Criteria) Page[models.PersonRecord] {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.criteria = c
	s.filtered = Filter(s.records, c)
	s.page = 1
	return Paginate(s.filtered, s.page, s.pageSize)
}

// Reset clears the criteria and shows every record again.
func (s *State) Reset() Page[models.PersonRecord] {
	return s.Search(Criteria{})
}

func (s *State) Criteria() Criteria {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.criteria
}

func (s *State) CurrentPage() Page[models.PersonRecord] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Paginate(s.filtered, s.page, s.pageSize)
}

// GoTo moves to page n, clamped to the available pages.
func (s *State) GoTo(n int) Page[models.PersonRecord] {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := Paginate(s.filtered, 1, s.pageSize).TotalPages
	s.page = max(1, min(n, total))
	return Paginate(s.filtered, s.page, s.pageSize)
}

func (s *State) NextPage() Page[models.PersonRecord] {
	return s.GoTo(s.pageIndex() + 1)
}

func (s *State) PrevPage() Page[models.PersonRecord] {
	return s.GoTo(s.pageIndex() - 1)
}

func (s *State) pageIndex() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.page
}
