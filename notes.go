package notefold

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/notefold/notefold.go/pkg/api"
	"github.com/notefold/notefold.go/pkg/errs"
	"github.com/notefold/notefold.go/pkg/logger"
	"github.com/notefold/notefold.go/pkg/models"
)

// NoteStore mirrors the remote notes of the active session. The local
// collection is replaced wholesale after every successful round trip and is
// only ever mutated here; presentation reads it through Notes.
//
// All operations require an active session and fail with
// errs.ErrUnauthenticated before touching the network otherwise. After a
// successful mutation the store re-lists to resynchronize; the refetch is
// issued strictly after the mutation's acknowledgment.
type NoteStore struct {
	api     *api.Client
	monitor *SessionMonitor
	log     logger.Logger

	// opMu serializes remote operations so a mutation and its refetch can
	// never interleave with another operation from this store.
	opMu sync.Mutex

	mu     sync.Mutex
	notes  []models.Note
	loaded bool
	// epoch increments when the session ends, so a fetch issued under an
	// earlier session can never repopulate a cleared collection.
	epoch int
	subs  map[int]func([]models.Note)
	next  int

	unsubscribe func()
}

// NewNoteStore builds a store gated on monitor. A transition to "has
// session" triggers the initial fetch; a transition to "no session" clears
// the collection immediately.
func NewNoteStore(apiClient *api.Client, monitor *SessionMonitor, log logger.Logger) *NoteStore {
	if log == nil {
		log = logger.Nop()
	}
	s := &NoteStore{
		api:     apiClient,
		monitor: monitor,
		log:     log,
		subs:    make(map[int]func([]models.Note)),
	}
	s.unsubscribe = monitor.Subscribe(func(session *models.Session) {
		if session == nil {
			s.clearLocal()
			return
		}
		go func() {
			if err := s.List(context.Background()); err != nil {
				s.log.Warn("initial note fetch failed", "error", err)
			}
		}()
	})
	return s
}

// Close detaches the store from session changes.
func (s *NoteStore) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
}

// Notes returns a copy of the local collection, ordered by updated_at
// descending. The slice is never nil, so an empty signed-in collection is
// distinguishable from a missing one via Loaded.
func (s *NoteStore) Notes() []models.Note {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Note, len(s.notes))
	copy(out, s.notes)
	return out
}

// Loaded reports whether the collection reflects at least one successful
// list for the current session.
func (s *NoteStore) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

// Subscribe registers fn to run with a copy of the collection after every
// change. The returned function removes the subscription.
func (s *NoteStore) Subscribe(fn func([]models.Note)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.next
	s.next++
	s.subs[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// List fetches the session's notes and replaces the local collection. On
// failure the prior collection is left untouched.
func (s *NoteStore) List(ctx context.Context) error {
	if err := s.ensureSession(ctx); err != nil {
		return err
	}
	s.opMu.Lock()
	defer s.opMu.Unlock()
	return s.list(ctx)
}

// list performs the fetch without taking opMu; callers hold it.
func (s *NoteStore) list(ctx context.Context) error {
	s.mu.Lock()
	epoch := s.epoch
	s.mu.Unlock()

	notes, err := s.api.ListNotes(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", errs.ErrFetchFailed, err)
	}
	sort.SliceStable(notes, func(i, j int) bool {
		return notes[i].UpdatedAt.After(notes[j].UpdatedAt)
	})
	s.replace(notes, epoch)
	return nil
}

// Create inserts a new note and resynchronizes. Create is not idempotent:
// a retry after an ambiguous failure can produce duplicate notes, so
// callers must not auto-retry it.
//
// A non-nil error matching errs.ErrFetchFailed means the write itself was
// acknowledged and only the refetch failed.
func (s *NoteStore) Create(ctx context.Context, title, content string) error {
	if !models.ValidTitle(title) {
		return errs.Validation("title", "must not be empty")
	}
	if err := s.ensureSession(ctx); err != nil {
		return err
	}
	s.opMu.Lock()
	defer s.opMu.Unlock()
	if _, err := s.api.CreateNote(ctx, title, content); err != nil {
		return fmt.Errorf("%w: %w", errs.ErrWriteFailed, err)
	}
	s.log.Debug("note created", "title", title)
	return s.list(ctx)
}

// Update replaces title and content of one note and resynchronizes. The
// remote store is authoritative on ownership: a foreign or unknown id
// surfaces as a write failure, after which the refetch realigns the local
// view. updated_at is set by the server.
func (s *NoteStore) Update(ctx context.Context, id, title, content string) error {
	if !models.ValidTitle(title) {
		return errs.Validation("title", "must not be empty")
	}
	if err := s.ensureSession(ctx); err != nil {
		return err
	}
	s.opMu.Lock()
	defer s.opMu.Unlock()
	if _, err := s.api.UpdateNote(ctx, id, title, content); err != nil {
		werr := fmt.Errorf("%w: %w", errs.ErrWriteFailed, err)
		if lerr := s.list(ctx); lerr != nil {
			s.log.Debug("resync after failed update failed", "error", lerr)
		}
		return werr
	}
	s.log.Debug("note updated", "id", id)
	return s.list(ctx)
}

// Delete removes one note and resynchronizes, under the same ownership
// contract as Update.
func (s *NoteStore) Delete(ctx context.Context, id string) error {
	if err := s.ensureSession(ctx); err != nil {
		return err
	}
	s.opMu.Lock()
	defer s.opMu.Unlock()
	if err := s.api.DeleteNote(ctx, id); err != nil {
		werr := fmt.Errorf("%w: %w", errs.ErrWriteFailed, err)
		if lerr := s.list(ctx); lerr != nil {
			s.log.Debug("resync after failed delete failed", "error", lerr)
		}
		return werr
	}
	s.log.Debug("note deleted", "id", id)
	return s.list(ctx)
}

// ensureSession gates every operation: it waits for the startup resolution
// so notes can never be requested before the persisted session is known,
// then requires an active session.
func (s *NoteStore) ensureSession(ctx context.Context) error {
	if err := s.monitor.WaitResolved(ctx); err != nil {
		return err
	}
	if s.monitor.Session() == nil {
		return errs.ErrUnauthenticated
	}
	return nil
}

func (s *NoteStore) replace(notes []models.Note, epoch int) {
	s.mu.Lock()
	if epoch != s.epoch {
		// the session ended while this fetch was in flight
		s.mu.Unlock()
		return
	}
	s.notes = notes
	s.loaded = true
	subs := s.snapshotSubsLocked()
	s.mu.Unlock()
	s.fanOut(subs)
}

func (s *NoteStore) clearLocal() {
	s.mu.Lock()
	s.notes = nil
	s.loaded = false
	s.epoch++
	subs := s.snapshotSubsLocked()
	s.mu.Unlock()
	s.fanOut(subs)
}

func (s *NoteStore) snapshotSubsLocked() []func([]models.Note) {
	ids := make([]int, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func([]models.Note), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, s.subs[id])
	}
	return fns
}

func (s *NoteStore) fanOut(subs []func([]models.Note)) {
	for _, fn := range subs {
		fn(s.Notes())
	}
}
