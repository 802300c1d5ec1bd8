package notefold

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/notefold/notefold.go/pkg/api"
	"github.com/notefold/notefold.go/pkg/logger"
	"github.com/notefold/notefold.go/pkg/models"
)

// ErrInteractionActive rejects an intent that would open a second workflow
// while one is already active.
var ErrInteractionActive = errors.New("another interaction is active")

// ErrNoInteraction rejects save/confirm/cancel intents that have no open
// workflow to act on.
var ErrNoInteraction = errors.New("no interaction in progress")

// InteractionKind enumerates the mutually exclusive UI workflow states.
type InteractionKind int

const (
	// KindIdle means no workflow is open.
	KindIdle InteractionKind = iota
	// KindEditing means the create-or-edit dialog is open.
	KindEditing
	// KindConfirmingDelete means the delete confirmation is open.
	KindConfirmingDelete
)

// Interaction is the single active UI workflow. Exactly one variant is
// populated at a time: the state is one field, not independent flags, so
// Editing and ConfirmingDelete cannot coexist by construction.
type Interaction struct {
	Kind InteractionKind

	// Editing is the snapshot of the note being edited, captured when the
	// editor opened; nil while creating a new note. Concurrent changes to
	// the underlying note do not alter an open editor.
	Editing *models.Note

	// DeleteID is the target captured by a delete intent.
	DeleteID string
}

// Coordinator mediates the edit dialog and the delete confirmation on top of
// the note store, keeping at most one UI-driven mutation per note in flight.
type Coordinator struct {
	store    *NoteStore
	monitor  *SessionMonitor
	api      *api.Client
	notifier Notifier
	log      logger.Logger

	mu    sync.Mutex
	state Interaction
}

// NewCoordinator builds a coordinator over store and monitor. notifier may
// be nil to drop notifications.
func NewCoordinator(apiClient *api.Client, store *NoteStore, monitor *SessionMonitor, notifier Notifier, log logger.Logger) *Coordinator {
	if notifier == nil {
		notifier = NopNotifier()
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Coordinator{
		store:    store,
		monitor:  monitor,
		api:      apiClient,
		notifier: notifier,
		log:      log,
	}
}

// State returns a copy of the current interaction state.
func (c *Coordinator) State() Interaction {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// RequestCreate opens the editor for a new note.
func (c *Coordinator) RequestCreate() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Kind != KindIdle {
		return ErrInteractionActive
	}
	c.state = Interaction{Kind: KindEditing}
	return nil
}

// RequestEdit opens the editor on note, capturing its current title and
// content as the form's initial values. The snapshot is not re-read later.
func (c *Coordinator) RequestEdit(note models.Note) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Kind != KindIdle {
		return ErrInteractionActive
	}
	snapshot := note
	c.state = Interaction{Kind: KindEditing, Editing: &snapshot}
	return nil
}

// CancelEdit closes the editor, discarding unsaved form input.
func (c *Coordinator) CancelEdit() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Kind != KindEditing {
		return ErrNoInteraction
	}
	c.state = Interaction{Kind: KindIdle}
	return nil
}

// Save closes the editor and dispatches the form values: a create when the
// editor was opened empty, an update of the snapshot's note otherwise. The
// editor closes regardless of outcome; the failure is surfaced so the
// presentation layer can decide whether to reopen.
func (c *Coordinator) Save(ctx context.Context, title, content string) error {
	c.mu.Lock()
	if c.state.Kind != KindEditing {
		c.mu.Unlock()
		return ErrNoInteraction
	}
	editing := c.state.Editing
	c.state = Interaction{Kind: KindIdle}
	c.mu.Unlock()

	var err error
	if editing == nil {
		err = c.store.Create(ctx, title, content)
	} else {
		err = c.store.Update(ctx, editing.ID, title, content)
	}
	if err != nil {
		c.notifier.Error(fmt.Sprintf("Failed to save note: %v", err))
		return err
	}
	if editing == nil {
		c.notifier.Success("Note created successfully")
	} else {
		c.notifier.Success("Note updated successfully")
	}
	return nil
}

// RequestDelete opens the delete confirmation for the note with id.
func (c *Coordinator) RequestDelete(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Kind != KindIdle {
		return ErrInteractionActive
	}
	c.state = Interaction{Kind: KindConfirmingDelete, DeleteID: id}
	return nil
}

// CancelDelete closes the confirmation with no side effect.
func (c *Coordinator) CancelDelete() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Kind != KindConfirmingDelete {
		return ErrNoInteraction
	}
	c.state = Interaction{Kind: KindIdle}
	return nil
}

// ConfirmDelete deletes the captured note. The state returns to idle
// regardless of outcome; a failure is reported through the notifier and the
// returned error, never by reopening the confirmation.
func (c *Coordinator) ConfirmDelete(ctx context.Context) error {
	c.mu.Lock()
	if c.state.Kind != KindConfirmingDelete {
		c.mu.Unlock()
		return ErrNoInteraction
	}
	id := c.state.DeleteID
	c.state = Interaction{Kind: KindIdle}
	c.mu.Unlock()

	if err := c.store.Delete(ctx, id); err != nil {
		c.notifier.Error(fmt.Sprintf("Failed to delete note: %v", err))
		return err
	}
	c.notifier.Success("Note deleted successfully")
	return nil
}

// SignOut attempts the remote sign-out and clears the local session and
// note collection even when the remote call fails; the UI must not be left
// showing stale authenticated state.
func (c *Coordinator) SignOut(ctx context.Context) {
	if err := c.api.SignOut(ctx); err != nil {
		c.log.Warn("remote sign-out failed, clearing local state anyway", "error", err)
	}
	c.monitor.Clear()
}
