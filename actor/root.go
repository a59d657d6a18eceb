package actor

import (
	"log/slog"
	"sync"

	"github.com/Polqt/siphonophore/config"
	"github.com/Polqt/siphonophore/hook"
)

// Root owns the registry of live Document actors, keyed by doc id, and
// guarantees at most one Document exists for a given id at any instant.
type Root struct {
	cfg   config.Config
	hooks *hook.Chain
	log   *slog.Logger

	mu   sync.Mutex
	docs map[DocID]*DocumentHandle
}

// NewRoot creates the Root. It has no mailbox or goroutine of its own: registry
// mutations only ever happen under mu, from whichever goroutine calls
// RequestDoc or a Document reports itself stopped, so there is nothing to
// serialize through a channel.
func NewRoot(cfg config.Config, hooks *hook.Chain, log *slog.Logger) *Root {
	return &Root{
		cfg:   cfg,
		hooks: hooks,
		log:   log,
		docs:  make(map[DocID]*DocumentHandle),
	}
}

// RequestDoc returns the handle for docID's Document actor, spawning one
// if none exists yet. Concurrent callers requesting the same id never
// race into spawning two Documents for it.
func (r *Root) RequestDoc(docID DocID) *DocumentHandle {
	r.mu.Lock()
	defer r.mu.Unlock()

	if h, ok := r.docs[docID]; ok {
		return h
	}

	h := newDocumentHandle(docID, r.cfg.MailboxCapacity)
	r.docs[docID] = h
	d := newDocument(docID, h, r, r.cfg, r.hooks, r.log.With("doc_id", docID))
	go d.run()
	return h
}

// documentStopped removes docID's registry entry, but only if it still
// points at handle — if a respawn has already raced ahead and replaced it,
// the newer entry must survive.
func (r *Root) documentStopped(docID DocID, h *DocumentHandle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.docs[docID]; ok && cur == h {
		delete(r.docs, docID)
	}
}

// activeCount reports how many documents are currently registered, for
// diagnostics and tests.
func (r *Root) activeCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.docs)
}
