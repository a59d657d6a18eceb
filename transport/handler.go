package transport

import (
	"log/slog"
	"net/http"

	"github.com/Polqt/siphonophore/actor"
	"github.com/Polqt/siphonophore/config"
	"github.com/Polqt/siphonophore/hook"
)

// Handler upgrades incoming HTTP requests to WebSocket connections and
// hands each one to a new Client actor.
type Handler struct {
	root  *actor.Root
	hooks *hook.Chain
	log   *slog.Logger
	cfg   config.Config
}

// NewHandler builds the upgrade endpoint wired to root and hooks.
func NewHandler(root *actor.Root, hooks *hook.Chain, log *slog.Logger, cfg config.Config) *Handler {
	return &Handler{root: root, hooks: hooks, log: log, cfg: cfg}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", "err", err, "remote_addr", r.RemoteAddr)
		return
	}

	req := hook.RequestInfo{
		RemoteAddr: r.RemoteAddr,
		Header:     r.Header,
		Query:      map[string][]string(r.URL.Query()),
	}

	actor.RunClient(h.root, h.hooks, h.log, newWSConn(conn), req, h.cfg.MailboxCapacity)
}
