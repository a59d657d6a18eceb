package hook

import (
	"context"
	"log/slog"
)

// Chain is an ordered, immutable-after-construction list of Hooks, shared
// by reference across every actor: the slice never mutates after
// NewChain returns, so no synchronization is needed to read it
// concurrently from multiple actors.
type Chain struct {
	hooks []Hook
	log   *slog.Logger
}

// NewChain builds a Chain from hooks in registration order.
func NewChain(log *slog.Logger, hooks ...Hook) *Chain {
	if log == nil {
		log = slog.Default()
	}
	return &Chain{hooks: hooks, log: log}
}

// OnConnect runs every hook's OnConnect in order, stopping at (and
// returning) the first error.
func (c *Chain) OnConnect(ctx context.Context, p OnConnectPayload) error {
	for _, h := range c.hooks {
		if err := h.OnConnect(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// OnAuthenticate runs every hook's OnAuthenticate in order, stopping at the
// first error. Each hook may enrich p.Ctx.
func (c *Chain) OnAuthenticate(ctx context.Context, p OnAuthenticatePayload) error {
	for _, h := range c.hooks {
		if err := h.OnAuthenticate(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// OnLoadDocument runs every hook until one returns a non-nil blob. A hook
// error is logged and treated as "no blob".
func (c *Chain) OnLoadDocument(ctx context.Context, p OnLoadDocumentPayload) []byte {
	for _, h := range c.hooks {
		blob, err := h.OnLoadDocument(ctx, p)
		if err != nil {
			c.log.Error("on_load_document hook failed", "doc_id", p.DocID, "err", err)
			continue
		}
		if blob != nil {
			return blob
		}
	}
	return nil
}

// AfterLoadDocument runs every hook, logging but not propagating errors.
func (c *Chain) AfterLoadDocument(ctx context.Context, p AfterLoadDocumentPayload) {
	for _, h := range c.hooks {
		if err := h.AfterLoadDocument(ctx, p); err != nil {
			c.log.Error("after_load_document hook failed", "doc_id", p.DocID, "err", err)
		}
	}
}

// OnChange runs every hook; an error is surfaced via OnError rather than
// propagated to the caller.
func (c *Chain) OnChange(ctx context.Context, p OnChangePayload) {
	for _, h := range c.hooks {
		if err := h.OnChange(ctx, p); err != nil {
			c.OnError(OnErrorPayload{DocID: p.DocID, Err: err})
		}
	}
}

// OnAwarenessUpdate runs every hook, logging errors.
func (c *Chain) OnAwarenessUpdate(ctx context.Context, p OnAwarenessUpdatePayload) {
	for _, h := range c.hooks {
		if err := h.OnAwarenessUpdate(ctx, p); err != nil {
			c.log.Error("on_awareness_update hook failed", "doc_id", p.DocID, "err", err)
		}
	}
}

// BeforeCloseDirty runs every hook, stopping at the first error (a single
// persistence backend is the common case, but the chain contract still
// applies: the first failure keeps the document dirty).
func (c *Chain) BeforeCloseDirty(ctx context.Context, p BeforeCloseDirtyPayload) error {
	for _, h := range c.hooks {
		if err := h.BeforeCloseDirty(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// BeforeUnloadDocument runs every hook; any veto (error) stops eviction.
func (c *Chain) BeforeUnloadDocument(ctx context.Context, p BeforeUnloadDocumentPayload) error {
	for _, h := range c.hooks {
		if err := h.BeforeUnloadDocument(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// AfterUnloadDocument runs every hook synchronously.
func (c *Chain) AfterUnloadDocument(p AfterUnloadDocumentPayload) {
	for _, h := range c.hooks {
		h.AfterUnloadDocument(p)
	}
}

// OnError runs every hook's OnError. OnError is the terminal sink: it
// never itself recurses into another OnError call.
func (c *Chain) OnError(p OnErrorPayload) {
	c.log.Error("siphonophore error", "doc_id", p.DocID, "err", p.Err)
	for _, h := range c.hooks {
		h.OnError(p)
	}
}
