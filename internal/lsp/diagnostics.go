// SPDX-License-Identifier: MIT

package lsp

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/quarto-wizard/quarto-wizard/internal/debounce"
)

// ChangeDebounce is how long edits are coalesced before revalidation. Saves
// bypass it.
const ChangeDebounce = 500 * time.Millisecond

// NotifyFunc sends a server-initiated notification to the client. It is an
// alias so a glsp Context's Notify field satisfies it directly.
type NotifyFunc = glsp.NotifyFunc

// Publisher owns the per-document validation lifecycle: debounced change
// passes, immediate save passes, clearing on close. Each pass replaces the
// full diagnostic set; a version counter per document discards passes that
// were outrun by a newer one, so out-of-order schema lookups cannot publish
// stale results.
type Publisher struct {
	engine   *Engine
	store    *Store
	log      zerolog.Logger
	interval time.Duration

	mu       sync.Mutex
	states   map[protocol.DocumentUri]*docState
	disposed bool
}

type docState struct {
	deb     *debounce.Debouncer
	version atomic.Int64
}

func NewPublisher(engine *Engine, store *Store, log zerolog.Logger) *Publisher {
	return &Publisher{
		engine:   engine,
		store:    store,
		log:      log,
		interval: ChangeDebounce,
		states:   map[protocol.DocumentUri]*docState{},
	}
}

// Changed schedules a debounced validation pass for uri.
func (p *Publisher) Changed(notify NotifyFunc, uri protocol.DocumentUri) {
	st := p.state(uri)
	if st == nil {
		return
	}
	st.deb.Trigger(func() {
		p.publish(notify, uri, st)
	})
}

// Saved validates uri immediately, dropping any pending debounced pass.
func (p *Publisher) Saved(notify NotifyFunc, uri protocol.DocumentUri) {
	st := p.state(uri)
	if st == nil {
		return
	}
	st.deb.Cancel()
	p.publish(notify, uri, st)
}

// Closed clears diagnostics for uri and stops validating it.
func (p *Publisher) Closed(notify NotifyFunc, uri protocol.DocumentUri) {
	p.mu.Lock()
	st, ok := p.states[uri]
	delete(p.states, uri)
	p.mu.Unlock()
	if ok {
		st.deb.Dispose()
		st.version.Add(1)
	}
	notify("textDocument/publishDiagnostics", protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: []protocol.Diagnostic{},
	})
}

// RevalidateAll runs an immediate pass over every tracked document. Used
// after schema files change on disk.
func (p *Publisher) RevalidateAll(notify NotifyFunc) {
	for _, doc := range p.store.All() {
		p.Saved(notify, doc.URI)
	}
}

// Dispose cancels all pending passes. The publisher rejects further work.
func (p *Publisher) Dispose() {
	p.mu.Lock()
	states := p.states
	p.states = map[protocol.DocumentUri]*docState{}
	p.disposed = true
	p.mu.Unlock()
	for _, st := range states {
		st.deb.Dispose()
		st.version.Add(1)
	}
}

func (p *Publisher) state(uri protocol.DocumentUri) *docState {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.disposed {
		return nil
	}
	st, ok := p.states[uri]
	if !ok {
		st = &docState{deb: debounce.New(p.interval)}
		p.states[uri] = st
	}
	return st
}

func (p *Publisher) publish(notify NotifyFunc, uri protocol.DocumentUri, st *docState) {
	version := st.version.Add(1)

	doc, ok := p.store.Get(uri)
	if !ok {
		return
	}
	diags := p.engine.Diagnose(context.Background(), doc)

	// A newer pass started while this one was looking up schemas.
	if st.version.Load() != version {
		return
	}
	notify("textDocument/publishDiagnostics", protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diags,
	})
}
