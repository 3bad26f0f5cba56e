// SPDX-License-Identifier: MIT

package lsp

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	// Backend implementation for commonlog, which glsp logs through.
	_ "github.com/tliron/commonlog/simple"

	"github.com/quarto-wizard/quarto-wizard/internal/extensions"
	"github.com/quarto-wizard/quarto-wizard/internal/quartocli"
)

const serverName = "quarto-wizard-lsp"

// Server ties the glsp protocol handler to the document store, the schema
// index, and the providers.
type Server struct {
	handler   protocol.Handler
	store     *Store
	index     *extensions.Index
	engine    *Engine
	publisher *Publisher
	completer *Completer
	hoverer   *Hoverer
	watcher   *extensions.Watcher
	quarto    *quartocli.CLI
	log       zerolog.Logger
	version   string
}

func NewServer(log zerolog.Logger, version string, quarto *quartocli.CLI) *Server {
	store := NewStore()
	index := extensions.NewIndex(log)
	engine := NewEngine(index, log)

	s := &Server{
		store:     store,
		index:     index,
		engine:    engine,
		publisher: NewPublisher(engine, store, log),
		completer: NewCompleter(index, log),
		hoverer:   NewHoverer(index, log),
		quarto:    quarto,
		log:       log,
		version:   version,
	}
	s.handler = protocol.Handler{
		Initialize:                     s.initialize,
		Initialized:                    s.initialized,
		Shutdown:                       s.shutdown,
		SetTrace:                       s.setTrace,
		CancelRequest:                  s.cancelRequest,
		TextDocumentDidOpen:            s.textDocumentDidOpen,
		TextDocumentDidChange:          s.textDocumentDidChange,
		TextDocumentDidSave:            s.textDocumentDidSave,
		TextDocumentDidClose:           s.textDocumentDidClose,
		TextDocumentCompletion:         s.textDocumentCompletion,
		TextDocumentHover:              s.textDocumentHover,
		WorkspaceDidChangeWatchedFiles: s.workspaceDidChangeWatchedFiles,
	}
	return s
}

// Run serves LSP over stdio until the client disconnects.
func (s *Server) Run(debug bool) error {
	defer s.dispose()
	srv := server.NewServer(&s.handler, serverName, debug)
	return srv.RunStdio()
}

func (s *Server) dispose() {
	s.publisher.Dispose()
	if s.watcher != nil {
		if err := s.watcher.Close(); err != nil {
			s.log.Warn().Err(err).Msg("closing file watcher")
		}
		s.watcher = nil
	}
}

func (s *Server) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	capabilities := protocol.ServerCapabilities{
		TextDocumentSync: &protocol.TextDocumentSyncOptions{
			OpenClose: &[]bool{true}[0],
			Change:    &[]protocol.TextDocumentSyncKind{protocol.TextDocumentSyncKindFull}[0],
			Save:      true,
		},
		CompletionProvider: &protocol.CompletionOptions{
			TriggerCharacters: []string{":", " ", "=", "<", "{"},
		},
		HoverProvider: &[]bool{true}[0],
	}

	if params.RootPath != nil {
		s.watchWorkspace(ctx, *params.RootPath)
	}

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    serverName,
			Version: &s.version,
		},
	}, nil
}

func (s *Server) initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	if s.quarto != nil {
		if v, err := s.quarto.Version(context.Background()); err != nil {
			s.log.Warn().Err(err).Msg("quarto binary unavailable")
		} else {
			s.log.Info().Str("quarto", v).Msg("quarto binary detected")
		}
	}
	return nil
}

func (s *Server) shutdown(ctx *glsp.Context) error {
	protocol.SetTraceValue(protocol.TraceValueOff)
	s.dispose()
	return nil
}

func (s *Server) setTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}

func (s *Server) cancelRequest(ctx *glsp.Context, params *protocol.CancelParams) error {
	return nil
}

// watchWorkspace registers an out-of-editor watch on schema files so the
// index stays fresh even when the client has no file watching of its own.
func (s *Server) watchWorkspace(ctx *glsp.Context, root string) {
	if s.watcher == nil {
		w, err := extensions.NewWatcher(s.index, s.log, func(string) {
			s.publisher.RevalidateAll(ctx.Notify)
		})
		if err != nil {
			s.log.Warn().Err(err).Msg("file watcher unavailable")
			return
		}
		s.watcher = w
	}
	if err := s.watcher.AddWorkspace(root); err != nil {
		s.log.Warn().Err(err).Str("root", root).Msg("watching workspace failed")
	}
}

func (s *Server) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	s.store.Open(params.TextDocument.URI, params.TextDocument.Text, params.TextDocument.Version)
	s.publisher.Saved(ctx.Notify, params.TextDocument.URI)
	return nil
}

func (s *Server) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	if len(params.ContentChanges) == 0 {
		return nil
	}
	// Full sync: the last change carries the whole document.
	switch change := params.ContentChanges[len(params.ContentChanges)-1].(type) {
	case protocol.TextDocumentContentChangeEventWhole:
		s.store.Update(params.TextDocument.URI, change.Text, params.TextDocument.Version)
	case protocol.TextDocumentContentChangeEvent:
		s.store.Update(params.TextDocument.URI, change.Text, params.TextDocument.Version)
	default:
		return nil
	}
	s.publisher.Changed(ctx.Notify, params.TextDocument.URI)
	return nil
}

func (s *Server) textDocumentDidSave(ctx *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	if params.Text != nil {
		if doc, ok := s.store.Get(params.TextDocument.URI); ok {
			s.store.Update(params.TextDocument.URI, *params.Text, doc.Version)
		}
	}
	s.publisher.Saved(ctx.Notify, params.TextDocument.URI)
	return nil
}

func (s *Server) textDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	s.store.Close(params.TextDocument.URI)
	s.publisher.Closed(ctx.Notify, params.TextDocument.URI)
	return nil
}

func (s *Server) textDocumentCompletion(ctx *glsp.Context, params *protocol.CompletionParams) (any, error) {
	doc, ok := s.store.Get(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}
	items := s.completer.Complete(context.Background(), doc, params.Position)
	if len(items) == 0 {
		return nil, nil
	}
	return items, nil
}

func (s *Server) textDocumentHover(ctx *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	doc, ok := s.store.Get(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}
	return s.hoverer.Hover(context.Background(), doc, params.Position), nil
}

func (s *Server) workspaceDidChangeWatchedFiles(ctx *glsp.Context, params *protocol.DidChangeWatchedFilesParams) error {
	invalidated := false
	for _, change := range params.Changes {
		path := PathFromURI(change.URI)
		s.index.Invalidate(extensions.WorkspaceFor(path))
		invalidated = true
	}
	if invalidated {
		s.publisher.RevalidateAll(ctx.Notify)
	}
	return nil
}
