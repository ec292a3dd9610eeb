// Package lsp implements the minimal language server spec §6 names: a
// framed JSON-RPC responder over stdin/stdout built on go.lsp.dev's
// jsonrpc2 transport and protocol types, the same pair the rest of the
// example pack's editor-tooling code reaches for.
package lsp

import (
	"context"
	"encoding/json"
	"io"

	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
)

// Server holds the open-document table a running session accumulates.
type Server struct {
	documents *DocumentManager
	conn      jsonrpc2.Conn
	rwc       io.ReadWriteCloser
	stderr    io.Writer
	shutdown  bool
}

// NewServer creates a Server that will read requests from r and write
// responses/notifications to w, logging transport errors to errw.
func NewServer(r io.Reader, w io.Writer, errw io.Writer) *Server {
	return &Server{
		documents: NewDocumentManager(),
		rwc:       rwReadWriteCloser{r, w},
		stderr:    errw,
	}
}

// Run drives the server until the stream closes. An `exit` notification
// is acknowledged but does not by itself end Run.
func (s *Server) Run() error {
	stream := jsonrpc2.NewStream(s.rwc)
	s.conn = jsonrpc2.NewConn(stream)
	s.conn.Go(context.Background(), s.handle)
	<-s.conn.Done()
	if err := s.conn.Err(); err != nil && err != io.EOF {
		return err
	}
	return nil
}

// handle dispatches one JSON-RPC request or notification. Unknown
// methods reply with -32601 per spec §6.
func (s *Server) handle(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	switch req.Method() {
	case "initialize":
		return reply(ctx, s.initializeResult(), nil)
	case "initialized":
		return reply(ctx, nil, nil)
	case "shutdown":
		s.shutdown = true
		return reply(ctx, nil, nil)
	case "exit":
		return reply(ctx, nil, nil)
	case "textDocument/didOpen":
		return s.onDidOpen(ctx, req)
	case "textDocument/didChange":
		return s.onDidChange(ctx, req)
	case "textDocument/didClose":
		return s.onDidClose(ctx, req)
	case "textDocument/completion":
		return reply(ctx, &protocol.CompletionList{IsIncomplete: false, Items: completionItems()}, nil)
	case "textDocument/hover":
		return reply(ctx, hoverResult(), nil)
	default:
		return reply(ctx, nil, jsonrpc2.NewError(jsonrpc2.MethodNotFound, "method not found: "+req.Method()))
	}
}

func (s *Server) initializeResult() *protocol.InitializeResult {
	trueVal := true
	return &protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			TextDocumentSync: &protocol.TextDocumentSyncOptions{
				OpenClose: true,
				Change:    protocol.TextDocumentSyncKindFull,
			},
			CompletionProvider: &protocol.CompletionOptions{},
			HoverProvider:      trueVal,
		},
		ServerInfo: &protocol.ServerInfo{Name: "alphabet-lsp", Version: "0.1.0"},
	}
}

func (s *Server) onDidOpen(ctx context.Context, req jsonrpc2.Request) error {
	var p protocol.DidOpenTextDocumentParams
	if err := json.Unmarshal(req.Params(), &p); err != nil {
		return nil
	}
	uri := string(p.TextDocument.URI)
	doc := s.documents.Open(uri, p.TextDocument.Text, int(p.TextDocument.Version))
	return s.publishDiagnostics(ctx, uri, doc)
}

func (s *Server) onDidChange(ctx context.Context, req jsonrpc2.Request) error {
	var p protocol.DidChangeTextDocumentParams
	if err := json.Unmarshal(req.Params(), &p); err != nil {
		return nil
	}
	uri := string(p.TextDocument.URI)
	if len(p.ContentChanges) == 0 {
		return nil
	}
	text := p.ContentChanges[len(p.ContentChanges)-1].Text
	doc := s.documents.UpdateContent(uri, text, int(p.TextDocument.Version))
	return s.publishDiagnostics(ctx, uri, doc)
}

func (s *Server) onDidClose(ctx context.Context, req jsonrpc2.Request) error {
	var p protocol.DidCloseTextDocumentParams
	if err := json.Unmarshal(req.Params(), &p); err != nil {
		return nil
	}
	s.documents.Close(string(p.TextDocument.URI))
	return nil
}

func (s *Server) publishDiagnostics(ctx context.Context, uri string, doc *Document) error {
	return s.conn.Notify(ctx, "textDocument/publishDiagnostics", &protocol.PublishDiagnosticsParams{
		URI:         protocol.DocumentURI(uri),
		Version:     uint32(doc.Version),
		Diagnostics: diagnosticsFor(doc),
	})
}

// rwReadWriteCloser pairs an independent reader and writer (stdin and
// stdout) into the io.ReadWriteCloser jsonrpc2.NewStream wants; closing
// is a no-op since the process owns both for its whole lifetime.
type rwReadWriteCloser struct {
	io.Reader
	io.Writer
}

func (rwReadWriteCloser) Close() error { return nil }
