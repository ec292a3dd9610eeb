package lsp

import (
	"context"
	"encoding/json"
	"net"
	"testing"
	"time"

	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
)

// ============================================================================
// Document Manager Tests
// ============================================================================

func TestDocumentManagerOpen(t *testing.T) {
	dm := NewDocumentManager()

	doc := dm.Open("file:///test.ab", "#alphabet<x>\nz.o(1)\n", 1)

	if doc == nil {
		t.Fatal("expected document to be created")
	}
	if doc.URI != "file:///test.ab" {
		t.Errorf("expected URI 'file:///test.ab', got '%s'", doc.URI)
	}
	if doc.Version != 1 {
		t.Errorf("expected version 1, got %d", doc.Version)
	}
	if doc.MissingHead {
		t.Error("expected a well-formed header to not set MissingHead")
	}
}

func TestDocumentManagerGet(t *testing.T) {
	dm := NewDocumentManager()
	dm.Open("file:///test.ab", "#alphabet<x>\n", 1)

	if dm.Get("file:///test.ab") == nil {
		t.Fatal("expected document to exist")
	}
	if dm.Get("file:///nonexistent.ab") != nil {
		t.Error("expected nil for nonexistent document")
	}
}

func TestDocumentManagerClose(t *testing.T) {
	dm := NewDocumentManager()
	dm.Open("file:///test.ab", "#alphabet<x>\n", 1)
	dm.Close("file:///test.ab")

	if dm.Get("file:///test.ab") != nil {
		t.Error("expected document to be removed after close")
	}
}

func TestDocumentManagerUpdateContentReparses(t *testing.T) {
	dm := NewDocumentManager()
	dm.Open("file:///test.ab", "#alphabet<x>\n", 1)

	doc := dm.UpdateContent("file:///test.ab", "no header here\n", 2)
	if !doc.MissingHead {
		t.Error("expected the reparsed document to flag a missing header")
	}
	if doc.Version != 2 {
		t.Errorf("expected version 2, got %d", doc.Version)
	}
}

// ============================================================================
// Diagnostics Tests
// ============================================================================

func TestDiagnosticsForMissingHeader(t *testing.T) {
	dm := NewDocumentManager()
	doc := dm.Open("file:///test.ab", "z.o(1)\n", 1)

	diags := diagnosticsFor(doc)
	if len(diags) != 1 {
		t.Fatalf("expected exactly 1 diagnostic, got %d", len(diags))
	}
	if diags[0].Severity != protocol.DiagnosticSeverityError {
		t.Errorf("expected severity Error, got %v", diags[0].Severity)
	}
}

func TestDiagnosticsForWellFormedSourceIsEmpty(t *testing.T) {
	dm := NewDocumentManager()
	doc := dm.Open("file:///test.ab", "#alphabet<x>\nz.o(1)\n", 1)

	diags := diagnosticsFor(doc)
	if len(diags) != 0 {
		t.Errorf("expected no diagnostics for valid source, got %d: %+v", len(diags), diags)
	}
}

func TestDiagnosticsForParseError(t *testing.T) {
	dm := NewDocumentManager()
	doc := dm.Open("file:///test.ab", "#alphabet<x>\ni (\n", 1)

	diags := diagnosticsFor(doc)
	if len(diags) == 0 {
		t.Fatal("expected at least 1 diagnostic for malformed source")
	}
	if diags[0].Source != "alphabet" {
		t.Errorf("expected Source 'alphabet', got %q", diags[0].Source)
	}
}

// ============================================================================
// Completion Tests
// ============================================================================

func TestCompletionItemsCoversEveryKeywordAndPrimitiveType(t *testing.T) {
	items := completionItems()
	if len(items) != len(keywords)+len(primitiveTypes) {
		t.Fatalf("expected %d items, got %d", len(keywords)+len(primitiveTypes), len(items))
	}

	labels := make(map[string]bool, len(items))
	for _, item := range items {
		labels[item.Label] = true
	}
	for _, kw := range keywords {
		if !labels[kw.letter] {
			t.Errorf("expected completion item for keyword %q", kw.letter)
		}
	}
	for _, typ := range primitiveTypes {
		if !labels[typ.name] {
			t.Errorf("expected completion item for primitive type %q", typ.name)
		}
	}
}

// ============================================================================
// Hover Tests
// ============================================================================

func TestHoverResultMentionsAlphabet(t *testing.T) {
	hover := hoverResult()
	if hover == nil {
		t.Fatal("expected a non-nil hover result")
	}
	if hover.Contents.Value == "" {
		t.Error("expected non-empty hover text")
	}
}

// ============================================================================
// Server Dispatch Tests (wire-level, over an in-process pipe)
// ============================================================================

// testConn wraps a jsonrpc2.Conn with the narrower Call/Notify surface the
// tests below need, isolating the library's exact Call return shape to one
// place.
type testConn struct {
	conn jsonrpc2.Conn
}

func (c testConn) Call(ctx context.Context, method string, params, result interface{}) error {
	_, err := c.conn.Call(ctx, method, params, result)
	return err
}

func (c testConn) Notify(ctx context.Context, method string, params interface{}) error {
	return c.conn.Notify(ctx, method, params)
}

func (c testConn) Close() error { return c.conn.Close() }

// newTestClient starts a Server on one end of an in-process pipe and
// returns a client connected to the other end, along with a channel that
// receives every textDocument/publishDiagnostics notification the server
// sends.
func newTestClient(t *testing.T) (testConn, chan protocol.PublishDiagnosticsParams, func()) {
	t.Helper()
	serverSide, clientSide := net.Pipe()

	srv := NewServer(serverSide, serverSide, discardWriter{})
	go srv.Run()

	diags := make(chan protocol.PublishDiagnosticsParams, 4)
	stream := jsonrpc2.NewStream(clientSide)
	conn := jsonrpc2.NewConn(stream)
	conn.Go(context.Background(), func(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
		if req.Method() == "textDocument/publishDiagnostics" {
			var p protocol.PublishDiagnosticsParams
			if err := json.Unmarshal(req.Params(), &p); err == nil {
				diags <- p
			}
		}
		return reply(ctx, nil, nil)
	})

	client := testConn{conn: conn}
	cleanup := func() {
		client.Close()
		clientSide.Close()
		serverSide.Close()
	}
	return client, diags, cleanup
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

func withTimeout(t *testing.T) (context.Context, context.CancelFunc) {
	t.Helper()
	return context.WithTimeout(context.Background(), 2*time.Second)
}

func TestServerInitializeAdvertisesCapabilities(t *testing.T) {
	conn, _, cleanup := newTestClient(t)
	defer cleanup()

	ctx, cancel := withTimeout(t)
	defer cancel()

	var result protocol.InitializeResult
	if err := conn.Call(ctx, "initialize", nil, &result); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if result.ServerInfo == nil || result.ServerInfo.Name != "alphabet-lsp" {
		t.Errorf("expected server name alphabet-lsp, got %+v", result.ServerInfo)
	}
	if result.Capabilities.CompletionProvider == nil {
		t.Error("expected completion capability advertised")
	}
}

func TestServerCompletionReturnsFixedList(t *testing.T) {
	conn, _, cleanup := newTestClient(t)
	defer cleanup()

	ctx, cancel := withTimeout(t)
	defer cancel()

	var result protocol.CompletionList
	if err := conn.Call(ctx, "textDocument/completion", nil, &result); err != nil {
		t.Fatalf("completion: %v", err)
	}
	if len(result.Items) != len(keywords)+len(primitiveTypes) {
		t.Errorf("expected %d completion items, got %d", len(keywords)+len(primitiveTypes), len(result.Items))
	}
}

func TestServerHoverReturnsFixedText(t *testing.T) {
	conn, _, cleanup := newTestClient(t)
	defer cleanup()

	ctx, cancel := withTimeout(t)
	defer cancel()

	var result protocol.Hover
	if err := conn.Call(ctx, "textDocument/hover", nil, &result); err != nil {
		t.Fatalf("hover: %v", err)
	}
	if result.Contents.Value == "" {
		t.Error("expected non-empty hover text")
	}
}

func TestServerUnknownMethodReturnsMethodNotFound(t *testing.T) {
	conn, _, cleanup := newTestClient(t)
	defer cleanup()

	ctx, cancel := withTimeout(t)
	defer cancel()

	var result interface{}
	err := conn.Call(ctx, "textDocument/rename", nil, &result)
	if err == nil {
		t.Fatal("expected an error for an unknown method")
	}
}

func TestServerDidOpenPublishesDiagnostics(t *testing.T) {
	conn, diags, cleanup := newTestClient(t)
	defer cleanup()

	ctx, cancel := withTimeout(t)
	defer cancel()

	params := protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{
			URI:     "file:///missing-header.ab",
			Text:    "z.o(1)\n",
			Version: 1,
		},
	}
	if err := conn.Notify(ctx, "textDocument/didOpen", params); err != nil {
		t.Fatalf("didOpen: %v", err)
	}

	select {
	case published := <-diags:
		if len(published.Diagnostics) != 1 {
			t.Errorf("expected exactly 1 published diagnostic, got %d", len(published.Diagnostics))
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for textDocument/publishDiagnostics")
	}
}
