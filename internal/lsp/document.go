package lsp

import (
	"strings"
	"sync"

	"github.com/alphabet-lang/alphabet/internal/lexer"
	"github.com/alphabet-lang/alphabet/internal/parser"
)

// Document is one open file: its current text plus the diagnostics that
// text produces when lexed and parsed.
type Document struct {
	URI     string
	Content string
	Version int

	ParseErrs   []parser.Error
	MissingHead bool
}

// DocumentManager tracks every currently open document.
type DocumentManager struct {
	mu        sync.RWMutex
	documents map[string]*Document
}

func NewDocumentManager() *DocumentManager {
	return &DocumentManager{documents: make(map[string]*Document)}
}

func (dm *DocumentManager) Open(uri, content string, version int) *Document {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	doc := &Document{URI: uri, Content: content, Version: version}
	doc.parse()
	dm.documents[uri] = doc
	return doc
}

func (dm *DocumentManager) UpdateContent(uri, content string, version int) *Document {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	doc, ok := dm.documents[uri]
	if !ok {
		doc = &Document{URI: uri}
		dm.documents[uri] = doc
	}
	doc.Content = content
	doc.Version = version
	doc.parse()
	return doc
}

func (dm *DocumentManager) Close(uri string) {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	delete(dm.documents, uri)
}

func (dm *DocumentManager) Get(uri string) *Document {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	return dm.documents[uri]
}

// parse re-lexes and re-parses Content, recording the MissingHeader
// condition separately from ordinary ParseErrors since the client shows
// it with a distinct message.
func (doc *Document) parse() {
	doc.ParseErrs = nil
	doc.MissingHead = false

	if !strings.HasPrefix(doc.Content, "#alphabet<") {
		doc.MissingHead = true
		return
	}

	toks, err := lexer.New(doc.Content).ScanTokens()
	if err != nil {
		doc.ParseErrs = []parser.Error{{Line: 1, Message: err.Error()}}
		return
	}
	p := parser.New(toks)
	p.Parse()
	doc.ParseErrs = p.Errors()
}
