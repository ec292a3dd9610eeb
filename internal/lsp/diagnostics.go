package lsp

import "go.lsp.dev/protocol"

// diagnosticsFor renders a Document's parse state as LSP diagnostics.
// A missing `#alphabet<...>` header is the ADDED MissingHeader
// diagnostic; it takes priority since scanning never runs without it.
func diagnosticsFor(doc *Document) []protocol.Diagnostic {
	if doc.MissingHead {
		return []protocol.Diagnostic{{
			Range:    lineRange(0),
			Severity: protocol.DiagnosticSeverityError,
			Source:   "alphabet",
			Message:  "missing #alphabet<...> header on the first line",
		}}
	}

	diags := make([]protocol.Diagnostic, 0, len(doc.ParseErrs))
	for _, err := range doc.ParseErrs {
		diags = append(diags, protocol.Diagnostic{
			Range:    lineRange(err.Line - 1),
			Severity: protocol.DiagnosticSeverityError,
			Source:   "alphabet",
			Message:  err.Message,
		})
	}
	return diags
}

func lineRange(line int) protocol.Range {
	if line < 0 {
		line = 0
	}
	return protocol.Range{
		Start: protocol.Position{Line: uint32(line), Character: 0},
		End:   protocol.Position{Line: uint32(line), Character: 1 << 10},
	}
}
