package lsp

import "go.lsp.dev/protocol"

// fixedHoverText is the one hover string spec §6 requires for every
// textDocument/hover request, regardless of position.
const fixedHoverText = "alphabet: a small object-oriented language whose " +
	"keywords are single letters and whose types are small integers " +
	"(1-14 primitive, 15+ user class)."

func hoverResult() *protocol.Hover {
	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.PlainText,
			Value: fixedHoverText,
		},
	}
}
