package lsp

import (
	"strconv"

	"go.lsp.dev/protocol"
)

// keywords mirrors spec §4.1's reserved single-letter table.
var keywords = []struct {
	letter string
	detail string
}{
	{"i", "if"},
	{"e", "else"},
	{"l", "loop"},
	{"b", "break (reserved, unused)"},
	{"k", "continue (reserved, unused)"},
	{"r", "return"},
	{"c", "class"},
	{"a", "abstract (reserved)"},
	{"j", "interface"},
	{"n", "new"},
	{"v", "public"},
	{"p", "private"},
	{"s", "static"},
	{"m", "method"},
	{"t", "try"},
	{"h", "handle"},
	{"z", "system object"},
}

// primitiveTypes mirrors typesys's fixed 1..14 primitive table.
var primitiveTypes = []struct {
	id   int
	name string
}{
	{1, "i8"}, {2, "i16"}, {3, "i32"}, {4, "i64"}, {5, "int"},
	{6, "f32"}, {7, "f64"}, {8, "float"}, {9, "dec"}, {10, "cpx"},
	{11, "bool"}, {12, "str"}, {13, "list"}, {14, "map"},
}

// completionItems is the fixed list every textDocument/completion
// request returns, per spec §6.
func completionItems() []protocol.CompletionItem {
	items := make([]protocol.CompletionItem, 0, len(keywords)+len(primitiveTypes))
	for _, kw := range keywords {
		items = append(items, protocol.CompletionItem{
			Label:  kw.letter,
			Kind:   protocol.CompletionItemKindKeyword,
			Detail: kw.detail,
		})
	}
	for _, t := range primitiveTypes {
		items = append(items, protocol.CompletionItem{
			Label:  t.name,
			Kind:   protocol.CompletionItemKindClass,
			Detail: "primitive type id " + strconv.Itoa(t.id),
		})
	}
	return items
}
