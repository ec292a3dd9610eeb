package lexer

import (
	"testing"

	"github.com/alphabet-lang/alphabet/internal/token"
)

func scan(t *testing.T, src string) []token.Token {
	t.Helper()
	toks, err := New(src).ScanTokens()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return toks
}

func TestMissingHeader(t *testing.T) {
	_, err := New("5 x = 10").ScanTokens()
	if _, ok := err.(MissingHeaderError); !ok {
		t.Fatalf("expected MissingHeaderError, got %v", err)
	}
}

func TestShebangThenHeader(t *testing.T) {
	toks := scan(t, "#!/usr/bin/env alphabet\n#alphabet<x>\n5 x = 1")
	if toks[0].Kind != token.NUMBER {
		t.Fatalf("expected first token to be NUMBER, got %v", toks[0])
	}
}

func TestKeywordVsIdentifier(t *testing.T) {
	toks := scan(t, "#alphabet<x>\ni iff")
	if toks[0].Kind != token.IF {
		t.Fatalf("single letter 'i' should be IF keyword, got %v", toks[0])
	}
	if toks[1].Kind != token.IDENT {
		t.Fatalf("'iff' should be an identifier, got %v", toks[1])
	}
}

func TestNumberLiteral(t *testing.T) {
	toks := scan(t, "#alphabet<x>\n3.5")
	if toks[0].Kind != token.NUMBER || toks[0].Literal != 3.5 {
		t.Fatalf("expected NUMBER 3.5, got %v", toks[0])
	}
}

func TestStringSpansLinesAndTracksLineNumber(t *testing.T) {
	toks := scan(t, "#alphabet<x>\n\"a\nb\"\n5 x")
	if toks[0].Kind != token.STRING || toks[0].Lexeme != "a\nb" {
		t.Fatalf("expected multi-line string token, got %v", toks[0])
	}
	// the string opens on line 2 and closes on line 3; the NUMBER after
	// the following newline is on line 4
	var num token.Token
	for _, tk := range toks {
		if tk.Kind == token.NUMBER {
			num = tk
			break
		}
	}
	if num.Line != 4 {
		t.Fatalf("expected NUMBER on line 4, got line %d", num.Line)
	}
}

func TestLoneAmpersandAndPipeAreDropped(t *testing.T) {
	toks := scan(t, "#alphabet<x>\n& | &&")
	if toks[0].Kind != token.AND {
		t.Fatalf("expected the only surviving token to be AND, got %v", toks[0])
	}
	if toks[1].Kind != token.EOF {
		t.Fatalf("expected EOF right after, got %v", toks[1])
	}
}

func TestLineComment(t *testing.T) {
	toks := scan(t, "#alphabet<x>\n// comment\n5 x")
	if toks[0].Kind != token.NUMBER {
		t.Fatalf("expected comment to be skipped, got %v", toks[0])
	}
}
