package lexer

import (
	"testing"

	"github.com/example/jsbind/token"
)

type expectedToken struct {
	typ token.TokenType
	lit string
}

func expectTokens(t *testing.T, input string, expected []expectedToken) {
	t.Helper()
	l := New(input)
	for i, exp := range expected {
		tok := l.NextToken()
		if tok.Type != exp.typ {
			t.Errorf("test[%d]: type wrong. expected=%d, got=%d (lit=%q)", i, exp.typ, tok.Type, tok.Literal)
		}
		if tok.Literal != exp.lit {
			t.Errorf("test[%d]: literal wrong. expected=%q, got=%q", i, exp.lit, tok.Literal)
		}
	}
}

func TestHostAPICall(t *testing.T) {
	expectTokens(t, `host.importClass("Point");`, []expectedToken{
		{token.Identifier, "host"},
		{token.Dot, "."},
		{token.Identifier, "importClass"},
		{token.LeftParen, "("},
		{token.String, "Point"},
		{token.RightParen, ")"},
		{token.Semicolon, ";"},
		{token.EOF, ""},
	})
}

func TestSignatureChain(t *testing.T) {
	expectTokens(t, `p.move.signature(host.types.int)(2)`, []expectedToken{
		{token.Identifier, "p"},
		{token.Dot, "."},
		{token.Identifier, "move"},
		{token.Dot, "."},
		{token.Identifier, "signature"},
		{token.LeftParen, "("},
		{token.Identifier, "host"},
		{token.Dot, "."},
		{token.Identifier, "types"},
		{token.Dot, "."},
		{token.Identifier, "int"},
		{token.RightParen, ")"},
		{token.LeftParen, "("},
		{token.Number, "2"},
		{token.RightParen, ")"},
		{token.EOF, ""},
	})
}

func TestConstructAndAssign(t *testing.T) {
	expectTokens(t, `var p = new Point(1, 2.5); p.x = 5;`, []expectedToken{
		{token.Var, "var"},
		{token.Identifier, "p"},
		{token.Assign, "="},
		{token.New, "new"},
		{token.Identifier, "Point"},
		{token.LeftParen, "("},
		{token.Number, "1"},
		{token.Comma, ","},
		{token.Number, "2.5"},
		{token.RightParen, ")"},
		{token.Semicolon, ";"},
		{token.Identifier, "p"},
		{token.Dot, "."},
		{token.Identifier, "x"},
		{token.Assign, "="},
		{token.Number, "5"},
		{token.Semicolon, ";"},
		{token.EOF, ""},
	})
}

func TestTryCatchThrow(t *testing.T) {
	expectTokens(t, `try { throw e; } catch (err) { } finally { }`, []expectedToken{
		{token.Try, "try"},
		{token.LeftBrace, "{"},
		{token.Throw, "throw"},
		{token.Identifier, "e"},
		{token.Semicolon, ";"},
		{token.RightBrace, "}"},
		{token.Catch, "catch"},
		{token.LeftParen, "("},
		{token.Identifier, "err"},
		{token.RightParen, ")"},
		{token.LeftBrace, "{"},
		{token.RightBrace, "}"},
		{token.Finally, "finally"},
		{token.LeftBrace, "{"},
		{token.RightBrace, "}"},
		{token.EOF, ""},
	})
}

func TestStringEscapes(t *testing.T) {
	tests := []struct {
		input string
		lit   string
	}{
		{`"hello"`, "hello"},
		{`'quote\''`, `quote'`},
		{`"tab\there"`, "tab\there"},
		{`"\u0041"`, "A"},
	}
	for _, tt := range tests {
		tok := New(tt.input).NextToken()
		if tok.Type != token.String {
			t.Errorf("input=%q: type wrong. expected=String, got=%d", tt.input, tok.Type)
		}
		if tok.Literal != tt.lit {
			t.Errorf("input=%q: literal wrong. expected=%q, got=%q", tt.input, tt.lit, tok.Literal)
		}
	}
}

func TestFrontmatterIsSkipped(t *testing.T) {
	input := "/*---\nclasses: [Point]\n---*/\nvar p"
	l := New(input)

	tok := l.NextToken()
	if tok.Type != token.Var {
		t.Fatalf("expected Var after the comment, got %d (lit=%q)", tok.Type, tok.Literal)
	}
	if tok.Line != 4 {
		t.Errorf("expected line 4, got %d", tok.Line)
	}
	tok = l.NextToken()
	if tok.Column != 5 {
		t.Errorf("token 'p': expected col 5, got %d", tok.Column)
	}
}

func TestTokenize(t *testing.T) {
	tokens := Tokenize(`Point.origin();`)
	if len(tokens) != 7 {
		t.Fatalf("expected 7 tokens, got %d", len(tokens))
	}
	if tokens[2].Type != token.Identifier || tokens[2].Literal != "origin" {
		t.Errorf("token 2: expected origin, got %d %q", tokens[2].Type, tokens[2].Literal)
	}
	if tokens[6].Type != token.EOF {
		t.Errorf("token 6: expected EOF, got %d", tokens[6].Type)
	}
}
