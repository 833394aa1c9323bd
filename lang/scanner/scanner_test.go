package scanner_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ember-lang/ember/lang/scanner"
	"github.com/ember-lang/ember/lang/token"
)

func scanAll(src string) []token.Token {
	s := scanner.New(src)
	var toks []token.Token
	for {
		tok := s.Scan()
		toks = append(toks, tok)
		if tok.Kind == token.EOF {
			return toks
		}
	}
}

func kinds(toks []token.Token) []token.Kind {
	ks := make([]token.Kind, len(toks))
	for i, tok := range toks {
		ks[i] = tok.Kind
	}
	return ks
}

func TestScanPunctuationAndOperators(t *testing.T) {
	toks := scanAll("(){};,.+-*/ ! != = == < <= > >=")
	require.Equal(t, []token.Kind{
		token.LPAREN, token.RPAREN, token.LBRACE, token.RBRACE, token.SEMI,
		token.COMMA, token.DOT, token.PLUS, token.MINUS, token.STAR, token.SLASH,
		token.BANG, token.BANG_EQ, token.EQ, token.EQ_EQ, token.LT, token.LT_EQ,
		token.GT, token.GT_EQ, token.EOF,
	}, kinds(toks))
}

func TestScanKeywordsAndIdents(t *testing.T) {
	toks := scanAll("var x = foo and bar")
	require.Equal(t, []token.Kind{
		token.VAR, token.IDENT, token.EQ, token.IDENT, token.AND, token.IDENT, token.EOF,
	}, kinds(toks))
	require.Equal(t, "foo", toks[3].Lexeme)
}

func TestScanNumbers(t *testing.T) {
	toks := scanAll("1 2.5 100")
	require.Equal(t, []token.Kind{token.NUMBER, token.NUMBER, token.NUMBER, token.EOF}, kinds(toks))
	require.Equal(t, "2.5", toks[1].Lexeme)
}

func TestScanNumberNoLeadingDot(t *testing.T) {
	// ".5" is not a valid number literal: no leading dot.
	toks := scanAll(".5")
	require.Equal(t, token.DOT, toks[0].Kind)
	require.Equal(t, token.NUMBER, toks[1].Kind)
}

func TestScanString(t *testing.T) {
	toks := scanAll(`"hello world"`)
	require.Len(t, toks, 2)
	require.Equal(t, token.STRING, toks[0].Kind)
	require.Equal(t, `"hello world"`, toks[0].Lexeme)
}

func TestScanStringWithEmbeddedNewline(t *testing.T) {
	toks := scanAll("\"a\nb\"")
	require.Equal(t, token.STRING, toks[0].Kind)
}

func TestScanUnterminatedString(t *testing.T) {
	toks := scanAll(`"abc`)
	require.Equal(t, token.ILLEGAL, toks[0].Kind)
	require.Equal(t, "Unterminated string.", toks[0].Lexeme)
}

func TestScanLineComment(t *testing.T) {
	toks := scanAll("var x = 1 // comment\nvar y = 2")
	require.Equal(t, []token.Kind{
		token.VAR, token.IDENT, token.EQ, token.NUMBER,
		token.VAR, token.IDENT, token.EQ, token.NUMBER, token.EOF,
	}, kinds(toks))
	// y is on line 2
	require.Equal(t, 2, toks[5].Line)
}

func TestScanUnexpectedCharacter(t *testing.T) {
	toks := scanAll("@")
	require.Equal(t, token.ILLEGAL, toks[0].Kind)
	require.Contains(t, toks[0].Lexeme, "Unexpected character")
}
