package lexer

import (
	"testing"
)

func TestLexerBasicTokens(t *testing.T) {
	input := "SELECT * FROM users"

	l := New(input)
	tokens := l.Tokenize()

	expected := []struct {
		tokenType TokenType
		literal   string
	}{
		{TokenSelect, "SELECT"},
		{TokenAsterisk, "*"},
		{TokenFrom, "FROM"},
		{TokenIdent, "users"},
		{TokenEOF, ""},
	}

	if len(tokens) != len(expected) {
		t.Fatalf("expected %d tokens, got %d", len(expected), len(tokens))
	}

	for i, exp := range expected {
		if tokens[i].Type != exp.tokenType {
			t.Errorf("token %d: expected type %s, got %s", i, tokenTypeName(exp.tokenType), tokenTypeName(tokens[i].Type))
		}
		if tokens[i].Literal != exp.literal {
			t.Errorf("token %d: expected literal %q, got %q", i, exp.literal, tokens[i].Literal)
		}
	}
}

func TestLexerWhereEquality(t *testing.T) {
	input := "SELECT name FROM users WHERE age = 18 AND active = TRUE"

	l := New(input)
	tokens := l.Tokenize()

	expected := []TokenType{
		TokenSelect,
		TokenIdent, // name
		TokenFrom,
		TokenIdent, // users
		TokenWhere,
		TokenIdent, // age
		TokenEquals,
		TokenNumber, // 18
		TokenAnd,
		TokenIdent, // active
		TokenEquals,
		TokenBoolean, // TRUE
		TokenEOF,
	}

	if len(tokens) != len(expected) {
		t.Fatalf("expected %d tokens, got %d", len(expected), len(tokens))
	}

	for i, exp := range expected {
		if tokens[i].Type != exp {
			t.Errorf("token %d: expected %s, got %s (literal: %q)",
				i, tokenTypeName(exp), tokenTypeName(tokens[i].Type), tokens[i].Literal)
		}
	}
}

func TestLexerCreateTable(t *testing.T) {
	input := "CREATE TABLE IF NOT EXISTS users (id INT, name TEXT)"

	l := New(input)
	tokens := l.Tokenize()

	expectedTypes := []TokenType{
		TokenCreate,
		TokenTable,
		TokenIf,
		TokenNot,
		TokenExists,
		TokenIdent, // users
		TokenLeftParen,
		TokenIdent, // id
		TokenInt,
		TokenComma,
		TokenIdent, // name
		TokenText,
		TokenRightParen,
		TokenEOF,
	}

	if len(tokens) != len(expectedTypes) {
		t.Fatalf("expected %d tokens, got %d", len(expectedTypes), len(tokens))
	}

	for i, exp := range expectedTypes {
		if tokens[i].Type != exp {
			t.Errorf("token %d: expected %s, got %s (literal: %q)",
				i, tokenTypeName(exp), tokenTypeName(tokens[i].Type), tokens[i].Literal)
		}
	}
}

func TestLexerCreateIndex(t *testing.T) {
	input := "CREATE INDEX chicken ON egg USING BTREE (yolk, shell)"

	l := New(input)
	tokens := l.Tokenize()

	expectedTypes := []TokenType{
		TokenCreate,
		TokenIndex,
		TokenIdent, // chicken
		TokenOn,
		TokenIdent, // egg
		TokenUsing,
		TokenBtree,
		TokenLeftParen,
		TokenIdent, // yolk
		TokenComma,
		TokenIdent, // shell
		TokenRightParen,
		TokenEOF,
	}

	if len(tokens) != len(expectedTypes) {
		t.Fatalf("expected %d tokens, got %d", len(expectedTypes), len(tokens))
	}

	for i, exp := range expectedTypes {
		if tokens[i].Type != exp {
			t.Errorf("token %d: expected %s, got %s (literal: %q)",
				i, tokenTypeName(exp), tokenTypeName(tokens[i].Type), tokens[i].Literal)
		}
	}
}

func TestLexerInsert(t *testing.T) {
	input := "INSERT INTO users (name, age) VALUES ('Alice', 30)"

	l := New(input)
	tokens := l.Tokenize()

	expectedTypes := []TokenType{
		TokenInsert,
		TokenInto,
		TokenIdent, // users
		TokenLeftParen,
		TokenIdent, // name
		TokenComma,
		TokenIdent, // age
		TokenRightParen,
		TokenValues,
		TokenLeftParen,
		TokenString, // 'Alice'
		TokenComma,
		TokenNumber, // 30
		TokenRightParen,
		TokenEOF,
	}

	if len(tokens) != len(expectedTypes) {
		t.Fatalf("expected %d tokens, got %d", len(expectedTypes), len(tokens))
	}

	for i, exp := range expectedTypes {
		if tokens[i].Type != exp {
			t.Errorf("token %d: expected %s, got %s (literal: %q)",
				i, tokenTypeName(exp), tokenTypeName(tokens[i].Type), tokens[i].Literal)
		}
	}
}

func TestLexerNumbers(t *testing.T) {
	tests := []struct {
		input   string
		literal string
	}{
		{"123", "123"},
		{"-42", "-42"},
	}

	for _, tt := range tests {
		l := New(tt.input)
		tok := l.NextToken()
		if tok.Type != TokenNumber {
			t.Errorf("expected NUMBER for %q, got %s", tt.input, tokenTypeName(tok.Type))
		}
		if tok.Literal != tt.literal {
			t.Errorf("expected literal %q, got %q", tt.literal, tok.Literal)
		}
	}
}

func TestLexerSingleQuotedStrings(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"'hello'", "hello"},
		{"'world'", "world"},
		{"'it''s'", "it's"}, // doubled quote is an escaped quote
	}

	for _, tt := range tests {
		l := New(tt.input)
		tok := l.NextToken()
		if tok.Type != TokenString {
			t.Errorf("expected STRING for %q, got %s", tt.input, tokenTypeName(tok.Type))
		}
		if tok.Literal != tt.expected {
			t.Errorf("expected literal %q, got %q", tt.expected, tok.Literal)
		}
	}
}

func TestLexerDoubleQuotedStrings(t *testing.T) {
	l := New(`"yellow"`)
	tok := l.NextToken()
	if tok.Type != TokenString {
		t.Errorf("expected STRING, got %s", tokenTypeName(tok.Type))
	}
	if tok.Literal != "yellow" {
		t.Errorf("expected literal %q, got %q", "yellow", tok.Literal)
	}
}

func TestLexerUnterminatedString(t *testing.T) {
	l := New("'unterminated")
	tok := l.NextToken()
	if tok.Type != TokenError {
		t.Errorf("expected ERROR for an unterminated string, got %s", tokenTypeName(tok.Type))
	}
}

func TestLexerCaseInsensitiveKeywords(t *testing.T) {
	l := New("select * from users")
	tok := l.NextToken()
	if tok.Type != TokenSelect {
		t.Errorf("expected lowercase select to lex as SELECT, got %s", tokenTypeName(tok.Type))
	}
}

func TestLexerPositionTracking(t *testing.T) {
	input := "SELECT\nname"

	l := New(input)

	tok := l.NextToken()
	if tok.Line != 1 {
		t.Errorf("SELECT should be on line 1, got %d", tok.Line)
	}

	tok = l.NextToken()
	if tok.Line != 2 {
		t.Errorf("name should be on line 2, got %d", tok.Line)
	}
}
