// Package parser - SQL Parser implementation
//
// EDUCATIONAL NOTES:
// ------------------
// A parser reads tokens from the lexer and builds an Abstract Syntax Tree (AST).
// This is the second phase of compilation/interpretation, after lexing.
//
// We use a "recursive descent" parser, which is one of the simplest and most
// intuitive parsing techniques. Each grammar rule becomes a function:
// - parseStatement() handles SELECT, INSERT, CREATE, etc.
// - parseSelectStatement() handles the SELECT grammar specifically
//
// The parser maintains a "current token" and can "peek" at the next token.
// This allows it to make decisions about what to parse next.

package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cabewaldrop/claude-db/internal/sql/lexer"
)

// Parser parses SQL tokens into an AST.
type Parser struct {
	lexer     *lexer.Lexer
	curToken  lexer.Token
	peekToken lexer.Token
	errors    []string
}

// New creates a new Parser for the given lexer.
func New(l *lexer.Lexer) *Parser {
	p := &Parser{
		lexer:  l,
		errors: []string{},
	}
	// Read two tokens to initialize curToken and peekToken
	p.nextToken()
	p.nextToken()
	return p
}

// Parse parses the input and returns the AST.
func (p *Parser) Parse() (Statement, error) {
	stmt := p.parseStatement()
	if len(p.errors) > 0 {
		return nil, fmt.Errorf("parse errors: %s", strings.Join(p.errors, "; "))
	}
	return stmt, nil
}

// Errors returns any parsing errors encountered.
func (p *Parser) Errors() []string {
	return p.errors
}

// nextToken advances to the next token.
func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.lexer.NextToken()
}

// curTokenIs checks if the current token is of the given type.
func (p *Parser) curTokenIs(t lexer.TokenType) bool {
	return p.curToken.Type == t
}

// peekTokenIs checks if the next token is of the given type.
func (p *Parser) peekTokenIs(t lexer.TokenType) bool {
	return p.peekToken.Type == t
}

// expectPeek advances if the next token is of the expected type.
func (p *Parser) expectPeek(t lexer.TokenType) bool {
	if p.peekTokenIs(t) {
		p.nextToken()
		return true
	}
	p.peekError(t)
	return false
}

// peekError records an error for unexpected token type.
func (p *Parser) peekError(t lexer.TokenType) {
	msg := fmt.Sprintf("expected next token to be %d, got %d instead (literal: %q)",
		t, p.peekToken.Type, p.peekToken.Literal)
	p.errors = append(p.errors, msg)
}

// parseStatement parses a SQL statement.
//
// EDUCATIONAL NOTE:
// -----------------
// This is the entry point for parsing. We look at the first token
// to determine what kind of statement we're parsing.
func (p *Parser) parseStatement() Statement {
	switch p.curToken.Type {
	case lexer.TokenSelect:
		return p.parseSelectStatement()
	case lexer.TokenInsert:
		return p.parseInsertStatement()
	case lexer.TokenDelete:
		return p.parseDeleteStatement()
	case lexer.TokenCreate:
		return p.parseCreateStatement()
	case lexer.TokenDrop:
		return p.parseDropStatement()
	case lexer.TokenShow:
		return p.parseShowStatement()
	default:
		p.errors = append(p.errors, fmt.Sprintf("unexpected token: %s", p.curToken.Literal))
		return nil
	}
}

// parseSelectStatement parses: SELECT cols|* FROM table [WHERE eq [AND eq]*]
func (p *Parser) parseSelectStatement() *SelectStatement {
	stmt := &SelectStatement{}

	p.nextToken() // move past SELECT
	if p.curTokenIs(lexer.TokenAsterisk) {
		stmt.Columns = nil
	} else {
		stmt.Columns = p.parseIdentifierListNoParens()
	}

	if !p.expectPeek(lexer.TokenFrom) {
		return nil
	}
	if !p.expectPeek(lexer.TokenIdent) {
		return nil
	}
	stmt.Table = p.curToken.Literal

	if p.peekTokenIs(lexer.TokenWhere) {
		p.nextToken() // move to WHERE
		stmt.Where = p.parseEqualityConjunction()
	}

	return stmt
}

// parseIdentifierListNoParens parses: ident, ident, ... (no surrounding parens),
// leaving curToken on the last identifier consumed.
func (p *Parser) parseIdentifierListNoParens() []string {
	var columns []string

	if !p.curTokenIs(lexer.TokenIdent) {
		p.errors = append(p.errors, "expected column name")
		return nil
	}
	columns = append(columns, p.curToken.Literal)

	for p.peekTokenIs(lexer.TokenComma) {
		p.nextToken() // move to comma
		if !p.expectPeek(lexer.TokenIdent) {
			return nil
		}
		columns = append(columns, p.curToken.Literal)
	}

	return columns
}

// parseEqualityConjunction parses: col = literal [AND col = literal]*, starting with
// curToken on WHERE.
func (p *Parser) parseEqualityConjunction() []Equality {
	var terms []Equality

	for {
		if !p.expectPeek(lexer.TokenIdent) {
			return nil
		}
		column := p.curToken.Literal

		if !p.expectPeek(lexer.TokenEquals) {
			return nil
		}

		p.nextToken()
		lit := p.parseLiteral()
		if lit == nil {
			return nil
		}

		terms = append(terms, Equality{Column: column, Value: lit})

		if !p.peekTokenIs(lexer.TokenAnd) {
			break
		}
		p.nextToken() // move to AND
	}

	return terms
}

// parseLiteral parses a single literal value (string, number, or boolean).
func (p *Parser) parseLiteral() Literal {
	switch p.curToken.Type {
	case lexer.TokenNumber:
		val, err := strconv.ParseInt(p.curToken.Literal, 10, 64)
		if err != nil {
			p.errors = append(p.errors, fmt.Sprintf("could not parse %q as integer", p.curToken.Literal))
			return nil
		}
		return &IntegerLiteral{Value: val}
	case lexer.TokenString:
		return &StringLiteral{Value: p.curToken.Literal}
	case lexer.TokenBoolean:
		return &BooleanLiteral{Value: strings.ToUpper(p.curToken.Literal) == "TRUE"}
	default:
		p.errors = append(p.errors, fmt.Sprintf("expected a literal value, got %q", p.curToken.Literal))
		return nil
	}
}

// parseInsertStatement parses: INSERT INTO table (columns) VALUES (values)
func (p *Parser) parseInsertStatement() *InsertStatement {
	stmt := &InsertStatement{}

	if !p.expectPeek(lexer.TokenInto) {
		return nil
	}
	if !p.expectPeek(lexer.TokenIdent) {
		return nil
	}
	stmt.Table = p.curToken.Literal

	if p.peekTokenIs(lexer.TokenLeftParen) {
		p.nextToken() // move to (
		p.nextToken() // move past (
		stmt.Columns = p.parseIdentifierListNoParens()
		if !p.expectPeek(lexer.TokenRightParen) {
			return nil
		}
	}

	if !p.expectPeek(lexer.TokenValues) {
		return nil
	}
	if !p.expectPeek(lexer.TokenLeftParen) {
		return nil
	}
	p.nextToken() // move past (
	stmt.Values = p.parseLiteralList()
	if !p.expectPeek(lexer.TokenRightParen) {
		return nil
	}

	return stmt
}

// parseLiteralList parses a comma-separated list of literals, starting with curToken
// on the first literal.
func (p *Parser) parseLiteralList() []Literal {
	var values []Literal

	for {
		lit := p.parseLiteral()
		if lit == nil {
			return nil
		}
		values = append(values, lit)

		if !p.peekTokenIs(lexer.TokenComma) {
			break
		}
		p.nextToken() // move to comma
		p.nextToken() // move past comma
	}

	return values
}

// parseDeleteStatement parses: DELETE FROM table [WHERE eq [AND eq]*]
func (p *Parser) parseDeleteStatement() *DeleteStatement {
	stmt := &DeleteStatement{}

	if !p.expectPeek(lexer.TokenFrom) {
		return nil
	}
	if !p.expectPeek(lexer.TokenIdent) {
		return nil
	}
	stmt.Table = p.curToken.Literal

	if p.peekTokenIs(lexer.TokenWhere) {
		p.nextToken() // move to WHERE
		stmt.Where = p.parseEqualityConjunction()
	}

	return stmt
}

// parseCreateStatement parses CREATE TABLE ... or CREATE INDEX ...
func (p *Parser) parseCreateStatement() Statement {
	if p.peekTokenIs(lexer.TokenIndex) {
		p.nextToken() // move to INDEX
		return p.parseCreateIndexStatement()
	}

	if !p.expectPeek(lexer.TokenTable) {
		return nil
	}
	return p.parseCreateTableStatement()
}

// parseCreateTableStatement parses: CREATE TABLE [IF NOT EXISTS] name (col type, ...)
func (p *Parser) parseCreateTableStatement() *CreateTableStatement {
	stmt := &CreateTableStatement{}

	if p.peekTokenIs(lexer.TokenIf) {
		p.nextToken() // move to IF
		if !p.expectPeek(lexer.TokenNot) {
			return nil
		}
		if !p.expectPeek(lexer.TokenExists) {
			return nil
		}
		stmt.IfNotExists = true
	}

	if !p.expectPeek(lexer.TokenIdent) {
		return nil
	}
	stmt.Table = p.curToken.Literal

	if !p.expectPeek(lexer.TokenLeftParen) {
		return nil
	}
	stmt.Columns = p.parseColumnDefinitions()
	if !p.expectPeek(lexer.TokenRightParen) {
		return nil
	}

	return stmt
}

// parseColumnDefinitions parses: col type, col type, ...
func (p *Parser) parseColumnDefinitions() []ColumnDefinition {
	var columns []ColumnDefinition

	for {
		p.nextToken()
		if !p.curTokenIs(lexer.TokenIdent) {
			p.errors = append(p.errors, "expected column name")
			return nil
		}
		col := ColumnDefinition{Name: p.curToken.Literal}

		p.nextToken()
		col.Type = p.parseColumnType()

		columns = append(columns, col)

		if !p.peekTokenIs(lexer.TokenComma) {
			break
		}
		p.nextToken() // consume comma
	}

	return columns
}

// parseColumnType parses a column's declared type: INT, TEXT, or BOOLEAN.
func (p *Parser) parseColumnType() ColumnType {
	switch p.curToken.Type {
	case lexer.TokenInt:
		return ColumnTypeInt
	case lexer.TokenText:
		return ColumnTypeText
	case lexer.TokenBool:
		return ColumnTypeBoolean
	default:
		p.errors = append(p.errors, fmt.Sprintf("unknown column type: %s", p.curToken.Literal))
		return ColumnTypeInt
	}
}

// parseCreateIndexStatement parses: CREATE INDEX name ON table USING {BTREE|HASH} (cols)
func (p *Parser) parseCreateIndexStatement() *CreateIndexStatement {
	stmt := &CreateIndexStatement{}

	if !p.expectPeek(lexer.TokenIdent) {
		return nil
	}
	stmt.IndexName = p.curToken.Literal

	if !p.expectPeek(lexer.TokenOn) {
		return nil
	}
	if !p.expectPeek(lexer.TokenIdent) {
		return nil
	}
	stmt.Table = p.curToken.Literal

	if !p.expectPeek(lexer.TokenUsing) {
		return nil
	}
	p.nextToken()
	switch p.curToken.Type {
	case lexer.TokenBtree:
		stmt.IndexType = IndexTypeBTree
	case lexer.TokenHash:
		stmt.IndexType = IndexTypeHash
	default:
		p.errors = append(p.errors, fmt.Sprintf("unknown index type: %s", p.curToken.Literal))
		return nil
	}

	if !p.expectPeek(lexer.TokenLeftParen) {
		return nil
	}
	p.nextToken() // move past (
	stmt.Columns = p.parseIdentifierListNoParens()
	if !p.expectPeek(lexer.TokenRightParen) {
		return nil
	}

	return stmt
}

// parseDropStatement parses: DROP TABLE name, or DROP INDEX name FROM table
func (p *Parser) parseDropStatement() Statement {
	if p.peekTokenIs(lexer.TokenIndex) {
		p.nextToken() // move to INDEX
		return p.parseDropIndexStatement()
	}

	if !p.expectPeek(lexer.TokenTable) {
		return nil
	}
	stmt := &DropTableStatement{}
	if !p.expectPeek(lexer.TokenIdent) {
		return nil
	}
	stmt.Table = p.curToken.Literal
	return stmt
}

// parseDropIndexStatement parses: DROP INDEX name FROM table
func (p *Parser) parseDropIndexStatement() *DropIndexStatement {
	stmt := &DropIndexStatement{}

	if !p.expectPeek(lexer.TokenIdent) {
		return nil
	}
	stmt.IndexName = p.curToken.Literal

	if !p.expectPeek(lexer.TokenFrom) {
		return nil
	}
	if !p.expectPeek(lexer.TokenIdent) {
		return nil
	}
	stmt.Table = p.curToken.Literal

	return stmt
}

// parseShowStatement parses: SHOW TABLES, SHOW COLUMNS FROM table, or SHOW INDEX FROM table
func (p *Parser) parseShowStatement() *ShowStatement {
	stmt := &ShowStatement{}

	switch p.peekToken.Type {
	case lexer.TokenTable:
		p.nextToken()
		stmt.Kind = ShowTables
		return stmt
	case lexer.TokenIdent:
		if strings.ToUpper(p.peekToken.Literal) == "TABLES" {
			p.nextToken()
			stmt.Kind = ShowTables
			return stmt
		}
		p.peekError(lexer.TokenTable)
		return nil
	case lexer.TokenColumns:
		p.nextToken()
		stmt.Kind = ShowColumns
	case lexer.TokenIndex:
		p.nextToken()
		stmt.Kind = ShowIndex
	default:
		p.errors = append(p.errors, fmt.Sprintf("unexpected token after SHOW: %s", p.peekToken.Literal))
		return nil
	}

	if !p.expectPeek(lexer.TokenFrom) {
		return nil
	}
	if !p.expectPeek(lexer.TokenIdent) {
		return nil
	}
	stmt.Table = p.curToken.Literal

	return stmt
}
