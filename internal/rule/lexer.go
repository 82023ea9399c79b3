package rule

import (
	"fmt"
	"strings"
)

type tokenType int

const (
	tokenEOF tokenType = iota
	tokenIdent
	tokenNumber
	tokenString
	tokenOp     // > < >= <= == !=
	tokenLParen
	tokenRParen
	tokenAnd
	tokenOr
	tokenNot
)

type token struct {
	typ  tokenType
	text string
	pos  int // byte offset in the rule text
}

// SyntaxError reports a malformed rule with the offending token and its
// position. Raised once at parse time, before any simulation work begins.
type SyntaxError struct {
	Rule  string
	Pos   int
	Token string
	Msg   string
}

func (e *SyntaxError) Error() string {
	if e.Token == "" {
		return fmt.Sprintf("rule syntax error at position %d: %s (rule: %q)", e.Pos, e.Msg, e.Rule)
	}
	return fmt.Sprintf("rule syntax error at position %d near %q: %s (rule: %q)", e.Pos, e.Token, e.Msg, e.Rule)
}

// tokenize splits the rule text into tokens. AND/OR/NOT are matched
// case-insensitively.
func tokenize(text string) ([]token, error) {
	var tokens []token
	i := 0

	for i < len(text) {
		c := text[i]

		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++

		case c == '(':
			tokens = append(tokens, token{typ: tokenLParen, text: "(", pos: i})
			i++

		case c == ')':
			tokens = append(tokens, token{typ: tokenRParen, text: ")", pos: i})
			i++

		case c == '>' || c == '<':
			op := string(c)
			if i+1 < len(text) && text[i+1] == '=' {
				op += "="
			}
			tokens = append(tokens, token{typ: tokenOp, text: op, pos: i})
			i += len(op)

		case c == '=' || c == '!':
			if i+1 >= len(text) || text[i+1] != '=' {
				return nil, &SyntaxError{Rule: text, Pos: i, Token: string(c), Msg: "expected comparison operator"}
			}
			tokens = append(tokens, token{typ: tokenOp, text: string(c) + "=", pos: i})
			i += 2

		case c == '\'' || c == '"':
			quote := c
			j := i + 1
			for j < len(text) && text[j] != quote {
				j++
			}
			if j >= len(text) {
				return nil, &SyntaxError{Rule: text, Pos: i, Msg: "unterminated string literal"}
			}
			tokens = append(tokens, token{typ: tokenString, text: text[i+1 : j], pos: i})
			i = j + 1

		case isDigit(c) || ((c == '-' || c == '+') && i+1 < len(text) && isDigit(text[i+1])):
			j := i
			if c == '-' || c == '+' {
				j++
			}
			for j < len(text) && (isDigit(text[j]) || text[j] == '.') {
				j++
			}
			tokens = append(tokens, token{typ: tokenNumber, text: text[i:j], pos: i})
			i = j

		case isIdentStart(c):
			j := i
			for j < len(text) && isIdentPart(text[j]) {
				j++
			}
			word := text[i:j]
			typ := tokenIdent
			switch strings.ToUpper(word) {
			case "AND":
				typ = tokenAnd
			case "OR":
				typ = tokenOr
			case "NOT":
				typ = tokenNot
			}
			tokens = append(tokens, token{typ: typ, text: word, pos: i})
			i = j

		default:
			return nil, &SyntaxError{Rule: text, Pos: i, Token: string(c), Msg: "unexpected character"}
		}
	}

	tokens = append(tokens, token{typ: tokenEOF, pos: len(text)})
	return tokens, nil
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool { return isIdentStart(c) || isDigit(c) }
