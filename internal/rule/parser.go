package rule

import (
	"strconv"
)

// Parse builds an Expression from rule text. It is a pure function: the same
// text always yields an equivalent tree, and the returned tree is never
// mutated. Malformed input returns *SyntaxError.
//
// Grammar, lowest to highest precedence:
//
//	expr       = orExpr
//	orExpr     = andExpr { OR andExpr }
//	andExpr    = unary { AND unary }
//	unary      = NOT unary | primary
//	primary    = "(" expr ")" | comparison
//	comparison = field op literal
func Parse(text string) (Expression, error) {
	tokens, err := tokenize(text)
	if err != nil {
		return nil, err
	}

	p := &parser{rule: text, tokens: tokens}
	expr, err := p.parseOr()
	if err != nil {
		return nil, err
	}

	if tok := p.peek(); tok.typ != tokenEOF {
		return nil, p.errorf(tok, "trailing tokens after expression")
	}
	return expr, nil
}

type parser struct {
	rule   string
	tokens []token
	pos    int
}

func (p *parser) peek() token { return p.tokens[p.pos] }

func (p *parser) next() token {
	tok := p.tokens[p.pos]
	if tok.typ != tokenEOF {
		p.pos++
	}
	return tok
}

func (p *parser) errorf(tok token, msg string) error {
	return &SyntaxError{Rule: p.rule, Pos: tok.pos, Token: tok.text, Msg: msg}
}

func (p *parser) parseOr() (Expression, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.peek().typ == tokenOr {
		p.next()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &orExpr{left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (Expression, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.peek().typ == tokenAnd {
		p.next()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &andExpr{left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseUnary() (Expression, error) {
	if p.peek().typ == tokenNot {
		p.next()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &notExpr{operand: operand}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (Expression, error) {
	tok := p.peek()

	if tok.typ == tokenLParen {
		p.next()
		expr, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if closing := p.next(); closing.typ != tokenRParen {
			return nil, p.errorf(closing, "expected closing parenthesis")
		}
		return expr, nil
	}

	return p.parseComparison()
}

func (p *parser) parseComparison() (Expression, error) {
	fieldTok := p.next()
	if fieldTok.typ != tokenIdent {
		return nil, p.errorf(fieldTok, "expected field name")
	}

	f, ok := fieldTable[fieldTok.text]
	if !ok {
		return nil, p.errorf(fieldTok, "unknown field name")
	}

	opTok := p.next()
	if opTok.typ != tokenOp {
		return nil, p.errorf(opTok, "expected comparison operator")
	}
	op := compareOp(opTok.text)

	valueTok := p.next()

	if f.kind == kindSymbol {
		if op != opEQ && op != opNE {
			return nil, p.errorf(opTok, "symbol supports only == and !=")
		}
		if valueTok.typ != tokenString && valueTok.typ != tokenIdent {
			return nil, p.errorf(valueTok, "expected symbol literal")
		}
		return &symbolCompare{op: op, value: valueTok.text}, nil
	}

	if valueTok.typ != tokenNumber {
		return nil, p.errorf(valueTok, "expected numeric literal")
	}
	value, err := strconv.ParseFloat(valueTok.text, 64)
	if err != nil {
		return nil, p.errorf(valueTok, "malformed number")
	}

	return &numericCompare{field: f, op: op, value: value}, nil
}
