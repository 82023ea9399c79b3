package rule

import (
	"fmt"
	"strconv"

	"stockpick/internal/contracts"
)

// Expression is an immutable, reusable rule AST. Evaluate has no side
// effects, so one parsed expression can serve concurrent evaluations across
// the whole stock universe.
type Expression interface {
	// Evaluate applies the rule to one metrics record.
	Evaluate(rec *contracts.MetricsRecord) bool

	// String renders the canonical form of the expression. Parsing the
	// canonical form yields an identical tree.
	String() string

	collectFields(set map[string]bool)
}

// Fields returns the distinct field names referenced by the expression,
// sorted (symbol included when used).
func Fields(expr Expression) []string {
	set := make(map[string]bool)
	expr.collectFields(set)

	var ordered []string
	for _, name := range FieldNames() {
		if set[name] {
			ordered = append(ordered, name)
		}
	}
	return ordered
}

type compareOp string

const (
	opGT compareOp = ">"
	opLT compareOp = "<"
	opGE compareOp = ">="
	opLE compareOp = "<="
	opEQ compareOp = "=="
	opNE compareOp = "!="
)

// numericCompare is `<field> <op> <number>`.
type numericCompare struct {
	field field
	op    compareOp
	value float64
}

func (c *numericCompare) Evaluate(rec *contracts.MetricsRecord) bool {
	v := c.field.get(rec)
	if contracts.IsUnavailable(v) {
		// An unavailable horizon excludes the stock from every comparison,
		// != included.
		return false
	}
	switch c.op {
	case opGT:
		return v > c.value
	case opLT:
		return v < c.value
	case opGE:
		return v >= c.value
	case opLE:
		return v <= c.value
	case opEQ:
		return v == c.value
	case opNE:
		return v != c.value
	}
	return false
}

func (c *numericCompare) String() string {
	// Plain decimal form; the lexer has no exponent syntax, so the
	// canonical print must stay reparseable for any accepted literal.
	return fmt.Sprintf("%s %s %s", c.field.name, c.op, strconv.FormatFloat(c.value, 'f', -1, 64))
}

func (c *numericCompare) collectFields(set map[string]bool) { set[c.field.name] = true }

// symbolCompare is `symbol ==|!= <token>`.
type symbolCompare struct {
	op    compareOp
	value string
}

func (c *symbolCompare) Evaluate(rec *contracts.MetricsRecord) bool {
	if c.op == opEQ {
		return rec.Symbol == c.value
	}
	return rec.Symbol != c.value
}

func (c *symbolCompare) String() string {
	return fmt.Sprintf("%s %s %q", SymbolField, c.op, c.value)
}

func (c *symbolCompare) collectFields(set map[string]bool) { set[SymbolField] = true }

// andExpr short-circuits left to right.
type andExpr struct {
	left, right Expression
}

func (e *andExpr) Evaluate(rec *contracts.MetricsRecord) bool {
	return e.left.Evaluate(rec) && e.right.Evaluate(rec)
}

func (e *andExpr) String() string {
	return "(" + e.left.String() + " AND " + e.right.String() + ")"
}

func (e *andExpr) collectFields(set map[string]bool) {
	e.left.collectFields(set)
	e.right.collectFields(set)
}

// orExpr short-circuits left to right.
type orExpr struct {
	left, right Expression
}

func (e *orExpr) Evaluate(rec *contracts.MetricsRecord) bool {
	return e.left.Evaluate(rec) || e.right.Evaluate(rec)
}

func (e *orExpr) String() string {
	return "(" + e.left.String() + " OR " + e.right.String() + ")"
}

func (e *orExpr) collectFields(set map[string]bool) {
	e.left.collectFields(set)
	e.right.collectFields(set)
}

type notExpr struct {
	operand Expression
}

func (e *notExpr) Evaluate(rec *contracts.MetricsRecord) bool {
	return !e.operand.Evaluate(rec)
}

func (e *notExpr) String() string {
	return "NOT " + e.operand.String()
}

func (e *notExpr) collectFields(set map[string]bool) {
	e.operand.collectFields(set)
}
