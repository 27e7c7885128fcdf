// Package filter implements the algebraic predicate tree of spec §4.H,
// evaluated against a row's named column values.
package filter

import (
	"strings"

	"github.com/kasuganosora/pagedb/storage/value"
)

// ErrInvalidQuery is returned when a Filter is structurally well-formed
// but cannot be evaluated — a Like applied to a non-Text value or with a
// non-Text pattern, or an unrecognized operator (spec §7). A column
// absent from the row is not an error: it evaluates false.
type ErrInvalidQuery struct {
	Reason string
}

func (e *ErrInvalidQuery) Error() string { return "filter: invalid query: " + e.Reason }

// Row is the column-name-keyed view a Filter evaluates against. Database
// layers build one per candidate record before calling Matches.
type Row map[string]value.Value

// Op identifies the shape of a Filter node.
type Op int

const (
	OpEq Op = iota
	OpNe
	OpGt
	OpLt
	OpGe
	OpLe
	OpIn
	OpLike
	OpIsNull
	OpNotNull
	OpAnd
	OpOr
	OpNot
)

// Filter is the algebraic predicate tree of spec §4.H. Leaf nodes
// (Eq..NotNull) carry Column and Operand(s); combinators (And/Or/Not)
// carry Children.
type Filter struct {
	Op       Op
	Column   string
	Operand  value.Value
	Operands []value.Value
	Children []Filter
}

func Eq(column string, v value.Value) Filter  { return Filter{Op: OpEq, Column: column, Operand: v} }
func Ne(column string, v value.Value) Filter  { return Filter{Op: OpNe, Column: column, Operand: v} }
func Gt(column string, v value.Value) Filter  { return Filter{Op: OpGt, Column: column, Operand: v} }
func Lt(column string, v value.Value) Filter  { return Filter{Op: OpLt, Column: column, Operand: v} }
func Ge(column string, v value.Value) Filter  { return Filter{Op: OpGe, Column: column, Operand: v} }
func Le(column string, v value.Value) Filter  { return Filter{Op: OpLe, Column: column, Operand: v} }
func In(column string, vs ...value.Value) Filter {
	return Filter{Op: OpIn, Column: column, Operands: vs}
}
func Like(column string, pattern string) Filter {
	return Filter{Op: OpLike, Column: column, Operand: value.NewText(pattern)}
}
func IsNull(column string) Filter  { return Filter{Op: OpIsNull, Column: column} }
func NotNull(column string) Filter { return Filter{Op: OpNotNull, Column: column} }
func And(children ...Filter) Filter { return Filter{Op: OpAnd, Children: children} }
func Or(children ...Filter) Filter  { return Filter{Op: OpOr, Children: children} }
func Not(child Filter) Filter       { return Filter{Op: OpNot, Children: []Filter{child}} }

// Matches evaluates the filter tree against row (spec §4.H).
func (f Filter) Matches(row Row) (bool, error) {
	switch f.Op {
	case OpAnd:
		for _, c := range f.Children {
			ok, err := c.Matches(row)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	case OpOr:
		for _, c := range f.Children {
			ok, err := c.Matches(row)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	case OpNot:
		ok, err := f.Children[0].Matches(row)
		if err != nil {
			return false, err
		}
		return !ok, nil
	}

	col, ok := row[f.Column]
	if !ok {
		// spec §4.H: a column absent from the row is not an error — every
		// comparison, In, Like, IsNull, and NotNull evaluates false
		// against it, the same as a structurally invalid query never
		// would be (an absent column is simply "doesn't match").
		return false, nil
	}

	switch f.Op {
	case OpIsNull:
		return col.IsNull(), nil
	case OpNotNull:
		return !col.IsNull(), nil
	case OpEq:
		return value.Equal(col, f.Operand), nil
	case OpNe:
		return !value.Equal(col, f.Operand), nil
	case OpGt:
		return !col.IsNull() && !f.Operand.IsNull() && value.Compare(col, f.Operand) > 0, nil
	case OpLt:
		return !col.IsNull() && !f.Operand.IsNull() && value.Compare(col, f.Operand) < 0, nil
	case OpGe:
		return !col.IsNull() && !f.Operand.IsNull() && value.Compare(col, f.Operand) >= 0, nil
	case OpLe:
		return !col.IsNull() && !f.Operand.IsNull() && value.Compare(col, f.Operand) <= 0, nil
	case OpIn:
		for _, o := range f.Operands {
			if value.Equal(col, o) {
				return true, nil
			}
		}
		return false, nil
	case OpLike:
		return matchLike(col, f.Operand)
	default:
		return false, &ErrInvalidQuery{Reason: "unrecognized operator"}
	}
}

// matchLike implements SQL-style Like: '%' matches any run of characters,
// '_' matches exactly one, and '%%' is a literal '%' (spec §4.H). Only
// valid against Text columns.
func matchLike(col, pattern value.Value) (bool, error) {
	text, ok := col.AsText()
	if col.IsNull() {
		return false, nil
	}
	if !ok {
		return false, &ErrInvalidQuery{Reason: "Like requires a Text column"}
	}
	pat, ok := pattern.AsText()
	if !ok {
		return false, &ErrInvalidQuery{Reason: "Like requires a Text pattern"}
	}
	return likeMatch(text, pat), nil
}

func likeMatch(s, pattern string) bool {
	tokens := tokenizeLike(pattern)
	return likeMatchTokens(s, tokens)
}

type likeToken struct {
	literal  string
	wildcard bool // '%'
	single   bool // '_'
}

func tokenizeLike(pattern string) []likeToken {
	var tokens []likeToken
	var lit strings.Builder
	flush := func() {
		if lit.Len() > 0 {
			tokens = append(tokens, likeToken{literal: lit.String()})
			lit.Reset()
		}
	}
	runes := []rune(pattern)
	for i := 0; i < len(runes); i++ {
		switch runes[i] {
		case '%':
			if i+1 < len(runes) && runes[i+1] == '%' {
				lit.WriteRune('%')
				i++
				continue
			}
			flush()
			tokens = append(tokens, likeToken{wildcard: true})
		case '_':
			flush()
			tokens = append(tokens, likeToken{single: true})
		default:
			lit.WriteRune(runes[i])
		}
	}
	flush()
	return tokens
}

func likeMatchTokens(s string, tokens []likeToken) bool {
	runes := []rune(s)
	return likeMatchRec(runes, tokens)
}

func likeMatchRec(s []rune, tokens []likeToken) bool {
	if len(tokens) == 0 {
		return len(s) == 0
	}
	t := tokens[0]
	switch {
	case t.wildcard:
		for i := 0; i <= len(s); i++ {
			if likeMatchRec(s[i:], tokens[1:]) {
				return true
			}
		}
		return false
	case t.single:
		if len(s) == 0 {
			return false
		}
		return likeMatchRec(s[1:], tokens[1:])
	default:
		lit := []rune(t.literal)
		if len(s) < len(lit) {
			return false
		}
		for i, r := range lit {
			if s[i] != r {
				return false
			}
		}
		return likeMatchRec(s[len(lit):], tokens[1:])
	}
}
