package assertion

import (
	"fmt"
	"strconv"
	"strings"
)

// Op is a count comparator kind.
type Op int

const (
	OpEq Op = iota
	OpGte
	OpGt
	OpLte
	OpLt
)

func (op Op) String() string {
	switch op {
	case OpEq:
		return "=="
	case OpGte:
		return ">="
	case OpGt:
		return ">"
	case OpLte:
		return "<="
	case OpLt:
		return "<"
	default:
		return "?"
	}
}

// Expectation is the parsed form of an expected_result_count
// expression: one comparator plus its operand.
type Expectation struct {
	Op    Op
	Value int
}

// Met reports whether the actual record count satisfies the expectation.
func (e Expectation) Met(actual int) bool {
	switch e.Op {
	case OpEq:
		return actual == e.Value
	case OpGte:
		return actual >= e.Value
	case OpGt:
		return actual > e.Value
	case OpLte:
		return actual <= e.Value
	case OpLt:
		return actual < e.Value
	default:
		return false
	}
}

func (e Expectation) String() string {
	return fmt.Sprintf("%s %d", e.Op, e.Value)
}

// ParseError names an expected_result_count expression that does not
// match the grammar.
type ParseError struct {
	Expr string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse expected_result_count: %q", e.Expr)
}

// ParseExpectation parses an expected-count expression. Accepted forms:
// a bare integer (exact equality), ">= N", "> N", "<= N", "< N", and
// the range shorthand "~N-M", which is treated as "at least N". The
// upper bound is accepted syntactically but intentionally not enforced.
func ParseExpectation(raw any) (Expectation, error) {
	switch v := raw.(type) {
	case int:
		return Expectation{Op: OpEq, Value: v}, nil
	case int64:
		return Expectation{Op: OpEq, Value: int(v)}, nil
	case uint64:
		return Expectation{Op: OpEq, Value: int(v)}, nil
	case float64:
		if v == float64(int(v)) {
			return Expectation{Op: OpEq, Value: int(v)}, nil
		}
		return Expectation{}, &ParseError{Expr: fmt.Sprint(raw)}
	case string:
		return parseString(v)
	case nil:
		return Expectation{}, &ParseError{Expr: "<missing>"}
	default:
		return Expectation{}, &ParseError{Expr: fmt.Sprint(raw)}
	}
}

func parseString(expr string) (Expectation, error) {
	s := strings.TrimSpace(expr)

	// Two-character operators must be checked before their prefixes.
	for _, cand := range []struct {
		prefix string
		op     Op
	}{
		{">=", OpGte},
		{"<=", OpLte},
		{">", OpGt},
		{"<", OpLt},
	} {
		if strings.HasPrefix(s, cand.prefix) {
			n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(s, cand.prefix)))
			if err != nil {
				return Expectation{}, &ParseError{Expr: expr}
			}
			return Expectation{Op: cand.op, Value: n}, nil
		}
	}

	// "~N-M" range shorthand: at least N, upper bound unenforced.
	if strings.HasPrefix(s, "~") {
		lower, _, ok := strings.Cut(strings.TrimPrefix(s, "~"), "-")
		if ok {
			n, err := strconv.Atoi(strings.TrimSpace(lower))
			if err == nil {
				return Expectation{Op: OpGte, Value: n}, nil
			}
		}
		return Expectation{}, &ParseError{Expr: expr}
	}

	if n, err := strconv.Atoi(s); err == nil {
		return Expectation{Op: OpEq, Value: n}, nil
	}
	return Expectation{}, &ParseError{Expr: expr}
}
