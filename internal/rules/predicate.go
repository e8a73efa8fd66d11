package rules

import (
	"errors"
	"fmt"

	"github.com/woozymasta/mw-randomizer/internal/object"
)

// CompilePredicate turns a predicate tree into a payload matcher.
func CompilePredicate(p PredicateDoc) (object.Predicate, error) {
	ops := 0
	for _, set := range []bool{p.Equals != nil, p.Const != nil, p.All != nil, p.Any != nil, p.Xor != nil, p.Not != nil} {
		if set {
			ops++
		}
	}

	switch {
	case ops == 0:
		return nil, errors.New("empty predicate expression")
	case ops > 1:
		return nil, errors.New("predicate node has more than one operator")
	}

	switch {
	case p.Equals != nil:
		if p.Equals.Index < 0 {
			return nil, fmt.Errorf("equals: negative index %d", p.Equals.Index)
		}
		if p.Equals.Value < 0 || p.Equals.Value > 0xFF {
			return nil, fmt.Errorf("equals: value %#x is not a byte", int64(p.Equals.Value))
		}
		return object.ByteEquals(p.Equals.Index, byte(p.Equals.Value)), nil

	case p.Const != nil:
		return object.Const(*p.Const), nil

	case p.All != nil:
		ps, err := compileAll("all", p.All)
		if err != nil {
			return nil, err
		}
		return object.And(ps...), nil

	case p.Any != nil:
		ps, err := compileAll("any", p.Any)
		if err != nil {
			return nil, err
		}
		return object.Or(ps...), nil

	case p.Xor != nil:
		ps, err := compileAll("xor", p.Xor)
		if err != nil {
			return nil, err
		}
		return object.Xor(ps...), nil

	default:
		if len(p.Not) != 1 {
			return nil, fmt.Errorf("not: expected one operand, got %d", len(p.Not))
		}
		inner, err := CompilePredicate(p.Not[0])
		if err != nil {
			return nil, fmt.Errorf("not: %w", err)
		}
		return object.Not(inner), nil
	}
}

func compileAll(op string, nodes []PredicateDoc) ([]object.Predicate, error) {
	if len(nodes) == 0 {
		return nil, fmt.Errorf("%s: empty predicate expression", op)
	}

	out := make([]object.Predicate, 0, len(nodes))
	for i, n := range nodes {
		p, err := CompilePredicate(n)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", op, i, err)
		}
		out = append(out, p)
	}

	return out, nil
}
