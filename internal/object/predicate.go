package object

// Predicate tests a record payload.
type Predicate func(data []byte) bool

// Always matches every payload.
func Always(_ []byte) bool { return true }

// ByteEquals matches when data[index] == value; out of range never matches.
func ByteEquals(index int, value byte) Predicate {
	return func(data []byte) bool {
		return index >= 0 && index < len(data) && data[index] == value
	}
}

// Const returns a predicate with a fixed result.
func Const(v bool) Predicate {
	return func([]byte) bool { return v }
}

// And matches when every operand matches.
func And(ps ...Predicate) Predicate {
	return func(data []byte) bool {
		for _, p := range ps {
			if !p(data) {
				return false
			}
		}
		return true
	}
}

// Or matches when any operand matches.
func Or(ps ...Predicate) Predicate {
	return func(data []byte) bool {
		for _, p := range ps {
			if p(data) {
				return true
			}
		}
		return false
	}
}

// Xor folds the operands pairwise left to right.
func Xor(ps ...Predicate) Predicate {
	return func(data []byte) bool {
		v := false
		for i, p := range ps {
			if i == 0 {
				v = p(data)
				continue
			}
			v = v != p(data)
		}
		return v
	}
}

// Not negates p.
func Not(p Predicate) Predicate {
	return func(data []byte) bool { return !p(data) }
}
