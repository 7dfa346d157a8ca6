package stm

import "reflect"

// Numeric is the set of scalar types TVar can carry directly as a single
// machine word. Wider or boxed types are out of scope for the core engine
// (§1 Non-goals: "multi-word atomics wider than one machine word").
type Numeric interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr | ~bool
}

// TVar is a typed convenience wrapper over Var, for callers who would
// rather not hand-encode bit patterns themselves. It adds no protocol of
// its own: Load/Store below are plain codecs around *Var's word.
type TVar[T Numeric] struct {
	v *Var
}

// NewTVar creates a typed transactional variable initialized to val.
func NewTVar[T Numeric](val T) *TVar[T] {
	return &TVar[T]{v: NewVar(encodeNumeric(val))}
}

func (tv *TVar[T]) Load(t *Txn) T {
	return decodeNumeric[T](load(t, tv.v))
}

func (tv *TVar[T]) Store(t *Txn, val T) {
	store(t, tv.v, encodeNumeric(val))
}

// encodeNumeric and decodeNumeric reinterpret a Numeric value against its
// uint64 word form by reflect.Kind rather than concrete type, so a
// defined type like `type Score int64` (which satisfies the ~int64 term
// in Numeric just as well as plain int64 does) converts correctly
// instead of falling through to a type switch that only ever matches
// the unnamed predeclared types.
func encodeNumeric[T Numeric](val T) uint64 {
	rv := reflect.ValueOf(val)
	switch rv.Kind() {
	case reflect.Bool:
		if rv.Bool() {
			return 1
		}
		return 0
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return uint64(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint()
	default:
		panic("stm: unsupported TVar element type")
	}
}

func decodeNumeric[T Numeric](word uint64) T {
	var zero T
	rv := reflect.ValueOf(&zero).Elem()
	switch rv.Kind() {
	case reflect.Bool:
		rv.SetBool(word != 0)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		rv.SetInt(int64(word))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		rv.SetUint(word)
	default:
		panic("stm: unsupported TVar element type")
	}
	return zero
}
