package anyform

import (
	"time"

	"github.com/elliotchance/orderedmap/v2"
)

// Object is a string-keyed map that preserves key insertion order. It is the
// object node of the generic tree value; the other nodes are []any for
// arrays, and nil / bool / string / int64 / uint64 / float64 / time.Time for
// scalars.
type Object struct {
	m *orderedmap.OrderedMap[string, any]
}

// NewObject returns an empty ordered object.
func NewObject() *Object {
	return &Object{m: orderedmap.NewOrderedMap[string, any]()}
}

// Set stores v under key. Setting an existing key updates its value in place
// and keeps the key's original position.
func (o *Object) Set(key string, v any) { o.m.Set(key, v) }

// Get returns the value stored under key, and whether the key exists.
func (o *Object) Get(key string) (any, bool) { return o.m.Get(key) }

// Delete removes key, reporting whether it was present.
func (o *Object) Delete(key string) bool { return o.m.Delete(key) }

// Len returns the number of keys.
func (o *Object) Len() int { return o.m.Len() }

// Keys returns the keys in insertion order.
func (o *Object) Keys() []string { return o.m.Keys() }

// Range calls fn for each key/value pair in insertion order until fn returns
// false.
func (o *Object) Range(fn func(key string, v any) bool) {
	for el := o.m.Front(); el != nil; el = el.Next() {
		if !fn(el.Key, el.Value) {
			return
		}
	}
}

// Equal reports deep equality of two generic tree values. Objects compare by
// key order and per-key values; numbers compare across int64/uint64/float64
// when they denote the same quantity, so trees that went through a codec with
// a single native number type still compare equal to their source.
func Equal(a, b any) bool {
	if na, ok := numeric(a); ok {
		nb, ok := numeric(b)
		return ok && na == nb
	}
	switch av := a.(type) {
	case nil:
		return b == nil
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case time.Time:
		bv, ok := b.(time.Time)
		return ok && av.Equal(bv)
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	case *Object:
		bv, ok := b.(*Object)
		if !ok || av.Len() != bv.Len() {
			return false
		}
		ak, bk := av.Keys(), bv.Keys()
		for i := range ak {
			if ak[i] != bk[i] {
				return false
			}
			x, _ := av.Get(ak[i])
			y, _ := bv.Get(bk[i])
			if !Equal(x, y) {
				return false
			}
		}
		return true
	}
	return false
}

func numeric(v any) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float64:
		return n, true
	case int:
		return float64(n), true
	}
	return 0, false
}
