package attr

import (
	"encoding/base64"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/leitmotif-dev/stratum/internal/schema"
)

// Value is a sealed interface over the attribute value types.
// Only String, Int, Float, Bool, Time, Bytes, and Ref implement it.
type Value interface {
	attrValue() // sealed

	// Kind returns the schema kind this value satisfies.
	Kind() schema.Kind
}

// String is a UTF-8 text value.
type String string

func (String) attrValue()        {}
func (String) Kind() schema.Kind { return schema.KindString }

// Int is a 64-bit signed integer value.
type Int int64

func (Int) attrValue()        {}
func (Int) Kind() schema.Kind { return schema.KindInt }

// Float is a 64-bit floating point value.
type Float float64

func (Float) attrValue()        {}
func (Float) Kind() schema.Kind { return schema.KindFloat }

// Bool is a boolean value.
type Bool bool

func (Bool) attrValue()        {}
func (Bool) Kind() schema.Kind { return schema.KindBool }

// Time is a timestamp value. Stored and rendered in UTC.
type Time time.Time

func (Time) attrValue()        {}
func (Time) Kind() schema.Kind { return schema.KindTime }

// Std returns the value as a time.Time.
func (t Time) Std() time.Time { return time.Time(t) }

// Bytes is an opaque binary value.
type Bytes []byte

func (Bytes) attrValue()        {}
func (Bytes) Kind() schema.Kind { return schema.KindBytes }

// Ref holds the id of a record of the attribute's target entity type.
type Ref string

func (Ref) attrValue()        {}
func (Ref) Kind() schema.Kind { return schema.KindRef }

// FromAny converts a plain Go value into its natural attribute value.
// Integer types become Int, float types Float, and so on. nil is rejected:
// absence is modeled by not setting the attribute at all.
func FromAny(v any) (Value, error) {
	switch val := v.(type) {
	case Value:
		return val, nil
	case string:
		return String(val), nil
	case bool:
		return Bool(val), nil
	case int:
		return Int(val), nil
	case int8:
		return Int(val), nil
	case int16:
		return Int(val), nil
	case int32:
		return Int(val), nil
	case int64:
		return Int(val), nil
	case uint:
		if uint64(val) > math.MaxInt64 {
			return nil, fmt.Errorf("attr: %d overflows int64", val)
		}
		return Int(val), nil
	case uint64:
		if val > math.MaxInt64 {
			return nil, fmt.Errorf("attr: %d overflows int64", val)
		}
		return Int(val), nil
	case float32:
		return Float(val), nil
	case float64:
		return Float(val), nil
	case []byte:
		return Bytes(val), nil
	case time.Time:
		return Time(val), nil
	case nil:
		return nil, fmt.Errorf("attr: nil has no attribute value")
	default:
		return nil, fmt.Errorf("attr: unsupported value type %T", v)
	}
}

// Coerce converts a plain Go value into a Value of the declared kind.
// It accepts the natural representation plus the lossless conversions that
// show up in YAML and JSON input: ints for floats, strings for refs, RFC 3339
// strings for times, and base64 strings for bytes.
func Coerce(k schema.Kind, v any) (Value, error) {
	nat, err := FromAny(v)
	if err != nil {
		return nil, err
	}
	if nat.Kind() == k {
		return nat, nil
	}

	switch k {
	case schema.KindFloat:
		if i, ok := nat.(Int); ok {
			return Float(i), nil
		}
	case schema.KindInt:
		if f, ok := nat.(Float); ok && float64(f) == math.Trunc(float64(f)) {
			return Int(f), nil
		}
	case schema.KindRef:
		if s, ok := nat.(String); ok {
			return Ref(s), nil
		}
	case schema.KindTime:
		if s, ok := nat.(String); ok {
			return Parse(k, string(s))
		}
	case schema.KindBytes:
		if s, ok := nat.(String); ok {
			return Parse(k, string(s))
		}
	}

	return nil, fmt.Errorf("attr: cannot use %T as %s", v, k)
}

// Parse converts textual input (CLI flags, fixtures) into a Value of the
// given kind. Times parse as RFC 3339; bytes as standard base64.
func Parse(k schema.Kind, s string) (Value, error) {
	switch k {
	case schema.KindString:
		return String(s), nil
	case schema.KindRef:
		return Ref(s), nil
	case schema.KindInt:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("attr: parse int %q: %w", s, err)
		}
		return Int(n), nil
	case schema.KindFloat:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("attr: parse float %q: %w", s, err)
		}
		return Float(f), nil
	case schema.KindBool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return nil, fmt.Errorf("attr: parse bool %q: %w", s, err)
		}
		return Bool(b), nil
	case schema.KindTime:
		ts, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return nil, fmt.Errorf("attr: parse time %q: %w", s, err)
		}
		return Time(ts), nil
	case schema.KindBytes:
		b, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return nil, fmt.Errorf("attr: parse bytes %q: %w", s, err)
		}
		return Bytes(b), nil
	default:
		return nil, fmt.Errorf("attr: unknown kind %q", k)
	}
}

// Equal reports whether two values are the same kind and content.
// Times compare by instant, not by location.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch av := a.(type) {
	case Time:
		return av.Std().Equal(b.(Time).Std())
	case Bytes:
		bv := b.(Bytes)
		if len(av) != len(bv) {
			return false
		}
		for i := range av {
			if av[i] != bv[i] {
				return false
			}
		}
		return true
	default:
		return a == b
	}
}
