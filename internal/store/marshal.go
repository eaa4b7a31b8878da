package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/leitmotif-dev/stratum/internal/attr"
	"github.com/leitmotif-dev/stratum/internal/schema"
)

// timeLayout is the stored form of KindTime values: RFC 3339 with
// nanoseconds, always UTC.
const timeLayout = time.RFC3339Nano

// bindValue converts an attribute value to its SQL parameter form. An unset
// attribute binds as NULL.
func bindValue(v attr.Value) any {
	switch val := v.(type) {
	case nil:
		return nil
	case attr.String:
		return string(val)
	case attr.Ref:
		return string(val)
	case attr.Int:
		return int64(val)
	case attr.Float:
		return float64(val)
	case attr.Bool:
		if val {
			return int64(1)
		}
		return int64(0)
	case attr.Time:
		return val.Std().UTC().Format(timeLayout)
	case attr.Bytes:
		return []byte(val)
	default:
		// The attr.Value union is sealed.
		panic(fmt.Sprintf("store: unbindable value %T", v))
	}
}

// scanDest returns a scan destination for a column of the given kind.
func scanDest(k schema.Kind) any {
	switch k {
	case schema.KindString, schema.KindRef, schema.KindTime:
		return new(sql.NullString)
	case schema.KindInt, schema.KindBool:
		return new(sql.NullInt64)
	case schema.KindFloat:
		return new(sql.NullFloat64)
	case schema.KindBytes:
		return new([]byte)
	default:
		panic(fmt.Sprintf("store: unscannable kind %q", k))
	}
}

// holderValue converts a scanned destination back to an attribute value.
// NULL columns come back as (nil, false).
func holderValue(a schema.Attribute, holder any) (attr.Value, bool, error) {
	switch a.Kind {
	case schema.KindString:
		h := holder.(*sql.NullString)
		if !h.Valid {
			return nil, false, nil
		}
		return attr.String(h.String), true, nil
	case schema.KindRef:
		h := holder.(*sql.NullString)
		if !h.Valid {
			return nil, false, nil
		}
		return attr.Ref(h.String), true, nil
	case schema.KindTime:
		h := holder.(*sql.NullString)
		if !h.Valid {
			return nil, false, nil
		}
		ts, err := time.Parse(timeLayout, h.String)
		if err != nil {
			return nil, false, fmt.Errorf("attribute %s: stored time %q: %w", a.Name, h.String, err)
		}
		return attr.Time(ts), true, nil
	case schema.KindInt:
		h := holder.(*sql.NullInt64)
		if !h.Valid {
			return nil, false, nil
		}
		return attr.Int(h.Int64), true, nil
	case schema.KindBool:
		h := holder.(*sql.NullInt64)
		if !h.Valid {
			return nil, false, nil
		}
		return attr.Bool(h.Int64 != 0), true, nil
	case schema.KindFloat:
		h := holder.(*sql.NullFloat64)
		if !h.Valid {
			return nil, false, nil
		}
		return attr.Float(h.Float64), true, nil
	case schema.KindBytes:
		h := holder.(*[]byte)
		if *h == nil {
			return nil, false, nil
		}
		return attr.Bytes(*h), true, nil
	default:
		panic(fmt.Sprintf("store: unscannable kind %q", a.Kind))
	}
}
