package attr

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"golang.org/x/text/unicode/norm"
)

// Encode renders a value as deterministic text for debug dumps and golden
// comparisons. The encoding is stable across runs and platforms:
//
//   - strings and refs: NFC normalized, JSON quoted without HTML escaping
//   - ints: base-10
//   - floats: shortest round-trip form
//   - bools: true / false
//   - times: UTC RFC 3339 with nanoseconds, quoted
//   - bytes: b64-prefixed standard base64
//
// This is a presentation encoding, not a wire format; the store binds values
// to SQL parameters directly.
func Encode(v Value) string {
	switch val := v.(type) {
	case String:
		return encodeString(string(val))
	case Ref:
		return encodeString(string(val))
	case Int:
		return strconv.FormatInt(int64(val), 10)
	case Float:
		return strconv.FormatFloat(float64(val), 'g', -1, 64)
	case Bool:
		return strconv.FormatBool(bool(val))
	case Time:
		return encodeString(val.Std().UTC().Format(time.RFC3339Nano))
	case Bytes:
		return "b64:" + base64.StdEncoding.EncodeToString(val)
	case nil:
		return "<unset>"
	default:
		// The Value union is sealed; this is unreachable for real values.
		return fmt.Sprintf("<?%T>", v)
	}
}

// encodeString NFC-normalizes at the serialization boundary and quotes with
// HTML escaping disabled so <, >, and & render literally.
func encodeString(s string) string {
	normalized := norm.NFC.String(s)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(normalized); err != nil {
		// Strings always encode; keep the signature error-free.
		return strconv.Quote(normalized)
	}

	// json.Encoder adds a trailing newline, remove it.
	out := buf.Bytes()
	if n := len(out); n > 0 && out[n-1] == '\n' {
		out = out[:n-1]
	}
	return string(out)
}
