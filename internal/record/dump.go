package record

import (
	"fmt"
	"strings"

	"github.com/leitmotif-dev/stratum/internal/attr"
)

// DumpAttributes renders the record as deterministic text: a header line
// with type, id, and state, then one indented line per declared attribute in
// declaration order. Unset attributes render as <unset>.
//
// Debug-only. The output is meant for eyes and golden files, not parsing.
func (r *Record) DumpAttributes() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s [%s]\n", r.et.Name, r.id, r.state)
	for _, a := range r.et.Attributes {
		v := r.attrs[a.Name] // nil when unset; Encode renders <unset>
		fmt.Fprintf(&b, "  %s: %s\n", a.Name, attr.Encode(v))
	}
	return b.String()
}
