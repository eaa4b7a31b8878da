package record

import (
	"fmt"

	"github.com/leitmotif-dev/stratum/internal/attr"
	"github.com/leitmotif-dev/stratum/internal/schema"
)

// Record is one persisted entity instance: a descriptor, a caller-assigned
// id, and the declared attributes that have values. Attributes the caller
// never set are absent, which maps to NULL columns.
//
// Records are not safe for concurrent use; like the store that manages them,
// they belong to a single goroutine.
type Record struct {
	et    *schema.EntityType
	id    string
	attrs map[string]attr.Value
	state State
}

// New constructs an Unsaved record of the given entity type. The id is the
// caller's responsibility and must be unique within the entity type.
func New(et *schema.EntityType, id string) *Record {
	return &Record{
		et:    et,
		id:    id,
		attrs: make(map[string]attr.Value, len(et.Attributes)),
	}
}

// EntityType returns the record's type descriptor.
func (r *Record) EntityType() *schema.EntityType { return r.et }

// TypeName returns the entity type name.
func (r *Record) TypeName() string { return r.et.Name }

// ID returns the record's id.
func (r *Record) ID() string { return r.id }

// State returns the record's lifecycle state.
func (r *Record) State() State { return r.state }

// Persisted reports whether the record has a durable row behind it.
// Pending changes staged over that row do not clear it.
func (r *Record) Persisted() bool {
	return r.state == Persisted || r.state == PendingUpdate || r.state == PendingDelete
}

// SetState advances the lifecycle state. It exists for the store's working
// set bookkeeping; application code has no reason to call it.
func (r *Record) SetState(s State) { r.state = s }

// Set assigns a declared attribute. The name must be declared on the entity
// type and the value's kind must match the declaration.
func (r *Record) Set(name string, v attr.Value) error {
	a, ok := r.et.Attribute(name)
	if !ok {
		return fmt.Errorf("record %s: no attribute %q", r.et.Name, name)
	}
	if v == nil {
		return fmt.Errorf("record %s: nil value for %q; use Unset", r.et.Name, name)
	}
	if v.Kind() != a.Kind {
		return fmt.Errorf("record %s: attribute %q is %s, got %s", r.et.Name, name, a.Kind, v.Kind())
	}
	r.attrs[name] = v
	return nil
}

// SetAny converts a plain Go value to the attribute's declared kind and
// assigns it. Convenience for fixture and CLI input.
func (r *Record) SetAny(name string, v any) error {
	a, ok := r.et.Attribute(name)
	if !ok {
		return fmt.Errorf("record %s: no attribute %q", r.et.Name, name)
	}
	val, err := attr.Coerce(a.Kind, v)
	if err != nil {
		return fmt.Errorf("record %s: attribute %q: %w", r.et.Name, name, err)
	}
	r.attrs[name] = val
	return nil
}

// Get returns the attribute value, or false if it is unset or undeclared.
func (r *Record) Get(name string) (attr.Value, bool) {
	v, ok := r.attrs[name]
	return v, ok
}

// Unset clears an attribute. Unset attributes persist as NULL.
func (r *Record) Unset(name string) {
	delete(r.attrs, name)
}

// CopyFieldsFrom overwrites every declared attribute of r with src's value
// for it, in declaration order. Attributes unset on src are unset on r too:
// this is a full overwrite, not a merge.
func (r *Record) CopyFieldsFrom(src *Record) error {
	if src.et.Name != r.et.Name {
		return fmt.Errorf("record %s: cannot copy fields from %s", r.et.Name, src.et.Name)
	}
	for _, a := range r.et.Attributes {
		if v, ok := src.attrs[a.Name]; ok {
			r.attrs[a.Name] = v
		} else {
			delete(r.attrs, a.Name)
		}
	}
	return nil
}

// MissingRequired returns the names of required attributes with no value,
// in declaration order. The store rejects staging records with any.
func (r *Record) MissingRequired() []string {
	var missing []string
	for _, a := range r.et.Attributes {
		if a.Required {
			if _, ok := r.attrs[a.Name]; !ok {
				missing = append(missing, a.Name)
			}
		}
	}
	return missing
}
