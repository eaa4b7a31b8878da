package schema

import (
	"fmt"
	"regexp"
)

// Kind identifies the value kind of an attribute.
type Kind string

const (
	// KindString is a UTF-8 text attribute.
	KindString Kind = "string"
	// KindInt is a 64-bit signed integer attribute.
	KindInt Kind = "int"
	// KindFloat is a 64-bit floating point attribute.
	KindFloat Kind = "float"
	// KindBool is a boolean attribute.
	KindBool Kind = "bool"
	// KindTime is a timestamp attribute, stored as RFC 3339 text in UTC.
	KindTime Kind = "time"
	// KindBytes is an opaque binary attribute.
	KindBytes Kind = "bytes"
	// KindRef is a relationship attribute holding the id of a record of the
	// target entity type. Refs map to foreign keys with ON DELETE CASCADE,
	// so bulk-deleting the target type deletes referencing records too.
	KindRef Kind = "ref"
)

// validKinds is the closed set of attribute kinds.
var validKinds = map[Kind]bool{
	KindString: true,
	KindInt:    true,
	KindFloat:  true,
	KindBool:   true,
	KindTime:   true,
	KindBytes:  true,
	KindRef:    true,
}

// ValidKind reports whether k names a supported attribute kind.
func ValidKind(k Kind) bool {
	return validKinds[k]
}

// Attribute describes one declared attribute of an entity type.
type Attribute struct {
	// Name is the attribute name, unique within its entity type.
	Name string

	// Kind is the value kind.
	Kind Kind

	// Required marks the attribute as mandatory: records missing it are
	// rejected when staged for write.
	Required bool

	// Target is the referenced entity type name. Set only for KindRef.
	Target string
}

// EntityType describes one persisted entity type: its name and the ordered
// table of declared attributes.
type EntityType struct {
	// Name is the entity type name, unique within the model. It doubles as
	// the table name in the backing store.
	Name string

	// Attributes holds the declared attributes in declaration order.
	Attributes []Attribute

	index map[string]int
}

// Attribute returns the declared attribute with the given name.
func (e *EntityType) Attribute(name string) (Attribute, bool) {
	i, ok := e.index[name]
	if !ok {
		return Attribute{}, false
	}
	return e.Attributes[i], true
}

// Model is a complete, validated object model.
type Model struct {
	// Name identifies the model. A store file opened with a different model
	// name than it was created with is rejected.
	Name string

	// Version is the model version, tracked in the store file for
	// lightweight migration.
	Version int64

	// Entities holds every entity type in declaration order.
	Entities []EntityType

	index map[string]int
}

// EntityType returns the entity type with the given name.
func (m *Model) EntityType(name string) (*EntityType, bool) {
	i, ok := m.index[name]
	if !ok {
		return nil, false
	}
	return &m.Entities[i], true
}

// identRe constrains model, entity, and attribute names to identifier-safe
// text so they can be used directly as table and column names.
var identRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// Validate checks structural invariants and builds the lookup indexes.
// It must be called (and succeed) before the model is used.
func (m *Model) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("model: name is required")
	}
	if !identRe.MatchString(m.Name) {
		return fmt.Errorf("model: invalid name %q", m.Name)
	}
	if m.Version < 1 {
		return fmt.Errorf("model %s: version must be >= 1, got %d", m.Name, m.Version)
	}
	if len(m.Entities) == 0 {
		return fmt.Errorf("model %s: at least one entity type is required", m.Name)
	}

	m.index = make(map[string]int, len(m.Entities))
	for i := range m.Entities {
		e := &m.Entities[i]
		if !identRe.MatchString(e.Name) {
			return fmt.Errorf("model %s: invalid entity type name %q", m.Name, e.Name)
		}
		if _, dup := m.index[e.Name]; dup {
			return fmt.Errorf("model %s: duplicate entity type %q", m.Name, e.Name)
		}
		m.index[e.Name] = i

		if err := e.validate(); err != nil {
			return fmt.Errorf("model %s: %w", m.Name, err)
		}
	}

	// Ref targets can only be checked once all entity types are indexed.
	for i := range m.Entities {
		e := &m.Entities[i]
		for _, a := range e.Attributes {
			if a.Kind != KindRef {
				continue
			}
			if _, ok := m.index[a.Target]; !ok {
				return fmt.Errorf("model %s: entity %s: attribute %s references unknown entity type %q",
					m.Name, e.Name, a.Name, a.Target)
			}
		}
	}

	return nil
}

func (e *EntityType) validate() error {
	e.index = make(map[string]int, len(e.Attributes))
	for i, a := range e.Attributes {
		if !identRe.MatchString(a.Name) {
			return fmt.Errorf("entity %s: invalid attribute name %q", e.Name, a.Name)
		}
		if a.Name == "id" {
			return fmt.Errorf("entity %s: attribute name %q is reserved", e.Name, a.Name)
		}
		if _, dup := e.index[a.Name]; dup {
			return fmt.Errorf("entity %s: duplicate attribute %q", e.Name, a.Name)
		}
		if !ValidKind(a.Kind) {
			return fmt.Errorf("entity %s: attribute %s: unknown kind %q", e.Name, a.Name, a.Kind)
		}
		if a.Kind == KindRef && a.Target == "" {
			return fmt.Errorf("entity %s: attribute %s: ref requires a target", e.Name, a.Name)
		}
		if a.Kind != KindRef && a.Target != "" {
			return fmt.Errorf("entity %s: attribute %s: target is only valid for refs", e.Name, a.Name)
		}
		e.index[a.Name] = i
	}
	return nil
}

// CreationOrder returns entity type names ordered so that every entity type
// appears after the entity types it references. Table creation follows this
// order so foreign keys always point at existing tables.
func (m *Model) CreationOrder() []string {
	order := make([]string, 0, len(m.Entities))
	done := make(map[string]bool, len(m.Entities))

	var visit func(name string)
	visit = func(name string) {
		if done[name] {
			return
		}
		done[name] = true
		e, _ := m.EntityType(name)
		for _, a := range e.Attributes {
			if a.Kind == KindRef && a.Target != name {
				visit(a.Target)
			}
		}
		order = append(order, name)
	}

	for _, e := range m.Entities {
		visit(e.Name)
	}
	return order
}

// DeletionOrder returns entity type names ordered so that referencing entity
// types appear before their targets. Bulk resets delete in this order to
// avoid relying on cascades.
func (m *Model) DeletionOrder() []string {
	creation := m.CreationOrder()
	order := make([]string, len(creation))
	for i, name := range creation {
		order[len(creation)-1-i] = name
	}
	return order
}
