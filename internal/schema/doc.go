// Package schema loads and validates the object model that drives the store.
//
// A model is a named, versioned description of every entity type the store
// persists: its attributes, their kinds, and relationships between entity
// types. Models are written in CUE and loaded either from a directory of
// .cue files or from an embedded resource.
//
// The model is the single source of truth for:
//   - which tables exist and their columns (see ddl.go)
//   - which attributes a record may carry and their kinds
//   - foreign-key relationships (ref attributes cascade on delete)
//
// Attribute order within an entity type is declaration order; the store's
// field-by-field overwrite copies attributes in that order.
package schema
