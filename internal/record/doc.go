// Package record defines the generic persisted record.
//
// A Record is an entity type descriptor, a caller-assigned string id, and an
// attribute map constrained by the descriptor. There is no per-type struct
// and no reflection: the schema's attribute table is the field table, and
// Set/Get validate names and kinds against it.
//
// Records carry a lifecycle state (see State) that the store advances as
// they move through the working set. Application code reads it through
// Persisted; only the store transitions it.
package record
