package store

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownEntityType is returned when an operation names an entity type
// the store's model does not declare.
var ErrUnknownEntityType = errors.New("unknown entity type")

// ErrMissingID is returned when a record staged for write has an empty id.
var ErrMissingID = errors.New("record has no id")

// RequiredAttributeError reports required attributes missing from a record
// staged for write.
type RequiredAttributeError struct {
	EntityType string
	Attributes []string
}

func (e *RequiredAttributeError) Error() string {
	return fmt.Sprintf("entity %s: required attributes unset: %s",
		e.EntityType, strings.Join(e.Attributes, ", "))
}

// MigrationError reports an existing column whose type no longer matches the
// model. Lightweight migration only adds columns; changing a column's kind
// requires a new store file.
type MigrationError struct {
	EntityType string
	Column     string
	Have       string
	Want       string
}

func (e *MigrationError) Error() string {
	return fmt.Sprintf("entity %s: column %s is %s on disk but the model declares %s",
		e.EntityType, e.Column, e.Have, e.Want)
}

// ModelMismatchError reports a store file created with a different model.
type ModelMismatchError struct {
	StoreModel string
	WantModel  string
}

func (e *ModelMismatchError) Error() string {
	return fmt.Sprintf("store was created with model %q, not %q", e.StoreModel, e.WantModel)
}
