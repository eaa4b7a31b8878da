package schema

import (
	"fmt"

	"cuelang.org/go/cue"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// CompileError reports a problem decoding a model from CUE, with the source
// position when CUE can provide one.
type CompileError struct {
	Path    string // model path of the offending field, e.g. "entities[1].attributes[0].kind"
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Path, e.Message)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Message)
	}
	return e.Message
}

// compileModel decodes a cue.Value holding the top-level `model` struct into
// a validated Model.
func compileModel(v cue.Value) (*Model, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	m := &Model{}

	nameVal := v.LookupPath(cue.ParsePath("name"))
	if !nameVal.Exists() {
		return nil, &CompileError{Path: "name", Message: "model name is required", Pos: v.Pos()}
	}
	name, err := nameVal.String()
	if err != nil {
		return nil, formatCUEError(err)
	}
	m.Name = name

	versionVal := v.LookupPath(cue.ParsePath("version"))
	if !versionVal.Exists() {
		return nil, &CompileError{Path: "version", Message: "model version is required", Pos: v.Pos()}
	}
	version, err := versionVal.Int64()
	if err != nil {
		return nil, formatCUEError(err)
	}
	m.Version = version

	entitiesVal := v.LookupPath(cue.ParsePath("entities"))
	if !entitiesVal.Exists() {
		return nil, &CompileError{Path: "entities", Message: "at least one entity type is required", Pos: v.Pos()}
	}
	iter, err := entitiesVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for i := 0; iter.Next(); i++ {
		e, err := compileEntity(iter.Value(), fmt.Sprintf("entities[%d]", i))
		if err != nil {
			return nil, err
		}
		m.Entities = append(m.Entities, *e)
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// compileEntity decodes one entity type struct. Attributes are a CUE list so
// their declaration order survives decoding.
func compileEntity(v cue.Value, path string) (*EntityType, error) {
	e := &EntityType{}

	nameVal := v.LookupPath(cue.ParsePath("name"))
	if !nameVal.Exists() {
		return nil, &CompileError{Path: path + ".name", Message: "entity name is required", Pos: v.Pos()}
	}
	name, err := nameVal.String()
	if err != nil {
		return nil, formatCUEError(err)
	}
	e.Name = name

	attrsVal := v.LookupPath(cue.ParsePath("attributes"))
	if attrsVal.Exists() {
		iter, err := attrsVal.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for i := 0; iter.Next(); i++ {
			a, err := compileAttribute(iter.Value(), fmt.Sprintf("%s.attributes[%d]", path, i))
			if err != nil {
				return nil, err
			}
			e.Attributes = append(e.Attributes, *a)
		}
	}

	return e, nil
}

func compileAttribute(v cue.Value, path string) (*Attribute, error) {
	a := &Attribute{}

	nameVal := v.LookupPath(cue.ParsePath("name"))
	if !nameVal.Exists() {
		return nil, &CompileError{Path: path + ".name", Message: "attribute name is required", Pos: v.Pos()}
	}
	name, err := nameVal.String()
	if err != nil {
		return nil, formatCUEError(err)
	}
	a.Name = name

	kindVal := v.LookupPath(cue.ParsePath("kind"))
	if !kindVal.Exists() {
		return nil, &CompileError{Path: path + ".kind", Message: "attribute kind is required", Pos: v.Pos()}
	}
	kind, err := kindVal.String()
	if err != nil {
		return nil, formatCUEError(err)
	}
	a.Kind = Kind(kind)

	if reqVal := v.LookupPath(cue.ParsePath("required")); reqVal.Exists() {
		req, err := reqVal.Bool()
		if err != nil {
			return nil, formatCUEError(err)
		}
		a.Required = req
	}

	if targetVal := v.LookupPath(cue.ParsePath("target")); targetVal.Exists() {
		target, err := targetVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		a.Target = target
	}

	return a, nil
}

// formatCUEError converts a CUE error into a CompileError with position info.
func formatCUEError(err error) error {
	pos := token.NoPos
	if cueErrs := cueerrors.Errors(err); len(cueErrs) > 0 {
		pos = cueErrs[0].Position()
	}
	return &CompileError{Message: err.Error(), Pos: pos}
}
