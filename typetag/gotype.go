package typetag

import (
	"reflect"

	"github.com/RobertWHurst/wirebus/errors"
)

// GoType returns the Go type values of this tag are built as. Resolved tags
// return the type they were resolved from; hand-built tags map to canonical
// types: bool, string, []byte, int8, int16, int32, int64, float32, float64,
// []E and map[K]V.
func (t *Tag) GoType() (reflect.Type, error) {
	if t.goType != nil {
		return t.goType, nil
	}
	return t.canonical(nil)
}

func (t *Tag) canonical(path []string) (reflect.Type, error) {
	if t.kind.IsScalar() {
		return canonicalTypes[t.kind], nil
	}

	switch t.kind {
	case KindList:
		elem, err := t.elem.typeAt(append(path, "[]"))
		if err != nil {
			return nil, err
		}
		return reflect.SliceOf(elem), nil

	case KindMap:
		key, err := t.key.typeAt(append(path, ".key"))
		if err != nil {
			return nil, err
		}
		if !key.Comparable() {
			return nil, errors.New(errors.PhaseResolve, errors.KindUnsupportedType).
				Path(clonePath(path)...).
				GoType(key.String()).
				Tag(t.String()).
				Detail("map key type is not comparable").
				Build()
		}
		value, err := t.value.typeAt(append(path, ".value"))
		if err != nil {
			return nil, err
		}
		return reflect.MapOf(key, value), nil
	}

	return nil, errors.New(errors.PhaseResolve, errors.KindUnsupportedType).
		Path(clonePath(path)...).
		Tag(t.kind.String()).
		Detail("tag has no Go representation").
		Build()
}

func (t *Tag) typeAt(path []string) (reflect.Type, error) {
	if t.goType != nil {
		return t.goType, nil
	}
	return t.canonical(path)
}
