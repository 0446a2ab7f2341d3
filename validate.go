package bookmarker

import (
	"reflect"
	"time"

	"go.uber.org/zap"
)

type valueValidator func(v any) bool

var _validators = map[ColumnType]valueValidator{
	TypeString:   isString,
	TypeText:     isString,
	TypeInteger:  isInteger,
	TypeFloat:    isNumber,
	TypeBoolean:  isBoolean,
	TypeDatetime: isDatetime,
}

func isString(v any) bool {
	_, ok := v.(string)
	return ok
}

func isInteger(v any) bool {
	_, ok := integerValue(v)
	return ok
}

func isNumber(v any) bool {
	if _, ok := floatValue(v); ok {
		return true
	}

	_, ok := nonFiniteFloat(v)
	return ok
}

func isBoolean(v any) bool {
	_, ok := v.(bool)
	return ok
}

func isDatetime(v any) bool {
	switch vt := v.(type) {
	case time.Time:
		return true
	case string:
		_, ok := parseDatetime(vt)
		return ok
	default:
		return false
	}
}

// Validate reports whether candidate is an acceptable bookmark: a tuple with
// one value per column spec, each value matching its column type or nil for
// nullable columns.
//
// Coalesce and association positions, and columns of unknown type, are not
// checked unless the bookmarker was built WithStrictValidation. Validate is
// advisory: Restrict still receives whatever the caller passes.
func (b *Bookmarker[T]) Validate(candidate any) bool {
	values, ok := asTuple(candidate)
	if !ok || len(values) != len(b.columns) {
		b.logger.Warn("bookmark rejected: not a tuple of the key arity",
			zap.Int("arity", len(b.columns)), zap.Any("bookmark", candidate))
		return false
	}

	for i, col := range b.columns {
		if !b.validPosition(col, values[i]) {
			b.logger.Warn("bookmark rejected: unexpected value",
				zap.Int("position", i), zap.Stringer("column", col.spec), zap.Any("value", values[i]))
			return false
		}
	}

	return true
}

func (b *Bookmarker[T]) validPosition(col *resolvedColumn, v any) bool {
	if !b.strict && (col.spec.kind != KindSimple || !col.typed()) {
		return true
	}

	if v == nil {
		return col.info.Nullable || !col.typed()
	}

	if col.spec.kind == KindCoalesce {
		for _, branch := range col.branches {
			if validValue(branch, v) {
				return true
			}
		}

		return false
	}

	return validValue(col, v)
}

func validValue(col *resolvedColumn, v any) bool {
	validator, ok := _validators[col.info.Type]
	if !ok {
		return isScalar(v)
	}

	return validator(v)
}

func isScalar(v any) bool {
	switch reflect.ValueOf(v).Kind() {
	case reflect.Slice, reflect.Array, reflect.Map, reflect.Struct, reflect.Ptr, reflect.Func, reflect.Chan:
		_, isTime := v.(time.Time)
		return isTime
	default:
		return true
	}
}

func asTuple(candidate any) ([]any, bool) {
	switch ct := candidate.(type) {
	case Bookmark:
		return ct, true
	case []any:
		return ct, true
	case nil, string, []byte:
		return nil, false
	}

	rv := reflect.ValueOf(candidate)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}

	ret := make([]any, rv.Len())
	for i := range ret {
		ret[i] = rv.Index(i).Interface()
	}

	return ret, true
}
