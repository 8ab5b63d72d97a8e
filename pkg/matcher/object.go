package matcher

import (
	"reflect"
)

// Attributer is implemented by values that expose attributes which are not Go
// methods or struct fields, e.g. members decoded from configuration files.
type Attributer interface {
	// Attribute returns the named attribute and whether it exists.
	Attribute(name string) (any, bool)
}

var typeType = reflect.TypeFor[reflect.Type]()

// MatchByType selects instances of any of the given types, e.g.
//
//	MatchByType(reflect.TypeFor[router.Controller]())
//
// finds every controller in a module. An interface type matches the values that
// implement it. A struct type matches values of that type, pointers to it, and values
// of struct types embedding it.
func MatchByType(types ...reflect.Type) Predicate[any] {
	return func(obj any) bool {
		if obj == nil {
			return false
		}

		if _, isClass := obj.(reflect.Type); isClass {
			for _, want := range types {
				if want == typeType {
					return true
				}
			}

			return false
		}

		objType := reflect.TypeOf(obj)

		for _, want := range types {
			if want == nil {
				continue
			}

			if want.Kind() == reflect.Interface {
				if objType.Implements(want) {
					return true
				}

				continue
			}

			if isSameOrEmbeds(objType, want) {
				return true
			}
		}

		return false
	}
}

// MatchBySubclass selects classes (reflect.Type members) strictly descending from t,
// e.g. every model type embedding a base model:
//
//	MatchBySubclass(reflect.TypeFor[orm.Model]())
//
// Instances never match, and neither does t itself.
func MatchBySubclass(t reflect.Type) Predicate[any] {
	return func(obj any) bool {
		class, isClass := obj.(reflect.Type)
		if !isClass || class == nil || t == nil || class == t {
			return false
		}

		if t.Kind() == reflect.Interface {
			return class.Implements(t) ||
				(class.Kind() != reflect.Interface && reflect.PointerTo(class).Implements(t))
		}

		if derefType(class) == derefType(t) {
			return false
		}

		return isSameOrEmbeds(class, t)
	}
}

// MatchByAttribute selects values exposing an attribute with the given name.
// Classes expose the methods and fields of their type.
func MatchByAttribute(name string) Predicate[any] {
	return func(obj any) bool {
		if class, isClass := obj.(reflect.Type); isClass {
			return typeHasAttribute(class, name)
		}

		_, ok := lookupAttribute(obj, name)

		return ok
	}
}

// MatchByCallableAttribute selects instances having a callable attribute with the
// given name, e.g. every initialized service exposing an InitApp method:
//
//	MatchByCallableAttribute("InitApp")
//
// Classes never match even though their type defines the method.
func MatchByCallableAttribute(name string) Predicate[any] {
	return func(obj any) bool {
		if _, isClass := obj.(reflect.Type); isClass {
			return false
		}

		attr, ok := lookupAttribute(obj, name)
		if !ok {
			return false
		}

		return attr.IsValid() && attr.Kind() == reflect.Func && !attr.IsNil()
	}
}

// MatchByMethod is an alias of [MatchByCallableAttribute].
func MatchByMethod(name string) Predicate[any] {
	return MatchByCallableAttribute(name)
}

// Attribute returns the attribute of obj named name, resolved the same way the
// attribute matchers resolve it.
func Attribute(obj any, name string) (any, bool) {
	attr, ok := lookupAttribute(obj, name)
	if !ok || !attr.IsValid() || !attr.CanInterface() {
		return nil, ok
	}

	return attr.Interface(), true
}

func lookupAttribute(obj any, name string) (reflect.Value, bool) {
	if obj == nil || name == "" {
		return reflect.Value{}, false
	}

	if attributer, ok := obj.(Attributer); ok {
		if attr, ok := attributer.Attribute(name); ok {
			return reflect.ValueOf(attr), true
		}
	}

	val := reflect.ValueOf(obj)

	if method := val.MethodByName(name); method.IsValid() {
		return method, true
	}

	for val.Kind() == reflect.Pointer || val.Kind() == reflect.Interface {
		if val.IsNil() {
			return reflect.Value{}, false
		}

		val = val.Elem()
	}

	if val.Kind() != reflect.Struct {
		return reflect.Value{}, false
	}

	field, ok := val.Type().FieldByName(name)
	if !ok || !field.IsExported() {
		return reflect.Value{}, false
	}

	fieldVal, err := val.FieldByIndexErr(field.Index)
	if err != nil {
		// promoted through a nil embedded pointer
		return reflect.Value{}, false
	}

	return fieldVal, true
}

func typeHasAttribute(t reflect.Type, name string) bool {
	if t == nil || name == "" {
		return false
	}

	if _, ok := t.MethodByName(name); ok {
		return true
	}

	if t.Kind() != reflect.Interface && t.Kind() != reflect.Pointer {
		if _, ok := reflect.PointerTo(t).MethodByName(name); ok {
			return true
		}
	}

	structType := derefType(t)
	if structType.Kind() != reflect.Struct {
		return false
	}

	field, ok := structType.FieldByName(name)

	return ok && field.IsExported()
}

func derefType(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	return t
}

// isSameOrEmbeds reports whether t is base (ignoring pointer indirection) or a
// struct embedding base somewhere in its anonymous fields.
func isSameOrEmbeds(t, base reflect.Type) bool {
	return embeds(derefType(t), derefType(base), map[reflect.Type]bool{})
}

func embeds(t, base reflect.Type, seen map[reflect.Type]bool) bool {
	if t == base {
		return true
	}

	if t.Kind() != reflect.Struct || seen[t] {
		return false
	}

	seen[t] = true

	for i := range t.NumField() {
		field := t.Field(i)
		if !field.Anonymous {
			continue
		}

		if embeds(derefType(field.Type), base, seen) {
			return true
		}
	}

	return false
}
