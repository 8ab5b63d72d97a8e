// Package matcher provides the predicates used by discovery rules.
//
// Module predicates work on dotted module paths ([MatchByPattern]). Object predicates
// work on the members of an imported module:
//
//   - [MatchByType]: the member is an instance of one of the given types.
//   - [MatchBySubclass]: the member is a reflect.Type that strictly descends from a type.
//   - [MatchByAttribute]: the member exposes an attribute (method, exported field, or
//     a dynamic attribute of an [Attributer]).
//   - [MatchByCallableAttribute]: the member is an instance whose attribute is callable.
//
// A reflect.Type member plays the part of a class: it is never treated as an instance.
// "Descends from" means implements (for interface types) or embeds, directly or through
// other embedded structs (for struct types).
//
// All predicates are pure and safe to call any number of times.
package matcher

// Predicate is a match gate over a value.
type Predicate[T any] func(T) bool

// All returns a predicate that holds when every given predicate holds.
// With no predicates it always holds.
func All[T any](preds ...Predicate[T]) Predicate[T] {
	return func(v T) bool {
		for _, pred := range preds {
			if !pred(v) {
				return false
			}
		}

		return true
	}
}

// Any returns a predicate that holds when at least one given predicate holds.
func Any[T any](preds ...Predicate[T]) Predicate[T] {
	return func(v T) bool {
		for _, pred := range preds {
			if pred(v) {
				return true
			}
		}

		return false
	}
}

// Not negates pred.
func Not[T any](pred Predicate[T]) Predicate[T] {
	return func(v T) bool {
		return !pred(v)
	}
}
