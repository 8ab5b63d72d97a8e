// Package discovery walks a package tree and applies convention rules to what it finds.
//
// # Overview
//
// Discovery runs in two stages for every module below a top-level package:
//
//  1. [FindModules] enumerates module paths. Sub-packages are imported on the way down,
//     because their children can only be listed once they are imported. Leaf modules
//     are never imported by the enumerator.
//
//  2. Every [Rule] is evaluated against each path, in the order the rules were given:
//     - [*ModuleRule]: the module predicate sees the path only. On a match the module
//     action runs with the path, and the module is left alone otherwise.
//     - [*ObjectRule]: on a module match the module is imported and every member is
//     tested with the object predicate. Matching members are handed to the object action
//     in member order.
//
// # Failure
//
// Discovery is fail-fast. The first error from the loader or from an action is returned
// to the caller as is, so errors.Is and errors.As work against the caller's own errors.
// Actions that already ran stay applied. [Check] is the exception: it imports every
// module and reports all import failures together.
//
// # Usage
//
//	err := discovery.NewDiscoverer(module.DefaultRegistry).
//		WithLogger(l).
//		WithRules(&discovery.ObjectRule{
//			Name:          "controllers",
//			ModuleMatches: matcher.MatchByPattern("*.controllers"),
//			ObjectMatches: matcher.MatchByType(reflect.TypeFor[router.Controller]()),
//			ObjectAction:  registerController,
//		}).
//		Discover(ctx, "myapp")
package discovery
