// Package mutators provides the built-in class mutators.
//
//   - Static ("__static_"): members installed on the class itself, with
//     functions pinned to the class
//   - NoWrap ("__nowrap_"): prototype members installed without parent
//     chaining
//   - Alias ("__alias_"): prototype members that delegate to another member
//     by name at call time
//   - Bind ("__bind_"): prototype functions that every instance receives as
//     a closure pinned to the instance
//   - Observable ("__observable_"): members every instance receives as a
//     fresh observer.Observer
//
// Register installs all of them into a class.Registry in that order.
package mutators
