// Package value provides the dynamic value model the class engine operates on.
//
// The package stands in for the primitives a prototype-based host language
// would provide:
//   - Props: a plain property bag literal (map[string]any)
//   - Object: an ordered property map with a single prototype link
//   - Function: a callable member, optionally wrapped for parent chaining
//   - Call: the per-invocation context (receiver, arguments, home object and
//     the implementation an override shadows)
//
// # Parent Chaining
//
// A Function installed over an inherited function of the same name is wrapped
// so that, while it runs, Call.Parent invokes the shadowed implementation:
//
//	greet := value.Fn(func(c *value.Call) (any, error) {
//	    base, err := c.Parent()
//	    if err != nil {
//	        return nil, err
//	    }
//	    return fmt.Sprintf("%v!", base), nil
//	})
//
// The current parent implementation lives on the Call, not on the receiver,
// so nested and reentrant calls each see their own binding.
//
// # Helpers
//
// Each, Map, Filter, Keys, IndexOf, ToArray, ArgsToArray and Extend operate on
// any of the container shapes (Props, *Object, []any, Holder). They never fail
// on nil input.
package value
