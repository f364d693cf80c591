// Package class builds runtime classes from property descriptors.
//
// A Factory turns a descriptor into a Class with a prototype, a superclass
// link and a live list of subclasses. Members are routed through a Registry
// of mutators before they reach the prototype.
//
// # Construction
//
//	point, err := f.Create(value.Props{
//	    "init": value.Fn(func(c *value.Call) (any, error) {
//	        c.Set("x", c.Arg(0))
//	        return nil, nil
//	    }),
//	})
//	p, err := point.New(3)
//
// New constructs. Invoke performs the construct-less call, which defaults to
// constructing unless the descriptor (or an ancestor) supplies "invoke".
//
// # Mutators
//
// A mutator named "static" claims every member prefixed "__static_" and the
// container member "__static". Hook interfaces are optional:
//
//   - CreateHook: runs once per class before descriptor members are installed
//   - PropertyAddHook / PropertyRemoveHook: receive prefixed members
//   - InstanceInitHook: runs against every new instance before init
//
// The first registered mutator whose prefix matches claims the member.
//
// # Parent Chaining
//
// A function installed over an inherited function is wrapped so Call.Parent
// reaches the inherited implementation. Adding a function to a class rewraps
// direct subclasses that override it without a wrapper; removing it unwraps
// direct subclasses that were chained to it. Deeper descendants are left
// untouched.
package class
