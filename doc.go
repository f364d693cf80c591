// Package classkit provides classical-style classes on top of a dynamic
// prototype object model.
//
// Classes are built from descriptors. Methods that override an inherited
// implementation reach it through the call's parent slot:
//
//	Animal, _ := classkit.Create(classkit.Props{
//	    "speak": classkit.Fn(func(c *classkit.Call) (any, error) {
//	        return "...", nil
//	    }),
//	})
//	Dog, _ := classkit.Create(Animal, classkit.Props{
//	    "speak": classkit.Fn(func(c *classkit.Call) (any, error) {
//	        prev, err := c.Parent()
//	        return fmt.Sprint(prev, " woof"), err
//	    }),
//	})
//
// Property names carrying a mutator prefix are handled by that mutator.
// The built-in mutators are static, nowrap, alias, bind and observable:
//
//	classkit.Props{
//	    "__static_count":  0,
//	    "__observable_x":  10,
//	    "__bind_handler":  fn,
//	    "__alias_greet":   "hello",
//	}
//
// The package-level functions operate on a process-wide default Engine that
// is seeded with the built-in mutators. Use NewEngine for an isolated set of
// registries.
package classkit
