// Package script hosts classkit inside a sandboxed Lua interpreter.
//
// This package wraps the gopher-lua library to provide:
//   - Sandboxed Lua state management
//   - A bridge converting engine values to and from Lua
//   - The classkit module for defining classes from scripts
//   - Execution timeouts and host call limits
//
// # Runtime
//
// A Runtime binds a Lua state to a namespace registry:
//
//	rt, err := script.NewRuntime(reg,
//	    script.WithStateOptions(script.WithExecutionTimeout(time.Second)),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer rt.Close()
//
//	err = rt.DoString(ctx, `
//	    local Point = classkit.create({
//	        init = function(self, x, y) self.x = x; self.y = y end,
//	        sum = function(self) return self.x + self.y end,
//	    })
//	    print(Point.new(1, 2):sum())
//	`)
//
// Lua functions stored as members receive the receiver as their first
// argument, so methods are declared with self and called with colon syntax.
// Inside a method, classkit.parent(...) calls the overridden implementation
// and classkit.invoke(name, ...) calls name as defined one level up.
//
// Classes are callable: K.new(...) constructs, K(...) invokes. Observers
// expose get, set, addListener and friends; listeners are called with the
// observer, the new value and the old value.
//
// # Threading
//
// gopher-lua states are single threaded. Listeners of delayed observers fire
// on timer goroutines, so their calls are queued and delivered by Sync,
// which runs before every DoString and DoFile.
package script
