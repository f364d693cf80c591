// Package namespace maps dotted names to classes.
//
// A Registry holds any number of named namespaces plus one global namespace
// that every lookup falls back to. Within a namespace, creating "ui.Button"
// registers the class flat under "ui.Button" and nested under the "ui"
// container:
//
//	ns := reg.Namespace("app")
//	button, err := ns.Create("ui.Button", value.Props{...})
//	ns.Get("ui.Button") == button       // true
//	reg.Global().Get("app.ui.Button")   // resolved through the "app" namespace
//
// Load resolves a class asynchronously, delegating missing names to the
// namespace's Autoloader.
//
// Namespaces are not safe for concurrent mutation; the registry's namespace
// table is.
package namespace
