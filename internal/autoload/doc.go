// Package autoload resolves missing classes from Lua files on disk.
//
// A class name N.A.B asked of namespace N is looked up at
// <dir>/N/A/B.lua. The file runs in the script runtime and is expected to
// create the class; the namespace is then asked again.
//
// A Watcher reloads classes whose files change. It invalidates the class
// registered under the file's path, which destroys it together with its
// nested classes and subclasses, so the next asynchronous get loads the new
// version.
package autoload
