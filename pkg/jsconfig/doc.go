// Package jsconfig evaluates user bundler configuration files.
//
// Configs are JavaScript modules. They are run in an embedded interpreter
// with enough of the node module environment to evaluate typical configs:
// require for relative files and JSON, the path and fs built-ins, process
// and __dirname. Bare package imports resolve to stand-ins whose
// constructor names match the package, so a plugin created with
// `new HtmlWebpackPlugin()` can still be recognised by name.
//
// Whatever a config exports (an object, a factory function, an array of
// configs, or a promise) goes through one normalisation step that yields a
// plain configuration object or an error. Values that only exist at run
// time keep a reference rooted at RootRef, so the generated runner config
// can reach them after re-loading the same file under node.
package jsconfig
