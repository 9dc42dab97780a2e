// Package webpack attaches a webpack bundling stage to a runner
// configuration.
//
// The user's webpack config is discovered from an explicit option, from
// `-c`/`--config` flags in package.json scripts, and from the conventional
// file names. Its rules are inspected structurally: the transform rule is
// only synthesized when nothing already handles a representative source
// file, and coverage instrumentation is merged into an existing babel rule
// rather than replacing it.
package webpack
