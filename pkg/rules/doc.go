// Package rules interprets bundler transform rules.
//
// A transform rule pairs match conditions with a handler (a loader). Rules
// come from two places: the user's bundler configuration, where conditions
// are arbitrary JavaScript values, and synthesized defaults. Both are held
// as TransformRule so the resolvers can ask one question of them: does any
// rule already handle a given file?
//
// # Conditions
//
// A condition is one of:
//
//   - Pattern: a regular expression with ECMAScript semantics, or a plain
//     string, which matches paths that start with it
//   - Predicate: a user function called with the filename
//   - AnyOf: a list of conditions, any of which may match
//   - AllOf and Not: the `and` and `not` object forms
//
// # Evaluation
//
// A rule matches a filename when it is not excluded, its include (if any)
// matches, and its test matches. A rule without a test still matches when
// it narrows the file set through include or exclude. A rule with no
// conditions at all matches nothing.
package rules
