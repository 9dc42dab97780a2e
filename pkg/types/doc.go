// Package types defines the data shared by the composer, the bundler
// resolvers and the config renderer: the user's Options, the RunnerConfig
// being assembled, and the bundle stage a resolver attaches to it.
package types
