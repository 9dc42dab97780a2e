// Package engine drives the runner engine process: it writes the composed
// configuration, spawns the engine, streams its output through the
// prettifier and maps its exit status. In watch mode it restarts the engine
// whenever a file that shapes the configuration changes.
package engine
