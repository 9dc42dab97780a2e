// Package stream reassembles the runner engine's chunked output into whole
// lines and passes each line through a chain of output filters before it
// reaches the terminal.
//
// stdout and stderr each get their own LineWriter; both may share one sink
// wrapped in a SyncWriter.
package stream
