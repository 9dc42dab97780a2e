// Package filesystem holds the afero-backed file helpers shared by the
// resolvers, the composer and the diagnostics formatter. Production code
// runs on the OS filesystem; tests swap in afero.NewMemMapFs.
package filesystem
