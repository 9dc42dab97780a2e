// Package testutil provides fixtures for testing karmatic components.
//
// Key components:
//   - Project: an in-memory project directory with a package.json,
//     installed packages and config files
//   - Finder/Loader helpers wired to the project's filesystem
//
// All test data is defined inline. Projects live on afero memory
// filesystems unless a test needs real processes.
package testutil
