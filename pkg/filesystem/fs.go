package filesystem

import (
	"os"
	"sort"

	"github.com/spf13/afero"
)

// NewOS returns the real filesystem.
func NewOS() afero.Fs {
	return afero.NewOsFs()
}

// NewMemory returns an empty in-memory filesystem.
func NewMemory() afero.Fs {
	return afero.NewMemMapFs()
}

// IsFile reports whether path exists and is a regular file.
func IsFile(fs afero.Fs, path string) bool {
	info, err := fs.Stat(path)
	return err == nil && !info.IsDir()
}

// IsDir reports whether path exists and is a directory.
func IsDir(fs afero.Fs, path string) bool {
	info, err := fs.Stat(path)
	return err == nil && info.IsDir()
}

// ReadFileIfExists returns the content of path, or ok=false when the file
// does not exist. Other read errors are returned.
func ReadFileIfExists(fs afero.Fs, path string) (data []byte, ok bool, err error) {
	data, err = afero.ReadFile(fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return data, true, nil
}

// ReadDirNames lists the entry names of dir in lexical order.
func ReadDirNames(fs afero.Fs, dir string) ([]string, error) {
	entries, err := afero.ReadDir(fs, dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}
