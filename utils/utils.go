package utils

import (
	"os"
	"path/filepath"

	"png-steganography/oops"
)

// WriteFileAtomic writes data to a temporary file next to path and renames it
// into place, so readers see either the old file or the complete new one.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) (err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return oops.New(err, "failed to create temporary file in '%s'", dir)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return oops.New(err, "failed to write '%s'", path)
	}
	if err = tmp.Chmod(perm); err != nil {
		return oops.New(err, "failed to set permissions on '%s'", path)
	}
	if err = tmp.Close(); err != nil {
		return oops.New(err, "failed to close '%s'", path)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return oops.New(err, "failed to move output into place at '%s'", path)
	}
	return nil
}

// SafeBaseName reduces name to a plain file name that stays inside the
// directory it is joined to. It returns "" if nothing usable is left.
func SafeBaseName(name string) string {
	base := filepath.Base(filepath.Clean("/" + filepath.FromSlash(name)))
	if base == "/" || base == "." || base == ".." || base == string(filepath.Separator) {
		return ""
	}
	return base
}
