package widgets_test

import "io/fs"

// emptyFS has no files, so every offline payload is missing
type emptyFS struct{}

func (emptyFS) Open(name string) (fs.File, error) {
	return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
}
