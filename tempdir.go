package cheese

import (
	"os"
)

// shmDir is preferred for captured frames, they are moved out right away.
var shmDir = "/dev/shm"

// TempDir makes a new directory for captured frames, in shmDir when that is a
// directory, else in the default temporary directory. The returned func
// removes the directory and everything in it.
func TempDir() (string, func(), error) {
	parent := ""
	// Stat first: as root, MkdirTemp would happily create /dev/shm in /dev.
	if fi, err := os.Stat(shmDir); err == nil && fi.IsDir() {
		parent = shmDir
	}
	dir, err := os.MkdirTemp(parent, "cheese")
	if err != nil && parent != "" {
		dir, err = os.MkdirTemp("", "cheese")
	}
	if err != nil {
		return "", nil, err
	}
	return dir, func() { os.RemoveAll(dir) }, nil
}
