package cheese

import (
	"os"
	"path/filepath"
	"testing"
)

func TestTempDir(t *testing.T) {
	orig := shmDir
	defer func() { shmDir = orig }()

	for _, shm := range []string{t.TempDir(), filepath.Join(t.TempDir(), "missing")} {
		shmDir = shm
		dir, cleanup, err := TempDir()
		if err != nil {
			t.Fatalf("temp dir with shm %s: %v", shm, err)
		}
		if fi, err := os.Stat(shm); err == nil && fi.IsDir() && filepath.Dir(dir) != shm {
			t.Errorf("temp dir %s not in %s", dir, shm)
		}
		if _, err := os.Stat(filepath.Join(filepath.Dir(shm), "missing")); err == nil {
			t.Errorf("missing shm dir was created")
		}
		cleanup()
		if _, err := os.Stat(dir); !os.IsNotExist(err) {
			t.Errorf("temp dir %s not removed", dir)
		}
	}
}
