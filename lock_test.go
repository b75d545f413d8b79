package cheese

import (
	"errors"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLock(t *testing.T) {
	dir := t.TempDir()
	l, err := Lock(dir)
	if err != nil {
		t.Fatalf("lock: %v", err)
	}

	// Flock locks are per open file, so a second open conflicts even within
	// one process.
	if _, err := Lock(dir); !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("second lock, got %v, expected ErrAlreadyRunning", err)
	}

	if err := l.Unlock(); err != nil {
		t.Fatalf("unlock: %v", err)
	}
	l, err = Lock(dir)
	if err != nil {
		t.Fatalf("lock after unlock: %v", err)
	}
	l.Unlock()
	if err := l.Unlock(); err != nil {
		t.Fatalf("second unlock: %v", err)
	}
}

func TestUnlockKeepsFile(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "cheese.pid")
	l, err := Lock(dir)
	if err != nil {
		t.Fatalf("lock: %v", err)
	}
	before, err := os.Stat(p)
	if err != nil {
		t.Fatalf("stat lock file: %v", err)
	}
	if buf, _ := ioutil.ReadFile(p); strings.TrimSpace(string(buf)) != fmt.Sprint(os.Getpid()) {
		t.Fatalf("lock file, got %q, expected our pid", buf)
	}
	_, err = Lock(dir)
	if err == nil || !strings.Contains(err.Error(), fmt.Sprintf("pid %d", os.Getpid())) {
		t.Fatalf("second lock, got %v, expected error with pid", err)
	}

	if err := l.Unlock(); err != nil {
		t.Fatalf("unlock: %v", err)
	}
	after, err := os.Stat(p)
	if err != nil {
		t.Fatalf("lock file removed by unlock: %v", err)
	}
	if !os.SameFile(before, after) || after.Size() != 0 {
		t.Fatalf("lock file replaced or pid not cleared, size %d", after.Size())
	}

	// A new lock uses the same file.
	l, err = Lock(dir)
	if err != nil {
		t.Fatalf("relock: %v", err)
	}
	defer l.Unlock()
	if again, err := os.Stat(p); err != nil || !os.SameFile(before, again) {
		t.Fatalf("relock did not reuse lock file: %v", err)
	}
}
