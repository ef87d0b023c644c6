package cache

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFileLock_LockUnlock(t *testing.T) {
	t.Parallel()

	lockPath := filepath.Join(t.TempDir(), "profile.lock")
	lock := NewFileLock(lockPath)
	if lock.Path() != lockPath {
		t.Errorf("Path() = %q, want %q", lock.Path(), lockPath)
	}

	if err := lock.Lock(); err != nil {
		t.Fatalf("Lock() error = %v", err)
	}
	if _, err := os.Stat(lockPath); os.IsNotExist(err) {
		t.Error("lock file should exist after locking")
	}
	if err := lock.Unlock(); err != nil {
		t.Fatalf("Unlock() error = %v", err)
	}
	if lock.file != nil {
		t.Error("expected file handle to be nil after unlocking")
	}
}

func TestFileLock_UnlockWithoutLock(t *testing.T) {
	t.Parallel()

	lock := NewFileLock(filepath.Join(t.TempDir(), "never.lock"))
	if err := lock.Unlock(); err != nil {
		t.Errorf("Unlock() without Lock() should not error, got %v", err)
	}
}

func TestFileLock_TryLock(t *testing.T) {
	t.Parallel()

	lockPath := filepath.Join(t.TempDir(), "pool.lock")
	holder := NewFileLock(lockPath)
	if err := holder.Lock(); err != nil {
		t.Fatal(err)
	}

	other := NewFileLock(lockPath)
	if err := other.TryLock(); !errors.Is(err, ErrLocked) {
		t.Errorf("TryLock() while held error = %v, want ErrLocked", err)
		other.Unlock()
	}

	if err := holder.Unlock(); err != nil {
		t.Fatal(err)
	}
	if err := other.TryLock(); err != nil {
		t.Errorf("TryLock() after release error = %v", err)
	}
	other.Unlock()
}

func TestFileLock_Blocks(t *testing.T) {
	t.Parallel()

	lockPath := filepath.Join(t.TempDir(), "profile.lock")

	lock1 := NewFileLock(lockPath)
	if err := lock1.Lock(); err != nil {
		t.Fatalf("lock1 Lock() error = %v", err)
	}

	done := make(chan struct{})
	go func() {
		lock2 := NewFileLock(lockPath)
		if err := lock2.Lock(); err != nil {
			t.Errorf("lock2 Lock() error = %v", err)
			return
		}
		lock2.Unlock()
		close(done)
	}()

	select {
	case <-done:
		t.Error("lock2 should have blocked while lock1 is held")
	case <-time.After(30 * time.Millisecond):
	}

	if err := lock1.Unlock(); err != nil {
		t.Fatalf("lock1 Unlock() error = %v", err)
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Error("lock2 should have acquired lock after lock1 released")
	}
}

func TestFileLock_InvalidPath(t *testing.T) {
	t.Parallel()

	lock := NewFileLock("/non-existent-dir/test.lock")
	if err := lock.Lock(); err == nil {
		lock.Unlock()
		t.Error("expected error for lock in non-existent directory")
	}
}
