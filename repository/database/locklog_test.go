package database

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/YanningMaoMao/15440-P4/domain"
)

func newTestLockLog(t *testing.T) *LockLog {
	t.Helper()

	wal, err := NewLockLog(filepath.Join(t.TempDir(), "log"))
	if err != nil {
		t.Fatalf("NewLockLog failed: %v", err)
	}

	return wal
}

func TestLockLogAppendReplay(t *testing.T) {
	wal := newTestLockLog(t)

	if err := wal.Append("1.jpg", "composites/1.jpg", domain.Status_PREPARED); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := wal.Append("3.jpg", "composites/1.jpg", domain.Status_PREPARED); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := wal.Append("3.jpg", "composites/1.jpg", domain.Status_ABORTED); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := wal.Append("1.jpg", "composites/1.jpg", domain.Status_COMMITTED); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	records, err := wal.Replay()
	if err != nil {
		t.Fatalf("Replay failed: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("expected 4 records, got %d", len(records))
	}

	if records[0].SourceFile != "1.jpg" || records[0].CommitID != "composites/1.jpg" ||
		records[0].Status != domain.Status_PREPARED {
		t.Errorf("first record mangled: %+v", records[0])
	}
	if records[3].Status != domain.Status_COMMITTED {
		t.Errorf("last record mangled: %+v", records[3])
	}
}

func TestLockLogReplayMissingLogIsEmpty(t *testing.T) {
	wal := newTestLockLog(t)

	records, err := wal.Replay()
	if err != nil {
		t.Fatalf("Replay failed: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected no records, got %d", len(records))
	}
}

func TestLockLogReplayRejectsMalformedLine(t *testing.T) {
	wal := newTestLockLog(t)

	if err := os.WriteFile(wal.path, []byte("1.jpg:only-two-fields\n"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	_, err := wal.Replay()
	if err == nil {
		t.Fatal("expected error for malformed line")
	}

	var malformed *domain.MalformedEntryError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedEntryError, got %v", err)
	}
}

func TestLockLogReplayRejectsUnknownStatus(t *testing.T) {
	wal := newTestLockLog(t)

	if err := os.WriteFile(wal.path, []byte("1.jpg:c.jpg:LOCKED\n"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	if _, err := wal.Replay(); err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestLockLogReplaySkipsBlankLines(t *testing.T) {
	wal := newTestLockLog(t)

	content := "\n1.jpg:c.jpg:PREPARED\n\n"
	if err := os.WriteFile(wal.path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	records, err := wal.Replay()
	if err != nil {
		t.Fatalf("Replay failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
}
