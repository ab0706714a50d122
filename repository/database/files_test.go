package database

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteImageRoundTrip(t *testing.T) {
	fileName := filepath.Join(t.TempDir(), "composites", "1.jpg")

	payload := []byte{0xff, 0xd8, 0xff, 0xe0}
	if err := WriteImage(fileName, payload); err != nil {
		t.Fatalf("WriteImage failed: %v", err)
	}

	read, err := os.ReadFile(fileName)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(read) != string(payload) {
		t.Errorf("payload changed on disk: %v", read)
	}

	// Rewriting the same name truncates, it never appends.
	if err := WriteImage(fileName, []byte{0x01}); err != nil {
		t.Fatalf("WriteImage failed: %v", err)
	}

	read, _ = os.ReadFile(fileName)
	if len(read) != 1 {
		t.Errorf("rewrite did not truncate: %v", read)
	}
}

func TestRemoveFileIsIdempotent(t *testing.T) {
	fileName := filepath.Join(t.TempDir(), "1.jpg")

	if err := os.WriteFile(fileName, []byte("jpg"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	if err := RemoveFile(fileName); err != nil {
		t.Fatalf("RemoveFile failed: %v", err)
	}
	if _, err := os.Stat(fileName); !os.IsNotExist(err) {
		t.Fatal("file still exists")
	}

	// A second delete of the same name is a no-op.
	if err := RemoveFile(fileName); err != nil {
		t.Fatalf("repeated RemoveFile failed: %v", err)
	}
}
