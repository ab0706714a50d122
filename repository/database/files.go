package database

import (
	"os"
	"path/filepath"
)

// WriteImage writes the composite payload to its final name and flushes it
// before closing. The caller logs the Phase Two marker only after this
// returns, so a crash mid-write leaves a partial file that recovery deletes.
func WriteImage(fileName string, imgBytes []byte) error {
	if dir := filepath.Dir(fileName); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	file, err := os.OpenFile(fileName, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}

	curLen := 0
	for curLen < len(imgBytes) {
		writtenLen, err := file.Write(imgBytes[curLen:])
		if err != nil {
			file.Close()
			return err
		}

		curLen += writtenLen
	}

	if err := file.Sync(); err != nil {
		file.Close()
		return err
	}

	return file.Close()
}

// RemoveFile deletes a file and syncs its parent directory so the deletion
// is durably observable. A missing file is a no-op; redelivered commit
// messages re-run the delete safely.
func RemoveFile(fileName string) error {
	if err := os.Remove(fileName); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	return syncDir(filepath.Dir(fileName))
}

func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}

	err = d.Sync()

	if closeErr := d.Close(); err == nil {
		err = closeErr
	}

	return err
}
