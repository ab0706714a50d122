package database

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/YanningMaoMao/15440-P4/domain"
	log "github.com/sirupsen/logrus"
)

const (
	fileNameStr = "File Name"
	sourcesStr  = "Sources"
	phaseOneStr = "Phase One"
	phaseTwoStr = "Phase Two"
	doneStr     = "DONE"

	logFilePrefix = "log_"
	txtFileSuffix = ".txt"
)

// CommitLog is the coordinator's durable log store: one append-only text
// file per commit under the log directory, fsynced after every append.
type CommitLog struct {
	dir string

	lock *sync.Mutex
}

// RecoveredCommit is the replay result for one log file: the commit it
// describes and which markers had reached disk before the crash.
type RecoveredCommit struct {
	Info     *domain.CommitInfo
	PhaseOne bool
	PhaseTwo bool
	Decision domain.Decision
	Done     bool
}

func NewCommitLog(dir string) (*CommitLog, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	return &CommitLog{
		dir:  dir,
		lock: &sync.Mutex{},
	}, nil
}

// path maps a commit to its log file: log_<basename>.txt with the
// extension stripped.
func (c *CommitLog) path(commitFName string) string {
	base := filepath.Base(commitFName)
	if idx := strings.Index(base, "."); idx >= 0 {
		base = base[:idx]
	}

	return filepath.Join(c.dir, logFilePrefix+base+txtFileSuffix)
}

// Create records the identity of a new commit: its file name and its raw
// source list. Both lines reach disk before the caller proceeds.
func (c *CommitLog) Create(info *domain.CommitInfo) error {
	line := fileNameStr + ":" + info.FileName + "\n" +
		sourcesStr + ":" + strings.Join(info.Sources, ",")

	return c.appendLine(info.FileName, line)
}

func (c *CommitLog) MarkPhaseOne(commitFName string) error {
	return c.appendLine(commitFName, phaseOneStr)
}

func (c *CommitLog) MarkPhaseTwo(commitFName string, decision domain.Decision) error {
	return c.appendLine(commitFName, phaseTwoStr+":"+decision.String())
}

func (c *CommitLog) MarkDone(commitFName string) error {
	return c.appendLine(commitFName, doneStr)
}

func (c *CommitLog) appendLine(commitFName string, line string) error {
	c.lock.Lock()
	defer c.lock.Unlock()

	file, err := os.OpenFile(c.path(commitFName), os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0644)
	if err != nil {
		return err
	}

	if _, err := file.WriteString(line + "\n"); err != nil {
		file.Close()
		return err
	}

	// The fsync barrier: no state change is externally observable before
	// its log line is durable.
	if err := file.Sync(); err != nil {
		file.Close()
		return err
	}

	return file.Close()
}

// Replay scans the log directory and reconstructs the durable state of
// every commit found there. Non-log files are ignored.
func (c *CommitLog) Replay() ([]*RecoveredCommit, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return nil, err
	}

	recovered := make([]*RecoveredCommit, 0)

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), txtFileSuffix) {
			continue
		}

		rec, err := c.replayFile(filepath.Join(c.dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("replay of %v failed: %w", entry.Name(), err)
		}

		if rec.Info == nil {
			log.Warnln("Commit log without identity, skipping: ", entry.Name())
			continue
		}

		recovered = append(recovered, rec)
	}

	return recovered, nil
}

func (c *CommitLog) replayFile(path string) (*RecoveredCommit, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	rec := &RecoveredCommit{}

	var fileName string
	var sources []string

	reader := bufio.NewReader(file)
	for {
		line, err := reader.ReadString('\n')
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		line = strings.TrimRight(line, "\n")

		switch {
		case strings.HasPrefix(line, fileNameStr):
			fileName = strings.TrimSpace(line[len(fileNameStr)+1:])
		case strings.HasPrefix(line, sourcesStr):
			raw := strings.TrimSpace(line[len(sourcesStr)+1:])
			if raw != "" {
				sources = strings.Split(raw, ",")
			}
		case strings.HasPrefix(line, phaseTwoStr):
			decision, err := domain.ParseDecision(strings.TrimSpace(line[len(phaseTwoStr)+1:]))
			if err != nil {
				return nil, err
			}
			rec.PhaseTwo = true
			rec.Decision = decision
		case strings.HasPrefix(line, phaseOneStr):
			rec.PhaseOne = true
		case strings.HasPrefix(line, doneStr):
			rec.Done = true
		}
	}

	if fileName != "" {
		info, err := domain.NewCommitInfo(fileName, sources)
		if err != nil {
			return nil, err
		}
		rec.Info = info
	}

	return rec, nil
}
