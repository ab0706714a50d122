package domain

import (
	"fmt"
	"strings"
)

// Decision is the outcome of Phase I. Abort is the timeout outcome and is
// carried on the wire as a COMMIT_ABORT message rather than a commit
// message with agreement=false.
type Decision int32

const (
	Decision_YES   Decision = 0
	Decision_NO    Decision = 1
	Decision_ABORT Decision = 2
)

func (d Decision) String() string {
	switch d {
	case Decision_YES:
		return "YES"
	case Decision_NO:
		return "NO"
	case Decision_ABORT:
		return "ABORT"
	}
	return fmt.Sprintf("Decision(%d)", int32(d))
}

// ParseDecision is the inverse of Decision.String, used when replaying a
// "Phase Two: <decision>" log line.
func ParseDecision(s string) (Decision, error) {
	switch s {
	case "YES":
		return Decision_YES, nil
	case "NO":
		return Decision_NO, nil
	case "ABORT":
		return Decision_ABORT, nil
	}
	return Decision_ABORT, &MalformedEntryError{Line: s}
}

// Phase tracks how far a coordinator commit has progressed.
type Phase int32

const (
	Phase_INIT Phase = 0
	Phase_ONE  Phase = 1
	Phase_TWO  Phase = 2
	Phase_DONE Phase = 3
)

// SourceFileStatus is the participant log alphabet. A file's lock state
// after replay is the net count of PREPARED minus ABORTED/COMMITTED lines.
type SourceFileStatus int32

const (
	Status_PREPARED  SourceFileStatus = 0
	Status_ABORTED   SourceFileStatus = 1
	Status_COMMITTED SourceFileStatus = 2
)

func (s SourceFileStatus) String() string {
	switch s {
	case Status_PREPARED:
		return "PREPARED"
	case Status_ABORTED:
		return "ABORTED"
	case Status_COMMITTED:
		return "COMMITTED"
	}
	return fmt.Sprintf("SourceFileStatus(%d)", int32(s))
}

func ParseSourceFileStatus(s string) (SourceFileStatus, error) {
	switch s {
	case "PREPARED":
		return Status_PREPARED, nil
	case "ABORTED":
		return Status_ABORTED, nil
	case "COMMITTED":
		return Status_COMMITTED, nil
	}
	return Status_ABORTED, &MalformedEntryError{Line: s}
}

// CommitInfo describes one composite commit: the composite file name, the
// raw "<node>:<file>" source list as supplied by the caller, and the same
// list regrouped per participant node.
type CommitInfo struct {
	FileName string
	Sources  []string

	files map[string][]string
}

// NewCommitInfo parses the raw source list. Duplicates are preserved; order
// within a node follows the caller's order.
func NewCommitInfo(fileName string, sources []string) (*CommitInfo, error) {
	info := &CommitInfo{
		FileName: fileName,
		Sources:  append([]string(nil), sources...),
		files:    make(map[string][]string),
	}

	for _, source := range sources {
		idx := strings.Index(source, ":")
		if idx <= 0 || idx == len(source)-1 {
			return nil, &MalformedSourceError{Source: source}
		}

		node := source[:idx]
		file := source[idx+1:]

		info.files[node] = append(info.files[node], file)
	}

	return info, nil
}

// Nodes returns the distinct participant nodes referenced by the commit.
func (c *CommitInfo) Nodes() []string {
	nodes := make([]string, 0, len(c.files))

	for node := range c.files {
		nodes = append(nodes, node)
	}

	return nodes
}

// FilesOf returns the source files contributed by one node.
func (c *CommitInfo) FilesOf(node string) []string {
	return c.files[node]
}

// NumNodes returns the number of distinct participant nodes.
func (c *CommitInfo) NumNodes() int {
	return len(c.files)
}

type DuplicateCommitError struct {
	FileName string
}

func (d *DuplicateCommitError) Error() string {
	return "a live commit already owns " + d.FileName
}

type UnknownCommitError struct {
	FileName string
}

func (u *UnknownCommitError) Error() string {
	return "no live commit owns " + u.FileName
}

type MalformedSourceError struct {
	Source string
}

func (m *MalformedSourceError) Error() string {
	return "source is not <node>:<file>: " + m.Source
}

type MalformedEntryError struct {
	Line string
}

func (m *MalformedEntryError) Error() string {
	return "malformed log entry: " + m.Line
}
