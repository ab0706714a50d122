package service

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	pb "github.com/YanningMaoMao/15440-P4/grpc/proto-files/message"
)

type Participant interface {
	HandleMessage(env *pb.Envelope)

	Recover() error
}

// Approver is the operator decision oracle consulted before a node votes on
// a commit query.
type Approver interface {
	Approve(img []byte, files []string) bool
}

// StaticApprover always answers the same way; used for scripted runs and
// tests.
type StaticApprover bool

func (s StaticApprover) Approve(img []byte, files []string) bool {
	return bool(s)
}

// ConsoleApprover asks the operator on stdin.
type ConsoleApprover struct {
	in *bufio.Reader
}

func NewConsoleApprover() *ConsoleApprover {
	return &ConsoleApprover{in: bufio.NewReader(os.Stdin)}
}

func (c *ConsoleApprover) Approve(img []byte, files []string) bool {
	fmt.Printf("Contribute %v to a collage of %d bytes? [y/n] ", strings.Join(files, ", "), len(img))

	answer, err := c.in.ReadString('\n')
	if err != nil {
		return false
	}

	answer = strings.ToLower(strings.TrimSpace(answer))

	return answer == "y" || answer == "yes"
}
