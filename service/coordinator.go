package service

import pb "github.com/YanningMaoMao/15440-P4/grpc/proto-files/message"

type Coordinator interface {
	StartCommit(fileName string, img []byte, sources []string) error
	HandleMessage(env *pb.Envelope)

	Recover() error
}
