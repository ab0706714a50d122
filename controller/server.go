package controller

import (
	"context"

	pb "github.com/YanningMaoMao/15440-P4/grpc/proto-files/message"
	"github.com/YanningMaoMao/15440-P4/metrics"
	"github.com/YanningMaoMao/15440-P4/service"
	"github.com/golang/protobuf/ptypes/empty"
	log "github.com/sirupsen/logrus"
)

// CommitServer is the gRPC face of a node. Deliver is fire and forget: the
// reply to any message travels as a message of its own, never as the RPC
// response.
type CommitServer struct {
	pb.UnimplementedMessagingServer

	coordinator service.Coordinator
	participant service.Participant
}

// NewCommitServer builds the server for whichever role the process plays;
// the unused handler is nil.
func NewCommitServer(coordinator service.Coordinator, participant service.Participant) *CommitServer {
	return &CommitServer{
		UnimplementedMessagingServer: pb.UnimplementedMessagingServer{},
		coordinator:                  coordinator,
		participant:                  participant,
	}
}

func (c *CommitServer) Deliver(ctx context.Context, env *pb.Envelope) (*empty.Empty, error) {
	switch env.GetType() {
	case pb.MessageType_COMMIT_AGREEMENT, pb.MessageType_COMMIT_ACK:
		if c.coordinator == nil {
			c.drop(env)
			break
		}

		go c.coordinator.HandleMessage(env)

	case pb.MessageType_COMMIT_QUERY, pb.MessageType_COMMIT_MSG, pb.MessageType_COMMIT_ABORT:
		if c.participant == nil {
			c.drop(env)
			break
		}

		go c.participant.HandleMessage(env)

	default:
		c.drop(env)
	}

	return &empty.Empty{}, nil
}

func (c *CommitServer) drop(env *pb.Envelope) {
	metrics.MessagesDropped.Inc()
	log.WithFields(log.Fields{
		"type":   env.GetType(),
		"sender": env.GetSender(),
		"commit": env.GetCommitId(),
	}).Warnln("Dropping unroutable message")
}
