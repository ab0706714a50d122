package controller

import (
	"context"
	"testing"
	"time"

	pb "github.com/YanningMaoMao/15440-P4/grpc/proto-files/message"
)

type fakeCoordinator struct {
	received chan *pb.Envelope
}

func (f *fakeCoordinator) StartCommit(fileName string, img []byte, sources []string) error {
	return nil
}

func (f *fakeCoordinator) HandleMessage(env *pb.Envelope) {
	f.received <- env
}

func (f *fakeCoordinator) Recover() error {
	return nil
}

type fakeParticipant struct {
	received chan *pb.Envelope
}

func (f *fakeParticipant) HandleMessage(env *pb.Envelope) {
	f.received <- env
}

func (f *fakeParticipant) Recover() error {
	return nil
}

func receive(t *testing.T, ch chan *pb.Envelope) *pb.Envelope {
	t.Helper()

	select {
	case env := <-ch:
		return env
	case <-time.After(time.Second):
		t.Fatal("message never routed")
		return nil
	}
}

func TestDeliverRoutesByMessageType(t *testing.T) {
	coordinator := &fakeCoordinator{received: make(chan *pb.Envelope, 1)}
	participant := &fakeParticipant{received: make(chan *pb.Envelope, 1)}

	server := NewCommitServer(coordinator, participant)

	for _, msgType := range []pb.MessageType{pb.MessageType_COMMIT_AGREEMENT, pb.MessageType_COMMIT_ACK} {
		if _, err := server.Deliver(context.Background(), &pb.Envelope{Type: msgType}); err != nil {
			t.Fatalf("Deliver failed: %v", err)
		}

		if env := receive(t, coordinator.received); env.GetType() != msgType {
			t.Errorf("wrong message routed to coordinator: %v", env.GetType())
		}
	}

	for _, msgType := range []pb.MessageType{pb.MessageType_COMMIT_QUERY, pb.MessageType_COMMIT_MSG, pb.MessageType_COMMIT_ABORT} {
		if _, err := server.Deliver(context.Background(), &pb.Envelope{Type: msgType}); err != nil {
			t.Fatalf("Deliver failed: %v", err)
		}

		if env := receive(t, participant.received); env.GetType() != msgType {
			t.Errorf("wrong message routed to participant: %v", env.GetType())
		}
	}
}

func TestDeliverDropsForMissingRole(t *testing.T) {
	participant := &fakeParticipant{received: make(chan *pb.Envelope, 1)}

	// A participant-only node has no coordinator handler; votes and acks
	// addressed to it are dropped, not crashed on.
	server := NewCommitServer(nil, participant)

	if _, err := server.Deliver(context.Background(), &pb.Envelope{Type: pb.MessageType_COMMIT_ACK}); err != nil {
		t.Fatalf("Deliver failed: %v", err)
	}

	select {
	case env := <-participant.received:
		t.Fatalf("ack leaked to the participant: %+v", env)
	case <-time.After(50 * time.Millisecond):
	}
}
