package messaging

import (
	"context"
	"time"

	pb "github.com/YanningMaoMao/15440-P4/grpc/proto-files/message"
	"github.com/golang/protobuf/ptypes/empty"
	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc"
)

type PeerClientConfig struct {
	PeerName   string
	ServerAddr string
}

// PeerClient wraps the generated messaging client for one remote node.
type PeerClient struct {
	PeerName           string
	rpcMessagingClient pb.MessagingClient
	serverAddr         string
}

func NewPeerClient(config *PeerClientConfig) *PeerClient {
	return &PeerClient{
		PeerName:           config.PeerName,
		serverAddr:         config.ServerAddr,
		rpcMessagingClient: nil,
	}
}

// Connect dials the peer. The connection is established lazily; a peer that
// is down stays dialable and its messages are dropped until it comes back.
func (c *PeerClient) Connect() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	rpcConn, err := grpc.DialContext(ctx, c.serverAddr, grpc.WithInsecure())
	if err != nil {
		log.Errorf("Client could not connect to %v: %v\n", c.serverAddr, err)
		return err
	}

	log.Printf("Dialed peer %v on: %v\n", c.PeerName, c.serverAddr)

	c.rpcMessagingClient = pb.NewMessagingClient(rpcConn)

	return nil
}

func (c *PeerClient) Deliver(ctx context.Context, env *pb.Envelope) (*empty.Empty, error) {
	return c.rpcMessagingClient.Deliver(ctx, env)
}
