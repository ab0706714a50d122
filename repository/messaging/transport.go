package messaging

import (
	"context"
	"time"

	pb "github.com/YanningMaoMao/15440-P4/grpc/proto-files/message"
	"github.com/YanningMaoMao/15440-P4/metrics"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Sender is the point-to-point messaging substrate seen by the state
// machines: best-effort delivery of one envelope to a named node.
type Sender interface {
	Send(env *pb.Envelope) error
}

// PeerSet is the gRPC-backed Sender. It owns one PeerClient per known node
// and stamps every outbound envelope with the local node name and a
// message id.
type PeerSet struct {
	self        string
	rpcPeers    map[string]*PeerClient
	sendTimeout time.Duration
}

func NewPeerSet(self string, peerAddrs map[string]string, sendTimeout time.Duration) *PeerSet {
	rpcPeers := make(map[string]*PeerClient)

	log.Println("Creating peers from list...")

	for peerName, addr := range peerAddrs {
		peerConfig := &PeerClientConfig{
			PeerName:   peerName,
			ServerAddr: addr,
		}

		rpcPeers[peerName] = NewPeerClient(peerConfig)
	}

	log.Println("Finished creating peers: ", rpcPeers)

	return &PeerSet{
		self:        self,
		rpcPeers:    rpcPeers,
		sendTimeout: sendTimeout,
	}
}

func (p *PeerSet) Connect() error {
	for _, rpcPeer := range p.rpcPeers {
		if err := rpcPeer.Connect(); err != nil {
			return err
		}
	}

	return nil
}

// Send delivers one envelope to env.Receiver. Delivery is best effort:
// failures are logged and the message is dropped, exactly as a lossy
// substrate would lose it. The protocol's retry loops own redelivery.
func (p *PeerSet) Send(env *pb.Envelope) error {
	rpcPeer, ok := p.rpcPeers[env.GetReceiver()]
	if !ok {
		metrics.MessagesDropped.Inc()
		log.Warnln("Dropping message to unknown peer: ", env.GetReceiver())
		return nil
	}

	env.Sender = p.self
	env.MessageId = uuid.New().String()

	ctx, cancel := context.WithTimeout(context.Background(), p.sendTimeout)
	defer cancel()

	if _, err := rpcPeer.Deliver(ctx, env); err != nil {
		metrics.MessagesDropped.Inc()
		log.WithFields(log.Fields{
			"peer":    env.GetReceiver(),
			"type":    env.GetType(),
			"commit":  env.GetCommitId(),
			"message": env.GetMessageId(),
		}).Warnln("Message dropped: ", err)
		return err
	}

	return nil
}
