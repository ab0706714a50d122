package service

import (
	"time"

	"github.com/YanningMaoMao/15440-P4/domain"
	pb "github.com/YanningMaoMao/15440-P4/grpc/proto-files/message"
	"github.com/YanningMaoMao/15440-P4/metrics"
	"github.com/YanningMaoMao/15440-P4/repository/database"
	"github.com/YanningMaoMao/15440-P4/repository/messaging"
	log "github.com/sirupsen/logrus"
)

// startFrom selects which of the three driver shapes a commitProcess runs:
// the full protocol, Phase II with a recovered decision, or Phase II as an
// abort for a commit that died in Phase I.
type startFrom int

const (
	startFull startFrom = iota
	startPhaseTwoRecover
	startPhaseOneAbort
)

// queueSize bounds the per-commit vote and ack channels. The router drops
// on overflow; any realistic participant set stays far below this.
const queueSize = 64

// commitProcess is the driver for one commit. The message router is the
// only producer on its queues; the driver goroutine is the only consumer.
type commitProcess struct {
	info *domain.CommitInfo
	img  []byte

	mode     startFrom
	decision domain.Decision

	votes chan *pb.Envelope
	acks  chan *pb.Envelope

	sender messaging.Sender
	wal    *database.CommitLog

	phaseOneTimeout time.Duration
	phaseTwoTimeout time.Duration

	finished func(commitFName string)
}

// receiveMessage routes one inbound message onto the right queue. Anything
// other than a vote or an ack is dropped with a diagnostic.
func (p *commitProcess) receiveMessage(env *pb.Envelope) {
	switch env.GetType() {
	case pb.MessageType_COMMIT_AGREEMENT:
		p.enqueue(p.votes, env)
	case pb.MessageType_COMMIT_ACK:
		p.enqueue(p.acks, env)
	default:
		metrics.MessagesDropped.Inc()
		log.WithFields(log.Fields{
			"commit": env.GetCommitId(),
			"sender": env.GetSender(),
		}).Warnln("Commit received unrecognized message type: ", env.GetType())
	}
}

func (p *commitProcess) enqueue(queue chan *pb.Envelope, env *pb.Envelope) {
	select {
	case queue <- env:
	default:
		metrics.MessagesDropped.Inc()
		log.Warnln("Commit queue overflow, dropping message: ", env.GetMessageId())
	}
}

// run drives the commit to DONE and tears its record down.
func (p *commitProcess) run() {
	switch p.mode {
	case startFull:
		p.runFull()
	case startPhaseTwoRecover:
		p.runPhaseTwoRecover()
	case startPhaseOneAbort:
		p.runPhaseOneAbort()
	}

	if err := p.wal.MarkDone(p.info.FileName); err != nil {
		log.Fatalln("Could not log DONE, durability is in doubt: ", err)
	}

	if p.decision == domain.Decision_YES {
		metrics.CommitsCommitted.Inc()
	} else {
		metrics.CommitsAborted.Inc()
	}

	log.WithFields(log.Fields{
		"commit":   p.info.FileName,
		"decision": p.decision,
	}).Infoln("Commit finished")

	p.finished(p.info.FileName)
}

func (p *commitProcess) runFull() {
	p.decision = p.phaseOne()

	// The composite reaches disk before the Phase Two marker does. A crash
	// between the two leaves a log without the marker, and recovery then
	// aborts the commit and deletes the partial composite.
	if p.decision == domain.Decision_YES {
		if err := database.WriteImage(p.info.FileName, p.img); err != nil {
			log.Errorln("Could not persist composite, aborting commit: ", err)
			p.decision = domain.Decision_ABORT
		}
	}

	if err := p.wal.MarkPhaseTwo(p.info.FileName, p.decision); err != nil {
		log.Fatalln("Could not log Phase Two, durability is in doubt: ", err)
	}

	p.phaseTwo(p.decision)
}

func (p *commitProcess) runPhaseTwoRecover() {
	p.phaseTwo(p.decision)
}

func (p *commitProcess) runPhaseOneAbort() {
	p.decision = domain.Decision_ABORT

	if err := p.wal.MarkPhaseTwo(p.info.FileName, p.decision); err != nil {
		log.Fatalln("Could not log Phase Two, durability is in doubt: ", err)
	}

	p.phaseTwo(p.decision)
}

// phaseOne sends the commit query to every participant and aggregates
// votes. A participant still silent when the window closes aborts the
// commit.
func (p *commitProcess) phaseOne() domain.Decision {
	for _, node := range p.info.Nodes() {
		p.sendQuery(node)
	}

	approvals := make(map[string]bool)
	denials := make(map[string]bool)

	initTime := time.Now()

	for len(approvals)+len(denials) < p.info.NumNodes() {
		select {
		case env := <-p.votes:
			if time.Since(initTime) > p.phaseOneTimeout {
				return domain.Decision_ABORT
			}

			if env.GetAgreement() {
				approvals[env.GetSender()] = true
			} else {
				denials[env.GetSender()] = true
			}
		case <-time.After(p.phaseOneTimeout):
			return domain.Decision_ABORT
		}
	}

	if len(denials) == 0 {
		return domain.Decision_YES
	}

	return domain.Decision_NO
}

// phaseTwo broadcasts the decision and collects acks, rebroadcasting to the
// silent subset until every participant has acked. The decision never
// changes across resends.
func (p *commitProcess) phaseTwo(decision domain.Decision) {
	pending := make(map[string]bool)
	for _, node := range p.info.Nodes() {
		pending[node] = true
		p.sendDecision(node, decision)
	}

	for len(pending) > 0 {
		p.collectAcks(pending)

		if len(pending) == 0 {
			break
		}

		metrics.DecisionResends.Inc()
		log.WithFields(log.Fields{
			"commit":  p.info.FileName,
			"waiting": len(pending),
		}).Warnln("Ack timeout, resending decision")

		for node := range pending {
			p.sendDecision(node, decision)
		}
	}
}

// collectAcks drains the ack queue, removing senders from pending, until
// pending is empty or the ack window closes.
func (p *commitProcess) collectAcks(pending map[string]bool) {
	initTime := time.Now()

	for len(pending) > 0 {
		select {
		case env := <-p.acks:
			if time.Since(initTime) > p.phaseTwoTimeout {
				return
			}

			delete(pending, env.GetSender())
		case <-time.After(p.phaseTwoTimeout):
			return
		}
	}
}

func (p *commitProcess) sendQuery(node string) {
	_ = p.sender.Send(&pb.Envelope{
		Type:     pb.MessageType_COMMIT_QUERY,
		CommitId: p.info.FileName,
		Receiver: node,
		Image:    p.img,
		Files:    p.info.FilesOf(node),
	})
}

func (p *commitProcess) sendDecision(node string, decision domain.Decision) {
	env := &pb.Envelope{
		CommitId: p.info.FileName,
		Receiver: node,
		Files:    p.info.FilesOf(node),
	}

	switch decision {
	case domain.Decision_YES:
		env.Type = pb.MessageType_COMMIT_MSG
		env.Agreement = true
	case domain.Decision_NO:
		env.Type = pb.MessageType_COMMIT_MSG
		env.Agreement = false
	case domain.Decision_ABORT:
		env.Type = pb.MessageType_COMMIT_ABORT
	}

	_ = p.sender.Send(env)
}
