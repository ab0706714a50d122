package service

import (
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/YanningMaoMao/15440-P4/domain"
	pb "github.com/YanningMaoMao/15440-P4/grpc/proto-files/message"
	"github.com/YanningMaoMao/15440-P4/metrics"
	"github.com/YanningMaoMao/15440-P4/repository/database"
	"github.com/YanningMaoMao/15440-P4/repository/messaging"
	log "github.com/sirupsen/logrus"
)

type TPCParticipantConfig struct {
	RecoverPoll time.Duration
}

// TPCParticipant is the reactive side of the protocol: it votes on commit
// queries, holds tentative locks on its source files, and executes the
// coordinator's decision. Handlers are serialized by a coarse mutex so a
// file is prepared for at most one commit at a time.
type TPCParticipant struct {
	id string

	sender   messaging.Sender
	wal      *database.LockLog
	approver Approver

	recoverPoll time.Duration

	lock          *sync.Mutex
	filesPrepared map[string]string

	recovered int32
}

func NewTPCParticipant(id string, sender messaging.Sender, wal *database.LockLog, approver Approver, cfg *TPCParticipantConfig) *TPCParticipant {
	return &TPCParticipant{
		id:            id,
		sender:        sender,
		wal:           wal,
		approver:      approver,
		recoverPoll:   cfg.RecoverPoll,
		lock:          &sync.Mutex{},
		filesPrepared: make(map[string]string),
	}
}

// HandleMessage processes one inbound message. Delivery blocks until local
// recovery has finished.
func (t *TPCParticipant) HandleMessage(env *pb.Envelope) {
	t.waitRecovered()

	t.lock.Lock()
	defer t.lock.Unlock()

	switch env.GetType() {
	case pb.MessageType_COMMIT_QUERY:
		t.handleCommitQuery(env)
	case pb.MessageType_COMMIT_MSG:
		t.handleCommitMessage(env)
	case pb.MessageType_COMMIT_ABORT:
		t.handleCommitAbort(env)
	default:
		metrics.MessagesDropped.Inc()
		log.WithFields(log.Fields{
			"node":   t.id,
			"sender": env.GetSender(),
		}).Warnln("Node received unknown type of message: ", env.GetType())
	}
}

// handleCommitQuery votes on a commit. The operator is asked first; then
// every source file must exist and be free (or already held by this same
// commit). Files scanned before a conflict are already tentatively locked,
// and the refusal branch releases exactly those.
func (t *TPCParticipant) handleCommitQuery(env *pb.Envelope) {
	commitFName := env.GetCommitId()

	ok := t.approver.Approve(env.GetImage(), env.GetFiles())

	for _, sourceFName := range env.GetFiles() {
		if _, err := os.Stat(sourceFName); err != nil {
			// Missing, or already consumed by an earlier commit.
			ok = false
			break
		}

		if owner, held := t.filesPrepared[sourceFName]; held {
			if owner != commitFName {
				ok = false
				break
			}
			continue
		}

		if err := t.wal.Append(sourceFName, commitFName, domain.Status_PREPARED); err != nil {
			log.Errorln("Could not log prepared entry: ", err)
			ok = false
			break
		}

		t.filesPrepared[sourceFName] = commitFName
		metrics.LocksPrepared.Inc()
	}

	if !ok {
		t.releaseLocks(commitFName, env.GetFiles())
	}

	log.WithFields(log.Fields{
		"node":   t.id,
		"commit": commitFName,
		"vote":   ok,
	}).Infoln("Voted on commit query")

	_ = t.sender.Send(&pb.Envelope{
		Type:      pb.MessageType_COMMIT_AGREEMENT,
		CommitId:  commitFName,
		Receiver:  env.GetSender(),
		Agreement: ok,
	})
}

// handleCommitMessage executes the coordinator's decision. On a confirmed
// commit every named file is deleted and logged committed, whether or not a
// lock entry survives; replay depends on the net count, and a redelivered
// decision re-runs this as a no-op on disk.
func (t *TPCParticipant) handleCommitMessage(env *pb.Envelope) {
	commitFName := env.GetCommitId()

	if env.GetAgreement() {
		for _, sourceFName := range env.GetFiles() {
			if err := database.RemoveFile(sourceFName); err != nil {
				log.Errorln("Could not delete committed file: ", err)
				return
			}

			if err := t.wal.Append(sourceFName, commitFName, domain.Status_COMMITTED); err != nil {
				log.Errorln("Could not log committed entry: ", err)
				return
			}

			if _, held := t.filesPrepared[sourceFName]; held {
				delete(t.filesPrepared, sourceFName)
			}

			metrics.FilesCommitted.Inc()
		}

		log.WithFields(log.Fields{
			"node":   t.id,
			"commit": commitFName,
		}).Infoln("Commit confirmed, files deleted")
	} else {
		t.releaseLocks(commitFName, env.GetFiles())

		log.WithFields(log.Fields{
			"node":   t.id,
			"commit": commitFName,
		}).Infoln("Commit denied, locks released")
	}

	t.sendAck(commitFName, env.GetSender())
}

// handleCommitAbort releases every lock this commit holds.
func (t *TPCParticipant) handleCommitAbort(env *pb.Envelope) {
	commitFName := env.GetCommitId()

	t.releaseLocks(commitFName, env.GetFiles())

	log.WithFields(log.Fields{
		"node":   t.id,
		"commit": commitFName,
	}).Infoln("Commit aborted, locks released")

	t.sendAck(commitFName, env.GetSender())
}

// releaseLocks frees the given files from the prepared state, but only
// those actually held by this commit.
func (t *TPCParticipant) releaseLocks(commitFName string, files []string) {
	for _, sourceFName := range files {
		if owner, held := t.filesPrepared[sourceFName]; !held || owner != commitFName {
			continue
		}

		if err := t.wal.Append(sourceFName, commitFName, domain.Status_ABORTED); err != nil {
			log.Errorln("Could not log aborted entry: ", err)
			continue
		}

		delete(t.filesPrepared, sourceFName)
		metrics.LocksReleased.Inc()
	}
}

func (t *TPCParticipant) sendAck(commitFName string, receiver string) {
	_ = t.sender.Send(&pb.Envelope{
		Type:     pb.MessageType_COMMIT_ACK,
		CommitId: commitFName,
		Receiver: receiver,
	})
}

// Recover rebuilds the lock table from the log: the net count of prepared
// minus released lines decides whether a file is still locked, and a lock
// is only installed when the backing file still exists. With several
// positive commits for one file (cannot happen absent bugs), the first in
// log order wins.
func (t *TPCParticipant) Recover() error {
	records, err := t.wal.Replay()
	if err != nil {
		return err
	}

	counts := make(map[string]map[string]int)
	fileOrder := make([]string, 0)
	commitOrder := make(map[string][]string)

	for _, rec := range records {
		if _, ok := counts[rec.SourceFile]; !ok {
			counts[rec.SourceFile] = make(map[string]int)
			fileOrder = append(fileOrder, rec.SourceFile)
		}

		if _, ok := counts[rec.SourceFile][rec.CommitID]; !ok {
			commitOrder[rec.SourceFile] = append(commitOrder[rec.SourceFile], rec.CommitID)
		}

		if rec.Status == domain.Status_PREPARED {
			counts[rec.SourceFile][rec.CommitID]++
		} else {
			counts[rec.SourceFile][rec.CommitID]--
		}
	}

	t.lock.Lock()
	for _, sourceFName := range fileOrder {
		if _, err := os.Stat(sourceFName); err != nil {
			continue
		}

		for _, commitFName := range commitOrder[sourceFName] {
			if counts[sourceFName][commitFName] > 0 {
				t.filesPrepared[sourceFName] = commitFName
				break
			}
		}
	}
	t.lock.Unlock()

	atomic.StoreInt32(&t.recovered, 1)

	log.WithFields(log.Fields{
		"node":  t.id,
		"locks": len(t.filesPrepared),
	}).Infoln("Participant recovery finished")

	return nil
}

func (t *TPCParticipant) waitRecovered() {
	for atomic.LoadInt32(&t.recovered) == 0 {
		time.Sleep(t.recoverPoll)
	}
}
