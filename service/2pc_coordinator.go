package service

import (
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

// CoordinatorName is the node name participants see as the sender of every
// coordinator message.
const CoordinatorName = "Server"

type TPCCoordinatorConfig struct {
	PhaseOneTimeout time.Duration
	PhaseTwoTimeout time.Duration
	RecoverPoll     time.Duration
}

// TPCCoordinator drives two phase commits. It owns the table of in-flight
// commits and routes inbound votes and acks to the commit they belong to.
type TPCCoordinator struct {
	sender messaging.Sender
	wal    *database.CommitLog

	phaseOneTimeout time.Duration
	phaseTwoTimeout time.Duration
	recoverPoll     time.Duration

	lock      *sync.Mutex
	processes map[string]*commitProcess

	recovered int32
}

func NewTPCCoordinator(sender messaging.Sender, wal *database.CommitLog, cfg *TPCCoordinatorConfig) *TPCCoordinator {
	return &TPCCoordinator{
		sender:          sender,
		wal:             wal,
		phaseOneTimeout: cfg.PhaseOneTimeout,
		phaseTwoTimeout: cfg.PhaseTwoTimeout,
		recoverPoll:     cfg.RecoverPoll,
		lock:            &sync.Mutex{},
		processes:       make(map[string]*commitProcess),
	}
}

func (t *TPCCoordinator) newProcess(info *domain.CommitInfo, img []byte, mode startFrom, decision domain.Decision) *commitProcess {
	return &commitProcess{
		info:            info,
		img:             img,
		mode:            mode,
		decision:        decision,
		votes:           make(chan *pb.Envelope, queueSize),
		acks:            make(chan *pb.Envelope, queueSize),
		sender:          t.sender,
		wal:             t.wal,
		phaseOneTimeout: t.phaseOneTimeout,
		phaseTwoTimeout: t.phaseTwoTimeout,
		finished:        t.removeProcess,
	}
}

// StartCommit begins a full two phase commit for the named composite. The
// identity and the Phase One marker are durable before the driver starts.
func (t *TPCCoordinator) StartCommit(fileName string, img []byte, sources []string) error {
	t.waitRecovered()

	info, err := domain.NewCommitInfo(fileName, sources)
	if err != nil {
		return err
	}

	proc := t.newProcess(info, img, startFull, domain.Decision_ABORT)

	t.lock.Lock()
	if _, ok := t.processes[fileName]; ok {
		t.lock.Unlock()
		return &domain.DuplicateCommitError{FileName: fileName}
	}
	t.processes[fileName] = proc
	t.lock.Unlock()

	if err := t.wal.Create(info); err != nil {
		t.removeProcess(fileName)
		return err
	}

	if err := t.wal.MarkPhaseOne(fileName); err != nil {
		t.removeProcess(fileName)
		return err
	}

	metrics.CommitsStarted.Inc()
	log.WithFields(log.Fields{
		"commit":  fileName,
		"sources": len(sources),
	}).Infoln("Starting commit")

	go proc.run()

	return nil
}

// HandleMessage dispatches an inbound message to the commit that owns it.
// Messages for unknown commits can only come from a commit that already
// reached DONE, or from corrupt traffic; either way they are dropped.
func (t *TPCCoordinator) HandleMessage(env *pb.Envelope) {
	t.lock.Lock()
	proc, ok := t.processes[env.GetCommitId()]
	t.lock.Unlock()

	if !ok {
		metrics.MessagesDropped.Inc()
		log.WithFields(log.Fields{
			"commit": env.GetCommitId(),
			"sender": env.GetSender(),
		}).Warnln("Dropping message for unknown commit")
		return
	}

	proc.receiveMessage(env)
}

// Recover replays the log directory and finishes every commit that was in
// flight when the process died. It blocks until all recovery drivers have
// finished, then flips the recovery flag exactly once.
func (t *TPCCoordinator) Recover() error {
	recovered, err := t.wal.Replay()
	if err != nil {
		return err
	}

	drivers := make([]*commitProcess, 0)

	for _, rec := range recovered {
		fileName := rec.Info.FileName

		switch {
		case rec.Done:
			// Finished before the crash; never re-executed.
			continue

		case rec.PhaseTwo:
			// The decision is durable: rebroadcast it and collect acks.
			log.WithFields(log.Fields{
				"commit":   fileName,
				"decision": rec.Decision,
			}).Infoln("Recovering commit from Phase Two")

			drivers = append(drivers, t.newProcess(rec.Info, nil, startPhaseTwoRecover, rec.Decision))

		case rec.PhaseOne:
			// No participant can have seen a yes decision, so abort is
			// safe. The composite may have been partially written.
			log.WithFields(log.Fields{
				"commit": fileName,
			}).Infoln("Aborting commit that died in Phase One")

			if err := database.RemoveFile(fileName); err != nil {
				return err
			}

			drivers = append(drivers, t.newProcess(rec.Info, nil, startPhaseOneAbort, domain.Decision_ABORT))

		default:
			// Died before any outbound effect; abort without traffic.
			log.WithFields(log.Fields{
				"commit": fileName,
			}).Infoln("Closing commit that died before Phase One")

			if err := t.wal.MarkPhaseTwo(fileName, domain.Decision_ABORT); err != nil {
				return err
			}
			if err := t.wal.MarkDone(fileName); err != nil {
				return err
			}
		}
	}

	// Register every driver before starting any, so inbound acks route
	// correctly from the first rebroadcast on.
	t.lock.Lock()
	for _, proc := range drivers {
		t.processes[proc.info.FileName] = proc
	}
	t.lock.Unlock()

	wg := &sync.WaitGroup{}

	for _, proc := range drivers {
		wg.Add(1)

		go func(proc *commitProcess) {
			defer wg.Done()
			proc.run()
		}(proc)
	}

	wg.Wait()

	atomic.StoreInt32(&t.recovered, 1)

	log.Infoln("Coordinator recovery finished: ", len(drivers), " commits replayed")

	return nil
}

func (t *TPCCoordinator) removeProcess(fileName string) {
	t.lock.Lock()
	defer t.lock.Unlock()

	delete(t.processes, fileName)
}

func (t *TPCCoordinator) waitRecovered() {
	for atomic.LoadInt32(&t.recovered) == 0 {
		time.Sleep(t.recoverPoll)
	}
}
