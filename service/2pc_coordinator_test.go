package service

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/YanningMaoMao/15440-P4/domain"
	pb "github.com/YanningMaoMao/15440-P4/grpc/proto-files/message"
	"github.com/YanningMaoMao/15440-P4/repository/database"
)

const (
	voteYes    = "yes"
	voteNo     = "no"
	voteSilent = "silent"
)

// fakePeers plays every participant at once: it answers queries with the
// scripted vote and acks decisions, optionally dropping the first decision
// deliveries to force a resend.
type fakePeers struct {
	lock sync.Mutex

	coordinator *TPCCoordinator

	votes         map[string]string
	dropDecisions map[string]int

	queries   []*pb.Envelope
	decisions []*pb.Envelope
}

func (f *fakePeers) Send(env *pb.Envelope) error {
	f.lock.Lock()
	defer f.lock.Unlock()

	switch env.GetType() {
	case pb.MessageType_COMMIT_QUERY:
		f.queries = append(f.queries, env)

		vote := f.votes[env.GetReceiver()]
		if vote == voteSilent {
			return nil
		}

		go f.coordinator.HandleMessage(&pb.Envelope{
			Type:      pb.MessageType_COMMIT_AGREEMENT,
			CommitId:  env.GetCommitId(),
			Sender:    env.GetReceiver(),
			Receiver:  CoordinatorName,
			Agreement: vote != voteNo,
		})

	case pb.MessageType_COMMIT_MSG, pb.MessageType_COMMIT_ABORT:
		f.decisions = append(f.decisions, env)

		if f.dropDecisions[env.GetReceiver()] > 0 {
			f.dropDecisions[env.GetReceiver()]--
			return nil
		}

		go f.coordinator.HandleMessage(&pb.Envelope{
			Type:     pb.MessageType_COMMIT_ACK,
			CommitId: env.GetCommitId(),
			Sender:   env.GetReceiver(),
			Receiver: CoordinatorName,
		})
	}

	return nil
}

func (f *fakePeers) decisionsFor(node string) []*pb.Envelope {
	f.lock.Lock()
	defer f.lock.Unlock()

	matched := make([]*pb.Envelope, 0)
	for _, env := range f.decisions {
		if env.GetReceiver() == node {
			matched = append(matched, env)
		}
	}

	return matched
}

func (f *fakePeers) numDecisions() int {
	f.lock.Lock()
	defer f.lock.Unlock()

	return len(f.decisions)
}

type coordinatorFixture struct {
	coordinator *TPCCoordinator
	peers       *fakePeers
	wal         *database.CommitLog
	dir         string
}

func newCoordinatorFixture(t *testing.T, votes map[string]string) *coordinatorFixture {
	t.Helper()

	dir := t.TempDir()

	wal, err := database.NewCommitLog(filepath.Join(dir, "log"))
	if err != nil {
		t.Fatalf("NewCommitLog failed: %v", err)
	}

	peers := &fakePeers{
		votes:         votes,
		dropDecisions: make(map[string]int),
	}

	coordinator := NewTPCCoordinator(peers, wal, &TPCCoordinatorConfig{
		PhaseOneTimeout: 150 * time.Millisecond,
		PhaseTwoTimeout: 150 * time.Millisecond,
		RecoverPoll:     time.Millisecond,
	})
	peers.coordinator = coordinator

	return &coordinatorFixture{
		coordinator: coordinator,
		peers:       peers,
		wal:         wal,
		dir:         dir,
	}
}

func (f *coordinatorFixture) composite(name string) string {
	return filepath.Join(f.dir, name)
}

// waitDone polls the commit log until the commit reaches DONE.
func (f *coordinatorFixture) waitDone(t *testing.T, fileName string) *database.RecoveredCommit {
	t.Helper()

	deadline := time.Now().Add(3 * time.Second)

	for time.Now().Before(deadline) {
		recovered, err := f.wal.Replay()
		if err != nil {
			t.Fatalf("Replay failed: %v", err)
		}

		for _, rec := range recovered {
			if rec.Info.FileName == fileName && rec.Done {
				return rec
			}
		}

		time.Sleep(5 * time.Millisecond)
	}

	t.Fatalf("commit %v never reached DONE", fileName)
	return nil
}

func (f *coordinatorFixture) sources(nodes ...string) []string {
	sources := make([]string, 0, len(nodes))
	for _, node := range nodes {
		sources = append(sources, node+":"+node+".jpg")
	}

	return sources
}

func TestStartCommitHappyPath(t *testing.T) {
	f := newCoordinatorFixture(t, map[string]string{"a": voteYes, "b": voteYes})

	if err := f.coordinator.Recover(); err != nil {
		t.Fatalf("Recover failed: %v", err)
	}

	composite := f.composite("1.jpg")
	if err := f.coordinator.StartCommit(composite, []byte("img"), f.sources("a", "b")); err != nil {
		t.Fatalf("StartCommit failed: %v", err)
	}

	rec := f.waitDone(t, composite)
	if rec.Decision != domain.Decision_YES {
		t.Fatalf("expected YES, got %v", rec.Decision)
	}

	if _, err := os.Stat(composite); err != nil {
		t.Fatal("composite missing after a yes decision")
	}

	for _, node := range []string{"a", "b"} {
		decisions := f.peers.decisionsFor(node)
		if len(decisions) == 0 {
			t.Fatalf("no decision reached %v", node)
		}
		if decisions[0].GetType() != pb.MessageType_COMMIT_MSG || !decisions[0].GetAgreement() {
			t.Errorf("wrong decision for %v: %+v", node, decisions[0])
		}
	}

	f.coordinator.lock.Lock()
	live := len(f.coordinator.processes)
	f.coordinator.lock.Unlock()
	if live != 0 {
		t.Errorf("finished commit still registered: %d live", live)
	}
}

func TestStartCommitRefusesDuplicate(t *testing.T) {
	f := newCoordinatorFixture(t, map[string]string{"a": voteSilent})

	if err := f.coordinator.Recover(); err != nil {
		t.Fatalf("Recover failed: %v", err)
	}

	composite := f.composite("1.jpg")
	if err := f.coordinator.StartCommit(composite, []byte("img"), f.sources("a")); err != nil {
		t.Fatalf("StartCommit failed: %v", err)
	}

	err := f.coordinator.StartCommit(composite, []byte("img"), f.sources("a"))
	if _, ok := err.(*domain.DuplicateCommitError); !ok {
		t.Fatalf("expected DuplicateCommitError, got %v", err)
	}

	f.waitDone(t, composite)
}

func TestDenialDecidesNoWithoutComposite(t *testing.T) {
	f := newCoordinatorFixture(t, map[string]string{"a": voteYes, "b": voteNo, "c": voteYes})

	if err := f.coordinator.Recover(); err != nil {
		t.Fatalf("Recover failed: %v", err)
	}

	composite := f.composite("1.jpg")
	if err := f.coordinator.StartCommit(composite, []byte("img"), f.sources("a", "b", "c")); err != nil {
		t.Fatalf("StartCommit failed: %v", err)
	}

	rec := f.waitDone(t, composite)
	if rec.Decision != domain.Decision_NO {
		t.Fatalf("expected NO, got %v", rec.Decision)
	}

	if _, err := os.Stat(composite); !os.IsNotExist(err) {
		t.Fatal("composite written despite a denial")
	}

	for _, node := range []string{"a", "b", "c"} {
		decisions := f.peers.decisionsFor(node)
		if len(decisions) == 0 {
			t.Fatalf("no decision reached %v", node)
		}
		if decisions[0].GetType() != pb.MessageType_COMMIT_MSG || decisions[0].GetAgreement() {
			t.Errorf("expected commit_msg(false) for %v: %+v", node, decisions[0])
		}
	}
}

func TestSilentParticipantAborts(t *testing.T) {
	f := newCoordinatorFixture(t, map[string]string{"a": voteYes, "b": voteSilent})

	if err := f.coordinator.Recover(); err != nil {
		t.Fatalf("Recover failed: %v", err)
	}

	composite := f.composite("1.jpg")
	if err := f.coordinator.StartCommit(composite, []byte("img"), f.sources("a", "b")); err != nil {
		t.Fatalf("StartCommit failed: %v", err)
	}

	rec := f.waitDone(t, composite)
	if rec.Decision != domain.Decision_ABORT {
		t.Fatalf("expected ABORT, got %v", rec.Decision)
	}

	if _, err := os.Stat(composite); !os.IsNotExist(err) {
		t.Fatal("composite written despite an abort")
	}

	decisions := f.peers.decisionsFor("a")
	if len(decisions) == 0 || decisions[0].GetType() != pb.MessageType_COMMIT_ABORT {
		t.Errorf("surviving participant did not get commit_abort: %+v", decisions)
	}
}

// A vote that arrives after the commit aborted and finished routes nowhere;
// it must be dropped quietly.
func TestLateVoteIsIgnored(t *testing.T) {
	f := newCoordinatorFixture(t, map[string]string{"a": voteSilent})

	if err := f.coordinator.Recover(); err != nil {
		t.Fatalf("Recover failed: %v", err)
	}

	composite := f.composite("1.jpg")
	if err := f.coordinator.StartCommit(composite, []byte("img"), f.sources("a")); err != nil {
		t.Fatalf("StartCommit failed: %v", err)
	}

	f.waitDone(t, composite)

	f.coordinator.HandleMessage(&pb.Envelope{
		Type:      pb.MessageType_COMMIT_AGREEMENT,
		CommitId:  composite,
		Sender:    "a",
		Agreement: true,
	})
}

func TestPhaseTwoResendsUntilAcked(t *testing.T) {
	f := newCoordinatorFixture(t, map[string]string{"a": voteYes, "b": voteYes})
	f.peers.dropDecisions["b"] = 1

	if err := f.coordinator.Recover(); err != nil {
		t.Fatalf("Recover failed: %v", err)
	}

	composite := f.composite("1.jpg")
	if err := f.coordinator.StartCommit(composite, []byte("img"), f.sources("a", "b")); err != nil {
		t.Fatalf("StartCommit failed: %v", err)
	}

	f.waitDone(t, composite)

	resent := f.peers.decisionsFor("b")
	if len(resent) < 2 {
		t.Fatalf("expected a resend to b, got %d deliveries", len(resent))
	}

	// The decision never changes across retries.
	for _, env := range resent {
		if env.GetType() != pb.MessageType_COMMIT_MSG || !env.GetAgreement() {
			t.Errorf("resend changed the decision: %+v", env)
		}
	}
}

func TestRecoverPhaseTwoRebroadcastsDecision(t *testing.T) {
	f := newCoordinatorFixture(t, map[string]string{"a": voteYes})

	composite := f.composite("1.jpg")
	info, err := domain.NewCommitInfo(composite, []string{"a:a.jpg"})
	if err != nil {
		t.Fatalf("NewCommitInfo failed: %v", err)
	}

	// The previous incarnation wrote the composite and logged the decision,
	// then died before collecting acks.
	if err := f.wal.Create(info); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := f.wal.MarkPhaseOne(composite); err != nil {
		t.Fatalf("MarkPhaseOne failed: %v", err)
	}
	if err := database.WriteImage(composite, []byte("img")); err != nil {
		t.Fatalf("WriteImage failed: %v", err)
	}
	if err := f.wal.MarkPhaseTwo(composite, domain.Decision_YES); err != nil {
		t.Fatalf("MarkPhaseTwo failed: %v", err)
	}

	if err := f.coordinator.Recover(); err != nil {
		t.Fatalf("Recover failed: %v", err)
	}

	rec := f.waitDone(t, composite)
	if rec.Decision != domain.Decision_YES {
		t.Fatalf("recovery changed the decision to %v", rec.Decision)
	}

	if _, err := os.Stat(composite); err != nil {
		t.Fatal("composite missing after recovery of a yes decision")
	}

	decisions := f.peers.decisionsFor("a")
	if len(decisions) == 0 || decisions[0].GetType() != pb.MessageType_COMMIT_MSG || !decisions[0].GetAgreement() {
		t.Errorf("recovered decision not rebroadcast: %+v", decisions)
	}
}

func TestRecoverPhaseOneAbortsAndDeletesComposite(t *testing.T) {
	f := newCoordinatorFixture(t, map[string]string{"a": voteYes})

	composite := f.composite("1.jpg")
	info, err := domain.NewCommitInfo(composite, []string{"a:a.jpg"})
	if err != nil {
		t.Fatalf("NewCommitInfo failed: %v", err)
	}

	// Died in Phase I, possibly mid-write of the composite.
	if err := f.wal.Create(info); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := f.wal.MarkPhaseOne(composite); err != nil {
		t.Fatalf("MarkPhaseOne failed: %v", err)
	}
	if err := database.WriteImage(composite, []byte("partial")); err != nil {
		t.Fatalf("WriteImage failed: %v", err)
	}

	if err := f.coordinator.Recover(); err != nil {
		t.Fatalf("Recover failed: %v", err)
	}

	rec := f.waitDone(t, composite)
	if rec.Decision != domain.Decision_ABORT {
		t.Fatalf("expected ABORT, got %v", rec.Decision)
	}

	if _, err := os.Stat(composite); !os.IsNotExist(err) {
		t.Fatal("partial composite survived recovery")
	}

	decisions := f.peers.decisionsFor("a")
	if len(decisions) == 0 || decisions[0].GetType() != pb.MessageType_COMMIT_ABORT {
		t.Errorf("abort not broadcast on recovery: %+v", decisions)
	}
}

func TestRecoverSkipsDoneCommit(t *testing.T) {
	f := newCoordinatorFixture(t, map[string]string{"a": voteYes})

	composite := f.composite("1.jpg")
	info, err := domain.NewCommitInfo(composite, []string{"a:a.jpg"})
	if err != nil {
		t.Fatalf("NewCommitInfo failed: %v", err)
	}

	if err := f.wal.Create(info); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := f.wal.MarkPhaseOne(composite); err != nil {
		t.Fatalf("MarkPhaseOne failed: %v", err)
	}
	if err := f.wal.MarkPhaseTwo(composite, domain.Decision_YES); err != nil {
		t.Fatalf("MarkPhaseTwo failed: %v", err)
	}
	if err := f.wal.MarkDone(composite); err != nil {
		t.Fatalf("MarkDone failed: %v", err)
	}

	if err := f.coordinator.Recover(); err != nil {
		t.Fatalf("Recover failed: %v", err)
	}

	if n := f.peers.numDecisions(); n != 0 {
		t.Errorf("DONE commit was reprocessed: %d decisions", n)
	}
}

func TestRecoverClosesCommitWithoutPhaseOne(t *testing.T) {
	f := newCoordinatorFixture(t, map[string]string{"a": voteYes})

	composite := f.composite("1.jpg")
	info, err := domain.NewCommitInfo(composite, []string{"a:a.jpg"})
	if err != nil {
		t.Fatalf("NewCommitInfo failed: %v", err)
	}

	// Only the identity reached disk; no participant ever heard of this
	// commit, so it closes without traffic.
	if err := f.wal.Create(info); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := f.coordinator.Recover(); err != nil {
		t.Fatalf("Recover failed: %v", err)
	}

	if n := f.peers.numDecisions(); n != 0 {
		t.Errorf("commit without Phase One produced traffic: %d decisions", n)
	}

	recovered, err := f.wal.Replay()
	if err != nil {
		t.Fatalf("Replay failed: %v", err)
	}
	if len(recovered) != 1 || !recovered[0].Done || recovered[0].Decision != domain.Decision_ABORT {
		t.Errorf("commit not closed as abort: %+v", recovered[0])
	}
}
