// Package election elects the executor replica allowed to drain the order
// queue using the bully algorithm.
package election

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// PeerClient reaches other executor replicas. Any error means the peer is
// unreachable.
type PeerClient interface {
	DeclareElection(ctx context.Context, peerID, senderID int) error
	DeclareVictory(ctx context.Context, peerID, leaderID int) error
}

// State is the local view of the election.
type State string

const (
	StateFollower State = "FOLLOWER"
	StateElecting State = "ELECTING"
	StateLeader   State = "LEADER"
)

// Options tune an Elector.
type Options struct {
	// Timeout bounds every probe and victory call.
	Timeout time.Duration
	// ReelectOnProbe makes a replica start its own election when a lower id
	// probes it. By default a probe is only acknowledged.
	ReelectOnProbe bool
}

// Elector holds ElectionState for one replica.
type Elector struct {
	self   int
	peers  []int
	client PeerClient
	opts   Options
	logger *slog.Logger

	mu        sync.RWMutex
	leader    int
	hasLeader bool
	electing  bool

	background atomic.Bool
	wg         sync.WaitGroup
}

// NewElector creates an elector for self. peers must not contain self.
func NewElector(self int, peers []int, client PeerClient, opts Options, logger *slog.Logger) *Elector {
	if opts.Timeout <= 0 {
		opts.Timeout = time.Second
	}
	sorted := make([]int, 0, len(peers))
	for _, id := range peers {
		if id != self {
			sorted = append(sorted, id)
		}
	}
	sort.Ints(sorted)
	return &Elector{self: self, peers: sorted, client: client, opts: opts, logger: logger}
}

// Self returns the local replica id.
func (e *Elector) Self() int { return e.self }

// Leader returns the current leader, if known.
func (e *Elector) Leader() (int, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.leader, e.hasLeader
}

// IsLeader reports whether this replica believes it is the leader.
func (e *Elector) IsLeader() bool {
	leader, ok := e.Leader()
	return ok && leader == e.self
}

// State returns the election state.
func (e *Elector) State() State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	switch {
	case e.electing:
		return StateElecting
	case e.hasLeader && e.leader == e.self:
		return StateLeader
	default:
		return StateFollower
	}
}

// RunElection probes higher ids in ascending order. The first one alive is
// adopted as leader, expecting it to declare victory itself. When none
// answers, this replica becomes leader and tells every peer.
func (e *Elector) RunElection(ctx context.Context) int {
	e.mu.Lock()
	e.electing = true
	e.mu.Unlock()
	defer func() {
		e.mu.Lock()
		e.electing = false
		e.mu.Unlock()
	}()

	for _, id := range e.peers {
		if id < e.self {
			continue
		}
		if e.probe(ctx, id) {
			e.setLeader(id)
			e.logger.Info("higher replica alive", slog.Int("peer", id))
			return id
		}
	}

	e.setLeader(e.self)
	e.logger.Info("elected leader", slog.Int("leader", e.self))
	for _, id := range e.peers {
		callCtx, cancel := context.WithTimeout(ctx, e.opts.Timeout)
		err := e.client.DeclareVictory(callCtx, id, e.self)
		cancel()
		if err != nil {
			e.logger.Warn("declare victory failed", slog.Int("peer", id), slog.String("error", err.Error()))
		}
	}
	return e.self
}

// ProbeLeader checks the current leader. It returns false when the leader is
// unknown or unreachable and clears the stale leader in that case.
func (e *Elector) ProbeLeader(ctx context.Context) bool {
	leader, ok := e.Leader()
	if !ok {
		return false
	}
	if leader == e.self {
		return true
	}
	if e.probe(ctx, leader) {
		return true
	}
	e.logger.Warn("leader unreachable", slog.Int("leader", leader))
	e.mu.Lock()
	if e.hasLeader && e.leader == leader {
		e.hasLeader = false
	}
	e.mu.Unlock()
	return false
}

// HandleElection answers an inbound probe from sender.
func (e *Elector) HandleElection(sender int) {
	if !e.opts.ReelectOnProbe || sender >= e.self {
		return
	}
	if !e.background.CompareAndSwap(false, true) {
		return
	}
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer e.background.Store(false)
		e.RunElection(context.Background())
	}()
}

// HandleVictory records leader as the current leader unconditionally.
func (e *Elector) HandleVictory(leader int) {
	e.setLeader(leader)
	e.logger.Info("leader announced", slog.Int("leader", leader))
}

// Wait blocks until elections started by inbound probes have finished.
func (e *Elector) Wait() { e.wg.Wait() }

func (e *Elector) setLeader(id int) {
	e.mu.Lock()
	e.leader = id
	e.hasLeader = true
	e.mu.Unlock()
}

func (e *Elector) probe(ctx context.Context, peer int) bool {
	callCtx, cancel := context.WithTimeout(ctx, e.opts.Timeout)
	defer cancel()
	return e.client.DeclareElection(callCtx, peer, e.self) == nil
}
