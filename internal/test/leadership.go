package test

import (
	"context"
	"sync"
)

// LeadershipStub is a scriptable leader elector.
type LeadershipStub struct {
	// ProbeOK is returned by ProbeLeader.
	ProbeOK bool
	// ElectSelf makes RunElection promote this node.
	ElectSelf bool
	SelfID    int
	LeaderID  int

	mu        sync.Mutex
	leader    bool
	known     bool
	elections int
	probes    int
}

// SetLeader forces leadership state.
func (s *LeadershipStub) SetLeader(leader bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.leader = leader
	s.known = true
}

// IsLeader reports forced or elected leadership.
func (s *LeadershipStub) IsLeader() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.leader
}

// Leader returns the current leader id.
func (s *LeadershipStub) Leader() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.leader {
		return s.SelfID, true
	}
	return s.LeaderID, s.known
}

// RunElection records the call and applies ElectSelf.
func (s *LeadershipStub) RunElection(context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.elections++
	s.known = true
	if s.ElectSelf {
		s.leader = true
		return s.SelfID
	}
	return s.LeaderID
}

// ProbeLeader records the call and returns ProbeOK.
func (s *LeadershipStub) ProbeLeader(context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.probes++
	if !s.ProbeOK {
		s.known = false
	}
	return s.ProbeOK
}

// Elections returns the number of RunElection calls.
func (s *LeadershipStub) Elections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.elections
}

// Probes returns the number of ProbeLeader calls.
func (s *LeadershipStub) Probes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.probes
}
