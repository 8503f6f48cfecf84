package auth

import "time"

// TokenStrategy issues and verifies tokens naming the node that sent an
// internal RPC request.
type TokenStrategy interface {
	IssueToken(nodeID int) (string, error)
	ParseToken(token string) (int, error)
	Enabled() bool
}

type Options struct {
	TTL time.Duration
}

// TokenHeader carries the cluster token on internal RPC requests.
const TokenHeader = "X-Cluster-Token"
