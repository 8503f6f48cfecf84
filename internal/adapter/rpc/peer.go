package rpc

import (
	"context"
	"fmt"

	"github.com/vusallyv/ds-practice-2025/internal/server/http/dto"
)

// PeerClient sends bully election messages to executor replicas.
type PeerClient struct {
	peers map[int]string
	t     *Transport
}

func NewPeerClient(peers map[int]string, t *Transport) *PeerClient {
	copied := make(map[int]string, len(peers))
	for id, addr := range peers {
		copied[id] = addr
	}
	return &PeerClient{peers: copied, t: t}
}

func (c *PeerClient) DeclareElection(ctx context.Context, peerID, senderID int) error {
	addr, err := c.addr(peerID)
	if err != nil {
		return err
	}
	_, err = c.t.Call(ctx, addr, "/rpc/election/declare-election", nil, dto.ElectionRequest{SenderID: senderID}, nil)
	return err
}

func (c *PeerClient) DeclareVictory(ctx context.Context, peerID, leaderID int) error {
	addr, err := c.addr(peerID)
	if err != nil {
		return err
	}
	_, err = c.t.Call(ctx, addr, "/rpc/election/declare-victory", nil, dto.VictoryRequest{LeaderID: leaderID}, nil)
	return err
}

func (c *PeerClient) addr(peerID int) (string, error) {
	addr, ok := c.peers[peerID]
	if !ok {
		return "", fmt.Errorf("unknown peer %d", peerID)
	}
	return addr, nil
}
