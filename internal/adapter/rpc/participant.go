package rpc

import (
	"context"

	"github.com/vusallyv/ds-practice-2025/internal/domain/model"
	"github.com/vusallyv/ds-practice-2025/internal/server/http/dto"
)

// ParticipantClient is a remote 2PC participant served under /rpc/{name}.
type ParticipantClient struct {
	name    string
	baseURL string
	t       *Transport
}

func NewParticipantClient(name, baseURL string, t *Transport) *ParticipantClient {
	return &ParticipantClient{name: name, baseURL: baseURL, t: t}
}

func (c *ParticipantClient) Name() string { return c.name }

func (c *ParticipantClient) Prepare(ctx context.Context, r model.Reservation) (bool, error) {
	var vote dto.VoteResponse
	in := dto.PrepareRequest{OrderID: r.OrderID, Title: r.Title, Amount: r.Amount, Payer: r.Payer}
	if _, err := c.t.Call(ctx, c.baseURL, c.route("prepare"), nil, in, &vote); err != nil {
		return false, err
	}
	return vote.Ready, nil
}

func (c *ParticipantClient) Commit(ctx context.Context, orderID, title string) (bool, error) {
	var res dto.CommitResponse
	if _, err := c.t.Call(ctx, c.baseURL, c.route("commit"), nil, dto.DecisionRequest{OrderID: orderID, Title: title}, &res); err != nil {
		return false, err
	}
	return res.Success, nil
}

func (c *ParticipantClient) Abort(ctx context.Context, orderID, title string) error {
	_, err := c.t.Call(ctx, c.baseURL, c.route("abort"), nil, dto.DecisionRequest{OrderID: orderID, Title: title}, nil)
	return err
}

func (c *ParticipantClient) route(op string) string {
	return "/rpc/" + c.name + "/" + op
}
