package test

import (
	"errors"
	"strconv"
	"strings"
)

// TokenStrategyStub accepts tokens of the form "node-<id>".
type TokenStrategyStub struct {
	Disabled bool
	Err      error
}

func (s TokenStrategyStub) IssueToken(nodeID int) (string, error) {
	return "node-" + strconv.Itoa(nodeID), nil
}

func (s TokenStrategyStub) ParseToken(token string) (int, error) {
	if s.Err != nil {
		return 0, s.Err
	}
	raw, ok := strings.CutPrefix(token, "node-")
	if !ok {
		return 0, errors.New("malformed token")
	}
	return strconv.Atoi(raw)
}

func (s TokenStrategyStub) Enabled() bool { return !s.Disabled }
