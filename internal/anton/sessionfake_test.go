package anton

import (
	"context"

	"github.com/anton-run/anton/internal/agentsession"
)

// fakeSession is a scripted agentsession.Session for testing preflight and
// attempt logic without a real model or eino runner.
type fakeSession struct {
	responses []agentsession.AskResult
	calls     int
	usage     agentsession.Usage
	systemPrompt string
}

func (s *fakeSession) Ask(ctx context.Context, prompt string, hooks agentsession.Hooks) (agentsession.AskResult, error) {
	if s.calls >= len(s.responses) {
		return agentsession.AskResult{Kind: agentsession.ResultOK, Text: "<anton-result>\nstatus: failed\n</anton-result>"}, nil
	}
	res := s.responses[s.calls]
	s.calls++
	return res, nil
}

func (s *fakeSession) Cancel()     {}
func (s *fakeSession) Close() error { return nil }
func (s *fakeSession) Usage() agentsession.Usage { return s.usage }
func (s *fakeSession) GetSystemPrompt() string { return s.systemPrompt }
func (s *fakeSession) SetSystemPrompt(p string) { s.systemPrompt = p }
