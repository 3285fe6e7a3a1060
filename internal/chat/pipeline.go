package chat

import (
	"context"
	"errors"
	"fmt"
)

var ErrNoClient = errors.New("chat: no assistant client configured")

// Pipeline is the blocking form of the send pipeline, for callers that are
// not running their own event loop. Completion is observed through the
// session's store.
type Pipeline struct {
	session *Session
	client  Client
}

func NewPipeline(s *Session, c Client) *Pipeline {
	return &Pipeline{session: s, client: c}
}

func (p *Pipeline) Session() *Session { return p.session }

// Send posts text as a user turn and waits for the reply. Empty text or a
// send while another is in flight is silently dropped.
func (p *Pipeline) Send(ctx context.Context, text string) {
	if pend, ok := p.session.Begin(text); ok {
		p.Run(ctx, pend)
	}
}

func (p *Pipeline) SelectQuickAction(ctx context.Context, id string) {
	if pend, ok := p.session.SelectQuickAction(id); ok {
		p.Run(ctx, pend)
	}
}

func (p *Pipeline) SelectExample(ctx context.Context, text string) {
	if pend, ok := p.session.SelectExample(text); ok {
		p.Run(ctx, pend)
	}
}

// Run performs the client call for a started exchange and folds the
// outcome into the session.
func (p *Pipeline) Run(ctx context.Context, pend Pending) Message {
	reply, err := Exchange(ctx, p.client, pend.Request)
	msg, _ := p.session.Finish(pend, reply, err)
	return msg
}

// Exchange calls the client, converting a panic into an error so callers
// always get an outcome to pass to Session.Finish.
func Exchange(ctx context.Context, c Client, req Request) (reply Reply, err error) {
	if c == nil {
		return Reply{}, ErrNoClient
	}
	defer func() {
		if r := recover(); r != nil {
			reply = Reply{}
			err = fmt.Errorf("chat: assistant client panic: %v", r)
		}
	}()
	return c.Chat(ctx, req)
}
