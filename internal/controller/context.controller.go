package controller

import (
	"context"

	"github.com/syncwatch/server/internal/service"
	"github.com/syncwatch/server/pkg/wspeer"
	"golang.org/x/time/rate"
)

type contextKey int

const (
	sessionCtxKey contextKey = iota
)

// session is the per connection state. It is only touched by the connection's
// read loop, so it needs no locking.
type session struct {
	memberId string
	roomId   string
	peer     *wspeer.Peer
	limiter  *rate.Limiter
}

func (s *session) send(out *service.Output) {
	// delivery failures are not reported to anyone
	_ = s.peer.Send(out)
}

func withSession(ctx context.Context, sess *session) context.Context {
	return context.WithValue(ctx, sessionCtxKey, sess)
}

func (c controller) getSessionFromCtx(ctx context.Context) *session {
	sess, ok := ctx.Value(sessionCtxKey).(*session)
	if !ok {
		return nil
	}

	return sess
}

func (c controller) getRoomIdFromCtx(ctx context.Context) string {
	sess := c.getSessionFromCtx(ctx)
	if sess == nil {
		return ""
	}

	return sess.roomId
}

func (c controller) getMemberIdFromCtx(ctx context.Context) string {
	sess := c.getSessionFromCtx(ctx)
	if sess == nil {
		return ""
	}

	return sess.memberId
}
