package controller

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/syncwatch/server/internal/service"
	"github.com/syncwatch/server/pkg/ctxlogger"
	"github.com/syncwatch/server/pkg/ratelimit"
	"github.com/syncwatch/server/pkg/wspeer"
)

func (c controller) connect(w http.ResponseWriter, r *http.Request) {
	c.serveConn(w, r, "")
}

func (c controller) connectToRoom(w http.ResponseWriter, r *http.Request) {
	c.serveConn(w, r, chi.URLParam(r, "room-id"))
}

// serveConn upgrades the request and runs the connection's read loop. When
// roomId is set the member joins it before the first message is read.
func (c controller) serveConn(w http.ResponseWriter, r *http.Request, roomId string) {
	ctx := r.Context()

	if !c.connLimiter.Allow(clientIP(r)) {
		c.logger.InfoContext(ctx, "connection rate limited", "remote_addr", r.RemoteAddr)
		http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		return
	}

	conn, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.logger.WarnContext(ctx, "failed to upgrade to websocket", "error", err)
		return
	}

	peer := wspeer.New(conn, wspeer.DefaultSendBufferSize)
	peer.PrepareRead()
	go peer.WritePump()

	sess := &session{
		memberId: uuid.NewString(),
		peer:     peer,
		limiter:  ratelimit.New(c.msgRate, c.msgBurst),
	}
	ctx = ctxlogger.AppendCtx(ctx, slog.String("member_id", sess.memberId))
	ctx = withSession(ctx, sess)

	if err := c.roomService.ConnectMember(ctx, &service.ConnectMemberParams{
		Conn:     peer,
		MemberId: sess.memberId,
	}); err != nil {
		c.logger.WarnContext(ctx, "failed to connect member", "error", err)
		peer.Close()
		return
	}
	defer c.disconnect(ctx, sess)

	c.logger.InfoContext(ctx, "member connected", "remote_addr", r.RemoteAddr)

	if roomId != "" {
		if err := c.joinRoom(ctx, sess, roomId); err != nil {
			c.handleWSError(ctx, "", err)
		}
	}

	if err := c.wsRouter.ServeConn(ctx, conn); err != nil {
		c.logger.DebugContext(ctx, "connection closed", "error", err)
	}
}

func (c controller) disconnect(ctx context.Context, sess *session) {
	resp, err := c.roomService.DisconnectMember(ctx, &service.DisconnectMemberParams{
		MemberId: sess.memberId,
		RoomId:   sess.roomId,
	})
	if err != nil {
		c.logger.WarnContext(ctx, "failed to disconnect member", "room_id", sess.roomId, "error", err)
		return
	}

	c.logger.InfoContext(ctx, "member disconnected",
		"room_id", sess.roomId,
		"is_room_deleted", resp.IsRoomDeleted,
		"new_host_id", resp.NewHostId,
	)
}

// handleWSError reports a failed message to its sender. Errors about a room
// the sender is not in are dropped.
func (c controller) handleWSError(ctx context.Context, messageType string, err error) {
	if service.Silent(err) {
		c.logger.DebugContext(ctx, "message dropped", "message_type", messageType, "error", err)
		return
	}

	payload := c.errorPayload(err)
	if payload.Code == codeInternal {
		c.logger.ErrorContext(ctx, "failed to handle message", "message_type", messageType, "error", err)
	} else {
		c.logger.InfoContext(ctx, "message rejected", "message_type", messageType, "code", payload.Code, "error", err)
	}

	if sess := c.getSessionFromCtx(ctx); sess != nil {
		sess.send(&service.Output{Type: service.TypeError, Payload: payload})
	}
}
