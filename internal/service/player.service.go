package service

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/syncwatch/server/internal/domain"
)

type ControlPlaybackParams struct {
	Action     string   `json:"action"`
	VideoIndex *int     `json:"video_index"`
	VideoName  *string  `json:"video_name"`
	FileName   *string  `json:"file_name"`
	Time       *float64 `json:"time"`
	SenderId   string   `json:"sender_id"`
	RoomId     string   `json:"room_id"`
}

type ControlPlaybackResponse struct {
	// Denied is set when the play permission gate rejected the request.
	Denied  bool
	Command SyncCommand
}

// ControlPlayback applies one transition and schedules it for the whole room
// syncDelay ahead of now.
func (s service) ControlPlayback(ctx context.Context, params *ControlPlaybackParams) (ControlPlaybackResponse, error) {
	if err := validation.ValidateStructWithContext(ctx, params,
		validation.Field(&params.Action, validation.Required),
		validation.Field(&params.VideoIndex, FileIndexRule...),
		validation.Field(&params.Time, TimeRule...),
	); err != nil {
		return ControlPlaybackResponse{}, invalidPayload(err)
	}
	if err := validation.Validate(params.Action, ActionRule...); err != nil {
		return ControlPlaybackResponse{}, ErrUnknownAction
	}

	action := domain.Action(params.Action)

	var resp ControlPlaybackResponse
	err := s.withRoom(ctx, params.RoomId, false, func(rm *domain.Room, op *roomOp) error {
		if !rm.HasMember(params.SenderId) {
			return ErrMemberNotFound
		}

		if s.gated(action) && !rm.AllMembersSelected() {
			op.readOnly = true
			resp.Denied = true
			op.send([]string{params.SenderId}, TypePlayPermissionDenied, permission(rm, params.SenderId))
			return nil
		}

		now := s.clock.Now()
		if err := rm.ApplyPlayback(domain.PlaybackRequest{
			Action:     action,
			VideoIndex: params.VideoIndex,
			VideoName:  params.VideoName,
			FileName:   params.FileName,
			Time:       params.Time,
		}, now); err != nil {
			return mapDomainError(err)
		}

		resp.Command = s.syncCommand(rm, action, now)
		op.send(rm.MemberIds(), TypeSyncCommand, resp.Command)

		return nil
	})
	if err != nil {
		return ControlPlaybackResponse{}, err
	}

	if !resp.Denied {
		s.logger.DebugContext(ctx, "sync command scheduled",
			"room_id", params.RoomId,
			"action", resp.Command.Action,
			"time", resp.Command.Time,
			"execute_at", resp.Command.ExecuteAt,
			"seq", resp.Command.Seq,
		)
	}

	return resp, nil
}

func (s service) gated(action domain.Action) bool {
	return s.playPermissionGate && (action == domain.ActionPlay || action == domain.ActionPause)
}

func (s service) syncCommand(rm *domain.Room, action domain.Action, now time.Time) SyncCommand {
	serverTimestamp := now.UnixMilli()

	return SyncCommand{
		Action:          string(action),
		VideoIndex:      rm.Player.CurrentIndex,
		VideoName:       rm.Player.CurrentVideoName,
		FileName:        rm.Player.CurrentFileName,
		Time:            rm.CurrentTime(now),
		IsPlaying:       rm.Player.IsPlaying,
		ExecuteAt:       serverTimestamp + rm.SyncDelay.Milliseconds(),
		ServerTimestamp: serverTimestamp,
		Seq:             rm.NextSeq(),
	}
}

func permission(rm *domain.Room, requestedBy string) PlayPermission {
	p := PlayPermission{RequestedBy: requestedBy}
	for _, m := range rm.Members {
		if !m.HasSelection() {
			p.Waiting = append(p.Waiting, m.Id)
		}
	}

	return p
}

type CheckPlayPermissionParams struct {
	SenderId string `json:"sender_id"`
	RoomId   string `json:"room_id"`
}

type CheckPlayPermissionResponse struct {
	Granted bool
}

// CheckPlayPermission broadcasts a grant to the room, a denial goes to the
// requester only. The readiness check runs whether or not play and pause are
// gated.
func (s service) CheckPlayPermission(ctx context.Context, params *CheckPlayPermissionParams) (CheckPlayPermissionResponse, error) {
	var resp CheckPlayPermissionResponse
	err := s.withRoom(ctx, params.RoomId, false, func(rm *domain.Room, op *roomOp) error {
		if !rm.HasMember(params.SenderId) {
			return ErrMemberNotFound
		}
		op.readOnly = true

		resp.Granted = rm.AllMembersSelected()
		if resp.Granted {
			op.send(rm.MemberIds(), TypePlayPermissionGranted, permission(rm, params.SenderId))
		} else {
			op.send([]string{params.SenderId}, TypePlayPermissionDenied, permission(rm, params.SenderId))
		}

		return nil
	})
	if err != nil {
		return CheckPlayPermissionResponse{}, err
	}

	return resp, nil
}

type RequestSyncParams struct {
	SenderId string `json:"sender_id"`
	RoomId   string `json:"room_id"`
}

// RequestSync answers with the live state for immediate application.
func (s service) RequestSync(ctx context.Context, params *RequestSyncParams) (SyncUpdate, error) {
	var update SyncUpdate
	err := s.withRoom(ctx, params.RoomId, false, func(rm *domain.Room, op *roomOp) error {
		if !rm.HasMember(params.SenderId) {
			return ErrMemberNotFound
		}
		op.readOnly = true

		now := s.clock.Now()
		update = SyncUpdate{
			Action:          ActionSync,
			VideoIndex:      rm.Player.CurrentIndex,
			VideoName:       rm.Player.CurrentVideoName,
			FileName:        rm.Player.CurrentFileName,
			Time:            rm.CurrentTime(now),
			IsPlaying:       rm.Player.IsPlaying,
			ServerTimestamp: now.UnixMilli(),
			Seq:             rm.Seq,
		}
		op.send([]string{params.SenderId}, TypeSyncUpdate, update)

		return nil
	})
	if err != nil {
		return SyncUpdate{}, err
	}

	return update, nil
}

type PingParams struct {
	ClientTime int64  `json:"client_time"`
	SenderId   string `json:"sender_id"`
}

func (s service) Ping(ctx context.Context, params *PingParams) Pong {
	pong := Pong{
		ClientTime: params.ClientTime,
		ServerTime: s.clock.Now().UnixMilli(),
	}
	s.sendTo(ctx, params.SenderId, &Output{Type: TypePong, Payload: pong})

	return pong
}
