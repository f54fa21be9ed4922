package service

import (
	"context"
	"errors"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/syncwatch/server/internal/domain"
	"github.com/syncwatch/server/internal/repository/connection"
	"github.com/syncwatch/server/internal/repository/room"
)

type ConnectMemberParams struct {
	Conn     connection.Conn
	MemberId string
}

func (s service) ConnectMember(ctx context.Context, params *ConnectMemberParams) error {
	if err := s.connRepo.Add(params.Conn, params.MemberId); err != nil {
		return fmt.Errorf("failed to add conn: %w", err)
	}

	return nil
}

type DisconnectMemberParams struct {
	MemberId string
	// RoomId is empty when the member never joined a room.
	RoomId string
}

type DisconnectMemberResponse struct {
	IsRoomDeleted bool
	NewHostId     string
}

// DisconnectMember forgets the connection and makes the member leave its room.
func (s service) DisconnectMember(ctx context.Context, params *DisconnectMemberParams) (DisconnectMemberResponse, error) {
	conn, err := s.connRepo.RemoveByMemberId(params.MemberId)
	if err != nil && !errors.Is(err, connection.ErrNotFound) {
		return DisconnectMemberResponse{}, fmt.Errorf("failed to remove conn: %w", err)
	}
	if conn != nil {
		conn.Close()
	}

	if params.RoomId == "" {
		return DisconnectMemberResponse{}, nil
	}

	leaveResp, err := s.LeaveRoom(ctx, &LeaveRoomParams{
		SenderId: params.MemberId,
		RoomId:   params.RoomId,
	})
	if err != nil {
		if Silent(err) {
			return DisconnectMemberResponse{}, nil
		}
		return DisconnectMemberResponse{}, err
	}

	return DisconnectMemberResponse{
		IsRoomDeleted: leaveResp.IsRoomDeleted,
		NewHostId:     leaveResp.NewHostId,
	}, nil
}

type JoinRoomParams struct {
	RoomId   string `json:"room_id"`
	SenderId string `json:"sender_id"`
}

type JoinRoomResponse struct {
	IsHost    bool
	RoomState RoomState
}

// JoinRoom creates the room on first join. On success the joiner gets the
// join-room acknowledgement and the others member-joined; failures are left
// to the caller to report.
func (s service) JoinRoom(ctx context.Context, params *JoinRoomParams) (JoinRoomResponse, error) {
	if err := validation.Validate(params.RoomId, RoomIdRule...); err != nil {
		return JoinRoomResponse{}, ErrInvalidRoomCode
	}
	if err := validation.Validate(params.SenderId, MemberIdRule...); err != nil {
		return JoinRoomResponse{}, invalidPayload(err)
	}

	var resp JoinRoomResponse
	err := s.withRoom(ctx, params.RoomId, true, func(rm *domain.Room, op *roomOp) error {
		now := s.clock.Now()
		if _, err := rm.AddMember(params.SenderId, s.membersLimit, now); err != nil {
			return mapDomainError(err)
		}

		resp = JoinRoomResponse{
			IsHost:    rm.HostId == params.SenderId,
			RoomState: s.roomState(rm, now),
		}

		state := resp.RoomState
		op.send([]string{params.SenderId}, TypeJoinRoom, JoinRoomResult{
			Success:   true,
			IsHost:    resp.IsHost,
			MemberId:  params.SenderId,
			RoomState: &state,
		})
		op.send(without(rm.MemberIds(), params.SenderId), TypeMemberJoined, MemberJoined{
			MemberId:    params.SenderId,
			MemberCount: rm.MemberCount(),
		})

		return nil
	})
	if err != nil {
		return JoinRoomResponse{}, err
	}

	s.logger.InfoContext(ctx, "member joined room",
		"room_id", params.RoomId,
		"member_id", params.SenderId,
		"is_host", resp.IsHost,
	)

	return resp, nil
}

type LeaveRoomParams struct {
	SenderId string `json:"sender_id"`
	RoomId   string `json:"room_id"`
}

type LeaveRoomResponse struct {
	IsRoomDeleted bool
	NewHostId     string
	MemberCount   int
}

func (s service) LeaveRoom(ctx context.Context, params *LeaveRoomParams) (LeaveRoomResponse, error) {
	var resp LeaveRoomResponse
	err := s.withRoom(ctx, params.RoomId, false, func(rm *domain.Room, op *roomOp) error {
		res, err := rm.RemoveMember(params.SenderId, s.clock.Now())
		if err != nil {
			return mapDomainError(err)
		}

		resp = LeaveRoomResponse{
			IsRoomDeleted: rm.IsEmpty(),
			NewHostId:     res.NewHostId,
			MemberCount:   rm.MemberCount(),
		}
		if rm.IsEmpty() {
			return nil
		}

		op.send(rm.MemberIds(), TypeMemberLeft, MemberLeft{
			MemberId:    params.SenderId,
			MemberCount: rm.MemberCount(),
			NewHost:     rm.HostId,
		})
		if res.PlaylistChanged {
			op.send(rm.MemberIds(), TypeFilesUpdated, filesUpdated(rm))
		}

		return nil
	})
	if err != nil {
		return LeaveRoomResponse{}, err
	}

	s.logger.InfoContext(ctx, "member left room",
		"room_id", params.RoomId,
		"member_id", params.SenderId,
		"new_host_id", resp.NewHostId,
		"is_room_deleted", resp.IsRoomDeleted,
	)

	return resp, nil
}

func (s service) GetRoomState(ctx context.Context, roomId string) (RoomState, error) {
	rm, err := s.roomRepo.GetRoom(ctx, roomId)
	if err != nil {
		if errors.Is(err, room.ErrRoomNotFound) {
			return RoomState{}, ErrRoomNotFound
		}
		return RoomState{}, fmt.Errorf("failed to get room: %w", err)
	}

	return s.roomState(&rm, s.clock.Now()), nil
}

func (s service) ListRooms(ctx context.Context) ([]RoomSummary, error) {
	rooms, err := s.roomRepo.ListRooms(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}

	summaries := make([]RoomSummary, 0, len(rooms))
	for i := range rooms {
		summaries = append(summaries, summarize(&rooms[i]))
	}

	return summaries, nil
}
