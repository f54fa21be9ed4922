package controller

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/syncwatch/server/internal/service"
)

type EmptyInput struct{}

type JoinRoomInput struct {
	RoomId string `json:"roomId"`
}

func (c controller) handleJoinRoom(ctx context.Context, input JoinRoomInput) error {
	sess := c.getSessionFromCtx(ctx)
	if sess == nil {
		return service.ErrMemberNotFound
	}

	return c.joinRoom(ctx, sess, input.RoomId)
}

// joinRoom moves the session into roomId, leaving its current room first. A
// failed join is acknowledged with success=false instead of an error event.
func (c controller) joinRoom(ctx context.Context, sess *session, roomId string) error {
	if sess.roomId != "" && sess.roomId != roomId {
		if _, err := c.roomService.LeaveRoom(ctx, &service.LeaveRoomParams{
			SenderId: sess.memberId,
			RoomId:   sess.roomId,
		}); err != nil && !service.Silent(err) {
			return fmt.Errorf("failed to leave room: %w", err)
		}
		sess.roomId = ""
	}

	if _, err := c.roomService.JoinRoom(ctx, &service.JoinRoomParams{
		RoomId:   roomId,
		SenderId: sess.memberId,
	}); err != nil {
		c.logger.InfoContext(ctx, "failed to join room", "room_id", roomId, "error", err)

		payload := c.errorPayload(err)
		sess.send(&service.Output{
			Type: service.TypeJoinRoom,
			Payload: service.JoinRoomResult{
				Success: false,
				Error:   &payload,
			},
		})

		return nil
	}

	sess.roomId = roomId

	return nil
}

func (c controller) handleLeaveRoom(ctx context.Context, _ EmptyInput) error {
	sess := c.getSessionFromCtx(ctx)
	if sess == nil || sess.roomId == "" {
		return service.ErrRoomNotFound
	}

	roomId := sess.roomId
	sess.roomId = ""

	if _, err := c.roomService.LeaveRoom(ctx, &service.LeaveRoomParams{
		SenderId: sess.memberId,
		RoomId:   roomId,
	}); err != nil {
		return fmt.Errorf("failed to leave room: %w", err)
	}

	return nil
}

type AddFileInput struct {
	Name     string `json:"name" validate:"max=255"`
	FileName string `json:"fileName" validate:"required,max=255"`
	Type     string `json:"type" validate:"required,oneof=video audio"`
	Size     string `json:"size" validate:"max=32"`
}

func (c controller) handleAddFile(ctx context.Context, input AddFileInput) error {
	if err := c.validateInput(input); err != nil {
		return err
	}

	if _, err := c.roomService.AddFile(ctx, &service.AddFileParams{
		Name:     input.Name,
		FileName: input.FileName,
		Type:     input.Type,
		Size:     input.Size,
		SenderId: c.getMemberIdFromCtx(ctx),
		RoomId:   c.getRoomIdFromCtx(ctx),
	}); err != nil {
		return fmt.Errorf("failed to add file: %w", err)
	}

	return nil
}

type FileSelectedInput struct {
	FileIndex *int   `json:"fileIndex" validate:"omitempty,gte=0"`
	FileName  string `json:"fileName" validate:"max=255"`
}

func (c controller) handleFileSelected(ctx context.Context, input FileSelectedInput) error {
	if err := c.validateInput(input); err != nil {
		return err
	}

	if err := c.roomService.SelectFile(ctx, &service.SelectFileParams{
		FileIndex: input.FileIndex,
		FileName:  input.FileName,
		SenderId:  c.getMemberIdFromCtx(ctx),
		RoomId:    c.getRoomIdFromCtx(ctx),
	}); err != nil {
		return fmt.Errorf("failed to select file: %w", err)
	}

	return nil
}

type UpdateDownloadSourceInput struct {
	FileIndex      int    `json:"fileIndex" validate:"gte=0"`
	DownloadSource string `json:"downloadSource" validate:"max=2048"`
}

func (c controller) handleUpdateDownloadSource(ctx context.Context, input UpdateDownloadSourceInput) error {
	if err := c.validateInput(input); err != nil {
		return err
	}

	if err := c.roomService.UpdateDownloadSource(ctx, &service.UpdateDownloadSourceParams{
		FileIndex:      input.FileIndex,
		DownloadSource: input.DownloadSource,
		SenderId:       c.getMemberIdFromCtx(ctx),
		RoomId:         c.getRoomIdFromCtx(ctx),
	}); err != nil {
		return fmt.Errorf("failed to update download source: %w", err)
	}

	return nil
}

type UploadTorrentInput struct {
	FileIndex       int             `json:"fileIndex" validate:"gte=0"`
	TorrentData     json.RawMessage `json:"torrentData"`
	TorrentFileName string          `json:"torrentFileName" validate:"required,max=255"`
}

func (c controller) handleUploadTorrent(ctx context.Context, input UploadTorrentInput) error {
	if err := c.validateInput(input); err != nil {
		return err
	}

	if err := c.roomService.UploadTorrent(ctx, &service.UploadTorrentParams{
		FileIndex:       input.FileIndex,
		TorrentData:     input.TorrentData,
		TorrentFileName: input.TorrentFileName,
		SenderId:        c.getMemberIdFromCtx(ctx),
		RoomId:          c.getRoomIdFromCtx(ctx),
	}); err != nil {
		return fmt.Errorf("failed to upload torrent: %w", err)
	}

	return nil
}

func (c controller) handleCheckPlayPermission(ctx context.Context, _ EmptyInput) error {
	if _, err := c.roomService.CheckPlayPermission(ctx, &service.CheckPlayPermissionParams{
		SenderId: c.getMemberIdFromCtx(ctx),
		RoomId:   c.getRoomIdFromCtx(ctx),
	}); err != nil {
		return fmt.Errorf("failed to check play permission: %w", err)
	}

	return nil
}

type PlaybackControlInput struct {
	Action     string   `json:"action" validate:"required"`
	VideoIndex *int     `json:"videoIndex" validate:"omitempty,gte=0"`
	VideoName  *string  `json:"videoName" validate:"omitempty,max=255"`
	FileName   *string  `json:"fileName" validate:"omitempty,max=255"`
	Time       *float64 `json:"time" validate:"omitempty,gte=0"`
}

func (c controller) handlePlaybackControl(ctx context.Context, input PlaybackControlInput) error {
	if err := c.validateInput(input); err != nil {
		return err
	}

	if _, err := c.roomService.ControlPlayback(ctx, &service.ControlPlaybackParams{
		Action:     input.Action,
		VideoIndex: input.VideoIndex,
		VideoName:  input.VideoName,
		FileName:   input.FileName,
		Time:       input.Time,
		SenderId:   c.getMemberIdFromCtx(ctx),
		RoomId:     c.getRoomIdFromCtx(ctx),
	}); err != nil {
		return fmt.Errorf("failed to control playback: %w", err)
	}

	return nil
}

func (c controller) handleRequestSync(ctx context.Context, _ EmptyInput) error {
	if _, err := c.roomService.RequestSync(ctx, &service.RequestSyncParams{
		SenderId: c.getMemberIdFromCtx(ctx),
		RoomId:   c.getRoomIdFromCtx(ctx),
	}); err != nil {
		return fmt.Errorf("failed to request sync: %w", err)
	}

	return nil
}

type PingInput struct {
	ClientTime int64 `json:"clientTime"`
}

func (c controller) handlePing(ctx context.Context, input PingInput) error {
	c.roomService.Ping(ctx, &service.PingParams{
		ClientTime: input.ClientTime,
		SenderId:   c.getMemberIdFromCtx(ctx),
	})

	return nil
}
