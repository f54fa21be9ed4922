package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/syncwatch/server/internal/domain"
	"github.com/syncwatch/server/internal/repository/room"
)

const noTrack = "No track"

type delivery struct {
	to  []string
	out Output
}

// roomOp collects what a room mutation wants delivered. Deliveries are sent
// only after the room was stored.
type roomOp struct {
	deliveries []delivery
	readOnly   bool
}

func (op *roomOp) send(to []string, msgType string, payload any) {
	op.deliveries = append(op.deliveries, delivery{
		to:  to,
		out: Output{Type: msgType, Payload: payload},
	})
}

// withRoom runs fn on the room under its lock, stores the result (deleting the
// room once empty) and delivers the queued messages before unlocking, so
// broadcasts of one room go out in processing order.
func (s service) withRoom(ctx context.Context, roomId string, create bool, fn func(rm *domain.Room, op *roomOp) error) error {
	unlock := s.locks.lock(roomId)
	defer unlock()

	rm, err := s.roomRepo.GetRoom(ctx, roomId)
	switch {
	case errors.Is(err, room.ErrRoomNotFound) && create:
		rm = domain.NewRoom(roomId, s.syncDelay, s.clock.Now())
	case errors.Is(err, room.ErrRoomNotFound):
		return ErrRoomNotFound
	case err != nil:
		return fmt.Errorf("failed to get room: %w", err)
	}

	var op roomOp
	if err := fn(&rm, &op); err != nil {
		return err
	}

	if !op.readOnly {
		if rm.IsEmpty() {
			if err := s.roomRepo.DeleteRoom(ctx, roomId); err != nil && !errors.Is(err, room.ErrRoomNotFound) {
				return fmt.Errorf("failed to delete room: %w", err)
			}
			s.logger.InfoContext(ctx, "room deleted", "room_id", roomId)
		} else if err := s.roomRepo.SetRoom(ctx, &rm); err != nil {
			return fmt.Errorf("failed to set room: %w", err)
		}
	}

	for _, d := range op.deliveries {
		s.deliver(ctx, d.to, &d.out)
	}

	return nil
}

// deliver is fire and forget: unreachable or congested members miss the message.
func (s service) deliver(ctx context.Context, to []string, out *Output) {
	for _, conn := range s.connRepo.GetConns(to) {
		if err := conn.Send(out); err != nil {
			s.logger.DebugContext(ctx, "failed to deliver message", "type", out.Type, "error", err)
		}
	}
}

func (s service) sendTo(ctx context.Context, memberId string, out *Output) {
	s.deliver(ctx, []string{memberId}, out)
}

func without(ids []string, id string) []string {
	res := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			res = append(res, v)
		}
	}

	return res
}

func mapFileEntries(entries []domain.FileEntry) []FileEntry {
	res := make([]FileEntry, 0, len(entries))
	for _, e := range entries {
		res = append(res, mapFileEntry(e))
	}

	return res
}

func mapFileEntry(e domain.FileEntry) FileEntry {
	return FileEntry{
		Id:           e.Id,
		Name:         e.Name,
		FileName:     e.FileName,
		Type:         e.Type,
		Size:         e.Size,
		UploadedBy:   e.UploadedBy,
		AvailableFor: append([]string{}, e.AvailableFor...),
		AddedAt:      e.AddedAt,
	}
}

func (s service) roomState(rm *domain.Room, now time.Time) RoomState {
	members := make([]Member, 0, len(rm.Members))
	for _, m := range rm.Members {
		members = append(members, Member{
			Id:                m.Id,
			IsHost:            m.Id == rm.HostId,
			FileCount:         len(m.Files),
			SelectedFileIndex: m.SelectedFileIndex,
			SelectedFileName:  m.SelectedFileName,
			JoinedAt:          m.JoinedAt,
		})
	}

	torrents := make(map[int]TorrentFile, len(rm.TorrentFiles))
	for idx, t := range rm.TorrentFiles {
		torrents[idx] = TorrentFile{TorrentData: t.TorrentData, TorrentFileName: t.TorrentFileName}
	}

	sources := make(map[int]string, len(rm.DownloadSources))
	for idx, src := range rm.DownloadSources {
		sources[idx] = src
	}

	return RoomState{
		Id:               rm.Id,
		HostId:           rm.HostId,
		MemberCount:      rm.MemberCount(),
		Members:          members,
		Playlist:         mapFileEntries(rm.Playlist),
		CurrentIndex:     rm.Player.CurrentIndex,
		CurrentVideoName: rm.Player.CurrentVideoName,
		CurrentFileName:  rm.Player.CurrentFileName,
		CurrentTime:      rm.CurrentTime(now),
		IsPlaying:        rm.Player.IsPlaying,
		DownloadSources:  sources,
		TorrentFiles:     torrents,
		Seq:              rm.Seq,
		ServerTimestamp:  now.UnixMilli(),
	}
}

func filesUpdated(rm *domain.Room) FilesUpdated {
	counts := make([]MemberFileCount, 0, len(rm.Members))
	for _, m := range rm.Members {
		counts = append(counts, MemberFileCount{Id: m.Id, FileCount: len(m.Files)})
	}

	return FilesUpdated{
		Files:   mapFileEntries(rm.Playlist),
		Members: counts,
	}
}

func summarize(rm *domain.Room) RoomSummary {
	track := rm.Player.CurrentVideoName
	if track == "" {
		track = noTrack
	}

	return RoomSummary{
		Id:           rm.Id,
		MemberCount:  rm.MemberCount(),
		CurrentTrack: track,
		IsPlaying:    rm.Player.IsPlaying,
	}
}
