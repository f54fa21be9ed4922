package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/syncwatch/server/internal/domain"
	"github.com/syncwatch/server/internal/repository/room"
)

type roomMeta struct {
	Id          string `redis:"id"`
	HostId      string `redis:"host_id"`
	SyncDelayMs int64  `redis:"sync_delay_ms"`
	Seq         uint64 `redis:"seq"`
	JoinSeq     uint64 `redis:"join_seq"`
	CreatedAt   int64  `redis:"created_at"`
}

func (r repo) getPlaylistKey(roomId string) string {
	return "room:" + roomId + ":playlist"
}

func (r repo) getDownloadSourcesKey(roomId string) string {
	return "room:" + roomId + ":download-sources"
}

func (r repo) getTorrentFilesKey(roomId string) string {
	return "room:" + roomId + ":torrent-files"
}

// SetRoom replaces everything stored for the room in one transaction.
func (r repo) SetRoom(ctx context.Context, rm *domain.Room) error {
	if rm.Id == "" {
		return room.ErrInvalidRoom
	}

	playlist, err := json.Marshal(rm.Playlist)
	if err != nil {
		return fmt.Errorf("failed to marshal playlist: %w", err)
	}

	pipe := r.rc.TxPipeline()
	keys := r.roomKeys(rm.Id)
	pipe.Del(ctx, keys...)

	pipe.HSet(ctx, r.getRoomKey(rm.Id), &roomMeta{
		Id:          rm.Id,
		HostId:      rm.HostId,
		SyncDelayMs: rm.SyncDelay.Milliseconds(),
		Seq:         rm.Seq,
		JoinSeq:     rm.JoinSeq,
		CreatedAt:   rm.CreatedAt,
	})
	r.setPlayer(ctx, pipe, rm.Id, &rm.Player)
	if err := r.setMembers(ctx, pipe, rm.Id, rm.Members); err != nil {
		return err
	}
	pipe.Set(ctx, r.getPlaylistKey(rm.Id), playlist, 0)

	if len(rm.DownloadSources) > 0 {
		sources := make(map[string]any, len(rm.DownloadSources))
		for idx, src := range rm.DownloadSources {
			sources[fmt.Sprint(idx)] = src
		}
		pipe.HSet(ctx, r.getDownloadSourcesKey(rm.Id), sources)
	}

	if len(rm.TorrentFiles) > 0 {
		torrents := make(map[string]any, len(rm.TorrentFiles))
		for idx, t := range rm.TorrentFiles {
			data, err := json.Marshal(t)
			if err != nil {
				return fmt.Errorf("failed to marshal torrent file: %w", err)
			}
			torrents[fmt.Sprint(idx)] = data
		}
		pipe.HSet(ctx, r.getTorrentFilesKey(rm.Id), torrents)
	}

	r.expireAll(ctx, pipe, keys...)
	pipe.SAdd(ctx, roomIndexKey, rm.Id)

	if err := r.executePipe(ctx, pipe); err != nil {
		return fmt.Errorf("failed to set room: %w", err)
	}

	return nil
}

func (r repo) GetRoom(ctx context.Context, roomId string) (domain.Room, error) {
	pipe := r.rc.Pipeline()
	metaCmd := pipe.HGetAll(ctx, r.getRoomKey(roomId))
	playerCmd := pipe.HGetAll(ctx, r.getPlayerKey(roomId))
	memberIdsCmd := pipe.ZRange(ctx, r.getMemberListKey(roomId), 0, -1)
	membersCmd := pipe.HGetAll(ctx, r.getMembersKey(roomId))
	playlistCmd := pipe.Get(ctx, r.getPlaylistKey(roomId))
	sourcesCmd := pipe.HGetAll(ctx, r.getDownloadSourcesKey(roomId))
	torrentsCmd := pipe.HGetAll(ctx, r.getTorrentFilesKey(roomId))

	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return domain.Room{}, fmt.Errorf("failed to get room: %w", err)
	}

	if len(metaCmd.Val()) == 0 {
		return domain.Room{}, room.ErrRoomNotFound
	}

	var meta roomMeta
	if err := metaCmd.Scan(&meta); err != nil {
		return domain.Room{}, fmt.Errorf("failed to scan room: %w", err)
	}

	player, err := r.scanPlayer(playerCmd)
	if err != nil {
		return domain.Room{}, fmt.Errorf("failed to scan player: %w", err)
	}

	members, err := r.decodeMembers(memberIdsCmd.Val(), membersCmd.Val())
	if err != nil {
		return domain.Room{}, err
	}

	rm := domain.Room{
		Id:              meta.Id,
		HostId:          meta.HostId,
		Members:         members,
		Playlist:        []domain.FileEntry{},
		Player:          player,
		SyncDelay:       time.Duration(meta.SyncDelayMs) * time.Millisecond,
		DownloadSources: make(map[int]string),
		TorrentFiles:    make(map[int]domain.TorrentFile),
		Seq:             meta.Seq,
		JoinSeq:         meta.JoinSeq,
		CreatedAt:       meta.CreatedAt,
	}

	if raw := playlistCmd.Val(); raw != "" {
		if err := json.Unmarshal([]byte(raw), &rm.Playlist); err != nil {
			return domain.Room{}, fmt.Errorf("failed to unmarshal playlist: %w", err)
		}
	}

	for field, src := range sourcesCmd.Val() {
		idx, err := r.fieldToInt(field)
		if err != nil {
			return domain.Room{}, fmt.Errorf("%w: download source index %q", room.ErrStorageCorrupt, field)
		}
		rm.DownloadSources[idx] = src
	}

	for field, raw := range torrentsCmd.Val() {
		idx, err := r.fieldToInt(field)
		if err != nil {
			return domain.Room{}, fmt.Errorf("%w: torrent index %q", room.ErrStorageCorrupt, field)
		}

		var t domain.TorrentFile
		if err := json.Unmarshal([]byte(raw), &t); err != nil {
			return domain.Room{}, fmt.Errorf("failed to unmarshal torrent file: %w", err)
		}
		rm.TorrentFiles[idx] = t
	}

	return rm, nil
}

func (r repo) DeleteRoom(ctx context.Context, roomId string) error {
	pipe := r.rc.TxPipeline()
	delCmd := pipe.Del(ctx, r.roomKeys(roomId)...)
	pipe.SRem(ctx, roomIndexKey, roomId)

	if err := r.executePipe(ctx, pipe); err != nil {
		return fmt.Errorf("failed to delete room: %w", err)
	}

	if delCmd.Val() == 0 {
		return room.ErrRoomNotFound
	}

	return nil
}

// ListRooms walks the room index and prunes ids whose keys already expired.
func (r repo) ListRooms(ctx context.Context) ([]domain.Room, error) {
	ids, err := r.rc.SMembers(ctx, roomIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get room ids: %w", err)
	}

	rooms := make([]domain.Room, 0, len(ids))
	for _, id := range ids {
		rm, err := r.GetRoom(ctx, id)
		if errors.Is(err, room.ErrRoomNotFound) {
			r.rc.SRem(ctx, roomIndexKey, id)
			continue
		}
		if err != nil {
			return nil, err
		}

		rooms = append(rooms, rm)
	}

	sort.Slice(rooms, func(i, j int) bool {
		return rooms[i].CreatedAt < rooms[j].CreatedAt
	})

	return rooms, nil
}
