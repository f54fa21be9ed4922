package redis

import (
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const roomIndexKey = "rooms"

type repo struct {
	rc             *redis.Client
	expireDuration time.Duration
	logger         *slog.Logger
}

// NewRepo stores rooms in redis. Keys of a room expire after expireDuration
// without writes so rooms of a crashed process do not linger.
func NewRepo(rc *redis.Client, expireDuration time.Duration, logger *slog.Logger) *repo {
	return &repo{
		rc:             rc,
		expireDuration: expireDuration,
		logger:         logger,
	}
}

func (r repo) getRoomKey(roomId string) string {
	return "room:" + roomId
}

func (r repo) roomKeys(roomId string) []string {
	return []string{
		r.getRoomKey(roomId),
		r.getPlayerKey(roomId),
		r.getMemberListKey(roomId),
		r.getMembersKey(roomId),
		r.getPlaylistKey(roomId),
		r.getDownloadSourcesKey(roomId),
		r.getTorrentFilesKey(roomId),
	}
}
