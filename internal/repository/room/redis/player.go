package redis

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/syncwatch/server/internal/domain"
)

func (r repo) getPlayerKey(roomId string) string {
	return "room:" + roomId + ":player"
}

func (r repo) setPlayer(ctx context.Context, pipe redis.Pipeliner, roomId string, player *domain.Player) {
	pipe.HSet(ctx, r.getPlayerKey(roomId), player)
}

func (r repo) scanPlayer(cmd *redis.MapStringStringCmd) (domain.Player, error) {
	player := domain.Player{CurrentIndex: domain.NoVideo}
	if len(cmd.Val()) == 0 {
		return player, nil
	}

	if err := cmd.Scan(&player); err != nil {
		return domain.Player{}, err
	}

	return player, nil
}
