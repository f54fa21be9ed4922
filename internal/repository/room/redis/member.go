package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/syncwatch/server/internal/domain"
	"github.com/syncwatch/server/internal/repository/room"
)

// the member list zset keeps join order, member bodies live in a hash
func (r repo) getMemberListKey(roomId string) string {
	return "room:" + roomId + ":memberlist"
}

func (r repo) getMembersKey(roomId string) string {
	return "room:" + roomId + ":members"
}

func (r repo) setMembers(ctx context.Context, pipe redis.Pipeliner, roomId string, members []domain.Member) error {
	if len(members) == 0 {
		return nil
	}

	zs := make([]redis.Z, 0, len(members))
	fields := make(map[string]any, len(members))
	for _, m := range members {
		data, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("failed to marshal member: %w", err)
		}

		zs = append(zs, redis.Z{Score: float64(m.JoinSeq), Member: m.Id})
		fields[m.Id] = data
	}

	pipe.ZAdd(ctx, r.getMemberListKey(roomId), zs...)
	pipe.HSet(ctx, r.getMembersKey(roomId), fields)

	return nil
}

func (r repo) decodeMembers(ids []string, bodies map[string]string) ([]domain.Member, error) {
	members := make([]domain.Member, 0, len(ids))
	for _, id := range ids {
		body, ok := bodies[id]
		if !ok {
			return nil, fmt.Errorf("%w: member %s has no body", room.ErrStorageCorrupt, id)
		}

		var m domain.Member
		if err := json.Unmarshal([]byte(body), &m); err != nil {
			return nil, fmt.Errorf("failed to unmarshal member: %w", err)
		}
		members = append(members, m)
	}

	return members, nil
}
