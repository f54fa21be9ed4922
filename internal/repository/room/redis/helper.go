package redis

import (
	"context"
	"strconv"

	"github.com/redis/go-redis/v9"
)

func (r repo) executePipe(ctx context.Context, pipe redis.Pipeliner) error {
	cmds, err := pipe.Exec(ctx)
	if err != nil {
		for _, cmd := range cmds {
			if err := cmd.Err(); err != nil {
				return err
			}
		}

		return err
	}

	return nil
}

func (r repo) expireAll(ctx context.Context, pipe redis.Pipeliner, keys ...string) {
	for _, key := range keys {
		pipe.Expire(ctx, key, r.expireDuration)
	}
}

func (r repo) fieldToInt(field string) (int, error) {
	return strconv.Atoi(field)
}
