package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	rdb "github.com/redis/go-redis/v9"
)

// releaseScript borra la key solo si el valor es nuestro token.
var releaseScript = rdb.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis es un Locker sobre SET NX PX.
type Redis struct {
	Client *rdb.Client
	Prefix string
}

func NewRedis(client *rdb.Client, prefix string) *Redis {
	return &Redis{Client: client, Prefix: prefix}
}

func (r *Redis) Acquire(ctx context.Context, key string, ttl time.Duration) (Release, error) {
	k := r.Prefix + "lock:" + key
	token := uuid.NewString()

	ok, err := r.Client.SetNX(ctx, k, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("lock: redis: %w", err)
	}
	if !ok {
		return nil, ErrLocked
	}
	return func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, r.Client, []string{k}, token).Err(); err != nil && err != rdb.Nil {
			return fmt.Errorf("lock: redis release: %w", err)
		}
		return nil
	}, nil
}
