package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// errNoValue loader 返回 nil 时用来跳过写缓存
var errNoValue = errors.New("cache: loader returned nil")

// GetOrLoadJSON 读穿缓存，值按 JSON 存。
//   - c 为 nil（未配置 redis）时直接回源；
//   - 回源出错或返回 nil 都不写缓存（商品不存在不能被缓存住）；
//   - 缓存里的值解不开（结构升级后的旧数据）时删掉重新回源。
func GetOrLoadJSON[T any](
	c *Cache,
	ctx context.Context,
	key string,
	ttl time.Duration,
	load func(ctx context.Context) (*T, error),
) (*T, error) {
	if c == nil {
		return load(ctx)
	}
	var direct *T
	encode := func(ctx context.Context) ([]byte, error) {
		v, err := load(ctx)
		if err != nil {
			return nil, err
		}
		if v == nil {
			return nil, errNoValue
		}
		direct = v
		return json.Marshal(v)
	}

	b, err := c.GetOrLoad(ctx, key, ttl, encode)
	switch {
	case errors.Is(err, errNoValue):
		return nil, nil
	case err != nil:
		return nil, err
	case direct != nil:
		return direct, nil
	}

	var out T
	if json.Unmarshal(b, &out) == nil {
		return &out, nil
	}
	_ = c.Invalidate(ctx, key)
	v, err := load(ctx)
	if err != nil || v == nil {
		return v, err
	}
	if b, err := json.Marshal(v); err == nil {
		_ = c.RDB.Set(ctx, c.prefix+key, b, ttl).Err()
	}
	return v, nil
}
