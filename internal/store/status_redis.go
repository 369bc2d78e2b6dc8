package store

import (
    "context"
    "fmt"
    "strconv"
    "time"

    redis "github.com/redis/go-redis/v9"
)

// RedisStatus stores one hash per session under session:<id>:status. Every
// write refreshes the key TTL so abandoned sessions age out on their own.
type RedisStatus struct {
    client *redis.Client
    keyNS  string
    ttl    time.Duration
}

func NewRedisStatus(redisURL string, ttl time.Duration) (*RedisStatus, error) {
    opt, err := redis.ParseURL(redisURL)
    if err != nil { return nil, err }
    c := redis.NewClient(opt)
    if err := c.Ping(context.Background()).Err(); err != nil { _ = c.Close(); return nil, err }
    return &RedisStatus{client: c, keyNS: "session", ttl: ttl}, nil
}

func (s *RedisStatus) key(sessionID string) string { return fmt.Sprintf("%s:%s:status", s.keyNS, sessionID) }

func (s *RedisStatus) Set(ctx context.Context, sessionID string, st Status) error {
    k := s.key(sessionID)
    pipe := s.client.TxPipeline()
    pipe.Del(ctx, k)
    pipe.HSet(ctx, k, encodeStatus(st))
    if s.ttl > 0 { pipe.Expire(ctx, k, s.ttl) }
    _, err := pipe.Exec(ctx)
    return err
}

func (s *RedisStatus) Get(ctx context.Context, sessionID string) (Status, bool, error) {
    res, err := s.client.HGetAll(ctx, s.key(sessionID)).Result()
    if err != nil { return Status{}, false, err }
    if len(res) == 0 { return Status{}, false, nil }
    return decodeStatus(res), true, nil
}

func (s *RedisStatus) Delete(ctx context.Context, sessionID string) error {
    return s.client.Del(ctx, s.key(sessionID)).Err()
}

func (s *RedisStatus) Ping(ctx context.Context) error { return s.client.Ping(ctx).Err() }

func (s *RedisStatus) Close() error { return s.client.Close() }

func encodeStatus(st Status) map[string]interface{} {
    m := map[string]interface{}{
        "state":      st.State,
        "page_count": st.PageCount,
        "queue_len":  st.QueueLen,
        "updated":    st.Updated.UTC().Format(time.RFC3339Nano),
    }
    if st.Mode != "" { m["mode"] = st.Mode }
    if st.Message != "" { m["message"] = st.Message }
    return m
}

// decodeStatus ignores malformed numeric fields and leaves them zero.
func decodeStatus(res map[string]string) Status {
    st := Status{State: res["state"], Mode: res["mode"], Message: res["message"]}
    if v, err := strconv.Atoi(res["page_count"]); err == nil { st.PageCount = v }
    if v, err := strconv.Atoi(res["queue_len"]); err == nil { st.QueueLen = v }
    if v := res["updated"]; v != "" {
        if t, err := time.Parse(time.RFC3339Nano, v); err == nil { st.Updated = t }
    }
    return st
}
