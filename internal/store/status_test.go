package store

import (
    "context"
    "fmt"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestMemoryStatus(t *testing.T) {
    ctx := context.Background()
    s := NewMemoryStatus()
    require.NoError(t, s.Ping(ctx))

    _, ok, err := s.Get(ctx, "a")
    require.NoError(t, err)
    assert.False(t, ok)

    require.NoError(t, s.Set(ctx, "a", Status{State: "COMPLETED", Mode: "split", PageCount: 3}))
    st, ok, err := s.Get(ctx, "a")
    require.NoError(t, err)
    require.True(t, ok)
    assert.Equal(t, 3, st.PageCount)

    require.NoError(t, s.Delete(ctx, "a"))
    _, ok, _ = s.Get(ctx, "a")
    assert.False(t, ok)
}

func TestStatusHashRoundTrip(t *testing.T) {
    updated := time.Date(2024, 5, 1, 12, 30, 0, 500, time.UTC)
    in := Status{State: "MERGE_PREP", Mode: "merge", Message: "waiting", QueueLen: 2, Updated: updated}

    hash := map[string]string{}
    for k, v := range encodeStatus(in) {
        hash[k] = fmt.Sprint(v)
    }
    assert.Equal(t, in, decodeStatus(hash))
}

func TestDecodeStatusToleratesBadFields(t *testing.T) {
    st := decodeStatus(map[string]string{"state": "IDLE", "page_count": "x", "updated": "yesterday"})
    assert.Equal(t, "IDLE", st.State)
    assert.Zero(t, st.PageCount)
    assert.True(t, st.Updated.IsZero())
}
