package orchestrator

import (
    "context"

    "github.com/local/pdfsplitter/internal/session"
    "github.com/local/pdfsplitter/internal/store"
)

// statusMirror publishes session views to a status store so other replicas
// and dashboards can poll progress without touching the buffers.
type statusMirror struct { s store.StatusStore }

func NewStatusAdapter(s store.StatusStore) session.StatusSink { return &statusMirror{s: s} }

func (a *statusMirror) Publish(ctx context.Context, v session.View) error {
    return a.s.Set(ctx, v.ID, toStatus(v))
}

func (a *statusMirror) Remove(ctx context.Context, id string) error { return a.s.Delete(ctx, id) }

func toStatus(v session.View) store.Status {
    st := store.Status{
        State:    string(v.State),
        Mode:     string(v.Mode),
        Message:  v.Message,
        QueueLen: len(v.Queue),
        Updated:  v.UpdatedAt,
    }
    switch {
    case v.Source != nil: st.PageCount = v.Source.PageCount
    case v.Merged != nil: st.PageCount = v.Merged.PageCount
    }
    return st
}

// fromStatus rebuilds a minimal view from a mirrored record.
func fromStatus(id string, st store.Status) session.View {
    return session.View{ID: id, State: session.Kind(st.State), Mode: session.Mode(st.Mode), Message: st.Message, UpdatedAt: st.Updated}
}
