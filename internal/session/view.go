package session

import "time"

// View is a JSON-friendly snapshot of a session. Buffers are never included.
type View struct {
	ID        string       `json:"session_id"`
	State     Kind         `json:"state"`
	Mode      Mode         `json:"mode,omitempty"`
	Message   string       `json:"message,omitempty"`
	Queue     []QueueView  `json:"queue,omitempty"`
	Source    *SourceView  `json:"source,omitempty"`
	Pages     []PageView   `json:"pages,omitempty"`
	Archive   *ArchiveView `json:"archive,omitempty"`
	Merged    *MergedView  `json:"merged,omitempty"`
	UpdatedAt time.Time    `json:"updated_at"`
}

type QueueView struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Size int64  `json:"size"`
}

type SourceView struct {
	Name      string `json:"name"`
	Size      int64  `json:"size"`
	PageCount int    `json:"page_count"`
}

type PageView struct {
	Number    int    `json:"number"`
	Name      string `json:"name"`
	Size      int    `json:"size"`
	Landscape bool   `json:"landscape"`
	Digest    string `json:"digest"`
}

type ArchiveView struct {
	Name    string   `json:"name"`
	Size    int      `json:"size"`
	Entries []string `json:"entries"`
}

type MergedView struct {
	Name      string   `json:"name"`
	Size      int      `json:"size"`
	PageCount int      `json:"page_count"`
	Inputs    []string `json:"inputs"`
}

// View returns the current snapshot.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

func (s *Session) viewLocked() View {
	v := View{ID: s.id, State: s.state.Kind(), Message: s.message, UpdatedAt: s.lastSeen}
	switch st := s.state.(type) {
	case MergePrep:
		v.Mode = ModeMerge
		v.Queue = queueView(st.Queue)
	case Processing:
		v.Mode = st.Mode
		v.Queue = queueView(st.queue)
	case Completed:
		v.Mode = st.Result.Mode()
		switch r := st.Result.(type) {
		case *SplitResult:
			v.Source = &SourceView{Name: r.Source.Name, Size: r.Source.Size, PageCount: r.Source.PageCount}
			v.Pages = make([]PageView, len(r.Pages))
			for i, p := range r.Pages {
				v.Pages[i] = PageView{Number: p.Number(), Name: p.Name, Size: len(p.Data), Landscape: p.Landscape, Digest: p.Digest}
			}
			entries := make([]string, len(r.Archive.Entries))
			for i, e := range r.Archive.Entries {
				entries[i] = e.Name
			}
			v.Archive = &ArchiveView{Name: r.Archive.Name, Size: len(r.Archive.Data), Entries: entries}
		case *MergeResult:
			v.Merged = &MergedView{Name: r.Document.Name, Size: len(r.Document.Data), PageCount: r.Document.PageCount, Inputs: r.Inputs}
		}
	}
	return v
}

func queueView(q MergeQueue) []QueueView {
	if len(q) == 0 {
		return nil
	}
	out := make([]QueueView, len(q))
	for i, f := range q {
		out[i] = QueueView{ID: f.ID, Name: f.Name, Size: f.Size}
	}
	return out
}
