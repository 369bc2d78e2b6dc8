// Package session drives one user's split or merge run through the
// IDLE, MERGE_PREP, PROCESSING and COMPLETED states and holds its buffers.
package session

import "github.com/local/pdfsplitter/internal/pdfops"

// Mode is the kind of run a session performs.
type Mode string

const (
	ModeSplit Mode = "split"
	ModeMerge Mode = "merge"
)

// Kind names a state.
type Kind string

const (
	KindIdle       Kind = "IDLE"
	KindMergePrep  Kind = "MERGE_PREP"
	KindProcessing Kind = "PROCESSING"
	KindCompleted  Kind = "COMPLETED"
)

// State is one of Idle, MergePrep, Processing or Completed.
type State interface {
	Kind() Kind
	sealed()
}

// Idle waits for input.
type Idle struct{}

// MergePrep holds the queue the user is curating before a merge.
type MergePrep struct {
	Queue MergeQueue
}

// Processing runs one operation. In merge mode the queue is kept so a failed
// run can return to MergePrep with it intact.
type Processing struct {
	Mode  Mode
	queue MergeQueue
}

// Completed holds the result of the last run.
type Completed struct {
	Result Result
}

func (Idle) Kind() Kind       { return KindIdle }
func (MergePrep) Kind() Kind  { return KindMergePrep }
func (Processing) Kind() Kind { return KindProcessing }
func (Completed) Kind() Kind  { return KindCompleted }

func (Idle) sealed()       {}
func (MergePrep) sealed()  {}
func (Processing) sealed() {}
func (Completed) sealed()  {}

// Result is either a SplitResult or a MergeResult.
type Result interface {
	Mode() Mode
	sealedResult()
}

// SplitResult is the output of a split run.
type SplitResult struct {
	Source  pdfops.SourceDocument
	Pages   []pdfops.PageDocument
	Archive *pdfops.Archive
}

// MergeResult is the output of a merge run.
type MergeResult struct {
	Document pdfops.MergedDocument
	Inputs   []string
}

func (SplitResult) Mode() Mode { return ModeSplit }
func (MergeResult) Mode() Mode { return ModeMerge }

func (SplitResult) sealedResult() {}
func (MergeResult) sealedResult() {}

// QueuedFile is one input waiting in the merge queue.
type QueuedFile struct {
	ID   string
	Name string
	Size int64
	Data []byte
}

// MergeQueue is the user-ordered list of merge inputs.
type MergeQueue []QueuedFile

func (q MergeQueue) clone() MergeQueue {
	out := make(MergeQueue, len(q))
	copy(out, q)
	return out
}
