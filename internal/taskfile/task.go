// Package taskfile parses and mutates the hierarchical markdown checklist
// that drives an Anton run: a tree of "- [ ]"/"- [x]" lines, indentation
// encoding parent/child nesting, auto-completing ancestors when every child
// is done.
package taskfile

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Status is the completion state of a single checklist line.
type Status string

const (
	Pending   Status = "pending"
	Completed Status = "completed"
)

// Task is one line of the checklist, plus its position in the tree.
type Task struct {
	Key      string  `json:"key"`
	Text     string  `json:"text"`
	Status   Status  `json:"status"`
	Depth    int     `json:"depth"`
	Line     int     `json:"line"`
	ParentKey string `json:"parent_key,omitempty"`
}

// Done reports whether the task is checked off.
func (t Task) Done() bool { return t.Status == Completed }

// TaskFile is a parsed checklist document: an ordered list of tasks plus
// the raw lines needed to re-render it losslessly.
type TaskFile struct {
	Path  string
	Lines []string
	Tasks []Task
}

// ByKey finds a task by its stable key. Returns false if absent.
func (f *TaskFile) ByKey(key string) (Task, bool) {
	for _, t := range f.Tasks {
		if t.Key == key {
			return t, true
		}
	}
	return Task{}, false
}

// Children returns the direct children of the task with the given key.
// An empty parentKey returns root-level tasks.
func (f *TaskFile) Children(parentKey string) []Task {
	var out []Task
	for _, t := range f.Tasks {
		if t.ParentKey == parentKey {
			out = append(out, t)
		}
	}
	return out
}

// AllDone reports whether every task in the file, parents included, is
// completed.
func (f *TaskFile) AllDone() bool {
	for _, t := range f.Tasks {
		if !t.Done() {
			return false
		}
	}
	return true
}

// NextPending returns the first pending leaf task in document order, the
// natural "what to work on next" query for the run controller.
func (f *TaskFile) NextPending() (Task, bool) {
	leaves := f.leafKeys()
	for _, t := range f.Tasks {
		if leaves[t.Key] && !t.Done() {
			return t, true
		}
	}
	return Task{}, false
}

// RunnablePending returns every unchecked leaf task in document order,
// excluding keys present in skipped. A task's presence in skipped records
// that a previous attempt exhausted its retry budget (or was blocked while
// skipping blocked tasks is enabled) without the checklist
// itself being touched — the task file stays the single source of truth
// for what was actually completed.
func (f *TaskFile) RunnablePending(skipped map[string]bool) []Task {
	leaves := f.leafKeys()
	var out []Task
	for _, t := range f.Tasks {
		if leaves[t.Key] && !t.Done() && !skipped[t.Key] {
			out = append(out, t)
		}
	}
	return out
}

func (f *TaskFile) leafKeys() map[string]bool {
	leaves := make(map[string]bool, len(f.Tasks))
	for _, t := range f.Tasks {
		leaves[t.Key] = true
	}
	for _, t := range f.Tasks {
		if t.ParentKey != "" {
			leaves[t.ParentKey] = false
		}
	}
	return leaves
}

// stableKey derives a content-addressed key from a task's position in the
// tree — its parent's key and its index among that parent's siblings — plus
// its text, so that inserting a sibling elsewhere in the file never changes
// a task's identity. Line position is deliberately excluded: InsertSubtask
// appends new lines, which shifts every task below it, and a line-derived
// key would churn on every insertion even though nothing about the shifted
// tasks actually changed.
func stableKey(parentKey string, siblingIndex int, text string) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s:%d:%s", parentKey, siblingIndex, text)))
	return "tk_" + hex.EncodeToString(sum[:])[:12]
}
