package taskfile

import (
	"fmt"
	"strings"

	"github.com/anton-run/anton/internal/fsatomic"
)

// MarkDone flips a task's checklist box to checked, then walks its ancestor
// chain marking any ancestor done once all of its children are done too.
// It returns the set of keys whose status actually changed, in the order
// they were updated (task first, then ancestors bottom-up).
func (f *TaskFile) MarkDone(key string) ([]string, error) {
	idx := f.indexOf(key)
	if idx < 0 {
		return nil, fmt.Errorf("taskfile: unknown task key %q", key)
	}

	var changed []string
	if f.Tasks[idx].Status != Completed {
		f.setLineChecked(idx, true)
		changed = append(changed, key)
	}

	parentKey := f.Tasks[idx].ParentKey
	for parentKey != "" {
		pIdx := f.indexOf(parentKey)
		if pIdx < 0 {
			break
		}
		if !f.allChildrenDone(parentKey) {
			break
		}
		if f.Tasks[pIdx].Status != Completed {
			f.setLineChecked(pIdx, true)
			changed = append(changed, parentKey)
		}
		parentKey = f.Tasks[pIdx].ParentKey
	}

	return changed, nil
}

// InsertSubtask inserts a new pending checklist item as the last child of
// parentKey (or at file end if parentKey is empty), persisting the new line
// into f.Lines and re-deriving f.Tasks so keys stay consistent with line
// numbers. Used when a failed attempt needs to decompose a task into
// smaller steps.
func (f *TaskFile) InsertSubtask(parentKey, text string) (Task, error) {
	depth := 0
	insertAt := len(f.Lines)

	if parentKey != "" {
		pIdx := f.indexOf(parentKey)
		if pIdx < 0 {
			return Task{}, fmt.Errorf("taskfile: unknown parent key %q", parentKey)
		}
		depth = f.Tasks[pIdx].Depth + 1
		insertAt = f.lastDescendantLine(parentKey) + 1
	}

	line := strings.Repeat(" ", depth*indentWidth) + "- [ ] " + text

	f.Lines = append(f.Lines, "")
	copy(f.Lines[insertAt+1:], f.Lines[insertAt:])
	f.Lines[insertAt] = line

	*f = *ParseBytes(f.Path, []byte(strings.Join(f.Lines, "\n")))

	for _, t := range f.Tasks {
		if t.Line == insertAt {
			return t, nil
		}
	}
	return Task{}, fmt.Errorf("taskfile: inserted task not found after reparse")
}

// Save writes the checklist back to disk atomically.
func (f *TaskFile) Save() error {
	content := strings.Join(f.Lines, "\n") + "\n"
	return fsatomic.WriteFile(f.Path, []byte(content), 0o644)
}

func (f *TaskFile) indexOf(key string) int {
	for i, t := range f.Tasks {
		if t.Key == key {
			return i
		}
	}
	return -1
}

func (f *TaskFile) allChildrenDone(parentKey string) bool {
	children := f.Children(parentKey)
	if len(children) == 0 {
		return false
	}
	for _, c := range children {
		if !c.Done() {
			return false
		}
	}
	return true
}

func (f *TaskFile) lastDescendantLine(parentKey string) int {
	last := f.Tasks[f.indexOf(parentKey)].Line
	for _, t := range f.Tasks {
		if isDescendant(f, t.Key, parentKey) && t.Line > last {
			last = t.Line
		}
	}
	return last
}

func isDescendant(f *TaskFile, key, ancestorKey string) bool {
	for key != "" {
		t, ok := f.ByKey(key)
		if !ok {
			return false
		}
		if t.ParentKey == ancestorKey {
			return true
		}
		key = t.ParentKey
	}
	return false
}

func (f *TaskFile) setLineChecked(idx int, checked bool) {
	t := f.Tasks[idx]
	m := checklistItemRe.FindStringSubmatchIndex(f.Lines[t.Line])
	if m == nil {
		return
	}
	mark := " "
	if checked {
		mark = "x"
	}
	line := f.Lines[t.Line]
	f.Lines[t.Line] = line[:m[4]] + mark + line[m[5]:]
	if checked {
		f.Tasks[idx].Status = Completed
	} else {
		f.Tasks[idx].Status = Pending
	}
}
