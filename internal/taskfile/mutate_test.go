package taskfile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestMarkDoneAutoCompletesAncestor(t *testing.T) {
	f := ParseBytes("plan.md", []byte(sample))

	parser, ok := f.ByKey(f.Tasks[2].Key)
	if !ok {
		t.Fatal("missing write parser task")
	}

	changed, err := f.MarkDone(parser.Key)
	if err != nil {
		t.Fatal(err)
	}

	parentKey := parser.ParentKey
	foundParent := false
	for _, key := range changed {
		if key == parentKey {
			foundParent = true
		}
	}
	if !foundParent {
		t.Errorf("expected ancestor %q to auto-complete once all children are done, changed=%v", parentKey, changed)
	}

	parent, _ := f.ByKey(parentKey)
	if !parent.Done() {
		t.Errorf("expected parent task to be marked done, got %+v", parent)
	}
}

func TestMarkDoneUnknownKey(t *testing.T) {
	f := ParseBytes("plan.md", []byte(sample))
	if _, err := f.MarkDone("not-a-real-key"); err == nil {
		t.Error("expected error for unknown key")
	}
}

func TestInsertSubtask(t *testing.T) {
	f := ParseBytes("plan.md", []byte(sample))
	parentKey := f.Tasks[1].Key // "implement feature"

	task, err := f.InsertSubtask(parentKey, "handle edge case")
	if err != nil {
		t.Fatal(err)
	}
	if task.Depth != f.Tasks[1].Depth+1 {
		t.Errorf("expected inserted task to be one level deeper, got depth %d", task.Depth)
	}
	if task.ParentKey != parentKey {
		t.Errorf("expected inserted task's parent to be %q, got %q", parentKey, task.ParentKey)
	}

	found := false
	for _, c := range f.Children(parentKey) {
		if c.Key == task.Key {
			found = true
		}
	}
	if !found {
		t.Error("inserted subtask not present among parent's children after reparse")
	}
}

func TestInsertSubtaskDoesNotChangeLaterSiblingKeys(t *testing.T) {
	f := ParseBytes("plan.md", []byte(sample))
	parentKey := f.Tasks[1].Key // "implement feature"

	shipIt, ok := f.ByKey(f.Tasks[4].Key)
	if !ok || shipIt.Text != "ship it" {
		t.Fatalf("fixture assumption broken, got %+v", shipIt)
	}
	shipItKey := shipIt.Key

	if _, err := f.InsertSubtask(parentKey, "handle edge case"); err != nil {
		t.Fatal(err)
	}

	after, ok := f.ByKey(shipItKey)
	if !ok {
		t.Fatalf("ship it's key %q no longer resolves after an unrelated sibling's subtask was inserted", shipItKey)
	}
	if after.Text != "ship it" {
		t.Errorf("key %q now resolves to a different task: %+v", shipItKey, after)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	f := ParseBytes("plan.md", []byte(sample))
	dir := t.TempDir()
	f.Path = filepath.Join(dir, "plan.md")

	if _, err := f.MarkDone(f.Tasks[1].Key); err != nil {
		t.Fatal(err)
	}
	if err := f.Save(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(f.Path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "- [x] implement feature") {
		t.Errorf("expected saved file to contain checked item, got:\n%s", data)
	}
}
