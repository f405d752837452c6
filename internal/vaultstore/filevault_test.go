package vaultstore

import (
	"testing"
)

func TestUpsertAndNote(t *testing.T) {
	v, err := NewFileVault(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileVault: %v", err)
	}

	if err := v.UpsertNote("agent failure", "build failed: missing import", KindFailure); err != nil {
		t.Fatalf("UpsertNote: %v", err)
	}

	entry, ok, err := v.Note("agent failure")
	if err != nil {
		t.Fatalf("Note: %v", err)
	}
	if !ok {
		t.Fatal("expected entry to exist")
	}
	if entry.Value != "build failed: missing import" {
		t.Fatalf("unexpected value: %q", entry.Value)
	}
	if entry.Kind != KindFailure {
		t.Fatalf("expected KindFailure, got %q", entry.Kind)
	}
}

func TestUpsertOverwritesExisting(t *testing.T) {
	v, err := NewFileVault(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileVault: %v", err)
	}

	_ = v.UpsertNote("k", "v1", KindNote)
	_ = v.UpsertNote("k", "v2", KindNote)

	entry, ok, _ := v.Note("k")
	if !ok || entry.Value != "v2" {
		t.Fatalf("expected overwritten value v2, got %+v", entry)
	}
	if len(v.index) != 1 {
		t.Fatalf("expected a single index entry after overwrite, got %d", len(v.index))
	}
}

func TestNoteMissing(t *testing.T) {
	v, _ := NewFileVault(t.TempDir())
	_, ok, err := v.Note("missing")
	if err != nil {
		t.Fatalf("Note: %v", err)
	}
	if ok {
		t.Fatal("expected not found")
	}
}

func TestSearchRanksByOverlap(t *testing.T) {
	v, _ := NewFileVault(t.TempDir())
	_ = v.UpsertNote("note-1", "the database migration failed during verify", KindNote)
	_ = v.UpsertNote("note-2", "unrelated text about formatting", KindNote)
	_ = v.UpsertNote("note-3", "database connection timeout during verify", KindNote)

	results, err := v.Search("database verify", 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	for _, r := range results {
		if r.Key == "note-2" {
			t.Fatalf("unrelated note should not rank in top results: %+v", results)
		}
	}
}

func TestArchiveToolMessages(t *testing.T) {
	v, _ := NewFileVault(t.TempDir())
	n, err := v.ArchiveToolMessages([]string{"tool result 1", "tool result 2"})
	if err != nil {
		t.Fatalf("ArchiveToolMessages: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 archived, got %d", n)
	}

	entry, ok, err := v.GetLatestByKey("tool archive")
	if err != nil {
		t.Fatalf("GetLatestByKey: %v", err)
	}
	if !ok {
		t.Fatal("expected archive entry")
	}
	if entry.Kind != KindArchive {
		t.Fatalf("expected KindArchive, got %q", entry.Kind)
	}
}

func TestGetLatestByKeyPicksMostRecent(t *testing.T) {
	v, _ := NewFileVault(t.TempDir())
	_ = v.UpsertNote("agent failure 1", "first", KindFailure)
	_ = v.UpsertNote("agent failure 2", "second", KindFailure)

	entry, ok, err := v.GetLatestByKey("agent failure")
	if err != nil {
		t.Fatalf("GetLatestByKey: %v", err)
	}
	if !ok {
		t.Fatal("expected an entry")
	}
	if entry.Value != "second" {
		t.Fatalf("expected most recently updated entry, got %q", entry.Value)
	}
}

func TestFileVaultPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	v1, _ := NewFileVault(dir)
	_ = v1.UpsertNote("k", "persisted", KindNote)

	v2, err := NewFileVault(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	entry, ok, _ := v2.Note("k")
	if !ok || entry.Value != "persisted" {
		t.Fatalf("expected persisted entry, got %+v ok=%v", entry, ok)
	}
}
