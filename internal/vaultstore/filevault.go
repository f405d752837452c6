package vaultstore

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/anton-run/anton/internal/fsatomic"
)

// indexEntry is the on-disk record kept in index.json. The note body lives
// in its own file under entries/ so the index stays small and cheap to
// rewrite on every mutation.
type indexEntry struct {
	Key         string    `json:"key"`
	Kind        Kind      `json:"kind"`
	ContentFile string    `json:"content_file"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// FileVault is a file-backed Vault: an index.json describing every entry
// plus one markdown file per entry under entries/.
type FileVault struct {
	dir string

	mu    sync.Mutex
	index []*indexEntry
}

// NewFileVault opens (or initializes) a vault rooted at dir.
func NewFileVault(dir string) (*FileVault, error) {
	if err := os.MkdirAll(filepath.Join(dir, "entries"), 0o755); err != nil {
		return nil, fmt.Errorf("create vault dir: %w", err)
	}
	v := &FileVault{dir: dir}
	if err := v.loadIndex(); err != nil {
		return nil, err
	}
	return v, nil
}

func (v *FileVault) indexPath() string {
	return filepath.Join(v.dir, "index.json")
}

func (v *FileVault) contentPath(file string) string {
	return filepath.Join(v.dir, "entries", file)
}

func (v *FileVault) loadIndex() error {
	data, err := fsatomic.ReadFile(v.indexPath())
	if err != nil {
		return fmt.Errorf("read vault index: %w", err)
	}
	if data == nil {
		v.index = nil
		return nil
	}
	var idx []*indexEntry
	if err := json.Unmarshal(data, &idx); err != nil {
		return fmt.Errorf("parse vault index: %w", err)
	}
	v.index = idx
	return nil
}

func (v *FileVault) saveIndex() error {
	data, err := json.MarshalIndent(v.index, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal vault index: %w", err)
	}
	return fsatomic.WriteFile(v.indexPath(), data, 0o644)
}

func (v *FileVault) findIndex(key string) int {
	for i, e := range v.index {
		if e.Key == key {
			return i
		}
	}
	return -1
}

func contentFileName(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])[:24] + ".md"
}

func (v *FileVault) UpsertNote(key, value string, kind Kind) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	now := time.Now()
	if i := v.findIndex(key); i >= 0 {
		entry := v.index[i]
		entry.Kind = kind
		entry.UpdatedAt = now
		if err := fsatomic.WriteFile(v.contentPath(entry.ContentFile), []byte(value), 0o644); err != nil {
			return fmt.Errorf("write vault content: %w", err)
		}
		return v.saveIndex()
	}

	file := contentFileName(key)
	if err := fsatomic.WriteFile(v.contentPath(file), []byte(value), 0o644); err != nil {
		return fmt.Errorf("write vault content: %w", err)
	}
	v.index = append(v.index, &indexEntry{
		Key:         key,
		Kind:        kind,
		ContentFile: file,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	return v.saveIndex()
}

func (v *FileVault) Note(key string) (Entry, bool, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	i := v.findIndex(key)
	if i < 0 {
		return Entry{}, false, nil
	}
	return v.readEntry(v.index[i])
}

func (v *FileVault) readEntry(e *indexEntry) (Entry, bool, error) {
	data, err := fsatomic.ReadFile(v.contentPath(e.ContentFile))
	if err != nil {
		return Entry{}, false, fmt.Errorf("read vault content: %w", err)
	}
	return Entry{
		Key:       e.Key,
		Value:     string(data),
		Kind:      e.Kind,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}, true, nil
}

// Search ranks entries by keyword overlap with query and returns the top k.
// This replaces semantic/embedding search with a plain token-overlap score,
// adequate for the small, curated note set the controller accumulates.
func (v *FileVault) Search(query string, k int) ([]Entry, error) {
	v.mu.Lock()
	entries := make([]*indexEntry, len(v.index))
	copy(entries, v.index)
	v.mu.Unlock()

	queryTokens := tokenize(query)
	if len(queryTokens) == 0 || k <= 0 {
		return nil, nil
	}

	type scored struct {
		entry Entry
		score int
	}
	var results []scored
	for _, e := range entries {
		entry, ok, err := v.readEntry(e)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		score := overlapScore(queryTokens, tokenize(entry.Key+" "+entry.Value))
		if score > 0 {
			results = append(results, scored{entry: entry, score: score})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].score != results[j].score {
			return results[i].score > results[j].score
		}
		return results[i].entry.UpdatedAt.After(results[j].entry.UpdatedAt)
	})

	if len(results) > k {
		results = results[:k]
	}
	out := make([]Entry, len(results))
	for i, r := range results {
		out[i] = r.entry
	}
	return out, nil
}

func (v *FileVault) ArchiveToolMessages(msgs []string) (int, error) {
	if len(msgs) == 0 {
		return 0, nil
	}
	key := fmt.Sprintf("tool archive %s", time.Now().UTC().Format(time.RFC3339Nano))
	value := strings.Join(msgs, "\n\n---\n\n")
	if err := v.UpsertNote(key, value, KindArchive); err != nil {
		return 0, err
	}
	return len(msgs), nil
}

func (v *FileVault) GetLatestByKey(keyPrefix string) (Entry, bool, error) {
	v.mu.Lock()
	var latest *indexEntry
	for _, e := range v.index {
		if !strings.HasPrefix(e.Key, keyPrefix) {
			continue
		}
		if latest == nil || e.UpdatedAt.After(latest.UpdatedAt) {
			latest = e
		}
	}
	v.mu.Unlock()

	if latest == nil {
		return Entry{}, false, nil
	}
	return v.readEntry(latest)
}

func tokenize(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
	return fields
}

func overlapScore(query, doc []string) int {
	docSet := make(map[string]bool, len(doc))
	for _, w := range doc {
		docSet[w] = true
	}
	score := 0
	for _, w := range query {
		if docSet[w] {
			score++
		}
	}
	return score
}
