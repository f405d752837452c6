package taskfile

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

// checklistItemRe matches a markdown checklist line, capturing leading
// whitespace (for depth), the check state, and the item text.
//
//	- [ ] do the thing
//	  - [x] sub-step already done
var checklistItemRe = regexp.MustCompile(`^(\s*)[-*]\s+\[([ xX])\]\s+(.*)$`)

const indentWidth = 2

// Parse reads a checklist markdown file and builds its Task tree.
func Parse(path string) (*TaskFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read task file: %w", err)
	}
	return ParseBytes(path, data), nil
}

// ParseBytes parses in-memory markdown content, keeping the original lines
// so mutations can round-trip everything that isn't a checklist item
// (headings, prose, blank lines) unchanged.
func ParseBytes(path string, data []byte) *TaskFile {
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")

	f := &TaskFile{Path: path, Lines: lines}

	// ancestorAtDepth[d] holds the key of the most recently seen task whose
	// indentation depth is d, used to assign ParentKey by looking one level
	// shallower than the current line.
	ancestorAtDepth := map[int]string{}

	// siblingIndex[parentKey] counts how many children of parentKey have
	// been assigned a key so far, so stableKey can place a task by position
	// among its siblings rather than by line number.
	siblingIndex := map[string]int{}

	for i, line := range lines {
		m := checklistItemRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		// A tab counts as one full indentation level.
		indent := len(m[1]) + strings.Count(m[1], "\t")*(indentWidth-1)
		depth := indent / indentWidth
		checked := strings.EqualFold(m[2], "x")
		text := strings.TrimSpace(m[3])

		status := Pending
		if checked {
			status = Completed
		}

		parentKey := ""
		if depth > 0 {
			parentKey = ancestorAtDepth[depth-1]
		}

		idx := siblingIndex[parentKey]
		siblingIndex[parentKey] = idx + 1

		task := Task{
			Key:       stableKey(parentKey, idx, text),
			Text:      text,
			Status:    status,
			Depth:     depth,
			Line:      i,
			ParentKey: parentKey,
		}
		f.Tasks = append(f.Tasks, task)
		ancestorAtDepth[depth] = task.Key

		// A line at depth d invalidates any previously recorded descendant
		// at depth > d; otherwise a later sibling at shallower depth would
		// leak a stale parent key to unrelated deeper lines.
		for d := range ancestorAtDepth {
			if d > depth {
				delete(ancestorAtDepth, d)
			}
		}
	}

	return f
}
