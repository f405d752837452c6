package verify

import (
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
)

// Commands holds the build/test/lint commands discovered for a project, or
// supplied explicitly in configuration.
type Commands struct {
	Build string
	Test  string
	Lint  string
}

// Any reports whether at least one gate command is present.
func (c Commands) Any() bool {
	return c.Build != "" || c.Test != "" || c.Lint != ""
}

type packageJSON struct {
	Scripts map[string]string `json:"scripts"`
}

var makeTargetRe = regexp.MustCompile(`(?m)^([a-zA-Z][\w.-]*)\s*:`)

// DetectCommands inspects workDir for common build tooling manifests and
// returns whichever of build/test/lint it can identify. Explicit overrides
// (supplied in config) always win — callers should apply those after
// calling DetectCommands, not before.
func DetectCommands(workDir string) Commands {
	var cmds Commands

	if data, err := os.ReadFile(filepath.Join(workDir, "package.json")); err == nil {
		var pkg packageJSON
		if json.Unmarshal(data, &pkg) == nil {
			if _, ok := pkg.Scripts["build"]; ok {
				cmds.Build = "npm run build"
			}
			if _, ok := pkg.Scripts["test"]; ok {
				cmds.Test = "npm test"
			}
			if _, ok := pkg.Scripts["lint"]; ok {
				cmds.Lint = "npm run lint"
			}
		}
	}

	if cmds.Build == "" || cmds.Test == "" || cmds.Lint == "" {
		detectFromMakefile(workDir, &cmds)
	}

	if cmds.Build == "" {
		if _, err := os.Stat(filepath.Join(workDir, "go.mod")); err == nil {
			cmds.Build = "go build ./..."
			if cmds.Test == "" {
				cmds.Test = "go test ./..."
			}
			if cmds.Lint == "" {
				if _, err := os.Stat(filepath.Join(workDir, ".golangci.yml")); err == nil {
					cmds.Lint = "golangci-lint run"
				}
			}
		}
	}

	return cmds
}

func detectFromMakefile(workDir string, cmds *Commands) {
	data, err := os.ReadFile(filepath.Join(workDir, "Makefile"))
	if err != nil {
		return
	}
	targets := map[string]bool{}
	for _, m := range makeTargetRe.FindAllStringSubmatch(string(data), -1) {
		targets[m[1]] = true
	}
	if cmds.Build == "" && targets["build"] {
		cmds.Build = "make build"
	}
	if cmds.Test == "" && targets["test"] {
		cmds.Test = "make test"
	}
	if cmds.Lint == "" && targets["lint"] {
		cmds.Lint = "make lint"
	}
}
