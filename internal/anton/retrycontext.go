package anton

import (
	"fmt"
	"os"
	"strings"

	"github.com/anton-run/anton/internal/verify"
)

const maxRelatedFileBytes = 15 * 1024

// buildRetryContext composes the retry block injected into the prompt for
// attempt N>1 (spec §4.2.4). workDir resolves file paths named in the L2
// failure reason for file-content injection at l2FailCount>=2.
func buildRetryContext(workDir string, prev AttemptRecord, verifyResult *verify.Result, l2FailCount int, relatedMatcher verify.RelatedFileMatcher, candidatePaths []string, taskText string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "\n\n## Previous Attempt\n")
	fmt.Fprintf(&b, "Status: %s\n", prev.Status)
	if verifyResult != nil {
		fmt.Fprintf(&b, "Summary: %s\n", verifyResult.Summary)
		fmt.Fprintf(&b, "Build passed: %v, Test passed: %v, Lint passed: %v\n",
			!verifyResult.Build.Ran || verifyResult.Build.Passed,
			!verifyResult.Test.Ran || verifyResult.Test.Passed,
			!verifyResult.Lint.Ran || verifyResult.Lint.Passed,
		)
		if verifyResult.L2Ran {
			fmt.Fprintf(&b, "L2 review passed: %v\nL2 reason: %s\n", verifyResult.L2Passed, verifyResult.L2Reason)
		}
		if verifyResult.CommandOutput != "" {
			fmt.Fprintf(&b, "\nCommand output:\n%s\n", verifyResult.CommandOutput)
		}

		if verifyResult.L2Ran && !verifyResult.L2Passed && verify.IsMissingImplementation(verifyResult.L2Reason) {
			paths := verify.ExtractFilePaths(verifyResult.L2Reason)
			if relatedMatcher != nil && len(candidatePaths) > 0 {
				paths = append(paths, relatedMatcher(taskText, candidatePaths)...)
			}
			if len(paths) > 0 {
				b.WriteString("\n## Files to focus on\n")
				for _, p := range paths {
					fmt.Fprintf(&b, "- %s\n", p)
				}
				if l2FailCount >= 2 {
					for _, p := range paths {
						if content, ok := readSmallFile(workDir, p); ok {
							fmt.Fprintf(&b, "\n### Current contents of %s\n```\n%s\n```\n", p, content)
						}
					}
				}
			}
		}
	} else if prev.Error != "" {
		fmt.Fprintf(&b, "Error: %s\n", prev.Error)
	}

	return b.String()
}

func readSmallFile(workDir, relPath string) (string, bool) {
	path := relPath
	if workDir != "" {
		path = workDir + string(os.PathSeparator) + relPath
	}
	info, err := os.Stat(path)
	if err != nil || info.Size() > maxRelatedFileBytes || !info.Mode().IsRegular() {
		return "", false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	return string(data), true
}
