// Package gitwrap defines the narrow git contract the run controller
// depends on and a thin os/exec-backed default implementation. The real
// git wrapper is a consumed collaborator, not something this module is
// meant to reimplement in depth.
package gitwrap

// Git is the set of working-tree operations the run controller needs.
type Git interface {
	EnsureCleanWorkingTree(dir string) error
	GetWorkingDiff(dir string) (string, error)
	CommitAll(dir, msg string) (sha string, err error)
	RestoreTrackedChanges(dir string) error
	CleanUntracked(dir string) error
	CreateBranch(dir, name string) error
	GetUntrackedFiles(dir string) ([]string, error)
	RemoveUntrackedFiles(dir string, files []string) error
	GetChangedFiles(dir string) ([]string, error)
}
