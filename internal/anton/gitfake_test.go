package anton

// fakeGit is an in-memory gitwrap.Git implementation for testing the
// controller and rollback logic without shelling out to a real git binary.
type fakeGit struct {
	diff               string
	untracked          []string
	changed            []string
	commitSHA          string
	commitErr          error
	ensureCleanErr     error
	restoreTrackedCalled bool
	cleanUntrackedCalled bool
	removedUntracked     []string
	branches             []string
}

func (g *fakeGit) EnsureCleanWorkingTree(dir string) error { return g.ensureCleanErr }

func (g *fakeGit) GetWorkingDiff(dir string) (string, error) { return g.diff, nil }

func (g *fakeGit) CommitAll(dir, msg string) (string, error) {
	if g.commitErr != nil {
		return "", g.commitErr
	}
	return g.commitSHA, nil
}

func (g *fakeGit) RestoreTrackedChanges(dir string) error {
	g.restoreTrackedCalled = true
	return nil
}

func (g *fakeGit) CleanUntracked(dir string) error {
	g.cleanUntrackedCalled = true
	g.untracked = nil
	return nil
}

func (g *fakeGit) CreateBranch(dir, name string) error {
	g.branches = append(g.branches, name)
	return nil
}

func (g *fakeGit) GetUntrackedFiles(dir string) ([]string, error) { return g.untracked, nil }

func (g *fakeGit) RemoveUntrackedFiles(dir string, files []string) error {
	g.removedUntracked = append(g.removedUntracked, files...)
	return nil
}

func (g *fakeGit) GetChangedFiles(dir string) ([]string, error) { return g.changed, nil }
