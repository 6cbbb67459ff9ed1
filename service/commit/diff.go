package commit

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	sgdiff "github.com/sourcegraph/go-diff/diff"

	"github.com/forgekit/forge/service/prompt"
)

// describeConflict produces the unified diff (disk vs staged) and its
// statistics shown by the interactive adapter.
func describeConflict(path string, disk, staged []byte) (*prompt.Conflict, error) {
	ud := difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(disk)),
		B:        difflib.SplitLines(string(staged)),
		FromFile: "a/" + path,
		ToFile:   "b/" + path,
		Context:  3,
	}
	patch, err := difflib.GetUnifiedDiffString(ud)
	if err != nil {
		return nil, err
	}

	conflict := &prompt.Conflict{Path: path, Diff: patch}
	if fileDiffs, err := sgdiff.ParseMultiFileDiff([]byte(patch)); err == nil && len(fileDiffs) == 1 {
		stat := fileDiffs[0].Stat()
		conflict.Added = int(stat.Added + stat.Changed)
		conflict.Deleted = int(stat.Deleted + stat.Changed)
		conflict.Hunks = len(fileDiffs[0].Hunks)
		return conflict, nil
	}

	// Parsing is best effort; fall back to counting the patch lines.
	for _, line := range strings.Split(patch, "\n") {
		switch {
		case strings.HasPrefix(line, "@@"):
			conflict.Hunks++
		case strings.HasPrefix(line, "+") && !strings.HasPrefix(line, "+++"):
			conflict.Added++
		case strings.HasPrefix(line, "-") && !strings.HasPrefix(line, "---"):
			conflict.Deleted++
		}
	}
	return conflict, nil
}
