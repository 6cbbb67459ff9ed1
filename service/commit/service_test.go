package commit

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/afs"

	"github.com/forgekit/forge/policy"
	"github.com/forgekit/forge/service/prompt"
	"github.com/forgekit/forge/service/scheduler"
	"github.com/forgekit/forge/service/vfs"
)

type scriptedPrompter struct {
	decisions []prompt.Decision
	remember  bool
	conflicts []*prompt.Conflict
}

func (p *scriptedPrompter) Resolve(_ context.Context, conflict *prompt.Conflict) (prompt.Decision, bool, error) {
	p.conflicts = append(p.conflicts, conflict)
	decision := prompt.DecisionSkip
	if len(p.decisions) > 0 {
		decision = p.decisions[0]
		p.decisions = p.decisions[1:]
	}
	return decision, p.remember, nil
}

func TestCommitWritesPendingFiles(t *testing.T) {
	dir := t.TempDir()
	staged := vfs.New()
	target := filepath.Join(dir, "out", "file.txt")
	assert.Nil(t, staged.Write(target, []byte("x")))

	service := New(staged)
	assert.Nil(t, service.Commit(context.Background()))

	data, err := os.ReadFile(target)
	assert.Nil(t, err)
	assert.Equal(t, "x", string(data))
	assert.Equal(t, 0, len(staged.Pending()))
}

// Committing again with no further mutation performs zero additional
// physical writes.
func TestCommitIdempotence(t *testing.T) {
	dir := t.TempDir()
	staged := vfs.New()
	target := filepath.Join(dir, "file.txt")
	assert.Nil(t, staged.Write(target, []byte("x")))

	service := New(staged)
	ctx := context.Background()
	assert.Nil(t, service.Commit(ctx))

	info, err := os.Stat(target)
	assert.Nil(t, err)
	before := info.ModTime()

	assert.Nil(t, service.Commit(ctx))
	info, err = os.Stat(target)
	assert.Nil(t, err)
	assert.Equal(t, before, info.ModTime())
}

func TestCommitConflictDecisions(t *testing.T) {
	tests := []struct {
		name     string
		decision prompt.Decision
		expected string
		fails    bool
	}{
		{name: "overwrite", decision: prompt.DecisionOverwrite, expected: "staged"},
		{name: "skip", decision: prompt.DecisionSkip, expected: "disk"},
		{name: "abort", decision: prompt.DecisionAbort, fails: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			target := filepath.Join(dir, "file.txt")
			assert.Nil(t, os.WriteFile(target, []byte("disk"), 0o644))

			staged := vfs.New()
			assert.Nil(t, staged.Write(target, []byte("staged")))

			prompter := &scriptedPrompter{decisions: []prompt.Decision{tc.decision}}
			service := New(staged, WithPrompter(prompter))

			err := service.Commit(context.Background())
			if tc.fails {
				assert.ErrorIs(t, err, ErrAborted)
				return
			}
			assert.Nil(t, err)
			data, err := os.ReadFile(target)
			assert.Nil(t, err)
			assert.Equal(t, tc.expected, string(data))
			assert.Equal(t, 0, len(staged.Pending()))

			// The adapter saw the diff of disk vs staged.
			assert.Equal(t, 1, len(prompter.conflicts))
			assert.Equal(t, 1, prompter.conflicts[0].Added)
			assert.Equal(t, 1, prompter.conflicts[0].Deleted)
		})
	}
}

func TestCommitForcePolicy(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "file.txt")
	assert.Nil(t, os.WriteFile(target, []byte("disk"), 0o644))

	staged := vfs.New()
	assert.Nil(t, staged.Write(target, []byte("staged")))

	service := New(staged, WithPolicy(&policy.Policy{Mode: policy.ModeForce}))
	assert.Nil(t, service.Commit(context.Background()))

	data, err := os.ReadFile(target)
	assert.Nil(t, err)
	assert.Equal(t, "staged", string(data))
}

func TestCommitDryRunResolvesWithoutWriting(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "file.txt")
	assert.Nil(t, os.WriteFile(target, []byte("disk"), 0o644))

	staged := vfs.New()
	assert.Nil(t, staged.Write(target, []byte("staged")))
	assert.Nil(t, staged.Write(filepath.Join(dir, "new.txt"), []byte("new")))

	service := New(staged, WithPolicy(&policy.Policy{Mode: policy.ModeDryRun}))
	assert.Nil(t, service.Commit(context.Background()))

	assert.Equal(t, 0, len(staged.Pending()))
	data, err := os.ReadFile(target)
	assert.Nil(t, err)
	assert.Equal(t, "disk", string(data))
	_, err = os.Stat(filepath.Join(dir, "new.txt"))
	assert.True(t, os.IsNotExist(err))
}

func TestCommitControlFileForceWritten(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, ".forge-rc.yaml")
	assert.Nil(t, os.WriteFile(target, []byte("disk"), 0o644))

	staged := vfs.New()
	assert.Nil(t, staged.Write(target, []byte("staged")))

	prompter := &scriptedPrompter{decisions: []prompt.Decision{prompt.DecisionAbort}}
	service := New(staged,
		WithPrompter(prompter),
		WithPolicy(&policy.Policy{ForceWrite: []string{".forge-rc.yaml"}}))

	assert.Nil(t, service.Commit(context.Background()))
	assert.Equal(t, 0, len(prompter.conflicts), "control files must not prompt")
	data, err := os.ReadFile(target)
	assert.Nil(t, err)
	assert.Equal(t, "staged", string(data))
}

func TestCommitPersistedResolutionSkipsPrompt(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "file.txt")
	assert.Nil(t, os.WriteFile(target, []byte("disk"), 0o644))

	ctx := context.Background()
	fs := afs.New()
	resolutions, err := LoadResolutions(ctx, fs, filepath.Join(dir, ".forge-resolutions.yaml"))
	assert.Nil(t, err)
	assert.Nil(t, resolutions.Remember(ctx, target, prompt.DecisionSkip))

	staged := vfs.New()
	assert.Nil(t, staged.Write(target, []byte("staged")))

	prompter := &scriptedPrompter{decisions: []prompt.Decision{prompt.DecisionOverwrite}}
	service := New(staged, WithPrompter(prompter), WithResolutions(resolutions))
	assert.Nil(t, service.Commit(ctx))

	assert.Equal(t, 0, len(prompter.conflicts))
	data, err := os.ReadFile(target)
	assert.Nil(t, err)
	assert.Equal(t, "disk", string(data))
}

func TestResolutionsRoundTrip(t *testing.T) {
	dir := t.TempDir()
	location := filepath.Join(dir, "resolutions.yaml")
	ctx := context.Background()
	fs := afs.New()

	resolutions, err := LoadResolutions(ctx, fs, location)
	assert.Nil(t, err)
	assert.Nil(t, resolutions.Remember(ctx, "/out/a.txt", prompt.DecisionOverwrite))
	assert.Nil(t, resolutions.Remember(ctx, "/out/b.txt", prompt.DecisionSkip))

	reloaded, err := LoadResolutions(ctx, fs, location)
	assert.Nil(t, err)
	assert.Equal(t, 2, reloaded.Len())
	decision, ok := reloaded.Get("/out/a.txt")
	assert.True(t, ok)
	assert.Equal(t, prompt.DecisionOverwrite, decision)
}

func TestCommitDelete(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "file.txt")
	assert.Nil(t, os.WriteFile(target, []byte("disk"), 0o644))

	staged := vfs.New()
	assert.Nil(t, staged.Delete(target))

	service := New(staged)
	assert.Nil(t, service.Commit(context.Background()))
	_, err := os.Stat(target)
	assert.True(t, os.IsNotExist(err))
	assert.Equal(t, 0, len(staged.Pending()))
}

// Late-arriving staged writes re-queue the commit task through the one-shot
// change subscription.
func TestCommitTaskRearms(t *testing.T) {
	dir := t.TempDir()
	staged := vfs.New()
	first := filepath.Join(dir, "first.txt")
	late := filepath.Join(dir, "late.txt")
	assert.Nil(t, staged.Write(first, []byte("1")))

	service := New(staged)
	sched := scheduler.New("writing", "conflicts")
	assert.Nil(t, sched.QueueTask("conflicts", service.Task(sched, "conflicts"), scheduler.WithOnceKey(OnceKey)))

	// A task in an earlier pass stages another write after the commit task
	// was registered; the pipeline must pick it up in a follow-up pass.
	assert.Nil(t, sched.QueueTask("writing", func(ctx context.Context) error {
		return nil
	}))

	assert.Nil(t, sched.Start(context.Background()))
	_, err := os.Stat(first)
	assert.Nil(t, err)

	// Second wave: stage after the scheduler ended, re-queue fires.
	assert.Nil(t, staged.Write(late, []byte("2")))
	assert.Nil(t, sched.Start(context.Background()))
	_, err = os.Stat(late)
	assert.Nil(t, err)
	assert.Equal(t, 0, len(staged.Pending()))
}
