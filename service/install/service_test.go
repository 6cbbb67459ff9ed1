package install

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScheduleDeduplicates(t *testing.T) {
	s := New()
	s.Schedule("generator-foo")
	s.Schedule("generator-foo")
	s.Schedule(" ")
	s.Schedule("generator-bar")
	assert.Equal(t, []string{"generator-foo", "generator-bar"}, s.queued)
}

func TestInstallRunsPackageManager(t *testing.T) {
	s := New(WithCommand("echo"))
	assert.Nil(t, s.Install(context.Background(), "generator-foo"))
}

func TestInstallFailureIsReported(t *testing.T) {
	s := New(WithCommand("false"))
	err := s.Install(context.Background(), "generator-foo")
	assert.ErrorIs(t, err, ErrInstallFailed)
}

// The install task swallows failures; a broken package manager never fails
// the run.
func TestTaskSwallowsFailures(t *testing.T) {
	s := New(WithCommand("false"))
	s.Schedule("generator-foo")
	assert.Nil(t, s.Task()(context.Background()))
	assert.Equal(t, 0, len(s.queued))
}
