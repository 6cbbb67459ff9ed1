package vfs

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriteReadPending(t *testing.T) {
	s := New()
	assert.Nil(t, s.Write("/out/a.txt", []byte("alpha")))
	assert.Nil(t, s.Write("/out/b.txt", []byte("beta")))

	data, err := s.Read("/out/a.txt")
	assert.Nil(t, err)
	assert.Equal(t, "alpha", string(data))

	pending := s.Pending()
	assert.Equal(t, 2, len(pending))
	assert.Equal(t, "/out/a.txt", pending[0].Path)
	assert.Equal(t, "/out/b.txt", pending[1].Path)
	assert.Equal(t, StatePending, pending[0].State)
}

func TestMarkCommitted(t *testing.T) {
	s := New()
	assert.Nil(t, s.Write("/out/a.txt", []byte("alpha")))
	s.MarkCommitted("/out/a.txt")
	assert.Equal(t, 0, len(s.Pending()))
	assert.Equal(t, StateCommitted, s.Lookup("/out/a.txt").State)

	// Re-writing turns the record pending again.
	assert.Nil(t, s.Write("/out/a.txt", []byte("alpha2")))
	assert.Equal(t, 1, len(s.Pending()))
}

func TestDelete(t *testing.T) {
	s := New()
	assert.Nil(t, s.Write("/out/a.txt", []byte("alpha")))
	assert.Nil(t, s.Delete("/out/a.txt"))

	_, err := s.Read("/out/a.txt")
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.False(t, s.Exists("/out/a.txt"))

	pending := s.Pending()
	assert.Equal(t, 1, len(pending))
	assert.Equal(t, StateDeleted, pending[0].State)

	s.MarkCommitted("/out/a.txt")
	assert.Nil(t, s.Lookup("/out/a.txt"))
}

// A change subscription is one-shot: it fires on the next mutation only and
// has to be re-armed explicitly.
func TestOnChangeOneShot(t *testing.T) {
	s := New()
	fired := 0
	s.OnChange(func() { fired++ })

	assert.Nil(t, s.Write("/out/a.txt", []byte("alpha")))
	assert.Equal(t, 1, fired)

	assert.Nil(t, s.Write("/out/b.txt", []byte("beta")))
	assert.Equal(t, 1, fired, "subscription must not survive its first firing")

	s.OnChange(func() { fired++ })
	assert.Nil(t, s.Delete("/out/a.txt"))
	assert.Equal(t, 2, fired)
}

// Re-arming from inside the callback observes the following change.
func TestOnChangeRearmInsideCallback(t *testing.T) {
	s := New()
	var seen []int
	var arm func()
	count := 0
	arm = func() {
		s.OnChange(func() {
			count++
			seen = append(seen, count)
			arm()
		})
	}
	arm()

	assert.Nil(t, s.Write("/a", []byte("1")))
	assert.Nil(t, s.Write("/b", []byte("2")))
	assert.Equal(t, []int{1, 2}, seen)
}
