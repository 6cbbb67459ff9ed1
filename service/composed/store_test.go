package composed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/forgekit/forge/model/generator"
)

type fakeGenerator struct {
	ns       string
	location string
	key      string
}

func (g *fakeGenerator) Namespace() string           { return g.ns }
func (g *fakeGenerator) Location() string            { return g.location }
func (g *fakeGenerator) Run(_ context.Context) error { return nil }

func (g *fakeGenerator) CompositionKey() string { return g.key }

func instance(t *testing.T, ns, location, key string) *generator.Instance {
	t.Helper()
	inst, err := generator.NewInstance(&fakeGenerator{ns: ns, location: location, key: key})
	assert.Nil(t, err)
	return inst
}

func TestAddDeduplicatesByIdentity(t *testing.T) {
	s := New()
	first := instance(t, "foo:app", "/pkgs/foo/app", "")
	added, entry := s.Add(first)
	assert.True(t, added)
	assert.Equal(t, "foo:app#/pkgs/foo/app", entry.Identifier)

	// An independently constructed instance with the same identity returns
	// the stored entry untouched.
	duplicate := instance(t, "foo:app", "/pkgs/foo/app", "")
	added, existing := s.Add(duplicate)
	assert.False(t, added)
	assert.Same(t, entry, existing)
	assert.Same(t, first, existing.Instance)
	assert.Equal(t, 1, s.Len())
}

func TestAddDistinctIdentities(t *testing.T) {
	s := New()
	added, _ := s.Add(instance(t, "foo:app", "/pkgs/foo/app", ""))
	assert.True(t, added)
	added, _ = s.Add(instance(t, "bar:app", "/pkgs/bar/app", ""))
	assert.True(t, added)

	entries := s.Entries()
	assert.Equal(t, 2, len(entries))
	assert.Equal(t, "foo:app#/pkgs/foo/app", entries[0].Identifier)
	assert.Equal(t, "bar:app#/pkgs/bar/app", entries[1].Identifier)
}

func TestExplicitCompositionKey(t *testing.T) {
	s := New()
	added, _ := s.Add(instance(t, "foo:app", "/pkgs/a", "shared"))
	assert.True(t, added)
	added, _ = s.Add(instance(t, "foo:app", "/pkgs/b", "shared"))
	assert.False(t, added, "explicit keys dominate namespace#location identity")
}

func TestCompositionNotificationFiresOnce(t *testing.T) {
	s := New()
	var composed []string
	s.OnCompose(func(entry *Entry) { composed = append(composed, entry.Identifier) })

	s.Add(instance(t, "foo:app", "/pkgs/foo/app", ""))
	s.Add(instance(t, "foo:app", "/pkgs/foo/app", ""))
	s.Add(instance(t, "bar:app", "/pkgs/bar/app", ""))

	assert.Equal(t, []string{"foo:app#/pkgs/foo/app", "bar:app#/pkgs/bar/app"}, composed)
}
