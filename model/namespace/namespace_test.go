package namespace

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		expected   string
		expectFail bool
	}{
		{name: "single segment", input: "foo", expected: "foo"},
		{name: "two segments", input: "foo:app", expected: "foo:app"},
		{name: "deep chain", input: "foo:sub:deep", expected: "foo:sub:deep"},
		{name: "scoped", input: "@acme/foo:app", expected: "@acme/foo:app"},
		{name: "dashes and digits", input: "foo-2:my_app", expected: "foo-2:my_app"},
		{name: "empty", input: "", expectFail: true},
		{name: "missing segment after colon", input: "foo:", expectFail: true},
		{name: "missing scope slash", input: "@acme:app", expectFail: true},
		{name: "reserved character", input: "foo:a pp", expectFail: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ns, err := Parse(tc.input)
			if tc.expectFail {
				assert.NotNil(t, err)
				assert.ErrorIs(t, err, ErrInvalidNamespace)
				return
			}
			assert.Nil(t, err)
			assert.Equal(t, tc.expected, ns.String())
		})
	}
}

func TestFromPath(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		lookups  []string
		expected string
	}{
		{
			name:     "index collapses to parent",
			path:     "/pkgs/generator-foo/generators/app/index.js",
			expected: "foo:app",
		},
		{
			name:     "named entry keeps base name",
			path:     "/pkgs/generator-foo/generators/sub/cli.go",
			expected: "foo:sub:cli",
		},
		{
			name:     "nested lookup fragment wins last occurrence",
			path:     "/generators/generator-bar/lib/generators/app/index.js",
			lookups:  []string{"generators", "lib/generators"},
			expected: "bar:app",
		},
		{
			name:     "scoped package",
			path:     "/pkgs/@acme/generator-foo/generators/app/index.js",
			expected: "@acme/foo:app",
		},
		{
			name:     "no package prefix",
			path:     "/pkgs/foo/generators/app",
			expected: "foo:app",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ns, err := FromPath(tc.path, tc.lookups)
			assert.Nil(t, err, tc.name)
			assert.Equal(t, tc.expected, ns.String())
		})
	}
}

// Path derivation and identifier parsing are inverse for namespaces without
// reserved characters.
func TestFromPathRoundTrip(t *testing.T) {
	for _, canonical := range []string{"foo:app", "foo:sub:deep", "@acme/foo:app"} {
		ns, err := Parse(canonical)
		assert.Nil(t, err)

		location := "/pkgs/"
		if ns.Scope != "" {
			location += "@" + ns.Scope + "/"
		}
		location += DefaultPackagePrefix + ns.Package() + "/generators"
		for _, segment := range ns.Segments[1:] {
			location += "/" + segment
		}
		location += "/index.js"

		derived, err := FromPath(location, nil)
		assert.Nil(t, err)
		assert.Equal(t, canonical, derived.String())
	}
}

func TestFromPathNoLookup(t *testing.T) {
	_, err := FromPath("/somewhere/else/app", nil)
	assert.ErrorIs(t, err, ErrInvalidNamespace)
}
