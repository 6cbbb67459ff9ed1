package forge

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/afs"
	"gopkg.in/yaml.v3"
)

func TestConfigValidate(t *testing.T) {
	testCases := []struct {
		description string
		mutate      func(c *Config)
		hasError    bool
	}{
		{
			description: "defaults are valid",
			mutate:      func(c *Config) {},
		},
		{
			description: "empty phases",
			mutate:      func(c *Config) { c.Phases = nil },
			hasError:    true,
		},
		{
			description: "duplicate phase",
			mutate:      func(c *Config) { c.Phases = []string{"default", "default"} },
			hasError:    true,
		},
		{
			description: "unsupported event vendor",
			mutate:      func(c *Config) { c.Events.Vendor = "kafka" },
			hasError:    true,
		},
	}

	for _, testCase := range testCases {
		cfg := DefaultConfig()
		testCase.mutate(cfg)
		err := cfg.Validate()
		if testCase.hasError {
			assert.NotNil(t, err, testCase.description)
			continue
		}
		assert.Nil(t, err, testCase.description)
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	location := filepath.Join(dir, DefaultControlFile)
	data := `
policy:
  mode: force
commit:
  controlFiles:
    - .forge-rc.yaml
discovery:
  installOnMissing: true
generators:
  demo:app:
    name: svc
    tests: true
    port: 8080
`
	assert.Nil(t, os.WriteFile(location, []byte(data), 0o644))

	cfg, err := LoadConfig(context.Background(), afs.New(), location)
	assert.Nil(t, err)
	assert.Equal(t, "force", cfg.Policy.Mode)
	assert.True(t, cfg.Discovery.InstallOnMissing)

	args := cfg.Generators["demo:app"]
	assert.Equal(t, "svc", args["name"])
	assert.Equal(t, true, args["tests"])
	assert.Equal(t, 8080, args["port"])
}

func TestLoadConfigMissing(t *testing.T) {
	_, err := LoadConfig(context.Background(), afs.New(), filepath.Join(t.TempDir(), "absent.yaml"))
	assert.NotNil(t, err)
}

func TestUpdateControlFile(t *testing.T) {
	existing := []byte(`version: 1
generators:
  demo:app:
    name: old
  other:cli:
    verbose: true
`)
	updated, err := updateControlFile(existing, "demo:app", map[string]interface{}{"name": "svc", "port": 8080})
	assert.Nil(t, err)

	var parsed map[string]interface{}
	assert.Nil(t, yaml.Unmarshal(updated, &parsed))
	assert.Equal(t, 1, parsed["version"])
	generators, ok := parsed["generators"].(map[string]interface{})
	if !assert.True(t, ok) {
		return
	}
	assert.Equal(t, map[string]interface{}{"name": "svc", "port": 8080}, generators["demo:app"])
	assert.Equal(t, map[string]interface{}{"verbose": true}, generators["other:cli"])
}

func TestUpdateControlFileFresh(t *testing.T) {
	data, err := updateControlFile(nil, "demo:app", map[string]interface{}{"name": "svc"})
	assert.Nil(t, err)

	var parsed map[string]interface{}
	assert.Nil(t, yaml.Unmarshal(data, &parsed))
	generators, ok := parsed["generators"].(map[string]interface{})
	if !assert.True(t, ok) {
		return
	}
	assert.Equal(t, map[string]interface{}{"name": "svc"}, generators["demo:app"])
}
