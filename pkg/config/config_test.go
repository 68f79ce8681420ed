package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
client:
  transport: stdio
  launch: "cabal new-exec --verbose=0 cryptol-remote-api"
  directory: /srv/modules
  module: Foo.cry
  call_timeout: 30s
server:
  transport: tcp
  address: 127.0.0.1:8080
  write_timeout: 10s
  max_connections: 16
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, TransportStdio, cfg.Client.Transport)
	assert.Equal(t, "cabal new-exec --verbose=0 cryptol-remote-api", cfg.Client.Launch)
	assert.Equal(t, 30*time.Second, cfg.Client.CallTimeout.Duration)
	assert.Equal(t, "127.0.0.1:8080", cfg.Server.Address)
	assert.Equal(t, 16, cfg.Server.MaxConnections)
}

func TestLoadBadDuration(t *testing.T) {
	path := writeConfig(t, `
client:
  transport: tcp
  address: 127.0.0.1:8080
  call_timeout: soon
`)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
		ok   bool
	}{
		{"stdio without launch", Config{Client: ClientConfig{Transport: TransportStdio}}, false},
		{"tcp without address", Config{Client: ClientConfig{Transport: TransportTCP}}, false},
		{"ws with url", Config{Client: ClientConfig{Transport: TransportWS, Address: "ws://localhost:1234"}}, true},
		{"unknown transport", Config{Client: ClientConfig{Transport: "carrier-pigeon"}}, false},
		{"empty defaults", Config{}, true},
	}

	for _, tc := range cases {
		err := tc.cfg.Validate()
		if tc.ok {
			assert.NoError(t, err, tc.name)
		} else {
			assert.Error(t, err, tc.name)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
