package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFrom(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `
server:
  host: 0.0.0.0
  port: 8080
  mode: release
mongo:
  uri: mongodb://localhost:27017
  database: clinic
postgres:
  host: localhost
  port: 5432
  user: clinic
  name: clinic
  sslmode: disable
face_recognition:
  python_bin: python3
  script_path: ./scripts/auth_face_helper.py
  threshold: 0.6
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := LoadFrom(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "mongodb://localhost:27017", cfg.Mongo.URI)
	assert.Equal(t, "clinic", cfg.Mongo.Database)
	assert.Equal(t, 5432, cfg.Postgres.Port)
	assert.Equal(t, 0.6, cfg.FaceRecognition.Threshold)
	assert.False(t, cfg.Server.TLS.Enabled)
}

func TestLoadFromMissingFile(t *testing.T) {
	_, err := LoadFrom(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
