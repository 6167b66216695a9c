package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lawdesk/internal/core/config"
)

func testLoader(t *testing.T) loadFunc {
	dsn := "file:" + filepath.Join(t.TempDir(), "admin.db") + "?_busy_timeout=5000"
	return func(string) (*config.Config, error) {
		return &config.Config{
			App:   config.App{Name: "lawdesk", Env: "test"},
			Log:   config.Log{Level: "error"},
			JWT:   config.JWT{Secret: "s", Issuer: "lawdesk", AccessTokenTTLMin: 5},
			DB:    config.DB{Driver: "sqlite", DSN: dsn, AutoMigrate: true, LogLevel: "silent"},
			Cache: config.Cache{Driver: "none"},
		}, nil
	}
}

func run(t *testing.T, load loadFunc, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd(load)
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestCreateAdminAndRecount(t *testing.T) {
	load := testLoader(t)

	out, err := run(t, load, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "migrated")

	out, err = run(t, load, "create-admin", "--email", "root@firm.io", "--password", "Adm1n!pass", "--name", "Root")
	require.NoError(t, err, out)
	var created struct {
		Success bool `json:"success"`
		Data    struct {
			ID   string `json:"id"`
			Role string `json:"role"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &created))
	assert.True(t, created.Success)
	assert.Equal(t, "admin", created.Data.Role)

	// 密码不满足策略
	out, err = run(t, load, "create-admin", "--email", "weak@firm.io", "--password", "weak")
	require.Error(t, err)
	assert.Contains(t, out, "password")

	out, err = run(t, load, "recount")
	require.NoError(t, err, out)
	assert.Contains(t, out, `"updated": 1`)

	out, err = run(t, load, "recount", "--lawyer", created.Data.ID)
	require.NoError(t, err, out)
	assert.Contains(t, out, `"caseCount": 0`)
}
