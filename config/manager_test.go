package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyike/CortexReview/consts"
)

func TestManagerCreatesAndUpdates(t *testing.T) {
	dir := t.TempDir()
	mgr, err := NewManager(WithConfigDir(dir))
	require.NoError(t, err)

	path := filepath.Join(dir, "config.json")
	_, err = os.Stat(path)
	require.NoError(t, err, "config file not created")
	assert.Equal(t, path, mgr.Path())
	assert.Equal(t, consts.Provider_Gemini, mgr.Get().Provider)

	err = mgr.UpdateFromJSON(`{"provider":"openai","model":"gpt-4o","max_image_mb":5,"analysis_timeout_sec":30}`)
	require.NoError(t, err)

	updated := mgr.Get()
	assert.Equal(t, consts.Provider_OpenAI, updated.Provider)
	assert.Equal(t, "gpt-4o", updated.Model)

	// a second manager on the same dir sees the persisted value
	again, err := NewManager(WithConfigDir(dir))
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", again.Get().Model)
}

func TestManagerRejectsInvalidUpdate(t *testing.T) {
	mgr, err := NewManager(WithConfigDir(t.TempDir()))
	require.NoError(t, err)

	err = mgr.UpdateFromJSON(`{"provider":"carrier-pigeon","max_image_mb":5}`)
	require.ErrorIs(t, err, ErrUnknownProvider)
	assert.Equal(t, consts.Provider_Gemini, mgr.Get().Provider)
}

func TestManagerInitialConfig(t *testing.T) {
	dir := t.TempDir()
	initial := DefaultConfigWithRoot(dir)
	initial.Provider = consts.Provider_OpenAI

	mgr, err := NewManager(WithConfigDir(dir), WithInitialConfig(initial))
	require.NoError(t, err)
	assert.Equal(t, consts.Provider_OpenAI, mgr.Get().Provider)
}

func TestManagerWatchReloads(t *testing.T) {
	dir := t.TempDir()
	mgr, err := NewManager(WithConfigDir(dir), WithDebounce(50*time.Millisecond))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan Config, 1)
	require.NoError(t, mgr.Watch(ctx, func(cfg Config) {
		select {
		case reloaded <- cfg:
		default:
		}
	}))

	cfg := mgr.Get()
	cfg.Model = "gemini-2.5-pro"
	require.NoError(t, writeConfigFile(mgr.Path(), cfg))

	select {
	case got := <-reloaded:
		assert.Equal(t, "gemini-2.5-pro", got.Model)
	case <-time.After(2 * time.Second):
		t.Fatalf("watcher did not fire on config change")
	}
	assert.Equal(t, "gemini-2.5-pro", mgr.Get().Model)
}

func TestManagerSet(t *testing.T) {
	dir := t.TempDir()
	mgr, err := NewManager(WithConfigDir(dir))
	require.NoError(t, err)

	require.NoError(t, mgr.Set("max_image_mb", "8"))
	require.NoError(t, mgr.Set("journal_enabled", "true"))
	require.NoError(t, mgr.Set("provider", "openai"))
	require.NoError(t, mgr.Set("openai_api_key", "sk-test"))

	cfg := mgr.Get()
	assert.Equal(t, 8, cfg.MaxImageMB)
	assert.True(t, cfg.JournalEnabled)
	assert.Equal(t, consts.Provider_OpenAI, cfg.Provider)
	assert.Equal(t, "sk-test", cfg.OpenAIAPIKey)
	assert.Equal(t, filepath.Join(dir, "data"), cfg.DataDir, "other settings are kept")

	again, err := NewManager(WithConfigDir(dir))
	require.NoError(t, err)
	assert.Equal(t, 8, again.Get().MaxImageMB)
}

func TestManagerSetRejects(t *testing.T) {
	mgr, err := NewManager(WithConfigDir(t.TempDir()))
	require.NoError(t, err)

	assert.ErrorIs(t, mgr.Set("colour", "blue"), ErrUnknownSetting)
	assert.Error(t, mgr.Set("journal_enabled", "maybe"))
	assert.Error(t, mgr.Set("max_image_mb", "0"), "validated before writing")
	assert.Error(t, mgr.Set("max_image_mb", "2.5"), "integer settings stay integers")
	assert.Equal(t, 20, mgr.Get().MaxImageMB)
}
