package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyike/CortexReview/config"
	"github.com/dyike/CortexReview/consts"
	"github.com/dyike/CortexReview/internal/analysis"
	"github.com/dyike/CortexReview/internal/desk"
	"github.com/dyike/CortexReview/internal/imageload"
	"github.com/dyike/CortexReview/internal/journal"
	"github.com/dyike/CortexReview/internal/playbook"
	"github.com/dyike/CortexReview/models"
)

const rejectedReply = `{
  "isSetupValid": false,
  "verdict": "EXECUTION REJECTED",
  "setupType": "Range Fade",
  "confluenceScore": 3,
  "feedback": "Faded the range high straight into a news candle.",
  "pillars": {
    "strategy": "Range fade against a trending higher timeframe.",
    "risk": "Stop inside the range, 0.8R to target.",
    "psychology": "Entry looks impulsive after a prior loss."
  },
  "checklist": [
    {"item": "Higher-timeframe trend alignment", "checked": false},
    {"item": "Inside session window, clear of news", "checked": false}
  ]
}`

type stubProvider struct {
	reply []byte
	err   error
	calls int
}

func (p *stubProvider) Name() string  { return "stub" }
func (p *stubProvider) Model() string { return "stub-vision" }

func (p *stubProvider) Generate(ctx context.Context, req *analysis.Request) ([]byte, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return p.reply, nil
}

func writePNG(t *testing.T, dir string) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	path := filepath.Join(dir, "trade.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
	return path
}

func newTestApp(t *testing.T, provider analysis.Provider) (*App, *bytes.Buffer) {
	t.Helper()
	cfg := config.DefaultConfigWithRoot(t.TempDir())
	pb, err := playbook.Default()
	require.NoError(t, err)
	client, err := analysis.NewClient(provider, pb)
	require.NoError(t, err)

	out := &bytes.Buffer{}
	app := &App{
		opts:     &globalOptions{},
		out:      out,
		cfg:      cfg,
		playbook: pb,
		client:   client,
		loader:   imageload.NewLoader(cfg.MaxImageBytes()),
		desk:     desk.NewController(client),
	}
	return app, out
}

func TestActionsFor(t *testing.T) {
	assert.Equal(t, []deskAction{actionUpload, actionPlaybook, actionExit}, actionsFor(consts.State_Empty))
	assert.Contains(t, actionsFor(consts.State_ImageLoaded), actionEvaluate)
	assert.NotContains(t, actionsFor(consts.State_Empty), actionEvaluate)
	assert.NotContains(t, actionsFor(consts.State_AnalysisComplete), actionEvaluate)
	assert.Contains(t, actionsFor(consts.State_AnalysisComplete), actionReport)
}

func TestRunEvaluateCommandJSON(t *testing.T) {
	provider := &stubProvider{reply: []byte(rejectedReply)}
	app, out := newTestApp(t, provider)
	dir := t.TempDir()
	src := writePNG(t, dir)
	reportPath := filepath.Join(dir, "out", "review.md")

	err := runEvaluateCommand(context.Background(), app, src, true, reportPath)
	require.NoError(t, err)
	assert.Equal(t, 1, provider.calls)

	var result models.AnalysisResult
	require.NoError(t, json.NewDecoder(out).Decode(&result))
	assert.Equal(t, "EXECUTION REJECTED", result.Verdict)
	assert.Equal(t, 3, result.ConfluenceScore)
	assert.Equal(t, consts.State_AnalysisComplete, app.desk.State())

	md, err := os.ReadFile(reportPath)
	require.NoError(t, err)
	assert.Contains(t, string(md), "# Trade Review: EXECUTION REJECTED")
	assert.Contains(t, string(md), "## Checklist (0/2)")
}

func TestRunEvaluateCommandProviderFailure(t *testing.T) {
	provider := &stubProvider{err: errors.New("connection reset")}
	app, _ := newTestApp(t, provider)
	src := writePNG(t, t.TempDir())

	err := runEvaluateCommand(context.Background(), app, src, true, "")
	require.ErrorIs(t, err, analysis.ErrAnalysisFailed)
	assert.Equal(t, consts.State_ImageLoaded, app.desk.State())
	assert.True(t, app.desk.CanEvaluate())
}

func TestRunEvaluateCommandRejectsNonImage(t *testing.T) {
	provider := &stubProvider{reply: []byte(rejectedReply)}
	app, _ := newTestApp(t, provider)
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("just some text"), 0o644))

	err := runEvaluateCommand(context.Background(), app, path, true, "")
	require.ErrorIs(t, err, imageload.ErrNotImage)
	assert.Zero(t, provider.calls)
	assert.Equal(t, consts.State_Empty, app.desk.State())
}

func TestRunEvaluateCommandWithoutClient(t *testing.T) {
	app, _ := newTestApp(t, &stubProvider{})
	app.client = nil
	app.clientErr = config.ErrMissingAPIKey

	err := runEvaluateCommand(context.Background(), app, "unused.png", true, "")
	require.ErrorIs(t, err, config.ErrMissingAPIKey)
}

func TestShowHistory(t *testing.T) {
	app, out := newTestApp(t, &stubProvider{})
	store, err := journal.Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	defer store.Close()

	result, err := analysis.Decode([]byte(rejectedReply))
	require.NoError(t, err)
	img := &models.TradeImage{
		ID:        "img-1",
		Source:    "eurusd.png",
		MIMEType:  "image/png",
		Timestamp: time.Now(),
		Analysis:  result,
	}
	_, err = store.Append(context.Background(), img, "stub", "stub-vision")
	require.NoError(t, err)

	require.NoError(t, showHistory(context.Background(), app, store, models.HistoryParams{Limit: 20}))
	text := out.String()
	assert.Contains(t, text, "EXECUTION REJECTED")
	assert.Contains(t, text, "eurusd.png")
	assert.Contains(t, text, "1 evaluations")
	assert.NotContains(t, text, "--before")
}

func TestShowHistoryEmpty(t *testing.T) {
	app, out := newTestApp(t, &stubProvider{})
	store, err := journal.Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, showHistory(context.Background(), app, store, models.HistoryParams{Limit: 20}))
	assert.Contains(t, out.String(), "No journaled evaluations.")
}

func TestShowConfig(t *testing.T) {
	cfg := config.DefaultConfigWithRoot(t.TempDir())
	cfg.GeminiAPIKey = "secret-key"

	var out bytes.Buffer
	showConfig(&out, cfg, "/tmp/config.json")
	text := out.String()
	assert.Contains(t, text, "Config File:          /tmp/config.json")
	assert.Contains(t, text, "gemini-2.5-flash")
	assert.Contains(t, text, "(built-in MarScalper)")
	assert.Contains(t, text, "Gemini API:           ✅ Configured")
	assert.Contains(t, text, "OpenAI API:           ❌ Not configured")
	assert.NotContains(t, text, "secret-key")
}

func TestValidateConfig(t *testing.T) {
	cfg := config.DefaultConfigWithRoot(t.TempDir())

	var out bytes.Buffer
	err := validateConfig(&out, cfg, "MarScalper")
	require.ErrorIs(t, err, config.ErrMissingAPIKey)
	assert.Contains(t, out.String(), "💡 Tips:")

	cfg.GeminiAPIKey = "key"
	out.Reset()
	require.NoError(t, validateConfig(&out, cfg, "MarScalper"))
	assert.Contains(t, out.String(), "validation completed successfully")
}

func TestEvaluationModel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m := newEvaluationModel(nil, cancel)

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Nil(t, cmd)
	m = next.(evaluationModel)
	assert.True(t, m.cancelled)
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
	assert.Contains(t, m.View(), "cancelling")

	result := &models.AnalysisResult{Verdict: "EXECUTION APPROVED"}
	next, cmd = m.Update(evaluationDoneMsg{result: result})
	m = next.(evaluationModel)
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.True(t, m.done)
	assert.Same(t, result, m.result)
	assert.Empty(t, m.View())
}

func TestVersionCommand(t *testing.T) {
	cmd := NewRootCmd()
	cmd.SetArgs([]string{"version"})
	require.NoError(t, cmd.Execute())
}

func TestConfigPathCommand(t *testing.T) {
	cmd := NewRootCmd()
	cmd.SetArgs([]string{"config", "path", "--config", filepath.Join(t.TempDir(), "cfg.json")})
	require.NoError(t, cmd.Execute())
}

func TestNewAppRejectsInvalidEnvOverrides(t *testing.T) {
	cases := map[string]struct {
		key, value, msg string
	}{
		"image cap disabled": {"CORTEXREVIEW_MAX_IMAGE_MB", "0", "max image size"},
		"negative timeout":   {"CORTEXREVIEW_TIMEOUT", "-5", "timeout must not be negative"},
		"unknown provider":   {"CORTEXREVIEW_PROVIDER", "claude", "unknown analysis provider"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv(tc.key, tc.value)
			opts := &globalOptions{configPath: filepath.Join(t.TempDir(), "config.json")}

			app, err := newApp(context.Background(), opts)
			require.Error(t, err)
			assert.Nil(t, app)
			assert.ErrorContains(t, err, "invalid configuration")
			assert.ErrorContains(t, err, tc.msg)
		})
	}
}

func TestReloadKeepsConfigWhenEnvInvalid(t *testing.T) {
	opts := &globalOptions{configPath: filepath.Join(t.TempDir(), "config.json")}
	app, err := newApp(context.Background(), opts)
	require.NoError(t, err)
	defer app.Close()
	before := app.Config()

	t.Setenv("CORTEXREVIEW_MAX_IMAGE_MB", "0")
	app.reload(context.Background())

	assert.Same(t, before, app.Config())
	assert.Equal(t, int64(20)<<20, app.Config().MaxImageBytes())
}

func TestWriteReportReturnsWrittenMarkdown(t *testing.T) {
	app, out := newTestApp(t, &stubProvider{reply: []byte(rejectedReply)})
	src := writePNG(t, t.TempDir())
	require.NoError(t, runEvaluateCommand(context.Background(), app, src, true, ""))

	path := filepath.Join(t.TempDir(), "review.md")
	md, err := writeReport(app, path)
	require.NoError(t, err)

	written, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, md, string(written))
	assert.Contains(t, md, "**Playbook:** MarScalper")
	assert.Contains(t, out.String(), "Report written to "+path)

	app.desk.Reset()
	_, err = writeReport(app, filepath.Join(t.TempDir(), "empty.md"))
	assert.Error(t, err)
}

func TestConfigSetCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	cmd := NewRootCmd()
	cmd.SetArgs([]string{"config", "set", "max_image_mb", "12", "--config", path})
	require.NoError(t, cmd.Execute())

	mgr, err := config.NewManager(config.WithConfigPath(path))
	require.NoError(t, err)
	assert.Equal(t, 12, mgr.Get().MaxImageMB)

	bad := NewRootCmd()
	bad.SetArgs([]string{"config", "set", "colour", "blue", "--config", path})
	assert.ErrorIs(t, bad.Execute(), config.ErrUnknownSetting)
}

func TestShowEntry(t *testing.T) {
	app, out := newTestApp(t, &stubProvider{})
	store, err := journal.Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	defer store.Close()

	result, err := analysis.Decode([]byte(rejectedReply))
	require.NoError(t, err)
	entry, err := store.Append(context.Background(), &models.TradeImage{
		ID: "img-1", Source: "gbpjpy.png", Timestamp: time.Now(), Analysis: result,
	}, "stub", "stub-vision")
	require.NoError(t, err)

	require.NoError(t, showEntry(context.Background(), app, store, entry.RowID))
	assert.Contains(t, out.String(), "gbpjpy.png")
	assert.Contains(t, out.String(), "stub/stub-vision")
	assert.Contains(t, out.String(), "EXECUTION REJECTED")

	assert.ErrorIs(t, showEntry(context.Background(), app, store, entry.RowID+1), journal.ErrNotFound)
}
