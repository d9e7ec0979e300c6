package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/dyike/CortexReview/config"
	"github.com/dyike/CortexReview/internal/analysis"
	"github.com/dyike/CortexReview/internal/desk"
	"github.com/dyike/CortexReview/internal/imageload"
	"github.com/dyike/CortexReview/internal/journal"
	"github.com/dyike/CortexReview/internal/logger"
	"github.com/dyike/CortexReview/internal/playbook"
)

type globalOptions struct {
	configPath string
	debug      bool
}

// App is everything a command needs, built from the effective config.
type App struct {
	opts    *globalOptions
	manager *config.Manager
	out     io.Writer

	mu        sync.RWMutex
	cfg       *config.Config
	playbook  *playbook.Playbook
	client    *analysis.Client
	clientErr error

	loader  *imageload.Loader
	desk    *desk.Controller
	journal *journal.Store
}

func newApp(ctx context.Context, opts *globalOptions) (*App, error) {
	manager, err := config.NewManager(config.WithConfigPath(opts.configPath))
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	a := &App{opts: opts, manager: manager, out: os.Stdout}
	cfg := a.effectiveConfig()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if err := logger.Init(cfg.LogLevel, cfg.LogFile); err != nil {
		return nil, err
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to create directories: %w", err)
	}
	if err := analysis.InitDebug(ctx, cfg); err != nil {
		logger.Log.Warnf("eino debug unavailable: %v", err)
	}

	pb, err := playbook.Load(cfg.PlaybookPath)
	if err != nil {
		return nil, err
	}

	a.cfg = cfg
	a.playbook = pb
	a.loader = imageload.NewLoader(cfg.MaxImageBytes())
	a.client, a.clientErr = newClient(ctx, cfg, pb)

	var deskOpts []desk.Option
	if cfg.JournalEnabled {
		store, err := journal.Open(cfg.JournalPath())
		if err != nil {
			return nil, err
		}
		a.journal = store
		deskOpts = append(deskOpts, desk.WithRecorder(journal.NewRecorder(store, a.providerNames)))
	}
	a.desk = desk.NewController(nil, deskOpts...)
	if a.client != nil {
		a.desk.SetAnalyzer(a.client)
	}
	return a, nil
}

func newClient(ctx context.Context, cfg *config.Config, pb *playbook.Playbook) (*analysis.Client, error) {
	provider, err := analysis.NewProvider(ctx, cfg, pb)
	if err != nil {
		return nil, err
	}
	return analysis.NewClient(provider, pb, analysis.WithTimeout(cfg.Timeout()))
}

func (a *App) effectiveConfig() *config.Config {
	cfg := a.manager.Effective()
	if a.opts.debug {
		cfg.Debug = true
		cfg.LogLevel = "debug"
	}
	return cfg
}

func (a *App) Config() *config.Config {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.cfg
}

// requireClient returns the analysis client or the reason it could not be
// built.
func (a *App) requireClient() (*analysis.Client, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.client == nil {
		return nil, a.clientErr
	}
	return a.client, nil
}

func (a *App) providerNames() (string, string) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.client == nil {
		return a.cfg.Provider, a.cfg.ModelName()
	}
	return a.client.Provider(), a.client.Model()
}

// watchConfig rebuilds the analysis client whenever the config file changes.
func (a *App) watchConfig(ctx context.Context) {
	err := a.manager.Watch(ctx, func(config.Config) {
		a.reload(ctx)
	})
	if err != nil {
		logger.Log.Warnf("config watch disabled: %v", err)
	}
}

func (a *App) reload(ctx context.Context) {
	cfg := a.effectiveConfig()
	if err := cfg.Validate(); err != nil {
		logger.Log.Errorf("config reload rejected, keeping previous: %v", err)
		return
	}
	pb, err := playbook.Load(cfg.PlaybookPath)
	if err != nil {
		logger.Log.Errorf("playbook reload failed, keeping previous: %v", err)
		return
	}
	client, clientErr := newClient(ctx, cfg, pb)

	a.mu.Lock()
	a.cfg = cfg
	a.playbook = pb
	a.client, a.clientErr = client, clientErr
	a.mu.Unlock()

	if client != nil {
		a.desk.SetAnalyzer(client)
		logger.Log.Infof("analysis client rebuilt: %s/%s", client.Provider(), client.Model())
	} else {
		a.desk.SetAnalyzer(nil)
		logger.Log.Warnf("analysis client unavailable after reload: %v", clientErr)
	}
}

func (a *App) Playbook() *playbook.Playbook {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.playbook
}

func (a *App) Close() error {
	return a.journal.Close()
}
