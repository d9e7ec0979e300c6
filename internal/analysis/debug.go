package analysis

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/devops"

	"github.com/dyike/CortexReview/config"
	"github.com/dyike/CortexReview/internal/logger"
)

// InitDebug starts the eino visual debug server so the evaluation chain can
// be inspected. It is a no-op unless enabled in config.
func InitDebug(ctx context.Context, cfg *config.Config) error {
	if !cfg.EinoDebugEnabled {
		return nil
	}
	logger.Log.Infof("initializing eino debug plugin on port %d", cfg.EinoDebugPort)
	if err := devops.Init(ctx); err != nil {
		return fmt.Errorf("failed to initialize eino debug plugin: %w", err)
	}
	logger.Log.Infof("eino debug server at http://localhost:%d", cfg.EinoDebugPort)
	return nil
}
