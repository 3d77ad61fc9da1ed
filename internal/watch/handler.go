package watch

import (
	"context"

	"go.uber.org/zap"

	"github.com/klytics/conokit/internal/config"
	"github.com/klytics/conokit/internal/discover"
	"github.com/klytics/conokit/internal/generate"
)

// Generate returns a Handler that regenerates the charts for the Cono's latest workbook,
// which is not necessarily the file that triggered the event.
func Generate(cfg *config.Config, logger *zap.Logger, opts generate.RunOptions) Handler {
	return func(ctx context.Context, cono discover.Cono, _ string) error {
		f, err := discover.Latest(cono.Dir, generate.DiscoveryOptions(cfg))
		if err != nil {
			return err
		}
		_, err = generate.Run(ctx, generate.Job{Cono: cono.Name, Source: *f}, cfg, logger, opts)
		return err
	}
}
