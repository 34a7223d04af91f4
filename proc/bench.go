package proc

import (
	"context"
	"fmt"
	"time"

	"github.com/AarC10/GSW-Sync/lib/ipc"
	"github.com/AarC10/GSW-Sync/lib/logger"
	"github.com/AarC10/GSW-Sync/lib/stats"
	"go.uber.org/zap"
)

// RunAll runs every scenario in config in order. On failure it returns the
// results gathered so far along with the error.
func RunAll(ctx context.Context, config *Configuration) ([]Result, error) {
	results := make([]Result, 0, len(config.Scenarios))
	for _, scenario := range config.Scenarios {
		result, err := Run(ctx, scenario)
		if err != nil {
			return results, err
		}
		results = append(results, result)
	}
	return results, nil
}

// Publisher runs the configured scenarios repeatedly and fans each
// resulting sample out to the SHM ring and any sample channels.
type Publisher struct {
	Config  *Configuration
	Writer  ipc.Writer            // optional
	Outputs []chan<- stats.Sample // optional, never blocked on
}

// Run loops until ctx is done, pausing Config.RunInterval() between passes.
func (p *Publisher) Run(ctx context.Context) error {
	log := logger.Log().Named("publisher").With(zap.String("config", p.Config.Name))
	ticker := time.NewTicker(max(p.Config.RunInterval(), time.Millisecond))
	defer ticker.Stop()

	for pass := 1; ; pass++ {
		results, err := RunAll(ctx, p.Config)
		for _, result := range results {
			p.publish(log, result.Sample())
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("pass %d: %w", pass, err)
		}
		log.Debug("pass complete", zap.Int("pass", pass), zap.Int("scenarios", len(results)))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (p *Publisher) publish(log *zap.Logger, sample stats.Sample) {
	if p.Writer != nil {
		if err := p.Writer.Write(sample.Encode()); err != nil {
			log.Error("error writing sample to shared memory", zap.Error(err))
		}
	}
	for _, out := range p.Outputs {
		select {
		case out <- sample:
		default:
			log.Warn("sample output full, dropping sample", zap.Uint32("scenarioId", sample.ScenarioID))
		}
	}
}
