package proc

import (
	"context"
	"fmt"

	"github.com/AarC10/GSW-Sync/lib/db"
	"github.com/AarC10/GSW-Sync/lib/logger"
	"github.com/AarC10/GSW-Sync/lib/stats"
	"go.uber.org/zap"
)

// DatabaseWriter writes benchmark samples to the database
// It reads samples from the channel until ctx is done or the channel closes.
func DatabaseWriter(ctx context.Context, handler db.Handler, config *Configuration, channel <-chan stats.Sample) {
	log := logger.Log().Named("database").With(zap.String("measurement", config.Measurement))
	names := config.ScenarioNames()
	log.Info("Started database writer")

	for {
		select {
		case <-ctx.Done():
			log.Info("database writer shutting down")
			return
		case sample, ok := <-channel:
			if !ok {
				return
			}
			if err := handler.Insert(MeasurementGroup(config.Measurement, names, sample)); err != nil {
				log.Error("couldn't insert measurement group", zap.Error(err))
			}
		}
	}
}

// MeasurementGroup converts a sample into a point tagged with its scenario
// name. Samples from unknown scenarios are tagged with their numeric ID.
func MeasurementGroup(measurement string, names map[uint32]string, sample stats.Sample) db.MeasurementGroup {
	name, ok := names[sample.ScenarioID]
	if !ok {
		name = fmt.Sprintf("%08x", sample.ScenarioID)
	}
	return db.FromSample(measurement, name, sample)
}
