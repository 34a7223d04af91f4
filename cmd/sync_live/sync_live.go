package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/AarC10/GSW-Sync/lib/db"
	"github.com/AarC10/GSW-Sync/lib/ipc"
	"github.com/AarC10/GSW-Sync/lib/logger"
	"github.com/AarC10/GSW-Sync/lib/stats"
	"github.com/AarC10/GSW-Sync/proc"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var configFilepath = flag.String("c", "sync_live", "name of config file")

func readConfig() (*viper.Viper, error) {
	liveConfig := viper.New()
	liveConfig.SetConfigName(*configFilepath)
	liveConfig.SetConfigType("yaml")
	liveConfig.AddConfigPath("data/config/")
	liveConfig.SetDefault("shm_dir", "/dev/shm")
	liveConfig.SetDefault("channel_path", "futex_bench")
	if err := liveConfig.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading Grafana Live config: %w", err)
	}
	if liveConfig.GetString("live_addr") == "" {
		return nil, errors.New("live_addr is not set in Grafana Live config")
	}
	return liveConfig, nil
}

// streamSamples forwards every sample read from reader to Grafana Live as
// line protocol until ctx is done.
func streamSamples(ctx context.Context, reader ipc.Reader, stream *liveStream, channelPath string, names map[uint32]string) error {
	for {
		message, err := reader.Read(ctx)
		if err != nil {
			return err
		}
		sample, err := stats.DecodeSample(message.Data())
		if err != nil {
			logger.Error("Error decoding sample", zap.Error(err))
			continue
		}

		query := db.CreateQuery(proc.MeasurementGroup(channelPath, names, sample))
		if err := stream.send(ctx, query); err != nil {
			return fmt.Errorf("streaming sample: %w", err)
		}
	}
}

func main() {
	flag.Parse()
	logger.InitLogger()
	defer logger.Sync()

	if err := godotenv.Load(); err != nil {
		// Program can continue if env variable was set elsewhere
		logger.Debug("No .env file loaded", zap.Error(err))
	}
	authToken := os.Getenv("GRAFANA_LIVE_TOKEN")
	if authToken == "" {
		logger.Error("GRAFANA_LIVE_TOKEN environment variable empty or not set")
		return
	}

	liveConfig, err := readConfig()
	if err != nil {
		logger.Error("Error reading config files", zap.Error(err))
		return
	}
	shmDir := liveConfig.GetString("shm_dir")

	names := map[uint32]string{}
	if config, err := proc.ReadScenarioConfigFromShm(shmDir); err != nil {
		logger.Warn("Scenario config not found in shared memory, tagging samples by ID", zap.Error(err))
	} else {
		names = config.ScenarioNames()
	}

	reader, err := proc.NewSampleReader(shmDir)
	if err != nil {
		logger.Error("*** Error accessing sample ring. Make sure sync_bench is running with -loop. ***", zap.Error(err))
		return
	}
	defer reader.Cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stream := newLiveStream(liveConfig.GetString("live_addr"), authToken)
	defer stream.close()

	logger.Info("Starting Grafana Live streaming", zap.String("addr", liveConfig.GetString("live_addr")))
	err = streamSamples(ctx, reader, stream, liveConfig.GetString("channel_path"), names)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Grafana Live streaming stopped", zap.Error(err))
		return
	}
	logger.Info("Shutting down Grafana Live streaming")
}
