package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AarC10/GSW-Sync/lib/db"
	"github.com/AarC10/GSW-Sync/lib/logger"
	"github.com/AarC10/GSW-Sync/lib/stats"
	"github.com/AarC10/GSW-Sync/proc"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	configName   = flag.String("c", "sync_bench", "name of config file")
	scenarioPath = flag.String("scenarios", "", "scenario file, overrides scenario_config")
	loop         = flag.Bool("loop", false, "run scenarios continuously and publish samples")
	profilePort  = flag.Int("pprof", 0, "run pprof at a port")
	outputFormat outputFormatFlagValue
)

func init() {
	flag.Var(&outputFormat, "o", "output format: pretty, json, or a text/template over BenchOutput")
}

func initProfiling(pprofPort int) {
	go func() {
		logger.Info("Running pprof server", zap.Int("port", pprofPort))
		err := http.ListenAndServe(fmt.Sprintf("localhost:%d", pprofPort), nil)
		if err != nil {
			logger.Error("Error starting pprof server", zap.Error(err))
		}
	}()
}

func readConfig() *viper.Viper {
	config := viper.New()
	config.SetConfigName(*configName)
	config.SetConfigType("yaml")
	config.AddConfigPath("data/config/")
	config.SetEnvPrefix("GSW_SYNC")
	config.AutomaticEnv()

	config.SetDefault("scenario_config", "data/config/scenarios.yaml")
	config.SetDefault("shm_dir", "/dev/shm")
	config.SetDefault("database.type", "none")

	if err := config.ReadInConfig(); err != nil {
		logger.Warn("Error reading sync_bench config, using defaults", zap.Error(err))
	}
	return config
}

// dbInitialize creates the result sink named by database.type. It returns a
// nil handler when no sink is configured.
func dbInitialize(config *viper.Viper) (db.Handler, error) {
	cfg := db.Config{
		Host:          config.GetString("database.host"),
		Port:          config.GetInt("database.port"),
		URL:           config.GetString("database.url"),
		Token:         os.Getenv("INFLUXDB_TOKEN"),
		Org:           config.GetString("database.org"),
		Bucket:        config.GetString("database.bucket"),
		BatchSize:     config.GetUint("database.batch_size"),
		FlushInterval: config.GetUint("database.flush_interval"),
		Precision:     config.GetString("database.precision"),
	}

	var handler db.Handler
	switch kind := config.GetString("database.type"); kind {
	case "none", "":
		return nil, nil
	case "v1":
		handler = &db.InfluxDBV1Handler{}
	case "v2":
		if cfg.Token == "" {
			return nil, errors.New("INFLUXDB_TOKEN environment variable empty or not set")
		}
		handler = &db.InfluxDBV2Handler{}
	default:
		return nil, fmt.Errorf("unknown database type %q", kind)
	}

	if err := handler.Initialize(cfg); err != nil {
		return nil, fmt.Errorf("initializing database: %w", err)
	}
	return handler, nil
}

func runOnce(ctx context.Context, benchConfig *proc.Configuration) error {
	start := time.Now()
	results, err := proc.RunAll(ctx, benchConfig)
	if err != nil {
		return err
	}

	report, err := outputFormat.GenerateBenchOutput(newBenchOutput(benchConfig.Name, time.Since(start), results))
	if err != nil {
		return err
	}
	fmt.Println(report)
	return nil
}

func runContinuous(ctx context.Context, config *viper.Viper, benchConfig *proc.Configuration, configData []byte) error {
	shmDir := config.GetString("shm_dir")
	publisher := &proc.Publisher{Config: benchConfig}

	cleanupConfig, err := proc.WriteScenarioConfigToShm(shmDir, configData)
	if err != nil {
		logger.Warn("Scenario config will not be available to viewers", zap.Error(err))
	} else {
		defer cleanupConfig()
	}

	writer, err := proc.NewSampleWriter(shmDir)
	if err != nil {
		logger.Warn("Samples will not be published to shared memory", zap.Error(err))
	} else {
		defer writer.Cleanup()
		publisher.Writer = writer
	}

	handler, err := dbInitialize(config)
	if err != nil {
		logger.Warn("Samples will not be published to database", zap.Error(err))
	}
	if handler != nil {
		defer handler.Close()
		samples := make(chan stats.Sample, len(benchConfig.Scenarios))
		publisher.Outputs = append(publisher.Outputs, samples)
		go proc.DatabaseWriter(ctx, handler, benchConfig, samples)
	}

	logger.Info("Publishing samples", zap.String("config", benchConfig.Name), zap.Duration("interval", benchConfig.RunInterval()))
	err = publisher.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func main() {
	flag.Parse()
	logger.InitLogger()
	defer logger.Sync()

	if err := godotenv.Load(); err != nil {
		// Program can continue if env variables were set elsewhere
		logger.Debug("No .env file loaded", zap.Error(err))
	}

	if *profilePort != 0 {
		initProfiling(*profilePort)
	}

	config := readConfig()
	path := config.GetString("scenario_config")
	if *scenarioPath != "" {
		path = *scenarioPath
	}

	configData, err := os.ReadFile(path)
	if err != nil {
		logger.Fatal("Error reading scenario config", zap.String("path", path), zap.Error(err))
	}
	benchConfig, err := proc.ParseConfigBytes(configData)
	if err != nil {
		logger.Fatal("Error parsing scenario config", zap.String("path", path), zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *loop {
		err = runContinuous(ctx, config, benchConfig, configData)
	} else {
		err = runOnce(ctx, benchConfig)
	}
	if err != nil {
		logger.Error("Benchmark failed", zap.Error(err))
		stop()
		logger.Sync()
		os.Exit(1)
	}
}
