package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var logger = zap.Must(zap.NewDevelopment()).WithOptions(zap.AddCallerSkip(1)).Named("gsw-sync")

// Config locations searched by InitLogger.
const (
	configName = "logger"
	configPath = "data/config"
	envPrefix  = "GSW_SYNC_LOGGER"
)

// InitLogger configures the package logger from data/config/logger.yaml.
// GSW_SYNC_LOGGER_* environment variables override file values. If the file
// is missing or invalid the development logger stays in place.
func InitLogger() {
	cfg, err := loadLoggerConfig(configPath)
	if err != nil {
		logger.Warn("couldn't load logging config, using default logger", zap.Error(err))
		return
	}
	if err := initFromConfig(cfg); err != nil {
		logger.Warn("invalid logging config, using default logger", zap.Error(err))
	}
}

func initFromConfig(cfg *viper.Viper) error {
	outputPaths, err := resolveOutputPaths(cfg.GetStringSlice("OutputPaths"), time.Now())
	if err != nil {
		return fmt.Errorf("resolving output paths: %w", err)
	}

	level, err := zap.ParseAtomicLevel(cfg.GetString("level"))
	if err != nil {
		logger.Warn("failed to parse log level, using INFO level", zap.Error(err))
		level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}

	encoderConfig, err := buildEncoderConfig(cfg)
	if err != nil {
		return fmt.Errorf("building encoder config: %w", err)
	}

	loggerConfig := zap.Config{
		Level:            level,
		Development:      false,
		Encoding:         cfg.GetString("encoding"),
		OutputPaths:      outputPaths,
		ErrorOutputPaths: outputPaths,
		EncoderConfig:    encoderConfig,
	}

	built, err := loggerConfig.Build(zap.AddCaller(), zap.AddCallerSkip(1))
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	logger = built.Named("gsw-sync")
	return nil
}

// loadLoggerConfig reads logger.yaml from dir.
func loadLoggerConfig(dir string) (*viper.Viper, error) {
	cfg := viper.New()
	cfg.SetConfigType("yaml")
	cfg.SetConfigName(configName)
	cfg.AddConfigPath(dir)
	cfg.SetEnvPrefix(envPrefix)
	cfg.AutomaticEnv()
	if err := cfg.BindEnv("OutputPaths", envPrefix+"_OUTPUT_PATHS"); err != nil {
		return nil, err
	}

	cfg.SetDefault("level", "info")
	cfg.SetDefault("encoding", "console")
	cfg.SetDefault("OutputPaths", []string{"stderr"})

	if err := cfg.ReadInConfig(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// resolveOutputPaths turns every directory entry into a fresh session log
// file inside that directory. stdout and stderr pass through.
func resolveOutputPaths(paths []string, now time.Time) ([]string, error) {
	resolved := make([]string, 0, len(paths))
	for _, path := range paths {
		if path == "stdout" || path == "stderr" {
			resolved = append(resolved, path)
			continue
		}

		if err := os.MkdirAll(path, 0755); err != nil {
			return nil, fmt.Errorf("creating log directory: %w", err)
		}

		baseName := filepath.Join(path, fmt.Sprintf("gsw_sync_log-%s.log", now.Format("2006-01-02 15-04-05")))
		totalPath := baseName
		for num := 1; ; num++ {
			if _, err := os.Stat(totalPath); os.IsNotExist(err) {
				break
			}
			totalPath = fmt.Sprintf("%s.%d", baseName, num)
		}

		file, err := os.Create(totalPath)
		if err != nil {
			return nil, fmt.Errorf("creating log file: %w", err)
		}
		file.Close()

		resolved = append(resolved, totalPath)
	}
	return resolved, nil
}

var (
	levelEncoders = map[string]zapcore.LevelEncoder{
		"capital":        zapcore.CapitalLevelEncoder,
		"capitalColor":   zapcore.CapitalColorLevelEncoder,
		"lowercase":      zapcore.LowercaseLevelEncoder,
		"lowercaseColor": zapcore.LowercaseColorLevelEncoder,
	}
	timeEncoders = map[string]zapcore.TimeEncoder{
		"iso8601": zapcore.ISO8601TimeEncoder,
		"millis":  zapcore.EpochMillisTimeEncoder,
		"nanos":   zapcore.EpochNanosTimeEncoder,
		"epoch":   zapcore.EpochTimeEncoder,
	}
	durationEncoders = map[string]zapcore.DurationEncoder{
		"seconds": zapcore.SecondsDurationEncoder,
		"nanos":   zapcore.NanosDurationEncoder,
		"string":  zapcore.StringDurationEncoder,
	}
	callerEncoders = map[string]zapcore.CallerEncoder{
		"short": zapcore.ShortCallerEncoder,
		"full":  zapcore.FullCallerEncoder,
	}
)

// lookupEncoder finds name in encoders, naming the valid choices on failure.
func lookupEncoder[E any](kind string, encoders map[string]E, name string) (E, error) {
	if encoder, ok := encoders[name]; ok {
		return encoder, nil
	}
	choices := make([]string, 0, len(encoders))
	for choice := range encoders {
		choices = append(choices, choice)
	}
	sort.Strings(choices)
	var zero E
	return zero, fmt.Errorf("unsupported %s: %q (one of %v)", kind, name, choices)
}

// buildEncoderConfig builds the zap encoder config from the encoderConfig
// section.
func buildEncoderConfig(cfg *viper.Viper) (zapcore.EncoderConfig, error) {
	encCfg := zapcore.EncoderConfig{
		MessageKey:    cfg.GetString("encoderConfig.messageKey"),
		LevelKey:      cfg.GetString("encoderConfig.levelKey"),
		TimeKey:       cfg.GetString("encoderConfig.timeKey"),
		NameKey:       cfg.GetString("encoderConfig.nameKey"),
		CallerKey:     cfg.GetString("encoderConfig.callerKey"),
		StacktraceKey: cfg.GetString("encoderConfig.stacktraceKey"),
		LineEnding:    zapcore.DefaultLineEnding,
	}

	var err error
	if encCfg.EncodeLevel, err = lookupEncoder("levelEncoder", levelEncoders, cfg.GetString("encoderConfig.levelEncoder")); err != nil {
		return encCfg, err
	}
	if encCfg.EncodeTime, err = lookupEncoder("timeEncoder", timeEncoders, cfg.GetString("encoderConfig.timeEncoder")); err != nil {
		return encCfg, err
	}
	if encCfg.EncodeDuration, err = lookupEncoder("durationEncoder", durationEncoders, cfg.GetString("encoderConfig.durationEncoder")); err != nil {
		return encCfg, err
	}
	if encCfg.EncodeCaller, err = lookupEncoder("callerEncoder", callerEncoders, cfg.GetString("encoderConfig.callerEncoder")); err != nil {
		return encCfg, err
	}
	return encCfg, nil
}

// Info logs an info message
func Info(message string, fields ...zap.Field) {
	logger.Info(message, fields...)
}

// Warn logs a warning message
func Warn(message string, fields ...zap.Field) {
	logger.Warn(message, fields...)
}

// Debug logs a debug message
func Debug(message string, fields ...zap.Field) {
	logger.Debug(message, fields...)
}

// Fatal logs a fatal message and exits
func Fatal(message string, fields ...zap.Field) {
	logger.Fatal(message, fields...)
}

// Error logs an error message
func Error(message string, fields ...zap.Field) {
	logger.Error(message, fields...)
}

// Panic logs a message and panics
func Panic(message string, fields ...zap.Field) {
	logger.Panic(message, fields...)
}

// Log retrieves the underlying zap logger
func Log() *zap.Logger {
	return logger.WithOptions(zap.AddCallerSkip(-1))
}

// Sync flushes buffered log entries.
func Sync() error {
	return logger.Sync()
}
