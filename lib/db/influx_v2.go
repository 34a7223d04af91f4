package db

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/AarC10/GSW-Sync/lib/logger"
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"go.uber.org/zap"
)

// InfluxDBV2Handler is a BatchHandler implementation for InfluxDB v2
type InfluxDBV2Handler struct {
	client   influxdb2.Client
	writeAPI api.WriteAPI
	org      string
	bucket   string
	cfg      Config
}

// Initialize fills in defaults and sets up the InfluxDB v2 client.
// A Config with only Host/Port gets an http URL built from them.
func (handler *InfluxDBV2Handler) Initialize(cfg Config) error {
	if cfg.URL == "" {
		host := cfg.Host
		if host == "" {
			host = "localhost"
		}
		port := cfg.Port
		if port == 0 {
			port = 8086
		}
		cfg.URL = fmt.Sprintf("http://%s:%d", host, port)
	}
	if cfg.Org == "" {
		cfg.Org = "gsw"
	}
	if cfg.Bucket == "" {
		cfg.Bucket = "gsw_sync"
	}
	return handler.InitializeWithConfig(cfg)
}

// InitializeWithConfig sets up the InfluxDB v2 client with full config
func (handler *InfluxDBV2Handler) InitializeWithConfig(cfg Config) error {
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 100
	}
	if cfg.FlushInterval == 0 {
		cfg.FlushInterval = 1000
	}
	if cfg.Precision == "" {
		cfg.Precision = "ns"
	}

	handler.cfg = cfg
	handler.org = cfg.Org
	handler.bucket = cfg.Bucket

	options := influxdb2.DefaultOptions().
		SetBatchSize(cfg.BatchSize).
		SetFlushInterval(cfg.FlushInterval).
		SetPrecision(precision(cfg.Precision))

	handler.client = influxdb2.NewClientWithOptions(cfg.URL, cfg.Token, options)
	handler.writeAPI = handler.client.WriteAPI(cfg.Org, cfg.Bucket)

	// error reporter because that'll totally never happen
	go func() {
		for err := range handler.writeAPI.Errors() {
			logger.Error("InfluxDB V2 async write error", zap.Error(err))
		}
	}()

	logger.Info("InfluxDB V2 client initialized",
		zap.String("url", cfg.URL),
		zap.String("org", cfg.Org),
		zap.String("bucket", cfg.Bucket),
		zap.Uint("batchSize", cfg.BatchSize),
		zap.Uint("flushInterval", cfg.FlushInterval),
	)
	return nil
}

// CreateQuery generates InfluxDB line protocol for a MeasurementGroup.
// Reuses the same logic as V1 for consistency.
func (handler *InfluxDBV2Handler) CreateQuery(measurements MeasurementGroup) string {
	return CreateQuery(measurements)
}

// Insert writes a MeasurementGroup to InfluxDB v2 as a single point.
// The write is buffered and flushed based on batch size and flush interval.
func (handler *InfluxDBV2Handler) Insert(measurements MeasurementGroup) error {
	handler.writeAPI.WritePoint(newPoint(measurements))
	return nil
}

// InsertBatch writes multiple MeasurementGroups in one shot and flushes.
func (handler *InfluxDBV2Handler) InsertBatch(batch []MeasurementGroup) error {
	for _, measurementGroup := range batch {
		if err := handler.Insert(measurementGroup); err != nil {
			return err
		}
	}
	return handler.Flush()
}

// Flush forces all buffered points to be sent immediately.
func (handler *InfluxDBV2Handler) Flush() error {
	handler.writeAPI.Flush()
	return nil
}

// Close flushes pending writes and closes the client.
func (handler *InfluxDBV2Handler) Close() error {
	handler.writeAPI.Flush()
	handler.client.Close()
	return nil
}

// BlockingInsert writes a point using the blocking write API.
func (handler *InfluxDBV2Handler) BlockingInsert(ctx context.Context, measurements MeasurementGroup) error {
	blockingAPI := handler.client.WriteAPIBlocking(handler.org, handler.bucket)
	return blockingAPI.WritePoint(ctx, newPoint(measurements))
}

// newPoint converts a MeasurementGroup into a client point. Numeric values
// become numeric fields and anything else is written as a string field.
func newPoint(measurements MeasurementGroup) *write.Point {
	point := influxdb2.NewPointWithMeasurement(measurements.DatabaseName)

	var timestamp time.Time
	if measurements.Timestamp != 0 {
		timestamp = time.Unix(0, measurements.Timestamp)
	} else {
		timestamp = time.Now()
	}
	point.SetTime(timestamp)

	for key, value := range measurements.Tags {
		point.AddTag(key, value)
	}

	for _, measurement := range measurements.Measurements {
		if intVal, err := strconv.ParseInt(measurement.Value, 10, 64); err == nil {
			point.AddField(measurement.Name, intVal)
		} else if floatVal, err := strconv.ParseFloat(measurement.Value, 64); err == nil {
			point.AddField(measurement.Name, floatVal)
		} else {
			point.AddField(measurement.Name, measurement.Value)
		}
	}
	return point
}

func precision(p string) time.Duration {
	switch p {
	case "s":
		return time.Second
	case "ms":
		return time.Millisecond
	case "us":
		return time.Microsecond
	default:
		return time.Nanosecond
	}
}

// Ensure InfluxDBV2Handler satisfies BatchHandler at compile time.
var _ BatchHandler = (*InfluxDBV2Handler)(nil)
