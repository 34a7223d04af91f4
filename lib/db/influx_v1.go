package db

import (
	"fmt"
	"net"

	"github.com/AarC10/GSW-Sync/lib/logger"
	"go.uber.org/zap"
)

// InfluxDBV1Handler writes line protocol to an InfluxDB v1 UDP listener
type InfluxDBV1Handler struct {
	conn *net.UDPConn
	addr string
}

// Initialize sets up the InfluxDB UDP connection
func (h *InfluxDBV1Handler) Initialize(cfg Config) error {
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == 0 {
		cfg.Port = 8089
	}
	h.addr = net.JoinHostPort(cfg.Host, fmt.Sprint(cfg.Port))

	addr, err := net.ResolveUDPAddr("udp", h.addr)
	if err != nil {
		return fmt.Errorf("resolving InfluxDB UDP address %s: %w", h.addr, err)
	}

	conn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		return fmt.Errorf("creating InfluxDB UDP client: %w", err)
	}

	h.conn = conn
	logger.Info("InfluxDB V1 UDP client initialized", zap.String("addr", h.addr))
	return nil
}

// CreateQuery Generates InfluxDB query for measurement group
func (h *InfluxDBV1Handler) CreateQuery(measurements MeasurementGroup) string {
	return CreateQuery(measurements)
}

// Insert sends the measurement group data to InfluxDB using UDP
func (h *InfluxDBV1Handler) Insert(measurements MeasurementGroup) error {
	if h.conn == nil {
		return fmt.Errorf("InfluxDB V1 handler is not initialized")
	}

	query := h.CreateQuery(measurements)
	if _, err := h.conn.Write([]byte(query)); err != nil {
		return fmt.Errorf("error sending data to InfluxDB over UDP: %w", err)
	}
	return nil
}

// Close closes the InfluxDB UDP client when done
func (h *InfluxDBV1Handler) Close() error {
	if h.conn == nil {
		return nil
	}
	if err := h.conn.Close(); err != nil {
		return fmt.Errorf("closing InfluxDB UDP client: %w", err)
	}
	return nil
}

var _ Handler = (*InfluxDBV1Handler)(nil)
