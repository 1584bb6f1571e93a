package server

import (
	"log/slog"

	internalserver "github.com/SmitUplenchwar2687/rewind/internal/server"
	"github.com/SmitUplenchwar2687/rewind/pkg/clock"
)

// Server is a local stand-in for the shop API that accepts replayed events.
type Server = internalserver.Server

// Options configures optional server features.
type Options = internalserver.Options

// Stats is the per event type, per status count reported by GET /stats.
type Stats = internalserver.Stats

// Hub manages WebSocket clients and broadcasts received events.
type Hub = internalserver.Hub

// Statuses counted per event type.
const (
	StatusAccepted    = internalserver.StatusAccepted
	StatusRateLimited = internalserver.StatusRateLimited
	StatusInvalid     = internalserver.StatusInvalid
)

// DashboardHTML is the embedded single-page dashboard.
const DashboardHTML = internalserver.DashboardHTML

// New creates a new target server.
func New(addr string, clk clock.Clock, opts Options) *Server {
	return internalserver.New(addr, clk, opts)
}

// NewHub creates a new WebSocket hub. A nil logger discards hub logs.
func NewHub(logger *slog.Logger) *Hub {
	return internalserver.NewHub(logger)
}
