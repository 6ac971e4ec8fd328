package notifier

import (
	"context"
	"time"

	"github.com/shaiderdocker-droid/dayedge-scanner/internal/core"
)

// Config holds notifier configuration
type Config struct {
	Type   string         `mapstructure:"type"`
	Params map[string]any `mapstructure:"params"`
}

// Failure describes a scan that aborted without publishing results
type Failure struct {
	Trigger core.Trigger    `json:"trigger"`
	Date    string          `json:"date"`
	At      time.Time       `json:"at"`
	Error   *core.ErrorInfo `json:"error"`
}

// Notifier delivers scan outcomes to an external channel
type Notifier interface {
	// Name returns the unique identifier for this notifier
	Name() string

	// Init initializes the notifier with configuration
	Init(cfg Config) error

	// NotifyScan announces a completed scan
	NotifyScan(ctx context.Context, res *core.ScanResult) error

	// NotifyFailure announces a scan that aborted
	NotifyFailure(ctx context.Context, f Failure) error
}
