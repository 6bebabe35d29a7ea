//go:build !windows && !mock

package main

import (
	"fmt"
	"log/slog"
	"runtime"

	"github.com/shazow/wifictl/wifi"
)

// GetDriver returns an error on platforms without a native driver. Build with
// -tags mock to try the CLI anywhere.
func GetDriver(logger *slog.Logger) (wifi.Driver, error) {
	return nil, fmt.Errorf("unsupported operating system %s: %w", runtime.GOOS, wifi.ErrNoWifi)
}
