//go:build mock

package main

import (
	"log/slog"

	"github.com/shazow/wifictl/wifi"
	"github.com/shazow/wifictl/wifi/mock"
)

func GetDriver(logger *slog.Logger) (wifi.Driver, error) {
	logger.Info("using mock driver")
	return mock.New()
}
