//go:build windows && !mock

package main

import (
	"log/slog"

	"github.com/shazow/wifictl/wifi"
	"github.com/shazow/wifictl/wifi/wlanapi"
)

func GetDriver(logger *slog.Logger) (wifi.Driver, error) {
	d, err := wlanapi.New(logger)
	if err != nil {
		return nil, err
	}
	return d, nil
}
