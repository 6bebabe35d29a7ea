package main

import (
	"fmt"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/shazow/wifictl/wifi"
)

// renderQRCode encodes the profile's join string as a terminal-friendly QR
// code. The key is only included when the profile was read in plaintext.
func renderQRCode(p *wifi.Profile) (string, error) {
	if p.SharedKey != nil && p.SharedKey.Protected {
		return "", fmt.Errorf("profile %q has a protected key, read it with -plaintext: %w", p.Name, wifi.ErrNotAvailable)
	}
	q, err := qrcode.New(p.QRCodeString(), qrcode.Medium)
	if err != nil {
		return "", err
	}
	return q.ToSmallString(false), nil
}
