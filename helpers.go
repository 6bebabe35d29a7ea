package main

import (
	"fmt"
	"net"
	"strings"
)

// signalBars renders a 0-100 signal quality as four bars, like "▂▄▆_".
func signalBars(quality uint32) string {
	bars := []string{"▂", "▄", "▆", "█"}
	var b strings.Builder
	for i, bar := range bars {
		// 1-25 lights one bar, 76-100 lights all four.
		if quality > uint32(i*25) {
			b.WriteString(bar)
		} else {
			b.WriteString("_")
		}
	}
	return b.String()
}

// formatMAC formats a BSSID the way the rest of the system prints hardware
// addresses.
func formatMAC(mac [6]byte) string {
	return net.HardwareAddr(mac[:]).String()
}

// formatRate takes a link rate in kbps and returns a string like "866.7 Mbps".
func formatRate(kbps uint32) string {
	switch {
	case kbps >= 1000:
		return fmt.Sprintf("%0.1f Mbps", float64(kbps)/1000)
	default:
		return fmt.Sprintf("%d kbps", kbps)
	}
}
