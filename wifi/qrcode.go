package wifi

import "strings"

var wifiStringEscaper = strings.NewReplacer(
	`\`, `\\`,
	`;`, `\;`,
	`,`, `\,`,
	`:`, `\:`,
	`"`, `\"`,
)

// EscapeWifiString handles the special character escaping for SSID and Password.
func EscapeWifiString(s string) string {
	return wifiStringEscaper.Replace(s)
}

// QRCodeString builds the Wi-Fi network configuration string that phones
// understand when it is encoded as a QR code.
func (p *Profile) QRCodeString() string {
	var b strings.Builder

	b.WriteString("WIFI:S:")
	b.WriteString(EscapeWifiString(p.SSID().String()))
	b.WriteString(";")

	switch {
	case p.UseOneX:
		// Enterprise networks have no shared secret to hand out.
	case strings.EqualFold(p.Encryption, "none") || p.SharedKey == nil:
		b.WriteString("T:nopass;")
	case strings.EqualFold(p.Encryption, "WEP"):
		b.WriteString("T:WEP;P:")
		b.WriteString(EscapeWifiString(p.Key()))
		b.WriteString(";")
	default:
		b.WriteString("T:WPA;P:")
		b.WriteString(EscapeWifiString(p.Key()))
		b.WriteString(";")
	}

	if p.NonBroadcast {
		b.WriteString("H:true;")
	}

	b.WriteString(";")
	return b.String()
}
