package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/shazow/wifictl/wifi"
	"github.com/shazow/wifictl/wifi/profilecache"
)

// scanWait bounds how long list -scan waits for fresh results.
var scanWait = 4 * time.Second

// selectInterfaces returns the interfaces matching selector, which is an
// interface GUID or description. An empty selector matches every interface.
func selectInterfaces(c *wifi.Client, selector string) ([]*wifi.Interface, error) {
	ifaces, err := c.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("failed to list interfaces: %w", err)
	}
	if len(ifaces) == 0 {
		return nil, fmt.Errorf("no wireless interfaces: %w", wifi.ErrNotAvailable)
	}
	if selector == "" {
		return ifaces, nil
	}

	var selected []*wifi.Interface
	for _, iface := range ifaces {
		if iface.ID().String() == strings.ToLower(selector) || strings.EqualFold(iface.Description(), selector) {
			selected = append(selected, iface)
		}
	}
	if len(selected) == 0 {
		return nil, fmt.Errorf("no interface matching %q: %w", selector, wifi.ErrNotFound)
	}
	return selected, nil
}

func formatAccessPoint(ap *wifi.AccessPoint) string {
	n := ap.Network()
	parts := []string{fmt.Sprintf("%d%%", n.SignalQuality)}
	if n.SecurityEnabled {
		parts = append(parts, "secure")
	}
	if n.ProfileName != "" {
		parts = append(parts, "known")
	}
	if n.Connected() {
		parts = append(parts, "connected")
	}
	return strings.Join(parts, ", ")
}

type networkJSON struct {
	SSID           string `json:"ssid"`
	Profile        string `json:"profile,omitempty"`
	Interface      string `json:"interface"`
	Signal         uint32 `json:"signal"`
	BSSIDs         uint32 `json:"bssids"`
	Secure         bool   `json:"secure"`
	Authentication string `json:"authentication"`
	Cipher         string `json:"cipher"`
	Connected      bool   `json:"connected"`
	Passphrase     string `json:"passphrase,omitempty"`
}

func toJSON(ap *wifi.AccessPoint) networkJSON {
	n := ap.Network()
	return networkJSON{
		SSID:           ap.Name(),
		Profile:        n.ProfileName,
		Interface:      ap.Interface().Description(),
		Signal:         n.SignalQuality,
		BSSIDs:         n.NumberOfBSSIDs,
		Secure:         n.SecurityEnabled,
		Authentication: n.AuthAlgorithm.String(),
		Cipher:         n.CipherAlgorithm.String(),
		Connected:      n.Connected(),
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// scanAndWait requests a scan on every interface and waits until each one
// reports that the scan finished. Interfaces that stay quiet past the deadline
// keep whatever results they already had.
func scanAndWait(ctx context.Context, ifaces []*wifi.Interface, wait time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	for _, iface := range ifaces {
		iface := iface
		g.Go(func() error {
			events, stop := iface.Subscribe()
			defer stop()

			if err := iface.Scan(); err != nil {
				return fmt.Errorf("failed to scan on %s: %w", iface.Description(), err)
			}
			for {
				select {
				case e, ok := <-events:
					if !ok {
						return nil
					}
					if re, ok := e.(wifi.ReasonEvent); ok {
						return fmt.Errorf("scan failed on %s: %s: %w", iface.Description(), re.Reason, wifi.ErrOperationFailed)
					}
					n := e.Raw()
					if n.IsACM(wifi.ACMScanFail) {
						return fmt.Errorf("scan failed on %s: %w", iface.Description(), wifi.ErrOperationFailed)
					}
					if n.IsACM(wifi.ACMScanComplete) {
						return nil
					}
				case <-ctx.Done():
					return nil
				}
			}
		})
	}
	return g.Wait()
}

type listOptions struct {
	Interface string
	Scan      bool
	JSON      bool
}

func runList(ctx context.Context, w io.Writer, c *wifi.Client, opts listOptions) error {
	ifaces, err := selectInterfaces(c, opts.Interface)
	if err != nil {
		return err
	}
	if opts.Scan {
		if err := scanAndWait(ctx, ifaces, scanWait); err != nil {
			return err
		}
	}

	var aps []*wifi.AccessPoint
	for _, iface := range ifaces {
		found, err := c.AccessPointsOn(iface)
		if err != nil {
			return fmt.Errorf("failed to list networks: %w", err)
		}
		aps = append(aps, found...)
	}
	wifi.SortAccessPoints(aps)

	if opts.JSON {
		out := make([]networkJSON, 0, len(aps))
		for _, ap := range aps {
			out = append(out, toJSON(ap))
		}
		return writeJSON(w, out)
	}

	for _, ap := range aps {
		fmt.Fprintf(w, "%s\t%s\t%s\n", signalBars(ap.SignalStrength()), ap.Name(), formatAccessPoint(ap))
	}
	return nil
}

type showOptions struct {
	QR        bool
	Plaintext bool
	JSON      bool
}

func runShow(w io.Writer, c *wifi.Client, ssid string, opts showOptions) error {
	ap, err := c.AccessPoint(ssid)
	if err != nil {
		return fmt.Errorf("network %q: %w", ssid, err)
	}

	var profile *wifi.Profile
	if ap.HasProfile() {
		doc, err := ap.ProfileXML(opts.Plaintext)
		if err != nil {
			return fmt.Errorf("failed to read profile for %q: %w", ssid, err)
		}
		if profile = wifi.ParseProfile(doc); profile == nil {
			return fmt.Errorf("stored profile for %q could not be parsed: %w", ssid, wifi.ErrOperationFailed)
		}
	}

	var passphrase string
	if opts.Plaintext && profile != nil && profile.SharedKey != nil && !profile.SharedKey.Protected {
		passphrase = profile.Key()
	}

	if opts.JSON {
		out := toJSON(ap)
		out.Passphrase = passphrase
		return writeJSON(w, out)
	}

	fmt.Fprint(w, ap.String())
	if passphrase != "" {
		fmt.Fprintf(w, "Passphrase: %s\n", passphrase)
	}

	if opts.QR {
		if profile == nil {
			return fmt.Errorf("no stored profile for %q: %w", ssid, wifi.ErrNotFound)
		}
		code, err := renderQRCode(profile)
		if err != nil {
			return err
		}
		fmt.Fprintln(w)
		fmt.Fprint(w, code)
	}
	return nil
}

type connectOptions struct {
	Passphrase string
	Username   string
	Domain     string
	Overwrite  bool
	Progress   bool
}

var errConnectFailed = errors.New("connection was not established")

func runConnect(ctx context.Context, w io.Writer, c *wifi.Client, ssid string, opts connectOptions) error {
	ap, err := c.AccessPoint(ssid)
	if err != nil {
		return fmt.Errorf("network %q: %w", ssid, err)
	}

	req := wifi.NewAuthRequest(ap)
	req.Password = opts.Passphrase
	req.Username = opts.Username
	req.Domain = opts.Domain

	needsProfile := opts.Overwrite || !ap.HasProfile()
	if needsProfile && req.UsernameRequired && req.Username == "" {
		return fmt.Errorf("network %q requires -username", ssid)
	}
	if needsProfile && !req.IsPasswordValid() {
		return fmt.Errorf("invalid passphrase for %q", ssid)
	}

	var ok bool
	if opts.Progress {
		ok, err = connectWithProgress(ctx, w, ap, req, opts.Overwrite)
	} else {
		ok, err = ap.Connect(ctx, req, opts.Overwrite)
	}
	if err != nil {
		return fmt.Errorf("failed to connect to %q: %w", ssid, err)
	}
	if !ok {
		return fmt.Errorf("failed to connect to %q: %w", ssid, errConnectFailed)
	}

	fmt.Fprintf(w, "Connected to %s\n", ssid)
	return nil
}

// connectWithProgress prints a dot every half second until the attempt ends.
func connectWithProgress(ctx context.Context, w io.Writer, ap *wifi.AccessPoint, req *wifi.AuthRequest, overwrite bool) (bool, error) {
	task := ap.ConnectAsync(ctx, req, overwrite, nil)
	fmt.Fprintf(w, "Connecting to %s", ap.Name())

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-task.Done():
			fmt.Fprintln(w)
			return task.Result()
		case <-ticker.C:
			fmt.Fprint(w, ".")
		}
	}
}

func runForget(w io.Writer, c *wifi.Client, selector string, name string) error {
	ifaces, err := selectInterfaces(c, selector)
	if err != nil {
		return err
	}

	var removed int
	for _, iface := range ifaces {
		err := iface.DeleteProfile(name)
		if errors.Is(err, wifi.ErrNotFound) {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to forget %q: %w", name, err)
		}
		removed++
		fmt.Fprintf(w, "Forgot %s on %s\n", name, iface.Description())
	}
	if removed == 0 {
		return fmt.Errorf("no stored profile named %q: %w", name, wifi.ErrNotFound)
	}
	return nil
}

func runDisconnect(w io.Writer, c *wifi.Client, selector string) error {
	if selector == "" {
		if err := c.Disconnect(); err != nil {
			return fmt.Errorf("failed to disconnect: %w", err)
		}
		fmt.Fprintln(w, "Disconnected")
		return nil
	}

	ifaces, err := selectInterfaces(c, selector)
	if err != nil {
		return err
	}
	for _, iface := range ifaces {
		if err := iface.Disconnect(); err != nil {
			return fmt.Errorf("failed to disconnect %s: %w", iface.Description(), err)
		}
		fmt.Fprintf(w, "Disconnected %s\n", iface.Description())
	}
	return nil
}

func runStatus(w io.Writer, c *wifi.Client, selector string) error {
	ifaces, err := selectInterfaces(c, selector)
	if err != nil {
		return err
	}

	for _, iface := range ifaces {
		fmt.Fprintf(w, "Interface: %s\n", iface.Description())
		fmt.Fprintf(w, "ID: %s\n", iface.ID())
		if state, err := iface.State(); err == nil {
			fmt.Fprintf(w, "State: %s\n", state)
		}
		if radio, err := iface.RadioState(); err == nil {
			fmt.Fprintf(w, "Radio: %s\n", onOff(radio.On()))
		}
		if autoconf, err := iface.Autoconf(); err == nil {
			fmt.Fprintf(w, "Autoconfig: %s\n", onOff(autoconf))
		}

		attrs, err := iface.CurrentConnection()
		switch {
		case errors.Is(err, wifi.ErrNotConnected):
			fmt.Fprintln(w, "Connection: none")
		case err != nil:
			return fmt.Errorf("failed to query connection on %s: %w", iface.Description(), err)
		default:
			fmt.Fprintf(w, "Profile: %s\n", attrs.ProfileName)
			fmt.Fprintf(w, "SSID: %s\n", attrs.SSID)
			fmt.Fprintf(w, "BSSID: %s\n", formatMAC(attrs.BSSID))
			fmt.Fprintf(w, "Signal: %s %d%%\n", signalBars(attrs.SignalQuality), attrs.SignalQuality)
			fmt.Fprintf(w, "Rate: %s down, %s up\n", formatRate(attrs.RxRate), formatRate(attrs.TxRate))
			fmt.Fprintf(w, "Security: %s/%s\n", attrs.AuthAlgorithm, attrs.CipherAlgorithm)
			if channel, err := iface.Channel(); err == nil {
				fmt.Fprintf(w, "Channel: %d\n", channel)
			}
			if rssi, err := iface.RSSI(); err == nil {
				fmt.Fprintf(w, "RSSI: %d dBm\n", rssi)
			}
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "Status: %s\n", c.Status())
	return nil
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}

func runRadio(w io.Writer, c *wifi.Client, selector string, on bool) error {
	ifaces, err := selectInterfaces(c, selector)
	if err != nil {
		return err
	}
	for _, iface := range ifaces {
		if err := iface.SetRadio(on); err != nil {
			return fmt.Errorf("failed to turn radio %s on %s: %w", onOff(on), iface.Description(), err)
		}
		fmt.Fprintf(w, "Radio %s on %s\n", onOff(on), iface.Description())
	}
	return nil
}

func runProfiles(w io.Writer, c *wifi.Client) error {
	names, err := c.KnownProfileNames()
	if err != nil {
		return fmt.Errorf("failed to list profiles: %w", err)
	}
	for _, name := range names {
		fmt.Fprintln(w, name)
	}
	return nil
}

// runExport copies the named profile from the first interface that has it
// into the cache.
func runExport(w io.Writer, c *wifi.Client, cache *profilecache.Cache, selector string, name string, plaintext bool) error {
	ifaces, err := selectInterfaces(c, selector)
	if err != nil {
		return err
	}
	for _, iface := range ifaces {
		err := cache.SaveFrom(iface, name, plaintext)
		if errors.Is(err, wifi.ErrNotFound) {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to export %q: %w", name, err)
		}
		fmt.Fprintf(w, "Exported %s to %s\n", name, cache.Dir())
		return nil
	}
	return fmt.Errorf("no stored profile named %q: %w", name, wifi.ErrNotFound)
}

func runImport(w io.Writer, c *wifi.Client, cache *profilecache.Cache, selector string, name string, overwrite bool) error {
	doc, err := cache.Load(name)
	if err != nil {
		return fmt.Errorf("failed to load cached profile %q: %w", name, err)
	}
	ifaces, err := selectInterfaces(c, selector)
	if err != nil {
		return err
	}
	for _, iface := range ifaces {
		reason, err := iface.SetProfile(wifi.ProfileAllUser, doc, overwrite)
		if err != nil {
			return fmt.Errorf("failed to import %q on %s (%s): %w", name, iface.Description(), reason, err)
		}
		fmt.Fprintf(w, "Imported %s on %s\n", name, iface.Description())
	}
	return nil
}

func runCached(w io.Writer, cache *profilecache.Cache) error {
	names, err := cache.Names()
	if err != nil {
		return fmt.Errorf("failed to list cached profiles: %w", err)
	}
	for _, name := range names {
		fmt.Fprintln(w, name)
	}
	return nil
}

func runUncache(w io.Writer, cache *profilecache.Cache, name string) error {
	if err := cache.Delete(name); err != nil {
		return fmt.Errorf("failed to remove cached profile %q: %w", name, err)
	}
	fmt.Fprintf(w, "Removed %s from %s\n", name, cache.Dir())
	return nil
}
