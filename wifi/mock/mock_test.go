package mock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shazow/wifictl/wifi"
)

func init() {
	DefaultActionSleep = 0
}

func newTestClient(t *testing.T, timeout time.Duration) (*MockDriver, *wifi.Client) {
	t.Helper()
	d, err := New()
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	m := d.(*MockDriver)
	c, err := wifi.NewClient(m, wifi.WithConnectTimeout(timeout))
	if err != nil {
		t.Fatalf("NewClient() failed: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return m, c
}

func profileNames(t *testing.T, m *MockDriver) []string {
	t.Helper()
	profiles, err := m.Profiles(InterfaceID)
	if err != nil {
		t.Fatalf("Profiles() failed: %v", err)
	}
	var names []string
	for _, p := range profiles {
		names = append(names, p.Name)
	}
	return names
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

func TestNew(t *testing.T) {
	d, err := New()
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	m := d.(*MockDriver)
	if len(m.KnownProfiles) == 0 {
		t.Fatal("New() returned no known profiles")
	}
	for _, p := range m.KnownProfiles {
		if wifi.ParseProfile(p.XML) == nil {
			t.Errorf("stored profile %q does not parse", p.Name)
		}
	}
	if m.Current != nil {
		t.Errorf("expected no connection, got %q", m.Current.ProfileName)
	}
}

func TestNetworksListsProfiledEntries(t *testing.T) {
	m, c := newTestClient(t, time.Second)

	networks, err := m.Networks(InterfaceID)
	if err != nil {
		t.Fatalf("Networks() failed: %v", err)
	}
	var withProfile, without int
	for _, n := range networks {
		if n.SSID.String() != "Password is password" {
			continue
		}
		if n.ProfileName != "" {
			withProfile++
		} else {
			without++
		}
	}
	if withProfile != 1 || without != 1 {
		t.Errorf("expected one entry with and one without a profile, got %d and %d", withProfile, without)
	}

	ap, err := c.AccessPoint("Password is password")
	if err != nil {
		t.Fatalf("AccessPoint() failed: %v", err)
	}
	if ap.Network().ProfileName != "Password is password" {
		t.Errorf("expected the profiled entry to win, got profile %q", ap.Network().ProfileName)
	}
	if !ap.HasProfile() {
		t.Error("expected access point to have a profile")
	}
}

func TestConnectKnownNetwork(t *testing.T) {
	m, c := newTestClient(t, time.Second)

	ap, err := c.AccessPoint("Password is password")
	if err != nil {
		t.Fatalf("AccessPoint() failed: %v", err)
	}
	ok, err := ap.Connect(context.Background(), wifi.NewAuthRequest(ap), false)
	if err != nil {
		t.Fatalf("Connect() failed: %v", err)
	}
	if !ok {
		t.Fatal("expected connection to succeed")
	}
	m.Flush()

	attrs, err := ap.Interface().CurrentConnection()
	if err != nil {
		t.Fatalf("CurrentConnection() failed: %v", err)
	}
	if attrs.ProfileName != "Password is password" {
		t.Errorf("expected to be connected to %q, got %q", "Password is password", attrs.ProfileName)
	}
	if c.Status() != wifi.StatusConnected {
		t.Errorf("expected status connected, got %s", c.Status())
	}
}

func TestConnectNewNetworkStoresProfile(t *testing.T) {
	m, c := newTestClient(t, time.Second)

	ap, err := c.AccessPoint("TacoBoutAGoodSignal")
	if err != nil {
		t.Fatalf("AccessPoint() failed: %v", err)
	}
	if ap.HasProfile() {
		t.Fatal("test setup failed: network already has a profile")
	}

	req := wifi.NewAuthRequest(ap)
	if !req.PasswordRequired {
		t.Fatal("expected a password to be required")
	}
	req.Password = "tacotuesday"
	ok, err := ap.Connect(context.Background(), req, false)
	if err != nil {
		t.Fatalf("Connect() failed: %v", err)
	}
	if !ok {
		t.Fatal("expected connection to succeed")
	}

	if !contains(profileNames(t, m), "TacoBoutAGoodSignal") {
		t.Error("expected a profile to be stored")
	}
	doc, err := m.ProfileXML(InterfaceID, "TacoBoutAGoodSignal", wifi.ProfileGetPlaintextKey)
	if err != nil {
		t.Fatalf("ProfileXML() failed: %v", err)
	}
	if key := wifi.ParseProfile(doc).Key(); key != "tacotuesday" {
		t.Errorf("expected stored key %q, got %q", "tacotuesday", key)
	}
}

func TestConnectWrongPassword(t *testing.T) {
	m, c := newTestClient(t, 100*time.Millisecond)

	ap, err := c.AccessPoint("HideYoKidsHideYoWiFi")
	if err != nil {
		t.Fatalf("AccessPoint() failed: %v", err)
	}
	req := wifi.NewAuthRequest(ap)
	req.Password = "not-the-password"
	ok, err := ap.Connect(context.Background(), req, true)
	if err != nil {
		t.Fatalf("Connect() failed: %v", err)
	}
	if ok {
		t.Fatal("expected connection with the wrong key to fail")
	}
	m.Flush()
	if m.Current != nil {
		t.Errorf("expected no connection, got %q", m.Current.ProfileName)
	}
}

func TestConnectEnterprise(t *testing.T) {
	m, c := newTestClient(t, time.Second)

	ap, err := c.AccessPoint("Dunder MiffLAN")
	if err != nil {
		t.Fatalf("AccessPoint() failed: %v", err)
	}
	req := wifi.NewAuthRequest(ap)
	if !req.UsernameRequired || !req.DomainSupported {
		t.Fatal("expected username and domain for an enterprise network")
	}
	req.Username = "michael"
	req.Password = "thats what she said"
	req.Domain = "SCRANTON"
	ok, err := ap.Connect(context.Background(), req, false)
	if err != nil {
		t.Fatalf("Connect() failed: %v", err)
	}
	if !ok {
		t.Fatal("expected connection to succeed")
	}
	if _, ok := m.EAPUserData["Dunder MiffLAN"]; !ok {
		t.Error("expected credentials to be stored for the profile")
	}
}

func TestConnectError(t *testing.T) {
	m, c := newTestClient(t, time.Second)
	m.ConnectError = errors.New("mock connect error")

	ap, err := c.AccessPoint("Password is password")
	if err != nil {
		t.Fatalf("AccessPoint() failed: %v", err)
	}
	ok, err := ap.Connect(context.Background(), wifi.NewAuthRequest(ap), false)
	if ok || !errors.Is(err, m.ConnectError) {
		t.Errorf("expected the injected error, got %v, %v", ok, err)
	}
}

func TestForgetNetwork(t *testing.T) {
	m, c := newTestClient(t, time.Second)

	ap, err := c.AccessPoint("GET off my LAN")
	if err != nil {
		t.Fatalf("AccessPoint() failed: %v", err)
	}
	if err := ap.DeleteProfile(); err != nil {
		t.Fatalf("DeleteProfile() failed: %v", err)
	}
	if contains(profileNames(t, m), "GET off my LAN") {
		t.Error("expected profile to be deleted")
	}

	err = m.DeleteProfile(InterfaceID, "GET off my LAN")
	if !errors.Is(err, wifi.ErrNotFound) {
		t.Errorf("expected ErrNotFound deleting twice, got %v", err)
	}
}

func TestDisconnect(t *testing.T) {
	m, c := newTestClient(t, time.Second)

	ap, err := c.AccessPoint("Password is password")
	if err != nil {
		t.Fatalf("AccessPoint() failed: %v", err)
	}
	if ok, err := ap.Connect(context.Background(), wifi.NewAuthRequest(ap), false); !ok || err != nil {
		t.Fatalf("Connect() = %v, %v", ok, err)
	}

	if err := c.Disconnect(); err != nil {
		t.Fatalf("Disconnect() failed: %v", err)
	}
	m.Flush()

	if c.Status() != wifi.StatusDisconnected {
		t.Errorf("expected status disconnected, got %s", c.Status())
	}
	if _, err := ap.Interface().CurrentConnection(); !errors.Is(err, wifi.ErrNotConnected) {
		t.Errorf("expected ErrNotConnected, got %v", err)
	}
}

func TestScanFailRaisesReason(t *testing.T) {
	m, c := newTestClient(t, time.Second)
	m.ScanFailReason = wifi.ReasonScanCallFail

	ifaces, err := c.Interfaces()
	if err != nil {
		t.Fatalf("Interfaces() failed: %v", err)
	}
	reasons, cancel := ifaces[0].SubscribeReason()
	defer cancel()

	if err := c.Scan(context.Background()); err != nil {
		t.Fatalf("Scan() failed: %v", err)
	}

	select {
	case e := <-reasons:
		re, ok := e.(wifi.ReasonEvent)
		if !ok {
			t.Fatalf("expected a reason event, got %T", e)
		}
		if re.Reason != wifi.ReasonScanCallFail {
			t.Errorf("expected %s, got %s", wifi.ReasonScanCallFail, re.Reason)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for scan failure")
	}
}

func TestRadio(t *testing.T) {
	m, c := newTestClient(t, time.Second)
	ifaces, err := c.Interfaces()
	if err != nil {
		t.Fatalf("Interfaces() failed: %v", err)
	}
	iface := ifaces[0]

	if err := iface.SetRadio(false); err != nil {
		t.Fatalf("SetRadio() failed: %v", err)
	}
	state, err := iface.RadioState()
	if err != nil {
		t.Fatalf("RadioState() failed: %v", err)
	}
	if state.On() {
		t.Error("expected radio to be off")
	}
	if _, err := c.AccessPoints(); !errors.Is(err, wifi.ErrWirelessDisabled) {
		t.Errorf("expected ErrWirelessDisabled, got %v", err)
	}

	if err := iface.SetRadio(true); err != nil {
		t.Fatalf("SetRadio() failed: %v", err)
	}
	if _, err := c.AccessPoints(); err != nil {
		t.Errorf("AccessPoints() failed after turning the radio on: %v", err)
	}
	m.Flush()
}

func TestBSSList(t *testing.T) {
	m, _ := newTestClient(t, time.Second)

	entries, err := m.BSSList(InterfaceID)
	if err != nil {
		t.Fatalf("BSSList() failed: %v", err)
	}
	var multi []wifi.BSSEntry
	for _, e := range entries {
		if e.SSID.String() == "Multi-AP Network" {
			multi = append(multi, e)
		}
	}
	if len(multi) != 3 {
		t.Fatalf("expected 3 BSSIDs for the multi-AP network, got %d", len(multi))
	}
	if got := multi[1].BSSIDString(); got != "AA:BB:CC:DD:EE:FF" {
		t.Errorf("unexpected BSSID %s", got)
	}
	if multi[1].CenterFrequency != 5180000 {
		t.Errorf("unexpected frequency %d", multi[1].CenterFrequency)
	}
}

func TestUnknownInterface(t *testing.T) {
	m, _ := newTestClient(t, time.Second)

	_, err := m.Networks(wifi.InterfaceID{})
	if !errors.Is(err, wifi.ErrNotFound) {
		t.Errorf("expected ErrNotFound for an unknown interface, got %v", err)
	}
}
