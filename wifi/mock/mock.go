package mock

import (
	"encoding/binary"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shazow/wifictl/wifi"
)

var DefaultActionSleep = 500 * time.Millisecond

// InterfaceID identifies the single adapter of the mock driver.
var InterfaceID = uuid.MustParse("5f0c2d6e-8b1a-4c53-9e2f-0a6d1f3b7c41")

// mockNetwork is a network the mock adapter can see, together with the key
// its access point accepts. An empty Secret accepts any valid key.
type mockNetwork struct {
	wifi.Network
	Secret string
	BSSIDs []wifi.BSSEntry
}

type mockProfile struct {
	Name string
	XML  string
}

// MockDriver is an in-memory wifi.Driver with a single interface. Connection
// attempts, scans and disconnects raise the same notifications the platform
// does, from a goroutine of their own.
type MockDriver struct {
	Description     string
	VisibleNetworks []mockNetwork
	KnownProfiles   []mockProfile
	EAPUserData     map[string]string
	Current         *wifi.ConnectionAttributes
	RadioOn         bool
	Autoconf        bool

	// ScanFailReason, when set, makes scans fail with that reason.
	ScanFailReason wifi.ReasonCode

	ScanError           error
	ConnectError        error
	DisconnectError     error
	SetProfileError     error
	DeleteProfileError  error
	SetEAPUserDataError error
	SetRadioError       error

	// ActionSleep is a delay before every action, to better emulate a real-world driver for the CLI. Set to 0 during testing.
	ActionSleep time.Duration

	mu        sync.Mutex
	callback  func(wifi.Notification)
	delivered chan struct{}
	pending   sync.WaitGroup
}

func personal(ssid string, strength uint32) wifi.Network {
	return wifi.Network{
		SSID:            wifi.NewSSID(ssid),
		BSSType:         wifi.BSSTypeInfrastructure,
		NumberOfBSSIDs:  1,
		Connectable:     true,
		SignalQuality:   strength,
		SecurityEnabled: true,
		AuthAlgorithm:   wifi.AuthRSNAPSK,
		CipherAlgorithm: wifi.CipherCCMP,
	}
}

func wep(ssid string, strength uint32) wifi.Network {
	n := personal(ssid, strength)
	n.AuthAlgorithm, n.CipherAlgorithm = wifi.AuthOpen, wifi.CipherWEP
	return n
}

func unsecured(ssid string, strength uint32) wifi.Network {
	n := personal(ssid, strength)
	n.SecurityEnabled = false
	n.AuthAlgorithm, n.CipherAlgorithm = wifi.AuthOpen, wifi.CipherNone
	return n
}

func enterprise(ssid string, strength uint32) wifi.Network {
	n := personal(ssid, strength)
	n.AuthAlgorithm = wifi.AuthRSNA
	return n
}

func bss(ssid string, mac [6]byte, strength uint32, freqMHz uint32) wifi.BSSEntry {
	return wifi.BSSEntry{
		SSID:            wifi.NewSSID(ssid),
		BSSID:           mac,
		BSSType:         wifi.BSSTypeInfrastructure,
		RSSI:            int32(strength)/2 - 100,
		LinkQuality:     strength,
		InRegDomain:     true,
		BeaconPeriod:    100,
		CenterFrequency: freqMHz * 1000,
	}
}

// New creates a mock driver with a list of fun wifi networks.
func New() (wifi.Driver, error) {
	networks := []mockNetwork{
		{Network: personal("HideYoKidsHideYoWiFi", 72), Secret: "hidden"},
		{Network: personal("GET off my LAN", 35), Secret: "getoffmylawn"},
		{Network: wep("NeverGonnaGiveYouIP", 41), Secret: "0123456789"},
		{Network: unsecured("Unencrypted_Honeypot", 90)},
		{Network: personal("YourWiFi.exe", 55)},
		{Network: wep("I See Dead Packets", 12)},
		{Network: enterprise("Dunder MiffLAN", 64)},
		{Network: personal("Police Surveillance 2", 48)},
		{Network: wep("I Believe Wi Can Fi", 30)},
		{Network: personal("Hot singles in your area", 66)},
		{Network: personal("Password is password", 87), Secret: "password"},
		{Network: personal("TacoBoutAGoodSignal", 99)},
		{Network: personal("Multi-AP Network", 80), BSSIDs: []wifi.BSSEntry{
			bss("Multi-AP Network", [6]byte{0x00, 0x11, 0x22, 0x33, 0x44, 0x55}, 80, 2412),
			bss("Multi-AP Network", [6]byte{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF}, 60, 5180),
			bss("Multi-AP Network", [6]byte{0x11, 0x22, 0x33, 0x44, 0x55, 0x66}, 40, 5240),
		}},
		{Network: unsecured("FreeHugsAndWiFi", 20)},
	}
	for i := range networks {
		n := &networks[i]
		if n.BSSIDs == nil {
			mac := [6]byte{0x02, 0x00, 0x5e, 0x00, 0x00, byte(i + 1)}
			n.BSSIDs = []wifi.BSSEntry{bss(n.SSID.String(), mac, n.SignalQuality, 2437)}
		}
		n.NumberOfBSSIDs = uint32(len(n.BSSIDs))
	}

	m := &MockDriver{
		Description:     "Mock Wireless Adapter",
		VisibleNetworks: networks,
		EAPUserData:     map[string]string{},
		RadioOn:         true,
		Autoconf:        true,
		ActionSleep:     DefaultActionSleep,
	}

	// Profiles stored before the mock was started.
	for _, ssid := range []string{"HideYoKidsHideYoWiFi", "Password is password", "GET off my LAN"} {
		n, ok := m.network(wifi.NewSSID(ssid))
		if !ok {
			continue
		}
		doc, err := wifi.GenerateProfile(n.Network, n.Secret)
		if err != nil {
			return nil, fmt.Errorf("failed to generate profile for %q: %w", ssid, err)
		}
		m.KnownProfiles = append(m.KnownProfiles, mockProfile{Name: ssid, XML: doc})
	}

	return m, nil
}

func (m *MockDriver) network(ssid wifi.SSID) (mockNetwork, bool) {
	for _, n := range m.VisibleNetworks {
		if n.SSID.Equal(ssid) {
			return n, true
		}
	}
	return mockNetwork{}, false
}

func (m *MockDriver) profileIndex(name string) int {
	for i, p := range m.KnownProfiles {
		if p.Name == name {
			return i
		}
	}
	return -1
}

func (m *MockDriver) checkInterface(op string, id wifi.InterfaceID) error {
	if id != InterfaceID {
		return &wifi.PlatformError{Op: op, Code: wifi.StatusNotFound}
	}
	return nil
}

// emit delivers notifications from a goroutine of its own like the platform
// does. Batches are delivered in the order they were raised.
func (m *MockDriver) emit(notifications ...wifi.Notification) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.emitLocked(notifications...)
}

func (m *MockDriver) emitLocked(notifications ...wifi.Notification) {
	cb := m.callback
	if cb == nil {
		return
	}
	prev := m.delivered
	done := make(chan struct{})
	m.delivered = done
	m.pending.Add(1)
	go func() {
		defer m.pending.Done()
		defer close(done)
		if prev != nil {
			<-prev
		}
		for _, n := range notifications {
			cb(n)
		}
	}()
}

// Flush waits until every notification raised so far has been delivered.
func (m *MockDriver) Flush() {
	m.pending.Wait()
}

func connectionNotification(source wifi.NotificationSource, code uint32, cn wifi.ConnectionNotification) wifi.Notification {
	return wifi.Notification{
		Source:      source,
		Code:        code,
		InterfaceID: InterfaceID,
		Data:        wifi.EncodeConnectionNotification(cn),
	}
}

func acm(code wifi.ACMCode, data []byte) wifi.Notification {
	return wifi.Notification{Source: wifi.SourceACM, Code: uint32(code), InterfaceID: InterfaceID, Data: data}
}

func (m *MockDriver) Interfaces() ([]wifi.InterfaceInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	state := wifi.InterfaceDisconnected
	if m.Current != nil {
		state = wifi.InterfaceConnected
	}
	return []wifi.InterfaceInfo{{ID: InterfaceID, Description: m.Description, State: state}}, nil
}

func (m *MockDriver) RegisterNotification(fn func(wifi.Notification)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callback = fn
	return nil
}

func (m *MockDriver) Scan(id wifi.InterfaceID) error {
	time.Sleep(m.ActionSleep)

	if err := m.checkInterface("WlanScan", id); err != nil {
		return err
	}
	if m.ScanError != nil {
		return m.ScanError
	}

	m.mu.Lock()
	if !m.RadioOn {
		m.mu.Unlock()
		return wifi.ErrWirelessDisabled
	}
	// For mock, we can re-randomize strengths on each scan
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	for i := range m.VisibleNetworks {
		strength := uint32(r.Intn(70) + 30)
		m.VisibleNetworks[i].SignalQuality = strength
		for j := range m.VisibleNetworks[i].BSSIDs {
			m.VisibleNetworks[i].BSSIDs[j].LinkQuality = strength
			m.VisibleNetworks[i].BSSIDs[j].RSSI = int32(strength)/2 - 100
		}
	}
	reason := m.ScanFailReason
	m.mu.Unlock()

	if reason != wifi.ReasonSuccess {
		data := make([]byte, 4)
		binary.LittleEndian.PutUint32(data, uint32(reason))
		m.emit(acm(wifi.ACMScanFail, data))
		return nil
	}
	m.emit(acm(wifi.ACMScanComplete, nil), acm(wifi.ACMScanListRefresh, nil))
	return nil
}

// Networks lists every visible network once without a profile, and once
// more for each stored profile that names it.
func (m *MockDriver) Networks(id wifi.InterfaceID) ([]wifi.Network, error) {
	time.Sleep(m.ActionSleep)

	if err := m.checkInterface("WlanGetAvailableNetworkList", id); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.RadioOn {
		return nil, wifi.ErrWirelessDisabled
	}

	var result []wifi.Network
	for _, n := range m.VisibleNetworks {
		for _, p := range m.KnownProfiles {
			doc := wifi.ParseProfile(p.XML)
			if doc == nil || !doc.SSID().Equal(n.SSID) {
				continue
			}
			entry := n.Network
			entry.ProfileName = p.Name
			entry.Flags |= wifi.NetworkHasProfile
			if m.Current != nil && m.Current.ProfileName == p.Name {
				entry.Flags |= wifi.NetworkConnected
			}
			result = append(result, entry)
		}
		result = append(result, n.Network)
	}
	return result, nil
}

func (m *MockDriver) BSSList(id wifi.InterfaceID) ([]wifi.BSSEntry, error) {
	if err := m.checkInterface("WlanGetNetworkBssList", id); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []wifi.BSSEntry
	for _, n := range m.VisibleNetworks {
		result = append(result, n.BSSIDs...)
	}
	return result, nil
}

func (m *MockDriver) Profiles(id wifi.InterfaceID) ([]wifi.ProfileInfo, error) {
	if err := m.checkInterface("WlanGetProfileList", id); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]wifi.ProfileInfo, 0, len(m.KnownProfiles))
	for _, p := range m.KnownProfiles {
		result = append(result, wifi.ProfileInfo{Name: p.Name, Flags: wifi.ProfileAllUser})
	}
	return result, nil
}

// ProfileXML returns the stored document. The mock keeps keys in the clear,
// so the flags make no difference.
func (m *MockDriver) ProfileXML(id wifi.InterfaceID, name string, flags wifi.ProfileFlags) (string, error) {
	if err := m.checkInterface("WlanGetProfile", id); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.profileIndex(name)
	if i < 0 {
		return "", &wifi.PlatformError{Op: "WlanGetProfile", Code: wifi.StatusNotFound}
	}
	return m.KnownProfiles[i].XML, nil
}

func (m *MockDriver) SetProfile(id wifi.InterfaceID, flags wifi.ProfileFlags, xml string, overwrite bool) (wifi.ReasonCode, error) {
	time.Sleep(m.ActionSleep)

	if err := m.checkInterface("WlanSetProfile", id); err != nil {
		return wifi.ReasonSuccess, err
	}
	if m.SetProfileError != nil {
		return wifi.ReasonInvalidProfileSchema, m.SetProfileError
	}
	p := wifi.ParseProfile(xml)
	if p == nil {
		return wifi.ReasonInvalidProfileSchema, &wifi.PlatformError{Op: "WlanSetProfile", Code: wifi.StatusBadProfile}
	}

	m.mu.Lock()
	i := m.profileIndex(p.Name)
	switch {
	case i >= 0 && !overwrite:
		m.mu.Unlock()
		return wifi.ReasonSuccess, &wifi.PlatformError{Op: "WlanSetProfile", Code: wifi.StatusAlreadyExists}
	case i >= 0:
		m.KnownProfiles[i].XML = xml
	default:
		m.KnownProfiles = append(m.KnownProfiles, mockProfile{Name: p.Name, XML: xml})
	}
	m.mu.Unlock()

	m.emit(acm(wifi.ACMProfileChange, nil))
	return wifi.ReasonSuccess, nil
}

func (m *MockDriver) DeleteProfile(id wifi.InterfaceID, name string) error {
	time.Sleep(m.ActionSleep)

	if err := m.checkInterface("WlanDeleteProfile", id); err != nil {
		return err
	}
	if m.DeleteProfileError != nil {
		return m.DeleteProfileError
	}

	m.mu.Lock()
	i := m.profileIndex(name)
	if i < 0 {
		m.mu.Unlock()
		return fmt.Errorf("cannot delete unknown profile %s: %w", name, &wifi.PlatformError{Op: "WlanDeleteProfile", Code: wifi.StatusNotFound})
	}
	m.KnownProfiles = append(m.KnownProfiles[:i], m.KnownProfiles[i+1:]...)
	delete(m.EAPUserData, name)
	m.mu.Unlock()

	m.emit(acm(wifi.ACMProfileChange, nil))
	return nil
}

func (m *MockDriver) SetEAPUserData(id wifi.InterfaceID, profile string, xml string) error {
	time.Sleep(m.ActionSleep)

	if err := m.checkInterface("WlanSetProfileEapXmlUserData", id); err != nil {
		return err
	}
	if m.SetEAPUserDataError != nil {
		return m.SetEAPUserDataError
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.profileIndex(profile) < 0 {
		return &wifi.PlatformError{Op: "WlanSetProfileEapXmlUserData", Code: wifi.StatusNotFound}
	}
	m.EAPUserData[profile] = xml
	return nil
}

// Connect accepts the request and plays out the attempt in the background.
// The attempt fails when the network is not visible or when the profile's
// key does not match the access point's.
func (m *MockDriver) Connect(id wifi.InterfaceID, params wifi.ConnectionParams) error {
	time.Sleep(m.ActionSleep)

	if err := m.checkInterface("WlanConnect", id); err != nil {
		return err
	}
	if m.ConnectError != nil {
		return m.ConnectError
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.RadioOn {
		return wifi.ErrWirelessDisabled
	}

	doc := params.Profile
	if params.Mode == wifi.ConnectionModeProfile {
		i := m.profileIndex(params.Profile)
		if i < 0 {
			return &wifi.PlatformError{Op: "WlanConnect", Code: wifi.StatusNotFound}
		}
		doc = m.KnownProfiles[i].XML
	}
	p := wifi.ParseProfile(doc)
	if p == nil {
		return &wifi.PlatformError{Op: "WlanConnect", Code: wifi.StatusBadProfile}
	}

	cn := wifi.ConnectionNotification{
		Mode:            params.Mode,
		ProfileName:     p.Name,
		SSID:            p.SSID(),
		BSSType:         wifi.BSSTypeInfrastructure,
		SecurityEnabled: p.Authentication != "open" || p.Encryption != "none",
	}
	n, visible := m.network(cn.SSID)

	notifications := []wifi.Notification{connectionNotification(wifi.SourceACM, uint32(wifi.ACMConnectionStart), cn)}
	fail := func(reason wifi.ReasonCode) error {
		cn.Reason = reason
		notifications = append(notifications, connectionNotification(wifi.SourceACM, uint32(wifi.ACMConnectionAttemptFail), cn))
		m.emitLocked(notifications...)
		return nil
	}

	if !visible {
		return fail(wifi.ReasonNetworkNotAvailable)
	}
	notifications = append(notifications,
		connectionNotification(wifi.SourceMSM, uint32(wifi.MSMAssociating), cn),
		connectionNotification(wifi.SourceMSM, uint32(wifi.MSMAssociated), cn),
	)
	if cn.SecurityEnabled {
		notifications = append(notifications, connectionNotification(wifi.SourceMSM, uint32(wifi.MSMAuthenticating), cn))
		if p.UseOneX {
			if _, ok := m.EAPUserData[p.Name]; !ok {
				return fail(wifi.ReasonMSMSecurityMissing)
			}
		} else if n.Secret != "" && p.Key() != n.Secret {
			return fail(wifi.ReasonKeyMismatch)
		}
	}

	m.Current = &wifi.ConnectionAttributes{
		State:           wifi.InterfaceConnected,
		Mode:            params.Mode,
		ProfileName:     p.Name,
		SSID:            n.SSID,
		BSSType:         n.BSSType,
		BSSID:           n.BSSIDs[0].BSSID,
		SignalQuality:   n.SignalQuality,
		RxRate:          866700,
		TxRate:          866700,
		SecurityEnabled: n.SecurityEnabled,
		OneXEnabled:     n.AuthAlgorithm.IsEnterprise(),
		AuthAlgorithm:   n.AuthAlgorithm,
		CipherAlgorithm: n.CipherAlgorithm,
	}
	notifications = append(notifications,
		connectionNotification(wifi.SourceMSM, uint32(wifi.MSMConnected), cn),
		connectionNotification(wifi.SourceACM, uint32(wifi.ACMConnectionComplete), cn),
	)
	m.emitLocked(notifications...)
	return nil
}

// disconnectLocked drops the current connection. Callers hold m.mu.
func (m *MockDriver) disconnectLocked() {
	if m.Current == nil {
		return
	}
	cn := wifi.ConnectionNotification{
		Mode:            m.Current.Mode,
		ProfileName:     m.Current.ProfileName,
		SSID:            m.Current.SSID,
		BSSType:         m.Current.BSSType,
		SecurityEnabled: m.Current.SecurityEnabled,
	}
	m.Current = nil
	m.emitLocked(
		connectionNotification(wifi.SourceACM, uint32(wifi.ACMDisconnecting), cn),
		connectionNotification(wifi.SourceMSM, uint32(wifi.MSMDisconnected), cn),
		connectionNotification(wifi.SourceACM, uint32(wifi.ACMDisconnected), cn),
	)
}

func (m *MockDriver) Disconnect(id wifi.InterfaceID) error {
	time.Sleep(m.ActionSleep)

	if err := m.checkInterface("WlanDisconnect", id); err != nil {
		return err
	}
	if m.DisconnectError != nil {
		return m.DisconnectError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.disconnectLocked()
	return nil
}

func (m *MockDriver) QueryInt(id wifi.InterfaceID, op wifi.IntOpcode) (int32, error) {
	if err := m.checkInterface("WlanQueryInterface", id); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	notConnected := &wifi.PlatformError{Op: "WlanQueryInterface", Code: wifi.StatusInvalidState}
	switch op {
	case wifi.OpcodeAutoconfEnabled:
		if m.Autoconf {
			return 1, nil
		}
		return 0, nil
	case wifi.OpcodeBSSType:
		return int32(wifi.BSSTypeInfrastructure), nil
	case wifi.OpcodeInterfaceState:
		if m.Current != nil {
			return int32(wifi.InterfaceConnected), nil
		}
		return int32(wifi.InterfaceDisconnected), nil
	case wifi.OpcodeChannelNumber:
		if m.Current == nil {
			return 0, notConnected
		}
		return 6, nil
	case wifi.OpcodeRSSI:
		if m.Current == nil {
			return 0, notConnected
		}
		return int32(m.Current.SignalQuality)/2 - 100, nil
	}
	return 0, &wifi.PlatformError{Op: "WlanQueryInterface", Code: wifi.StatusNotSupported}
}

func (m *MockDriver) SetInt(id wifi.InterfaceID, op wifi.IntOpcode, value int32) error {
	if err := m.checkInterface("WlanSetInterface", id); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	switch op {
	case wifi.OpcodeAutoconfEnabled:
		m.Autoconf = value != 0
		return nil
	case wifi.OpcodeBSSType:
		return nil
	}
	return &wifi.PlatformError{Op: "WlanSetInterface", Code: wifi.StatusNotSupported}
}

func (m *MockDriver) CurrentConnection(id wifi.InterfaceID) (wifi.ConnectionAttributes, error) {
	if err := m.checkInterface("WlanQueryInterface", id); err != nil {
		return wifi.ConnectionAttributes{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Current == nil {
		return wifi.ConnectionAttributes{}, &wifi.PlatformError{Op: "WlanQueryInterface", Code: wifi.StatusInvalidState}
	}
	return *m.Current, nil
}

func (m *MockDriver) RadioState(id wifi.InterfaceID) (wifi.RadioState, error) {
	if err := m.checkInterface("WlanQueryInterface", id); err != nil {
		return wifi.RadioState{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return wifi.RadioState{Phys: []wifi.PhyRadioState{{PhyIndex: 0, SoftwareOn: m.RadioOn, HardwareOn: true}}}, nil
}

// SetRadio switches the radio. Turning it off drops the current connection.
func (m *MockDriver) SetRadio(id wifi.InterfaceID, on bool) error {
	time.Sleep(m.ActionSleep)

	if err := m.checkInterface("WlanSetInterface", id); err != nil {
		return err
	}
	if m.SetRadioError != nil {
		return m.SetRadioError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.RadioOn == on {
		return nil
	}
	m.RadioOn = on
	if !on {
		m.disconnectLocked()
	}
	m.emitLocked(wifi.Notification{Source: wifi.SourceMSM, Code: uint32(wifi.MSMRadioStateChange), InterfaceID: InterfaceID})
	return nil
}

func (m *MockDriver) Close() error {
	m.Flush()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callback = nil
	return nil
}
