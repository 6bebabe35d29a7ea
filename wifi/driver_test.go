package wifi

import (
	"encoding/binary"
	"sync"

	"github.com/google/uuid"
)

// fakeDriver is an in-memory Driver. Notifications are only raised when a
// test calls emit or sets onConnect.
type fakeDriver struct {
	mu sync.Mutex

	ifaces   []InterfaceInfo
	networks map[InterfaceID][]Network
	profiles map[InterfaceID][]storedProfile
	eap      map[InterfaceID]map[string]string
	current  map[InterfaceID]ConnectionAttributes
	connects []ConnectionParams
	scans    int

	connectErr    error
	setProfileErr error
	eapErr        error

	// onConnect runs synchronously inside Connect, after the request is recorded.
	onConnect func(id InterfaceID, params ConnectionParams)

	callback func(Notification)
}

type storedProfile struct {
	name string
	xml  string
}

func newFakeDriver(ids ...InterfaceID) *fakeDriver {
	d := &fakeDriver{
		networks: map[InterfaceID][]Network{},
		profiles: map[InterfaceID][]storedProfile{},
		eap:      map[InterfaceID]map[string]string{},
		current:  map[InterfaceID]ConnectionAttributes{},
	}
	for _, id := range ids {
		d.ifaces = append(d.ifaces, InterfaceInfo{ID: id, Description: "Fake Adapter", State: InterfaceDisconnected})
	}
	return d
}

func newID() InterfaceID {
	return uuid.New()
}

func (d *fakeDriver) emit(n Notification) {
	d.mu.Lock()
	cb := d.callback
	d.mu.Unlock()
	if cb != nil {
		cb(n)
	}
}

func (d *fakeDriver) emitConnection(id InterfaceID, source NotificationSource, code uint32, profile string) {
	d.emit(Notification{
		Source:      source,
		Code:        code,
		InterfaceID: id,
		Data: EncodeConnectionNotification(ConnectionNotification{
			Mode:        ConnectionModeProfile,
			ProfileName: profile,
			SSID:        NewSSID(profile),
			BSSType:     BSSTypeInfrastructure,
		}),
	})
}

func (d *fakeDriver) emitScanFail(id InterfaceID, reason ReasonCode) {
	data := make([]byte, 4)
	binary.LittleEndian.PutUint32(data, uint32(reason))
	d.emit(Notification{Source: SourceACM, Code: uint32(ACMScanFail), InterfaceID: id, Data: data})
}

func (d *fakeDriver) Interfaces() ([]InterfaceInfo, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]InterfaceInfo(nil), d.ifaces...), nil
}

func (d *fakeDriver) RegisterNotification(fn func(Notification)) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.callback = fn
	return nil
}

func (d *fakeDriver) Scan(id InterfaceID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.scans++
	return nil
}

func (d *fakeDriver) Networks(id InterfaceID) ([]Network, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Network(nil), d.networks[id]...), nil
}

func (d *fakeDriver) BSSList(id InterfaceID) ([]BSSEntry, error) {
	return nil, nil
}

func (d *fakeDriver) Profiles(id InterfaceID) ([]ProfileInfo, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []ProfileInfo
	for _, p := range d.profiles[id] {
		out = append(out, ProfileInfo{Name: p.name})
	}
	return out, nil
}

func (d *fakeDriver) ProfileXML(id InterfaceID, name string, flags ProfileFlags) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, p := range d.profiles[id] {
		if p.name == name {
			return p.xml, nil
		}
	}
	return "", &PlatformError{Op: "WlanGetProfile", Code: StatusNotFound}
}

func (d *fakeDriver) SetProfile(id InterfaceID, flags ProfileFlags, xml string, overwrite bool) (ReasonCode, error) {
	if d.setProfileErr != nil {
		return ReasonInvalidProfileSchema, d.setProfileErr
	}
	p := ParseProfile(xml)
	if p == nil {
		return ReasonInvalidProfileSchema, &PlatformError{Op: "WlanSetProfile", Code: StatusBadProfile}
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, existing := range d.profiles[id] {
		if existing.name == p.Name {
			if !overwrite {
				return ReasonSuccess, &PlatformError{Op: "WlanSetProfile", Code: StatusAlreadyExists}
			}
			d.profiles[id][i].xml = xml
			return ReasonSuccess, nil
		}
	}
	d.profiles[id] = append(d.profiles[id], storedProfile{name: p.Name, xml: xml})
	return ReasonSuccess, nil
}

func (d *fakeDriver) DeleteProfile(id InterfaceID, name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, p := range d.profiles[id] {
		if p.name == name {
			d.profiles[id] = append(d.profiles[id][:i], d.profiles[id][i+1:]...)
			return nil
		}
	}
	return &PlatformError{Op: "WlanDeleteProfile", Code: StatusNotFound}
}

func (d *fakeDriver) SetEAPUserData(id InterfaceID, profile string, xml string) error {
	if d.eapErr != nil {
		return d.eapErr
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.eap[id] == nil {
		d.eap[id] = map[string]string{}
	}
	d.eap[id][profile] = xml
	return nil
}

func (d *fakeDriver) Connect(id InterfaceID, params ConnectionParams) error {
	if d.connectErr != nil {
		return d.connectErr
	}
	d.mu.Lock()
	d.connects = append(d.connects, params)
	onConnect := d.onConnect
	d.mu.Unlock()
	if onConnect != nil {
		onConnect(id, params)
	}
	return nil
}

func (d *fakeDriver) Disconnect(id InterfaceID) error {
	d.mu.Lock()
	delete(d.current, id)
	d.mu.Unlock()
	return nil
}

func (d *fakeDriver) QueryInt(id InterfaceID, op IntOpcode) (int32, error) {
	switch op {
	case OpcodeChannelNumber:
		return 11, nil
	case OpcodeRSSI:
		return -42, nil
	}
	return 0, &PlatformError{Op: "WlanQueryInterface", Code: StatusNotSupported}
}

func (d *fakeDriver) SetInt(id InterfaceID, op IntOpcode, value int32) error {
	return nil
}

func (d *fakeDriver) CurrentConnection(id InterfaceID) (ConnectionAttributes, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	attrs, ok := d.current[id]
	if !ok {
		return ConnectionAttributes{}, &PlatformError{Op: "WlanQueryInterface", Code: StatusInvalidState}
	}
	return attrs, nil
}

func (d *fakeDriver) RadioState(id InterfaceID) (RadioState, error) {
	return RadioState{Phys: []PhyRadioState{{SoftwareOn: true, HardwareOn: true}}}, nil
}

func (d *fakeDriver) SetRadio(id InterfaceID, on bool) error {
	return nil
}

func (d *fakeDriver) Close() error {
	return nil
}
