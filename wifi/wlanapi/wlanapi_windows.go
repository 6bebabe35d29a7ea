//go:build windows

package wlanapi

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/shazow/wifictl/wifi"
)

// clientVersion 2 is the Native Wifi API of Windows Vista and later.
const clientVersion = 2

const (
	// WLAN_AVAILABLE_NETWORK_INCLUDE_ALL_ADHOC_PROFILES | ..._MANUAL_HIDDEN_PROFILES
	availableNetworkFlags = 0x3
	// dot11_BSS_type_any
	bssTypeAny = 3
)

var (
	wlanapi = windows.NewLazySystemDLL("wlanapi.dll")

	procWlanOpenHandle               = wlanapi.NewProc("WlanOpenHandle")
	procWlanCloseHandle              = wlanapi.NewProc("WlanCloseHandle")
	procWlanFreeMemory               = wlanapi.NewProc("WlanFreeMemory")
	procWlanEnumInterfaces           = wlanapi.NewProc("WlanEnumInterfaces")
	procWlanRegisterNotification     = wlanapi.NewProc("WlanRegisterNotification")
	procWlanScan                     = wlanapi.NewProc("WlanScan")
	procWlanGetAvailableNetworkList  = wlanapi.NewProc("WlanGetAvailableNetworkList")
	procWlanGetNetworkBssList        = wlanapi.NewProc("WlanGetNetworkBssList")
	procWlanGetProfileList           = wlanapi.NewProc("WlanGetProfileList")
	procWlanGetProfile               = wlanapi.NewProc("WlanGetProfile")
	procWlanSetProfile               = wlanapi.NewProc("WlanSetProfile")
	procWlanDeleteProfile            = wlanapi.NewProc("WlanDeleteProfile")
	procWlanSetProfileEapXmlUserData = wlanapi.NewProc("WlanSetProfileEapXmlUserData")
	procWlanConnect                  = wlanapi.NewProc("WlanConnect")
	procWlanDisconnect               = wlanapi.NewProc("WlanDisconnect")
	procWlanQueryInterface           = wlanapi.NewProc("WlanQueryInterface")
	procWlanSetInterface             = wlanapi.NewProc("WlanSetInterface")
)

// call invokes proc and turns a non-zero status into a PlatformError. A
// missing DLL or entry point means there is no wireless service.
func call(proc *windows.LazyProc, args ...uintptr) error {
	if err := proc.Find(); err != nil {
		return fmt.Errorf("%s: %w", proc.Name, wifi.ErrNoWifi)
	}
	status, _, _ := proc.Call(args...)
	if status != 0 {
		return &wifi.PlatformError{Op: proc.Name, Code: uint32(status)}
	}
	return nil
}

func freeMemory(p unsafe.Pointer) {
	if p != nil {
		procWlanFreeMemory.Call(uintptr(p))
	}
}

// notificationData is WLAN_NOTIFICATION_DATA.
type notificationData struct {
	Source   uint32
	Code     uint32
	GUID     guid
	DataSize uint32
	Data     unsafe.Pointer
}

// connectionParameters is WLAN_CONNECTION_PARAMETERS.
type connectionParameters struct {
	Mode             uint32
	Profile          *uint16
	SSID             *dot11SSID
	DesiredBSSIDList uintptr
	BSSType          uint32
	Flags            uint32
}

// Callbacks are a scarce resource, so a single one serves every driver and
// finds its driver through the callback context.
var (
	notificationCallback = sync.OnceValue(func() uintptr {
		return windows.NewCallback(onNotification)
	})

	driversMu sync.Mutex
	drivers   = map[uintptr]*Driver{}
)

func onNotification(data *notificationData, context uintptr) uintptr {
	driversMu.Lock()
	d := drivers[context]
	driversMu.Unlock()
	if d == nil || data == nil {
		return 0
	}

	n := wifi.Notification{
		Source:      wifi.NotificationSource(data.Source),
		Code:        data.Code,
		InterfaceID: data.GUID.uuid(),
	}
	if data.Data != nil && data.DataSize > 0 {
		// The payload is only valid for the duration of the callback.
		n.Data = append([]byte(nil), unsafe.Slice((*byte)(data.Data), data.DataSize)...)
	}
	d.deliver(n)
	return 0
}

var _ wifi.Driver = (*Driver)(nil)

// Driver is a session with the WLAN service.
type Driver struct {
	logger *slog.Logger
	handle windows.Handle

	mu       sync.Mutex
	callback func(wifi.Notification)
}

// New opens a session with the WLAN service. The error matches
// wifi.ErrNoWifi when the service is not available on this host.
func New(logger *slog.Logger) (*Driver, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	var negotiated uint32
	var handle windows.Handle
	err := call(procWlanOpenHandle,
		clientVersion,
		0,
		uintptr(unsafe.Pointer(&negotiated)),
		uintptr(unsafe.Pointer(&handle)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open WLAN session: %w", err)
	}
	logger.Debug("opened WLAN session", "version", negotiated)

	return &Driver{logger: logger, handle: handle}, nil
}

func (d *Driver) deliver(n wifi.Notification) {
	d.mu.Lock()
	cb := d.callback
	d.mu.Unlock()
	if cb != nil {
		cb(n)
	}
}

func (d *Driver) Interfaces() ([]wifi.InterfaceInfo, error) {
	var list *listHeader
	if err := call(procWlanEnumInterfaces, uintptr(d.handle), 0, uintptr(unsafe.Pointer(&list))); err != nil {
		return nil, err
	}
	defer freeMemory(unsafe.Pointer(list))

	items := unsafe.Slice((*interfaceInfo)(unsafe.Add(unsafe.Pointer(list), unsafe.Sizeof(*list))), list.NumberOfItems)
	result := make([]wifi.InterfaceInfo, 0, len(items))
	for i := range items {
		result = append(result, items[i].info())
	}
	return result, nil
}

// RegisterNotification subscribes to every notification source. Calling it
// again replaces the callback.
func (d *Driver) RegisterNotification(fn func(wifi.Notification)) error {
	d.mu.Lock()
	d.callback = fn
	d.mu.Unlock()

	driversMu.Lock()
	drivers[uintptr(d.handle)] = d
	driversMu.Unlock()

	var previous uint32
	return call(procWlanRegisterNotification,
		uintptr(d.handle),
		uintptr(wifi.SourceAll),
		0,
		notificationCallback(),
		uintptr(d.handle),
		0,
		uintptr(unsafe.Pointer(&previous)),
	)
}

func (d *Driver) Scan(id wifi.InterfaceID) error {
	g := guidFromUUID(id)
	return call(procWlanScan, uintptr(d.handle), uintptr(unsafe.Pointer(&g)), 0, 0, 0)
}

func (d *Driver) Networks(id wifi.InterfaceID) ([]wifi.Network, error) {
	g := guidFromUUID(id)
	var list *listHeader
	err := call(procWlanGetAvailableNetworkList,
		uintptr(d.handle),
		uintptr(unsafe.Pointer(&g)),
		availableNetworkFlags,
		0,
		uintptr(unsafe.Pointer(&list)),
	)
	if err != nil {
		return nil, err
	}
	defer freeMemory(unsafe.Pointer(list))

	items := unsafe.Slice((*availableNetwork)(unsafe.Add(unsafe.Pointer(list), unsafe.Sizeof(*list))), list.NumberOfItems)
	result := make([]wifi.Network, 0, len(items))
	for i := range items {
		result = append(result, items[i].network())
	}
	return result, nil
}

func (d *Driver) BSSList(id wifi.InterfaceID) ([]wifi.BSSEntry, error) {
	g := guidFromUUID(id)
	var list *bssListHeader
	err := call(procWlanGetNetworkBssList,
		uintptr(d.handle),
		uintptr(unsafe.Pointer(&g)),
		0,
		bssTypeAny,
		0,
		0,
		uintptr(unsafe.Pointer(&list)),
	)
	if err != nil {
		return nil, err
	}
	defer freeMemory(unsafe.Pointer(list))

	// Entries are 8 byte aligned and the header is 8 bytes long.
	items := unsafe.Slice((*bssEntry)(unsafe.Add(unsafe.Pointer(list), unsafe.Sizeof(*list))), list.NumberOfItems)
	result := make([]wifi.BSSEntry, 0, len(items))
	for i := range items {
		result = append(result, items[i].entry())
	}
	return result, nil
}

func (d *Driver) Profiles(id wifi.InterfaceID) ([]wifi.ProfileInfo, error) {
	g := guidFromUUID(id)
	var list *listHeader
	err := call(procWlanGetProfileList, uintptr(d.handle), uintptr(unsafe.Pointer(&g)), 0, uintptr(unsafe.Pointer(&list)))
	if err != nil {
		return nil, err
	}
	defer freeMemory(unsafe.Pointer(list))

	items := unsafe.Slice((*profileInfo)(unsafe.Add(unsafe.Pointer(list), unsafe.Sizeof(*list))), list.NumberOfItems)
	result := make([]wifi.ProfileInfo, 0, len(items))
	for i := range items {
		result = append(result, items[i].info())
	}
	return result, nil
}

func (d *Driver) ProfileXML(id wifi.InterfaceID, name string, flags wifi.ProfileFlags) (string, error) {
	g := guidFromUUID(id)
	namePtr, err := windows.UTF16PtrFromString(name)
	if err != nil {
		return "", err
	}

	var doc *uint16
	inOut := uint32(flags)
	var access uint32
	err = call(procWlanGetProfile,
		uintptr(d.handle),
		uintptr(unsafe.Pointer(&g)),
		uintptr(unsafe.Pointer(namePtr)),
		0,
		uintptr(unsafe.Pointer(&doc)),
		uintptr(unsafe.Pointer(&inOut)),
		uintptr(unsafe.Pointer(&access)),
	)
	if err != nil {
		return "", err
	}
	defer freeMemory(unsafe.Pointer(doc))
	return windows.UTF16PtrToString(doc), nil
}

func (d *Driver) SetProfile(id wifi.InterfaceID, flags wifi.ProfileFlags, xml string, overwrite bool) (wifi.ReasonCode, error) {
	g := guidFromUUID(id)
	docPtr, err := windows.UTF16PtrFromString(xml)
	if err != nil {
		return wifi.ReasonSuccess, err
	}

	var replace uintptr
	if overwrite {
		replace = 1
	}
	var reason uint32
	err = call(procWlanSetProfile,
		uintptr(d.handle),
		uintptr(unsafe.Pointer(&g)),
		uintptr(flags),
		uintptr(unsafe.Pointer(docPtr)),
		0,
		replace,
		0,
		uintptr(unsafe.Pointer(&reason)),
	)
	return wifi.ReasonCode(reason), err
}

func (d *Driver) DeleteProfile(id wifi.InterfaceID, name string) error {
	g := guidFromUUID(id)
	namePtr, err := windows.UTF16PtrFromString(name)
	if err != nil {
		return err
	}
	return call(procWlanDeleteProfile, uintptr(d.handle), uintptr(unsafe.Pointer(&g)), uintptr(unsafe.Pointer(namePtr)), 0)
}

func (d *Driver) SetEAPUserData(id wifi.InterfaceID, profile string, xml string) error {
	g := guidFromUUID(id)
	namePtr, err := windows.UTF16PtrFromString(profile)
	if err != nil {
		return err
	}
	docPtr, err := windows.UTF16PtrFromString(xml)
	if err != nil {
		return err
	}
	return call(procWlanSetProfileEapXmlUserData,
		uintptr(d.handle),
		uintptr(unsafe.Pointer(&g)),
		uintptr(unsafe.Pointer(namePtr)),
		0,
		uintptr(unsafe.Pointer(docPtr)),
		0,
	)
}

// Connect starts a connection attempt. For ConnectionModeProfile the
// profile is a stored profile name; for a temporary profile it is the
// document itself.
func (d *Driver) Connect(id wifi.InterfaceID, params wifi.ConnectionParams) error {
	g := guidFromUUID(id)
	profilePtr, err := windows.UTF16PtrFromString(params.Profile)
	if err != nil {
		return err
	}
	cp := connectionParameters{
		Mode:    uint32(params.Mode),
		Profile: profilePtr,
		BSSType: uint32(params.BSSType),
		Flags:   params.Flags,
	}
	if params.SSID != nil {
		ssid := newDot11SSID(*params.SSID)
		cp.SSID = &ssid
	}
	return call(procWlanConnect, uintptr(d.handle), uintptr(unsafe.Pointer(&g)), uintptr(unsafe.Pointer(&cp)), 0)
}

func (d *Driver) Disconnect(id wifi.InterfaceID) error {
	g := guidFromUUID(id)
	return call(procWlanDisconnect, uintptr(d.handle), uintptr(unsafe.Pointer(&g)), 0)
}

// query runs WlanQueryInterface and hands the result to read before the
// buffer is released.
func (d *Driver) query(id wifi.InterfaceID, op wifi.IntOpcode, minSize uintptr, read func(unsafe.Pointer)) error {
	g := guidFromUUID(id)
	var size uint32
	var data unsafe.Pointer
	var valueType uint32
	err := call(procWlanQueryInterface,
		uintptr(d.handle),
		uintptr(unsafe.Pointer(&g)),
		uintptr(op),
		0,
		uintptr(unsafe.Pointer(&size)),
		uintptr(unsafe.Pointer(&data)),
		uintptr(unsafe.Pointer(&valueType)),
	)
	if err != nil {
		return err
	}
	defer freeMemory(data)
	if data == nil || uintptr(size) < minSize {
		return fmt.Errorf("WlanQueryInterface returned %d bytes for opcode %d: %w", size, op, wifi.ErrOperationFailed)
	}
	read(data)
	return nil
}

func (d *Driver) QueryInt(id wifi.InterfaceID, op wifi.IntOpcode) (int32, error) {
	var v int32
	err := d.query(id, op, unsafe.Sizeof(v), func(p unsafe.Pointer) {
		v = *(*int32)(p)
	})
	return v, err
}

func (d *Driver) SetInt(id wifi.InterfaceID, op wifi.IntOpcode, value int32) error {
	g := guidFromUUID(id)
	return call(procWlanSetInterface,
		uintptr(d.handle),
		uintptr(unsafe.Pointer(&g)),
		uintptr(op),
		unsafe.Sizeof(value),
		uintptr(unsafe.Pointer(&value)),
		0,
	)
}

func (d *Driver) CurrentConnection(id wifi.InterfaceID) (wifi.ConnectionAttributes, error) {
	var attrs wifi.ConnectionAttributes
	err := d.query(id, wifi.OpcodeCurrentConnection, unsafe.Sizeof(connectionAttributes{}), func(p unsafe.Pointer) {
		attrs = (*connectionAttributes)(p).attributes()
	})
	return attrs, err
}

func (d *Driver) RadioState(id wifi.InterfaceID) (wifi.RadioState, error) {
	var state wifi.RadioState
	err := d.query(id, wifi.OpcodeRadioState, unsafe.Sizeof(uint32(0)), func(p unsafe.Pointer) {
		state = (*radioState)(p).state()
	})
	return state, err
}

// SetRadio switches the software radio of every PHY.
func (d *Driver) SetRadio(id wifi.InterfaceID, on bool) error {
	current, err := d.RadioState(id)
	if err != nil {
		return err
	}
	want := radioOff
	if on {
		want = radioOn
	}

	g := guidFromUUID(id)
	for _, phy := range current.Phys {
		state := phyRadioState{PhyIndex: phy.PhyIndex, SoftwareState: want}
		err := call(procWlanSetInterface,
			uintptr(d.handle),
			uintptr(unsafe.Pointer(&g)),
			uintptr(wifi.OpcodeRadioState),
			unsafe.Sizeof(state),
			uintptr(unsafe.Pointer(&state)),
			0,
		)
		if err != nil {
			return fmt.Errorf("failed to switch radio of phy %d: %w", phy.PhyIndex, err)
		}
	}
	return nil
}

// Close unregisters from notifications and ends the session.
func (d *Driver) Close() error {
	var previous uint32
	unregisterErr := call(procWlanRegisterNotification,
		uintptr(d.handle), 0, 0, 0, 0, 0,
		uintptr(unsafe.Pointer(&previous)),
	)

	driversMu.Lock()
	delete(drivers, uintptr(d.handle))
	driversMu.Unlock()

	closeErr := call(procWlanCloseHandle, uintptr(d.handle), 0)
	return errors.Join(unregisterErr, closeErr)
}
