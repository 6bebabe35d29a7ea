// Package wlanapi implements wifi.Driver on top of the Native Wifi API in
// wlanapi.dll. The driver itself is only built on Windows.
package wlanapi

import (
	"encoding/binary"
	"unicode/utf16"

	"github.com/google/uuid"

	"github.com/shazow/wifictl/wifi"
)

// Memory layouts of the records wlanapi.dll hands out. They contain no
// pointers, so they are the same on every architecture.

// guid has the layout of a Windows GUID.
type guid struct {
	Data1 uint32
	Data2 uint16
	Data3 uint16
	Data4 [8]byte
}

// guidFromUUID converts an interface ID into a GUID. The first three GUID
// fields are stored little endian but printed big endian, which is the byte
// order of the uuid.
func guidFromUUID(id uuid.UUID) guid {
	g := guid{
		Data1: binary.BigEndian.Uint32(id[0:4]),
		Data2: binary.BigEndian.Uint16(id[4:6]),
		Data3: binary.BigEndian.Uint16(id[6:8]),
	}
	copy(g.Data4[:], id[8:])
	return g
}

func (g guid) uuid() uuid.UUID {
	var id uuid.UUID
	binary.BigEndian.PutUint32(id[0:4], g.Data1)
	binary.BigEndian.PutUint16(id[4:6], g.Data2)
	binary.BigEndian.PutUint16(id[6:8], g.Data3)
	copy(id[8:], g.Data4[:])
	return id
}

// utf16String decodes a NUL terminated UTF-16 buffer.
func utf16String(b []uint16) string {
	for i, c := range b {
		if c == 0 {
			b = b[:i]
			break
		}
	}
	return string(utf16.Decode(b))
}

func boolValue(v int32) bool {
	return v != 0
}

// listHeader precedes the items of every list the API returns.
type listHeader struct {
	NumberOfItems uint32
	Index         uint32
}

type dot11SSID struct {
	Length uint32
	SSID   [wifi.MaxSSIDLength]byte
}

func newDot11SSID(s wifi.SSID) dot11SSID {
	return dot11SSID{Length: s.Length, SSID: s.Bytes}
}

func (s dot11SSID) ssid() wifi.SSID {
	return wifi.SSID{Length: s.Length, Bytes: s.SSID}
}

// interfaceInfo is WLAN_INTERFACE_INFO.
type interfaceInfo struct {
	GUID        guid
	Description [256]uint16
	State       uint32
}

func (i *interfaceInfo) info() wifi.InterfaceInfo {
	return wifi.InterfaceInfo{
		ID:          i.GUID.uuid(),
		Description: utf16String(i.Description[:]),
		State:       wifi.InterfaceState(i.State),
	}
}

// availableNetwork is WLAN_AVAILABLE_NETWORK.
type availableNetwork struct {
	ProfileName          [256]uint16
	SSID                 dot11SSID
	BSSType              uint32
	NumberOfBSSIDs       uint32
	Connectable          int32
	NotConnectableReason uint32
	NumberOfPhyTypes     uint32
	PhyTypes             [8]uint32
	MorePhyTypes         int32
	SignalQuality        uint32
	SecurityEnabled      int32
	AuthAlgorithm        uint32
	CipherAlgorithm      uint32
	Flags                uint32
	Reserved             uint32
}

func (n *availableNetwork) network() wifi.Network {
	return wifi.Network{
		ProfileName:          utf16String(n.ProfileName[:]),
		SSID:                 n.SSID.ssid(),
		BSSType:              wifi.BSSType(n.BSSType),
		NumberOfBSSIDs:       n.NumberOfBSSIDs,
		Connectable:          boolValue(n.Connectable),
		NotConnectableReason: wifi.ReasonCode(n.NotConnectableReason),
		SignalQuality:        n.SignalQuality,
		SecurityEnabled:      boolValue(n.SecurityEnabled),
		AuthAlgorithm:        wifi.AuthAlgorithm(n.AuthAlgorithm),
		CipherAlgorithm:      wifi.CipherAlgorithm(n.CipherAlgorithm),
		Flags:                wifi.NetworkFlags(n.Flags),
	}
}

// bssEntry is WLAN_BSS_ENTRY. The 64-bit timestamps are split in two so the
// struct keeps its layout on 32-bit platforms too.
type bssEntry struct {
	SSID              dot11SSID
	PhyID             uint32
	BSSID             [6]byte
	BSSType           uint32
	PhyType           uint32
	RSSI              int32
	LinkQuality       uint32
	InRegDomain       uint8
	BeaconPeriod      uint16
	_                 [4]byte
	Timestamp         [2]uint32
	HostTimestamp     [2]uint32
	Capability        uint16
	ChCenterFrequency uint32
	RateSet           struct {
		Length uint32
		Rates  [126]uint16
	}
	IEOffset uint32
	IESize   uint32
}

func (e *bssEntry) entry() wifi.BSSEntry {
	return wifi.BSSEntry{
		SSID:            e.SSID.ssid(),
		BSSID:           e.BSSID,
		BSSType:         wifi.BSSType(e.BSSType),
		PhyType:         e.PhyType,
		RSSI:            e.RSSI,
		LinkQuality:     e.LinkQuality,
		InRegDomain:     e.InRegDomain != 0,
		BeaconPeriod:    e.BeaconPeriod,
		Capability:      e.Capability,
		CenterFrequency: e.ChCenterFrequency,
	}
}

// bssListHeader precedes the entries of a WLAN_BSS_LIST.
type bssListHeader struct {
	TotalSize     uint32
	NumberOfItems uint32
}

// profileInfo is WLAN_PROFILE_INFO.
type profileInfo struct {
	Name  [256]uint16
	Flags uint32
}

func (p *profileInfo) info() wifi.ProfileInfo {
	return wifi.ProfileInfo{Name: utf16String(p.Name[:]), Flags: wifi.ProfileFlags(p.Flags)}
}

// connectionAttributes is WLAN_CONNECTION_ATTRIBUTES.
type connectionAttributes struct {
	State       uint32
	Mode        uint32
	ProfileName [256]uint16
	Association struct {
		SSID          dot11SSID
		BSSType       uint32
		BSSID         [6]byte
		PhyType       uint32
		PhyIndex      uint32
		SignalQuality uint32
		RxRate        uint32
		TxRate        uint32
	}
	Security struct {
		SecurityEnabled int32
		OneXEnabled     int32
		AuthAlgorithm   uint32
		CipherAlgorithm uint32
	}
}

func (a *connectionAttributes) attributes() wifi.ConnectionAttributes {
	return wifi.ConnectionAttributes{
		State:           wifi.InterfaceState(a.State),
		Mode:            wifi.ConnectionMode(a.Mode),
		ProfileName:     utf16String(a.ProfileName[:]),
		SSID:            a.Association.SSID.ssid(),
		BSSType:         wifi.BSSType(a.Association.BSSType),
		BSSID:           a.Association.BSSID,
		PhyType:         a.Association.PhyType,
		SignalQuality:   a.Association.SignalQuality,
		RxRate:          a.Association.RxRate,
		TxRate:          a.Association.TxRate,
		SecurityEnabled: boolValue(a.Security.SecurityEnabled),
		OneXEnabled:     boolValue(a.Security.OneXEnabled),
		AuthAlgorithm:   wifi.AuthAlgorithm(a.Security.AuthAlgorithm),
		CipherAlgorithm: wifi.CipherAlgorithm(a.Security.CipherAlgorithm),
	}
}

// DOT11_RADIO_STATE values.
const (
	radioOn  uint32 = 1
	radioOff uint32 = 2
)

type phyRadioState struct {
	PhyIndex      uint32
	SoftwareState uint32
	HardwareState uint32
}

// radioState is WLAN_RADIO_STATE.
type radioState struct {
	NumberOfPhys uint32
	Phys         [64]phyRadioState
}

func (r *radioState) state() wifi.RadioState {
	n := r.NumberOfPhys
	if n > uint32(len(r.Phys)) {
		n = uint32(len(r.Phys))
	}
	state := wifi.RadioState{Phys: make([]wifi.PhyRadioState, 0, n)}
	for _, p := range r.Phys[:n] {
		state.Phys = append(state.Phys, wifi.PhyRadioState{
			PhyIndex:   p.PhyIndex,
			SoftwareOn: p.SoftwareState == radioOn,
			HardwareOn: p.HardwareState == radioOn,
		})
	}
	return state
}
