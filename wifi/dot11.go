package wifi

import (
	"encoding/hex"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

// InterfaceID is the platform GUID of a wireless interface, kept in RFC 4122
// byte order so that its String form matches the platform's textual GUID.
type InterfaceID = uuid.UUID

// MaxSSIDLength is the largest SSID the 802.11 standard allows, in bytes.
const MaxSSIDLength = 32

// SSID is a raw 802.11 network name. The bytes are not guaranteed to be UTF-8.
type SSID struct {
	Length uint32
	Bytes  [MaxSSIDLength]byte
}

// NewSSID builds an SSID from a name, truncating it to MaxSSIDLength bytes.
func NewSSID(name string) SSID {
	var s SSID
	s.Length = uint32(copy(s.Bytes[:], name))
	return s
}

func (s SSID) raw() []byte {
	n := s.Length
	if n > MaxSSIDLength {
		n = MaxSSIDLength
	}
	return s.Bytes[:n]
}

// String returns the SSID decoded as UTF-8, with invalid sequences replaced.
func (s SSID) String() string {
	b := s.raw()
	if utf8.Valid(b) {
		return string(b)
	}
	return strings.ToValidUTF8(string(b), "�")
}

// Hex returns the SSID bytes as upper case hexadecimal, the form profile
// documents use for the SSID hex element.
func (s SSID) Hex() string {
	return strings.ToUpper(hex.EncodeToString(s.raw()))
}

// Equal reports whether both SSIDs hold the same bytes.
func (s SSID) Equal(other SSID) bool {
	return string(s.raw()) == string(other.raw())
}

// BSSType is the 802.11 basic service set type of a network.
type BSSType uint32

const (
	BSSTypeInfrastructure BSSType = 1
	BSSTypeIndependent    BSSType = 2
	BSSTypeAny            BSSType = 3
)

func (t BSSType) String() string {
	switch t {
	case BSSTypeInfrastructure:
		return "infrastructure"
	case BSSTypeIndependent:
		return "independent"
	case BSSTypeAny:
		return "any"
	default:
		return fmt.Sprintf("BSSType(%d)", uint32(t))
	}
}

// AuthAlgorithm is the 802.11 authentication algorithm a network advertises.
type AuthAlgorithm uint32

const (
	AuthOpen       AuthAlgorithm = 1
	AuthSharedKey  AuthAlgorithm = 2
	AuthWPA        AuthAlgorithm = 3
	AuthWPAPSK     AuthAlgorithm = 4
	AuthWPANone    AuthAlgorithm = 5
	AuthRSNA       AuthAlgorithm = 6
	AuthRSNAPSK    AuthAlgorithm = 7
	AuthWPA3Ent192 AuthAlgorithm = 8
	AuthWPA3SAE    AuthAlgorithm = 9
	AuthOWE        AuthAlgorithm = 10
	AuthWPA3Ent    AuthAlgorithm = 11
)

var authAlgorithmNames = map[AuthAlgorithm]string{
	AuthOpen:       "Open",
	AuthSharedKey:  "SharedKey",
	AuthWPA:        "WPA",
	AuthWPAPSK:     "WPA-PSK",
	AuthWPANone:    "WPA-None",
	AuthRSNA:       "RSNA",
	AuthRSNAPSK:    "RSNA-PSK",
	AuthWPA3Ent192: "WPA3-Enterprise-192",
	AuthWPA3SAE:    "WPA3-SAE",
	AuthOWE:        "OWE",
	AuthWPA3Ent:    "WPA3-Enterprise",
}

func (a AuthAlgorithm) String() string {
	if name, ok := authAlgorithmNames[a]; ok {
		return name
	}
	return fmt.Sprintf("AuthAlgorithm(%d)", uint32(a))
}

// IsEnterprise reports whether the algorithm authenticates through 802.1X.
func (a AuthAlgorithm) IsEnterprise() bool {
	switch a {
	case AuthWPA, AuthRSNA, AuthWPA3Ent192, AuthWPA3Ent:
		return true
	}
	return false
}

// CipherAlgorithm is the 802.11 cipher a network uses to encrypt frames.
type CipherAlgorithm uint32

const (
	CipherNone        CipherAlgorithm = 0x00
	CipherWEP40       CipherAlgorithm = 0x01
	CipherTKIP        CipherAlgorithm = 0x02
	CipherCCMP        CipherAlgorithm = 0x04
	CipherWEP104      CipherAlgorithm = 0x05
	CipherBIP         CipherAlgorithm = 0x06
	CipherGCMP        CipherAlgorithm = 0x08
	CipherGCMP256     CipherAlgorithm = 0x09
	CipherCCMP256     CipherAlgorithm = 0x0a
	CipherWPAUseGroup CipherAlgorithm = 0x100
	CipherWEP         CipherAlgorithm = 0x101
)

var cipherAlgorithmNames = map[CipherAlgorithm]string{
	CipherNone:        "None",
	CipherWEP40:       "WEP40",
	CipherTKIP:        "TKIP",
	CipherCCMP:        "CCMP",
	CipherWEP104:      "WEP104",
	CipherBIP:         "BIP",
	CipherGCMP:        "GCMP",
	CipherGCMP256:     "GCMP-256",
	CipherCCMP256:     "CCMP-256",
	CipherWPAUseGroup: "UseGroup",
	CipherWEP:         "WEP",
}

func (c CipherAlgorithm) String() string {
	if name, ok := cipherAlgorithmNames[c]; ok {
		return name
	}
	return fmt.Sprintf("CipherAlgorithm(%d)", uint32(c))
}

// IsWEP reports whether the cipher is one of the WEP variants.
func (c CipherAlgorithm) IsWEP() bool {
	return c == CipherWEP || c == CipherWEP40 || c == CipherWEP104
}

// ConnectionMode selects how a connection request finds its settings.
type ConnectionMode uint32

const (
	ConnectionModeProfile           ConnectionMode = 0
	ConnectionModeTemporaryProfile  ConnectionMode = 1
	ConnectionModeDiscoverySecure   ConnectionMode = 2
	ConnectionModeDiscoveryUnsecure ConnectionMode = 3
	ConnectionModeAuto              ConnectionMode = 4
)

func (m ConnectionMode) String() string {
	switch m {
	case ConnectionModeProfile:
		return "profile"
	case ConnectionModeTemporaryProfile:
		return "temporary_profile"
	case ConnectionModeDiscoverySecure:
		return "discovery_secure"
	case ConnectionModeDiscoveryUnsecure:
		return "discovery_unsecure"
	case ConnectionModeAuto:
		return "auto"
	default:
		return fmt.Sprintf("ConnectionMode(%d)", uint32(m))
	}
}

// InterfaceState is the connection state of a wireless interface.
type InterfaceState uint32

const (
	InterfaceNotReady           InterfaceState = 0
	InterfaceConnected          InterfaceState = 1
	InterfaceAdHocNetworkFormed InterfaceState = 2
	InterfaceDisconnecting      InterfaceState = 3
	InterfaceDisconnected       InterfaceState = 4
	InterfaceAssociating        InterfaceState = 5
	InterfaceDiscovering        InterfaceState = 6
	InterfaceAuthenticating     InterfaceState = 7
)

func (s InterfaceState) String() string {
	switch s {
	case InterfaceNotReady:
		return "not ready"
	case InterfaceConnected:
		return "connected"
	case InterfaceAdHocNetworkFormed:
		return "ad hoc network formed"
	case InterfaceDisconnecting:
		return "disconnecting"
	case InterfaceDisconnected:
		return "disconnected"
	case InterfaceAssociating:
		return "associating"
	case InterfaceDiscovering:
		return "discovering"
	case InterfaceAuthenticating:
		return "authenticating"
	default:
		return fmt.Sprintf("InterfaceState(%d)", uint32(s))
	}
}

// IntOpcode identifies an interface property for QueryInt and SetInt.
type IntOpcode uint32

const (
	OpcodeAutoconfEnabled       IntOpcode = 1
	OpcodeBackgroundScanEnabled IntOpcode = 2
	OpcodeMediaStreamingMode    IntOpcode = 3
	OpcodeRadioState            IntOpcode = 4
	OpcodeBSSType               IntOpcode = 5
	OpcodeInterfaceState        IntOpcode = 6
	OpcodeCurrentConnection     IntOpcode = 7
	OpcodeChannelNumber         IntOpcode = 8
	OpcodeCurrentOperationMode  IntOpcode = 12
	OpcodeStatistics            IntOpcode = 0x10000101
	OpcodeRSSI                  IntOpcode = 0x10000102
)

// ProfileFlags are passed to profile reads and writes.
type ProfileFlags uint32

const (
	ProfileAllUser         ProfileFlags = 0
	ProfileGroupPolicy     ProfileFlags = 1
	ProfileUser            ProfileFlags = 2
	ProfileGetPlaintextKey ProfileFlags = 4
)

// NetworkFlags describe an available network entry.
type NetworkFlags uint32

const (
	NetworkConnected          NetworkFlags = 1
	NetworkHasProfile         NetworkFlags = 2
	NetworkConsoleUserProfile NetworkFlags = 4
)

// InterfaceInfo is what enumeration reports about an interface.
type InterfaceInfo struct {
	ID          InterfaceID
	Description string
	State       InterfaceState
}

// Network is one entry of an interface's available network list. The platform
// reports a network once per matching profile plus once without a profile.
type Network struct {
	ProfileName          string
	SSID                 SSID
	BSSType              BSSType
	NumberOfBSSIDs       uint32
	Connectable          bool
	NotConnectableReason ReasonCode
	SignalQuality        uint32 // 0-100
	SecurityEnabled      bool
	AuthAlgorithm        AuthAlgorithm
	CipherAlgorithm      CipherAlgorithm
	Flags                NetworkFlags
}

// Connected reports whether the interface is connected to this entry.
func (n Network) Connected() bool {
	return n.Flags&NetworkConnected != 0
}

// BSSEntry is a single basic service set seen by the last scan.
type BSSEntry struct {
	SSID            SSID
	BSSID           [6]byte
	BSSType         BSSType
	PhyType         uint32
	RSSI            int32 // dBm
	LinkQuality     uint32
	InRegDomain     bool
	BeaconPeriod    uint16
	Capability      uint16
	CenterFrequency uint32 // kHz
}

// BSSIDString formats the BSSID as a colon separated MAC address.
func (b BSSEntry) BSSIDString() string {
	return fmt.Sprintf("%02X:%02X:%02X:%02X:%02X:%02X", b.BSSID[0], b.BSSID[1], b.BSSID[2], b.BSSID[3], b.BSSID[4], b.BSSID[5])
}

// ProfileInfo is one entry of an interface's profile list.
type ProfileInfo struct {
	Name  string
	Flags ProfileFlags
}

// ConnectionParams is a connection request handed to the driver.
type ConnectionParams struct {
	Mode    ConnectionMode
	Profile string
	SSID    *SSID
	BSSType BSSType
	Flags   uint32
}

// ConnectionAttributes describe the current connection of an interface.
type ConnectionAttributes struct {
	State           InterfaceState
	Mode            ConnectionMode
	ProfileName     string
	SSID            SSID
	BSSType         BSSType
	BSSID           [6]byte
	PhyType         uint32
	SignalQuality   uint32
	RxRate          uint32 // kbps
	TxRate          uint32 // kbps
	SecurityEnabled bool
	OneXEnabled     bool
	AuthAlgorithm   AuthAlgorithm
	CipherAlgorithm CipherAlgorithm
}

// PhyRadioState is the radio state of one PHY of an interface.
type PhyRadioState struct {
	PhyIndex   uint32
	SoftwareOn bool
	HardwareOn bool
}

// RadioState is the radio state of every PHY of an interface.
type RadioState struct {
	Phys []PhyRadioState
}

// On reports whether any PHY has both its software and hardware radio on.
func (r RadioState) On() bool {
	for _, p := range r.Phys {
		if p.SoftwareOn && p.HardwareOn {
			return true
		}
	}
	return false
}
