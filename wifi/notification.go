package wifi

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"golang.org/x/text/encoding/unicode"
)

// NotificationSource is the platform component that raised a notification.
type NotificationSource uint32

const (
	SourceNone     NotificationSource = 0
	SourceOneX     NotificationSource = 0x04
	SourceACM      NotificationSource = 0x08
	SourceMSM      NotificationSource = 0x10
	SourceSecurity NotificationSource = 0x20
	SourceIHV      NotificationSource = 0x40
	SourceHNWK     NotificationSource = 0x80
	SourceAll      NotificationSource = 0xFFFF
)

func (s NotificationSource) String() string {
	switch s {
	case SourceNone:
		return "none"
	case SourceOneX:
		return "onex"
	case SourceACM:
		return "acm"
	case SourceMSM:
		return "msm"
	case SourceSecurity:
		return "security"
	case SourceIHV:
		return "ihv"
	case SourceHNWK:
		return "hnwk"
	case SourceAll:
		return "all"
	default:
		return fmt.Sprintf("source 0x%x", uint32(s))
	}
}

// ACMCode is a notification code raised by the auto configuration module.
type ACMCode uint32

const (
	ACMAutoconfEnabled ACMCode = iota + 1
	ACMAutoconfDisabled
	ACMBackgroundScanEnabled
	ACMBackgroundScanDisabled
	ACMBSSTypeChange
	ACMPowerSettingChange
	ACMScanComplete
	ACMScanFail
	ACMConnectionStart
	ACMConnectionComplete
	ACMConnectionAttemptFail
	ACMFilterListChange
	ACMInterfaceArrival
	ACMInterfaceRemoval
	ACMProfileChange
	ACMProfileNameChange
	ACMProfilesExhausted
	ACMNetworkNotAvailable
	ACMNetworkAvailable
	ACMDisconnecting
	ACMDisconnected
	ACMAdhocNetworkStateChange
	ACMProfileUnblocked
	ACMScreenPowerChange
	ACMProfileBlocked
	ACMScanListRefresh
	ACMOperationalStateChange
)

var acmCodeNames = [...]string{
	"autoconf_enabled", "autoconf_disabled", "background_scan_enabled",
	"background_scan_disabled", "bss_type_change", "power_setting_change",
	"scan_complete", "scan_fail", "connection_start", "connection_complete",
	"connection_attempt_fail", "filter_list_change", "interface_arrival",
	"interface_removal", "profile_change", "profile_name_change",
	"profiles_exhausted", "network_not_available", "network_available",
	"disconnecting", "disconnected", "adhoc_network_state_change",
	"profile_unblocked", "screen_power_change", "profile_blocked",
	"scan_list_refresh", "operational_state_change",
}

func (c ACMCode) String() string {
	if c >= 1 && int(c) <= len(acmCodeNames) {
		return acmCodeNames[c-1]
	}
	return fmt.Sprintf("acm(%d)", uint32(c))
}

// MSMCode is a notification code raised by the media specific module.
type MSMCode uint32

const (
	MSMAssociating MSMCode = iota + 1
	MSMAssociated
	MSMAuthenticating
	MSMConnected
	MSMRoamingStart
	MSMRoamingEnd
	MSMRadioStateChange
	MSMSignalQualityChange
	MSMDisassociating
	MSMDisconnected
	MSMPeerJoin
	MSMPeerLeave
	MSMAdapterRemoval
	MSMAdapterOperationModeChange
	MSMLinkDegraded
	MSMLinkImproved
)

var msmCodeNames = [...]string{
	"associating", "associated", "authenticating", "connected",
	"roaming_start", "roaming_end", "radio_state_change",
	"signal_quality_change", "disassociating", "disconnected", "peer_join",
	"peer_leave", "adapter_removal", "adapter_operation_mode_change",
	"link_degraded", "link_improved",
}

func (c MSMCode) String() string {
	if c >= 1 && int(c) <= len(msmCodeNames) {
		return msmCodeNames[c-1]
	}
	return fmt.Sprintf("msm(%d)", uint32(c))
}

// Notification is a raw notification as the driver delivered it. Data is
// owned by the receiver.
type Notification struct {
	Source      NotificationSource
	Code        uint32
	InterfaceID InterfaceID
	Data        []byte
}

// CodeString names the code within its source.
func (n Notification) CodeString() string {
	switch n.Source {
	case SourceACM:
		return ACMCode(n.Code).String()
	case SourceMSM:
		return MSMCode(n.Code).String()
	}
	return fmt.Sprintf("%d", n.Code)
}

func (n Notification) String() string {
	return fmt.Sprintf("%s/%s", n.Source, n.CodeString())
}

// IsACM reports whether n was raised by the ACM with the given code.
func (n Notification) IsACM(code ACMCode) bool {
	return n.Source == SourceACM && ACMCode(n.Code) == code
}

// IsMSM reports whether n was raised by the MSM with the given code.
func (n Notification) IsMSM(code MSMCode) bool {
	return n.Source == SourceMSM && MSMCode(n.Code) == code
}

// carriesConnectionData reports whether the payload of n is a connection
// notification record.
func (n Notification) carriesConnectionData() bool {
	switch n.Source {
	case SourceMSM:
		switch MSMCode(n.Code) {
		case MSMAssociating, MSMAssociated, MSMAuthenticating, MSMConnected,
			MSMRoamingStart, MSMRoamingEnd, MSMDisassociating, MSMDisconnected,
			MSMPeerJoin, MSMPeerLeave, MSMAdapterRemoval:
			return true
		}
	case SourceACM:
		switch ACMCode(n.Code) {
		case ACMConnectionStart, ACMConnectionComplete, ACMConnectionAttemptFail,
			ACMDisconnecting, ACMDisconnected:
			return true
		}
	}
	return false
}

// ConnectionNotification is the payload of connection related notifications.
type ConnectionNotification struct {
	Mode            ConnectionMode
	ProfileName     string
	SSID            SSID
	BSSType         BSSType
	SecurityEnabled bool
	Reason          ReasonCode
	Flags           uint32
	ProfileXML      string
}

const (
	profileNameChars = 256
	// ConnectionNotificationSize is the size of the fixed part of an encoded
	// ConnectionNotification. The optional profile document follows it.
	ConnectionNotificationSize = 4 + profileNameChars*2 + 4 + MaxSSIDLength + 4 + 4 + 4 + 4
)

var utf16le = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// decodeUTF16 decodes little endian UTF-16 up to the first NUL.
func decodeUTF16(b []byte) string {
	for i := 0; i+1 < len(b); i += 2 {
		if b[i] == 0 && b[i+1] == 0 {
			b = b[:i]
			break
		}
	}
	if len(b)%2 != 0 {
		b = b[:len(b)-1]
	}
	out, err := utf16le.NewDecoder().Bytes(b)
	if err != nil {
		return ""
	}
	return string(out)
}

// encodeUTF16 encodes s as little endian UTF-16 into exactly size bytes,
// truncating and NUL padding as needed. A size of zero means no limit.
func encodeUTF16(s string, size int) []byte {
	out, err := utf16le.NewEncoder().Bytes([]byte(s))
	if err != nil {
		out = nil
	}
	if size == 0 {
		return out
	}
	buf := make([]byte, size)
	// Leave room for the terminator.
	copy(buf[:size-2], out)
	return buf
}

// DecodeConnectionNotification decodes a connection notification payload. It
// reports false when data is too short to hold one.
func DecodeConnectionNotification(data []byte) (ConnectionNotification, bool) {
	var cn ConnectionNotification
	if len(data) < ConnectionNotificationSize {
		return cn, false
	}

	le := binary.LittleEndian
	off := 0
	cn.Mode = ConnectionMode(le.Uint32(data[off:]))
	off += 4
	cn.ProfileName = decodeUTF16(data[off : off+profileNameChars*2])
	off += profileNameChars * 2
	cn.SSID.Length = le.Uint32(data[off:])
	off += 4
	copy(cn.SSID.Bytes[:], data[off:off+MaxSSIDLength])
	off += MaxSSIDLength
	cn.BSSType = BSSType(le.Uint32(data[off:]))
	off += 4
	cn.SecurityEnabled = le.Uint32(data[off:]) != 0
	off += 4
	cn.Reason = ReasonCode(le.Uint32(data[off:]))
	off += 4
	cn.Flags = le.Uint32(data[off:])
	off += 4

	if off < len(data) {
		cn.ProfileXML = decodeUTF16(data[off:])
	}
	return cn, true
}

// EncodeConnectionNotification is the inverse of DecodeConnectionNotification.
func EncodeConnectionNotification(cn ConnectionNotification) []byte {
	var buf bytes.Buffer
	le := binary.LittleEndian
	var word [4]byte

	put := func(v uint32) {
		le.PutUint32(word[:], v)
		buf.Write(word[:])
	}

	put(uint32(cn.Mode))
	buf.Write(encodeUTF16(cn.ProfileName, profileNameChars*2))
	put(cn.SSID.Length)
	buf.Write(cn.SSID.Bytes[:])
	put(uint32(cn.BSSType))
	if cn.SecurityEnabled {
		put(1)
	} else {
		put(0)
	}
	put(uint32(cn.Reason))
	put(cn.Flags)
	buf.Write(encodeUTF16(cn.ProfileXML, 0))
	buf.Write([]byte{0, 0})
	return buf.Bytes()
}

// Event is delivered to interface subscribers. It is one of Notification,
// ConnectionEvent or ReasonEvent.
type Event interface {
	Raw() Notification
	isEvent()
}

// Raw returns the notification itself.
func (n Notification) Raw() Notification { return n }

func (Notification) isEvent() {}

// ConnectionEvent is a notification that carried a connection record.
type ConnectionEvent struct {
	Notification
	Connection ConnectionNotification
}

// ReasonEvent is a scan failure notification that carried a reason code.
type ReasonEvent struct {
	Notification
	Reason ReasonCode
}
