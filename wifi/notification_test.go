package wifi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectionNotificationCodec(t *testing.T) {
	t.Parallel()

	in := ConnectionNotification{
		Mode:            ConnectionModeProfile,
		ProfileName:     "Café Wi-Fi",
		SSID:            NewSSID("Café Wi-Fi"),
		BSSType:         BSSTypeInfrastructure,
		SecurityEnabled: true,
		Reason:          ReasonKeyMismatch,
		Flags:           3,
		ProfileXML:      "<WLANProfile/>",
	}

	data := EncodeConnectionNotification(in)
	assert.GreaterOrEqual(t, len(data), ConnectionNotificationSize)

	out, ok := DecodeConnectionNotification(data)
	require.True(t, ok)
	assert.Equal(t, in, out)
}

func TestDecodeConnectionNotification_Short(t *testing.T) {
	t.Parallel()

	_, ok := DecodeConnectionNotification(make([]byte, ConnectionNotificationSize-1))
	assert.False(t, ok)

	_, ok = DecodeConnectionNotification(nil)
	assert.False(t, ok)
}

func TestDecodeConnectionNotification_FixedPartOnly(t *testing.T) {
	t.Parallel()

	data := EncodeConnectionNotification(ConnectionNotification{ProfileName: "Home", SSID: NewSSID("Home")})
	out, ok := DecodeConnectionNotification(data[:ConnectionNotificationSize])
	require.True(t, ok)
	assert.Equal(t, "Home", out.ProfileName)
	assert.Equal(t, "", out.ProfileXML)
}

func TestConnectionNotificationSize(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 568, ConnectionNotificationSize)
}

func TestNotificationNames(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "acm/scan_complete", Notification{Source: SourceACM, Code: uint32(ACMScanComplete)}.String())
	assert.Equal(t, "msm/connected", Notification{Source: SourceMSM, Code: uint32(MSMConnected)}.String())
	assert.Equal(t, "operational_state_change", ACMOperationalStateChange.String())
	assert.Equal(t, "link_improved", MSMLinkImproved.String())
	assert.Equal(t, "acm(99)", ACMCode(99).String())
	assert.Equal(t, "onex/7", Notification{Source: SourceOneX, Code: 7}.String())
}

func TestReasonCodes(t *testing.T) {
	t.Parallel()

	assert.Equal(t, ReasonCode(0x2800D), ReasonKeyMismatch)
	assert.Equal(t, ReasonCode(0x38012), ReasonTooManySecurityAttempts)
	assert.Equal(t, ReasonCode(0x80014), ReasonTooManySSID)
	assert.Equal(t, ReasonCode(0x30005), ReasonDatarateUnmatch)
	assert.True(t, ReasonKeyMismatch.Known())
	assert.False(t, ReasonCode(0x12345).Known())
	assert.Equal(t, "key mismatch", ReasonKeyMismatch.String())
	assert.Equal(t, "reason 0x12345", ReasonCode(0x12345).String())
}

func TestEventKinds(t *testing.T) {
	t.Parallel()

	n := Notification{Source: SourceACM, Code: uint32(ACMScanFail)}
	events := []Event{
		n,
		ConnectionEvent{Notification: n},
		ReasonEvent{Notification: n, Reason: ReasonScanCallFail},
	}
	for _, e := range events {
		assert.Equal(t, n, e.Raw())
	}
}
