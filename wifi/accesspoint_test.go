package wifi

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	openNetwork       = Network{SSID: NewSSID("Cafe"), BSSType: BSSTypeInfrastructure, AuthAlgorithm: AuthOpen, CipherAlgorithm: CipherNone}
	personalNetwork   = Network{SSID: NewSSID("Home"), BSSType: BSSTypeInfrastructure, SecurityEnabled: true, AuthAlgorithm: AuthRSNAPSK, CipherAlgorithm: CipherCCMP}
	enterpriseNetwork = Network{SSID: NewSSID("Corp"), BSSType: BSSTypeInfrastructure, SecurityEnabled: true, AuthAlgorithm: AuthRSNA, CipherAlgorithm: CipherCCMP}
	wepNetwork        = Network{SSID: NewSSID("Retro"), BSSType: BSSTypeInfrastructure, SecurityEnabled: true, AuthAlgorithm: AuthOpen, CipherAlgorithm: CipherWEP}
)

// connectingDriver returns a fake driver that reports every connection
// attempt as successful.
func connectingDriver(networks ...Network) (*fakeDriver, InterfaceID) {
	id := newID()
	d := newFakeDriver(id)
	d.networks[id] = networks
	d.onConnect = func(id InterfaceID, params ConnectionParams) {
		d.emitConnection(id, SourceMSM, uint32(MSMConnected), params.Profile)
	}
	return d, id
}

func accessPoint(t *testing.T, c *Client, ssid string) *AccessPoint {
	t.Helper()
	ap, err := c.AccessPoint(ssid)
	require.NoError(t, err)
	return ap
}

func TestNewAuthRequest(t *testing.T) {
	t.Parallel()

	d, _ := connectingDriver(openNetwork, personalNetwork, enterpriseNetwork, wepNetwork)
	c := newTestClient(t, d)

	tests := []struct {
		ssid                       string
		password, username, domain bool
	}{
		{"Cafe", false, false, false},
		{"Home", true, false, false},
		{"Corp", true, true, true},
		{"Retro", true, false, false},
	}
	for _, tt := range tests {
		req := NewAuthRequest(accessPoint(t, c, tt.ssid))
		assert.Equal(t, tt.password, req.PasswordRequired, "%s password", tt.ssid)
		assert.Equal(t, tt.username, req.UsernameRequired, "%s username", tt.ssid)
		assert.Equal(t, tt.domain, req.DomainSupported, "%s domain", tt.ssid)
	}

	open := NewAuthRequest(accessPoint(t, c, "Cafe"))
	assert.True(t, open.IsPasswordValid())

	wep := NewAuthRequest(accessPoint(t, c, "Retro"))
	wep.Password = "abcdef0123"
	assert.False(t, wep.IsPasswordValid())
	wep.Password = "ABCDEF0123"
	assert.True(t, wep.IsPasswordValid())

	// The cipher decides even when security is reported off.
	unsecured := &AuthRequest{network: Network{SSID: NewSSID("Odd"), CipherAlgorithm: CipherCCMP}, Password: "short"}
	assert.False(t, unsecured.PasswordRequired)
	assert.False(t, unsecured.IsPasswordValid())
	unsecured.Password = "long enough"
	assert.True(t, unsecured.IsPasswordValid())
}

func TestConnect_NewProfile(t *testing.T) {
	t.Parallel()

	d, id := connectingDriver(personalNetwork)
	c := newTestClient(t, d)
	ap := accessPoint(t, c, "Home")
	assert.False(t, ap.HasProfile())

	req := NewAuthRequest(ap)
	req.Password = "hunter22"
	ok, err := ap.Connect(context.Background(), req, false)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, ap.HasProfile())

	require.Len(t, d.profiles[id], 1)
	p := ParseProfile(d.profiles[id][0].xml)
	require.NotNil(t, p)
	assert.Equal(t, "hunter22", p.Key())
	assert.Equal(t, "Home", d.connects[0].Profile)
	assert.Equal(t, StatusConnected, c.Status())
}

func TestConnect_InvalidPasswordTouchesNothing(t *testing.T) {
	t.Parallel()

	d, id := connectingDriver(personalNetwork)
	c := newTestClient(t, d)
	ap := accessPoint(t, c, "Home")

	req := NewAuthRequest(ap)
	req.Password = "short"
	ok, err := ap.Connect(context.Background(), req, false)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, d.profiles[id])
	assert.Empty(t, d.connects)

	ok, err = req.Process()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, d.profiles[id])
}

func TestConnect_ReusesExistingProfile(t *testing.T) {
	t.Parallel()

	d, id := connectingDriver(personalNetwork)
	existing, err := GenerateProfile(personalNetwork, "original")
	require.NoError(t, err)
	d.profiles[id] = []storedProfile{{name: "Home", xml: existing}}
	c := newTestClient(t, d)
	ap := accessPoint(t, c, "Home")

	// The password is not looked at when the stored profile is reused.
	req := NewAuthRequest(ap)
	ok, err := ap.Connect(context.Background(), req, false)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, existing, d.profiles[id][0].xml)
}

func TestConnect_OverwritesProfile(t *testing.T) {
	t.Parallel()

	d, id := connectingDriver(personalNetwork)
	existing, err := GenerateProfile(personalNetwork, "original")
	require.NoError(t, err)
	d.profiles[id] = []storedProfile{{name: "Home", xml: existing}}
	c := newTestClient(t, d)
	ap := accessPoint(t, c, "Home")

	req := NewAuthRequest(ap)
	req.Password = "replacement"
	ok, err := ap.Connect(context.Background(), req, true)
	require.NoError(t, err)
	assert.True(t, ok)

	require.Len(t, d.profiles[id], 1)
	assert.Equal(t, "replacement", ParseProfile(d.profiles[id][0].xml).Key())
}

func TestConnect_Enterprise(t *testing.T) {
	t.Parallel()

	d, id := connectingDriver(enterpriseNetwork)
	c := newTestClient(t, d)
	ap := accessPoint(t, c, "Corp")

	req := NewAuthRequest(ap)
	req.Username = "jane"
	req.Password = "correct horse"
	req.Domain = "CORP"
	ok, err := ap.Connect(context.Background(), req, false)
	require.NoError(t, err)
	assert.True(t, ok)

	userData, ok := d.eap[id]["Corp"]
	require.True(t, ok, "credentials stored under the profile name")
	assert.Contains(t, userData, "<Username>jane</Username>")
	assert.Contains(t, userData, "<LogonDomain>CORP</LogonDomain>")
}

func TestConnect_EnterpriseCredentialFailure(t *testing.T) {
	t.Parallel()

	d, _ := connectingDriver(enterpriseNetwork)
	d.eapErr = errors.New("access denied")
	c := newTestClient(t, d)
	ap := accessPoint(t, c, "Corp")

	req := NewAuthRequest(ap)
	req.Username = "jane"
	req.Password = "correct horse"
	ok, err := ap.Connect(context.Background(), req, false)
	assert.False(t, ok)
	assert.Error(t, err)
	assert.Empty(t, d.connects)
}

func TestConnect_SetProfileRejected(t *testing.T) {
	t.Parallel()

	d, _ := connectingDriver(personalNetwork)
	d.setProfileErr = &PlatformError{Op: "WlanSetProfile", Code: StatusBadProfile}
	c := newTestClient(t, d)
	ap := accessPoint(t, c, "Home")

	req := NewAuthRequest(ap)
	req.Password = "hunter22"
	ok, err := ap.Connect(context.Background(), req, false)
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrOperationFailed)
	assert.Contains(t, err.Error(), ReasonInvalidProfileSchema.String())
}

func TestConnectAsync(t *testing.T) {
	t.Parallel()

	d, _ := connectingDriver(openNetwork)
	c := newTestClient(t, d)
	ap := accessPoint(t, c, "Cafe")

	var calls atomic.Int32
	results := make(chan bool, 2)
	task := ap.ConnectAsync(context.Background(), NewAuthRequest(ap), false, func(ok bool) {
		calls.Add(1)
		results <- ok
	})
	require.NotEqual(t, uuid.Nil, task.ID)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	ok, err := task.Wait(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	select {
	case got := <-results:
		assert.True(t, got)
	case <-time.After(time.Second):
		t.Fatal("callback was not called")
	}
	assert.Never(t, func() bool { return calls.Load() > 1 }, 50*time.Millisecond, 5*time.Millisecond)
}

func TestConnectAsync_FailureCallsBackOnce(t *testing.T) {
	t.Parallel()

	d, _ := connectingDriver(openNetwork)
	d.connectErr = errors.New("radio off")
	c := newTestClient(t, d)
	ap := accessPoint(t, c, "Cafe")

	results := make(chan bool, 2)
	task := ap.ConnectAsync(context.Background(), NewAuthRequest(ap), false, func(ok bool) {
		results <- ok
	})

	<-task.Done()
	assert.False(t, <-results)
	assert.Len(t, results, 0)

	ok, err := task.Wait(context.Background())
	assert.False(t, ok)
	assert.Error(t, err)
}

func TestAccessPointProfileAndConnection(t *testing.T) {
	t.Parallel()

	d, id := connectingDriver(personalNetwork)
	c := newTestClient(t, d)
	ap := accessPoint(t, c, "Home")

	doc, err := ap.ProfileXML(false)
	require.NoError(t, err)
	assert.Equal(t, "", doc)
	require.NoError(t, ap.DeleteProfile())
	assert.False(t, ap.IsConnected())

	existing, err := GenerateProfile(personalNetwork, "original")
	require.NoError(t, err)
	d.profiles[id] = []storedProfile{{name: "Home", xml: existing}}
	d.current[id] = ConnectionAttributes{ProfileName: ""}

	doc, err = ap.ProfileXML(true)
	require.NoError(t, err)
	assert.Equal(t, existing, doc)
	assert.True(t, ap.IsConnected())

	require.NoError(t, ap.DeleteProfile())
	assert.False(t, ap.HasProfile())
	assert.True(t, ap.Equal(accessPoint(t, c, "Home")))
	assert.Contains(t, ap.String(), "SSID: Home")
}
