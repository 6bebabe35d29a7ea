package wifi

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, d *fakeDriver) *Client {
	t.Helper()
	c, err := NewClient(d, WithConnectTimeout(time.Second))
	require.NoError(t, err)
	return c
}

func onlyInterface(t *testing.T, c *Client) *Interface {
	t.Helper()
	ifaces, err := c.Interfaces()
	require.NoError(t, err)
	require.Len(t, ifaces, 1)
	return ifaces[0]
}

func TestConnectSynchronously_ImmediateTimeout(t *testing.T) {
	t.Parallel()

	d := newFakeDriver(newID())
	iface := onlyInterface(t, newTestClient(t, d))

	ok, err := iface.ConnectSynchronously(context.Background(), ConnectionModeProfile, BSSTypeInfrastructure, "Home", 0)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, iface.pendingWaiters())
	assert.Len(t, d.connects, 1)
}

func TestConnectSynchronously_Connected(t *testing.T) {
	t.Parallel()

	id := newID()
	d := newFakeDriver(id)
	d.onConnect = func(id InterfaceID, params ConnectionParams) {
		d.emitConnection(id, SourceACM, uint32(ACMConnectionStart), params.Profile)
		d.emitConnection(id, SourceMSM, uint32(MSMAssociating), params.Profile)
		d.emitConnection(id, SourceMSM, uint32(MSMConnected), params.Profile)
	}
	iface := onlyInterface(t, newTestClient(t, d))

	ok, err := iface.ConnectSynchronously(context.Background(), ConnectionModeProfile, BSSTypeInfrastructure, "Home", time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 0, iface.pendingWaiters())

	require.Len(t, d.connects, 1)
	assert.Equal(t, "Home", d.connects[0].Profile)
	assert.Equal(t, ConnectionModeProfile, d.connects[0].Mode)
}

func TestConnectSynchronously_OtherProfileDoesNotSatisfy(t *testing.T) {
	t.Parallel()

	d := newFakeDriver(newID())
	d.onConnect = func(id InterfaceID, params ConnectionParams) {
		d.emitConnection(id, SourceMSM, uint32(MSMConnected), "Neighbour")
		d.emitConnection(id, SourceACM, uint32(ACMConnectionComplete), params.Profile)
		d.emitScanFail(id, ReasonNetworkNotAvailable)
	}
	iface := onlyInterface(t, newTestClient(t, d))

	ok, err := iface.ConnectSynchronously(context.Background(), ConnectionModeProfile, BSSTypeInfrastructure, "Home", 50*time.Millisecond)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, iface.pendingWaiters())
}

func TestConnectSynchronously_ConnectError(t *testing.T) {
	t.Parallel()

	d := newFakeDriver(newID())
	d.connectErr = &PlatformError{Op: "WlanConnect", Code: StatusInvalidParameter}
	iface := onlyInterface(t, newTestClient(t, d))

	ok, err := iface.ConnectSynchronously(context.Background(), ConnectionModeProfile, BSSTypeInfrastructure, "Home", time.Second)
	assert.False(t, ok)
	var perr *PlatformError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, StatusInvalidParameter, perr.Code)
	assert.Equal(t, 0, iface.pendingWaiters())
}

func TestConnectSynchronously_ContextCancelled(t *testing.T) {
	t.Parallel()

	d := newFakeDriver(newID())
	iface := onlyInterface(t, newTestClient(t, d))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ok, err := iface.ConnectSynchronously(ctx, ConnectionModeProfile, BSSTypeInfrastructure, "Home", time.Minute)
	assert.False(t, ok)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, iface.pendingWaiters())
}

func TestConnectSynchronously_ConcurrentWaiters(t *testing.T) {
	t.Parallel()

	id := newID()
	d := newFakeDriver(id)
	iface := onlyInterface(t, newTestClient(t, d))

	const waiters = 3
	results := make([]bool, waiters)
	var wg sync.WaitGroup
	for n := 0; n < waiters; n++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			results[n], _ = iface.ConnectSynchronously(context.Background(), ConnectionModeProfile, BSSTypeInfrastructure, "Shared", 5*time.Second)
		}(n)
	}

	require.Eventually(t, func() bool {
		return iface.pendingWaiters() == waiters
	}, 2*time.Second, 5*time.Millisecond)

	d.emitConnection(id, SourceMSM, uint32(MSMConnected), "Shared")
	wg.Wait()

	for n, ok := range results {
		assert.True(t, ok, "waiter %d", n)
	}
	assert.Equal(t, 0, iface.pendingWaiters())
}

func TestCloseWaiterDrainsMailbox(t *testing.T) {
	t.Parallel()

	id := newID()
	d := newFakeDriver(id)
	iface := onlyInterface(t, newTestClient(t, d))

	mailbox := iface.waitConnection()
	d.emitConnection(id, SourceMSM, uint32(MSMAssociating), "Home")
	d.emitScanFail(id, ReasonScanCallFail)
	// Raw notifications are not queued for waiters.
	d.emit(Notification{Source: SourceACM, Code: uint32(ACMScanComplete), InterfaceID: id})
	assert.Len(t, mailbox.ch, 2)

	iface.closeWaiter(mailbox)
	assert.Len(t, mailbox.ch, 0)
	assert.Equal(t, 0, iface.pendingWaiters())

	d.emitConnection(id, SourceMSM, uint32(MSMConnected), "Home")
	assert.Len(t, mailbox.ch, 0)
}

func TestInterfaceQueries(t *testing.T) {
	t.Parallel()

	d := newFakeDriver(newID())
	iface := onlyInterface(t, newTestClient(t, d))

	channel, err := iface.Channel()
	require.NoError(t, err)
	assert.Equal(t, 11, channel)

	rssi, err := iface.RSSI()
	require.NoError(t, err)
	assert.Equal(t, -42, rssi)

	_, err = iface.BSSType()
	assert.ErrorIs(t, err, ErrNotSupported)

	_, err = iface.CurrentConnection()
	assert.ErrorIs(t, err, ErrNotConnected)

	radio, err := iface.RadioState()
	require.NoError(t, err)
	assert.True(t, radio.On())
}
