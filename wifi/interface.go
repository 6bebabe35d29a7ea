package wifi

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// mailboxSize bounds how many events a single waiter or subscriber can have
// pending before further events are dropped for it.
const mailboxSize = 64

type subscription struct {
	ch     chan Event
	filter func(Event) bool
}

// Interface is a wireless interface known to a Client.
type Interface struct {
	client *Client
	logger *slog.Logger

	mu          sync.Mutex
	info        InterfaceInfo
	waiters     map[*subscription]struct{}
	subscribers map[*subscription]struct{}
}

func newInterface(c *Client, info InterfaceInfo) *Interface {
	return &Interface{
		client:      c,
		logger:      c.logger.With("interface", info.ID.String()),
		info:        info,
		waiters:     map[*subscription]struct{}{},
		subscribers: map[*subscription]struct{}{},
	}
}

func (i *Interface) driver() Driver {
	return i.client.driver
}

// ID returns the interface GUID.
func (i *Interface) ID() InterfaceID {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.info.ID
}

// Info returns what the last enumeration reported about the interface.
func (i *Interface) Info() InterfaceInfo {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.info
}

func (i *Interface) setInfo(info InterfaceInfo) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.info = info
}

// Description is the adapter description, e.g. its product name.
func (i *Interface) Description() string {
	return i.Info().Description
}

func (i *Interface) Scan() error {
	if err := i.driver().Scan(i.ID()); err != nil {
		return fmt.Errorf("failed to scan: %w", err)
	}
	return nil
}

func (i *Interface) Networks() ([]Network, error) {
	return i.driver().Networks(i.ID())
}

func (i *Interface) BSSList() ([]BSSEntry, error) {
	return i.driver().BSSList(i.ID())
}

func (i *Interface) Profiles() ([]ProfileInfo, error) {
	return i.driver().Profiles(i.ID())
}

// ProfileXML returns the stored profile document for name. With plaintext set
// the shared key is returned in the clear, which requires elevated rights.
func (i *Interface) ProfileXML(name string, plaintext bool) (string, error) {
	flags := ProfileAllUser
	if plaintext {
		flags = ProfileGetPlaintextKey
	}
	return i.driver().ProfileXML(i.ID(), name, flags)
}

// SetProfile stores a profile document. When the platform rejects it, the
// returned reason says why.
func (i *Interface) SetProfile(flags ProfileFlags, xml string, overwrite bool) (ReasonCode, error) {
	reason, err := i.driver().SetProfile(i.ID(), flags, xml, overwrite)
	if err != nil {
		return reason, fmt.Errorf("failed to set profile (%s): %w", reason, err)
	}
	return reason, nil
}

func (i *Interface) DeleteProfile(name string) error {
	return i.driver().DeleteProfile(i.ID(), name)
}

func (i *Interface) SetEAPUserData(profile string, xml string) error {
	return i.driver().SetEAPUserData(i.ID(), profile, xml)
}

// Connect starts a connection attempt and returns without waiting for it.
func (i *Interface) Connect(mode ConnectionMode, bssType BSSType, profile string) error {
	params := ConnectionParams{
		Mode:    mode,
		Profile: profile,
		BSSType: bssType,
	}
	if err := i.driver().Connect(i.ID(), params); err != nil {
		return fmt.Errorf("failed to connect to %q: %w", profile, err)
	}
	return nil
}

// ConnectSSID starts a connection attempt to a network without a stored
// profile, using a temporary one built from doc.
func (i *Interface) ConnectSSID(ssid SSID, bssType BSSType, doc string) error {
	params := ConnectionParams{
		Mode:    ConnectionModeTemporaryProfile,
		Profile: doc,
		SSID:    &ssid,
		BSSType: bssType,
	}
	if err := i.driver().Connect(i.ID(), params); err != nil {
		return fmt.Errorf("failed to connect to %q: %w", ssid, err)
	}
	return nil
}

func (i *Interface) Disconnect() error {
	return i.driver().Disconnect(i.ID())
}

// CurrentConnection describes the current connection. It fails with an error
// matching ErrNotConnected when there is none.
func (i *Interface) CurrentConnection() (ConnectionAttributes, error) {
	return i.driver().CurrentConnection(i.ID())
}

func (i *Interface) RadioState() (RadioState, error) {
	return i.driver().RadioState(i.ID())
}

// SetRadio switches the software radio on or off.
func (i *Interface) SetRadio(on bool) error {
	return i.driver().SetRadio(i.ID(), on)
}

// Channel is the channel number of the current connection.
func (i *Interface) Channel() (int, error) {
	v, err := i.driver().QueryInt(i.ID(), OpcodeChannelNumber)
	return int(v), err
}

// RSSI is the received signal strength of the current connection, in dBm.
func (i *Interface) RSSI() (int, error) {
	v, err := i.driver().QueryInt(i.ID(), OpcodeRSSI)
	return int(v), err
}

// Autoconf reports whether the platform connects to preferred networks on its own.
func (i *Interface) Autoconf() (bool, error) {
	v, err := i.driver().QueryInt(i.ID(), OpcodeAutoconfEnabled)
	return v != 0, err
}

func (i *Interface) SetAutoconf(enabled bool) error {
	var v int32
	if enabled {
		v = 1
	}
	return i.driver().SetInt(i.ID(), OpcodeAutoconfEnabled, v)
}

func (i *Interface) BSSType() (BSSType, error) {
	v, err := i.driver().QueryInt(i.ID(), OpcodeBSSType)
	return BSSType(v), err
}

func (i *Interface) SetBSSType(t BSSType) error {
	return i.driver().SetInt(i.ID(), OpcodeBSSType, int32(t))
}

// State queries the interface state from the platform.
func (i *Interface) State() (InterfaceState, error) {
	v, err := i.driver().QueryInt(i.ID(), OpcodeInterfaceState)
	return InterfaceState(v), err
}

// Subscribe delivers every event raised for the interface until cancel is
// called. Events are dropped while the channel is full. Cancel closes the
// channel.
func (i *Interface) Subscribe() (<-chan Event, func()) {
	return i.subscribeFiltered(nil)
}

// SubscribeConnection delivers only connection events.
func (i *Interface) SubscribeConnection() (<-chan Event, func()) {
	return i.subscribeFiltered(func(e Event) bool {
		_, ok := e.(ConnectionEvent)
		return ok
	})
}

// SubscribeReason delivers only reason events.
func (i *Interface) SubscribeReason() (<-chan Event, func()) {
	return i.subscribeFiltered(func(e Event) bool {
		_, ok := e.(ReasonEvent)
		return ok
	})
}

func (i *Interface) subscribeFiltered(filter func(Event) bool) (<-chan Event, func()) {
	s := &subscription{ch: make(chan Event, mailboxSize), filter: filter}
	i.mu.Lock()
	i.subscribers[s] = struct{}{}
	i.mu.Unlock()

	var once sync.Once
	return s.ch, func() {
		once.Do(func() {
			i.mu.Lock()
			delete(i.subscribers, s)
			i.mu.Unlock()
			close(s.ch)
		})
	}
}

// waitConnection opens a mailbox for a connection waiter. Only connection
// and reason events are queued while at least one waiter is open.
func (i *Interface) waitConnection() *subscription {
	s := &subscription{ch: make(chan Event, mailboxSize)}
	i.mu.Lock()
	i.waiters[s] = struct{}{}
	i.mu.Unlock()
	return s
}

// closeWaiter unregisters the mailbox and discards whatever it still holds.
func (i *Interface) closeWaiter(s *subscription) {
	i.mu.Lock()
	delete(i.waiters, s)
	i.mu.Unlock()
	for {
		select {
		case <-s.ch:
		default:
			return
		}
	}
}

// pendingWaiters is the number of open connection waiters.
func (i *Interface) pendingWaiters() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.waiters)
}

// dispatch fans an event out to waiters and subscribers. It never blocks.
func (i *Interface) dispatch(e Event) {
	i.mu.Lock()
	defer i.mu.Unlock()

	switch e.(type) {
	case ConnectionEvent, ReasonEvent:
		for s := range i.waiters {
			select {
			case s.ch <- e:
			default:
				i.logger.Warn("connection waiter mailbox full, dropping event", "event", e.Raw().String())
			}
		}
	}

	for s := range i.subscribers {
		if s.filter != nil && !s.filter(e) {
			continue
		}
		select {
		case s.ch <- e:
		default:
		}
	}
}

// ConnectSynchronously starts a connection attempt and waits up to timeout
// for the MSM to report that profile is connected. It returns false when the
// wait times out; events for other profiles do not end the wait.
//
// Several calls may wait at once. Each sees every event raised while it waits.
func (i *Interface) ConnectSynchronously(ctx context.Context, mode ConnectionMode, bssType BSSType, profile string, timeout time.Duration) (bool, error) {
	mailbox := i.waitConnection()
	defer i.closeWaiter(mailbox)

	if err := i.Connect(mode, bssType, profile); err != nil {
		return false, err
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case e := <-mailbox.ch:
			switch ev := e.(type) {
			case ConnectionEvent:
				if ev.IsMSM(MSMConnected) && ev.Connection.ProfileName == profile {
					i.logger.Debug("connected", "profile", profile)
					return true, nil
				}
				if ev.IsACM(ACMConnectionAttemptFail) && ev.Connection.ProfileName == profile {
					i.logger.Debug("connection attempt failed", "profile", profile, "reason", ev.Connection.Reason.String())
				}
			case ReasonEvent:
				i.logger.Debug("reason received while connecting", "profile", profile, "reason", ev.Reason.String())
			}
		case <-timer.C:
			i.logger.Debug("timed out waiting for connection", "profile", profile, "timeout", timeout)
			return false, nil
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}
}
