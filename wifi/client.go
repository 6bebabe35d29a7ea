package wifi

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultConnectTimeout bounds how long a connection attempt is waited for.
const DefaultConnectTimeout = 6 * time.Second

// Status is the overall connection status across all interfaces.
type Status int

const (
	StatusDisconnected Status = iota
	StatusConnected
)

func (s Status) String() string {
	if s == StatusConnected {
		return "connected"
	}
	return "disconnected"
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithConnectTimeout sets how long AccessPoint.Connect waits for a connection.
func WithConnectTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.connectTimeout = d
	}
}

// Client tracks the wireless interfaces of a Driver and routes the driver's
// notifications to them.
type Client struct {
	driver         Driver
	logger         *slog.Logger
	connectTimeout time.Duration

	mu     sync.RWMutex
	ifaces map[InterfaceID]*Interface

	statusMu    sync.Mutex
	status      Status
	statusKnown bool
	statusSubs  map[chan Status]struct{}
}

// NewClient registers for the driver's notifications and enumerates its
// interfaces once, so that notifications can be routed right away.
func NewClient(driver Driver, opts ...Option) (*Client, error) {
	c := &Client{
		driver:         driver,
		logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		connectTimeout: DefaultConnectTimeout,
		ifaces:         map[InterfaceID]*Interface{},
		statusSubs:     map[chan Status]struct{}{},
	}
	for _, opt := range opts {
		opt(c)
	}

	if err := driver.RegisterNotification(c.HandleNotification); err != nil {
		return nil, fmt.Errorf("failed to register for notifications: %w", err)
	}
	if _, err := c.Interfaces(); err != nil {
		return nil, err
	}
	return c, nil
}

// Close releases the driver.
func (c *Client) Close() error {
	return c.driver.Close()
}

// Interfaces enumerates the interfaces present now. Interfaces seen before
// keep their identity, so subscriptions on them stay valid; interfaces that
// have disappeared are dropped.
func (c *Client) Interfaces() ([]*Interface, error) {
	infos, err := c.driver.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate interfaces: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	seen := make(map[InterfaceID]struct{}, len(infos))
	result := make([]*Interface, 0, len(infos))
	for _, info := range infos {
		seen[info.ID] = struct{}{}
		iface, ok := c.ifaces[info.ID]
		if ok {
			iface.setInfo(info)
		} else {
			iface = newInterface(c, info)
			c.ifaces[info.ID] = iface
			c.logger.Debug("interface added", "interface", info.ID.String(), "description", info.Description)
		}
		result = append(result, iface)
	}
	for id := range c.ifaces {
		if _, ok := seen[id]; !ok {
			delete(c.ifaces, id)
			c.logger.Debug("interface removed", "interface", id.String())
		}
	}
	return result, nil
}

// Interface returns the interface with the given ID, from the last enumeration.
func (c *Client) Interface(id InterfaceID) (*Interface, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	iface, ok := c.ifaces[id]
	return iface, ok
}

// HandleNotification routes a driver notification to the interface it names.
// Notifications for unknown interfaces are dropped.
func (c *Client) HandleNotification(n Notification) {
	iface, ok := c.Interface(n.InterfaceID)
	if !ok {
		c.logger.Debug("notification for unknown interface", "interface", n.InterfaceID.String(), "notification", n.String())
		return
	}

	if n.carriesConnectionData() {
		if cn, ok := DecodeConnectionNotification(n.Data); ok {
			iface.dispatch(ConnectionEvent{Notification: n, Connection: cn})
		}
	} else if n.IsACM(ACMScanFail) && len(n.Data) >= 4 {
		reason := ReasonCode(binary.LittleEndian.Uint32(n.Data))
		if reason.Known() {
			iface.dispatch(ReasonEvent{Notification: n, Reason: reason})
		}
	}
	iface.dispatch(n)

	switch {
	case n.IsMSM(MSMConnected):
		c.setStatus(StatusConnected)
	case n.IsACM(ACMDisconnected):
		c.setStatus(StatusDisconnected)
	}
}

// Status reports whether any interface is connected. Until a connect or
// disconnect notification has been seen it probes the interfaces.
func (c *Client) Status() Status {
	c.statusMu.Lock()
	known, status := c.statusKnown, c.status
	c.statusMu.Unlock()
	if known {
		return status
	}

	status = StatusDisconnected
	ifaces, err := c.Interfaces()
	if err != nil {
		return status
	}
	for _, iface := range ifaces {
		if _, err := iface.CurrentConnection(); err == nil {
			status = StatusConnected
			break
		}
	}

	c.statusMu.Lock()
	defer c.statusMu.Unlock()
	if !c.statusKnown {
		c.status, c.statusKnown = status, true
	}
	return c.status
}

// SubscribeStatus delivers status changes until cancel is called.
func (c *Client) SubscribeStatus() (<-chan Status, func()) {
	ch := make(chan Status, 1)
	c.statusMu.Lock()
	c.statusSubs[ch] = struct{}{}
	c.statusMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.statusMu.Lock()
			delete(c.statusSubs, ch)
			c.statusMu.Unlock()
			close(ch)
		})
	}
}

func (c *Client) setStatus(s Status) {
	c.statusMu.Lock()
	defer c.statusMu.Unlock()
	changed := !c.statusKnown || c.status != s
	c.status, c.statusKnown = s, true
	if !changed {
		return
	}
	c.logger.Debug("status changed", "status", s.String())
	for ch := range c.statusSubs {
		// Keep only the latest status for slow subscribers.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- s:
		default:
		}
	}
}

// Scan requests a scan on every interface.
func (c *Client) Scan(ctx context.Context) error {
	ifaces, err := c.Interfaces()
	if err != nil {
		return err
	}
	g, _ := errgroup.WithContext(ctx)
	for _, iface := range ifaces {
		g.Go(iface.Scan)
	}
	return g.Wait()
}

// AccessPoints lists the networks visible on every interface.
func (c *Client) AccessPoints() ([]*AccessPoint, error) {
	ifaces, err := c.Interfaces()
	if err != nil {
		return nil, err
	}
	var all []*AccessPoint
	for _, iface := range ifaces {
		aps, err := c.AccessPointsOn(iface)
		if err != nil {
			return nil, err
		}
		all = append(all, aps...)
	}
	return all, nil
}

// AccessPointsOn lists the networks visible on one interface. Entries
// without a profile are left out when the same network is also listed with
// one.
func (c *Client) AccessPointsOn(iface *Interface) ([]*AccessPoint, error) {
	networks, err := iface.Networks()
	if err != nil {
		return nil, fmt.Errorf("failed to list networks: %w", err)
	}
	networks = dedupeNetworks(networks)
	aps := make([]*AccessPoint, 0, len(networks))
	for _, n := range networks {
		aps = append(aps, &AccessPoint{iface: iface, network: n})
	}
	return aps, nil
}

// AccessPoint finds the first visible network named ssid.
func (c *Client) AccessPoint(ssid string) (*AccessPoint, error) {
	aps, err := c.AccessPoints()
	if err != nil {
		return nil, err
	}
	for _, ap := range aps {
		if ap.Name() == ssid {
			return ap, nil
		}
	}
	return nil, fmt.Errorf("network %q: %w", ssid, ErrNotFound)
}

func sameNetwork(a, b Network) bool {
	return a.SSID.Equal(b.SSID) &&
		a.BSSType == b.BSSType &&
		a.SecurityEnabled == b.SecurityEnabled &&
		a.AuthAlgorithm == b.AuthAlgorithm &&
		a.CipherAlgorithm == b.CipherAlgorithm
}

func dedupeNetworks(networks []Network) []Network {
	out := make([]Network, 0, len(networks))
	for _, n := range networks {
		if n.ProfileName == "" && hasProfiledTwin(networks, n) {
			continue
		}
		out = append(out, n)
	}
	return out
}

func hasProfiledTwin(networks []Network, n Network) bool {
	for _, other := range networks {
		if other.ProfileName != "" && sameNetwork(other, n) {
			return true
		}
	}
	return false
}

// KnownProfileNames lists the stored profile names of every interface,
// without duplicates.
func (c *Client) KnownProfileNames() ([]string, error) {
	ifaces, err := c.Interfaces()
	if err != nil {
		return nil, err
	}
	seen := map[string]struct{}{}
	var names []string
	for _, iface := range ifaces {
		profiles, err := iface.Profiles()
		if err != nil {
			return nil, fmt.Errorf("failed to list profiles: %w", err)
		}
		for _, p := range profiles {
			if _, ok := seen[p.Name]; ok {
				continue
			}
			seen[p.Name] = struct{}{}
			names = append(names, p.Name)
		}
	}
	return names, nil
}

// KnownProfileXML returns the document of the named profile from every
// interface that stores it.
func (c *Client) KnownProfileXML(name string, plaintext bool) ([]string, error) {
	ifaces, err := c.Interfaces()
	if err != nil {
		return nil, err
	}
	var docs []string
	for _, iface := range ifaces {
		profiles, err := iface.Profiles()
		if err != nil {
			return nil, fmt.Errorf("failed to list profiles: %w", err)
		}
		for _, p := range profiles {
			if p.Name != name {
				continue
			}
			doc, err := iface.ProfileXML(name, plaintext)
			if err != nil {
				return nil, fmt.Errorf("failed to read profile %q: %w", name, err)
			}
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

// Disconnect drops the connection of every interface.
func (c *Client) Disconnect() error {
	ifaces, err := c.Interfaces()
	if err != nil {
		return err
	}
	for _, iface := range ifaces {
		if err := iface.Disconnect(); err != nil {
			return fmt.Errorf("failed to disconnect %s: %w", iface.ID(), err)
		}
	}
	return nil
}

// ConnectTimeout is how long AccessPoint.Connect waits for a connection.
func (c *Client) ConnectTimeout() time.Duration {
	return c.connectTimeout
}
