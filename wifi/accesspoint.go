package wifi

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// AccessPoint is a visible network as seen from one interface.
type AccessPoint struct {
	iface   *Interface
	network Network
}

// Name is the network's SSID as a string.
func (ap *AccessPoint) Name() string {
	return ap.network.SSID.String()
}

// Network returns the available network entry the access point was built from.
func (ap *AccessPoint) Network() Network {
	return ap.network
}

func (ap *AccessPoint) Interface() *Interface {
	return ap.iface
}

// SignalStrength is the signal quality, from 0 to 100.
func (ap *AccessPoint) SignalStrength() uint32 {
	return ap.network.SignalQuality
}

func (ap *AccessPoint) IsSecure() bool {
	return ap.network.SecurityEnabled
}

// Equal compares access points by name only.
func (ap *AccessPoint) Equal(other *AccessPoint) bool {
	return other != nil && ap.Name() == other.Name()
}

// HasProfile reports whether the interface stores a profile named after the
// network. Failures to list profiles count as no profile.
func (ap *AccessPoint) HasProfile() bool {
	profiles, err := ap.iface.Profiles()
	if err != nil {
		return false
	}
	name := ap.Name()
	for _, p := range profiles {
		if p.Name == name {
			return true
		}
	}
	return false
}

// IsConnected reports whether the interface's current connection uses this
// network's profile.
func (ap *AccessPoint) IsConnected() bool {
	attrs, err := ap.iface.CurrentConnection()
	if err != nil {
		return false
	}
	return attrs.ProfileName == ap.network.ProfileName
}

// IsValidPassword checks password against the network's cipher.
func (ap *AccessPoint) IsValidPassword(password string) bool {
	return IsValidPassword(password, ap.network.CipherAlgorithm)
}

// ProfileXML returns the stored profile document, or an empty string when
// there is no profile.
func (ap *AccessPoint) ProfileXML(plaintext bool) (string, error) {
	if !ap.HasProfile() {
		return "", nil
	}
	return ap.iface.ProfileXML(ap.Name(), plaintext)
}

// DeleteProfile removes the stored profile. Having no profile is not an error.
func (ap *AccessPoint) DeleteProfile() error {
	if !ap.HasProfile() {
		return nil
	}
	if err := ap.iface.DeleteProfile(ap.Name()); err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("failed to delete profile %q: %w", ap.Name(), err)
	}
	return nil
}

// Connect connects to the network and waits for the outcome.
//
// An existing profile is reused unless overwrite is set, in which case it is
// replaced by one generated from req. A request with an invalid password
// fails without touching any profile.
func (ap *AccessPoint) Connect(ctx context.Context, req *AuthRequest, overwrite bool) (bool, error) {
	hasProfile := ap.HasProfile()
	if (!hasProfile || overwrite) && !req.IsPasswordValid() {
		return false, nil
	}

	if !hasProfile || overwrite {
		if hasProfile {
			if err := ap.DeleteProfile(); err != nil {
				return false, err
			}
		}
		ok, err := req.Process()
		if err != nil || !ok {
			return false, err
		}
	}

	return ap.iface.ConnectSynchronously(ctx, ConnectionModeProfile, ap.network.BSSType, ap.Name(), ap.iface.client.ConnectTimeout())
}

// ConnectTask is a connection attempt running in the background.
type ConnectTask struct {
	ID uuid.UUID

	done   chan struct{}
	result bool
	err    error
}

// Done is closed when the attempt has finished.
func (t *ConnectTask) Done() <-chan struct{} {
	return t.done
}

// Result returns the outcome. It is only meaningful once Done is closed.
func (t *ConnectTask) Result() (bool, error) {
	select {
	case <-t.done:
		return t.result, t.err
	default:
		return false, nil
	}
}

// Wait blocks until the attempt finishes or ctx is done.
func (t *ConnectTask) Wait(ctx context.Context) (bool, error) {
	select {
	case <-t.done:
		return t.result, t.err
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// ConnectAsync runs Connect in the background. onComplete, when not nil, is
// called exactly once with the outcome; errors count as failure.
func (ap *AccessPoint) ConnectAsync(ctx context.Context, req *AuthRequest, overwrite bool, onComplete func(bool)) *ConnectTask {
	task := &ConnectTask{
		ID:   uuid.New(),
		done: make(chan struct{}),
	}
	logger := ap.iface.logger.With("task", task.ID.String(), "ssid", ap.Name())

	go func() {
		ok, err := ap.Connect(ctx, req, overwrite)
		if err != nil {
			logger.Warn("connection attempt failed", "err", err)
			ok = false
		}
		task.result, task.err = ok, err
		close(task.done)

		if onComplete != nil {
			onComplete(ok)
		}
	}()

	return task
}

func (ap *AccessPoint) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "SSID: %s\n", ap.Name())
	fmt.Fprintf(&b, "Profile: %s\n", ap.network.ProfileName)
	fmt.Fprintf(&b, "Signal: %d%%\n", ap.network.SignalQuality)
	fmt.Fprintf(&b, "BSS Type: %s\n", ap.network.BSSType)
	fmt.Fprintf(&b, "BSSIDs: %d\n", ap.network.NumberOfBSSIDs)
	fmt.Fprintf(&b, "Connectable: %t\n", ap.network.Connectable)
	if !ap.network.Connectable {
		fmt.Fprintf(&b, "Not Connectable Because: %s\n", ap.network.NotConnectableReason)
	}
	fmt.Fprintf(&b, "Secure: %t\n", ap.network.SecurityEnabled)
	fmt.Fprintf(&b, "Authentication: %s\n", ap.network.AuthAlgorithm)
	fmt.Fprintf(&b, "Cipher: %s\n", ap.network.CipherAlgorithm)
	fmt.Fprintf(&b, "Connected: %t\n", ap.network.Connected())
	return b.String()
}
