package wifi

// Driver is the platform surface the client is built on. Every method that
// takes an InterfaceID operates on that interface only.
//
// A Driver delivers notifications to the single callback registered with
// RegisterNotification, from a goroutine of its own choosing. The callback
// must not block.
type Driver interface {
	// Interfaces enumerates the wireless interfaces present right now.
	Interfaces() ([]InterfaceInfo, error)
	// RegisterNotification installs the callback for all notification sources.
	RegisterNotification(fn func(Notification)) error

	// Scan requests a scan. Completion is signalled by a notification.
	Scan(id InterfaceID) error
	// Networks returns the available network list, as of the last scan.
	Networks(id InterfaceID) ([]Network, error)
	// BSSList returns the basic service sets seen by the last scan.
	BSSList(id InterfaceID) ([]BSSEntry, error)

	// Profiles lists the stored profiles, in preference order.
	Profiles(id InterfaceID) ([]ProfileInfo, error)
	// ProfileXML returns a stored profile document.
	ProfileXML(id InterfaceID, name string, flags ProfileFlags) (string, error)
	// SetProfile stores a profile document. On rejection the returned reason
	// explains what was wrong with it.
	SetProfile(id InterfaceID, flags ProfileFlags, xml string, overwrite bool) (ReasonCode, error)
	// DeleteProfile removes a stored profile.
	DeleteProfile(id InterfaceID, name string) error
	// SetEAPUserData attaches enterprise credentials to a stored profile.
	SetEAPUserData(id InterfaceID, profile string, xml string) error

	// Connect starts a connection attempt. Progress is signalled by notifications.
	Connect(id InterfaceID, params ConnectionParams) error
	// Disconnect drops the current connection.
	Disconnect(id InterfaceID) error

	// QueryInt reads an integer valued interface property.
	QueryInt(id InterfaceID, op IntOpcode) (int32, error)
	// SetInt writes an integer valued interface property.
	SetInt(id InterfaceID, op IntOpcode, value int32) error
	// CurrentConnection describes the current connection, or fails with an
	// error matching ErrNotConnected.
	CurrentConnection(id InterfaceID) (ConnectionAttributes, error)
	// RadioState reports the radio state of every PHY.
	RadioState(id InterfaceID) (RadioState, error)
	// SetRadio switches the software radio of every PHY.
	SetRadio(id InterfaceID, on bool) error

	// Close releases the platform session.
	Close() error
}
