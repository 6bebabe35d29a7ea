package wifi

import "fmt"

// AuthRequest collects the credentials needed to create a profile for an
// access point. Callers fill in the fields the Required flags ask for.
type AuthRequest struct {
	PasswordRequired bool
	UsernameRequired bool
	DomainSupported  bool

	Password string
	Username string
	Domain   string

	iface   *Interface
	network Network
}

// NewAuthRequest inspects the access point's security to decide which
// credentials are needed. Username and domain are asked for on WPA and RSNA
// enterprise networks.
func NewAuthRequest(ap *AccessPoint) *AuthRequest {
	n := ap.network
	enterprise := n.AuthAlgorithm == AuthRSNA || n.AuthAlgorithm == AuthWPA
	return &AuthRequest{
		PasswordRequired: n.SecurityEnabled && n.CipherAlgorithm != CipherNone,
		UsernameRequired: enterprise,
		DomainSupported:  enterprise,
		iface:            ap.iface,
		network:          n,
	}
}

// IsPasswordValid checks Password against the network's cipher, whether or
// not a password is required. Open networks accept any password.
func (r *AuthRequest) IsPasswordValid() bool {
	return IsValidPassword(r.Password, r.network.CipherAlgorithm)
}

// Process stores a profile for the network built from the request, replacing
// any profile of the same name, and attaches enterprise credentials when the
// network needs them. It reports false without storing anything when the
// password is invalid.
func (r *AuthRequest) Process() (bool, error) {
	if !r.IsPasswordValid() {
		return false, nil
	}

	profile, err := GenerateProfile(r.network, r.Password)
	if err != nil {
		return false, fmt.Errorf("failed to generate profile: %w", err)
	}
	if _, err := r.iface.SetProfile(ProfileAllUser, profile, true); err != nil {
		return false, err
	}

	if !r.UsernameRequired {
		return true, nil
	}

	userData, err := GenerateEAPUserData(r.network.CipherAlgorithm, r.Username, r.Password, r.Domain)
	if err != nil {
		return false, fmt.Errorf("failed to generate credentials: %w", err)
	}
	if err := r.iface.SetEAPUserData(r.network.SSID.String(), userData); err != nil {
		return false, fmt.Errorf("failed to store credentials: %w", err)
	}
	return true, nil
}
