package wifi

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
)

const (
	profileNamespace       = "http://www.microsoft.com/networking/WLAN/profile/v1"
	oneXNamespace          = "http://www.microsoft.com/networking/OneX/v1"
	eapHostConfigNamespace = "http://www.microsoft.com/provisioning/EapHostConfig"
	eapCommonNamespace     = "http://www.microsoft.com/provisioning/EapCommon"
	baseEapConnNamespace   = "http://www.microsoft.com/provisioning/BaseEapConnectionPropertiesV1"
	msPeapConnNamespace    = "http://www.microsoft.com/provisioning/MsPeapConnectionPropertiesV1"
	msChapV2ConnNamespace  = "http://www.microsoft.com/provisioning/MsChapV2ConnectionPropertiesV1"
)

// EAP method types used in enterprise profiles.
const (
	EAPTypeTLS      = 13
	EAPTypePEAP     = 25
	EAPTypeMSCHAPv2 = 26
)

// ProfileOptions describe a profile document to generate.
type ProfileOptions struct {
	// Name defaults to the SSID decoded as a string.
	Name    string
	SSID    SSID
	BSSType BSSType
	Auth    AuthAlgorithm
	Cipher  CipherAlgorithm

	// Key is the shared key. It is ignored for open, OWE and enterprise networks.
	Key string
	// ProtectedKey marks Key as already encrypted by the platform.
	ProtectedKey bool

	NonBroadcast bool
	// Manual stops the platform from connecting to the network on its own.
	Manual bool

	// ServerNames and TrustedRootCAs configure server validation for
	// enterprise networks.
	ServerNames    string
	TrustedRootCAs []string
}

// GenerateProfile builds a profile document for network, using key as the
// shared key when the network needs one.
func GenerateProfile(network Network, key string) (string, error) {
	return GenerateProfileWith(ProfileOptions{
		SSID:    network.SSID,
		BSSType: network.BSSType,
		Auth:    network.AuthAlgorithm,
		Cipher:  network.CipherAlgorithm,
		Key:     key,
	})
}

// GenerateProfileWith builds a profile document from opts.
func GenerateProfileWith(opts ProfileOptions) (string, error) {
	authentication, ok := authenticationNames[opts.Auth]
	if !ok {
		return "", fmt.Errorf("authentication %s: %w", opts.Auth, ErrNotSupported)
	}
	encryption, ok := encryptionName(opts.Cipher)
	if !ok {
		return "", fmt.Errorf("encryption %s: %w", opts.Cipher, ErrNotSupported)
	}

	name := opts.Name
	if name == "" {
		name = opts.SSID.String()
	}
	if name == "" {
		return "", fmt.Errorf("profile name is empty: %w", ErrOperationFailed)
	}

	doc := profileDocument{
		Xmlns: profileNamespace,
		Name:  name,
		SSIDConfig: ssidConfigElement{
			SSID: ssidElement{
				Hex:  opts.SSID.Hex(),
				Name: opts.SSID.String(),
			},
			NonBroadcast: opts.NonBroadcast,
		},
		ConnectionType: "ESS",
		ConnectionMode: "auto",
	}
	if opts.BSSType == BSSTypeIndependent {
		doc.ConnectionType = "IBSS"
		doc.ConnectionMode = "manual"
	}
	if opts.Manual {
		doc.ConnectionMode = "manual"
	}

	security := &doc.MSM.Security
	security.AuthEncryption = authEncryptionElement{
		Authentication: authentication,
		Encryption:     encryption,
		UseOneX:        opts.Auth.IsEnterprise(),
	}

	switch {
	case opts.Auth.IsEnterprise():
		security.OneX = newPEAPConfig(opts)
	case opts.Cipher == CipherNone || opts.Auth == AuthOWE:
	default:
		if opts.Key == "" {
			return "", fmt.Errorf("a key is required for %s: %w", opts.Cipher, ErrOperationFailed)
		}
		security.SharedKey = &sharedKeyElement{
			KeyType:     keyType(opts.Cipher, opts.Key),
			Protected:   opts.ProtectedKey,
			KeyMaterial: opts.Key,
		}
	}

	out, err := xml.MarshalIndent(doc, "", "\t")
	if err != nil {
		return "", err
	}
	return xml.Header + string(out), nil
}

var authenticationNames = map[AuthAlgorithm]string{
	AuthOpen:       "open",
	AuthSharedKey:  "shared",
	AuthWPA:        "WPA",
	AuthWPAPSK:     "WPAPSK",
	AuthRSNA:       "WPA2",
	AuthRSNAPSK:    "WPA2PSK",
	AuthWPA3SAE:    "WPA3SAE",
	AuthOWE:        "OWE",
	AuthWPA3Ent192: "WPA3ENT192",
	AuthWPA3Ent:    "WPA3ENT",
}

func encryptionName(c CipherAlgorithm) (string, bool) {
	switch {
	case c == CipherNone:
		return "none", true
	case c.IsWEP():
		return "WEP", true
	case c == CipherTKIP:
		return "TKIP", true
	case c == CipherCCMP:
		return "AES", true
	case c == CipherGCMP:
		return "GCMP", true
	case c == CipherGCMP256:
		return "GCMP256", true
	}
	return "", false
}

// keyType picks networkKey for WEP keys and raw 64 digit PSKs, passPhrase otherwise.
func keyType(c CipherAlgorithm, key string) string {
	if c.IsWEP() {
		return "networkKey"
	}
	if len(key) == 64 && isHex(key) {
		return "networkKey"
	}
	return "passPhrase"
}

func isHex(s string) bool {
	return strings.Trim(s, "0123456789abcdefABCDEF") == ""
}

func newPEAPConfig(opts ProfileOptions) *oneXElement {
	return &oneXElement{
		Xmlns: oneXNamespace,
		EAPConfig: eapConfigWrapper{
			EapHostConfig: eapHostConfigElement{
				Xmlns: eapHostConfigNamespace,
				EapMethod: eapMethodElement{
					Type:       nsValue{eapCommonNamespace, strconv.Itoa(EAPTypePEAP)},
					VendorID:   nsValue{eapCommonNamespace, "0"},
					VendorType: nsValue{eapCommonNamespace, "0"},
					AuthorID:   nsValue{eapCommonNamespace, "0"},
				},
				Config: eapConfigElement{
					Xmlns: eapHostConfigNamespace,
					Eap: peapElement{
						Xmlns: baseEapConnNamespace,
						Type:  EAPTypePEAP,
						EapType: peapTypeElement{
							Xmlns: msPeapConnNamespace,
							ServerValidation: serverValidationElement{
								ServerNames:   opts.ServerNames,
								TrustedRootCA: opts.TrustedRootCAs,
							},
							FastReconnect: true,
							Eap: innerEapElement{
								Xmlns: baseEapConnNamespace,
								Type:  EAPTypeMSCHAPv2,
								EapType: msChapV2Element{
									Xmlns: msChapV2ConnNamespace,
								},
							},
						},
					},
				},
			},
		},
	}
}

// Element order below follows the platform's profile schema, which rejects
// documents with elements out of sequence.

type profileDocument struct {
	XMLName        xml.Name          `xml:"WLANProfile"`
	Xmlns          string            `xml:"xmlns,attr"`
	Name           string            `xml:"name"`
	SSIDConfig     ssidConfigElement `xml:"SSIDConfig"`
	ConnectionType string            `xml:"connectionType"`
	ConnectionMode string            `xml:"connectionMode"`
	MSM            msmElement        `xml:"MSM"`
}

type ssidConfigElement struct {
	SSID         ssidElement `xml:"SSID"`
	NonBroadcast bool        `xml:"nonBroadcast,omitempty"`
}

type ssidElement struct {
	Hex  string `xml:"hex"`
	Name string `xml:"name"`
}

type msmElement struct {
	Security securityElement `xml:"security"`
}

type securityElement struct {
	AuthEncryption authEncryptionElement `xml:"authEncryption"`
	SharedKey      *sharedKeyElement     `xml:"sharedKey,omitempty"`
	OneX           *oneXElement          `xml:"OneX,omitempty"`
}

type authEncryptionElement struct {
	Authentication string `xml:"authentication"`
	Encryption     string `xml:"encryption"`
	UseOneX        bool   `xml:"useOneX"`
}

type sharedKeyElement struct {
	KeyType     string `xml:"keyType"`
	Protected   bool   `xml:"protected"`
	KeyMaterial string `xml:"keyMaterial"`
}

type nsValue struct {
	Xmlns string `xml:"xmlns,attr"`
	Value string `xml:",chardata"`
}

type oneXElement struct {
	Xmlns     string           `xml:"xmlns,attr"`
	EAPConfig eapConfigWrapper `xml:"EAPConfig"`
}

type eapConfigWrapper struct {
	EapHostConfig eapHostConfigElement `xml:"EapHostConfig"`
}

type eapHostConfigElement struct {
	Xmlns     string           `xml:"xmlns,attr"`
	EapMethod eapMethodElement `xml:"EapMethod"`
	Config    eapConfigElement `xml:"Config"`
}

type eapMethodElement struct {
	Type       nsValue `xml:"Type"`
	VendorID   nsValue `xml:"VendorId"`
	VendorType nsValue `xml:"VendorType"`
	AuthorID   nsValue `xml:"AuthorId"`
}

type eapConfigElement struct {
	Xmlns string      `xml:"xmlns,attr"`
	Eap   peapElement `xml:"Eap"`
}

type peapElement struct {
	Xmlns   string          `xml:"xmlns,attr"`
	Type    int             `xml:"Type"`
	EapType peapTypeElement `xml:"EapType"`
}

type peapTypeElement struct {
	Xmlns                  string                  `xml:"xmlns,attr"`
	ServerValidation       serverValidationElement `xml:"ServerValidation"`
	FastReconnect          bool                    `xml:"FastReconnect"`
	InnerEapOptional       bool                    `xml:"InnerEapOptional"`
	Eap                    innerEapElement         `xml:"Eap"`
	EnableQuarantineChecks bool                    `xml:"EnableQuarantineChecks"`
	RequireCryptoBinding   bool                    `xml:"RequireCryptoBinding"`
}

type serverValidationElement struct {
	DisableUserPromptForServerValidation bool     `xml:"DisableUserPromptForServerValidation"`
	ServerNames                          string   `xml:"ServerNames"`
	TrustedRootCA                        []string `xml:"TrustedRootCA"`
}

type innerEapElement struct {
	Xmlns   string          `xml:"xmlns,attr"`
	Type    int             `xml:"Type"`
	EapType msChapV2Element `xml:"EapType"`
}

type msChapV2Element struct {
	Xmlns                  string `xml:"xmlns,attr"`
	UseWinLogonCredentials bool   `xml:"UseWinLogonCredentials"`
}
