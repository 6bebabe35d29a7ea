package wifi

import (
	"encoding/hex"
	"encoding/xml"
	"regexp"
	"strconv"
	"strings"

	"github.com/clbanning/mxj"
)

// Profile text is already UTF-8 by the time it is parsed, whatever encoding
// its declaration names.
var declaredEncoding = regexp.MustCompile(`^(<\?xml[^>]*?\sencoding\s*=\s*)(["'])[^"']*["']`)

// mxj trims these from every text node.
const trimmedChars = "\t\r\b\n "

// profileText holds the values whose leading and trailing spaces matter.
type profileText struct {
	Name        string     `xml:"name"`
	SSIDs       []ssidText `xml:"SSIDConfig>SSID"`
	KeyMaterial string     `xml:"MSM>security>sharedKey>keyMaterial"`
}

type ssidText struct {
	Name string `xml:"name"`
}

// Profile is the parsed form of a stored profile document.
type Profile struct {
	Name         string
	SSIDName     string
	SSIDHex      string
	NonBroadcast bool

	// ConnectionType is ESS or IBSS, ConnectionMode is auto or manual.
	ConnectionType string
	ConnectionMode string
	AutoSwitch     bool

	Authentication string
	Encryption     string
	UseOneX        bool

	SharedKey *SharedKey
	EAP       *EAPSettings

	// MACRandomization is nil when the document does not say.
	MACRandomization *bool
}

// SharedKey is the pre-shared key section of a profile.
type SharedKey struct {
	KeyType     string
	Protected   bool
	KeyMaterial string
}

// EAPSettings is the 802.1X section of an enterprise profile. Fields the
// document leaves out are zero.
type EAPSettings struct {
	Type      int
	AuthorID  int
	InnerType int

	DisableServerValidationPrompt bool
	ServerNames                   string
	TrustedRootCAs                []string
	FastReconnect                 bool
	InnerEAPOptional              bool
}

// IsProfileXML reports whether text parses as a profile document.
func IsProfileXML(text string) bool {
	return ParseProfile(text) != nil
}

// ParseProfile reads a profile document. It returns nil when text is not a
// profile: malformed XML, no WLANProfile root, an empty name, or no SSIDConfig
// or authEncryption section.
func ParseProfile(text string) *Profile {
	text = strings.TrimPrefix(text, "\ufeff")
	text = declaredEncoding.ReplaceAllString(text, "${1}${2}UTF-8${2}")
	mv, err := mxj.NewMapXml([]byte(text))
	if err != nil {
		return nil
	}

	root := element(mv.Old(), "WLANProfile")
	if root == nil {
		return nil
	}
	name, _ := childText(root, "name")
	if name == "" {
		return nil
	}
	ssidConfig := element(root, "SSIDConfig")
	if ssidConfig == nil {
		return nil
	}
	security := element(element(root, "MSM"), "security")
	authEncryption := element(security, "authEncryption")
	if authEncryption == nil {
		return nil
	}

	p := &Profile{Name: name}

	ssid := element(ssidConfig, "SSID")
	p.SSIDName, _ = childText(ssid, "name")
	p.SSIDHex, _ = childText(ssid, "hex")
	p.NonBroadcast, _ = childBool(ssidConfig, "nonBroadcast")

	p.ConnectionType, _ = childText(root, "connectionType")
	p.ConnectionMode, _ = childText(root, "connectionMode")
	p.AutoSwitch, _ = childBool(root, "autoSwitch")

	p.Authentication, _ = childText(authEncryption, "authentication")
	p.Encryption, _ = childText(authEncryption, "encryption")
	p.UseOneX, _ = childBool(authEncryption, "useOneX")

	if sharedKey := element(security, "sharedKey"); sharedKey != nil {
		p.SharedKey = &SharedKey{}
		p.SharedKey.KeyType, _ = childText(sharedKey, "keyType")
		p.SharedKey.Protected, _ = childBool(sharedKey, "protected")
		p.SharedKey.KeyMaterial, _ = childText(sharedKey, "keyMaterial")
	}

	if p.UseOneX {
		p.EAP = parseEAPSettings(element(security, "OneX"))
	}

	if enabled, ok := childBool(element(root, "MacRandomization"), "enableRandomization"); ok {
		p.MACRandomization = &enabled
	}

	p.restoreExactText(text)
	return p
}

// restoreExactText replaces the trimmed name, SSID name and key material with
// their text as written. A value is only replaced when it trims to what mxj
// already read.
func (p *Profile) restoreExactText(text string) {
	var exact profileText
	if err := xml.Unmarshal([]byte(text), &exact); err != nil {
		return
	}
	restore := func(dst *string, s string) {
		if s != *dst && strings.Trim(s, trimmedChars) == *dst {
			*dst = s
		}
	}
	restore(&p.Name, exact.Name)
	if len(exact.SSIDs) > 0 {
		restore(&p.SSIDName, exact.SSIDs[0].Name)
	}
	if p.SharedKey != nil {
		restore(&p.SharedKey.KeyMaterial, exact.KeyMaterial)
	}
}

func parseEAPSettings(oneX map[string]interface{}) *EAPSettings {
	hostConfig := element(element(oneX, "EAPConfig"), "EapHostConfig")
	if hostConfig == nil {
		return nil
	}

	s := &EAPSettings{}
	method := element(hostConfig, "EapMethod")
	s.Type, _ = childInt(method, "Type")
	s.AuthorID, _ = childInt(method, "AuthorId")

	eap := element(element(hostConfig, "Config"), "Eap")
	if t, ok := childInt(eap, "Type"); ok {
		s.Type = t
	}
	eapType := element(eap, "EapType")
	if eapType == nil {
		return s
	}

	validation := element(eapType, "ServerValidation")
	s.DisableServerValidationPrompt, _ = childBool(validation, "DisableUserPromptForServerValidation")
	s.ServerNames, _ = childText(validation, "ServerNames")
	s.TrustedRootCAs = childTexts(validation, "TrustedRootCA")
	s.FastReconnect, _ = childBool(eapType, "FastReconnect")
	s.InnerEAPOptional, _ = childBool(eapType, "InnerEapOptional")
	s.InnerType, _ = childInt(element(eapType, "Eap"), "Type")

	return s
}

// SSID returns the profile's SSID, preferring the hex form when present.
func (p *Profile) SSID() SSID {
	if p.SSIDHex != "" {
		if b, err := hex.DecodeString(p.SSIDHex); err == nil && len(b) <= MaxSSIDLength {
			return NewSSID(string(b))
		}
	}
	return NewSSID(p.SSIDName)
}

// Key returns the shared key material, or an empty string.
func (p *Profile) Key() string {
	if p.SharedKey == nil {
		return ""
	}
	return p.SharedKey.KeyMaterial
}

// lookup finds a child by local name, whether or not the document kept a
// namespace prefix on it.
func lookup(m map[string]interface{}, name string) interface{} {
	if m == nil {
		return nil
	}
	if v, ok := m[name]; ok {
		return v
	}
	for k, v := range m {
		if strings.HasPrefix(k, "-") {
			continue
		}
		if i := strings.LastIndexByte(k, ':'); i >= 0 && k[i+1:] == name {
			return v
		}
	}
	return nil
}

func first(v interface{}) interface{} {
	if list, ok := v.([]interface{}); ok {
		if len(list) == 0 {
			return nil
		}
		return list[0]
	}
	return v
}

func element(v interface{}, name string) map[string]interface{} {
	m, ok := v.(map[string]interface{})
	if !ok {
		return nil
	}
	child, _ := first(lookup(m, name)).(map[string]interface{})
	return child
}

func textOf(v interface{}) (string, bool) {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t), true
	case map[string]interface{}:
		s, _ := t["#text"].(string)
		return strings.TrimSpace(s), true
	}
	return "", false
}

func childText(m map[string]interface{}, name string) (string, bool) {
	return textOf(first(lookup(m, name)))
}

func childTexts(m map[string]interface{}, name string) []string {
	v := lookup(m, name)
	list, ok := v.([]interface{})
	if !ok {
		list = []interface{}{v}
	}
	var out []string
	for _, item := range list {
		if s, ok := textOf(item); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

func childBool(m map[string]interface{}, name string) (bool, bool) {
	s, ok := childText(m, name)
	if !ok {
		return false, false
	}
	b, err := strconv.ParseBool(s)
	return b, err == nil
}

func childInt(m map[string]interface{}, name string) (int, bool) {
	s, ok := childText(m, name)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	return n, err == nil
}
