package wifi

import (
	"encoding/xml"
	"fmt"
)

const (
	eapUserCredentialsNamespace = "http://www.microsoft.com/provisioning/EapHostUserCredentials"
	eapUserPropertiesNamespace  = "http://www.microsoft.com/provisioning/EapUserPropertiesV1"
	baseEapUserNamespace        = "http://www.microsoft.com/provisioning/BaseEapUserPropertiesV1"
	msPeapUserNamespace         = "http://www.microsoft.com/provisioning/MsPeapUserPropertiesV1"
	msChapV2UserNamespace       = "http://www.microsoft.com/provisioning/MsChapV2UserPropertiesV1"
)

// GenerateEAPUserData builds the PEAP-MSCHAPv2 user credentials document that
// is attached to an enterprise profile. Values are escaped, so any string is
// safe to pass.
func GenerateEAPUserData(cipher CipherAlgorithm, username, password, domain string) (string, error) {
	if cipher == CipherNone || cipher.IsWEP() {
		return "", fmt.Errorf("enterprise credentials over %s: %w", cipher, ErrNotSupported)
	}

	doc := eapUserDocument{
		Xmlns: eapUserCredentialsNamespace,
		EapMethod: eapUserMethodElement{
			Type:     nsValue{eapCommonNamespace, "25"},
			AuthorID: nsValue{eapCommonNamespace, "0"},
		},
		Credentials: eapCredentialsElement{
			Xmlns: eapUserPropertiesNamespace,
			Eap: eapUserPEAPElement{
				Xmlns: baseEapUserNamespace,
				Type:  EAPTypePEAP,
				EapType: eapUserPEAPTypeElement{
					Xmlns:           msPeapUserNamespace,
					RoutingIdentity: username,
					Eap: eapUserInnerElement{
						Xmlns: baseEapUserNamespace,
						Type:  EAPTypeMSCHAPv2,
						EapType: eapUserMSCHAPv2Element{
							Xmlns:       msChapV2UserNamespace,
							Username:    username,
							Password:    password,
							LogonDomain: domain,
						},
					},
				},
			},
		},
	}

	out, err := xml.MarshalIndent(doc, "", "\t")
	if err != nil {
		return "", err
	}
	return string(out), nil
}

type eapUserDocument struct {
	XMLName     xml.Name              `xml:"EapHostUserCredentials"`
	Xmlns       string                `xml:"xmlns,attr"`
	EapMethod   eapUserMethodElement  `xml:"EapMethod"`
	Credentials eapCredentialsElement `xml:"Credentials"`
}

type eapUserMethodElement struct {
	Type     nsValue `xml:"Type"`
	AuthorID nsValue `xml:"AuthorId"`
}

type eapCredentialsElement struct {
	Xmlns string             `xml:"xmlns,attr"`
	Eap   eapUserPEAPElement `xml:"Eap"`
}

type eapUserPEAPElement struct {
	Xmlns   string                 `xml:"xmlns,attr"`
	Type    int                    `xml:"Type"`
	EapType eapUserPEAPTypeElement `xml:"EapType"`
}

type eapUserPEAPTypeElement struct {
	Xmlns           string              `xml:"xmlns,attr"`
	RoutingIdentity string              `xml:"RoutingIdentity"`
	Eap             eapUserInnerElement `xml:"Eap"`
}

type eapUserInnerElement struct {
	Xmlns   string                 `xml:"xmlns,attr"`
	Type    int                    `xml:"Type"`
	EapType eapUserMSCHAPv2Element `xml:"EapType"`
}

type eapUserMSCHAPv2Element struct {
	Xmlns       string `xml:"xmlns,attr"`
	Username    string `xml:"Username"`
	Password    string `xml:"Password"`
	LogonDomain string `xml:"LogonDomain"`
}
