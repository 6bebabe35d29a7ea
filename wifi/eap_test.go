package wifi

import (
	"errors"
	"testing"

	"github.com/clbanning/mxj"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateEAPUserData(t *testing.T) {
	t.Parallel()

	doc, err := GenerateEAPUserData(CipherCCMP, `jane&doe`, `p<ss>"word"`, "CORP")
	require.NoError(t, err)

	mv, err := mxj.NewMapXml([]byte(doc))
	require.NoError(t, err, "generated credentials must be well formed")

	root := element(mv.Old(), "EapHostUserCredentials")
	require.NotNil(t, root)

	method := element(root, "EapMethod")
	methodType, _ := childText(method, "Type")
	assert.Equal(t, "25", methodType)
	authorID, _ := childText(method, "AuthorId")
	assert.Equal(t, "0", authorID)

	peap := element(element(element(root, "Credentials"), "Eap"), "EapType")
	require.NotNil(t, peap)
	identity, _ := childText(peap, "RoutingIdentity")
	assert.Equal(t, "jane&doe", identity)

	inner := element(peap, "Eap")
	innerType, _ := childInt(inner, "Type")
	assert.Equal(t, EAPTypeMSCHAPv2, innerType)

	mschap := element(inner, "EapType")
	require.NotNil(t, mschap)
	username, _ := childText(mschap, "Username")
	password, _ := childText(mschap, "Password")
	domain, _ := childText(mschap, "LogonDomain")
	assert.Equal(t, "jane&doe", username)
	assert.Equal(t, `p<ss>"word"`, password)
	assert.Equal(t, "CORP", domain)
}

func TestGenerateEAPUserData_RequiresEncryption(t *testing.T) {
	t.Parallel()

	for _, cipher := range []CipherAlgorithm{CipherNone, CipherWEP, CipherWEP104} {
		_, err := GenerateEAPUserData(cipher, "user", "password", "")
		assert.True(t, errors.Is(err, ErrNotSupported), "cipher %s: got %v", cipher, err)
	}
}
