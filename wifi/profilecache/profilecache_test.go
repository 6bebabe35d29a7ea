package profilecache

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/unicode"

	"github.com/shazow/wifictl/wifi"
	"github.com/shazow/wifictl/wifi/mock"
)

func init() {
	mock.DefaultActionSleep = 0
}

func profileFor(t *testing.T, ssid, key string) string {
	t.Helper()
	doc, err := wifi.GenerateProfile(wifi.Network{
		SSID:            wifi.NewSSID(ssid),
		BSSType:         wifi.BSSTypeInfrastructure,
		SecurityEnabled: true,
		AuthAlgorithm:   wifi.AuthRSNAPSK,
		CipherAlgorithm: wifi.CipherCCMP,
	}, key)
	require.NoError(t, err)
	return doc
}

func TestSaveLoadDelete(t *testing.T) {
	t.Parallel()

	c := New(filepath.Join(t.TempDir(), "nested", "profiles"))

	names, err := c.Names()
	require.NoError(t, err)
	assert.Empty(t, names, "a missing directory is an empty cache")

	home := profileFor(t, "Home", "hunter22")
	require.NoError(t, c.Save("Home", home))
	require.NoError(t, c.Save("Work/Lab", profileFor(t, "Work/Lab", "labpassword")))

	names, err = c.Names()
	require.NoError(t, err)
	assert.Equal(t, []string{"Home", "Work/Lab"}, names)

	doc, err := c.Load("Home")
	require.NoError(t, err)
	assert.Equal(t, home, doc)

	_, err = os.Stat(filepath.Join(c.Dir(), "Work_Lab.xml"))
	assert.NoError(t, err, "unsafe characters are replaced in file names")

	require.NoError(t, c.Delete("Home"))
	_, err = c.Load("Home")
	assert.ErrorIs(t, err, wifi.ErrNotFound)
	assert.ErrorIs(t, c.Delete("Home"), wifi.ErrNotFound)
}

func TestSaveRejectsNonProfiles(t *testing.T) {
	t.Parallel()

	c := New(t.TempDir())
	err := c.Save("junk", "<NotAProfile/>")
	assert.ErrorIs(t, err, wifi.ErrOperationFailed)
}

func TestProfilesSkipsForeignFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	c := New(dir)
	require.NoError(t, c.Save("Home", profileFor(t, "Home", "hunter22")))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hello"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.xml"), []byte("<config/>"), 0o600))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.xml"), 0o700))

	profiles, err := c.Profiles()
	require.NoError(t, err)
	require.Len(t, profiles, 1)
	assert.Equal(t, "Home", profiles[0].Name)
	assert.Equal(t, "hunter22", profiles[0].Key())
}

func TestLoadUTF16(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	doc := strings.Replace(profileFor(t, "Café", "motdepasse"), `encoding="UTF-8"`, `encoding="UTF-16"`, 1)
	encoded, err := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder().String(doc)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Café.xml"), []byte(encoded), 0o600))

	c := New(dir)
	loaded, err := c.Load("Café")
	require.NoError(t, err)
	assert.Equal(t, doc, loaded)

	names, err := c.Names()
	require.NoError(t, err)
	assert.Equal(t, []string{"Café"}, names)
}

func TestSaveFrom(t *testing.T) {
	t.Parallel()

	d, err := mock.New()
	require.NoError(t, err)
	client, err := wifi.NewClient(d)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	iface, ok := client.Interface(mock.InterfaceID)
	require.True(t, ok)

	c := New(t.TempDir())
	require.NoError(t, c.SaveFrom(iface, "Password is password", true))

	doc, err := c.Load("Password is password")
	require.NoError(t, err)
	assert.Equal(t, "password", wifi.ParseProfile(doc).Key())

	err = c.SaveFrom(iface, "Nope", true)
	assert.ErrorIs(t, err, wifi.ErrNotFound)
}
