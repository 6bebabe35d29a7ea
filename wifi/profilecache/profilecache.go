// Package profilecache keeps exported profile documents as .xml files in a
// directory, one file per profile.
package profilecache

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/shazow/wifictl/wifi"
)

const ext = ".xml"

// Cache is a directory of profile documents.
type Cache struct {
	dir string
}

// New returns a cache rooted at dir. The directory is created on the first
// save.
func New(dir string) *Cache {
	return &Cache{dir: dir}
}

func (c *Cache) Dir() string {
	return c.dir
}

// fileName maps a profile name onto a file name that is valid on every
// platform.
func fileName(name string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 || strings.ContainsRune(`<>:"/\|?*`, r) {
			return '_'
		}
		return r
	}, name) + ext
}

func (c *Cache) path(name string) string {
	return filepath.Join(c.dir, fileName(name))
}

// decode turns file contents into a string. UTF-8 is assumed unless a byte
// order mark says the file is UTF-16, which is how the platform exports them.
func decode(data []byte) (string, error) {
	out, _, err := transform.Bytes(unicode.BOMOverride(unicode.UTF8.NewDecoder()), data)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func (c *Cache) read(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	doc, err := decode(data)
	if err != nil {
		return "", fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return doc, nil
}

// Profiles parses every file in the cache. Files that are not profile
// documents are skipped. A missing directory is an empty cache.
func (c *Cache) Profiles() ([]*wifi.Profile, error) {
	entries, err := os.ReadDir(c.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read profile cache: %w", err)
	}

	var profiles []*wifi.Profile
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ext) {
			continue
		}
		doc, err := c.read(filepath.Join(c.dir, e.Name()))
		if err != nil {
			return nil, err
		}
		if p := wifi.ParseProfile(doc); p != nil {
			profiles = append(profiles, p)
		}
	}
	sort.Slice(profiles, func(i, j int) bool {
		return profiles[i].Name < profiles[j].Name
	})
	return profiles, nil
}

// Names lists the profile names in the cache, sorted.
func (c *Cache) Names() ([]string, error) {
	profiles, err := c.Profiles()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(profiles))
	for _, p := range profiles {
		names = append(names, p.Name)
	}
	return names, nil
}

// Load returns the cached document for name.
func (c *Cache) Load(name string) (string, error) {
	doc, err := c.read(c.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("cached profile %q: %w", name, wifi.ErrNotFound)
	}
	return doc, err
}

// Save stores doc under name. Documents that are not profiles are refused.
func (c *Cache) Save(name string, doc string) error {
	if wifi.ParseProfile(doc) == nil {
		return fmt.Errorf("cannot cache %q, not a profile document: %w", name, wifi.ErrOperationFailed)
	}
	if err := os.MkdirAll(c.dir, 0o700); err != nil {
		return fmt.Errorf("failed to create profile cache: %w", err)
	}
	return os.WriteFile(c.path(name), []byte(doc), 0o600)
}

// SaveFrom exports a stored profile from iface into the cache.
func (c *Cache) SaveFrom(iface *wifi.Interface, name string, plaintext bool) error {
	doc, err := iface.ProfileXML(name, plaintext)
	if err != nil {
		return fmt.Errorf("failed to export profile %q: %w", name, err)
	}
	return c.Save(name, doc)
}

// Delete removes name from the cache.
func (c *Cache) Delete(name string) error {
	err := os.Remove(c.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("cached profile %q: %w", name, wifi.ErrNotFound)
	}
	return err
}
