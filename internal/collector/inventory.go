package collector

import (
	"errors"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/cloudpanel-tools/goaccess-hub/internal/exitcodes"
	"github.com/cloudpanel-tools/goaccess-hub/internal/validate"
)

// DefaultLogPath is the remote access log collected when a server has none set.
const DefaultLogPath = "/var/log/nginx/access.log"

// Server is one remote host whose access log is pulled over rsync.
type Server struct {
	Name    string `yaml:"name" json:"name"`
	Address string `yaml:"address" json:"address"` // user@host[:port]
	LogPath string `yaml:"log_path,omitempty" json:"log_path,omitempty"`
}

// RemoteLog returns LogPath or DefaultLogPath.
func (s Server) RemoteLog() string {
	if s.LogPath == "" {
		return DefaultLogPath
	}
	return s.LogPath
}

// Inventory is the servers.yaml document.
type Inventory struct {
	Servers []Server `yaml:"servers" json:"servers"`
}

// LoadInventory reads path. A missing file is an empty inventory.
func LoadInventory(path string) (*Inventory, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &Inventory{}, nil
	}
	if err != nil {
		return nil, err
	}
	var inv Inventory
	if err := yaml.Unmarshal(b, &inv); err != nil {
		return nil, exitcodes.WrapError(exitcodes.InvalidArgs, "failed to parse "+path, err)
	}
	return &inv, nil
}

// Save writes the inventory sorted by name.
func (inv *Inventory) Save(path string) error {
	sort.Slice(inv.Servers, func(i, j int) bool { return inv.Servers[i].Name < inv.Servers[j].Name })
	b, err := yaml.Marshal(inv)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

// Add validates s and appends it. Names and addresses are unique.
func (inv *Inventory) Add(s Server) error {
	if err := validate.ServerName(s.Name); err != nil {
		return err
	}
	if err := validate.ServerAddress(s.Address); err != nil {
		return err
	}
	if s.LogPath != "" && !filepath.IsAbs(s.LogPath) {
		return exitcodes.ValidationErrf("log path %q must be absolute", s.LogPath)
	}
	for _, have := range inv.Servers {
		if have.Name == s.Name {
			return exitcodes.ValidationErrf("server %q already exists", s.Name)
		}
		if have.Address == s.Address && have.RemoteLog() == s.RemoteLog() {
			return exitcodes.ValidationErrf("%s:%s is already collected as %q", s.Address, s.RemoteLog(), have.Name)
		}
	}
	inv.Servers = append(inv.Servers, s)
	return nil
}

// Remove deletes the server called name.
func (inv *Inventory) Remove(name string) error {
	for i, s := range inv.Servers {
		if s.Name == name {
			inv.Servers = append(inv.Servers[:i], inv.Servers[i+1:]...)
			return nil
		}
	}
	return exitcodes.InvalidArgsErrorf("no server named %q", name)
}

// Get returns the server called name.
func (inv *Inventory) Get(name string) (Server, bool) {
	for _, s := range inv.Servers {
		if s.Name == name {
			return s, true
		}
	}
	return Server{}, false
}
