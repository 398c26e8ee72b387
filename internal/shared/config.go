package shared

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
)

const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

type ServerConfig struct {
	Addr               string `json:"addr"`
	Root               string `json:"root"`
	Reserved           string `json:"reserved"`
	ResourcesPrefix    string `json:"resources_prefix"`
	StoreBackend       string `json:"store_backend"`
	StorePath          string `json:"store_path"`
	RequestLog         string `json:"request_log"` // "-" disables
	MaxConns           int    `json:"max_conns"`
	MaxHeaderBytes     int    `json:"max_header_bytes"`
	MaxBodyBytes       int64  `json:"max_body_bytes"`
	ReadTimeoutSeconds int    `json:"read_timeout_seconds"` // 0 means no deadline
	ShutdownSeconds    int    `json:"shutdown_seconds"`
}

// LoadServerConfig reads a JSON config file and applies environment
// overrides on top. An empty path skips the file. Callers apply their own
// overrides (flags) and then call Normalize.
func LoadServerConfig(path string) (*ServerConfig, error) {
	var c ServerConfig
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(b, &c); err != nil {
			return nil, err
		}
	}
	c.applyEnv()
	return &c, nil
}

func (c *ServerConfig) applyEnv() {
	if v := os.Getenv("LAB_ADDR"); v != "" {
		c.Addr = v
	}
	if v := os.Getenv("LAB_ROOT"); v != "" {
		c.Root = v
	}
	if v := os.Getenv("LAB_STORE_BACKEND"); v != "" {
		c.StoreBackend = v
	}
	if v := os.Getenv("LAB_STORE_PATH"); v != "" {
		c.StorePath = v
	}
	if v := os.Getenv("LAB_MAX_CONNS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxConns = n
		}
	}
}

// Normalize fills defaults. Store and log paths derive from Root, so set
// Root before calling it.
func (c *ServerConfig) Normalize() error {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if c.Root == "" {
		c.Root = "./Server"
	}
	if c.Reserved == "" {
		c.Reserved = "private"
	}
	if c.ResourcesPrefix == "" {
		c.ResourcesPrefix = "resources"
	}
	switch c.StoreBackend {
	case "":
		c.StoreBackend = BackendJSON
	case BackendJSON, BackendSQLite:
	default:
		return errors.New("store_backend must be json or sqlite")
	}
	if c.StorePath == "" {
		name := "resources.json"
		if c.StoreBackend == BackendSQLite {
			name = "resources.db"
		}
		c.StorePath = filepath.Join(c.Root, c.Reserved, name)
	}
	if c.RequestLog == "" {
		c.RequestLog = filepath.Join(c.Root, c.Reserved, "requests.log")
	}
	if c.MaxConns <= 0 {
		c.MaxConns = 256
	}
	if c.MaxHeaderBytes <= 0 {
		c.MaxHeaderBytes = 64 << 10
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = 32 << 20
	}
	if c.ReadTimeoutSeconds < 0 {
		c.ReadTimeoutSeconds = 0
	}
	if c.ShutdownSeconds <= 0 {
		c.ShutdownSeconds = 5
	}
	return nil
}

type ClientConfig struct {
	ServerURL      string `json:"server_url"`
	TimeoutSeconds int    `json:"timeout_seconds"`
	DownloadDir    string `json:"download_dir"`
}

// LoadClientConfig reads path if it exists; a missing file yields defaults.
func LoadClientConfig(path string) (*ClientConfig, error) {
	var c ClientConfig
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		if err == nil {
			if err := json.Unmarshal(b, &c); err != nil {
				return nil, err
			}
		}
	}
	if v := os.Getenv("LAB_SERVER_URL"); v != "" {
		c.ServerURL = v
	}
	if c.ServerURL == "" {
		c.ServerURL = "http://localhost:8080"
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 20
	}
	if c.DownloadDir == "" {
		c.DownloadDir = "./downloads"
	}
	return &c, nil
}

// SaveClientConfig writes c as indented JSON, creating the parent directory.
// lab-client -init-config uses it to seed a config file.
func SaveClientConfig(path string, c *ClientConfig) error {
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, append(b, '\n'), 0600)
}
