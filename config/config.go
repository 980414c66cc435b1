// Package config loads docstore settings from YAML.
package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nasdf/docstore/codec"
	"github.com/nasdf/docstore/core"
	"github.com/nasdf/docstore/encryption"
)

const (
	BackendDirectory = "directory"
	BackendLevelDB   = "leveldb"
	BackendMemory    = "memory"
)

// Config contains all docstore settings.
type Config struct {
	// Root is the directory collections are stored under.
	Root string `yaml:"root"`
	// ExcludeFromBackup marks collection directories as excluded from backups.
	ExcludeFromBackup bool `yaml:"excludeFromBackup"`
	// Backend selects the collection storage.
	Backend string `yaml:"backend"`
	// CacheExpiration is how long decoded documents are cached.
	CacheExpiration time.Duration `yaml:"cacheExpiration"`
	// Serializers is the ordered list of codec names.
	Serializers []string `yaml:"serializers"`
	// Encryption configures document encryption.
	Encryption Encryption `yaml:"encryption"`
	// HTTP configures the http server.
	HTTP HTTP `yaml:"http"`
}

// Encryption configures the encryption hook.
//
// Key takes precedence over Passphrase. When neither is set documents are not encrypted.
type Encryption struct {
	// Key is a hex encoded XChaCha20-Poly1305 key.
	Key string `yaml:"key"`
	// Passphrase is used to derive a key with argon2id.
	Passphrase string `yaml:"passphrase"`
	// Salt is used with Passphrase.
	Salt string `yaml:"salt"`
}

type HTTP struct {
	// Listen is the address the server binds to.
	Listen string `yaml:"listen"`
	// Secret enables HS256 bearer token authentication.
	Secret string `yaml:"secret"`
}

// Default returns the default configuration.
func Default() Config {
	root := "docstore"
	if home, err := os.UserHomeDir(); err == nil {
		root = filepath.Join(home, ".docstore")
	}
	return Config{
		Root:              root,
		ExcludeFromBackup: true,
		Backend:           BackendDirectory,
		Serializers:       codec.DefaultChain().Names(),
		HTTP: HTTP{
			Listen: "127.0.0.1:8080",
		},
	}
}

// Parse decodes YAML on top of the default configuration.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Load reads and parses the configuration file at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	return Parse(data)
}

// Hook returns the configured encryption hook.
func (c Config) Hook() (encryption.Hook, error) {
	switch {
	case c.Encryption.Key != "":
		key, err := hex.DecodeString(c.Encryption.Key)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", encryption.ErrInvalidKey, err)
		}
		return encryption.NewXChaCha20(key)
	case c.Encryption.Passphrase != "":
		if c.Encryption.Salt == "" {
			return nil, fmt.Errorf("%w: passphrase requires a salt", encryption.ErrInvalidKey)
		}
		key := encryption.DeriveKey([]byte(c.Encryption.Passphrase), []byte(c.Encryption.Salt))
		return encryption.NewXChaCha20(key)
	default:
		return encryption.Identity{}, nil
	}
}

// Storage returns the configured storage backend.
func (c Config) Storage() (core.StorageFunc, error) {
	switch c.Backend {
	case "", BackendDirectory:
		return core.DirectoryStorage(c.Root, c.ExcludeFromBackup), nil
	case BackendLevelDB:
		return core.LevelDBStorage(c.Root), nil
	case BackendMemory:
		return core.MemoryStorage(), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", c.Backend)
	}
}

// Options returns the core options described by the configuration.
func (c Config) Options() (core.Options, error) {
	chain, err := codec.ParseChain(c.Serializers)
	if err != nil {
		return core.Options{}, err
	}
	hook, err := c.Hook()
	if err != nil {
		return core.Options{}, err
	}
	store, err := c.Storage()
	if err != nil {
		return core.Options{}, err
	}
	return core.Options{
		RootDirectory:     c.Root,
		ExcludeFromBackup: c.ExcludeFromBackup,
		Encryption:        hook,
		Serializer:        chain,
		Storage:           store,
		CacheExpiration:   c.CacheExpiration,
	}, nil
}
