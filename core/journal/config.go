package journal

import "fmt"

// Backends accepted by Open.
const (
	BackendJSONL  = "jsonl"
	BackendSQLite = "sqlite"
	BackendNone   = "none"
)

// Config selects and tunes the journal store.
type Config struct {
	// Backend is "jsonl", "sqlite" or "none".
	Backend string `json:"backend"`
	// Path is the file location of the store.
	Path string `json:"path"`
	// MaxSizeMB triggers rotation of the JSONL file.
	MaxSizeMB int `json:"max_size_mb"`
	// MaxBackups limits the number of rotated files kept.
	MaxBackups int `json:"max_backups"`
	// MaxAgeDays removes rotated files older than this.
	MaxAgeDays int `json:"max_age_days"`
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.Backend == "" {
		c.Backend = BackendJSONL
	}
	if c.Path == "" {
		switch c.Backend {
		case BackendSQLite:
			c.Path = "chargeboard.db"
		default:
			c.Path = "chargeboard-journal.jsonl"
		}
	}
	if c.MaxSizeMB == 0 {
		c.MaxSizeMB = 10
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendJSONL, BackendSQLite:
		if c.Path == "" {
			return fmt.Errorf("journal: path is required")
		}
	case BackendNone:
	default:
		return fmt.Errorf("journal: unknown backend %q", c.Backend)
	}
	if c.MaxSizeMB < 0 || c.MaxBackups < 0 || c.MaxAgeDays < 0 {
		return fmt.Errorf("journal: rotation settings must not be negative")
	}
	return nil
}

// Open creates the store selected by cfg.
func Open(cfg Config) (Store, error) {
	switch cfg.Backend {
	case BackendJSONL:
		return NewJSONLStore(cfg.Path, cfg.MaxSizeMB, cfg.MaxBackups, cfg.MaxAgeDays)
	case BackendSQLite:
		return NewSQLiteStore(cfg.Path)
	case BackendNone:
		return NopStore{}, nil
	default:
		return nil, fmt.Errorf("journal: unknown backend %q", cfg.Backend)
	}
}
