package credstore

import "fmt"

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Config selects and configures a backend.
type Config struct {
	Backend string
	// Dir is the FileStore directory.
	Dir string
	// Path is the SQLite database file.
	Path string
	// EncryptionKey is an optional base64 AES-256 key.
	EncryptionKey string
}

// Open builds the Store described by cfg. Callers should close the result
// when it implements io.Closer.
func Open(cfg Config) (Store, error) {
	c, err := CipherFromBase64(cfg.EncryptionKey)
	if err != nil {
		return nil, err
	}

	switch cfg.Backend {
	case "", BackendFile:
		fs, err := NewFileStore(cfg.Dir, WithCipher(c))
		if err != nil {
			return nil, err
		}
		return fs, nil
	case BackendSQLite:
		if cfg.Path == "" {
			return nil, fmt.Errorf("sqlite credential store requires a database path")
		}
		ss, err := OpenSQLStore(cfg.Path, WithCipher(c))
		if err != nil {
			return nil, err
		}
		return ss, nil
	default:
		return nil, fmt.Errorf("unknown credential store backend %q", cfg.Backend)
	}
}
