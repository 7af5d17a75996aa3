package credstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	filePrefix = ".oauth2."
	fileSuffix = ".json"

	dirMode  = 0o700
	fileMode = 0o600
)

// FileStore keeps one JSON file per account named .oauth2.<email>.json.
type FileStore struct {
	dir    string
	cipher *Cipher
}

var _ Store = (*FileStore)(nil)

// NewFileStore creates the credentials directory (mode 0700) if needed.
func NewFileStore(dir string, opts ...Option) (*FileStore, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, dirMode); err != nil {
		return nil, fmt.Errorf("failed to create credentials directory: %w", err)
	}
	o := buildOptions(opts)
	return &FileStore{dir: dir, cipher: o.cipher}, nil
}

// Dir returns the credentials directory.
func (s *FileStore) Dir() string {
	return s.dir
}

// Path returns the file that holds the credential of email.
func (s *FileStore) Path(email string) string {
	return filepath.Join(s.dir, filePrefix+email+fileSuffix)
}

func (s *FileStore) Load(ctx context.Context, email string) (*TokenSet, error) {
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.Path(email))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read credential file: %w", err)
	}
	return decode(email, data, s.cipher)
}

// Save writes to a temporary file in the same directory, forces mode 0600,
// syncs and renames it over the previous record.
func (s *FileStore) Save(ctx context.Context, email string, ts *TokenSet) error {
	if err := validateEmail(email); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := encode(ts, s.cipher)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, filePrefix+"*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if err := tmp.Chmod(fileMode); err != nil {
		return fmt.Errorf("failed to set credential file mode: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("failed to write credential file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync credential file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close credential file: %w", err)
	}
	if err := os.Rename(tmpName, s.Path(email)); err != nil {
		return fmt.Errorf("failed to replace credential file: %w", err)
	}
	committed = true
	return nil
}

func (s *FileStore) Delete(ctx context.Context, email string) error {
	if err := validateEmail(email); err != nil {
		return err
	}
	if err := os.Remove(s.Path(email)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete credential file: %w", err)
	}
	return nil
}

func (s *FileStore) List(ctx context.Context) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, filePrefix+"*"+fileSuffix))
	if err != nil {
		return nil, fmt.Errorf("failed to list credential files: %w", err)
	}

	emails := make([]string, 0, len(matches))
	for _, m := range matches {
		name := filepath.Base(m)
		email := strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), fileSuffix)
		if validateEmail(email) != nil {
			continue
		}
		emails = append(emails, email)
	}
	sort.Strings(emails)
	return emails, nil
}
