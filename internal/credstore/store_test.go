package credstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testEmail  = "admin@example.com"
	otherEmail = "ops@example.com"
)

func sampleTokenSet() *TokenSet {
	return &TokenSet{
		AccessToken:   "ya29.access",
		RefreshToken:  "1//refresh",
		TokenType:     "Bearer",
		Expiry:        time.Date(2024, 5, 1, 13, 0, 0, 0, time.UTC),
		GrantedScopes: []string{"https://www.googleapis.com/auth/admin.directory.user"},
	}
}

// backends runs fn against every Store implementation.
func backends(t *testing.T, fn func(t *testing.T, s Store)) {
	t.Helper()

	t.Run("file", func(t *testing.T) {
		s, err := NewFileStore(t.TempDir())
		require.NoError(t, err)
		fn(t, s)
	})

	t.Run("sqlite", func(t *testing.T) {
		s, err := OpenSQLStore(filepath.Join(t.TempDir(), "credentials.db"))
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		fn(t, s)
	})

	t.Run("file encrypted", func(t *testing.T) {
		key, err := GenerateKey()
		require.NoError(t, err)
		c, err := CipherFromBase64(key)
		require.NoError(t, err)
		s, err := NewFileStore(t.TempDir(), WithCipher(c))
		require.NoError(t, err)
		fn(t, s)
	})
}

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		ts := sampleTokenSet()

		require.NoError(t, s.Save(ctx, testEmail, ts))

		got, err := s.Load(ctx, testEmail)
		require.NoError(t, err)
		assert.Equal(t, ts.AccessToken, got.AccessToken)
		assert.Equal(t, ts.RefreshToken, got.RefreshToken)
		assert.True(t, ts.Expiry.Equal(got.Expiry))
		assert.Equal(t, ts.GrantedScopes, got.GrantedScopes)
	})
}

func TestStore_SaveOverwrites(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		require.NoError(t, s.Save(ctx, testEmail, sampleTokenSet()))

		updated := sampleTokenSet()
		updated.AccessToken = "ya29.new"
		require.NoError(t, s.Save(ctx, testEmail, updated))

		got, err := s.Load(ctx, testEmail)
		require.NoError(t, err)
		assert.Equal(t, "ya29.new", got.AccessToken)
	})
}

func TestStore_LoadMissing(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		_, err := s.Load(context.Background(), testEmail)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestStore_DeleteIsIdempotent(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		require.NoError(t, s.Save(ctx, testEmail, sampleTokenSet()))

		require.NoError(t, s.Delete(ctx, testEmail))
		require.NoError(t, s.Delete(ctx, testEmail))

		_, err := s.Load(ctx, testEmail)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestStore_List(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		require.NoError(t, s.Save(ctx, otherEmail, sampleTokenSet()))
		require.NoError(t, s.Save(ctx, testEmail, sampleTokenSet()))

		emails, err := s.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{testEmail, otherEmail}, emails)
	})
}

func TestStore_RejectsPathLikeEmails(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		for _, email := range []string{"", "no-at-sign", "../evil@example.com", "a/b@example.com"} {
			assert.Error(t, s.Save(context.Background(), email, sampleTokenSet()), email)
		}
	})
}

func TestStore_ConcurrentSaves(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				assert.NoError(t, s.Save(ctx, testEmail, sampleTokenSet()))
			}()
		}
		wg.Wait()

		got, err := s.Load(ctx, testEmail)
		require.NoError(t, err)
		assert.Equal(t, "ya29.access", got.AccessToken)
	})
}

func TestFileStore_Permissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("POSIX permissions")
	}
	dir := filepath.Join(t.TempDir(), "creds")
	s, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, s.Save(context.Background(), testEmail, sampleTokenSet()))

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o700), info.Mode().Perm())

	info, err = os.Stat(s.Path(testEmail))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	assert.Equal(t, ".oauth2.admin@example.com.json", filepath.Base(s.Path(testEmail)))

	leftovers, err := filepath.Glob(filepath.Join(dir, "*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestSQLStore_DatabaseFileMode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("POSIX permissions")
	}
	path := filepath.Join(t.TempDir(), "credentials.db")
	s, err := OpenSQLStore(path)
	require.NoError(t, err)
	defer s.Close()

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestFileStore_CorruptRecord(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not json", "{{{"},
		{"empty token", `{"access_token":"","refresh_token":""}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewFileStore(t.TempDir())
			require.NoError(t, err)
			require.NoError(t, os.WriteFile(s.Path(testEmail), []byte(tt.content), 0o600))

			_, err = s.Load(context.Background(), testEmail)
			var corrupt *CorruptError
			require.True(t, errors.As(err, &corrupt))
			assert.Equal(t, testEmail, corrupt.Email)
		})
	}
}

func TestFileStore_WrongKeyIsCorrupt(t *testing.T) {
	dir := t.TempDir()
	k1, _ := GenerateKey()
	k2, _ := GenerateKey()
	c1, err := CipherFromBase64(k1)
	require.NoError(t, err)
	c2, err := CipherFromBase64(k2)
	require.NoError(t, err)

	writer, err := NewFileStore(dir, WithCipher(c1))
	require.NoError(t, err)
	require.NoError(t, writer.Save(context.Background(), testEmail, sampleTokenSet()))

	raw, err := os.ReadFile(writer.Path(testEmail))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "ya29.access")

	reader, err := NewFileStore(dir, WithCipher(c2))
	require.NoError(t, err)
	_, err = reader.Load(context.Background(), testEmail)
	var corrupt *CorruptError
	assert.ErrorAs(t, err, &corrupt)
}

func TestTokenSet_FreshFor(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name   string
		expiry time.Time
		want   bool
	}{
		{"an hour left", now.Add(time.Hour), true},
		{"30 seconds left", now.Add(30 * time.Second), false},
		{"exactly the margin", now.Add(time.Minute), false},
		{"expired", now.Add(-time.Minute), false},
		{"zero expiry", time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := sampleTokenSet()
			ts.Expiry = tt.expiry
			assert.Equal(t, tt.want, ts.FreshFor(now, time.Minute))
		})
	}
}

func TestTokenSet_MissingScopes(t *testing.T) {
	ts := sampleTokenSet()
	assert.Empty(t, ts.MissingScopes([]string{"https://www.googleapis.com/auth/admin.directory.user"}))
	assert.Equal(t,
		[]string{"https://www.googleapis.com/auth/admin.directory.group"},
		ts.MissingScopes([]string{"https://www.googleapis.com/auth/admin.directory.user", "https://www.googleapis.com/auth/admin.directory.group"}))

	empty := &TokenSet{AccessToken: "x"}
	assert.Len(t, empty.MissingScopes([]string{"a", "b"}), 2)
}

func TestParseScopes(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, ParseScopes(" c a  b a "))
	assert.Empty(t, ParseScopes(""))
}

func TestOpen(t *testing.T) {
	s, err := Open(Config{Dir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)

	s, err = Open(Config{Backend: BackendSQLite, Path: filepath.Join(t.TempDir(), "c.db")})
	require.NoError(t, err)
	assert.IsType(t, &SQLStore{}, s)
	_ = s.(*SQLStore).Close()

	_, err = Open(Config{Backend: "redis"})
	assert.Error(t, err)

	_, err = Open(Config{Backend: BackendSQLite})
	assert.Error(t, err)

	_, err = Open(Config{EncryptionKey: "not-base64!"})
	assert.Error(t, err)
}
