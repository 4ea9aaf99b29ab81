package cipher

import (
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
)

func testKey(b byte) []byte {
	key := make([]byte, KeySize)
	for i := range key {
		key[i] = b
	}
	return key
}

func TestNew(t *testing.T) {
	t.Run("valid key", func(t *testing.T) {
		if _, err := New(testKey(1)); err != nil {
			t.Fatalf("New() error = %v", err)
		}
	})

	t.Run("short key", func(t *testing.T) {
		if _, err := New(make([]byte, 16)); !errors.Is(err, ErrInvalidKey) {
			t.Errorf("New() error = %v, want ErrInvalidKey", err)
		}
	})

	t.Run("nil key", func(t *testing.T) {
		if _, err := New(nil); !errors.Is(err, ErrInvalidKey) {
			t.Errorf("New() error = %v, want ErrInvalidKey", err)
		}
	})
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	c, err := New(testKey(1))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	for _, plaintext := range []string{
		"john.doe@example.com",
		"9876543210",
		"",
		"text with spaces and symbols !@#",
		"ünïcödé",
	} {
		ct, err := c.Encrypt(plaintext)
		if err != nil {
			t.Fatalf("Encrypt(%q) error = %v", plaintext, err)
		}
		got, err := c.Decrypt(ct)
		if err != nil {
			t.Fatalf("Decrypt() error = %v", err)
		}
		if got != plaintext {
			t.Errorf("round trip = %q, want %q", got, plaintext)
		}
	}
}

func TestEncryptNonceUniqueness(t *testing.T) {
	c, _ := New(testKey(1))

	a, err := c.Encrypt("same plaintext")
	if err != nil {
		t.Fatal(err)
	}
	b, err := c.Encrypt("same plaintext")
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Error("two encryptions of the same plaintext produced identical ciphertexts")
	}
}

func TestDecryptWrongKey(t *testing.T) {
	c1, _ := New(testKey(1))
	c2, _ := New(testKey(2))

	ct, err := c1.Encrypt("secret")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c2.Decrypt(ct); !errors.Is(err, ErrDecrypt) {
		t.Errorf("Decrypt() with wrong key error = %v, want ErrDecrypt", err)
	}
}

func TestDecryptMalformed(t *testing.T) {
	c, _ := New(testKey(1))

	tests := []struct {
		name       string
		ciphertext string
	}{
		{"not base64", "!!!not base64!!!"},
		{"too short", base64.StdEncoding.EncodeToString([]byte{formatVersion, 1, 2})},
		{"unknown version", base64.StdEncoding.EncodeToString(append([]byte{99}, make([]byte, 20)...))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := c.Decrypt(tt.ciphertext); !errors.Is(err, ErrMalformed) {
				t.Errorf("Decrypt(%q) error = %v, want ErrMalformed", tt.ciphertext, err)
			}
		})
	}
}

func TestDecryptTampered(t *testing.T) {
	c, _ := New(testKey(1))

	ct, err := c.Encrypt("secret")
	if err != nil {
		t.Fatal(err)
	}
	data, _ := base64.StdEncoding.DecodeString(ct)
	data[len(data)-1] ^= 0xff
	tampered := base64.StdEncoding.EncodeToString(data)

	if _, err := c.Decrypt(tampered); !errors.Is(err, ErrDecrypt) {
		t.Errorf("Decrypt() of tampered ciphertext error = %v, want ErrDecrypt", err)
	}
}

func TestFileKeyStore(t *testing.T) {
	t.Run("load absent returns nil key", func(t *testing.T) {
		store := NewFileKeyStore(filepath.Join(t.TempDir(), "missing.key"), zap.NewNop())
		key, err := store.Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if key != nil {
			t.Errorf("Load() of absent file = %v, want nil", key)
		}
	})

	t.Run("save then load", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "dir", "test.key")
		store := NewFileKeyStore(path, zap.NewNop())

		want := testKey(7)
		if err := store.Save(want); err != nil {
			t.Fatalf("Save() error = %v", err)
		}

		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("Stat() error = %v", err)
		}
		if perm := info.Mode().Perm(); perm != 0600 {
			t.Errorf("key file permissions = %o, want 0600", perm)
		}

		got, err := store.Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if string(got) != string(want) {
			t.Error("loaded key differs from saved key")
		}
	})

	t.Run("save rejects wrong size", func(t *testing.T) {
		store := NewFileKeyStore(filepath.Join(t.TempDir(), "test.key"), zap.NewNop())
		if err := store.Save(make([]byte, 16)); !errors.Is(err, ErrInvalidKey) {
			t.Errorf("Save() error = %v, want ErrInvalidKey", err)
		}
	})

	t.Run("load rejects truncated file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "test.key")
		if err := os.WriteFile(path, []byte("short"), 0600); err != nil {
			t.Fatal(err)
		}
		store := NewFileKeyStore(path, zap.NewNop())
		if _, err := store.Load(); err == nil {
			t.Error("Load() of truncated key file should fail")
		}
	})
}

func TestLoadOrCreate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.key")
	store := NewFileKeyStore(path, zap.NewNop())

	first, err := LoadOrCreate(store)
	if err != nil {
		t.Fatalf("LoadOrCreate() error = %v", err)
	}
	if len(first) != KeySize {
		t.Fatalf("generated key is %d bytes, want %d", len(first), KeySize)
	}

	second, err := LoadOrCreate(store)
	if err != nil {
		t.Fatalf("LoadOrCreate() second call error = %v", err)
	}
	if string(first) != string(second) {
		t.Error("second startup generated a different key")
	}

	// The generated key must actually drive the cipher
	if _, err := New(first); err != nil {
		t.Errorf("New() with generated key error = %v", err)
	}
}
