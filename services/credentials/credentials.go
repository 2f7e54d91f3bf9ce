// Package credentials keeps portal logins in a .env file next to the
// data directory. Secrets are sealed with a machine-local key so the
// file can sit in a synced folder without exposing passwords; values
// written before sealing existed load as-is.
package credentials

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

const sealedPrefix = "enc:"

const (
	KeyPayslipID  = "MY_LOGIN_ID"
	KeyPayslipPW  = "MY_PASSWORD"
	KeyScheduleID = "SCHEDULE_LOGIN_ID"
	KeySchedulePW = "SCHEDULE_LOGIN_PW"
)

type Store struct {
	EnvPath string
	KeyPath string
}

func NewStore(dir string) Store {
	return Store{
		EnvPath: filepath.Join(dir, ".env"),
		KeyPath: filepath.Join(dir, ".worktool_key"),
	}
}

// key loads the sealing key, generating one on first use.
func (s Store) key() ([]byte, error) {
	raw, err := os.ReadFile(s.KeyPath)
	if err == nil {
		key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(raw)))
		if err != nil || len(key) != 32 {
			return nil, errors.New("key file is corrupt")
		}
		return key, nil
	}
	if !os.IsNotExist(err) {
		return nil, err
	}

	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(s.KeyPath), 0700); err != nil {
		return nil, err
	}
	encoded := base64.StdEncoding.EncodeToString(key)
	if err := os.WriteFile(s.KeyPath, []byte(encoded), 0600); err != nil {
		return nil, err
	}
	slog.Info("generated new credential key", "path", s.KeyPath)
	return key, nil
}

func (s Store) gcm() (cipher.AEAD, error) {
	key, err := s.key()
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// Seal encrypts a value for storage. Empty stays empty.
func (s Store) Seal(value string) (string, error) {
	if value == "" {
		return "", nil
	}
	gcm, err := s.gcm()
	if err != nil {
		return "", err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	sealed := gcm.Seal(nonce, nonce, []byte(value), nil)
	return sealedPrefix + base64.StdEncoding.EncodeToString(sealed), nil
}

// Open decrypts a stored value. Values without the sealed prefix are
// plaintext from before sealing and pass through unchanged.
func (s Store) Open(stored string) (string, error) {
	if !strings.HasPrefix(stored, sealedPrefix) {
		return stored, nil
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(stored, sealedPrefix))
	if err != nil {
		return "", err
	}
	gcm, err := s.gcm()
	if err != nil {
		return "", err
	}
	if len(raw) < gcm.NonceSize() {
		return "", errors.New("sealed value too short")
	}
	plain, err := gcm.Open(nil, raw[:gcm.NonceSize()], raw[gcm.NonceSize():], nil)
	if err != nil {
		return "", fmt.Errorf("failed to unseal value: %w", err)
	}
	return string(plain), nil
}

// Load reads the .env file into a map. A missing file is an empty map.
func (s Store) Load() (map[string]string, error) {
	env, err := godotenv.Read(s.EnvPath)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, err
	}
	return env, nil
}

// Get returns the unsealed value for one key, empty when absent.
func (s Store) Get(key string) (string, error) {
	env, err := s.Load()
	if err != nil {
		return "", err
	}
	return s.Open(env[key])
}

// Set seals a value and writes it back, preserving the other entries.
func (s Store) Set(key, value string) error {
	env, err := s.Load()
	if err != nil {
		return err
	}
	sealed, err := s.Seal(value)
	if err != nil {
		return err
	}
	env[key] = sealed
	if err := os.MkdirAll(filepath.Dir(s.EnvPath), 0700); err != nil {
		return err
	}
	return godotenv.Write(env, s.EnvPath)
}
