package vault

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/pbkdf2"
)

var (
	// ErrNotFound reports that no record exists for the user.
	ErrNotFound = errors.New("vault: record not found")
	// ErrIntegrity reports a key-fingerprint mismatch or a ciphertext that
	// fails authentication. The stored record cannot be decrypted with the
	// current server secret.
	ErrIntegrity = errors.New("vault: integrity check failed")
	// ErrBackend reports a persistence failure.
	ErrBackend = errors.New("vault: backend unavailable")
	// ErrCipher reports an encryption-side failure.
	ErrCipher = errors.New("vault: cipher failure")
)

const (
	keySize         = 32
	fingerprintSize = 8

	// Associated-data labels bind each ciphertext to its purpose so a
	// username blob can never be replayed into the password slot.
	labelUsername = "accountlink/vault:v1:username"
	labelPassword = "accountlink/vault:v1:password"
)

// Config controls key derivation and record placement.
type Config struct {
	// Secret is the long-lived server secret key material is derived from.
	// It must differ from every token-signing secret in the host app.
	Secret []byte
	// Iterations is the PBKDF2 iteration count (minimum 100000).
	Iterations int
	// KeyPrefix namespaces record keys in Redis. Defaults to "alv".
	KeyPrefix string
}

// Credentials is a decrypted record as handed back to the engine.
type Credentials struct {
	Username string
	Password string
}

// RecordHandle describes a stored record without exposing its contents.
type RecordHandle struct {
	RecordID  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Store persists one encrypted credential record per user in Redis.
// All methods are safe for concurrent use.
type Store struct {
	redis *redis.Client
	cfg   Config
}

// NewStore creates a vault store. The caller is responsible for validating
// cfg (the engine builder does this); NewStore only applies defaults.
func NewStore(client *redis.Client, cfg Config) *Store {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "alv"
	}
	return &Store{redis: client, cfg: cfg}
}

func (s *Store) key(userID string) string {
	return s.cfg.KeyPrefix + ":" + userID
}

// deriveKey recomputes the per-user key on every call. Keys are never stored
// or cached; after a secret rotation the fingerprint check fails closed.
func (s *Store) deriveKey(userID string) []byte {
	salt := []byte("accountlink/vault:" + userID)
	return pbkdf2.Key(s.cfg.Secret, salt, s.cfg.Iterations, keySize, sha256.New)
}

func keyFingerprint(key []byte) string {
	sum := sha256.Sum256(key)
	return hex.EncodeToString(sum[:fingerprintSize])
}

// Save encrypts both credential fields and upserts the user's record. A new
// linking attempt overwrites the previous record but keeps its creation time.
func (s *Store) Save(ctx context.Context, userID, username, password string) (RecordHandle, error) {
	key := s.deriveKey(userID)

	sealedUser, err := seal(key, labelUsername, username)
	if err != nil {
		return RecordHandle{}, fmt.Errorf("%w: %v", ErrCipher, err)
	}
	sealedPass, err := seal(key, labelPassword, password)
	if err != nil {
		return RecordHandle{}, fmt.Errorf("%w: %v", ErrCipher, err)
	}

	now := time.Now()
	createdAt := now
	if prev, err := s.redis.HGet(ctx, s.key(userID), "created_at").Result(); err == nil {
		if ts, perr := strconv.ParseInt(prev, 10, 64); perr == nil {
			createdAt = time.Unix(ts, 0)
		}
	} else if !errors.Is(err, redis.Nil) {
		return RecordHandle{}, fmt.Errorf("%w: %v", ErrBackend, err)
	}

	handle := RecordHandle{
		RecordID:  uuid.NewString(),
		CreatedAt: createdAt,
		UpdatedAt: now,
	}

	fields := map[string]interface{}{
		"record_id":   handle.RecordID,
		"username":    sealedUser,
		"password":    sealedPass,
		"fingerprint": keyFingerprint(key),
		"created_at":  strconv.FormatInt(createdAt.Unix(), 10),
		"updated_at":  strconv.FormatInt(now.Unix(), 10),
	}
	if err := s.redis.HSet(ctx, s.key(userID), fields).Err(); err != nil {
		return RecordHandle{}, fmt.Errorf("%w: %v", ErrBackend, err)
	}
	return handle, nil
}

// Get decrypts the user's record. The stored key fingerprint is verified
// before any decryption is attempted.
func (s *Store) Get(ctx context.Context, userID string) (Credentials, error) {
	record, err := s.redis.HGetAll(ctx, s.key(userID)).Result()
	if err != nil {
		return Credentials{}, fmt.Errorf("%w: %v", ErrBackend, err)
	}
	if len(record) == 0 {
		return Credentials{}, ErrNotFound
	}

	key := s.deriveKey(userID)
	stored := record["fingerprint"]
	if stored == "" || !hmac.Equal([]byte(stored), []byte(keyFingerprint(key))) {
		return Credentials{}, ErrIntegrity
	}

	username, err := open(key, labelUsername, record["username"])
	if err != nil {
		return Credentials{}, fmt.Errorf("%w: %v", ErrIntegrity, err)
	}
	password, err := open(key, labelPassword, record["password"])
	if err != nil {
		return Credentials{}, fmt.Errorf("%w: %v", ErrIntegrity, err)
	}

	return Credentials{Username: username, Password: password}, nil
}

// Has reports whether a record exists for the user without decrypting it.
func (s *Store) Has(ctx context.Context, userID string) (bool, error) {
	n, err := s.redis.Exists(ctx, s.key(userID)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrBackend, err)
	}
	return n > 0, nil
}

// Delete removes the user's record. It reports whether a record existed.
func (s *Store) Delete(ctx context.Context, userID string) (bool, error) {
	n, err := s.redis.Del(ctx, s.key(userID)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrBackend, err)
	}
	return n > 0, nil
}

// CleanupOlderThan deletes records whose last update is older than age and
// returns the number removed. Intended for scheduled maintenance sweeps.
func (s *Store) CleanupOlderThan(ctx context.Context, age time.Duration) (int, error) {
	cutoff := time.Now().Add(-age).Unix()
	removed := 0

	iter := s.redis.Scan(ctx, 0, s.cfg.KeyPrefix+":*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		raw, err := s.redis.HGet(ctx, key, "updated_at").Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			return removed, fmt.Errorf("%w: %v", ErrBackend, err)
		}
		ts, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || ts >= cutoff {
			continue
		}
		if err := s.redis.Del(ctx, key).Err(); err != nil {
			return removed, fmt.Errorf("%w: %v", ErrBackend, err)
		}
		removed++
	}
	if err := iter.Err(); err != nil {
		return removed, fmt.Errorf("%w: %v", ErrBackend, err)
	}
	return removed, nil
}

func seal(key []byte, label, plaintext string) (string, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}

	sealed := gcm.Seal(nonce, nonce, []byte(plaintext), []byte(label))
	return base64.RawStdEncoding.EncodeToString(sealed), nil
}

func open(key []byte, label, encoded string) (string, error) {
	raw, err := base64.RawStdEncoding.DecodeString(encoded)
	if err != nil {
		return "", err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}
	if len(raw) < gcm.NonceSize() {
		return "", errors.New("ciphertext too short")
	}

	plaintext, err := gcm.Open(nil, raw[:gcm.NonceSize()], raw[gcm.NonceSize():], []byte(label))
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}
