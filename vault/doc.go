// Package vault seals institutional credentials at rest.
//
// Each user owns at most one record. Both credential fields are encrypted
// with AES-256-GCM under a key derived per call (PBKDF2-SHA256, configurable
// iteration count) from a server-held secret and the user id; the derived key
// is never cached or persisted. A fingerprint of the derived key is stored
// with the ciphertext so a rotated server secret is detected before
// decryption instead of producing garbage plaintext.
//
// Records live in Redis. The store performs no in-process caching of
// plaintext: every Get decrypts fresh, every Save encrypts fresh.
package vault
