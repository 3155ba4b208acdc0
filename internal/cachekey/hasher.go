package cachekey

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/zeebo/blake3"
)

// Key is a 64-character lowercase hex digest. It is filesystem-path-safe by
// construction and never derived from human-readable source names.
type Key string

// KeyLength is the fixed length of a Key in characters.
const KeyLength = 64

// Valid reports whether k has the expected shape.
func (k Key) Valid() bool {
	if len(k) != KeyLength {
		return false
	}
	for _, r := range k {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return false
		}
	}
	return true
}

// Short returns an abbreviated form for log output.
func (k Key) Short() string {
	if len(k) < 12 {
		return string(k)
	}
	return string(k[:12])
}

// Params is the output-affecting parameter record for one artifact request.
// Encoding canonicalizes by sorting keys, so insertion order never matters.
type Params map[string]string

func (p Params) canonical() []byte {
	keys := make([]string, 0, len(p))
	for key := range p {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var buf []byte
	for _, key := range keys {
		buf = append(buf, key...)
		buf = append(buf, '=')
		buf = append(buf, p[key]...)
		buf = append(buf, '\n')
	}
	return buf
}

// Hasher derives cache keys. The salt participates only in keys of salted
// kinds; an empty salt is valid and simply contributes nothing.
type Hasher struct {
	salt string
}

// NewHasher constructs a Hasher carrying the deployment salt.
func NewHasher(salt string) *Hasher {
	return &Hasher{salt: salt}
}

// Key derives the cache key for one artifact request. Each input stream is
// digested independently; the final digest covers the kind tag, the salt
// (salted kinds only), the canonical parameter record, and the input digests
// concatenated in argument order. Inputs are never hashed as raw concatenated
// bytes, so shifting content between adjacent inputs always changes the key.
func (h *Hasher) Key(kind Kind, params Params, inputs ...io.Reader) (Key, error) {
	if !kind.Valid() {
		return "", fmt.Errorf("cachekey: unknown kind %q", kind)
	}

	digests := make([][]byte, 0, len(inputs))
	for i, input := range inputs {
		digest, err := digestStream(input)
		if err != nil {
			return "", fmt.Errorf("cachekey: hash input %d: %w", i, err)
		}
		digests = append(digests, digest)
	}

	final := blake3.New()
	final.Write([]byte("faircamp/" + string(kind) + "\n"))
	if kind.Salted() && h.salt != "" {
		final.Write([]byte("salt:" + h.salt + "\n"))
	}
	final.Write(params.canonical())
	final.Write([]byte("inputs:\n"))
	for _, digest := range digests {
		final.Write(digest)
	}

	return Key(hex.EncodeToString(final.Sum(nil))), nil
}

// KeyFromFiles derives a key hashing the named files as inputs, in order.
// An unreadable file surfaces as an I/O error; no retries happen here.
func (h *Hasher) KeyFromFiles(kind Kind, params Params, paths ...string) (Key, error) {
	readers := make([]io.Reader, 0, len(paths))
	files := make([]*os.File, 0, len(paths))
	defer func() {
		for _, file := range files {
			_ = file.Close()
		}
	}()

	for _, path := range paths {
		file, err := os.Open(path)
		if err != nil {
			return "", fmt.Errorf("cachekey: open input: %w", err)
		}
		files = append(files, file)
		readers = append(readers, file)
	}
	return h.Key(kind, params, readers...)
}

func digestStream(r io.Reader) ([]byte, error) {
	hasher := blake3.New()
	if _, err := io.Copy(hasher, r); err != nil {
		return nil, err
	}
	return hasher.Sum(nil), nil
}
