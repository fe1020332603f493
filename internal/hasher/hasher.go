// Package hasher computes content digests used to detect identical files.
package hasher

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
)

// BlockSize is the read buffer size used while streaming file content
const BlockSize = 32 * 1024

// Classified per-file failures. Callers match them with errors.Is.
var (
	ErrIsDirectory      = errors.New("path is a directory")
	ErrPermissionDenied = errors.New("file is not readable")
	ErrEmptyFile        = errors.New("file is empty")
)

// Digest is the result of hashing one file.
type Digest struct {
	Sum  string // lowercase hex
	Size int64  // bytes actually hashed
}

// Hasher computes a digest over a file's entire content.
type Hasher interface {
	HashFile(path string) (Digest, error)
}

// bufferPool avoids a fresh 32KB allocation per file
var bufferPool = sync.Pool{
	New: func() any {
		b := make([]byte, BlockSize)
		return &b
	},
}

// SHA256 hashes the full byte stream with SHA-256.
type SHA256 struct{}

// HashFile reads path to the end and returns its SHA-256 digest. The size in
// the returned digest is the byte count that went through the hash, so it
// stays consistent with the sum even if the file changes afterwards.
func (SHA256) HashFile(path string) (Digest, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrPermission) {
			return Digest{}, fmt.Errorf("%w: %s", ErrPermissionDenied, path)
		}
		return Digest{}, err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return Digest{}, err
	}
	if info.IsDir() {
		return Digest{}, fmt.Errorf("%w: %s", ErrIsDirectory, path)
	}
	if info.Size() == 0 {
		return Digest{}, fmt.Errorf("%w: %s", ErrEmptyFile, path)
	}

	bufPtr := bufferPool.Get().(*[]byte)
	defer bufferPool.Put(bufPtr)

	h := sha256.New()
	n, err := io.CopyBuffer(h, file, *bufPtr)
	if err != nil {
		return Digest{}, fmt.Errorf("reading %s: %w", path, err)
	}
	if n == 0 {
		// Truncated between stat and read
		return Digest{}, fmt.Errorf("%w: %s", ErrEmptyFile, path)
	}

	return Digest{Sum: hex.EncodeToString(h.Sum(nil)), Size: n}, nil
}

// HashBytes returns the hex SHA-256 of b. Used to cross-check HashFile.
func HashBytes(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// SameContent reports whether two files hold byte-identical content. It is
// the optional re-verification step behind digest equality.
func SameContent(a, b string) (bool, error) {
	fa, err := os.Open(a)
	if err != nil {
		return false, err
	}
	defer fa.Close()

	fb, err := os.Open(b)
	if err != nil {
		return false, err
	}
	defer fb.Close()

	bufA := make([]byte, BlockSize)
	bufB := make([]byte, BlockSize)
	for {
		na, errA := io.ReadFull(fa, bufA)
		nb, errB := io.ReadFull(fb, bufB)
		if !bytes.Equal(bufA[:na], bufB[:nb]) {
			return false, nil
		}

		doneA := errA == io.EOF || errA == io.ErrUnexpectedEOF
		doneB := errB == io.EOF || errB == io.ErrUnexpectedEOF
		if errA != nil && !doneA {
			return false, errA
		}
		if errB != nil && !doneB {
			return false, errB
		}
		if doneA || doneB {
			return doneA == doneB, nil
		}
	}
}
