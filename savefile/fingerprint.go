package savefile

import (
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"
)

// Digest is a BLAKE3 content fingerprint of a save file's on-disk
// bytes. It is what the manifest stores to detect the file being
// modified by something else (the game, cloud sync) between load and
// save.
type Digest [32]byte

// Fingerprint computes the digest of a buffer.
func Fingerprint(data []byte) Digest {
	return blake3.Sum256(data)
}

// String returns the hex-encoded form of the digest.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// ParseDigest parses the 64-character hex form back into a Digest.
func ParseDigest(s string) (Digest, error) {
	var d Digest
	raw, err := hex.DecodeString(s)
	if err != nil {
		return d, fmt.Errorf("savefile: parsing digest: %w", err)
	}
	if len(raw) != len(d) {
		return d, fmt.Errorf("savefile: digest is %d bytes, want %d", len(raw), len(d))
	}
	copy(d[:], raw)
	return d, nil
}
