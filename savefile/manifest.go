package savefile

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// encMode is the CBOR encoder configured with Core Deterministic
// Encoding (RFC 8949 §4.2): the same manifest always produces
// identical bytes, so manifests can themselves be compared by digest.
var encMode cbor.EncMode

// decMode accepts standard CBOR; unknown fields are ignored so older
// tools can read manifests written by newer ones.
var decMode cbor.DecMode

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("savefile: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("savefile: CBOR decoder initialization failed: " + err.Error())
	}
}

// Manifest is the sidecar metadata written next to an edited save:
// enough to detect external modification (fingerprint), to know how
// the payload was packaged (envelope), and to sanity-check a later
// open (sizes and record counts).
type Manifest struct {
	Fingerprint string `cbor:"fingerprint"`
	Envelope    string `cbor:"envelope"`

	ContainerSize int `cbor:"container_size"`
	PayloadSize   int `cbor:"payload_size"`

	RootID    int32 `cbor:"root_id"`
	Records   int   `cbor:"records"`
	Objects   int   `cbor:"objects"`
	Classes   int   `cbor:"classes"`
	Arrays    int   `cbor:"arrays"`
	Strings   int   `cbor:"strings"`
	Libraries int   `cbor:"libraries"`
}

// NewManifest builds a manifest for an opened file. raw is the
// original on-disk buffer the file was opened from.
func NewManifest(f *File, raw []byte) Manifest {
	stats := f.Stats()
	return Manifest{
		Fingerprint:   Fingerprint(raw).String(),
		Envelope:      f.Envelope.String(),
		ContainerSize: f.ContainerSize,
		PayloadSize:   f.PayloadSize,
		RootID:        f.Doc.Header.RootID,
		Records:       stats.Records,
		Objects:       stats.Objects,
		Classes:       stats.Classes,
		Arrays:        stats.Arrays,
		Strings:       stats.Strings,
		Libraries:     stats.Libraries,
	}
}

// Encode serializes the manifest as deterministic CBOR.
func (m Manifest) Encode() ([]byte, error) {
	data, err := encMode.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("savefile: encoding manifest: %w", err)
	}
	return data, nil
}

// DecodeManifest parses a CBOR manifest.
func DecodeManifest(data []byte) (Manifest, error) {
	var m Manifest
	if err := decMode.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("savefile: decoding manifest: %w", err)
	}
	return m, nil
}

// Matches reports whether a buffer still has the fingerprint recorded
// in the manifest.
func (m Manifest) Matches(data []byte) bool {
	return m.Fingerprint == Fingerprint(data).String()
}
