// Package savefile wraps the nrbf codec with the container handling
// real game saves need: format sniffing, transparent decompression of
// gzip/zlib/LZ4 envelopes, content fingerprints, and a sidecar
// manifest for change detection. The codec itself only ever sees a
// fully-resident NRBF payload.
package savefile

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/pierrec/lz4/v4"

	"github.com/Neumenon/nrbf/nrbf"
)

// ErrUnknownFormat is returned when a buffer is neither a raw NRBF
// stream nor a supported compression envelope around one.
var ErrUnknownFormat = errors.New("savefile: not an NRBF stream or supported envelope")

// Format identifies how a save file is packaged on disk.
type Format uint8

const (
	FormatUnknown Format = iota
	FormatNRBF           // raw NRBF stream
	FormatGzip
	FormatZlib
	FormatLZ4
)

// String returns the format name.
func (f Format) String() string {
	switch f {
	case FormatNRBF:
		return "nrbf"
	case FormatGzip:
		return "gzip"
	case FormatZlib:
		return "zlib"
	case FormatLZ4:
		return "lz4"
	default:
		return "unknown"
	}
}

// ParseFormat is the inverse of String.
func ParseFormat(s string) (Format, bool) {
	switch s {
	case "nrbf":
		return FormatNRBF, true
	case "gzip":
		return FormatGzip, true
	case "zlib":
		return FormatZlib, true
	case "lz4":
		return FormatLZ4, true
	}
	return FormatUnknown, false
}

// IsNRBF reports whether a buffer is provisionally an NRBF stream:
// long enough for the framing header, tag 0x00 first, and
// major=1/minor=0 at the standard offsets.
func IsNRBF(data []byte) bool {
	if len(data) < 17 || data[0] != 0x00 {
		return false
	}
	return bytes.Equal(data[9:17], []byte{0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00})
}

// Detect sniffs the packaging of a buffer. NRBF wins over envelope
// magics so a raw save is never mistaken for a compressed one.
func Detect(data []byte) Format {
	if IsNRBF(data) {
		return FormatNRBF
	}
	if len(data) >= 2 && data[0] == 0x1f && data[1] == 0x8b {
		return FormatGzip
	}
	if len(data) >= 2 && data[0] == 0x78 {
		switch data[1] {
		case 0x01, 0x5e, 0x9c, 0xda:
			return FormatZlib
		}
	}
	if len(data) >= 4 && data[0] == 0x04 && data[1] == 0x22 && data[2] == 0x4d && data[3] == 0x18 {
		return FormatLZ4
	}
	return FormatUnknown
}

// File is an opened save: the decoded document plus everything needed
// to write it back in the same packaging.
type File struct {
	Doc      *nrbf.Document
	Envelope Format

	// ContainerSize and PayloadSize are the on-disk and decompressed
	// byte counts observed at open time.
	ContainerSize int
	PayloadSize   int
}

// Open sniffs, unwraps at most one compression envelope, and decodes
// the NRBF payload.
func Open(data []byte) (*File, error) {
	return OpenWithOptions(data, nrbf.DecodeOptions{})
}

// OpenWithOptions is Open with explicit decoder options.
func OpenWithOptions(data []byte, opts nrbf.DecodeOptions) (*File, error) {
	format := Detect(data)
	if format == FormatUnknown {
		return nil, ErrUnknownFormat
	}

	payload := data
	if format != FormatNRBF {
		unwrapped, err := decompress(format, data)
		if err != nil {
			return nil, fmt.Errorf("savefile: unwrapping %s envelope: %w", format, err)
		}
		if !IsNRBF(unwrapped) {
			return nil, ErrUnknownFormat
		}
		payload = unwrapped
	}

	doc, err := nrbf.DecodeWithOptions(payload, opts)
	if err != nil {
		return nil, fmt.Errorf("savefile: decoding payload: %w", err)
	}
	return &File{
		Doc:           doc,
		Envelope:      format,
		ContainerSize: len(data),
		PayloadSize:   len(payload),
	}, nil
}

// Encode serializes the document and re-applies the envelope the file
// was opened with, so an edited save goes back to disk in the same
// packaging it came from.
func (f *File) Encode() ([]byte, error) {
	payload, err := nrbf.Encode(f.Doc)
	if err != nil {
		return nil, fmt.Errorf("savefile: encoding payload: %w", err)
	}
	if f.Envelope == FormatNRBF {
		return payload, nil
	}
	return compress(f.Envelope, payload)
}

// Stats returns the decoded document's summary counts.
func (f *File) Stats() nrbf.Stats {
	return f.Doc.Stats()
}

func decompress(format Format, data []byte) ([]byte, error) {
	var r io.Reader
	switch format {
	case FormatGzip:
		zr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		r = zr
	case FormatZlib:
		zr, err := zlib.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		r = zr
	case FormatLZ4:
		r = lz4.NewReader(bytes.NewReader(data))
	default:
		return nil, ErrUnknownFormat
	}
	return io.ReadAll(r)
}

func compress(format Format, payload []byte) ([]byte, error) {
	var buf bytes.Buffer
	var w io.WriteCloser
	switch format {
	case FormatGzip:
		w = gzip.NewWriter(&buf)
	case FormatZlib:
		w = zlib.NewWriter(&buf)
	case FormatLZ4:
		w = lz4.NewWriter(&buf)
	default:
		return nil, ErrUnknownFormat
	}
	if _, err := w.Write(payload); err != nil {
		return nil, fmt.Errorf("savefile: compressing with %s: %w", format, err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("savefile: closing %s writer: %w", format, err)
	}
	return buf.Bytes(), nil
}
