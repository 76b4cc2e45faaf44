// Package reader implements component D: the binary profile-stream reader
// (spec.md §4.2). Read parses a header, profile-metadata section, epoch
// table and preorder CCT stream into a profile.Profile, applying the
// opIP decode, Pgm-root synthesis, leaf normalization and IP-unrelocation
// steps spec.md §4.2 requires.
package reader

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Magic is this implementation's 8-byte profile-stream magic number.
var Magic = [8]byte{'C', 'C', 'P', 'R', 'O', 'F', '1', 0}

// Version is the only wire-format version this reader accepts.
const Version = uint32(1)

// EndianLittle is the only endian marker this reader accepts (spec.md §6:
// "Profile file format (little-endian, tagged)").
const EndianLittle = byte(1)

// Header is the 24-byte fixed stream header: 8-byte magic, 4-byte version,
// 1-byte endian marker, 11 bytes reserved.
type Header struct {
	Magic   [8]byte
	Version uint32
	Endian  byte
}

func readHeader(r io.Reader) (Header, error) {
	var raw [24]byte
	if _, err := io.ReadFull(r, raw[:]); err != nil {
		return Header{}, &FatalError{Phase: "header", Err: err}
	}
	var h Header
	copy(h.Magic[:], raw[0:8])
	h.Version = binary.LittleEndian.Uint32(raw[8:12])
	h.Endian = raw[12]
	if h.Magic != Magic {
		return Header{}, &FatalError{Phase: "header", Err: fmt.Errorf("bad magic %q", h.Magic)}
	}
	if h.Version != Version {
		return Header{}, &FatalError{Phase: "header", Err: fmt.Errorf("unsupported version %d", h.Version)}
	}
	if h.Endian != EndianLittle {
		return Header{}, &FatalError{Phase: "header", Err: fmt.Errorf("unsupported endian marker %d", h.Endian)}
	}
	return h, nil
}
