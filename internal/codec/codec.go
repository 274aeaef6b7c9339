// Package codec implements the binary primitives the model artifact
// format is built from: a length-prefixed, CRC-checked, LZMA-compressed
// block stream, plus the little-endian decoder/encoder primitives used
// to read and write everything inside those blocks.
//
// The accumulated-first-error idiom here (Decoder carries an err field
// and every subsequent call becomes a no-op once it is set; Encoder
// writes to an in-memory buffer and has no error state) is the
// same one the teacher's internal/hnsw/persist.go uses for its
// binaryReader/binaryWriter pair; this package generalises it into a
// reusable type shared across the whole model codec instead of being
// duplicated per caller.
package codec

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"math"

	"github.com/ulikunitz/xz/lzma"
)

// ErrTruncated is the single error variant every decode failure in this
// package surfaces as, per the "model any decoder error as a single
// variant" design note: truncated streams, bad CRCs and malformed
// lengths are all indistinguishable to a caller beyond "the model is
// corrupt".
var ErrTruncated = errors.New("codec: truncated or corrupt model stream")

// Decoder reads little-endian primitives from an in-memory byte slice.
// It never panics: once a read fails the Decoder remembers the error
// and every subsequent Next* call returns the zero value.
type Decoder struct {
	buf []byte
	pos int
	err error
}

// NewDecoder wraps buf for reading.
func NewDecoder(buf []byte) *Decoder {
	return &Decoder{buf: buf}
}

// Err returns the first error encountered, if any.
func (d *Decoder) Err() error {
	return d.err
}

// IsEnd reports whether the decoder has consumed every byte of buf and
// has not failed. Callers use this after a full model load to confirm
// no trailing garbage was left unread.
func (d *Decoder) IsEnd() bool {
	return d.err == nil && d.pos == len(d.buf)
}

func (d *Decoder) need(n int) []byte {
	if d.err != nil {
		return nil
	}
	if d.pos+n > len(d.buf) {
		d.err = ErrTruncated
		return nil
	}
	b := d.buf[d.pos : d.pos+n]
	d.pos += n
	return b
}

// Next1B reads one byte as an unsigned integer.
func (d *Decoder) Next1B() uint8 {
	b := d.need(1)
	if b == nil {
		return 0
	}
	return b[0]
}

// Next2B reads a little-endian uint16.
func (d *Decoder) Next2B() uint16 {
	b := d.need(2)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

// Next4B reads a little-endian uint32.
func (d *Decoder) Next4B() uint32 {
	b := d.need(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

// Next8B reads a little-endian uint64.
func (d *Decoder) Next8B() uint64 {
	b := d.need(8)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

// NextDouble reads a little-endian IEEE-754 float64.
func (d *Decoder) NextDouble() float64 {
	return math.Float64frombits(d.Next8B())
}

// NextFloat reads a little-endian IEEE-754 float32.
func (d *Decoder) NextFloat() float32 {
	return math.Float32frombits(d.Next4B())
}

// NextStr reads a 1-byte length prefix followed by that many bytes,
// interpreted as UTF-8.
func (d *Decoder) NextStr() string {
	n := int(d.Next1B())
	b := d.need(n)
	if b == nil {
		return ""
	}
	return string(b)
}

// NextStr4 reads a 4-byte length prefix followed by that many bytes,
// interpreted as UTF-8. Used where a 1-byte length (max 255) would be
// too small, e.g. feature-template keys.
func (d *Decoder) NextStr4() string {
	n := int(d.Next4B())
	b := d.need(n)
	if b == nil {
		return ""
	}
	return string(b)
}

// NextBytes reads n raw bytes verbatim.
func (d *Decoder) NextBytes(n int) []byte {
	b := d.need(n)
	if b == nil {
		return nil
	}
	out := make([]byte, n)
	copy(out, b)
	return out
}

// Encoder accumulates little-endian primitives into a growable buffer.
type Encoder struct {
	buf bytes.Buffer
}

// NewEncoder returns an empty Encoder.
func NewEncoder() *Encoder {
	return &Encoder{}
}

// Bytes returns the accumulated byte stream.
func (e *Encoder) Bytes() []byte {
	return e.buf.Bytes()
}

func (e *Encoder) Add1B(v uint8) { e.buf.WriteByte(v) }

func (e *Encoder) Add2B(v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	e.buf.Write(b[:])
}

func (e *Encoder) Add4B(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	e.buf.Write(b[:])
}

func (e *Encoder) Add8B(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	e.buf.Write(b[:])
}

func (e *Encoder) AddDouble(v float64) { e.Add8B(math.Float64bits(v)) }
func (e *Encoder) AddFloat(v float32)  { e.Add4B(math.Float32bits(v)) }

func (e *Encoder) AddStr(s string) {
	if len(s) > 255 {
		s = s[:255]
	}
	e.Add1B(uint8(len(s)))
	e.buf.WriteString(s)
}

func (e *Encoder) AddStr4(s string) {
	e.Add4B(uint32(len(s)))
	e.buf.WriteString(s)
}

func (e *Encoder) AddBytes(b []byte) { e.buf.Write(b) }

// CompressBlock frames payload the way the model artifact expects a
// single component's bytes to be framed: 4 bytes uncompressed length, 4
// bytes compressed length, 4 bytes CRC32(payload), then the LZMA stream.
func CompressBlock(payload []byte) ([]byte, error) {
	var compressed bytes.Buffer
	w, err := lzma.NewWriter(&compressed)
	if err != nil {
		return nil, fmt.Errorf("codec: lzma writer: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return nil, fmt.Errorf("codec: lzma compress: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("codec: lzma close: %w", err)
	}

	out := make([]byte, 0, 12+compressed.Len())
	var hdr [12]byte
	binary.LittleEndian.PutUint32(hdr[0:4], uint32(len(payload)))
	binary.LittleEndian.PutUint32(hdr[4:8], uint32(compressed.Len()))
	binary.LittleEndian.PutUint32(hdr[8:12], crc32.ChecksumIEEE(payload))
	out = append(out, hdr[:]...)
	out = append(out, compressed.Bytes()...)
	return out, nil
}

// DecompressBlock reads one compressed block starting at buf[0] and
// returns the decompressed payload plus the number of bytes of buf it
// consumed. It verifies the CRC and rejects on mismatch.
func DecompressBlock(buf []byte) (payload []byte, consumed int, err error) {
	if len(buf) < 12 {
		return nil, 0, ErrTruncated
	}
	uncompressedLen := binary.LittleEndian.Uint32(buf[0:4])
	compressedLen := binary.LittleEndian.Uint32(buf[4:8])
	wantCRC := binary.LittleEndian.Uint32(buf[8:12])

	total := 12 + int(compressedLen)
	if len(buf) < total {
		return nil, 0, ErrTruncated
	}

	r, err := lzma.NewReader(bytes.NewReader(buf[12:total]))
	if err != nil {
		return nil, 0, fmt.Errorf("%w: lzma: %v", ErrTruncated, err)
	}
	out := make([]byte, uncompressedLen)
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, 0, fmt.Errorf("%w: lzma: %v", ErrTruncated, err)
	}
	if crc32.ChecksumIEEE(out) != wantCRC {
		return nil, 0, fmt.Errorf("%w: crc mismatch", ErrTruncated)
	}
	return out, total, nil
}
