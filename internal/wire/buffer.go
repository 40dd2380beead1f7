// Package wire implements the byte buffer every login and world packet is encoded into.
//
// A Buffer is an append-only byte sequence with an independent read cursor.
// Integers are little-endian unless the method name says otherwise.
// Reads never go past the written data: they fail with ErrShortRead and leave
// the cursor where it was.
package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// DefaultSize is the initial capacity of a Buffer and the socket read chunk size.
const DefaultSize = 0x1000

// ErrShortRead is returned when a read needs more bytes than are buffered.
var ErrShortRead = errors.New("wire: not enough data")

// Buffer is owned by a single goroutine; it is not safe for concurrent use.
type Buffer struct {
	data []byte
	rpos int
}

// NewBuffer returns an empty buffer with DefaultSize capacity.
func NewBuffer() *Buffer {
	return &Buffer{data: make([]byte, 0, DefaultSize)}
}

// FromBytes returns a buffer holding a copy of b with the cursor at 0.
func FromBytes(b []byte) *Buffer {
	data := make([]byte, len(b), max(len(b), DefaultSize))
	copy(data, b)
	return &Buffer{data: data}
}

// Reset drops all data and rewinds the cursor.
func (b *Buffer) Reset() {
	b.data = b.data[:0]
	b.rpos = 0
}

// Bytes returns all written bytes. The slice aliases the buffer.
func (b *Buffer) Bytes() []byte {
	return b.data
}

// Unread returns the bytes after the cursor. The slice aliases the buffer.
func (b *Buffer) Unread() []byte {
	return b.data[b.rpos:]
}

// Len returns the number of written bytes.
func (b *Buffer) Len() int {
	return len(b.data)
}

// Remaining returns the number of unread bytes.
func (b *Buffer) Remaining() int {
	return len(b.data) - b.rpos
}

// CanRead reports whether unread bytes remain.
func (b *Buffer) CanRead() bool {
	return b.rpos < len(b.data)
}

// Pos returns the read cursor.
func (b *Buffer) Pos() int {
	return b.rpos
}

// SetPos moves the read cursor. pos may equal Len.
func (b *Buffer) SetPos(pos int) error {
	if pos < 0 || pos > len(b.data) {
		return fmt.Errorf("%w: set pos %d, len %d", ErrShortRead, pos, len(b.data))
	}
	b.rpos = pos
	return nil
}

// Skip advances the cursor by n bytes.
func (b *Buffer) Skip(n int) error {
	if n < 0 {
		return fmt.Errorf("wire: negative skip %d", n)
	}
	if err := b.need(n); err != nil {
		return err
	}
	b.rpos += n
	return nil
}

// Compact discards consumed bytes, keeping unread ones at the front.
func (b *Buffer) Compact() {
	if b.rpos == 0 {
		return
	}
	n := copy(b.data, b.data[b.rpos:])
	b.data = b.data[:n]
	b.rpos = 0
}

// Fill performs a single Read of up to chunk bytes from r and appends the result.
func (b *Buffer) Fill(r io.Reader, chunk int) (int, error) {
	start := len(b.data)
	b.data = append(b.data, make([]byte, chunk)...)
	n, err := r.Read(b.data[start:])
	b.data = b.data[:start+n]
	return n, err
}

// WriteTo writes all buffered bytes to w.
func (b *Buffer) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(b.data)
	return int64(n), err
}

func (b *Buffer) need(n int) error {
	if b.rpos+n > len(b.data) {
		return fmt.Errorf("%w: pos=%d need=%d len=%d", ErrShortRead, b.rpos, n, len(b.data))
	}
	return nil
}

// PutUint8 appends v.
func (b *Buffer) PutUint8(v uint8) {
	b.data = append(b.data, v)
}

// PutUint16 appends v little-endian.
func (b *Buffer) PutUint16(v uint16) {
	b.data = binary.LittleEndian.AppendUint16(b.data, v)
}

// PutUint16BE appends v big-endian.
func (b *Buffer) PutUint16BE(v uint16) {
	b.data = binary.BigEndian.AppendUint16(b.data, v)
}

// PutUint32 appends v little-endian.
func (b *Buffer) PutUint32(v uint32) {
	b.data = binary.LittleEndian.AppendUint32(b.data, v)
}

// PutUint64 appends v little-endian.
func (b *Buffer) PutUint64(v uint64) {
	b.data = binary.LittleEndian.AppendUint64(b.data, v)
}

// PutFloat32 appends v as IEEE-754 little-endian.
func (b *Buffer) PutFloat32(v float32) {
	b.PutUint32(math.Float32bits(v))
}

// PutBytes appends p verbatim.
func (b *Buffer) PutBytes(p []byte) {
	b.data = append(b.data, p...)
}

// PutPrefixedBytes appends a one-byte length followed by p.
func (b *Buffer) PutPrefixedBytes(p []byte) error {
	if len(p) > math.MaxUint8 {
		return fmt.Errorf("wire: prefixed field of %d bytes exceeds 255", len(p))
	}
	b.PutUint8(uint8(len(p)))
	b.PutBytes(p)
	return nil
}

// PutCString appends s followed by a NUL terminator.
func (b *Buffer) PutCString(s string) {
	b.data = append(b.data, s...)
	b.data = append(b.data, 0)
}

// PutUint16BEAt overwrites two bytes at off with v big-endian.
func (b *Buffer) PutUint16BEAt(off int, v uint16) {
	binary.BigEndian.PutUint16(b.data[off:], v)
}

// PutUint16At overwrites two bytes at off with v little-endian.
func (b *Buffer) PutUint16At(off int, v uint16) {
	binary.LittleEndian.PutUint16(b.data[off:], v)
}

// Uint8 reads one byte.
func (b *Buffer) Uint8() (uint8, error) {
	if err := b.need(1); err != nil {
		return 0, err
	}
	v := b.data[b.rpos]
	b.rpos++
	return v, nil
}

// Uint16 reads a little-endian uint16.
func (b *Buffer) Uint16() (uint16, error) {
	if err := b.need(2); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint16(b.data[b.rpos:])
	b.rpos += 2
	return v, nil
}

// Uint16BE reads a big-endian uint16.
func (b *Buffer) Uint16BE() (uint16, error) {
	if err := b.need(2); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint16(b.data[b.rpos:])
	b.rpos += 2
	return v, nil
}

// Uint32 reads a little-endian uint32.
func (b *Buffer) Uint32() (uint32, error) {
	if err := b.need(4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(b.data[b.rpos:])
	b.rpos += 4
	return v, nil
}

// Uint64 reads a little-endian uint64.
func (b *Buffer) Uint64() (uint64, error) {
	if err := b.need(8); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint64(b.data[b.rpos:])
	b.rpos += 8
	return v, nil
}

// Float32 reads an IEEE-754 little-endian float.
func (b *Buffer) Float32() (float32, error) {
	v, err := b.Uint32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

// ReadInto fills dst from the buffer.
func (b *Buffer) ReadInto(dst []byte) error {
	if err := b.need(len(dst)); err != nil {
		return err
	}
	b.rpos += copy(dst, b.data[b.rpos:])
	return nil
}

// ReadBytes returns a copy of the next n bytes.
func (b *Buffer) ReadBytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("wire: negative read %d", n)
	}
	out := make([]byte, n)
	if err := b.ReadInto(out); err != nil {
		return nil, err
	}
	return out, nil
}

// PrefixedBytes reads a one-byte length followed by that many bytes.
func (b *Buffer) PrefixedBytes() ([]byte, error) {
	start := b.rpos
	n, err := b.Uint8()
	if err != nil {
		return nil, err
	}
	out, err := b.ReadBytes(int(n))
	if err != nil {
		b.rpos = start
		return nil, err
	}
	return out, nil
}

// CString reads a NUL-terminated string. The terminator is consumed, not returned.
func (b *Buffer) CString() (string, error) {
	for i := b.rpos; i < len(b.data); i++ {
		if b.data[i] == 0 {
			s := string(b.data[b.rpos:i])
			b.rpos = i + 1
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: unterminated string at pos=%d", ErrShortRead, b.rpos)
}

// Decode runs fn against the buffer and rewinds the cursor if fn fails,
// so a partially buffered packet can be retried once more bytes arrive.
func (b *Buffer) Decode(fn func(*Buffer) error) error {
	start := b.rpos
	if err := fn(b); err != nil {
		b.rpos = start
		return err
	}
	return nil
}
