// Package packet encodes the world protocol frame headers.
//
// Client → server: [size u16 BE][opcode u32 LE], size counts the opcode and body.
// Server → client: [size u16 BE][opcode u16 LE], or a 5-byte form when the body
// needs more than 15 bits: [0x80|size>>16][size>>8][size][opcode u16 LE].
// Size counts the opcode and body in both server forms.
package packet

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/udisondev/realmgo/internal/constants"
)

// ErrBadSize is returned for a header whose size cannot even hold the opcode.
var ErrBadSize = errors.New("packet: size smaller than opcode")

const (
	clientOpcodeSize = 4
	serverOpcodeSize = 2

	// maxSmallSize is the largest size encodable in the 4-byte server header.
	maxSmallSize = 0x7FFF
	// MaxServerSize is the largest size encodable in the 5-byte server header.
	MaxServerSize = 0x7FFFFF
)

// ClientHeader is the outbound frame header.
type ClientHeader struct {
	Size   uint16
	Opcode uint32
}

// NewClientHeader returns the header for a body of bodyLen bytes.
func NewClientHeader(opcode uint32, bodyLen int) (ClientHeader, error) {
	size := bodyLen + clientOpcodeSize
	if size > 0xFFFF {
		return ClientHeader{}, fmt.Errorf("client packet 0x%03X too large: %d", opcode, bodyLen)
	}
	return ClientHeader{Size: uint16(size), Opcode: opcode}, nil
}

// BodyLen returns the number of body bytes following the header.
func (h ClientHeader) BodyLen() (int, error) {
	if h.Size < clientOpcodeSize {
		return 0, fmt.Errorf("%w: client size %d", ErrBadSize, h.Size)
	}
	return int(h.Size) - clientOpcodeSize, nil
}

// Put writes the header into dst[:6].
func (h ClientHeader) Put(dst []byte) {
	binary.BigEndian.PutUint16(dst[0:2], h.Size)
	binary.LittleEndian.PutUint32(dst[2:6], h.Opcode)
}

// ParseClientHeader reads a (decrypted) 6-byte client header.
func ParseClientHeader(src []byte) (ClientHeader, error) {
	if len(src) < constants.ClientHeaderSize {
		return ClientHeader{}, fmt.Errorf("client header: need %d bytes, have %d", constants.ClientHeaderSize, len(src))
	}
	return ClientHeader{
		Size:   binary.BigEndian.Uint16(src[0:2]),
		Opcode: binary.LittleEndian.Uint32(src[2:6]),
	}, nil
}

// ServerHeader is the inbound frame header.
type ServerHeader struct {
	Size   uint32
	Opcode uint16
}

// NewServerHeader returns the header for a body of bodyLen bytes.
func NewServerHeader(opcode uint16, bodyLen int) (ServerHeader, error) {
	size := bodyLen + serverOpcodeSize
	if size > MaxServerSize {
		return ServerHeader{}, fmt.Errorf("server packet 0x%03X too large: %d", opcode, bodyLen)
	}
	return ServerHeader{Size: uint32(size), Opcode: opcode}, nil
}

// Large reports whether the header needs the 5-byte form.
func (h ServerHeader) Large() bool {
	return h.Size > maxSmallSize
}

// Len returns the encoded header length.
func (h ServerHeader) Len() int {
	if h.Large() {
		return constants.ServerLargeHeaderSize
	}
	return constants.ServerHeaderSize
}

// BodyLen returns the number of body bytes following the header.
func (h ServerHeader) BodyLen() (int, error) {
	if h.Size < serverOpcodeSize {
		return 0, fmt.Errorf("%w: server size %d", ErrBadSize, h.Size)
	}
	return int(h.Size) - serverOpcodeSize, nil
}

// Put writes the header into dst[:h.Len()].
func (h ServerHeader) Put(dst []byte) {
	if h.Large() {
		dst[0] = constants.ServerLargeHeaderFlag | byte(h.Size>>16)
		dst[1] = byte(h.Size >> 8)
		dst[2] = byte(h.Size)
		binary.LittleEndian.PutUint16(dst[3:5], h.Opcode)
		return
	}
	binary.BigEndian.PutUint16(dst[0:2], uint16(h.Size))
	binary.LittleEndian.PutUint16(dst[2:4], h.Opcode)
}

// ServerHeaderLen returns the header length announced by its (decrypted) first byte.
func ServerHeaderLen(first byte) int {
	if first&constants.ServerLargeHeaderFlag != 0 {
		return constants.ServerLargeHeaderSize
	}
	return constants.ServerHeaderSize
}

// ParseServerHeader reads a (decrypted) 4- or 5-byte server header.
func ParseServerHeader(src []byte) (ServerHeader, error) {
	if len(src) == 0 {
		return ServerHeader{}, errors.New("server header: empty")
	}
	n := ServerHeaderLen(src[0])
	if len(src) < n {
		return ServerHeader{}, fmt.Errorf("server header: need %d bytes, have %d", n, len(src))
	}
	if n == constants.ServerLargeHeaderSize {
		size := uint32(src[0]&^constants.ServerLargeHeaderFlag)<<16 | uint32(src[1])<<8 | uint32(src[2])
		return ServerHeader{Size: size, Opcode: binary.LittleEndian.Uint16(src[3:5])}, nil
	}
	return ServerHeader{
		Size:   uint32(binary.BigEndian.Uint16(src[0:2])),
		Opcode: binary.LittleEndian.Uint16(src[2:4]),
	}, nil
}
