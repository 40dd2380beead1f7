// worlddump lists the packets of a captured world stream, decrypting the
// headers with the session key of the connection.
//
// The capture is hex text (whitespace ignored) of one direction, starting with
// the first packet of the connection. The first packet of each direction
// (SMSG_AUTH_CHALLENGE, CMSG_AUTH_SESSION) travels in clear text.
//
//	worlddump -key <80 hex chars> [-dir server|client] [capture.hex]
package main

import (
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"

	"github.com/udisondev/realmgo/internal/constants"
	"github.com/udisondev/realmgo/internal/srp6"
	"github.com/udisondev/realmgo/internal/world"
	"github.com/udisondev/realmgo/internal/world/packet"
)

var errTruncated = errors.New("capture ends inside a packet")

type frame struct {
	Offset    int
	Opcode    uint32
	Name      string
	BodyLen   int
	Encrypted bool
}

func main() {
	keyHex := flag.String("key", "", "session key K, 40 bytes as hex")
	dir := flag.String("dir", "server", "direction of the capture: server (server to client) or client")
	plain := flag.Int("plain", 1, "number of leading clear-text packets")
	flag.Parse()

	if err := run(*keyHex, *dir, *plain, flag.Arg(0)); err != nil {
		fmt.Fprintln(os.Stderr, "worlddump:", err)
		os.Exit(1)
	}
}

func run(keyHex, dir string, plain int, path string) error {
	key, err := parseKey(keyHex)
	if err != nil {
		return err
	}
	var fromServer bool
	switch dir {
	case "server":
		fromServer = true
	case "client":
	default:
		return fmt.Errorf("unknown direction %q", dir)
	}

	in := io.Reader(os.Stdin)
	if path != "" && path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}
	raw, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("reading capture: %w", err)
	}
	data, err := parseHex(string(raw))
	if err != nil {
		return err
	}

	frames, err := decode(data, key, fromServer, plain)
	for _, f := range frames {
		mark := " "
		if f.Encrypted {
			mark = "*"
		}
		fmt.Printf("%s %08X %-26s 0x%04X body=%d\n", mark, f.Offset, f.Name, f.Opcode, f.BodyLen)
	}
	return err
}

func parseKey(s string) (srp6.SessionKey, error) {
	var key srp6.SessionKey
	b, err := parseHex(s)
	if err != nil {
		return key, fmt.Errorf("session key: %w", err)
	}
	if len(b) != constants.SessionKeySize {
		return key, fmt.Errorf("session key: want %d bytes, got %d", constants.SessionKeySize, len(b))
	}
	copy(key[:], b)
	return key, nil
}

func parseHex(s string) ([]byte, error) {
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	return hex.DecodeString(s)
}

// decode walks data packet by packet. Headers are decrypted in place; the
// frames parsed before an error are returned along with it.
func decode(data []byte, key srp6.SessionKey, fromServer bool, plain int) ([]frame, error) {
	var c world.Crypt
	var err error
	if fromServer {
		err = c.Init(key)
	} else {
		err = c.InitServer(key)
	}
	if err != nil {
		return nil, err
	}

	var frames []frame
	for off, i := 0, 0; off < len(data); i++ {
		f := frame{Offset: off, Encrypted: i >= plain}

		var hdrLen int
		if fromServer {
			if f.Encrypted {
				_ = c.DecryptRecv(data[off : off+1])
			}
			hdrLen = packet.ServerHeaderLen(data[off])
			if off+hdrLen > len(data) {
				return frames, fmt.Errorf("%w: header at 0x%X", errTruncated, off)
			}
			if f.Encrypted {
				_ = c.DecryptRecv(data[off+1 : off+hdrLen])
			}
			h, err := packet.ParseServerHeader(data[off : off+hdrLen])
			if err != nil {
				return frames, err
			}
			if f.BodyLen, err = h.BodyLen(); err != nil {
				return frames, fmt.Errorf("packet at 0x%X: %w", off, err)
			}
			f.Opcode = uint32(h.Opcode)
			f.Name = world.OpcodeName(h.Opcode)
		} else {
			hdrLen = constants.ClientHeaderSize
			if off+hdrLen > len(data) {
				return frames, fmt.Errorf("%w: header at 0x%X", errTruncated, off)
			}
			if f.Encrypted {
				_ = c.DecryptRecv(data[off : off+hdrLen])
			}
			h, err := packet.ParseClientHeader(data[off : off+hdrLen])
			if err != nil {
				return frames, err
			}
			if f.BodyLen, err = h.BodyLen(); err != nil {
				return frames, fmt.Errorf("packet at 0x%X: %w", off, err)
			}
			f.Opcode = h.Opcode
			f.Name = world.OpcodeName(uint16(h.Opcode))
		}

		if off+hdrLen+f.BodyLen > len(data) {
			return frames, fmt.Errorf("%w: %s at 0x%X wants %d body bytes", errTruncated, f.Name, off, f.BodyLen)
		}
		frames = append(frames, f)
		off += hdrLen + f.BodyLen
	}
	return frames, nil
}
