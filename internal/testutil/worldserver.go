package testutil

import (
	"fmt"
	"net"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/udisondev/realmgo/internal/constants"
	"github.com/udisondev/realmgo/internal/srp6"
	"github.com/udisondev/realmgo/internal/wire"
	"github.com/udisondev/realmgo/internal/world"
	"github.com/udisondev/realmgo/internal/world/clientpackets"
	"github.com/udisondev/realmgo/internal/world/packet"
	"github.com/udisondev/realmgo/internal/world/serverpackets"
)

// FakeWorldConfig describes how a FakeWorldServer behaves.
type FakeWorldConfig struct {
	Username   string // expected account, uppercased
	SessionKey srp6.SessionKey

	AuthStatus    uint8 // 0 means AUTH_OK
	QueuePosition uint32
	Characters    []serverpackets.Character

	// ExtraOpcode, when set, is sent with an empty body right after AUTH_RESPONSE.
	ExtraOpcode uint16

	// ChunkSize > 0 splits every server frame into writes of this size.
	ChunkSize int
}

// FakeWorldServer plays the server side of the world handshake for one
// connection: plaintext challenge, digest check, then encrypted headers.
type FakeWorldServer struct {
	cfg FakeWorldConfig

	listener net.Listener
	addr     string
	seed     [4]byte

	mu          sync.Mutex
	authSession clientpackets.AuthSession
	digestOK    bool
	opcodes     []uint32
	pings       []clientpackets.Ping
	err         error

	done chan struct{}
}

// NewFakeWorldServer starts a fake world server on a random local port.
func NewFakeWorldServer(tb testing.TB, cfg FakeWorldConfig) *FakeWorldServer {
	tb.Helper()

	if cfg.AuthStatus == 0 {
		cfg.AuthStatus = constants.AuthResponseOK
	}
	listener, addr := ListenTCP(tb)
	s := &FakeWorldServer{
		cfg:      cfg,
		listener: listener,
		addr:     addr,
		seed:     [4]byte{0xDE, 0xAD, 0xBE, 0xEF},
		done:     make(chan struct{}),
	}
	go s.serve()

	tb.Cleanup(func() {
		_ = listener.Close()
		<-s.done
	})
	return s
}

// Addr returns host:port of the server.
func (s *FakeWorldServer) Addr() string { return s.addr }

// SetSessionKey replaces the expected session key. It applies to the next
// CMSG_AUTH_SESSION, so it may be called after the server started.
func (s *FakeWorldServer) SetSessionKey(key srp6.SessionKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.SessionKey = key
}

func (s *FakeWorldServer) sessionKey() srp6.SessionKey {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.SessionKey
}

// AuthSession returns the CMSG_AUTH_SESSION received from the client.
func (s *FakeWorldServer) AuthSession() clientpackets.AuthSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authSession
}

// DigestOK reports whether the session digest matched the configured key.
func (s *FakeWorldServer) DigestOK() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.digestOK
}

// Opcodes returns the opcodes of encrypted client packets in arrival order.
func (s *FakeWorldServer) Opcodes() []uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.opcodes)
}

// Pings returns the CMSG_PING packets received.
func (s *FakeWorldServer) Pings() []clientpackets.Ping {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.pings)
}

// Err returns the first unexpected error of the connection handler.
func (s *FakeWorldServer) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *FakeWorldServer) serve() {
	defer close(s.done)

	conn, err := s.listener.Accept()
	if err != nil {
		return
	}
	defer conn.Close()

	if err := s.handle(conn); err != nil && !isClosed(err) {
		s.mu.Lock()
		s.err = err
		s.mu.Unlock()
	}
}

func (s *FakeWorldServer) handle(conn net.Conn) error {
	var crypt world.Crypt

	challenge := &serverpackets.AuthChallenge{Marker: constants.AuthChallengeMarker, ServerSeed: s.seed}
	if err := s.send(conn, &crypt, constants.SMsgAuthChallenge, challenge); err != nil {
		return fmt.Errorf("sending challenge: %w", err)
	}

	in := wire.NewBuffer()
	var req clientpackets.AuthSession
	opcode, err := s.recv(conn, &crypt, in, req.Parse)
	if err != nil {
		return fmt.Errorf("reading auth session: %w", err)
	}
	if opcode != constants.CMsgAuthSession {
		return fmt.Errorf("expected CMSG_AUTH_SESSION, got 0x%03X", opcode)
	}

	key := s.sessionKey()
	want := clientpackets.AuthDigest(s.cfg.Username, req.ClientSeed, s.seed, key[:])
	ok := req.Account == s.cfg.Username && req.Digest == want
	s.mu.Lock()
	s.authSession = req
	s.digestOK = ok
	s.mu.Unlock()
	if !ok {
		// real servers drop the connection on a bad digest
		return nil
	}

	if err := crypt.InitServer(key); err != nil {
		return err
	}

	resp := &serverpackets.AuthResponse{Status: s.cfg.AuthStatus, QueuePosition: s.cfg.QueuePosition}
	if err := s.send(conn, &crypt, constants.SMsgAuthResponse, resp); err != nil {
		return err
	}
	if s.cfg.ExtraOpcode != 0 {
		if err := s.send(conn, &crypt, s.cfg.ExtraOpcode, emptyBody{}); err != nil {
			return err
		}
	}

	for {
		var body []byte
		opcode, err := s.recv(conn, &crypt, in, func(b *wire.Buffer) error {
			body = slices.Clone(b.Unread())
			return b.Skip(len(body))
		})
		if err != nil {
			return err
		}
		s.mu.Lock()
		s.opcodes = append(s.opcodes, opcode)
		s.mu.Unlock()

		switch opcode {
		case constants.CMsgCharEnum:
			if err := s.send(conn, &crypt, constants.SMsgCharEnum, &serverpackets.CharEnum{Characters: s.cfg.Characters}); err != nil {
				return err
			}
		case constants.CMsgPing:
			var ping clientpackets.Ping
			if err := ping.Parse(wire.FromBytes(body)); err != nil {
				return err
			}
			s.mu.Lock()
			s.pings = append(s.pings, ping)
			s.mu.Unlock()
			if err := s.send(conn, &crypt, constants.SMsgPong, &serverpackets.Pong{Seq: ping.Seq}); err != nil {
				return err
			}
		}
	}
}

type emptyBody struct{}

func (emptyBody) Encode(*wire.Buffer) error { return nil }

// send writes one server frame, encrypting the header once crypt is initialized.
func (s *FakeWorldServer) send(conn net.Conn, crypt *world.Crypt, opcode uint16, p interface{ Encode(*wire.Buffer) error }) error {
	body := wire.NewBuffer()
	if err := p.Encode(body); err != nil {
		return err
	}
	hdr, err := packet.NewServerHeader(opcode, body.Len())
	if err != nil {
		return err
	}
	frame := make([]byte, hdr.Len()+body.Len())
	hdr.Put(frame)
	if crypt.IsInitialized() {
		if err := crypt.EncryptSend(frame[:hdr.Len()]); err != nil {
			return err
		}
	}
	copy(frame[hdr.Len():], body.Bytes())

	if s.cfg.ChunkSize <= 0 {
		_, err := conn.Write(frame)
		return err
	}
	for chunk := range slices.Chunk(frame, s.cfg.ChunkSize) {
		if _, err := conn.Write(chunk); err != nil {
			return err
		}
		time.Sleep(time.Millisecond)
	}
	return nil
}

// recv reads one client frame and hands its body to parse.
func (s *FakeWorldServer) recv(conn net.Conn, crypt *world.Crypt, in *wire.Buffer, parse func(*wire.Buffer) error) (uint32, error) {
	for in.Remaining() < constants.ClientHeaderSize {
		if _, err := in.Fill(conn, wire.DefaultSize); err != nil {
			return 0, err
		}
	}
	raw, err := in.ReadBytes(constants.ClientHeaderSize)
	if err != nil {
		return 0, err
	}
	hdrBytes := slices.Clone(raw)
	if crypt.IsInitialized() {
		if err := crypt.DecryptRecv(hdrBytes); err != nil {
			return 0, err
		}
	}
	hdr, err := packet.ParseClientHeader(hdrBytes)
	if err != nil {
		return 0, err
	}
	bodyLen, err := hdr.BodyLen()
	if err != nil {
		return 0, err
	}
	for in.Remaining() < bodyLen {
		if _, err := in.Fill(conn, wire.DefaultSize); err != nil {
			return 0, err
		}
	}
	raw, err = in.ReadBytes(bodyLen)
	if err != nil {
		return 0, err
	}
	// raw aliases in; parse before compacting
	if err := parse(wire.FromBytes(raw)); err != nil {
		return 0, fmt.Errorf("parsing 0x%03X: %w", hdr.Opcode, err)
	}
	in.Compact()
	return hdr.Opcode, nil
}
