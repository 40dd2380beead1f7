package testutil

import (
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"syscall"
	"testing"

	"github.com/udisondev/realmgo/internal/auth/clientpackets"
	"github.com/udisondev/realmgo/internal/auth/serverpackets"
	"github.com/udisondev/realmgo/internal/bignum"
	"github.com/udisondev/realmgo/internal/constants"
	"github.com/udisondev/realmgo/internal/crypto"
	"github.com/udisondev/realmgo/internal/srp6"
	"github.com/udisondev/realmgo/internal/wire"
)

// WoWModulusHex is the 256-bit safe prime used by 3.3.5a login servers (big-endian hex).
const WoWModulusHex = "894B645E89E1535BBDAD5B8B290650530801B18EBFBF5E8FAB3C82872A3E9BB7"

// Auth status codes used by the fake server.
const (
	AuthStatusUnknownAccount    = 0x04
	AuthStatusIncorrectPassword = 0x05
)

// FakeAuthConfig describes how a FakeAuthServer behaves.
type FakeAuthConfig struct {
	Username string
	Password string
	Realms   []serverpackets.Realm

	ChallengeStatus uint8 // non-zero: reject the challenge with this status
	ProofStatus     uint8 // non-zero: reject the proof with this status
	SecurityFlags   uint8 // announced in the challenge reply

	TamperServerProof bool   // send a wrong M2
	RawRealmList      []byte // sent verbatim instead of encoding Realms
}

// FakeAuthServer is a login server speaking the server side of SRP6 for one
// account. It accepts a single connection.
type FakeAuthServer struct {
	cfg  FakeAuthConfig
	n, g bignum.Int

	listener net.Listener
	addr     string

	mu            sync.Mutex
	challenge     clientpackets.LogonChallenge
	clientProofOK bool
	sessionKey    srp6.SessionKey
	realmRequests int
	err           error

	done chan struct{}
}

// NewFakeAuthServer starts a fake login server on a random local port.
// It is shut down when the test ends.
func NewFakeAuthServer(tb testing.TB, cfg FakeAuthConfig) *FakeAuthServer {
	tb.Helper()

	n, err := bignum.FromHex(WoWModulusHex)
	if err != nil {
		tb.Fatalf("parsing modulus: %v", err)
	}

	listener, addr := ListenTCP(tb)
	s := &FakeAuthServer{
		cfg:      cfg,
		n:        n,
		g:        bignum.FromUint32(7),
		listener: listener,
		addr:     addr,
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
func (s *FakeAuthServer) Addr() string { return s.addr }

// Host returns the host part of Addr.
func (s *FakeAuthServer) Host() string {
	host, _, _ := net.SplitHostPort(s.addr)
	return host
}

// Port returns the port part of Addr.
func (s *FakeAuthServer) Port() int {
	return s.listener.Addr().(*net.TCPAddr).Port
}

// Challenge returns the last logon challenge received.
func (s *FakeAuthServer) Challenge() clientpackets.LogonChallenge {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.challenge
}

// ClientProofOK reports whether the client's M matched the server's computation.
func (s *FakeAuthServer) ClientProofOK() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clientProofOK
}

// SessionKey returns K as computed by the server.
func (s *FakeAuthServer) SessionKey() srp6.SessionKey {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionKey
}

// RealmRequests returns how many realm list requests were answered.
func (s *FakeAuthServer) RealmRequests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.realmRequests
}

// Err returns the first unexpected error of the connection handler.
func (s *FakeAuthServer) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *FakeAuthServer) serve() {
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

func (s *FakeAuthServer) handle(conn net.Conn) error {
	in := wire.NewBuffer()

	var challenge clientpackets.LogonChallenge
	if err := ReadPacket(conn, in, challenge.Parse); err != nil {
		return fmt.Errorf("reading challenge: %w", err)
	}
	s.mu.Lock()
	s.challenge = challenge
	s.mu.Unlock()

	if s.cfg.ChallengeStatus != 0 {
		return WritePacket(conn, &serverpackets.LogonChallenge{Status: s.cfg.ChallengeStatus})
	}

	user := strings.ToUpper(s.cfg.Username)
	pass := strings.ToUpper(s.cfg.Password)

	var salt srp6.Salt
	raw, err := crypto.RandomBytes(len(salt))
	if err != nil {
		return err
	}
	copy(salt[:], raw)

	x := bignum.FromBytesLE(crypto.SHA1Of(salt, crypto.SHA1Of(user, ":", pass)).Bytes())
	v, err := s.g.ModExp(x, s.n)
	if err != nil {
		return err
	}
	b, err := bignum.Random(constants.SRPPrivateKeySize)
	if err != nil {
		return err
	}
	gb, err := s.g.ModExp(b, s.n)
	if err != nil {
		return err
	}
	bigB, err := bignum.FromUint32(constants.SRPMultiplier).Mul(v).Add(gb).Mod(s.n)
	if err != nil {
		return err
	}
	var pubB srp6.EphemeralKey
	rawB, err := bigB.ToBytesLE(len(pubB))
	if err != nil {
		return err
	}
	copy(pubB[:], rawB)

	reply := &serverpackets.LogonChallenge{
		B:             pubB,
		G:             s.g.BytesLE(),
		N:             s.n.BytesLE(),
		Salt:          salt,
		SecurityFlags: s.cfg.SecurityFlags,
	}
	if err := WritePacket(conn, reply); err != nil {
		return err
	}

	var proof clientpackets.LogonProof
	if err := ReadPacket(conn, in, proof.Parse); err != nil {
		return fmt.Errorf("reading proof: %w", err)
	}

	pubA := bignum.FromBytesLE(proof.A[:])
	u := bignum.FromBytesLE(crypto.SHA1Of(proof.A, pubB).Bytes())
	vu, err := v.ModExp(u, s.n)
	if err != nil {
		return err
	}
	secret, err := pubA.Mul(vu).ModExp(b, s.n)
	if err != nil {
		return err
	}
	var rawS srp6.EphemeralKey
	sBytes, err := secret.ToBytesLE(len(rawS))
	if err != nil {
		return err
	}
	copy(rawS[:], sBytes)
	key := srp6.Interleave(rawS)

	ngHash := crypto.SHA1Of(s.n.BytesLE()).Xor(crypto.SHA1Of(s.g.BytesLE()))
	m := crypto.SHA1Of(ngHash, crypto.SHA1Of(user), salt, proof.A, pubB, key)
	ok := m == proof.M && challenge.Username == user

	s.mu.Lock()
	s.clientProofOK = ok
	s.sessionKey = key
	s.mu.Unlock()

	status := s.cfg.ProofStatus
	if status == 0 && !ok {
		status = AuthStatusIncorrectPassword
	}
	if status != 0 {
		return WritePacket(conn, &serverpackets.LogonProof{Status: status})
	}

	m2 := crypto.SHA1Of(proof.A, m, key)
	if s.cfg.TamperServerProof {
		m2[0] ^= 0xFF
	}
	if err := WritePacket(conn, &serverpackets.LogonProof{M2: m2, AccountFlags: 0x00800000}); err != nil {
		return err
	}

	for {
		var req clientpackets.RealmList
		if err := ReadPacket(conn, in, req.Parse); err != nil {
			return err
		}
		if s.cfg.RawRealmList != nil {
			if _, err := conn.Write(s.cfg.RawRealmList); err != nil {
				return err
			}
		} else if err := WritePacket(conn, &serverpackets.RealmList{Realms: s.cfg.Realms}); err != nil {
			return err
		}
		s.mu.Lock()
		s.realmRequests++
		s.mu.Unlock()
	}
}

// ReadPacket fills in from r until parse succeeds. parse must leave the buffer
// untouched on wire.ErrShortRead.
func ReadPacket(r io.Reader, in *wire.Buffer, parse func(*wire.Buffer) error) error {
	for {
		err := parse(in)
		if err == nil {
			in.Compact()
			return nil
		}
		if !errors.Is(err, wire.ErrShortRead) {
			return err
		}
		if _, err := in.Fill(r, wire.DefaultSize); err != nil {
			return err
		}
	}
}

// WritePacket encodes p and writes it to w in one call.
func WritePacket(w io.Writer, p interface{ Encode(*wire.Buffer) error }) error {
	out := wire.NewBuffer()
	if err := p.Encode(out); err != nil {
		return err
	}
	_, err := out.WriteTo(w)
	return err
}

func isClosed(err error) bool {
	return errors.Is(err, io.EOF) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, io.ErrClosedPipe) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE)
}
