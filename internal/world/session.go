// Package world implements the client side of a realm (world server) connection:
// the plaintext session proof, the ARC4 header cipher and the steady-state
// packet loop.
package world

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/udisondev/realmgo/internal/config"
	"github.com/udisondev/realmgo/internal/constants"
	"github.com/udisondev/realmgo/internal/srp6"
	"github.com/udisondev/realmgo/internal/wire"
	"github.com/udisondev/realmgo/internal/world/packet"
	"github.com/udisondev/realmgo/internal/world/serverpackets"
)

var (
	ErrAlreadyStarted = errors.New("world: session already started")
	ErrQueueFull      = errors.New("world: send queue full")
)

// StatusError reports an SMSG_AUTH_RESPONSE status other than AUTH_OK or AUTH_WAIT_QUEUE.
type StatusError struct {
	Code uint8
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("world: auth response status %d", e.Code)
}

// Credentials is the login result handed to the world session by value.
type Credentials struct {
	Username   string // uppercased
	SessionKey srp6.SessionKey
}

// Character is one entry of the account's character list.
type Character = serverpackets.Character

// Dialer opens the realm connection. *net.Dialer satisfies it.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Encoder writes a packet body.
type Encoder interface {
	Encode(b *wire.Buffer) error
}

// Option configures a Session.
type Option func(*Session)

// WithConn makes Start use conn instead of dialing.
func WithConn(conn net.Conn) Option {
	return func(s *Session) { s.conn = conn }
}

// WithDialer replaces the default net.Dialer.
func WithDialer(d Dialer) Option {
	return func(s *Session) { s.dialer = d }
}

// Session is one world server connection. A single worker goroutine owns the
// socket, the receive buffer and the cipher; other goroutines only read
// snapshots or enqueue outbound packets.
type Session struct {
	creds   Credentials
	realmID uint8
	addr    string
	build   uint32
	cfg     config.World

	dialer Dialer
	conn   net.Conn

	// worker-owned
	crypt        Crypt
	encrypted    bool
	hdrDone      int // header bytes at the cursor already decrypted
	buf          *wire.Buffer
	charEnumSent bool
	lastPing     time.Time

	framePool *wire.BytePool
	sendCh    chan []byte // framed packets, headers still plaintext

	state   atomic.Int32
	latency atomic.Int64
	pingSeq atomic.Uint32

	mu         sync.Mutex
	started    bool
	cancel     context.CancelFunc
	err        error
	characters []Character
	pings      map[uint32]time.Time

	wg   sync.WaitGroup
	done chan struct{}
}

// NewSession creates a session for realmID at addr ("host:port").
// Nothing happens on the network until Start.
func NewSession(creds Credentials, realmID uint8, addr string, cfg config.Client, opts ...Option) *Session {
	queueSize := cfg.World.SendQueueSize
	if queueSize <= 0 {
		queueSize = config.DefaultWorld().SendQueueSize
	}
	s := &Session{
		creds:     creds,
		realmID:   realmID,
		addr:      addr,
		build:     uint32(cfg.Auth.Version.Build),
		cfg:       cfg.World,
		dialer:    &net.Dialer{Timeout: 10 * time.Second},
		buf:       wire.NewBuffer(),
		framePool: wire.NewBytePool(64),
		sendCh:    make(chan []byte, queueSize),
		pings:     make(map[uint32]time.Time),
		done:      make(chan struct{}),
	}
	if s.cfg.ReadTimeout <= 0 {
		s.cfg.ReadTimeout = config.DefaultWorld().ReadTimeout
	}
	if s.cfg.WriteTimeout <= 0 {
		s.cfg.WriteTimeout = config.DefaultWorld().WriteTimeout
	}
	for _, opt := range opts {
		opt(s)
	}
	s.state.Store(int32(StateConnecting))
	return s
}

// Start connects (unless a connection was injected) and spawns the worker.
// The worker runs until ctx is cancelled, Stop is called, or a step fails.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.started = true
	s.mu.Unlock()

	if s.conn == nil {
		conn, err := s.dialer.DialContext(ctx, "tcp", s.addr)
		if err != nil {
			err = fmt.Errorf("dialing realm %d at %s: %w", s.realmID, s.addr, err)
			s.fail(err)
			close(s.done)
			return err
		}
		s.conn = conn
	}

	wctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()

	s.wg.Go(func() {
		defer cancel()
		s.run(wctx)
	})
	return nil
}

// State returns the current lifecycle stage.
func (s *Session) State() State {
	return State(s.state.Load())
}

func (s *Session) setState(st State) {
	s.state.Store(int32(st))
}

// Err returns the error that stopped the worker, if any.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Done is closed when the worker exits.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// RealmID returns the realm this session was opened for.
func (s *Session) RealmID() uint8 {
	return s.realmID
}

// Characters returns a copy of the last received character list.
func (s *Session) Characters() []Character {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.characters)
}

// Latency returns the last measured ping round trip.
func (s *Session) Latency() time.Duration {
	return time.Duration(s.latency.Load())
}

// Stop asks the worker to exit. It does not wait.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
}

// Shutdown stops the worker and waits for it to close the connection.
func (s *Session) Shutdown() {
	s.Stop()
	s.wg.Wait()
}

// Send frames p under opcode and queues it for the worker. Queued packets are
// written once the session is steady. Non-blocking: a full queue returns ErrQueueFull.
func (s *Session) Send(opcode uint32, p Encoder) error {
	frame, err := s.frame(opcode, p)
	if err != nil {
		return err
	}
	select {
	case s.sendCh <- frame:
		return nil
	default:
		s.framePool.Put(frame)
		return fmt.Errorf("%w: %s", ErrQueueFull, OpcodeName(uint16(opcode)))
	}
}

// frame encodes p into a pooled [header|body] slice with a plaintext header.
func (s *Session) frame(opcode uint32, p Encoder) ([]byte, error) {
	body := wire.NewBuffer()
	if err := p.Encode(body); err != nil {
		return nil, fmt.Errorf("encoding %s: %w", OpcodeName(uint16(opcode)), err)
	}
	hdr, err := packet.NewClientHeader(opcode, body.Len())
	if err != nil {
		return nil, err
	}
	frame := s.framePool.Get(constants.ClientHeaderSize + body.Len())
	hdr.Put(frame)
	copy(frame[constants.ClientHeaderSize:], body.Bytes())
	return frame, nil
}

func (s *Session) fail(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
	slog.Error("world session failed",
		"realm", s.realmID,
		"user", s.creds.Username,
		"state", s.State(),
		"err", err)
}

func (s *Session) run(ctx context.Context) {
	defer close(s.done)
	defer func() {
		if err := s.conn.Close(); err != nil {
			slog.Debug("closing world connection", "realm", s.realmID, "err", err)
		}
		s.drainQueue()
	}()

	s.setState(StateAwaitChallenge)
	slog.Info("connected to realm", "realm", s.realmID, "addr", s.addr)

	for {
		if ctx.Err() != nil {
			return
		}
		if err := s.step(); err != nil {
			if ctx.Err() != nil {
				return
			}
			s.fail(err)
			return
		}
	}
}

// step performs one poll: flush outbound packets, read one chunk and
// process every complete packet in the buffer.
func (s *Session) step() error {
	if s.State() == StateSteady {
		s.maybePing()
		if err := s.flushQueue(); err != nil {
			return err
		}
	}

	if err := s.conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout)); err != nil {
		return fmt.Errorf("setting read deadline: %w", err)
	}
	n, err := s.buf.Fill(s.conn, wire.DefaultSize)
	if err != nil && n == 0 {
		if wire.IsTimeout(err) {
			return nil
		}
		return fmt.Errorf("reading from realm: %w", err)
	}

	for {
		ok, err := s.readNextPacket()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
	}
	s.buf.Compact()
	return nil
}

// readNextPacket consumes one complete packet. It returns false when the
// buffer holds only part of the next packet; header bytes decrypted so far
// are remembered so they are never decrypted twice.
func (s *Session) readNextPacket() (bool, error) {
	un := s.buf.Unread()
	if len(un) == 0 {
		return false, nil
	}

	if s.encrypted && s.hdrDone == 0 {
		if err := s.crypt.DecryptRecv(un[:1]); err != nil {
			return false, err
		}
		s.hdrDone = 1
	}
	hdrLen := packet.ServerHeaderLen(un[0])
	if len(un) < hdrLen {
		return false, nil
	}
	if s.encrypted && s.hdrDone < hdrLen {
		if err := s.crypt.DecryptRecv(un[s.hdrDone:hdrLen]); err != nil {
			return false, err
		}
		s.hdrDone = hdrLen
	}

	hdr, err := packet.ParseServerHeader(un[:hdrLen])
	if err != nil {
		return false, err
	}
	bodyLen, err := hdr.BodyLen()
	if err != nil {
		return false, fmt.Errorf("%s: %w", OpcodeName(hdr.Opcode), err)
	}
	if len(un) < hdrLen+bodyLen {
		return false, nil
	}

	body := wire.FromBytes(un[hdrLen : hdrLen+bodyLen])
	if err := s.buf.Skip(hdrLen + bodyLen); err != nil {
		return false, err
	}
	s.hdrDone = 0

	if err := s.dispatch(hdr.Opcode, body); err != nil {
		return false, err
	}
	return true, nil
}

// writeFrames encrypts the headers in queue order and writes all frames in one
// call. Frames go back to the pool whatever the outcome.
func (s *Session) writeFrames(frames ...[]byte) error {
	defer func() {
		for _, f := range frames {
			s.framePool.Put(f)
		}
	}()

	for _, f := range frames {
		if err := s.crypt.EncryptSend(f[:constants.ClientHeaderSize]); err != nil {
			return err
		}
	}
	if err := s.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout)); err != nil {
		return fmt.Errorf("setting write deadline: %w", err)
	}

	// WriteTo consumes its receiver; keep frames intact for the pool.
	bufs := make(net.Buffers, len(frames))
	copy(bufs, frames)
	if _, err := bufs.WriteTo(s.conn); err != nil {
		return fmt.Errorf("writing to realm: %w", err)
	}
	return nil
}

func (s *Session) flushQueue() error {
	n := len(s.sendCh)
	if n == 0 {
		return nil
	}
	frames := make([][]byte, 0, n)
	for range n {
		frames = append(frames, <-s.sendCh)
	}
	return s.writeFrames(frames...)
}

func (s *Session) drainQueue() {
	for {
		select {
		case f := <-s.sendCh:
			s.framePool.Put(f)
		default:
			return
		}
	}
}
