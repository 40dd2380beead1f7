// Package auth implements the client side of the login server exchange:
// logon challenge, SRP6 proof and the periodic realm list.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/udisondev/realmgo/internal/auth/serverpackets"
	"github.com/udisondev/realmgo/internal/config"
	"github.com/udisondev/realmgo/internal/srp6"
	"github.com/udisondev/realmgo/internal/wire"
	"github.com/udisondev/realmgo/internal/world"
)

// Realm is one entry of the realm list.
type Realm = serverpackets.Realm

// RealmSink receives every refreshed realm list. Errors are logged, they never
// stop the session.
type RealmSink interface {
	StoreRealms(ctx context.Context, realms []Realm) error
}

// Dialer opens the login server connection. *net.Dialer satisfies it.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Option configures a Session.
type Option func(*Session)

// WithConn makes Login use conn instead of dialing.
func WithConn(conn net.Conn) Option {
	return func(s *Session) { s.conn = conn }
}

// WithDialer replaces the default net.Dialer.
func WithDialer(d Dialer) Option {
	return func(s *Session) { s.dialer = d }
}

// WithRealmSink registers a sink for realm list snapshots.
func WithRealmSink(sink RealmSink) Option {
	return func(s *Session) { s.sink = sink }
}

// Session is one login server connection. The worker goroutine owns the socket,
// the receive buffer and the SRP6 exchange; accessors are safe from any goroutine.
type Session struct {
	cfg    config.Client
	dialer Dialer
	sink   RealmSink
	conn   net.Conn

	// worker-owned
	buf      *wire.Buffer
	pool     *wire.BufferPool
	exchange *srp6.Exchange
	password string

	state atomic.Int32

	mu         sync.RWMutex
	started    bool
	cancel     context.CancelFunc
	err        error
	username   string
	sessionKey srp6.SessionKey
	hasKey     bool
	realms     []Realm

	wg   sync.WaitGroup
	done chan struct{}
}

// NewSession creates an idle session. Nothing happens on the network until Login.
func NewSession(cfg config.Client, opts ...Option) *Session {
	s := &Session{
		cfg:    cfg,
		dialer: &net.Dialer{Timeout: 10 * time.Second},
		buf:    wire.NewBuffer(),
		pool:   wire.NewBufferPool(),
		done:   make(chan struct{}),
	}
	def := config.DefaultClient().Auth
	if s.cfg.Auth.ReadTimeout <= 0 {
		s.cfg.Auth.ReadTimeout = def.ReadTimeout
	}
	if s.cfg.Auth.WriteTimeout <= 0 {
		s.cfg.Auth.WriteTimeout = def.WriteTimeout
	}
	if s.cfg.Auth.RealmPollInterval <= 0 {
		s.cfg.Auth.RealmPollInterval = def.RealmPollInterval
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Login uppercases the credentials, connects and starts the worker. It returns
// once the worker runs; progress is observed through State, Realms and Done.
func (s *Session) Login(ctx context.Context, username, password string) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.started = true
	s.username = strings.ToUpper(username)
	s.mu.Unlock()
	s.password = strings.ToUpper(password)

	if s.conn == nil {
		addr := s.cfg.Auth.Address()
		conn, err := s.dialer.DialContext(ctx, "tcp", addr)
		if err != nil {
			err = fmt.Errorf("dialing login server %s: %w", addr, err)
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

	s.setState(StateChallenge)
	s.wg.Go(func() {
		defer cancel()
		s.run(wctx)
	})
	return nil
}

// State returns the current step.
func (s *Session) State() State {
	return State(s.state.Load())
}

func (s *Session) setState(st State) {
	s.state.Store(int32(st))
}

// Username returns the uppercased account name.
func (s *Session) Username() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.username
}

// Realms returns a copy of the last realm list.
func (s *Session) Realms() []Realm {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.realms)
}

// RealmByID looks a realm up in the last realm list.
func (s *Session) RealmByID(id uint8) (Realm, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.realms {
		if r.ID == id {
			return r, true
		}
	}
	return Realm{}, false
}

// SessionKey returns K once the login server accepted the proof.
func (s *Session) SessionKey() (srp6.SessionKey, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessionKey, s.hasKey
}

// Credentials returns what a world session needs, by value.
func (s *Session) Credentials() (world.Credentials, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.hasKey {
		return world.Credentials{}, ErrNoSessionKey
	}
	return world.Credentials{Username: s.username, SessionKey: s.sessionKey}, nil
}

// Err returns the error that stopped the worker, if any.
func (s *Session) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// Done is closed when the worker exits.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Stop asks the worker to exit. It does not wait.
func (s *Session) Stop() {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cancel != nil {
		s.cancel()
	}
}

// Shutdown stops the worker and waits for it to close the connection.
func (s *Session) Shutdown() {
	s.Stop()
	s.wg.Wait()
}

// ConnectToRealm ends the login connection and starts a world session for the
// realm with the given id. The realm address comes from the last realm list.
func (s *Session) ConnectToRealm(ctx context.Context, id uint8, opts ...world.Option) (*world.Session, error) {
	s.Shutdown()

	creds, err := s.Credentials()
	if err != nil {
		return nil, err
	}
	realm, ok := s.RealmByID(id)
	if !ok {
		return nil, fmt.Errorf("%w: id %d", ErrRealmNotFound, id)
	}
	if _, _, err := realm.HostPort(); err != nil {
		return nil, err
	}
	if !realm.Online() {
		slog.Warn("realm is flagged offline, connecting anyway", "realm", realm.Name, "id", realm.ID)
	}

	ws := world.NewSession(creds, id, realm.Address, s.cfg, opts...)
	if err := ws.Start(ctx); err != nil {
		return nil, err
	}
	slog.Info("world session started", "realm", realm.Name, "id", realm.ID, "addr", realm.Address)
	return ws, nil
}

func (s *Session) fail(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
	slog.Error("login session failed",
		"user", s.Username(),
		"state", s.State(),
		"err", err)
}

func (s *Session) run(ctx context.Context) {
	defer close(s.done)
	defer func() {
		if err := s.conn.Close(); err != nil {
			slog.Debug("closing login connection", "err", err)
		}
	}()

	slog.Info("connected to login server", "addr", s.conn.RemoteAddr(), "user", s.Username())

	if err := s.loop(ctx); err != nil {
		if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			return
		}
		s.fail(err)
	}
}

func (s *Session) loop(ctx context.Context) error {
	for {
		var err error
		switch s.State() {
		case StateChallenge:
			err = s.challenge(ctx)
		case StateLogonProof:
			err = s.logonProof(ctx)
		case StateRealmList:
			err = s.realmList(ctx)
		default:
			return fmt.Errorf("unexpected state %s", s.State())
		}
		if err != nil {
			return err
		}
	}
}

// readPacket buffers socket data until parse succeeds. parse must leave the
// cursor untouched on wire.ErrShortRead. Read deadlines keep ctx observed.
func (s *Session) readPacket(ctx context.Context, parse func(*wire.Buffer) error) error {
	for {
		err := parse(s.buf)
		if err == nil {
			s.buf.Compact()
			return nil
		}
		if !errors.Is(err, wire.ErrShortRead) {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := s.conn.SetReadDeadline(time.Now().Add(s.cfg.Auth.ReadTimeout)); err != nil {
			return fmt.Errorf("setting read deadline: %w", err)
		}
		n, err := s.buf.Fill(s.conn, wire.DefaultSize)
		if err != nil && n == 0 {
			if wire.IsTimeout(err) {
				continue
			}
			return fmt.Errorf("reading from login server: %w", err)
		}
	}
}

// writePacket encodes p into a pooled buffer and writes it in one call.
func (s *Session) writePacket(p interface{ Encode(*wire.Buffer) error }) error {
	out := s.pool.Get()
	defer s.pool.Put(out)

	if err := p.Encode(out); err != nil {
		return err
	}
	if err := s.conn.SetWriteDeadline(time.Now().Add(s.cfg.Auth.WriteTimeout)); err != nil {
		return fmt.Errorf("setting write deadline: %w", err)
	}
	if _, err := out.WriteTo(s.conn); err != nil {
		return fmt.Errorf("writing to login server: %w", err)
	}
	return nil
}
