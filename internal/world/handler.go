package world

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/udisondev/realmgo/internal/constants"
	"github.com/udisondev/realmgo/internal/crypto"
	"github.com/udisondev/realmgo/internal/wire"
	"github.com/udisondev/realmgo/internal/world/clientpackets"
	"github.com/udisondev/realmgo/internal/world/serverpackets"
)

type handlerFunc func(s *Session, body *wire.Buffer) error

// handlers maps server opcodes to their handlers. Opcodes missing here are
// logged at debug level and skipped.
var handlers = map[uint16]handlerFunc{
	constants.SMsgAuthChallenge: (*Session).handleAuthChallenge,
	constants.SMsgAuthResponse:  (*Session).handleAuthResponse,
	constants.SMsgCharEnum:      (*Session).handleCharEnum,
	constants.SMsgPong:          (*Session).handlePong,

	// sent right after AUTH_OK; nothing to do with them yet
	constants.SMsgAddonInfo:        (*Session).handleIgnored,
	constants.SMsgClientCacheVer:   (*Session).handleIgnored,
	constants.SMsgTutorialFlags:    (*Session).handleIgnored,
	constants.SMsgAccountDataTimes: (*Session).handleIgnored,
	constants.SMsgWardenData:       (*Session).handleIgnored,
}

func (s *Session) dispatch(opcode uint16, body *wire.Buffer) error {
	h, ok := handlers[opcode]
	if !ok {
		slog.Debug("unhandled world opcode",
			"realm", s.realmID,
			"opcode", OpcodeName(opcode),
			"size", body.Len())
		return nil
	}
	return h(s, body)
}

// handleAuthChallenge answers SMSG_AUTH_CHALLENGE with CMSG_AUTH_SESSION and
// switches the connection to encrypted headers.
func (s *Session) handleAuthChallenge(body *wire.Buffer) error {
	if st := s.State(); st != StateAwaitChallenge {
		return fmt.Errorf("SMSG_AUTH_CHALLENGE in state %s", st)
	}

	var p serverpackets.AuthChallenge
	if err := p.Parse(body); err != nil {
		return fmt.Errorf("parsing SMSG_AUTH_CHALLENGE: %w", err)
	}

	clientSeed, err := crypto.RandomSeed()
	if err != nil {
		return fmt.Errorf("generating client seed: %w", err)
	}

	req := &clientpackets.AuthSession{
		Build:      s.build,
		Account:    s.creds.Username,
		ClientSeed: clientSeed,
		RealmID:    uint32(s.realmID),
		Digest:     clientpackets.AuthDigest(s.creds.Username, clientSeed, p.ServerSeed, s.creds.SessionKey[:]),
	}
	frame, err := s.frame(constants.CMsgAuthSession, req)
	if err != nil {
		return err
	}
	defer s.framePool.Put(frame)

	if err := s.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout)); err != nil {
		return fmt.Errorf("setting write deadline: %w", err)
	}
	if _, err := s.conn.Write(frame); err != nil {
		return fmt.Errorf("sending CMSG_AUTH_SESSION: %w", err)
	}

	if err := s.crypt.Init(s.creds.SessionKey); err != nil {
		return fmt.Errorf("initializing header cipher: %w", err)
	}
	s.encrypted = true
	s.setState(StateAuthenticating)

	slog.Info("sent CMSG_AUTH_SESSION", "realm", s.realmID, "user", s.creds.Username)
	return nil
}

func (s *Session) handleAuthResponse(body *wire.Buffer) error {
	if st := s.State(); st != StateAuthenticating {
		slog.Warn("ignoring SMSG_AUTH_RESPONSE", "realm", s.realmID, "state", st)
		return nil
	}

	var p serverpackets.AuthResponse
	if err := p.Parse(body); err != nil {
		return fmt.Errorf("parsing SMSG_AUTH_RESPONSE: %w", err)
	}

	switch p.Status {
	case constants.AuthResponseOK:
		s.setState(StateSteady)
		slog.Info("world session authenticated",
			"realm", s.realmID,
			"user", s.creds.Username,
			"expansion", p.Expansion)
		return s.requestCharacters()
	case constants.AuthResponseWaitQueue:
		slog.Info("queued for realm", "realm", s.realmID, "position", p.QueuePosition)
		return nil
	default:
		return &StatusError{Code: p.Status}
	}
}

// requestCharacters sends CMSG_CHAR_ENUM once per session.
func (s *Session) requestCharacters() error {
	if s.charEnumSent {
		return nil
	}
	frame, err := s.frame(constants.CMsgCharEnum, clientpackets.CharEnum{})
	if err != nil {
		return err
	}
	if err := s.writeFrames(frame); err != nil {
		return fmt.Errorf("sending CMSG_CHAR_ENUM: %w", err)
	}
	s.charEnumSent = true
	s.lastPing = time.Now()
	return nil
}

func (s *Session) handleCharEnum(body *wire.Buffer) error {
	var p serverpackets.CharEnum
	if err := p.Parse(body); err != nil {
		return fmt.Errorf("parsing SMSG_CHAR_ENUM: %w", err)
	}

	s.mu.Lock()
	s.characters = p.Characters
	s.mu.Unlock()

	names := make([]string, 0, len(p.Characters))
	for _, c := range p.Characters {
		names = append(names, c.Name)
	}
	slog.Info("character list received", "realm", s.realmID, "count", len(p.Characters), "names", names)
	return nil
}

func (s *Session) handlePong(body *wire.Buffer) error {
	var p serverpackets.Pong
	if err := p.Parse(body); err != nil {
		return fmt.Errorf("parsing SMSG_PONG: %w", err)
	}

	s.mu.Lock()
	sent, ok := s.pings[p.Seq]
	delete(s.pings, p.Seq)
	s.mu.Unlock()

	if !ok {
		slog.Debug("pong for unknown ping", "realm", s.realmID, "seq", p.Seq)
		return nil
	}
	rtt := time.Since(sent)
	s.latency.Store(int64(rtt))
	slog.Debug("pong", "realm", s.realmID, "seq", p.Seq, "latency", rtt)
	return nil
}

func (s *Session) handleIgnored(body *wire.Buffer) error {
	return nil
}

// Ping queues a CMSG_PING and returns its sequence number.
func (s *Session) Ping() (uint32, error) {
	seq := s.pingSeq.Add(1)
	latencyMs := uint32(s.Latency() / time.Millisecond)

	s.mu.Lock()
	s.pings[seq] = time.Now()
	s.mu.Unlock()

	if err := s.Send(constants.CMsgPing, &clientpackets.Ping{Seq: seq, Latency: latencyMs}); err != nil {
		s.mu.Lock()
		delete(s.pings, seq)
		s.mu.Unlock()
		return 0, err
	}
	return seq, nil
}

// maybePing queues a keepalive when the configured interval has passed.
func (s *Session) maybePing() {
	if s.cfg.PingInterval <= 0 || time.Since(s.lastPing) < s.cfg.PingInterval {
		return
	}
	s.lastPing = time.Now()
	if _, err := s.Ping(); err != nil {
		slog.Warn("keepalive ping not queued", "realm", s.realmID, "err", err)
	}
}
