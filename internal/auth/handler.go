package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/udisondev/realmgo/internal/auth/clientpackets"
	"github.com/udisondev/realmgo/internal/auth/serverpackets"
	"github.com/udisondev/realmgo/internal/bignum"
	"github.com/udisondev/realmgo/internal/srp6"
)

// challenge sends the logon challenge and prepares the SRP6 proof from the reply.
func (s *Session) challenge(ctx context.Context) error {
	a := s.cfg.Auth
	req := &clientpackets.LogonChallenge{
		Game:     a.Game,
		Major:    a.Version.Major,
		Minor:    a.Version.Minor,
		Patch:    a.Version.Patch,
		Build:    a.Version.Build,
		Platform: a.Platform,
		OS:       a.OS,
		Locale:   a.Locale,
		Timezone: a.Timezone,
		Username: s.Username(),
	}
	if err := s.writePacket(req); err != nil {
		return fmt.Errorf("sending logon challenge: %w", err)
	}

	var resp serverpackets.LogonChallenge
	if err := s.readPacket(ctx, resp.Parse); err != nil {
		return fmt.Errorf("reading logon challenge: %w", err)
	}
	if resp.Status != StatusSuccess {
		return &StatusError{Step: StateChallenge, Code: resp.Status}
	}
	if resp.SecurityFlags != 0 {
		return fmt.Errorf("%w: flags 0x%02X", ErrSecurityFlags, resp.SecurityFlags)
	}

	ex, err := srp6.New(bignum.FromBytesLE(resp.N), bignum.FromBytesLE(resp.G))
	if err != nil {
		return err
	}
	if err := ex.Generate(resp.Salt, resp.B, s.Username(), s.password); err != nil {
		return err
	}
	s.exchange = ex
	s.password = ""

	s.setState(StateLogonProof)
	slog.Debug("logon challenge accepted", "user", s.Username(), "n_bytes", len(resp.N))
	return nil
}

// logonProof sends A, M and the CRC hash, then checks the server's answer.
func (s *Session) logonProof(ctx context.Context) error {
	req := &clientpackets.LogonProof{
		A:   s.exchange.A(),
		M:   s.exchange.ClientProof(),
		CRC: s.exchange.CRCHash(),
	}
	if err := s.writePacket(req); err != nil {
		return fmt.Errorf("sending logon proof: %w", err)
	}

	var resp serverpackets.LogonProof
	if err := s.readPacket(ctx, resp.Parse); err != nil {
		return fmt.Errorf("reading logon proof: %w", err)
	}
	if resp.Status != StatusSuccess {
		return &StatusError{Step: StateLogonProof, Code: resp.Status}
	}
	if s.cfg.Auth.VerifyServerProof && !s.exchange.VerifyServerProof(resp.M2) {
		return ErrServerProofMismatch
	}

	s.mu.Lock()
	s.sessionKey = s.exchange.SessionKey()
	s.hasKey = true
	s.mu.Unlock()

	s.setState(StateRealmList)
	slog.Info("authenticated", "user", s.Username(), "account_flags", resp.AccountFlags)
	return nil
}

// realmList requests one realm list, publishes it and waits for the next poll.
func (s *Session) realmList(ctx context.Context) error {
	if err := s.writePacket(&clientpackets.RealmList{}); err != nil {
		return fmt.Errorf("sending realm list request: %w", err)
	}

	var resp serverpackets.RealmList
	if err := s.readPacket(ctx, resp.Parse); err != nil {
		return fmt.Errorf("reading realm list: %w", err)
	}

	s.mu.Lock()
	first := s.realms == nil
	s.realms = resp.Realms
	s.mu.Unlock()

	if first {
		for _, r := range resp.Realms {
			slog.Info("realm",
				"id", r.ID,
				"name", r.Name,
				"addr", r.Address,
				"population", r.Population,
				"characters", r.Characters,
				"online", r.Online())
		}
	}
	if s.sink != nil {
		if err := s.sink.StoreRealms(ctx, resp.Realms); err != nil {
			slog.Warn("storing realm snapshot", "err", err)
		}
	}

	timer := time.NewTimer(s.cfg.Auth.RealmPollInterval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
