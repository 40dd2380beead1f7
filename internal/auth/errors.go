package auth

import (
	"errors"
	"fmt"
)

var (
	ErrAlreadyStarted      = errors.New("auth: session already started")
	ErrServerProofMismatch = errors.New("auth: server proof mismatch")
	ErrNoSessionKey        = errors.New("auth: no session key yet")
	ErrRealmNotFound       = errors.New("auth: realm not found")
	ErrSecurityFlags       = errors.New("auth: server requires an unsupported security token")
)

// Login server result codes.
const (
	StatusSuccess           = 0x00
	StatusBanned            = 0x03
	StatusUnknownAccount    = 0x04
	StatusIncorrectPassword = 0x05
	StatusAlreadyOnline     = 0x06
	StatusNoTime            = 0x07
	StatusDBBusy            = 0x08
	StatusVersionInvalid    = 0x09
	StatusVersionUpdate     = 0x0A
	StatusSuspended         = 0x0C
	StatusParentControl     = 0x0F
	StatusLockedEnforced    = 0x10
)

var statusText = map[uint8]string{
	StatusSuccess:           "success",
	StatusBanned:            "account banned",
	StatusUnknownAccount:    "unknown account",
	StatusIncorrectPassword: "incorrect password",
	StatusAlreadyOnline:     "account already online",
	StatusNoTime:            "no game time left",
	StatusDBBusy:            "server busy",
	StatusVersionInvalid:    "client version not supported",
	StatusVersionUpdate:     "client update required",
	StatusSuspended:         "account suspended",
	StatusParentControl:     "parental control restriction",
	StatusLockedEnforced:    "account locked",
}

// StatusError is a non-zero status byte returned by the login server.
type StatusError struct {
	Step State
	Code uint8
}

func (e *StatusError) Error() string {
	text, ok := statusText[e.Code]
	if !ok {
		text = "unknown status"
	}
	return fmt.Sprintf("auth: %s rejected with status 0x%02X (%s)", e.Step, e.Code, text)
}
