// Package errs defines the error taxonomy shared by the room lifecycle, the
// turn engine, and the transport layer. Direct operations surface these as
// structured results; asynchronous notifications never raise them.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies an error for user-visible surfacing.
type Kind string

const (
	KindValidation    Kind = "validation"
	KindAuthorization Kind = "authorization"
	KindState         Kind = "state"
	KindTransport     Kind = "transport"
	KindNotFound      Kind = "not_found"
)

// Code is a stable machine-readable identifier carried over the wire.
type Code string

const (
	CodeRoomFull            Code = "ROOM_FULL"
	CodeWrongPassword       Code = "WRONG_PASSWORD"
	CodeRoomNotFound        Code = "ROOM_NOT_FOUND"
	CodePlayerNotFound      Code = "PLAYER_NOT_FOUND"
	CodeNotHost             Code = "NOT_HOST"
	CodeInsufficientPlayers Code = "INSUFFICIENT_PLAYERS"
	CodeNotAllReady         Code = "NOT_ALL_READY"
	CodeNotYourTurn         Code = "NOT_YOUR_TURN"
	CodeCardNotInHand       Code = "CARD_NOT_IN_HAND"
	CodeGameNotActive       Code = "GAME_NOT_ACTIVE"
	CodeInvalidRequest      Code = "INVALID_REQUEST"
	CodeConnectionFailed    Code = "CONNECTION_FAILED"
)

// Error is the single error type of the module.
type Error struct {
	Kind    Kind
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on Code so sentinel comparisons like errors.Is(err, errs.RoomFull)
// work across wrapping.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

func newErr(kind Kind, code Code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

// Canonical instances, usable both as sentinels and as returned errors.
var (
	RoomFull            = newErr(KindValidation, CodeRoomFull, "room is full")
	WrongPassword       = newErr(KindValidation, CodeWrongPassword, "wrong room password")
	RoomNotFound        = newErr(KindNotFound, CodeRoomNotFound, "room not found")
	PlayerNotFound      = newErr(KindNotFound, CodePlayerNotFound, "player not found")
	NotHost             = newErr(KindAuthorization, CodeNotHost, "only the host may do that")
	InsufficientPlayers = newErr(KindValidation, CodeInsufficientPlayers, "need at least 2 players")
	NotAllReady         = newErr(KindValidation, CodeNotAllReady, "not all players are ready")
	NotYourTurn         = newErr(KindState, CodeNotYourTurn, "not your turn")
	CardNotInHand       = newErr(KindState, CodeCardNotInHand, "card is not in your hand")
	GameNotActive       = newErr(KindState, CodeGameNotActive, "no game in progress")
	ConnectionFailed    = newErr(KindTransport, CodeConnectionFailed, "transport connection failed")
)

// Invalid builds a validation error with a caller-supplied message.
func Invalid(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Code: CodeInvalidRequest, Message: fmt.Sprintf(format, args...)}
}

// Transport wraps a low-level transport failure.
func Transport(msg string, err error) *Error {
	return &Error{Kind: KindTransport, Code: CodeConnectionFailed, Message: msg, Err: err}
}

// FromCode reconstructs the canonical error for a wire code. Unknown codes map
// to a transport-kind error so callers still get something errors.As-able.
func FromCode(code Code, msg string) *Error {
	for _, e := range []*Error{
		RoomFull, WrongPassword, RoomNotFound, PlayerNotFound, NotHost,
		InsufficientPlayers, NotAllReady, NotYourTurn, CardNotInHand, GameNotActive,
	} {
		if e.Code == code {
			if msg == "" {
				return e
			}
			return &Error{Kind: e.Kind, Code: e.Code, Message: msg}
		}
	}
	if msg == "" {
		msg = "request failed"
	}
	return &Error{Kind: KindTransport, Code: code, Message: msg}
}

// CodeOf extracts the wire code from any error, defaulting to CONNECTION_FAILED.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeConnectionFailed
}
