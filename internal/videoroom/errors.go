package videoroom

import (
	"errors"
	"fmt"
)

// Caller errors. They are returned as-is or wrapped with detail, never retried.
var (
	ErrRoomNotFound        = errors.New("room not found")
	ErrMemberNotFound      = errors.New("member not found")
	ErrParticipantNotFound = errors.New("participant not found")
	ErrRoomFull            = errors.New("room is full")
	ErrInvalidCapacity     = errors.New("capacity is below current occupancy")
	ErrNegativeCounter     = errors.New("participant counter would become negative")
	ErrRoomNotReady        = errors.New("room is not accepting participants")
	ErrInvalidInput        = errors.New("invalid input")
)

// StoreError is an infrastructure failure from the store.
// The caller decides whether to retry.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func storeError(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StoreError
	if errors.As(err, &se) {
		return err
	}
	return &StoreError{Op: op, Err: err}
}

// Error codes returned by ErrorCode.
const (
	CodeOK                  = "OK"
	CodeRoomNotFound        = "ROOM_NOT_FOUND"
	CodeMemberNotFound      = "MEMBER_NOT_FOUND"
	CodeParticipantNotFound = "PARTICIPANT_NOT_FOUND"
	CodeRoomFull            = "ROOM_FULL"
	CodeInvalidCapacity     = "INVALID_CAPACITY"
	CodeNegativeCounter     = "NEGATIVE_COUNTER"
	CodeRoomNotReady        = "ROOM_NOT_READY"
	CodeInvalidInput        = "INVALID_INPUT"
	CodeStoreError          = "STORE_ERROR"
	CodeInternal            = "INTERNAL"
)

var errorCodes = []struct {
	err  error
	code string
}{
	{ErrRoomNotFound, CodeRoomNotFound},
	{ErrMemberNotFound, CodeMemberNotFound},
	{ErrParticipantNotFound, CodeParticipantNotFound},
	{ErrRoomFull, CodeRoomFull},
	{ErrInvalidCapacity, CodeInvalidCapacity},
	{ErrNegativeCounter, CodeNegativeCounter},
	{ErrRoomNotReady, CodeRoomNotReady},
	{ErrInvalidInput, CodeInvalidInput},
}

// ErrorCode maps err to its kind. A nil error is CodeOK.
func ErrorCode(err error) string {
	if err == nil {
		return CodeOK
	}
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			return ec.code
		}
	}
	var se *StoreError
	if errors.As(err, &se) {
		return CodeStoreError
	}
	return CodeInternal
}
