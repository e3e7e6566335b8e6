package domain

import "errors"

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrInvalidAction    = errors.New("invalid notification action")
	ErrEmptyField       = errors.New("required field is empty")
	ErrConnectionClosed = errors.New("connection closed")
	ErrSendBufferFull   = errors.New("send buffer full")
)
