package service

import (
	"errors"
)

// Ошибки сервиса
var (
	ErrLinkNotFound       = errors.New("short url not found")
	ErrCodeExhausted      = errors.New("could not allocate a unique short code")
	ErrEmptyCodes         = errors.New("must send a list of codes")
	ErrTooManyCodes       = errors.New("too many codes in one request")
	ErrInvalidDestination = errors.New("url must be valid UTF-8 without NUL characters")
)
