package speech

import "errors"

// Error definitions for the speech package.
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrBufferFull      = errors.New("session audio buffer is full")
	ErrInvalidFrame    = errors.New("audio frame length is not a multiple of 4")
	ErrTTSUnavailable  = errors.New("tts model not loaded")
)
