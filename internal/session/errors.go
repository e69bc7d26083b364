package session

import "errors"

var (
	ErrOutOfRange         = errors.New("section, question or option out of range")
	ErrAnswerTypeMismatch = errors.New("answer does not match question type")
	ErrInteractionLocked  = errors.New("interaction locked while answers are being saved")
	ErrSaveInProgress     = errors.New("a save is already in progress")
	ErrSessionEnded       = errors.New("session has ended")
	ErrNoSaver            = errors.New("no answer saver configured")
)
