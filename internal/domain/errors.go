package domain

import "errors"

var (
	ErrInvalidID         = errors.New("invalid id")
	ErrInvalidName       = errors.New("invalid name")
	ErrInvalidStage      = errors.New("invalid stage")
	ErrInvalidStageSet   = errors.New("invalid stage set")
	ErrUnknownBoard      = errors.New("unknown board type")
	ErrTransitionBlocked = errors.New("transition blocked")
	ErrEmptyPatch        = errors.New("empty patch")
	ErrInvalidPatch      = errors.New("invalid patch")
)
