package domain

import (
	"fmt"
	"slices"
	"strings"
)

// BoardType identifies one independent pipeline board.
type BoardType string

// BoardSpeakers and related constants name the supported boards.
const (
	BoardSpeakers  BoardType = "speakers"
	BoardSponsors  BoardType = "sponsors"
	BoardCreatives BoardType = "creatives"
)

// BoardTypes returns every supported board in display order.
func BoardTypes() []BoardType {
	return []BoardType{BoardSpeakers, BoardSponsors, BoardCreatives}
}

// ParseBoardType normalizes raw input into a supported board type.
func ParseBoardType(raw string) (BoardType, error) {
	board := BoardType(strings.TrimSpace(strings.ToLower(raw)))
	if !slices.Contains(BoardTypes(), board) {
		return "", fmt.Errorf("%w: %q", ErrUnknownBoard, raw)
	}
	return board, nil
}

// StageID identifies one pipeline stage, e.g. "SCOUTED".
type StageID string

// NormalizeStageID canonicalizes user-provided stage identifiers.
func NormalizeStageID(raw string) StageID {
	return StageID(strings.ToUpper(strings.TrimSpace(raw)))
}

// Stage pairs a stage identifier with its display label.
type Stage struct {
	ID    StageID
	Label string
}

// StageSet is the immutable ordered stage configuration for one board.
type StageSet struct {
	board        BoardType
	stages       []Stage
	initial      StageID
	contactGuard bool
}

// NewStageSet validates and constructs a stage set.
func NewStageSet(board BoardType, stages []Stage, initial StageID, contactGuard bool) (StageSet, error) {
	if len(stages) == 0 {
		return StageSet{}, fmt.Errorf("%w: no stages", ErrInvalidStageSet)
	}
	out := make([]Stage, 0, len(stages))
	seen := map[StageID]struct{}{}
	for idx, stage := range stages {
		stage.ID = NormalizeStageID(string(stage.ID))
		stage.Label = strings.TrimSpace(stage.Label)
		if stage.ID == "" {
			return StageSet{}, fmt.Errorf("%w: stage %d has no id", ErrInvalidStageSet, idx)
		}
		if _, ok := seen[stage.ID]; ok {
			return StageSet{}, fmt.Errorf("%w: duplicate stage %s", ErrInvalidStageSet, stage.ID)
		}
		if stage.Label == "" {
			stage.Label = string(stage.ID)
		}
		seen[stage.ID] = struct{}{}
		out = append(out, stage)
	}
	initial = NormalizeStageID(string(initial))
	if _, ok := seen[initial]; !ok {
		return StageSet{}, fmt.Errorf("%w: initial stage %q not declared", ErrInvalidStageSet, initial)
	}
	return StageSet{
		board:        board,
		stages:       out,
		initial:      initial,
		contactGuard: contactGuard,
	}, nil
}

// DefaultStageSet returns the built-in pipeline for a board type.
func DefaultStageSet(board BoardType) (StageSet, error) {
	switch board {
	case BoardSpeakers:
		return NewStageSet(board, []Stage{
			{ID: "SCOUTED", Label: "Scouted"},
			{ID: "EMAIL_ADDED", Label: "Email Added"},
			{ID: "RESEARCHED", Label: "Researched"},
			{ID: "DRAFTED", Label: "Drafted"},
			{ID: "CONTACT_INITIATED", Label: "Contact Initiated"},
			{ID: "CONNECTED", Label: "Connected"},
			{ID: "IN_TALKS", Label: "In Talks"},
			{ID: "LOCKED", Label: "Confirmed"},
		}, "SCOUTED", true)
	case BoardSponsors:
		return NewStageSet(board, []Stage{
			{ID: "PROSPECT", Label: "Prospect"},
			{ID: "CONTACTED", Label: "Contacted"},
			{ID: "PITCHED", Label: "Pitched"},
			{ID: "NEGOTIATING", Label: "Negotiating"},
			{ID: "SIGNED", Label: "Signed"},
			{ID: "ONBOARDED", Label: "Onboarded"},
		}, "PROSPECT", true)
	case BoardCreatives:
		// Creative assets carry no contact channels.
		return NewStageSet(board, []Stage{
			{ID: "CONCEPT", Label: "Concept"},
			{ID: "SCRIPTING", Label: "Scripting"},
			{ID: "PRODUCTION", Label: "Production"},
			{ID: "EDITING", Label: "Editing"},
			{ID: "REVIEW", Label: "Review"},
			{ID: "APPROVED", Label: "Approved"},
		}, "CONCEPT", false)
	default:
		return StageSet{}, fmt.Errorf("%w: %q", ErrUnknownBoard, board)
	}
}

// Board returns the board type this stage set belongs to.
func (s StageSet) Board() BoardType {
	return s.board
}

// Stages returns a copy of the ordered stages.
func (s StageSet) Stages() []Stage {
	return slices.Clone(s.stages)
}

// Initial returns the designated initial stage.
func (s StageSet) Initial() StageID {
	return s.initial
}

// ContactGuard reports whether leaving the initial stage requires a contact channel.
func (s StageSet) ContactGuard() bool {
	return s.contactGuard
}

// Contains reports whether id is a declared stage.
func (s StageSet) Contains(id StageID) bool {
	return s.Index(id) >= 0
}

// Index returns the display position of id, or -1 when undeclared.
func (s StageSet) Index(id StageID) int {
	for idx, stage := range s.stages {
		if stage.ID == id {
			return idx
		}
	}
	return -1
}

// Label returns the display label for id, falling back to the raw id.
func (s StageSet) Label(id StageID) string {
	if idx := s.Index(id); idx >= 0 {
		return s.stages[idx].Label
	}
	return string(id)
}
