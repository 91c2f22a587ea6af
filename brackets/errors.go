package brackets

import "errors"

// Guard failures returned by the generator and the engine. Callers are
// expected to distinguish "nothing to do" from "data conflict requiring
// correction", so each guard has its own sentinel.
var (
	ErrInvalidParticipantCount   = errors.New("at least 2 participants are required for a bracket")
	ErrInvalidScore              = errors.New("scores must be non-negative integers")
	ErrAmbiguousResult           = errors.New("tied scores are not supported in single elimination")
	ErrMatchAlreadyResolved      = errors.New("match result is already resolved")
	ErrMatchNotScorable          = errors.New("match is not in a scorable state")
	ErrMatchNotResolved          = errors.New("match result is not resolved yet")
	ErrDownstreamAlreadyResolved = errors.New("a downstream match is already resolved; cancel it before correcting")
	ErrParticipantNotActive      = errors.New("participant has no undecided match in the bracket")
	ErrMatchNotInBracket         = errors.New("match does not belong to this bracket")
	ErrCorruptBracket            = errors.New("bracket structure is corrupt")
)
