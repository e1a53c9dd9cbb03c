package roster

import "errors"

// Sentinel errors returned by the registry and engine. All of them are
// recoverable caller mistakes; the HTTP layer maps them to status codes.
var (
	ErrTeamNotFound          = errors.New("team not found")
	ErrAlreadyInAnyTeam      = errors.New("user is already in a team")
	ErrAlreadyInThisTeam     = errors.New("user is already in this team")
	ErrNotAMember            = errors.New("user is not a member of this team")
	ErrNotLeader             = errors.New("only the team leader may do this")
	ErrTeamFull              = errors.New("team and reserve are full")
	ErrIDGenerationExhausted = errors.New("could not generate a unique team id")
)
