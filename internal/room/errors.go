package room

import "errors"

// Error kinds surfaced to the offending connection only (§7). Each wraps a
// short message and carries a machine-readable Code for the ERROR event.
var (
	ErrRoomNotFound       = errors.New("room not found")
	ErrInvalidHost        = errors.New("host id does not match this room")
	ErrNotHost            = errors.New("only the host may do that")
	ErrNotInRoom          = errors.New("player is not in this room")
	ErrInvalidName        = errors.New("name must be 1-15 characters")
	ErrNameTaken          = errors.New("that name is already taken")
	ErrRoomFull           = errors.New("room is full")
	ErrGameInProgress     = errors.New("game is already in progress")
	ErrNotEnoughPlayers   = errors.New("not enough players to start")
	ErrPromptNotFound     = errors.New("prompt not found")
	ErrNotAssigned        = errors.New("player is not assigned to this prompt")
	ErrAlreadySubmitted   = errors.New("answer already submitted")
	ErrOwnMatchup         = errors.New("cannot vote on your own matchup")
	ErrAlreadyVoted       = errors.New("already voted")
	ErrInvalidVote        = errors.New("vote must be 1 or 2")
	ErrCannotVoteSelf     = errors.New("cannot vote for yourself")
	ErrInvalidTarget      = errors.New("no such finale answer")
)

// Code returns the machine-readable error code for the ERROR event payload.
func Code(err error) string {
	switch err {
	case ErrRoomNotFound:
		return "RoomNotFound"
	case ErrInvalidHost:
		return "InvalidHost"
	case ErrNotHost:
		return "NotHost"
	case ErrNotInRoom:
		return "NotInRoom"
	case ErrInvalidName:
		return "InvalidName"
	case ErrNameTaken:
		return "NameTaken"
	case ErrRoomFull:
		return "RoomFull"
	case ErrGameInProgress:
		return "GameInProgress"
	case ErrNotEnoughPlayers:
		return "NotEnoughPlayers"
	case ErrPromptNotFound:
		return "PromptNotFound"
	case ErrNotAssigned:
		return "NotAssigned"
	case ErrAlreadySubmitted:
		return "AlreadySubmitted"
	case ErrOwnMatchup:
		return "OwnMatchup"
	case ErrAlreadyVoted:
		return "AlreadyVoted"
	case ErrInvalidVote:
		return "InvalidVote"
	case ErrCannotVoteSelf:
		return "CannotVoteSelf"
	case ErrInvalidTarget:
		return "InvalidTarget"
	default:
		return ""
	}
}
