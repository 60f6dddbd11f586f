package accountlink

import (
	"context"
	"time"
)

// LinkStatus represents the lifecycle state of a user's institutional link.
//
// A user has exactly one status at a time; transitions are monotonic within
// one linking attempt (NotLinked -> Linking -> {Linked|Error}) and only the
// Engine writes them, through [UserProvider.UpdateLinkStatus].
type LinkStatus uint8

const (
	// LinkNotLinked is an exported constant or variable used by the linking engine.
	LinkNotLinked LinkStatus = iota
	// LinkLinking is an exported constant or variable used by the linking engine.
	LinkLinking
	// LinkLinked is an exported constant or variable used by the linking engine.
	LinkLinked
	// LinkError is an exported constant or variable used by the linking engine.
	LinkError
	// LinkExpired is an exported constant or variable used by the linking engine.
	LinkExpired
)

// String returns the wire name of the status.
func (s LinkStatus) String() string {
	switch s {
	case LinkNotLinked:
		return "not_linked"
	case LinkLinking:
		return "linking"
	case LinkLinked:
		return "linked"
	case LinkError:
		return "error"
	case LinkExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// UserRecord is the user projection returned by [UserProvider]. It carries
// the link status and the link metadata the status endpoint exposes.
type UserRecord struct {
	UserID      string
	Email       string
	LinkStatus  LinkStatus
	LinkedEmail string
	LinkedAt    time.Time
	LastSync    time.Time
}

// LinkStatusUpdate is the mutation applied through
// [UserProvider.UpdateLinkStatus]. Nil pointer fields are left untouched.
type LinkStatusUpdate struct {
	Status      LinkStatus
	LinkedEmail *string
	LinkedAt    *time.Time
	LastSync    *time.Time
}

// UserProvider is the interface callers must implement to integrate
// accountlink with their user database. UpdateLinkStatus is the only status
// mutator in the system; no other component may write [LinkStatus].
type UserProvider interface {
	GetUserByID(userID string) (UserRecord, error)
	UpdateLinkStatus(ctx context.Context, userID string, update LinkStatusUpdate) error
}

// InitiateResult is returned by [Engine.Initiate]. Exactly one of Linked or
// ChallengeRequired is set; on a challenge the caller must poll
// [Engine.CheckApproval] with SessionID (or PollTicket when ticket signing is
// enabled) until a terminal outcome.
type InitiateResult struct {
	Linked bool

	ChallengeRequired bool
	SessionID         string
	MatchCode         string
	PollTicket        string
}

// ApprovalState enumerates the outcomes of one [Engine.CheckApproval] poll.
type ApprovalState uint8

const (
	// ApprovalLinked is an exported constant or variable used by the linking engine.
	ApprovalLinked ApprovalState = iota
	// ApprovalWaiting is an exported constant or variable used by the linking engine.
	ApprovalWaiting
	// ApprovalDenied is an exported constant or variable used by the linking engine.
	ApprovalDenied
	// ApprovalRequiresRestart is an exported constant or variable used by the linking engine.
	ApprovalRequiresRestart
)

// String returns the wire name of the approval state.
func (s ApprovalState) String() string {
	switch s {
	case ApprovalLinked:
		return "linked"
	case ApprovalWaiting:
		return "waiting"
	case ApprovalDenied:
		return "denied"
	case ApprovalRequiresRestart:
		return "requires_restart"
	default:
		return "unknown"
	}
}

// ApprovalStatus is returned by [Engine.CheckApproval]. Within one session
// the observed state advances monotonically: Waiting* -> {Linked|Denied}
// exactly once, then RequiresRestart once the session has been evicted.
type ApprovalStatus struct {
	State  ApprovalState
	Reason string
}

// LinkStatusResult is the read-only projection returned by [Engine.Status],
// combining the user's link status with vault presence.
type LinkStatusResult struct {
	Status         LinkStatus
	HasCredentials bool
	LinkedEmail    string
	LinkedAt       time.Time
	LastSync       time.Time
}

// UnlinkResult is returned by [Engine.Unlink].
type UnlinkResult struct {
	UnlinkedAt time.Time
	// Removed reports whether a vault record existed and was deleted; a
	// second Unlink in a row succeeds with Removed=false.
	Removed bool
}
