package accountlink

import "errors"

var (
	// ErrCredentialsRequired is an exported constant or variable used by the linking engine.
	ErrCredentialsRequired = errors.New("institutional username and password required")
	// ErrAlreadyLinked is an exported constant or variable used by the linking engine.
	ErrAlreadyLinked = errors.New("account already linked; unlink first")
	// ErrLinkInProgress is an exported constant or variable used by the linking engine.
	ErrLinkInProgress = errors.New("linking already in progress")
	// ErrLoginRejected is an exported constant or variable used by the linking engine.
	ErrLoginRejected = errors.New("institutional login rejected")
	// ErrChallengeDenied is an exported constant or variable used by the linking engine.
	ErrChallengeDenied = errors.New("mfa challenge denied or timed out")
	// ErrSessionNotFound is an exported constant or variable used by the linking engine.
	ErrSessionNotFound = errors.New("linking session not found or expired")
	// ErrSessionOwnership is an exported constant or variable used by the linking engine.
	ErrSessionOwnership = errors.New("linking session belongs to a different user")
	// ErrNotLinked is an exported constant or variable used by the linking engine.
	ErrNotLinked = errors.New("account not linked")
	// ErrVaultIntegrity is an exported constant or variable used by the linking engine.
	ErrVaultIntegrity = errors.New("credential vault key fingerprint mismatch")
	// ErrVaultUnavailable is an exported constant or variable used by the linking engine.
	ErrVaultUnavailable = errors.New("credential vault backend unavailable")
	// ErrAutomationUnavailable is an exported constant or variable used by the linking engine.
	ErrAutomationUnavailable = errors.New("browser automation unavailable")
	// ErrUserNotFound is an exported constant or variable used by the linking engine.
	ErrUserNotFound = errors.New("user not found")
	// ErrTicketInvalid is an exported constant or variable used by the linking engine.
	ErrTicketInvalid = errors.New("invalid poll ticket")
	// ErrEngineNotReady is an exported constant or variable used by the linking engine.
	ErrEngineNotReady = errors.New("engine not initialized")
	// ErrEngineClosed is an exported constant or variable used by the linking engine.
	ErrEngineClosed = errors.New("engine closed")
)
