package game

import (
	"errors"
	"fmt"
)

// The backend answers failures with {"name": ..., "message": ...}. Three
// kinds matter to callers: transport problems worth retrying, authorization
// failures that kill the session, and game rules that simply forbid the
// action until the next cycle.

type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

type AuthError struct {
	Status  int
	Name    string
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth error (%d): %s - %s", e.Status, e.Name, e.Message)
}

type GameLogicError struct {
	Status  int
	Name    string
	Message string
}

func (e *GameLogicError) Error() string {
	return fmt.Sprintf("game error (%d): %s - %s", e.Status, e.Name, e.Message)
}

// MaintenanceError maps the backend's 418 maintenance answer. Not retried by
// the client; the runner waits it out.
type MaintenanceError struct {
	Message string
}

func (e *MaintenanceError) Error() string {
	return fmt.Sprintf("server maintenance: %s", e.Message)
}

func IsNetwork(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

func IsAuth(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}

func IsGameLogic(err error) bool {
	var ge *GameLogicError
	return errors.As(err, &ge)
}

func IsMaintenance(err error) bool {
	var me *MaintenanceError
	return errors.As(err, &me)
}

// silentCodes are game errors that are part of normal operation (hero on
// cooldown, not enough resources and so on); callers log them at debug only.
var silentCodes = []string{
	"error_level_up_unavalable",
	"error_level_up_no_resources",
	"error_level_up_max_level",
	"error_star_up_no_resources",
	"error_star_up_card_on_challenge",
	"error_challenge_in_progress",
	"error_redeem_limit_reached",
}

// IsSilent reports whether the error is a routine game refusal.
func IsSilent(err error) bool {
	var ge *GameLogicError
	if !errors.As(err, &ge) {
		return false
	}
	for _, code := range silentCodes {
		if ge.Name == code || ge.Message == code {
			return true
		}
	}
	return false
}
