package service

import "errors"

// --- Error Definitions ---
var (
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrPlanNotFound      = errors.New("plan not found")
	ErrEntryNotFound     = errors.New("schedule entry not found")
	ErrEntryExists       = errors.New("schedule entry already exists")
	ErrApplyInProgress   = errors.New("another plan application is in progress for this user")
	ErrDependencyFailure = errors.New("dependency failure")
)
