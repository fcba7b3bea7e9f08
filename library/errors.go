package library

import "errors"

var (
	// account errors
	ErrDuplicateUsername = errors.New("username already taken")
	ErrPasswordMismatch  = errors.New("passwords do not match")
	ErrInvalidEmail      = errors.New("invalid email address")

	// ErrInvalidCredentials deliberately covers both unknown-username and
	// wrong-password so login failures never reveal whether an account exists.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// password recovery errors
	ErrNoEmailOnFile          = errors.New("no email address on file")
	ErrInvalidResetCode       = errors.New("invalid reset code")
	ErrExpiredResetCode       = errors.New("reset code has expired")
	ErrIncorrectAnswer        = errors.New("incorrect security answer")
	ErrNoSecurityQuestionsSet = errors.New("no security questions set")

	// catalog and circulation errors
	ErrNotFound          = errors.New("not found")
	ErrNoCopiesAvailable = errors.New("no copies available")
	ErrNothingToReturn   = errors.New("no outstanding copy to return")
	ErrInvalidRating     = errors.New("rating must be between 1 and 5")

	// session errors
	ErrNotLoggedIn   = errors.New("please log in first")
	ErrNotAuthorized = errors.New("admin privileges required")

	// persistence errors
	ErrBackupNotFound = errors.New("backup file not found")
)
