package domain

import "errors"

var (
	// ErrUnauthorized is returned when the email is not on the allow-list or
	// the anti-forgery proof on a vote is missing or invalid.
	ErrUnauthorized = errors.New("not authorized to participate")
	// ErrQuestionNotFound indicates the referenced question does not exist or
	// is inactive.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrInvalidSession is returned when a session token is absent, expired,
	// or fails the store/payload cross-check.
	ErrInvalidSession = errors.New("invalid session token")
	// ErrAlreadyCompleted is returned for submissions after a correct answer,
	// outside the duplicate-submission window.
	ErrAlreadyCompleted = errors.New("question already completed")
	// ErrAttemptsExhausted is returned once the attempt limit is reached
	// without a correct answer.
	ErrAttemptsExhausted = errors.New("no attempts remaining")
)
