package domain

import "errors"

var (
	// ErrAuthRequired means the token exchange or refresh was rejected and the
	// operator has to run the interactive authorization again
	ErrAuthRequired = errors.New("authorization required")

	// ErrNoProject means reply generation was requested without a project id
	ErrNoProject = errors.New("project id is required")

	// ErrTweetNotFound means the platform returned no data for a tweet lookup
	ErrTweetNotFound = errors.New("tweet not found")

	// ErrPostFailed means the platform did not confirm the reply creation
	ErrPostFailed = errors.New("posting reply failed")
)
