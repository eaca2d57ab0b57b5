package domain

import "errors"

var (
	ErrClipNotFound = errors.New("clip not found")
	ErrVoteNotFound = errors.New("vote not found")
	ErrInvalidVote  = errors.New("vote value must be +1 or -1")
)
