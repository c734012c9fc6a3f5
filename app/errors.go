package app

import "errors"

// Failure classes for building the feed. Every one of them is fatal to the
// request: callers match them with errors.Is and never emit a partial feed.
var (
	ErrUpstream  = errors.New("upstream unavailable")
	ErrDecode    = errors.New("cannot decode upstream payload")
	ErrDateParse = errors.New("invalid match date")
	ErrSchema    = errors.New("unexpected schedule schema")
)
