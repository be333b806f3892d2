package graph

import "errors"

var (
	ErrDatabaseNotFound   = errors.New("round-robin database not found")
	ErrDatabaseUnreadable = errors.New("round-robin database unreadable")
	ErrMissingChannel     = errors.New("round-robin database lacks channel")
	ErrRender             = errors.New("render failed")
	ErrImageSize          = errors.New("rendered image has unexpected size")
	ErrOutput             = errors.New("cannot write output image")
	ErrUnknownRenderer    = errors.New("unknown renderer")
	ErrNoData             = errors.New("no data in time window")
)
