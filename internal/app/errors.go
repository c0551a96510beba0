package service

import "errors"

// Sentinel kinds for run errors.
var (
	ErrSameFile  = errors.New("output would overwrite input")
	ErrRunFailed = errors.New("smearing run failed")
)
