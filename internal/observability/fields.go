package observability

import "go.uber.org/zap"

// Field helpers so callers do not import zap directly.
//
//nolint:gochecknoglobals // function aliases
var (
	String   = zap.String
	Strings  = zap.Strings
	Int      = zap.Int
	Int64    = zap.Int64
	Float64  = zap.Float64
	Bool     = zap.Bool
	Error    = zap.Error
	Any      = zap.Any
	Duration = zap.Duration
)
