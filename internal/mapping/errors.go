package mapping

import "errors"

var (
	ErrInvalidRecord    = errors.New("invalid mapping record")
	ErrUnknownField     = errors.New("unknown mapping record field")
	ErrMappingFileRead  = errors.New("failed to read mapping file")
	ErrMappingFileWrite = errors.New("failed to write mapping file")
)
