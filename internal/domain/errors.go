package domain

import "errors"

var (
	// ErrConfig marks invalid user input: month outside 1-12, bad limit or
	// scale, missing input files. Fatal, never retried.
	ErrConfig = errors.New("configuration error")

	// ErrDataIntegrity marks input data that cannot be processed safely, such
	// as duplicate municipality codes or empty geometries.
	ErrDataIntegrity = errors.New("data integrity error")

	// ErrMissingCRS marks a layer without a coordinate reference system.
	// Errors carrying it also match ErrDataIntegrity.
	ErrMissingCRS = errors.New("missing coordinate reference system")
)
