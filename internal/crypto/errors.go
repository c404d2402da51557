package crypto

import "errors"

var (
	ErrNonFiniteNumber = errors.New("NaN and infinite numbers cannot be canonicalized")
	ErrNonStringMapKey = errors.New("map keys must be strings")
	ErrUnsupportedType = errors.New("unsupported type for canonicalization")
	ErrKeyCollision    = errors.New("normalized map key collision")
)
