package utils

const (
	// NODETOL is the tolerance used when comparing design values for equality.
	NODETOL = 1.e-12
)
