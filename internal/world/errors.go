package world

import "errors"

var (
	ErrBodyNotFound           = errors.New("world: body not found")
	ErrColliderNotFound       = errors.New("world: collider not found")
	ErrConstraintNotFound     = errors.New("world: constraint not found")
	ErrForceGeneratorNotFound = errors.New("world: force generator not found")
	ErrInvalidMargin          = errors.New("world: collider margin must not be negative")
	ErrGroundImmutable        = errors.New("world: ground body cannot be removed")
	ErrSelfConstraint         = errors.New("world: constraint must join two different bodies")
)
