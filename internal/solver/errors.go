package solver

import "errors"

var ErrInvalidParams = errors.New("solver: invalid integration parameters")
