package domain

import (
	"errors"
	"fmt"
)

var (
	ErrValidation          = errors.New("validation failed")
	ErrInvalidName         = fmt.Errorf("%w: name is required", ErrValidation)
	ErrInvalidClothesCount = fmt.Errorf("%w: clothes count must be at least 1", ErrValidation)
)
