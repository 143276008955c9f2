package request

import (
	"fmt"

	"bloodconnect/internal/domain"
)

var ErrInvalidTransition = fmt.Errorf("%w: invalid status transition", domain.ErrValidation)
