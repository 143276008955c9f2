package auth

import (
	"fmt"

	"bloodconnect/internal/domain"
)

var (
	ErrInvalidCredentials = fmt.Errorf("%w: invalid email or password", domain.ErrUnauthorized)
	ErrEmailTaken         = fmt.Errorf("%w: email is already registered", domain.ErrConflict)
	ErrAccountSuspended   = fmt.Errorf("%w: account is suspended", domain.ErrForbidden)
)
