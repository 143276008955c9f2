package validator

import (
	"time"

	"bloodconnect/internal/domain"
)

func validDate(s string) bool {
	_, err := time.Parse(domain.CampDateLayout, s)
	return err == nil
}

func validClock(s string) bool {
	_, err := time.Parse(domain.CampTimeLayout, s)
	return err == nil
}
