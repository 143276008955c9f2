package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type campForm struct {
	Date  string `validate:"required,camp_date"`
	Time  string `validate:"required,camp_time"`
	Group string `validate:"omitempty,blood_group"`
}

func TestValidate(t *testing.T) {
	assert.Nil(t, Validate(campForm{Date: "2025-07-14", Time: "09:30", Group: "O+"}))
	assert.Nil(t, Validate(campForm{Date: "2025-07-14", Time: "23:59"}))

	errs := Validate(campForm{Date: "14/07/2025", Time: "9.30", Group: "Z"})
	assert.Equal(t, map[string]string{
		"Date":  "camp_date",
		"Time":  "camp_time",
		"Group": "blood_group",
	}, errs)
}
