package domain

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sortGroups = cmpopts.SortSlices(func(a, b BloodGroup) bool { return a < b })

func TestCompatibleRecipients(t *testing.T) {
	tests := []struct {
		donor BloodGroup
		want  []BloodGroup
	}{
		{BloodONeg, AllBloodGroups()},
		{BloodOPos, []BloodGroup{BloodOPos, BloodAPos, BloodBPos, BloodABPos}},
		{BloodANeg, []BloodGroup{BloodANeg, BloodAPos, BloodABNeg, BloodABPos}},
		{BloodAPos, []BloodGroup{BloodAPos, BloodABPos}},
		{BloodBNeg, []BloodGroup{BloodBNeg, BloodBPos, BloodABNeg, BloodABPos}},
		{BloodBPos, []BloodGroup{BloodBPos, BloodABPos}},
		{BloodABNeg, []BloodGroup{BloodABNeg, BloodABPos}},
		{BloodABPos, []BloodGroup{BloodABPos}},
	}
	for _, tt := range tests {
		t.Run(string(tt.donor), func(t *testing.T) {
			if diff := cmp.Diff(tt.want, CompatibleRecipients(tt.donor), sortGroups); diff != "" {
				t.Errorf("recipients mismatch (-want +got):\n%s", diff)
			}
		})
	}

	assert.Nil(t, CompatibleRecipients("C+"))
}

func TestCompatibleRecipients_ReturnsCopy(t *testing.T) {
	got := CompatibleRecipients(BloodABPos)
	got[0] = BloodONeg
	assert.Equal(t, []BloodGroup{BloodABPos}, CompatibleRecipients(BloodABPos))
}

func TestCompatibleDonors(t *testing.T) {
	tests := []struct {
		recipient BloodGroup
		want      []BloodGroup
	}{
		{BloodABPos, AllBloodGroups()},
		{BloodONeg, []BloodGroup{BloodONeg}},
		{BloodAPos, []BloodGroup{BloodAPos, BloodANeg, BloodOPos, BloodONeg}},
		{BloodBNeg, []BloodGroup{BloodBNeg, BloodONeg}},
	}
	for _, tt := range tests {
		t.Run(string(tt.recipient), func(t *testing.T) {
			if diff := cmp.Diff(tt.want, CompatibleDonors(tt.recipient), sortGroups); diff != "" {
				t.Errorf("donors mismatch (-want +got):\n%s", diff)
			}
		})
	}

	assert.Nil(t, CompatibleDonors("XY"))
}

// every donor->recipient edge must appear in both directions
func TestCompatibility_IsSymmetricInverse(t *testing.T) {
	for _, d := range AllBloodGroups() {
		for _, r := range CompatibleRecipients(d) {
			assert.Contains(t, CompatibleDonors(r), d, "%s -> %s", d, r)
		}
	}
}

func TestParseBloodGroup(t *testing.T) {
	tests := []struct {
		in      string
		want    BloodGroup
		wantErr bool
	}{
		{"A+", BloodAPos, false},
		{"ab-", BloodABNeg, false},
		{"  o-  ", BloodONeg, false},
		{"B ", BloodBPos, false},
		{"AB ", BloodABPos, false},
		{"C+", "", true},
		{"", "", true},
		{"A", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseBloodGroup(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
