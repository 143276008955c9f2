package domain

import (
	"fmt"
	"slices"
	"strings"
)

// BloodGroup is one of the eight ABO/Rh groups.
type BloodGroup string

const (
	BloodAPos  BloodGroup = "A+"
	BloodANeg  BloodGroup = "A-"
	BloodBPos  BloodGroup = "B+"
	BloodBNeg  BloodGroup = "B-"
	BloodABPos BloodGroup = "AB+"
	BloodABNeg BloodGroup = "AB-"
	BloodOPos  BloodGroup = "O+"
	BloodONeg  BloodGroup = "O-"
)

var bloodGroups = []BloodGroup{
	BloodAPos, BloodANeg, BloodBPos, BloodBNeg,
	BloodABPos, BloodABNeg, BloodOPos, BloodONeg,
}

// donor group -> recipient groups that may receive it
var compatibility = map[BloodGroup][]BloodGroup{
	BloodAPos:  {BloodAPos, BloodABPos},
	BloodANeg:  {BloodAPos, BloodANeg, BloodABPos, BloodABNeg},
	BloodBPos:  {BloodBPos, BloodABPos},
	BloodBNeg:  {BloodBPos, BloodBNeg, BloodABPos, BloodABNeg},
	BloodABPos: {BloodABPos},
	BloodABNeg: {BloodABPos, BloodABNeg},
	BloodOPos:  {BloodAPos, BloodBPos, BloodABPos, BloodOPos},
	BloodONeg:  {BloodAPos, BloodANeg, BloodBPos, BloodBNeg, BloodABPos, BloodABNeg, BloodOPos, BloodONeg},
}

// AllBloodGroups returns the eight groups in a stable order.
func AllBloodGroups() []BloodGroup {
	return slices.Clone(bloodGroups)
}

func (g BloodGroup) Valid() bool {
	_, ok := compatibility[g]
	return ok
}

func (g BloodGroup) String() string { return string(g) }

// ParseBloodGroup accepts "a+", " AB- " and the "A " form produced when a
// literal plus sign reaches a query string unescaped.
func ParseBloodGroup(raw string) (BloodGroup, error) {
	s := strings.ToUpper(strings.TrimLeft(raw, " \t"))
	if strings.HasSuffix(s, " ") {
		trimmed := strings.TrimRight(s, " \t")
		if !strings.HasSuffix(trimmed, "+") && !strings.HasSuffix(trimmed, "-") {
			s = trimmed + "+"
		} else {
			s = trimmed
		}
	}
	g := BloodGroup(strings.TrimSpace(s))
	if !g.Valid() {
		return "", fmt.Errorf("%w: unknown blood group %q", ErrValidation, raw)
	}
	return g, nil
}

// CompatibleRecipients returns the groups that can receive blood from donor.
// An unknown group yields nil.
func CompatibleRecipients(donor BloodGroup) []BloodGroup {
	return slices.Clone(compatibility[donor])
}

// CompatibleDonors returns the groups whose blood a recipient can receive.
func CompatibleDonors(recipient BloodGroup) []BloodGroup {
	if !recipient.Valid() {
		return nil
	}
	out := make([]BloodGroup, 0, len(bloodGroups))
	for _, g := range bloodGroups {
		if CanDonateTo(g, recipient) {
			out = append(out, g)
		}
	}
	return out
}

func CanDonateTo(donor, recipient BloodGroup) bool {
	return slices.Contains(compatibility[donor], recipient)
}
