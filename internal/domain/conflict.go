package domain

import "fmt"

// ConflictKind says which declared bound a DateConflict is about.
type ConflictKind string

const (
	ConflictStart ConflictKind = "start"
	ConflictEnd   ConflictKind = "end"
)

// DateConflict describes a declared trip date that does not contain the
// trip's bookings. Declared is the trip's date; Booked is the booking bound it
// fails to cover.
type DateConflict struct {
	Kind     ConflictKind
	Declared Day
	Booked   Day
}

// Message is the advisory text shown to the traveller.
func (c DateConflict) Message() string {
	if c.Kind == ConflictStart {
		return fmt.Sprintf("trip start date %s is after the earliest booking start date %s", c.Declared, c.Booked)
	}
	return fmt.Sprintf("trip end date %s is before the latest booking end date %s", c.Declared, c.Booked)
}

func (c DateConflict) String() string { return c.Message() }

// CheckConflicts compares a declared date window with the range spanned by a
// trip's bookings. A nil booked range means the trip has no bookings and
// nothing can conflict. Nil declared bounds are not checked.
//
// At most one conflict is returned. The start bound is checked first, so a
// window that is wrong on both ends reports only the start conflict.
func CheckConflicts(booked *DateRange, declaredStart, declaredEnd *Day) *DateConflict {
	if booked == nil {
		return nil
	}
	if declaredStart != nil && *declaredStart > booked.Start {
		return &DateConflict{Kind: ConflictStart, Declared: *declaredStart, Booked: booked.Start}
	}
	if declaredEnd != nil && *declaredEnd < booked.End {
		return &DateConflict{Kind: ConflictEnd, Declared: *declaredEnd, Booked: booked.End}
	}
	return nil
}
