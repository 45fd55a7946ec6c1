// Package library is the canonical constraint set (C5): ACGME regulatory
// rules, rotation-specific rules (Wednesday lecture/continuity, night
// float), supervision ratios, and the specialty/PGY eligibility gate. Each
// type implements constraint.HardConstraint or constraint.SoftConstraint.
package library

import (
	"time"

	"github.com/google/uuid"

	"github.com/aapm/scce/internal/entity"
	"github.com/aapm/scce/internal/logging"
	"github.com/aapm/scce/internal/schedcontext"
)

// Weekday of Wednesday, named for readability at call sites that already
// import time.
const wednesday = time.Wednesday

// LECExempt lists rotation abbreviations exempt from the Wednesday-PM
// lecture requirement.
var LECExempt = map[string]bool{
	"NF": true, "NF-PM": true, "NF-ENDO": true, "NEURO-NF": true,
	"PNF": true, "LDNF": true, "KAPI-LD": true, "HILO": true, "TDY": true,
}

// NightFloatRotations lists rotation abbreviations that are night-float
// variants subject to the fixed AM pattern mapping.
var NightFloatRotations = map[string]bool{
	"NF": true, "NF-PM": true, "NF-ENDO": true, "NEURO-NF": true, "PNF": true,
	"LDNF": true, "KAPI-LD": true,
}

// NightFloatAMPattern maps a PM night-float rotation abbreviation to the
// required same-day AM template abbreviation.
var NightFloatAMPattern = map[string]string{
	"NF":       "OFF-AM",
	"NF-PM":    "OFF-AM",
	"NF-ENDO":  "OFF-AM",
	"NEURO-NF": "NEURO",
	"PNF":      "OFF-AM",
	"LDNF":     "L&D",
	"KAPI-LD":  "KAP",
}

// ContinuityAbbreviations are the acceptable abbreviations for PGY-1
// Wednesday-AM continuity clinic.
var ContinuityAbbreviations = map[string]bool{
	"C": true, "CONT": true, "CONTINUITY": true,
}

// isWednesday reports whether d falls on a Wednesday.
func isWednesday(d time.Time) bool {
	return d.Weekday() == wednesday
}

// HoursPerHalfDay is the ACGME accounting unit: a standard half-day
// assignment counts as 4 hours toward the 80-hour rolling week.
const HoursPerHalfDay = 4.0

// callHours maps a call type to its duty-hour contribution; a 24-hour call
// counts in full, shorter call variants prorate.
var callHours = map[entity.CallType]float64{
	entity.CallLD24Hr:     24.0,
	entity.CallNFCoverage: 12.0,
	entity.CallWeekend:    12.0,
}

// AssignmentHours returns the duty-hour contribution of one assignment; a
// call assignment (isCallRotation with a known callType) uses callHours,
// everything else counts as one half-day. rotationAbbreviation is not
// consulted.
func AssignmentHours(rotationAbbreviation string, isCallRotation bool, callType *entity.CallType) float64 {
	if isCallRotation && callType != nil {
		if h, ok := callHours[*callType]; ok {
			return h
		}
	}
	return HoursPerHalfDay
}

// personRef resolves personID to the spec.md §6 anonymised Violation.AffectedRef
// form ("RES-001", "FAC-PD") via logging.PersonRef, looking up the person's
// Kind from ctx so every constraint in this package reports the same ref
// format instead of each rolling its own.
func personRef(ctx *schedcontext.Context, personID uuid.UUID) string {
	var kind entity.PersonKind
	if idx, ok := ctx.PersonIdx[personID]; ok {
		kind = ctx.Persons[idx].Kind
	}
	return logging.PersonRef(string(kind), personID)
}
