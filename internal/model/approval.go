package model

import (
	"fmt"
	"strings"
)

// Gate identifies one of the three approval checkpoints every request passes
// through. Gates transition independently — no ordering is enforced between
// them.
type Gate string

const (
	GateImmediateHead      Gate = "immediate_head"
	GateGSODirector        Gate = "gso_director"
	GateOperationsDirector Gate = "operations_director"
)

// Gates lists the checkpoints in the order the paper form presents them.
var Gates = []Gate{GateImmediateHead, GateGSODirector, GateOperationsDirector}

// Column returns the gate's database column name.
func (g Gate) Column() string {
	return string(g) + "_approval"
}

// Role returns the approver role allowed to flip this gate.
func (g Gate) Role() string {
	return string(g)
}

// GateValue is the canonical value of an approval gate.
type GateValue string

const (
	GatePending  GateValue = "Pending"
	GateApproved GateValue = "Approved"
	GateRejected GateValue = "Rejected"
)

// ParseGateValue canonicalizes an approval flag. Historical records spell the
// values inconsistently (lowercase on venue requests, "Denied" on vehicle
// requests), so those forms are accepted and folded into the canonical set.
// Anything else is rejected instead of being silently persisted.
func ParseGateValue(s string) (GateValue, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pending":
		return GatePending, nil
	case "approved":
		return GateApproved, nil
	case "rejected", "denied":
		return GateRejected, nil
	default:
		return "", fmt.Errorf("invalid approval value %q: must be one of Pending, Approved, Rejected", s)
	}
}

// OverallApproval derives the single approval view the tracking boards show:
// Rejected as soon as any gate rejects, Approved once all three approve,
// Pending otherwise.
func OverallApproval(immediateHead, gsoDirector, operationsDirector GateValue) GateValue {
	gates := []GateValue{immediateHead, gsoDirector, operationsDirector}
	approved := 0
	for _, g := range gates {
		switch g {
		case GateRejected:
			return GateRejected
		case GateApproved:
			approved++
		}
	}
	if approved == len(gates) {
		return GateApproved
	}
	return GatePending
}
