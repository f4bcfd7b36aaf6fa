package entity

import "time"

// CancellationState is a step of the cancellation confirmation protocol
type CancellationState string

const (
	CancellationIdle                 CancellationState = "Idle"
	CancellationStatusChecked        CancellationState = "StatusChecked"
	CancellationAwaitingConfirmation CancellationState = "AwaitingConfirmation"
	CancellationCancelled            CancellationState = "Cancelled"
	CancellationAlreadyCancelled     CancellationState = "AlreadyCancelled"
	CancellationAbandoned            CancellationState = "Abandoned"
)

// PendingCancellation tracks a cancellation between the status check and the user's answer
type PendingCancellation struct {
	PNR        string            `json:"pnr" bson:"pnr"`
	State      CancellationState `json:"state" bson:"state"`
	Snapshot   Reservation       `json:"snapshot" bson:"snapshot"`
	PolicyText string            `json:"policy_text" bson:"policyText"`
	CreatedAt  time.Time         `json:"created_at" bson:"createdAt"`
}

// Expired reports whether the user took longer than ttl to answer
func (p *PendingCancellation) Expired(now time.Time, ttl time.Duration) bool {
	if ttl <= 0 {
		return false
	}
	return now.Sub(p.CreatedAt) > ttl
}

// Terminal reports whether the state ends the protocol
func (s CancellationState) Terminal() bool {
	switch s {
	case CancellationCancelled, CancellationAlreadyCancelled, CancellationAbandoned:
		return true
	}
	return false
}
