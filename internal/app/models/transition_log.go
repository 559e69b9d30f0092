package models

import "time"

// TransitionLog is one entry of a turno's audit trail. FromStatus is empty for
// the creation entry.
type TransitionLog struct {
	TurnoID    string      `json:"turno_id" bson:"turno_id"`
	FromStatus TurnoStatus `json:"from_status,omitempty" bson:"from_status,omitempty"`
	ToStatus   TurnoStatus `json:"to_status" bson:"to_status"`
	ActorID    string      `json:"actor_id,omitempty" bson:"actor_id,omitempty"`
	Reason     string      `json:"reason,omitempty" bson:"reason,omitempty"`
	At         time.Time   `json:"at" bson:"at"`
}
