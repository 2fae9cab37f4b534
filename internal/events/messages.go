package events

import (
	"encoding/json"
	"time"
)

// Action enumerates the mutations other internal tools can react to.
type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
)

// Entity partitions, matching the snapshot mirror's names.
const (
	EntityExpenses    = "expenses"
	EntityCommitments = "commitments"
	EntityPayments    = "payments"
)

// Mutation is the lightweight message published after a successful write
// against the remote API. It carries only the entity partition, the action
// and the server id; consumers refetch whatever they need from the API.
type Mutation struct {
	Entity    string    `json:"entity"`
	Action    Action    `json:"action"`
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

// NewMutation builds a message stamped with the current time.
func NewMutation(entity string, action Action, id int64) *Mutation {
	return &Mutation{
		Entity:    entity,
		Action:    action,
		ID:        id,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *Mutation) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// MutationFromJSON creates a message from JSON bytes
func MutationFromJSON(data []byte) (*Mutation, error) {
	var msg Mutation
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
