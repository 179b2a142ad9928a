// Package feed delivers change notifications for patients, tasks and users
// to websocket subscribers and to a kafka topic.
package feed

import (
	"context"
	"encoding/json"
	"time"
)

// Event types.
const (
	PatientCreated       = "patient.created"
	PatientStatusChanged = "patient.status_changed"
	TaskAssigned         = "task.assigned"
	TaskStatusChanged    = "task.status_changed"
	UserCreated          = "user.created"
	UserUpdated          = "user.updated"
	UserDeleted          = "user.deleted"
)

// Topic names. Per-record topics are built with the helpers below.
const (
	TopicPatients = "patients"
	TopicTasks    = "tasks"
	TopicUsers    = "users"
)

// PatientTopic is the topic for changes to one patient.
func PatientTopic(id string) string { return TopicPatients + "/" + id }

// PatientTasksTopic is the topic for tasks of one patient.
func PatientTasksTopic(patientID string) string { return TopicTasks + "/patient/" + patientID }

// AssigneeTasksTopic is the topic for tasks assigned to one user.
func AssigneeTasksTopic(userID string) string { return TopicTasks + "/assignee/" + userID }

// Event is one change notification. It is delivered once per subscriber even when
// the subscriber follows several of its topics.
type Event struct {
	Type         string          `json:"type"`
	Topics       []string        `json:"topics"`
	ResourceType string          `json:"resource_type"`
	ResourceID   string          `json:"resource_id,omitempty"`
	Timestamp    time.Time       `json:"timestamp"`
	Data         json.RawMessage `json:"data,omitempty"`
}

// NewEvent builds an event with the record encoded as data.
func NewEvent(eventType, resourceType, resourceID string, record interface{}, topics ...string) Event {
	data, _ := json.Marshal(record)
	return Event{
		Type:         eventType,
		Topics:       topics,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Timestamp:    time.Now().UTC(),
		Data:         data,
	}
}

// Publisher delivers events to subscribers.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Nop discards every event.
type Nop struct{}

// Publish does nothing.
func (Nop) Publish(context.Context, Event) error { return nil }
