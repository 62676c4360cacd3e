package event

type Type string

const (
	TypeTrashCreated      Type = "trash.created"
	TypeTrashRestored     Type = "trash.restored"
	TypeDeletionCompleted Type = "deletion.completed"
	TypeDeletionRetried   Type = "deletion.retried"
	TypeDeletionFailed    Type = "deletion.failed"
)

type Event struct {
	ID        string      `json:"id"`
	Type      Type        `json:"type"`
	Payload   interface{} `json:"payload"`
	Timestamp string      `json:"timestamp"`
	ActorID   string      `json:"actor_id,omitempty"` // Who triggered the event
}

type Bus interface {
	Publish(e Event)
	Subscribe() (<-chan Event, func()) // Returns channel and unsubscribe function
}
