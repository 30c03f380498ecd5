package event

type Type string

const (
	TypeLoginSucceeded  Type = "auth.login.succeeded"
	TypeLoginFailed     Type = "auth.login.failed"
	TypeLoginThrottled  Type = "auth.login.throttled"
	TypeTokenRefreshed  Type = "auth.token.refreshed"
	TypeRefreshRejected Type = "auth.refresh.rejected"
	TypeLogout          Type = "auth.logout"
	TypeUserCreated     Type = "user.created"
	TypeUserUpdated     Type = "user.updated"
	TypeUserDeleted     Type = "user.deleted"
	TypeNoteCreated     Type = "note.created"
	TypeNoteUpdated     Type = "note.updated"
	TypeNoteDeleted     Type = "note.deleted"
)

type Event struct {
	ID        string `json:"id"`
	Type      Type   `json:"type"`
	Payload   any    `json:"payload,omitempty"`
	Timestamp string `json:"timestamp"`
	ActorID   string `json:"actor_id,omitempty"`
}

type Bus interface {
	Publish(e Event)
	Subscribe() (<-chan Event, func())
}
