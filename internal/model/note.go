package model

import "time"

// FirstTicket is the ticket number assigned to the first note in an empty store.
const FirstTicket = 500

type Note struct {
	ID        string    `json:"id" bson:"_id"`
	User      string    `json:"user" bson:"user"`
	Title     string    `json:"title" bson:"title"`
	Text      string    `json:"text" bson:"text"`
	Completed bool      `json:"completed" bson:"completed"`
	Ticket    int64     `json:"ticket" bson:"ticket"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// NoteView is a note enriched with its owner's username.
type NoteView struct {
	Note
	Username string `json:"username"`
}
