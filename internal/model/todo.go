package model

import "time"

// Todo is a task item owned by exactly one user.
//
// Every read and mutation is filtered by (id, user_id) — a todo is invisible
// to everyone but its owner, with no admin exception.
//
// Description is a pointer because null is a real value here: "no description"
// is stored as NULL and rendered as JSON null, not as an empty string.
type Todo struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// TodoPatch carries a partial update for a todo.
//
// MERGE SEMANTICS:
// A nil field means "leave unchanged". For Description we additionally need to
// distinguish "set to null" from "leave unchanged" — JSON null and an absent
// key are different updates — so it carries its own presence flag:
//
//	{"completed": true}        → Title nil, Description unset, Completed set
//	{"description": null}      → DescriptionSet true, Description nil → clears it
//	{"description": "milk"}    → DescriptionSet true, Description non-nil
type TodoPatch struct {
	Title          *string
	Description    *string
	DescriptionSet bool
	Completed      *bool
}

// Empty reports whether the patch changes nothing.
func (p TodoPatch) Empty() bool {
	return p.Title == nil && !p.DescriptionSet && p.Completed == nil
}
