package model

import "strings"

// Todo is the domain model for a todo entry.
// The ID is assigned by the server and never changes once created.
type Todo struct {
	ID      int64  `json:"id"`
	Content string `json:"content"`
}

// Blank reports whether content is empty once surrounding whitespace is removed.
func Blank(content string) bool {
	return strings.TrimSpace(content) == ""
}

// IndexOf returns the position of the todo with the given id, or -1.
func IndexOf(todos []Todo, id int64) int {
	for i, t := range todos {
		if t.ID == id {
			return i
		}
	}
	return -1
}
