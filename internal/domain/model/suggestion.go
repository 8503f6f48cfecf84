package model

// Suggestion is a recommended book.
type Suggestion struct {
	Title  string `json:"title"`
	Author string `json:"author"`
}
