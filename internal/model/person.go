package model

// Person is a named party expenses can be attributed to. The self
// person suppresses loan creation; everyone else borrows.
type Person struct {
	ID   string
	Name string
	Self bool
}
