package domain

// Person is an identity snapshot captured at write time. Historical records
// keep the snapshot even when the underlying account changes later.
type Person struct {
	ID    string
	Name  string
	Email string
}

// IsZero reports whether no identity was captured.
func (p Person) IsZero() bool {
	return p.ID == "" && p.Email == ""
}

// Actor is the already-authenticated caller of an operation.
type Actor struct {
	ID             string
	Name           string
	Email          string
	OrganizationID string
}

// Person returns the snapshot recorded on events, comments and assignments.
func (a Actor) Person() Person {
	return Person{ID: a.ID, Name: a.Name, Email: a.Email}
}
