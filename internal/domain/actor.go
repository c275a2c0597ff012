package domain

// Actor is the authenticated user performing an action, as far as the
// ledger needs to know: who they are and the name recipients will see.
type Actor struct {
	UserID   string
	Name     string
	Locality string
}
