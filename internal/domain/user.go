package domain

// User is a directory entry for an authenticated identity. Accounts are
// managed by an external identity provider; gatherd only mirrors what it
// needs for ownership and membership references.
type User struct {
	ID          string `json:"id"`
	Handle      string `json:"handle"`
	DisplayName string `json:"displayName,omitempty"`
}
