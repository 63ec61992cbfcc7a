package entities

import "time"

const AccountStatusActive = "active"

// BuyerAccount is the commerce-side projection of a registered identity. It
// is created asynchronously from the registration event, never on a request
// path.
type BuyerAccount struct {
	UserID    int64
	Username  string
	Email     string
	Status    string
	CreatedAt time.Time
}
