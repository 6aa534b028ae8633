package tickets

import (
	"encoding/json"
	"time"
)

type Event struct {
	ID              string
	Title           string
	StartTime       time.Time
	EndTime         time.Time
	RequireApproval bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type TicketType struct {
	ID             string
	EventID        string
	Name           string
	BasePriceCents int
	TotalQuantity  int
	// CurrentQuantity counts seats held by orders in {PENDING, PAID}.
	// Never negative; adjusted only with guarded atomic updates.
	CurrentQuantity int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// PriceTier prices an exact purchase quantity as a bundle.
type PriceTier struct {
	ID           string
	TicketTypeID string
	Quantity     int
	PriceCents   int
}

type Order struct {
	ID            string
	OrderNo       string
	EventID       string
	UserID        string
	TicketTypeID  string
	Quantity      int
	UnitCents     int
	TotalCents    int
	Status        OrderStatus
	ExpiresAt     time.Time
	TransactionID *string
	RefundID      *string
	PaidAt        *time.Time
	RefundedAt    *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type Invite struct {
	ID         string
	OrderID    string
	Code       string
	Status     InviteStatus
	RedeemedBy *string
	RedeemedAt *time.Time
	CreatedAt  time.Time
}

// InviteView is the list projection, joined with the redeemer's identity.
type InviteView struct {
	Invite
	RedeemerName  *string
	RedeemerEmail *string
}

type Registration struct {
	ID            string
	EventID       string
	UserID        string
	Status        RegStatus
	TicketTypeID  string
	OrderID       *string
	OrderInviteID *string
	Answers       json.RawMessage
	CheckedInAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (r *Registration) CheckedIn() bool { return r.CheckedInAt != nil }

// User carries the contact fields the recipient filters need.
type User struct {
	ID            string
	Name          string
	Email         *string
	EmailVerified bool
	VirtualEmail  bool
	Phone         *string
	PhoneVerified bool
}
