package comms

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariefcatur/go-event-tickets/internal/tickets"
)

func strptr(s string) *string { return &s }

func TestFilterRecipientsEmail(t *testing.T) {
	var regs []tickets.Registrant
	// 7 registrants with usable addresses, 3 without.
	for i := 0; i < 7; i++ {
		regs = append(regs, tickets.Registrant{
			RegistrationID: fmt.Sprintf("reg-%d", i),
			Status:         tickets.RegApproved,
			User: tickets.User{
				ID:            fmt.Sprintf("user-%d", i),
				Email:         strptr(fmt.Sprintf("u%d@example.com", i)),
				EmailVerified: true,
			},
		})
	}
	regs = append(regs,
		tickets.Registrant{User: tickets.User{ID: "no-email"}},
		tickets.Registrant{User: tickets.User{ID: "unverified", Email: strptr("x@example.com")}},
		tickets.Registrant{User: tickets.User{ID: "virtual", Email: strptr("v@example.com"), EmailVerified: true, VirtualEmail: true}},
	)

	got := FilterRecipients(TypeEmail, regs)

	require.Len(t, got, 7)
	for i, r := range got {
		assert.Equal(t, fmt.Sprintf("user-%d", i), r.UserID)
		assert.Equal(t, fmt.Sprintf("u%d@example.com", i), r.Address)
	}
}

func TestFilterRecipientsSMS(t *testing.T) {
	regs := []tickets.Registrant{
		{User: tickets.User{ID: "ok", Phone: strptr("+15550001"), PhoneVerified: true}},
		{User: tickets.User{ID: "unverified", Phone: strptr("+15550002")}},
		{User: tickets.User{ID: "empty", Phone: strptr(""), PhoneVerified: true}},
		{User: tickets.User{ID: "none"}},
	}

	got := FilterRecipients(TypeSMS, regs)

	require.Len(t, got, 1)
	assert.Equal(t, "ok", got[0].UserID)
	assert.Equal(t, "+15550001", got[0].Address)
}

func TestFilterRecipientsEmpty(t *testing.T) {
	assert.Empty(t, FilterRecipients(TypeEmail, nil))
}
