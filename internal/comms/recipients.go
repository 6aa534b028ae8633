package comms

import "github.com/ariefcatur/go-event-tickets/internal/tickets"

// Recipient is one registrant that passed the per-channel address filter.
type Recipient struct {
	UserID  string
	Address string
}

// FilterRecipients keeps registrants reachable over the given channel.
// EMAIL needs a present, non-virtual, verified address; SMS needs a verified
// phone number.
func FilterRecipients(typ Type, regs []tickets.Registrant) []Recipient {
	var out []Recipient
	for _, r := range regs {
		switch typ {
		case TypeEmail:
			if r.User.Email != nil && *r.User.Email != "" && !r.User.VirtualEmail && r.User.EmailVerified {
				out = append(out, Recipient{UserID: r.User.ID, Address: *r.User.Email})
			}
		case TypeSMS:
			if r.User.Phone != nil && *r.User.Phone != "" && r.User.PhoneVerified {
				out = append(out, Recipient{UserID: r.User.ID, Address: *r.User.Phone})
			}
		}
	}
	return out
}
