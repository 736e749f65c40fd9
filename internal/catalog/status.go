package catalog

import (
	"github.com/ariefcatur/go-tour-booking.git/internal/errx"
	"github.com/ariefcatur/go-tour-booking.git/internal/users"
)

type Status string

const (
	StatusDraft    Status = "draft"
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusArchived Status = "archived"
)

// Transisi legal; semua yang tidak tercantum ditolak.
var validNext = map[Status]map[Status]bool{
	StatusDraft:    {StatusPending: true},
	StatusPending:  {StatusApproved: true, StatusRejected: true},
	StatusApproved: {StatusArchived: true},
	StatusRejected: {StatusPending: true}, // resubmit setelah revisi
	StatusArchived: {},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

// Transition memvalidasi perpindahan status plus siapa yang boleh:
// approve/reject hanya admin; draft->pending hanya merchant pemilik;
// archive boleh pemilik atau admin.
func Transition(actor users.User, p Product, to Status) error {
	if !actor.CanAct() {
		return errx.E(errx.KindAuthorization, "account %s is not approved", actor.ID)
	}
	if !CanTransition(p.Status, to) {
		return errx.E(errx.KindStateTransition, "product %s: illegal transition %s -> %s", p.ID, p.Status, to)
	}

	owner := actor.Role == users.RoleMerchant && actor.ID == p.MerchantID
	admin := actor.Role == users.RoleAdmin

	switch to {
	case StatusApproved, StatusRejected:
		if !admin {
			return errx.E(errx.KindAuthorization, "only admin may review products")
		}
	case StatusPending:
		if !owner {
			return errx.E(errx.KindAuthorization, "only the owning merchant may submit product %s", p.ID)
		}
	case StatusArchived:
		if !owner && !admin {
			return errx.E(errx.KindAuthorization, "only the owning merchant or admin may archive product %s", p.ID)
		}
	}
	return nil
}
