package orders

import "github.com/ariefcatur/go-tour-booking.git/internal/errx"

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusRejected  Status = "rejected"
	StatusArchived  Status = "archived"
	StatusReturned  Status = "returned"
)

var validNext = map[Status]map[Status]bool{
	StatusPending:   {StatusConfirmed: true, StatusRejected: true},
	StatusConfirmed: {StatusArchived: true, StatusReturned: true},
	StatusRejected:  {StatusArchived: true},
	StatusReturned:  {},
	StatusArchived:  {},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

// ReleasesStock: rejected & returned mengembalikan stok yang di-reserve saat
// order dibuat; confirmed tidak menyentuh stok.
func ReleasesStock(to Status) bool {
	return to == StatusRejected || to == StatusReturned
}

func CheckTransition(from, to Status) error {
	if !CanTransition(from, to) {
		return errx.E(errx.KindStateTransition, "illegal order transition %s -> %s", from, to)
	}
	return nil
}

// PaymentStatus adalah sumbu terpisah dari Status dan tidak pernah
// menggerakkan stok.
type PaymentStatus string

const (
	PayUnpaid    PaymentStatus = "unpaid"
	PayPaid      PaymentStatus = "paid"
	PayConfirmed PaymentStatus = "confirmed"
	PayRefunded  PaymentStatus = "refunded"
)

var validPayNext = map[PaymentStatus]map[PaymentStatus]bool{
	PayUnpaid:    {PayPaid: true, PayRefunded: true},
	PayPaid:      {PayConfirmed: true, PayRefunded: true},
	PayConfirmed: {PayRefunded: true},
	PayRefunded:  {},
}

func CanTransitionPayment(from, to PaymentStatus) bool {
	return validPayNext[from][to]
}

func CheckPaymentTransition(from, to PaymentStatus) error {
	if !CanTransitionPayment(from, to) {
		return errx.E(errx.KindStateTransition, "illegal payment transition %s -> %s", from, to)
	}
	return nil
}
