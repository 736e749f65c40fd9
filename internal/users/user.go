package users

import "time"

type Role string

const (
	RoleCustomer Role = "customer"
	RoleMerchant Role = "merchant"
	RoleAgent    Role = "agent"
	RoleAdmin    Role = "admin"
)

type AccountStatus string

const (
	AccountPending   AccountStatus = "pending"
	AccountApproved  AccountStatus = "approved"
	AccountRejected  AccountStatus = "rejected"
	AccountSuspended AccountStatus = "suspended"
)

type User struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Role      Role          `json:"role"`
	Status    AccountStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// CanAct: hanya akun approved yang boleh melakukan operasi apa pun.
func (u User) CanAct() bool { return u.Status == AccountApproved }
