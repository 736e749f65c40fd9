package users

// Scope adalah predikat visibilitas yang diturunkan dari user TERAUTENTIKASI.
// Role claim dari request tidak pernah dipakai langsung; Scope selalu dibangun
// dari baris users hasil lookup di middleware (lihat httpx).
//
// admin    -> semua baris
// merchant -> orders/products dengan merchant_id = UserID
// agent    -> orders dengan agent_id = UserID
// customer -> orders dengan customer_id = UserID; products hanya yang approved
type Scope struct {
	Role   Role
	UserID string
}

func ScopeFor(u User) Scope { return Scope{Role: u.Role, UserID: u.ID} }

func (s Scope) CanSeeOrder(merchantID, agentID, customerID string) bool {
	switch s.Role {
	case RoleAdmin:
		return true
	case RoleMerchant:
		return merchantID == s.UserID
	case RoleAgent:
		return agentID == s.UserID
	case RoleCustomer:
		return customerID == s.UserID
	default:
		return false
	}
}

func (s Scope) CanSeeProduct(merchantID string, approved bool) bool {
	switch s.Role {
	case RoleAdmin:
		return true
	case RoleMerchant:
		return merchantID == s.UserID || approved
	default:
		return approved
	}
}

// OrderPredicate menghasilkan klausa WHERE + argumen untuk listing orders.
// Argumen mulai dari $1; pemanggil menambahkan klausa lain setelahnya.
func (s Scope) OrderPredicate() (string, []any) {
	switch s.Role {
	case RoleAdmin:
		return "TRUE", nil
	case RoleMerchant:
		return "merchant_id = $1", []any{s.UserID}
	case RoleAgent:
		return "agent_id = $1", []any{s.UserID}
	case RoleCustomer:
		return "customer_id = $1", []any{s.UserID}
	default:
		return "FALSE", nil
	}
}

func (s Scope) ProductPredicate() (string, []any) {
	switch s.Role {
	case RoleAdmin:
		return "TRUE", nil
	case RoleMerchant:
		return "(merchant_id = $1 OR status = 'approved')", []any{s.UserID}
	default:
		return "status = 'approved'", nil
	}
}
