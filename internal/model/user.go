package model

// Role names carried in the JWT "role" claim.
const (
	RoleTenant   = "TENANT"
	RoleLandlord = "LANDLORD"
)

// User is the authenticated caller as seen by this service.  Accounts
// live in another system; only the identifier and role reach us, via
// the access token.
//
// Fields:
//  ID   – users.id of the caller (JWT "sub").
//  Role – TENANT or LANDLORD (JWT "role").
type User struct {
	ID   uint64 // users.id
	Role string // users.role
}
