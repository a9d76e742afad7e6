package booking

// Actor is the caller's role relative to one specific booking.  It is
// resolved outside the state machine and passed in.
type Actor string

const (
	ActorNone   Actor = "none"
	ActorTenant Actor = "tenant"
	ActorOwner  Actor = "owner"
	ActorSystem Actor = "system"
)

func (a Actor) String() string { return string(a) }

// ResolveActor maps an authenticated user to their role on b.  ownerID
// is the owner of b's house.  A user who is both (not admitted by
// Admit) resolves as the owner.
func ResolveActor(userID uint64, b Booking, ownerID uint64) Actor {
	switch {
	case userID == 0:
		return ActorNone
	case userID == ownerID:
		return ActorOwner
	case userID == b.TenantID:
		return ActorTenant
	default:
		return ActorNone
	}
}
