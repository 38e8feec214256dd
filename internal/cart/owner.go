package cart

import (
	"github.com/google/uuid"

	"github.com/pmorrison-au/teashop-backend/pkg/db/models"
	pkgerrors "github.com/pmorrison-au/teashop-backend/pkg/errors"
)

// OwnerKind discriminates the two legal cart owners.
type OwnerKind string

const (
	OwnerKindSession OwnerKind = "session"
	OwnerKindUser    OwnerKind = "user"
)

// Owner names exactly one cart owner: an anonymous visitor session or an
// authenticated user. The zero value is invalid; construct through
// SessionOwner or UserOwner so a cart can never carry both owner columns.
type Owner struct {
	kind   OwnerKind
	token  string
	userID uuid.UUID
}

// SessionOwner builds an owner for an anonymous visitor session.
func SessionOwner(token string) (Owner, error) {
	if token == "" {
		return Owner{}, pkgerrors.New(pkgerrors.CodeValidation, "session token required")
	}
	return Owner{kind: OwnerKindSession, token: token}, nil
}

// UserOwner builds an owner for an authenticated user.
func UserOwner(userID uuid.UUID) (Owner, error) {
	if userID == uuid.Nil {
		return Owner{}, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	return Owner{kind: OwnerKindUser, userID: userID}, nil
}

// Kind reports which owner variant this is.
func (o Owner) Kind() OwnerKind {
	return o.kind
}

// SessionToken returns the session token for session owners.
func (o Owner) SessionToken() (string, bool) {
	return o.token, o.kind == OwnerKindSession
}

// UserID returns the user id for user owners.
func (o Owner) UserID() (uuid.UUID, bool) {
	return o.userID, o.kind == OwnerKindUser
}

// apply stamps the owner onto a cart row, clearing the other owner column.
func (o Owner) apply(cart *models.Cart) {
	switch o.kind {
	case OwnerKindSession:
		token := o.token
		cart.SessionToken = &token
		cart.UserID = nil
	case OwnerKindUser:
		id := o.userID
		cart.UserID = &id
		cart.SessionToken = nil
	}
}

// Identity is the caller's view of who is shopping: always a visitor
// session, sometimes also an authenticated user. Resolve uses both to
// run the merge-on-login policy.
type Identity struct {
	SessionToken string
	UserID       *uuid.UUID
}

// Owner collapses the identity to the cart owner it shops as: the user
// when authenticated, the session otherwise.
func (i Identity) Owner() (Owner, error) {
	if i.UserID != nil {
		return UserOwner(*i.UserID)
	}
	return SessionOwner(i.SessionToken)
}
