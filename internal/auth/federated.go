package auth

import (
    "context"

    "github.com/psp-portal/portal-api/internal/model"
)

// User-facing rejection messages.  These are shown directly on the login
// page after a redirect, so they are phrased for people, not logs.
const (
    MsgNotRegistered          = "not registered"
    MsgInsufficientPermission = "insufficient permission"
)

// PrincipalStore is the lookup surface the resolver needs.  Lookups must
// return repository.ErrPrincipalNotFound for a missing principal and keep
// any other failure distinct, so the resolver never mistakes a broken store
// for an unknown user.
type PrincipalStore interface {
    GetByEmail(ctx context.Context, email string) (model.Principal, error)
}

// Rejection is the non-error terminal outcome of a federated login: the
// identity was understood but not accepted.  Email and Name are carried so
// the caller can offer "register with this email" without going back to the
// provider.
type Rejection struct {
    Message string
    Email   string
    Name    string
}

// AcceptancePolicy decides whether a looked-up principal may pass this
// login path.  A nil result accepts; otherwise the returned rejection is
// surfaced to the caller.  The two portal variants share one resolver and
// differ only here.
type AcceptancePolicy func(p model.Principal) *Rejection

// PublicPolicy accepts any registered principal (the self-service portal
// login).
func PublicPolicy(model.Principal) *Rejection { return nil }

// AdminGatedPolicy accepts only administrators (the back-office login).
func AdminGatedPolicy(p model.Principal) *Rejection {
    if p.Role != model.RoleAdmin {
        return &Rejection{Message: MsgInsufficientPermission}
    }
    return nil
}

// Resolver maps a federated callback profile to an internal principal and
// applies the configured acceptance policy.
type Resolver struct {
    store    PrincipalStore
    provider string
    policy   AcceptancePolicy
}

func NewResolver(store PrincipalStore, provider string, policy AcceptancePolicy) *Resolver {
    return &Resolver{store: store, provider: provider, policy: policy}
}

// Resolve runs the callback state machine.  Outcomes:
//
//	(principal, nil, nil)  – accepted; principal carries the federated stamp
//	(zero, rejection, nil) – unknown email or rejected by policy
//	(zero, nil, err)       – store failure; must not be treated as unknown
//
// The email is taken verbatim from the profile; no normalization happens on
// the way to the store.  On acceptance the federated subject id and
// provider name are stamped onto the in-memory principal only — persisting
// them is the caller's call.
func (r *Resolver) Resolve(ctx context.Context, profile model.FederatedProfile) (model.Principal, *Rejection, error) {
    email := profile.Email()
    name := profile.DisplayName

    p, err := r.store.GetByEmail(ctx, email)
    if err != nil {
        if isNotFound(err) {
            return model.Principal{}, &Rejection{Message: MsgNotRegistered, Email: email, Name: name}, nil
        }
        return model.Principal{}, nil, err
    }

    if rej := r.policy(p); rej != nil {
        return model.Principal{}, rej, nil
    }

    p.FederatedID = profile.SubjectID
    p.FederatedProvider = r.provider
    return p, nil, nil
}
