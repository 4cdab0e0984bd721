// Package auth verifies bearer credentials and resolves the caller's identity.
package auth

import (
	"context"
	"time"
)

const (
	ProviderFirebase = "firebase"
	ProviderJWT      = "jwt"
)

// Identity is the authenticated caller. It is either a *FederatedIdentity or a *LocalIdentity.
type Identity interface {
	UserID() string
	Provider() string
	isIdentity()
}

// FederatedIdentity is asserted by the external identity provider.
type FederatedIdentity struct {
	ID        string
	Email     string
	Name      string
	ExpiresAt time.Time
}

func (f *FederatedIdentity) UserID() string   { return f.ID }
func (f *FederatedIdentity) Provider() string { return ProviderFirebase }
func (*FederatedIdentity) isIdentity()        {}

// LocalIdentity comes from a session token this server signed.
type LocalIdentity struct {
	ID     string
	Avatar string
	Name   string
}

func (l *LocalIdentity) UserID() string   { return l.ID }
func (l *LocalIdentity) Provider() string { return ProviderJWT }
func (*LocalIdentity) isIdentity()        {}

type federatedKey struct{}
type localKey struct{}

// WithFederated attaches a federated identity to ctx.
func WithFederated(ctx context.Context, id *FederatedIdentity) context.Context {
	return context.WithValue(ctx, federatedKey{}, id)
}

// WithLocal attaches a local-session identity to ctx.
func WithLocal(ctx context.Context, id *LocalIdentity) context.Context {
	return context.WithValue(ctx, localKey{}, id)
}

// Resolve returns the caller's identity, preferring the federated one when both are present.
func Resolve(ctx context.Context) (Identity, bool) {
	if f, ok := ctx.Value(federatedKey{}).(*FederatedIdentity); ok && f != nil && f.ID != "" {
		return f, true
	}
	if l, ok := ctx.Value(localKey{}).(*LocalIdentity); ok && l != nil && l.ID != "" {
		return l, true
	}
	return nil, false
}

// UserID returns the canonical user id of the caller.
func UserID(ctx context.Context) (string, bool) {
	id, ok := Resolve(ctx)
	if !ok {
		return "", false
	}
	return id.UserID(), true
}

// Profile is the public view of the caller.
type Profile struct {
	ID       string `json:"id"`
	Email    string `json:"email,omitempty"`
	Name     string `json:"name,omitempty"`
	Provider string `json:"provider"`
}

// ProfileFrom builds the caller's profile. Local identities expose only their id.
func ProfileFrom(ctx context.Context) (*Profile, bool) {
	id, ok := Resolve(ctx)
	if !ok {
		return nil, false
	}
	switch v := id.(type) {
	case *FederatedIdentity:
		return &Profile{ID: v.ID, Email: v.Email, Name: v.Name, Provider: ProviderFirebase}, true
	case *LocalIdentity:
		return &Profile{ID: v.ID, Provider: ProviderJWT}, true
	}
	return nil, false
}
