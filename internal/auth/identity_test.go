package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	fed := &FederatedIdentity{ID: "fed-1", Email: "a@example.com", Name: "Ana"}
	local := &LocalIdentity{ID: "local-1"}

	tests := []struct {
		name     string
		ctx      context.Context
		wantID   string
		wantOK   bool
		provider string
	}{
		{"none", context.Background(), "", false, ""},
		{"federated only", WithFederated(context.Background(), fed), "fed-1", true, ProviderFirebase},
		{"local only", WithLocal(context.Background(), local), "local-1", true, ProviderJWT},
		{"both prefers federated", WithLocal(WithFederated(context.Background(), fed), local), "fed-1", true, ProviderFirebase},
		{"federated without id falls back", WithLocal(WithFederated(context.Background(), &FederatedIdentity{}), local), "local-1", true, ProviderJWT},
		{"nil values", WithLocal(WithFederated(context.Background(), nil), nil), "", false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := UserID(tt.ctx)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantID, id)

			profile, ok := ProfileFrom(tt.ctx)
			assert.Equal(t, tt.wantOK, ok)
			if ok {
				assert.Equal(t, tt.provider, profile.Provider)
			}
		})
	}
}

func TestProfileFrom_Shapes(t *testing.T) {
	ctx := WithFederated(context.Background(), &FederatedIdentity{ID: "u", Email: "e@x", Name: "N"})
	p, ok := ProfileFrom(ctx)
	require.True(t, ok)
	assert.Equal(t, Profile{ID: "u", Email: "e@x", Name: "N", Provider: ProviderFirebase}, *p)

	ctx = WithLocal(context.Background(), &LocalIdentity{ID: "gh", Avatar: "a", Name: "n"})
	p, ok = ProfileFrom(ctx)
	require.True(t, ok)
	assert.Equal(t, Profile{ID: "gh", Provider: ProviderJWT}, *p)
}
