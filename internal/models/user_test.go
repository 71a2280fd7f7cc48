package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestUser_HasRole(t *testing.T) {
	tests := []struct {
		name     string
		role     UserRole
		check    []UserRole
		expected bool
	}{
		{name: "admin matches admin", role: RoleAdmin, check: []UserRole{RoleAdmin}, expected: true},
		{name: "franchisee matches one of many", role: RoleFranchisee, check: []UserRole{RoleAdmin, RoleFranchisee}, expected: true},
		{name: "technician does not match reviewers", role: RoleTechnician, check: []UserRole{RoleAdmin, RoleFranchisee}, expected: false},
		{name: "no roles given", role: RoleAdmin, check: nil, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user := &User{Role: tt.role}
			assert.Equal(t, tt.expected, user.HasRole(tt.check...))
		})
	}
}

func TestUser_CanAccessFranchise(t *testing.T) {
	franchiseID := uuid.New()
	otherID := uuid.New()

	admin := &User{Role: RoleAdmin}
	owner := &User{Role: RoleFranchisee, FranchiseeID: &franchiseID}
	loose := &User{Role: RoleTechnician}

	assert.True(t, admin.CanAccessFranchise(otherID))
	assert.True(t, owner.CanAccessFranchise(franchiseID))
	assert.False(t, owner.CanAccessFranchise(otherID))
	assert.False(t, loose.CanAccessFranchise(franchiseID))
}

func TestUser_ToProfile(t *testing.T) {
	email := "tech@example.com"
	user := &User{
		Email:    &email,
		FullName: "Sam Keys",
		Role:     RoleTechnician,
	}
	user.ID = uuid.New()

	profile := user.ToProfile()

	assert.Equal(t, user.ID, profile.ID)
	assert.Equal(t, "Sam Keys", profile.FullName)
	assert.Equal(t, &email, profile.Email)
	assert.Equal(t, RoleTechnician, profile.Role)
	assert.Equal(t, Preferences{}, profile.Preferences)
}

func TestUserRole_IsValid(t *testing.T) {
	assert.True(t, RoleAdmin.IsValid())
	assert.True(t, RoleFranchisee.IsValid())
	assert.True(t, RoleTechnician.IsValid())
	assert.False(t, UserRole("owner").IsValid())
}

func TestUser_FranchiseFor(t *testing.T) {
	own := uuid.New()
	other := uuid.New()

	admin := &User{Role: RoleAdmin}
	owner := &User{Role: RoleFranchisee, FranchiseeID: &own}
	loose := &User{Role: RoleTechnician}

	tests := []struct {
		name      string
		user      *User
		requested *uuid.UUID
		expected  uuid.UUID
		ok        bool
	}{
		{name: "admin names a franchise", user: admin, requested: &other, expected: other, ok: true},
		{name: "admin without a franchise", user: admin, requested: nil, ok: false},
		{name: "owner defaults to own", user: owner, requested: nil, expected: own, ok: true},
		{name: "owner names own", user: owner, requested: &own, expected: own, ok: true},
		{name: "owner names another", user: owner, requested: &other, ok: false},
		{name: "user without franchise", user: loose, requested: &own, ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := tt.user.FranchiseFor(tt.requested)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, id)
		})
	}
}
