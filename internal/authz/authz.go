// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package authz derives role-based capabilities from a user profile. The
// checks here gate UI affordances only; the remote API independently enforces
// every privileged operation, so nothing in this package is a security
// boundary.
package authz

import "github.com/ituhouse/ituhouse-web/internal/model"

// roleLevel returns a numeric level for role hierarchy.
// Higher level = more permissions.
func roleLevel(role string) int {
	switch role {
	case model.RoleSuperAdmin:
		return 3
	case model.RoleAdmin:
		return 2
	case model.RoleUser:
		return 1
	default:
		// Visitors and unknown roles have no write access
		return 0
	}
}

// IsGuest reports whether the user is anonymous or a visitor.
func IsGuest(user *model.User) bool {
	return user == nil || user.Role == model.RoleVisitor || user.Role == ""
}

// IsAdmin reports whether the user holds admin or super_admin.
func IsAdmin(user *model.User) bool {
	return user != nil && (user.Role == model.RoleAdmin || user.Role == model.RoleSuperAdmin)
}

// IsSuperAdmin reports whether the user holds super_admin.
func IsSuperAdmin(user *model.User) bool {
	return user != nil && user.Role == model.RoleSuperAdmin
}

// HasRole reports whether the user's role is at least minRole in the
// visitor < user < admin < super_admin hierarchy.
func HasRole(user *model.User, minRole string) bool {
	if user == nil {
		return roleLevel(minRole) == 0
	}
	return roleLevel(user.Role) >= roleLevel(minRole)
}

// CanPost reports whether the user may create posts and comments.
func CanPost(user *model.User) bool {
	return !IsGuest(user)
}

// CanEditSections reports whether the user may edit about sections.
func CanEditSections(user *model.User) bool {
	return IsAdmin(user)
}

// CanManageSections reports whether the user may create and delete about
// sections and change user roles.
func CanManageSections(user *model.User) bool {
	return IsSuperAdmin(user)
}
