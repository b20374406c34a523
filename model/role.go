package model

import "strings"

// Role is the server-assigned role name of a user.
type Role string

const (
	RoleIndividual         Role = "INDIVIDUAL"
	RoleOrganizationAdmin  Role = "ORGANIZATION_ADMIN"
	RoleOrganizationMember Role = "ORGANIZATION_MEMBER"
	RoleAdmin              Role = "ADMIN"
)

var knownRoles = map[Role]struct{}{
	RoleIndividual:         {},
	RoleOrganizationAdmin:  {},
	RoleOrganizationMember: {},
	RoleAdmin:              {},
}

// ParseRole normalizes s and reports whether it names a known role.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	_, ok := knownRoles[r]
	return r, ok
}

// RoleOrDefault returns the role named by s, or RoleIndividual when s is
// blank or unknown. It never fails.
func RoleOrDefault(s string) Role {
	if r, ok := ParseRole(s); ok {
		return r
	}
	return RoleIndividual
}

func (r Role) String() string {
	return string(r)
}

// OTPPurpose is sent with OTP requests so the server knows which flow the
// code gates.
type OTPPurpose string

const (
	PurposeSignup        OTPPurpose = "SIGNUP"
	PurposeLogin         OTPPurpose = "LOGIN"
	PurposePasswordReset OTPPurpose = "PASSWORD_RESET"
)

// ParsePurpose normalizes s and reports whether it is a known purpose.
func ParsePurpose(s string) (OTPPurpose, bool) {
	p := OTPPurpose(strings.ToUpper(strings.TrimSpace(s)))
	switch p {
	case PurposeSignup, PurposeLogin, PurposePasswordReset:
		return p, true
	}
	return p, false
}
