package model

import (
	"errors"
	"strings"
	"time"
)

// AccountKind is the discriminator of the account-type union.
type AccountKind string

const (
	// KindIndividual marks a user acting on their own behalf.
	KindIndividual AccountKind = "INDIVIDUAL"
	// KindOrganization marks a user affiliated with an organization.
	KindOrganization AccountKind = "ORGANIZATION"
)

var (
	// ErrOrganizationRequired is returned when an organization account has no organization data.
	ErrOrganizationRequired = errors.New("organization account requires organization data")
	// ErrOrganizationUnexpected is returned when an individual account carries organization data.
	ErrOrganizationUnexpected = errors.New("individual account must not carry organization data")
	// ErrOrganizationIncomplete is returned when a required organization field is blank.
	ErrOrganizationIncomplete = errors.New("organization data incomplete")
	// ErrUnknownAccountKind is returned for a kind outside the two known values.
	ErrUnknownAccountKind = errors.New("unknown account kind")
)

// Organization holds the organization side of an organization account.
// Phone is optional on the wire and is empty when the server omits it.
type Organization struct {
	ID             string
	Name           string
	Type           string
	Email          string
	Phone          string
	Address        string
	AdminFirstName string
	AdminLastName  string
}

// AccountType is the tagged union Individual | Organization.
type AccountType struct {
	Kind         AccountKind
	Organization *Organization
}

// Individual returns the individual account variant.
func Individual() AccountType {
	return AccountType{Kind: KindIndividual}
}

// OrganizationAccount returns the organization account variant. The
// organization is copied so later mutation of org does not leak into the
// returned value.
func OrganizationAccount(org Organization) AccountType {
	o := org
	return AccountType{Kind: KindOrganization, Organization: &o}
}

// IsOrganization reports whether the variant is Organization.
func (a AccountType) IsOrganization() bool {
	return a.Kind == KindOrganization
}

// Validate enforces the account-type invariant.
func (a AccountType) Validate() error {
	switch a.Kind {
	case KindIndividual:
		if a.Organization != nil {
			return ErrOrganizationUnexpected
		}
		return nil
	case KindOrganization:
		if a.Organization == nil {
			return ErrOrganizationRequired
		}
		return a.Organization.validate()
	default:
		return ErrUnknownAccountKind
	}
}

func (o *Organization) validate() error {
	required := []string{
		o.ID,
		o.Name,
		o.Type,
		o.Email,
		o.Address,
		o.AdminFirstName,
		o.AdminLastName,
	}
	for _, v := range required {
		if strings.TrimSpace(v) == "" {
			return ErrOrganizationIncomplete
		}
	}
	return nil
}

// User is the canonical domain representation of an authenticated principal.
type User struct {
	ID          string
	UserCode    string
	AccountID   string
	AccountCode string

	FirstName string
	LastName  string
	Email     string
	Phone     string

	Role        Role
	AccountType AccountType

	IsVerified           bool
	SelectedPlan         string
	IsOnboardingComplete bool
	CreatedAt            time.Time
}

// FullName joins first and last name, skipping blanks.
func (u User) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
}
