// Package mapper converts between the wire DTOs of the auth module, the
// domain model, and the cached record layout. Every function is pure.
package mapper

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MrEthical07/goAuthClient/api"
	"github.com/MrEthical07/goAuthClient/cache"
	"github.com/MrEthical07/goAuthClient/model"
)

var (
	// ErrMissingAccountData is returned when a user payload has no account object.
	ErrMissingAccountData = errors.New("missing account data")
	// ErrMissingOrganizationData is returned when an organization account has no organization object.
	ErrMissingOrganizationData = errors.New("missing organization data")
	// ErrInvalidAccountType is returned when a conversion is applied to the wrong account variant.
	ErrInvalidAccountType = errors.New("invalid account type")
)

// Options carries the values ToDomain cannot derive from the payload.
type Options struct {
	// Now stamps CreatedAt. Zero means time.Now.
	Now func() time.Time
	// OnboardingComplete is copied to User.IsOnboardingComplete.
	OnboardingComplete bool
}

func (o Options) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

// ToDomain maps an authenticated-user payload to a domain User. The account
// type is authoritative: an organization object on an individual account is
// ignored. An organization object with a blank required field fails with
// ErrMissingOrganizationData.
func ToDomain(dto *api.UserResponseDTO, opts Options) (*model.User, error) {
	if dto == nil || dto.Account == nil {
		return nil, ErrMissingAccountData
	}

	accountType := model.Individual()
	if strings.EqualFold(strings.TrimSpace(dto.Account.Type), string(model.KindOrganization)) {
		if dto.Organization == nil {
			return nil, ErrMissingOrganizationData
		}
		org := dto.Organization
		accountType = model.OrganizationAccount(model.Organization{
			ID:             org.UUID,
			Name:           org.Name,
			Type:           org.OrgType,
			Email:          org.OfficialEmail,
			Phone:          deref(org.OfficialPhone),
			Address:        org.PhysicalAddress,
			AdminFirstName: org.AdminFirstName,
			AdminLastName:  org.AdminLastName,
		})
		if err := accountType.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMissingOrganizationData, err)
		}
	}

	return &model.User{
		ID:                   dto.UUID,
		UserCode:             dto.UserCode,
		AccountID:            dto.Account.UUID,
		AccountCode:          dto.Account.AccountCode,
		FirstName:            deref(dto.FirstName),
		LastName:             deref(dto.LastName),
		Email:                dto.Email,
		Phone:                deref(dto.Phone),
		Role:                 model.RoleOrDefault(dto.RoleName),
		AccountType:          accountType,
		IsVerified:           strings.EqualFold(strings.TrimSpace(dto.Status), "ACTIVE"),
		IsOnboardingComplete: opts.OnboardingComplete,
		CreatedAt:            opts.now(),
	}, nil
}

// ToRecord flattens a domain User into its cached form.
func ToRecord(u *model.User) *cache.UserRecord {
	rec := &cache.UserRecord{
		ID:                   u.ID,
		UserCode:             u.UserCode,
		AccountID:            u.AccountID,
		AccountCode:          u.AccountCode,
		Email:                u.Email,
		FirstName:            u.FirstName,
		LastName:             u.LastName,
		Phone:                u.Phone,
		RoleName:             u.Role.String(),
		AccountType:          cache.AccountTypeIndividual,
		IsVerified:           u.IsVerified,
		SelectedPlan:         u.SelectedPlan,
		IsOnboardingComplete: u.IsOnboardingComplete,
	}
	if !u.CreatedAt.IsZero() {
		rec.CreatedAt = u.CreatedAt.Unix()
	}

	if u.AccountType.IsOrganization() && u.AccountType.Organization != nil {
		org := u.AccountType.Organization
		rec.AccountType = cache.AccountTypeOrganization
		rec.OrgID = org.ID
		rec.OrgName = org.Name
		rec.OrgType = org.Type
		rec.OrgEmail = org.Email
		rec.OrgPhone = org.Phone
		rec.OrgAddress = org.Address
		rec.AdminFirstName = org.AdminFirstName
		rec.AdminLastName = org.AdminLastName
	}
	return rec
}

// FromRecord rebuilds a domain User from its cached form. It never fails:
// an unknown role becomes RoleIndividual, and an organization tag without
// an organization id becomes an individual account.
func FromRecord(rec *cache.UserRecord) *model.User {
	u := &model.User{
		ID:                   rec.ID,
		UserCode:             rec.UserCode,
		AccountID:            rec.AccountID,
		AccountCode:          rec.AccountCode,
		FirstName:            rec.FirstName,
		LastName:             rec.LastName,
		Email:                rec.Email,
		Phone:                rec.Phone,
		Role:                 model.RoleOrDefault(rec.RoleName),
		AccountType:          model.Individual(),
		IsVerified:           rec.IsVerified,
		SelectedPlan:         rec.SelectedPlan,
		IsOnboardingComplete: rec.IsOnboardingComplete,
	}
	if rec.CreatedAt > 0 {
		u.CreatedAt = time.Unix(rec.CreatedAt, 0)
	}

	if rec.AccountType == cache.AccountTypeOrganization && rec.OrgID != "" {
		u.AccountType = model.OrganizationAccount(model.Organization{
			ID:             rec.OrgID,
			Name:           rec.OrgName,
			Type:           rec.OrgType,
			Email:          rec.OrgEmail,
			Phone:          rec.OrgPhone,
			Address:        rec.OrgAddress,
			AdminFirstName: rec.AdminFirstName,
			AdminLastName:  rec.AdminLastName,
		})
	}
	return u
}

// ToSignupIndividualRequest builds the individual signup body.
func ToSignupIndividualRequest(u *model.User, code, password string) (api.SignupIndividualRequest, error) {
	if u == nil || u.AccountType.Kind != model.KindIndividual {
		return api.SignupIndividualRequest{}, ErrInvalidAccountType
	}
	return api.SignupIndividualRequest{
		Email:     u.Email,
		Password:  password,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Phone:     optional(u.Phone),
		Code:      code,
	}, nil
}

// ToSignupOrganizationRequest builds the organization signup body.
func ToSignupOrganizationRequest(u *model.User, code, password string) (api.SignupOrganizationRequest, error) {
	if u == nil || !u.AccountType.IsOrganization() || u.AccountType.Organization == nil {
		return api.SignupOrganizationRequest{}, ErrInvalidAccountType
	}
	org := u.AccountType.Organization
	return api.SignupOrganizationRequest{
		Name:            org.Name,
		OrgType:         org.Type,
		OfficialEmail:   org.Email,
		OfficialPhone:   optional(org.Phone),
		PhysicalAddress: org.Address,
		Email:           u.Email,
		Phone:           u.Phone,
		AdminFirstName:  org.AdminFirstName,
		AdminLastName:   org.AdminLastName,
		Password:        password,
		Code:            code,
	}, nil
}

// ToMemberships returns the membership rows implied by u: one row for an
// organization user, none otherwise.
func ToMemberships(u *model.User) []cache.MembershipRecord {
	if u == nil || !u.AccountType.IsOrganization() || u.AccountType.Organization == nil {
		return nil
	}
	org := u.AccountType.Organization
	if org.ID == "" {
		return nil
	}
	return []cache.MembershipRecord{{
		UserID:   u.ID,
		OrgID:    org.ID,
		RoleName: u.Role.String(),
	}}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func optional(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}
