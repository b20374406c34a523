package mapper

import (
	"errors"
	"testing"
	"time"

	"github.com/MrEthical07/goAuthClient/api"
	"github.com/MrEthical07/goAuthClient/cache"
	"github.com/MrEthical07/goAuthClient/model"
)

var fixedNow = time.Unix(1700000000, 0)

func fixedOptions() Options {
	return Options{Now: func() time.Time { return fixedNow }, OnboardingComplete: true}
}

func strPtr(s string) *string { return &s }

func individualDTO() *api.UserResponseDTO {
	return &api.UserResponseDTO{
		UUID:      "u-1",
		UserCode:  "UC1",
		Email:     "a@b.com",
		FirstName: strPtr("Ada"),
		LastName:  strPtr("Lovelace"),
		RoleName:  "INDIVIDUAL",
		Status:    "active",
		Account:   &api.AccountDTO{UUID: "acc-1", Type: "INDIVIDUAL", AccountCode: "AC1"},
	}
}

func organizationDTO() *api.UserResponseDTO {
	dto := individualDTO()
	dto.RoleName = "organization_admin"
	dto.Account.Type = "Organization"
	dto.Organization = &api.OrganizationDTO{
		UUID:            "org-1",
		Name:            "Acme",
		OrgType:         "NGO",
		OfficialEmail:   "info@acme.test",
		PhysicalAddress: "1 Main St",
		AdminFirstName:  "Ada",
		AdminLastName:   "Lovelace",
	}
	return dto
}

func TestToDomainIndividual(t *testing.T) {
	u, err := ToDomain(individualDTO(), fixedOptions())
	if err != nil {
		t.Fatalf("ToDomain: %v", err)
	}
	if u.AccountType.Kind != model.KindIndividual || u.AccountType.Organization != nil {
		t.Fatalf("expected individual account, got %+v", u.AccountType)
	}
	if !u.IsVerified || !u.IsOnboardingComplete || !u.CreatedAt.Equal(fixedNow) {
		t.Fatalf("unexpected derived fields %+v", u)
	}
	if u.Role != model.RoleIndividual || u.FullName() != "Ada Lovelace" {
		t.Fatalf("unexpected identity fields %+v", u)
	}
}

func TestToDomainOrganization(t *testing.T) {
	u, err := ToDomain(organizationDTO(), fixedOptions())
	if err != nil {
		t.Fatalf("ToDomain: %v", err)
	}
	if !u.AccountType.IsOrganization() {
		t.Fatal("expected organization account")
	}
	if err := u.AccountType.Validate(); err != nil {
		t.Fatalf("mapped account type invalid: %v", err)
	}
	if u.AccountType.Organization.Phone != "" {
		t.Fatalf("expected empty optional phone, got %q", u.AccountType.Organization.Phone)
	}
	if u.Role != model.RoleOrganizationAdmin {
		t.Fatalf("expected normalized admin role, got %q", u.Role)
	}
}

func TestToDomainFailures(t *testing.T) {
	noAccount := individualDTO()
	noAccount.Account = nil

	noOrg := organizationDTO()
	noOrg.Organization = nil

	blankOrgID := organizationDTO()
	blankOrgID.Organization.UUID = ""

	blankAdmin := organizationDTO()
	blankAdmin.Organization.AdminLastName = "  "

	tests := []struct {
		name string
		dto  *api.UserResponseDTO
		want error
	}{
		{"nil payload", nil, ErrMissingAccountData},
		{"missing account", noAccount, ErrMissingAccountData},
		{"organization without organization data", noOrg, ErrMissingOrganizationData},
		{"organization with blank id", blankOrgID, model.ErrOrganizationIncomplete},
		{"organization with blank admin name", blankAdmin, ErrMissingOrganizationData},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ToDomain(tc.dto, fixedOptions()); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestToDomainIndividualIgnoresOrganizationObject(t *testing.T) {
	dto := organizationDTO()
	dto.Account.Type = "INDIVIDUAL"

	u, err := ToDomain(dto, fixedOptions())
	if err != nil {
		t.Fatalf("ToDomain: %v", err)
	}
	rec := ToRecord(u)
	if rec.AccountType != cache.AccountTypeIndividual || rec.OrgID != "" || rec.OrgName != "" {
		t.Fatalf("expected no organization fields, got %+v", rec)
	}
}

func TestToDomainBlankNamesAndStatus(t *testing.T) {
	dto := individualDTO()
	dto.FirstName = nil
	dto.LastName = nil
	dto.Status = "PENDING"
	dto.RoleName = ""

	u, err := ToDomain(dto, Options{})
	if err != nil {
		t.Fatalf("ToDomain: %v", err)
	}
	if u.FirstName != "" || u.LastName != "" || u.IsVerified || u.IsOnboardingComplete {
		t.Fatalf("unexpected defaults %+v", u)
	}
	if u.Role != model.RoleIndividual {
		t.Fatalf("expected default role, got %q", u.Role)
	}
	if u.CreatedAt.IsZero() {
		t.Fatal("expected CreatedAt stamped with current time")
	}
}

func TestRecordRoundTrip(t *testing.T) {
	for _, dto := range []*api.UserResponseDTO{individualDTO(), organizationDTO()} {
		u, err := ToDomain(dto, fixedOptions())
		if err != nil {
			t.Fatalf("ToDomain: %v", err)
		}
		rec := ToRecord(u)
		again := ToRecord(FromRecord(rec))
		if *again != *rec {
			t.Fatalf("round trip not idempotent:\n got %+v\nwant %+v", again, rec)
		}
	}
}

func TestFromRecordDegradesCorruptData(t *testing.T) {
	tests := []struct {
		name string
		rec  cache.UserRecord
	}{
		{"unknown role", cache.UserRecord{ID: "u", RoleName: "SUPREME_LEADER", AccountType: cache.AccountTypeIndividual}},
		{"organization tag without org id", cache.UserRecord{ID: "u", RoleName: "INDIVIDUAL", AccountType: cache.AccountTypeOrganization}},
		{"unknown account tag", cache.UserRecord{ID: "u", AccountType: "ALIEN"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			u := FromRecord(&tc.rec)
			if u.Role != model.RoleIndividual {
				t.Fatalf("expected fallback role, got %q", u.Role)
			}
			if u.AccountType.Kind != model.KindIndividual {
				t.Fatalf("expected individual fallback, got %+v", u.AccountType)
			}
			if err := u.AccountType.Validate(); err != nil {
				t.Fatalf("degraded account type invalid: %v", err)
			}
		})
	}
}

func TestSignupRequestVariantChecks(t *testing.T) {
	individual, _ := ToDomain(individualDTO(), fixedOptions())
	organization, _ := ToDomain(organizationDTO(), fixedOptions())

	if _, err := ToSignupOrganizationRequest(individual, "123456", "pw"); !errors.Is(err, ErrInvalidAccountType) {
		t.Fatalf("expected ErrInvalidAccountType, got %v", err)
	}
	if _, err := ToSignupIndividualRequest(organization, "123456", "pw"); !errors.Is(err, ErrInvalidAccountType) {
		t.Fatalf("expected ErrInvalidAccountType, got %v", err)
	}

	req, err := ToSignupIndividualRequest(individual, "123456", "pw")
	if err != nil {
		t.Fatalf("individual request: %v", err)
	}
	if req.Email != "a@b.com" || req.Code != "123456" || req.Password != "pw" || req.Phone != nil {
		t.Fatalf("unexpected individual request %+v", req)
	}

	orgReq, err := ToSignupOrganizationRequest(organization, "654321", "pw")
	if err != nil {
		t.Fatalf("organization request: %v", err)
	}
	if orgReq.Name != "Acme" || orgReq.OfficialEmail != "info@acme.test" || orgReq.OfficialPhone != nil || orgReq.Code != "654321" {
		t.Fatalf("unexpected organization request %+v", orgReq)
	}
}

func TestToMemberships(t *testing.T) {
	individual, _ := ToDomain(individualDTO(), fixedOptions())
	if rows := ToMemberships(individual); len(rows) != 0 {
		t.Fatalf("expected no memberships for individual, got %+v", rows)
	}

	organization, _ := ToDomain(organizationDTO(), fixedOptions())
	rows := ToMemberships(organization)
	if len(rows) != 1 || rows[0].OrgID != "org-1" || rows[0].UserID != "u-1" || rows[0].RoleName != "ORGANIZATION_ADMIN" {
		t.Fatalf("unexpected memberships %+v", rows)
	}
}
