package cache

import (
	"cmp"
	"errors"
	"slices"
	"strconv"
)

const recordSchemaVersion = 1

// Account type tags stored in UserRecord.AccountType.
const (
	AccountTypeIndividual   = "INDIVIDUAL"
	AccountTypeOrganization = "ORGANIZATION"
)

var errRecordSchema = errors.New("unsupported user record schema")

// UserRecord is the flattened, persisted form of the logged-in user.
// Organization fields are empty for individual accounts.
type UserRecord struct {
	ID          string
	UserCode    string
	AccountID   string
	AccountCode string
	Email       string
	FirstName   string
	LastName    string
	Phone       string
	RoleName    string
	AccountType string
	IsVerified  bool

	SelectedPlan string

	OrgID          string
	OrgName        string
	OrgType        string
	OrgEmail       string
	OrgPhone       string
	OrgAddress     string
	AdminFirstName string
	AdminLastName  string

	IsOnboardingComplete bool
	CreatedAt            int64
}

// MembershipRecord links a user to an organization. (UserID, OrgID) is unique.
type MembershipRecord struct {
	UserID   string
	OrgID    string
	RoleName string
}

func (r *UserRecord) fields() map[string]any {
	return map[string]any{
		"v":               recordSchemaVersion,
		"id":              r.ID,
		"user_code":       r.UserCode,
		"account_id":      r.AccountID,
		"account_code":    r.AccountCode,
		"email":           r.Email,
		"first_name":      r.FirstName,
		"last_name":       r.LastName,
		"phone":           r.Phone,
		"role_name":       r.RoleName,
		"account_type":    r.AccountType,
		"is_verified":     boolField(r.IsVerified),
		"selected_plan":   r.SelectedPlan,
		"org_id":          r.OrgID,
		"org_name":        r.OrgName,
		"org_type":        r.OrgType,
		"org_email":       r.OrgEmail,
		"org_phone":       r.OrgPhone,
		"org_address":     r.OrgAddress,
		"admin_first":     r.AdminFirstName,
		"admin_last":      r.AdminLastName,
		"onboarding_done": boolField(r.IsOnboardingComplete),
		"created_at":      r.CreatedAt,
	}
}

func decodeRecord(m map[string]string) (*UserRecord, error) {
	if v, ok := m["v"]; ok {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > recordSchemaVersion {
			return nil, errRecordSchema
		}
	}

	createdAt, _ := strconv.ParseInt(m["created_at"], 10, 64)

	return &UserRecord{
		ID:                   m["id"],
		UserCode:             m["user_code"],
		AccountID:            m["account_id"],
		AccountCode:          m["account_code"],
		Email:                m["email"],
		FirstName:            m["first_name"],
		LastName:             m["last_name"],
		Phone:                m["phone"],
		RoleName:             m["role_name"],
		AccountType:          m["account_type"],
		IsVerified:           m["is_verified"] == "1",
		SelectedPlan:         m["selected_plan"],
		OrgID:                m["org_id"],
		OrgName:              m["org_name"],
		OrgType:              m["org_type"],
		OrgEmail:             m["org_email"],
		OrgPhone:             m["org_phone"],
		OrgAddress:           m["org_address"],
		AdminFirstName:       m["admin_first"],
		AdminLastName:        m["admin_last"],
		IsOnboardingComplete: m["onboarding_done"] == "1",
		CreatedAt:            createdAt,
	}, nil
}

func boolField(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func sortMemberships(records []MembershipRecord) {
	slices.SortFunc(records, func(a, b MembershipRecord) int {
		if c := cmp.Compare(a.OrgID, b.OrgID); c != 0 {
			return c
		}
		return cmp.Compare(a.UserID, b.UserID)
	})
}
