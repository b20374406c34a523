package api

// Envelope is the uniform wrapper around every auth-module response.
type Envelope[T any] struct {
	Success bool       `json:"success"`
	Message string     `json:"message"`
	Code    string     `json:"code"`
	Data    *T         `json:"data,omitempty"`
	Error   *ErrorBody `json:"error,omitempty"`
}

// ErrorBody is the optional error object of an envelope.
type ErrorBody struct {
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
	Status  int    `json:"status,omitempty"`
}

// FailureMessage returns the most specific human-readable message the
// server supplied for a failed envelope, or "" when there is none.
func (e *Envelope[T]) FailureMessage() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Error != nil && e.Error.Message != "" {
		return e.Error.Message
	}
	return ""
}

// FailureCode returns the envelope code, falling back to the error object's code.
func (e *Envelope[T]) FailureCode() string {
	if e == nil {
		return ""
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Error != nil {
		return e.Error.Code
	}
	return ""
}

// Empty is the payload type of envelope-only endpoints.
type Empty struct{}

// UserResponseDTO is the authenticated-user payload.
type UserResponseDTO struct {
	UUID         string           `json:"uuid"`
	UserCode     string           `json:"userCode"`
	Email        string           `json:"email"`
	FirstName    *string          `json:"firstName,omitempty"`
	LastName     *string          `json:"lastName,omitempty"`
	Phone        *string          `json:"phone,omitempty"`
	RoleName     string           `json:"roleName"`
	Status       string           `json:"status"`
	AccessToken  *string          `json:"accessToken,omitempty"`
	RefreshToken *string          `json:"refreshToken,omitempty"`
	Account      *AccountDTO      `json:"account,omitempty"`
	Organization *OrganizationDTO `json:"organization,omitempty"`
}

// AccountDTO is the nested account object of a user payload.
type AccountDTO struct {
	UUID        string `json:"uuid"`
	Type        string `json:"type"`
	AccountCode string `json:"accountCode"`
}

// OrganizationDTO is present iff the account type is ORGANIZATION.
type OrganizationDTO struct {
	UUID            string  `json:"uuid"`
	Name            string  `json:"name"`
	OrgType         string  `json:"orgType"`
	OfficialEmail   string  `json:"officialEmail"`
	OfficialPhone   *string `json:"officialPhone,omitempty"`
	PhysicalAddress string  `json:"physicalAddress"`
	AdminFirstName  string  `json:"adminFirstName"`
	AdminLastName   string  `json:"adminLastName"`
}

// RequestOTPRequest is the body of the OTP request endpoint.
type RequestOTPRequest struct {
	Email   string `json:"email"`
	Purpose string `json:"purpose"`
}

// SignupIndividualRequest is the body of the individual signup endpoint.
type SignupIndividualRequest struct {
	Email     string  `json:"email"`
	Password  string  `json:"password"`
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	Phone     *string `json:"phone,omitempty"`
	Code      string  `json:"code"`
}

// SignupOrganizationRequest is the body of the organization signup endpoint.
type SignupOrganizationRequest struct {
	Name            string  `json:"name"`
	OrgType         string  `json:"orgType"`
	OfficialEmail   string  `json:"officialEmail"`
	OfficialPhone   *string `json:"officialPhone,omitempty"`
	PhysicalAddress string  `json:"physicalAddress"`
	Email           string  `json:"email"`
	Phone           string  `json:"phone"`
	AdminFirstName  string  `json:"adminFirstName"`
	AdminLastName   string  `json:"adminLastName"`
	Password        string  `json:"password"`
	Code            string  `json:"code"`
}

// LoginRequest is the body of the password login endpoint.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// VerifyMFARequest is the body of the login OTP verification endpoint.
type VerifyMFARequest struct {
	Email   string `json:"email"`
	Code    string `json:"code"`
	Purpose string `json:"purpose"`
}
