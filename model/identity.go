// model/identity.go
package model

// Identity is the normalized representation of an authenticated principal,
// built from raw provider claims or from the user profile store. Once
// constructed for a given token or fetch it is never mutated; enrichment
// always produces a copy.
type Identity struct {
	Sub               string                    `json:"sub"`
	Email             string                    `json:"email,omitempty"`
	GivenName         string                    `json:"given_name,omitempty"`
	FamilyName        string                    `json:"family_name,omitempty"`
	PreferredUsername string                    `json:"preferred_username,omitempty"`
	Roles             []string                  `json:"roles"`
	OrganizationIDs   []string                  `json:"organization_ids"`
	State             string                    `json:"state,omitempty"`
	Attributes        UserAttributes            `json:"attributes"`
	ResourceAccess    map[string]ResourceAccess `json:"resource_access,omitempty"`
	RealmAccess       *RealmAccess              `json:"realm_access,omitempty"`
}

// ResourceAccess holds the per-client role grants of a realm token.
type ResourceAccess struct {
	Roles []string `json:"roles"`
}

type RealmAccess struct {
	Roles []string `json:"roles"`
}

// UserAttributes keeps the known profile schema typed while preserving
// whatever else the provider asserted in Extra.
type UserAttributes struct {
	Department         string `json:"department,omitempty"`
	ClearanceLevel     int    `json:"clearanceLevel,omitempty"`
	JobTitle           string `json:"jobTitle,omitempty"`
	BusinessUnit       string `json:"businessUnit,omitempty"`
	ManagerID          string `json:"managerId,omitempty"`
	WorkLocation       string `json:"workLocation,omitempty"`
	EmploymentType     string `json:"employmentType,omitempty"`
	VerificationStatus string `json:"verificationStatus,omitempty"`
	RiskScore          int    `json:"riskScore,omitempty"`
	ContractExpiryDate string `json:"contractExpiryDate,omitempty"`

	// Extra carries attributes outside the known schema, keyed by their
	// normalized name.
	Extra map[string]any `json:"extra,omitempty"`
}

// Flatten merges the typed fields and the overflow map into one attribute
// bag, the shape the policy engine consumes. Zero-valued typed fields are
// omitted.
func (a UserAttributes) Flatten() map[string]any {
	out := make(map[string]any, len(a.Extra)+10)
	for k, v := range a.Extra {
		out[k] = v
	}
	if a.Department != "" {
		out["department"] = a.Department
	}
	if a.ClearanceLevel != 0 {
		out["clearanceLevel"] = a.ClearanceLevel
	}
	if a.JobTitle != "" {
		out["jobTitle"] = a.JobTitle
	}
	if a.BusinessUnit != "" {
		out["businessUnit"] = a.BusinessUnit
	}
	if a.ManagerID != "" {
		out["managerId"] = a.ManagerID
	}
	if a.WorkLocation != "" {
		out["workLocation"] = a.WorkLocation
	}
	if a.EmploymentType != "" {
		out["employmentType"] = a.EmploymentType
	}
	if a.VerificationStatus != "" {
		out["verificationStatus"] = a.VerificationStatus
	}
	if a.RiskScore != 0 {
		out["riskScore"] = a.RiskScore
	}
	if a.ContractExpiryDate != "" {
		out["contractExpiryDate"] = a.ContractExpiryDate
	}
	return out
}

// AttributeConfig drives claim normalization: which provider claim carries
// organization membership and how custom claims are renamed. The mapping
// must be applied identically everywhere raw claims are converted.
type AttributeConfig struct {
	OrganizationIDsClaim   string
	CustomAttributeMapping map[string]string
}

// DefaultAttributeConfig mirrors the realm's custom attribute scheme.
func DefaultAttributeConfig() AttributeConfig {
	return AttributeConfig{
		OrganizationIDsClaim: "organization_ids",
		CustomAttributeMapping: map[string]string{
			"territorial_jurisdiction": "territorialJurisdiction",
			"technical_expertise":      "technicalExpertise",
			"hierarchy_level":          "hierarchyLevel",
			"verification_status":      "verificationStatus",
			"employment_type":          "employmentType",
			"work_location":            "workLocation",
			"business_unit":            "businessUnit",
			"job_title":                "jobTitle",
			"manager_id":               "managerId",
			"contract_expiry_date":     "contractExpiryDate",
			"clearance_level":          "clearanceLevel",
			"risk_score":               "riskScore",
			"department":               "department",
		},
	}
}

// TokenValidationResult is the minimal outcome of validating a bearer
// token. An invalid result carries no identity fields at all.
type TokenValidationResult struct {
	Valid      bool     `json:"valid"`
	UserID     string   `json:"userId,omitempty"`
	Email      string   `json:"email,omitempty"`
	GivenName  string   `json:"givenName,omitempty"`
	FamilyName string   `json:"familyName,omitempty"`
	Roles      []string `json:"roles,omitempty"`
}

// EnrichedTokenValidationResult extends the minimal result with the full
// normalized identity.
type EnrichedTokenValidationResult struct {
	TokenValidationResult
	Identity *Identity `json:"identity,omitempty"`
}

// AuthResponse is a token pair issued by the provider.
type AuthResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

// UserRecord is the provider-side user representation used by the
// extended administrative client.
type UserRecord struct {
	ID         string              `json:"id,omitempty"`
	Username   string              `json:"username,omitempty"`
	Email      string              `json:"email,omitempty"`
	FirstName  string              `json:"firstName,omitempty"`
	LastName   string              `json:"lastName,omitempty"`
	Enabled    *bool               `json:"enabled,omitempty"`
	Attributes map[string][]string `json:"attributes,omitempty"`
}

// SessionInfo describes one active provider session.
type SessionInfo struct {
	ID         string `json:"id"`
	UserID     string `json:"userId"`
	IPAddress  string `json:"ipAddress,omitempty"`
	Start      int64  `json:"start,omitempty"`
	LastAccess int64  `json:"lastAccess,omitempty"`
}
