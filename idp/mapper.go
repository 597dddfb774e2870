// idp/mapper.go
package idp

import (
	"strconv"
	"strings"

	"github.com/smplabs/warden/model"
)

// MapAttributes normalizes raw provider claims into a UserAttributes
// record. It applies the configured claim rename table, coerces
// string values to integers for claims whose provider name contains
// "level" or "score", collapses single-element arrays to scalars, and
// passes unknown claims through unchanged. Pure function: no I/O.
func MapAttributes(raw map[string]any, cfg model.AttributeConfig) model.UserAttributes {
	attrs := model.UserAttributes{Extra: make(map[string]any)}

	reserved := map[string]bool{
		"sub": true, "email": true, "given_name": true, "family_name": true,
		"preferred_username": true, "realm_access": true, "resource_access": true,
		"user_state": true, cfg.OrganizationIDsClaim: true,
		"iss": true, "aud": true, "exp": true, "iat": true, "azp": true,
		"typ": true, "scope": true, "session_state": true, "sid": true,
		"email_verified": true, "name": true, "jti": true, "active": true,
		"client_id": true, "token_type": true, "nbf": true,
	}

	for claim, value := range raw {
		if reserved[claim] {
			continue
		}

		normalized, known := cfg.CustomAttributeMapping[claim]
		if !known {
			normalized = claim
		}

		v := collapseSingleton(value)
		if strings.Contains(claim, "level") || strings.Contains(claim, "score") {
			v = coerceInt(v)
		}

		if !assignKnown(&attrs, normalized, v) {
			attrs.Extra[normalized] = v
		}
	}

	if email, ok := raw["email"].(string); ok && email != "" {
		attrs.Extra["email"] = email
	}
	if given, ok := raw["given_name"].(string); ok && given != "" {
		attrs.Extra["firstName"] = given
	}
	if family, ok := raw["family_name"].(string); ok && family != "" {
		attrs.Extra["lastName"] = family
	}

	return attrs
}

// assignKnown routes a normalized attribute into its typed field when the
// schema knows it; returns false for overflow attributes.
func assignKnown(attrs *model.UserAttributes, name string, value any) bool {
	switch name {
	case "department":
		attrs.Department, _ = value.(string)
	case "clearanceLevel":
		attrs.ClearanceLevel = toInt(value)
	case "jobTitle":
		attrs.JobTitle, _ = value.(string)
	case "businessUnit":
		attrs.BusinessUnit, _ = value.(string)
	case "managerId":
		attrs.ManagerID, _ = value.(string)
	case "workLocation":
		attrs.WorkLocation, _ = value.(string)
	case "employmentType":
		attrs.EmploymentType, _ = value.(string)
	case "verificationStatus":
		attrs.VerificationStatus, _ = value.(string)
	case "riskScore":
		attrs.RiskScore = toInt(value)
	case "contractExpiryDate":
		attrs.ContractExpiryDate, _ = value.(string)
	default:
		return false
	}
	return true
}

// ExtractRoles unions realm-level roles with every per-client
// resource-access role, deduplicated, preserving first-seen order.
func ExtractRoles(raw map[string]any) []string {
	seen := make(map[string]bool)
	var roles []string

	appendRoles := func(list any) {
		items, ok := list.([]any)
		if !ok {
			return
		}
		for _, item := range items {
			role, ok := item.(string)
			if !ok || seen[role] {
				continue
			}
			seen[role] = true
			roles = append(roles, role)
		}
	}

	if realm, ok := raw["realm_access"].(map[string]any); ok {
		appendRoles(realm["roles"])
	}
	if resources, ok := raw["resource_access"].(map[string]any); ok {
		for _, client := range resources {
			if access, ok := client.(map[string]any); ok {
				appendRoles(access["roles"])
			}
		}
	}

	return roles
}

// ExtractOrganizationIDs reads the organization membership claim, which
// providers deliver as an array, a comma-delimited string, or not at all.
func ExtractOrganizationIDs(raw map[string]any, claim string) []string {
	value, ok := raw[claim]
	if !ok || value == nil {
		return []string{}
	}

	switch v := value.(type) {
	case []any:
		ids := make([]string, 0, len(v))
		for _, item := range v {
			if id, ok := item.(string); ok {
				ids = append(ids, id)
			}
		}
		return ids
	case []string:
		return v
	case string:
		parts := strings.Split(v, ",")
		ids := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				ids = append(ids, trimmed)
			}
		}
		return ids
	default:
		return []string{}
	}
}

// MapClaimsToIdentity builds a full normalized Identity from raw
// userinfo/introspection claims.
func MapClaimsToIdentity(raw map[string]any, cfg model.AttributeConfig) *model.Identity {
	identity := &model.Identity{
		Sub:               stringClaim(raw, "sub"),
		Email:             stringClaim(raw, "email"),
		GivenName:         stringClaim(raw, "given_name"),
		FamilyName:        stringClaim(raw, "family_name"),
		PreferredUsername: stringClaim(raw, "preferred_username"),
		Roles:             ExtractRoles(raw),
		OrganizationIDs:   ExtractOrganizationIDs(raw, cfg.OrganizationIDsClaim),
		State:             stringClaim(raw, "user_state"),
		Attributes:        MapAttributes(raw, cfg),
	}
	if identity.State == "" {
		identity.State = "ACTIVE"
	}

	if realm, ok := raw["realm_access"].(map[string]any); ok {
		ra := &model.RealmAccess{}
		if items, ok := realm["roles"].([]any); ok {
			for _, item := range items {
				if role, ok := item.(string); ok {
					ra.Roles = append(ra.Roles, role)
				}
			}
		}
		identity.RealmAccess = ra
	}
	if resources, ok := raw["resource_access"].(map[string]any); ok {
		identity.ResourceAccess = make(map[string]model.ResourceAccess, len(resources))
		for client, access := range resources {
			entry := model.ResourceAccess{}
			if m, ok := access.(map[string]any); ok {
				if items, ok := m["roles"].([]any); ok {
					for _, item := range items {
						if role, ok := item.(string); ok {
							entry.Roles = append(entry.Roles, role)
						}
					}
				}
			}
			identity.ResourceAccess[client] = entry
		}
	}

	return identity
}

func collapseSingleton(value any) any {
	switch v := value.(type) {
	case []any:
		if len(v) == 1 {
			return v[0]
		}
	case []string:
		if len(v) == 1 {
			return v[0]
		}
	}
	return value
}

func coerceInt(value any) any {
	switch v := value.(type) {
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	case float64:
		return int(v)
	}
	return value
}

func toInt(value any) int {
	switch v := value.(type) {
	case int:
		return v
	case float64:
		return int(v)
	case string:
		n, _ := strconv.Atoi(v)
		return n
	}
	return 0
}

func stringClaim(raw map[string]any, name string) string {
	s, _ := raw[name].(string)
	return s
}
