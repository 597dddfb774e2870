// idp/mapper_test.go
package idp

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/smplabs/warden/model"
)

func TestMapAttributes(t *testing.T) {
	cfg := model.DefaultAttributeConfig()

	t.Run("CoercesLevelClaimAndCollapsesSingletonArray", func(t *testing.T) {
		raw := map[string]any{
			"clearance_level": []any{"3"},
		}

		attrs := MapAttributes(raw, cfg)

		assert.Equal(t, 3, attrs.ClearanceLevel)
	})

	t.Run("CoercesScoreClaim", func(t *testing.T) {
		raw := map[string]any{
			"risk_score": "42",
		}

		attrs := MapAttributes(raw, cfg)

		assert.Equal(t, 42, attrs.RiskScore)
	})

	t.Run("AppliesRenameTable", func(t *testing.T) {
		raw := map[string]any{
			"job_title":     "Engineer",
			"business_unit": []any{"Platform"},
		}

		attrs := MapAttributes(raw, cfg)

		assert.Equal(t, "Engineer", attrs.JobTitle)
		assert.Equal(t, "Platform", attrs.BusinessUnit)
	})

	t.Run("PassesUnknownClaimsThroughUnchanged", func(t *testing.T) {
		raw := map[string]any{
			"favorite_editor": "vim",
		}

		attrs := MapAttributes(raw, cfg)

		assert.Equal(t, "vim", attrs.Extra["favorite_editor"])
	})

	t.Run("MappedOverflowKeepsNormalizedName", func(t *testing.T) {
		raw := map[string]any{
			"territorial_jurisdiction": []any{"EU"},
		}

		attrs := MapAttributes(raw, cfg)

		assert.Equal(t, "EU", attrs.Extra["territorialJurisdiction"])
	})

	t.Run("IgnoresProtocolClaims", func(t *testing.T) {
		raw := map[string]any{
			"sub":   "u1",
			"exp":   float64(1700000000),
			"scope": "openid",
		}

		attrs := MapAttributes(raw, cfg)

		assert.Empty(t, attrs.Extra["sub"])
		assert.NotContains(t, attrs.Extra, "exp")
		assert.NotContains(t, attrs.Extra, "scope")
	})
}

func TestExtractRoles(t *testing.T) {
	raw := map[string]any{
		"realm_access": map[string]any{
			"roles": []any{"USER", "ADMIN"},
		},
		"resource_access": map[string]any{
			"warden-client": map[string]any{
				"roles": []any{"ADMIN", "AUDITOR"},
			},
		},
	}

	roles := ExtractRoles(raw)

	assert.ElementsMatch(t, []string{"USER", "ADMIN", "AUDITOR"}, roles)
}

func TestExtractRoles_NoClaims(t *testing.T) {
	roles := ExtractRoles(map[string]any{})
	assert.Empty(t, roles)
}

func TestExtractOrganizationIDs(t *testing.T) {
	t.Run("Array", func(t *testing.T) {
		raw := map[string]any{"organization_ids": []any{"org1", "org2"}}
		assert.Equal(t, []string{"org1", "org2"}, ExtractOrganizationIDs(raw, "organization_ids"))
	})

	t.Run("CommaDelimitedString", func(t *testing.T) {
		raw := map[string]any{"organization_ids": "org1, org2 ,org3"}
		assert.Equal(t, []string{"org1", "org2", "org3"}, ExtractOrganizationIDs(raw, "organization_ids"))
	})

	t.Run("Absent", func(t *testing.T) {
		assert.Equal(t, []string{}, ExtractOrganizationIDs(map[string]any{}, "organization_ids"))
	})
}

func TestMapClaimsToIdentity(t *testing.T) {
	cfg := model.DefaultAttributeConfig()
	raw := map[string]any{
		"sub":                "user-123",
		"email":              "jo@example.com",
		"given_name":         "Jo",
		"family_name":        "Dune",
		"preferred_username": "jodune",
		"organization_ids":   []any{"org1"},
		"clearance_level":    []any{"2"},
		"realm_access": map[string]any{
			"roles": []any{"USER"},
		},
		"resource_access": map[string]any{
			"warden-client": map[string]any{"roles": []any{"VIEWER"}},
		},
	}

	identity := MapClaimsToIdentity(raw, cfg)

	assert.Equal(t, "user-123", identity.Sub)
	assert.Equal(t, "jodune", identity.PreferredUsername)
	assert.Equal(t, []string{"org1"}, identity.OrganizationIDs)
	assert.Equal(t, "ACTIVE", identity.State)
	assert.ElementsMatch(t, []string{"USER", "VIEWER"}, identity.Roles)
	assert.Equal(t, 2, identity.Attributes.ClearanceLevel)
	assert.Equal(t, []string{"VIEWER"}, identity.ResourceAccess["warden-client"].Roles)
	assert.Equal(t, []string{"USER"}, identity.RealmAccess.Roles)
}
