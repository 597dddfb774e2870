// model/access.go
package model

// AuthorizationInput is the canonical request shape submitted to the
// policy engine. Inputs are never mutated in place; enrichment builds
// copies via Enrich.
type AuthorizationInput struct {
	User     SubjectInput   `json:"user"`
	Resource ResourceInput  `json:"resource"`
	Action   string         `json:"action"`
	Context  map[string]any `json:"context,omitempty"`
}

type SubjectInput struct {
	ID              string         `json:"id"`
	Roles           []string       `json:"roles"`
	OrganizationIDs []string       `json:"organization_ids,omitempty"`
	Attributes      map[string]any `json:"attributes,omitempty"`
}

type ResourceInput struct {
	ID             string         `json:"id"`
	Type           string         `json:"type"`
	OwnerID        string         `json:"owner_id,omitempty"`
	OrganizationID string         `json:"organization_id,omitempty"`
	Attributes     map[string]any `json:"attributes,omitempty"`
}

// Enrich returns a copy of the input with the resolved identity merged in.
// Caller-supplied user attributes take precedence over identity attributes
// on conflict; identity fields fill only what the caller left empty.
func (in AuthorizationInput) Enrich(identity *Identity) AuthorizationInput {
	out := in
	if identity == nil {
		return out
	}

	if out.User.ID == "" {
		out.User.ID = identity.Sub
	}
	if len(out.User.Roles) == 0 {
		out.User.Roles = append([]string(nil), identity.Roles...)
	}
	if len(out.User.OrganizationIDs) == 0 {
		out.User.OrganizationIDs = append([]string(nil), identity.OrganizationIDs...)
	}

	merged := identity.Attributes.Flatten()
	for k, v := range in.User.Attributes {
		merged[k] = v
	}
	out.User.Attributes = merged

	return out
}

// Decision is the terminal authorization value: cached and logged
// verbatim. A deny produced by infrastructure failure is shaped exactly
// like a legitimate deny; Reason is diagnostic only.
type Decision struct {
	Allow  bool   `json:"allow"`
	Reason string `json:"reason,omitempty"`
}
