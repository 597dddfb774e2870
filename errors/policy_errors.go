// errors/policy_errors.go
package errors

import "errors"

var (
	ErrPolicyNotFound    = errors.New("policy not found")
	ErrPolicyEvaluation  = errors.New("policy evaluation failed")
	ErrPolicyEngine      = errors.New("policy engine unavailable")
	ErrInvalidPolicyData = errors.New("invalid policy data")
)
