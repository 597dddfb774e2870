// util/validation_util.go

package util

import (
	"fmt"

	"github.com/smplabs/warden/model"
)

type ValidationUtil struct{}

func NewValidationUtil() *ValidationUtil {
	return &ValidationUtil{}
}

func (v *ValidationUtil) ValidateAuthorizationInput(input model.AuthorizationInput) error {
	if input.Resource.ID == "" {
		return fmt.Errorf("resource id cannot be empty")
	}
	if input.Resource.Type == "" {
		return fmt.Errorf("resource type cannot be empty")
	}
	if input.Action == "" {
		return fmt.Errorf("action cannot be empty")
	}
	return nil
}

func (v *ValidationUtil) ValidateUserRecord(user model.UserRecord) error {
	if user.Username == "" {
		return fmt.Errorf("username cannot be empty")
	}
	if user.Email == "" {
		return fmt.Errorf("email cannot be empty")
	}
	return nil
}

func (v *ValidationUtil) ValidateCredentials(username, password string) error {
	if username == "" {
		return fmt.Errorf("username cannot be empty")
	}
	if password == "" {
		return fmt.Errorf("password cannot be empty")
	}
	return nil
}

func (v *ValidationUtil) ValidatePolicyUpload(policyID, content string) error {
	if policyID == "" {
		return fmt.Errorf("policy id cannot be empty")
	}
	if content == "" {
		return fmt.Errorf("policy content cannot be empty")
	}
	return nil
}
