// controller/controllers.go
package controller

import (
	"github.com/smplabs/warden/audit"
	"github.com/smplabs/warden/idp"
	"github.com/smplabs/warden/service"
	"github.com/smplabs/warden/util"
)

type Controllers struct {
	Auth   *AuthController
	Authz  *AuthorizationController
	Event  *EventController
	Policy *PolicyController
	User   *UserController
}

func InitializeControllers(services *service.Services, auditService audit.Service, provider idp.ExtendedClient, validation *util.ValidationUtil) *Controllers {
	return &Controllers{
		Auth:   NewAuthController(services.Auth),
		Authz:  NewAuthorizationController(services.Authz),
		Event:  NewEventController(auditService),
		Policy: NewPolicyController(services.Authz),
		User:   NewUserController(provider, validation),
	}
}
