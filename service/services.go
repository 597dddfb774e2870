// service/services.go
package service

import (
	"github.com/smplabs/warden/audit"
	"github.com/smplabs/warden/cache"
	"github.com/smplabs/warden/dao"
	"github.com/smplabs/warden/idp"
	"github.com/smplabs/warden/pdp"
	"github.com/smplabs/warden/util"
)

type Services struct {
	Auth  IAuthService
	Authz IAuthorizationService
}

func InitializeServices(
	provider idp.ExtendedClient,
	policy pdp.Client,
	cacheSvc cache.Service,
	userDAO dao.UserDAO,
	auditSvc audit.Service,
	validationUtil *util.ValidationUtil,
	eventBus *util.EventBus,
) *Services {
	authSvc := NewAuthService(provider, cacheSvc, userDAO, auditSvc, eventBus)
	return &Services{
		Auth:  authSvc,
		Authz: NewAuthorizationService(policy, cacheSvc, auditSvc, authSvc, validationUtil),
	}
}
