package router

import (
	"github.com/campuskit/campus-api/internal/application"
	"github.com/campuskit/campus-api/internal/container"
	pginfra "github.com/campuskit/campus-api/internal/infrastructure/postgres"
	handlers "github.com/campuskit/campus-api/internal/interface/http"
	"github.com/campuskit/campus-api/internal/router/modules"
	"github.com/campuskit/campus-api/pkg/credential"
)

type Deps struct {
	Accounts *application.AccountService
	Auth     *application.AuthService

	AuthHandler  *handlers.AuthHandler
	UserHandler  *handlers.UserHandler
	AdminHandler *handlers.AdminHandler
}

func buildDeps() Deps {
	cfg := container.GetConfig()
	pool := container.GetPGPool()

	users := pginfra.NewUserRepository(pool)
	tokens := pginfra.NewTokenRepository(pool)

	hasher := credential.NewHasher(cfg.PasswordPepper, cfg.BcryptCost)

	accounts := &application.AccountService{
		Users:           users,
		Tokens:          tokens,
		Hasher:          hasher,
		ActivationOTP:   credential.NewOTPIssuer(cfg.OTPSecret, cfg.OTPLength, cfg.OTPTTL),
		ResetOTP:        credential.NewOTPIssuer(cfg.OTPSecret, cfg.OTPLength, cfg.ResetOTPTTL),
		RequireApproval: cfg.RequireApproval,
		ProfileFirst:    cfg.ProfileFirst,
		Pub:             container.GetRabbitPub(),
		MailEnabled:     cfg.MailSendEnabled,
		SchoolName:      cfg.SchoolName,
		SupportURL:      cfg.SupportURL,
		Logger:          container.GetLogger(),
		ES:              container.GetES(),
		ESUsersIndex:    cfg.ESUsersIndex,
	}

	auth := &application.AuthService{
		Users:     users,
		Hasher:    hasher,
		JWT:       container.GetJWT(),
		Redis:     container.GetRedis(),
		GCS:       container.GetGCS(),
		GCSBucket: cfg.GCSBucket,
		Logger:    container.GetLogger(),
	}

	return Deps{
		Accounts: accounts,
		Auth:     auth,

		AuthHandler:  handlers.NewAuthHandler(accounts, auth, container.GetLogger(), cfg.CookieDomain, cfg.CookieSecure),
		UserHandler:  handlers.NewUserHandler(accounts, auth, container.GetLogger()),
		AdminHandler: handlers.NewAdminHandler(accounts, container.GetLogger()),
	}
}

// InitModules wires all feature modules into the router registry. Call once
// during startup, after the container singletons are set.
func InitModules(r *Registry) {
	deps := buildDeps()

	r.Add(modules.NewAuthModule(deps.AuthHandler))
	r.Add(modules.NewUserModule(deps.AuthHandler, deps.UserHandler, container.GetJWT()))
	r.Add(modules.NewAdminModule(deps.AdminHandler, container.GetJWT()))
	if container.GetConfig().DebugMetricsEnabled {
		r.Add(modules.NewDebugModule())
	}
}
