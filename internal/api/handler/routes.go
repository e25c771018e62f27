package handler

import (
	"net/http"

	jsoniter "github.com/json-iterator/go"

	"github.com/adstation/campaign-manager-api/infrastructure/repository"
	"github.com/adstation/campaign-manager-api/internal/api/handler/router"
	"github.com/adstation/campaign-manager-api/internal/usecases/authenticating"
	"github.com/adstation/campaign-manager-api/internal/usecases/reporting"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func Healthcheck() []router.Route {
	return []router.Route{
		{
			Path:    "/healthcheck",
			Method:  http.MethodGet,
			Handler: HealthcheckHandler(),
		},
	}
}

func Authentication(service authenticating.Authenticator) []router.Route {
	return []router.Route{
		{
			Path:    "/v1/login",
			Method:  http.MethodPost,
			Handler: Login(service),
		},
		{
			Path:    "/v1/me",
			Method:  http.MethodGet,
			Handler: GetMe(service),
		},
	}
}

func Accounts(repo repository.AccountRepository) []router.Route {
	return []router.Route{
		{
			Path:    "/v1/accounts",
			Method:  http.MethodGet,
			Handler: ListAccounts(repo),
		},
	}
}

func Reports(engine *reporting.Engine) []router.Route {
	return []router.Route{
		{
			Path:    "/v1/accounts/:id/report",
			Method:  http.MethodGet,
			Handler: GetAccountReport(engine),
		},
	}
}

func CatalogEntities(catalog *reporting.CatalogStore, accountRepo repository.AccountRepository) []router.Route {
	return []router.Route{
		{
			Path:    "/v1/accounts/:id/entities",
			Method:  http.MethodGet,
			Handler: ListCatalogEntities(catalog, accountRepo),
		},
	}
}

func StatusToggles(toggler *reporting.Toggler, accountRepo repository.AccountRepository) []router.Route {
	return []router.Route{
		{
			Path:    "/v1/accounts/:id/entities/:entity_id/status",
			Method:  http.MethodPost,
			Handler: ToggleEntityStatus(toggler, accountRepo),
		},
	}
}

func CronJobs(services CronJobServices) []router.Route {
	return []router.Route{
		{
			Path:    "/v1/cron/:type/run",
			Method:  http.MethodPost,
			Handler: RunCronJob(services),
		},
		{
			Path:    "/v1/cron/status",
			Method:  http.MethodGet,
			Handler: GetCronStatus(services),
		},
	}
}
