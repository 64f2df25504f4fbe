package internal

import (
	"net/http"

	"quotad/internal/controllers"
	"quotad/internal/providers"
)

const apiPrefix = "/v1/usage/"

func InitRoutes(usageController *controllers.UsageController) providers.RouterProviderInterface {
	routers := providers.NewRouterProvider()

	routers.Post(apiPrefix+"state", http.HandlerFunc(usageController.State))
	routers.Post(apiPrefix+"check", http.HandlerFunc(usageController.Check))
	routers.Post(apiPrefix+"convert", http.HandlerFunc(usageController.Convert))
	routers.Post(apiPrefix+"ad-reward", http.HandlerFunc(usageController.AdReward))
	routers.Post(apiPrefix+"register", http.HandlerFunc(usageController.Register))
	routers.Post(apiPrefix+"text", http.HandlerFunc(usageController.Text))
	routers.Post(apiPrefix+"reset", http.HandlerFunc(usageController.Reset))
	return routers
}
