package internal

import (
	"net/http"

	"dmr/internal/controllers"
	"dmr/internal/providers"
)

func InitRoutes(progressController *controllers.ProgressController) providers.RouterProviderInterface {
	routers := providers.NewRouterProvider()

	routers.Get("/progress", http.HandlerFunc(progressController.GetProgress))
	routers.Get("/checkpoint", http.HandlerFunc(progressController.GetCheckpoint))
	return routers
}
