package routes

import (
	"cnpjapi/cmd/internal/http/handler"
	appmiddleware "cnpjapi/cmd/internal/http/middleware"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const DefaultBodyLimit = "1M"

// NewServer builds the echo instance with the middleware chain every route
// shares. Unknown routes fall through to echo's not found error, which the
// error handler turns into the route not found body.
func NewServer(bodyLimit string) *echo.Echo {
	if bodyLimit == "" {
		bodyLimit = DefaultBodyLimit
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = appmiddleware.ErrorHandler

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(appmiddleware.RequestLogger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		// Reflects the caller origin, a literal "*" is not allowed with credentials
		AllowOriginFunc: func(string) (bool, error) {
			return true, nil
		},
		AllowCredentials: true,
	}))
	e.Use(middleware.BodyLimit(bodyLimit))

	return e
}

func Register(e *echo.Echo, companies *handler.DefaultCompanyRoute, health *handler.DefaultHealthRoute) {
	// Health
	e.GET("/", health.Status)
	e.GET("/health", health.Liveness)
	e.GET("/health/provider", health.Provider)

	// Lookup only
	e.GET("/cnpj/:cnpj", companies.LookupCNPJ)

	// Persisted companies
	e.POST("/companies", companies.CreateCompany)
	e.GET("/companies", companies.ListCompanies)
}
