package handler

import (
	"cnpjapi/cmd/internal/contract"
	"cnpjapi/cmd/internal/infrastructure/opencnpj"
	"cnpjapi/cmd/internal/utils/apierror"
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

type CompanyService interface {
	LookupCNPJ(ctx context.Context, cnpj string) (*opencnpj.Company, error)
	SaveCompany(ctx context.Context, req *contract.CreateCompanyRequest) (*contract.CompanyResponse, error)
	ListCompanies(ctx context.Context, query *contract.ListCompaniesQuery) (*contract.CompanyPageResponse, error)
}

// DefaultCompanyRoute never writes error bodies itself, failures are
// returned to the echo error handler.
type DefaultCompanyRoute struct {
	CompanyService CompanyService
}

func NewCompanyRoute(companyService CompanyService) *DefaultCompanyRoute {
	return &DefaultCompanyRoute{CompanyService: companyService}
}

func (r *DefaultCompanyRoute) LookupCNPJ(c echo.Context) error {
	cnpj := strings.TrimSpace(c.Param("cnpj"))

	company, err := r.CompanyService.LookupCNPJ(c.Request().Context(), cnpj)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, company)
}

func (r *DefaultCompanyRoute) CreateCompany(c echo.Context) error {
	var req contract.CreateCompanyRequest
	if err := c.Bind(&req); err != nil {
		return apierror.MalformedJSONError
	}

	company, err := r.CompanyService.SaveCompany(c.Request().Context(), &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, company)
}

func (r *DefaultCompanyRoute) ListCompanies(c echo.Context) error {
	var query contract.ListCompaniesQuery
	if err := c.Bind(&query); err != nil {
		return apierror.InvalidDataError.WithDetails("malformed query string")
	}

	page, err := r.CompanyService.ListCompanies(c.Request().Context(), &query)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}
