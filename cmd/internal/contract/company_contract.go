package contract

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type CreateCompanyRequest struct {
	CNPJ string `json:"cnpj" validate:"required,hasdigit"`
}

// ListCompaniesQuery holds the raw query string values, numbers are only
// parsed once they are known to be plain digits.
type ListCompaniesQuery struct {
	Search   string `query:"search"`
	Page     string `query:"page" validate:"omitempty,number"`
	PageSize string `query:"pageSize" validate:"omitempty,number"`
}

type ListCompaniesRequest struct {
	Search   string `json:"search"`
	Page     int    `json:"page" validate:"min=1"`
	PageSize int    `json:"pageSize" validate:"min=1,max=100"`
}

// CompanyResponse is a persisted company as returned by the API. The raw
// provider payload is never exposed here.
type CompanyResponse struct {
	ID                    int64               `json:"id"`
	CNPJ                  string              `json:"cnpj"`
	RazaoSocial           *string             `json:"razao_social"`
	NomeFantasia          *string             `json:"nome_fantasia"`
	SituacaoCadastral     *string             `json:"situacao_cadastral"`
	DataSituacaoCadastral *string             `json:"data_situacao_cadastral"`
	MatrizFilial          *string             `json:"matriz_filial"`
	DataInicioAtividade   *string             `json:"data_inicio_atividade"`
	CnaePrincipalCode     *string             `json:"cnae_principal_code"`
	CnaesSecundarios      json.RawMessage     `json:"cnaes_secundarios"`
	CnaesSecundariosCount *int                `json:"cnaes_secundarios_count"`
	NaturezaJuridica      *string             `json:"natureza_juridica"`
	Logradouro            *string             `json:"logradouro"`
	Numero                *string             `json:"numero"`
	Complemento           *string             `json:"complemento"`
	Bairro                *string             `json:"bairro"`
	Cep                   *string             `json:"cep"`
	Uf                    *string             `json:"uf"`
	Municipio             *string             `json:"municipio"`
	Email                 *string             `json:"email"`
	Telefones             json.RawMessage     `json:"telefones"`
	CapitalSocial         decimal.NullDecimal `json:"capital_social"`
	PorteEmpresa          *string             `json:"porte_empresa"`
	OpcaoSimples          *string             `json:"opcao_simples"`
	DataOpcaoSimples      *string             `json:"data_opcao_simples"`
	OpcaoMei              *string             `json:"opcao_mei"`
	DataOpcaoMei          *string             `json:"data_opcao_mei"`
	Qsa                   json.RawMessage     `json:"qsa"`
	CreatedAt             time.Time           `json:"created_at"`
	UpdatedAt             time.Time           `json:"updated_at"`
}

type CompanyPageResponse struct {
	Total    int64              `json:"total"`
	Page     int                `json:"page"`
	PageSize int                `json:"pageSize"`
	Data     []*CompanyResponse `json:"data"`
}
