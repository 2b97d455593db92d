package service

import (
	"cnpjapi/cmd/internal/contract"
	"cnpjapi/cmd/internal/domain/entity"
	"cnpjapi/cmd/internal/infrastructure/opencnpj"
	"cnpjapi/cmd/internal/utils"
	"encoding/json"
	"fmt"
	"time"

	"github.com/labstack/gommon/log"
	"gorm.io/datatypes"
)

// toCompanyRow maps an OpenCNPJ payload into a companies row. It fails
// only when the payload CNPJ does not normalize to 14 digits.
func toCompanyRow(c *opencnpj.Company) (*entity.Company, error) {
	cnpj, err := utils.NormalizeCNPJ(c.CNPJ)
	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("serializing raw payload: %w", err)
	}

	return &entity.Company{
		CNPJ:                  cnpj,
		RazaoSocial:           nullString(c.RazaoSocial),
		NomeFantasia:          nullString(c.NomeFantasia),
		SituacaoCadastral:     nullString(c.SituacaoCadastral),
		DataSituacaoCadastral: toDate(c.DataSituacaoCadastral),
		MatrizFilial:          nullString(c.MatrizFilial),
		DataInicioAtividade:   toDate(c.DataInicioAtividade),
		CnaePrincipalCode:     nullString(c.CnaePrincipal),
		CnaesSecundarios:      listColumn(c.CnaesSecundarios),
		CnaesSecundariosCount: nullInt(c.CnaesSecundariosCount),
		NaturezaJuridica:      nullString(c.NaturezaJuridica),
		Logradouro:            nullString(c.Logradouro),
		Numero:                nullString(c.Numero),
		Complemento:           nullString(c.Complemento),
		Bairro:                nullString(c.Bairro),
		Cep:                   utils.NormalizePostalCode(c.Cep),
		Uf:                    nullString(c.Uf),
		Municipio:             nullString(c.Municipio),
		Email:                 nullString(c.Email),
		Telefones:             listColumn(c.Telefones),
		CapitalSocial:         c.CapitalSocial,
		PorteEmpresa:          nullString(c.PorteEmpresa),
		OpcaoSimples:          nullString(c.OpcaoSimples),
		DataOpcaoSimples:      toDate(c.DataOpcaoSimples),
		OpcaoMei:              nullString(c.OpcaoMei),
		DataOpcaoMei:          toDate(c.DataOpcaoMei),
		Qsa:                   listColumn(c.QSA),
		Raw:                   datatypes.JSON(raw),
	}, nil
}

// toCompanyResp maps a row back for the API. Malformed list columns are
// logged and returned as null instead of failing the whole row.
func toCompanyResp(c *entity.Company) *contract.CompanyResponse {
	return &contract.CompanyResponse{
		ID:                    c.ID,
		CNPJ:                  c.CNPJ,
		RazaoSocial:           c.RazaoSocial,
		NomeFantasia:          c.NomeFantasia,
		SituacaoCadastral:     c.SituacaoCadastral,
		DataSituacaoCadastral: formatDate(c.DataSituacaoCadastral),
		MatrizFilial:          c.MatrizFilial,
		DataInicioAtividade:   formatDate(c.DataInicioAtividade),
		CnaePrincipalCode:     c.CnaePrincipalCode,
		CnaesSecundarios:      listValue(c.CNPJ, "cnaes_secundarios", c.CnaesSecundarios),
		CnaesSecundariosCount: c.CnaesSecundariosCount,
		NaturezaJuridica:      c.NaturezaJuridica,
		Logradouro:            c.Logradouro,
		Numero:                c.Numero,
		Complemento:           c.Complemento,
		Bairro:                c.Bairro,
		Cep:                   c.Cep,
		Uf:                    c.Uf,
		Municipio:             c.Municipio,
		Email:                 c.Email,
		Telefones:             listValue(c.CNPJ, "telefones", c.Telefones),
		CapitalSocial:         c.CapitalSocial,
		PorteEmpresa:          c.PorteEmpresa,
		OpcaoSimples:          c.OpcaoSimples,
		DataOpcaoSimples:      formatDate(c.DataOpcaoSimples),
		OpcaoMei:              c.OpcaoMei,
		DataOpcaoMei:          formatDate(c.DataOpcaoMei),
		Qsa:                   listValue(c.CNPJ, "qsa", c.Qsa),
		CreatedAt:             c.CreatedAt,
		UpdatedAt:             c.UpdatedAt,
	}
}

func toCompaniesResp(rows []*entity.Company) []*contract.CompanyResponse {
	companies := make([]*contract.CompanyResponse, len(rows))
	for i, row := range rows {
		companies[i] = toCompanyResp(row)
	}
	return companies
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nullInt(n int) *int {
	if n == 0 {
		return nil
	}
	return &n
}

func toDate(s string) *datatypes.Date {
	t := utils.ParseISODate(s)
	if t == nil {
		return nil
	}
	d := datatypes.Date(*t)
	return &d
}

func formatDate(d *datatypes.Date) *string {
	if d == nil {
		return nil
	}
	s := time.Time(*d).UTC().Format(time.DateOnly)
	return &s
}

// listColumn stores a list exactly as the provider sent it. A missing list
// stays null and an empty one stays "[]".
func listColumn(list json.RawMessage) *string {
	if list == nil {
		return nil
	}
	s := string(list)
	return &s
}

func listValue(cnpj, column string, text *string) json.RawMessage {
	if text == nil || *text == "" {
		return nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal([]byte(*text), &items); err != nil {
		log.Warnf("malformed %s for company %s, returning null: %v", column, cnpj, err)
		return nil
	}
	return json.RawMessage(*text)
}
