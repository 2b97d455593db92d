package opencnpj

import (
	"bytes"
	"cnpjapi/cmd/internal/utils"
	"encoding/json"
	"errors"
	"maps"

	"github.com/shopspring/decimal"
)

const normalizedCNPJKey = "cnpj_normalizado"

var errNotAnObject = errors.New("opencnpj: payload is not a JSON object")

// Company is the OpenCNPJ payload for a single CNPJ. Known fields are
// decoded for mapping; the full document is kept so the payload can be
// served and archived verbatim, unknown fields included.
//
// Decoding is lenient: a field holding an unexpected JSON type decodes to
// its zero value instead of failing the whole payload. List fields are
// kept as the raw JSON array sent by the provider.
type Company struct {
	CNPJ                  string              `json:"cnpj"`
	RazaoSocial           string              `json:"razao_social"`
	NomeFantasia          string              `json:"nome_fantasia"`
	SituacaoCadastral     string              `json:"situacao_cadastral"`
	DataSituacaoCadastral string              `json:"data_situacao_cadastral"`
	MatrizFilial          string              `json:"matriz_filial"`
	DataInicioAtividade   string              `json:"data_inicio_atividade"`
	CnaePrincipal         string              `json:"cnae_principal"`
	CnaesSecundarios      json.RawMessage     `json:"cnaes_secundarios"`
	CnaesSecundariosCount int                 `json:"cnaes_secundarios_count"`
	NaturezaJuridica      string              `json:"natureza_juridica"`
	Logradouro            string              `json:"logradouro"`
	Numero                string              `json:"numero"`
	Complemento           string              `json:"complemento"`
	Bairro                string              `json:"bairro"`
	Cep                   string              `json:"cep"`
	Uf                    string              `json:"uf"`
	Municipio             string              `json:"municipio"`
	Email                 string              `json:"email"`
	Telefones             json.RawMessage     `json:"telefones"`
	CapitalSocial         decimal.NullDecimal `json:"capital_social"`
	PorteEmpresa          string              `json:"porte_empresa"`
	OpcaoSimples          string              `json:"opcao_simples"`
	DataOpcaoSimples      string              `json:"data_opcao_simples"`
	OpcaoMei              string              `json:"opcao_mei"`
	DataOpcaoMei          string              `json:"data_opcao_mei"`
	QSA                   json.RawMessage     `json:"QSA"`

	// NormalizedCNPJ is not sent by the provider, the client fills it with
	// the requested CNPJ padded to 14 digits.
	NormalizedCNPJ string `json:"cnpj_normalizado"`

	document map[string]json.RawMessage
}

func (c *Company) UnmarshalJSON(data []byte) error {
	var document map[string]json.RawMessage
	if err := json.Unmarshal(data, &document); err != nil {
		return err
	}
	if document == nil {
		return errNotAnObject
	}

	*c = Company{
		CNPJ:                  text(document["cnpj"]),
		RazaoSocial:           text(document["razao_social"]),
		NomeFantasia:          text(document["nome_fantasia"]),
		SituacaoCadastral:     text(document["situacao_cadastral"]),
		DataSituacaoCadastral: text(document["data_situacao_cadastral"]),
		MatrizFilial:          text(document["matriz_filial"]),
		DataInicioAtividade:   text(document["data_inicio_atividade"]),
		CnaePrincipal:         text(document["cnae_principal"]),
		CnaesSecundarios:      array(document["cnaes_secundarios"]),
		CnaesSecundariosCount: count(document["cnaes_secundarios_count"]),
		NaturezaJuridica:      text(document["natureza_juridica"]),
		Logradouro:            text(document["logradouro"]),
		Numero:                text(document["numero"]),
		Complemento:           text(document["complemento"]),
		Bairro:                text(document["bairro"]),
		Cep:                   text(document["cep"]),
		Uf:                    text(document["uf"]),
		Municipio:             text(document["municipio"]),
		Email:                 text(document["email"]),
		Telefones:             array(document["telefones"]),
		CapitalSocial:         amount(document["capital_social"]),
		PorteEmpresa:          text(document["porte_empresa"]),
		OpcaoSimples:          text(document["opcao_simples"]),
		DataOpcaoSimples:      text(document["data_opcao_simples"]),
		OpcaoMei:              text(document["opcao_mei"]),
		DataOpcaoMei:          text(document["data_opcao_mei"]),
		QSA:                   array(document["QSA"]),
		NormalizedCNPJ:        text(document[normalizedCNPJKey]),
		document:              document,
	}
	return nil
}

// MarshalJSON writes the document as received, with cnpj_normalizado set.
// Values built in code (no received document) are written from the fields.
func (c Company) MarshalJSON() ([]byte, error) {
	if c.document == nil {
		type alias Company
		return json.Marshal(alias(c))
	}

	normalized, err := json.Marshal(c.NormalizedCNPJ)
	if err != nil {
		return nil, err
	}

	document := make(map[string]json.RawMessage, len(c.document)+1)
	maps.Copy(document, c.document)
	document[normalizedCNPJKey] = normalized
	return json.Marshal(document)
}

// text accepts a string or a number, anything else reads as "".
func text(raw json.RawMessage) string {
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	var n json.Number
	if json.Unmarshal(raw, &n) == nil {
		return n.String()
	}
	return ""
}

// count accepts an integer or a string holding one.
func count(raw json.RawMessage) int {
	var n json.Number
	if json.Unmarshal(raw, &n) != nil || n == "" {
		return 0
	}
	i, err := n.Int64()
	if err != nil {
		return 0
	}
	return int(i)
}

// amount parses capital_social, sent as "1.234,56" but sometimes as a
// plain JSON number.
func amount(raw json.RawMessage) decimal.NullDecimal {
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return utils.ParseLocalCurrency(s)
	}
	var n json.Number
	if json.Unmarshal(raw, &n) == nil && n != "" {
		if d, err := decimal.NewFromString(n.String()); err == nil {
			return decimal.NewNullDecimal(d)
		}
	}
	return decimal.NullDecimal{}
}

// array keeps a JSON array as sent, without its insignificant whitespace.
// Missing, null and non array values read as nil.
func array(raw json.RawMessage) json.RawMessage {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '[' {
		return nil
	}
	var compact bytes.Buffer
	if err := json.Compact(&compact, raw); err != nil {
		return nil
	}
	return compact.Bytes()
}
