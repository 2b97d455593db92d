package entity

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Company is a row of the companies table. List valued fields
// (CNAEs, phones and partners) are kept as serialized JSON text so a
// malformed value never prevents the rest of the row from loading.
type Company struct {
	ID                    int64   `gorm:"primaryKey;autoIncrement"`
	CNPJ                  string  `gorm:"column:cnpj;size:14;not null;uniqueIndex"`
	RazaoSocial           *string `gorm:"index"`
	NomeFantasia          *string
	SituacaoCadastral     *string
	DataSituacaoCadastral *datatypes.Date
	MatrizFilial          *string
	DataInicioAtividade   *datatypes.Date
	CnaePrincipalCode     *string
	CnaesSecundarios      *string `gorm:"type:text"`
	CnaesSecundariosCount *int
	NaturezaJuridica      *string
	Logradouro            *string
	Numero                *string
	Complemento           *string
	Bairro                *string
	Cep                   *string `gorm:"size:8"`
	Uf                    *string `gorm:"size:2"`
	Municipio             *string
	Email                 *string
	Telefones             *string             `gorm:"type:text"`
	CapitalSocial         decimal.NullDecimal `gorm:"type:numeric(18,2)"`
	PorteEmpresa          *string
	OpcaoSimples          *string
	DataOpcaoSimples      *datatypes.Date
	OpcaoMei              *string
	DataOpcaoMei          *datatypes.Date
	Qsa                   *string        `gorm:"type:text"`
	Raw                   datatypes.JSON `gorm:"not null"`

	// Both timestamps are assigned by the database, never by the application.
	CreatedAt time.Time `gorm:"<-:false;not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"<-:false;not null;default:CURRENT_TIMESTAMP;index"`
}

// UpdatableColumns are overwritten when an upsert hits an existing CNPJ.
var UpdatableColumns = []string{
	"razao_social",
	"nome_fantasia",
	"situacao_cadastral",
	"data_situacao_cadastral",
	"matriz_filial",
	"data_inicio_atividade",
	"cnae_principal_code",
	"cnaes_secundarios",
	"cnaes_secundarios_count",
	"natureza_juridica",
	"logradouro",
	"numero",
	"complemento",
	"bairro",
	"cep",
	"uf",
	"municipio",
	"email",
	"telefones",
	"capital_social",
	"porte_empresa",
	"opcao_simples",
	"data_opcao_simples",
	"opcao_mei",
	"data_opcao_mei",
	"qsa",
	"raw",
}
