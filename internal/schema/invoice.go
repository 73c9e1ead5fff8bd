package schema

import (
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/fileimport/internal/core"
)

// Invoice is one line of a tax or billing transaction report.
// Headers follow the Anrok and NetSuite export spellings.
type Invoice struct {
	ID           uuid.UUID       `header:"Transaction ID,Invoice ID"`
	CustomerName string          `header:"Customer name,Customer"`
	Amount       pgtype.Numeric  `header:"Invoice amount,Sales amount"`
	TaxAmount    *pgtype.Numeric `header:"Tax amount,Tax"`
	IssuedOn     pgtype.Date     `header:"Invoice date,Date"`
	Currency     string          `header:"Transaction currency"`
	Void         bool
}

func init() {
	core.RegisterType[Invoice]("invoice", "Invoices")
}
