// Package domain holds the snapshots a business document is rendered from.
package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	linedomain "github.com/smallbiznis/fiberdesk/internal/invoiceline/domain"
)

var (
	ErrInvalidDocumentType = errors.New("invalid_document_type")
	ErrInvalidDocument     = errors.New("invalid_document")
)

// Type is one of the five document variants.
type Type string

const (
	TypePurchaseOrder   Type = "purchase_order"
	TypeInvoice         Type = "invoice"
	TypeProformaInvoice Type = "proforma_invoice"
	TypeDepositReceipt  Type = "deposit_receipt"
	TypeDeliveryNote    Type = "delivery_note"
)

// Types lists every variant in presentation order.
func Types() []Type {
	return []Type{
		TypePurchaseOrder,
		TypeInvoice,
		TypeProformaInvoice,
		TypeDepositReceipt,
		TypeDeliveryNote,
	}
}

func ParseType(raw string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(raw)))
	if t.Valid() {
		return t, nil
	}
	return "", ErrInvalidDocumentType
}

func (t Type) Valid() bool {
	switch t {
	case TypePurchaseOrder, TypeInvoice, TypeProformaInvoice, TypeDepositReceipt, TypeDeliveryNote:
		return true
	default:
		return false
	}
}

// Prefix is the document number prefix for the variant.
func (t Type) Prefix() string {
	switch t {
	case TypePurchaseOrder:
		return "BC"
	case TypeInvoice:
		return "FA"
	case TypeProformaInvoice:
		return "FP"
	case TypeDepositReceipt:
		return "RV"
	case TypeDeliveryNote:
		return "BL"
	default:
		return "DOC"
	}
}

// Title is the heading printed under the header band.
func (t Type) Title() string {
	switch t {
	case TypePurchaseOrder:
		return "BON DE COMMANDE"
	case TypeInvoice:
		return "FACTURE"
	case TypeProformaInvoice:
		return "FACTURE PROFORMA"
	case TypeDepositReceipt:
		return "REÇU DE VERSEMENT"
	case TypeDeliveryNote:
		return "BON DE LIVRAISON"
	default:
		return strings.ToUpper(string(t))
	}
}

// Invoice is the invoice snapshot shared by every variant.
type Invoice struct {
	Number         string            `json:"number" yaml:"number"`
	Date           time.Time         `json:"date" yaml:"date"`
	Lines          []linedomain.Line `json:"lines" yaml:"lines" validate:"dive"`
	TaxRatePercent decimal.Decimal   `json:"tax_rate" yaml:"tax_rate"`
	DepositAmount  decimal.Decimal   `json:"deposit_amount" yaml:"deposit_amount"`
	DepositDate    *time.Time        `json:"deposit_date,omitempty" yaml:"deposit_date,omitempty"`
	Total          *decimal.Decimal  `json:"total,omitempty" yaml:"total,omitempty"`
}

// Client is the customer snapshot. Empty fields are never printed.
type Client struct {
	Name          string `json:"name" yaml:"name"`
	Address       string `json:"address" yaml:"address"`
	Phone         string `json:"phone" yaml:"phone"`
	Email         string `json:"email" yaml:"email"`
	RegistryNo    string `json:"registry_no" yaml:"registry_no"`
	TaxID         string `json:"tax_id" yaml:"tax_id"`
	StatisticalID string `json:"statistical_id" yaml:"statistical_id"`
	ArticleNo     string `json:"article_no" yaml:"article_no"`
	BankAccount   string `json:"bank_account" yaml:"bank_account"`
}

type Project struct {
	Name      string `json:"name" yaml:"name"`
	Reference string `json:"reference" yaml:"reference"`
	Address   string `json:"address" yaml:"address"`
}

// Company is the issuer identity printed in headers and footers.
type Company struct {
	Name          string
	Activity      string
	Address       string
	Phone         string
	Email         string
	Website       string
	RegistryNo    string
	TaxID         string
	StatisticalID string
	ArticleNo     string
	BankAccount   string
	Footer        string
	LogoPath      string
}

// Currency names the units used in amounts and in words.
type Currency struct {
	Code    string
	Unit    string
	Subunit string
}

// Request is one render call.
type Request struct {
	Type      Type    `json:"type" yaml:"type"`
	Invoice   Invoice `json:"invoice" yaml:"invoice"`
	Client    Client  `json:"client" yaml:"client"`
	Project   Project `json:"project" yaml:"project"`
	ProjectID string  `json:"project_id,omitempty" yaml:"project_id,omitempty"`
}

var validate = validator.New()

func (r Request) Validate() error {
	if !r.Type.Valid() {
		return ErrInvalidDocumentType
	}
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if r.Invoice.TaxRatePercent.IsNegative() || r.Invoice.DepositAmount.IsNegative() {
		return fmt.Errorf("%w: negative amount", ErrInvalidDocument)
	}
	return nil
}

// Document is a rendered file. Nothing about it is retained after delivery.
type Document struct {
	Type        Type
	Number      string
	FileName    string
	ContentType string
	Bytes       []byte
	Pages       int
	TotalsMode  string
}
