package fixtures

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"csd-portal/ops-portal/ops-portal-backend/internal/dashboard"
)

// =====================================================
// Enums and Constants
// =====================================================

// SettlementStatus represents the lifecycle state of a settlement instruction
type SettlementStatus string

const (
	SettlementStatusMatched  SettlementStatus = "Matched"
	SettlementStatusPending  SettlementStatus = "Pending"
	SettlementStatusSettled  SettlementStatus = "Settled"
	SettlementStatusFailed   SettlementStatus = "Failed"
	SettlementStatusRejected SettlementStatus = "Rejected"
)

// SettlementType represents how securities and cash move
type SettlementType string

const (
	SettlementTypeDVP SettlementType = "DVP"
	SettlementTypeFOP SettlementType = "FOP"
	SettlementTypeRVP SettlementType = "RVP"
)

// AuctionStatus represents the state of a primary market auction
type AuctionStatus string

const (
	AuctionStatusAnnounced AuctionStatus = "Announced"
	AuctionStatusOpen      AuctionStatus = "Open"
	AuctionStatusClosed    AuctionStatus = "Closed"
	AuctionStatusAllotted  AuctionStatus = "Allotted"
)

// ParticipantStatus represents the membership state of a participant
type ParticipantStatus string

const (
	ParticipantStatusActive    ParticipantStatus = "Active"
	ParticipantStatusPending   ParticipantStatus = "Pending"
	ParticipantStatusSuspended ParticipantStatus = "Suspended"
)

// =====================================================
// Records
// =====================================================

// Settlement is a settlement instruction
type Settlement struct {
	ID             uuid.UUID        `json:"id"`
	Reference      string           `json:"reference"`
	Status         SettlementStatus `json:"status"`
	Type           SettlementType   `json:"type"`
	ISIN           string           `json:"isin"`
	Participant    string           `json:"participant"`
	Counterparty   string           `json:"counterparty"`
	Amount         decimal.Decimal  `json:"amount"`
	Currency       string           `json:"currency"`
	TradeDate      time.Time        `json:"trade_date"`
	SettlementDate time.Time        `json:"settlement_date"`
}

// Field implements dashboard.Record
func (s Settlement) Field(key string) (any, bool) {
	switch key {
	case "id":
		return s.ID.String(), true
	case "reference":
		return s.Reference, true
	case "status":
		return string(s.Status), true
	case "type":
		return string(s.Type), true
	case "isin":
		return s.ISIN, true
	case "participant":
		return s.Participant, true
	case "counterparty":
		return s.Counterparty, true
	case "amount":
		return s.Amount, true
	case "currency":
		return s.Currency, true
	case "trade_date":
		return s.TradeDate, true
	case "settlement_date":
		return s.SettlementDate, true
	}
	return nil, false
}

// SettlementSchema lists the fields a Settlement exposes
var SettlementSchema = dashboard.NewSchema(
	dashboard.FieldSchema{Name: "id", Type: dashboard.FieldTypeString, Label: "ID"},
	dashboard.FieldSchema{Name: "reference", Type: dashboard.FieldTypeString, Label: "Reference"},
	dashboard.FieldSchema{Name: "status", Type: dashboard.FieldTypeString, Label: "Status"},
	dashboard.FieldSchema{Name: "type", Type: dashboard.FieldTypeString, Label: "Type"},
	dashboard.FieldSchema{Name: "isin", Type: dashboard.FieldTypeString, Label: "ISIN"},
	dashboard.FieldSchema{Name: "participant", Type: dashboard.FieldTypeString, Label: "Participant"},
	dashboard.FieldSchema{Name: "counterparty", Type: dashboard.FieldTypeString, Label: "Counterparty"},
	dashboard.FieldSchema{Name: "amount", Type: dashboard.FieldTypeDecimal, Label: "Amount"},
	dashboard.FieldSchema{Name: "currency", Type: dashboard.FieldTypeString, Label: "Currency"},
	dashboard.FieldSchema{Name: "trade_date", Type: dashboard.FieldTypeDate, Label: "Trade Date"},
	dashboard.FieldSchema{Name: "settlement_date", Type: dashboard.FieldTypeDate, Label: "Settlement Date"},
)

// Auction is a primary market auction of government securities
type Auction struct {
	ID          uuid.UUID       `json:"id"`
	Code        string          `json:"code"`
	Security    string          `json:"security"`
	Tenor       string          `json:"tenor"`
	Status      AuctionStatus   `json:"status"`
	AuctionDate time.Time       `json:"auction_date"`
	Offered     decimal.Decimal `json:"offered"`
	Allotted    decimal.Decimal `json:"allotted"`
	Bids        int             `json:"bids"`
	CutoffYield decimal.Decimal `json:"cutoff_yield"`
}

// Field implements dashboard.Record
func (a Auction) Field(key string) (any, bool) {
	switch key {
	case "id":
		return a.ID.String(), true
	case "code":
		return a.Code, true
	case "security":
		return a.Security, true
	case "tenor":
		return a.Tenor, true
	case "status":
		return string(a.Status), true
	case "auction_date":
		return a.AuctionDate, true
	case "offered":
		return a.Offered, true
	case "allotted":
		return a.Allotted, true
	case "bids":
		return a.Bids, true
	case "cutoff_yield":
		return a.CutoffYield, true
	}
	return nil, false
}

// AuctionSchema lists the fields an Auction exposes
var AuctionSchema = dashboard.NewSchema(
	dashboard.FieldSchema{Name: "id", Type: dashboard.FieldTypeString, Label: "ID"},
	dashboard.FieldSchema{Name: "code", Type: dashboard.FieldTypeString, Label: "Auction"},
	dashboard.FieldSchema{Name: "security", Type: dashboard.FieldTypeString, Label: "Security"},
	dashboard.FieldSchema{Name: "tenor", Type: dashboard.FieldTypeString, Label: "Tenor"},
	dashboard.FieldSchema{Name: "status", Type: dashboard.FieldTypeString, Label: "Status"},
	dashboard.FieldSchema{Name: "auction_date", Type: dashboard.FieldTypeDate, Label: "Auction Date"},
	dashboard.FieldSchema{Name: "offered", Type: dashboard.FieldTypeDecimal, Label: "Offered"},
	dashboard.FieldSchema{Name: "allotted", Type: dashboard.FieldTypeDecimal, Label: "Allotted"},
	dashboard.FieldSchema{Name: "bids", Type: dashboard.FieldTypeNumber, Label: "Bids"},
	dashboard.FieldSchema{Name: "cutoff_yield", Type: dashboard.FieldTypeDecimal, Label: "Cut-off Yield"},
)

// Participant is a depository member
type Participant struct {
	ID       uuid.UUID         `json:"id"`
	Code     string            `json:"code"`
	Name     string            `json:"name"`
	Category string            `json:"category"`
	Status   ParticipantStatus `json:"status"`
	Accounts int               `json:"accounts"`
	JoinedOn time.Time         `json:"joined_on"`
}

// Field implements dashboard.Record
func (p Participant) Field(key string) (any, bool) {
	switch key {
	case "id":
		return p.ID.String(), true
	case "code":
		return p.Code, true
	case "name":
		return p.Name, true
	case "category":
		return p.Category, true
	case "status":
		return string(p.Status), true
	case "accounts":
		return p.Accounts, true
	case "joined_on":
		return p.JoinedOn, true
	}
	return nil, false
}

// ParticipantSchema lists the fields a Participant exposes
var ParticipantSchema = dashboard.NewSchema(
	dashboard.FieldSchema{Name: "id", Type: dashboard.FieldTypeString, Label: "ID"},
	dashboard.FieldSchema{Name: "code", Type: dashboard.FieldTypeString, Label: "Code"},
	dashboard.FieldSchema{Name: "name", Type: dashboard.FieldTypeString, Label: "Name"},
	dashboard.FieldSchema{Name: "category", Type: dashboard.FieldTypeString, Label: "Category"},
	dashboard.FieldSchema{Name: "status", Type: dashboard.FieldTypeString, Label: "Status"},
	dashboard.FieldSchema{Name: "accounts", Type: dashboard.FieldTypeNumber, Label: "Accounts"},
	dashboard.FieldSchema{Name: "joined_on", Type: dashboard.FieldTypeDate, Label: "Joined"},
)
