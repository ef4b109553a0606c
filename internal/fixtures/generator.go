package fixtures

import (
	"encoding/binary"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	// DefaultSeed is used when no seed is configured
	DefaultSeed uint64 = 42
	// DefaultSize is the default number of settlement instructions
	DefaultSize = 120
)

// BaseDate anchors every generated date so datasets do not drift with the clock
var BaseDate = time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)

// Dataset holds one generated set of records
type Dataset struct {
	Seed         uint64        `json:"seed"`
	Settlements  []Settlement  `json:"settlements"`
	Auctions     []Auction     `json:"auctions"`
	Participants []Participant `json:"participants"`
}

type security struct {
	isin  string
	name  string
	tenor string
	days  int
}

var securities = []security{
	{"GH0000000913", "91-Day Treasury Bill", "91D", 91},
	{"GH0000001822", "182-Day Treasury Bill", "182D", 182},
	{"GH0000003644", "364-Day Treasury Bill", "364D", 364},
	{"GH0000020Y27", "2-Year Fixed Rate Note", "2Y", 730},
	{"GH0000050Y30", "5-Year Fixed Rate Bond", "5Y", 1826},
	{"GH0000100Y35", "10-Year Fixed Rate Bond", "10Y", 3652},
}

var participantNames = []struct {
	name     string
	category string
}{
	{"Northgate Bank", "Bank"},
	{"Harbor Securities", "Broker"},
	{"Meridian Custody Services", "Custodian"},
	{"Summit Pension Trust", "Pension Fund"},
	{"Keystone Brokerage", "Broker"},
	{"Atlas Commercial Bank", "Bank"},
	{"Crescent Trust Company", "Custodian"},
	{"Pioneer Asset Management", "Asset Manager"},
	{"Lakeside Savings Bank", "Bank"},
	{"Granite Capital Markets", "Broker"},
	{"Beacon Insurance", "Insurer"},
	{"Riverbend Investments", "Asset Manager"},
}

type weighted[T any] struct {
	value  T
	weight int
}

var settlementStatuses = []weighted[SettlementStatus]{
	{SettlementStatusSettled, 60},
	{SettlementStatusMatched, 12},
	{SettlementStatusPending, 12},
	{SettlementStatusFailed, 8},
	{SettlementStatusRejected, 8},
}

var settlementTypes = []weighted[SettlementType]{
	{SettlementTypeDVP, 70},
	{SettlementTypeFOP, 20},
	{SettlementTypeRVP, 10},
}

var participantStatuses = []weighted[ParticipantStatus]{
	{ParticipantStatusActive, 80},
	{ParticipantStatusPending, 10},
	{ParticipantStatusSuspended, 10},
}

// Generator produces deterministic records from a seed. It is not safe for
// concurrent use.
type Generator struct {
	src *rand.ChaCha8
	rng *rand.Rand
}

// NewGenerator creates a generator seeded with seed
func NewGenerator(seed uint64) *Generator {
	var key [32]byte
	binary.LittleEndian.PutUint64(key[:], seed)
	src := rand.NewChaCha8(key)
	return &Generator{src: src, rng: rand.New(src)}
}

// Generate builds a dataset with size settlement instructions. The same seed
// and size always yield the same dataset.
func Generate(seed uint64, size int) Dataset {
	if size <= 0 {
		size = DefaultSize
	}
	g := NewGenerator(seed)
	participants := g.Participants(max(4, min(len(participantNames), size/10)))
	return Dataset{
		Seed:         seed,
		Participants: participants,
		Settlements:  g.Settlements(size, participants),
		Auctions:     g.Auctions(max(4, size/6)),
	}
}

func (g *Generator) id() uuid.UUID {
	return uuid.Must(uuid.NewRandomFromReader(g.src))
}

func pick[T any](rng *rand.Rand, choices []weighted[T]) T {
	total := 0
	for _, c := range choices {
		total += c.weight
	}
	n := rng.IntN(total)
	for _, c := range choices {
		if n < c.weight {
			return c.value
		}
		n -= c.weight
	}
	return choices[len(choices)-1].value
}

// addBusinessDays moves d by n weekdays, n may be negative
func addBusinessDays(d time.Time, n int) time.Time {
	step := 1
	if n < 0 {
		step, n = -1, -n
	}
	for n > 0 {
		d = d.AddDate(0, 0, step)
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			n--
		}
	}
	return d
}

// Participants generates n depository participants
func (g *Generator) Participants(n int) []Participant {
	out := make([]Participant, n)
	for i := range out {
		p := participantNames[i%len(participantNames)]
		name := p.name
		if i >= len(participantNames) {
			name = fmt.Sprintf("%s %d", p.name, i/len(participantNames)+1)
		}
		out[i] = Participant{
			ID:       g.id(),
			Code:     fmt.Sprintf("P%03d", i+1),
			Name:     name,
			Category: p.category,
			Status:   pick(g.rng, participantStatuses),
			Accounts: 1 + g.rng.IntN(250),
			JoinedOn: BaseDate.AddDate(-1-g.rng.IntN(12), -g.rng.IntN(12), 0),
		}
	}
	return out
}

// Settlements generates n settlement instructions between participants
func (g *Generator) Settlements(n int, participants []Participant) []Settlement {
	out := make([]Settlement, n)
	for i := range out {
		sec := securities[g.rng.IntN(len(securities))]
		from := g.rng.IntN(len(participants))
		to := (from + 1 + g.rng.IntN(len(participants)-1)) % len(participants)
		trade := addBusinessDays(BaseDate, -g.rng.IntN(30))

		out[i] = Settlement{
			ID:             g.id(),
			Reference:      fmt.Sprintf("STL-%06d", i+1),
			Status:         pick(g.rng, settlementStatuses),
			Type:           pick(g.rng, settlementTypes),
			ISIN:           sec.isin,
			Participant:    participants[from].Code,
			Counterparty:   participants[to].Code,
			Amount:         decimal.New(10_000_00+g.rng.Int64N(5_000_000_00), -2),
			Currency:       "USD",
			TradeDate:      trade,
			SettlementDate: addBusinessDays(trade, 2),
		}
	}
	return out
}

// Auctions generates n weekly auctions around BaseDate
func (g *Generator) Auctions(n int) []Auction {
	out := make([]Auction, n)
	for i := range out {
		sec := securities[i%len(securities)]
		date := BaseDate.AddDate(0, 0, 7*(i-n+2))

		a := Auction{
			ID:          g.id(),
			Code:        fmt.Sprintf("AUC-%d-%03d", date.Year(), i+1),
			Security:    sec.name,
			Tenor:       sec.tenor,
			AuctionDate: date,
			Offered:     decimal.NewFromInt(int64(50+g.rng.IntN(20)*25) * 1_000_000),
			Allotted:    decimal.Zero,
			CutoffYield: decimal.Zero,
		}
		switch {
		case date.After(BaseDate):
			a.Status = AuctionStatusAnnounced
		case date.Equal(BaseDate):
			a.Status = AuctionStatusOpen
			a.Bids = g.rng.IntN(20)
		case g.rng.IntN(5) == 0:
			a.Status = AuctionStatusClosed
			a.Bids = 5 + g.rng.IntN(40)
		default:
			a.Status = AuctionStatusAllotted
			a.Bids = 5 + g.rng.IntN(40)
			a.Allotted = a.Offered.Mul(decimal.New(int64(60+g.rng.IntN(41)), -2)).Round(0)
			a.CutoffYield = decimal.New(int64(800+g.rng.IntN(1200)), -4)
		}
		out[i] = a
	}
	return out
}
