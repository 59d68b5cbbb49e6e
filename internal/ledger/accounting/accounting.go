// Package accounting deriva lucro, banca atual e estatísticas a partir de
// apostas já carregadas em memória. Nenhuma função aqui faz I/O ou altera
// os slices recebidos.
package accounting

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/radieske/bet-ledger/internal/ledger/model"
)

var hundred = decimal.NewFromInt(100)

// ProfitFor calcula o lucro líquido pelo resultado (odds decimais):
// pending = 0, won = stake*odds - stake, lost = -stake. Arredonda em 2 casas.
func ProfitFor(result model.Result, odds, stake decimal.Decimal) decimal.Decimal {
	switch result {
	case model.ResultWon:
		return stake.Mul(odds).Sub(stake).Round(2)
	case model.ResultLost:
		return stake.Neg().Round(2)
	default:
		return decimal.Zero
	}
}

// ApplyProfit sobrescreve b.Profit com o valor derivado
func ApplyProfit(b *model.Bet) {
	b.Profit = ProfitFor(b.Result, b.Odds, b.Stake)
}

func TotalProfit(bets []model.Bet) decimal.Decimal {
	total := decimal.Zero
	for _, b := range bets {
		total = total.Add(b.Profit)
	}
	return total
}

// CurrentBankroll = banca inicial + soma dos lucros
func CurrentBankroll(initial decimal.Decimal, bets []model.Bet) decimal.Decimal {
	return initial.Add(TotalProfit(bets))
}

// TotalStaked soma o valor apostado, inclusive pendentes
func TotalStaked(bets []model.Bet) decimal.Decimal {
	total := decimal.Zero
	for _, b := range bets {
		total = total.Add(b.Stake)
	}
	return total
}

// PendingExposure soma o valor apostado ainda não liquidado
func PendingExposure(bets []model.Bet) decimal.Decimal {
	total := decimal.Zero
	for _, b := range bets {
		if b.Result == model.ResultPending {
			total = total.Add(b.Stake)
		}
	}
	return total
}

// WinRate = won / (won + lost) * 100; 0 quando não há apostas liquidadas
func WinRate(bets []model.Bet) float64 {
	var won, lost int
	for _, b := range bets {
		switch b.Result {
		case model.ResultWon:
			won++
		case model.ResultLost:
			lost++
		}
	}
	return percent(decimal.NewFromInt(int64(won)), decimal.NewFromInt(int64(won+lost)))
}

// Filter seleciona apostas por esporte, resultado e banca. Campos vazios
// (ou "all") não restringem.
type Filter struct {
	Sport      string
	Result     model.Result
	BankrollID string
}

func (f Filter) Match(b model.Bet) bool {
	if f.Sport != "" && f.Sport != "all" && b.Sport != f.Sport {
		return false
	}
	if f.Result != "" && f.Result != "all" && b.Result != f.Result {
		return false
	}
	if f.BankrollID != "" && b.BankrollID != f.BankrollID {
		return false
	}
	return true
}

// Apply devolve um novo slice com as apostas que casam, na mesma ordem
func (f Filter) Apply(bets []model.Bet) []model.Bet {
	out := make([]model.Bet, 0, len(bets))
	for _, b := range bets {
		if f.Match(b) {
			out = append(out, b)
		}
	}
	return out
}

// ForBankroll restringe as apostas a uma banca
func ForBankroll(bets []model.Bet, bankrollID string) []model.Bet {
	return Filter{BankrollID: bankrollID}.Apply(bets)
}

// Stats é o resumo exibido no dashboard
type Stats struct {
	TotalBets       int             `json:"totalBets"`
	WonBets         int             `json:"wonBets"`
	LostBets        int             `json:"lostBets"`
	PendingBets     int             `json:"pendingBets"`
	InitialBankroll decimal.Decimal `json:"initialBankroll"`
	CurrentBankroll decimal.Decimal `json:"currentBankroll"`
	TotalProfit     decimal.Decimal `json:"totalProfit"`
	TotalStaked     decimal.Decimal `json:"totalStaked"`
	PendingExposure decimal.Decimal `json:"pendingExposure"`
	WinRate         float64         `json:"winRate"`
	ROI             float64         `json:"roi"`
	BySport         []SportStats    `json:"bySport"`
	Evolution       []Point         `json:"evolution"`
}

type SportStats struct {
	Sport   string          `json:"sport"`
	Bets    int             `json:"bets"`
	Won     int             `json:"won"`
	Lost    int             `json:"lost"`
	Staked  decimal.Decimal `json:"staked"`
	Profit  decimal.Decimal `json:"profit"`
	WinRate float64         `json:"winRate"`
}

// Point é a banca acumulada ao fim de um dia com apostas
type Point struct {
	Date     string          `json:"date"`
	Profit   decimal.Decimal `json:"profit"`
	Bankroll decimal.Decimal `json:"bankroll"`
}

// Summarize calcula todas as estatísticas em uma passada (mais a ordenação da evolução)
func Summarize(initial decimal.Decimal, bets []model.Bet) Stats {
	st := Stats{
		TotalBets:       len(bets),
		InitialBankroll: initial,
		TotalProfit:     TotalProfit(bets),
		TotalStaked:     TotalStaked(bets),
		PendingExposure: PendingExposure(bets),
		WinRate:         WinRate(bets),
		BySport:         []SportStats{},
		Evolution:       evolution(initial, bets),
	}
	st.CurrentBankroll = initial.Add(st.TotalProfit)

	settledStake := decimal.Zero
	bySport := map[string]*SportStats{}
	for _, b := range bets {
		switch b.Result {
		case model.ResultWon:
			st.WonBets++
		case model.ResultLost:
			st.LostBets++
		case model.ResultPending:
			st.PendingBets++
		}
		if b.Result.Finalized() {
			settledStake = settledStake.Add(b.Stake)
		}

		s, ok := bySport[b.Sport]
		if !ok {
			s = &SportStats{Sport: b.Sport, Staked: decimal.Zero, Profit: decimal.Zero}
			bySport[b.Sport] = s
		}
		s.Bets++
		s.Staked = s.Staked.Add(b.Stake)
		s.Profit = s.Profit.Add(b.Profit)
		switch b.Result {
		case model.ResultWon:
			s.Won++
		case model.ResultLost:
			s.Lost++
		}
	}

	st.ROI = percent(st.TotalProfit, settledStake)

	for _, s := range bySport {
		s.WinRate = percent(decimal.NewFromInt(int64(s.Won)), decimal.NewFromInt(int64(s.Won+s.Lost)))
		st.BySport = append(st.BySport, *s)
	}
	sort.Slice(st.BySport, func(i, j int) bool { return st.BySport[i].Sport < st.BySport[j].Sport })

	return st
}

// evolution agrega o lucro por data em ordem cronológica
func evolution(initial decimal.Decimal, bets []model.Bet) []Point {
	ordered := make([]model.Bet, len(bets))
	copy(ordered, bets)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Date < ordered[j].Date })

	points := []Point{}
	running := initial
	for _, b := range ordered {
		running = running.Add(b.Profit)
		if n := len(points); n > 0 && points[n-1].Date == b.Date {
			points[n-1].Profit = points[n-1].Profit.Add(b.Profit)
			points[n-1].Bankroll = running
			continue
		}
		points = append(points, Point{Date: b.Date, Profit: b.Profit, Bankroll: running})
	}
	return points
}

// percent = num / den * 100 arredondado em 2 casas; 0 quando den é zero
func percent(num, den decimal.Decimal) float64 {
	if den.IsZero() {
		return 0
	}
	return num.Div(den).Mul(hundred).Round(2).InexactFloat64()
}
