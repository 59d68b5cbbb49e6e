package dto

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/radieske/bet-ledger/internal/ledger/model"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// erros citam o nome do campo no JSON, não o da struct
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate aplica as tags `validate` e devolve o primeiro problema como
// model.ValidationError
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return model.Invalid(fe.Field(), message(fe))
	}
	return model.Invalid("", err.Error())
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "datetime":
		return "must be a calendar date (YYYY-MM-DD)"
	case "oneof":
		return "must be one of " + fe.Param()
	}
	return "is invalid"
}

type CreateUserRequest struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name"`
}

// BetRequest é o corpo de POST /bets e PUT /bets (id obrigatório no PUT).
// profit não é aceito: é sempre derivado do resultado.
type BetRequest struct {
	ID         string           `json:"id"`
	UserID     string           `json:"user_id" validate:"required"`
	BankrollID string           `json:"bankroll_id"`
	Date       string           `json:"date" validate:"required,datetime=2006-01-02"`
	Sport      string           `json:"sport" validate:"required"`
	MatchName  string           `json:"match_name" validate:"required"`
	BetType    string           `json:"bet_type" validate:"required"`
	Bookmaker  string           `json:"bookmaker" validate:"required"`
	Odds       *decimal.Decimal `json:"odds" validate:"required"`
	Stake      *decimal.Decimal `json:"stake" validate:"required"`
	Result     string           `json:"result"`
}

func (r BetRequest) ToModel() model.Bet {
	b := model.Bet{
		ID:         r.ID,
		UserID:     r.UserID,
		BankrollID: r.BankrollID,
		Date:       r.Date,
		Sport:      r.Sport,
		MatchName:  r.MatchName,
		BetType:    r.BetType,
		Bookmaker:  r.Bookmaker,
		Result:     model.Result(r.Result),
	}
	if r.Odds != nil {
		b.Odds = *r.Odds
	}
	if r.Stake != nil {
		b.Stake = *r.Stake
	}
	return b
}

type SettingsRequest struct {
	UserID          string           `json:"userId" validate:"required"`
	InitialBankroll *decimal.Decimal `json:"initialBankroll" validate:"required"`
	BankrollName    string           `json:"bankrollName"`
}

type BankrollRequest struct {
	UserID          string           `json:"userId" validate:"required"`
	BankrollName    string           `json:"bankrollName" validate:"required"`
	InitialBankroll *decimal.Decimal `json:"initialBankroll" validate:"required"`
}
