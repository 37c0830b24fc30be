package domain

import "github.com/shopspring/decimal"

// MoneyScale - все суммы храним с точностью до копейки/цента.
// Округление всегда к нулю: платформа не должна переплатить трейдеру.
const MoneyScale int32 = 2

var hundred = decimal.NewFromInt(100)

func Trunc2(d decimal.Decimal) decimal.Decimal {
	return d.Truncate(MoneyScale)
}

// ComputeAsset возвращает trunc2(amount / rate).
func ComputeAsset(amount, rate decimal.Decimal) decimal.Decimal {
	if !rate.IsPositive() {
		return decimal.Zero
	}
	q, _ := amount.QuoRem(rate, MoneyScale)
	return q
}

// TotalWithFee возвращает trunc2(amount * (1 + fee/100)).
func TotalWithFee(amount, feePercent decimal.Decimal) decimal.Decimal {
	q, _ := amount.Mul(hundred.Add(feePercent)).QuoRem(hundred, MoneyScale)
	return q
}

// PercentOf возвращает trunc2(amount * percent / 100).
func PercentOf(amount, percent decimal.Decimal) decimal.Decimal {
	q, _ := amount.Mul(percent).QuoRem(hundred, MoneyScale)
	return q
}

type PayoutQuote struct {
	Rate        decimal.Decimal
	Total       decimal.Decimal
	TotalAsset  decimal.Decimal
	AmountAsset decimal.Decimal
}

func QuotePayout(amount, merchantRate, rateDelta, feePercent decimal.Decimal) PayoutQuote {
	rate := merchantRate.Add(rateDelta)
	total := TotalWithFee(amount, feePercent)
	return PayoutQuote{
		Rate:        rate,
		Total:       total,
		TotalAsset:  ComputeAsset(total, rate),
		AmountAsset: ComputeAsset(amount, rate),
	}
}

// ApplyQuote пересчитывает курс и суммы выплаты. FrozenAmount не трогает.
func (p *Payout) ApplyQuote(q PayoutQuote) {
	p.Rate = q.Rate
	p.Total = q.Total
	p.TotalAsset = q.TotalAsset
	p.AmountAsset = q.AmountAsset
}

var (
	MaxRateDelta  = decimal.NewFromInt(20)
	MaxFeePercent = decimal.NewFromInt(100)
)

func ValidateRateParams(rateDelta, feePercent decimal.Decimal) error {
	if rateDelta.LessThan(MaxRateDelta.Neg()) || rateDelta.GreaterThan(MaxRateDelta) {
		return NewValidationError("rate_delta", "must be between -20 and 20")
	}
	if feePercent.IsNegative() || feePercent.GreaterThan(MaxFeePercent) {
		return NewValidationError("fee_percent", "must be between 0 and 100")
	}
	return nil
}
