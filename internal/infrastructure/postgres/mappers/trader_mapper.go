package mappers

import (
	"github.com/LavaJover/shvark-payout-service/internal/domain"
	"github.com/LavaJover/shvark-payout-service/internal/infrastructure/postgres/models"
	"github.com/lib/pq"
)

func ToDomainTrader(model *models.TraderModel) *domain.Trader {
	trader := &domain.Trader{
		ID:                     model.ID,
		Name:                   model.Name,
		TelegramChatID:         model.TelegramChatID,
		BalanceSettlement:      model.BalanceSettlement,
		FrozenSettlement:       model.FrozenSettlement,
		BalanceSettlementAsset: model.BalanceSettlementAsset,
		ProfitFromPayouts:      model.ProfitFromPayouts,
		Deposit:                model.Deposit,
		MaxSimultaneousPayouts: model.MaxSimultaneousPayouts,
		TrafficEnabled:         model.TrafficEnabled,
		Banned:                 model.Banned,
		CreatedAt:              model.CreatedAt,
	}
	if model.FilterMaxPayoutAmount.IsPositive() || model.FilterTrafficType != "" || len(model.FilterBanks) > 0 {
		trader.PayoutFilters = &domain.PayoutFilters{
			MaxPayoutAmount: model.FilterMaxPayoutAmount,
			TrafficType:     domain.TrafficType(model.FilterTrafficType),
			Banks:           []string(model.FilterBanks),
		}
	}
	return trader
}

func ToGORMTrader(trader *domain.Trader) *models.TraderModel {
	model := &models.TraderModel{
		ID:                     trader.ID,
		Name:                   trader.Name,
		TelegramChatID:         trader.TelegramChatID,
		BalanceSettlement:      trader.BalanceSettlement,
		FrozenSettlement:       trader.FrozenSettlement,
		BalanceSettlementAsset: trader.BalanceSettlementAsset,
		ProfitFromPayouts:      trader.ProfitFromPayouts,
		Deposit:                trader.Deposit,
		MaxSimultaneousPayouts: trader.MaxSimultaneousPayouts,
		TrafficEnabled:         trader.TrafficEnabled,
		Banned:                 trader.Banned,
		CreatedAt:              trader.CreatedAt,
	}
	if f := trader.PayoutFilters; f != nil {
		model.FilterMaxPayoutAmount = f.MaxPayoutAmount
		model.FilterTrafficType = string(f.TrafficType)
		model.FilterBanks = pq.StringArray(f.Banks)
	}
	return model
}

func ToDomainMerchantTrader(model *models.MerchantTraderModel) *domain.MerchantTrader {
	return &domain.MerchantTrader{
		ID:             model.ID,
		MerchantID:     model.MerchantID,
		TraderID:       model.TraderID,
		PayoutsEnabled: model.PayoutsEnabled,
		FeeOut:         model.FeeOut,
	}
}

func ToDomainMerchant(model *models.MerchantModel) *domain.Merchant {
	return &domain.Merchant{
		ID:            model.ID,
		Name:          model.Name,
		WebhookSecret: model.WebhookSecret,
	}
}
