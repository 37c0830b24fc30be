package mappers

import (
	"github.com/LavaJover/shvark-payout-service/internal/domain"
	"github.com/LavaJover/shvark-payout-service/internal/infrastructure/postgres/models"
)

func ToDomainDispute(model *models.DisputeModel) *domain.Dispute {
	return &domain.Dispute{
		ID:         model.ID,
		Kind:       domain.DisputeKind(model.Kind),
		SubjectID:  model.SubjectID,
		MerchantID: model.MerchantID,
		TraderID:   model.TraderID,
		Status:     domain.DisputeStatus(model.Status),
		Resolution: model.Resolution,
		CreatedAt:  model.CreatedAt,
		ResolvedAt: model.ResolvedAt,
	}
}

func ToGORMDispute(dispute *domain.Dispute) *models.DisputeModel {
	return &models.DisputeModel{
		ID:         dispute.ID,
		Kind:       string(dispute.Kind),
		SubjectID:  dispute.SubjectID,
		MerchantID: dispute.MerchantID,
		TraderID:   dispute.TraderID,
		Status:     string(dispute.Status),
		Resolution: dispute.Resolution,
		CreatedAt:  dispute.CreatedAt,
		ResolvedAt: dispute.ResolvedAt,
	}
}

func ToGORMDisputeMessage(msg *domain.DisputeMessage) *models.DisputeMessageModel {
	return &models.DisputeMessageModel{
		ID:         msg.ID,
		DisputeID:  msg.DisputeID,
		SenderID:   msg.SenderID,
		SenderType: msg.SenderType,
		Message:    msg.Message,
		CreatedAt:  msg.CreatedAt,
	}
}
