package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PayoutMetrics содержит все метрики движка выплат
type PayoutMetrics struct {
	// Созданные выплаты
	PayoutsCreatedTotal       *prometheus.CounterVec
	PayoutsCreatedAmountTotal *prometheus.CounterVec

	// Переходы по статусам
	PayoutTransitionsTotal *prometheus.CounterVec

	// Завершённые выплаты
	PayoutsCompletedAmountTotal *prometheus.CounterVec
	TraderProfitTotal           *prometheus.CounterVec

	// Распределение
	PayoutsAssignedTotal      *prometheus.CounterVec
	PayoutsSkippedTotal       *prometheus.CounterVec
	DistributionCycleDuration prometheus.Histogram
	NotificationsFailedTotal  *prometheus.CounterVec

	// Таймауты и споры
	PayoutsExpiredTotal      *prometheus.CounterVec
	DisputesAutoResolved     *prometheus.CounterVec
	UnrecoveredProfitTotal   prometheus.Counter
	PayoutOperationErrors    *prometheus.CounterVec
	PayoutProcessingDuration *prometheus.HistogramVec
}

// NewPayoutMetrics регистрирует метрики в reg (prometheus.DefaultRegisterer в проде)
func NewPayoutMetrics(reg prometheus.Registerer) *PayoutMetrics {
	factory := promauto.With(reg)
	return &PayoutMetrics{
		PayoutsCreatedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payouts_created_total",
				Help: "Общее количество созданных выплат",
			},
			[]string{"merchant_id"},
		),
		PayoutsCreatedAmountTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payouts_created_amount_total",
				Help: "Сумма созданных выплат в рублях",
			},
			[]string{"merchant_id"},
		),
		PayoutTransitionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payout_transitions_total",
				Help: "Переходы выплат между статусами",
			},
			[]string{"operation", "from", "to"},
		),
		PayoutsCompletedAmountTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payouts_completed_amount_total",
				Help: "Сумма завершённых выплат в рублях",
			},
			[]string{"merchant_id"},
		),
		TraderProfitTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payout_trader_profit_usdt_total",
				Help: "Прибыль трейдеров с выплат в USDT",
			},
			[]string{"trader_id"},
		),
		PayoutsAssignedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payouts_assigned_total",
				Help: "Выплаты, назначенные распределителем",
			},
			[]string{"mode"},
		),
		PayoutsSkippedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payouts_distribution_skipped_total",
				Help: "Выплаты, оставленные до следующего цикла",
			},
			[]string{"reason"},
		),
		DistributionCycleDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "payout_distribution_cycle_duration_seconds",
				Help:    "Длительность цикла распределения",
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 10), // 10ms, 20ms, 40ms...
			},
		),
		NotificationsFailedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payout_notifications_failed_total",
				Help: "Неудачные уведомления трейдеров и мерчантов",
			},
			[]string{"channel"},
		),
		PayoutsExpiredTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payouts_expired_total",
				Help: "Выплаты, закрытые по таймауту",
			},
			[]string{"from"},
		),
		DisputesAutoResolved: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "disputes_auto_resolved_total",
				Help: "Споры, закрытые по истечении времени",
			},
			[]string{"kind"},
		),
		UnrecoveredProfitTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "payout_unrecovered_profit_usdt_total",
				Help: "Остаток прибыли, который не удалось списать при отклонении",
			},
		),
		PayoutOperationErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payout_operation_errors_total",
				Help: "Ошибки операций с выплатами",
			},
			[]string{"operation", "error_type"},
		),
		PayoutProcessingDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "payout_processing_duration_seconds",
				Help:    "Время от создания выплаты до финального статуса",
				Buckets: prometheus.ExponentialBuckets(1, 2, 12), // 1s, 2s, 4s, 8s...
			},
			[]string{"status"},
		),
	}
}

func (m *PayoutMetrics) RecordPayoutCreated(merchantID string, amount float64) {
	m.PayoutsCreatedTotal.WithLabelValues(merchantID).Inc()
	m.PayoutsCreatedAmountTotal.WithLabelValues(merchantID).Add(amount)
}

func (m *PayoutMetrics) RecordTransition(operation, from, to string) {
	m.PayoutTransitionsTotal.WithLabelValues(operation, from, to).Inc()
}

func (m *PayoutMetrics) RecordPayoutCompleted(merchantID, traderID string, amount, profit float64) {
	m.PayoutsCompletedAmountTotal.WithLabelValues(merchantID).Add(amount)
	if profit > 0 {
		m.TraderProfitTotal.WithLabelValues(traderID).Add(profit)
	}
}

func (m *PayoutMetrics) RecordProcessingDuration(status string, seconds float64) {
	m.PayoutProcessingDuration.WithLabelValues(status).Observe(seconds)
}

func (m *PayoutMetrics) RecordAssigned(mode string) {
	m.PayoutsAssignedTotal.WithLabelValues(mode).Inc()
}

func (m *PayoutMetrics) RecordSkipped(reason string) {
	m.PayoutsSkippedTotal.WithLabelValues(reason).Inc()
}

func (m *PayoutMetrics) RecordCycleDuration(seconds float64) {
	m.DistributionCycleDuration.Observe(seconds)
}

func (m *PayoutMetrics) RecordNotificationFailed(channel string) {
	m.NotificationsFailedTotal.WithLabelValues(channel).Inc()
}

func (m *PayoutMetrics) RecordExpired(from string) {
	m.PayoutsExpiredTotal.WithLabelValues(from).Inc()
}

func (m *PayoutMetrics) RecordDisputeAutoResolved(kind string) {
	m.DisputesAutoResolved.WithLabelValues(kind).Inc()
}

func (m *PayoutMetrics) RecordUnrecoveredProfit(amount float64) {
	m.UnrecoveredProfitTotal.Add(amount)
}

func (m *PayoutMetrics) RecordOperationError(operation, errorType string) {
	m.PayoutOperationErrors.WithLabelValues(operation, errorType).Inc()
}
