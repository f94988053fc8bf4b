package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"
)

// ReferralMetrics holds the collectors for referral, reward and payment flows.
type ReferralMetrics struct {
	ReferralsCreatedTotal   *prometheus.CounterVec
	ReferralsConfirmedTotal prometheus.Counter
	ReferralsExpiredTotal   prometheus.Counter
	CycleRejectionsTotal    prometheus.Counter

	RewardsCreditedTotal  *prometheus.CounterVec
	RewardsAmountTotal    *prometheus.CounterVec
	DuplicateRewardsTotal *prometheus.CounterVec

	TierUpgradesTotal *prometheus.CounterVec

	PaymentsProcessedTotal *prometheus.CounterVec
	PaymentAttemptsTotal   *prometheus.CounterVec
	PaymentDuration        prometheus.Histogram

	LinksIssuedTotal *prometheus.CounterVec
}

func NewReferralMetrics(reg prometheus.Registerer) *ReferralMetrics {
	f := promauto.With(reg)
	return &ReferralMetrics{
		ReferralsCreatedTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "referrals_created_total",
				Help: "Referrals recorded, by attribution source",
			},
			[]string{"source"},
		),
		ReferralsConfirmedTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "referrals_confirmed_total",
			Help: "Referrals moved from pending to active",
		}),
		ReferralsExpiredTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "referrals_expired_total",
			Help: "Pending referrals expired by the maintenance job",
		}),
		CycleRejectionsTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "referral_cycle_rejections_total",
			Help: "Referral edges rejected because they would close a cycle",
		}),

		RewardsCreditedTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "referral_rewards_credited_total",
				Help: "Reward ledger rows created",
			},
			[]string{"type"},
		),
		RewardsAmountTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "referral_rewards_amount_total",
				Help: "Sum of credited reward amounts",
			},
			[]string{"type"},
		),
		DuplicateRewardsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "referral_rewards_duplicate_total",
				Help: "Reward events skipped because their event key was already recorded",
			},
			[]string{"type"},
		),

		TierUpgradesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "referral_tier_upgrades_total",
				Help: "Users promoted into a tier",
			},
			[]string{"tier"},
		),

		PaymentsProcessedTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "activation_payments_processed_total",
				Help: "Payment confirmations by outcome",
			},
			[]string{"outcome"},
		),
		PaymentAttemptsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "activation_payment_attempts_total",
				Help: "Payment bridge transaction attempts by result",
			},
			[]string{"result"},
		),
		PaymentDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "activation_payment_duration_seconds",
			Help:    "Time spent confirming a payment including retries",
			Buckets: prometheus.DefBuckets,
		}),

		LinksIssuedTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "referral_links_issued_total",
				Help: "Referral links created, by trigger",
			},
			[]string{"trigger"},
		),
	}
}

func (m *ReferralMetrics) RecordReferralCreated(source string) {
	if m == nil {
		return
	}
	m.ReferralsCreatedTotal.WithLabelValues(source).Inc()
}

func (m *ReferralMetrics) RecordReferralConfirmed() {
	if m == nil {
		return
	}
	m.ReferralsConfirmedTotal.Inc()
}

func (m *ReferralMetrics) RecordReferralsExpired(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.ReferralsExpiredTotal.Add(float64(n))
}

func (m *ReferralMetrics) RecordCycleRejected() {
	if m == nil {
		return
	}
	m.CycleRejectionsTotal.Inc()
}

func (m *ReferralMetrics) RecordReward(rewardType string, amount decimal.Decimal, created bool) {
	if m == nil {
		return
	}
	if !created {
		m.DuplicateRewardsTotal.WithLabelValues(rewardType).Inc()
		return
	}
	m.RewardsCreditedTotal.WithLabelValues(rewardType).Inc()
	m.RewardsAmountTotal.WithLabelValues(rewardType).Add(amount.InexactFloat64())
}

func (m *ReferralMetrics) RecordTierUpgrade(tier string) {
	if m == nil {
		return
	}
	m.TierUpgradesTotal.WithLabelValues(tier).Inc()
}

func (m *ReferralMetrics) RecordPayment(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.PaymentsProcessedTotal.WithLabelValues(outcome).Inc()
	m.PaymentDuration.Observe(seconds)
}

func (m *ReferralMetrics) RecordPaymentAttempt(result string) {
	if m == nil {
		return
	}
	m.PaymentAttemptsTotal.WithLabelValues(result).Inc()
}

func (m *ReferralMetrics) RecordLinksIssued(trigger string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.LinksIssuedTotal.WithLabelValues(trigger).Add(float64(n))
}
