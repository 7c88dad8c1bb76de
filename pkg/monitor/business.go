package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// BusinessMetrics 定义业务监控指标
type BusinessMetrics struct {
	DepositDetectedTotal    *prometheus.CounterVec
	DepositCreditedTotal    *prometheus.CounterVec
	DepositOrphanedTotal    *prometheus.CounterVec
	WithdrawalBroadcastTotal *prometheus.CounterVec
	WithdrawalSettledTotal   *prometheus.CounterVec
	WithdrawalFailedTotal    *prometheus.CounterVec
	ScanCursorLag            *prometheus.GaugeVec
	BatchJobDuration         *prometheus.HistogramVec
}

// Global Metrics Instance
var Business *BusinessMetrics

// InitBusinessMetrics 初始化业务指标
func InitBusinessMetrics() {
	if Business != nil {
		return
	}
	Business = &BusinessMetrics{
		DepositDetectedTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "custody_deposit_detected_total",
			Help: "Total number of on-chain deposit events detected by the scanner",
		}, []string{"chain"}),
		DepositCreditedTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "custody_deposit_credited_total",
			Help: "Total number of deposits credited to user accounts",
		}, []string{"chain"}),
		DepositOrphanedTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "custody_deposit_orphaned_total",
			Help: "Total number of deposits marked orphaned by reorg checks",
		}, []string{"chain"}),
		WithdrawalBroadcastTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "custody_withdrawal_broadcast_total",
			Help: "Total number of withdrawal transactions broadcast",
		}, []string{"chain"}),
		WithdrawalSettledTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "custody_withdrawal_settled_total",
			Help: "Total number of withdrawals settled after on-chain success",
		}, []string{"chain"}),
		WithdrawalFailedTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "custody_withdrawal_failed_total",
			Help: "Total number of withdrawals failed on-chain",
		}, []string{"chain"}),
		ScanCursorLag: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "custody_scan_cursor_lag_blocks",
			Help: "Blocks between chain head and the scanner cursor",
		}, []string{"chain"}),
		BatchJobDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "custody_batch_job_duration_seconds",
			Help:    "Duration of reconciliation batch jobs",
			Buckets: prometheus.DefBuckets,
		}, []string{"job"}),
	}
}
