// Package alerts evaluates the latest pipeline metrics against policy
// thresholds and dispatches webhook notifications on state transitions.
package alerts

import (
	"fmt"

	"github.com/danvoulez/voulezvous-tv/internal/domain"
)

// Thresholds configures the evaluator rules; all fields come from
// environment configuration with the spec's documented defaults.
type Thresholds struct {
	QAMin                  float64 // VVTV_ALERT_QA_MIN, default 0.85
	FallbackAbs            float64 // VVTV_ALERT_FALLBACK_ABS, default 0.30
	FallbackGrowthDelta    float64 // VVTV_ALERT_FALLBACK_GROWTH, default 0.15
	DiscoveryFailThreshold int     // VVTV_ALERT_DISCOVERY_FAIL_COUNT, default 3
}

const bufferCriticalMinutes = 20.0

// Evaluate runs every rule against the latest sample, the previous sample
// (may be zero-valued if none exists yet), and the count of
// "DISCOVERY_FAILED_DOMAIN" audits in the trailing 24h window. It is a
// pure function: same inputs, same findings, every time.
func Evaluate(latest domain.MetricsSample, hasPrev bool, prev domain.MetricsSample, discoveryFailedDomainCount int, th Thresholds) []domain.Alert {
	var alerts []domain.Alert

	if latest.BufferMinutes < bufferCriticalMinutes {
		alerts = append(alerts, domain.Alert{
			Code:     "BUFFER_CRITICAL",
			Severity: domain.SeverityCritical,
			Message:  fmt.Sprintf("buffer at %.1f minutes, below the %.0f minute floor", latest.BufferMinutes, bufferCriticalMinutes),
		})
	}

	if latest.QaPassRate < th.QAMin {
		alerts = append(alerts, domain.Alert{
			Code:     "QA_PASS_RATE_LOW",
			Severity: domain.SeverityHigh,
			Message:  fmt.Sprintf("qa pass rate %.2f below minimum %.2f", latest.QaPassRate, th.QAMin),
		})
	}

	if latest.FallbackRate > th.FallbackAbs {
		alerts = append(alerts, domain.Alert{
			Code:     "FALLBACK_RATE_HIGH",
			Severity: domain.SeverityHigh,
			Message:  fmt.Sprintf("fallback rate %.2f above %.2f", latest.FallbackRate, th.FallbackAbs),
		})
	}

	if hasPrev && latest.FallbackRate-prev.FallbackRate > th.FallbackGrowthDelta {
		alerts = append(alerts, domain.Alert{
			Code:     "FALLBACK_RATE_GROWING",
			Severity: domain.SeverityMedium,
			Message:  fmt.Sprintf("fallback rate grew by %.2f since the previous sample", latest.FallbackRate-prev.FallbackRate),
		})
	}

	if discoveryFailedDomainCount >= th.DiscoveryFailThreshold {
		alerts = append(alerts, domain.Alert{
			Code:     "DISCOVERY_DOMAIN_FAILURE",
			Severity: domain.SeverityHigh,
			Message:  fmt.Sprintf("%d domain discovery failures in the last 24h", discoveryFailedDomainCount),
		})
	}

	return alerts
}

// Actionable filters to the subset the dispatcher notifies on — critical
// and high severity only; medium-severity findings (FALLBACK_RATE_GROWING)
// surface in /v1/alerts but never page anyone.
func Actionable(alerts []domain.Alert) []domain.Alert {
	var out []domain.Alert
	for _, a := range alerts {
		if a.Severity == domain.SeverityCritical || a.Severity == domain.SeverityHigh {
			out = append(out, a)
		}
	}
	return out
}
