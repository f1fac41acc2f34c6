package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	JobsEnqueued = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sms_jobs_enqueued_total",
			Help: "Total SMS jobs added to the dispatch queue",
		},
	)

	JobsClaimed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sms_jobs_claimed_total",
			Help: "Total SMS jobs claimed by a dispatcher",
		},
	)

	JobsSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sms_jobs_sent_total",
			Help: "Total SMS jobs reported sent",
		},
	)

	JobsFailed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sms_jobs_failed_total",
			Help: "Total SMS jobs reported failed",
		},
	)

	JobsReclaimed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sms_jobs_reclaimed_total",
			Help: "Total stuck SMS jobs returned to pending",
		},
	)

	OtpRequested = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "otp_requests_total",
			Help: "Total OTP codes issued",
		},
	)

	OtpRateLimited = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "otp_rate_limited_total",
			Help: "Total OTP requests rejected by the rate limit",
		},
	)

	OtpVerified = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "otp_verified_total",
			Help: "Total OTP codes successfully verified",
		},
	)
)

func Init() {
	prometheus.MustRegister(
		JobsEnqueued,
		JobsClaimed,
		JobsSent,
		JobsFailed,
		JobsReclaimed,
		OtpRequested,
		OtpRateLimited,
		OtpVerified,
	)
}
