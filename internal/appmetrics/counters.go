package appmetrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FlowPollTotalOps = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ebike_flow_api_poll_ops_total",
		Help: "Total bike telemetry poll cycles started",
	})
	FlowPollSuccessOps = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ebike_flow_api_poll_success_ops_total",
		Help: "Total bike telemetry poll cycles completed successfully",
	})
	FlowPollFailedOps = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ebike_flow_api_poll_failed_ops_total",
		Help: "Total bike telemetry poll cycles that failed and will retry on the next tick",
	})
	SoCOfflineTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ebike_flow_api_soc_offline_total",
		Help: "Total state-of-charge requests answered 404, meaning the ConnectModule was offline",
	})
	ActivitiesProcessedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ebike_flow_api_activities_processed_total",
		Help: "Total new activities folded into usage statistics",
	})
	ActivityPagesFetchedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ebike_flow_api_activity_pages_fetched_total",
		Help: "Total activity pages fetched from the rider-activity API",
	})
	TokenRefreshTotalOps = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ebike_flow_api_token_refresh_ops_total",
		Help: "Total OAuth token refreshes performed after a 401",
	})
)
