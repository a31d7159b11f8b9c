// Package metrics provides Prometheus instrumentation for the moderation
// bot. Counters here mirror the per-group stats kept in storage but are
// process-wide and label moderation activity by filter and action.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// MessagesProcessed counts every group message the engine inspected.
	MessagesProcessed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "modbot_messages_processed_total",
		Help: "Total number of group messages run through the filter chain",
	})

	// FilterBlocks counts messages blocked, labeled by the filter that
	// short-circuited the chain.
	FilterBlocks = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "modbot_filter_blocks_total",
		Help: "Total number of messages blocked per filter",
	}, []string{"filter"})

	// ModerationActions counts activity log entries by action tag
	// (warn, ban, kick, mute, flood, ...).
	ModerationActions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "modbot_moderation_actions_total",
		Help: "Total number of moderation actions per action tag",
	}, []string{"action"})
)

func init() {
	prometheus.MustRegister(
		MessagesProcessed,
		FilterBlocks,
		ModerationActions,
	)
}
