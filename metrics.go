// Copyright (C) 2026 Michael J. Fromberger. All Rights Reserved.

package compack

import "expvar"

// channelMetrics record channel activity counters.
type channelMetrics struct {
	msgSent       expvar.Int // messages written to the transport
	msgSendErr    expvar.Int // messages that failed to send
	msgReceived   expvar.Int // messages delivered to the caller
	msgBounced    expvar.Int // synchronous messages refused in async mode
	repliesSent   expvar.Int // synchronous replies written
	replyTimeouts expvar.Int // synchronous sends that timed out
	presence      expvar.Int // presence (heartbeat) writes
	errors        expvar.Int // errors recorded

	emap *expvar.Map
}

var rootMetrics = newChannelMetrics()

func newChannelMetrics() *channelMetrics {
	cm := &channelMetrics{emap: new(expvar.Map)}
	cm.emap.Set("messages_sent", &cm.msgSent)
	cm.emap.Set("messages_send_failed", &cm.msgSendErr)
	cm.emap.Set("messages_received", &cm.msgReceived)
	cm.emap.Set("messages_bounced", &cm.msgBounced)
	cm.emap.Set("replies_sent", &cm.repliesSent)
	cm.emap.Set("reply_timeouts", &cm.replyTimeouts)
	cm.emap.Set("presence_writes", &cm.presence)
	cm.emap.Set("errors_recorded", &cm.errors)
	return cm
}

// Metric names accepted by Core.Count.
const (
	MetricSent          = "messages_sent"
	MetricSendFailed    = "messages_send_failed"
	MetricReceived      = "messages_received"
	MetricBounced       = "messages_bounced"
	MetricReplies       = "replies_sent"
	MetricReplyTimeouts = "reply_timeouts"
	MetricPresence      = "presence_writes"
)

// Metrics returns the metrics map shared by all channels. It is safe for the
// caller to add additional metrics to the map.
func Metrics() *expvar.Map { return rootMetrics.emap }

// Count increments the named channel metric. Unknown names are ignored.
func (c *Core) Count(name string) {
	if v, ok := rootMetrics.emap.Get(name).(*expvar.Int); ok {
		v.Add(1)
	}
}
