package service

import "github.com/prometheus/client_golang/prometheus"

const (
	opCreate = "create"
	opUpdate = "update"
	opDelete = "delete"
)

var postOps = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "feed_post_writes_total",
		Help: "Post write operations by outcome",
	},
	[]string{"op", "result"},
)

func init() {
	prometheus.MustRegister(postOps)
}

func observe(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	postOps.WithLabelValues(op, result).Inc()
}
