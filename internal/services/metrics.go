package services

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var callbacksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "twitter_oauth_callbacks_total",
	Help: "Number of processed OAuth callbacks by outcome",
}, []string{"outcome"})

var tokenRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "twitter_oauth_token_requests_total",
	Help: "Number of requests to the Twitter token endpoint",
}, []string{"grant", "status"})

var apiRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "twitter_oauth_api_requests_total",
	Help: "Number of bearer-authenticated Twitter API requests",
}, []string{"operation", "status"})

// statusLabel код відповіді або "error" якщо відповіді не було
func statusLabel(code int) string {
	if code == 0 {
		return "error"
	}
	return strconv.Itoa(code)
}
