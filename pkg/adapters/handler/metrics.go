package handler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	redirectsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "urltrimmer_redirects_total",
		Help: "Redirect resolutions by outcome.",
	}, []string{"outcome"})

	linksCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "urltrimmer_links_created_total",
		Help: "Short links minted (idempotent hits excluded).",
	})
)
