package crawler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// URLsDiscovered tracks URLs derived and upserted during discovery.
	URLsDiscovered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jobcrawler_urls_discovered_total",
		Help: "The total number of URLs derived and upserted during discovery.",
	}, []string{"platform"})
	// ItemsDropped tracks discovery items that yielded no derivable URL.
	ItemsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jobcrawler_items_dropped_total",
		Help: "The total number of discovery items dropped for lacking a URL.",
	}, []string{"platform"})
	// DetailsCompleted tracks URLs whose detail crawl succeeded.
	DetailsCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jobcrawler_details_completed_total",
		Help: "The total number of URLs marked COMPLETED by detail processing.",
	}, []string{"platform"})
	// DetailsFailed tracks URLs whose detail crawl failed.
	DetailsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jobcrawler_details_failed_total",
		Help: "The total number of URLs marked FAILED by detail processing.",
	}, []string{"platform"})
)
