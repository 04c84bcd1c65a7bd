// Package prometheus publishes engine counters through a
// client_golang Collector. Values are read from [authcore.Engine] at scrape
// time, so no state is duplicated.
package prometheus
