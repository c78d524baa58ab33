// Copyright (c) 2024 Arista Networks, Inc.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

// Package metrics exposes a graveyard table's probe-length and memory
// statistics as Prometheus gauges, implementing prometheus.Collector the
// same way the teacher corpus's gNMI-to-Prometheus bridge does.
package metrics

import (
	"github.com/aristanetworks/graveyard/internal/table"
	"github.com/prometheus/client_golang/prometheus"
)

// Table is the subset of graveyard.Set/graveyard.Map a Collector needs.
// Both satisfy it without any adapter code.
type Table interface {
	Len() int
	Capacity() int
	AllocatedMemorySize() int
	ProbeStatistics() table.ProbeStatistics
}

var (
	probeSuccessfulDesc = prometheus.NewDesc(
		"graveyard_probe_length_successful",
		"Mean number of buckets visited by a lookup of a present key.",
		[]string{"table"}, nil)
	probeUnsuccessfulDesc = prometheus.NewDesc(
		"graveyard_probe_length_unsuccessful",
		"Mean number of buckets a lookup of an absent key would visit.",
		[]string{"table"}, nil)
	allocatedBytesDesc = prometheus.NewDesc(
		"graveyard_allocated_bytes",
		"Bytes held by the table's bucket array.",
		[]string{"table"}, nil)
	loadFactorDesc = prometheus.NewDesc(
		"graveyard_load_factor",
		"Fraction of the table's capacity currently occupied.",
		[]string{"table"}, nil)
)

// Collector implements prometheus.Collector over one named graveyard
// table, reading its live statistics on every scrape rather than caching
// them, since unlike the gNMI bridge this has no push-based update
// stream to cache against.
type Collector struct {
	name  string
	table Table
}

// NewCollector returns a Collector that reports t's statistics under the
// given table name (used as the "table" label so multiple tables can
// share one registry).
func NewCollector(name string, t Table) *Collector {
	return &Collector{name: name, table: t}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- probeSuccessfulDesc
	ch <- probeUnsuccessfulDesc
	ch <- allocatedBytesDesc
	ch <- loadFactorDesc
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	stats := c.table.ProbeStatistics()
	ch <- prometheus.MustNewConstMetric(probeSuccessfulDesc, prometheus.GaugeValue, stats.Successful, c.name)
	ch <- prometheus.MustNewConstMetric(probeUnsuccessfulDesc, prometheus.GaugeValue, stats.Unsuccessful, c.name)
	ch <- prometheus.MustNewConstMetric(allocatedBytesDesc, prometheus.GaugeValue, float64(c.table.AllocatedMemorySize()), c.name)

	var loadFactor float64
	if capacity := c.table.Capacity(); capacity > 0 {
		loadFactor = float64(c.table.Len()) / float64(capacity)
	}
	ch <- prometheus.MustNewConstMetric(loadFactorDesc, prometheus.GaugeValue, loadFactor, c.name)
}
