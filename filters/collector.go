package filters

import "github.com/prometheus/client_golang/prometheus"

// recorderCollector exports the counters of a StreamRecorder. Values are read
// when the registry is scraped.
type recorderCollector struct {
	r *StreamRecorder

	samples   *prometheus.Desc
	underruns *prometheus.Desc
	dropped   *prometheus.Desc
	seekFails *prometheus.Desc
	position  *prometheus.Desc
	length    *prometheus.Desc
	recording *prometheus.Desc
}

// NewRecorderCollector returns a collector for the stats of r. The recorder
// name is added as the "recorder" label of every metric.
func NewRecorderCollector(name string, r *StreamRecorder) prometheus.Collector {
	labels := prometheus.Labels{"recorder": name}
	desc := func(metric, help string) *prometheus.Desc {
		return prometheus.NewDesc("recorder_"+metric, help, nil, labels)
	}
	return &recorderCollector{
		r:         r,
		samples:   desc("samples_written_total", "Samples per channel written to the stream"),
		underruns: desc("underruns_total", "Frames not fully accepted by the stream"),
		dropped:   desc("dropped_samples_total", "Samples per channel not accepted by the stream"),
		seekFails: desc("seek_failures_total", "Rewinds the stream failed to perform"),
		position:  desc("position_samples", "Current write position"),
		length:    desc("length_samples", "Largest position reached in the stream"),
		recording: desc("recording", "Whether the recorder is recording"),
	}
}

func (c *recorderCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.samples
	ch <- c.underruns
	ch <- c.dropped
	ch <- c.seekFails
	ch <- c.position
	ch <- c.length
	ch <- c.recording
}

func (c *recorderCollector) Collect(ch chan<- prometheus.Metric) {
	stats := c.r.Stats()
	counter := func(d *prometheus.Desc, v uint64) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, float64(v))
	}
	gauge := func(d *prometheus.Desc, v float64) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.GaugeValue, v)
	}
	counter(c.samples, stats.SamplesWritten)
	counter(c.underruns, stats.Underruns)
	counter(c.dropped, stats.DroppedSamples)
	counter(c.seekFails, stats.SeekFailures)
	gauge(c.position, float64(c.r.Position()))
	gauge(c.length, float64(c.r.Length()))
	var rec float64
	if c.r.IsRecording() {
		rec = 1
	}
	gauge(c.recording, rec)
}
