package metrics

import "github.com/prometheus/client_golang/prometheus"

//Register tries to register or reregister metric to prometheus default registry
func Register(m prometheus.Collector) error {
	err := prometheus.Register(m)
	if err != nil {
		prometheus.Unregister(m)
		err = prometheus.Register(m)
	}
	return err
}

//NewRequestDurations creates request latency histogram partitioned by handler name.
//Curry the handler label before passing it to promhttp
func NewRequestDurations(namespace string) *prometheus.HistogramVec {
	return prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_durations_seconds",
			Help:      "Request latency distributions.",
		}, []string{"handler"})
}

//NewCounter creates counter partitioned by the labels
func NewCounter(namespace, name, help string, labels ...string) *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: name, Help: help}, labels)
}
