// Package prometheus renders goSeal Engine metrics in the Prometheus text
// exposition format. Mount [Exporter.Handler] on a route of your choice; no
// global registry is touched.
package prometheus
