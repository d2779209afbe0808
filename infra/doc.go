// Package infra contains technical adapters: the HTTP agent client, metrics
// exporters, error monitoring, MQTT notifications and chart rendering. These
// packages depend only on the interfaces defined in the core packages.
package infra
