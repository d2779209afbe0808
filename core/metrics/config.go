package metrics

import "github.com/kilianp07/chargeboard/core/factory"

// Config lists the sinks to build. An empty list yields a NopSink.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks"`
}
