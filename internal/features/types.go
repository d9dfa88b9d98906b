// Package features computes named signal features from cleaned per-epoch
// accelerometer channels. Extraction is schema-driven: a classifier declares
// the exact feature names its trained parameters expect and the extractor
// computes exactly those, deterministically.
package features

import (
	"fmt"
	"sort"
)

// Vector is the fixed-schema feature vector for one epoch.
type Vector struct {
	EpochIndex int                `json:"epoch_index"`
	Values     map[string]float64 `json:"values"`
}

// Get returns a feature value by name.
func (v Vector) Get(name string) (float64, bool) {
	val, ok := v.Values[name]
	return val, ok
}

// Names returns the feature names in sorted order.
func (v Vector) Names() []string {
	names := make([]string, 0, len(v.Values))
	for name := range v.Values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ComputationError reports a requested feature that cannot be derived from
// the available channels, naming the unresolvable feature.
type ComputationError struct {
	Feature string
	Reason  string
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("cannot compute feature %q: %s", e.Feature, e.Reason)
}

// ChannelSet holds the named signal channels of one epoch that features are
// computed over: raw axes, band-isolated axes, magnitudes and principal
// components.
type ChannelSet struct {
	SampleRate float64
	channels   map[string][]float64
}

// NewChannelSet creates an empty channel set at the given sample rate.
func NewChannelSet(sampleRate float64) *ChannelSet {
	return &ChannelSet{
		SampleRate: sampleRate,
		channels:   make(map[string][]float64),
	}
}

// Add registers a channel. Re-adding a name replaces it.
func (cs *ChannelSet) Add(name string, data []float64) {
	cs.channels[name] = data
}

// Get returns a channel by name.
func (cs *ChannelSet) Get(name string) ([]float64, bool) {
	data, ok := cs.channels[name]
	return data, ok
}

// Names returns the channel names in sorted order.
func (cs *ChannelSet) Names() []string {
	names := make([]string, 0, len(cs.channels))
	for name := range cs.channels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
