// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package linkconfig holds the hot-reloadable, per-link impairment
// parameters read from an HCL document, behind a reader/writer lock that
// hands out non-tearing snapshots to the packet-processing path.
package linkconfig

import "grimm.is/moonlink/internal/linkkind"

// LinkParameters is the full set of impairment knobs for one link kind.
type LinkParameters struct {
	BaseLatencyMS                       float64 `hcl:"base_latency_ms,optional" json:"base_latency_ms"`
	LatencyJitterMS                     float64 `hcl:"latency_jitter_ms,optional" json:"latency_jitter_ms"`
	LatencyJitterStddev                 float64 `hcl:"latency_jitter_stddev,optional" json:"latency_jitter_stddev"`
	BaseBitErrorRate                    float64 `hcl:"base_bit_error_rate,optional" json:"base_bit_error_rate"`
	BitErrorRateStddev                  float64 `hcl:"bit_error_rate_stddev,optional" json:"bit_error_rate_stddev"`
	BasePacketLossBurstFreqPerHour      float64 `hcl:"base_packet_loss_burst_freq_per_hour,optional" json:"base_packet_loss_burst_freq_per_hour"`
	PacketLossBurstFreqStddev           float64 `hcl:"packet_loss_burst_freq_stddev,optional" json:"packet_loss_burst_freq_stddev"`
	BasePacketLossBurstDurationMS       float64 `hcl:"base_packet_loss_burst_duration_ms,optional" json:"base_packet_loss_burst_duration_ms"`
	BasePacketLossBurstDurationStddev   float64 `hcl:"base_packet_loss_burst_duration_stddev,optional" json:"base_packet_loss_burst_duration_stddev"`
	ThroughputLimitMbps                 float64 `hcl:"throughput_limit_mbps,optional" json:"throughput_limit_mbps"`
}

// Configuration is the full set of per-link parameters, keyed by link kind.
type Configuration map[linkkind.Kind]LinkParameters

// Clone returns a value copy of c, safe to hand to a reader without
// exposing the store's internal map.
func (c Configuration) Clone() Configuration {
	out := make(Configuration, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// linkLabel is the HCL block label for each link kind, matching the
// section names used by the original configuration format.
var linkLabel = map[linkkind.Kind]string{
	linkkind.BaseToBase:  "earth_to_earth",
	linkkind.BaseToRover: "earth_to_moon",
	linkkind.RoverToBase: "moon_to_earth",
	linkkind.RoverToMoon: "moon_to_moon",
}

// labelToKind is the inverse of linkLabel.
var labelToKind = map[string]linkkind.Kind{
	"earth_to_earth": linkkind.BaseToBase,
	"earth_to_moon":  linkkind.BaseToRover,
	"moon_to_earth":  linkkind.RoverToBase,
	"moon_to_moon":   linkkind.RoverToMoon,
}

// requiredLabels are the four link sections a configuration document must
// define. On the initial load a missing section is logged and that link
// kind falls back whole to its default LinkParameters; on a reload a
// missing section is a KindConfigSectionMissing error and nothing changes.
var requiredLabels = []string{"earth_to_earth", "earth_to_moon", "moon_to_earth", "moon_to_moon"}
