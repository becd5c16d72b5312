// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package linkconfig

import "grimm.is/moonlink/internal/linkkind"

// Defaults returns the engine's built-in impairment profile for every link
// kind. These values are the original simulator's own defaults, applied
// whenever a configuration document is missing, a section within it is
// missing, or an individual field within a present section is missing.
func Defaults() Configuration {
	return Configuration{
		linkkind.BaseToBase: {
			BaseLatencyMS:                     0,
			LatencyJitterMS:                   0,
			LatencyJitterStddev:                0,
			BaseBitErrorRate:                   0,
			BitErrorRateStddev:                 0,
			BasePacketLossBurstFreqPerHour:     0,
			PacketLossBurstFreqStddev:          0,
			BasePacketLossBurstDurationMS:      0,
			BasePacketLossBurstDurationStddev:  0,
			ThroughputLimitMbps:                0,
		},
		linkkind.BaseToRover: {
			BaseLatencyMS:                     1280.0,
			LatencyJitterMS:                   100.0,
			LatencyJitterStddev:                50.0,
			BaseBitErrorRate:                   1e-5,
			BitErrorRateStddev:                 5e-6,
			BasePacketLossBurstFreqPerHour:     1.0,
			PacketLossBurstFreqStddev:          0.5,
			BasePacketLossBurstDurationMS:      500.0,
			BasePacketLossBurstDurationStddev:  100.0,
			ThroughputLimitMbps:                0,
		},
		linkkind.RoverToBase: {
			BaseLatencyMS:                     1280.0,
			LatencyJitterMS:                   100.0,
			LatencyJitterStddev:                50.0,
			BaseBitErrorRate:                   1e-5,
			BitErrorRateStddev:                 5e-6,
			BasePacketLossBurstFreqPerHour:     1.0,
			PacketLossBurstFreqStddev:          0.5,
			BasePacketLossBurstDurationMS:      500.0,
			BasePacketLossBurstDurationStddev:  100.0,
			ThroughputLimitMbps:                7.5,
		},
		linkkind.RoverToMoon: {
			BaseLatencyMS:                     30.0,
			LatencyJitterMS:                   10.0,
			LatencyJitterStddev:                5.0,
			BaseBitErrorRate:                   2e-6,
			BitErrorRateStddev:                 1e-6,
			BasePacketLossBurstFreqPerHour:     0.2,
			PacketLossBurstFreqStddev:          0.1,
			BasePacketLossBurstDurationMS:      50.0,
			BasePacketLossBurstDurationStddev:  10.0,
			ThroughputLimitMbps:                7.5,
		},
	}
}
