// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package linkconfig

import (
	"os"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"grimm.is/moonlink/internal/errors"
	"grimm.is/moonlink/internal/logging"
)

// document is the top-level shape of a moonlink impairment config file:
// four labeled link blocks, one per link kind.
//
//	link "earth_to_earth" { ... }
//	link "earth_to_moon"  { ... }
//	link "moon_to_earth"  { ... }
//	link "moon_to_moon"   { ... }
type document struct {
	Links []linkBlock `hcl:"link,block"`
}

type linkBlock struct {
	Name   string   `hcl:"name,label"`
	Remain hcl.Body `hcl:",remain"`
}

// fieldSpec binds an HCL attribute name to the LinkParameters field it
// populates, so presence (not just decoded value) drives default fallback.
var fieldSpecs = []struct {
	attr string
	get  func(*LinkParameters) *float64
}{
	{"base_latency_ms", func(p *LinkParameters) *float64 { return &p.BaseLatencyMS }},
	{"latency_jitter_ms", func(p *LinkParameters) *float64 { return &p.LatencyJitterMS }},
	{"latency_jitter_stddev", func(p *LinkParameters) *float64 { return &p.LatencyJitterStddev }},
	{"base_bit_error_rate", func(p *LinkParameters) *float64 { return &p.BaseBitErrorRate }},
	{"bit_error_rate_stddev", func(p *LinkParameters) *float64 { return &p.BitErrorRateStddev }},
	{"base_packet_loss_burst_freq_per_hour", func(p *LinkParameters) *float64 { return &p.BasePacketLossBurstFreqPerHour }},
	{"packet_loss_burst_freq_stddev", func(p *LinkParameters) *float64 { return &p.PacketLossBurstFreqStddev }},
	{"base_packet_loss_burst_duration_ms", func(p *LinkParameters) *float64 { return &p.BasePacketLossBurstDurationMS }},
	{"base_packet_loss_burst_duration_stddev", func(p *LinkParameters) *float64 { return &p.BasePacketLossBurstDurationStddev }},
	{"throughput_limit_mbps", func(p *LinkParameters) *float64 { return &p.ThroughputLimitMbps }},
}

// parseFile reads and decodes an HCL document at path. Any field missing
// within a present section falls back to its default individually, logged
// once per reload. Whether a missing section is itself tolerated depends on
// strict: the initial load (NewStore) tolerates it and substitutes the
// baked-in default for that link; a reload (strict=true) treats a missing
// section as fatal so the caller can retain the previous configuration
// whole, per the contract that a partial reload must never silently revert
// part of the live configuration to built-in defaults.
func parseFile(path string, logger *logging.Logger, strict bool) (Configuration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.KindConfigMissing, "linkconfig: opening configuration file")
	}
	return parseBytes(path, data, logger, strict)
}

func parseBytes(filename string, data []byte, logger *logging.Logger, strict bool) (Configuration, error) {
	parser := hclparse.NewParser()
	f, diags := parser.ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, errors.Errorf(errors.KindConfigSectionMissing, "linkconfig: parsing %s: %s", filename, diags.Error())
	}

	var doc document
	if diags := gohcl.DecodeBody(f.Body, nil, &doc); diags.HasErrors() {
		return nil, errors.Errorf(errors.KindConfigSectionMissing, "linkconfig: decoding %s: %s", filename, diags.Error())
	}

	cfg := Defaults()
	seen := make(map[string]bool, len(doc.Links))
	for _, block := range doc.Links {
		kind, ok := labelToKind[block.Name]
		if !ok {
			logger.Warn("linkconfig: ignoring unknown link section", "label", block.Name)
			continue
		}
		seen[block.Name] = true

		params, err := decodeLinkBody(block.Remain, Defaults()[kind], block.Name, logger)
		if err != nil {
			return nil, err
		}
		cfg[kind] = params
	}

	for _, label := range requiredLabels {
		if seen[label] {
			continue
		}
		if strict {
			return nil, errors.Errorf(errors.KindConfigSectionMissing, "linkconfig: section %q missing from configuration", label)
		}
		logger.Warn("linkconfig: section missing from configuration, using defaults", "section", label)
	}

	return cfg, nil
}

// decodeLinkBody reads only the attributes actually present in body,
// applying def's value for every attribute the document omits.
func decodeLinkBody(body hcl.Body, def LinkParameters, section string, logger *logging.Logger) (LinkParameters, error) {
	attrs, diags := body.JustAttributes()
	if diags.HasErrors() {
		return LinkParameters{}, errors.Errorf(errors.KindConfigFieldMissing, "linkconfig: reading section %s: %s", section, diags.Error())
	}

	result := def
	for _, spec := range fieldSpecs {
		attr, ok := attrs[spec.attr]
		if !ok {
			logger.Warn("linkconfig: field missing, using default", "section", section, "field", spec.attr, "default", *spec.get(&def))
			continue
		}

		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			logger.Warn("linkconfig: field has invalid value, using default", "section", section, "field", spec.attr, "default", *spec.get(&def))
			continue
		}

		f, _ := val.AsBigFloat().Float64()
		*spec.get(&result) = f
	}

	return result, nil
}
