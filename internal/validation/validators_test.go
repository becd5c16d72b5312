// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package validation

import "testing"

func TestValidateInterfaceName(t *testing.T) {
	tests := []struct {
		name    string
		iface   string
		wantErr bool
	}{
		{"empty", "", true},
		{"valid physical", "eth0", false},
		{"valid vlan dot", "eth0.100", false},
		{"valid dash underscore", "rover-uplink_0", false},
		{"too long", "this-name-is-way-too-long", true},
		{"shell metacharacter", "eth0; rm -rf /", true},
		{"backtick injection", "eth0`whoami`", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateInterfaceName(tt.iface)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateInterfaceName(%q) error = %v, wantErr %v", tt.iface, err, tt.wantErr)
			}
		})
	}
}
