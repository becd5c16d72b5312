// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package validation checks operator-supplied strings (flags, config
// fields) before they reach a syscall boundary.
package validation

import (
	"regexp"
	"strings"

	"grimm.is/moonlink/internal/errors"
)

// interfaceNameRegex matches a valid Linux network interface name:
// alphanumeric, dash, underscore, dot (for VLANs), max 15 chars (IFNAMSIZ-1).
var interfaceNameRegex = regexp.MustCompile(`^[a-zA-Z0-9_.-]{1,15}$`)

var dangerousChars = []string{";", "|", "&", "$", "`", "(", ")", "<", ">", "\\", "\"", "'", "\n", "\r"}

// ValidateInterfaceName validates the -interface flag before it reaches
// netlink.LinkByName.
func ValidateInterfaceName(name string) error {
	if name == "" {
		return errors.New(errors.KindValidation, "interface name cannot be empty")
	}
	if len(name) > 15 {
		return errors.Errorf(errors.KindValidation, "interface name too long (max 15 characters): %s", name)
	}
	if !interfaceNameRegex.MatchString(name) {
		return errors.Errorf(errors.KindValidation, "invalid interface name: %s (must be alphanumeric with -_.)", name)
	}
	for _, char := range dangerousChars {
		if strings.Contains(name, char) {
			return errors.Errorf(errors.KindValidation, "interface name contains dangerous character: %s", char)
		}
	}
	return nil
}
