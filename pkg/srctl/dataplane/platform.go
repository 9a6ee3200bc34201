package dataplane

import (
	"fmt"
	"strings"

	"github.com/jalapeno-sdn/srctl/pkg/util"
)

// Platform identifies a dataplane backend. The set is closed: route specs
// select a backend by token and anything outside the set is rejected before
// any programming is attempted.
type Platform int

const (
	// PlatformLinux is the kernel backend driven over netlink.
	PlatformLinux Platform = iota
	// PlatformVPP is the software-forwarder backend driven over the VPP
	// binary API.
	PlatformVPP
)

// String returns the platform token.
func (p Platform) String() string {
	switch p {
	case PlatformLinux:
		return "linux"
	case PlatformVPP:
		return "vpp"
	default:
		return fmt.Sprintf("platform(%d)", int(p))
	}
}

// ParsePlatform resolves a platform token case-insensitively.
func ParsePlatform(token string) (Platform, error) {
	switch strings.ToLower(token) {
	case "linux":
		return PlatformLinux, nil
	case "vpp":
		return PlatformVPP, nil
	default:
		return 0, fmt.Errorf("%w: %q", util.ErrUnsupportedPlatform, token)
	}
}

// NewProgrammer constructs a fresh Programmer for the platform. There is no
// instance pooling: each Programmer's backend session is scoped to its own
// use and released by Close.
func NewProgrammer(p Platform) (Programmer, error) {
	switch p {
	case PlatformLinux:
		return NewLinuxProgrammer()
	case PlatformVPP:
		return NewVPPProgrammer()
	default:
		return nil, fmt.Errorf("%w: %s", util.ErrUnsupportedPlatform, p)
	}
}

// GetProgrammer resolves a platform token and constructs its Programmer.
func GetProgrammer(token string) (Programmer, error) {
	p, err := ParsePlatform(token)
	if err != nil {
		return nil, err
	}
	return NewProgrammer(p)
}
