package shader

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// Profile captures the host-version differences the builders care about.
// It is resolved once from the host version instead of probing sockets per
// material.
type Profile struct {
	Name string

	// SpecularInput is the principled input that controls specular strength.
	SpecularInput string

	// SeparateColor is the node splitting a colour into channels, with its
	// input socket and R, G, B output sockets.
	SeparateColor        NodeKind
	SeparateColorInput   string
	SeparateColorOutputs [3]string

	// Material properties that only exist on some hosts.
	HasShadowMethod        bool
	HasSurfaceRenderMethod bool
}

var (
	profileEeveeNext = Profile{
		Name:                   "eevee-next",
		SpecularInput:          "Specular IOR Level",
		SeparateColor:          KindSeparateColor,
		SeparateColorInput:     "Color",
		SeparateColorOutputs:   [3]string{"Red", "Green", "Blue"},
		HasSurfaceRenderMethod: true,
	}
	profilePrincipledV2 = Profile{
		Name:                 "principled-v2",
		SpecularInput:        "Specular IOR Level",
		SeparateColor:        KindSeparateColor,
		SeparateColorInput:   "Color",
		SeparateColorOutputs: [3]string{"Red", "Green", "Blue"},
		HasShadowMethod:      true,
	}
	profileSeparateColor = Profile{
		Name:                 "separate-color",
		SpecularInput:        "Specular",
		SeparateColor:        KindSeparateColor,
		SeparateColorInput:   "Color",
		SeparateColorOutputs: [3]string{"Red", "Green", "Blue"},
		HasShadowMethod:      true,
	}
	profileLegacy = Profile{
		Name:                 "legacy",
		SpecularInput:        "Specular",
		SeparateColor:        KindSeparateRGB,
		SeparateColorInput:   "Image",
		SeparateColorOutputs: [3]string{"R", "G", "B"},
		HasShadowMethod:      true,
	}
)

// profileTable is checked in order; the first matching constraint wins.
var profileTable = []struct {
	constraint string
	profile    Profile
}{
	{">= 4.2.0-0", profileEeveeNext},
	{">= 4.0.0-0, < 4.2.0-0", profilePrincipledV2},
	{">= 3.3.0-0, < 4.0.0-0", profileSeparateColor},
	{"< 3.3.0-0", profileLegacy},
}

// LatestProfile returns the profile of the newest supported host.
func LatestProfile() Profile {
	return profileEeveeNext
}

// ResolveProfile picks the profile for a host version such as "4.1" or
// "3.6.5".
func ResolveProfile(version string) (Profile, error) {
	v, err := semver.NewVersion(version)
	if err != nil {
		return Profile{}, fmt.Errorf("parsing host version %q: %w", version, err)
	}
	for _, entry := range profileTable {
		c, err := semver.NewConstraint(entry.constraint)
		if err != nil {
			return Profile{}, fmt.Errorf("profile constraint %q: %w", entry.constraint, err)
		}
		if c.Check(v) {
			return entry.profile, nil
		}
	}
	return LatestProfile(), nil
}
