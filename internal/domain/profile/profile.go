package profile

import "fmt"

// Platform identifies a delivery target with preset rendition defaults.
type Platform string

const (
	PlatformYouTube   Platform = "youtube"
	PlatformInstagram Platform = "instagram"
	PlatformTikTok    Platform = "tiktok"
)

// Profile is the full set of transform parameters for one platform.
// Extras carries the platform specific switches that have no shared shape.
type Profile struct {
	Platform    Platform       `json:"platform"`
	AspectRatio string         `json:"aspect_ratio"`
	Width       int            `json:"width"`
	Height      int            `json:"height"`
	Quality     int            `json:"quality"`
	AutoCaption bool           `json:"auto_caption"`
	Extras      map[string]any `json:"extras"`
}

// Clone returns a deep copy so callers can mutate without touching defaults.
func (p Profile) Clone() Profile {
	out := p
	out.Extras = make(map[string]any, len(p.Extras))
	for k, v := range p.Extras {
		out.Extras[k] = v
	}
	return out
}

// Registry holds the preset defaults per platform. Defaults are fixed at
// construction; sessions customize their own copies, never the presets.
type Registry struct {
	defaults map[Platform]Profile
	order    []Platform
}

func NewRegistry() *Registry {
	return &Registry{
		defaults: map[Platform]Profile{
			PlatformYouTube: {
				Platform:    PlatformYouTube,
				AspectRatio: "16:9",
				Width:       1920,
				Height:      1080,
				Quality:     80,
				AutoCaption: false,
				Extras: map[string]any{
					"endScreen":   true,
					"annotations": false,
				},
			},
			PlatformInstagram: {
				Platform:    PlatformInstagram,
				AspectRatio: "1:1",
				Width:       1080,
				Height:      1080,
				Quality:     70,
				AutoCaption: true,
				Extras: map[string]any{
					"filter":    "normal",
					"boomerang": false,
				},
			},
			PlatformTikTok: {
				Platform:    PlatformTikTok,
				AspectRatio: "9:16",
				Width:       1080,
				Height:      1920,
				Quality:     75,
				AutoCaption: true,
				Extras: map[string]any{
					"addMusic": true,
					"effects":  "none",
				},
			},
		},
		order: []Platform{PlatformYouTube, PlatformInstagram, PlatformTikTok},
	}
}

// Default returns a copy of the preset for the platform.
func (r *Registry) Default(platform Platform) (Profile, error) {
	preset, ok := r.defaults[platform]
	if !ok {
		return Profile{}, fmt.Errorf("unknown platform %q", platform)
	}
	return preset.Clone(), nil
}

// Platforms lists the supported platforms in a stable order.
func (r *Registry) Platforms() []Platform {
	out := make([]Platform, len(r.order))
	copy(out, r.order)
	return out
}

// Defaults returns copies of all presets, in platform order.
func (r *Registry) Defaults() []Profile {
	out := make([]Profile, 0, len(r.order))
	for _, platform := range r.order {
		out = append(out, r.defaults[platform].Clone())
	}
	return out
}
