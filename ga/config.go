// Package ga implements the Google Analytics integration: it translates
// normalized page, identify and track events into the exact vendor call
// sequences of the legacy (classic) tag, the modern (universal) tag, and the
// modern tag with the enhanced e-commerce plugin.
package ga

import (
	"fmt"

	"github.com/caarlos0/env/v10"
)

// Name is the integration name used to address per-event option overrides.
const Name = "Google Analytics"

// TrackerName is the named tracker created when Config.NameTracker is set.
const TrackerName = "gatagTracker"

// Config holds the integration settings. All fields can be populated from
// the environment via LoadConfig.
type Config struct {
	// TrackingID is the vendor property id (required).
	TrackingID string `env:"GA_TRACKING_ID"`

	// Domain is the cookie domain. The default "auto" lets the vendor tag
	// pick; "none" disables domain cookies.
	Domain string `env:"GA_DOMAIN" envDefault:"auto"`

	// Classic selects the legacy tag instead of the modern one.
	Classic bool `env:"GA_CLASSIC"`

	// EnhancedEcommerce enables the enhanced e-commerce plugin. It has no
	// effect when Classic is set.
	EnhancedEcommerce bool `env:"GA_ENHANCED_ECOMMERCE"`

	// AnonymizeIP asks the vendor to anonymize the client IP.
	AnonymizeIP bool `env:"GA_ANONYMIZE_IP"`

	// DoubleClick enables the advertising features variant of the tag.
	DoubleClick bool `env:"GA_DOUBLE_CLICK"`

	// EnhancedLinkAttribution enables the link attribution plugin.
	EnhancedLinkAttribution bool `env:"GA_ENHANCED_LINK_ATTRIBUTION"`

	// IncludeSearch keeps the query string on page paths.
	IncludeSearch bool `env:"GA_INCLUDE_SEARCH"`

	// NameTracker creates a named tracker instead of the default one, and
	// prefixes every tracker command with its name.
	NameTracker bool `env:"GA_NAME_TRACKER"`

	// NonInteraction marks all events as non-interaction hits.
	NonInteraction bool `env:"GA_NON_INTERACTION"`

	// Optimize is an Optimize container id to require at initialize.
	Optimize string `env:"GA_OPTIMIZE"`

	// SampleRate is the visitor sampling percentage.
	SampleRate int `env:"GA_SAMPLE_RATE" envDefault:"100"`

	// SiteSpeedSampleRate is the site speed sampling percentage.
	SiteSpeedSampleRate int `env:"GA_SITE_SPEED_SAMPLE_RATE" envDefault:"1"`

	// SendUserID forwards the identified user id to the vendor.
	SendUserID bool `env:"GA_SEND_USER_ID"`

	// SetAllMappedProps sets mapped custom dimensions and metrics on the
	// tracker for all subsequent hits, rather than attaching them to the
	// single hit that carried them.
	SetAllMappedProps bool `env:"GA_SET_ALL_MAPPED_PROPS" envDefault:"true"`

	// TrackCategorizedPages sends a derived event for categorized pages.
	TrackCategorizedPages bool `env:"GA_TRACK_CATEGORIZED_PAGES" envDefault:"true"`

	// TrackNamedPages sends a derived event for named pages.
	TrackNamedPages bool `env:"GA_TRACK_NAMED_PAGES" envDefault:"true"`

	// IgnoredReferrers are referrer domains excluded from referral traffic.
	// Only the legacy tag supports this.
	IgnoredReferrers []string `env:"GA_IGNORED_REFERRERS" envSeparator:","`

	// Dimensions maps property names to custom dimension slots ("dimension3").
	Dimensions map[string]string `env:"GA_DIMENSIONS"`

	// Metrics maps property names to custom metric slots ("metric5").
	Metrics map[string]string `env:"GA_METRICS"`

	// ContentGroupings maps property names to content grouping slots.
	ContentGroupings map[string]string `env:"GA_CONTENT_GROUPINGS"`
}

// DefaultConfig returns a Config with the option defaults applied, for
// callers constructing configuration in code rather than from the
// environment.
func DefaultConfig() Config {
	return Config{
		Domain:                "auto",
		SampleRate:            100,
		SiteSpeedSampleRate:   1,
		SetAllMappedProps:     true,
		TrackCategorizedPages: true,
		TrackNamedPages:       true,
	}
}

// LoadConfig reads the configuration from environment variables.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Validate checks that the configuration is usable. The integration itself
// does not validate: it relays whatever id it was given, so deployments that
// want to fail fast on a missing tracking id call this before New.
func (c Config) Validate() error {
	if c.TrackingID == "" {
		return fmt.Errorf("tracking id is required")
	}
	if c.SampleRate < 0 || c.SampleRate > 100 {
		return fmt.Errorf("sample rate must be between 0 and 100, got %d", c.SampleRate)
	}
	if c.SiteSpeedSampleRate < 0 || c.SiteSpeedSampleRate > 100 {
		return fmt.Errorf("site speed sample rate must be between 0 and 100, got %d", c.SiteSpeedSampleRate)
	}
	return nil
}
