// Package config defines service configuration structures and loading.
//
// Conventions:
// - Provide New() defaults and Load(ctx) for layered loading.
// - Every analysis threshold lives here; the domain engines take them as
//   inputs and carry no defaults of their own.
package config

// BarConfig identifies one participating bar's scoreboard and its league
// night.
type BarConfig struct {
	// Token is the bar's scoreboard API token.
	Token string `koanf:"token"`

	// BarName is the display name used on round records.
	BarName string `koanf:"bar_name"`

	// PokerNight is the bar's league weekday: 0=Monday .. 6=Sunday.
	PokerNight int `koanf:"poker_night"`
}

// SkillConfig holds the rating-model hyperparameters.
type SkillConfig struct {
	Mu              float64 `koanf:"mu"`
	Sigma           float64 `koanf:"sigma"`
	Beta            float64 `koanf:"beta"`
	Tau             float64 `koanf:"tau"`
	DrawProbability float64 `koanf:"draw_probability"`
}

// SMTPConfig holds outbound mail settings. An empty Host disables mail.
type SMTPConfig struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	From     string `koanf:"from"`
	Password string `koanf:"password"`
}

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// MinRoundsRequired filters leaderboards to players with at least this
	// many rounds.
	MinRoundsRequired int `koanf:"min_rounds_required"`

	// ITMPercent is the top-of-field percentage counting as in the money.
	ITMPercent float64 `koanf:"itm_percent"`

	// ROIPayoutPercent is the fraction of the field that gets paid.
	ROIPayoutPercent float64 `koanf:"roi_payout_percent"`

	// ROISteepness is the payout curve decay exponent.
	ROISteepness float64 `koanf:"roi_steepness"`

	// NameSimilarityThreshold is the fuzzy ratio (0-100) at which two
	// first names count as the same person.
	NameSimilarityThreshold float64 `koanf:"name_similarity_threshold"`

	// Skill holds the rating-model hyperparameters.
	Skill SkillConfig `koanf:"skill"`

	// Bars lists the participating bars' scoreboards.
	Bars []BarConfig `koanf:"bars"`

	// RefreshIntervalMinutes schedules the scoreboard refresh job; 0
	// disables it.
	RefreshIntervalMinutes int `koanf:"refresh_interval_minutes"`

	// ResolverIntervalMinutes schedules the adaptive name check; 0
	// disables it.
	ResolverIntervalMinutes int `koanf:"resolver_interval_minutes"`

	// PostgresDSN connects the bun repositories. Empty keeps everything
	// in memory, which suits tests and local runs.
	PostgresDSN string `koanf:"postgres_dsn"`

	// SMTP configures the clash notification mailer.
	SMTP SMTPConfig `koanf:"smtp"`

	// ClashRecipients receive name clash notifications.
	ClashRecipients []string `koanf:"clash_recipients"`
}

// New returns the built-in defaults. Thresholds mirror the league's
// long-standing settings but remain overridable per deployment.
func New() *Config {
	return &Config{
		LogLevel:                "info",
		Addr:                    ":9080",
		MinRoundsRequired:       16,
		ITMPercent:              20,
		ROIPayoutPercent:        0.2,
		ROISteepness:            1.1,
		NameSimilarityThreshold: 79.9,
		Skill: SkillConfig{
			Mu:              25,
			Sigma:           25.0 / 3,
			Beta:            25.0 / 6,
			Tau:             25.0 / 300,
			DrawProbability: 0,
		},
		RefreshIntervalMinutes:  60,
		ResolverIntervalMinutes: 24 * 60,
	}
}
