// Package config holds the immutable game tunables and the process-wide
// server configuration, along with the cobra/viper command wiring that
// turns flags and environment variables into a Config value.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Game tunables, per the specification's Constants & Config surface.
const (
	MinPlayers         = 3
	MaxPlayers         = 8
	RoundsPerGame      = 2
	PromptsPerPlayer   = 2
	AnswerTime         = 90 * time.Second
	VoteTime           = 30 * time.Second
	LastLashAnswerTime = 90 * time.Second
	LastLashVoteTime   = 45 * time.Second
	MaxAnswerLength    = 100
	RoomCodeLength     = 4
	PointsPerVote      = 100
	QuipwitBonus       = 100
	LastLashFirst      = 300
)

// Sentinel answer values. Stored verbatim so the scoring kernel can
// recognize them without threading extra flags through the room model.
const (
	NoAnswerSentinel = "[No answer]"
	SkippedSentinel  = "[Skipped]"
)

// Hold durations between FSM phases. They are constants; the fsm tests
// skip the holds by calling the next phase directly.
const (
	MatchupResultHold = 4 * time.Second
	VotingGraceDelay  = 1500 * time.Millisecond
	ScoringHold       = 5 * time.Second
	LastLashHold      = 8 * time.Second
)

const releaseVersion = "1.0.0"

// Config is the process-wide server configuration, populated from flags,
// environment variables (QUIPWITS_*), and their defaults.
type Config struct {
	Bind         string
	Port         int
	Prefix       string
	Profile      bool
	RoomTimeout  time.Duration
	PromptAPIURL string
	PromptAPIKey string
	TLSCert      string
	TLSKey       string
	Verbose      bool
	Version      bool
}

func (c *Config) Validate() error {
	if (c.TLSCert == "") != (c.TLSKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.Port)
	}
	return nil
}

func (c *Config) Scheme() string {
	if c.TLSCert != "" && c.TLSKey != "" {
		return "https"
	}
	return "http"
}

func (c *Config) Logf(format string, args ...any) {
	if !c.Verbose {
		return
	}
	fmt.Printf("%s | "+format+"\n", append([]any{time.Now().Format(LogDate)}, args...)...)
}

const LogDate = `2006-01-02T15:04:05.000-07:00`

// NewCommand builds the root "quipwits" command, binding flags to cfg and
// layering QUIPWITS_* environment variables underneath explicit flags.
func NewCommand(cfg *Config, run func(cmd *cobra.Command, args []string) error) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("QUIPWITS")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "quipwits",
		Short:         "Authoritative server for the QuipWits party word game.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			return run(cmd, args)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.Bind, "bind", "b", "0.0.0.0", "address to bind to (env: QUIPWITS_BIND)")
	fs.IntVarP(&cfg.Port, "port", "p", 3000, "port to listen on (env: QUIPWITS_PORT)")
	fs.StringVar(&cfg.Prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: QUIPWITS_PREFIX)")
	fs.BoolVar(&cfg.Profile, "profile", false, "register net/http/pprof handlers (env: QUIPWITS_PROFILE)")
	fs.DurationVar(&cfg.RoomTimeout, "room-timeout", 60*time.Minute, "age since creation after which a room is reaped (env: QUIPWITS_ROOM_TIMEOUT)")
	fs.StringVar(&cfg.PromptAPIURL, "prompt-api-url", "", "remote prompt-generation endpoint; empty disables it (env: QUIPWITS_PROMPT_API_URL)")
	fs.StringVar(&cfg.PromptAPIKey, "prompt-api-key", "", "API key for the remote prompt generator (env: QUIPWITS_PROMPT_API_KEY / ANTHROPIC_API_KEY)")
	fs.StringVar(&cfg.TLSCert, "tls-cert", "", "path to tls certificate (env: QUIPWITS_TLS_CERT)")
	fs.StringVar(&cfg.TLSKey, "tls-key", "", "path to tls keyfile (env: QUIPWITS_TLS_KEY)")
	fs.BoolVarP(&cfg.Verbose, "verbose", "v", false, "display additional output (env: QUIPWITS_VERBOSE)")
	fs.BoolVarP(&cfg.Version, "version", "V", false, "display version and exit (env: QUIPWITS_VERSION)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("quipwits v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}

// Version reports the release version embedded in the binary.
func Version() string {
	return releaseVersion
}
