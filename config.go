package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	bind    string
	port    int
	prefix  string
	profile bool
	tlsCert string
	tlsKey  string
	verbose bool
	version bool

	channel           string
	chatURL           string
	chatToken         string
	chatBackoff       time.Duration
	dictionaryURL     string
	dictionaryTimeout time.Duration
	wordList          string
}

func (c *Config) validate() error {
	if (c.tlsCert == "") != (c.tlsKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if c.chatURL != "" && c.channel == "" {
		return errors.New("--channel must be provided when --chat-url is set")
	}
	if c.chatBackoff <= 0 {
		return fmt.Errorf("invalid chat backoff (must be positive): %s", c.chatBackoff)
	}
	if c.dictionaryURL == "" {
		return errors.New("--dictionary-url must not be empty")
	}
	if c.dictionaryTimeout <= 0 {
		return fmt.Errorf("invalid dictionary timeout (must be positive): %s", c.dictionaryTimeout)
	}
	return nil
}

func (c *Config) scheme() string {
	if c.tlsCert != "" && c.tlsKey != "" {
		return "https"
	}
	return "http"
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("LIVEWORDLE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "livewordle",
		Short:         "A collaborative Wordle board for live streams, with guesses crowdsourced from the chat feed.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.verbose {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			}
			if err := cfg.validate(); err != nil {
				return err
			}
			return ServePage(cmd.Context(), cfg, args)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: LIVEWORDLE_BIND)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: LIVEWORDLE_PORT)")
	fs.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: LIVEWORDLE_PREFIX)")
	fs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: LIVEWORDLE_PROFILE)")
	fs.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate (env: LIVEWORDLE_TLS_CERT)")
	fs.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile (env: LIVEWORDLE_TLS_KEY)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: LIVEWORDLE_VERBOSE)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: LIVEWORDLE_VERSION)")

	fs.StringVar(&cfg.channel, "channel", "", "chat channel to subscribe to (env: LIVEWORDLE_CHANNEL)")
	fs.StringVar(&cfg.chatURL, "chat-url", "", "websocket endpoint of the chat transport; empty disables chat intake (env: LIVEWORDLE_CHAT_URL)")
	fs.StringVar(&cfg.chatToken, "chat-token", "", "authenticated session token, enables replies to the channel (env: LIVEWORDLE_CHAT_TOKEN)")
	fs.DurationVar(&cfg.chatBackoff, "chat-backoff", 5*time.Second, "delay between chat reconnection attempts (env: LIVEWORDLE_CHAT_BACKOFF)")
	fs.StringVar(&cfg.dictionaryURL, "dictionary-url", "https://kbbi-api-amm.herokuapp.com", "base URL of the dictionary lookup service (env: LIVEWORDLE_DICTIONARY_URL)")
	fs.DurationVar(&cfg.dictionaryTimeout, "dictionary-timeout", 10*time.Second, "timeout for dictionary lookups (env: LIVEWORDLE_DICTIONARY_TIMEOUT)")
	fs.StringVar(&cfg.wordList, "word-list", "", "path to a replacement target word list (env: LIVEWORDLE_WORD_LIST)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("livewordle v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
