// Command questctl talks to the quest backend from a terminal: it inspects a
// submission through the same detail controller the browser uses and performs
// the owner and viewer actions (like, reply, edit, delete).
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"quest-ui/config"
	"quest-ui/internal/logging"
	"quest-ui/internal/questapi"
)

var version = "0.1.0"

func main() {
	if err := newRootCmd(os.Stdout, os.Stdin).Execute(); err != nil {
		// Cobra already printed the error
		os.Exit(1)
	}
}

// cli carries the resolved settings shared by every subcommand.
type cli struct {
	out io.Writer
	in  io.Reader

	configPath string
	envFiles   []string
	apiURL     string
	token      string
	tokenPage  string
	cookie     string
	verbose    bool

	cfg    config.Config
	client *questapi.Client
	logger logging.Logger
}

func newRootCmd(out io.Writer, in io.Reader) *cobra.Command {
	c := &cli{out: out, in: in}
	root := &cobra.Command{
		Use:     "questctl",
		Short:   "Quest submission client",
		Long:    "A CLI for viewing and acting on quest submissions through the quest REST API.",
		Version: version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup()
		},
		SilenceUsage: true,
	}
	root.SetOut(out)
	root.SetErr(out)
	root.SetIn(in)

	flags := root.PersistentFlags()
	flags.StringVar(&c.configPath, "config", "", "JSON config file (optional)")
	flags.StringSliceVar(&c.envFiles, "env", []string{".env"}, ".env files to load before reading QUESTUI_* variables")
	flags.StringVar(&c.apiURL, "api", "", "Quest backend base URL (overrides config and QUESTUI_API_BASE_URL)")
	flags.StringVar(&c.token, "token", "", "CSRF token to send with every request")
	flags.StringVar(&c.tokenPage, "token-page", "", "Page to scrape the csrf-token meta tag from, absolute or relative to --api")
	flags.StringVar(&c.cookie, "cookie", "", `Session cookie header, e.g. "session=abc"`)
	flags.BoolVarP(&c.verbose, "verbose", "v", false, "Log requests and background failures to stderr")

	root.AddCommand(
		c.showCmd(),
		c.repliesCmd(),
		c.likeCmd(),
		c.unlikeCmd(),
		c.replyCmd(),
		c.commentCmd(),
		c.photoCmd(),
		c.deleteCmd(),
	)
	return root
}

func (c *cli) setup() error {
	cfg := config.Default()
	if path := strings.TrimSpace(c.configPath); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	cfg, err := config.LoadEnv(cfg, c.envFiles...)
	if err != nil {
		return err
	}
	if v := strings.TrimSpace(c.apiURL); v != "" {
		cfg.API.BaseURL = v
	}
	if v := strings.TrimSpace(c.token); v != "" {
		cfg.API.CSRFToken = v
	}
	if v := strings.TrimSpace(c.tokenPage); v != "" {
		cfg.API.TokenPage = v
	}
	if v := strings.TrimSpace(c.cookie); v != "" {
		cfg.API.SessionCookie = v
	}
	c.cfg = cfg

	c.logger = logging.Discard()
	if c.verbose {
		c.logger = logging.NewWithWriter(os.Stderr)
	}

	httpClient, err := questapi.NewHTTPClient(cfg.API.BaseURL, cfg.API.SessionCookie, cfg.API.Timeout())
	if err != nil {
		return err
	}
	var tokens questapi.TokenSource
	switch {
	case cfg.API.CSRFToken != "":
		tokens = questapi.StaticToken(cfg.API.CSRFToken)
	case cfg.API.TokenPage != "":
		src, err := questapi.NewPageTokenSource(httpClient, cfg.API.BaseURL, cfg.API.TokenPage)
		if err != nil {
			return err
		}
		tokens = src
	}
	c.client = &questapi.Client{
		HTTPClient: httpClient,
		BaseURL:    cfg.API.BaseURL,
		Tokens:     tokens,
		Logger:     c.logger,
	}
	return nil
}

func (c *cli) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}
