// Package cli implements dashctl, a terminal client for the document
// dashboard. It shares the dashboard view model with the web UI and keeps
// its local state in a bbolt file.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"docdash/internal/client"
	"docdash/internal/dashboard"
	"docdash/internal/session"
)

// API is what the commands need from the server.
type API interface {
	dashboard.API
	DownloadDocument(ctx context.Context, token string, id int64) (io.ReadCloser, string, error)
}

// Deps are the seams tests replace.
type Deps struct {
	Out          io.Writer
	In           io.Reader
	Logger       *slog.Logger
	ReadPassword func() ([]byte, error)
	NewAPI       func(cfg Config) (API, error)
	OpenStore    func(path string) (session.Store, io.Closer, error)
}

// App is the state shared by all commands during one invocation.
type App struct {
	deps         Deps
	out          io.Writer
	in           *bufio.Reader
	readPassword func() ([]byte, error)

	cfg   Config
	api   API
	store session.Store
	dash  *dashboard.Service
	close io.Closer
}

// DefaultDeps wires the real terminal, HTTP client and bbolt store.
func DefaultDeps() Deps {
	return Deps{
		Out:    os.Stdout,
		In:     os.Stdin,
		Logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})),
		ReadPassword: func() ([]byte, error) {
			return term.ReadPassword(int(os.Stdin.Fd()))
		},
		NewAPI: func(cfg Config) (API, error) {
			return client.New(cfg.APIURL, cfg.Timeout)
		},
		OpenStore: func(path string) (session.Store, io.Closer, error) {
			s, err := session.OpenBolt(path)
			if err != nil {
				return nil, nil, err
			}
			return s, s, nil
		},
	}
}

// NewRootCmd builds the dashctl command tree.
func NewRootCmd(deps Deps) *cobra.Command {
	return newApp(deps).rootCmd()
}

func newApp(deps Deps) *App {
	return &App{
		deps:         deps,
		out:          deps.Out,
		in:           bufio.NewReader(deps.In),
		readPassword: deps.ReadPassword,
	}
}

func (a *App) rootCmd() *cobra.Command {
	var (
		configPath string
		apiURL     string
	)

	root := &cobra.Command{
		Use:           "dashctl",
		Short:         "Document dashboard in the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(configPath)
			if err != nil {
				return err
			}
			if apiURL != "" {
				cfg.APIURL = apiURL
			}
			return a.open(cfg)
		},
	}
	root.SetOut(a.out)
	root.SetErr(a.out)
	root.PersistentFlags().StringVar(&configPath, "config", DefaultConfigPath(), "config file (YAML)")
	root.PersistentFlags().StringVar(&apiURL, "api-url", "", "API base URL, overrides the config file")

	root.AddCommand(
		a.loginCmd(),
		a.registerCmd(),
		a.logoutCmd(),
		a.whoamiCmd(),
		a.lsCmd(),
		a.uploadCmd(),
		a.rmCmd(),
		a.getCmd(),
		a.settingsCmd(),
	)
	return root
}

func (a *App) open(cfg Config) error {
	api, err := a.deps.NewAPI(cfg)
	if err != nil {
		return err
	}
	store, closer, err := a.deps.OpenStore(cfg.StorePath)
	if err != nil {
		return err
	}
	a.cfg, a.api, a.store, a.close = cfg, api, store, closer
	a.dash = dashboard.New(api, a.deps.Logger)
	return nil
}

func (a *App) shutdown() error {
	if a.close == nil {
		return nil
	}
	err := a.close.Close()
	a.close = nil
	return err
}

// Execute runs dashctl with os.Args and returns the exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a := newApp(DefaultDeps())
	err := a.rootCmd().ExecuteContext(ctx)
	if cerr := a.shutdown(); err == nil {
		err = cerr
	}
	if err == nil {
		return 0
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", friendly(err))
	return 1
}

func friendly(err error) error {
	switch {
	case errors.Is(err, dashboard.ErrSessionExpired):
		return errors.New("session expired, run `dashctl login`")
	case errors.Is(err, session.ErrCorruptSession):
		return errors.New("stored session was corrupt and has been cleared, run `dashctl login`")
	case errors.Is(err, session.ErrNoSession):
		return errors.New("not logged in, run `dashctl login`")
	}
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		return errors.New(apiErr.Message)
	}
	return err
}

func formatTime(t time.Time) string {
	return t.Local().Format("2006-01-02 15:04")
}
