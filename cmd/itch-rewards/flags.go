package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"itch-rewards/internal/config"
	"itch-rewards/internal/rules"
)

// errUsage is returned after pflag already printed the problem.
var errUsage = errors.New("usage")

// commonFlags are accepted by every command that talks to the storefront.
type commonFlags struct {
	configDir  string
	username   string
	password   string
	totp       string
	cookiePath string
	cookies    bool
	backend    string
}

func (f *commonFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.configDir, "app-config", "config", "Directory holding config.yaml")
	fs.StringVarP(&f.username, "username", "u", "", "Itch username")
	fs.StringVarP(&f.password, "password", "p", "", "Itch password")
	fs.StringVar(&f.totp, "totp", "", "Two-factor code, when the account requires one")
	fs.StringVar(&f.cookiePath, "cookie-path", "", "Path to cookies file for future logins")
	fs.BoolVar(&f.cookies, "cookies", true, "Enable cookie storage")
	fs.StringVar(&f.backend, "backend", "", "Reward store backend: platform, postgres or snapshot")
}

// load reads config.yaml and applies explicitly set flags on top.
func (f *commonFlags) load(fs *pflag.FlagSet) (*config.Config, error) {
	cfg, err := config.Load(f.configDir)
	if err != nil {
		return nil, err
	}

	if fs.Changed("username") {
		cfg.Platform.Username = f.username
	}
	if fs.Changed("password") {
		cfg.Platform.Password = f.password
	}
	if fs.Changed("totp") {
		cfg.Platform.TOTP = f.totp
	}
	if fs.Changed("cookie-path") {
		cfg.Platform.CookiePath = f.cookiePath
	}
	if fs.Changed("cookies") {
		cfg.Platform.Cookies = f.cookies
	}
	if fs.Changed("backend") {
		cfg.Store.Backend = f.backend
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	configureLogging(cfg.Log.Level, cfg.Log.Format)
	return cfg, nil
}

// recalcFlags are the options of recalculate and schedule.
type recalcFlags struct {
	rulesPath string
	save      bool
}

func (f *recalcFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.rulesPath, "config", rules.DefaultPath, "Path to config file")
	fs.BoolVar(&f.save, "save", false, "Saves changes when enabled. Otherwise, dry-run and show result")
}

func (f *recalcFlags) path(fs *pflag.FlagSet, cfg *config.Config) string {
	if fs.Changed("config") || cfg.Rules.Path == "" {
		return f.rulesPath
	}
	return cfg.Rules.Path
}

func newFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s %s [options]\n", os.Args[0], name)
		fs.PrintDefaults()
	}
	return fs
}

func parse(fs *pflag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return errUsage
		}
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	return nil
}
