package main

import (
	"fmt"

	"github.com/caarlos0/env/v11"

	"github.com/woozymasta/mw-randomizer/internal/logger"
	"github.com/woozymasta/mw-randomizer/internal/rom"
	"github.com/woozymasta/mw-randomizer/internal/rules"
)

// envConfig holds defaults taken from the environment; flags win over it.
type envConfig struct {
	Rules          string `env:"MWR_RULES"`
	Layout         string `env:"MWR_LAYOUT"`
	LogLevel       string `env:"MWR_LOG_LEVEL"       envDefault:"info"`
	LogFile        string `env:"MWR_LOG_FILE"`
	MusicDir       string `env:"MWR_MUSIC_DIR"`
	RetryLimit     int    `env:"MWR_RETRY_LIMIT"     envDefault:"100"`
	MergeThreshold int    `env:"MWR_MERGE_THRESHOLD" envDefault:"16"`
}

// loadEnv reads the environment defaults.
func loadEnv() (envConfig, error) {
	var cfg envConfig
	if err := env.Parse(&cfg); err != nil {
		return envConfig{}, fmt.Errorf("parse env: %w", err)
	}

	return cfg, nil
}

// commonOpts are the options shared by every command that reads rules.
type commonOpts struct {
	Rules    string `short:"r" long:"rules" description:"Rules file (env MWR_RULES)"`
	Layout   string `short:"l" long:"layout" description:"Image layout file (env MWR_LAYOUT)"`
	LogLevel string `long:"log-level" description:"debug, info, warn or error (env MWR_LOG_LEVEL)"`
	LogFile  string `long:"log-file" description:"Append JSON logs to a file (env MWR_LOG_FILE)"`
}

// resolve fills unset options from the environment.
func (o *commonOpts) resolve(cfg envConfig) {
	if o.Rules == "" {
		o.Rules = cfg.Rules
	}
	if o.Layout == "" {
		o.Layout = cfg.Layout
	}
	if o.LogLevel == "" {
		o.LogLevel = cfg.LogLevel
	}
	if o.LogFile == "" {
		o.LogFile = cfg.LogFile
	}
}

// setup resolves the options and starts logging.
func (o *commonOpts) setup() (envConfig, error) {
	cfg, err := loadEnv()
	if err != nil {
		return envConfig{}, err
	}
	o.resolve(cfg)

	level, err := logger.ParseLevel(o.LogLevel)
	if err != nil {
		return envConfig{}, err
	}
	if err := logger.Init(logger.Options{File: o.LogFile, Level: level}); err != nil {
		return envConfig{}, fmt.Errorf("open log: %w", err)
	}

	return cfg, nil
}

// load reads the layout and, when set, the rules.
func (o *commonOpts) load(needRules bool) (*rules.Rules, *rom.Layout, error) {
	if o.Layout == "" {
		return nil, nil, fmt.Errorf("no layout given: use --layout or MWR_LAYOUT")
	}
	l, err := rom.LoadLayout(o.Layout)
	if err != nil {
		return nil, nil, fmt.Errorf("layout %s: %w", o.Layout, err)
	}

	if o.Rules == "" {
		if needRules {
			return nil, nil, fmt.Errorf("no rules given: use --rules or MWR_RULES")
		}
		return nil, l, nil
	}

	r, err := rules.Load(o.Rules)
	if err != nil {
		return nil, nil, err
	}
	if err := r.CheckPayload(l.PayloadLen); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", o.Rules, err)
	}

	return r, l, nil
}
