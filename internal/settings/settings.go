// Package settings loads dailysim.yaml and applies DAILYSIM_* environment
// overrides on top of it.
package settings

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/appengine-ltd/dailysim/internal/clock"
	"github.com/appengine-ltd/dailysim/internal/importer"
	"github.com/appengine-ltd/dailysim/internal/schema"
)

const (
	DefaultPath        = "dailysim.yaml"
	DefaultDatabase    = "dailysim.db"
	DefaultAdvanceStep = 15
)

type Sheets struct {
	Schedule []string `yaml:"schedule"`
	Location []string `yaml:"location"`
	Dialogue []string `yaml:"dialogue"`
}

type Start struct {
	Day  int    `yaml:"day"`
	Time string `yaml:"time"`
}

type Settings struct {
	Workbook  string `yaml:"workbook"`
	Database  string `yaml:"database"`
	Scene     string `yaml:"scene"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	Sheets           Sheets   `yaml:"sheets"`
	BlockKeys        []string `yaml:"block_keys"`
	LocationStrategy string   `yaml:"location_strategy"`

	Start       Start           `yaml:"start"`
	AdvanceStep int             `yaml:"advance_step_minutes"`
	Triggers    []clock.Trigger `yaml:"triggers"`
}

type envOverrides struct {
	Workbook  string `env:"DAILYSIM_WORKBOOK"`
	Database  string `env:"DAILYSIM_DB"`
	Scene     string `env:"DAILYSIM_SCENE"`
	LogLevel  string `env:"DAILYSIM_LOG_LEVEL"`
	LogFormat string `env:"DAILYSIM_LOG_FORMAT"`
}

func Default() Settings {
	s := Settings{}
	s.Normalize()
	return s
}

// Load reads path over the defaults. A missing file is not an error when
// path is the default location.
func Load(path string) (Settings, error) {
	s := Settings{}
	if strings.TrimSpace(path) == "" {
		path = DefaultPath
	}
	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(raw, &s); err != nil {
			return Default(), fmt.Errorf("%s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && path == DefaultPath:
	default:
		return Default(), err
	}
	s.Normalize()
	if err := s.Validate(); err != nil {
		return s, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// ApplyEnv overrides file values with any DAILYSIM_* variables that are set.
func ApplyEnv(s *Settings) error {
	o, err := env.ParseAs[envOverrides]()
	if err != nil {
		return fmt.Errorf("parsing environment: %w", err)
	}
	override := func(dst *string, v string) {
		if v = strings.TrimSpace(v); v != "" {
			*dst = v
		}
	}
	override(&s.Workbook, o.Workbook)
	override(&s.Database, o.Database)
	override(&s.Scene, o.Scene)
	override(&s.LogLevel, o.LogLevel)
	override(&s.LogFormat, o.LogFormat)
	s.Normalize()
	return s.Validate()
}

func (s *Settings) Normalize() {
	s.Workbook = strings.TrimSpace(s.Workbook)
	s.Database = strings.TrimSpace(s.Database)
	if s.Database == "" {
		s.Database = DefaultDatabase
	}
	s.Scene = strings.TrimSpace(s.Scene)
	s.LogLevel = strings.ToLower(strings.TrimSpace(s.LogLevel))
	if s.LogLevel == "" {
		s.LogLevel = "info"
	}
	s.LogFormat = strings.ToLower(strings.TrimSpace(s.LogFormat))
	if s.LogFormat == "" {
		s.LogFormat = "text"
	}

	s.Sheets.Schedule = orDefault(s.Sheets.Schedule, importer.DefaultScheduleSheets)
	s.Sheets.Location = orDefault(s.Sheets.Location, importer.DefaultLocationSheets)
	s.Sheets.Dialogue = orDefault(s.Sheets.Dialogue, importer.DefaultDialogueSheets)
	s.BlockKeys = orDefault(s.BlockKeys, importer.DefaultBlockKeys)
	s.LocationStrategy = strings.ToLower(strings.TrimSpace(s.LocationStrategy))
	if s.LocationStrategy == "" {
		s.LocationStrategy = string(importer.LocationAuto)
	}

	if s.Start.Day < 1 {
		s.Start.Day = 1
	}
	if strings.TrimSpace(s.Start.Time) == "" {
		s.Start.Time = "00:00"
	} else if t := schema.NormalizeTime(s.Start.Time); t != "" {
		s.Start.Time = t
	}
	if s.AdvanceStep <= 0 {
		s.AdvanceStep = DefaultAdvanceStep
	}
	for i := range s.Triggers {
		s.Triggers[i].ID = strings.TrimSpace(s.Triggers[i].ID)
	}
}

func (s Settings) Validate() error {
	var errs []error
	switch importer.LocationStrategy(s.LocationStrategy) {
	case importer.LocationAuto, importer.LocationPaired, importer.LocationInferred:
	default:
		errs = append(errs, fmt.Errorf("location_strategy %q: want auto, paired or inferred", s.LocationStrategy))
	}
	switch s.LogFormat {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log_format %q: want text or json", s.LogFormat))
	}
	if _, err := s.Level(); err != nil {
		errs = append(errs, err)
	}
	if _, ok := schema.ParseMinutes(s.Start.Time); !ok {
		errs = append(errs, fmt.Errorf("start.time %q: want HH:MM", s.Start.Time))
	}
	for i, t := range s.Triggers {
		if t.ID == "" || t.Hour < 0 || t.Hour > 23 || t.Minute < 0 || t.Minute > 59 {
			errs = append(errs, fmt.Errorf("triggers[%d] %q: invalid id or time %02d:%02d", i, t.ID, t.Hour, t.Minute))
		}
	}
	return errors.Join(errs...)
}

func (s Settings) Level() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log_level %q: %w", s.LogLevel, err)
	}
	return lvl, nil
}

// Logger builds the process logger described by the settings.
func (s Settings) Logger(w io.Writer) *slog.Logger {
	lvl, _ := s.Level()
	opts := &slog.HandlerOptions{Level: lvl}
	if s.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func (s Settings) ImportOptions(log *slog.Logger) importer.Options {
	return importer.Options{
		ScheduleSheets:   s.Sheets.Schedule,
		LocationSheets:   s.Sheets.Location,
		DialogueSheets:   s.Sheets.Dialogue,
		BlockKeys:        s.BlockKeys,
		LocationStrategy: importer.LocationStrategy(s.LocationStrategy),
		Logger:           log,
	}
}

func orDefault(v, def []string) []string {
	out := make([]string, 0, len(v))
	for _, s := range v {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return append([]string(nil), def...)
	}
	return out
}
