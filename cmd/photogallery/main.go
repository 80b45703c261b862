package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alexflint/go-arg"
	"gopkg.in/yaml.v2"
)

// cliArgs holds the command-line arguments
type cliArgs struct {
	Pattern    string `arg:"positional,required" help:"Glob matching the photos to include, e.g. \"~/Photos/**/*.jpg\""`
	OutputDir  string `arg:"--output" help:"Directory the gallery is written to (deleted and recreated on every run)"`
	ConfigFile string `arg:"--config" help:"Path to config file"`
	Verbose    bool   `arg:"-v,--verbose" help:"Enable verbose output"`
}

func (cliArgs) Description() string {
	return "photogallery builds a paginated static HTML gallery of photos grouped by capture date"
}

// config holds the application configuration
type config struct {
	Pattern    string `yaml:"-"`
	OutputDir  string `yaml:"output_directory"`
	ConfigFile string `yaml:"-"`
	Verbose    bool   `yaml:"verbose"`
}

// setDefaults initializes the config with default values
func setDefaults(cfg *config) {
	cfg.OutputDir = "output"
	cfg.Verbose = false

	// Without a home directory there is simply no default config file
	if homeDir, err := os.UserHomeDir(); err == nil {
		cfg.ConfigFile = filepath.Join(homeDir, ".photogalleryrc")
	}
}

// parseConfigFile reads and parses the YAML configuration file
func parseConfigFile(cfg *config) error {
	if cfg.ConfigFile == "" {
		return nil
	}

	data, err := os.ReadFile(cfg.ConfigFile)
	if err != nil {
		if os.IsNotExist(err) {
			// Config file doesn't exist, just return without an error
			return nil
		}
		return fmt.Errorf("failed to read config file: %v", err)
	}

	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		return fmt.Errorf("failed to parse config file: %v", err)
	}

	return nil
}

// validateConfig checks if the configuration is valid
func validateConfig(cfg *config) error {
	if cfg.Pattern == "" {
		return fmt.Errorf("glob pattern is not specified")
	}

	if cfg.OutputDir == "" {
		return fmt.Errorf("output directory is not specified")
	}

	// The output directory is wiped on every run, refuse anything that
	// would take the user's files with it
	outDir, err := filepath.Abs(cfg.OutputDir)
	if err != nil {
		return fmt.Errorf("failed to resolve output directory: %w", err)
	}
	protected := []string{string(filepath.Separator)}
	if wd, err := os.Getwd(); err == nil {
		protected = append(protected, wd)
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		protected = append(protected, homeDir)
	}
	for _, dir := range protected {
		if outDir == filepath.Clean(dir) {
			return fmt.Errorf("refusing to use %s as output directory", outDir)
		}
	}

	return nil
}

// wasFlagProvided checks if a CLI flag was explicitly provided
func wasFlagProvided(argv []string, flagName string) bool {
	for _, a := range argv {
		if a == flagName || strings.HasPrefix(a, flagName+"=") {
			return true
		}
	}
	return false
}

func run(argv []string) error {
	cfg := config{}
	setDefaults(&cfg)

	var args cliArgs
	p, err := arg.NewParser(arg.Config{Program: "photogallery"}, &args)
	if err != nil {
		return fmt.Errorf("building argument parser: %w", err)
	}
	if err := p.Parse(argv); err != nil {
		if errors.Is(err, arg.ErrHelp) {
			p.WriteHelp(os.Stdout)
			return nil
		}
		p.WriteUsage(os.Stderr)
		return fmt.Errorf("parsing arguments: %w", err)
	}

	if args.ConfigFile != "" {
		cfg.ConfigFile = args.ConfigFile
	}

	if err := parseConfigFile(&cfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	// Override with command-line arguments
	cfg.Pattern = args.Pattern
	if args.OutputDir != "" {
		cfg.OutputDir = args.OutputDir
	}
	if wasFlagProvided(argv, "-v") || wasFlagProvided(argv, "--verbose") {
		cfg.Verbose = args.Verbose
	}

	if err := validateConfig(&cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if err := buildGallery(cfg); err != nil {
		return fmt.Errorf("building gallery: %w", err)
	}

	return nil
}

// buildGallery handles the main functionality of the program
func buildGallery(cfg config) error {
	log := newLogger(os.Stderr, cfg.Verbose)

	pattern, err := resolvePattern(cfg.Pattern)
	if err != nil {
		return err
	}
	log.Debug().Str("pattern", pattern).Str("output", cfg.OutputDir).Msg("starting")

	if err := resetOutputDir(cfg.OutputDir); err != nil {
		return err
	}

	buckets, err := scanPhotos(pattern, log)
	if err != nil {
		return err
	}

	stats, err := renderGallery(cfg.OutputDir, buckets, log)
	if err != nil {
		return err
	}

	log.Info().
		Int("photos", stats.Photos).
		Int("pages", stats.Pages).
		Str("output", cfg.OutputDir).
		Msg("gallery written")

	return nil
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
