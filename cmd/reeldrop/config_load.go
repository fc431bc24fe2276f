package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"reeldrop/internal/cli"
	"reeldrop/internal/config"
	"reeldrop/internal/logging"
	"reeldrop/internal/version"
)

type Config struct {
	ConfigFile  string
	Settings    config.Settings
	Verbose     bool
	Quiet       bool
	ShowVersion bool
	Sources     map[string]configSource
}

type configSource string

const (
	sourceDefault configSource = "default"
	sourceFile    configSource = "file"
	sourceEnv     configSource = "env"
	sourceFlag    configSource = "flag"
)

type flagValues struct {
	ConfigFile    string
	WatchDir      string
	CheckInterval int
	LogLevel      string
	APIEnabled    bool
	Port          int
	Token         string
	UploadEnabled bool
	TokenFile     string
	Verbose       bool
	Quiet         bool
	Help          bool
	Version       bool
	Set           map[string]bool
}

type helpOption struct {
	Name string
	Desc string
}

func loadConfig(args []string) (Config, error) {
	defaults := config.Defaults()
	flags, err := parseFlags(args, defaults)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Sources: make(map[string]configSource),
	}

	configFile := ""
	configFileSource := sourceDefault
	if rawFile := strings.TrimSpace(os.Getenv("REELDROP_CONFIG")); rawFile != "" {
		configFile = rawFile
		configFileSource = sourceEnv
	}
	if flags.Set["config"] {
		configFile = strings.TrimSpace(flags.ConfigFile)
		configFileSource = sourceFlag
	}
	cfg.ConfigFile = configFile
	cfg.Sources["config"] = configFileSource

	settings, err := config.Load(configFile)
	if err != nil {
		return Config{}, err
	}
	fileDefaults := settings

	watchDir := fileDefaults.WatchDir
	watchDirSource := settingSource(fileDefaults.WatchDir != defaults.WatchDir)
	if rawDir := strings.TrimSpace(os.Getenv("REELDROP_WATCH_DIR")); rawDir != "" {
		watchDir = rawDir
		watchDirSource = sourceEnv
	}
	if flags.Set["watch-dir"] {
		trimmed := strings.TrimSpace(flags.WatchDir)
		if trimmed == "" {
			return Config{}, fmt.Errorf("invalid --watch-dir: value cannot be empty")
		}
		watchDir = trimmed
		watchDirSource = sourceFlag
	}
	settings.WatchDir = watchDir
	cfg.Sources["watch-dir"] = watchDirSource

	checkInterval := fileDefaults.CheckInterval
	checkIntervalSource := settingSource(fileDefaults.CheckInterval != defaults.CheckInterval)
	if rawInterval := strings.TrimSpace(os.Getenv("REELDROP_CHECK_INTERVAL")); rawInterval != "" {
		if parsed, err := strconv.Atoi(rawInterval); err == nil && parsed > 0 {
			checkInterval = time.Duration(parsed) * time.Second
			checkIntervalSource = sourceEnv
		}
	}
	if flags.Set["check-interval"] {
		if flags.CheckInterval <= 0 {
			return Config{}, fmt.Errorf("invalid --check-interval: must be > 0")
		}
		checkInterval = time.Duration(flags.CheckInterval) * time.Second
		checkIntervalSource = sourceFlag
	}
	settings.CheckInterval = checkInterval
	cfg.Sources["check-interval"] = checkIntervalSource

	logLevel := fileDefaults.LogLevel
	logLevelSource := settingSource(fileDefaults.LogLevel != defaults.LogLevel)
	if rawLevel := strings.TrimSpace(os.Getenv("REELDROP_LOG_LEVEL")); rawLevel != "" {
		logLevel = rawLevel
		logLevelSource = sourceEnv
	}
	if flags.Set["log-level"] {
		logLevel = flags.LogLevel
		logLevelSource = sourceFlag
	}
	if _, ok := logging.ParseLevel(logLevel); !ok {
		return Config{}, fmt.Errorf("invalid log level %q", logLevel)
	}
	settings.LogLevel = logLevel
	cfg.Sources["log-level"] = logLevelSource

	apiEnabled := fileDefaults.API.Enabled
	apiEnabledSource := settingSource(fileDefaults.API.Enabled != defaults.API.Enabled)
	if rawEnabled := strings.TrimSpace(os.Getenv("REELDROP_API_ENABLED")); rawEnabled != "" {
		if parsed, err := strconv.ParseBool(rawEnabled); err == nil {
			apiEnabled = parsed
			apiEnabledSource = sourceEnv
		}
	}
	if flags.Set["api"] {
		apiEnabled = flags.APIEnabled
		apiEnabledSource = sourceFlag
	}
	settings.API.Enabled = apiEnabled
	cfg.Sources["api"] = apiEnabledSource

	port := fileDefaults.API.Port
	portSource := settingSource(fileDefaults.API.Port != defaults.API.Port)
	if rawPort := strings.TrimSpace(os.Getenv("REELDROP_PORT")); rawPort != "" {
		if parsed, err := strconv.Atoi(rawPort); err == nil && parsed > 0 {
			port = parsed
			portSource = sourceEnv
		}
	}
	if flags.Set["port"] {
		if flags.Port <= 0 {
			return Config{}, fmt.Errorf("invalid --port: must be > 0")
		}
		port = flags.Port
		portSource = sourceFlag
	}
	settings.API.Port = port
	cfg.Sources["port"] = portSource

	token := fileDefaults.API.AuthToken
	tokenSource := settingSource(fileDefaults.API.AuthToken != defaults.API.AuthToken)
	if rawToken := os.Getenv("REELDROP_TOKEN"); rawToken != "" {
		token = rawToken
		tokenSource = sourceEnv
	}
	if flags.Set["token"] {
		token = flags.Token
		tokenSource = sourceFlag
	}
	settings.API.AuthToken = token
	cfg.Sources["token"] = tokenSource

	uploadEnabled := fileDefaults.Upload.Enabled
	uploadEnabledSource := settingSource(fileDefaults.Upload.Enabled != defaults.Upload.Enabled)
	if rawEnabled := strings.TrimSpace(os.Getenv("REELDROP_UPLOAD_ENABLED")); rawEnabled != "" {
		if parsed, err := strconv.ParseBool(rawEnabled); err == nil {
			uploadEnabled = parsed
			uploadEnabledSource = sourceEnv
		}
	}
	if flags.Set["upload"] {
		uploadEnabled = flags.UploadEnabled
		uploadEnabledSource = sourceFlag
	}
	settings.Upload.Enabled = uploadEnabled
	cfg.Sources["upload"] = uploadEnabledSource

	tokenFile := fileDefaults.Upload.TokenFile
	tokenFileSource := settingSource(fileDefaults.Upload.TokenFile != defaults.Upload.TokenFile)
	if rawFile := strings.TrimSpace(os.Getenv("REELDROP_TOKEN_FILE")); rawFile != "" {
		tokenFile = rawFile
		tokenFileSource = sourceEnv
	}
	if flags.Set["token-file"] {
		trimmed := strings.TrimSpace(flags.TokenFile)
		if trimmed == "" {
			return Config{}, fmt.Errorf("invalid --token-file: value cannot be empty")
		}
		tokenFile = trimmed
		tokenFileSource = sourceFlag
	}
	settings.Upload.TokenFile = tokenFile
	cfg.Sources["token-file"] = tokenFileSource

	verboseSource := sourceDefault
	if flags.Set["verbose"] {
		cfg.Verbose = flags.Verbose
		verboseSource = sourceFlag
	}
	cfg.Sources["verbose"] = verboseSource

	quietSource := sourceDefault
	if flags.Set["quiet"] {
		cfg.Quiet = flags.Quiet
		quietSource = sourceFlag
	}
	cfg.Sources["quiet"] = quietSource

	cfg.ShowVersion = flags.Version
	cfg.Settings = settings
	return cfg, nil
}

func settingSource(fromFile bool) configSource {
	if fromFile {
		return sourceFile
	}
	return sourceDefault
}

func parseFlags(args []string, defaults config.Settings) (flagValues, error) {
	if args == nil {
		args = []string{}
	}
	fs := flag.NewFlagSet("reeldrop", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	configFile := fs.String("config", "", "Config file path")
	watchDir := fs.String("watch-dir", defaults.WatchDir, "Directory to watch for recordings")
	checkInterval := fs.Int("check-interval", int(defaults.CheckInterval/time.Second), "Quiescence check interval in seconds")
	logLevel := fs.String("log-level", defaults.LogLevel, "Log level (debug, info, warning, error)")
	apiEnabled := fs.Bool("api", defaults.API.Enabled, "Serve the status API")
	port := fs.Int("port", defaults.API.Port, "Status API port")
	token := fs.String("token", defaults.API.AuthToken, "Auth token for REST/WS")
	uploadEnabled := fs.Bool("upload", defaults.Upload.Enabled, "Upload finished recordings")
	tokenFile := fs.String("token-file", defaults.Upload.TokenFile, "OAuth token cache path")
	verbose := fs.Bool("verbose", false, "Enable verbose logging")
	quiet := fs.Bool("quiet", false, "Reduce logging to warnings")
	helpVersion := cli.AddHelpVersionFlags(fs)

	fs.Usage = func() {
		printHelp(fs.Output(), defaults)
	}

	if err := fs.Parse(args); err != nil {
		return flagValues{}, err
	}

	set := make(map[string]bool)
	fs.Visit(func(flag *flag.Flag) {
		set[flag.Name] = true
	})

	flags := flagValues{
		ConfigFile:    *configFile,
		WatchDir:      *watchDir,
		CheckInterval: *checkInterval,
		LogLevel:      *logLevel,
		APIEnabled:    *apiEnabled,
		Port:          *port,
		Token:         *token,
		UploadEnabled: *uploadEnabled,
		TokenFile:     *tokenFile,
		Verbose:       *verbose,
		Quiet:         *quiet,
		Help:          helpVersion.Help,
		Version:       helpVersion.Version,
		Set:           set,
	}

	if flags.Help {
		set["help"] = true
		fs.SetOutput(os.Stdout)
		fs.Usage()
		return flags, flag.ErrHelp
	}

	if flags.Version {
		set["version"] = true
	}

	return flags, nil
}

func printHelp(out io.Writer, defaults config.Settings) {
	fmt.Fprintln(out, "Usage: reeldrop [options]")
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Watches a recordings directory and uploads each file once it stops growing")
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Options:")

	writeOptionGroup(out, "Detector", []helpOption{
		{
			Name: "--watch-dir DIR",
			Desc: fmt.Sprintf("Directory to watch (env: REELDROP_WATCH_DIR, default: %s)", defaults.WatchDir),
		},
		{
			Name: "--check-interval SECONDS",
			Desc: fmt.Sprintf("Quiescence check interval (env: REELDROP_CHECK_INTERVAL, default: %d)", int(defaults.CheckInterval/time.Second)),
		},
	})

	writeOptionGroup(out, "Upload", []helpOption{
		{
			Name: "--upload",
			Desc: fmt.Sprintf("Upload finished recordings (env: REELDROP_UPLOAD_ENABLED, default: %t)", defaults.Upload.Enabled),
		},
		{
			Name: "--token-file PATH",
			Desc: fmt.Sprintf("OAuth token cache path (env: REELDROP_TOKEN_FILE, default: %s)", defaults.Upload.TokenFile),
		},
	})

	writeOptionGroup(out, "API", []helpOption{
		{
			Name: "--api",
			Desc: fmt.Sprintf("Serve the status API (env: REELDROP_API_ENABLED, default: %t)", defaults.API.Enabled),
		},
		{
			Name: "--port PORT",
			Desc: fmt.Sprintf("Status API port (env: REELDROP_PORT, default: %d)", defaults.API.Port),
		},
		{
			Name: "--token TOKEN",
			Desc: "Auth token for REST/WS (env: REELDROP_TOKEN, default: none)",
		},
	})

	writeOptionGroup(out, "Config", []helpOption{
		{
			Name: "--config PATH",
			Desc: "Config file path (env: REELDROP_CONFIG, default: none)",
		},
		{
			Name: "--log-level LEVEL",
			Desc: fmt.Sprintf("Log level (env: REELDROP_LOG_LEVEL, default: %s)", defaults.LogLevel),
		},
	})

	writeOptionGroup(out, "Logging", []helpOption{
		{
			Name: "--verbose",
			Desc: "Enable verbose logging",
		},
		{
			Name: "--quiet",
			Desc: "Reduce logging to warnings",
		},
	})

	writeOptionGroup(out, "Other", []helpOption{
		{
			Name: "--help, -h",
			Desc: "Show help and exit",
		},
		{
			Name: "--version, -v",
			Desc: "Print version and exit",
		},
	})
}

func writeOptionGroup(out io.Writer, title string, options []helpOption) {
	if len(options) == 0 {
		return
	}
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, title+":")
	for _, option := range options {
		fmt.Fprintf(out, "  %-24s %s\n", option.Name, option.Desc)
	}
}

func resolveLogLevel(cfg Config) logging.Level {
	level, ok := logging.ParseLevel(cfg.Settings.LogLevel)
	if !ok {
		level = logging.LevelInfo
	}
	if cfg.Verbose {
		level = logging.LevelDebug
	}
	if cfg.Quiet {
		level = logging.LevelWarning
	}
	return level
}

func logStartupConfig(logger *logging.Logger, cfg Config) {
	if logger == nil {
		return
	}
	logger.Debug("resolved configuration", map[string]string{
		"watch_dir":      cfg.Settings.WatchDir,
		"check_interval": cfg.Settings.CheckInterval.String(),
		"api_enabled":    strconv.FormatBool(cfg.Settings.API.Enabled),
		"port":           strconv.Itoa(cfg.Settings.API.Port),
		"upload_enabled": strconv.FormatBool(cfg.Settings.Upload.Enabled),
		"token_file":     cfg.Settings.Upload.TokenFile,
	})
	for name, source := range cfg.Sources {
		if source == sourceDefault {
			continue
		}
		logger.Debug("config override", map[string]string{
			"option": name,
			"source": string(source),
		})
	}
}

func logVersionInfo(logger *logging.Logger) {
	if logger == nil {
		return
	}
	versionLabel := version.Version
	if strings.TrimSpace(versionLabel) == "" {
		versionLabel = "dev"
	}
	logger.Info(fmt.Sprintf("reeldrop version %s", versionLabel), map[string]string{
		"version": versionLabel,
	})
}
