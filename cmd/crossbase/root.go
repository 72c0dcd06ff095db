package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/adrianmcphee/crossbase"
)

const (
	cfgKeyLogLevel    = "log_level"
	cfgKeyDev         = "dev"
	cfgKeyDisableFull = "disable_full"
	cfgKeyDataPath    = "data_path"
	cfgKeyDatabaseURL = "database_url"
	cfgKeyRedisAddr   = "redis_addr"
	cfgKeySecretKey   = "secret_key"
	cfgKeyWriteFanout = "write_fanout"
)

// hooks are the full backend's lifecycle functions. They stay zero when the
// binary is built with the standalone tag.
type hooks struct {
	linked    bool
	configure func(crossbase.Config) error
	close     func() error
	commands  []func(*app) *cobra.Command
}

var backendHooks hooks

// app holds state shared by the subcommands of one invocation.
type app struct {
	v          *viper.Viper
	configFile string
	cfg        crossbase.Config
	hooks      hooks
	devLogger  *crossbase.ZapLogger
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New(), hooks: backendHooks}

	root := &cobra.Command{
		Use:   "crossbase",
		Short: "Route message history and helpers to the full or standalone backend",
		Long: `crossbase reports which backend serves each capability group, reads and
writes message history through the router, and runs the folder auth
settings migration.`,
		SilenceUsage:       true,
		PersistentPreRunE:  a.setup,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error { return a.teardown() },
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "config file (default: ./crossbase.yaml or $HOME/.crossbase/crossbase.yaml)")
	flags.String("log-level", crossbase.DefaultLogLevel, "log level: debug, info, warn, error")
	flags.Bool("dev", false, "human-readable development logging")
	flags.Bool("disable-full", false, "never route to the full backend")
	flags.String("data", "", "data directory for the full backend")
	_ = a.v.BindPFlag(cfgKeyLogLevel, flags.Lookup("log-level"))
	_ = a.v.BindPFlag(cfgKeyDev, flags.Lookup("dev"))
	_ = a.v.BindPFlag(cfgKeyDisableFull, flags.Lookup("disable-full"))
	_ = a.v.BindPFlag(cfgKeyDataPath, flags.Lookup("data"))

	root.AddCommand(
		newVersionCmd(),
		newStatusCmd(a),
		newMessagesCmd(),
		newMigrateCmd(a),
	)
	for _, newCmd := range a.hooks.commands {
		root.AddCommand(newCmd(a))
	}
	return root
}

// setup reads the config file and environment, configures logging and hands
// the result to the full backend when it is linked.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	if cmd.Name() == "version" {
		return nil
	}
	if err := a.readConfig(); err != nil {
		return err
	}
	cfg, err := a.config()
	if err != nil {
		return err
	}
	a.cfg = cfg

	if a.v.GetBool(cfgKeyDev) {
		logger, err := crossbase.NewDevelopmentZapLogger()
		if err != nil {
			return err
		}
		a.devLogger = logger.Named("crossbase")
		crossbase.SetLogger(a.devLogger)
	} else if err := crossbase.Configure(cfg.LogLevel); err != nil {
		return err
	}

	if cfg.DisableFull {
		// The default resolver reads the switch from the environment.
		if err := os.Setenv("CROSSBASE_DISABLE_FULL", "true"); err != nil {
			return err
		}
	}
	if a.hooks.configure != nil {
		if err := a.hooks.configure(cfg); err != nil {
			return fmt.Errorf("configure full backend: %w", err)
		}
	}
	return nil
}

func (a *app) teardown() error {
	if a.devLogger != nil {
		_ = a.devLogger.Sync()
	}
	if a.hooks.close != nil {
		return a.hooks.close()
	}
	return nil
}

func (a *app) readConfig() error {
	a.v.SetEnvPrefix("CROSSBASE")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	a.v.AutomaticEnv()

	if a.configFile != "" {
		a.v.SetConfigFile(a.configFile)
	} else {
		a.v.SetConfigName("crossbase")
		a.v.SetConfigType("yaml")
		a.v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			a.v.AddConfigPath(home + "/.crossbase")
		}
	}
	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	crossbase.Log().Debug("config file loaded", "path", a.v.ConfigFileUsed())
	return nil
}

// config starts from the environment and lets the config file and flags
// override it.
func (a *app) config() (crossbase.Config, error) {
	cfg, err := crossbase.LoadConfig()
	if err != nil {
		return cfg, err
	}
	if s := a.v.GetString(cfgKeyLogLevel); s != "" {
		cfg.LogLevel = s
	}
	cfg.Dev = cfg.Dev || a.v.GetBool(cfgKeyDev)
	cfg.DisableFull = cfg.DisableFull || a.v.GetBool(cfgKeyDisableFull)
	if s := a.v.GetString(cfgKeyDataPath); s != "" {
		cfg.DataPath = s
	}
	if s := a.v.GetString(cfgKeyDatabaseURL); s != "" {
		cfg.DatabaseURL = s
	}
	if s := a.v.GetString(cfgKeyRedisAddr); s != "" {
		cfg.RedisAddr = s
	}
	if n := a.v.GetInt(cfgKeyWriteFanout); n > 0 {
		cfg.WriteFanout = n
	}
	if s := a.v.GetString(cfgKeySecretKey); s != "" {
		key, err := crossbase.DecodeSecretKey(s)
		if err != nil {
			return cfg, err
		}
		cfg.SecretKey = key
	}
	return cfg, cfg.Validate()
}
