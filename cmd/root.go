package cmd

import (
	"log"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/talent-matcher/internal/classifier"
	"github.com/spigell/talent-matcher/internal/filtering"
	"github.com/spigell/talent-matcher/internal/matching"
	"github.com/spigell/talent-matcher/internal/store"
)

const (
	app = "talent-matcher"
)

type Config struct {
	Store      store.Config     `mapstructure:"store"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Matching   MatchingConfig   `mapstructure:"matching"`
	Classifier ClassifierConfig `mapstructure:"classifier"`
	Filters    filtering.Config `mapstructure:"filters"`
	Report     ReportConfig     `mapstructure:"report"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
}

type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Driver  string        `mapstructure:"driver"`
	TTL     time.Duration `mapstructure:"ttl"`
	Redis   *RedisConfig  `mapstructure:"redis"`
}

type RedisConfig struct {
	Addr         string `mapstructure:"addr"`
	DB           int    `mapstructure:"db"`
	PasswordFile string `mapstructure:"password-file"`
	Prefix       string `mapstructure:"prefix"`
}

type MatchingConfig struct {
	Workers int              `mapstructure:"workers"`
	TopN    int              `mapstructure:"top-n"`
	Weights *matching.Config `mapstructure:"weights"`
}

// ClassifierConfig tunes the built-in rule set. Units extend or replace the built-in units by name.
type ClassifierConfig struct {
	DefaultUnit string                  `mapstructure:"default-unit"`
	Priority    []string                `mapstructure:"priority"`
	Units       []classifier.UnitConfig `mapstructure:"units"`
	Overrides   map[string]any          `mapstructure:"overrides"`
}

type ReportConfig struct {
	XLSX string `mapstructure:"xlsx"`
}

type MetricsConfig struct {
	Textfile string `mapstructure:"textfile"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "talent-matcher ranks vacancies for candidates and routes postings to business units",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("store.postgres.dsn-file", "TALENT_MATCHER_DSN_FILE"); err != nil {
		log.Fatalf("binding TALENT_MATCHER_DSN_FILE environment variable: %v", err)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is talent-matcher.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	// version works without a config.
	if versionCmd.CalledAs() != "" {
		return
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// We can't proceed if the config file parsed with error.
	if err := viper.ReadInConfig(); err != nil {
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}
	if config == nil {
		config = &Config{}
	}

	return config, nil
}
