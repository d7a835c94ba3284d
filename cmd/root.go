package cmd

import (
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sentinelgraph/sentinelgraph/internal/config"
	"github.com/sentinelgraph/sentinelgraph/internal/graph"
	"github.com/sentinelgraph/sentinelgraph/internal/logging"
	"github.com/sentinelgraph/sentinelgraph/internal/scenario"
)

// Exit codes reported to the shell.
const (
	ExitOK               = 0
	ExitFailure          = 1
	ExitScenarioNotFound = 2
	ExitConnectionFailed = 3
)

var (
	cfgFile     string
	metricsAddr string
	v           = viper.New()
	cfg         *config.Config
	log         *logging.Logger
)

var rootCmd = &cobra.Command{
	Use:   "sgraph",
	Short: "SentinelGraph behavioral event graph toolkit",
	Long: `sgraph builds and interrogates behavioral event graphs.

Generate synthetic abuse-traffic corpora, load them into a Neo4j
property graph with temporal NEXT_EVENT ordering, and validate abuse
hypotheses with scenario-driven graph assertions.`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if metricsAddr == "" {
			return
		}
		// Best effort: scrape endpoint lives only for the command's run.
		go func() {
			if err := http.ListenAndServe(metricsAddr, promhttp.Handler()); err != nil {
				log.Warn("metrics endpoint failed", "addr", metricsAddr, "error", err)
			}
		}()
	},
}

func Execute() error {
	return rootCmd.Execute()
}

// ExitCode maps an Execute error to the shell exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var notFound *scenario.NotFoundError
	if errors.As(err, &notFound) {
		return ExitScenarioNotFound
	}
	if errors.Is(err, graph.ErrConnect) {
		return ExitConnectionFailed
	}
	return ExitFailure
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./sgraph.yaml, $HOME/.sgraph/sgraph.yaml)")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "expose Prometheus metrics on this address while the command runs")
	rootCmd.PersistentFlags().String("graph-uri", "bolt://localhost:7687", "bolt URI of the graph database")
	rootCmd.PersistentFlags().String("graph-user", "neo4j", "graph database username")
	rootCmd.PersistentFlags().String("graph-password", "", "graph database password")
	rootCmd.PersistentFlags().String("scenario-dir", "./scenarios", "directory holding scenario documents")
	rootCmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "text", "log format: text, json")

	mustBind("graph.uri", "graph-uri")
	mustBind("graph.username", "graph-user")
	mustBind("graph.password", "graph-password")
	mustBind("scenario.dir", "scenario-dir")
	mustBind("log.level", "log-level")
	mustBind("log.format", "log-format")
}

func mustBind(key, flag string) {
	if err := v.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

func initConfig() {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	}
	var err error
	cfg, err = config.Load(v)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not load config: %v\n", err)
		cfg = config.Default()
	}
	log = logging.New(logging.ParseLevel(cfg.Log.Level), cfg.Log.Format)
}
