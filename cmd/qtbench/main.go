package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	quadtree "github.com/bmharper/quadtree-go"
	"github.com/bmharper/quadtree-go/internal/bench"
	"github.com/bmharper/quadtree-go/metrics"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var (
	buildVersion       = "unknown"
	buildDate          = "unknown"
	cfgFile            string
	logLevel           string
	output             string
	metricsAddress     string
	metricsPort        int
	envPrefix          = "QTBENCH"
	defaultCfgFileName = ".qtbench"
	cfg                = bench.DefaultConfig()
)

// rootCmd represents the root command
var rootCmd = &cobra.Command{
	Use:   "qtbench",
	Short: "Select the objects around a moving viewer from a quad tree, frame after frame",
	RunE: func(_ *cobra.Command, _ []string) error {
		return run()
	},
	SilenceUsage: true,
}

// initConfig use config file and ENV variables if set.
func initConfig() {
	v := viper.New()

	if cfgFile != "" {
		// Use config file from the flag.
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			log.Fatal(err)
		}
		// Search config in home directory with name ".qtbench" (without extension).
		v.AddConfigPath(home)
		v.SetConfigName(defaultCfgFileName)
	}

	// Read environment variables that match prefix
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// If a config file is found, read it in.
	cfgErr := v.ReadInConfig()

	bindFlags(rootCmd, v)

	initLogger()

	var notFound viper.ConfigFileNotFoundError
	if cfgErr != nil && !errors.As(cfgErr, &notFound) {
		log.Errorf("Read config error: %v", cfgErr)
	}
}

func initLogger() {
	ll, err := log.ParseLevel(logLevel)
	if err != nil {
		ll = log.InfoLevel
	}
	log.SetLevel(ll)
	log.SetFormatter(&log.TextFormatter{DisableColors: false, FullTimestamp: true, PadLevelText: true, DisableQuote: true})
}

func bindFlags(cmd *cobra.Command, v *viper.Viper) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		// Apply the viper config value to the flag when the flag is not set and viper has a value
		if !f.Changed && v.IsSet(f.Name) {
			val := v.Get(f.Name)
			switch val.(type) {
			case bool, uint, string, int32, int16, int8, int, uint32, uint64, int64, float64, float32, []string, []int:
				_ = cmd.Flags().Set(f.Name, fmt.Sprintf("%v", val))
			default:
				var jsonNew = jsoniter.ConfigCompatibleWithStandardLibrary
				b, err := jsonNew.Marshal(&val)
				if err != nil {
					log.Fatalf("can't parse flag %s into json with value %v got error %s", f.Name, val, err)
					return
				}
				_ = cmd.Flags().Set(f.Name, string(b))
			}
		}
	})
}

func initFlags() {
	cobra.OnInitialize(initConfig)
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", fmt.Sprintf("config file (default is $HOME/%s)", defaultCfgFileName))
	flags.StringVar(&logLevel, "log-level", "info", "Log level: trace, debug, info, warning, error")
	flags.StringVar(&output, "output", "", "write the JSON report to this file instead of stdout")
	flags.StringVar(&metricsAddress, "metrics.address", "0.0.0.0", "Prometheus metrics address")
	flags.IntVar(&metricsPort, "metrics.port", 0, "Prometheus metrics port (default: disabled)")

	flags.Float64Var(&cfg.World.X, "world.x", cfg.World.X, "left edge of the scene")
	flags.Float64Var(&cfg.World.Y, "world.y", cfg.World.Y, "top edge of the scene")
	flags.Float64Var(&cfg.World.W, "world.w", cfg.World.W, "width of the scene")
	flags.Float64Var(&cfg.World.H, "world.h", cfg.World.H, "height of the scene")
	flags.IntVar(&cfg.MaxLevel, "max-level", cfg.MaxLevel, fmt.Sprintf("maximum tree depth, below %d", quadtree.MaxLimitLevel))
	flags.IntVar(&cfg.MaxLeafPerBranch, "max-leaf-per-branch", cfg.MaxLeafPerBranch, "leaves a branch holds before it splits")
	flags.IntVar(&cfg.Objects, "objects", cfg.Objects, "number of objects in the scene")
	flags.Float64Var(&cfg.MinSize, "min-size", cfg.MinSize, "smallest object size")
	flags.Float64Var(&cfg.MaxSize, "max-size", cfg.MaxSize, "largest object size")
	flags.Int64Var(&cfg.Seed, "seed", cfg.Seed, "random seed of the scene")
	flags.BoolVar(&cfg.Bulk, "bulk", cfg.Bulk, "build the tree in Hilbert order")
	flags.IntVar(&cfg.Frames, "frames", cfg.Frames, "number of frames to play")
	flags.IntVar(&cfg.ViewRegions, "view-regions", cfg.ViewRegions, "boxes selected ahead of the viewer each frame")
	flags.Float64Var(&cfg.ViewSize, "view-size", cfg.ViewSize, "size of the nearest view box")
	flags.Float64Var(&cfg.CullingDistance, "culling-distance", cfg.CullingDistance, "drop view boxes farther than this from the viewer (0: disabled)")
	flags.BoolVar(&cfg.Truncate, "truncate", cfg.Truncate, "drop every view box after the first culled one")
	flags.BoolVar(&cfg.Precise, "precise", cfg.Precise, "test each candidate against its own box")
	flags.BoolVar(&cfg.Rebuild, "rebuild", cfg.Rebuild, "clear and rebuild the tree after every frame")
}

func main() {
	// Initialize flags (command line parameters)
	initFlags()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// snapshot hands the latest frame statistics to the metrics listener
type snapshot struct {
	mu    sync.Mutex
	stats quadtree.Stats
}

func (s *snapshot) set(_ int, stats quadtree.Stats) {
	s.mu.Lock()
	s.stats = stats
	s.mu.Unlock()
}

func (s *snapshot) Stats() quadtree.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

func startMetricsServer(source metrics.Source) *http.Server {
	reg := prometheus.NewRegistry()
	reg.MustRegister(metrics.NewCollector("bench", source))
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	server := &http.Server{Addr: fmt.Sprintf("%s:%v", metricsAddress, metricsPort), Handler: mux}
	log.Infof("Prometheus server: addr = %s", server.Addr)
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorf("error in http.ListenAndServe: %v", err)
		}
	}()
	return server
}

func run() error {
	log.Debugf("Starting %s, build version: %s, build date: %s", filepath.Base(os.Args[0]), buildVersion, buildDate)

	var observers []bench.Observer
	if metricsPort != 0 {
		snap := &snapshot{}
		server := startMetricsServer(snap)
		defer func() { _ = server.Shutdown(context.Background()) }()
		observers = append(observers, snap.set)
	}

	report, err := bench.Run(cfg, log.WithField("run", cfg.Seed), observers...)
	if err != nil {
		log.Errorf("bench failed: %v", err)
		return err
	}

	b, err := report.JSON()
	if err != nil {
		return errors.Wrap(err, "encoding report")
	}
	if output == "" {
		fmt.Println(string(b))
		return nil
	}
	if err := os.WriteFile(output, b, 0o644); err != nil {
		return errors.Wrapf(err, "writing report to %s", output)
	}
	return nil
}
