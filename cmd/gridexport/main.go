package main

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"net/http"
	"net/http/pprof"
	"net/url"
	"os"
	"reflect"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/aukilabs/go-tooling/pkg/cli"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/events"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/aukilabs/go-tooling/pkg/metrics"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/segmentio/encoding/json"
	"github.com/warehousesim/gridexport/db"
	"github.com/warehousesim/gridexport/featureflag"
	gridhttp "github.com/warehousesim/gridexport/http"
	"github.com/warehousesim/gridexport/layout"
	"github.com/warehousesim/gridexport/playback"
	"github.com/warehousesim/gridexport/smoketest"
	gridwebsocket "github.com/warehousesim/gridexport/websocket"
)

var (
	// The gridexport version number. Set at build.
	version = "v0.1.0"

	infoGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name:        "gridexport_info",
		Help:        "Gridexport information.",
		ConstLabels: prometheus.Labels{"version": version},
	})
)

// This will effectively disable obfuscation of the config struct. Without it, the keys would get obfuscated causing the cli package to generate garbled command-line options.
// https://github.com/burrowers/garble/issues/403
var _ = reflect.TypeOf(config{})

type config struct {
	Addr               string        `cli:""        env:"GRIDEXPORT_ADDR"                 help:"Listening address for the layout API."`
	AdminAddr          string        `cli:""        env:"GRIDEXPORT_ADMIN_ADDR"           help:"Admin listening address."`
	PublicEndpoint     string        `cli:""        env:"GRIDEXPORT_PUBLIC_ENDPOINT"      help:"The endpoint where the layout API is reachable, used by smoke tests."`
	LogLevel           string        `cli:""        env:"GRIDEXPORT_LOG_LEVEL"            help:"Log level (debug|info|warning|error)."`
	LogIndent          bool          `cli:""        env:"GRIDEXPORT_LOG_INDENT"           help:"Indent logs."`
	Scene              string        `cli:""        env:"GRIDEXPORT_SCENE"                help:"Scene file rasterized at startup."`
	Fraction           float64       `cli:""        env:"GRIDEXPORT_FRACTION"             help:"Overrides the grid density of every scene when not zero."`
	Output             string        `cli:""        env:"GRIDEXPORT_OUTPUT"               help:"File where the startup layout is written, - for stdout."`
	ExportOnly         bool          `cli:""        env:"GRIDEXPORT_EXPORT_ONLY"          help:"Exit after exporting the startup scene."`
	DBPath             string        `cli:""        env:"GRIDEXPORT_DB_PATH"              help:"SQLite database storing layouts. Layouts are kept in memory when empty."`
	APIToken           string        `cli:""        env:"GRIDEXPORT_API_TOKEN"            help:"Bearer token required by the layout API and playback streams."`
	PrivateKey         string        `cli:""        env:"GRIDEXPORT_PRIVATE_KEY"          help:"Ethereum-compatible private key signing layout digests."`
	PrivateKeyFile     string        `cli:""        env:"GRIDEXPORT_PRIVATE_KEY_FILE"     help:"The file that contains the private key signing layout digests."`
	FrameDuration      time.Duration `cli:",hidden" env:"GRIDEXPORT_FRAME_DURATION"       help:"The interval between playback frames."`
	StepTime           time.Duration `cli:",hidden" env:"GRIDEXPORT_STEP_TIME"            help:"The duration of a single agent move."`
	Loop               bool          `cli:",hidden" env:"GRIDEXPORT_LOOP"                 help:"Replay agent scripts once complete."`
	MaxBodySize        int           `cli:",hidden" env:"GRIDEXPORT_MAX_BODY_SIZE"        help:"The maximum size of uploaded scenes and plans in bytes."`
	MaxCells           int           `cli:",hidden" env:"GRIDEXPORT_MAX_CELLS"            help:"The maximum number of cells of a layout grid."`
	LogSummaryInterval time.Duration `cli:",hidden" env:"GRIDEXPORT_LOG_SUMMARY_INTERVAL" help:"The duration between each log summary by playback stream."`
	Events             eventsConfig  `cli:",hidden" env:"-"                               help:"Event pusher configuration."`
	FeatureFlags       []string      `cli:",hidden" env:"GRIDEXPORT_FEATURE_FLAGS"        help:"Comma separated feature flags"`
	Version            bool          `cli:""        env:"-"                               help:"Show version."`
	Help               bool          `cli:""        env:"-"                               help:"Show help."`
}

type eventsConfig struct {
	Endpoint      string        `cli:",hidden" env:"GRIDEXPORT_EVENTS_ENDPOINT"       help:"Endpoint to where events are pushed. Disabled when empty."`
	FlushInterval time.Duration `cli:",hidden" env:"GRIDEXPORT_EVENTS_FLUSH_INTERVAL" help:"The duration between each event flush."`
	BatchSize     int           `cli:",hidden" env:"GRIDEXPORT_EVENTS_BATCH_SIZE"     help:"The maximum number of events sent at once."`
	QueueSize     int           `cli:",hidden" env:"GRIDEXPORT_EVENTS_QUEUE_SIZE"     help:"The size of the queue where events are stored."`
}

func main() {
	conf := config{
		Addr:               ":4000",
		AdminAddr:          ":18190",
		PublicEndpoint:     "http://localhost:4000",
		LogLevel:           logs.InfoLevel.String(),
		FrameDuration:      time.Millisecond * 50,
		StepTime:           playback.DefaultConfig().StepTime,
		MaxBodySize:        gridhttp.DefaultMaxBodySize,
		MaxCells:           layout.DefaultMaxCells,
		LogSummaryInterval: time.Minute,
		Events: eventsConfig{
			FlushInterval: events.DefaultFlushInterval,
			BatchSize:     events.DefaultBatchSize,
			QueueSize:     events.DefaultQueueSize,
		},
	}

	// set the information gauge to 1, useful for SUM query
	infoGauge.Set(1)

	ctx, cancel := cli.ContextWithSignals(context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer cancel()

	cli.Register().
		Help("Rasterizes warehouse scenes into planner grids and plays planned paths back.").
		Options(&conf)
	cli.Load()

	if conf.Version {
		fmt.Println(version)
		os.Exit(0)
	}

	if err := validateConfig(conf); err != nil {
		logs.Fatal(err)
	}

	logs.SetLevel(logs.ParseLevel(conf.LogLevel))
	logs.Encoder = json.Marshal
	if conf.LogIndent {
		logs.Encoder = func(v any) ([]byte, error) {
			return json.MarshalIndent(v, "", "  ")
		}
	}

	errors.Encoder = json.Marshal

	transport := metrics.HTTPTransport(http.DefaultTransport)

	if conf.Events.Endpoint != "" {
		eventsPusher := events.Pusher{
			Endpoint:      conf.Events.Endpoint,
			FlushInterval: conf.Events.FlushInterval,
			BatchSize:     conf.Events.BatchSize,
			QueueSize:     conf.Events.QueueSize,
			Transport:     transport,
		}
		go eventsPusher.Start()
		defer eventsPusher.Close()

		eventsLogger := events.Logger{
			Pusher:           &eventsPusher,
			SDKType:          "gridexport",
			SDKVersionFamily: version,
		}
		logs.SetLogger(eventsLogger.Log)
	}

	privateKey, err := loadPrivateKey(conf)
	if err != nil {
		logs.Fatal(errors.New("error loading private key").Wrap(err))
	}

	flags := featureflag.New(conf.FeatureFlags)

	opts := layout.Options{
		Fraction: conf.Fraction,
		Markers:  !flags.IsSet(featureflag.FlagDisableMarkerExport),
		MaxCells: conf.MaxCells,
	}

	store, closeStore, err := openStore(conf)
	if err != nil {
		logs.Fatal(err)
	}
	defer closeStore()

	if conf.Scene != "" {
		snap, err := exportScene(ctx, store, conf.Scene, opts, privateKey)
		if err != nil {
			logs.Fatal(err)
		}

		if err := writeOutput(conf.Output, snap.Data); err != nil {
			logs.Fatal(err)
		}

		logs.WithTag("id", snap.ID).
			WithTag("digest", snap.Digest).
			WithTag("scene", conf.Scene).
			WithTag("output", conf.Output).
			Info("scene exported")
	}
	if conf.ExportOnly {
		return
	}

	playbackConfig := playback.DefaultConfig()
	playbackConfig.StepTime = conf.StepTime
	playbackConfig.Loop = conf.Loop

	layoutHandler := gridhttp.LayoutHandler{
		Store:       store,
		Options:     opts,
		Charts:      !flags.IsSet(featureflag.FlagDisableCharts),
		MaxBodySize: int64(conf.MaxBodySize),
		SigningKey:  privateKey,
	}

	var api http.ServeMux
	layoutHandler.Register(&api)

	var ready atomic.Bool

	var service http.ServeMux
	service.Handle("/health", gridhttp.HandleWithCORS(http.HandlerFunc(gridhttp.HandleHealthCheck)))
	service.Handle("/version", gridhttp.HandleWithCORS(http.HandlerFunc(gridhttp.HandleVersion(version))))
	service.Handle("/ready", gridhttp.HandleWithCORS(http.HandlerFunc(gridhttp.HandleReadyCheck(ready.Load))))
	service.Handle("/", gridhttp.HandleWithCORS(gridhttp.VerifyAuthTokenHandler(conf.APIToken, &api)))

	flags.IfNotSet(featureflag.FlagDisablePlaybackStream, func() {
		service.Handle("GET /playback/{id}", gridwebsocket.NewServer(ctx,
			gridhttp.VerifyAuthToken(conf.APIToken),
			func() gridwebsocket.Handler {
				var h gridwebsocket.Handler = &gridwebsocket.PlaybackHandler{
					Store:         store,
					Config:        playbackConfig,
					FrameInterval: conf.FrameDuration,
				}
				h = gridwebsocket.HandlerWithLogs(h, conf.LogSummaryInterval)
				h = gridwebsocket.HandlerWithMetrics(h)
				return h
			},
		))
	})

	var admin http.ServeMux
	admin.Handle("/metrics", promhttp.Handler())
	admin.HandleFunc("/health", gridhttp.HandleHealthCheck)
	admin.HandleFunc("/debug/pprof/", pprof.Index)
	admin.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	admin.HandleFunc("/debug/pprof/profile", pprof.Profile)
	admin.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	admin.HandleFunc("/debug/pprof/trace", pprof.Trace)
	admin.Handle("/debug/pprof/goroutine", pprof.Handler("goroutine"))
	admin.Handle("/debug/pprof/heap", pprof.Handler("heap"))
	admin.Handle("/debug/pprof/threadcreate", pprof.Handler("threadcreate"))
	admin.Handle("/debug/pprof/block", pprof.Handler("block"))
	admin.HandleFunc("/ready", gridhttp.HandleReadyCheck(ready.Load))
	admin.HandleFunc("POST /smoke-test", smoketest.HandleSmokeTest(ctx, smoketest.Options{
		Endpoint:  conf.PublicEndpoint,
		Token:     conf.APIToken,
		UserAgent: fmt.Sprintf("gridexport %s", version),
		Transport: transport,
	}))

	entry := logs.WithTag("version", version).
		WithTag("log_level", conf.LogLevel).
		WithTag("addr", conf.Addr).
		WithTag("endpoint", conf.PublicEndpoint).
		WithTag("db_path", conf.DBPath).
		WithTag("markers", opts.Markers).
		WithTag("feature_flags", conf.FeatureFlags)
	if privateKey != nil {
		entry = entry.WithTag("signer", crypto.PubkeyToAddress(privateKey.PublicKey).Hex())
	}
	entry.Info("starting gridexport server")

	ready.Store(true)
	gridhttp.ListenAndServe(ctx,
		&http.Server{Addr: conf.Addr, Handler: metrics.HTTPHandler(&service,
			gridhttp.MetricsPathFormatter)},
		&http.Server{Addr: conf.AdminAddr, Handler: &admin},
	)
}

// openStore returns the SQLite store when a database path is set and an
// in-memory one otherwise.
func openStore(conf config) (layout.Store, func(), error) {
	if conf.DBPath == "" {
		return layout.NewMemoryStore(), func() {}, nil
	}

	sqlite, err := db.NewDB(conf.DBPath)
	if err != nil {
		return nil, nil, err
	}

	return sqlite, func() {
		if err := sqlite.Close(); err != nil {
			logs.Warn(errors.New("closing database failed").Wrap(err))
		}
	}, nil
}

// loadPrivateKey returns nil when no signing key is configured.
func loadPrivateKey(conf config) (*ecdsa.PrivateKey, error) {
	privateKey := conf.PrivateKey

	if len(conf.PrivateKeyFile) != 0 {
		privateKeyBytes, err := os.ReadFile(conf.PrivateKeyFile)
		if err != nil {
			return nil, errors.New("error loading private key from file").
				WithTag("file_name", conf.PrivateKeyFile).
				Wrap(err)
		}
		privateKey = string(privateKeyBytes)
	}

	if len(privateKey) == 0 {
		return nil, nil
	}
	return layout.LoadPrivateKey(privateKey)
}

func validateConfig(conf config) error {
	if len(conf.PrivateKey) != 0 &&
		len(conf.PrivateKeyFile) != 0 {
		return errors.New("have to specify either private key or private key file, not both")
	}

	if conf.ExportOnly && conf.Scene == "" {
		return errors.New("export only requires a scene")
	}

	if conf.Fraction < 0 || conf.Fraction > 1 {
		return errors.New("fraction out of range").
			WithTag("fraction", conf.Fraction)
	}

	if _, err := url.ParseRequestURI(conf.PublicEndpoint); err != nil {
		return errors.New("invalid public endpoint").Wrap(err)
	}

	if conf.FrameDuration <= 0 {
		return errors.New("frame duration must be positive").
			WithTag("frame_duration", conf.FrameDuration)
	}

	if conf.LogSummaryInterval <= 0 {
		return errors.New("log summary interval must be positive").
			WithTag("log_summary_interval", conf.LogSummaryInterval)
	}

	if conf.MaxCells < 0 {
		return errors.New("max cells must not be negative").
			WithTag("max_cells", conf.MaxCells)
	}
	return nil
}
