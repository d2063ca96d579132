package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/spf13/cobra"

	"meshsend/client"
	"meshsend/config"
	"meshsend/internal/logging"
	"meshsend/mqtt"
	"meshsend/storage"
)

// app carries per-invocation state shared by the commands.
type app struct {
	stdout io.Writer
	stderr io.Writer
	log    *logging.Logger

	configPath string
	verbose    bool

	// overrides the MQTT session in tests
	newSession func(mqtt.Options, mqtt.Logger) client.Session
}

type sendFlags struct {
	message       string
	server        string
	port          int
	username      string
	password      string
	fromID        string
	toID          string
	channel       string
	channelNumber int
	region        string
	timeout       time.Duration
}

// run executes the CLI and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	a := &app{stdout: stdout, stderr: stderr}
	return a.execute(ctx, args)
}

func (a *app) execute(ctx context.Context, args []string) int {
	a.log = a.newLogger(config.LoggingConfig{Level: "info", Format: "text", Output: "stderr"})

	root := a.newRootCmd()
	root.SetArgs(args)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	err := root.ExecuteContext(ctx)
	code := exitCode(err, ctx.Err() != nil)
	switch code {
	case exitOK:
	case exitInterrupted:
		a.log.Warn("interrupted")
	default:
		fmt.Fprintln(a.stderr, "Error:", err)
	}
	return code
}

func (a *app) newRootCmd() *cobra.Command {
	var f sendFlags

	root := &cobra.Command{
		Use:   "meshsend -m <text> [flags]",
		Short: "Send a text message to a Meshtastic mesh over MQTT",
		Long: `meshsend publishes one text message to a Meshtastic mesh by way of an MQTT
broker, as JSON on msh/<region>/2/json/<channel>/<from_id>.

Settings come from the config file, then MESHSEND_* environment variables
(also read from a .env file in the working directory), then flags.
On first run a default config file is created and meshsend exits.`,
		Args:          noArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			if a.verbose {
				a.log = a.newLogger(config.LoggingConfig{Level: "debug", Format: "text", Output: "stderr"})
			}
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.send(cmd, &f)
		},
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err: err}
	})

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", config.DefaultPath(), "path to configuration file")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "enable verbose (debug) logging")

	fl := root.Flags()
	fl.StringVarP(&f.message, "message", "m", "", "message text to send (required)")
	fl.StringVar(&f.server, "server", "", "MQTT server address (overrides config file)")
	fl.IntVar(&f.port, "port", mqtt.DefaultPort, "MQTT server port (overrides config file)")
	fl.StringVarP(&f.username, "username", "u", "", "MQTT username (overrides config file)")
	fl.StringVarP(&f.password, "password", "p", "", "MQTT password (overrides config file)")
	fl.StringVar(&f.fromID, "from-id", "", "sender node ID, e.g. !12345678 (overrides config file)")
	fl.StringVar(&f.toID, "to-id", "", "recipient node ID or alias, ^all for broadcast (overrides config file)")
	fl.StringVar(&f.channel, "channel", "", "channel name, e.g. LongFast (overrides config file)")
	fl.IntVar(&f.channelNumber, "channel-number", 0, "local channel index 0-7 (overrides config file)")
	fl.StringVar(&f.region, "region", "", "region, e.g. US, EU_868 (overrides config file)")
	fl.DurationVar(&f.timeout, "timeout", mqtt.DefaultConnectTimeout, "broker connect timeout (overrides config file)")

	root.AddCommand(a.newHistoryCmd(), a.newNodesCmd(), a.newConfigCmd())
	return root
}

func noArgs(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return &usageError{err: fmt.Errorf("unexpected argument %q for %q", args[0], cmd.CommandPath())}
	}
	return nil
}

func (a *app) send(cmd *cobra.Command, f *sendFlags) error {
	a.log.Debug("starting meshsend")

	cfg, err := a.loadConfig()
	if errors.Is(err, config.ErrNotFound) {
		return a.createDefaultConfig()
	}
	if err != nil {
		return err
	}

	cfg.Apply(overridesFromFlags(cmd, f))
	if err := cfg.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(f.message) == "" {
		return client.ErrEmptyMessage
	}

	a.setupPahoLogging()

	opts := []client.Option{}
	if a.newSession != nil {
		opts = append(opts, client.WithSessionFactory(a.newSession))
	}
	if cfg.History.Enabled {
		store, err := storage.New(cfg.History.Path)
		if err != nil {
			a.log.Warn("message history disabled", "path", cfg.History.Path, "error", err)
		} else {
			defer store.Close()
			opts = append(opts, client.WithHistory(store))
		}
	}

	c := client.New(cfg, a.log, opts...)
	a.log.Info("connecting to MQTT broker", "server", cfg.MQTT.Server, "port", cfg.MQTT.Port)
	res, err := c.Send(cmd.Context(), f.message)
	if err != nil {
		if errors.Is(err, mqtt.ErrConnectionTimeout) || errors.Is(err, mqtt.ErrConnectionRefused) || errors.Is(err, mqtt.ErrTransport) {
			a.log.Error("connection failed, check the MQTT server address, credentials and network connectivity")
		}
		return err
	}

	a.log.Info("message sent successfully", "topic", res.Topic)
	fmt.Fprintf(a.stdout, "Message sent to %s via %s\n", cfg.Meshtastic.ToID, cfg.Meshtastic.Channel)
	return nil
}

// loadConfig reads the config file and applies the logging section.
func (a *app) loadConfig() (*config.Config, error) {
	a.log.Debug("loading configuration", "path", a.configPath)
	cfg, err := config.Load(a.configPath)
	if err != nil {
		if errors.Is(err, config.ErrNotFound) {
			return nil, err
		}
		return nil, &configError{err: fmt.Errorf("failed to load configuration file: %w", err)}
	}
	if a.verbose {
		cfg.Logging.Level = "debug"
	}
	a.log = a.newLogger(cfg.Logging)
	return cfg, nil
}

func (a *app) createDefaultConfig() error {
	a.log.Info("configuration file not found, creating default configuration", "path", a.configPath)
	if err := config.CreateDefault(a.configPath); err != nil {
		return &configError{err: fmt.Errorf("failed to create default configuration: %w", err)}
	}
	a.log.Info("default configuration created; edit it with your MQTT credentials and try again", "path", a.configPath)
	return nil
}

func overridesFromFlags(cmd *cobra.Command, f *sendFlags) config.Overrides {
	var o config.Overrides
	fl := cmd.Flags()
	if fl.Changed("server") {
		o.Server = &f.server
	}
	if fl.Changed("port") {
		o.Port = &f.port
	}
	if fl.Changed("username") {
		o.Username = &f.username
	}
	if fl.Changed("password") {
		o.Password = &f.password
	}
	if fl.Changed("from-id") {
		o.FromID = &f.fromID
	}
	if fl.Changed("to-id") {
		o.ToID = &f.toID
	}
	if fl.Changed("channel") {
		o.Channel = &f.channel
	}
	if fl.Changed("channel-number") {
		o.ChannelNumber = &f.channelNumber
	}
	if fl.Changed("region") {
		o.Region = &f.region
	}
	if fl.Changed("timeout") {
		o.Timeout = &f.timeout
	}
	return o
}

func (a *app) newLogger(cfg config.LoggingConfig) *logging.Logger {
	if strings.EqualFold(cfg.Output, "stdout") {
		return logging.NewWithWriter(cfg, a.stdout)
	}
	return logging.NewWithWriter(cfg, a.stderr)
}

// setupPahoLogging routes the paho package loggers into a.log.
func (a *app) setupPahoLogging() {
	pahomqtt.ERROR = a.log.Printer(slog.LevelError)
	pahomqtt.CRITICAL = a.log.Printer(slog.LevelError)
	pahomqtt.WARN = a.log.Printer(slog.LevelWarn)
	if a.verbose {
		pahomqtt.DEBUG = a.log.Printer(slog.LevelDebug)
	} else {
		pahomqtt.DEBUG = pahomqtt.NOOPLogger{}
	}
}
