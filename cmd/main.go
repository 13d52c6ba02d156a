package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"coolerctl/internal/command"
	"coolerctl/internal/controller"
	"coolerctl/internal/display"
	"coolerctl/internal/handlers"
	"coolerctl/internal/logger"
	"coolerctl/internal/mqtt"
	"coolerctl/internal/relay"
	"coolerctl/internal/repository"
	"coolerctl/internal/repository/db"
	"coolerctl/internal/sensor"
	"coolerctl/internal/server"
	"coolerctl/internal/service"

	"github.com/spf13/viper"
)

const (
	defaultTick            = 2 * time.Second
	defaultPublishInterval = 5 * time.Second
	defaultDevice          = "cooler-01"
)

func main() {
	// init logger
	log := logger.Get(logger.InfoLevel)

	// load config.yml
	if err := loadConfig(); err != nil {
		log.Fatalw("error reading config", "err", err)
	}

	// open DB
	conn, err := openDB(log)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			log.Fatalw("failed to close sqlite", "err", cerr)
		}
	}()

	repos := repository.NewRepository(conn)

	// control-loop hardware stand-ins
	clock := controller.NewUptimeClock()
	cfg := supervisorConfig()
	sup := controller.New(cfg)
	sim := sensor.NewSimulator(clock, sensor.AmbientC)
	pin := relay.NewPin(log.Named("relay"))

	deps := service.ControlDeps{
		Supervisor:   sup,
		Clock:        clock,
		Sensor:       sim,
		Relay:        fanout{pin, sim},
		Display:      buildDisplay(),
		Log:          log,
		Device:       deviceName(),
		PublishEvery: viper.GetDuration("control.publish_interval"),
	}
	if deps.PublishEvery <= 0 {
		deps.PublishEvery = defaultPublishInterval
	}

	// context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// optional MQTT: telemetry out, AT commands in
	var broker *mqtt.Client
	if url := viper.GetString("mqtt.broker"); url != "" {
		broker, err = mqtt.NewClient(mqtt.Config{
			Broker:   url,
			ClientID: viper.GetString("mqtt.client_id"),
			Username: viper.GetString("mqtt.username"),
			Password: viper.GetString("mqtt.password"),
		}, log.Named("mqtt"))
		if err != nil {
			log.Fatalw("failed to connect mqtt", "err", err)
		}
		defer broker.Close()
		deps.Publisher = mqtt.NewPublisher(broker, viper.GetString("mqtt.telemetry_topic"), log.Named("mqtt"))
	}

	services := service.NewService(repos, deps, viper.GetString("auth.signing_key"))
	apiHandler := handlers.NewHandler(services, log)

	if broker != nil {
		listener := mqtt.NewCommandListener(
			broker,
			command.New(services),
			viper.GetString("mqtt.command_topic"),
			viper.GetString("mqtt.reply_topic"),
			deps.Device,
			log,
		)
		if err := listener.Subscribe(ctx); err != nil {
			log.Fatalw("failed to subscribe to command topic", "err", err)
		}
	}

	// start the control loop
	tick := viper.GetDuration("control.tick")
	if tick <= 0 {
		tick = defaultTick
	}
	go services.Control.Run(ctx, tick)

	// start HTTP server
	srv := &server.Server{}
	runHTTPServer(srv, viper.GetString("port"), apiHandler, log)

	// graceful shutdown
	waitForShutdown(cancel, srv, log)
}

// fanout drives the logging pin and the thermal simulator from one relay command.
type fanout []interface{ SetEnergized(bool) }

func (f fanout) SetEnergized(on bool) {
	for _, a := range f {
		a.SetEnergized(on)
	}
}

func loadConfig() error {
	viper.AddConfigPath("configs") // configs/config.yml
	viper.SetConfigName("config")
	return viper.ReadInConfig()
}

// supervisorConfig builds the controller tuning from config with firmware defaults.
func supervisorConfig() controller.Config {
	cfg := controller.DefaultConfig()
	if v := viper.GetFloat64("control.start_c"); v != 0 {
		cfg.StartC = v
	}
	if v := viper.GetFloat64("control.stop_c"); v != 0 {
		cfg.StopC = v
	}
	if v := viper.GetFloat64("control.pid.kp"); v != 0 {
		cfg.Kp = v
	}
	if v := viper.GetFloat64("control.pid.ki"); v != 0 {
		cfg.Ki = v
	}
	if v := viper.GetFloat64("control.pid.kd"); v != 0 {
		cfg.Kd = v
	}
	if v := viper.GetFloat64("control.pid.setpoint_c"); v != 0 {
		cfg.SetpointC = v
	}
	return cfg
}

func deviceName() string {
	if name := viper.GetString("device.name"); name != "" {
		return name
	}
	return defaultDevice
}

// buildDisplay returns the character LCD stand-in writing to stdout, or nil
// when disabled in config.
func buildDisplay() display.Renderer {
	if !viper.GetBool("display.enabled") {
		return nil
	}
	return display.NewCharLCD(os.Stdout)
}

// openDB initializes the SQLite database using configuration.
func openDB(log *logger.Logger) (*sql.DB, error) {
	dbPath := viper.GetString("db.path")
	if dbPath == "" {
		log.Infow("db.path not set in config; using default file", "default", "cooler.db")
		dbPath = "cooler.db"
	}
	return db.InitDB(dbPath)
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		if port == "" {
			port = "8080"
		}
		if err := srv.Run(port, handler.InitRoutes()); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down...")

	// stop the control loop and MQTT listeners
	cancel()

	// allow in-flight requests to complete
	ctx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalw("server forced to shutdown", "err", err)
	}
}
