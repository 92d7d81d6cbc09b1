package main

import (
	"context"
	"flag"
	"log/syslog"
	"os"
	"os/signal"
	"time"

	"github.com/chatapp/chatapp/disk"
	"github.com/chatapp/chatapp/persistent"
	"github.com/chatapp/chatapp/transport/rest"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/sirupsen/logrus"
	logrusys "github.com/sirupsen/logrus/hooks/syslog"
	"github.com/tidwall/buntdb"
	"github.com/uptrace/bun"
)

// Room for multipart headers and boundaries around the image itself, so an
// oversized image is rejected by the controller with a json body.
const multipartOverhead = 64 * 1024

func listenAndServe(bdb *buntdb.DB, db *bun.DB, cfg serverConfig) func() error {
	metaStore := &persistent.ImageMetaStore{Buntdb: bdb}
	if err := metaStore.CreateIndexes(); err != nil {
		logrus.WithError(err).Fatalln("Could not create buntdb indexes.")
	}
	activityStore := &persistent.ActivityStore{DB: db}

	profileImageController := rest.ProfileImageController{
		Store:         disk.NewProfileImageStore(cfg.profileImageRoot),
		Locator:       cfg.imageLocator(),
		MetaStore:     metaStore,
		ActivityStore: activityStore,
		MaxImageBytes: int64(cfg.maxUploadBytes),
	}
	activityController := rest.ActivityController{Store: activityStore}

	// root app owns the listener, so transport limits live here
	server := fiber.New(fiber.Config{
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		BodyLimit:             cfg.maxUploadBytes + multipartOverhead,
		ErrorHandler:          rest.ErrorHandler,
		DisableStartupMessage: !cfg.debug,
	})
	server.Use(rest.LogHandler())

	api := fiber.New(fiber.Config{
		ErrorHandler: rest.ErrorHandler,
	})
	api.Use(cors.New(cors.Config{AllowOrigins: cfg.allowOrigins}))

	api.Get("/status", monitor.New())
	profileImageController.InstallTo(api)
	activityController.InstallTo(api)
	server.Mount("/api", api)

	rest.InstallProfileImageServing(server, cfg.servicePath, cfg.profileImageRoot)

	server.Use(rest.NotFoundHandler)

	go func() {
		if err := server.Listen(cfg.listenAddr); err != nil {
			logrus.WithError(err).Fatalln("Fiber listen failed.")
		}
	}()

	return func() error {
		return server.Shutdown()
	}
}

func setupLogger(verbose bool) {
	logrus.SetFormatter(&logrus.TextFormatter{
		TimestampFormat: time.Stamp,
		FullTimestamp:   true,
	})
	if verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	syslogHook, err := logrusys.NewSyslogHook("", "", syslog.LOG_USER, "chatapp_profile_images")
	if err != nil {
		logrus.WithError(err).Warningln("Could not create syslog hook, logging to stderr only.")
		return
	}
	logrus.AddHook(syslogHook)
}

// Sets up the logger before reading .env, so .env warnings get the same
// formatter and syslog hook as everything else.
func loadServerConfig() (serverConfig, error) {
	setupLogger(os.Getenv("DEBUG") == "true")
	loadDotEnv()
	cfg, err := serverConfigFromEnv(os.LookupEnv)
	if err != nil {
		return serverConfig{}, err
	}
	if cfg.debug {
		// DEBUG may come from .env
		logrus.SetLevel(logrus.DebugLevel)
	}
	return cfg, nil
}

func awaitInterruption() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	<-c
}

func main() {
	flag.Parse()
	cfg, err := loadServerConfig()
	if err != nil {
		logrus.WithError(err).Fatalln("Invalid configuration.")
	}
	logrus.Infoln("Starting profile image service.")

	if err := os.MkdirAll(cfg.profileImageRoot, 0o755); err != nil {
		logrus.WithError(err).WithField("path", cfg.profileImageRoot).Fatalln("Could not create profile image root.")
	}

	bdb, err := buntdb.Open(cfg.buntdbPath)
	if err != nil {
		logrus.WithError(err).Fatalln("Could not open buntdb.")
	}
	defer bdb.Close()

	logrus.Infoln("Opening database.")
	ctx := context.Background()
	pg := persistent.PgOpen(ctx, cfg.postgresDsn)
	defer pg.Close()
	if err := persistent.CreateSchema(ctx, pg); err != nil {
		logrus.WithError(err).Fatalln("Could not create database schema.")
	}

	logrus.WithField("addr", cfg.listenAddr).Infoln("Starting listening... To shut down use ^C")
	shutdown := listenAndServe(bdb, pg, cfg)

	awaitInterruption()

	logrus.Infoln("Shutting down...")
	err = shutdown()
	if err != nil {
		logrus.WithError(err).Warningln("Fiber shutdown failed.")
	}
}
