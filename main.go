package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"

	"github.com/Kimleng-THAI/ConfirmationBiasDesignExperiment/internal/catalog"
	"github.com/Kimleng-THAI/ConfirmationBiasDesignExperiment/internal/config"
	"github.com/Kimleng-THAI/ConfirmationBiasDesignExperiment/internal/database"
	"github.com/Kimleng-THAI/ConfirmationBiasDesignExperiment/internal/experiment"
	logger "github.com/Kimleng-THAI/ConfirmationBiasDesignExperiment/internal/logging"
	"github.com/Kimleng-THAI/ConfirmationBiasDesignExperiment/internal/markers"
	"github.com/Kimleng-THAI/ConfirmationBiasDesignExperiment/internal/repository"
	"github.com/Kimleng-THAI/ConfirmationBiasDesignExperiment/internal/router"
	"github.com/Kimleng-THAI/ConfirmationBiasDesignExperiment/internal/services"
	"github.com/Kimleng-THAI/ConfirmationBiasDesignExperiment/internal/utils"
)

func main() {
	root := flag.String("root", ".", "project root holding config/ and assets/")
	hashPasscode := flag.String("hash-passcode", "", "print the bcrypt hash of an experimenter passcode and exit")
	flag.Parse()

	if *hashPasscode != "" {
		if err := printHash(*hashPasscode); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	projectRoot, err := filepath.Abs(*root)
	if err != nil {
		panic("failed to resolve project root: " + err.Error())
	}

	// The configuration decides where logs go, so it is read with a console
	// logger first.
	bootLog, err := zap.NewDevelopment()
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	if err := config.Init(projectRoot, bootLog); err != nil {
		bootLog.Fatal("Failed to load configuration", zap.Error(err))
	}

	log, err := logger.Init(projectRoot, config.Conf.Logging)
	if err != nil {
		bootLog.Fatal("Failed to initialize logger", zap.Error(err))
	}
	defer log.Sync()

	if err := run(projectRoot, log); err != nil {
		log.Fatal("Server stopped with an error", zap.Error(err))
	}
}

func printHash(passcode string) error {
	if !utils.IsComplexPassword(passcode) {
		return errors.New("passcode needs 8+ characters with upper and lower case letters, a digit and a symbol")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(passcode), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	fmt.Println(string(hash))
	return nil
}

func run(projectRoot string, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conf := config.Conf
	if conf.Experimenter.PasswordHash == "" {
		log.Warn("No experimenter passcode configured; run with -hash-passcode and set experimenter.password_hash")
	}

	db, err := database.Init(conf.Database, log)
	if err != nil {
		// Session files are still written without the archive.
		log.Error("Session archive unavailable", zap.Error(err))
		db = nil
	}
	archive := repository.NewArchive(db)

	var (
		sinks []markers.Sink
		hub   *markers.Hub
	)
	if conf.Markers.Enabled("log") {
		sinks = append(sinks, markers.NewLogSink(log))
	}
	if conf.Markers.Enabled("sse") {
		hub = markers.NewHub(log, conf.Markers.Buffer)
		sinks = append(sinks, hub)
	}
	if conf.Markers.Enabled("redis") {
		rs, err := markers.NewRedisSink(ctx, log, conf.Markers.RedisAddr, conf.Markers.RedisChannel, conf.Markers.Buffer)
		if err != nil {
			log.Error("Redis marker sink unavailable", zap.String("addr", conf.Markers.RedisAddr), zap.Error(err))
		} else {
			sinks = append(sinks, rs)
		}
	}
	outlet := markers.NewOutlet(log, sinks...)
	outlet.Open()

	exp := experiment.New(experiment.Deps{
		Log:     log,
		Config:  conf.Experiment,
		Catalog: catalog.New(log, conf.Catalog),
		Outlet:  outlet,
		Archive: archive,
	})
	config.OnReload(func(c *config.Config) {
		exp.ApplyConfig(c.Experiment)
	})

	r := router.Setup(log, router.Deps{
		Experiment: exp,
		Archive:    archive,
		Hub:        hub,
		AssetsDir:  filepath.Join(projectRoot, "assets"),
	})
	srv := &http.Server{
		Addr:              ":" + conf.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("Server listening on http://localhost:" + conf.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return services.NewScheduler(log, conf.Experiment.CheckpointInterval, exp).Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := exp.Close(shutdownCtx); err != nil {
			log.Error("Failed to save the running session", zap.Error(err))
		}
		// Closing the outlet ends the marker streams so Shutdown can finish.
		outlet.Close()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
