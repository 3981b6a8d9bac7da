package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"lautenbacher.net/jigleds/button"
	c "lautenbacher.net/jigleds/config"
	"lautenbacher.net/jigleds/logging"
	"lautenbacher.net/jigleds/mode"
	pl "lautenbacher.net/jigleds/platform"
	p "lautenbacher.net/jigleds/producer"
	"lautenbacher.net/jigleds/scheduler"
)

const (
	MODE_PRODUCER_UID = "mode"
	READY_TIMEOUT     = 10 * time.Second
)

var (
	configFile = c.CONFILE
	realHW     = false
)

func init() {
	pflag.StringVarP(&configFile, "config", "c", configFile, "configuration file")
	pflag.BoolVarP(&realHW, "real", "r", realHW, "run on the real hardware instead of the TUI simulation")
}

func main() {
	pflag.Parse()

	conf, err := c.ReadConfig(configFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	conf.RealHW = realHW

	logConf := conf.Logging.TUI
	if conf.RealHW {
		logConf = conf.Logging.HW
	}
	if err := logging.Init(!conf.RealHW, logConf); err != nil {
		fmt.Fprintln(os.Stderr, "can't initialise logging:", err)
		os.Exit(1)
	}

	err = run(conf)
	if err != nil {
		slog.Error("jigleds failed", "error", err)
	}
	if cerr := logging.Close(); cerr != nil {
		fmt.Fprintln(os.Stderr, "can't close log:", cerr)
	}
	if err != nil {
		os.Exit(1)
	}
}

func run(conf *c.Config) error {
	ossignal := make(chan os.Signal, 1)
	signal.Notify(ossignal, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(ossignal)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case sig := <-ossignal:
			slog.Info("Received signal", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	var platform pl.Platform
	if conf.RealHW {
		platform = pl.NewRaspberryPiPlatform(conf)
	} else {
		platform = pl.NewTUIPlatform(conf, ossignal)
	}
	if err := platform.Start(); err != nil {
		platform.Stop()
		return fmt.Errorf("failed to start platform: %w", err)
	}
	defer func() {
		logging.BufferOutput()
		platform.Stop()
	}()

	select {
	case <-platform.Ready():
	case <-time.After(READY_TIMEOUT):
		return fmt.Errorf("platform not ready after %s", READY_TIMEOUT)
	case <-ctx.Done():
		return nil
	}

	modeConf, err := mode.FromConfig(conf.Mode)
	if err != nil {
		return err
	}
	shared := mode.NewShared(modeConf)
	strip := pl.NewStrip(platform, platform.GetLedsTotal(), pl.OwnerAnimation)

	coordinator := scheduler.NewCoordinator(conf.Animation, strip, platform)
	classifier := button.NewClassifier(conf.Button, platform, platform, shared)
	modeProducer := p.NewModeProducer(MODE_PRODUCER_UID, strip, shared, conf.Mode.PollInterval)
	app := NewApp(conf, classifier.Events(), coordinator, modeProducer, strip, shared)

	slog.Info("jigleds started", "real", conf.RealHW, "leds", strip.Size(), "mode", modeConf.Mode)

	errg, ctx := errgroup.WithContext(ctx)
	errg.Go(func() error {
		return coordinator.Run(ctx)
	})
	errg.Go(func() error {
		return classifier.Run(ctx)
	})
	errg.Go(func() error {
		return app.stateManager(ctx)
	})
	errg.Go(func() error {
		return c.Watch(ctx, conf.ConfigFile, conf.Mode, func(mc c.ModeConfig) {
			reloaded, err := mode.FromConfig(mc)
			if err != nil {
				slog.Warn("Ignoring mode section of reloaded config", "error", err)
				return
			}
			shared.Write(reloaded)
			slog.Info("Mode configuration reloaded", "mode", reloaded.Mode, "brightness", reloaded.Brightness)
		})
	})
	errg.Go(func() error {
		select {
		case <-coordinator.Halted():
			slog.Error("Strip hardware failed, animations stopped", "error", coordinator.Fault())
		case <-ctx.Done():
		}
		return nil
	})

	err = errg.Wait()
	slog.Info("jigleds stopped")
	return err
}
