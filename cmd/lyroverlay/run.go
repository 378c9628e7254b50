package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/godbus/dbus/v5"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"karolbroda.com/lyroverlay/internal/artwork"
	"karolbroda.com/lyroverlay/internal/cache"
	"karolbroda.com/lyroverlay/internal/logging"
	"karolbroda.com/lyroverlay/internal/lyricsync"
	"karolbroda.com/lyroverlay/internal/player"
	"karolbroda.com/lyroverlay/internal/session"
	"karolbroda.com/lyroverlay/internal/status"
	"karolbroda.com/lyroverlay/internal/terminal"
	"karolbroda.com/lyroverlay/internal/ui"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "start the lyric overlay",
	Long:  `starts the terminal overlay that follows the player and shows the current lyric line.`,
	RunE:  runOverlay,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runOverlay(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logFile, err := logging.Setup(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	defer logFile.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	defer terminal.Reset(os.Stdout)

	var store *cache.Store
	if cfg.CacheLyrics {
		store, err = openCache(cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		if pruned, err := store.Prune(); err != nil {
			log.WithError(err).Warn("failed to prune lyrics cache")
		} else if pruned > 0 {
			log.WithField("entries", pruned).Info("pruned expired lyrics")
		}
	}

	client, err := newLyricsClient(cfg, store)
	if err != nil {
		return err
	}

	resolverCfg := session.ResolverConfig{
		Fetcher:        client,
		TranslationDir: cfg.TranslationDir,
	}
	if store != nil {
		resolverCfg.Offsets = store
	}
	resolver := session.NewLyricsResolver(resolverCfg)

	bus, err := dbus.ConnectSessionBus()
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}
	defer bus.Close()

	playerService, err := player.NewService(bus, cfg.MprisService)
	if err != nil {
		return fmt.Errorf("failed to create player service: %w", err)
	}
	if err := playerService.Start(); err != nil {
		log.WithError(err).Warn("could not subscribe to player signals, relying on polling")
	}
	defer playerService.Stop()

	engine := lyricsync.NewEngine(lyricsync.EngineConfig{
		Display: lyricsync.NewDisplay(cfg.Display()),
	})

	board := ui.NewBoard(cfg.Align)
	handle := lyricsync.NewHandle(board)
	scheduler := engine.Register(handle, cfg.RefreshInterval)

	sess := session.New(session.Config{
		Player:         playerService,
		Engine:         engine,
		Surface:        handle,
		Resolver:       resolver,
		Artwork:        artwork.Fetch,
		Listener:       board,
		BaseSyncOffset: cfg.SyncOffsetDuration(),
		ResyncInterval: cfg.PlayerPollInterval,
	})

	go func() {
		if err := sess.Run(ctx); err != nil {
			log.WithError(err).Error("session stopped")
		}
	}()

	if cfg.StatusAddr != "" {
		srv := status.NewServer(engine, sess)
		go func() {
			if err := srv.ListenAndServe(ctx, cfg.StatusAddr); err != nil {
				log.WithError(err).WithField("addr", cfg.StatusAddr).Error("status server stopped")
			}
		}()
	}

	model := ui.NewModel(ui.ModelConfig{
		Board:         board,
		Handle:        handle,
		Controller:    engine,
		SaveOffset:    sess.SaveSyncOffset,
		HideHeader:    cfg.HideHeader,
		FigletMinSize: cfg.FigletMinSize,
		TermCaps:      terminal.DetectCapabilities(cfg.KittyGraphics),
	})

	p := tea.NewProgram(model, tea.WithAltScreen())

	go func() {
		<-ctx.Done()
		p.Quit()
	}()

	_, runErr := p.Run()

	// the overlay is gone either way; releasing the handle stops the scheduler
	handle.Release()
	cancel()

	select {
	case <-scheduler.Done():
	case <-time.After(2*cfg.RefreshInterval + time.Second):
		log.WithField("scheduler", scheduler.ID()).Warn("scheduler did not stop in time")
	}

	if runErr != nil {
		return fmt.Errorf("error running bubble tea: %w", runErr)
	}
	return nil
}
