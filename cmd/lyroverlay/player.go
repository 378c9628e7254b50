package main

import (
	"fmt"

	"github.com/godbus/dbus/v5"
	"github.com/spf13/cobra"

	"karolbroda.com/lyroverlay/internal/colors"
	"karolbroda.com/lyroverlay/internal/player"
)

var (
	// flags for player test
	testService string
)

var playerCmd = &cobra.Command{
	Use:   "player",
	Short: "mpris player utilities",
	Long:  `discover and test mpris-compatible music players on your system.`,
}

var playerListCmd = &cobra.Command{
	Use:   "list",
	Short: "list available mpris players",
	Long:  `list all mpris-compatible music players currently running on the system.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		bus, err := dbus.ConnectSessionBus()
		if err != nil {
			return fmt.Errorf("failed to connect to session bus: %w", err)
		}
		defer bus.Close()

		services, err := player.ListPlayers(bus)
		if err != nil {
			return err
		}

		if len(services) == 0 {
			fmt.Println("no mpris players found")
			fmt.Println("\ncheck if your music player is running and supports mpris")
			return nil
		}

		fmt.Printf("found %d mpris player(s):\n\n", len(services))
		for _, service := range services {
			if identity := player.Identity(bus, service); identity != "" {
				fmt.Printf("  %s (%s)\n", service, identity)
			} else {
				fmt.Printf("  %s\n", service)
			}
		}

		fmt.Println("\nuse --mpris-service flag to specify which player to use")
		return nil
	},
}

var playerTestCmd = &cobra.Command{
	Use:   "test",
	Short: "test connection to mpris player",
	Long:  `test the connection to an mpris player and display basic information.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := setupCommand(cmd)
		if err != nil {
			return err
		}

		serviceName := cfg.MprisService
		if testService != "" {
			serviceName = testService
		}

		bus, err := dbus.ConnectSessionBus()
		if err != nil {
			return fmt.Errorf("failed to connect to session bus: %w", err)
		}
		defer bus.Close()

		fmt.Printf("testing connection to: %s\n\n", serviceName)

		playerService, err := player.NewService(bus, serviceName)
		if err != nil {
			return fmt.Errorf("failed to connect to player: %w", err)
		}

		if identity := player.Identity(bus, serviceName); identity != "" {
			fmt.Printf("player identity: %s\n", identity)
		}

		fmt.Printf("status: connected ✓\n\n")

		if err := playerService.Poll(); err != nil {
			return fmt.Errorf("failed to read player state: %w", err)
		}

		state := playerService.GetState()
		if !state.Track.IsValid() {
			fmt.Println("no track currently playing")
			return nil
		}

		fmt.Println("current track:")
		fmt.Printf("  title:  %s\n", state.Track.Title)
		fmt.Printf("  artist: %s\n", state.Track.Artist)
		if state.Track.Album != "" {
			fmt.Printf("  album:  %s\n", state.Track.Album)
		}
		fmt.Printf("  state:  %s\n", playingLabel(state.Playing))

		return nil
	},
}

var playerCurrentCmd = &cobra.Command{
	Use:   "current",
	Short: "show currently playing track",
	Long:  `display information about the currently playing track.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := setupCommand(cmd)
		if err != nil {
			return err
		}

		bus, err := dbus.ConnectSessionBus()
		if err != nil {
			return fmt.Errorf("failed to connect to session bus: %w", err)
		}
		defer bus.Close()

		playerService, err := player.NewService(bus, cfg.MprisService)
		if err != nil {
			return fmt.Errorf("failed to connect to player: %w", err)
		}

		if err := playerService.Poll(); err != nil {
			return fmt.Errorf("failed to read player state: %w", err)
		}

		state := playerService.GetState()
		if !state.Track.IsValid() {
			fmt.Println("no track currently playing")
			return nil
		}

		fmt.Printf("title:    %s\n", state.Track.Title)
		fmt.Printf("artist:   %s\n", state.Track.Artist)
		if state.Track.Album != "" {
			fmt.Printf("album:    %s\n", state.Track.Album)
		}
		if state.Track.Duration > 0 {
			fmt.Printf("duration: %s\n", colors.FormatDuration(state.Track.Duration))
		}
		if state.Track.ArtworkURL != "" {
			fmt.Printf("artwork:  %s\n", state.Track.ArtworkURL)
		}
		fmt.Printf("state:    %s\n", playingLabel(state.Playing))
		if state.Position > 0 {
			fmt.Printf("position: %s\n", colors.FormatDuration(state.Position))
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(playerCmd)

	playerCmd.AddCommand(playerListCmd)
	playerCmd.AddCommand(playerTestCmd)
	playerCmd.AddCommand(playerCurrentCmd)

	playerTestCmd.Flags().StringVar(&testService, "service", "", "mpris service to test")
}

func playingLabel(playing bool) string {
	if playing {
		return "playing"
	}
	return "paused"
}
