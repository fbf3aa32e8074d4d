package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/cloudronix/deviceinfo/internal/client"
	"github.com/cloudronix/deviceinfo/internal/config"
	"github.com/cloudronix/deviceinfo/internal/log"
	"github.com/cloudronix/deviceinfo/internal/panel"
	"github.com/cloudronix/deviceinfo/internal/reporter"
	"github.com/cloudronix/deviceinfo/internal/resources"
	"github.com/cloudronix/deviceinfo/internal/server"
	"github.com/cloudronix/deviceinfo/internal/service"
	"github.com/cloudronix/deviceinfo/pkg/sysinfo"
)

var (
	version = "0.1.0"
	cfgFile string
	debug   bool
	noColor bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "deviceinfo",
		Short: "Device information panel",
		Long: `deviceinfo reports the chipset, storage, memory, battery and screen of this device
the way the Settings "device info" header shows them.

Values are rounded to marketed sizes and can be replaced by override strings
in config.yaml.`,
		Version: version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if debug {
				log.SetDebugMode()
			}
			if noColor {
				color.NoColor = true
			}
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config directory (default: ~/.deviceinfo)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	// Add commands
	rootCmd.AddCommand(showCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(watchCmd())
	rootCmd.AddCommand(reportCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(installCmd())
	rootCmd.AddCommand(uninstallCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadController wires the configured platform source into a panel controller
func loadController() (*config.Config, *sysinfo.Platform, *panel.Controller, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	src := sysinfo.New(cfg.SourceOptions())
	cat := resources.NewCatalog(cfg.Locale, cfg.Strings)

	return cfg, src, panel.NewController(src, cfg, cat), nil
}

func showCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the device info panel",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _, ctrl, err := loadController()
			if err != nil {
				return err
			}

			p := ctrl.Display()
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(p)
			}

			printPanel(cmd.OutOrStdout(), ctrl, p)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the panel as JSON")
	return cmd
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the panel over HTTP and WebSocket",
		Long:  `Serve the panel on the configured listen address. Use 'install' to run as a system service.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, ctrl, err := loadController()
			if err != nil {
				return err
			}

			return server.New(ctrl, cfg.Refresh(), version).Start(cfg.Listen)
		},
	}

	return cmd
}

func watchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <url>",
		Short: "Follow the panel of a remote deviceinfo server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _, ctrl, err := loadController()
			if err != nil {
				return err
			}

			w, err := client.NewWatcher(args[0])
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			log.Info().Str("url", w.URL()).Msg("Watching panel")
			return w.Run(ctx, func(p panel.Panel) {
				printPanel(cmd.OutOrStdout(), ctrl, &p)
				fmt.Fprintln(cmd.OutOrStdout())
			})
		},
	}

	return cmd
}

func reportCmd() *cobra.Command {
	var every int

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Send the panel to the configured collector",
		Long: `Send the panel to collector_url. With --every, keep sending a fresh
report at that interval until interrupted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, src, ctrl, err := loadController()
			if err != nil {
				return err
			}

			r := reporter.New(ctrl, src, client.NewClient(cfg), version)

			if every > 0 {
				ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
				defer stop()
				return r.Run(ctx, time.Duration(every)*time.Second)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			if err := r.SendOnce(ctx); err != nil {
				return err
			}

			log.Info().Str("collector", cfg.CollectorURL).Msg("Report sent")
			return nil
		},
	}

	cmd.Flags().IntVar(&every, "every", 0, "report interval in seconds (0 sends once)")
	return cmd
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write config.yaml with the current settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if err := cfg.Save(); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", cfg.Paths().Config)
			return nil
		},
	})

	return cmd
}

func installCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "install",
		Short: "Install the panel server as a system service",
		Long: `Install 'deviceinfo serve' as a system service.

On Linux, this creates a systemd unit.
On macOS, this creates a launchd plist.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			return service.Install(cfg)
		},
	}

	return cmd
}

func uninstallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "uninstall",
		Short: "Remove the system service",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			return service.Uninstall(cfg)
		},
	}

	return cmd
}
