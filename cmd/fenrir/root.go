package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fenrir-sec/fenrir/pkg/campaign"
	"github.com/fenrir-sec/fenrir/pkg/config"
	"github.com/fenrir-sec/fenrir/pkg/defaults"
	"github.com/fenrir-sec/fenrir/pkg/duration"
	"github.com/fenrir-sec/fenrir/pkg/payloads"
	"github.com/fenrir-sec/fenrir/pkg/smuggling"
)

type rootFlags struct {
	verbose bool
	jsonOut bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:           "fenrir",
		Short:         "Security fuzzing toolkit for authorized targets",
		Long:          "fenrir runs payload fuzzing campaigns, adaptive mutation, and raw-socket request smuggling probes against targets you are authorized to test.",
		Version:       defaults.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().BoolVar(&flags.jsonOut, "json", false, "emit the report as JSON")

	root.AddCommand(newCampaignCmd(flags))
	root.AddCommand(newSmuggleCmd(flags))
	root.AddCommand(newPayloadsCmd(flags))
	return root
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.DisableStacktrace = true
	return cfg.Build()
}

func newCampaignCmd(flags *rootFlags) *cobra.Command {
	var (
		configPath    string
		target        string
		categories    []string
		maxConcurrent int
		rateLimit     float64
		skipVerify    bool
		timeout       time.Duration
	)

	cmd := &cobra.Command{
		Use:   "campaign",
		Short: "Run attack categories against a target",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Default()
			if configPath != "" {
				loaded, err := config.Load(configPath)
				if err != nil {
					return err
				}
				cfg = loaded
			}
			if target != "" {
				cfg.Target = target
			}
			if cmd.Flags().Changed("categories") {
				cfg.Categories = categories
			}
			if cmd.Flags().Changed("concurrency") {
				cfg.MaxConcurrent = maxConcurrent
			}
			if cmd.Flags().Changed("rate") {
				cfg.RateLimit = rateLimit
			}
			if skipVerify {
				cfg.SkipVerify = true
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger, err := newLogger(flags.verbose)
			if err != nil {
				return fmt.Errorf("logger: %w", err)
			}
			defer logger.Sync() //nolint:errcheck

			ctx, cancel := signalContext(cmd.Context(), timeout)
			defer cancel()

			c := campaign.New(campaign.Config{
				Target:        cfg.Target,
				MaxConcurrent: cfg.MaxConcurrent,
				RateLimit:     cfg.RateLimit,
				SkipVerify:    cfg.SkipVerify,
				Logger:        logger,
			})
			report := c.Run(ctx, cfg.Categories)

			if flags.jsonOut {
				if err := json.NewEncoder(os.Stdout).Encode(report); err != nil {
					return err
				}
			} else {
				printCampaignReport(report)
			}

			if !cfg.Smuggling.Enabled {
				return nil
			}
			engine, err := smuggling.NewEngine(cfg.Target, logger)
			if err != nil {
				return err
			}
			engine.ScoreThreshold = cfg.Smuggling.ScoreThreshold
			if cfg.Smuggling.DelaySeconds > 0 {
				engine.Delay = time.Duration(cfg.Smuggling.DelaySeconds * float64(time.Second))
			}
			smugReport := engine.RunComprehensive(ctx)
			if flags.jsonOut {
				return json.NewEncoder(os.Stdout).Encode(smugReport)
			}
			printSmugglingReport(smugReport)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "campaign YAML file")
	cmd.Flags().StringVarP(&target, "target", "t", "", "target base URL")
	cmd.Flags().StringSliceVar(&categories, "categories", nil, "attack categories to run")
	cmd.Flags().IntVar(&maxConcurrent, "concurrency", defaults.ConcurrencyMedium, "max concurrent requests")
	cmd.Flags().Float64Var(&rateLimit, "rate", 0, "max requests per second (0 = unlimited)")
	cmd.Flags().BoolVarP(&skipVerify, "insecure", "k", false, "skip TLS verification")
	cmd.Flags().DurationVar(&timeout, "timeout", duration.Campaign, "overall campaign deadline")
	return cmd
}

func newSmuggleCmd(flags *rootFlags) *cobra.Command {
	var (
		target    string
		threshold int
		delay     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "smuggle",
		Short: "Probe a target for HTTP request smuggling",
		RunE: func(cmd *cobra.Command, args []string) error {
			if target == "" {
				return fmt.Errorf("--target is required")
			}
			logger, err := newLogger(flags.verbose)
			if err != nil {
				return fmt.Errorf("logger: %w", err)
			}
			defer logger.Sync() //nolint:errcheck

			engine, err := smuggling.NewEngine(target, logger)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("threshold") {
				engine.ScoreThreshold = threshold
			}
			if cmd.Flags().Changed("delay") {
				engine.Delay = delay
			}

			ctx, cancel := signalContext(cmd.Context(), duration.Campaign)
			defer cancel()

			report := engine.RunComprehensive(ctx)
			if flags.jsonOut {
				return json.NewEncoder(os.Stdout).Encode(report)
			}
			printSmugglingReport(report)
			return nil
		},
	}

	cmd.Flags().StringVarP(&target, "target", "t", "", "target URL")
	cmd.Flags().IntVar(&threshold, "threshold", defaults.SmugglingScoreThreshold, "indicators required to flag a probe")
	cmd.Flags().DurationVar(&delay, "delay", duration.InterProbeDelay, "delay between probes")
	return cmd
}

func newPayloadsCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "payloads <category>",
		Short: "Print the payload sets for a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sets := payloads.ForCategory(args[0])
			if sets == nil {
				return fmt.Errorf("unknown category: %s", args[0])
			}
			if flags.jsonOut {
				return json.NewEncoder(os.Stdout).Encode(sets)
			}
			printPayloadSets(sets)
			return nil
		},
	}
	return cmd
}
