package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/vzahanych/weather-ph/internal/app"
	"github.com/vzahanych/weather-ph/internal/config"
	"github.com/vzahanych/weather-ph/internal/models"
	"github.com/vzahanych/weather-ph/internal/prefs"
)

type weatherOptions struct {
	city    string
	lat     float64
	lon     float64
	current bool
}

func weatherCmd() *cobra.Command {
	opts := &weatherOptions{}

	cmd := &cobra.Command{
		Use:   "weather",
		Short: "Print the current weather for a city, coordinates or the device location",
		Example: `  weather-ph weather --city Manila
  weather-ph weather --lat 10.3157 --lon 123.8854
  weather-ph weather --current`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWeather(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.city, "city", "", "city name to look up")
	cmd.Flags().Float64Var(&opts.lat, "lat", 0, "latitude")
	cmd.Flags().Float64Var(&opts.lon, "lon", 0, "longitude")
	cmd.Flags().BoolVar(&opts.current, "current", false, "use the device location")
	cmd.MarkFlagsMutuallyExclusive("city", "lat")
	cmd.MarkFlagsMutuallyExclusive("city", "current")
	cmd.MarkFlagsMutuallyExclusive("lat", "current")
	cmd.MarkFlagsRequiredTogether("lat", "lon")
	cmd.MarkFlagsOneRequired("city", "lat", "current")

	return cmd
}

func runWeather(cmd *cobra.Command, opts *weatherOptions) error {
	cfg := config.GetConfig()

	a, err := app.New(cfg, log, tele)
	if err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = a.Close(ctx)
	}()

	results := make(chan models.Outcome, 1)
	deliver := func(o models.Outcome) { results <- o }

	ctx := cmd.Context()
	switch {
	case opts.city != "":
		err = a.Orchestrator.LoadByName(ctx, opts.city, deliver)
	case opts.current:
		err = a.Orchestrator.LoadCurrentLocation(ctx, deliver)
	default:
		err = a.Orchestrator.LoadByCoordinates(ctx, opts.lat, opts.lon, deliver)
	}
	if err != nil {
		return err
	}

	var outcome models.Outcome
	select {
	case outcome = <-results:
	case <-ctx.Done():
		return ctx.Err()
	}

	switch o := outcome.(type) {
	case models.Loaded:
		if opts.city != "" {
			if err := a.Prefs.PutString(ctx, prefs.KeyLastCity, o.LocationName); err != nil {
				return fmt.Errorf("failed to save last city: %w", err)
			}
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"location": o.LocationName,
			"weather":  o.Weather,
		})
	case models.Failed:
		return errors.New(o.Message)
	default:
		return fmt.Errorf("unexpected outcome %T", outcome)
	}
}
