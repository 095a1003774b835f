package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/PercyRoc/CangFenBao-sub014/app"
	"github.com/PercyRoc/CangFenBao-sub014/config"
)

var calibrateCmd = &cobra.Command{
	Use:   "calibrate",
	Short: "Measure trigger-to-confirmation delays instead of sorting",
	Long: `Runs the engine in calibration mode: no actuation commands are sent.
Each trigger signal is paired with every sort photoelectric's own
confirmation signal and the measured delay distribution is printed on
shutdown, for retuning sorting_delay_ms and reset_delay_ms.`,
	RunE: calibrate,
}

func init() {
	rootCmd.AddCommand(calibrateCmd)
}

func calibrate(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	svc, err := app.NewCalibration(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	if err := svc.Run(ctx); err != nil {
		return err
	}

	stats := svc.Recorder.Stats()
	if len(stats) == 0 {
		cmd.Println("no calibration samples recorded")
		return nil
	}
	names := make([]string, 0, len(stats))
	for name := range stats {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		s := stats[name]
		cmd.Printf("%s: n=%d min=%s max=%s mean=%s stddev=%s p95=%s\n",
			name, s.Count, s.Min, s.Max, s.Mean, s.StdDev, s.P95)
	}
	return nil
}
