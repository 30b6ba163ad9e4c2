package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/fibertrack/internal/config"
	"github.com/san-kum/fibertrack/internal/field"
	"github.com/san-kum/fibertrack/internal/metrics"
	"github.com/san-kum/fibertrack/internal/runner"
	"github.com/san-kum/fibertrack/internal/sh"
	"github.com/san-kum/fibertrack/internal/storage"
	"github.com/san-kum/fibertrack/internal/sweep"
	"github.com/san-kum/fibertrack/internal/tracking"
	"github.com/san-kum/fibertrack/internal/viz"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/spatial/r3"
)

var (
	dataDir string
	// Tracking parameters
	stepSize      float64
	maxAngle      float64
	threshold     float64
	initThreshold float64
	samples       int
	maxTrials     int
	precomputed   bool
	// Run parameters
	streamlines    int
	workers        int
	seed           int64
	maxSteps       int
	minVertices    int
	unidirectional bool
	// Synthetic field parameters
	dims   string
	voxel  float64
	lmax   int
	axis   string
	axis2  string
	kappa  float64
	peak   float64
	// Seed box (empty means inner half of the volume)
	seedLo string
	seedHi string
	// Config file
	configFile string
	// Live view
	live bool
	// Plot layout
	bins       int
	plotHeight int
	// Sweep ranges
	sweepThresholds string
	sweepAngles     string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "fibertrack",
		Short: "probabilistic fiber tracking over synthetic orientation fields",
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".fibertrack", "data directory")

	trackCmd := &cobra.Command{
		Use:   "track [field]",
		Short: "track streamlines through a synthetic field (constant|fiber|crossing)",
		Args:  cobra.ExactArgs(1),
		RunE:  runTrack,
	}
	addTrackingFlags(trackCmd)
	addFieldFlags(trackCmd)
	trackCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	trackCmd.Flags().BoolVar(&live, "live", false, "show live progress view")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot the streamline length distribution of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().IntVar(&bins, "bins", 12, "histogram bins")
	plotCmd.Flags().IntVar(&plotHeight, "height", 10, "plot height")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata as json",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "write a default config file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Save(args[0], config.Default()); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", args[0])
			return nil
		},
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep [field]",
		Short: "grid-search threshold and max angle for mean streamline length",
		Args:  cobra.ExactArgs(1),
		RunE:  runSweep,
	}
	addTrackingFlags(sweepCmd)
	addFieldFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&sweepThresholds, "thresholds", "0.05,0.1,0.2", "threshold values")
	sweepCmd.Flags().StringVar(&sweepAngles, "angles", "10,20,30", "max angle values (degrees)")

	rootCmd.AddCommand(trackCmd, listCmd, plotCmd, exportCmd, initCmd, sweepCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addTrackingFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&stepSize, "step", config.DefaultStepSize, "step size")
	cmd.Flags().Float64Var(&maxAngle, "angle", config.DefaultMaxAngleDeg, "max angle per step (degrees)")
	cmd.Flags().Float64Var(&threshold, "threshold", config.DefaultThreshold, "amplitude threshold")
	cmd.Flags().Float64Var(&initThreshold, "init-threshold", 0, "seed amplitude threshold (0 = 2*threshold)")
	cmd.Flags().IntVar(&samples, "samples", config.DefaultSamples, "sub-samples per step")
	cmd.Flags().IntVar(&maxTrials, "trials", config.DefaultMaxTrials, "max rejection trials")
	cmd.Flags().BoolVar(&precomputed, "precomputed", true, "use the precomputed SH table")
	cmd.Flags().IntVar(&streamlines, "streamlines", config.DefaultStreamlines, "seed attempts")
	cmd.Flags().IntVar(&workers, "workers", 0, "concurrent tracking tasks (0 = one)")
	cmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "random seed")
	cmd.Flags().IntVar(&maxSteps, "max-steps", config.DefaultMaxSteps, "max steps per direction")
	cmd.Flags().IntVar(&minVertices, "min-vertices", config.DefaultMinVertices, "discard shorter streamlines")
	cmd.Flags().BoolVar(&unidirectional, "unidirectional", false, "track forward only")
}

func addFieldFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&dims, "dims", "16,16,16", "grid dimensions")
	cmd.Flags().Float64Var(&voxel, "voxel", 1.0, "voxel size")
	cmd.Flags().IntVar(&lmax, "lmax", 8, "SH order")
	cmd.Flags().StringVar(&axis, "axis", "0,0,1", "fiber axis")
	cmd.Flags().StringVar(&axis2, "axis2", "1,0,0", "second fiber axis (crossing)")
	cmd.Flags().Float64Var(&kappa, "kappa", 20.0, "lobe concentration")
	cmd.Flags().Float64Var(&peak, "peak", 1.0, "on-axis amplitude")
	cmd.Flags().StringVar(&seedLo, "seed-lo", "", "seed box lower corner (default inner half)")
	cmd.Flags().StringVar(&seedHi, "seed-hi", "", "seed box upper corner (default inner half)")
}

func loadProperties(cmd *cobra.Command) (*config.Properties, error) {
	props := config.Default()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		props = loaded
	}

	// CLI flags override config file values.
	flagProps := map[string]func(){
		"step":           func() { props.StepSize = stepSize },
		"angle":          func() { props.MaxAngleDeg = maxAngle },
		"threshold":      func() { props.Threshold = threshold },
		"init-threshold": func() { props.InitThreshold = initThreshold },
		"samples":        func() { props.Samples = samples },
		"trials":         func() { props.MaxTrials = maxTrials },
		"precomputed":    func() { props.Precomputed = precomputed },
		"streamlines":    func() { props.Streamlines = streamlines },
		"workers":        func() { props.Workers = workers },
		"seed":           func() { props.Seed = seed },
		"max-steps":      func() { props.MaxSteps = maxSteps },
		"min-vertices":   func() { props.MinVertices = minVertices },
		"unidirectional": func() { props.Unidirectional = unidirectional },
	}
	for name, apply := range flagProps {
		if cmd.Flags().Changed(name) {
			apply()
		}
	}
	if props.Seed == 0 {
		props.Seed = seed
	}
	return props, nil
}

func buildField(name string) (*field.Volume, error) {
	nx, ny, nz, err := parseDims(dims)
	if err != nil {
		return nil, err
	}
	switch name {
	case "constant":
		return field.Constant(nx, ny, nz, voxel, peak)
	case "fiber":
		ax, err := parseVec(axis)
		if err != nil {
			return nil, err
		}
		return field.Fiber(nx, ny, nz, voxel, lmax, ax, kappa, peak)
	case "crossing":
		ax1, err := parseVec(axis)
		if err != nil {
			return nil, err
		}
		ax2, err := parseVec(axis2)
		if err != nil {
			return nil, err
		}
		return field.Crossing(nx, ny, nz, voxel, lmax, ax1, ax2, kappa, peak)
	default:
		return nil, fmt.Errorf("unknown field: %s (want constant, fiber, or crossing)", name)
	}
}

func buildEvaluator(props *config.Properties, fieldLmax int) tracking.Evaluator {
	if props.Precomputed {
		return sh.NewPrecomputed(fieldLmax)
	}
	return sh.NewBasis(fieldLmax)
}

func runOptions(props *config.Properties, vol *field.Volume) (runner.Options, error) {
	nx, ny, nz := vol.Dims()
	v := vol.VoxelSize()
	ext := r3.Vec{X: float64(nx - 1) * v, Y: float64(ny - 1) * v, Z: float64(nz - 1) * v}

	lo := r3.Scale(0.25, ext)
	hi := r3.Scale(0.75, ext)
	if seedLo != "" {
		var err error
		if lo, err = parseVec(seedLo); err != nil {
			return runner.Options{}, err
		}
	}
	if seedHi != "" {
		var err error
		if hi, err = parseVec(seedHi); err != nil {
			return runner.Options{}, err
		}
	}

	return runner.Options{
		Attempts:       props.Streamlines,
		Workers:        props.Workers,
		Seed:           props.Seed,
		SeedLo:         lo,
		SeedHi:         hi,
		MaxSteps:       props.MaxSteps,
		MinVertices:    props.MinVertices,
		Unidirectional: props.Unidirectional,
	}, nil
}

func runTrack(cmd *cobra.Command, args []string) error {
	props, err := loadProperties(cmd)
	if err != nil {
		return err
	}

	vol, err := buildField(args[0])
	if err != nil {
		return err
	}
	fieldLmax := sh.LforN(vol.NumCoef())

	shared, err := tracking.NewShared(props.TrackingParams(fieldLmax), buildEvaluator(props, fieldLmax))
	if err != nil {
		return err
	}

	r := runner.New(shared, vol)
	length := metrics.NewLength()
	trials := metrics.NewTrials()
	curvature := metrics.NewCurvature()
	r.AddMetric(length)
	r.AddMetric(trials)
	r.AddMetric(curvature)

	opts, err := runOptions(props, vol)
	if err != nil {
		return err
	}

	ctx := context.Background()
	start := time.Now()

	var res *runner.Result
	if live {
		res, err = runWithLiveView(ctx, r, opts)
	} else {
		fmt.Printf("tracking %d seeds through %s field...\n", opts.Attempts, args[0])
		res, err = r.Run(ctx, opts)
	}
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	vals := map[string]float64{
		length.Name():    length.Value(),
		trials.Name():    trials.Value(),
		curvature.Name(): curvature.Value(),
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := st.Save(props, res, vals)
	if err != nil {
		return err
	}

	fmt.Println(viz.Summary("tracking run", [][2]string{
		{"run id", runID},
		{"elapsed", elapsed.Round(time.Millisecond).String()},
		{"streamlines", strconv.Itoa(len(res.Streamlines))},
		{"seed failures", strconv.Itoa(res.SeedFailures)},
		{"discarded", strconv.Itoa(res.Discarded)},
		{"mean length", fmt.Sprintf("%.3f", vals["mean_length"])},
		{"trials/step", fmt.Sprintf("%.2f", vals["trials_per_step"])},
	}))
	return nil
}

func runWithLiveView(ctx context.Context, r *runner.Runner, opts runner.Options) (*runner.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(viz.NewLiveModel(opts.Attempts, cancel))
	opts.OnProgress = func(done, total int) {
		p.Send(viz.ProgressMsg{Done: done, Total: total})
	}

	var res *runner.Result
	var runErr error
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		res, runErr = r.Run(ctx, opts)
		p.Send(viz.DoneMsg{Err: runErr})
	}()

	_, uiErr := p.Run()
	cancel()
	<-finished
	if uiErr != nil {
		return nil, uiErr
	}
	if runErr != nil {
		return nil, runErr
	}
	return res, nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tSTREAMLINES\tFAILED\tDISCARDED\tMEAN_LEN\tTRIALS/STEP")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%.3f\t%.2f\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Streamlines,
			run.SeedFailures,
			run.Discarded,
			run.Metrics["mean_length"],
			run.Metrics["trials_per_step"],
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.LoadMetadata(runID)
	if err != nil {
		return err
	}
	lines, err := st.LoadStreamlines(runID)
	if err != nil {
		return err
	}
	if len(lines) == 0 {
		return fmt.Errorf("no streamlines in run %s", runID)
	}

	lengths := make([]float64, len(lines))
	for i, s := range lines {
		lengths[i] = s.Length()
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("streamlines: %d\n\n", len(lines))
	fmt.Println(viz.LengthHistogram(lengths, bins, plotHeight))
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.LoadMetadata(args[0])
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func runSweep(cmd *cobra.Command, args []string) error {
	props, err := loadProperties(cmd)
	if err != nil {
		return err
	}

	vol, err := buildField(args[0])
	if err != nil {
		return err
	}
	fieldLmax := sh.LforN(vol.NumCoef())
	eval := buildEvaluator(props, fieldLmax)

	opts, err := runOptions(props, vol)
	if err != nil {
		return err
	}

	thresholds, err := parseFloats(sweepThresholds)
	if err != nil {
		return err
	}
	angles, err := parseFloats(sweepAngles)
	if err != nil {
		return err
	}

	grid, err := sweep.New(
		[]string{"threshold", "max_angle"},
		[][]float64{thresholds, angles},
	)
	if err != nil {
		return err
	}

	run := func(ctx context.Context, params map[string]float64) (map[string]float64, error) {
		p := *props
		p.Threshold = params["threshold"]
		p.MaxAngleDeg = params["max_angle"]

		shared, err := tracking.NewShared(p.TrackingParams(fieldLmax), eval)
		if err != nil {
			return nil, err
		}

		r := runner.New(shared, vol)
		length := metrics.NewLength()
		trials := metrics.NewTrials()
		r.AddMetric(length)
		r.AddMetric(trials)

		res, err := r.Run(ctx, opts)
		if err != nil {
			return nil, err
		}
		return map[string]float64{
			"mean_length":     length.Value(),
			"trials_per_step": trials.Value(),
			"streamlines":     float64(len(res.Streamlines)),
		}, nil
	}

	fmt.Printf("sweeping %d combinations over %s field...\n\n", len(thresholds)*len(angles), args[0])
	best, trace, err := grid.Search(context.Background(), run, "mean_length")
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "THRESHOLD\tANGLE\tMEAN_LEN")
	for _, pt := range trace {
		fmt.Fprintf(w, "%.3f\t%.1f\t%.3f\n", pt.Params["threshold"], pt.Params["max_angle"], pt.Value)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(viz.Summary("best combination", [][2]string{
		{"threshold", fmt.Sprintf("%.3f", best.Params["threshold"])},
		{"max angle", fmt.Sprintf("%.1f°", best.Params["max_angle"])},
		{"mean length", fmt.Sprintf("%.3f", best.Value)},
	}))
	return nil
}

func parseDims(s string) (nx, ny, nz int, err error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("dims must be three comma-separated integers, got %q", s)
	}
	var vals [3]int
	for i, p := range parts {
		vals[i], err = strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return 0, 0, 0, fmt.Errorf("bad dimension %q: %w", p, err)
		}
	}
	return vals[0], vals[1], vals[2], nil
}

func parseVec(s string) (r3.Vec, error) {
	vals, err := parseFloats(s)
	if err != nil {
		return r3.Vec{}, err
	}
	if len(vals) != 3 {
		return r3.Vec{}, fmt.Errorf("vector must be three comma-separated numbers, got %q", s)
	}
	return r3.Vec{X: vals[0], Y: vals[1], Z: vals[2]}, nil
}

func parseFloats(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("bad number %q: %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}
