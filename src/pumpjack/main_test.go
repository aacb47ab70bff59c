package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llilyshkall/it-camp/src/config"
	"github.com/llilyshkall/it-camp/src/linkage"
	"github.com/llilyshkall/it-camp/src/report"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func smallRender(t *testing.T) config.Settings {
	t.Helper()
	s := config.Default()
	s.Render.OutputDir = t.TempDir()
	s.Render.FPS = 10
	s.Render.Seconds = 0.5
	s.Render.Encode = false
	return s
}

func TestRootCommand(t *testing.T) {
	root := newRootCmd()

	names := make([]string, 0)
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"render", "calibrate", "strokemap", "live"})
	assert.NotNil(t, root.PersistentFlags().Lookup("config"))
	assert.NotNil(t, root.PersistentFlags().Lookup("log-level"))
}

func TestRootCommandRejectsBadLogLevel(t *testing.T) {
	_, err := execute(t, "--log-level", "loud", "calibrate")
	assert.ErrorIs(t, err, config.ErrInvalid)
}

func TestRootCommandRejectsMissingConfig(t *testing.T) {
	_, err := execute(t, "--config", filepath.Join(t.TempDir(), "absent.yaml"), "calibrate")
	assert.Error(t, err)
}

func TestCalibrateCommandRejectsGeometryOutsideCalibrationRange(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "pumpjack.yaml")
	require.NoError(t, os.WriteFile(fn, []byte("geometry:\n  pitmanLength: 230\n"), 0o644))

	_, err := execute(t, "--config", fn, "calibrate")
	assert.ErrorIs(t, err, config.ErrInvalid)
	assert.ErrorIs(t, err, linkage.ErrInfeasible)
}

func TestCalibrateCommand(t *testing.T) {
	out, err := execute(t, "--log-level", "error", "calibrate", "10", "18", "30")
	require.NoError(t, err)

	assert.Contains(t, out, "radius")
	assert.Contains(t, out, "32.69")
	assert.Contains(t, out, "58.28")
	assert.Contains(t, out, "94.69")
}

func TestCalibrateCommandDefaultsToConfiguredStroke(t *testing.T) {
	out, err := execute(t, "--log-level", "error", "calibrate")
	require.NoError(t, err)
	assert.Contains(t, out, "18.00°")
}

func TestCalibrateCommandRejectsBadStroke(t *testing.T) {
	for _, arg := range []string{"abc", "0", "-4"} {
		_, err := execute(t, "--log-level", "error", "calibrate", arg)
		assert.Error(t, err, arg)
	}
}

func TestSaveCalibrationPlots(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, saveCalibrationPlots(dir, config.Default().LinkageGeometry(), 18))

	assert.FileExists(t, filepath.Join(dir, "calibration.png"))
	assert.FileExists(t, filepath.Join(dir, "beam_cycle.png"))

	rows := readCSV(t, filepath.Join(dir, "beam_cycle.csv"))
	assert.Len(t, rows, 201)
}

func TestRunRender(t *testing.T) {
	s := smallRender(t)
	dir := s.Render.OutputDir

	err := runRender(context.Background(), s, renderOptions{frames: true, plots: true, csv: true}, zerolog.Nop())
	require.NoError(t, err)

	frames, err := report.ListFiles(filepath.Join(dir, "frames"), ".png")
	require.NoError(t, err)
	assert.Len(t, frames, 5)
	assert.NoFileExists(t, filepath.Join(dir, "pumpjack.mp4"))

	for _, fn := range []string{"beam_angle.png", "rod_position.png", "crank_phase.png"} {
		assert.FileExists(t, filepath.Join(dir, fn))
	}

	rows := readCSV(t, filepath.Join(dir, "pumpjack_log.csv"))
	require.Len(t, rows, 6)
	assert.Equal(t, "phase", rows[0][1])

	// first frame has no elapsed time, then the crank turns at 0.4 Hz
	assert.Equal(t, 0.0, parse(t, rows[1][1]))
	assert.InDelta(t, 2*math.Pi*0.4*0.3, parse(t, rows[4][1]), 1e-9)
	for _, r := range rows[1:] {
		assert.Less(t, parse(t, r[5]), 1e-6)
	}
}

func TestRunRenderWithoutFrames(t *testing.T) {
	s := smallRender(t)
	dir := s.Render.OutputDir

	err := runRender(context.Background(), s, renderOptions{csv: true}, zerolog.Nop())
	require.NoError(t, err)

	assert.NoDirExists(t, filepath.Join(dir, "frames"))
	assert.NoFileExists(t, filepath.Join(dir, "beam_angle.png"))
	assert.FileExists(t, filepath.Join(dir, "pumpjack_log.csv"))
}

func TestRunRenderCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := runRender(ctx, smallRender(t), renderOptions{}, zerolog.Nop())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStrokeMapCommand(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("PUMPJACK_RENDER_OUTPUTDIR", dir)

	_, err := execute(t, "--log-level", "error", "strokemap", "--radii", "3", "--pitmans", "2", "--pitman-min", "315", "--pitman-max", "480")
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(dir, "stroke_map.png"))
	rows := readCSV(t, filepath.Join(dir, "stroke_map.csv"))
	require.Len(t, rows, 7)
	assert.Equal(t, []string{"crank_radius", "pitman_length", "amplitude_deg"}, rows[0])
	assert.Equal(t, "NaN", rows[6][2])
}

func TestStrokeMapOptionsValidate(t *testing.T) {
	ok := strokeMapOptions{radii: 2, pitmans: 2, lMin: 200, lMax: 300}
	assert.NoError(t, ok.validate())

	bad := ok
	bad.radii = 1
	assert.Error(t, bad.validate())

	bad = ok
	bad.lMax = bad.lMin
	assert.Error(t, bad.validate())
}

func readCSV(t *testing.T, fn string) [][]string {
	t.Helper()
	f, err := os.Open(fn)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func parse(t *testing.T, s string) float64 {
	t.Helper()
	v, err := strconv.ParseFloat(s, 64)
	require.NoError(t, err)
	return v
}
