package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/gosao/InputParameters"
	"github.com/notargets/gosao/sao"
)

func TestRunSAO(t *testing.T) {
	var (
		dir = t.TempDir()
		m   = &ModelSAO{
			ICFile:      filepath.Join(dir, "input.yaml"),
			PlotFile:    filepath.Join(dir, "history.png"),
			RecordsFile: filepath.Join(dir, "history.yaml"),
		}
		logger = logrus.New()
	)
	logger.SetLevel(logrus.ErrorLevel)
	fileInput := []byte(`
Title: Test Case
Problem: Polynomial
Scheme: MMA
Criterion: VariableChange
Tolerance: 1.0e-6
MaxIterations: 100
`)
	require.NoError(t, os.WriteFile(m.ICFile, fileInput, 0644))
	ip, err := processInput(m)
	require.NoError(t, err)
	ip.Print()
	res, err := RunSAO(m, ip, logger)
	require.NoError(t, err)
	assert.True(t, res.Converged)
	assert.InDelta(t, 0.881966, res.X[0], 1e-4)
	for _, fileName := range []string{m.PlotFile, m.RecordsFile} {
		_, err = os.Stat(fileName)
		assert.NoError(t, err)
	}
	records, err := sao.ReadRecords(m.RecordsFile)
	require.NoError(t, err)
	assert.Equal(t, res.Iterations, len(records.History))
}

func TestRunSAONotConverged(t *testing.T) {
	var (
		dir = t.TempDir()
		m   = &ModelSAO{
			ICFile:      filepath.Join(dir, "input.yaml"),
			RecordsFile: filepath.Join(dir, "history.yaml"),
		}
		logger = logrus.New()
	)
	logger.SetLevel(logrus.ErrorLevel)
	require.NoError(t, os.WriteFile(m.ICFile, []byte("Problem: Square\nSize: 3\nScheme: ConLin\nMoveLimit: 0.1\nMaxIterations: 2\nTolerance: 1.0e-12\n"), 0644))
	ip, err := processInput(m)
	require.NoError(t, err)
	res, err := RunSAO(m, ip, logger)
	assert.True(t, errors.Is(err, sao.ErrMaxIterations))
	require.NotNil(t, res)
	assert.Equal(t, 2, res.Iterations)
	_, err = os.Stat(m.RecordsFile)
	assert.NoError(t, err)
}

func TestRunSAOUnknownProblem(t *testing.T) {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	ip := &InputParameters.InputParameters{Problem: "Rosenbrock", Size: 2, Scheme: "MMA"}
	res, err := RunSAO(&ModelSAO{}, ip, logger)
	assert.Error(t, err)
	assert.Nil(t, res)
}

func TestProcessInput(t *testing.T) {
	_, err := processInput(&ModelSAO{})
	assert.Error(t, err)
	_, err = processInput(&ModelSAO{ICFile: filepath.Join(t.TempDir(), "missing.yaml")})
	assert.Error(t, err)
}
