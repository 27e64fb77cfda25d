/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/pkg/profile"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/notargets/gosao/InputParameters"
	"github.com/notargets/gosao/mma"
	"github.com/notargets/gosao/model_problems"
	"github.com/notargets/gosao/pdip"
	"github.com/notargets/gosao/sao"
	"github.com/notargets/gosao/utils"
)

type ModelSAO struct {
	ICFile      string
	PlotFile    string
	RecordsFile string
	Profile     string
}

// RunCmd represents the run command
var RunCmd = &cobra.Command{
	Use:   "run",
	Short: "Optimize a model problem described by a YAML input file",
	Long: `Optimize a model problem described by a YAML input file, optionally writing the
iteration history as YAML and as a convergence plot`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		m := &ModelSAO{}
		if m.ICFile, err = cmd.Flags().GetString("inputConditionsFile"); err != nil {
			return
		}
		m.PlotFile, _ = cmd.Flags().GetString("plot")
		m.RecordsFile, _ = cmd.Flags().GetString("records")
		m.Profile = viper.GetString("profile")
		var ip *InputParameters.InputParameters
		if ip, err = processInput(m); err != nil {
			return
		}
		ip.Print()
		switch m.Profile {
		case "":
		case "cpu":
			defer profile.Start(profile.CPUProfile, profile.ProfilePath(".")).Stop()
		case "mem":
			defer profile.Start(profile.MemProfile, profile.ProfilePath(".")).Stop()
		default:
			return errors.Errorf("unknown profile mode %q, use cpu or mem", m.Profile)
		}
		logger := newLogger()
		res, err := RunSAO(m, ip, logger)
		logger.Debug(utils.GetMemUsage())
		if res != nil {
			logger.WithFields(logrus.Fields{
				"iterations": res.Iterations,
				"obj":        res.F[0],
				"converged":  res.Converged,
			}).Infof("x = %v", res.X)
		}
		if err != nil {
			logger.Error(err)
		}
		return
	},
}

const exampleFile = `
########################################
Title: "Two bar truss"
Problem: TwoBarTruss # Square, Polynomial, TwoBarTruss or Cantilever
Size: 2              # Variables for Square, segments for Cantilever
Scheme: MMA          # MMA, Linear, Reciprocal or ConLin
MoveLimit: 0.5
Criterion: All       # KKT, ObjectiveChange, VariableChange, Feasibility, IterationCount or All
Tolerance: 1.0e-6
MaxIterations: 100
Solver:
  Epsimin: 1.0e-7
  Reduction: Auto    # Auto, Dual or Primal
########################################
`

func processInput(m *ModelSAO) (ip *InputParameters.InputParameters, err error) {
	if len(m.ICFile) == 0 {
		fmt.Printf("Example File:%s\n", exampleFile)
		err = errors.New("must supply an input parameters file (-I, --inputConditionsFile) in YAML format")
		return
	}
	var data []byte
	if data, err = os.ReadFile(m.ICFile); err != nil {
		return nil, errors.Wrapf(err, "reading %s", m.ICFile)
	}
	ip = &InputParameters.InputParameters{}
	if err = ip.Parse(data); err != nil {
		return nil, errors.Wrapf(err, "in %s", m.ICFile)
	}
	return
}

func init() {
	rootCmd.AddCommand(RunCmd)
	RunCmd.Flags().StringP("inputConditionsFile", "I", "", "YAML file for input parameters like:\n\t- Problem\n\t- Scheme\n\t- Criterion")
	RunCmd.Flags().StringP("plot", "p", "", "write the convergence history plot to this file (.png, .svg, .pdf)")
	RunCmd.Flags().StringP("records", "r", "", "write the iteration history to this YAML file")
	RunCmd.Flags().String("profile", "", "profile the run: cpu or mem")
	_ = viper.BindPFlag("profile", RunCmd.Flags().Lookup("profile"))
}

// RunSAO assembles the problem, scheme, solver and criterion named in ip and runs
// the optimization. History output is written even when the run does not
// converge.
func RunSAO(m *ModelSAO, ip *InputParameters.InputParameters, logger logrus.FieldLogger) (res *sao.Result, err error) {
	p, ok := model_problems.NewProblem(ip.Problem, ip.Size)
	if !ok {
		return nil, errors.Errorf("unknown problem %q", ip.Problem)
	}
	var (
		xmin, xmax = p.Bounds()
		scheme     sao.Scheme
		criterion  sao.Criterion
	)
	if ip.Scheme == "MMA" {
		var s *mma.Scheme
		if s, err = mma.New(xmin, xmax, ip.MMAConfig()); err != nil {
			return
		}
		s.Logger = logger
		scheme = s
	} else {
		var s *sao.MoveLimitScheme
		if s, err = sao.NewMoveLimitScheme(ip.Scheme, xmin, xmax, ip.MoveLimit); err != nil {
			return
		}
		s.Logger = logger
		scheme = s
	}
	if criterion, err = sao.NewCriterion(ip.Criterion, ip.Tolerance, ip.MaxIterations); err != nil {
		return
	}
	opts := ip.SolverOptions()
	opts.Logger = logger
	o := sao.NewOptimizer(p, scheme, pdip.New(opts), criterion)
	o.MaxIterations = ip.MaxIterations
	o.SecondOrder = ip.SecondOrder
	o.Logger = logger
	res, err = o.Run()
	if len(m.RecordsFile) != 0 {
		if werr := o.Records.WriteYAML(m.RecordsFile); werr != nil && err == nil {
			err = werr
		}
	}
	if len(m.PlotFile) != 0 {
		if perr := o.Records.Plot(m.PlotFile); perr != nil && err == nil {
			err = perr
		}
	}
	return
}
