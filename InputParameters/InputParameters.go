package InputParameters

import (
	"fmt"

	"github.com/ghodss/yaml"
	"github.com/pkg/errors"

	"github.com/notargets/gosao/mma"
	"github.com/notargets/gosao/model_problems"
	"github.com/notargets/gosao/pdip"
)

// MMAParameters overrides the asymptote constants, zero keeps the default
type MMAParameters struct {
	Albefa      float64 `yaml:"Albefa"`
	AsyInit     float64 `yaml:"AsyInit"`
	AsyIncr     float64 `yaml:"AsyIncr"`
	AsyDecr     float64 `yaml:"AsyDecr"`
	AsyBound    float64 `yaml:"AsyBound"`
	DxMin       float64 `yaml:"DxMin"`
	IterInitial float64 `yaml:"IterInitial"`
}

// SolverParameters overrides the interior point options, zero keeps the default
type SolverParameters struct {
	Epsimin      float64 `yaml:"Epsimin"`
	EpsiFac      float64 `yaml:"EpsiFac"`
	IterAMax     int     `yaml:"IterAMax"`
	IterInMax    int     `yaml:"IterInMax"`
	Reduction    string  `yaml:"Reduction"` // Auto, Dual or Primal
	StrictStages bool    `yaml:"StrictStages"`
}

// Parameters obtained from the YAML input file
type InputParameters struct {
	Title         string           `yaml:"Title"`
	Problem       string           `yaml:"Problem"` // Square, Polynomial, TwoBarTruss or Cantilever
	Size          int              `yaml:"Size"`    // Variables for Square, segments for Cantilever
	Scheme        string           `yaml:"Scheme"`  // MMA, Linear, Reciprocal or ConLin
	SecondOrder   bool             `yaml:"SecondOrder"`
	MoveLimit     float64          `yaml:"MoveLimit"`
	MMA           MMAParameters    `yaml:"MMA"`
	Criterion     string           `yaml:"Criterion"`
	Tolerance     float64          `yaml:"Tolerance"`
	MaxIterations int              `yaml:"MaxIterations"`
	Solver        SolverParameters `yaml:"Solver"`
}

func (ip *InputParameters) Parse(data []byte) (err error) {
	if err = yaml.Unmarshal(data, ip); err != nil {
		return errors.Wrap(err, "parsing input parameters")
	}
	ip.setDefaults()
	return ip.Validate()
}

func (ip *InputParameters) setDefaults() {
	if ip.Scheme == "" {
		ip.Scheme = "MMA"
	}
	if ip.Size == 0 {
		ip.Size = 2
	}
	if ip.MoveLimit == 0 {
		ip.MoveLimit = mma.DefaultConfig().MoveLimit
	}
	if ip.Criterion == "" {
		ip.Criterion = "KKT"
	}
	if ip.Tolerance == 0 {
		ip.Tolerance = 1e-4
	}
	if ip.MaxIterations == 0 {
		ip.MaxIterations = 200
	}
}

func (ip *InputParameters) Validate() error {
	if _, ok := model_problems.NewProblem(ip.Problem, 1); !ok {
		return errors.Errorf("unknown problem %q", ip.Problem)
	}
	switch ip.Scheme {
	case "MMA", "Linear", "Reciprocal", "ConLin":
	default:
		return errors.Errorf("unknown scheme %q", ip.Scheme)
	}
	if ip.Size < 1 {
		return errors.Errorf("problem size must be positive, have %d", ip.Size)
	}
	if ip.MoveLimit <= 0 || ip.Tolerance <= 0 || ip.MaxIterations < 1 {
		return errors.Errorf("move limit %g, tolerance %g and max iterations %d must be positive",
			ip.MoveLimit, ip.Tolerance, ip.MaxIterations)
	}
	switch ip.Solver.Reduction {
	case "", "Auto", "Dual", "Primal":
	default:
		return errors.Errorf("unknown reduction %q", ip.Solver.Reduction)
	}
	return nil
}

func (ip *InputParameters) Print() {
	fmt.Printf("\"%s\"\t\t= Title\n", ip.Title)
	fmt.Printf("[%s(%d)]\t\t= Problem\n", ip.Problem, ip.Size)
	fmt.Printf("[%s]\t\t\t= Scheme\n", ip.Scheme)
	fmt.Printf("%v\t\t\t= Second Order\n", ip.SecondOrder)
	fmt.Printf("%8.5f\t\t= Move Limit\n", ip.MoveLimit)
	fmt.Printf("[%s]\t\t\t= Criterion\n", ip.Criterion)
	fmt.Printf("%8.2e\t\t= Tolerance\n", ip.Tolerance)
	fmt.Printf("[%d]\t\t\t= Max Iterations\n", ip.MaxIterations)
	fmt.Printf("%8.2e\t\t= Solver Epsimin\n", ip.SolverOptions().Epsimin)
	fmt.Printf("[%s]\t\t\t= Solver Reduction\n", ip.SolverOptions().Reduction)
}

func (ip *InputParameters) MMAConfig() (cfg mma.Config) {
	cfg = mma.DefaultConfig()
	set := func(dst *float64, val float64) {
		if val != 0 {
			*dst = val
		}
	}
	set(&cfg.Albefa, ip.MMA.Albefa)
	set(&cfg.AsyInit, ip.MMA.AsyInit)
	set(&cfg.AsyIncr, ip.MMA.AsyIncr)
	set(&cfg.AsyDecr, ip.MMA.AsyDecr)
	set(&cfg.AsyBound, ip.MMA.AsyBound)
	set(&cfg.DxMin, ip.MMA.DxMin)
	set(&cfg.IterInitial, ip.MMA.IterInitial)
	set(&cfg.MoveLimit, ip.MoveLimit)
	return
}

func (ip *InputParameters) SolverOptions() (opts pdip.Options) {
	opts = pdip.DefaultOptions()
	if ip.Solver.Epsimin != 0 {
		opts.Epsimin = ip.Solver.Epsimin
	}
	if ip.Solver.EpsiFac != 0 {
		opts.EpsiFac = ip.Solver.EpsiFac
	}
	if ip.Solver.IterAMax != 0 {
		opts.IterAMax = ip.Solver.IterAMax
	}
	if ip.Solver.IterInMax != 0 {
		opts.IterInMax = ip.Solver.IterInMax
	}
	opts.Reduction = pdip.NewReduction(ip.Solver.Reduction)
	opts.StrictStages = ip.Solver.StrictStages
	return
}
