package sao

import (
	"os"

	"github.com/ghodss/yaml"
	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/notargets/gosao/utils"
)

// Record is the history entry of one outer iteration, responses are those at the
// design X the subproblem was built at.
type Record struct {
	Iteration    int       `json:"iteration"`
	Objective    float64   `json:"objective"`
	MaxViolation float64   `json:"maxViolation"`
	Criterion    float64   `json:"criterion"`
	Stages       int       `json:"stages"`
	Newton       int       `json:"newtonIterations"`
	X            []float64 `json:"x"`
}

type Records struct {
	Problem   string   `json:"problem"`
	Criterion string   `json:"criterion"`
	History   []Record `json:"history"`
}

func (r *Records) Add(rec Record) {
	rec.X = utils.CopyArray(rec.X)
	r.History = append(r.History, rec)
}

func (r *Records) Len() int { return len(r.History) }

func (r *Records) WriteYAML(fileName string) (err error) {
	var data []byte
	if data, err = yaml.Marshal(r); err != nil {
		return errors.Wrap(err, "marshaling optimization history")
	}
	if err = os.WriteFile(fileName, data, 0644); err != nil {
		return errors.Wrapf(err, "writing optimization history to %s", fileName)
	}
	return
}

func ReadRecords(fileName string) (r *Records, err error) {
	var data []byte
	if data, err = os.ReadFile(fileName); err != nil {
		return nil, errors.Wrapf(err, "reading optimization history from %s", fileName)
	}
	r = &Records{}
	if err = yaml.Unmarshal(data, r); err != nil {
		return nil, errors.Wrapf(err, "parsing optimization history in %s", fileName)
	}
	return
}

// Plot writes the objective, max constraint violation and criterion histories
// to an image, the format follows the file extension.
func (r *Records) Plot(fileName string) (err error) {
	if r.Len() == 0 {
		return errors.New("no history to plot")
	}
	var (
		p                    = plot.New()
		obj, viol, criterion = make(plotter.XYs, r.Len()), make(plotter.XYs, r.Len()), make(plotter.XYs, r.Len())
	)
	for k, rec := range r.History {
		x := float64(rec.Iteration)
		obj[k] = plotter.XY{X: x, Y: rec.Objective}
		viol[k] = plotter.XY{X: x, Y: rec.MaxViolation}
		criterion[k] = plotter.XY{X: x, Y: rec.Criterion}
	}
	p.Title.Text = r.Problem
	p.X.Label.Text = "iteration"
	p.Legend.Top = true
	if err = plotutil.AddLinePoints(p,
		"objective", obj,
		"max constraint violation", viol,
		r.Criterion, criterion); err != nil {
		return errors.Wrap(err, "adding history lines")
	}
	if err = p.Save(6*vg.Inch, 4*vg.Inch, fileName); err != nil {
		return errors.Wrapf(err, "saving history plot to %s", fileName)
	}
	return
}
