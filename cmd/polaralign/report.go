package main

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/signalsfoundry/polaralign/align"
	"github.com/signalsfoundry/polaralign/core"
	"github.com/signalsfoundry/polaralign/model"
)

const (
	colorTitle  lipgloss.Color = "#f5c2e7"
	colorLabel  lipgloss.Color = "#7f849c"
	colorGood   lipgloss.Color = "#a6e3a1"
	colorFair   lipgloss.Color = "#f9e2af"
	colorPoor   lipgloss.Color = "#f38ba8"
	colorHeader lipgloss.Color = "#89b4fa"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorTitle)
	labelStyle  = lipgloss.NewStyle().Foreground(colorLabel).Width(18)
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(colorHeader)
)

type textRenderer interface {
	renderText(w io.Writer)
}

func writeReport(w io.Writer, format string, rep textRenderer) error {
	if format == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(rep); err != nil {
			return fmt.Errorf("encode report: %w", err)
		}
		return enc.Close()
	}
	rep.renderText(w)
	return nil
}

type refreshTargets struct {
	Full    model.SkyCoord `yaml:"full"`
	AltOnly model.SkyCoord `yaml:"alt_only"`
}

type fitReport struct {
	SessionID  string                `yaml:"session_id"`
	Observer   model.Observer        `yaml:"observer"`
	Hemisphere string                `yaml:"hemisphere"`
	Samples    []model.Sample        `yaml:"samples"`
	Axis       model.HorizontalCoord `yaml:"axis"`
	Error      model.PolarError      `yaml:"error"`
	Refresh    refreshTargets        `yaml:"refresh_targets"`
}

func newFitReport(s align.Session) (fitReport, error) {
	perr, err := s.CurrentError()
	if err != nil {
		return fitReport{}, err
	}
	axis, _ := s.Axis()
	full, altOnly, err := s.RefreshSolution()
	if err != nil {
		return fitReport{}, err
	}
	return fitReport{
		SessionID:  s.ID(),
		Observer:   s.Observer(),
		Hemisphere: core.HemisphereOf(s.Observer().LatitudeDeg).String(),
		Samples:    s.Samples(),
		Axis:       axis,
		Error:      perr,
		Refresh:    refreshTargets{Full: full, AltOnly: altOnly},
	}, nil
}

func (r fitReport) renderText(w io.Writer) {
	fmt.Fprintln(w, titleStyle.Render("Polar alignment"))
	line(w, "Site", fmt.Sprintf("%s (%.4f, %.4f), %s", r.Observer.Name, r.Observer.LatitudeDeg, r.Observer.LongitudeDeg, r.Hemisphere))
	for i, s := range r.Samples {
		line(w, fmt.Sprintf("Sample %d", i+1), fmt.Sprintf("az %8.4f  alt %8.4f", s.Horizontal.AzDeg, s.Horizontal.AltDeg))
	}
	line(w, "Mount axis", fmt.Sprintf("az %8.4f  alt %8.4f", r.Axis.AzDeg, r.Axis.AltDeg))
	line(w, "Azimuth error", errorText(r.Error.AzDeg))
	line(w, "Altitude error", errorText(r.Error.AltDeg))
	line(w, "Total error", errorText(totalError(r.Error)))
	line(w, "Refresh target", fmt.Sprintf("RA %8.4f  Dec %8.4f", r.Refresh.Full.RADeg, r.Refresh.Full.DecDeg))
	line(w, "Alt-only target", fmt.Sprintf("RA %8.4f  Dec %8.4f", r.Refresh.AltOnly.RADeg, r.Refresh.AltOnly.DecDeg))
}

type stepReport struct {
	Time           time.Time            `yaml:"time"`
	KnobsTurned    model.KnobAdjustment `yaml:"knobs_turned"`
	Measured       model.PolarError     `yaml:"measured"`
	ResidualArcsec float64              `yaml:"residual_arcsec"`
	Failure        string               `yaml:"failure,omitempty"`
}

type simulateReport struct {
	fitReport `yaml:",inline"`

	Misalignment   model.PolarError `yaml:"misalignment"`
	RemainingGuess model.PolarError `yaml:"estimated_remaining"`
	Steps          []stepReport     `yaml:"steps"`
	MountError     model.PolarError `yaml:"mount_error"`
}

func (r simulateReport) renderText(w io.Writer) {
	r.fitReport.renderText(w)
	line(w, "Simulated error", fmt.Sprintf("az %s  alt %s", arcmin(r.Misalignment.AzDeg), arcmin(r.Misalignment.AltDeg)))
	fmt.Fprintln(w)
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%-10s %10s %10s %12s %12s %10s", "time", "knob az", "knob alt", "az error", "alt error", "residual")))
	for _, s := range r.Steps {
		if s.Failure != "" {
			fmt.Fprintf(w, "%-10s %s\n", s.Time.Format("15:04:05"), lipgloss.NewStyle().Foreground(colorPoor).Render(s.Failure))
			continue
		}
		fmt.Fprintf(w, "%-10s %10s %10s %12s %12s %9.1f\"\n",
			s.Time.Format("15:04:05"),
			arcmin(s.KnobsTurned.AzDeg), arcmin(s.KnobsTurned.AltDeg),
			errorText(s.Measured.AzDeg), errorText(s.Measured.AltDeg),
			s.ResidualArcsec)
	}
	fmt.Fprintln(w)
	line(w, "Final mount error", fmt.Sprintf("az %s  alt %s", errorText(r.MountError.AzDeg), errorText(r.MountError.AltDeg)))
}

func line(w io.Writer, label, value string) {
	fmt.Fprintln(w, labelStyle.Render(label)+value)
}

func arcmin(deg float64) string {
	return fmt.Sprintf("%+.2f'", deg*60)
}

func totalError(e model.PolarError) float64 {
	return math.Hypot(e.AzDeg, e.AltDeg)
}

// errorText colours an error by how good an alignment it represents.
func errorText(deg float64) string {
	s := arcmin(deg)
	switch a := math.Abs(deg) * 60; {
	case a < 1:
		return lipgloss.NewStyle().Foreground(colorGood).Render(s)
	case a < 5:
		return lipgloss.NewStyle().Foreground(colorFair).Render(s)
	default:
		return lipgloss.NewStyle().Foreground(colorPoor).Render(s)
	}
}
