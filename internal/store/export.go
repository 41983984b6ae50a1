// Package store writes a closed-loop trajectory out as a single
// self-contained JSON document, for one-shot inspection or handoff to
// external plotting tools. internal/storage covers the complementary job
// of archiving many runs under a directory for later listing and replay.
package store

import (
	"encoding/json"
	"os"

	"github.com/san-kum/cgmres-mpc/internal/simrun"
)

// ExportData is the JSON shape written by ExportJSON/ExportJSONStdout.
type ExportData struct {
	Model    string      `json:"model"`
	Preset   string      `json:"preset"`
	Dt       float64     `json:"dt"`
	Duration float64     `json:"duration"`
	Steps    int         `json:"steps"`
	Times    []float64   `json:"times"`
	States   [][]float64 `json:"states"`
	Controls [][]float64 `json:"controls"`
	Warnings []string    `json:"warnings,omitempty"`
}

func toExportData(model, preset string, dt, duration float64, result *simrun.Result) ExportData {
	return ExportData{
		Model:    model,
		Preset:   preset,
		Dt:       dt,
		Duration: duration,
		Steps:    len(result.Times),
		Times:    result.Times,
		States:   result.States,
		Controls: result.Controls,
		Warnings: result.Warnings,
	}
}

// ExportJSON writes result to path as indented JSON.
func ExportJSON(path string, model, preset string, dt, duration float64, result *simrun.Result) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(toExportData(model, preset, dt, duration, result))
}

// ExportJSONStdout writes result to stdout as indented JSON.
func ExportJSONStdout(model, preset string, dt, duration float64, result *simrun.Result) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(toExportData(model, preset, dt, duration, result))
}
