// Package report renders odometer state into operator-facing text
// through a template, so the wording can be swapped without touching
// the bookkeeping code.
//
// Copyright (C) 2026  Motion Minder Go Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package report

import (
	pongo2 "github.com/flosch/pongo2/v5"

	"motion-minder-go/pkg/errors"
	"motion-minder-go/pkg/odometer"
)

// DefaultTemplate is the stock report: one block per axis with the
// lifetime total, the distance to the next maintenance, and the axis
// health.
const DefaultTemplate = `{% for r in reports %}{{ r.Label }}: {{ r.Display|floatformat:3 }} {{ r.Unit }}
{% if r.HasMaintenance %}{% if r.Due %}  Maintenance due: {{ r.RemainingDisplay|floatformat:3 }} {{ r.RemainingUnit }}
{% else %}  Next maintenance in: {{ r.RemainingDisplay|floatformat:3 }} {{ r.RemainingUnit }}
{% endif %}  Health of {{ r.Label }} axis: {{ r.HealthPct|floatformat:2 }}% (your {{ r.Axis }} axis has traveled {{ r.TraveledKm|floatformat:3 }} km)
{% else %}  Maintenance not set.
{% endif %}{% endfor %}`

// Renderer holds a compiled report template.
type Renderer struct {
	tpl *pongo2.Template
}

// New compiles the stock template.
func New() (*Renderer, error) {
	return NewFromString(DefaultTemplate)
}

// NewFromString compiles a template from source.
func NewFromString(source string) (*Renderer, error) {
	set := pongo2.NewSet("report", pongo2.DefaultLoader)
	tpl, err := set.FromString(source)
	if err != nil {
		return nil, errors.TemplateError(err)
	}
	return &Renderer{tpl: tpl}, nil
}

// NewFromFile compiles a template from a file.
func NewFromFile(path string) (*Renderer, error) {
	set := pongo2.NewSet("report", pongo2.DefaultLoader)
	tpl, err := set.FromFile(path)
	if err != nil {
		return nil, errors.TemplateError(err)
	}
	return &Renderer{tpl: tpl}, nil
}

// Render executes the template over the given axis reports.
func (r *Renderer) Render(reports []odometer.AxisReport) (string, error) {
	out, err := r.tpl.Execute(pongo2.Context{"reports": reports})
	if err != nil {
		return "", errors.TemplateError(err)
	}
	return out, nil
}
