// Package router decides whether a document goes down the OCR path.
package router

import (
	"github.com/sells-group/docforge/internal/model"
)

// DefaultMinTextRatio is the text-page ratio below which a document is routed to OCR.
const DefaultMinTextRatio = 0.55

// TextCharThreshold is the absolute per-page character count a sample must
// exceed to count as a text page.
const TextCharThreshold = 40

// OCR engine selections understood by Decide.
const (
	EngineAuto      = "auto"
	EngineOff       = "off"
	EngineMistral   = "mistral"
	EngineTesseract = "tesseract"
)

// Availability reports which OCR engines can actually run.
type Availability struct {
	Mistral   bool
	Tesseract bool
}

// Any reports whether at least one OCR engine is usable.
func (a Availability) Any() bool {
	return a.Mistral || a.Tesseract
}

// Policy is the operator's OCR override plus the engines on hand.
type Policy struct {
	Engine       string
	MinTextRatio float64
	Available    Availability
}

// TextRatio recomputes the text-page ratio from the probe samples.
func TextRatio(probe *model.DocumentProbe) float64 {
	if probe == nil || len(probe.Samples) == 0 {
		return 0
	}
	text := 0
	for _, s := range probe.Samples {
		if s.CharCount > TextCharThreshold {
			text++
		}
	}
	return float64(text) / float64(len(probe.Samples))
}

// Route returns RouteOCR when the text-page ratio is below minTextRatio.
func Route(probe *model.DocumentProbe, minTextRatio float64) model.Route {
	if TextRatio(probe) < minTextRatio {
		return model.RouteOCR
	}
	return model.RouteNonOCR
}

// Decide applies the override policy on top of Route. An explicit engine
// choice always wins over the probe.
func Decide(probe *model.DocumentProbe, p Policy) model.RoutingDecision {
	switch p.Engine {
	case EngineOff:
		return decision(model.RouteNonOCR, model.ReasonOCRDisabled)
	case EngineMistral:
		if p.Available.Mistral {
			return decision(model.RouteOCR, model.ReasonForcedMistral)
		}
		return decision(model.RouteNonOCR, model.ReasonMistralMissing)
	case EngineTesseract:
		if p.Available.Tesseract {
			return decision(model.RouteOCR, model.ReasonForcedTesseract)
		}
		return decision(model.RouteNonOCR, model.ReasonTesseractUnavailable)
	}

	if Route(probe, p.MinTextRatio) == model.RouteNonOCR {
		return decision(model.RouteNonOCR, model.ReasonRouterNonOCR)
	}
	if !p.Available.Any() {
		return decision(model.RouteNonOCR, model.ReasonOCREngineMissing)
	}
	return decision(model.RouteOCR, model.ReasonRouterOCR)
}

func decision(r model.Route, reason string) model.RoutingDecision {
	return model.RoutingDecision{Route: r, Reason: reason}
}
