package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/docforge/internal/model"
	"github.com/sells-group/docforge/internal/probe"
	"github.com/sells-group/docforge/internal/router"
)

var probeFormat string

// probeReport is what `docforge probe` prints.
type probeReport struct {
	Path     string                `json:"path" yaml:"path"`
	Probe    *model.DocumentProbe  `json:"probe" yaml:"probe"`
	Decision model.RoutingDecision `json:"decision" yaml:"decision"`
}

var probeCmd = &cobra.Command{
	Use:   "probe <pdf>",
	Short: "Sample a PDF and print the routing decision",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(); err != nil {
			return err
		}

		p := probe.NewPDFProber(cfg.Probe.TextCharThreshold)
		pr, err := p.Probe(cmd.Context(), args[0], cfg.Probe.MaxPages)
		if err != nil {
			return err
		}

		report := probeReport{
			Path:  args[0],
			Probe: pr,
			Decision: router.Decide(pr, router.Policy{
				Engine:       cfg.OCR.Engine,
				MinTextRatio: cfg.Probe.MinTextRatio,
				Available: router.Availability{
					Mistral:   cfg.OCR.MistralKey != "",
					Tesseract: cfg.OCR.Tesseract,
				},
			}),
		}
		return writeReport(os.Stdout, report, probeFormat)
	},
}

func writeReport(w io.Writer, report probeReport, format string) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return eris.Wrap(err, "probe: encode yaml")
		}
		return eris.Wrap(enc.Close(), "probe: flush yaml")
	case "json", "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(report), "probe: encode json")
	default:
		return eris.Wrapf(model.ErrConfigurationConflict, "probe: unknown format %q", format)
	}
}

func init() {
	probeCmd.Flags().StringVar(&probeFormat, "format", "json", "output format: json, yaml")
	rootCmd.AddCommand(probeCmd)
}
