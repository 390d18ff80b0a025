package reporter

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"

	"norm-check/internal/model"
)

type ConsoleReporter struct {
	out io.Writer
}

// NewConsoleReporter writes to out, or stdout when out is nil.
func NewConsoleReporter(out io.Writer) *ConsoleReporter {
	if out == nil {
		out = os.Stdout
	}
	return &ConsoleReporter{out: out}
}

func statusColor(status model.Status) *color.Color {
	switch status {
	case model.StatusPerfect:
		return color.New(color.FgGreen, color.Bold)
	case model.StatusGood:
		return color.New(color.FgGreen)
	case model.StatusNeedsAttention:
		return color.New(color.FgYellow, color.Bold)
	default:
		return color.New(color.FgRed, color.Bold)
	}
}

func severityColor(sev model.Severity) *color.Color {
	if sev == model.SeverityError {
		return color.New(color.FgRed, color.Bold)
	}
	return color.New(color.FgYellow, color.Bold)
}

func (r *ConsoleReporter) Report(reports []model.FileReport) error {
	if len(reports) == 0 {
		fmt.Fprintln(r.out, color.YellowString("No schema files found."))
		return nil
	}

	failed, violations := 0, 0
	for _, fr := range reports {
		fmt.Fprintln(r.out, color.New(color.Bold).Sprint(fr.Path))
		if fr.Error != "" {
			failed++
			fmt.Fprintf(r.out, "  %s %s\n\n", color.RedString("✘"), fr.Error)
			continue
		}
		rep := fr.Report
		fmt.Fprintf(r.out, "  overall %.2f [%s]  %d schema(s), %d table(s)\n",
			rep.OverallScore, statusColor(rep.Status).Sprint(rep.Status), rep.TotalSchemas, rep.TotalTables)

		for _, s := range rep.Schemas {
			fmt.Fprintf(r.out, "  schema %s: %.2f [%s]", s.SchemaName, s.OverallScore, statusColor(s.Status).Sprint(s.Status))
			for _, nf := range s.NormalForms {
				fmt.Fprintf(r.out, "  %s %.2f", nf.NormalForm, nf.Score)
			}
			fmt.Fprintln(r.out)

			for _, t := range s.Tables {
				if len(t.Violations) == 0 && len(t.Errors) == 0 {
					continue
				}
				fmt.Fprintf(r.out, "    %s.%s  %.2f\n", t.Schema, t.Table, t.OverallScore)
				for _, v := range t.Violations {
					violations++
					target := v.Column
					if target == "" {
						target = "(table)"
					}
					fmt.Fprintf(r.out, "      [%s] %s %s: %s\n",
						severityColor(v.Severity).Sprint(v.Severity), v.NormalForm, target, v.Message)
					fmt.Fprintf(r.out, "        Suggestion: %s\n", v.Suggestion)
				}
				for _, e := range t.Errors {
					fmt.Fprintf(r.out, "      %s %s\n", color.MagentaString("rule error:"), e)
				}
			}
		}
		fmt.Fprintln(r.out)
	}

	switch {
	case failed > 0:
		fmt.Fprintf(r.out, "%s %d file(s) could not be analysed, %d violation(s) found.\n", color.RedString("✘"), failed, violations)
	case violations > 0:
		fmt.Fprintf(r.out, "%s found %d violation(s) in %d file(s).\n", color.YellowString("!"), violations, len(reports))
	default:
		fmt.Fprintln(r.out, color.GreenString("✔ All schemas are fully normalized."))
	}
	return nil
}
