package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/nishalpattan/code-review-analyzer/internal/contract"
	"github.com/nishalpattan/code-review-analyzer/schema"
)

// aggregateView describes one aggregate score and the weights it uses.
type aggregateView struct {
	Name       string             `json:"name"`
	Purpose    string             `json:"purpose"`
	Categories []string           `json:"categories"`
	Weights    map[string]float64 `json:"weights"`
	Formula    string             `json:"formula"`
}

// weightsRenderModel is everything printed by WriteWeightDefinitions.
type weightsRenderModel struct {
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Aggregates  []aggregateView  `json:"aggregates"`
	Penalties   schema.Penalties `json:"penalties"`
}

// WriteWeightDefinitions displays the active weights of both aggregate scores.
// This is a static display that does not require running any analyzer.
func WriteWeightDefinitions(cfg *contract.Config) error {
	model := buildWeightsRenderModel(cfg.ConfidenceWeights, cfg.QualityWeights, cfg.Penalties)

	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, model)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeWeightsCSV(w, model)
		}, "Wrote CSV")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeWeightsText(w, model)
		}, "Wrote text")
	}
}

// buildWeightsRenderModel constructs the complete render model with all processed data.
func buildWeightsRenderModel(confidence, quality schema.WeightSet, penalties schema.Penalties) *weightsRenderModel {
	return &weightsRenderModel{
		Title:       "Code Review Scores",
		Description: "Both scores = weighted sum of the category signals that were measured, renormalized over those categories",
		Aggregates: []aggregateView{
			newAggregateView(contract.ConfidenceScoreName, "How far the findings can be trusted to reflect healthy code", confidence),
			newAggregateView(contract.QualityScoreName, "Long-term maintainability of the code base", quality),
		},
		Penalties: penalties,
	}
}

func newAggregateView(name, purpose string, weights schema.WeightSet) aggregateView {
	view := aggregateView{
		Name:    name,
		Purpose: purpose,
		Weights: make(map[string]float64, len(weights)),
	}
	var parts []string
	for _, cat := range schema.AllCategories {
		w, ok := weights[cat]
		if !ok {
			continue
		}
		view.Categories = append(view.Categories, string(cat))
		view.Weights[string(cat)] = w
		if w > 0 {
			parts = append(parts, fmt.Sprintf("%.2f*%s", w, cat))
		}
	}
	view.Formula = strings.Join(parts, "+")
	return view
}

// getDisplayNameForAggregate returns the display name with emoji for an aggregate score.
func getDisplayNameForAggregate(name string) string {
	switch name {
	case contract.ConfidenceScoreName:
		return "🎯 CONFIDENCE"
	case contract.QualityScoreName:
		return "🧹 QUALITY"
	default:
		return strings.ToUpper(name)
	}
}

// writeWeightsText displays the weights in human-readable text format.
func writeWeightsText(w io.Writer, model *weightsRenderModel) error {
	var b strings.Builder
	fmt.Fprintf(&b, "📐 %s\n", model.Title)
	fmt.Fprintf(&b, "%s\n\n", strings.Repeat("=", len(model.Title)+3))
	fmt.Fprintf(&b, "%s\n\n", model.Description)

	for _, agg := range model.Aggregates {
		fmt.Fprintf(&b, "%s: %s\n", getDisplayNameForAggregate(agg.Name), agg.Purpose)
		fmt.Fprintf(&b, "   Categories: %s\n", strings.Join(agg.Categories, ", "))
		fmt.Fprintf(&b, "   Formula: Score = %s\n\n", agg.Formula)
	}

	p := model.Penalties
	b.WriteString("⚖️  Penalties\n")
	fmt.Fprintf(&b, "   security: -%.2f per issue\n", p.SecurityPerIssue)
	fmt.Fprintf(&b, "   complexity: -%.2f per point of average complexity\n", p.ComplexityPerPoint)
	fmt.Fprintf(&b, "   style: -%.2f per issue\n", p.StylePerIssue)
	fmt.Fprintf(&b, "   dead_code: -%.2f per item\n", p.DeadCodePerItem)
	fmt.Fprintf(&b, "   documentation: full score at a comment ratio of %.2f\n", p.DocsTargetRatio)

	_, err := io.WriteString(w, b.String())
	return err
}

// writeWeightsCSV writes one row per weighted category.
func writeWeightsCSV(w io.Writer, model *weightsRenderModel) error {
	return writeCSVWithHeader(w, []string{"score", "category", "weight"}, func(cw *csv.Writer) error {
		for _, agg := range model.Aggregates {
			for _, cat := range agg.Categories {
				rec := []string{agg.Name, cat, fmt.Sprintf("%.3f", agg.Weights[cat])}
				if err := cw.Write(rec); err != nil {
					return fmt.Errorf("failed to write CSV record: %w", err)
				}
			}
		}
		return nil
	})
}
