package extract

import (
	"fmt"
	"strings"

	"biotrack/internal/domain"
)

// RenderMeal produces the canonical itemized form of a meal record, in the
// same shape the parser consumes. Parsing the rendered text reproduces the
// item names and quantities.
func RenderMeal(rec *domain.MealRecord) string {
	var b strings.Builder
	for _, item := range rec.Items {
		b.WriteString("- ")
		b.WriteString(item.Name)
		b.WriteString(": ")
		if item.Note != "" {
			b.WriteString(item.Note)
		} else if item.QuantityGrams > 0 {
			fmt.Fprintf(&b, "~%dg", item.QuantityGrams)
		}
		b.WriteString("\n")
	}
	if rec.TotalCalories > 0 {
		fmt.Fprintf(&b, "Estimativa: ~%d kcal\n", rec.TotalCalories)
	}
	return b.String()
}
