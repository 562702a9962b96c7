package extract

import (
	"regexp"
	"strconv"
	"strings"

	"biotrack/internal/domain"
)

// gramsPattern finds a gram quantity like "150g" or "~150g". The leading
// non-digit characters are ignored; the first digits-then-g run wins.
var gramsPattern = regexp.MustCompile(`(\d+)g`)

// kcalPattern finds a calorie total like "650 kcal" or "650kcal".
// Matched case-insensitively against the lowercased line.
var kcalPattern = regexp.MustCompile(`(\d+)\s*kcal`)

// bulletMarkers are the item-line prefixes recognized by Meal. Both styles
// may be mixed within one text.
var bulletMarkers = []string{"-", "•"}

// Meal deterministically parses itemized prose into a meal record. Used as
// the sole structured path for photo-derived descriptions and as the
// fallback when model-side JSON extraction fails. It cannot fail: absence
// of data degrades to zero-valued fields, never an error.
func Meal(text string) *domain.MealRecord {
	rec := &domain.MealRecord{
		Items:          []domain.FoodItem{},
		RawDescription: text,
	}

	kcalFound := false
	for _, line := range Lines(text) {
		if item, ok := parseItemLine(line); ok {
			rec.Items = append(rec.Items, item)
		}
		// Calorie extraction is an independent pass: a line may carry both
		// a bullet item and the kcal total. The first occurrence wins, even
		// when it reads "0 kcal".
		if !kcalFound {
			if kcal, ok := parseKcal(line); ok {
				rec.TotalCalories = kcal
				kcalFound = true
			}
		}
	}

	return rec
}

// parseItemLine recognizes "- Name: remainder" and "• Name: remainder".
// Lines without a bullet marker or without a colon are not items.
func parseItemLine(line string) (domain.FoodItem, bool) {
	var rest string
	matched := false
	for _, marker := range bulletMarkers {
		if strings.HasPrefix(line, marker) {
			rest = strings.TrimSpace(strings.TrimPrefix(line, marker))
			matched = true
			break
		}
	}
	if !matched {
		return domain.FoodItem{}, false
	}

	name, remainder, found := strings.Cut(rest, ":")
	if !found {
		return domain.FoodItem{}, false
	}
	remainder = strings.TrimSpace(remainder)

	return domain.FoodItem{
		Name:          strings.TrimSpace(name),
		QuantityGrams: parseGrams(remainder),
		Note:          remainder,
	}, true
}

// parseGrams extracts the first integer immediately followed by "g".
// Returns 0 when no gram figure is recoverable.
func parseGrams(s string) int {
	m := gramsPattern.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}

// parseKcal extracts the first integer followed by optional whitespace and
// the unit "kcal", case-insensitively.
func parseKcal(line string) (int, bool) {
	m := kcalPattern.FindStringSubmatch(strings.ToLower(line))
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}
