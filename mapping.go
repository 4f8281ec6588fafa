package golabel

import (
	"sort"
	"strings"

	"go.uber.org/zap"
)

// ResolveColumn looks up a template-declared column name in a data row.
// Spreadsheet headers are user-authored and inconsistent ("IMEI/SN" vs
// "imei_sn" vs "IMEI SN"), so the lookup degrades gracefully: exact key
// match, then case-insensitive match, then a normalized match that treats
// "/", "_", "-" and spaces as equivalent. Returns "" when nothing matches.
func ResolveColumn(row map[string]string, columnName string) string {
	if columnName == "" {
		return ""
	}
	if v, ok := row[columnName]; ok {
		return v
	}
	// Sorted key order keeps renders deterministic when several headers
	// fold to the same candidate.
	keys := sortedKeys(row)
	for _, k := range keys {
		if strings.EqualFold(k, columnName) {
			return row[k]
		}
	}
	want := normalizeColumnKey(columnName)
	for _, k := range keys {
		if normalizeColumnKey(k) == want {
			return row[k]
		}
	}
	return ""
}

func sortedKeys(row map[string]string) []string {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// normalizeColumnKey lowercases a column name and strips the separator
// characters spreadsheet authors use interchangeably.
func normalizeColumnKey(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range strings.ToLower(name) {
		switch r {
		case '/', '_', '-', ' ':
			continue
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// resolveValue derives a component's display value from a data row, applying
// the mapping precedence: connected column (plus optional extraction rule),
// then static value, then legacy heuristic inference, then the component's
// template-authored literal. A connected column that is absent from the row
// resolves to "" so the component renders empty rather than failing the row.
func (r *TemplateRenderer) resolveValue(c *Component, row map[string]string) string {
	if m := c.Mapping; m != nil {
		if m.IsConnected && m.ColumnName != "" {
			raw := ResolveColumn(row, m.ColumnName)
			if raw == "" {
				r.logger.Debug("column not found in data row",
					zap.String("component_id", c.ID),
					zap.String("column", m.ColumnName))
				return ""
			}
			return r.eval.Apply(raw, m.Rule)
		}
		if m.StaticValue != "" {
			return m.StaticValue
		}
	}
	if v, ok := r.legacyInferValue(c, row); ok {
		return v
	}
	return authoredLiteral(c)
}

// authoredLiteral returns the literal the template author typed into the
// component: the component value, or for barcodes the value property.
func authoredLiteral(c *Component) string {
	if c.Value != "" {
		return c.Value
	}
	if c.Type == ComponentBarcode {
		return propString(c.Properties, "value", "")
	}
	return propString(c.Properties, "text", "")
}

// --- Legacy compatibility: heuristic mapping inference ---
//
// Templates saved before explicit mapping existed carry no Mapping at all.
// For those, the binding is inferred from the component's authored literal
// and its canvas position. This path is best-effort and isolated here so it
// can be deprecated without touching the main rendering contract. The
// coordinate window below was tuned against one historical template layout
// and is kept verbatim; do not extend it to new templates.

// legacyModelWindow is the canvas region in which an unmapped text component
// was historically assumed to show the model field.
const (
	legacyModelXMin = 90
	legacyModelXMax = 110
	legacyModelYMin = 80
	legacyModelYMax = 100
)

// legacyInferValue guesses a component's data binding from its authored
// literal's shape and its position, then resolves it against the row.
func (r *TemplateRenderer) legacyInferValue(c *Component, row map[string]string) (string, bool) {
	lit := authoredLiteral(c)

	// A blank literal carries no shape to probe; only the historical model
	// window can bind it.
	if lit == "" {
		if inLegacyModelWindow(c) {
			return r.legacyResolve(c, row, modelColumnHints, ContextModel)
		}
		return "", false
	}

	switch {
	case imeiPattern.MatchString(lit):
		return r.legacyResolve(c, row, []string{"imei", "imeisn", "sn", "serial"}, ContextIMEI)
	case storagePattern.MatchString(lit):
		return r.legacyResolve(c, row, []string{"storage", "memory", "ram", "capacity"}, ContextStorage)
	case colorPattern.MatchString(lit):
		return r.legacyResolve(c, row, []string{"color", "colour"}, ContextColor)
	case modelPattern.MatchString(lit) || inLegacyModelWindow(c):
		return r.legacyResolve(c, row, modelColumnHints, ContextModel)
	}
	return "", false
}

var modelColumnHints = []string{"model", "description", "product", "name"}

// legacyResolve finds the first row column whose name contains one of the
// hints and extracts the context pattern from its value.
func (r *TemplateRenderer) legacyResolve(c *Component, row map[string]string, hints []string, kind ContextKind) (string, bool) {
	for _, hint := range hints {
		raw := resolveColumnContaining(row, hint)
		if raw == "" {
			continue
		}
		r.logger.Debug("legacy mapping inferred",
			zap.String("component_id", c.ID),
			zap.String("column_hint", hint),
			zap.String("context", string(kind)))
		return r.eval.Apply(raw, &ExtractionRule{Type: RuleContextBased, Context: kind}), true
	}
	return "", false
}

func inLegacyModelWindow(c *Component) bool {
	return c.Type == ComponentText &&
		c.X >= legacyModelXMin && c.X <= legacyModelXMax &&
		c.Y >= legacyModelYMin && c.Y <= legacyModelYMax
}

// resolveColumnContaining finds the first row column whose normalized name
// contains hint, and returns its value.
func resolveColumnContaining(row map[string]string, hint string) string {
	for _, k := range sortedKeys(row) {
		if strings.Contains(normalizeColumnKey(k), hint) {
			return row[k]
		}
	}
	return ""
}
