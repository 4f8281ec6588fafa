package golabel

import (
	"fmt"
	"strings"
)

// Validate checks the template for structural issues and returns an error
// describing all problems found, or nil if the template is valid.
// Structural problems mean the template cannot be rendered at all and are
// treated as fatal by the renderer, unlike per-component data issues.
func (t *Template) Validate() error {
	var errs []string

	if t.CanvasWidth <= 0 {
		errs = append(errs, "canvas width must be positive")
	}
	if t.CanvasHeight <= 0 {
		errs = append(errs, "canvas height must be positive")
	}

	for i := range t.Components {
		c := &t.Components[i]
		prefix := fmt.Sprintf("component %d", i+1)
		if c.ID != "" {
			prefix = fmt.Sprintf("component %q", c.ID)
		}
		for _, e := range validateComponent(c) {
			errs = append(errs, prefix+": "+e)
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("validation failed:\n  %s", strings.Join(errs, "\n  "))
}

func validateComponent(c *Component) []string {
	var errs []string

	switch c.Type {
	case ComponentText, ComponentBarcode, ComponentQR,
		ComponentRectangle, ComponentCircle, ComponentLine:
	default:
		errs = append(errs, fmt.Sprintf("unknown type %q", c.Type))
	}

	if c.Width < 0 {
		errs = append(errs, "width is negative")
	}
	if c.Height < 0 {
		errs = append(errs, "height is negative")
	}

	// Mapping oddities (connected without a column, both column and static
	// value set) are data-quality issues, not structural ones; the value
	// resolution precedence degrades gracefully instead of failing here.

	return errs
}
