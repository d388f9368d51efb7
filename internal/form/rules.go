// Package form implements the case form: its state, validation, submission
// lifecycle and the view tree rendered from that state.
package form

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/danielolaszy/caseform/internal/catalog"
	"github.com/danielolaszy/caseform/internal/config"
	"github.com/danielolaszy/caseform/pkg/models"
)

// Rules holds everything validation depends on.
type Rules struct {
	Catalog        *catalog.Catalog
	DescriptionMin int
	DescriptionMax int
}

// DefaultRules uses the built-in catalog and a 20..2000 description length.
func DefaultRules() Rules {
	return Rules{
		Catalog:        catalog.Default(),
		DescriptionMin: config.DefaultDescriptionMin,
		DescriptionMax: config.DefaultDescriptionMax,
	}
}

// RulesFromConfig builds rules from the form configuration, loading the
// catalog file when one is set.
func RulesFromConfig(cfg config.FormConfig) (Rules, error) {
	rules := Rules{
		Catalog:        catalog.Default(),
		DescriptionMin: cfg.DescriptionMin,
		DescriptionMax: cfg.DescriptionMax,
	}
	if cfg.CatalogFile != "" {
		c, err := catalog.Load(cfg.CatalogFile)
		if err != nil {
			return Rules{}, err
		}
		rules.Catalog = c
	}
	return rules, nil
}

// Validate checks form values and returns one message per offending field.
// It has no side effects.
func (r Rules) Validate(form models.FormValues) models.ValidationErrors {
	errs := models.ValidationErrors{}

	switch {
	case form.IssueType == "":
		errs[models.FieldIssueType] = "Issue type is required."
	case !r.Catalog.HasIssueType(form.IssueType):
		errs[models.FieldIssueType] = "Issue type is not recognised."
	}

	switch {
	case form.SubIssueType == "":
		errs[models.FieldSubIssueType] = "Sub-issue type is required."
	case r.Catalog.HasIssueType(form.IssueType) && !r.Catalog.Allows(form.IssueType, form.SubIssueType):
		errs[models.FieldSubIssueType] = "Sub-issue type is not valid for the selected issue type."
	}

	length := utf8.RuneCountInString(strings.TrimSpace(form.Description))
	switch {
	case length == 0:
		errs[models.FieldDescription] = "Description is required."
	case length < r.DescriptionMin || length > r.DescriptionMax:
		errs[models.FieldDescription] = fmt.Sprintf("Description must be %d-%d characters.", r.DescriptionMin, r.DescriptionMax)
	}

	return errs
}
