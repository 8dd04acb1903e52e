package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mborgeson/portfolio-reports-api/internal/models"
)

func formTestTemplate() *models.ReportTemplate {
	return &models.ReportTemplate{
		ID:       "tpl-form",
		Name:     "Market Overview",
		Category: models.CategoryMarket,
		Parameters: models.TemplateParameters{
			{Name: "title", Label: "Title", Type: models.ParameterString, Required: true},
			{Name: "threshold", Label: "Threshold", Type: models.ParameterNumber},
			{Name: "includeVacant", Label: "Include Vacant", Type: models.ParameterBoolean},
			{Name: "startDate", Label: "Start Date", Type: models.ParameterDate, Required: true},
			{Name: "market", Label: "Market", Type: models.ParameterSelect, Options: []string{"Phoenix", "Dallas"}},
			{Name: "sections", Label: "Sections", Type: models.ParameterMultiselect, Options: []string{"pricing", "vacancy"}},
		},
		Formats: models.FormatList{models.ReportFormatPDF},
	}
}

func TestCoerceParameterValuePerType(t *testing.T) {
	tpl := formTestTemplate()

	title, _ := tpl.Parameter("title")
	v, err := CoerceParameterValue(title, "Q1")
	require.NoError(t, err)
	assert.Equal(t, "Q1", v)
	_, err = CoerceParameterValue(title, 42)
	require.Error(t, err)

	threshold, _ := tpl.Parameter("threshold")
	v, err = CoerceParameterValue(threshold, "12.5")
	require.NoError(t, err)
	assert.Equal(t, 12.5, v)
	v, err = CoerceParameterValue(threshold, "")
	require.NoError(t, err)
	assert.Nil(t, v)
	_, err = CoerceParameterValue(threshold, "abc")
	require.Error(t, err)

	includeVacant, _ := tpl.Parameter("includeVacant")
	v, err = CoerceParameterValue(includeVacant, true)
	require.NoError(t, err)
	assert.Equal(t, true, v)
	_, err = CoerceParameterValue(includeVacant, "yes")
	require.Error(t, err)

	startDate, _ := tpl.Parameter("startDate")
	v, err = CoerceParameterValue(startDate, "2026-03-31")
	require.NoError(t, err)
	assert.Equal(t, "2026-03-31", v)
	_, err = CoerceParameterValue(startDate, "31/03/2026")
	require.Error(t, err)

	market, _ := tpl.Parameter("market")
	v, err = CoerceParameterValue(market, "Phoenix")
	require.NoError(t, err)
	assert.Equal(t, "Phoenix", v)
	_, err = CoerceParameterValue(market, "Tucson")
	require.Error(t, err)

	sections, _ := tpl.Parameter("sections")
	v, err = CoerceParameterValue(sections, []interface{}{"pricing"})
	require.NoError(t, err)
	assert.Equal(t, []string{"pricing"}, v)
	_, err = CoerceParameterValue(sections, []interface{}{"pricing", "taxes"})
	require.Error(t, err)
}

func TestValidateParametersFlagsExactlyUnmetRequired(t *testing.T) {
	tpl := formTestTemplate()

	fieldErrors := ValidateParameters(tpl, map[string]interface{}{})
	require.Len(t, fieldErrors, 2)
	assert.Equal(t, "Title is required", fieldErrors["title"])
	assert.Equal(t, "Start Date is required", fieldErrors["startDate"])

	fieldErrors = ValidateParameters(tpl, map[string]interface{}{
		"title":     "Q1",
		"startDate": "2026-03-31",
	})
	assert.Empty(t, fieldErrors)

	// Empty string counts as missing for a required parameter.
	fieldErrors = ValidateParameters(tpl, map[string]interface{}{
		"title":     "  ",
		"startDate": "2026-03-31",
	})
	require.Len(t, fieldErrors, 1)
	assert.Contains(t, fieldErrors, "title")
}

func TestValidateParametersReportsTypeErrors(t *testing.T) {
	tpl := formTestTemplate()
	fieldErrors := ValidateParameters(tpl, map[string]interface{}{
		"title":     "Q1",
		"startDate": "not-a-date",
		"threshold": "abc",
	})
	require.Len(t, fieldErrors, 2)
	assert.Contains(t, fieldErrors["startDate"], "date")
	assert.Contains(t, fieldErrors["threshold"], "number")
}

func TestApplyDefaultsFillsUntouchedParameters(t *testing.T) {
	tpl := &models.ReportTemplate{
		Parameters: models.TemplateParameters{
			{Name: "market", Label: "Market", Type: models.ParameterSelect, Default: "Phoenix", Options: []string{"Phoenix"}},
			{Name: "includeVacant", Label: "Include Vacant", Type: models.ParameterBoolean},
			{Name: "title", Label: "Title", Type: models.ParameterString},
		},
	}
	merged := ApplyDefaults(tpl, map[string]interface{}{"title": "Custom"})
	assert.Equal(t, "Custom", merged["title"])
	assert.Equal(t, "Phoenix", merged["market"])
	assert.Equal(t, false, merged["includeVacant"])
}

func TestBuildFormRendersOneControlPerParameter(t *testing.T) {
	tpl := formTestTemplate()
	form := BuildForm(tpl, map[string]interface{}{"title": "Q1"}, map[string]string{"startDate": "Start Date is required"})
	assert.False(t, form.Empty)
	require.Len(t, form.Fields, len(tpl.Parameters))

	controls := map[string]string{}
	for _, field := range form.Fields {
		controls[field.Name] = field.Control
	}
	assert.Equal(t, "text", controls["title"])
	assert.Equal(t, "number", controls["threshold"])
	assert.Equal(t, "checkbox", controls["includeVacant"])
	assert.Equal(t, "date", controls["startDate"])
	assert.Equal(t, "select", controls["market"])
	assert.Equal(t, "checkbox-group", controls["sections"])

	assert.Equal(t, "Q1", form.Fields[0].Value)
	assert.Equal(t, "Start Date is required", form.Fields[3].Error)
	assert.NotNil(t, form.Fields[0].Options)
}

func TestBuildFormEmptyTemplate(t *testing.T) {
	tpl := &models.ReportTemplate{ID: "tpl-bare", Name: "Executive Summary"}
	form := BuildForm(tpl, nil, nil)
	assert.True(t, form.Empty)
	assert.Empty(t, form.Fields)
}
