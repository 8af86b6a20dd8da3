package pipeline

import (
	"fmt"

	"stock-forecaster/internal/charts"
	"stock-forecaster/internal/errors"
)

// Status line texts.
const (
	StatusLoading = "Loading data..."
	StatusDone    = "Loading data... done!"
	StatusFailed  = "Loading data... Failed!"
)

var panelActivity = map[charts.Panel]string{
	charts.PanelOpenClose:   "raw data plotting",
	charts.PanelCandlestick: "candlestick plot",
	charts.PanelClose:       "current price plot",
	charts.PanelForecast:    "forecast plot",
	charts.PanelComponents:  "forecast component plot",
}

// UserMessage turns a pipeline error into the text shown to the user.
func UserMessage(err error, symbol string) string {
	var (
		noData     *errors.NoDataError
		fetch      *errors.FetchError
		missingCol *errors.MissingColumnError
		numeric    *errors.NumericConversionError
		missingVal *errors.MissingValueError
		structural *errors.StructuralTypeError
		timestamp  *errors.TimestampError
		model      *errors.ModelError
		render     *errors.RenderError
		validation *errors.ValidationError
	)

	switch {
	case err == nil:
		return ""
	case errors.As(err, &noData):
		return fmt.Sprintf("No data found for %s. Please check the ticker symbol or date range.", noData.Symbol)
	case errors.As(err, &fetch):
		return fmt.Sprintf("Failed to load data for %s: %v", fetch.Symbol, fetch.Err)
	case errors.As(err, &missingCol):
		return fmt.Sprintf("The '%s' column is missing in the data. Cannot proceed with model training.", missingCol.Column)
	case errors.As(err, &numeric):
		if numeric.Kind == errors.TypeMismatch {
			return fmt.Sprintf("TypeError during numeric conversion: %v. This error means that '%s' column could not be converted to a numeric type. Please check for non-numeric values.",
				numeric.Err, numeric.Column)
		}
		return fmt.Sprintf("ValueError during numeric conversion: %v. This error means that '%s' column could not be converted to numeric as the values are not convertible. Please check raw data.",
			numeric.Err, numeric.Column)
	case errors.As(err, &missingVal):
		return fmt.Sprintf("The '%s' column contains missing or null values, and the model cannot train on missing values.", missingVal.Column)
	case errors.As(err, &structural):
		return fmt.Sprintf("The '%s' column is not a one-dimensional series (%s). This indicates a problem with data slicing.", structural.Column, structural.Reason)
	case errors.As(err, &timestamp):
		return fmt.Sprintf("The '%s' column could not be parsed as dates: row %d (%v). Please check raw data.", timestamp.Column, timestamp.Row, timestamp.Value)
	case errors.As(err, &model):
		if model.Phase == errors.PhasePredict {
			return fmt.Sprintf("Error during model prediction: %v. Please check the data.", model.Err)
		}
		return fmt.Sprintf("Error during model training: %v. Please check the data.", model.Err)
	case errors.As(err, &render):
		if render.Err == nil {
			return render.Reason
		}
		activity, ok := panelActivity[charts.Panel(render.Panel)]
		if !ok {
			activity = render.Panel
		}
		return fmt.Sprintf("Error during %s: %v", activity, render.Err)
	case errors.As(err, &validation):
		return fmt.Sprintf("Invalid %s: %s", validation.Field, validation.Message)
	default:
		return fmt.Sprintf("Unexpected error: %v", err)
	}
}
