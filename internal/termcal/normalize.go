// Package termcal classifies trimester records and answers date-containment questions.
// Every function is pure; records of any historical shape go through Normalize first.
package termcal

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/noah-isme/sma-rollcall-api/internal/models"
)

const isoDate = "2006-01-02"

var (
	idKeys     = []string{"id", "trimestreId", "trimestre_id"}
	periodKeys = []string{"periodoId", "periodo_id", "periodId", "period_id"}
	numberKeys = []string{"numero", "orden", "number", "ordinal"}
	startKeys  = []string{"fechaInicio", "fecha_inicio", "inicio", "startDate", "start_date"}
	endKeys    = []string{"fechaFin", "fecha_fin", "fin", "endDate", "end_date"}
	stateKeys  = []string{"estado", "state", "status"}
	closedKeys = []string{"cerrado", "closed", "isClosed", "is_closed"}
)

// Normalize turns a loosely-shaped term record into a models.Term. For each attribute the
// first synonym carrying a usable value wins. Unusable dates are dropped, leaving the
// bound open.
func Normalize(record map[string]interface{}) models.Term {
	term := models.Term{
		ID:            firstString(record, idKeys),
		PeriodID:      firstString(record, periodKeys),
		StartDate:     firstDate(record, startKeys),
		EndDate:       firstDate(record, endKeys),
		DeclaredState: firstString(record, stateKeys),
		Closed:        firstBool(record, closedKeys),
	}
	if term.PeriodID == "" {
		if nested, ok := record["periodo"].(map[string]interface{}); ok {
			term.PeriodID = firstString(nested, idKeys)
		}
	}
	if n, err := strconv.Atoi(firstString(record, numberKeys)); err == nil {
		term.Number = n
	}
	return term
}

// NormalizeDate trims any time component and returns a well-formed YYYY-MM-DD string,
// or "" when the input is not a valid calendar date.
func NormalizeDate(value interface{}) string {
	switch v := value.(type) {
	case time.Time:
		if v.IsZero() {
			return ""
		}
		return v.Format(isoDate)
	case *time.Time:
		if v == nil {
			return ""
		}
		return NormalizeDate(*v)
	}
	raw := stringify(value)
	if idx := strings.IndexAny(raw, "T "); idx >= 0 {
		raw = raw[:idx]
	}
	if _, err := time.Parse(isoDate, raw); err != nil {
		return ""
	}
	return raw
}

func firstString(record map[string]interface{}, keys []string) string {
	for _, key := range keys {
		if value, ok := record[key]; ok {
			if s := stringify(value); s != "" {
				return s
			}
		}
	}
	return ""
}

func firstDate(record map[string]interface{}, keys []string) string {
	for _, key := range keys {
		if value, ok := record[key]; ok {
			if d := NormalizeDate(value); d != "" {
				return d
			}
		}
	}
	return ""
}

func firstBool(record map[string]interface{}, keys []string) *bool {
	for _, key := range keys {
		value, ok := record[key]
		if !ok {
			continue
		}
		if b, ok := boolify(value); ok {
			return &b
		}
	}
	return nil
}

func stringify(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case []byte:
		return strings.TrimSpace(string(v))
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case int:
		return strconv.Itoa(v)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

func boolify(value interface{}) (bool, bool) {
	switch v := value.(type) {
	case bool:
		return v, true
	case string, []byte:
		switch strings.ToLower(stringify(v)) {
		case "true", "1", "si", "sí", "yes":
			return true, true
		case "false", "0", "no":
			return false, true
		}
	case float64, int, int32, int64, json.Number:
		switch stringify(v) {
		case "1":
			return true, true
		case "0":
			return false, true
		}
	}
	return false, false
}
