package termcal

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-rollcall-api/internal/models"
	appErrors "github.com/noah-isme/sma-rollcall-api/pkg/errors"
)

func boolPtr(b bool) *bool { return &b }

func TestNormalizeAcceptsSynonyms(t *testing.T) {
	cases := []struct {
		name   string
		record map[string]interface{}
		want   models.Term
	}{
		{
			name: "spanish camel case with numeric ids",
			record: map[string]interface{}{
				"id": float64(2), "periodoId": float64(7), "numero": float64(2),
				"fechaInicio": "2024-04-01T00:00:00.000Z", "fechaFin": "2024-06-30", "estado": "activo",
			},
			want: models.Term{ID: "2", PeriodID: "7", Number: 2, StartDate: "2024-04-01", EndDate: "2024-06-30", DeclaredState: "activo"},
		},
		{
			name: "snake case with closed flag",
			record: map[string]interface{}{
				"trimestre_id": "t-1", "periodo": map[string]interface{}{"id": json.Number("3")}, "orden": "1",
				"fecha_inicio": "2024-03-01 08:00:00", "fecha_fin": "2024-05-31", "cerrado": true,
			},
			want: models.Term{ID: "t-1", PeriodID: "3", Number: 1, StartDate: "2024-03-01", EndDate: "2024-05-31", Closed: boolPtr(true)},
		},
		{
			name: "postgres row shape",
			record: map[string]interface{}{
				"id": []byte("t-9"), "period_id": int64(4), "number": int64(3),
				"start_date": time.Date(2024, 9, 2, 0, 0, 0, 0, time.UTC), "end_date": nil, "closed": "0",
			},
			want: models.Term{ID: "t-9", PeriodID: "4", Number: 3, StartDate: "2024-09-02", Closed: boolPtr(false)},
		},
		{
			name:   "first usable synonym wins and malformed dates are dropped",
			record: map[string]interface{}{"id": "x", "fechaInicio": "", "startDate": "2024-01-10", "fechaFin": "31/12/2024"},
			want:   models.Term{ID: "x", StartDate: "2024-01-10"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Normalize(tc.record))
		})
	}
}

func TestClassifyState(t *testing.T) {
	assert.Equal(t, models.TermStateClosed, ClassifyState(models.Term{DeclaredState: "cerrado", Closed: boolPtr(false)}))
	assert.Equal(t, models.TermStateClosed, ClassifyState(models.Term{DeclaredState: " CERRADO "}))
	assert.Equal(t, models.TermStateActive, ClassifyState(models.Term{DeclaredState: "activo", Closed: boolPtr(true)}))
	assert.Equal(t, models.TermStateInactive, ClassifyState(models.Term{}))
	assert.Equal(t, models.TermStateClosed, ClassifyState(models.Term{Closed: boolPtr(true)}))
	assert.Equal(t, models.TermStateActive, ClassifyState(models.Term{Closed: boolPtr(false)}))
	// unrecognised explicit strings fall through to the flag
	assert.Equal(t, models.TermStateClosed, ClassifyState(models.Term{DeclaredState: "archivado", Closed: boolPtr(true)}))
	assert.Equal(t, models.TermStateInactive, ClassifyState(models.Term{DeclaredState: "archivado"}))
}

func TestContainsDate(t *testing.T) {
	term := models.Term{StartDate: "2024-03-01", EndDate: "2024-06-30"}
	assert.True(t, ContainsDate("2024-05-15", term))
	assert.True(t, ContainsDate("2024-03-01", term))
	assert.True(t, ContainsDate("2024-06-30", term))
	assert.False(t, ContainsDate("2024-07-01", term))
	assert.False(t, ContainsDate("2024-02-01", term))

	assert.True(t, ContainsDate("1999-01-01", models.Term{EndDate: "2024-06-30"}))
	assert.False(t, ContainsDate("2024-07-01", models.Term{EndDate: "2024-06-30"}))
	assert.True(t, ContainsDate("2030-01-01", models.Term{StartDate: "2024-03-01"}))
	assert.True(t, ContainsDate("2024-05-15", models.Term{StartDate: "garbage"}))
}

func TestResolveBoundsAndFormatRange(t *testing.T) {
	start, end := ResolveBounds(models.Term{StartDate: "2024-03-01T10:00:00Z"})
	require.NotNil(t, start)
	assert.Equal(t, "2024-03-01", *start)
	assert.Nil(t, end)

	full := FormatRange(models.Term{StartDate: "2024-03-01", EndDate: "2024-06-30"})
	require.NotNil(t, full)
	assert.Equal(t, "del 2024-03-01 al 2024-06-30", *full)
	assert.Equal(t, "desde 2024-03-01", *FormatRange(models.Term{StartDate: "2024-03-01"}))
	assert.Equal(t, "hasta 2024-06-30", *FormatRange(models.Term{EndDate: "2024-06-30"}))
	assert.Nil(t, FormatRange(models.Term{}))
}

func TestIsWeekend(t *testing.T) {
	weekend, err := IsWeekend("2024-05-18")
	require.NoError(t, err)
	assert.True(t, weekend)

	weekend, err = IsWeekend("2024-04-10")
	require.NoError(t, err)
	assert.False(t, weekend)

	_, err = IsWeekend("2024-13-01")
	assert.Error(t, err)
}

func TestTermGate(t *testing.T) {
	closedByFlag := models.Term{ID: "1", Closed: boolPtr(true)}
	assert.False(t, IsWritable(closedByFlag))
	assert.True(t, IsWritable(models.Term{DeclaredState: "activo"}))
	assert.False(t, IsWritable(models.Term{}))

	err := RequireWritable(closedByFlag)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrTermClosed.Code, appErrors.FromError(err).Code)

	err = RequireWritable(models.Term{ID: "1", Number: 2})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
	assert.Contains(t, err.Error(), "trimestre 2")

	assert.NoError(t, RequireWritable(models.Term{DeclaredState: "Activo"}))
}
