package schoolapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/sma-rollcall-api/pkg/errors"
	"github.com/noah-isme/sma-rollcall-api/pkg/middleware/requestid"
)

type observerStub struct {
	mu    sync.Mutex
	calls []string
}

func (o *observerStub) ObserveUpstream(method, resource string, status int, duration time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls = append(o.calls, method+" "+resource)
}

type jornadaWire struct {
	ID        ID     `json:"id"`
	SeccionID ID     `json:"seccionId"`
	Fecha     string `json:"fecha"`
}

func TestClientGetUnwrapsDataEnvelopeAndForwardsHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/jornadas", r.URL.Path)
		assert.Equal(t, "12", r.URL.Query().Get("seccionId"))
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		assert.Equal(t, "req-9", r.Header.Get(requestid.HeaderKey))
		_, _ = io.WriteString(w, `{"data":[{"id":31,"seccionId":12,"fecha":"2024-04-10"}]}`)
	}))
	defer srv.Close()

	obs := &observerStub{}
	client := NewWithHTTPClient(srv.URL+"/api/", srv.Client(), obs, nil)
	ctx := requestid.WithID(WithToken(context.Background(), "tok-1"), "req-9")

	var out []jornadaWire
	err := client.Get(ctx, "jornadas", url.Values{"seccionId": {"12"}}, &out)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, ID("31"), out[0].ID)
	assert.Equal(t, ID("12"), out[0].SeccionID)
	assert.Equal(t, []string{"GET jornadas"}, obs.calls)
}

func TestClientMapsStatusAndKeepsServerMessage(t *testing.T) {
	cases := []struct {
		status int
		body   string
		code   string
		msg    string
	}{
		{http.StatusNotFound, `{"message":"Detalle no encontrado"}`, appErrors.ErrNotFound.Code, "Detalle no encontrado"},
		{http.StatusForbidden, `{"error":{"message":"sin permiso"}}`, appErrors.ErrForbidden.Code, "sin permiso"},
		{http.StatusConflict, `{"mensaje":"ya existe una jornada"}`, appErrors.ErrConflict.Code, "ya existe una jornada"},
		{http.StatusBadGateway, `oops`, appErrors.ErrUpstream.Code, "oops"},
	}
	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
			_, _ = io.WriteString(w, tc.body)
		}))
		client := NewWithHTTPClient(srv.URL, srv.Client(), nil, nil)
		err := client.Put(context.Background(), "asistencia-detalles/5", map[string]string{"estado": "PRESENTE"}, nil)
		srv.Close()

		require.Error(t, err)
		appErr := appErrors.FromError(err)
		assert.Equal(t, tc.code, appErr.Code)
		assert.Equal(t, tc.msg, appErr.Message)
	}
}

func TestClientUnreachable(t *testing.T) {
	client := NewWithHTTPClient("http://127.0.0.1:1", &http.Client{Timeout: 200 * time.Millisecond}, nil, nil)
	err := client.Get(context.Background(), "trimestres", nil, &[]map[string]interface{}{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUpstream.Code, appErrors.FromError(err).Code)
}

func TestIDRoundTrip(t *testing.T) {
	var id ID
	require.NoError(t, json.Unmarshal([]byte(`42`), &id))
	assert.Equal(t, ID("42"), id)
	require.NoError(t, json.Unmarshal([]byte(`"abc"`), &id))
	assert.Equal(t, ID("abc"), id)
	require.NoError(t, json.Unmarshal([]byte(`null`), &id))
	assert.Equal(t, ID(""), id)

	raw, err := json.Marshal(struct {
		A ID `json:"a"`
		B ID `json:"b"`
	}{A: "12", B: "t-1"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":12,"b":"t-1"}`, string(raw))
}

func TestResourceLabel(t *testing.T) {
	assert.Equal(t, "jornadas/:id", resourceLabel("/jornadas/15"))
	assert.Equal(t, "matriculas/seccion/:id", resourceLabel("matriculas/seccion/12"))
	assert.Equal(t, "trimestres", resourceLabel("trimestres"))
}
