package apiclient

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/progreso-dashboard/internal/models"
	appErrors "github.com/noah-isme/progreso-dashboard/pkg/errors"
	"github.com/noah-isme/progreso-dashboard/pkg/middleware/requestid"
)

type observerStub struct {
	mu    sync.Mutex
	calls []string
}

func (o *observerStub) ObserveUpstreamRequest(endpoint string, status int, duration time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls = append(o.calls, endpoint)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *observerStub) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	obs := &observerStub{}
	return New(Config{BaseURL: srv.URL + "/", Observer: obs}), obs
}

func TestSubjectsProgress(t *testing.T) {
	client, obs := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/materias/progreso", r.URL.Path)
		assert.Equal(t, "2024-I", r.URL.Query().Get("gestion"))
		assert.Equal(t, "req-1", r.Header.Get(requestid.HeaderKey))
		_, _ = io.WriteString(w, `{"success":true,"data":[{"nombre_materia":"Cálculo I","elementos_totales":4,"elem_completados":2,"elem_evaluados":1,"rec_totales":4,"rec_tomados":1}]}`)
	})

	ctx := requestid.WithContext(context.Background(), "req-1")
	out, err := client.SubjectsProgress(ctx, "2024-I")
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "Cálculo I", out[0].SubjectName)
	assert.Equal(t, 2, out[0].ElementsCompleted)
	assert.Nil(t, out[0].OverallProgress)
	assert.Equal(t, []string{"materias_progreso"}, obs.calls)
}

func TestSectionPerformanceEscapesSubject(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/materias/C%C3%A1lculo%20I/rendimiento-paralelo", r.URL.EscapedPath())
		assert.Empty(t, r.URL.RawQuery)
		_, _ = io.WriteString(w, `{"success":true,"data":[{"nombre_materia":"Cálculo I","paralelo":"A"}]}`)
	})

	out, err := client.SectionPerformance(context.Background(), "Cálculo I", "")
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "A", out[0].Section)
}

func TestElementsBySectionDecodesTuples(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/materia/Fisica/elementos-por-paralelo", r.URL.Path)
		_, _ = io.WriteString(w, `{"success":true,"data":[{"paralelo":"A","docente":"Ana","elementos":[{"id":1,"descripcion":"EC1. Cinemática","completado":true,"evaluado":false,"saberes_totales":2,"saberes_completados":1,"fecha_limite":"2024-06-15","fecha_registro":null,"fecha_evaluado":null,"comentario":null,"saberes_minimos":[["Velocidad",true],["Aceleración",false]],"recuperatorios":[[true,"2024-06-20"],[false,null]]}]}]}`)
	})

	out, err := client.ElementsBySection(context.Background(), "Fisica", "")
	require.NoError(t, err)
	require.Len(t, out, 1)
	el := out[0].Elements[0]
	assert.Equal(t, []models.KnowledgeItemState{{Description: "Velocidad", Completed: true}, {Description: "Aceleración"}}, el.KnowledgeItems)
	require.Len(t, el.Remedials, 2)
	assert.True(t, el.Remedials[0].Taken)
	require.NotNil(t, el.Remedials[0].Date)
	assert.Equal(t, "2024-06-20", *el.Remedials[0].Date)
	assert.Nil(t, el.Remedials[1].Date)
}

func TestGetErrors(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{"http status", http.StatusInternalServerError, `oops`, "HTTP error! status: 500"},
		{"success false with message", http.StatusOK, `{"success":false,"message":"Materia no encontrada"}`, "Materia no encontrada"},
		{"success false without message", http.StatusOK, `{"success":false}`, "Error al obtener datos"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = io.WriteString(w, tc.body)
			})
			_, err := client.SubjectsProgress(context.Background(), "")
			require.Error(t, err)
			appErr := appErrors.FromError(err)
			assert.Equal(t, appErrors.ErrUpstream.Code, appErr.Code)
			assert.Equal(t, tc.message, appErr.Message)
		})
	}
}

func TestUploadData(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/upload-excel-data", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		var payload map[string]json.RawMessage
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Contains(t, payload, "docentes")
		assert.Contains(t, payload, "materias")
		assert.Contains(t, payload, "elementos")
		_, _ = io.WriteString(w, `{"success":true,"message":"ok","resumen":{"docentes_procesados":1,"materias_procesadas":2,"elementos_procesados":3,"saberes_totales":4}}`)
	})

	result, err := client.UploadData(context.Background(), "tok", models.NormalizedData{
		Teachers: []models.Teacher{}, Subjects: []models.Subject{}, Elements: []models.CompetencyElement{},
	})
	require.NoError(t, err)
	require.NotNil(t, result.Summary)
	assert.Equal(t, 3, result.Summary.ElementsProcessed)
}

func TestUploadDataFailure(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"success":false,"error":"Docente duplicado"}`)
	})

	_, err := client.UploadData(context.Background(), "tok", models.NormalizedData{})
	require.Error(t, err)
	assert.Equal(t, "Docente duplicado", appErrors.FromError(err).Message)

	client, _ = newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, `<html>bad gateway</html>`)
	})
	_, err = client.UploadData(context.Background(), "tok", models.NormalizedData{})
	require.Error(t, err)
	assert.Equal(t, "Error en la carga", appErrors.FromError(err).Message)
}

func TestUploadDataRejectedWithOKStatus(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"success":false,"error":"gestion cerrada"}`)
	})

	result, err := client.UploadData(context.Background(), "tok", models.NormalizedData{})
	require.Error(t, err)
	assert.Nil(t, result)
	assert.Equal(t, appErrors.ErrUpstream.Code, appErrors.FromError(err).Code)
	assert.Equal(t, "gestion cerrada", appErrors.FromError(err).Message)

	client, _ = newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"success":false,"message":"Sin permisos de carga"}`)
	})
	_, err = client.UploadData(context.Background(), "tok", models.NormalizedData{})
	require.Error(t, err)
	assert.Equal(t, "Sin permisos de carga", appErrors.FromError(err).Message)

	client, _ = newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"success":false}`)
	})
	_, err = client.UploadData(context.Background(), "tok", models.NormalizedData{})
	require.Error(t, err)
	assert.Equal(t, "Error en la carga", appErrors.FromError(err).Message)
}
