package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Freeeeeet/aula_backend/internal/ai"
	"github.com/Freeeeeet/aula_backend/internal/model"
	"github.com/Freeeeeet/aula_backend/internal/notify"
	"github.com/Freeeeeet/aula_backend/internal/repository/inmem"
	"github.com/Freeeeeet/aula_backend/internal/service"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	testSecret = "test-jwt-secret"
	testIssuer = "https://abc.supabase.co/auth/v1"
)

type stubAI struct {
	text string
	err  error
}

func (s *stubAI) GenerateText(context.Context, string, string) (string, error) {
	return s.text, s.err
}

func (s *stubAI) GenerateJSON(_ context.Context, _, _ string, out any) error {
	if s.err != nil {
		return s.err
	}
	if err := json.Unmarshal([]byte(ai.ExtractJSONObject(s.text)), out); err != nil {
		return fmt.Errorf("%w: %w", ai.ErrMalformedJSON, err)
	}
	return nil
}

type testEnv struct {
	db       *inmem.DB
	ai       *stubAI
	handler  http.Handler
	profesor *model.Profesor
	plan     *model.PlanAnual
	materia  *model.Materia
	tema     *model.Tema
	grupo    *model.Grupo
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := inmem.NewDB()
	env := &testEnv{db: db, ai: &stubAI{}}
	logger := zap.NewNop()
	tx := &inmem.TxRunner{}

	profesores := inmem.NewProfesorRepository(db)
	academico := inmem.NewAcademicoRepository(db)
	asignaciones := inmem.NewAsignacionRepository(db)
	clases := inmem.NewClaseRepository(db)
	versiones := inmem.NewGuiaVersionRepository(db)
	guias := inmem.NewGuiaTemaRepository(db)
	resultados := inmem.NewResultadoRepository(db)

	svc := Services{
		Users:        service.NewUserService(tx, profesores, inmem.NewRoleRepository(db), inmem.NewTelegramLinkRepository(db), logger),
		Asignaciones: service.NewAsignacionService(profesores, academico, asignaciones, logger),
		Clases:       service.NewClaseService(tx, academico, clases, guias, versiones, inmem.NewRecomendacionRepository(db), env.ai, logger),
		Sesiones:     service.NewSesionService(tx, academico, guias, clases, versiones, env.ai, notify.Nop{}, logger),
		GuiasTema:    service.NewGuiaTemaService(academico, guias, env.ai, logger),
		Dashboard:    service.NewDashboardService(academico, asignaciones, clases, guias, resultados, logger),
		Admin:        service.NewAdminService(profesores, academico, asignaciones, clases, logger),
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(Collectors()...)

	server := NewServer(AuthConfig{Secret: []byte(testSecret), Issuer: testIssuer}, []string{"https://app.example"}, svc, registry, logger)
	env.handler = server.Router()

	env.profesor = db.AddProfesor(model.Profesor{Nombre: "Ana", Apellidos: "Torres", Activo: true})
	env.plan = db.AddPlan(model.PlanAnual{Nombre: "Plan 3°", Grado: "3° Primaria", AnioEscolar: "2025"})
	env.materia = db.AddMateria(model.Materia{IDPlanAnual: env.plan.ID, Nombre: "Matemáticas"})
	env.tema = db.AddTema(model.Tema{IDMateria: env.materia.ID, Nombre: "Fracciones", SesionesEstimadas: 4})
	env.grupo = db.AddGrupo(model.Grupo{Nombre: "3°A", Grado: "3° Primaria", AnioEscolar: "2025"})

	return env
}

func signToken(t *testing.T, userID uuid.UUID, mutate func(*jwt.RegisteredClaims)) string {
	t.Helper()

	claims := jwt.RegisteredClaims{
		Subject:   userID.String(),
		Audience:  jwt.ClaimStrings{jwtAudience},
		Issuer:    testIssuer,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	if mutate != nil {
		mutate(&claims)
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func (e *testEnv) post(t *testing.T, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestMetricsExposesRequestCounter(t *testing.T) {
	env := newTestEnv(t)
	env.post(t, "/functions/v1/dashboard-profesor", "", nil)

	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "aula_http_requests_total")
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t)
	req := httptest.NewRequest(http.MethodOptions, "/functions/v1/crear-clase", nil)
	req.Header.Set("Origin", "https://app.example")
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://app.example", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/functions/v1/crear-clase", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestAuthRejectsBadTokens(t *testing.T) {
	env := newTestEnv(t)
	userID := env.profesor.UserID

	wrongSecret, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   userID.String(),
		Audience:  jwt.ClaimStrings{jwtAudience},
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("other-secret"))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "missing", token: ""},
		{name: "garbage", token: "not-a-jwt"},
		{name: "wrong secret", token: wrongSecret},
		{name: "expired", token: signToken(t, userID, func(c *jwt.RegisteredClaims) {
			c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
		})},
		{name: "wrong audience", token: signToken(t, userID, func(c *jwt.RegisteredClaims) {
			c.Audience = jwt.ClaimStrings{"anon"}
		})},
		{name: "wrong issuer", token: signToken(t, userID, func(c *jwt.RegisteredClaims) {
			c.Issuer = "https://other.example/auth/v1"
		})},
		{name: "subject not uuid", token: signToken(t, userID, func(c *jwt.RegisteredClaims) {
			c.Subject = "42"
		})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.post(t, "/functions/v1/dashboard-profesor", tt.token, nil)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestUserWithoutProfesorProfile(t *testing.T) {
	env := newTestEnv(t)
	rec := env.post(t, "/functions/v1/dashboard-profesor", signToken(t, uuid.New(), nil), nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["error"], "perfil de profesor")
}

func TestAdminEndpointsRequireAdminRole(t *testing.T) {
	env := newTestEnv(t)
	token := signToken(t, env.profesor.UserID, nil)

	for _, path := range []string{
		"/functions/v1/get-asignaciones-admin",
		"/functions/v1/get-plan-anual-admin",
		"/functions/v1/crear-asignacion",
		"/functions/v1/actualizar-asignacion",
	} {
		rec := env.post(t, path, token, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code, path)
	}
}

func TestAdminAsignacionesAndPlan(t *testing.T) {
	env := newTestEnv(t)
	admin := uuid.New()
	env.db.AddRole(admin, model.RoleAdmin)
	token := signToken(t, admin, nil)

	rec := env.post(t, "/functions/v1/get-asignaciones-admin", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Len(t, body["profesores"], 1)

	rec = env.post(t, "/functions/v1/get-plan-anual-admin", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody(t, rec)["planes"], 1)
}

func TestCrearAsignacion(t *testing.T) {
	env := newTestEnv(t)
	admin := uuid.New()
	env.db.AddRole(admin, model.RoleAdmin)
	token := signToken(t, admin, nil)

	in := service.AsignacionInput{
		IDProfesor:     env.profesor.ID,
		IDMateria:      env.materia.ID,
		IDGrupo:        env.grupo.ID,
		AnioEscolar:    "2025",
		HorasSemanales: 42,
	}

	rec := env.post(t, "/functions/v1/crear-asignacion", token, in)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["isValid"])
	assert.Len(t, body["warnings"], 1)
	assert.NotNil(t, body["asignacion"])

	// повтор той же комбинации
	rec = env.post(t, "/functions/v1/crear-asignacion", token, in)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body = decodeBody(t, rec)
	assert.Equal(t, false, body["isValid"])
	assert.NotEmpty(t, body["error"])
	assert.NotContains(t, body, "asignacion")
}

func TestCrearAsignacionGradeMismatch(t *testing.T) {
	env := newTestEnv(t)
	admin := uuid.New()
	env.db.AddRole(admin, model.RoleAdmin)
	otro := env.db.AddGrupo(model.Grupo{Nombre: "5°B", Grado: "5° Primaria"})

	rec := env.post(t, "/functions/v1/crear-asignacion", signToken(t, admin, nil), service.AsignacionInput{
		IDProfesor: env.profesor.ID, IDMateria: env.materia.ID, IDGrupo: otro.ID, AnioEscolar: "2025",
	})

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	errMsg, _ := decodeBody(t, rec)["error"].(string)
	assert.Contains(t, errMsg, "3° Primaria")
	assert.Contains(t, errMsg, "5° Primaria")
}

func TestCrearClase(t *testing.T) {
	env := newTestEnv(t)
	token := signToken(t, env.profesor.UserID, nil)

	rec := env.post(t, "/functions/v1/crear-clase", token, map[string]any{
		"id_tema":  env.tema.ID,
		"id_grupo": env.grupo.ID,
	})

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	clase, ok := body["clase"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, string(model.EstadoBorrador), clase["estado"])
	assert.Nil(t, body["clase_anterior"])
	assert.Nil(t, body["recomendacion"])
}

func TestCrearClaseValidation(t *testing.T) {
	env := newTestEnv(t)
	token := signToken(t, env.profesor.UserID, nil)

	rec := env.post(t, "/functions/v1/crear-clase", token, map[string]any{"id_grupo": env.grupo.ID})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["error"], "IDTema")

	req := httptest.NewRequest(http.MethodPost, "/functions/v1/crear-clase", strings.NewReader("{"))
	req.Header.Set("Authorization", "Bearer "+token)
	raw := httptest.NewRecorder()
	env.handler.ServeHTTP(raw, req)
	assert.Equal(t, http.StatusBadRequest, raw.Code)
}

func TestProgramarSesionWithoutGuia(t *testing.T) {
	env := newTestEnv(t)

	rec := env.post(t, "/functions/v1/programar-sesion", signToken(t, env.profesor.UserID, nil), map[string]any{
		"id_tema": env.tema.ID, "id_grupo": env.grupo.ID, "numero_sesion": 1,
	})

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["error"], "guía maestra")
}

func (e *testEnv) addGuia() {
	e.db.AddGuiaTema(model.GuiaTema{
		IDProfesor:         e.profesor.ID,
		IDTema:             e.tema.ID,
		Contenido:          "Fracciones con material concreto",
		EstructuraSesiones: json.RawMessage(`[{"numero":1,"titulo":"Partes de un entero","contenido_clave":"mitades"}]`),
		TotalSesiones:      1,
	})
}

func TestProgramarSesionAIErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{name: "rate limited", err: ai.ErrRateLimited, status: http.StatusTooManyRequests},
		{name: "quota exhausted", err: ai.ErrQuotaExhausted, status: http.StatusPaymentRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.addGuia()
			env.ai.err = tt.err

			rec := env.post(t, "/functions/v1/programar-sesion", signToken(t, env.profesor.UserID, nil), map[string]any{
				"id_tema": env.tema.ID, "id_grupo": env.grupo.ID, "numero_sesion": 1,
			})

			assert.Equal(t, tt.status, rec.Code)
			assert.Empty(t, env.db.Clases())
		})
	}
}

func TestProgramarSesionMalformedAIResponse(t *testing.T) {
	env := newTestEnv(t)
	env.addGuia()
	env.ai.text = "lo siento, no puedo"

	rec := env.post(t, "/functions/v1/programar-sesion", signToken(t, env.profesor.UserID, nil), map[string]any{
		"id_tema": env.tema.ID, "id_grupo": env.grupo.ID, "numero_sesion": 1,
	})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["error"], "parse ai json response")
	assert.Empty(t, env.db.Clases())
}

func TestProgramarSesionAndPollEstado(t *testing.T) {
	env := newTestEnv(t)
	env.addGuia()
	env.ai.text = "```json\n{\"objetivos\":[\"Reconocer mitades\"],\"evaluacion\":\"Ticket de salida\"}\n```"
	token := signToken(t, env.profesor.UserID, nil)

	rec := env.post(t, "/functions/v1/programar-sesion", token, map[string]any{
		"id_tema": env.tema.ID, "id_grupo": env.grupo.ID, "numero_sesion": 1,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var result struct {
		Clase model.Clase `json:"clase"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, model.EstadoGuiaAprobada, result.Clase.Estado)

	rec = env.post(t, "/functions/v1/estado-clase", token, map[string]any{"id_clase": result.Clase.ID})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, string(model.EstadoGuiaAprobada), body["estado"])
	assert.Equal(t, string(model.StageGuia), body["stage"])
}

func TestActualizarEstadoUnknown(t *testing.T) {
	env := newTestEnv(t)
	clase := env.db.AddClase(model.Clase{IDTema: env.tema.ID, IDGrupo: env.grupo.ID, IDProfesor: env.profesor.ID, Estado: model.EstadoBorrador})

	rec := env.post(t, "/functions/v1/actualizar-estado-clase", signToken(t, env.profesor.UserID, nil), map[string]any{
		"id_clase": clase.ID, "estado": "volando",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEstadoClaseOfAnotherProfesor(t *testing.T) {
	env := newTestEnv(t)
	otro := env.db.AddProfesor(model.Profesor{Nombre: "Luis", Activo: true})
	clase := env.db.AddClase(model.Clase{IDTema: env.tema.ID, IDGrupo: env.grupo.ID, IDProfesor: otro.ID, Estado: model.EstadoBorrador})

	rec := env.post(t, "/functions/v1/estado-clase", signToken(t, env.profesor.UserID, nil), map[string]any{"id_clase": clase.ID})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestIniciarTemaConflict(t *testing.T) {
	env := newTestEnv(t)
	token := signToken(t, env.profesor.UserID, nil)
	in := map[string]any{"id_tema": env.tema.ID, "contenido": "Fracciones"}

	rec := env.post(t, "/functions/v1/iniciar-tema", token, in)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.post(t, "/functions/v1/iniciar-tema", token, in)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCalendarioSemana(t *testing.T) {
	env := newTestEnv(t)
	at := time.Date(2025, 5, 6, 9, 0, 0, 0, time.Local)
	env.db.AddClase(model.Clase{
		IDTema: env.tema.ID, IDGrupo: env.grupo.ID, IDProfesor: env.profesor.ID,
		Estado: model.EstadoGuiaAprobada, FechaProgramada: &at, DuracionMinutos: 45,
	})

	rec := env.post(t, "/functions/v1/calendario-semana", signToken(t, env.profesor.UserID, nil), map[string]any{"fecha": "2025-05-07"})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")))

	rec = env.post(t, "/functions/v1/calendario-semana", signToken(t, env.profesor.UserID, nil), map[string]any{"fecha": "7/5/2025"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// формат верный, но такой даты нет
	rec = env.post(t, "/functions/v1/calendario-semana", signToken(t, env.profesor.UserID, nil), map[string]any{"fecha": "2025-02-30"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVincularTelegram(t *testing.T) {
	env := newTestEnv(t)
	rec := env.post(t, "/functions/v1/vincular-telegram", signToken(t, env.profesor.UserID, nil), nil)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	code, _ := body["code"].(string)
	assert.Len(t, code, 8)
	assert.Contains(t, body["instrucciones"], code)
}
