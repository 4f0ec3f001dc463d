package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/Freeeeeet/aula_backend/internal/calendar"
	"github.com/Freeeeeet/aula_backend/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const upcomingWindow = 7 * 24 * time.Hour

// ClaseResumen краткая строка занятия для списков дашборда
type ClaseResumen struct {
	ID              uuid.UUID         `json:"id"`
	Tema            string            `json:"tema"`
	Grupo           string            `json:"grupo"`
	NumeroSesion    *int              `json:"numero_sesion"`
	Estado          model.EstadoClase `json:"estado"`
	EstadoTexto     string            `json:"estado_texto"`
	FechaProgramada *time.Time        `json:"fecha_programada"`
}

// AlertaGrupo занятия одной категории подготовки
type AlertaGrupo struct {
	Categoria model.PreparationCategory `json:"categoria"`
	Clases    []ClaseResumen            `json:"clases"`
}

type ResumenClases struct {
	Total                int     `json:"total"`
	Completadas          int     `json:"completadas"`
	PorcentajeCompletado float64 `json:"porcentaje_completado"`
	Grupos               int     `json:"grupos"`
	Temas                int     `json:"temas"`
}

type ResumenEvaluacion struct {
	Resultados       int      `json:"resultados"`
	PromedioPre      *float64 `json:"promedio_pre"`
	PromedioPost     *float64 `json:"promedio_post"`
	GananciaPromedio *float64 `json:"ganancia_promedio"`
}

type Dashboard struct {
	Profesor   *model.Profesor     `json:"profesor"`
	Resumen    ResumenClases       `json:"resumen"`
	PorEtapa   map[model.Stage]int `json:"por_etapa"`
	Alertas    []AlertaGrupo       `json:"alertas"`
	Proximas   []ClaseResumen      `json:"proximas"`
	Evaluacion ResumenEvaluacion   `json:"evaluacion"`
}

// TemaProgreso тема назначенного предмета с данными мастер-гида
type TemaProgreso struct {
	Tema          *model.Tema     `json:"tema"`
	Materia       string          `json:"materia"`
	GuiaTema      *model.GuiaTema `json:"guia_tema"`
	Clases        int             `json:"clases"`
	Completadas   int             `json:"completadas"`
	TotalSesiones int             `json:"total_sesiones"`
	Progreso      float64         `json:"progreso"`
}

// alertOrder порядок групп алертов; otros в алерты не попадает
var alertOrder = []model.PreparationCategory{
	model.CategoryGuiaPendiente,
	model.CategoryEvalPrePendiente,
	model.CategoryEvalPostPendiente,
}

type DashboardService struct {
	academicoRepo  AcademicoRepository
	asignacionRepo AsignacionRepository
	claseRepo      ClaseRepository
	guiaTemaRepo   GuiaTemaRepository
	resultadoRepo  ResultadoRepository
	logger         *zap.Logger
	now            func() time.Time
}

func NewDashboardService(
	academicoRepo AcademicoRepository,
	asignacionRepo AsignacionRepository,
	claseRepo ClaseRepository,
	guiaTemaRepo GuiaTemaRepository,
	resultadoRepo ResultadoRepository,
	logger *zap.Logger,
) *DashboardService {
	return &DashboardService{
		academicoRepo:  academicoRepo,
		asignacionRepo: asignacionRepo,
		claseRepo:      claseRepo,
		guiaTemaRepo:   guiaTemaRepo,
		resultadoRepo:  resultadoRepo,
		logger:         logger,
		now:            time.Now,
	}
}

// DashboardProfesor пересчитывается целиком на каждый запрос
func (s *DashboardService) DashboardProfesor(ctx context.Context, profesor *model.Profesor) (*Dashboard, error) {
	clases, err := s.claseRepo.ListByProfesor(ctx, profesor.ID)
	if err != nil {
		return nil, fmt.Errorf("list clases: %w", err)
	}
	resultados, err := s.resultadoRepo.ListByProfesor(ctx, profesor.ID)
	if err != nil {
		return nil, fmt.Errorf("list resultados: %w", err)
	}

	dash := &Dashboard{
		Profesor: profesor,
		PorEtapa: map[model.Stage]int{
			model.StageGuia:         0,
			model.StageEvaluaciones: 0,
			model.StageCierre:       0,
			model.StageOtros:        0,
		},
		Alertas:    groupAlertas(clases),
		Proximas:   upcoming(clases, s.now()),
		Evaluacion: summarizeResultados(resultados),
	}

	grupos := make(map[uuid.UUID]struct{})
	temas := make(map[uuid.UUID]struct{})
	for _, c := range clases {
		dash.PorEtapa[c.Estado.Stage()]++
		if c.Estado == model.EstadoCompletada {
			dash.Resumen.Completadas++
		}
		grupos[c.IDGrupo] = struct{}{}
		temas[c.IDTema] = struct{}{}
	}
	dash.Resumen.Total = len(clases)
	dash.Resumen.Grupos = len(grupos)
	dash.Resumen.Temas = len(temas)
	dash.Resumen.PorcentajeCompletado = percent(dash.Resumen.Completadas, dash.Resumen.Total)

	return dash, nil
}

// PendingAlertas алерты подготовки учителя, используется ежедневной рассылкой
func (s *DashboardService) PendingAlertas(ctx context.Context, profesorID uuid.UUID) ([]AlertaGrupo, error) {
	clases, err := s.claseRepo.ListByProfesor(ctx, profesorID)
	if err != nil {
		return nil, fmt.Errorf("list clases: %w", err)
	}
	return groupAlertas(clases), nil
}

// CalendarioSemana PNG недели, содержащей day, с занятиями учителя
func (s *DashboardService) CalendarioSemana(ctx context.Context, profesorID uuid.UUID, day time.Time) ([]byte, error) {
	clases, err := s.claseRepo.ListByProfesor(ctx, profesorID)
	if err != nil {
		return nil, fmt.Errorf("list clases: %w", err)
	}
	activas := make([]*model.Clase, 0, len(clases))
	for _, c := range clases {
		if c.Estado != model.EstadoCancelada {
			activas = append(activas, c)
		}
	}
	return calendar.WeekImage(day, activas, s.now())
}

// MisTemas темы предметов, назначенных учителю, с прогрессом по занятиям
func (s *DashboardService) MisTemas(ctx context.Context, profesor *model.Profesor) ([]TemaProgreso, error) {
	asignaciones, err := s.asignacionRepo.List(ctx, &profesor.ID)
	if err != nil {
		return nil, fmt.Errorf("list asignaciones: %w", err)
	}

	materiaIDs := make([]uuid.UUID, 0, len(asignaciones))
	seen := make(map[uuid.UUID]struct{})
	for _, a := range asignaciones {
		if _, ok := seen[a.IDMateria]; ok {
			continue
		}
		seen[a.IDMateria] = struct{}{}
		materiaIDs = append(materiaIDs, a.IDMateria)
	}
	if len(materiaIDs) == 0 {
		return []TemaProgreso{}, nil
	}

	temas, err := s.academicoRepo.ListTemas(ctx, materiaIDs)
	if err != nil {
		return nil, fmt.Errorf("list temas: %w", err)
	}
	materias, err := s.academicoRepo.ListMaterias(ctx)
	if err != nil {
		return nil, fmt.Errorf("list materias: %w", err)
	}
	guias, err := s.guiaTemaRepo.ListByProfesor(ctx, profesor.ID)
	if err != nil {
		return nil, fmt.Errorf("list guias tema: %w", err)
	}
	clases, err := s.claseRepo.ListByProfesor(ctx, profesor.ID)
	if err != nil {
		return nil, fmt.Errorf("list clases: %w", err)
	}

	materiaNombre := make(map[uuid.UUID]string, len(materias))
	for _, m := range materias {
		materiaNombre[m.ID] = m.Nombre
	}
	guiaPorTema := make(map[uuid.UUID]*model.GuiaTema, len(guias))
	for _, g := range guias {
		guiaPorTema[g.IDTema] = g
	}

	type counts struct{ total, completadas int }
	porTema := make(map[uuid.UUID]*counts)
	for _, c := range clases {
		if c.Estado == model.EstadoCancelada {
			continue
		}
		ct, ok := porTema[c.IDTema]
		if !ok {
			ct = &counts{}
			porTema[c.IDTema] = ct
		}
		ct.total++
		if c.Estado == model.EstadoCompletada {
			ct.completadas++
		}
	}

	result := make([]TemaProgreso, 0, len(temas))
	for _, t := range temas {
		item := TemaProgreso{
			Tema:          t,
			Materia:       materiaNombre[t.IDMateria],
			TotalSesiones: t.SesionesEstimadas,
		}
		if g, ok := guiaPorTema[t.ID]; ok {
			item.GuiaTema = g
			if g.TotalSesiones > 0 {
				item.TotalSesiones = g.TotalSesiones
			}
		}
		if ct, ok := porTema[t.ID]; ok {
			item.Clases = ct.total
			item.Completadas = ct.completadas
		}
		item.Progreso = percent(item.Completadas, item.TotalSesiones)
		if item.Progreso > 100 {
			item.Progreso = 100
		}
		result = append(result, item)
	}

	return result, nil
}

func groupAlertas(clases []*model.Clase) []AlertaGrupo {
	byCat := make(map[model.PreparationCategory][]ClaseResumen)
	for _, c := range clases {
		cat := model.GetPreparationCategory(c.Estado)
		if cat == model.CategoryOtros {
			continue
		}
		byCat[cat] = append(byCat[cat], resumen(c))
	}

	alertas := make([]AlertaGrupo, 0, len(alertOrder))
	for _, cat := range alertOrder {
		if len(byCat[cat]) == 0 {
			continue
		}
		alertas = append(alertas, AlertaGrupo{Categoria: cat, Clases: byCat[cat]})
	}
	return alertas
}

func upcoming(clases []*model.Clase, now time.Time) []ClaseResumen {
	until := now.Add(upcomingWindow)

	var list []*model.Clase
	for _, c := range clases {
		if c.FechaProgramada == nil || c.Estado == model.EstadoCancelada || c.Estado == model.EstadoCompletada {
			continue
		}
		if c.FechaProgramada.Before(now) || c.FechaProgramada.After(until) {
			continue
		}
		list = append(list, c)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].FechaProgramada.Before(*list[j].FechaProgramada)
	})

	result := make([]ClaseResumen, 0, len(list))
	for _, c := range list {
		result = append(result, resumen(c))
	}
	return result
}

func summarizeResultados(resultados []*model.ResultadoClase) ResumenEvaluacion {
	var sumPre, sumPost float64
	var nPre, nPost int
	for _, r := range resultados {
		switch r.Tipo {
		case model.QuizPre:
			sumPre += r.Puntaje
			nPre++
		case model.QuizPost:
			sumPost += r.Puntaje
			nPost++
		}
	}

	res := ResumenEvaluacion{Resultados: len(resultados)}
	if nPre > 0 {
		v := round1(sumPre / float64(nPre))
		res.PromedioPre = &v
	}
	if nPost > 0 {
		v := round1(sumPost / float64(nPost))
		res.PromedioPost = &v
	}
	if res.PromedioPre != nil && res.PromedioPost != nil {
		v := round1(*res.PromedioPost - *res.PromedioPre)
		res.GananciaPromedio = &v
	}
	return res
}

func resumen(c *model.Clase) ClaseResumen {
	r := ClaseResumen{
		ID:              c.ID,
		NumeroSesion:    c.NumeroSesion,
		Estado:          c.Estado,
		EstadoTexto:     model.GetEstadoDisplay(c.Estado).Text,
		FechaProgramada: c.FechaProgramada,
	}
	if c.Tema != nil {
		r.Tema = c.Tema.Nombre
	}
	if c.Grupo != nil {
		r.Grupo = c.Grupo.Nombre
	}
	return r
}

// percent процент с одним знаком, 0 при пустом знаменателе
func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return round1(float64(part) * 100 / float64(total))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
