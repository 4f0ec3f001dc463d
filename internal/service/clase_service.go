package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Freeeeeet/aula_backend/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultDuracionMinutos = 45

type CrearClaseInput struct {
	IDTema          uuid.UUID  `json:"id_tema" validate:"required"`
	IDGrupo         uuid.UUID  `json:"id_grupo" validate:"required"`
	NumeroSesion    *int       `json:"numero_sesion" validate:"omitempty,gte=1"`
	FechaProgramada *time.Time `json:"fecha_programada"`
	DuracionMinutos int        `json:"duracion_minutos" validate:"gte=0,lte=480"`
}

type CrearClaseResult struct {
	Clase         *model.Clase         `json:"clase"`
	ClaseAnterior *model.Clase         `json:"clase_anterior"`
	Recomendacion *model.Recomendacion `json:"recomendacion"`
}

// EstadoClaseView статус занятия для поллинга клиента
type EstadoClaseView struct {
	ID                  uuid.UUID                 `json:"id"`
	Estado              model.EstadoClase         `json:"estado"`
	Stage               model.Stage               `json:"stage"`
	Categoria           model.PreparationCategory `json:"categoria"`
	IDGuiaVersionActual *uuid.UUID                `json:"id_guia_version_actual"`
}

type ClaseService struct {
	tx                TxRunner
	academicoRepo     AcademicoRepository
	claseRepo         ClaseRepository
	guiaTemaRepo      GuiaTemaRepository
	versionRepo       GuiaVersionRepository
	recomendacionRepo RecomendacionRepository
	ai                AIClient
	logger            *zap.Logger
	now               func() time.Time
}

func NewClaseService(
	tx TxRunner,
	academicoRepo AcademicoRepository,
	claseRepo ClaseRepository,
	guiaTemaRepo GuiaTemaRepository,
	versionRepo GuiaVersionRepository,
	recomendacionRepo RecomendacionRepository,
	ai AIClient,
	logger *zap.Logger,
) *ClaseService {
	return &ClaseService{
		tx:                tx,
		academicoRepo:     academicoRepo,
		claseRepo:         claseRepo,
		guiaTemaRepo:      guiaTemaRepo,
		versionRepo:       versionRepo,
		recomendacionRepo: recomendacionRepo,
		ai:                ai,
		logger:            logger,
		now:               time.Now,
	}
}

// CrearClase создаёт занятие в borrador и, если по той же теме и группе уже было
// завершённое занятие, добавляет рекомендацию со ссылкой на него.
// Рекомендация best-effort: её ошибка не отменяет созданное занятие
func (s *ClaseService) CrearClase(ctx context.Context, profesor *model.Profesor, in CrearClaseInput) (*CrearClaseResult, error) {
	tema, err := s.academicoRepo.GetTema(ctx, in.IDTema)
	if err != nil {
		return nil, fmt.Errorf("get tema: %w", err)
	}
	if tema == nil {
		return nil, errTemaNotFound
	}
	grupo, err := s.academicoRepo.GetGrupo(ctx, in.IDGrupo)
	if err != nil {
		return nil, fmt.Errorf("get grupo: %w", err)
	}
	if grupo == nil {
		return nil, errGrupoNotFound
	}

	duracion := in.DuracionMinutos
	if duracion == 0 {
		duracion = defaultDuracionMinutos
	}

	clase := &model.Clase{
		IDTema:          in.IDTema,
		IDGrupo:         in.IDGrupo,
		IDProfesor:      profesor.ID,
		NumeroSesion:    in.NumeroSesion,
		FechaProgramada: in.FechaProgramada,
		DuracionMinutos: duracion,
		Estado:          model.EstadoBorrador,
	}

	guia, err := s.guiaTemaRepo.GetByProfesorTema(ctx, profesor.ID, in.IDTema)
	if err != nil {
		return nil, fmt.Errorf("get guia tema: %w", err)
	}
	if guia != nil {
		clase.IDGuiaTema = &guia.ID
	}

	if err := s.claseRepo.Create(ctx, clase); err != nil {
		return nil, fmt.Errorf("create clase: %w", err)
	}
	s.logger.Info("Clase created",
		zap.String("clase_id", clase.ID.String()),
		zap.String("profesor_id", profesor.ID.String()))
	clase.Tema = tema
	clase.Grupo = grupo

	result := &CrearClaseResult{Clase: clase}

	anterior, err := s.claseRepo.LatestCompleted(ctx, profesor.ID, in.IDTema, in.IDGrupo)
	if err != nil {
		s.logger.Warn("Failed to look up previous clase, skipping recomendacion",
			zap.String("clase_id", clase.ID.String()),
			zap.Error(err))
		return result, nil
	}
	if anterior == nil || anterior.ID == clase.ID {
		return result, nil
	}
	result.ClaseAnterior = anterior

	contenido := model.DefaultRecomendacion
	if anterior.Observaciones != nil && *anterior.Observaciones != "" {
		contenido = *anterior.Observaciones
	}

	rec := &model.Recomendacion{
		IDClase:         clase.ID,
		IDClaseAnterior: anterior.ID,
		Tipo:            model.RecomendacionContinuidad,
		Contenido:       contenido,
	}
	if err := s.recomendacionRepo.Create(ctx, rec); err != nil {
		s.logger.Warn("Failed to create recomendacion, clase kept without it",
			zap.String("clase_id", clase.ID.String()),
			zap.String("clase_anterior_id", anterior.ID.String()),
			zap.Error(err))
		return result, nil
	}
	result.Recomendacion = rec

	s.logger.Debug("Recomendacion created",
		zap.String("clase_id", clase.ID.String()),
		zap.String("clase_anterior_id", anterior.ID.String()))

	return result, nil
}

// ownClase загружает занятие и проверяет что оно принадлежит учителю
func (s *ClaseService) ownClase(ctx context.Context, profesor *model.Profesor, claseID uuid.UUID) (*model.Clase, error) {
	clase, err := s.claseRepo.GetByID(ctx, claseID)
	if err != nil {
		return nil, fmt.Errorf("get clase: %w", err)
	}
	if clase == nil {
		return nil, errClaseNotFound
	}
	if clase.IDProfesor != profesor.ID {
		return nil, ErrForbidden
	}
	return clase, nil
}

type guiaTexto struct {
	Formato string `json:"formato"`
	Texto   string `json:"texto"`
}

// GenerarGuia генерирует свободный текст гида занятия через ИИ и делает его текущей версией
func (s *ClaseService) GenerarGuia(ctx context.Context, profesor *model.Profesor, claseID uuid.UUID) (*model.GuiaVersion, error) {
	clase, err := s.ownClase(ctx, profesor, claseID)
	if err != nil {
		return nil, err
	}

	tema, err := s.academicoRepo.GetTema(ctx, clase.IDTema)
	if err != nil {
		return nil, fmt.Errorf("get tema: %w", err)
	}
	if tema == nil {
		return nil, errTemaNotFound
	}
	grupo, err := s.academicoRepo.GetGrupo(ctx, clase.IDGrupo)
	if err != nil {
		return nil, fmt.Errorf("get grupo: %w", err)
	}
	if grupo == nil {
		return nil, errGrupoNotFound
	}
	guia, err := s.guiaTemaRepo.GetByProfesorTema(ctx, profesor.ID, clase.IDTema)
	if err != nil {
		return nil, fmt.Errorf("get guia tema: %w", err)
	}

	previo := clase.Estado
	if err := s.claseRepo.UpdateEstado(ctx, clase.ID, model.EstadoGenerandoGuia, nil, nil); err != nil {
		return nil, fmt.Errorf("mark clase generating: %w", err)
	}

	texto, err := s.ai.GenerateText(ctx, systemPromptGuiaClase, buildGuiaClasePrompt(tema, grupo, guia, clase))
	if err != nil {
		if rerr := s.claseRepo.UpdateEstado(ctx, clase.ID, previo, nil, nil); rerr != nil {
			s.logger.Error("Failed to restore clase estado after AI error",
				zap.String("clase_id", clase.ID.String()),
				zap.Error(rerr))
		}
		return nil, fmt.Errorf("generate guia: %w", err)
	}

	contenido, err := json.Marshal(guiaTexto{Formato: "texto", Texto: texto})
	if err != nil {
		return nil, fmt.Errorf("marshal guia: %w", err)
	}

	version := &model.GuiaVersion{
		IDClase:    clase.ID,
		Contenido:  contenido,
		EsFinal:    false,
		GeneradaIA: true,
		CreatedBy:  &profesor.UserID,
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.versionRepo.Create(ctx, version); err != nil {
			return fmt.Errorf("create guia version: %w", err)
		}
		if err := s.claseRepo.SetGuiaVersion(ctx, clase.ID, version.ID); err != nil {
			return fmt.Errorf("link guia version: %w", err)
		}
		return s.claseRepo.UpdateEstado(ctx, clase.ID, model.EstadoEditandoGuia, nil, nil)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Guia generated",
		zap.String("clase_id", clase.ID.String()),
		zap.String("version_id", version.ID.String()),
		zap.Int("version_numero", version.VersionNumero))

	return version, nil
}

// ValidarClase учитель утверждает текущую версию гида
func (s *ClaseService) ValidarClase(ctx context.Context, profesor *model.Profesor, claseID uuid.UUID) (*model.Clase, error) {
	clase, err := s.ownClase(ctx, profesor, claseID)
	if err != nil {
		return nil, err
	}
	if clase.IDGuiaVersionActual == nil {
		return nil, errGuiaVersionNotFound
	}

	versionID := *clase.IDGuiaVersionActual
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.versionRepo.MarkFinal(ctx, versionID); err != nil {
			return fmt.Errorf("mark version final: %w", err)
		}
		return s.claseRepo.UpdateEstado(ctx, clase.ID, model.EstadoGuiaAprobada, nil, nil)
	})
	if err != nil {
		return nil, err
	}

	clase.Estado = model.EstadoGuiaAprobada
	s.logger.Info("Clase guia approved",
		zap.String("clase_id", clase.ID.String()),
		zap.String("version_id", versionID.String()))

	return clase, nil
}

type ActualizarEstadoInput struct {
	IDClase       uuid.UUID `json:"id_clase" validate:"required"`
	Estado        string    `json:"estado" validate:"required"`
	Observaciones *string   `json:"observaciones"`
}

// ActualizarEstado записывает любой статус словаря; таблицы переходов нет
func (s *ClaseService) ActualizarEstado(ctx context.Context, profesor *model.Profesor, in ActualizarEstadoInput) (*EstadoClaseView, error) {
	estado := model.EstadoClase(in.Estado)
	if !estado.IsValid() {
		return nil, invalidInput("Estado de clase desconocido: %s", in.Estado)
	}

	clase, err := s.ownClase(ctx, profesor, in.IDClase)
	if err != nil {
		return nil, err
	}

	var fechaEjecucion *time.Time
	if estado == model.EstadoCompletada {
		now := s.now()
		fechaEjecucion = &now
	}

	if err := s.claseRepo.UpdateEstado(ctx, clase.ID, estado, fechaEjecucion, in.Observaciones); err != nil {
		return nil, fmt.Errorf("update estado: %w", err)
	}

	clase.Estado = estado
	return estadoView(clase), nil
}

// GetEstado статус занятия для клиентского поллинга
func (s *ClaseService) GetEstado(ctx context.Context, profesor *model.Profesor, claseID uuid.UUID) (*EstadoClaseView, error) {
	clase, err := s.ownClase(ctx, profesor, claseID)
	if err != nil {
		return nil, err
	}
	return estadoView(clase), nil
}

func estadoView(clase *model.Clase) *EstadoClaseView {
	return &EstadoClaseView{
		ID:                  clase.ID,
		Estado:              clase.Estado,
		Stage:               clase.Estado.Stage(),
		Categoria:           model.GetPreparationCategory(clase.Estado),
		IDGuiaVersionActual: clase.IDGuiaVersionActual,
	}
}
