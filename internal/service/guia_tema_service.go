package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Freeeeeet/aula_backend/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type IniciarTemaInput struct {
	IDTema             uuid.UUID          `json:"id_tema" validate:"required"`
	Contenido          string             `json:"contenido"`
	Objetivos          string             `json:"objetivos"`
	EstructuraSesiones []model.SesionPlan `json:"estructura_sesiones" validate:"dive"`
	TotalSesiones      int                `json:"total_sesiones" validate:"gte=0,lte=100"`
	GenerarEstructura  bool               `json:"generar_estructura"`
}

type ActualizarGuiaTemaInput struct {
	IDTema             uuid.UUID          `json:"id_tema" validate:"required"`
	Contenido          *string            `json:"contenido"`
	Objetivos          *string            `json:"objetivos"`
	EstructuraSesiones []model.SesionPlan `json:"estructura_sesiones" validate:"omitempty,dive"`
	TotalSesiones      *int               `json:"total_sesiones" validate:"omitempty,gte=0,lte=100"`
}

type estructuraDraft struct {
	Sesiones []model.SesionPlan `json:"sesiones"`
}

// GuiaTemaService мастер-гиды учителя
type GuiaTemaService struct {
	academicoRepo AcademicoRepository
	guiaTemaRepo  GuiaTemaRepository
	ai            AIClient
	logger        *zap.Logger
}

func NewGuiaTemaService(academicoRepo AcademicoRepository, guiaTemaRepo GuiaTemaRepository, ai AIClient, logger *zap.Logger) *GuiaTemaService {
	return &GuiaTemaService{
		academicoRepo: academicoRepo,
		guiaTemaRepo:  guiaTemaRepo,
		ai:            ai,
		logger:        logger,
	}
}

// IniciarTema создаёт единственный мастер-гид для пары (profesor, tema)
func (s *GuiaTemaService) IniciarTema(ctx context.Context, profesor *model.Profesor, in IniciarTemaInput) (*model.GuiaTema, error) {
	tema, err := s.academicoRepo.GetTema(ctx, in.IDTema)
	if err != nil {
		return nil, fmt.Errorf("get tema: %w", err)
	}
	if tema == nil {
		return nil, errTemaNotFound
	}

	existing, err := s.guiaTemaRepo.GetByProfesorTema(ctx, profesor.ID, in.IDTema)
	if err != nil {
		return nil, fmt.Errorf("get guia tema: %w", err)
	}
	if existing != nil {
		return nil, &ConflictError{Message: fmt.Sprintf("Ya tienes una guía maestra para el tema «%s». Edítala en lugar de crear otra.", tema.Nombre)}
	}

	total := in.TotalSesiones
	if total == 0 {
		total = tema.SesionesEstimadas
	}
	if total == 0 {
		total = len(in.EstructuraSesiones)
	}

	sesiones := in.EstructuraSesiones
	if len(sesiones) == 0 && in.GenerarEstructura && total > 0 {
		var draft estructuraDraft
		if err := s.ai.GenerateJSON(ctx, systemPromptEstructura, buildEstructuraPrompt(tema, in.Contenido, total), &draft); err != nil {
			return nil, fmt.Errorf("draft session structure: %w", err)
		}
		sesiones = draft.Sesiones
		s.logger.Info("Session structure drafted",
			zap.String("tema_id", tema.ID.String()),
			zap.Int("sesiones", len(sesiones)))
	}

	estructura, err := marshalEstructura(sesiones)
	if err != nil {
		return nil, err
	}

	guia := &model.GuiaTema{
		IDProfesor:         profesor.ID,
		IDTema:             in.IDTema,
		Contenido:          in.Contenido,
		Objetivos:          in.Objetivos,
		EstructuraSesiones: estructura,
		TotalSesiones:      total,
	}
	if err := s.guiaTemaRepo.Create(ctx, guia); err != nil {
		return nil, fmt.Errorf("create guia tema: %w", err)
	}

	s.logger.Info("Guia tema created",
		zap.String("guia_tema_id", guia.ID.String()),
		zap.String("profesor_id", profesor.ID.String()),
		zap.Int("total_sesiones", total))

	return guia, nil
}

// ActualizarGuiaTema меняет только переданные поля. total_sesiones не сверяется с уже
// запланированными занятиями, расхождение правит учитель
func (s *GuiaTemaService) ActualizarGuiaTema(ctx context.Context, profesor *model.Profesor, in ActualizarGuiaTemaInput) (*model.GuiaTema, error) {
	guia, err := s.guiaTemaRepo.GetByProfesorTema(ctx, profesor.ID, in.IDTema)
	if err != nil {
		return nil, fmt.Errorf("get guia tema: %w", err)
	}
	if guia == nil {
		return nil, errGuiaTemaNotFound
	}

	if in.Contenido != nil {
		guia.Contenido = *in.Contenido
	}
	if in.Objetivos != nil {
		guia.Objetivos = *in.Objetivos
	}
	if in.EstructuraSesiones != nil {
		estructura, err := marshalEstructura(in.EstructuraSesiones)
		if err != nil {
			return nil, err
		}
		guia.EstructuraSesiones = estructura
	}
	if in.TotalSesiones != nil {
		guia.TotalSesiones = *in.TotalSesiones
	}

	if err := s.guiaTemaRepo.Update(ctx, guia); err != nil {
		return nil, fmt.Errorf("update guia tema: %w", err)
	}

	return guia, nil
}

func marshalEstructura(sesiones []model.SesionPlan) (json.RawMessage, error) {
	if sesiones == nil {
		sesiones = []model.SesionPlan{}
	}
	data, err := json.Marshal(sesiones)
	if err != nil {
		return nil, fmt.Errorf("marshal estructura sesiones: %w", err)
	}
	return data, nil
}
