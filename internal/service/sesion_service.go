package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Freeeeeet/aula_backend/internal/model"
	"github.com/Freeeeeet/aula_backend/internal/notify"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ProgramarSesionInput struct {
	IDTema          uuid.UUID  `json:"id_tema" validate:"required"`
	IDGrupo         uuid.UUID  `json:"id_grupo" validate:"required"`
	NumeroSesion    int        `json:"numero_sesion" validate:"required,gte=1"`
	FechaProgramada *time.Time `json:"fecha_programada"`
	DuracionMinutos int        `json:"duracion_minutos" validate:"gte=0,lte=480"`
}

type ProgramarSesionResult struct {
	Clase       *model.Clase       `json:"clase"`
	GuiaVersion *model.GuiaVersion `json:"guia_version"`
	Guia        *model.GuiaSesion  `json:"guia"`
	Sesion      model.SesionPlan   `json:"sesion"`
}

type SesionService struct {
	tx            TxRunner
	academicoRepo AcademicoRepository
	guiaTemaRepo  GuiaTemaRepository
	claseRepo     ClaseRepository
	versionRepo   GuiaVersionRepository
	ai            AIClient
	notifier      notify.Notifier
	logger        *zap.Logger
}

func NewSesionService(
	tx TxRunner,
	academicoRepo AcademicoRepository,
	guiaTemaRepo GuiaTemaRepository,
	claseRepo ClaseRepository,
	versionRepo GuiaVersionRepository,
	ai AIClient,
	notifier notify.Notifier,
	logger *zap.Logger,
) *SesionService {
	return &SesionService{
		tx:            tx,
		academicoRepo: academicoRepo,
		guiaTemaRepo:  guiaTemaRepo,
		claseRepo:     claseRepo,
		versionRepo:   versionRepo,
		ai:            ai,
		notifier:      notifier,
		logger:        logger,
	}
}

// ProgramarSesion адаптирует мастер-гид к сессии через ИИ и сохраняет утверждённое занятие.
// Вызов ИИ идёт до транзакции; три записи (clase, version, ссылка) атомарны
func (s *SesionService) ProgramarSesion(ctx context.Context, profesor *model.Profesor, in ProgramarSesionInput) (*ProgramarSesionResult, error) {
	guia, err := s.guiaTemaRepo.GetByProfesorTema(ctx, profesor.ID, in.IDTema)
	if err != nil {
		return nil, fmt.Errorf("get guia tema: %w", err)
	}
	if guia == nil {
		return nil, errGuiaTemaNotFound
	}

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

	sesion, found := guia.FindSesion(in.NumeroSesion)
	if !found {
		s.logger.Info("Session blueprint not found, using placeholders",
			zap.String("guia_tema_id", guia.ID.String()),
			zap.Int("numero_sesion", in.NumeroSesion))
	}

	duracion := in.DuracionMinutos
	if duracion == 0 {
		duracion = defaultDuracionMinutos
	}

	// ответ ИИ сохраняется как есть, схема не проверяется
	var contenido json.RawMessage
	if err := s.ai.GenerateJSON(ctx, systemPromptSesion, buildSesionPrompt(tema, grupo, guia, sesion, duracion), &contenido); err != nil {
		return nil, fmt.Errorf("adapt guia to session: %w", err)
	}

	numero := in.NumeroSesion
	clase := &model.Clase{
		IDTema:          in.IDTema,
		IDGrupo:         in.IDGrupo,
		IDProfesor:      profesor.ID,
		IDGuiaTema:      &guia.ID,
		NumeroSesion:    &numero,
		FechaProgramada: in.FechaProgramada,
		DuracionMinutos: duracion,
		Estado:          model.EstadoGuiaAprobada,
	}
	version := &model.GuiaVersion{
		Contenido:  contenido,
		EsFinal:    true,
		GeneradaIA: true,
		CreatedBy:  &profesor.UserID,
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.claseRepo.Create(ctx, clase); err != nil {
			return fmt.Errorf("create clase: %w", err)
		}
		version.IDClase = clase.ID
		if err := s.versionRepo.Create(ctx, version); err != nil {
			return fmt.Errorf("create guia version: %w", err)
		}
		if err := s.claseRepo.SetGuiaVersion(ctx, clase.ID, version.ID); err != nil {
			return fmt.Errorf("link guia version: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	clase.IDGuiaVersionActual = &version.ID
	clase.Tema = tema
	clase.Grupo = grupo

	s.logger.Info("Session scheduled",
		zap.String("clase_id", clase.ID.String()),
		zap.String("profesor_id", profesor.ID.String()),
		zap.Int("numero_sesion", numero),
		zap.Bool("blueprint_found", found))

	s.notifyScheduled(ctx, profesor, tema, grupo, clase, sesion)

	return &ProgramarSesionResult{
		Clase:       clase,
		GuiaVersion: version,
		Guia:        s.guiaView(contenido, sesion),
		Sesion:      sesion,
	}, nil
}

// guiaView типизированный вид гида для ответа; nil если поля ответа ИИ другого типа
func (s *SesionService) guiaView(contenido json.RawMessage, sesion model.SesionPlan) *model.GuiaSesion {
	var guia model.GuiaSesion
	if err := json.Unmarshal(contenido, &guia); err != nil {
		s.logger.Debug("AI session guide does not match display shape", zap.Error(err))
		return nil
	}
	if guia.Titulo == "" {
		guia.Titulo = sesion.Titulo
	}
	return &guia
}

// notifyScheduled сообщение в Telegram, ошибки только логируются
func (s *SesionService) notifyScheduled(ctx context.Context, profesor *model.Profesor, tema *model.Tema, grupo *model.Grupo, clase *model.Clase, sesion model.SesionPlan) {
	if s.notifier == nil || !s.notifier.Enabled() || profesor.TelegramChatID == nil {
		return
	}

	text := fmt.Sprintf("📘 Guía lista para la sesión %d de «%s»\nGrupo: %s\nSesión: %s",
		*clase.NumeroSesion, tema.Nombre, grupo.Nombre, sesion.Titulo)
	if clase.FechaProgramada != nil {
		text += "\nFecha: " + clase.FechaProgramada.Format("02.01.2006 15:04")
	}

	if err := s.notifier.Send(ctx, *profesor.TelegramChatID, text); err != nil {
		s.logger.Warn("Failed to send session notification",
			zap.String("clase_id", clase.ID.String()),
			zap.Error(err))
	}
}
