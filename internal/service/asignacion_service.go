package service

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/aula_backend/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AsignacionInput данные назначения от администратора
type AsignacionInput struct {
	IDProfesor     uuid.UUID `json:"id_profesor" validate:"required"`
	IDMateria      uuid.UUID `json:"id_materia" validate:"required"`
	IDGrupo        uuid.UUID `json:"id_grupo" validate:"required"`
	AnioEscolar    string    `json:"anio_escolar" validate:"required,max=20"`
	HorasSemanales int       `json:"horas_semanales" validate:"gte=0,lte=60"`
}

// ValidationResult результат проверки: error блокирует, warnings только информируют
type ValidationResult struct {
	IsValid  bool     `json:"isValid"`
	Error    string   `json:"error,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

func invalid(msg string) ValidationResult {
	return ValidationResult{IsValid: false, Error: msg}
}

type AsignacionService struct {
	profesorRepo   ProfesorRepository
	academicoRepo  AcademicoRepository
	asignacionRepo AsignacionRepository
	logger         *zap.Logger
}

func NewAsignacionService(
	profesorRepo ProfesorRepository,
	academicoRepo AcademicoRepository,
	asignacionRepo AsignacionRepository,
	logger *zap.Logger,
) *AsignacionService {
	return &AsignacionService{
		profesorRepo:   profesorRepo,
		academicoRepo:  academicoRepo,
		asignacionRepo: asignacionRepo,
		logger:         logger,
	}
}

// Validate последовательные проверки, первая неудачная прерывает остальные.
// existingID исключает редактируемую запись из проверки дубликатов и суммы часов
func (s *AsignacionService) Validate(ctx context.Context, in AsignacionInput, existingID *uuid.UUID) ValidationResult {
	// 1. Учитель существует и активен
	profesor, err := s.profesorRepo.GetByID(ctx, in.IDProfesor)
	if err != nil {
		s.logger.Error("Asignacion check failed: profesor", zap.String("profesor_id", in.IDProfesor.String()), zap.Error(err))
		return invalid("Error al verificar el profesor")
	}
	if profesor == nil {
		return invalid("El profesor seleccionado no existe")
	}
	if !profesor.Activo {
		return invalid(fmt.Sprintf("El profesor %s no está activo", profesor.NombreCompleto()))
	}

	// 2. Класс учебного плана предмета совпадает с классом группы
	materia, err := s.academicoRepo.GetMateria(ctx, in.IDMateria)
	if err != nil {
		s.logger.Error("Asignacion check failed: materia", zap.String("materia_id", in.IDMateria.String()), zap.Error(err))
		return invalid("Error al verificar la materia")
	}
	if materia == nil || materia.Plan == nil {
		return invalid("La materia seleccionada no existe")
	}

	grupo, err := s.academicoRepo.GetGrupo(ctx, in.IDGrupo)
	if err != nil {
		s.logger.Error("Asignacion check failed: grupo", zap.String("grupo_id", in.IDGrupo.String()), zap.Error(err))
		return invalid("Error al verificar el grupo")
	}
	if grupo == nil {
		return invalid("El grupo seleccionado no existe")
	}

	if materia.Plan.Grado != grupo.Grado {
		return invalid(fmt.Sprintf(
			"El grado de la materia (%s) no coincide con el grado del grupo (%s)",
			materia.Plan.Grado, grupo.Grado,
		))
	}

	// 3. Нет такого же назначения
	dup, err := s.asignacionRepo.FindDuplicate(ctx, in.IDProfesor, in.IDMateria, in.IDGrupo, in.AnioEscolar, existingID)
	if err != nil {
		s.logger.Error("Asignacion check failed: duplicate", zap.Error(err))
		return invalid("Error al verificar asignaciones duplicadas")
	}
	if dup != nil {
		return invalid(fmt.Sprintf(
			"Ya existe una asignación de %s para %s en el grupo %s (año %s)",
			profesor.NombreCompleto(), materia.Nombre, grupo.Nombre, in.AnioEscolar,
		))
	}

	// 4. Нагрузка: превышение лимита только предупреждение
	otras, err := s.asignacionRepo.SumHoras(ctx, in.IDProfesor, in.AnioEscolar, existingID)
	if err != nil {
		s.logger.Error("Asignacion check failed: workload", zap.Error(err))
		return invalid("Error al verificar la carga horaria del profesor")
	}

	result := ValidationResult{IsValid: true}
	if total := otras + in.HorasSemanales; total > model.MaxHorasSemanales {
		result.Warnings = append(result.Warnings, fmt.Sprintf(
			"El profesor tendría %d horas semanales asignadas en %s (máximo recomendado: %d)",
			total, in.AnioEscolar, model.MaxHorasSemanales,
		))
	}

	return result
}

// Create проверяет и создаёт назначение; при невалидных данных запись не создаётся
func (s *AsignacionService) Create(ctx context.Context, in AsignacionInput) (*model.Asignacion, ValidationResult, error) {
	result := s.Validate(ctx, in, nil)
	if !result.IsValid {
		return nil, result, nil
	}

	asignacion := &model.Asignacion{
		IDProfesor:     in.IDProfesor,
		IDMateria:      in.IDMateria,
		IDGrupo:        in.IDGrupo,
		AnioEscolar:    in.AnioEscolar,
		HorasSemanales: in.HorasSemanales,
	}
	if err := s.asignacionRepo.Create(ctx, asignacion); err != nil {
		return nil, result, fmt.Errorf("create asignacion: %w", err)
	}

	return asignacion, result, nil
}

// Update проверяет и обновляет существующее назначение
func (s *AsignacionService) Update(ctx context.Context, id uuid.UUID, in AsignacionInput) (*model.Asignacion, ValidationResult, error) {
	result := s.Validate(ctx, in, &id)
	if !result.IsValid {
		return nil, result, nil
	}

	asignacion := &model.Asignacion{
		ID:             id,
		IDProfesor:     in.IDProfesor,
		IDMateria:      in.IDMateria,
		IDGrupo:        in.IDGrupo,
		AnioEscolar:    in.AnioEscolar,
		HorasSemanales: in.HorasSemanales,
	}
	if err := s.asignacionRepo.Update(ctx, asignacion); err != nil {
		return nil, result, fmt.Errorf("update asignacion: %w", err)
	}

	s.logger.Info("Asignacion updated", zap.String("asignacion_id", id.String()))

	return asignacion, result, nil
}
