package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/aula_backend/internal/model"
	"github.com/Freeeeeet/aula_backend/internal/repository/base"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// AcademicoRepository справочники: учебные планы, предметы, темы, группы
type AcademicoRepository struct {
	*base.Repository
}

func NewAcademicoRepository(db *base.Repository) *AcademicoRepository {
	return &AcademicoRepository{Repository: db}
}

// ListPlanes все учебные планы
func (r *AcademicoRepository) ListPlanes(ctx context.Context) ([]*model.PlanAnual, error) {
	rows, err := r.Query(ctx, `
		SELECT id, nombre, grado, anio_escolar, descripcion, activo, created_at
		FROM plan_anual
		ORDER BY anio_escolar DESC, grado
	`)
	if err != nil {
		return nil, fmt.Errorf("list planes: %w", err)
	}
	defer rows.Close()

	var planes []*model.PlanAnual
	for rows.Next() {
		var p model.PlanAnual
		if err := rows.Scan(&p.ID, &p.Nombre, &p.Grado, &p.AnioEscolar, &p.Descripcion, &p.Activo, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan plan: %w", err)
		}
		planes = append(planes, &p)
	}
	return planes, rows.Err()
}

const materiaColumns = `
	m.id, m.id_plan_anual, m.nombre, m.descripcion, m.horas_semanales, m.created_at,
	p.id, p.nombre, p.grado, p.anio_escolar, p.descripcion, p.activo, p.created_at`

func scanMateria(row pgx.Row) (*model.Materia, error) {
	var m model.Materia
	var p model.PlanAnual
	if err := row.Scan(
		&m.ID, &m.IDPlanAnual, &m.Nombre, &m.Descripcion, &m.HorasSemanales, &m.CreatedAt,
		&p.ID, &p.Nombre, &p.Grado, &p.AnioEscolar, &p.Descripcion, &p.Activo, &p.CreatedAt,
	); err != nil {
		return nil, err
	}
	m.Plan = &p
	return &m, nil
}

// GetMateria предмет вместе с учебным планом
func (r *AcademicoRepository) GetMateria(ctx context.Context, id uuid.UUID) (*model.Materia, error) {
	m, err := scanMateria(r.QueryRow(ctx, `
		SELECT `+materiaColumns+`
		FROM materias m
		INNER JOIN plan_anual p ON p.id = m.id_plan_anual
		WHERE m.id = $1
	`, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get materia: %w", err)
	}
	return m, nil
}

// ListMaterias все предметы с планами
func (r *AcademicoRepository) ListMaterias(ctx context.Context) ([]*model.Materia, error) {
	rows, err := r.Query(ctx, `
		SELECT `+materiaColumns+`
		FROM materias m
		INNER JOIN plan_anual p ON p.id = m.id_plan_anual
		ORDER BY p.grado, m.nombre
	`)
	if err != nil {
		return nil, fmt.Errorf("list materias: %w", err)
	}
	defer rows.Close()

	var materias []*model.Materia
	for rows.Next() {
		m, err := scanMateria(rows)
		if err != nil {
			return nil, fmt.Errorf("scan materia: %w", err)
		}
		materias = append(materias, m)
	}
	return materias, rows.Err()
}

const temaColumns = `id, id_materia, nombre, descripcion, orden, sesiones_estimadas, created_at`

func scanTema(row pgx.Row) (*model.Tema, error) {
	var t model.Tema
	if err := row.Scan(&t.ID, &t.IDMateria, &t.Nombre, &t.Descripcion, &t.Orden, &t.SesionesEstimadas, &t.CreatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

// GetTema тема по ID
func (r *AcademicoRepository) GetTema(ctx context.Context, id uuid.UUID) (*model.Tema, error) {
	t, err := scanTema(r.QueryRow(ctx, `SELECT `+temaColumns+` FROM temas WHERE id = $1`, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get tema: %w", err)
	}
	return t, nil
}

// ListTemas темы предметов; nil materiaIDs = все темы
func (r *AcademicoRepository) ListTemas(ctx context.Context, materiaIDs []uuid.UUID) ([]*model.Tema, error) {
	query := `SELECT ` + temaColumns + ` FROM temas ORDER BY id_materia, orden`
	args := []any{}
	if materiaIDs != nil {
		if len(materiaIDs) == 0 {
			return []*model.Tema{}, nil
		}
		query = `SELECT ` + temaColumns + ` FROM temas WHERE id_materia = ANY($1) ORDER BY id_materia, orden`
		args = append(args, materiaIDs)
	}

	rows, err := r.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list temas: %w", err)
	}
	defer rows.Close()

	var temas []*model.Tema
	for rows.Next() {
		t, err := scanTema(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tema: %w", err)
		}
		temas = append(temas, t)
	}
	return temas, rows.Err()
}

const grupoColumns = `id, nombre, grado, seccion, anio_escolar, cantidad_alumnos, created_at`

func scanGrupo(row pgx.Row) (*model.Grupo, error) {
	var g model.Grupo
	if err := row.Scan(&g.ID, &g.Nombre, &g.Grado, &g.Seccion, &g.AnioEscolar, &g.CantidadAlumnos, &g.CreatedAt); err != nil {
		return nil, err
	}
	return &g, nil
}

// GetGrupo группа по ID
func (r *AcademicoRepository) GetGrupo(ctx context.Context, id uuid.UUID) (*model.Grupo, error) {
	g, err := scanGrupo(r.QueryRow(ctx, `SELECT `+grupoColumns+` FROM grupos WHERE id = $1`, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get grupo: %w", err)
	}
	return g, nil
}

// ListGrupos все группы
func (r *AcademicoRepository) ListGrupos(ctx context.Context) ([]*model.Grupo, error) {
	rows, err := r.Query(ctx, `SELECT `+grupoColumns+` FROM grupos ORDER BY grado, nombre`)
	if err != nil {
		return nil, fmt.Errorf("list grupos: %w", err)
	}
	defer rows.Close()

	var grupos []*model.Grupo
	for rows.Next() {
		g, err := scanGrupo(rows)
		if err != nil {
			return nil, fmt.Errorf("scan grupo: %w", err)
		}
		grupos = append(grupos, g)
	}
	return grupos, rows.Err()
}
