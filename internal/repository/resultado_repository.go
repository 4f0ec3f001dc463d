package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/aula_backend/internal/model"
	"github.com/Freeeeeet/aula_backend/internal/repository/base"
	"github.com/google/uuid"
)

// ResultadoRepository квизы и результаты учеников
type ResultadoRepository struct {
	*base.Repository
}

func NewResultadoRepository(db *base.Repository) *ResultadoRepository {
	return &ResultadoRepository{Repository: db}
}

// ListQuizzesByProfesor квизы всех занятий учителя
func (r *ResultadoRepository) ListQuizzesByProfesor(ctx context.Context, profesorID uuid.UUID) ([]*model.Quiz, error) {
	rows, err := r.Query(ctx, `
		SELECT q.id, q.id_clase, q.tipo, q.titulo, q.estado, q.created_at
		FROM quizzes q
		INNER JOIN clases c ON c.id = q.id_clase
		WHERE c.id_profesor = $1
	`, profesorID)
	if err != nil {
		return nil, fmt.Errorf("list quizzes by profesor: %w", err)
	}
	defer rows.Close()

	var quizzes []*model.Quiz
	for rows.Next() {
		var q model.Quiz
		if err := rows.Scan(&q.ID, &q.IDClase, &q.Tipo, &q.Titulo, &q.Estado, &q.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan quiz: %w", err)
		}
		quizzes = append(quizzes, &q)
	}
	return quizzes, rows.Err()
}

// ListByProfesor результаты по занятиям учителя, tipo берётся из квиза
func (r *ResultadoRepository) ListByProfesor(ctx context.Context, profesorID uuid.UUID) ([]*model.ResultadoClase, error) {
	rows, err := r.Query(ctx, `
		SELECT rc.id, rc.id_clase, rc.id_quiz, rc.id_alumno, q.tipo, rc.puntaje::float8, rc.created_at
		FROM resultados_clase rc
		INNER JOIN quizzes q ON q.id = rc.id_quiz
		INNER JOIN clases c ON c.id = rc.id_clase
		WHERE c.id_profesor = $1
	`, profesorID)
	if err != nil {
		return nil, fmt.Errorf("list resultados by profesor: %w", err)
	}
	defer rows.Close()

	var resultados []*model.ResultadoClase
	for rows.Next() {
		var rc model.ResultadoClase
		if err := rows.Scan(&rc.ID, &rc.IDClase, &rc.IDQuiz, &rc.IDAlumno, &rc.Tipo, &rc.Puntaje, &rc.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan resultado: %w", err)
		}
		resultados = append(resultados, &rc)
	}
	return resultados, rows.Err()
}
