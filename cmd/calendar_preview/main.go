package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/Freeeeeet/aula_backend/internal/calendar"
	"github.com/Freeeeeet/aula_backend/internal/model"
)

// Рисует неделю с тестовыми занятиями, чтобы проверить вёрстку без базы
func main() {
	out := flag.String("o", "semana.png", "output file")
	flag.Parse()

	now := time.Now()
	monday := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	for monday.Weekday() != time.Monday {
		monday = monday.AddDate(0, 0, -1)
	}

	fracciones := &model.Tema{Nombre: "Fracciones equivalentes"}
	lectura := &model.Tema{Nombre: "Comprensión lectora: textos narrativos"}
	grupoA := &model.Grupo{Nombre: "3°A"}
	grupoB := &model.Grupo{Nombre: "3°B"}

	clases := []*model.Clase{
		// Понедельник
		demo(monday, 8*time.Hour, 45, model.EstadoBorrador, fracciones, grupoA, 1),
		demo(monday, 10*time.Hour, 90, model.EstadoGuiaAprobada, lectura, grupoB, 2),
		// Вторник
		demo(monday.AddDate(0, 0, 1), 9*time.Hour, 45, model.EstadoQuizPreEnviado, fracciones, grupoA, 2),
		// Среда
		demo(monday.AddDate(0, 0, 2), 11*time.Hour+30*time.Minute, 45, model.EstadoEnClase, lectura, grupoA, 3),
		demo(monday.AddDate(0, 0, 2), 13*time.Hour, 60, model.EstadoEditandoGuia, fracciones, grupoB, 1),
		// Пятница
		demo(monday.AddDate(0, 0, 4), 8*time.Hour, 45, model.EstadoCompletada, fracciones, grupoA, 3),
		demo(monday.AddDate(0, 0, 4), 14*time.Hour, 45, model.EstadoReprogramada, lectura, grupoB, 4),
	}

	data, err := calendar.WeekImage(monday, clases, now)
	if err != nil {
		fmt.Fprintf(os.Stderr, "render week: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, data, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "write %s: %v\n", *out, err)
		os.Exit(1)
	}

	fmt.Printf("Saved %s (%s - %s, %d clases)\n", *out,
		monday.Format("02.01.2006"), monday.AddDate(0, 0, 6).Format("02.01.2006"), len(clases))
}

func demo(day time.Time, at time.Duration, minutes int, estado model.EstadoClase, tema *model.Tema, grupo *model.Grupo, sesion int) *model.Clase {
	fecha := day.Add(at)
	return &model.Clase{
		Estado:          estado,
		FechaProgramada: &fecha,
		DuracionMinutos: minutes,
		NumeroSesion:    &sesion,
		Tema:            tema,
		Grupo:           grupo,
	}
}
