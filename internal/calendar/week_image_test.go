package calendar

import (
	"bytes"
	"image/png"
	"testing"
	"time"

	"github.com/Freeeeeet/aula_backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(t time.Time) *time.Time { return &t }

func TestWeekOf(t *testing.T) {
	wed := time.Date(2025, 5, 7, 15, 30, 0, 0, time.UTC)
	week := weekOf(wed)
	assert.Equal(t, time.Date(2025, 5, 5, 0, 0, 0, 0, time.UTC), week.start)
	assert.Equal(t, time.Date(2025, 5, 11, 0, 0, 0, 0, time.UTC), week.end)

	sun := time.Date(2025, 5, 11, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, week.start, weekOf(sun).start)
}

func TestGroupByDaySkipsOutsideWeek(t *testing.T) {
	week := weekOf(time.Date(2025, 5, 7, 0, 0, 0, 0, time.UTC))
	clases := []*model.Clase{
		{FechaProgramada: at(time.Date(2025, 5, 5, 8, 0, 0, 0, time.UTC))},
		{FechaProgramada: at(time.Date(2025, 5, 11, 23, 0, 0, 0, time.UTC))},
		{FechaProgramada: at(time.Date(2025, 5, 12, 8, 0, 0, 0, time.UTC))},
		{FechaProgramada: nil},
	}

	byDay := groupByDay(clases, week)
	assert.Len(t, byDay["2025-05-05"], 1)
	assert.Len(t, byDay["2025-05-11"], 1)
	assert.NotContains(t, byDay, "2025-05-12")
}

func TestCalculateHourRange(t *testing.T) {
	empty := calculateHourRange(nil)
	assert.Equal(t, defaultMinHour-hourPaddingTop, empty.start)

	byDay := map[string][]*model.Clase{
		"2025-05-05": {{FechaProgramada: at(time.Date(2025, 5, 5, 9, 0, 0, 0, time.UTC)), DuracionMinutos: 90}},
	}
	hr := calculateHourRange(byDay)
	assert.Equal(t, 8, hr.start)
	assert.Equal(t, 12, hr.end)
	assert.Equal(t, 5, hr.total)
}

func TestWeekImageIsPNG(t *testing.T) {
	day := time.Date(2025, 5, 7, 0, 0, 0, 0, time.UTC)
	clases := []*model.Clase{
		{
			FechaProgramada: at(time.Date(2025, 5, 6, 9, 0, 0, 0, time.UTC)),
			DuracionMinutos: 45,
			Estado:          model.EstadoGuiaAprobada,
			Tema:            &model.Tema{Nombre: "Fracciones equivalentes y comparación"},
			Grupo:           &model.Grupo{Nombre: "3°A"},
		},
		{
			FechaProgramada: at(time.Date(2025, 5, 8, 11, 15, 0, 0, time.UTC)),
			Estado:          model.EstadoCompletada,
		},
	}

	data, err := WeekImage(day, clases, day.Add(10*time.Hour))
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, imageWidth, img.Bounds().Dx())
	assert.Equal(t, imageHeight, img.Bounds().Dy())
}

func TestShorten(t *testing.T) {
	assert.Equal(t, "Año", shorten("Año", 5))
	assert.Equal(t, "Fracc…", shorten("Fracciones", 6))
}
