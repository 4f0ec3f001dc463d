// Package calendar рисует недельный календарь занятий учителя в PNG
package calendar

import (
	"bytes"
	"fmt"
	"image/color"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/Freeeeeet/aula_backend/internal/model"
	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomedium"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

type fontStyle int

const (
	fontRegular fontStyle = iota
	fontMedium
	fontBold
)

const (
	imageWidth       = 1400
	imageHeight      = 900
	headerHeight     = 100
	leftLabelsWidth  = 80
	legendWidth      = 150
	dayPaddingX      = 8
	minBlockHeight   = 8.0
	blockRadius      = 6.0
	shadowOffset     = 3.0
	daysInWeek       = 7
	hourPaddingTop   = 1
	hourPaddingBot   = 1
	defaultMinHour   = 7
	defaultMaxHour   = 15
	defaultDuracion  = 45
	maxBlockTextRune = 22
)

const (
	titleFontSize     = 25.0
	dayFontSize       = 24.0
	hourLabelFontSize = 18.0
	blockFontSize     = 16.0
	legendFontSize    = 12.0
)

var (
	bgColor        = color.RGBA{245, 246, 248, 255}
	textColor      = color.RGBA{80, 85, 90, 220}
	hourLabelColor = color.RGBA{110, 115, 120, 200}
	hourLineColor  = color.NRGBA{150, 150, 150, 255}
	todayBgColor   = color.NRGBA{255, 224, 178, 160}
	evenDayColor   = color.NRGBA{240, 240, 240, 255}
	oddDayColor    = color.NRGBA{225, 225, 225, 255}
	nowLineColor   = color.NRGBA{255, 80, 80, 200}

	blockTextColor   = color.RGBA{20, 24, 28, 230}
	blockShadowColor = color.RGBA{0, 0, 0, 20}
	legendItemColor  = color.RGBA{70, 74, 78, 220}
)

// stageColors цвет блока по стадии занятия
var stageColors = map[model.Stage]color.RGBA{
	model.StageGuia:         {255, 213, 128, 230},
	model.StageEvaluaciones: {129, 190, 247, 230},
	model.StageCierre:       {133, 193, 85, 220},
	model.StageOtros:        {180, 180, 180, 200},
}

var stageLabels = []struct {
	stage model.Stage
	label string
}{
	{model.StageGuia, "Preparación"},
	{model.StageEvaluaciones, "Evaluaciones"},
	{model.StageCierre, "Cierre"},
	{model.StageOtros, "Otros"},
}

type weekBounds struct {
	start time.Time
	end   time.Time
}

type hourRange struct {
	start int
	end   int
	total int
}

var (
	fontsOnce   sync.Once
	parsedFonts map[fontStyle]*opentype.Font
)

func parseFonts() {
	parsedFonts = make(map[fontStyle]*opentype.Font)
	for style, data := range map[fontStyle][]byte{
		fontRegular: goregular.TTF,
		fontMedium:  gomedium.TTF,
		fontBold:    gobold.TTF,
	} {
		if f, err := opentype.Parse(data); err == nil {
			parsedFonts[style] = f
		}
	}
}

// loadFont ставит шрифт нужного стиля, при ошибке basicfont
func loadFont(dc *gg.Context, size float64, style fontStyle) {
	fontsOnce.Do(parseFonts)

	if f, ok := parsedFonts[style]; ok {
		face, err := opentype.NewFace(f, &opentype.FaceOptions{
			Size:    size,
			DPI:     72,
			Hinting: font.HintingFull,
		})
		if err == nil {
			dc.SetFontFace(face)
			return
		}
	}
	dc.SetFontFace(basicfont.Face7x13)
}

// WeekImage рисует неделю (Пн-Вс), содержащую day. Занятия без fecha_programada
// и вне недели пропускаются. now используется для подсветки сегодняшнего дня
func WeekImage(day time.Time, clases []*model.Clase, now time.Time) ([]byte, error) {
	week := weekOf(day)
	today := startOfDay(now.In(day.Location()))
	highlightToday := !today.Before(week.start) && !today.After(week.end)

	byDay := groupByDay(clases, week)
	hours := calculateHourRange(byDay)

	dc := gg.NewContext(imageWidth, imageHeight)
	dc.SetColor(bgColor)
	dc.Clear()

	dayWidth := (imageWidth - leftLabelsWidth - legendWidth) / daysInWeek
	dayHeight := imageHeight - headerHeight
	cellHeight := float64(dayHeight) / float64(hours.total)

	drawHeader(dc, week)
	drawHourLabels(dc, hours, cellHeight)

	current := week.start
	for i := 0; i < daysInWeek; i++ {
		x := float64(leftLabelsWidth + i*dayWidth)
		y := float64(headerHeight)
		isToday := highlightToday && sameDay(current, today)

		drawDayBackground(dc, x, y, dayWidth, dayHeight, i, isToday)
		drawDayHeader(dc, current, x, y, dayWidth)
		drawHourLines(dc, x, y, dayWidth, hours, cellHeight)
		for _, c := range byDay[current.Format("2006-01-02")] {
			drawClase(dc, c, x, y, dayWidth, hours, cellHeight)
		}
		current = current.AddDate(0, 0, 1)
	}

	if highlightToday {
		drawNowLine(dc, now.In(day.Location()), hours, cellHeight, dayWidth)
	}
	drawLegend(dc, dayWidth)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode week image: %w", err)
	}
	return buf.Bytes(), nil
}

func weekOf(day time.Time) weekBounds {
	d := startOfDay(day)
	offset := int(d.Weekday()) - 1
	if d.Weekday() == time.Sunday {
		offset = 6
	}
	start := d.AddDate(0, 0, -offset)
	return weekBounds{start: start, end: start.AddDate(0, 0, 6)}
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

func duracion(c *model.Clase) time.Duration {
	if c.DuracionMinutos <= 0 {
		return defaultDuracion * time.Minute
	}
	return time.Duration(c.DuracionMinutos) * time.Minute
}

func groupByDay(clases []*model.Clase, week weekBounds) map[string][]*model.Clase {
	byDay := make(map[string][]*model.Clase)
	end := week.end.AddDate(0, 0, 1)
	for _, c := range clases {
		if c.FechaProgramada == nil {
			continue
		}
		start := c.FechaProgramada.In(week.start.Location())
		if start.Before(week.start) || !start.Before(end) {
			continue
		}
		// копия со временем в зоне недели, исходное занятие не меняем
		cp := *c
		cp.FechaProgramada = &start
		key := start.Format("2006-01-02")
		byDay[key] = append(byDay[key], &cp)
	}
	return byDay
}

func calculateHourRange(byDay map[string][]*model.Clase) hourRange {
	minHour, maxHour := 24, 0
	for _, list := range byDay {
		for _, c := range list {
			start := *c.FechaProgramada
			end := start.Add(duracion(c))
			endH := end.Hour()
			if end.Minute() > 0 {
				endH++
			}
			if !sameDay(start, end) {
				endH = 23
			}
			if start.Hour() < minHour {
				minHour = start.Hour()
			}
			if endH > maxHour {
				maxHour = endH
			}
		}
	}
	if minHour == 24 {
		minHour, maxHour = defaultMinHour, defaultMaxHour
	}

	start := minHour - hourPaddingTop
	end := maxHour + hourPaddingBot
	if start < 0 {
		start = 0
	}
	if end > 23 {
		end = 23
	}
	return hourRange{start: start, end: end, total: end - start + 1}
}

func drawHeader(dc *gg.Context, week weekBounds) {
	title := monthName(week.start.Month())
	if week.start.Month() != week.end.Month() {
		title += " - " + monthName(week.end.Month())
	}
	title += fmt.Sprintf(" %d", week.end.Year())

	loadFont(dc, titleFontSize, fontBold)
	dc.SetColor(textColor)
	_, h := dc.MeasureString(title)
	dc.DrawStringAnchored(title, float64(leftLabelsWidth), float64(headerHeight)/8+h/2, 0, 0)
}

func drawHourLabels(dc *gg.Context, hours hourRange, cellHeight float64) {
	loadFont(dc, hourLabelFontSize, fontMedium)
	dc.SetColor(hourLabelColor)
	for i := 0; i < hours.total; i++ {
		y := float64(headerHeight) + float64(i)*cellHeight
		dc.DrawStringAnchored(fmt.Sprintf("%02d:00", hours.start+i), float64(leftLabelsWidth)-10, y, 1, 0.5)
	}
}

func drawDayBackground(dc *gg.Context, x, y float64, dayWidth, dayHeight, index int, isToday bool) {
	switch {
	case isToday:
		dc.SetColor(todayBgColor)
	case index%2 == 0:
		dc.SetColor(evenDayColor)
	default:
		dc.SetColor(oddDayColor)
	}
	dc.DrawRectangle(x, y, float64(dayWidth), float64(dayHeight))
	dc.Fill()
}

func drawDayHeader(dc *gg.Context, date time.Time, x, y float64, dayWidth int) {
	loadFont(dc, dayFontSize, fontBold)
	dc.SetColor(textColor)
	dc.DrawStringAnchored(date.Format("02.01"), x+float64(dayWidth)/2, y, 0.5, -1)
	dc.DrawStringAnchored(weekdayShort(date.Weekday()), x+float64(dayWidth)/2, y, 0.5, -0.2)
}

func drawHourLines(dc *gg.Context, x, y float64, dayWidth int, hours hourRange, cellHeight float64) {
	dc.SetLineWidth(0.3)
	dc.SetColor(hourLineColor)
	for i := 0; i <= hours.total; i++ {
		hy := y + float64(i)*cellHeight
		dc.DrawLine(x, hy, x+float64(dayWidth), hy)
		dc.Stroke()
	}
}

func drawClase(dc *gg.Context, c *model.Clase, x, y float64, dayWidth int, hours hourRange, cellHeight float64) {
	start := *c.FechaProgramada
	startH := float64(start.Hour()) + float64(start.Minute())/60
	endH := startH + duracion(c).Hours()
	if endH > float64(hours.end+1) {
		endH = float64(hours.end + 1)
	}

	blockY := y + (startH-float64(hours.start))*cellHeight
	blockHeight := (endH - startH) * cellHeight
	if blockHeight < minBlockHeight {
		blockHeight = minBlockHeight
	}
	blockWidth := float64(dayWidth) - float64(dayPaddingX*2)
	fill := stageColors[c.Estado.Stage()]

	dc.SetColor(blockShadowColor)
	dc.DrawRoundedRectangle(x+dayPaddingX+shadowOffset, blockY+2+shadowOffset, blockWidth, blockHeight-4, blockRadius)
	dc.Fill()

	dc.SetColor(fill)
	dc.DrawRoundedRectangle(x+dayPaddingX, blockY+2, blockWidth, blockHeight-4, blockRadius)
	dc.Fill()

	dc.SetColor(darken(fill, 0.8))
	dc.SetLineWidth(1)
	dc.DrawRoundedRectangle(x+dayPaddingX, blockY+2, blockWidth, blockHeight-4, blockRadius)
	dc.Stroke()

	txtX := x + dayPaddingX + 8
	txtY := blockY + 18
	loadFont(dc, blockFontSize, fontMedium)
	dc.SetColor(blockTextColor)
	dc.DrawStringAnchored(start.Format("15:04"), txtX, txtY, 0, 0)

	if blockHeight <= 25 {
		return
	}
	label := ""
	if c.Tema != nil {
		label = c.Tema.Nombre
	}
	if c.Grupo != nil {
		if label != "" {
			label += " · "
		}
		label += c.Grupo.Nombre
	}
	if label != "" {
		loadFont(dc, blockFontSize-2, fontRegular)
		dc.DrawStringAnchored(shorten(label, maxBlockTextRune), txtX, txtY+16, 0, 0)
	}
}

func drawNowLine(dc *gg.Context, now time.Time, hours hourRange, cellHeight float64, dayWidth int) {
	h := float64(now.Hour()) + float64(now.Minute())/60
	if h < float64(hours.start) || h > float64(hours.end) {
		return
	}
	y := float64(headerHeight) + (h-float64(hours.start))*cellHeight
	dc.SetColor(nowLineColor)
	dc.SetLineWidth(2)
	dc.DrawLine(float64(leftLabelsWidth), y, float64(leftLabelsWidth+daysInWeek*dayWidth), y)
	dc.Stroke()
}

func drawLegend(dc *gg.Context, dayWidth int) {
	const boxW, boxH = 20.0, 14.0
	x := float64(leftLabelsWidth + daysInWeek*dayWidth + 10)
	y := float64(imageHeight) - 130.0

	for _, item := range stageLabels {
		dc.SetColor(stageColors[item.stage])
		dc.DrawRoundedRectangle(x, y, boxW, boxH, 3)
		dc.Fill()

		loadFont(dc, legendFontSize, fontRegular)
		dc.SetColor(legendItemColor)
		dc.DrawStringAnchored(item.label, x+boxW+8, y+boxH/2+1, 0, 0.2)
		y += boxH + 14
	}
}

func darken(c color.RGBA, factor float64) color.RGBA {
	return color.RGBA{
		R: uint8(float64(c.R) * factor),
		G: uint8(float64(c.G) * factor),
		B: uint8(float64(c.B) * factor),
		A: c.A,
	}
}

// shorten обрезает по рунам, названия на испанском содержат не-ASCII
func shorten(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	r := []rune(s)
	return string(r[:limit-1]) + "…"
}

func weekdayShort(d time.Weekday) string {
	return [...]string{"Do", "Lu", "Ma", "Mi", "Ju", "Vi", "Sá"}[d]
}

func monthName(m time.Month) string {
	return [...]string{
		"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
		"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre",
	}[m-1]
}
