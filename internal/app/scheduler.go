package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Freeeeeet/aula_backend/internal/model"
	"github.com/Freeeeeet/aula_backend/internal/notify"
	"github.com/Freeeeeet/aula_backend/internal/service"
	"go.uber.org/zap"
)

const digestMaxPerCategory = 10

var categoryTitles = map[model.PreparationCategory]string{
	model.CategoryGuiaPendiente:     "📝 Guías pendientes",
	model.CategoryEvalPrePendiente:  "🧪 Evaluación previa pendiente",
	model.CategoryEvalPostPendiente: "📊 Evaluación posterior pendiente",
}

// Scheduler управляет фоновыми задачами
type Scheduler struct {
	profesores service.ProfesorRepository
	dashboard  *service.DashboardService
	notifier   notify.Notifier
	hour       int
	logger     *zap.Logger
	stopChan   chan struct{}
	now        func() time.Time
}

// NewScheduler hour час ежедневной рассылки по локальному времени
func NewScheduler(profesores service.ProfesorRepository, dashboard *service.DashboardService, notifier notify.Notifier, hour int, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		profesores: profesores,
		dashboard:  dashboard,
		notifier:   notifier,
		hour:       hour,
		logger:     logger,
		stopChan:   make(chan struct{}),
		now:        time.Now,
	}
}

// Start запускает фоновые задачи; без Telegram ничего не делает
func (s *Scheduler) Start(ctx context.Context) {
	if !s.notifier.Enabled() {
		s.logger.Info("Notifications disabled, digest scheduler not started")
		return
	}

	s.logger.Info("Starting background scheduler", zap.Int("digest_hour", s.hour))
	go s.runDigestTask(ctx)
}

// Stop останавливает фоновые задачи
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping background scheduler")
	close(s.stopChan)
}

func (s *Scheduler) runDigestTask(ctx context.Context) {
	for {
		wait := untilNextRun(s.now(), s.hour)
		s.logger.Debug("Next digest scheduled", zap.Duration("in", wait))

		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
			s.SendDigest(ctx)
		case <-s.stopChan:
			timer.Stop()
			s.logger.Info("Digest task stopped")
			return
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info("Digest task cancelled")
			return
		}
	}
}

// untilNextRun время до ближайшего hour:00 строго после now
func untilNextRun(now time.Time, hour int) time.Duration {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next.Sub(now)
}

// SendDigest рассылает алерты подготовки всем учителям с привязанным Telegram.
// По понедельникам дополнительно уходит картинка недели
func (s *Scheduler) SendDigest(ctx context.Context) {
	profesores, err := s.profesores.ListWithTelegram(ctx)
	if err != nil {
		s.logger.Error("Failed to list profesores for digest", zap.Error(err))
		return
	}

	now := s.now()
	sent := 0
	for _, p := range profesores {
		if p.TelegramChatID == nil {
			continue
		}
		chatID := *p.TelegramChatID

		alertas, err := s.dashboard.PendingAlertas(ctx, p.ID)
		if err != nil {
			s.logger.Error("Failed to build digest", zap.String("profesor_id", p.ID.String()), zap.Error(err))
			continue
		}
		if len(alertas) > 0 {
			if err := s.notifier.Send(ctx, chatID, formatDigest(p, alertas)); err != nil {
				s.logger.Warn("Failed to send digest", zap.Int64("chat_id", chatID), zap.Error(err))
				continue
			}
			sent++
		}

		if now.Weekday() == time.Monday {
			s.sendWeek(ctx, p, now)
		}
	}

	s.logger.Info("Digest completed", zap.Int("profesores", len(profesores)), zap.Int("sent", sent))
}

func (s *Scheduler) sendWeek(ctx context.Context, p *model.Profesor, now time.Time) {
	png, err := s.dashboard.CalendarioSemana(ctx, p.ID, now)
	if err != nil {
		s.logger.Error("Failed to render week", zap.String("profesor_id", p.ID.String()), zap.Error(err))
		return
	}
	if err := s.notifier.SendPhoto(ctx, *p.TelegramChatID, png, "🗓 Tu semana de clases"); err != nil {
		s.logger.Warn("Failed to send week image", zap.Int64("chat_id", *p.TelegramChatID), zap.Error(err))
	}
}

func formatDigest(p *model.Profesor, alertas []service.AlertaGrupo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Buenos días, %s. Clases por preparar:\n", p.Nombre)

	for _, grupo := range alertas {
		fmt.Fprintf(&b, "\n%s (%d)\n", categoryTitles[grupo.Categoria], len(grupo.Clases))
		for i, c := range grupo.Clases {
			if i == digestMaxPerCategory {
				fmt.Fprintf(&b, "… y %d más\n", len(grupo.Clases)-digestMaxPerCategory)
				break
			}
			b.WriteString(digestLine(c))
		}
	}
	return b.String()
}

func digestLine(c service.ClaseResumen) string {
	line := fmt.Sprintf("%s %s", model.GetEstadoDisplay(c.Estado).Emoji, c.Tema)
	if c.Grupo != "" {
		line += " · " + c.Grupo
	}
	if c.NumeroSesion != nil {
		line += fmt.Sprintf(" · sesión %d", *c.NumeroSesion)
	}
	if c.FechaProgramada != nil {
		line += " · " + c.FechaProgramada.Format("02.01 15:04")
	}
	return line + "\n"
}
