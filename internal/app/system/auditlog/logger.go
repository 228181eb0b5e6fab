// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"
	"strconv"

	"github.com/suashub/suashub/internal/app/store/audit"
	"github.com/suashub/suashub/internal/app/system/ratelimit"
	"go.uber.org/zap"
)

// Destinations accepted by Config fields.
const (
	ModeAll = "all" // MongoDB + zap
	ModeDB  = "db"
	ModeLog = "log"
	ModeOff = "off"
)

// Config selects where each category is recorded.
type Config struct {
	Auth  string // login, logout, throttling
	Casos string // case lifecycle: creation, stage moves, registrations, closing
}

// Logger records audit events to MongoDB and zap. A nil *Logger is a no-op.
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{store: store, zapLog: zapLog, config: config}
}

func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}
	if event.UserID != "" {
		fields = append(fields, zap.String("user_id", event.UserID))
	}
	if event.LoginID != "" {
		fields = append(fields, zap.String("login_id", event.LoginID))
	}
	if event.CasoID != nil {
		fields = append(fields, zap.Int64("caso_id", *event.CasoID))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records event according to the category's configured mode. Unknown
// categories are recorded everywhere.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	mode := ModeAll
	switch event.Category {
	case audit.CategoryAuth:
		mode = l.config.Auth
	case audit.CategoryCaso:
		mode = l.config.Casos
	}
	if mode == ModeOff {
		return
	}

	if mode == ModeAll || mode == ModeLog {
		l.logToZap(event)
	}
	if mode == ModeAll || mode == ModeDB {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

func fromRequest(r *http.Request, category, eventType string) audit.Event {
	return audit.Event{
		Category:  category,
		EventType: eventType,
		IP:        ratelimit.ClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
	}
}

// --- Authentication events ---

// LoginSuccess logs a successful sign-in.
func (l *Logger) LoginSuccess(ctx context.Context, r *http.Request, userID, loginID string) {
	ev := fromRequest(r, audit.CategoryAuth, audit.EventLoginSuccess)
	ev.UserID = userID
	ev.LoginID = loginID
	l.Log(ctx, ev)
}

// LoginFailed logs rejected credentials.
func (l *Logger) LoginFailed(ctx context.Context, r *http.Request, loginID, reason string) {
	ev := fromRequest(r, audit.CategoryAuth, audit.EventLoginFailed)
	ev.LoginID = loginID
	ev.Success = false
	ev.FailureReason = reason
	l.Log(ctx, ev)
}

// LoginThrottled logs an attempt refused by the rate limiter.
func (l *Logger) LoginThrottled(ctx context.Context, r *http.Request, loginID string) {
	ev := fromRequest(r, audit.CategoryAuth, audit.EventLoginThrottled)
	ev.LoginID = loginID
	ev.Success = false
	ev.FailureReason = "rate_limited"
	l.Log(ctx, ev)
}

// Logout logs a sign-out.
func (l *Logger) Logout(ctx context.Context, r *http.Request, userID string) {
	ev := fromRequest(r, audit.CategoryAuth, audit.EventLogout)
	ev.UserID = userID
	l.Log(ctx, ev)
}

// --- Case events ---

func (l *Logger) caso(ctx context.Context, r *http.Request, eventType, actorID string, casoID int64, details map[string]string) {
	ev := fromRequest(r, audit.CategoryCaso, eventType)
	ev.UserID = actorID
	ev.CasoID = &casoID
	ev.Details = details
	l.Log(ctx, ev)
}

// CasoCriado logs a case opened from the case form.
func (l *Logger) CasoCriado(ctx context.Context, r *http.Request, actorID string, casoID int64, programa, etapa string) {
	l.caso(ctx, r, audit.EventCasoCriado, actorID, casoID, map[string]string{"programa": programa, "etapa": etapa})
}

// EtapaAlterada logs a move of the current-stage pointer.
func (l *Logger) EtapaAlterada(ctx context.Context, r *http.Request, actorID string, casoID int64, from, to string) {
	l.caso(ctx, r, audit.EventEtapaAlterada, actorID, casoID, map[string]string{"de": from, "para": to})
}

// RegistroCriado logs a progress event registered against a stage.
func (l *Logger) RegistroCriado(ctx context.Context, r *http.Request, actorID string, casoID, registroID int64, etapa string, referrals int) {
	l.caso(ctx, r, audit.EventRegistroCriado, actorID, casoID, map[string]string{
		"etapa":           etapa,
		"registro_id":     strconv.FormatInt(registroID, 10),
		"encaminhamentos": strconv.Itoa(referrals),
	})
}

// CasoEncerrado logs a case being closed.
func (l *Logger) CasoEncerrado(ctx context.Context, r *http.Request, actorID string, casoID int64) {
	l.caso(ctx, r, audit.EventCasoEncerrado, actorID, casoID, nil)
}

// TriagemConvertida logs an intake draft turned into a case.
func (l *Logger) TriagemConvertida(ctx context.Context, r *http.Request, actorID string, casoID int64, draftID string, events int) {
	l.caso(ctx, r, audit.EventTriagemConvertida, actorID, casoID, map[string]string{
		"rascunho":  draftID,
		"registros": strconv.Itoa(events),
	})
}
