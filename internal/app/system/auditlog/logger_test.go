package auditlog_test

import (
	"net/http/httptest"
	"testing"

	"github.com/suashub/suashub/internal/app/store/audit"
	"github.com/suashub/suashub/internal/app/system/auditlog"
	"github.com/suashub/suashub/internal/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogger_NilLogger(t *testing.T) {
	var logger *auditlog.Logger
	ctx, cancel := testutil.TestContext()
	defer cancel()
	req := httptest.NewRequest("GET", "/", nil)

	logger.Log(ctx, audit.Event{EventType: "test"})
	logger.LoginSuccess(ctx, req, "u1", "rita")
	logger.Logout(ctx, req, "u1")
	logger.EtapaAlterada(ctx, req, "u1", 3, "A", "B")
}

func TestLogger_ConfigOff(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{Auth: auditlog.ModeOff, Casos: auditlog.ModeOff})
	req := httptest.NewRequest("POST", "/login", nil)
	logger.LoginFailed(ctx, req, "rita", "bad password")
	logger.CasoEncerrado(ctx, req, "u1", 4)

	events, err := store.Query(ctx, audit.QueryFilter{})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("expected no events when config is off, got %d", len(events))
	}
}

func TestLogger_ConfigDBOnly(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	core, logs := observer.New(zap.InfoLevel)
	logger := auditlog.New(store, zap.New(core), auditlog.Config{Auth: auditlog.ModeDB, Casos: auditlog.ModeDB})

	req := httptest.NewRequest("POST", "/api/casos/9/linha-metro/etapa", nil)
	req.RemoteAddr = "10.1.2.3:5555"
	logger.EtapaAlterada(ctx, req, "u1", 9, "TRIAGEM", "PIA")

	events, err := store.ListByCaso(ctx, 9, 10)
	if err != nil {
		t.Fatalf("ListByCaso failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	ev := events[0]
	if ev.EventType != audit.EventEtapaAlterada || ev.IP != "10.1.2.3" {
		t.Errorf("event = %+v", ev)
	}
	if ev.Details["de"] != "TRIAGEM" || ev.Details["para"] != "PIA" {
		t.Errorf("details = %v", ev.Details)
	}
	if logs.Len() != 0 {
		t.Errorf("db mode should not write zap entries, got %d", logs.Len())
	}
}

func TestLogger_ConfigLogOnly(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	core, logs := observer.New(zap.InfoLevel)
	logger := auditlog.New(store, zap.New(core), auditlog.Config{Auth: auditlog.ModeLog, Casos: auditlog.ModeLog})

	req := httptest.NewRequest("POST", "/login", nil)
	logger.LoginThrottled(ctx, req, "rita")

	if logs.Len() != 1 {
		t.Fatalf("expected 1 zap entry, got %d", logs.Len())
	}
	entry := logs.All()[0]
	if entry.Level != zap.WarnLevel {
		t.Errorf("failed attempts log at warn, got %v", entry.Level)
	}
	if entry.ContextMap()["login_id"] != "rita" {
		t.Errorf("fields = %v", entry.ContextMap())
	}

	events, _ := store.Query(ctx, audit.QueryFilter{})
	if len(events) != 0 {
		t.Errorf("log mode should not store events, got %d", len(events))
	}
}
