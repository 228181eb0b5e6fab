package csrfguard_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/suashub/suashub/internal/app/system/csrfguard"
)

var key = []byte("0123456789abcdef0123456789abcdef")

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestProtect_FormPostWithoutTokenRejected(t *testing.T) {
	h := csrfguard.Protect(key, false, nil)(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/casos", strings.NewReader("nome=x"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}

func TestProtect_JSONExempt(t *testing.T) {
	h := csrfguard.Protect(key, false, nil)(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/api/casos/1/linha-metro/registrar", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
}

func TestProtect_SafeMethodsPass(t *testing.T) {
	h := csrfguard.Protect(key, false, nil)(okHandler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/casos", nil))

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
}

func TestProtect_JSONOutsideAPIRejected(t *testing.T) {
	h := csrfguard.Protect(key, false, nil)(okHandler())

	for _, target := range []string{"/casos/1/encerrar", "/casos/1/etapa", "/triagem/abc/converter"} {
		req := httptest.NewRequest(http.MethodPost, target, nil)
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusForbidden {
			t.Errorf("%s: status = %d, want 403", target, rec.Code)
		}
	}
}

func TestProtect_APIFormPostRejected(t *testing.T) {
	h := csrfguard.Protect(key, false, nil)(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/api/casos/1/linha-metro/etapa", strings.NewReader("etapa=SAIDA"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}
