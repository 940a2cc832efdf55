package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestResponseWriterCapturesStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := &responseWriter{ResponseWriter: rec, statusCode: http.StatusOK}

	var handler http.HandlerFunc = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}
	handler.ServeHTTP(rw, httptest.NewRequest(http.MethodPost, "/rpc", nil))

	if rw.statusCode != http.StatusBadGateway {
		t.Errorf("expected captured status %d, got %d", http.StatusBadGateway, rw.statusCode)
	}
	if rec.Code != http.StatusBadGateway {
		t.Errorf("expected status %d to pass through, got %d", http.StatusBadGateway, rec.Code)
	}
}

func TestResponseWriterDefaultsToOK(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := &responseWriter{ResponseWriter: rec, statusCode: http.StatusOK}

	var handler http.HandlerFunc = func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}
	handler.ServeHTTP(rw, httptest.NewRequest(http.MethodPost, "/rpc", nil))

	if rw.statusCode != http.StatusOK {
		t.Errorf("expected implicit status %d, got %d", http.StatusOK, rw.statusCode)
	}
}
