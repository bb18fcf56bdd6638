package utils

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"uptimeline/pkg/apperror"
)

func TestWriteJSON_Envelope(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, http.StatusAccepted, "req-1", "ok", map[string]int{"n": 2})

	if rec.Code != http.StatusAccepted {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusAccepted)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	var body SuccessResponse[map[string]int]
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.Success || body.RequestID != "req-1" || body.Message != "ok" || body.Data["n"] != 2 {
		t.Errorf("body = %+v", body)
	}
}

func TestFromAppError(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantKind   apperror.Kind
		wantMsg    string
	}{
		{
			name:       "app error",
			err:        &apperror.Error{Kind: apperror.InvalidInput, Message: "bad window"},
			wantStatus: http.StatusBadRequest,
			wantKind:   apperror.InvalidInput,
			wantMsg:    "bad window",
		},
		{
			name:       "plain error hidden",
			err:        errors.New("secret detail"),
			wantStatus: http.StatusInternalServerError,
			wantKind:   apperror.Internal,
			wantMsg:    "internal server error",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			FromAppError(rec, "req-2", tc.err)

			if rec.Code != tc.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tc.wantStatus)
			}
			var body ErrorResponse
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Success || body.RequestID != "req-2" {
				t.Errorf("envelope = %+v", body)
			}
			if body.Error.Kind != tc.wantKind || body.Error.Message != tc.wantMsg {
				t.Errorf("error = %+v, want kind %s message %q", body.Error, tc.wantKind, tc.wantMsg)
			}
		})
	}
}
