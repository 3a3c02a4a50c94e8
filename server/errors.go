package server

import (
	"io"
	"net/http"

	"github.com/go-chi/render"

	"training-analyzer/apperrors"
	htmlrender "training-analyzer/render"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    apperrors.Kind `json:"code"`
	Message string         `json:"message"`
}

func statusFor(err error) int {
	switch apperrors.KindOf(err) {
	case apperrors.KindParseFailure, apperrors.KindNoData, apperrors.KindMissingSessionColumn,
		apperrors.KindNoValidSessions, apperrors.KindInvalidInput:
		return http.StatusBadRequest
	case apperrors.KindBusy:
		return http.StatusConflict
	case apperrors.KindStoreUnavailable:
		return http.StatusServiceUnavailable
	case apperrors.KindStoreOperationFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// fail logs err and answers with its user message, as a notice or as JSON.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.Logger.Error("[server] %s %s: %v", r.Method, r.URL.Path, err)
	} else {
		s.Logger.Warn("[server] %s %s: %v", r.Method, r.URL.Path, err)
	}

	msg := apperrors.UserMessage(err)
	if wantsJSON(r) {
		render.Status(r, status)
		render.JSON(w, r, errorBody{Error: errorDetail{Code: apperrors.KindOf(err), Message: msg}})
		return
	}
	s.notice(w, r, status, htmlrender.LevelError, msg)
}

func (s *Server) notice(w http.ResponseWriter, r *http.Request, status int, level, msg string) {
	s.writeHTML(w, r, status, func(out io.Writer) error {
		return s.Renderer.Notice(out, htmlrender.Notice{Level: level, Message: msg})
	})
}
