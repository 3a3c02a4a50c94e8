package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"training-analyzer/apperrors"
	"training-analyzer/models"
	htmlrender "training-analyzer/render"
	"training-analyzer/storage"
)

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	data := htmlrender.PageData{
		Status:         s.Reports.Status(r.Context()),
		MaxUploadBytes: s.opts.MaxUploadBytes,
		MaxLoadRecords: s.opts.MaxLoadRecords,
	}
	s.writeHTML(w, r, http.StatusOK, func(out io.Writer) error {
		return s.Renderer.Page(out, data)
	})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.opts.MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.fail(w, r, apperrors.InvalidInput(fmt.Sprintf("The file is larger than %d bytes.", s.opts.MaxUploadBytes)))
			return
		}
		s.fail(w, r, apperrors.InvalidInput("Choose a CSV file first."))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		s.fail(w, r, apperrors.InvalidInput("Choose a CSV file first."))
		return
	}
	defer file.Close()

	analysis, err := s.Analyzer.Analyze(r.Context(), header.Filename, file)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	if wantsJSON(r) {
		render.JSON(w, r, analysis)
		return
	}
	s.writeHTML(w, r, http.StatusOK, func(out io.Writer) error {
		return s.Renderer.Results(out, analysis)
	})
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	analysis, err := s.decodeAnalysis(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	ids, err := s.Reports.Save(r.Context(), analysis)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	if wantsJSON(r) {
		render.Status(r, http.StatusCreated)
		render.JSON(w, r, map[string]interface{}{"ids": ids})
		return
	}
	s.notice(w, r, http.StatusCreated, htmlrender.LevelSuccess,
		fmt.Sprintf("The data was saved successfully (%d sessions).", len(ids)))
}

func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	records, err := s.Reports.LoadRecent(r.Context(), limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeRecords(w, r, records)
}

// handleDelete removes one record and answers with the reloaded list.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := s.Reports.Delete(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}

	if wantsJSON(r) {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	records, err := s.Reports.LoadRecent(r.Context(), s.opts.MaxLoadRecords)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeRecords(w, r, records)
}

func (s *Server) writeRecords(w http.ResponseWriter, r *http.Request, records []*models.StoredRecord) {
	if wantsJSON(r) {
		if records == nil {
			records = []*models.StoredRecord{}
		}
		render.JSON(w, r, map[string]interface{}{"records": records})
		return
	}
	s.writeHTML(w, r, http.StatusOK, func(out io.Writer) error {
		return s.Renderer.History(out, records)
	})
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	analysis, err := s.requireAnalysis(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	var buf bytes.Buffer
	cw, err := storage.NewCSVWriter(&buf, s.Formatter.Unit)
	if err == nil {
		err = cw.WriteAnalysis(analysis)
	}
	if err != nil {
		s.fail(w, r, apperrors.ExportFailed(err))
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+exportName(analysis, "csv")+`"`)
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleExportPDF(w http.ResponseWriter, r *http.Request) {
	if s.PDF == nil {
		s.fail(w, r, apperrors.ExportFailed(errors.New("PDF export is not configured")))
		return
	}
	analysis, err := s.requireAnalysis(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	var doc bytes.Buffer
	if err := s.Renderer.Report(&doc, analysis); err != nil {
		s.fail(w, r, apperrors.ExportFailed(err))
		return
	}
	pdf, err := s.PDF.Render(r.Context(), doc.Bytes())
	if err != nil {
		s.fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+exportName(analysis, "pdf")+`"`)
	_, _ = w.Write(pdf)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, s.Reports.Status(r.Context()))
}

// decodeAnalysis reads the analysis the browser posts back, either as a JSON
// body or as the "analysis" form field. A missing analysis decodes as nil.
func (s *Server) decodeAnalysis(w http.ResponseWriter, r *http.Request) (*models.Analysis, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxPayloadBytes)

	var a models.Analysis
	if sentJSON(r) {
		if err := render.DecodeJSON(r.Body, &a); err != nil {
			if errors.Is(err, io.EOF) {
				return nil, nil
			}
			return nil, s.payloadError(err)
		}
		return &a, nil
	}

	if err := r.ParseForm(); err != nil {
		return nil, s.payloadError(err)
	}
	raw := strings.TrimSpace(r.PostForm.Get("analysis"))
	if raw == "" {
		return nil, nil
	}
	if err := json.Unmarshal([]byte(raw), &a); err != nil {
		return nil, invalidAnalysis(err)
	}
	return &a, nil
}

// requireAnalysis is decodeAnalysis for actions that need sessions.
func (s *Server) requireAnalysis(w http.ResponseWriter, r *http.Request) (*models.Analysis, error) {
	a, err := s.decodeAnalysis(w, r)
	if err != nil {
		return nil, err
	}
	if a == nil || a.Result.Len() == 0 {
		return nil, &apperrors.Error{Kind: apperrors.KindNoData, Message: "Analyze a CSV file first."}
	}
	return a, nil
}

func (s *Server) payloadError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return &apperrors.Error{
			Kind:    apperrors.KindInvalidInput,
			Message: fmt.Sprintf("The analysis is larger than %d bytes.", s.opts.MaxPayloadBytes),
			Cause:   err,
		}
	}
	return invalidAnalysis(err)
}

func invalidAnalysis(cause error) error {
	return &apperrors.Error{Kind: apperrors.KindInvalidInput, Message: "The analysis data is invalid.", Cause: cause}
}

func exportName(a *models.Analysis, ext string) string {
	base := strings.TrimSuffix(a.SourceName, "."+extOf(a.SourceName))
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}, base)
	if strings.Trim(base, "-") == "" {
		base = "training"
	}
	return base + "-summary." + ext
}

func extOf(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[i+1:]
	}
	return ""
}
