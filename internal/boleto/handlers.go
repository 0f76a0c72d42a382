package boleto

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"boleto-tracker/internal/extraction"
)

// corsError writes an error response with CORS headers set
func corsError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	http.Error(w, message, code)
}

// setCORSHeaders sets CORS headers on a response
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

// jsonError writes a JSON error body with CORS headers set
func jsonError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// handleIndex serves the HTML interface
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(indexHTML)
}

// handleListBoletos returns the boletos matching the status filter
func (s *Server) handleListBoletos(w http.ResponseWriter, r *http.Request) {
	filter := Filter(r.URL.Query().Get("status"))
	switch filter {
	case "", FilterAll, FilterPending, FilterPaid:
	default:
		corsError(w, "Invalid status filter", http.StatusBadRequest)
		return
	}

	boletos := s.service.ListBoletos(filter)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(boletos); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleSummary returns the running total of pending boletos
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]float64{
		"totalPending": s.service.TotalPending(),
	}); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleUploadBoleto handles document upload and extraction
func (s *Server) handleUploadBoleto(w http.ResponseWriter, r *http.Request) {
	// 50MB cap to handle high-resolution phone photos
	maxFormSize := int64(50 << 20)
	r.Body = http.MaxBytesReader(w, r.Body, maxFormSize)
	if err := r.ParseMultipartForm(maxFormSize); err != nil {
		slog.Error("Error parsing multipart form", "error", err)
		errorMsg := "Error parsing form"
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) || strings.Contains(err.Error(), "request body too large") {
			errorMsg = "Arquivo muito grande. O tamanho máximo é 50MB."
		}
		jsonError(w, errorMsg, http.StatusBadRequest)
		return
	}

	f, header, err := r.FormFile("file")
	if err != nil {
		slog.Error("Error getting file from form", "error", err)
		jsonError(w, "Nenhum arquivo selecionado.", http.StatusBadRequest)
		return
	}
	defer f.Close()

	if header.Size > maxFormSize {
		jsonError(w, "Arquivo muito grande. O tamanho máximo é 50MB.", http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(f)
	if err != nil {
		slog.Error("Error reading file data", "error", err, "filename", header.Filename)
		jsonError(w, "Erro ao ler o arquivo. Tente novamente.", http.StatusInternalServerError)
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = contentTypeFromExtension(header.Filename)
	}
	contentType = strings.ToLower(strings.TrimSpace(contentType))

	b, err := s.service.ProcessDocument(r.Context(), header.Filename, data, contentType)
	if err != nil {
		slog.Error("Error processing boleto", "filename", header.Filename, "error", err)
		switch {
		case errors.Is(err, extraction.ErrTransport):
			jsonError(w, "Não consegui ler este boleto. Verifique sua conexão e tente novamente.", http.StatusBadGateway)
		case errors.Is(err, extraction.ErrMalformedResponse):
			jsonError(w, "Não consegui ler este boleto. Verifique se o arquivo está correto.", http.StatusUnprocessableEntity)
		default:
			jsonError(w, "Não consegui ler este boleto. Verifique se o arquivo está correto.", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(b); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// contentTypeFromExtension maps common upload extensions to MIME types
func contentTypeFromExtension(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".pdf":
		return "application/pdf"
	case ".heic":
		return "image/heic"
	case ".heif":
		return "image/heif"
	default:
		return "application/octet-stream"
	}
}

// handleGetBoleto returns a single boleto
func (s *Server) handleGetBoleto(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		corsError(w, "Boleto ID required", http.StatusBadRequest)
		return
	}
	b, ok := s.service.GetBoleto(id)
	if !ok {
		corsError(w, "Boleto not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(b); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleToggleStatus flips a boleto between pending and paid
func (s *Server) handleToggleStatus(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		corsError(w, "Boleto ID required", http.StatusBadRequest)
		return
	}
	b, err := s.service.ToggleStatus(id)
	if err != nil {
		slog.Error("Error toggling boleto status", "id", id, "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if b == nil {
		corsError(w, "Boleto not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(b); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleDeleteBoleto deletes a boleto. Deleting an absent ID is a no-op
// and still answers 204, so the operation is idempotent.
func (s *Server) handleDeleteBoleto(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		corsError(w, "Boleto ID required", http.StatusBadRequest)
		return
	}
	if err := s.service.DeleteBoleto(id); err != nil {
		slog.Error("Error deleting boleto", "id", id, "error", err)
		corsError(w, "Error deleting boleto", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleStaticCSS serves the CSS file
func (s *Server) handleStaticCSS(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "text/css")
	w.Write(appCSS)
}

// handleStaticJS serves the JavaScript file
func (s *Server) handleStaticJS(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.Write(appJS)
}
