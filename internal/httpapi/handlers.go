package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/assistantd/internal/apispec"
	"github.com/fyrsmithlabs/assistantd/internal/chat"
	"github.com/fyrsmithlabs/assistantd/internal/files"
	"github.com/fyrsmithlabs/assistantd/internal/jsonfile"
	"github.com/fyrsmithlabs/assistantd/internal/tenant"
)

// ChatRequest is the request body for POST /chat.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse is the response body for POST /chat.
type ChatResponse struct {
	Response string `json:"response"`
}

// ThemeRequest is the request body for POST /save-theme.
type ThemeRequest struct {
	Theme map[string]any `json:"theme"`
}

// PermissionsRequest is the request body for POST /save-permissions.
type PermissionsRequest struct {
	Permissions map[string]any `json:"permissions"`
}

// MessageResponse is a generic success message body.
type MessageResponse struct {
	Message string `json:"message"`
}

// FileListResponse is the response body for GET /list-files.
type FileListResponse struct {
	Files []files.Info `json:"files"`
}

// IngestSpecResponse is returned when an uploaded .json file parses as
// an OpenAPI specification.
type IngestSpecResponse struct {
	Message    string           `json:"message"`
	APISummary *apispec.Summary `json:"api_summary"`
}

// SpecErrorResponse is returned when an uploaded .json file fails
// OpenAPI parsing.
type SpecErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

// handleHealth returns a simple health check response.
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// handleChat answers a tenant's message with a retrieval-augmented
// model response.
func (s *Server) handleChat(c echo.Context) error {
	id, err := tenantID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Missing API Key")
	}

	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Message == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "message field is required")
	}

	response, err := s.svc.Chat.Chat(c.Request().Context(), id, req.Message)
	if err != nil {
		s.logger.Error("chat failed",
			zap.String("tenant", id.String()),
			zap.Error(err),
		)
		if s.metrics != nil {
			s.metrics.ChatsTotal.WithLabelValues("error").Inc()
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "chat processing failed")
	}

	if s.metrics != nil {
		s.metrics.ChatsTotal.WithLabelValues("ok").Inc()
		if chat.IsEscalation(response) {
			s.metrics.EscalationsTotal.Inc()
		}
	}

	return c.JSON(http.StatusOK, ChatResponse{Response: response})
}

// handleIngestDocs accepts a multipart file upload. JSON uploads are
// treated as candidate OpenAPI specifications and summarized; all other
// supported types flow through the vector ingestion pipeline.
func (s *Server) handleIngestDocs(c echo.Context) error {
	id, err := tenantID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Missing API Key")
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "No file uploaded")
	}

	src, err := fileHeader.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "No file uploaded")
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Error processing file")
	}

	name := fileHeader.Filename

	if strings.HasSuffix(strings.ToLower(name), ".json") {
		return s.ingestOpenAPISpec(c, id, name, data)
	}

	msg, err := s.svc.Ingest.Ingest(c.Request().Context(), id, name, data)
	if err != nil {
		s.logger.Error("ingestion failed",
			zap.String("tenant", id.String()),
			zap.String("file", name),
			zap.Error(err),
		)
		return echo.NewHTTPError(http.StatusInternalServerError, fmt.Sprintf("Error processing file: %s", name))
	}

	if s.metrics != nil {
		s.metrics.DocumentsIngestedTotal.Inc()
	}

	return c.JSON(http.StatusOK, MessageResponse{Message: msg})
}

// ingestOpenAPISpec summarizes a JSON upload as an OpenAPI spec and
// stores the summary with the tenant's uploads. Parse failures are
// reported in the response body, not as an HTTP error.
func (s *Server) ingestOpenAPISpec(c echo.Context, id tenant.ID, name string, data []byte) error {
	summary, err := apispec.Parse(data)
	if err != nil {
		return c.JSON(http.StatusOK, SpecErrorResponse{
			Error: fmt.Sprintf("Failed to parse OpenAPI specification from %s: %v", name, err),
		})
	}

	base := strings.TrimSuffix(name, filepath.Ext(name))
	parsedName := fmt.Sprintf("parsed_api_%s.json", base)

	if err := s.saveSummary(id, parsedName, summary); err != nil {
		s.logger.Error("failed to save parsed API summary",
			zap.String("tenant", id.String()),
			zap.String("file", parsedName),
			zap.Error(err),
		)
		return echo.NewHTTPError(http.StatusInternalServerError, "Error processing file")
	}

	return c.JSON(http.StatusOK, IngestSpecResponse{
		Message:    fmt.Sprintf("Successfully parsed and saved API specification from %s", name),
		APISummary: summary,
	})
}

// saveSummary persists an OpenAPI summary into the tenant's uploads.
func (s *Server) saveSummary(id tenant.ID, name string, summary *apispec.Summary) error {
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling summary: %w", err)
	}
	_, err = s.svc.Uploads.Save(id, name, data)
	return err
}

// handleListFiles lists the tenant's stored files.
func (s *Server) handleListFiles(c echo.Context) error {
	id, err := tenantID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Missing API Key")
	}

	infos, err := s.svc.Uploads.List(id)
	if err != nil {
		s.logger.Error("listing files failed", zap.String("tenant", id.String()), zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Error listing files")
	}

	return c.JSON(http.StatusOK, FileListResponse{Files: infos})
}

// handleGetEscalations returns the tenant's escalation records in
// append order.
func (s *Server) handleGetEscalations(c echo.Context) error {
	id, err := tenantID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Missing API Key")
	}

	records, err := s.svc.Escalations.List(id)
	if err != nil {
		s.logger.Error("reading escalations failed", zap.String("tenant", id.String()), zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Error reading escalations file.")
	}

	return c.JSON(http.StatusOK, records)
}

// handleSaveTheme stores the tenant's theme.
func (s *Server) handleSaveTheme(c echo.Context) error {
	id, err := tenantID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Missing API Key")
	}

	var req ThemeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := s.svc.Themes.Save(id, req.Theme); err != nil {
		s.logger.Error("saving theme failed", zap.String("tenant", id.String()), zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, fmt.Sprintf("Error saving theme: %v", err))
	}

	return c.JSON(http.StatusOK, MessageResponse{
		Message: fmt.Sprintf("Theme saved successfully for tenant %s", id),
	})
}

// handleGetTheme returns the tenant's theme or the default.
func (s *Server) handleGetTheme(c echo.Context) error {
	id, err := tenantID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Missing API Key")
	}

	return c.JSON(http.StatusOK, s.svc.Themes.Get(id))
}

// handleSavePermissions stores an organization's permissions.
func (s *Server) handleSavePermissions(c echo.Context) error {
	orgID, err := tenant.Parse(c.Param("org_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid org id")
	}

	var req PermissionsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := s.svc.Permissions.Save(orgID.String(), req.Permissions); err != nil {
		s.logger.Error("saving permissions failed", zap.String("org", orgID.String()), zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Error saving permissions")
	}

	return c.JSON(http.StatusOK, MessageResponse{Message: "Permissions saved successfully"})
}

// handleGetPermissions returns an organization's permissions.
func (s *Server) handleGetPermissions(c echo.Context) error {
	orgID, err := tenant.Parse(c.Param("org_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid org id")
	}

	permissions, err := s.svc.Permissions.Get(orgID.String())
	if err != nil {
		s.logger.Error("reading permissions failed", zap.String("org", orgID.String()), zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Error reading permissions")
	}

	return c.JSON(http.StatusOK, permissions)
}

// handleListOrgs serves the static organization list.
func (s *Server) handleListOrgs(c echo.Context) error {
	var orgs any
	if err := jsonfile.Read(s.config.OrgsFile, &orgs); err != nil {
		if errors.Is(err, os.ErrNotExist) || s.config.OrgsFile == "" {
			return c.JSON(http.StatusOK, []any{})
		}
		s.logger.Error("reading orgs file failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Error reading organizations")
	}
	return c.JSON(http.StatusOK, orgs)
}
