package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/ariahq/aria/domain/repositories"
	"github.com/ariahq/aria/internal/auth"
	"github.com/ariahq/aria/internal/websocket"
	"github.com/ariahq/aria/usecase"
)

// Server bundles the dependencies the HTTP handlers need.
type Server struct {
	assistant  *usecase.Assistant
	deviceRepo repositories.DeviceRepository
	stats      repositories.StatsProvider
	hub        *websocket.Hub
	auth       *auth.Manager
	logger     *zap.Logger

	// Result of the startup speech feature detection; fixed for the
	// process lifetime.
	speechAvailable bool
}

// InitRoutes initializes all API routes
func InitRoutes(
	e *echo.Echo,
	assistant *usecase.Assistant,
	deviceRepo repositories.DeviceRepository,
	stats repositories.StatsProvider,
	hub *websocket.Hub,
	authManager *auth.Manager,
	speechAvailable bool,
	logger *zap.Logger,
) {
	s := &Server{
		assistant:       assistant,
		deviceRepo:      deviceRepo,
		stats:           stats,
		hub:             hub,
		auth:            authManager,
		logger:          logger,
		speechAvailable: speechAvailable,
	}

	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"service": "aria-server",
		})
	})

	// API v1 routes
	v1 := e.Group("/api/v1")

	// Device APIs
	v1.POST("/device/auth", s.deviceAuth)
	v1.GET("/devices", s.listDevices)
	v1.POST("/devices/sync", s.syncDevices)

	// Conversation APIs
	v1.GET("/state", s.getState)
	v1.POST("/messages", s.submitMessage)
	v1.DELETE("/messages", s.clearMessages)
	v1.POST("/voice", s.toggleVoice)
	v1.POST("/listen", s.startListening)
	v1.DELETE("/listen", s.stopListening)
	v1.PATCH("/preferences", s.updatePreferences)

	// System APIs
	v1.GET("/system/stats", s.systemStats)

	// WebSocket endpoint with JWT validation
	e.GET("/ws", s.websocketWithAuth)
}

func (s *Server) deviceAuth(c echo.Context) error {
	var req DeviceAuthRequest

	if err := c.Bind(&req); err != nil {
		s.logger.Error("Failed to bind device auth request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}

	if req.SerialNumber == "" || req.SecretKey == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "missing_fields",
			Message: "Serial number and secret key are required",
		})
	}

	device, err := s.deviceRepo.ValidateDevice(req.SerialNumber, req.SecretKey)
	if err != nil {
		s.logger.Warn("Device authentication failed",
			zap.String("serial_number", req.SerialNumber),
			zap.Error(err))
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "authentication_failed",
			Message: "Invalid device credentials",
		})
	}

	token, expiresAt, err := s.auth.GenerateDeviceToken(device.ID)
	if err != nil {
		s.logger.Error("Failed to generate device token",
			zap.String("device_id", device.ID),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "token_generation_failed",
			Message: "Failed to generate authentication token",
		})
	}

	s.logger.Info("Device authenticated successfully",
		zap.String("device_id", device.ID),
		zap.String("serial_number", device.SerialNumber))

	return c.JSON(http.StatusOK, DeviceAuthResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		DeviceID:  device.ID,
	})
}

func (s *Server) listDevices(c echo.Context) error {
	devices, err := s.deviceRepo.List(c.Request().Context())
	if err != nil {
		s.logger.Error("Failed to list devices", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to list devices",
		})
	}
	return c.JSON(http.StatusOK, DevicesResponse{Devices: devices})
}

func (s *Server) syncDevices(c echo.Context) error {
	if err := s.deviceRepo.Sync(c.Request().Context()); err != nil {
		s.logger.Error("Device sync failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "sync_failed",
			Message: "Device sync did not complete",
		})
	}

	devices, err := s.deviceRepo.List(c.Request().Context())
	if err != nil {
		s.logger.Error("Failed to list devices after sync", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to list devices",
		})
	}
	return c.JSON(http.StatusOK, DevicesResponse{Devices: devices})
}

func (s *Server) getState(c echo.Context) error {
	state := s.assistant.State()
	return c.JSON(http.StatusOK, StateResponse{
		Messages:       state.Messages,
		IsListening:    state.IsListening,
		IsProcessing:   state.IsProcessing,
		IsVoiceEnabled: state.IsVoiceEnabled,
		Preferences:    state.Preferences,
	})
}

func (s *Server) submitMessage(c echo.Context) error {
	var req SubmitMessageRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}

	messages, err := s.assistant.SubmitUserText(c.Request().Context(), req.Text)
	if err != nil {
		s.logger.Error("Failed to submit message", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "submit_failed",
			Message: "Failed to process message",
		})
	}

	return c.JSON(http.StatusOK, SubmitMessageResponse{Messages: messages})
}

func (s *Server) clearMessages(c echo.Context) error {
	s.assistant.ClearHistory(c.Request().Context())
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) toggleVoice(c echo.Context) error {
	enabled := s.assistant.ToggleVoiceOutput()
	return c.JSON(http.StatusOK, VoiceToggleResponse{IsVoiceEnabled: enabled})
}

// startListening kicks off a capture turn. Capture is asynchronous from the
// HTTP caller's point of view: the transcript and reply arrive over the
// websocket event stream. A missing speech capability and an already
// active turn are rejected up front rather than swallowed in the
// background.
func (s *Server) startListening(c echo.Context) error {
	if !s.speechAvailable {
		return c.JSON(http.StatusNotImplemented, ErrorResponse{
			Error:   "unsupported",
			Message: "Speech recognition is not available",
		})
	}

	state := s.assistant.State()
	if state.IsListening || state.IsProcessing {
		return c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "session_active",
			Message: "Already listening or processing",
		})
	}

	// Capture outlives the HTTP request, so it runs on its own context.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()

		if err := s.assistant.StartListening(ctx); err != nil {
			// ErrSessionActive here means the pre-flight raced another
			// caller; the winner carries the turn.
			if !errors.Is(err, repositories.ErrSessionActive) {
				s.logger.Error("Listening failed", zap.Error(err))
			}
		}
	}()
	return c.JSON(http.StatusAccepted, map[string]string{
		"status": "listening",
	})
}

func (s *Server) stopListening(c echo.Context) error {
	s.assistant.StopListening()
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) updatePreferences(c echo.Context) error {
	var req PreferencesRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}
	if len(req.Preferences) == 0 {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "missing_fields",
			Message: "Preferences are required",
		})
	}

	merged := s.assistant.UpdatePreferences(c.Request().Context(), req.Preferences)
	return c.JSON(http.StatusOK, PreferencesResponse{Preferences: merged})
}

func (s *Server) systemStats(c echo.Context) error {
	return c.JSON(http.StatusOK, s.stats.Sample())
}

// websocketWithAuth handles WebSocket connections with JWT authentication
func (s *Server) websocketWithAuth(c echo.Context) error {
	// Extract JWT token from Authorization header only
	var token string
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader != "" && len(authHeader) > 7 && authHeader[:7] == "Bearer " {
		token = authHeader[7:]
	}

	if token == "" {
		s.logger.Warn("WebSocket connection rejected: missing token")
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "missing_token",
			Message: "JWT token is required in Authorization header",
		})
	}

	claims, err := s.auth.Validate(token)
	if err != nil {
		s.logger.Warn("WebSocket connection rejected: invalid token", zap.Error(err))
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "invalid_token",
			Message: "Invalid or expired JWT token",
		})
	}

	if claims.Role != auth.RoleDevice {
		s.logger.Warn("WebSocket connection rejected: invalid role",
			zap.String("role", claims.Role))
		return c.JSON(http.StatusForbidden, ErrorResponse{
			Error:   "invalid_role",
			Message: "Only device tokens are allowed for WebSocket connections",
		})
	}

	if claims.DeviceID == "" {
		s.logger.Error("WebSocket connection rejected: missing device ID in token")
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_token_claims",
			Message: "Device ID not found in token",
		})
	}

	s.logger.Info("WebSocket connection authenticated",
		zap.String("device_id", claims.DeviceID),
		zap.String("role", claims.Role))

	return websocket.HandleWebSocketWithAuth(s.hub, c, claims.DeviceID, s.logger)
}
