package server

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"time"

	"github.com/dyllong/gearbook/internal/gear"
	"github.com/dyllong/gearbook/internal/proofs"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const requestIDHeader = "X-Request-ID"

var (
	errMissingGearService = errors.New("gear service dependency required")
	errMissingBlobStore   = errors.New("blob store dependency required")
	errMissingFetcher     = errors.New("proof fetcher dependency required")
)

// ProofFetcher downloads proof bytes from a remote source.
type ProofFetcher interface {
	Fetch(ctx context.Context, rawURL string) (*http.Response, error)
}

// Dependencies wires the collaborators the HTTP layer calls into.
type Dependencies struct {
	GearService *gear.Service
	Blobs       proofs.BlobStore
	Fetcher     ProofFetcher
	Logger      *zap.Logger
}

// NewHTTPHandler builds the gin router exposing the gear API.
func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.GearService == nil {
		return nil, errMissingGearService
	}
	if deps.Blobs == nil {
		return nil, errMissingBlobStore
	}
	if deps.Fetcher == nil {
		return nil, errMissingFetcher
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestID())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPut, http.MethodPatch, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))

	handler := &httpHandler{
		gearService: deps.GearService,
		blobs:       deps.Blobs,
		fetcher:     deps.Fetcher,
		logger:      logger,
	}

	router.GET("/healthz", handler.handleHealth)
	router.PUT("/gear/:user_id", handler.handleSetGear)
	router.PATCH("/gear/:user_id", handler.handleUpdateGear)
	router.GET("/gear/:user_id", handler.handleGetGear)
	router.GET("/gear", handler.handleLeaderboard)
	router.POST("/gear/:user_id/proof", handler.handleUploadProof)

	return router, nil
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Writer.Header().Set(requestIDHeader, id)
		c.Next()
	}
}

type httpHandler struct {
	gearService *gear.Service
	blobs       proofs.BlobStore
	fetcher     ProofFetcher
	logger      *zap.Logger
}

type setGearPayload struct {
	FamilyName string `json:"familyname"`
	Class      string `json:"class"`
	State      string `json:"state"`
	AP         int    `json:"ap"`
	AAP        int    `json:"aap"`
	DP         int    `json:"dp"`
	ProofURL   string `json:"proof_url"`
}

type updateGearPayload struct {
	FamilyName *string `json:"familyname"`
	Class      *string `json:"class"`
	State      *string `json:"state"`
	AP         *int    `json:"ap"`
	AAP        *int    `json:"aap"`
	DP         *int    `json:"dp"`
	ProofURL   string  `json:"proof_url"`
}

type uploadProofPayload struct {
	SourceURL string `json:"source_url"`
}

type profileResponse struct {
	UserID     int64   `json:"user_id"`
	FamilyName string  `json:"familyname,omitempty"`
	Class      string  `json:"class"`
	State      string  `json:"state"`
	AP         int     `json:"ap"`
	AAP        int     `json:"aap"`
	DP         int     `json:"dp"`
	Gearscore  float64 `json:"gearscore"`
	ProofPath  string  `json:"proof,omitempty"`
	UpdatedAt  int64   `json:"updated_at_s"`
}

type leaderboardRow struct {
	Place string `json:"place"`
	profileResponse
}

type leaderboardResponse struct {
	Entries []leaderboardRow `json:"entries"`
	Message string           `json:"message,omitempty"`
}

func toProfileResponse(profile gear.Profile) profileResponse {
	return profileResponse{
		UserID:     profile.UserID,
		FamilyName: profile.FamilyName,
		Class:      profile.Class,
		State:      profile.State,
		AP:         profile.AP,
		AAP:        profile.AAP,
		DP:         profile.DP,
		Gearscore:  profile.Gearscore,
		ProofPath:  profile.ProofPath,
		UpdatedAt:  profile.UpdatedAtSeconds,
	}
}

func (h *httpHandler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *httpHandler) handleSetGear(c *gin.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	var payload setGearPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload"})
		return
	}

	input := gear.SetInput{
		FamilyName: payload.FamilyName,
		Class:      payload.Class,
		State:      payload.State,
		AP:         payload.AP,
		AAP:        payload.AAP,
		DP:         payload.DP,
	}

	// A failed proof transfer is reported but never blocks the save.
	if payload.ProofURL != "" {
		if proofPath, ok := h.fetchProof(c.Request.Context(), userID, payload.ProofURL); ok {
			input.ProofPath = proofPath
		}
	}

	profile, err := h.gearService.SetGear(c.Request.Context(), userID, input)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toProfileResponse(profile))
}

func (h *httpHandler) handleUpdateGear(c *gin.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	var payload updateGearPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload"})
		return
	}

	input := gear.UpdateInput{
		FamilyName: payload.FamilyName,
		Class:      payload.Class,
		State:      payload.State,
		AP:         payload.AP,
		AAP:        payload.AAP,
		DP:         payload.DP,
	}

	if payload.ProofURL != "" {
		if proofPath, ok := h.fetchProof(c.Request.Context(), userID, payload.ProofURL); ok {
			input.ProofPath = &proofPath
		}
	}

	profile, err := h.gearService.UpdateGear(c.Request.Context(), userID, input)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toProfileResponse(profile))
}

func (h *httpHandler) handleGetGear(c *gin.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	profile, err := h.gearService.GetGear(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toProfileResponse(profile))
}

func (h *httpHandler) handleLeaderboard(c *gin.Context) {
	entries, err := h.gearService.Leaderboard(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	response := leaderboardResponse{Entries: make([]leaderboardRow, 0, len(entries))}
	for _, entry := range entries {
		response.Entries = append(response.Entries, leaderboardRow{
			Place:           entry.Place(),
			profileResponse: toProfileResponse(entry.Profile),
		})
	}
	if len(response.Entries) == 0 {
		response.Message = "no gear recorded yet"
	}
	c.JSON(http.StatusOK, response)
}

func (h *httpHandler) handleUploadProof(c *gin.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	// Multipart upload takes precedence; otherwise a source URL is fetched.
	if file, err := c.FormFile("proof"); err == nil {
		opened, err := file.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable proof attachment"})
			return
		}
		defer opened.Close()

		profile, err := h.gearService.AttachProof(c.Request.Context(), userID, opened, file.Filename)
		if err != nil {
			h.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, toProfileResponse(profile))
		return
	}

	var payload uploadProofPayload
	if err := c.ShouldBindJSON(&payload); err != nil || payload.SourceURL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "proof file or source_url required"})
		return
	}

	response, err := h.fetcher.Fetch(c.Request.Context(), payload.SourceURL)
	if err != nil {
		h.logger.Warn("proof fetch failed",
			zap.Int64("user_id", userID),
			zap.String("source_url", payload.SourceURL),
			zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "could not fetch proof from source"})
		return
	}
	defer response.Body.Close()

	profile, err := h.gearService.AttachProof(c.Request.Context(), userID, response.Body, fileNameFromURL(payload.SourceURL))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toProfileResponse(profile))
}

// fetchProof downloads and stores a proof referenced by URL during a
// set/update call. Failures are logged and reported as absent so the
// profile write proceeds without the proof reference.
func (h *httpHandler) fetchProof(ctx context.Context, userID int64, sourceURL string) (string, bool) {
	response, err := h.fetcher.Fetch(ctx, sourceURL)
	if err != nil {
		h.logger.Warn("proof fetch failed",
			zap.Int64("user_id", userID),
			zap.String("source_url", sourceURL),
			zap.Error(err))
		return "", false
	}
	defer response.Body.Close()

	proofPath, err := h.blobs.Save(ctx, userID, response.Body, fileNameFromURL(sourceURL))
	if err != nil {
		h.logger.Warn("proof save failed",
			zap.Int64("user_id", userID),
			zap.String("source_url", sourceURL),
			zap.Error(err))
		return "", false
	}
	return proofPath, true
}

func fileNameFromURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Path == "" {
		return "proof"
	}
	name := path.Base(parsed.Path)
	if name == "." || name == "/" {
		return "proof"
	}
	return name
}

func parseUserID(c *gin.Context) (int64, bool) {
	userID, err := strconv.ParseInt(c.Param("user_id"), 10, 64)
	if err != nil || userID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id must be a positive integer"})
		return 0, false
	}
	return userID, true
}

func (h *httpHandler) respondError(c *gin.Context, err error) {
	switch {
	case gear.IsValidationError(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, gear.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "no gear recorded for this user"})
	default:
		h.logger.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
