package api

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/forPelevin/reelchemist/internal/errs"
	"github.com/forPelevin/reelchemist/internal/keys"
	"github.com/forPelevin/reelchemist/internal/pipeline"
	"github.com/forPelevin/reelchemist/internal/ports"
	"github.com/forPelevin/reelchemist/internal/types"
	"github.com/forPelevin/reelchemist/internal/usecase"
)

type Handler struct {
	studio *pipeline.Studio
	hub    *Hub
	log    *slog.Logger
}

// NewRouter exposes the studio over JSON and the hub over websocket.
func NewRouter(studio *pipeline.Studio, hub *Hub, log *slog.Logger) *gin.Engine {
	if log == nil {
		log = slog.Default()
	}
	h := &Handler{studio: studio, hub: hub, log: log.With("component", "api")}

	r := gin.New()
	r.Use(gin.Recovery(), h.requestLogger(), originGuard())

	api := r.Group("/api")
	{
		api.GET("/health", h.health)
		api.GET("/project", h.project)
		api.POST("/project/save", h.save)
		api.POST("/project/load", h.load)
		api.DELETE("/project", h.reset)
		api.POST("/phases/:phase", h.runPhase)
		api.GET("/preview", h.preview)
		api.GET("/download", h.download)
		api.GET("/keys", h.listKeys)
		api.PUT("/keys/:provider", h.setKey)
		api.POST("/keys/:provider/test", h.testKey)
		api.GET("/voices", h.voices)
	}
	r.GET("/ws/progress", hub.ServeWS)
	return r
}

func (h *Handler) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		h.log.Debug("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"elapsed", time.Since(start),
		)
	}
}

func (h *Handler) health(c *gin.Context) {
	success(c, gin.H{
		"status":       "ok",
		"currentPhase": h.studio.Store.Get().CurrentPhase,
		"running":      h.studio.Executor.Running(),
	})
}

func (h *Handler) project(c *gin.Context) {
	success(c, h.studio.Store.Get())
}

func (h *Handler) save(c *gin.Context) {
	if err := h.studio.Store.Save(c.Request.Context()); err != nil {
		failErr(c, err)
		return
	}
	success(c, gin.H{"saved": true})
}

func (h *Handler) load(c *gin.Context) {
	ok, err := h.studio.Load(c.Request.Context())
	if err != nil {
		failErr(c, err)
		return
	}
	success(c, gin.H{"loaded": ok, "project": h.studio.Store.Get()})
}

func (h *Handler) reset(c *gin.Context) {
	if err := h.studio.Reset(c.Request.Context()); err != nil {
		failErr(c, err)
		return
	}
	success(c, h.studio.Store.Get())
}

type phaseRequest struct {
	Screenplay      string                `json:"screenplay"`
	UIElements      []string              `json:"uiElements"`
	BackgroundMusic string                `json:"backgroundMusic"`
	ExportSettings  *types.ExportSettings `json:"exportSettings"`
}

type phaseResponse struct {
	Phase        types.Phase   `json:"phase"`
	Name         string        `json:"name"`
	Outputs      types.Outputs `json:"outputs"`
	CurrentPhase types.Phase   `json:"currentPhase"`
}

func (h *Handler) runPhase(c *gin.Context) {
	p, err := types.ParsePhase(c.Param("phase"))
	if err != nil {
		fail(c, http.StatusBadRequest, ErrorInvalidPhase, err.Error())
		return
	}
	var req phaseRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		fail(c, http.StatusBadRequest, ErrorBadRequest, err.Error())
		return
	}

	outs, err := h.studio.RunPhase(c.Request.Context(), p, usecase.Inputs{
		Screenplay:      req.Screenplay,
		UIElements:      req.UIElements,
		BackgroundMusic: req.BackgroundMusic,
		Export:          req.ExportSettings,
	})
	if err != nil {
		failErr(c, err)
		return
	}
	success(c, phaseResponse{
		Phase:        p,
		Name:         p.Name(),
		Outputs:      outs,
		CurrentPhase: h.studio.Store.Get().CurrentPhase,
	})
}

func (h *Handler) preview(c *gin.Context) {
	o, err := h.studio.Executor.Preview()
	if err != nil {
		failErr(c, err)
		return
	}
	success(c, o)
}

// download serves the output named by ?id=, or the preview when no id is
// given. Inline media is sent as an attachment; remote media redirects.
func (h *Handler) download(c *gin.Context) {
	var o types.Output
	if id := c.Query("id"); id != "" {
		found, ok := usecase.FindOutput(h.studio.Store.Get(), id)
		if !ok {
			fail(c, http.StatusNotFound, ErrorNotFound, fmt.Sprintf("output %q not found", id))
			return
		}
		o = found
	} else {
		p, err := h.studio.Executor.Preview()
		if err != nil {
			failErr(c, err)
			return
		}
		o = p
	}

	m, err := usecase.Download(o)
	if err != nil {
		failErr(c, err)
		return
	}
	if !m.Inline() {
		c.Redirect(http.StatusFound, m.URL)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", m.Filename))
	c.Data(http.StatusOK, m.MIME, m.Data)
}

func (h *Handler) listKeys(c *gin.Context) {
	st, err := keys.Report(c.Request.Context(), h.studio.Keys)
	if err != nil {
		failErr(c, err)
		return
	}
	success(c, st)
}

type keyRequest struct {
	Value string `json:"value"`
}

func (h *Handler) setKey(c *gin.Context) {
	p, err := keys.ParseProvider(c.Param("provider"))
	if err != nil {
		fail(c, http.StatusBadRequest, ErrorBadRequest, err.Error())
		return
	}
	var req keyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrorBadRequest, err.Error())
		return
	}
	if err := h.studio.Keys.Set(c.Request.Context(), p, req.Value); err != nil {
		failErr(c, err)
		return
	}
	cl := keys.Classify(p, req.Value)
	h.log.Info("provider key updated", "provider", p, "key", cl.String())
	success(c, keys.Status{Provider: p, Name: p.EnvName(), Classification: cl, State: cl.String()})
}

// testKey checks the key in the body, or the stored one when the body is
// empty. A rejected key is still a 200; the verdict is in the payload.
func (h *Handler) testKey(c *gin.Context) {
	p, err := keys.ParseProvider(c.Param("provider"))
	if err != nil {
		fail(c, http.StatusBadRequest, ErrorBadRequest, err.Error())
		return
	}
	var req keyRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		fail(c, http.StatusBadRequest, ErrorBadRequest, err.Error())
		return
	}
	res, err := h.studio.TestKey(c.Request.Context(), p, req.Value)
	if err != nil {
		failErr(c, err)
		return
	}
	success(c, res)
}

type voicesResponse struct {
	Voices []types.Voice `json:"voices"`
	Status ports.Status  `json:"status"`
	Error  string        `json:"error,omitempty"`
}

func (h *Handler) voices(c *gin.Context) {
	res := h.studio.Voices(c.Request.Context())
	out := voicesResponse{Voices: res.Value, Status: res.Status}
	if res.Err != nil && !errors.Is(res.Err, errs.ErrProviderUnavailable) {
		out.Error = res.Err.Error()
	}
	success(c, out)
}
