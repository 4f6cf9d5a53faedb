package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/ibocheck/internal/application/analysis"
	"github.com/turtacn/ibocheck/internal/config"
	"github.com/turtacn/ibocheck/internal/domain/basis"
	"github.com/turtacn/ibocheck/internal/domain/element"
)

// Provider hands out the live configuration and the analysis service built
// from it.  serve swaps both when the config file changes.
type Provider interface {
	Config() *config.Config
	Analysis() analysis.Service
}

// MinaoHandler serves minimal-basis lookups.
type MinaoHandler struct {
	provider Provider
}

// NewMinaoHandler creates a MinaoHandler.
func NewMinaoHandler(p Provider) *MinaoHandler {
	return &MinaoHandler{provider: p}
}

// ShellProfile is the occupied-shell profile of a heavy element.
type ShellProfile struct {
	S         int `json:"s"`
	P         int `json:"p"`
	D         int `json:"d"`
	F         int `json:"f"`
	Functions int `json:"functions"`
}

// MinaoResponse is the body of GET /api/v1/minao/:element.
type MinaoResponse struct {
	Element   string        `json:"element"`
	Z         int           `json:"z"`
	Marker    string        `json:"marker"`
	Functions int           `json:"functions"`
	Heavy     bool          `json:"heavy"`
	Profile   *ShellProfile `json:"profile,omitempty"`
}

// Get handles GET /api/v1/minao/:element.
func (h *MinaoHandler) Get(c *gin.Context) {
	sym := c.Param("element")
	z, err := element.AtomicNumber(sym)
	if err != nil {
		writeAppError(c, err)
		return
	}

	cfg := h.provider.Config().Basis
	n, err := basis.LookupFile(cfg.MinaoPath, sym, cfg.MinaoMarker)
	if err != nil {
		writeAppError(c, err)
		return
	}

	canonical, _ := element.Symbol(z)
	resp := MinaoResponse{
		Element:   canonical,
		Z:         z,
		Marker:    cfg.MinaoMarker,
		Functions: n,
		Heavy:     z >= cfg.HeavyThreshold,
	}
	if p, err := element.Profile(z); err == nil && resp.Heavy {
		resp.Profile = &ShellProfile{S: p.S, P: p.P, D: p.D, F: p.F, Functions: p.BasisFunctionCount()}
	}
	c.JSON(http.StatusOK, resp)
}
