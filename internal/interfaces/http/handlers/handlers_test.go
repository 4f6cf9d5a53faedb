package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/ibocheck/internal/application/analysis"
	"github.com/turtacn/ibocheck/internal/config"
	"github.com/turtacn/ibocheck/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ibocheck/pkg/errors"
)

func init() { gin.SetMode(gin.TestMode) }

const minaoFixture = `h   MINAO
*
    3  s
      3.42525091         0.15432897
*
rb   MINAO
*
    5  s
      1.0 1.0
    3  p
      1.0 1.0
*
$end
`

type staticProvider struct {
	cfg *config.Config
	svc analysis.Service
}

func (p staticProvider) Config() *config.Config     { return p.cfg }
func (p staticProvider) Analysis() analysis.Service { return p.svc }

func newProvider(t *testing.T) staticProvider {
	t.Helper()
	path := filepath.Join(t.TempDir(), "MINAO")
	require.NoError(t, os.WriteFile(path, []byte(minaoFixture), 0o644))
	cfg := config.NewDefaultConfig()
	cfg.Basis.MinaoPath = path
	return staticProvider{cfg: cfg, svc: analysis.NewService(*cfg, nil, nil, logging.NewNopLogger())}
}

func newEngine(p Provider) *gin.Engine {
	r := gin.New()
	r.GET("/api/v1/minao/:element", NewMinaoHandler(p).Get)
	r.POST("/api/v1/classify", NewClassifyHandler(p).Classify)
	return r
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ─────────────────────────────────────────────────────────────────────────────
// Minao
// ─────────────────────────────────────────────────────────────────────────────

func TestMinao_LightElement(t *testing.T) {
	w := do(newEngine(newProvider(t)), http.MethodGet, "/api/v1/minao/H", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp MinaoResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "H", resp.Element)
	assert.Equal(t, 1, resp.Z)
	assert.Equal(t, 1, resp.Functions)
	assert.False(t, resp.Heavy)
	assert.Nil(t, resp.Profile)
}

func TestMinao_HeavyElementCarriesProfile(t *testing.T) {
	w := do(newEngine(newProvider(t)), http.MethodGet, "/api/v1/minao/rb", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp MinaoResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Rb", resp.Element)
	assert.Equal(t, 4, resp.Functions)
	assert.True(t, resp.Heavy)
	require.NotNil(t, resp.Profile)
	assert.Equal(t, ShellProfile{S: 5, P: 3, D: 1, F: 0, Functions: 19}, *resp.Profile)
}

func TestMinao_Errors(t *testing.T) {
	r := newEngine(newProvider(t))
	tests := []struct {
		name   string
		path   string
		status int
		code   errors.ErrorCode
	}{
		{"unknown symbol", "/api/v1/minao/Xx", http.StatusBadRequest, errors.CodeUnknownElement},
		{"absent from file", "/api/v1/minao/o", http.StatusNotFound, errors.CodeElementNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, http.MethodGet, tt.path, "")
			assert.Equal(t, tt.status, w.Code)
			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, string(tt.code), resp.Code)
		})
	}
}

func TestMinao_MissingFileIsMasked(t *testing.T) {
	p := newProvider(t)
	p.cfg.Basis.MinaoPath = filepath.Join(t.TempDir(), "absent")
	w := do(newEngine(p), http.MethodGet, "/api/v1/minao/h", "")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "internal server error", resp.Message)
}

func TestWriteAppError_NotFoundInChainWins(t *testing.T) {
	miss := errors.New(errors.CodeElementNotFound, "element po not found").WithDetail("marker=MINAO")
	r := gin.New()
	r.GET("/x", func(c *gin.Context) {
		writeAppError(c, errors.Wrap(miss, errors.CodeSynthesisWriteFailed, "failed to synthesize po"))
	})

	w := do(r, http.MethodGet, "/x", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "failed to synthesize po", resp.Message)
}

// ─────────────────────────────────────────────────────────────────────────────
// Classify
// ─────────────────────────────────────────────────────────────────────────────

func TestClassify_OverflowingDimer(t *testing.T) {
	// Six orbitals, three occupied, nBasis 6, nMINAO 2: the faithful budget
	// of four Rydberg orbitals exceeds the three virtuals.
	body := `{
		"id": "x2",
		"energies": [-10, -1, -0.5, 0.2, 0.5, 2.0],
		"occupations": [2, 2, 2, 0, 0, 0],
		"n_basis": 6,
		"total_minao": 2
	}`
	w := do(newEngine(newProvider(t)), http.MethodPost, "/api/v1/classify", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp ClassifyResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "x2", resp.ID)
	assert.Equal(t, "faithful", resp.Policy)
	assert.Equal(t, 4, resp.NRydbergFaithful)
	assert.Equal(t, 1, resp.Overflow)
	assert.True(t, resp.WillCrash)
	assert.True(t, resp.ConstraintViolated)
	assert.Equal(t, 1, resp.OccupiedMarkedRydberg)
	assert.Equal(t, []int{0}, resp.Partition.Core)
	assert.Equal(t, []int{2, 3, 4, 5}, resp.Partition.Rydberg)
	require.NotNil(t, resp.Boundaries.HOMO)
	assert.InDelta(t, -0.5, *resp.Boundaries.HOMO, 1e-12)
	assert.Nil(t, resp.Boundaries.LUMOPlus5)
	assert.Equal(t, "overflow", resp.Verdict)
}

func TestClassify_ConstrainedPolicyAndLookup(t *testing.T) {
	body := `{
		"element": "h",
		"atoms": 2,
		"energies": [0.7, -0.6, 1.5, 0.2],
		"occupations": [0, 2, 0, 0],
		"n_basis": 4,
		"policy": "iao"
	}`
	w := do(newEngine(newProvider(t)), http.MethodPost, "/api/v1/classify", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp ClassifyResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "H", resp.ID)
	assert.Equal(t, "constrained", resp.Policy)
	assert.Equal(t, 1, resp.MinaoPerAtom)
	assert.Equal(t, 2, resp.TotalMINAO)
	assert.Equal(t, []int{0}, resp.Partition.OccupiedValence)
	assert.Equal(t, []int{1}, resp.Partition.VirtualValence)
	assert.Equal(t, []int{2, 3}, resp.Partition.Rydberg)
	assert.False(t, resp.WillCrash)
	assert.Equal(t, 1, resp.EnergyCutoff.NRydbergProposed)
}

func TestClassify_BadRequests(t *testing.T) {
	r := newEngine(newProvider(t))
	tests := []struct {
		name   string
		body   string
		status int
		code   errors.ErrorCode
	}{
		{"malformed json", `{"energies": [`, http.StatusBadRequest, errors.CodeOrbitalInputInvalid},
		{"length mismatch", `{"energies": [1, 2], "occupations": [2], "n_basis": 2, "total_minao": 1}`,
			http.StatusBadRequest, errors.CodeOrbitalInputInvalid},
		{"no basis size", `{"energies": [1], "occupations": [2], "total_minao": 1}`,
			http.StatusBadRequest, errors.CodeOrbitalInputInvalid},
		{"no sizing", `{"energies": [1], "occupations": [2], "n_basis": 1}`,
			http.StatusBadRequest, errors.CodeInvalidParam},
		{"bad policy", `{"energies": [1], "occupations": [2], "n_basis": 1, "total_minao": 1, "policy": "x"}`,
			http.StatusBadRequest, errors.CodeInvalidParam},
		{"element missing from basis", `{"element": "o", "energies": [1], "occupations": [2], "n_basis": 1}`,
			http.StatusNotFound, errors.CodeElementNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, http.MethodPost, "/api/v1/classify", tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, string(tt.code), resp.Code)
		})
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Health
// ─────────────────────────────────────────────────────────────────────────────

type checker struct {
	name string
	err  error
}

func (c checker) Name() string                { return c.name }
func (c checker) Check(context.Context) error { return c.err }

func TestHealth_Liveness(t *testing.T) {
	r := gin.New()
	r.GET("/healthz", NewHealthHandler("1.2.3").Liveness)

	w := do(r, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp LivenessResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "alive", resp.Status)
	assert.Equal(t, "1.2.3", resp.Version)
}

func TestHealth_Readiness(t *testing.T) {
	dir := t.TempDir()
	present := filepath.Join(dir, "MINAO")
	require.NoError(t, os.WriteFile(present, nil, 0o644))

	tests := []struct {
		name     string
		checkers []HealthChecker
		status   int
	}{
		{"no checkers", nil, http.StatusOK},
		{"all healthy", []HealthChecker{checker{name: "a"}, FileChecker{Label: "minao", Path: present}}, http.StatusOK},
		{"one failing", []HealthChecker{checker{name: "a"}, FileChecker{Label: "ext", Path: filepath.Join(dir, "nope")}},
			http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/readyz", NewHealthHandler("v", tt.checkers...).Readiness)
			w := do(r, http.MethodGet, "/readyz", "")
			assert.Equal(t, tt.status, w.Code)

			var resp ReadinessResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Len(t, resp.Components, len(tt.checkers))
		})
	}
}
