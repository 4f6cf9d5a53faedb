package handlers

import (
	"math"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/ibocheck/internal/application/analysis"
	"github.com/turtacn/ibocheck/internal/domain/orbital"
	"github.com/turtacn/ibocheck/internal/infrastructure/orbitalio"
	"github.com/turtacn/ibocheck/pkg/errors"
)

// ClassifyHandler classifies one posted orbital set.
type ClassifyHandler struct {
	provider Provider
}

// NewClassifyHandler creates a ClassifyHandler.
func NewClassifyHandler(p Provider) *ClassifyHandler {
	return &ClassifyHandler{provider: p}
}

// ClassifyRequest is an orbital document plus sizing overrides.
type ClassifyRequest struct {
	ID string `json:"id"`
	orbitalio.Document
	MinaoPerAtom int    `json:"minao_per_atom,omitempty"`
	TotalMINAO   int    `json:"total_minao,omitempty"`
	Policy       string `json:"policy,omitempty"`
}

// PartitionResponse lists orbital indices (ascending energy order) per space.
type PartitionResponse struct {
	Core            []int `json:"core"`
	OccupiedValence []int `json:"occupied_valence"`
	VirtualValence  []int `json:"virtual_valence"`
	Rydberg         []int `json:"rydberg"`
}

// BoundariesResponse holds reporting energies; undefined ones are omitted.
type BoundariesResponse struct {
	HOMO         *float64 `json:"homo,omitempty"`
	LUMO         *float64 `json:"lumo,omitempty"`
	LUMOPlus5    *float64 `json:"lumo_plus5,omitempty"`
	LUMOPlus10   *float64 `json:"lumo_plus10,omitempty"`
	RydbergStart *float64 `json:"rydberg_start,omitempty"`
	RydbergEnd   *float64 `json:"rydberg_end,omitempty"`
	CoreMin      *float64 `json:"core_min,omitempty"`
	CoreMax      *float64 `json:"core_max,omitempty"`
	Gap          *float64 `json:"homo_lumo_gap,omitempty"`
}

// CutoffResponse evaluates the energy-based Rydberg threshold.
type CutoffResponse struct {
	Cutoff           float64 `json:"cutoff"`
	NVirtual         int     `json:"n_virtual"`
	NRydbergProposed int     `json:"n_rydberg_proposed"`
	WouldFix         bool    `json:"would_fix"`
}

// ClassifyResponse is the body of POST /api/v1/classify.
type ClassifyResponse struct {
	ID                    string             `json:"id"`
	Element               string             `json:"element,omitempty"`
	Policy                string             `json:"policy"`
	NMO                   int                `json:"n_mo"`
	NBasis                int                `json:"n_basis"`
	MinaoPerAtom          int                `json:"minao_per_atom"`
	TotalMINAO            int                `json:"minao_total"`
	NOccupied             int                `json:"n_occupied"`
	NVirtual              int                `json:"n_virtual"`
	NRydbergFaithful      int                `json:"n_rydberg_faithful"`
	NValVirtConstrained   int                `json:"n_val_virt_constrained"`
	NRydbergConstrained   int                `json:"n_rydberg_constrained"`
	Overflow              int                `json:"overflow"`
	Overlap               int                `json:"core_rydberg_overlap"`
	OccupiedMarkedRydberg int                `json:"occ_marked_rydberg"`
	WillCrash             bool               `json:"will_crash"`
	ConstraintViolated    bool               `json:"constraint_violated"`
	ImpossibleInput       bool               `json:"impossible_input"`
	PhysicallyUnbound     bool               `json:"physically_unbound"`
	Partition             PartitionResponse  `json:"partition"`
	Boundaries            BoundariesResponse `json:"boundaries"`
	EnergyCutoff          CutoffResponse     `json:"energy_cutoff"`
	Verdict               string             `json:"verdict"`
}

// Classify handles POST /api/v1/classify.
func (h *ClassifyHandler) Classify(c *gin.Context) {
	var req ClassifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeAppError(c, errors.Wrap(err, errors.CodeOrbitalInputInvalid, "malformed request body").WithDetail(err.Error()))
		return
	}

	policy := orbital.PolicyFaithful
	if req.Policy != "" {
		p, err := orbital.ParsePolicy(req.Policy)
		if err != nil {
			writeAppError(c, errors.Wrap(err, errors.CodeInvalidParam, "invalid policy").WithDetail(req.Policy))
			return
		}
		policy = p
	}

	set, err := req.Document.Set()
	if err != nil {
		writeAppError(c, err)
		return
	}

	id := req.ID
	if id == "" {
		id = req.Element
	}
	out, err := h.provider.Analysis().Classify(c.Request.Context(), analysis.Input{
		ID:  id,
		Set: *set,
		Sizing: analysis.Sizing{
			Element:      req.Element,
			MinaoPerAtom: req.MinaoPerAtom,
			Atoms:        req.Atoms,
			TotalMINAO:   req.TotalMINAO,
		},
	})
	if err != nil {
		writeAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, newClassifyResponse(out, policy))
}

func newClassifyResponse(o *analysis.Outcome, policy orbital.Policy) ClassifyResponse {
	r := o.Result
	p := r.Partition(policy)
	return ClassifyResponse{
		ID:                    o.Identifier(),
		Element:               o.Element,
		Policy:                policy.String(),
		NMO:                   r.NMO,
		NBasis:                r.NBasis,
		MinaoPerAtom:          o.MinaoPerAtom,
		TotalMINAO:            r.TotalMINAO,
		NOccupied:             r.NOccupied,
		NVirtual:              r.NVirtual,
		NRydbergFaithful:      r.NRydbergFaithful,
		NValVirtConstrained:   r.NValVirtConstrained,
		NRydbergConstrained:   r.NRydbergConstrained,
		Overflow:              r.Overflow,
		Overlap:               r.Overlap,
		OccupiedMarkedRydberg: r.OccupiedMarkedRydberg,
		WillCrash:             r.WillCrash,
		ConstraintViolated:    r.ConstraintViolated,
		ImpossibleInput:       r.ImpossibleInput,
		PhysicallyUnbound:     r.PhysicallyUnbound,
		Partition: PartitionResponse{
			Core:            p.Core.Indices(),
			OccupiedValence: p.OccupiedValence.Indices(),
			VirtualValence:  p.VirtualValence.Indices(),
			Rydberg:         p.Rydberg.Indices(),
		},
		Boundaries: BoundariesResponse{
			HOMO:         defined(r.HOMO),
			LUMO:         defined(r.LUMO),
			LUMOPlus5:    defined(r.LUMOPlus5),
			LUMOPlus10:   defined(r.LUMOPlus10),
			RydbergStart: defined(r.RydbergStart),
			RydbergEnd:   defined(r.RydbergEnd),
			CoreMin:      defined(r.CoreMin),
			CoreMax:      defined(r.CoreMax),
			Gap:          defined(r.Gap),
		},
		EnergyCutoff: CutoffResponse{
			Cutoff:           o.Proposal.Cutoff,
			NVirtual:         o.Proposal.NVirtual,
			NRydbergProposed: o.Proposal.NRydbergProposed,
			WouldFix:         o.Proposal.WouldFix,
		},
		Verdict: r.Verdict(),
	}
}

func defined(f float64) *float64 {
	if math.IsNaN(f) {
		return nil
	}
	return &f
}
