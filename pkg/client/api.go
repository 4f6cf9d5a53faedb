package client

import (
	"context"
	"net/url"
)

// ShellProfile is the occupied-shell profile of a heavy element.
type ShellProfile struct {
	S         int `json:"s"`
	P         int `json:"p"`
	D         int `json:"d"`
	F         int `json:"f"`
	Functions int `json:"functions"`
}

// MinaoInfo is the server's view of one element's minimal basis.
type MinaoInfo struct {
	Element   string        `json:"element"`
	Z         int           `json:"z"`
	Marker    string        `json:"marker"`
	Functions int           `json:"functions"`
	Heavy     bool          `json:"heavy"`
	Profile   *ShellProfile `json:"profile,omitempty"`
}

// ClassifyRequest carries one orbital set.  Coefficients are accepted but
// unused by the classifier.
type ClassifyRequest struct {
	ID           string      `json:"id,omitempty"`
	Element      string      `json:"element,omitempty"`
	Atoms        int         `json:"atoms,omitempty"`
	Energies     []float64   `json:"energies"`
	Occupations  []float64   `json:"occupations"`
	NBasis       *int        `json:"n_basis,omitempty"`
	Coefficients [][]float64 `json:"coefficients,omitempty"`
	MinaoPerAtom int         `json:"minao_per_atom,omitempty"`
	TotalMINAO   int         `json:"total_minao,omitempty"`
	// Policy is "faithful" (default) or "constrained".
	Policy string `json:"policy,omitempty"`
}

// Partition lists orbital indices, in ascending energy order, per space.
type Partition struct {
	Core            []int `json:"core"`
	OccupiedValence []int `json:"occupied_valence"`
	VirtualValence  []int `json:"virtual_valence"`
	Rydberg         []int `json:"rydberg"`
}

// Boundaries holds reporting energies.  Nil means undefined.
type Boundaries struct {
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

// EnergyCutoff is the energy-threshold Rydberg proposal.
type EnergyCutoff struct {
	Cutoff           float64 `json:"cutoff"`
	NVirtual         int     `json:"n_virtual"`
	NRydbergProposed int     `json:"n_rydberg_proposed"`
	WouldFix         bool    `json:"would_fix"`
}

// Classification is the server's answer to Classify.
type Classification struct {
	ID                    string       `json:"id"`
	Element               string       `json:"element,omitempty"`
	Policy                string       `json:"policy"`
	NMO                   int          `json:"n_mo"`
	NBasis                int          `json:"n_basis"`
	MinaoPerAtom          int          `json:"minao_per_atom"`
	TotalMINAO            int          `json:"minao_total"`
	NOccupied             int          `json:"n_occupied"`
	NVirtual              int          `json:"n_virtual"`
	NRydbergFaithful      int          `json:"n_rydberg_faithful"`
	NValVirtConstrained   int          `json:"n_val_virt_constrained"`
	NRydbergConstrained   int          `json:"n_rydberg_constrained"`
	Overflow              int          `json:"overflow"`
	Overlap               int          `json:"core_rydberg_overlap"`
	OccupiedMarkedRydberg int          `json:"occ_marked_rydberg"`
	WillCrash             bool         `json:"will_crash"`
	ConstraintViolated    bool         `json:"constraint_violated"`
	ImpossibleInput       bool         `json:"impossible_input"`
	PhysicallyUnbound     bool         `json:"physically_unbound"`
	Partition             Partition    `json:"partition"`
	Boundaries            Boundaries   `json:"boundaries"`
	EnergyCutoff          EnergyCutoff `json:"energy_cutoff"`
	Verdict               string       `json:"verdict"`
}

// Liveness is the body of /healthz.
type Liveness struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
}

// Minao looks up the minimal-basis function count of one element.
func (c *Client) Minao(ctx context.Context, element string) (*MinaoInfo, error) {
	var out MinaoInfo
	if err := c.get(ctx, "/api/v1/minao/"+url.PathEscape(element), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Classify partitions one orbital set on the server.
func (c *Client) Classify(ctx context.Context, req *ClassifyRequest) (*Classification, error) {
	var out Classification
	if err := c.post(ctx, "/api/v1/classify", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Health calls the liveness probe.
func (c *Client) Health(ctx context.Context) (*Liveness, error) {
	var out Liveness
	if err := c.get(ctx, "/healthz", &out); err != nil {
		return nil, err
	}
	return &out, nil
}
