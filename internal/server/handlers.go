package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/droplet-freeze/internal/droplet"
	"github.com/ironsheep/droplet-freeze/internal/freeze"
	"github.com/ironsheep/droplet-freeze/internal/nm"
	"github.com/ironsheep/droplet-freeze/internal/plot"
	"github.com/ironsheep/droplet-freeze/internal/store"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "droplets_detect", "nm_aggregate").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		s.log.WithFields(logrus.Fields{"tool": params.Name}).WithError(err).Warn("tool failed")
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	case "droplets_detect":
		return s.handleDropletsDetect(args)
	case "freeze_classify":
		return s.handleFreezeClassify(args)
	case "nm_aggregate":
		return s.handleNmAggregate(args)
	case "sig_round":
		return s.handleSigRound(args)
	case "folder_evaluate":
		return s.handleFolderEvaluate(args)
	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// === Droplet Handlers ===

type circleArg struct {
	X int `json:"x"`
	Y int `json:"y"`
	R int `json:"r"`
}

type detectArgs struct {
	Path string `json:"path"`
}

type detectResult struct {
	Count    int         `json:"count"`
	Droplets []circleArg `json:"droplets"`
}

func (s *Server) handleDropletsDetect(args json.RawMessage) (interface{}, error) {
	var a detectArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if s.detector == nil {
		return nil, errors.New("droplet detection is not available")
	}
	img, err := s.frames.Load(a.Path)
	if err != nil {
		return nil, err
	}
	circles, err := s.detector.Detect(img)
	if err != nil {
		return nil, err
	}

	out := detectResult{Count: len(circles), Droplets: make([]circleArg, 0, len(circles))}
	for _, c := range circles {
		out.Droplets = append(out.Droplets, circleArg{X: c.Center.X, Y: c.Center.Y, R: c.Radius})
	}
	return out, nil
}

type classifyArgs struct {
	Previous    string      `json:"previous"`
	Current     string      `json:"current"`
	Droplets    []circleArg `json:"droplets"`
	Temperature float64     `json:"temperature"`
	Threshold   *float64    `json:"threshold"`
}

// handleFreezeClassify runs one classifier step on a fresh droplet set.
// Droplet IDs in the result are indexes into the droplets argument.
func (s *Server) handleFreezeClassify(args json.RawMessage) (interface{}, error) {
	var a classifyArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	params := s.freeze
	if a.Threshold != nil {
		params.Threshold = *a.Threshold
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	prev, err := s.frames.Load(a.Previous)
	if err != nil {
		return nil, err
	}
	curr, err := s.frames.Load(a.Current)
	if err != nil {
		return nil, err
	}

	circles := make([]droplet.Circle, len(a.Droplets))
	for i, c := range a.Droplets {
		circles[i] = droplet.Circle{Center: droplet.Point{X: c.X, Y: c.Y}, Radius: c.R}
	}
	set := droplet.NewSet(circles)

	return freeze.NewClassifier(params, s.log).Classify(prev, curr, set, a.Temperature)
}

// === Aggregation Handlers ===

type aggregationArgs struct {
	Policy  *string  `json:"volume_policy"`
	D       *float64 `json:"d"`
	A       *float64 `json:"a"`
	B       *float64 `json:"b"`
	SigFigs *int     `json:"sig_figs"`
}

// options applies the overrides present in the call to the server
// defaults.
func (a aggregationArgs) options(base nm.Options) (nm.Options, error) {
	opts := base
	if a.Policy != nil {
		p, err := nm.ParseVolumePolicy(*a.Policy)
		if err != nil {
			return nm.Options{}, err
		}
		opts.Policy = p
	}
	if a.D != nil {
		opts.Constants.D = *a.D
	}
	if a.A != nil {
		opts.Constants.A = *a.A
	}
	if a.B != nil {
		opts.Constants.B = *a.B
	}
	if a.SigFigs != nil {
		opts.SigFigs = *a.SigFigs
	}
	return opts, opts.Validate()
}

type aggregateArgs struct {
	aggregationArgs
	Records []nm.FrameStepRecord `json:"records"`
}

func (s *Server) handleNmAggregate(args json.RawMessage) (interface{}, error) {
	var a aggregateArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	opts, err := a.options(s.aggregation)
	if err != nil {
		return nil, err
	}
	return nm.Aggregate(a.Records, opts)
}

type sigRoundArgs struct {
	Values  []float64 `json:"values"`
	SigFigs *int      `json:"sig_figs"`
}

func (s *Server) handleSigRound(args json.RawMessage) (interface{}, error) {
	var a sigRoundArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	sig := 4
	if a.SigFigs != nil {
		sig = *a.SigFigs
	}
	if sig < 1 {
		return nil, fmt.Errorf("sig_figs must be >= 1, got %d", sig)
	}
	return map[string]interface{}{
		"sig_figs": sig,
		"values":   nm.RoundSigAll(a.Values, sig),
	}, nil
}

type folderArgs struct {
	aggregationArgs
	Dir   string `json:"dir"`
	Write bool   `json:"write"`
}

type folderResult struct {
	Files    []string            `json:"files"`
	BadRadii int                 `json:"bad_radii,omitempty"`
	Table    *nm.ExperimentTable `json:"table"`
	Written  []string            `json:"written,omitempty"`
}

func (s *Server) handleFolderEvaluate(args json.RawMessage) (interface{}, error) {
	var a folderArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Dir == "" {
		return nil, errors.New("dir is required")
	}
	opts, err := a.options(s.aggregation)
	if err != nil {
		return nil, err
	}

	folder, err := store.LoadFolder(a.Dir)
	if err != nil {
		return nil, err
	}
	table, err := nm.Aggregate(folder.Records, opts)
	if err != nil {
		return nil, err
	}
	out := &folderResult{Files: folder.Files, BadRadii: folder.BadRadii, Table: table}
	if !a.Write {
		return out, nil
	}

	tablePath := filepath.Join(a.Dir, store.OverallFileName(a.Dir))
	if err := store.SaveTable(tablePath, table); err != nil {
		return nil, err
	}
	out.Written = append(out.Written, tablePath)

	plotPath := filepath.Join(a.Dir, plot.FileName(filepath.Base(filepath.Clean(a.Dir))))
	switch err := plot.SaveNm(plotPath, table, plot.DefaultOptions()); {
	case errors.Is(err, plot.ErrNoData):
		s.log.WithField("dir", a.Dir).Info("no positive Nm to plot")
	case err != nil:
		return nil, err
	default:
		out.Written = append(out.Written, plotPath)
	}
	return out, nil
}
