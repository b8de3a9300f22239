package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/ryanbastic/go-gardenledger/internal/garden"
	"github.com/ryanbastic/go-gardenledger/internal/record"
	"github.com/ryanbastic/go-gardenledger/internal/recordstore"
)

// --- Huma Input/Output types ---

type ListTablesOutput struct {
	Body struct {
		Tables []string `json:"tables" doc:"Table names"`
	}
}

type GetTableInput struct {
	Name string `path:"name" doc:"Table name"`
}

type SkippedRow struct {
	Line    int `json:"line" doc:"1-based line number in the file"`
	Columns int `json:"columns" doc:"Fields found on the line"`
	Want    int `json:"want" doc:"Fields required"`
}

type TableResponse struct {
	Name    string              `json:"name" doc:"Table name"`
	Records []map[string]string `json:"records" doc:"Rows keyed by column name"`
	Version string              `json:"version,omitempty" doc:"Version token to send back when saving"`
	Found   bool                `json:"found" doc:"False when the table file does not exist yet"`
	Skipped []SkippedRow        `json:"skipped,omitempty" doc:"Malformed rows left out of records"`
}

type GetTableOutput struct {
	Body TableResponse
}

type SaveTableBody struct {
	Records []map[string]string `json:"records" doc:"Full table contents" required:"true"`
	Version string              `json:"version,omitempty" required:"false" doc:"Version token from the last load. When empty the table is written over its current revision."`
}

type SaveTableInput struct {
	Name string `path:"name" doc:"Table name"`
	Body SaveTableBody
}

type SaveResponse struct {
	Version string `json:"version" doc:"New version token"`
	URL     string `json:"url,omitempty" doc:"Locator of the table file"`
}

type SaveTableOutput struct {
	Body SaveResponse
}

// --- Handler ---

type TableHandler struct {
	svc    *garden.Service
	logger *slog.Logger
}

func NewTableHandler(svc *garden.Service, logger *slog.Logger) *TableHandler {
	return &TableHandler{svc: svc, logger: logger}
}

func registerTableRoutes(api huma.API, h *TableHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "list-tables",
		Method:      http.MethodGet,
		Path:        "/v1/tables",
		Summary:     "List tables",
		Tags:        []string{"tables"},
	}, h.ListTables)

	huma.Register(api, huma.Operation{
		OperationID: "get-table",
		Method:      http.MethodGet,
		Path:        "/v1/tables/{name}",
		Summary:     "Load a table",
		Tags:        []string{"tables"},
	}, h.GetTable)

	huma.Register(api, huma.Operation{
		OperationID: "save-table",
		Method:      http.MethodPut,
		Path:        "/v1/tables/{name}",
		Summary:     "Save a table",
		Description: "Writes the full table. A stale version token yields 409 and nothing is written.",
		Tags:        []string{"tables"},
	}, h.SaveTable)
}

func (h *TableHandler) ListTables(ctx context.Context, _ *struct{}) (*ListTablesOutput, error) {
	out := &ListTablesOutput{}
	out.Body.Tables = h.svc.Tables()
	return out, nil
}

func (h *TableHandler) GetTable(ctx context.Context, input *GetTableInput) (*GetTableOutput, error) {
	snap, err := h.svc.LoadTable(ctx, input.Name)
	if err != nil {
		return nil, toHumaError(h.logger, "failed to load table", err)
	}
	return &GetTableOutput{Body: snapshotToResponse(input.Name, snap)}, nil
}

func (h *TableHandler) SaveTable(ctx context.Context, input *SaveTableInput) (*SaveTableOutput, error) {
	set := make(record.RecordSet, len(input.Body.Records))
	for i, r := range input.Body.Records {
		set[i] = record.Record(r)
	}

	var (
		res *recordstore.SaveResult
		err error
	)
	if input.Body.Version != "" {
		res, err = h.svc.SaveTableIfMatch(ctx, input.Name, set, input.Body.Version)
	} else {
		res, err = h.svc.SaveTable(ctx, input.Name, set)
	}
	if err != nil {
		return nil, toHumaError(h.logger, "failed to save table", err)
	}
	return &SaveTableOutput{Body: SaveResponse{Version: res.Version, URL: res.URL}}, nil
}

func snapshotToResponse(name string, snap *recordstore.Snapshot) TableResponse {
	resp := TableResponse{
		Name:    name,
		Records: make([]map[string]string, len(snap.Records)),
		Version: snap.Version,
		Found:   snap.Found,
	}
	for i, r := range snap.Records {
		resp.Records[i] = r
	}
	for _, m := range snap.Skipped {
		resp.Skipped = append(resp.Skipped, SkippedRow{Line: m.Line, Columns: m.Columns, Want: m.Want})
	}
	return resp
}
