package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/ryanbastic/go-gardenledger/internal/garden"
)

const maxUploadBytes = 25 << 20

// --- Huma Input/Output types ---

type UploadAssetInput struct {
	Folder  string `path:"folder" doc:"Asset folder profile, e.g. plants or progress"`
	Entity  string `path:"entity" doc:"Owning entity, slugged into a folder key"`
	Bucket  string `path:"bucket" doc:"Date or month bucket, e.g. feb-2026"`
	RawBody []byte `contentType:"application/octet-stream"`
}

type UploadResponse struct {
	Name           string   `json:"name" doc:"Stored file name"`
	Path           string   `json:"path" doc:"Path in the content store"`
	Locator        string   `json:"locator" doc:"Public URL with a cache-busting query"`
	Version        string   `json:"version" doc:"Version token of the stored asset"`
	Pruned         []string `json:"pruned,omitempty" doc:"Assets deleted by retention"`
	RetentionError string   `json:"retention_error,omitempty" doc:"Set when some surplus assets could not be deleted"`
}

type UploadAssetOutput struct {
	Body UploadResponse
}

type ListAssetsInput struct {
	Folder string `path:"folder" doc:"Asset folder profile"`
	Entity string `path:"entity" doc:"Owning entity"`
}

type AssetResponse struct {
	Name       string     `json:"name"`
	Path       string     `json:"path"`
	Version    string     `json:"version,omitempty"`
	ModifiedAt *time.Time `json:"modified_at,omitempty"`
}

type ListAssetsOutput struct {
	Body struct {
		Assets []AssetResponse `json:"assets"`
	}
}

// --- Handler ---

type AssetHandler struct {
	svc    *garden.Service
	logger *slog.Logger
}

func NewAssetHandler(svc *garden.Service, logger *slog.Logger) *AssetHandler {
	return &AssetHandler{svc: svc, logger: logger}
}

func registerAssetRoutes(api huma.API, h *AssetHandler) {
	huma.Register(api, huma.Operation{
		OperationID:   "upload-asset",
		Method:        http.MethodPost,
		Path:          "/v1/assets/{folder}/{entity}/{bucket}",
		Summary:       "Upload a photo",
		Description:   "Stores the request body under the next free name of the bucket and prunes the folder to its retention cap.",
		Tags:          []string{"assets"},
		DefaultStatus: http.StatusCreated,
		MaxBodyBytes:  maxUploadBytes,
	}, h.UploadAsset)

	huma.Register(api, huma.Operation{
		OperationID: "list-assets",
		Method:      http.MethodGet,
		Path:        "/v1/assets/{folder}/{entity}",
		Summary:     "List the photos of an entity",
		Tags:        []string{"assets"},
	}, h.ListAssets)
}

func (h *AssetHandler) UploadAsset(ctx context.Context, input *UploadAssetInput) (*UploadAssetOutput, error) {
	if len(input.RawBody) == 0 {
		return nil, huma.Error400BadRequest("empty upload")
	}

	res, err := h.svc.UploadAsset(ctx, input.Folder, input.Entity, input.Bucket, input.RawBody)
	if err != nil {
		return nil, toHumaError(h.logger, "failed to upload asset", err)
	}

	resp := UploadResponse{
		Name:    res.Name,
		Path:    res.Path,
		Locator: res.Locator,
		Version: res.Version,
		Pruned:  res.Pruned,
	}
	if res.RetentionErr != nil {
		resp.RetentionError = res.RetentionErr.Error()
	}
	return &UploadAssetOutput{Body: resp}, nil
}

func (h *AssetHandler) ListAssets(ctx context.Context, input *ListAssetsInput) (*ListAssetsOutput, error) {
	entries, err := h.svc.ListAssets(ctx, input.Folder, input.Entity)
	if err != nil {
		return nil, toHumaError(h.logger, "failed to list assets", err)
	}

	out := &ListAssetsOutput{}
	out.Body.Assets = make([]AssetResponse, len(entries))
	for i, e := range entries {
		a := AssetResponse{Name: e.Name, Path: e.Path, Version: e.Version}
		if !e.ModifiedAt.IsZero() {
			modified := e.ModifiedAt
			a.ModifiedAt = &modified
		}
		out.Body.Assets[i] = a
	}
	return out, nil
}
