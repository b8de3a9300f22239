package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/ryanbastic/go-gardenledger/internal/garden"
)

// --- Huma Input/Output types ---

type AddPlantBody struct {
	CommonName     string `json:"common_name" required:"true" minLength:"1" doc:"Common name, unique within the inventory"`
	ScientificName string `json:"scientific_name" required:"true" minLength:"1"`
	Picture        string `json:"picture,omitempty" required:"false"`
	Zone           string `json:"zone,omitempty" required:"false" doc:"Hardiness zone range"`
	Sunlight       string `json:"sunlight,omitempty" required:"false"`
	Watering       string `json:"watering,omitempty" required:"false"`
	Height         string `json:"height,omitempty" required:"false"`
	LastWatered    string `json:"last_watered,omitempty" required:"false" doc:"ISO date, e.g. 2026-02-09"`
	PestCheck      string `json:"pest_check,omitempty" required:"false"`
	Wilting        string `json:"wilting,omitempty" required:"false"`
	HealthStatus   string `json:"health_status,omitempty" required:"false"`
	PhotoURL       string `json:"photo_url,omitempty" required:"false"`
}

type AddPlantInput struct {
	Body AddPlantBody
}

type PlantResponse struct {
	Plant   map[string]string `json:"plant" doc:"Stored plant row"`
	Version string            `json:"version" doc:"New version token of the plants table"`
}

type PlantOutput struct {
	Body PlantResponse
}

type UpdateStatusBody struct {
	LastWatered  string `json:"last_watered,omitempty" required:"false" doc:"ISO date, e.g. 2026-02-09"`
	PestCheck    string `json:"pest_check,omitempty" required:"false"`
	Wilting      string `json:"wilting,omitempty" required:"false"`
	HealthStatus string `json:"health_status,omitempty" required:"false"`
	Photo        []byte `json:"photo,omitempty" required:"false" doc:"Base64 photo stored in the plant's folder"`
}

type UpdateStatusInput struct {
	Name string `path:"name" doc:"Common name of the plant"`
	Body UpdateStatusBody
}

// --- Handler ---

type PlantHandler struct {
	svc    *garden.Service
	logger *slog.Logger
}

func NewPlantHandler(svc *garden.Service, logger *slog.Logger) *PlantHandler {
	return &PlantHandler{svc: svc, logger: logger}
}

func registerPlantRoutes(api huma.API, h *PlantHandler) {
	huma.Register(api, huma.Operation{
		OperationID:   "add-plant",
		Method:        http.MethodPost,
		Path:          "/v1/plants",
		Summary:       "Add a plant",
		Tags:          []string{"plants"},
		DefaultStatus: http.StatusCreated,
	}, h.AddPlant)

	huma.Register(api, huma.Operation{
		OperationID:  "update-plant-status",
		Method:       http.MethodPut,
		Path:         "/v1/plants/{name}/status",
		Summary:      "Record a plant status check",
		Tags:         []string{"plants"},
		MaxBodyBytes: maxUploadBytes * 2,
	}, h.UpdateStatus)
}

func (h *PlantHandler) AddPlant(ctx context.Context, input *AddPlantInput) (*PlantOutput, error) {
	b := input.Body
	r, res, err := h.svc.AddPlant(ctx, garden.PlantEntry{
		CommonName:     b.CommonName,
		ScientificName: b.ScientificName,
		Picture:        b.Picture,
		Zone:           b.Zone,
		Sunlight:       b.Sunlight,
		Watering:       b.Watering,
		Height:         b.Height,
		LastWatered:    b.LastWatered,
		PestCheck:      b.PestCheck,
		Wilting:        b.Wilting,
		HealthStatus:   b.HealthStatus,
		PhotoURL:       b.PhotoURL,
	})
	if err != nil {
		return nil, toHumaError(h.logger, "failed to add plant", err)
	}
	return &PlantOutput{Body: PlantResponse{Plant: r, Version: res.Version}}, nil
}

func (h *PlantHandler) UpdateStatus(ctx context.Context, input *UpdateStatusInput) (*PlantOutput, error) {
	b := input.Body
	r, res, err := h.svc.UpdatePlantStatus(ctx, input.Name, garden.StatusUpdate{
		LastWatered:  b.LastWatered,
		PestCheck:    b.PestCheck,
		Wilting:      b.Wilting,
		HealthStatus: b.HealthStatus,
		Photo:        b.Photo,
	})
	if err != nil {
		return nil, toHumaError(h.logger, "failed to update plant status", err)
	}
	return &PlantOutput{Body: PlantResponse{Plant: r, Version: res.Version}}, nil
}
