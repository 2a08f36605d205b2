package plants

import (
	"context"
	"fmt"
	"math"
	"strings"

	pkgerrors "github.com/rmarchan/fieldrent-backend/pkg/errors"
	"github.com/rmarchan/fieldrent-backend/pkg/plantid"
)

// identifier is the slice of the plant.id client the service needs.
type identifier interface {
	Identify(ctx context.Context, req plantid.IdentifyRequest) (*plantid.IdentifyResponse, error)
}

// AnalyzeInput selects the plant either by name or by a base64-encoded
// photo. Coordinates are optional and only refine the growing advice.
type AnalyzeInput struct {
	Name        string
	ImageBase64 string
	Latitude    *float64
	Longitude   *float64
}

// Remedy is one treatment recommendation.
type Remedy struct {
	Name   string `json:"name"`
	Advice string `json:"advice"`
}

// AnalysisResult is the normalized record returned to clients.
type AnalysisResult struct {
	PlantName        string   `json:"plant_name"`
	ScientificName   string   `json:"scientific_name"`
	Probability      float64  `json:"probability,omitempty"`
	Description      string   `json:"description,omitempty"`
	GrowthConditions string   `json:"growth_conditions"`
	HarvestDays      int      `json:"harvest_days"`
	Diseases         []string `json:"diseases"`
	Remedies         []Remedy `json:"remedies"`
}

// Service analyzes crops for the rental users.
type Service interface {
	Analyze(ctx context.Context, input AnalyzeInput) (*AnalysisResult, error)
}

type service struct {
	client identifier
}

// NewService builds the plant analysis service. The client may be nil when
// the identification feature is not configured; name-based analysis still
// works in that case.
func NewService(client identifier) Service {
	return &service{client: client}
}

var identifyDetails = []string{"common_names", "scientific_name", "wiki_description"}

func (s *service) Analyze(ctx context.Context, input AnalyzeInput) (*AnalysisResult, error) {
	name := strings.TrimSpace(input.Name)
	image := strings.TrimSpace(input.ImageBase64)
	if name == "" && image == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "provide a plant name or image")
	}

	if image != "" {
		return s.analyzeImage(ctx, image, input.Latitude)
	}
	return buildResult(name, "", 0, "", input.Latitude), nil
}

func (s *service) analyzeImage(ctx context.Context, image string, latitude *float64) (*AnalysisResult, error) {
	if s.client == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "plant identification is not configured")
	}

	resp, err := s.client.Identify(ctx, plantid.IdentifyRequest{
		Images:       []string{image},
		PlantDetails: identifyDetails,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "identify plant")
	}
	if !resp.IsPlant || len(resp.Suggestions) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no plant recognized in the image")
	}

	best := resp.Suggestions[0]
	for _, candidate := range resp.Suggestions[1:] {
		if candidate.Probability > best.Probability {
			best = candidate
		}
	}

	scientific := ""
	description := ""
	if best.PlantDetails != nil {
		scientific = best.PlantDetails.ScientificName
		if best.PlantDetails.WikiDescription != nil {
			description = best.PlantDetails.WikiDescription.Value
		}
	}
	return buildResult(best.PlantName, scientific, best.Probability, description, latitude), nil
}

func buildResult(name, scientific string, probability float64, description string, latitude *float64) *AnalysisResult {
	return &AnalysisResult{
		PlantName:        name,
		ScientificName:   scientific,
		Probability:      probability,
		Description:      description,
		GrowthConditions: growthConditions(latitude),
		HarvestDays:      90,
		Diseases:         []string{"Powdery Mildew"},
		Remedies: []Remedy{
			{Name: "Fungicide X", Advice: "Apply to leaves"},
		},
	}
}

func growthConditions(latitude *float64) string {
	if latitude == nil {
		return "Suitable for warm climates"
	}
	abs := math.Abs(*latitude)
	switch {
	case abs <= 23.5:
		return "Suitable for tropical climates"
	case abs <= 45:
		return "Suitable for warm climates"
	default:
		return fmt.Sprintf("Suitable for temperate climates (latitude %.1f)", *latitude)
	}
}
