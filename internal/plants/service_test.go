package plants

import (
	"context"
	"errors"
	"testing"

	pkgerrors "github.com/rmarchan/fieldrent-backend/pkg/errors"
	"github.com/rmarchan/fieldrent-backend/pkg/plantid"
)

type stubIdentifier struct {
	resp *plantid.IdentifyResponse
	err  error
	last plantid.IdentifyRequest
}

func (s *stubIdentifier) Identify(ctx context.Context, req plantid.IdentifyRequest) (*plantid.IdentifyResponse, error) {
	s.last = req
	if s.err != nil {
		return nil, s.err
	}
	return s.resp, nil
}

func expectCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	appErr := pkgerrors.As(err)
	if appErr == nil {
		t.Fatalf("expected app error with code %s, got %v", code, err)
	}
	if appErr.Code() != code {
		t.Fatalf("expected code %s, got %s (%v)", code, appErr.Code(), err)
	}
}

func TestAnalyzeRequiresNameOrImage(t *testing.T) {
	svc := NewService(&stubIdentifier{})
	_, err := svc.Analyze(context.Background(), AnalyzeInput{Name: "   "})
	expectCode(t, err, pkgerrors.CodeValidation)
}

func TestAnalyzeByName(t *testing.T) {
	stub := &stubIdentifier{}
	svc := NewService(stub)

	result, err := svc.Analyze(context.Background(), AnalyzeInput{Name: " Tomato "})
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}
	if result.PlantName != "Tomato" {
		t.Fatalf("expected Tomato, got %q", result.PlantName)
	}
	if result.HarvestDays != 90 {
		t.Fatalf("expected default harvest days, got %d", result.HarvestDays)
	}
	if len(result.Diseases) == 0 || len(result.Remedies) == 0 {
		t.Fatal("expected default advice blocks")
	}
	if len(stub.last.Images) != 0 {
		t.Fatal("name analysis should not call the identification api")
	}
}

func TestAnalyzeByImagePicksBestSuggestion(t *testing.T) {
	stub := &stubIdentifier{
		resp: &plantid.IdentifyResponse{
			IsPlant: true,
			Suggestions: []plantid.Suggestion{
				{PlantName: "Nightshade", Probability: 0.31},
				{
					PlantName:   "Solanum lycopersicum",
					Probability: 0.92,
					PlantDetails: &plantid.Details{
						ScientificName:  "Solanum lycopersicum",
						WikiDescription: &plantid.WikiDescription{Value: "The tomato."},
					},
				},
			},
		},
	}
	svc := NewService(stub)

	result, err := svc.Analyze(context.Background(), AnalyzeInput{ImageBase64: "aGVsbG8="})
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}
	if result.PlantName != "Solanum lycopersicum" {
		t.Fatalf("expected best suggestion, got %q", result.PlantName)
	}
	if result.ScientificName != "Solanum lycopersicum" {
		t.Fatalf("missing scientific name: %q", result.ScientificName)
	}
	if result.Description != "The tomato." {
		t.Fatalf("missing description: %q", result.Description)
	}
	if len(stub.last.Images) != 1 || stub.last.Images[0] != "aGVsbG8=" {
		t.Fatalf("unexpected identify request: %+v", stub.last)
	}
}

func TestAnalyzeByImageUpstreamFailure(t *testing.T) {
	stub := &stubIdentifier{err: errors.New("status 503")}
	svc := NewService(stub)

	_, err := svc.Analyze(context.Background(), AnalyzeInput{ImageBase64: "aGVsbG8="})
	expectCode(t, err, pkgerrors.CodeDependency)
}

func TestAnalyzeByImageNoPlant(t *testing.T) {
	stub := &stubIdentifier{resp: &plantid.IdentifyResponse{IsPlant: false}}
	svc := NewService(stub)

	_, err := svc.Analyze(context.Background(), AnalyzeInput{ImageBase64: "aGVsbG8="})
	expectCode(t, err, pkgerrors.CodeNotFound)
}

func TestAnalyzeByImageUnconfiguredClient(t *testing.T) {
	svc := NewService(nil)
	_, err := svc.Analyze(context.Background(), AnalyzeInput{ImageBase64: "aGVsbG8="})
	expectCode(t, err, pkgerrors.CodeDependency)
}

func TestGrowthConditionsByLatitude(t *testing.T) {
	tropics := 10.0
	temperate := 52.3
	if got := growthConditions(&tropics); got != "Suitable for tropical climates" {
		t.Fatalf("unexpected tropical advice: %q", got)
	}
	if got := growthConditions(nil); got != "Suitable for warm climates" {
		t.Fatalf("unexpected default advice: %q", got)
	}
	if got := growthConditions(&temperate); got == "Suitable for warm climates" {
		t.Fatalf("expected temperate advice, got %q", got)
	}
}
