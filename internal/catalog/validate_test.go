package catalog

import (
	"errors"
	"testing"

	"github.com/terra-clan/skillpath-engine/internal/models"
)

func TestValidateCareerPath(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(cp *models.CareerPath)
		wantErr bool
	}{
		{
			name:    "valid",
			mutate:  func(cp *models.CareerPath) {},
			wantErr: false,
		},
		{
			name:    "missing title",
			mutate:  func(cp *models.CareerPath) { cp.Title = "" },
			wantErr: true,
		},
		{
			name: "duplicate learning path id",
			mutate: func(cp *models.CareerPath) {
				cp.LearningPaths = append(cp.LearningPaths, &models.LearningPath{ID: "nodejs-fundamentals", Title: "Dup"})
			},
			wantErr: true,
		},
		{
			name: "dangling learning path prerequisite",
			mutate: func(cp *models.CareerPath) {
				cp.LearningPaths[0].Prerequisites = []string{"does-not-exist"}
			},
			wantErr: true,
		},
		{
			name: "self-referencing skill prerequisite",
			mutate: func(cp *models.CareerPath) {
				lp := cp.LearningPaths[0]
				lp.Skills[0].Prerequisites = []string{lp.Skills[0].ID}
			},
			wantErr: true,
		},
		{
			name: "duplicate skill id",
			mutate: func(cp *models.CareerPath) {
				lp := cp.LearningPaths[0]
				lp.Skills = append(lp.Skills, &models.Skill{ID: lp.Skills[0].ID, Title: "Dup"})
			},
			wantErr: true,
		},
		{
			name: "invalid difficulty level",
			mutate: func(cp *models.CareerPath) {
				cp.LearningPaths[0].Level = "expert"
			},
			wantErr: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cp := fixtureCareerPath()
			tc.mutate(cp)

			err := ValidateCareerPath(cp)
			if tc.wantErr && err == nil {
				t.Error("expected validation error")
			}
			if !tc.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if tc.wantErr {
				var verr *ValidationError
				if !errors.As(err, &verr) {
					t.Errorf("error should be a ValidationError, got %T", err)
				}
			}
		})
	}
}

func TestValidateResource(t *testing.T) {
	practice := &models.Resource{
		ID:    "ex1",
		Title: "Exercise",
		Type:  models.ResourcePractice,
		Practice: &models.PracticeSpec{
			Language:    "javascript",
			StarterCode: "// start here",
		},
	}
	if err := ValidateResource(practice); err != nil {
		t.Errorf("valid practice resource rejected: %v", err)
	}

	practice.Practice.StarterCode = ""
	if err := ValidateResource(practice); err == nil {
		t.Error("practice without starter code should be rejected")
	}

	practice.Practice = nil
	if err := ValidateResource(practice); err == nil {
		t.Error("practice without an exercise spec should be rejected")
	}

	link := &models.Resource{
		ID:    "doc1",
		Title: "Docs",
		Type:  models.ResourceDocumentation,
	}
	if err := ValidateResource(link); err == nil {
		t.Error("url-type resource without url should be rejected")
	}

	link.URL = "https://example.com"
	if err := ValidateResource(link); err != nil {
		t.Errorf("valid url resource rejected: %v", err)
	}

	link.Type = "webinar"
	if err := ValidateResource(link); err == nil {
		t.Error("unknown resource type should be rejected")
	}
}
