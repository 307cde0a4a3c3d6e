package catalog

import (
	"testing"

	"github.com/terra-clan/skillpath-engine/internal/models"
)

func fixtureCareerPath() *models.CareerPath {
	return &models.CareerPath{
		ID:    "backend",
		Title: "Backend Development",
		LearningPaths: []*models.LearningPath{
			{
				ID:    "databases",
				Title: "Databases",
				Order: 2,
				Skills: []*models.Skill{
					{
						ID:    "sql-basics",
						Title: "SQL Basics",
						Order: 1,
						Resources: []*models.Resource{
							{ID: "postgres-tutorial", Title: "PostgreSQL Tutorial", Type: models.ResourceCourse, URL: "https://example.com/pg"},
						},
					},
				},
			},
			{
				ID:    "nodejs-fundamentals",
				Title: "Node.js Fundamentals",
				Order: 1,
				Skills: []*models.Skill{
					// Deliberately out of order; the snapshot sorts by the
					// order field at build time.
					{
						ID:            "async-js",
						Title:         "Asynchronous JavaScript",
						Order:         2,
						Prerequisites: []string{"js-basics"},
						Resources: []*models.Resource{
							{ID: "event-loop-talk", Title: "Event Loop", Type: models.ResourceVideo, URL: "https://example.com/el"},
							{ID: "promises-article", Title: "Promises", Type: models.ResourceArticle, URL: "https://example.com/p"},
						},
					},
					{
						ID:    "js-basics",
						Title: "JavaScript Basics",
						Order: 1,
						Resources: []*models.Resource{
							{ID: "mdn-js-guide", Title: "MDN Guide", Type: models.ResourceDocumentation, URL: "https://example.com/mdn"},
						},
					},
					{
						ID:            "node-runtime",
						Title:         "Node Runtime",
						Order:         3,
						Prerequisites: []string{"js-basics", "async-js"},
						Resources: []*models.Resource{
							{ID: "node-docs", Title: "Node Docs", Type: models.ResourceDocumentation, URL: "https://example.com/node"},
						},
					},
				},
			},
		},
	}
}

func fixtureSnapshot() *Snapshot {
	return NewSnapshot(1, []*models.CareerPath{fixtureCareerPath()})
}

func TestSnapshotSortsByOrder(t *testing.T) {
	snap := fixtureSnapshot()

	cp := snap.GetCareerPath("backend")
	if cp == nil {
		t.Fatal("career path not found")
	}

	if cp.LearningPaths[0].ID != "nodejs-fundamentals" || cp.LearningPaths[1].ID != "databases" {
		t.Errorf("learning paths not sorted by order: %s, %s", cp.LearningPaths[0].ID, cp.LearningPaths[1].ID)
	}

	lp := snap.GetLearningPath("backend", "nodejs-fundamentals")
	wantOrder := []string{"js-basics", "async-js", "node-runtime"}
	for i, want := range wantOrder {
		if lp.Skills[i].ID != want {
			t.Errorf("skill %d: got %s, want %s", i, lp.Skills[i].ID, want)
		}
	}
}

func TestSnapshotLookups(t *testing.T) {
	snap := fixtureSnapshot()

	if snap.GetCareerPath("missing") != nil {
		t.Error("unknown career path should be nil")
	}
	if snap.GetLearningPath("backend", "missing") != nil {
		t.Error("unknown learning path should be nil")
	}
	if snap.GetSkill("backend", "nodejs-fundamentals", "missing") != nil {
		t.Error("unknown skill should be nil")
	}
	if snap.GetResource("backend", "nodejs-fundamentals", "js-basics", "missing") != nil {
		t.Error("unknown resource should be nil")
	}

	r := snap.GetResource("backend", "nodejs-fundamentals", "js-basics", "mdn-js-guide")
	if r == nil || r.Title != "MDN Guide" {
		t.Errorf("resource lookup failed: %+v", r)
	}
}

func TestNextAvailableSkill(t *testing.T) {
	snap := fixtureSnapshot()

	next := snap.NextAvailableSkill("backend", "nodejs-fundamentals", "js-basics")
	if next == nil || next.ID != "async-js" {
		t.Errorf("expected async-js after js-basics, got %+v", next)
	}

	// Pure lookup: calling it twice yields the same answer
	again := snap.NextAvailableSkill("backend", "nodejs-fundamentals", "js-basics")
	if again == nil || again.ID != next.ID {
		t.Error("repeated traversal should be stable")
	}

	if snap.NextAvailableSkill("backend", "nodejs-fundamentals", "node-runtime") != nil {
		t.Error("last skill should have no successor")
	}
	if snap.NextAvailableSkill("backend", "nodejs-fundamentals", "missing") != nil {
		t.Error("unknown skill should have no successor")
	}
}

func TestNextLearningPath(t *testing.T) {
	snap := fixtureSnapshot()

	next := snap.NextLearningPath("backend", "nodejs-fundamentals")
	if next == nil || next.ID != "databases" {
		t.Errorf("expected databases after nodejs-fundamentals, got %+v", next)
	}
	if snap.NextLearningPath("backend", "databases") != nil {
		t.Error("last learning path should have no successor")
	}
}

func TestCheckPrerequisites(t *testing.T) {
	snap := fixtureSnapshot()

	// No prerequisites: available regardless of completed set
	if !snap.CheckPrerequisites("backend", "nodejs-fundamentals", "js-basics", nil) {
		t.Error("skill without prerequisites should always be available")
	}

	if snap.CheckPrerequisites("backend", "nodejs-fundamentals", "async-js", nil) {
		t.Error("unmet prerequisite should lock the skill")
	}
	if !snap.CheckPrerequisites("backend", "nodejs-fundamentals", "async-js", []string{"js-basics"}) {
		t.Error("met prerequisite should unlock the skill")
	}

	// Set membership is order-independent
	completed := []string{"async-js", "js-basics"}
	if !snap.CheckPrerequisites("backend", "nodejs-fundamentals", "node-runtime", completed) {
		t.Error("prerequisites met in any order should unlock the skill")
	}

	if snap.CheckPrerequisites("backend", "nodejs-fundamentals", "missing", completed) {
		t.Error("unknown skill should never be available")
	}
}

func TestSkillStatus(t *testing.T) {
	snap := fixtureSnapshot()

	if got := snap.SkillStatus("backend", "nodejs-fundamentals", "async-js", nil); got != models.SkillLocked {
		t.Errorf("expected locked, got %s", got)
	}
	if got := snap.SkillStatus("backend", "nodejs-fundamentals", "async-js", []string{"js-basics"}); got != models.SkillAvailable {
		t.Errorf("expected available, got %s", got)
	}
}

func TestCalculateProgress(t *testing.T) {
	snap := fixtureSnapshot()

	// 5 resources total in the fixture
	summary := snap.CalculateProgress("backend", nil)
	if summary == nil {
		t.Fatal("known career path should yield a summary")
	}
	if summary.TotalResources != 5 || summary.CompletedResources != 0 || summary.PercentageComplete != 0 {
		t.Errorf("empty completion: %+v", summary)
	}

	completed := []models.CompletedResource{
		{ResourceID: "mdn-js-guide", SkillID: "js-basics"},
		{ResourceID: "event-loop-talk", SkillID: "async-js"},
		// Duplicate pair counts once
		{ResourceID: "mdn-js-guide", SkillID: "js-basics"},
		// Dangling pair is ignored
		{ResourceID: "deleted-resource", SkillID: "js-basics"},
	}

	summary = snap.CalculateProgress("backend", completed)
	if summary.CompletedResources != 2 {
		t.Errorf("expected 2 counted completions, got %d", summary.CompletedResources)
	}
	if summary.PercentageComplete != 40 {
		t.Errorf("expected 40%%, got %d", summary.PercentageComplete)
	}

	if snap.CalculateProgress("missing", completed) != nil {
		t.Error("unknown career path should yield nil")
	}
}

func TestCalculateProgressEmptyCareerPath(t *testing.T) {
	snap := NewSnapshot(1, []*models.CareerPath{{ID: "empty", Title: "Empty"}})

	summary := snap.CalculateProgress("empty", nil)
	if summary == nil {
		t.Fatal("empty career path should still yield a summary")
	}
	if summary.PercentageComplete != 0 {
		t.Errorf("empty career path should be 0%%, got %d", summary.PercentageComplete)
	}
}

func TestHasResourcePair(t *testing.T) {
	snap := fixtureSnapshot()

	if !snap.HasResourcePair("js-basics", "mdn-js-guide") {
		t.Error("existing pair should be found")
	}
	if snap.HasResourcePair("js-basics", "event-loop-talk") {
		t.Error("resource under a different skill should not match")
	}
	if snap.HasResourcePair("missing", "mdn-js-guide") {
		t.Error("unknown skill should not match")
	}
}
