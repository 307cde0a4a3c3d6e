package models

import "testing"

func TestLevelForExperience(t *testing.T) {
	cases := []struct {
		xp    int
		level int
	}{
		{0, 1},
		{99, 1},
		{100, 2},
		{399, 2},
		{400, 3},
		{900, 4},
		{-50, 1},
	}

	for _, tc := range cases {
		if got := LevelForExperience(tc.xp); got != tc.level {
			t.Errorf("LevelForExperience(%d) = %d, want %d", tc.xp, got, tc.level)
		}
	}
}

func TestAddExperience(t *testing.T) {
	p := NewUserProgress("u1")
	if p.Level != 1 {
		t.Fatalf("new progress should start at level 1, got %d", p.Level)
	}

	p.AddExperience(100)
	if p.Experience != 100 {
		t.Errorf("expected 100 xp, got %d", p.Experience)
	}
	if p.Level != 2 {
		t.Errorf("expected level 2 at 100 xp, got %d", p.Level)
	}

	// Zero and negative amounts are ignored
	p.AddExperience(0)
	p.AddExperience(-25)
	if p.Experience != 100 {
		t.Errorf("non-positive amounts should not change xp, got %d", p.Experience)
	}
}

func TestNextLevelExperience(t *testing.T) {
	p := NewUserProgress("u1")

	// Level 1 -> next threshold is 100
	if got := p.NextLevelExperience(); got != 100 {
		t.Errorf("expected next level at 100 xp, got %d", got)
	}

	p.AddExperience(150)
	// Level 2 -> threshold 400, 250 remaining
	if got := p.NextLevelExperience(); got != 400 {
		t.Errorf("expected next level at 400 xp, got %d", got)
	}
	if got := p.ExperienceToNextLevel(); got != 250 {
		t.Errorf("expected 250 xp to next level, got %d", got)
	}
}

func TestUpdateProgressClamps(t *testing.T) {
	p := NewUserProgress("u1")

	p.UpdateProgress("lp1", 150)
	if p.Progress["lp1"] != 100 {
		t.Errorf("expected clamp to 100, got %d", p.Progress["lp1"])
	}

	p.UpdateProgress("lp1", -10)
	if p.Progress["lp1"] != 0 {
		t.Errorf("expected clamp to 0, got %d", p.Progress["lp1"])
	}

	p.UpdateProgress("lp1", 55)
	if p.Progress["lp1"] != 55 {
		t.Errorf("expected 55, got %d", p.Progress["lp1"])
	}
}

func TestMarkResourceCompleteIdempotent(t *testing.T) {
	p := NewUserProgress("u1")

	if !p.MarkResourceComplete("r1", "s1", true) {
		t.Fatal("first completion should report a change")
	}
	if p.MarkResourceComplete("r1", "s1", true) {
		t.Error("repeat completion should be a no-op")
	}
	if len(p.CompletedResources) != 1 {
		t.Errorf("expected 1 completed resource, got %d", len(p.CompletedResources))
	}

	// Same resource id under a different skill is a distinct pair
	if !p.MarkResourceComplete("r1", "s2", true) {
		t.Error("same resource id under another skill should be distinct")
	}
	if len(p.CompletedResources) != 2 {
		t.Errorf("expected 2 completed resources, got %d", len(p.CompletedResources))
	}

	// Un-marking removes exactly the matching pair
	if !p.MarkResourceComplete("r1", "s1", false) {
		t.Error("un-marking an existing pair should report a change")
	}
	if p.MarkResourceComplete("r1", "s1", false) {
		t.Error("un-marking an absent pair should be a no-op")
	}
	if !p.HasCompleted("r1", "s2") {
		t.Error("pair under s2 should survive removal of the s1 pair")
	}
}

func TestAddAchievement(t *testing.T) {
	p := NewUserProgress("u1")

	if !p.AddAchievement("first-steps") {
		t.Fatal("new achievement should be added")
	}
	if p.AddAchievement("first-steps") {
		t.Error("duplicate achievement should be rejected")
	}
	if len(p.Achievements) != 1 {
		t.Errorf("expected 1 achievement, got %d", len(p.Achievements))
	}
}
