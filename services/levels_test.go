package services

import (
	"testing"

	"school-admin-system/models"
)

func TestResolveBootstrapsDefaultLadder(t *testing.T) {
	db := newTestDB(t)
	svc := NewLevelService(db)

	lvl, err := svc.Resolve(0)
	if err != nil {
		t.Fatalf("resolve on empty table failed: %v", err)
	}
	if lvl.Level != 1 {
		t.Errorf("expected level 1 at 0 XP, got %d", lvl.Level)
	}

	var count int64
	db.Model(&models.Level{}).Count(&count)
	if count != 10 {
		t.Errorf("expected 10 bootstrapped levels, got %d", count)
	}
}

func TestResolvePicksGreatestThresholdAtOrBelow(t *testing.T) {
	db := newTestDB(t)
	svc := NewLevelService(db)

	// 250 sits between the 100 and 300 rungs and must resolve down.
	lvl, err := svc.Resolve(250)
	if err != nil {
		t.Fatal(err)
	}
	if lvl.XPRequired != 100 {
		t.Errorf("expected the 100 XP rung for 250 XP, got %d", lvl.XPRequired)
	}

	top, err := svc.Resolve(999999)
	if err != nil {
		t.Fatal(err)
	}
	if top.XPRequired != 5500 || top.Level != 10 {
		t.Errorf("expected top rung for huge totals, got L%d@%d", top.Level, top.XPRequired)
	}
}

func TestResolveFallsBackToLevelOne(t *testing.T) {
	db := newTestDB(t)
	svc := NewLevelService(db)

	// Negative totals qualify for nothing; level 1 is the floor.
	lvl, err := svc.Resolve(-40)
	if err != nil {
		t.Fatal(err)
	}
	if lvl.Level != 1 {
		t.Errorf("expected fallback to level 1 for negative XP, got %d", lvl.Level)
	}
}

func TestResolveSkipsInactiveLevels(t *testing.T) {
	db := newTestDB(t)
	svc := NewLevelService(db)

	if _, err := svc.Resolve(0); err != nil {
		t.Fatal(err)
	}
	if err := db.Model(&models.Level{}).Where("level = ?", 2).Update("is_active", false).Error; err != nil {
		t.Fatal(err)
	}

	lvl, err := svc.Resolve(150)
	if err != nil {
		t.Fatal(err)
	}
	if lvl.Level != 1 {
		t.Errorf("inactive rung must be skipped: expected level 1, got %d", lvl.Level)
	}
}

func TestResolveIsMonotonic(t *testing.T) {
	db := newTestDB(t)
	svc := NewLevelService(db)

	prev := 0
	for xp := int64(-100); xp <= 6000; xp += 137 {
		lvl, err := svc.Resolve(xp)
		if err != nil {
			t.Fatalf("resolve(%d) failed: %v", xp, err)
		}
		if lvl.Level < prev {
			t.Fatalf("level decreased from %d to %d at %d XP", prev, lvl.Level, xp)
		}
		prev = lvl.Level
	}
}

func TestBootstrapFromCustomThresholds(t *testing.T) {
	db := newTestDB(t)
	svc := NewLevelService(db)

	if err := svc.Bootstrap([]int64{0, 50, 200}); err != nil {
		t.Fatal(err)
	}
	levels, err := svc.ListLevels()
	if err != nil {
		t.Fatal(err)
	}
	if len(levels) != 3 {
		t.Fatalf("expected 3 levels, got %d", len(levels))
	}
	if levels[1].XPRequired != 50 || levels[1].Level != 2 {
		t.Errorf("unexpected second rung: %+v", levels[1])
	}
}
