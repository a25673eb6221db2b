package services

import (
	"errors"
	"testing"
	"time"

	"school-admin-system/models"
)

func newChallengeService(t *testing.T) *ChallengeService {
	t.Helper()
	db := newTestDB(t)
	return NewChallengeService(db, NewGamificationService(db))
}

func participantsOf(t *testing.T, svc *ChallengeService, challengeID string) []models.ChallengeParticipation {
	t.Helper()
	parts, err := svc.GetParticipants(challengeID)
	if err != nil {
		t.Fatal(err)
	}
	return parts
}

func TestCreateChallengeSnapshotsAllStudents(t *testing.T) {
	svc := newChallengeService(t)
	db := svc.DB

	seedStudent(t, db, "One", "")
	seedStudent(t, db, "Two", "")
	seedStudent(t, db, "Three", "")
	inactive := seedStudent(t, db, "Ghost", "")
	db.Model(inactive).Update("is_active", false)

	challenge, err := svc.CreateChallenge(CreateChallengeInput{
		Title:        "Reading marathon",
		DurationDays: 7,
		TargetType:   models.TargetAllStudents,
		XPReward:     100,
	})
	if err != nil {
		t.Fatal(err)
	}

	if challenge.ParticipantCount != 3 {
		t.Errorf("expected 3 snapshotted participants, got %d", challenge.ParticipantCount)
	}
	if challenge.Status != models.ChallengeActive {
		t.Errorf("new challenge must be ACTIVE, got %s", challenge.Status)
	}
	if challenge.EndDate == nil {
		t.Error("expected end date for a 7-day challenge")
	}
	if challenge.Slug == "" {
		t.Error("expected a slug")
	}

	// A student activated later is NOT added: the audience is a
	// point-in-time snapshot.
	seedStudent(t, db, "Latecomer", "")
	parts := participantsOf(t, svc, challenge.ID)
	if len(parts) != 3 {
		t.Errorf("audience must never be re-evaluated, got %d participants", len(parts))
	}
}

func TestCreateChallengeByClassNameFolding(t *testing.T) {
	svc := newChallengeService(t)
	db := svc.DB

	cl := seedClass(t, db, "7B")
	other := seedClass(t, db, "8A")
	seedStudent(t, db, "In", cl.ID)
	seedStudent(t, db, "Also", cl.ID)
	seedStudent(t, db, "Out", other.ID)

	challenge, err := svc.CreateChallenge(CreateChallengeInput{
		Title:        "Homework week",
		TargetType:   models.TargetSpecificClass,
		TargetFilter: []string{" 7b "},
		XPReward:     50,
	})
	if err != nil {
		t.Fatal(err)
	}
	if challenge.ParticipantCount != 2 {
		t.Errorf("expected 2 participants from class 7B, got %d", challenge.ParticipantCount)
	}
	if challenge.EndDate != nil {
		t.Error("zero duration must leave end date nil")
	}

	if _, err := svc.CreateChallenge(CreateChallengeInput{
		Title:        "Nobody home",
		TargetType:   models.TargetSpecificClass,
		TargetFilter: []string{"9Z"},
		XPReward:     10,
	}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown class, got %v", err)
	}

	if _, err := svc.CreateChallenge(CreateChallengeInput{
		Title:      "Missing filter",
		TargetType: models.TargetSpecificClass,
	}); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation for missing filter, got %v", err)
	}
}

func TestMarkParticipantCompletedLifecycle(t *testing.T) {
	// Scenario: 3 participants. Completing 2 leaves the challenge
	// ACTIVE; the 3rd completion auto-finalizes it exactly once.
	svc := newChallengeService(t)
	db := svc.DB

	seedStudent(t, db, "One", "")
	seedStudent(t, db, "Two", "")
	seedStudent(t, db, "Three", "")

	challenge, err := svc.CreateChallenge(CreateChallengeInput{
		Title:      "Science sprint",
		TargetType: models.TargetAllStudents,
		XPReward:   40,
	})
	if err != nil {
		t.Fatal(err)
	}
	parts := participantsOf(t, svc, challenge.ID)

	for i := 0; i < 2; i++ {
		done, err := svc.MarkParticipantCompleted(parts[i].ID)
		if err != nil {
			t.Fatalf("completion %d failed: %v", i+1, err)
		}
		if done.Status != models.ParticipationCompleted || done.Progress != 100 || done.CompletedAt == nil {
			t.Errorf("unexpected participation state: %+v", done)
		}
	}

	mid, err := svc.GetChallenge(challenge.ID)
	if err != nil {
		t.Fatal(err)
	}
	if mid.Status != models.ChallengeActive {
		t.Fatalf("challenge must stay ACTIVE with one participant left, got %s", mid.Status)
	}

	if _, err := svc.MarkParticipantCompleted(parts[2].ID); err != nil {
		t.Fatal(err)
	}
	final, err := svc.GetChallenge(challenge.ID)
	if err != nil {
		t.Fatal(err)
	}
	if final.Status != models.ChallengeCompleted {
		t.Errorf("expected COMPLETED after last participant, got %s", final.Status)
	}
	if final.EndedAt == nil {
		t.Error("expected ended_at set on auto-finalize")
	}

	// Per-participant reward exactly once: 40 XP each, no extra on
	// challenge completion.
	for _, p := range parts {
		if got := ledgerFor(t, db, p.StudentID).TotalXP; got != 40 {
			t.Errorf("student %s expected 40 XP, got %d", p.StudentID, got)
		}
	}
}

func TestMarkParticipantCompletedIsIdempotent(t *testing.T) {
	svc := newChallengeService(t)
	db := svc.DB

	seedStudent(t, db, "Solo", "")
	challenge, err := svc.CreateChallenge(CreateChallengeInput{
		Title:      "Solo quest",
		TargetType: models.TargetAllStudents,
		XPReward:   25,
	})
	if err != nil {
		t.Fatal(err)
	}
	part := participantsOf(t, svc, challenge.ID)[0]

	if _, err := svc.MarkParticipantCompleted(part.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.MarkParticipantCompleted(part.ID); !errors.Is(err, ErrAlreadyCompleted) {
		t.Fatalf("expected ErrAlreadyCompleted on repeat, got %v", err)
	}

	// The reward must not double up.
	if got := ledgerFor(t, db, part.StudentID).TotalXP; got != 25 {
		t.Errorf("expected 25 XP after double completion attempt, got %d", got)
	}

	if _, err := svc.MarkParticipantCompleted("missing-id"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestFinalizeChallengeDryRunAndConfirm(t *testing.T) {
	svc := newChallengeService(t)
	db := svc.DB

	seedStudent(t, db, "A", "")
	seedStudent(t, db, "B", "")
	challenge, err := svc.CreateChallenge(CreateChallengeInput{
		Title:      "Group project",
		TargetType: models.TargetAllStudents,
		XPReward:   10,
	})
	if err != nil {
		t.Fatal(err)
	}
	parts := participantsOf(t, svc, challenge.ID)

	if _, err := svc.FinalizeChallenge(challenge.ID, false); !errors.Is(err, ErrIncompleteParticipants) {
		t.Fatalf("dry-run with active participants must fail, got %v", err)
	}

	if _, err := svc.MarkParticipantCompleted(parts[0].ID); err != nil {
		t.Fatal(err)
	}

	// Confirmed finalize closes the challenge despite the straggler.
	summary, err := svc.FinalizeChallenge(challenge.ID, true)
	if err != nil {
		t.Fatal(err)
	}
	if !summary.Finalized || summary.Completed != 1 || summary.Participants != 2 {
		t.Errorf("unexpected summary: %+v", summary)
	}

	if _, err := svc.FinalizeChallenge(challenge.ID, true); !errors.Is(err, ErrAlreadyCompleted) {
		t.Errorf("finalizing twice must fail, got %v", err)
	}
}

func TestFinalizeDryRunWhenAllCompleted(t *testing.T) {
	svc := newChallengeService(t)
	db := svc.DB

	seedStudent(t, db, "A", "")
	challenge, err := svc.CreateChallenge(CreateChallengeInput{
		Title:      "Tiny cohort",
		TargetType: models.TargetAllStudents,
		XPReward:   10,
	})
	if err != nil {
		t.Fatal(err)
	}
	part := participantsOf(t, svc, challenge.ID)[0]
	if _, err := svc.MarkParticipantCompleted(part.ID); err != nil {
		t.Fatal(err)
	}

	// Auto-finalize already fired; the dry run reports AlreadyCompleted.
	if _, err := svc.FinalizeChallenge(challenge.ID, false); !errors.Is(err, ErrAlreadyCompleted) {
		t.Errorf("expected ErrAlreadyCompleted after auto-finalize, got %v", err)
	}
}

func TestCompleteByDeadlineFailsStragglers(t *testing.T) {
	svc := newChallengeService(t)
	db := svc.DB

	seedStudent(t, db, "A", "")
	seedStudent(t, db, "B", "")
	seedStudent(t, db, "C", "")
	challenge, err := svc.CreateChallenge(CreateChallengeInput{
		Title:        "Deadline rush",
		DurationDays: 1,
		TargetType:   models.TargetAllStudents,
		XPReward:     30,
	})
	if err != nil {
		t.Fatal(err)
	}
	parts := participantsOf(t, svc, challenge.ID)
	if _, err := svc.MarkParticipantCompleted(parts[0].ID); err != nil {
		t.Fatal(err)
	}

	closed, err := svc.CompleteByDeadline(challenge.ID, "deadline reached")
	if err != nil {
		t.Fatal(err)
	}
	if closed.Status != models.ChallengeCompleted || closed.EndedAt == nil {
		t.Errorf("unexpected challenge state: %+v", closed)
	}

	after := participantsOf(t, svc, challenge.ID)
	var completed, failed int
	for _, p := range after {
		switch p.Status {
		case models.ParticipationCompleted:
			completed++
		case models.ParticipationFailed:
			failed++
			if p.CompletedAt == nil {
				t.Error("failed participation must carry completed_at")
			}
		}
	}
	if completed != 1 || failed != 2 {
		t.Errorf("expected 1 completed / 2 failed, got %d/%d", completed, failed)
	}

	// Failed participants earn nothing.
	if got := ledgerFor(t, db, parts[0].StudentID).TotalXP; got != 30 {
		t.Errorf("completer expected 30 XP, got %d", got)
	}
	var ledgers int64
	db.Model(&models.XPLedger{}).Count(&ledgers)
	if ledgers != 1 {
		t.Errorf("stragglers must not gain ledgers, found %d", ledgers)
	}

	// Sweep is idempotent: second close reports AlreadyCompleted and
	// changes nothing.
	if _, err := svc.CompleteByDeadline(challenge.ID, "again"); !errors.Is(err, ErrAlreadyCompleted) {
		t.Fatalf("expected ErrAlreadyCompleted, got %v", err)
	}
}

func TestUpdateChallengeBlockedByParticipants(t *testing.T) {
	svc := newChallengeService(t)
	db := svc.DB

	// With no students the snapshot is empty and edits are allowed.
	challenge, err := svc.CreateChallenge(CreateChallengeInput{
		Title:      "Draft challenge",
		TargetType: models.TargetAllStudents,
		XPReward:   5,
	})
	if err != nil {
		t.Fatal(err)
	}

	newTitle := "Renamed challenge"
	updated, err := svc.UpdateChallenge(challenge.ID, UpdateChallengeInput{Title: &newTitle})
	if err != nil {
		t.Fatal(err)
	}
	if updated.Title != newTitle {
		t.Errorf("title not updated: %s", updated.Title)
	}

	seedStudent(t, db, "Member", "")
	populated, err := svc.CreateChallenge(CreateChallengeInput{
		Title:      "Live challenge",
		TargetType: models.TargetAllStudents,
		XPReward:   5,
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.UpdateChallenge(populated.ID, UpdateChallengeInput{Title: &newTitle}); !errors.Is(err, ErrHasParticipants) {
		t.Errorf("expected ErrHasParticipants, got %v", err)
	}
}

func TestDeleteChallengeCascades(t *testing.T) {
	svc := newChallengeService(t)
	db := svc.DB

	seedStudent(t, db, "A", "")
	seedStudent(t, db, "B", "")
	challenge, err := svc.CreateChallenge(CreateChallengeInput{
		Title:      "Doomed challenge",
		TargetType: models.TargetAllStudents,
		XPReward:   5,
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := svc.DeleteChallenge(challenge.ID); err != nil {
		t.Fatal(err)
	}

	var challenges, parts int64
	db.Model(&models.Challenge{}).Count(&challenges)
	db.Model(&models.ChallengeParticipation{}).Count(&parts)
	if challenges != 0 || parts != 0 {
		t.Errorf("expected cascade delete, found %d challenges / %d participations", challenges, parts)
	}

	if err := svc.DeleteChallenge(challenge.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestExpiredActiveChallenges(t *testing.T) {
	svc := newChallengeService(t)
	db := svc.DB

	seedStudent(t, db, "A", "")
	expired, err := svc.CreateChallenge(CreateChallengeInput{
		Title:        "Yesterday's news",
		DurationDays: 1,
		TargetType:   models.TargetAllStudents,
		XPReward:     5,
	})
	if err != nil {
		t.Fatal(err)
	}
	past := time.Now().AddDate(0, 0, -1)
	db.Model(&models.Challenge{}).Where("id = ?", expired.ID).Update("end_date", past)

	if _, err := svc.CreateChallenge(CreateChallengeInput{
		Title:      "Open ended",
		TargetType: models.TargetAllStudents,
		XPReward:   5,
	}); err != nil {
		t.Fatal(err)
	}

	due, err := svc.ExpiredActiveChallenges(time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if len(due) != 1 || due[0].ID != expired.ID {
		t.Errorf("expected only the expired challenge, got %d", len(due))
	}
}
