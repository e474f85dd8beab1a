package app

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"peerconnect/api/internal/authpw"
	"peerconnect/api/internal/config"
	"peerconnect/api/internal/quota"
	"peerconnect/api/internal/store"
)

type fakeStore struct {
	createUserFn            func(context.Context, store.User) error
	getUserByUsernameFn     func(context.Context, string) (store.User, error)
	getUserByIDFn           func(context.Context, string) (store.User, error)
	mutateCredibilityFn     func(context.Context, string, int) error
	countUsersFn            func(context.Context) (int, error)
	insertDoubtFn           func(context.Context, store.Doubt) error
	deleteDoubtFn           func(context.Context, string) error
	getDoubtFn              func(context.Context, string) (store.Doubt, error)
	listDoubtsFn            func(context.Context) ([]store.Doubt, error)
	listDoubtTitlesFn       func(context.Context) ([]store.DoubtTitle, error)
	insertAnswerFn          func(context.Context, store.Answer) error
	deleteAnswerFn          func(context.Context, string) error
	getAnswerFn             func(context.Context, string) (store.Answer, error)
	listAnswersFn           func(context.Context, string) ([]store.Answer, error)
	markAnswerVerifiedFn    func(context.Context, string) (bool, error)
	clearAnswerVerifiedFn   func(context.Context, string) error
	insertNotificationFn    func(context.Context, store.Notification) error
	deleteNotificationFn    func(context.Context, string) error
	listNotificationsFn     func(context.Context, string) ([]store.Notification, error)
	trackingGetFn           func(context.Context, string, string) (quota.Record, error)
	tryIncrementPostedFn    func(context.Context, string, string, int) (bool, error)
	decrementPostedFn       func(context.Context, string, string) error
	incrementBonusFn        func(context.Context, string, string, int) error
	lookupRefreshSessionFn  func(context.Context, string) (store.User, error)
	isAccessTokenRevokedFn  func(context.Context, string) (bool, error)
	markNotificationsReadFn func(context.Context, string) error
}

func (f *fakeStore) CreateUser(ctx context.Context, user store.User) error {
	if f.createUserFn != nil {
		return f.createUserFn(ctx, user)
	}
	return nil
}
func (f *fakeStore) GetUserByUsername(ctx context.Context, username string) (store.User, error) {
	if f.getUserByUsernameFn != nil {
		return f.getUserByUsernameFn(ctx, username)
	}
	return store.User{}, sql.ErrNoRows
}
func (f *fakeStore) GetUserByID(ctx context.Context, userID string) (store.User, error) {
	if f.getUserByIDFn != nil {
		return f.getUserByIDFn(ctx, userID)
	}
	return store.User{ID: userID, Username: "someone", Role: "STUDENT"}, nil
}
func (f *fakeStore) MutateCredibility(ctx context.Context, userID string, delta int) error {
	if f.mutateCredibilityFn != nil {
		return f.mutateCredibilityFn(ctx, userID, delta)
	}
	return nil
}
func (f *fakeStore) CountUsers(ctx context.Context) (int, error) {
	if f.countUsersFn != nil {
		return f.countUsersFn(ctx)
	}
	return 0, nil
}
func (f *fakeStore) InsertDoubt(ctx context.Context, doubt store.Doubt) error {
	if f.insertDoubtFn != nil {
		return f.insertDoubtFn(ctx, doubt)
	}
	return nil
}
func (f *fakeStore) DeleteDoubt(ctx context.Context, doubtID string) error {
	if f.deleteDoubtFn != nil {
		return f.deleteDoubtFn(ctx, doubtID)
	}
	return nil
}
func (f *fakeStore) GetDoubt(ctx context.Context, doubtID string) (store.Doubt, error) {
	if f.getDoubtFn != nil {
		return f.getDoubtFn(ctx, doubtID)
	}
	return store.Doubt{}, sql.ErrNoRows
}
func (f *fakeStore) ListDoubts(ctx context.Context) ([]store.Doubt, error) {
	if f.listDoubtsFn != nil {
		return f.listDoubtsFn(ctx)
	}
	return nil, nil
}
func (f *fakeStore) ListDoubtTitles(ctx context.Context) ([]store.DoubtTitle, error) {
	if f.listDoubtTitlesFn != nil {
		return f.listDoubtTitlesFn(ctx)
	}
	return nil, nil
}
func (f *fakeStore) InsertAnswer(ctx context.Context, answer store.Answer) error {
	if f.insertAnswerFn != nil {
		return f.insertAnswerFn(ctx, answer)
	}
	return nil
}
func (f *fakeStore) DeleteAnswer(ctx context.Context, answerID string) error {
	if f.deleteAnswerFn != nil {
		return f.deleteAnswerFn(ctx, answerID)
	}
	return nil
}
func (f *fakeStore) GetAnswer(ctx context.Context, answerID string) (store.Answer, error) {
	if f.getAnswerFn != nil {
		return f.getAnswerFn(ctx, answerID)
	}
	return store.Answer{}, sql.ErrNoRows
}
func (f *fakeStore) ListAnswers(ctx context.Context, doubtID string) ([]store.Answer, error) {
	if f.listAnswersFn != nil {
		return f.listAnswersFn(ctx, doubtID)
	}
	return nil, nil
}
func (f *fakeStore) MarkAnswerVerified(ctx context.Context, answerID string) (bool, error) {
	if f.markAnswerVerifiedFn != nil {
		return f.markAnswerVerifiedFn(ctx, answerID)
	}
	return false, nil
}
func (f *fakeStore) ClearAnswerVerified(ctx context.Context, answerID string) error {
	if f.clearAnswerVerifiedFn != nil {
		return f.clearAnswerVerifiedFn(ctx, answerID)
	}
	return nil
}
func (f *fakeStore) InsertNotification(ctx context.Context, notification store.Notification) error {
	if f.insertNotificationFn != nil {
		return f.insertNotificationFn(ctx, notification)
	}
	return nil
}
func (f *fakeStore) DeleteNotification(ctx context.Context, notificationID string) error {
	if f.deleteNotificationFn != nil {
		return f.deleteNotificationFn(ctx, notificationID)
	}
	return nil
}
func (f *fakeStore) ListNotifications(ctx context.Context, userID string) ([]store.Notification, error) {
	if f.listNotificationsFn != nil {
		return f.listNotificationsFn(ctx, userID)
	}
	return nil, nil
}
func (f *fakeStore) MarkNotificationsRead(ctx context.Context, userID string) error {
	if f.markNotificationsReadFn != nil {
		return f.markNotificationsReadFn(ctx, userID)
	}
	return nil
}
func (f *fakeStore) RevokeAccessToken(context.Context, string, time.Time) error { return nil }
func (f *fakeStore) IsAccessTokenRevoked(ctx context.Context, jti string) (bool, error) {
	if f.isAccessTokenRevokedFn != nil {
		return f.isAccessTokenRevokedFn(ctx, jti)
	}
	return false, nil
}
func (f *fakeStore) Ping(context.Context) error { return nil }

// quota.TrackingStore

func (f *fakeStore) Get(ctx context.Context, userID, day string) (quota.Record, error) {
	if f.trackingGetFn != nil {
		return f.trackingGetFn(ctx, userID, day)
	}
	return quota.Record{}, nil
}
func (f *fakeStore) TryIncrementPosted(ctx context.Context, userID, day string, baseLimit int) (bool, error) {
	if f.tryIncrementPostedFn != nil {
		return f.tryIncrementPostedFn(ctx, userID, day, baseLimit)
	}
	return true, nil
}
func (f *fakeStore) DecrementPosted(ctx context.Context, userID, day string) error {
	if f.decrementPostedFn != nil {
		return f.decrementPostedFn(ctx, userID, day)
	}
	return nil
}
func (f *fakeStore) IncrementBonus(ctx context.Context, userID, day string, amount int) error {
	if f.incrementBonusFn != nil {
		return f.incrementBonusFn(ctx, userID, day, amount)
	}
	return nil
}

// sessionStore

func (f *fakeStore) SaveRefreshSession(context.Context, string, string, time.Time) error { return nil }
func (f *fakeStore) LookupRefreshSession(ctx context.Context, tokenHash string) (store.User, error) {
	if f.lookupRefreshSessionFn != nil {
		return f.lookupRefreshSessionFn(ctx, tokenHash)
	}
	return store.User{}, sql.ErrNoRows
}
func (f *fakeStore) RevokeRefreshSession(context.Context, string) error { return nil }

func newTestService(fake *fakeStore) *Service {
	return &Service{
		cfg: config.Config{
			JWTSecret:  "test-secret",
			AccessTTL:  time.Hour,
			RefreshTTL: 24 * time.Hour,
		},
		store:     fake,
		sessions:  fake,
		quota:     quota.NewTracker(fake),
		passwords: authpw.NewService(fake),
		now:       func() time.Time { return time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC) },
	}
}

func studentSession() Session {
	return Session{UserID: "usr-student-alice", Username: "student_alice", Role: "STUDENT"}
}

func TestPostDoubtRequiresTitleAndContent(t *testing.T) {
	svc := newTestService(&fakeStore{})

	_, err := svc.PostDoubt(context.Background(), studentSession(), PostDoubtInput{Content: "some content"})
	assertDomainCode(t, err, "VALIDATION_ERROR")

	_, err = svc.PostDoubt(context.Background(), studentSession(), PostDoubtInput{Title: "some title"})
	assertDomainCode(t, err, "VALIDATION_ERROR")
}

func TestPostDoubtQuotaExceeded(t *testing.T) {
	inserted := false
	fake := &fakeStore{
		trackingGetFn: func(context.Context, string, string) (quota.Record, error) {
			return quota.Record{PostedToday: 5, BonusLimit: 0}, nil
		},
		insertDoubtFn: func(context.Context, store.Doubt) error {
			inserted = true
			return nil
		},
	}
	svc := newTestService(fake)

	_, err := svc.PostDoubt(context.Background(), studentSession(), PostDoubtInput{
		Title:   "Eigenvalue decomposition stability",
		Content: "Does pivoting matter for symmetric matrices?",
	})
	assertDomainCode(t, err, "QUOTA_EXCEEDED")
	if inserted {
		t.Fatal("doubt must not be inserted once the quota is spent")
	}
}

func TestPostDoubtBonusRaisesAllowance(t *testing.T) {
	fake := &fakeStore{
		trackingGetFn: func(context.Context, string, string) (quota.Record, error) {
			return quota.Record{PostedToday: 5, BonusLimit: 2}, nil
		},
	}
	svc := newTestService(fake)

	payload, err := svc.PostDoubt(context.Background(), studentSession(), PostDoubtInput{
		Title:   "Eigenvalue decomposition stability",
		Content: "Does pivoting matter for symmetric matrices?",
	})
	if err != nil {
		t.Fatalf("PostDoubt with bonus slots: %v", err)
	}
	if payload["status"] != "posted" {
		t.Fatalf("status = %v, want posted", payload["status"])
	}
}

func TestPostDoubtSimilarityConflict(t *testing.T) {
	quotaConsumed := false
	inserted := false
	fake := &fakeStore{
		listDoubtTitlesFn: func(context.Context) ([]store.DoubtTitle, error) {
			return []store.DoubtTitle{
				{ID: "d-existing", Title: "How does Newton Raphson method converge"},
			}, nil
		},
		tryIncrementPostedFn: func(context.Context, string, string, int) (bool, error) {
			quotaConsumed = true
			return true, nil
		},
		insertDoubtFn: func(context.Context, store.Doubt) error {
			inserted = true
			return nil
		},
	}
	svc := newTestService(fake)

	payload, err := svc.PostDoubt(context.Background(), studentSession(), PostDoubtInput{
		Title:   "Explain Newton Raphson convergence criteria",
		Content: "Looking for the convergence proof.",
	})
	if err != nil {
		t.Fatalf("similarity conflict must not be an error: %v", err)
	}
	if payload["status"] != "conflict" {
		t.Fatalf("status = %v, want conflict", payload["status"])
	}
	candidates, ok := payload["candidates"].([]map[string]any)
	if !ok || len(candidates) != 1 {
		t.Fatalf("candidates = %v, want one match", payload["candidates"])
	}
	if candidates[0]["id"] != "d-existing" {
		t.Fatalf("candidate id = %v, want d-existing", candidates[0]["id"])
	}
	if quotaConsumed {
		t.Fatal("conflict outcome must not consume quota")
	}
	if inserted {
		t.Fatal("conflict outcome must not persist the doubt")
	}
}

func TestPostDoubtForceBypassesSimilarity(t *testing.T) {
	var inserted *store.Doubt
	fake := &fakeStore{
		listDoubtTitlesFn: func(context.Context) ([]store.DoubtTitle, error) {
			t.Fatal("similarity corpus must not be loaded when force is set")
			return nil, nil
		},
		insertDoubtFn: func(_ context.Context, doubt store.Doubt) error {
			inserted = &doubt
			return nil
		},
	}
	svc := newTestService(fake)

	payload, err := svc.PostDoubt(context.Background(), studentSession(), PostDoubtInput{
		Title:   "Explain Newton Raphson convergence criteria",
		Content: "Looking for the convergence proof.",
		Force:   true,
	})
	if err != nil {
		t.Fatalf("forced post: %v", err)
	}
	if payload["status"] != "posted" {
		t.Fatalf("status = %v, want posted", payload["status"])
	}
	if inserted == nil {
		t.Fatal("forced post must persist the doubt")
	}
	if inserted.UserID != "usr-student-alice" {
		t.Fatalf("doubt author = %s, want usr-student-alice", inserted.UserID)
	}
}

func TestPostDoubtRacingPostsLoseCleanly(t *testing.T) {
	// Pre-check passes but the conditional increment loses the race.
	fake := &fakeStore{
		trackingGetFn: func(context.Context, string, string) (quota.Record, error) {
			return quota.Record{PostedToday: 4}, nil
		},
		tryIncrementPostedFn: func(context.Context, string, string, int) (bool, error) {
			return false, nil
		},
	}
	svc := newTestService(fake)

	_, err := svc.PostDoubt(context.Background(), studentSession(), PostDoubtInput{
		Title:   "Eigenvalue decomposition stability",
		Content: "Does pivoting matter for symmetric matrices?",
		Force:   true,
	})
	assertDomainCode(t, err, "QUOTA_EXCEEDED")
}

func TestPostDoubtRollsBackQuotaOnInsertFailure(t *testing.T) {
	rolledBack := false
	fake := &fakeStore{
		insertDoubtFn: func(context.Context, store.Doubt) error {
			return errors.New("connection reset")
		},
		decrementPostedFn: func(_ context.Context, userID, day string) error {
			rolledBack = true
			if userID != "usr-student-alice" {
				t.Fatalf("rollback user = %s", userID)
			}
			return nil
		},
	}
	svc := newTestService(fake)

	_, err := svc.PostDoubt(context.Background(), studentSession(), PostDoubtInput{
		Title:   "Eigenvalue decomposition stability",
		Content: "Does pivoting matter for symmetric matrices?",
		Force:   true,
	})
	if err == nil {
		t.Fatal("expected insert failure to propagate")
	}
	if !rolledBack {
		t.Fatal("failed insert must release the quota slot")
	}
}

func TestPostAnswerRejectsSelfAnswer(t *testing.T) {
	fake := &fakeStore{
		getDoubtFn: func(_ context.Context, doubtID string) (store.Doubt, error) {
			return store.Doubt{ID: doubtID, UserID: "usr-student-alice", Title: "My own doubt"}, nil
		},
	}
	svc := newTestService(fake)

	_, err := svc.PostAnswer(context.Background(), studentSession(), "d-1", AnswerInput{Step1: "Try this"})
	assertDomainCode(t, err, "SELF_ANSWER")
}

func TestPostAnswerRequiresStep1(t *testing.T) {
	fake := &fakeStore{
		getDoubtFn: func(_ context.Context, doubtID string) (store.Doubt, error) {
			return store.Doubt{ID: doubtID, UserID: "usr-student-bob"}, nil
		},
	}
	svc := newTestService(fake)

	_, err := svc.PostAnswer(context.Background(), studentSession(), "d-1", AnswerInput{Step2: "only step two"})
	assertDomainCode(t, err, "VALIDATION_ERROR")
}

func TestPostAnswerUnknownDoubt(t *testing.T) {
	svc := newTestService(&fakeStore{})

	_, err := svc.PostAnswer(context.Background(), studentSession(), "d-missing", AnswerInput{Step1: "Try this"})
	if !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("err = %v, want sql.ErrNoRows", err)
	}
}

func TestPostAnswerNotifiesAuthorAndGrantsBonus(t *testing.T) {
	var notification *store.Notification
	bonusAmount := 0
	bonusUser := ""
	fake := &fakeStore{
		getDoubtFn: func(_ context.Context, doubtID string) (store.Doubt, error) {
			return store.Doubt{ID: doubtID, UserID: "usr-student-bob", Title: "Asymptotic Notation Query"}, nil
		},
		insertNotificationFn: func(_ context.Context, n store.Notification) error {
			notification = &n
			return nil
		},
		incrementBonusFn: func(_ context.Context, userID, day string, amount int) error {
			bonusUser = userID
			bonusAmount = amount
			return nil
		},
	}
	svc := newTestService(fake)

	payload, err := svc.PostAnswer(context.Background(), studentSession(), "d-2", AnswerInput{
		Step1: "Write the recurrence.",
		Step2: "Apply the master theorem.",
	})
	if err != nil {
		t.Fatalf("PostAnswer: %v", err)
	}
	if payload["step1"] != "Write the recurrence." {
		t.Fatalf("payload step1 = %v", payload["step1"])
	}

	if notification == nil {
		t.Fatal("doubt author must be notified")
	}
	if notification.UserID != "usr-student-bob" {
		t.Fatalf("notification recipient = %s, want the doubt author", notification.UserID)
	}
	want := `Peer Contribution: "student_alice" added a micro-explanation to your inquiry.`
	if notification.Message != want {
		t.Fatalf("notification message = %q, want %q", notification.Message, want)
	}
	if notification.Kind != "NEW_ANSWER" {
		t.Fatalf("notification kind = %s", notification.Kind)
	}

	if bonusUser != "usr-student-alice" || bonusAmount != 1 {
		t.Fatalf("bonus grant = (%s, %d), want (usr-student-alice, 1)", bonusUser, bonusAmount)
	}
}

func TestPostAnswerRemovesAnswerWhenNotificationFails(t *testing.T) {
	insertedAnswerID := ""
	deletedAnswerID := ""
	bonusGranted := false
	fake := &fakeStore{
		getDoubtFn: func(_ context.Context, doubtID string) (store.Doubt, error) {
			return store.Doubt{ID: doubtID, UserID: "usr-student-bob"}, nil
		},
		insertAnswerFn: func(_ context.Context, answer store.Answer) error {
			insertedAnswerID = answer.ID
			return nil
		},
		insertNotificationFn: func(context.Context, store.Notification) error {
			return errors.New("connection reset")
		},
		deleteAnswerFn: func(_ context.Context, answerID string) error {
			deletedAnswerID = answerID
			return nil
		},
		incrementBonusFn: func(context.Context, string, string, int) error {
			bonusGranted = true
			return nil
		},
	}
	svc := newTestService(fake)

	_, err := svc.PostAnswer(context.Background(), studentSession(), "d-1", AnswerInput{Step1: "Try this"})
	if err == nil {
		t.Fatal("expected notification failure to propagate")
	}
	if insertedAnswerID == "" {
		t.Fatal("answer insert should have happened before the failure")
	}
	if deletedAnswerID != insertedAnswerID {
		t.Fatalf("deleted answer = %q, want the inserted answer %q", deletedAnswerID, insertedAnswerID)
	}
	if bonusGranted {
		t.Fatal("failed post must not grant a bonus")
	}
}

func TestPostAnswerRollsBackWhenBonusFails(t *testing.T) {
	insertedNotificationID := ""
	deletedNotificationID := ""
	deletedAnswerID := ""
	fake := &fakeStore{
		getDoubtFn: func(_ context.Context, doubtID string) (store.Doubt, error) {
			return store.Doubt{ID: doubtID, UserID: "usr-student-bob"}, nil
		},
		insertNotificationFn: func(_ context.Context, n store.Notification) error {
			insertedNotificationID = n.ID
			return nil
		},
		incrementBonusFn: func(context.Context, string, string, int) error {
			return errors.New("connection reset")
		},
		deleteNotificationFn: func(_ context.Context, notificationID string) error {
			deletedNotificationID = notificationID
			return nil
		},
		deleteAnswerFn: func(_ context.Context, answerID string) error {
			deletedAnswerID = answerID
			return nil
		},
	}
	svc := newTestService(fake)

	_, err := svc.PostAnswer(context.Background(), studentSession(), "d-1", AnswerInput{Step1: "Try this"})
	if err == nil {
		t.Fatal("expected bonus failure to propagate")
	}
	if deletedNotificationID != insertedNotificationID || deletedNotificationID == "" {
		t.Fatalf("deleted notification = %q, want the inserted one %q", deletedNotificationID, insertedNotificationID)
	}
	if deletedAnswerID == "" {
		t.Fatal("failed post must remove the persisted answer")
	}
}

func TestVerifyAnswerMentorOnly(t *testing.T) {
	fake := &fakeStore{
		getAnswerFn: func(_ context.Context, answerID string) (store.Answer, error) {
			return store.Answer{ID: answerID, DoubtID: "d-1", UserID: "usr-student-alice"}, nil
		},
	}
	svc := newTestService(fake)

	for _, role := range []string{"STUDENT", "ADMIN"} {
		session := Session{UserID: "usr-x", Username: "x", Role: role}
		_, err := svc.VerifyAnswer(context.Background(), session, "ans-1")
		if err == nil {
			t.Fatalf("role %s must not verify", role)
		}
		assertDomainCode(t, err, "FORBIDDEN")
	}
}

func TestVerifyAnswerAwardsCredibility(t *testing.T) {
	credDelta := 0
	credUser := ""
	var notification *store.Notification
	fake := &fakeStore{
		getAnswerFn: func(_ context.Context, answerID string) (store.Answer, error) {
			return store.Answer{ID: answerID, DoubtID: "d-1", UserID: "usr-student-alice", Step1: "Use quadratic convergence."}, nil
		},
		getDoubtFn: func(_ context.Context, doubtID string) (store.Doubt, error) {
			return store.Doubt{ID: doubtID, UserID: "usr-mentor-john", Title: "Newton-Raphson Convergence"}, nil
		},
		markAnswerVerifiedFn: func(context.Context, string) (bool, error) {
			return true, nil
		},
		mutateCredibilityFn: func(_ context.Context, userID string, delta int) error {
			credUser = userID
			credDelta = delta
			return nil
		},
		insertNotificationFn: func(_ context.Context, n store.Notification) error {
			notification = &n
			return nil
		},
	}
	svc := newTestService(fake)

	mentor := Session{UserID: "usr-mentor-john", Username: "mentor_john", Role: "MENTOR"}
	payload, err := svc.VerifyAnswer(context.Background(), mentor, "ans-1")
	if err != nil {
		t.Fatalf("VerifyAnswer: %v", err)
	}
	if payload["isVerified"] != true {
		t.Fatalf("payload isVerified = %v", payload["isVerified"])
	}

	if credUser != "usr-student-alice" || credDelta != 50 {
		t.Fatalf("credibility mutation = (%s, %d), want (usr-student-alice, 50)", credUser, credDelta)
	}

	if notification == nil {
		t.Fatal("answer author must be notified")
	}
	want := `Excellence Verified: Your solution for "Newton-Raphson Convergence" was approved!`
	if notification.Message != want {
		t.Fatalf("notification message = %q, want %q", notification.Message, want)
	}
	if notification.Kind != "VERIFIED" {
		t.Fatalf("notification kind = %s", notification.Kind)
	}
}

func TestVerifyAnswerTwiceRejected(t *testing.T) {
	credibilityTouched := false
	fake := &fakeStore{
		getAnswerFn: func(_ context.Context, answerID string) (store.Answer, error) {
			return store.Answer{ID: answerID, DoubtID: "d-1", UserID: "usr-student-alice", IsVerified: true}, nil
		},
		getDoubtFn: func(_ context.Context, doubtID string) (store.Doubt, error) {
			return store.Doubt{ID: doubtID, UserID: "usr-mentor-john", Title: "Newton-Raphson Convergence"}, nil
		},
		markAnswerVerifiedFn: func(context.Context, string) (bool, error) {
			return false, nil
		},
		mutateCredibilityFn: func(context.Context, string, int) error {
			credibilityTouched = true
			return nil
		},
	}
	svc := newTestService(fake)

	mentor := Session{UserID: "usr-mentor-john", Username: "mentor_john", Role: "MENTOR"}
	_, err := svc.VerifyAnswer(context.Background(), mentor, "ans-1")
	assertDomainCode(t, err, "ALREADY_VERIFIED")
	if credibilityTouched {
		t.Fatal("second verification must not award credibility again")
	}
}

func TestVerifyAnswerRevertsFlagWhenCredibilityFails(t *testing.T) {
	cleared := false
	notified := false
	fake := &fakeStore{
		getAnswerFn: func(_ context.Context, answerID string) (store.Answer, error) {
			return store.Answer{ID: answerID, DoubtID: "d-1", UserID: "usr-student-alice"}, nil
		},
		getDoubtFn: func(_ context.Context, doubtID string) (store.Doubt, error) {
			return store.Doubt{ID: doubtID, UserID: "usr-mentor-john", Title: "Newton-Raphson Convergence"}, nil
		},
		markAnswerVerifiedFn: func(context.Context, string) (bool, error) {
			return true, nil
		},
		mutateCredibilityFn: func(context.Context, string, int) error {
			return errors.New("connection reset")
		},
		clearAnswerVerifiedFn: func(_ context.Context, answerID string) error {
			cleared = true
			if answerID != "ans-1" {
				t.Fatalf("cleared answer = %s", answerID)
			}
			return nil
		},
		insertNotificationFn: func(context.Context, store.Notification) error {
			notified = true
			return nil
		},
	}
	svc := newTestService(fake)

	mentor := Session{UserID: "usr-mentor-john", Username: "mentor_john", Role: "MENTOR"}
	_, err := svc.VerifyAnswer(context.Background(), mentor, "ans-1")
	if err == nil {
		t.Fatal("expected credibility failure to propagate")
	}
	if !cleared {
		t.Fatal("failed verification must clear the verified flag so a retry can succeed")
	}
	if notified {
		t.Fatal("failed verification must not notify the author")
	}
}

func TestVerifyAnswerRevertsAwardWhenNotificationFails(t *testing.T) {
	var credDeltas []int
	cleared := false
	fake := &fakeStore{
		getAnswerFn: func(_ context.Context, answerID string) (store.Answer, error) {
			return store.Answer{ID: answerID, DoubtID: "d-1", UserID: "usr-student-alice"}, nil
		},
		getDoubtFn: func(_ context.Context, doubtID string) (store.Doubt, error) {
			return store.Doubt{ID: doubtID, UserID: "usr-mentor-john", Title: "Newton-Raphson Convergence"}, nil
		},
		markAnswerVerifiedFn: func(context.Context, string) (bool, error) {
			return true, nil
		},
		mutateCredibilityFn: func(_ context.Context, _ string, delta int) error {
			credDeltas = append(credDeltas, delta)
			return nil
		},
		insertNotificationFn: func(context.Context, store.Notification) error {
			return errors.New("connection reset")
		},
		clearAnswerVerifiedFn: func(context.Context, string) error {
			cleared = true
			return nil
		},
	}
	svc := newTestService(fake)

	mentor := Session{UserID: "usr-mentor-john", Username: "mentor_john", Role: "MENTOR"}
	_, err := svc.VerifyAnswer(context.Background(), mentor, "ans-1")
	if err == nil {
		t.Fatal("expected notification failure to propagate")
	}
	if len(credDeltas) != 2 || credDeltas[0] != 50 || credDeltas[1] != -50 {
		t.Fatalf("credibility deltas = %v, want [50 -50]", credDeltas)
	}
	if !cleared {
		t.Fatal("failed verification must clear the verified flag")
	}
}

func TestDeleteDoubtAdminOnly(t *testing.T) {
	deleted := false
	fake := &fakeStore{
		getDoubtFn: func(_ context.Context, doubtID string) (store.Doubt, error) {
			return store.Doubt{ID: doubtID, UserID: "usr-student-bob", Title: "Stale duplicate"}, nil
		},
		deleteDoubtFn: func(context.Context, string) error {
			deleted = true
			return nil
		},
	}
	svc := newTestService(fake)

	for _, role := range []string{"STUDENT", "MENTOR"} {
		session := Session{UserID: "usr-x", Username: "x", Role: role}
		err := svc.DeleteDoubt(context.Background(), session, "d-1")
		assertDomainCode(t, err, "FORBIDDEN")
	}
	if deleted {
		t.Fatal("non-admin roles must not delete doubts")
	}

	admin := Session{UserID: "usr-admin", Username: "admin", Role: "ADMIN"}
	if err := svc.DeleteDoubt(context.Background(), admin, "d-1"); err != nil {
		t.Fatalf("DeleteDoubt as admin: %v", err)
	}
	if !deleted {
		t.Fatal("admin delete must reach the store")
	}
}

func TestDeleteDoubtUnknownDoubt(t *testing.T) {
	svc := newTestService(&fakeStore{})

	admin := Session{UserID: "usr-admin", Username: "admin", Role: "ADMIN"}
	err := svc.DeleteDoubt(context.Background(), admin, "d-missing")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("err = %v, want sql.ErrNoRows", err)
	}
}

func TestListDoubtsMasksAnonymousAuthors(t *testing.T) {
	fake := &fakeStore{
		listDoubtsFn: func(context.Context) ([]store.Doubt, error) {
			return []store.Doubt{
				{ID: "d-1", Username: "student_bob", Title: "Visible", IsAnonymous: false},
				{ID: "d-2", Username: "student_alice", Title: "Hidden", IsAnonymous: true},
			}, nil
		},
	}
	svc := newTestService(fake)

	items, err := svc.ListDoubts(context.Background())
	if err != nil {
		t.Fatalf("ListDoubts: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("len(items) = %d", len(items))
	}
	if items[0]["username"] != "student_bob" {
		t.Fatalf("public doubt username = %v", items[0]["username"])
	}
	if items[1]["username"] != "Anonymous" {
		t.Fatalf("anonymous doubt username = %v, want Anonymous", items[1]["username"])
	}
}

func TestBootstrapSeedsOnlyEmptyStore(t *testing.T) {
	created := 0
	fake := &fakeStore{
		countUsersFn: func(context.Context) (int, error) { return 4, nil },
		createUserFn: func(context.Context, store.User) error {
			created++
			return nil
		},
	}
	svc := newTestService(fake)
	if err := svc.Bootstrap(context.Background()); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	if created != 0 {
		t.Fatalf("Bootstrap on populated store created %d users", created)
	}
}

func TestBootstrapSeedsUsersAndDoubts(t *testing.T) {
	var users []store.User
	var doubts []store.Doubt
	fake := &fakeStore{
		createUserFn: func(_ context.Context, user store.User) error {
			users = append(users, user)
			return nil
		},
		insertDoubtFn: func(_ context.Context, doubt store.Doubt) error {
			doubts = append(doubts, doubt)
			return nil
		},
	}
	svc := newTestService(fake)
	if err := svc.Bootstrap(context.Background()); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}

	if len(users) != 4 {
		t.Fatalf("seeded %d users, want 4", len(users))
	}
	rolesByName := map[string]string{}
	for _, user := range users {
		rolesByName[user.Username] = user.Role
		if user.PasswordHash == "" {
			t.Fatalf("seed user %s has no password hash", user.Username)
		}
	}
	if rolesByName["mentor_john"] != "MENTOR" || rolesByName["admin"] != "ADMIN" {
		t.Fatalf("seed roles = %v", rolesByName)
	}

	if len(doubts) != 2 {
		t.Fatalf("seeded %d doubts, want 2", len(doubts))
	}
	titles := []string{doubts[0].Title, doubts[1].Title}
	joined := strings.Join(titles, "|")
	if !strings.Contains(joined, "Newton-Raphson Convergence") || !strings.Contains(joined, "Asymptotic Notation Query") {
		t.Fatalf("seed doubts = %v", titles)
	}
}

func TestSignUpAndSessionRoundTrip(t *testing.T) {
	accounts := map[string]store.User{}
	fake := &fakeStore{
		createUserFn: func(_ context.Context, user store.User) error {
			accounts[user.Username] = user
			return nil
		},
		getUserByUsernameFn: func(_ context.Context, username string) (store.User, error) {
			user, ok := accounts[username]
			if !ok {
				return store.User{}, sql.ErrNoRows
			}
			return user, nil
		},
		getUserByIDFn: func(_ context.Context, userID string) (store.User, error) {
			for _, user := range accounts {
				if user.ID == userID {
					return user, nil
				}
			}
			return store.User{}, sql.ErrNoRows
		},
	}
	svc := newTestService(fake)

	session, err := svc.SignUp(context.Background(), "new_student", "", "longenough")
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if session.Role != "STUDENT" {
		t.Fatalf("new account role = %s, want STUDENT", session.Role)
	}

	parsed, err := svc.SessionFromToken(context.Background(), session.Token)
	if err != nil {
		t.Fatalf("SessionFromToken: %v", err)
	}
	if parsed.Username != "new_student" {
		t.Fatalf("parsed username = %s", parsed.Username)
	}

	if _, err := svc.SignIn(context.Background(), "new_student", "wrong-password"); !errors.Is(err, authpw.ErrInvalidCredentials) {
		t.Fatalf("wrong password err = %v", err)
	}
	if _, err := svc.SignIn(context.Background(), "new_student", "longenough"); err != nil {
		t.Fatalf("SignIn: %v", err)
	}
}

func TestProfileCarriesAllowance(t *testing.T) {
	fake := &fakeStore{
		trackingGetFn: func(context.Context, string, string) (quota.Record, error) {
			return quota.Record{PostedToday: 3, BonusLimit: 2}, nil
		},
	}
	svc := newTestService(fake)

	profile, err := svc.Profile(context.Background(), studentSession())
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if profile["dailyLimit"] != 7 {
		t.Fatalf("dailyLimit = %v, want 7", profile["dailyLimit"])
	}
	if profile["doubtsPostedToday"] != 3 {
		t.Fatalf("doubtsPostedToday = %v, want 3", profile["doubtsPostedToday"])
	}
}

func assertDomainCode(t *testing.T, err error, code string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", code)
	}
	var domainErr *DomainError
	if !errors.As(err, &domainErr) {
		t.Fatalf("err = %v (%T), want DomainError %s", err, err, code)
	}
	if domainErr.Code != code {
		t.Fatalf("error code = %s, want %s", domainErr.Code, code)
	}
}
