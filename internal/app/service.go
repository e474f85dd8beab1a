package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"peerconnect/api/internal/auth"
	"peerconnect/api/internal/authpw"
	"peerconnect/api/internal/config"
	"peerconnect/api/internal/email"
	"peerconnect/api/internal/export"
	"peerconnect/api/internal/quota"
	"peerconnect/api/internal/rbac"
	"peerconnect/api/internal/search"
	"peerconnect/api/internal/similarity"
	"peerconnect/api/internal/store"
	"peerconnect/api/internal/util"

	"golang.org/x/crypto/bcrypt"
)

type Session struct {
	Token        string
	RefreshToken string
	UserID       string
	Username     string
	Role         string
	Credibility  int
	JTI          string
	ExpiresAt    time.Time
}

type PostDoubtInput struct {
	Title       string `json:"title"`
	Content     string `json:"content"`
	Category    string `json:"category"`
	IsAnonymous bool   `json:"isAnonymous"`
	Force       bool   `json:"force"`
}

type AnswerInput struct {
	Step1 string `json:"step1"`
	Step2 string `json:"step2"`
	Step3 string `json:"step3"`
}

type dataStore interface {
	CreateUser(context.Context, store.User) error
	GetUserByUsername(context.Context, string) (store.User, error)
	GetUserByID(context.Context, string) (store.User, error)
	MutateCredibility(context.Context, string, int) error
	CountUsers(context.Context) (int, error)
	InsertDoubt(context.Context, store.Doubt) error
	DeleteDoubt(context.Context, string) error
	GetDoubt(context.Context, string) (store.Doubt, error)
	ListDoubts(context.Context) ([]store.Doubt, error)
	ListDoubtTitles(context.Context) ([]store.DoubtTitle, error)
	InsertAnswer(context.Context, store.Answer) error
	DeleteAnswer(context.Context, string) error
	GetAnswer(context.Context, string) (store.Answer, error)
	ListAnswers(context.Context, string) ([]store.Answer, error)
	MarkAnswerVerified(context.Context, string) (bool, error)
	ClearAnswerVerified(context.Context, string) error
	InsertNotification(context.Context, store.Notification) error
	DeleteNotification(context.Context, string) error
	ListNotifications(context.Context, string) ([]store.Notification, error)
	MarkNotificationsRead(context.Context, string) error
	RevokeAccessToken(context.Context, string, time.Time) error
	IsAccessTokenRevoked(context.Context, string) (bool, error)
	Ping(ctx context.Context) error
}

// sessionStore holds refresh tokens. Backed by Redis when configured,
// otherwise by the refresh_sessions table in Postgres.
type sessionStore interface {
	SaveRefreshSession(ctx context.Context, tokenHash, userID string, expiresAt time.Time) error
	LookupRefreshSession(ctx context.Context, tokenHash string) (store.User, error)
	RevokeRefreshSession(ctx context.Context, tokenHash string) error
}

type Service struct {
	cfg       config.Config
	store     dataStore
	sessions  sessionStore
	quota     *quota.Tracker
	passwords *authpw.Service
	search    *search.Service
	email     *email.Service
	now       func() time.Time
}

func New(cfg config.Config, dataStore *store.PostgresStore, sessions sessionStore, searchSvc *search.Service, emailSvc *email.Service) *Service {
	if sessions == nil {
		sessions = dataStore
	}
	return &Service{
		cfg:       cfg,
		store:     dataStore,
		sessions:  sessions,
		quota:     quota.NewTracker(dataStore),
		passwords: authpw.NewService(dataStore),
		search:    searchSvc,
		email:     emailSvc,
		now:       time.Now,
	}
}

func (s *Service) today() string {
	now := time.Now()
	if s.now != nil {
		now = s.now()
	}
	return quota.Today(now)
}

// seedPassword is the password of the bootstrap accounts, for local
// development only.
const seedPassword = "peerconnect"

func (s *Service) Bootstrap(ctx context.Context) error {
	count, err := s.store.CountUsers(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(seedPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash seed password: %w", err)
	}

	userSeeds := []store.User{
		{ID: "usr-admin", Username: "admin", Role: string(rbac.RoleAdmin), CredibilityScore: 999},
		{ID: "usr-mentor-john", Username: "mentor_john", Role: string(rbac.RoleMentor), CredibilityScore: 250},
		{ID: "usr-student-alice", Username: "student_alice", Role: string(rbac.RoleStudent), CredibilityScore: 45},
		{ID: "usr-student-bob", Username: "student_bob", Role: string(rbac.RoleStudent), CredibilityScore: 10},
	}
	for _, seed := range userSeeds {
		seed.PasswordHash = string(hash)
		if err := s.store.CreateUser(ctx, seed); err != nil {
			return err
		}
	}

	doubtSeeds := []store.Doubt{
		{
			ID:       "d-newton-raphson",
			UserID:   "usr-mentor-john",
			Title:    "Newton-Raphson Convergence",
			Content:  "What is the rate of convergence for the Newton-Raphson method in Numerical Methods?",
			Category: "Numerical Methods",
		},
		{
			ID:       "d-asymptotic",
			UserID:   "usr-student-alice",
			Title:    "Asymptotic Notation Query",
			Content:  "Can someone explain the tightest upper bound for Merge Sort in DAA?",
			Category: "Design and Analysis of Algorithms",
		},
	}
	for _, seed := range doubtSeeds {
		seed.CreatedAt = time.Now()
		if err := s.store.InsertDoubt(ctx, seed); err != nil {
			return err
		}
	}

	if s.search != nil {
		s.search.ReindexAllFromPG(ctx)
	}
	return nil
}

func (s *Service) SignUp(ctx context.Context, username, emailAddr, password string) (Session, error) {
	user, err := s.passwords.SignUp(ctx, authpw.SignUpRequest{
		Username: username,
		Email:    emailAddr,
		Password: password,
	})
	if err != nil {
		return Session{}, err
	}
	return s.issueSession(ctx, user)
}

func (s *Service) SignIn(ctx context.Context, username, password string) (Session, error) {
	user, err := s.passwords.SignIn(ctx, authpw.SignInRequest{
		Username: username,
		Password: password,
	})
	if err != nil {
		return Session{}, err
	}
	return s.issueSession(ctx, user)
}

func (s *Service) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	tokenHash := auth.HashToken(refreshToken)
	user, err := s.sessions.LookupRefreshSession(ctx, tokenHash)
	if err != nil {
		return Session{}, err
	}
	if err := s.sessions.RevokeRefreshSession(ctx, tokenHash); err != nil {
		return Session{}, err
	}
	// The Redis backend stores only the user ID; reload the account so
	// the new token carries the current username and role.
	if user.Username == "" {
		fresh, err := s.store.GetUserByID(ctx, user.ID)
		if err != nil {
			return Session{}, err
		}
		user = fresh
	}
	return s.issueSession(ctx, user)
}

func (s *Service) issueSession(ctx context.Context, user store.User) (Session, error) {
	now := time.Now()
	expiresAt := now.Add(s.cfg.AccessTTL)
	jti := util.NewID("jti")

	token, err := auth.IssueToken([]byte(s.cfg.JWTSecret), auth.Claims{
		Sub:      user.ID,
		Username: user.Username,
		Role:     user.Role,
		JTI:      jti,
		Exp:      expiresAt.Unix(),
	})
	if err != nil {
		return Session{}, err
	}

	refresh := util.NewID("rft") + util.NewID("")
	refreshExpires := now.Add(s.cfg.RefreshTTL)
	if err := s.sessions.SaveRefreshSession(ctx, auth.HashToken(refresh), user.ID, refreshExpires); err != nil {
		return Session{}, err
	}

	return Session{
		Token:        token,
		RefreshToken: refresh,
		UserID:       user.ID,
		Username:     user.Username,
		Role:         user.Role,
		Credibility:  user.CredibilityScore,
		JTI:          jti,
		ExpiresAt:    expiresAt,
	}, nil
}

func (s *Service) SessionFromToken(ctx context.Context, token string) (Session, error) {
	claims, err := auth.ParseToken([]byte(s.cfg.JWTSecret), token)
	if err != nil {
		return Session{}, err
	}
	revoked, err := s.store.IsAccessTokenRevoked(ctx, claims.JTI)
	if err != nil {
		return Session{}, err
	}
	if revoked {
		return Session{}, auth.ErrInvalidToken
	}

	user, err := s.store.GetUserByID(ctx, claims.Sub)
	if err != nil {
		return Session{}, err
	}

	return Session{
		Token:       token,
		UserID:      user.ID,
		Username:    user.Username,
		Role:        user.Role,
		Credibility: user.CredibilityScore,
		JTI:         claims.JTI,
		ExpiresAt:   time.Unix(claims.Exp, 0),
	}, nil
}

func (s *Service) Logout(ctx context.Context, session Session, refreshToken string) error {
	if session.JTI != "" {
		_ = s.store.RevokeAccessToken(ctx, session.JTI, session.ExpiresAt)
	}
	if refreshToken != "" {
		_ = s.sessions.RevokeRefreshSession(ctx, auth.HashToken(refreshToken))
	}
	return nil
}

func (s *Service) Can(role string, action rbac.Action) bool {
	return rbac.Can(rbac.Normalize(role), action)
}

// Profile returns the session payload enriched with the day's posting
// allowance, so clients can show "3 of 5 posts used" without an extra
// round trip.
func (s *Service) Profile(ctx context.Context, session Session) (map[string]any, error) {
	allowance, err := s.quota.Allowance(ctx, session.UserID, s.today())
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"userId":            session.UserID,
		"userName":          session.Username,
		"role":              session.Role,
		"credibilityScore":  session.Credibility,
		"dailyLimit":        allowance.MaxAllowed,
		"doubtsPostedToday": allowance.PostedToday,
	}, nil
}

// PostDoubt runs the posting workflow: allowance pre-check, similarity
// scan, quota reservation, insert. The similarity conflict is a normal
// outcome, not an error; the caller retries with force=true to bypass.
// The quota slot is taken before the insert and released again if the
// insert fails, so a storage error never burns the user's allowance.
func (s *Service) PostDoubt(ctx context.Context, session Session, input PostDoubtInput) (map[string]any, error) {
	title := strings.TrimSpace(input.Title)
	content := strings.TrimSpace(input.Content)
	if title == "" {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "title is required", nil)
	}
	if content == "" {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "content is required", nil)
	}

	day := s.today()
	allowance, err := s.quota.Allowance(ctx, session.UserID, day)
	if err != nil {
		return nil, err
	}
	if allowance.PostedToday >= allowance.MaxAllowed {
		return nil, quotaExceededError(allowance)
	}

	if !input.Force {
		titles, err := s.store.ListDoubtTitles(ctx)
		if err != nil {
			return nil, err
		}
		corpus := make([]similarity.Title, 0, len(titles))
		for _, t := range titles {
			corpus = append(corpus, similarity.Title{ID: t.ID, Text: t.Title})
		}
		if matches := similarity.FindSimilar(title, corpus); len(matches) > 0 {
			candidates := make([]map[string]any, 0, len(matches))
			for _, m := range matches {
				candidates = append(candidates, map[string]any{
					"id":         m.ID,
					"title":      m.Title,
					"matchCount": m.MatchCount,
				})
			}
			return map[string]any{
				"status":     "conflict",
				"candidates": candidates,
			}, nil
		}
	}

	// Reserve the quota slot. This is the serialization point for
	// concurrent posts by the same user.
	if err := s.quota.RecordPost(ctx, session.UserID, day); err != nil {
		if errors.Is(err, quota.ErrQuotaExceeded) {
			return nil, quotaExceededError(allowance)
		}
		return nil, err
	}

	doubt := store.Doubt{
		ID:          util.NewID("dbt"),
		UserID:      session.UserID,
		Username:    session.Username,
		Title:       title,
		Content:     content,
		Category:    strings.TrimSpace(input.Category),
		IsAnonymous: input.IsAnonymous,
		CreatedAt:   time.Now(),
	}
	if err := s.store.InsertDoubt(ctx, doubt); err != nil {
		s.compensate("release post slot for "+session.UserID, func(ctx context.Context) error {
			return s.quota.RollbackPost(ctx, session.UserID, day)
		})
		return nil, err
	}

	if s.search != nil {
		s.search.IndexDoubt(search.DoubtRecord{
			ID:       doubt.ID,
			Title:    doubt.Title,
			Content:  doubt.Content,
			Category: doubt.Category,
		})
	}

	return map[string]any{
		"status": "posted",
		"doubt":  doubtPayload(doubt),
	}, nil
}

// compensate runs an undo step on a background context: the request
// context may already be gone when the compensation has to land.
func (s *Service) compensate(what string, fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := fn(ctx); err != nil {
		log.Printf("app: compensate %s: %v", what, err)
	}
}

func quotaExceededError(allowance quota.Allowance) *DomainError {
	return domainError(http.StatusTooManyRequests, "QUOTA_EXCEEDED", "Daily post limit reached", map[string]any{
		"postedToday": allowance.PostedToday,
		"maxAllowed":  allowance.MaxAllowed,
	})
}

func (s *Service) ListDoubts(ctx context.Context) ([]map[string]any, error) {
	doubts, err := s.store.ListDoubts(ctx)
	if err != nil {
		return nil, err
	}
	items := make([]map[string]any, 0, len(doubts))
	for _, doubt := range doubts {
		items = append(items, doubtPayload(doubt))
	}
	return items, nil
}

// DeleteDoubt is the admin moderation action: it removes the doubt and
// its answers and drops them from the search index.
func (s *Service) DeleteDoubt(ctx context.Context, session Session, doubtID string) error {
	if !s.Can(session.Role, rbac.ActionModerate) {
		return domainError(http.StatusForbidden, "FORBIDDEN", "Only admins can remove doubts", nil)
	}
	if _, err := s.store.GetDoubt(ctx, doubtID); err != nil {
		return err
	}
	if err := s.store.DeleteDoubt(ctx, doubtID); err != nil {
		return err
	}
	if s.search != nil {
		s.search.DeleteDoubt(doubtID)
	}
	return nil
}

func (s *Service) GetDoubt(ctx context.Context, doubtID string) (map[string]any, error) {
	doubt, err := s.store.GetDoubt(ctx, doubtID)
	if err != nil {
		return nil, err
	}
	answers, err := s.store.ListAnswers(ctx, doubtID)
	if err != nil {
		return nil, err
	}
	payload := doubtPayload(doubt)
	answerItems := make([]map[string]any, 0, len(answers))
	for _, answer := range answers {
		answerItems = append(answerItems, answerPayload(answer))
	}
	payload["answers"] = answerItems
	return payload, nil
}

// PostAnswer persists a step-by-step explanation, notifies the doubt's
// author, and grants the contributor a +1 posting bonus for the day.
// The bonus is unconditional; verification only affects credibility.
func (s *Service) PostAnswer(ctx context.Context, session Session, doubtID string, input AnswerInput) (map[string]any, error) {
	doubt, err := s.store.GetDoubt(ctx, doubtID)
	if err != nil {
		return nil, err
	}

	step1 := strings.TrimSpace(input.Step1)
	if step1 == "" {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "step1 is required", nil)
	}
	if doubt.UserID == session.UserID {
		return nil, domainError(http.StatusUnprocessableEntity, "SELF_ANSWER", "You cannot answer your own doubt", nil)
	}

	answer := store.Answer{
		ID:        util.NewID("ans"),
		DoubtID:   doubt.ID,
		UserID:    session.UserID,
		Username:  session.Username,
		Step1:     step1,
		Step2:     strings.TrimSpace(input.Step2),
		Step3:     strings.TrimSpace(input.Step3),
		CreatedAt: time.Now(),
	}
	if err := s.store.InsertAnswer(ctx, answer); err != nil {
		return nil, err
	}

	// The notification and the bonus must land together with the answer;
	// a failure after the insert undoes the committed steps so a failed
	// call leaves no partial state behind.
	notification := store.Notification{
		ID:        util.NewID("ntf"),
		UserID:    doubt.UserID,
		Message:   fmt.Sprintf("Peer Contribution: %q added a micro-explanation to your inquiry.", session.Username),
		Kind:      "NEW_ANSWER",
		DoubtID:   doubt.ID,
		CreatedAt: time.Now(),
	}
	if err := s.store.InsertNotification(ctx, notification); err != nil {
		s.compensate("remove answer "+answer.ID, func(ctx context.Context) error {
			return s.store.DeleteAnswer(ctx, answer.ID)
		})
		return nil, err
	}

	if err := s.quota.GrantBonus(ctx, session.UserID, s.today(), 1); err != nil {
		s.compensate("remove notification "+notification.ID, func(ctx context.Context) error {
			return s.store.DeleteNotification(ctx, notification.ID)
		})
		s.compensate("remove answer "+answer.ID, func(ctx context.Context) error {
			return s.store.DeleteAnswer(ctx, answer.ID)
		})
		return nil, err
	}

	if s.search != nil {
		s.search.IndexAnswer(search.AnswerRecord{
			ID:      answer.ID,
			DoubtID: answer.DoubtID,
			Body:    strings.TrimSpace(strings.Join([]string{answer.Step1, answer.Step2, answer.Step3}, " ")),
		})
	}
	s.notifyAnswerReceived(ctx, doubt, session.Username)

	return answerPayload(answer), nil
}

func (s *Service) ListAnswers(ctx context.Context, doubtID string) ([]map[string]any, error) {
	if _, err := s.store.GetDoubt(ctx, doubtID); err != nil {
		return nil, err
	}
	answers, err := s.store.ListAnswers(ctx, doubtID)
	if err != nil {
		return nil, err
	}
	items := make([]map[string]any, 0, len(answers))
	for _, answer := range answers {
		items = append(items, answerPayload(answer))
	}
	return items, nil
}

// VerifyAnswer is mentor-only. The conditional update in the store is
// the double-verification guard: only the first verify flips the flag
// and awards credibility, a repeat gets ALREADY_VERIFIED.
func (s *Service) VerifyAnswer(ctx context.Context, session Session, answerID string) (map[string]any, error) {
	if !s.Can(session.Role, rbac.ActionVerify) {
		return nil, domainError(http.StatusForbidden, "FORBIDDEN", "Only mentors can verify solutions", nil)
	}

	answer, err := s.store.GetAnswer(ctx, answerID)
	if err != nil {
		return nil, err
	}
	doubt, err := s.store.GetDoubt(ctx, answer.DoubtID)
	if err != nil {
		return nil, err
	}

	verified, err := s.store.MarkAnswerVerified(ctx, answerID)
	if err != nil {
		return nil, err
	}
	if !verified {
		return nil, domainError(http.StatusConflict, "ALREADY_VERIFIED", "This solution has already been verified", nil)
	}

	// From here on a failure unwinds the committed steps: the flag must
	// only stay set together with the credibility award and the
	// notification, otherwise a retry would hit the one-shot guard and
	// the author would permanently lose the award.
	if err := s.store.MutateCredibility(ctx, answer.UserID, 50); err != nil {
		s.compensate("unverify answer "+answer.ID, func(ctx context.Context) error {
			return s.store.ClearAnswerVerified(ctx, answer.ID)
		})
		return nil, err
	}

	if err := s.store.InsertNotification(ctx, store.Notification{
		ID:        util.NewID("ntf"),
		UserID:    answer.UserID,
		Message:   fmt.Sprintf("Excellence Verified: Your solution for %q was approved!", doubt.Title),
		Kind:      "VERIFIED",
		DoubtID:   doubt.ID,
		CreatedAt: time.Now(),
	}); err != nil {
		s.compensate("revoke credibility award for "+answer.UserID, func(ctx context.Context) error {
			return s.store.MutateCredibility(ctx, answer.UserID, -50)
		})
		s.compensate("unverify answer "+answer.ID, func(ctx context.Context) error {
			return s.store.ClearAnswerVerified(ctx, answer.ID)
		})
		return nil, err
	}

	answer.IsVerified = true
	if s.search != nil {
		s.search.IndexAnswer(search.AnswerRecord{
			ID:       answer.ID,
			DoubtID:  answer.DoubtID,
			Body:     strings.TrimSpace(strings.Join([]string{answer.Step1, answer.Step2, answer.Step3}, " ")),
			Verified: true,
		})
	}
	s.notifyAnswerVerified(ctx, answer, doubt, session.Username)

	return answerPayload(answer), nil
}

func (s *Service) Notifications(ctx context.Context, session Session) ([]map[string]any, error) {
	notifications, err := s.store.ListNotifications(ctx, session.UserID)
	if err != nil {
		return nil, err
	}
	items := make([]map[string]any, 0, len(notifications))
	for _, notification := range notifications {
		items = append(items, map[string]any{
			"id":        notification.ID,
			"message":   notification.Message,
			"kind":      notification.Kind,
			"isRead":    notification.IsRead,
			"doubtId":   notification.DoubtID,
			"createdAt": notification.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return items, nil
}

func (s *Service) MarkNotificationsRead(ctx context.Context, session Session) error {
	return s.store.MarkNotificationsRead(ctx, session.UserID)
}

func (s *Service) Search(ctx context.Context, q, filterType, category string, limit, offset int) (search.Response, error) {
	if s.search == nil {
		return search.Response{Results: []search.Result{}, Query: q}, nil
	}
	return s.search.Search(search.Query{
		Text:           q,
		FilterType:     search.ResultType(filterType),
		FilterCategory: category,
		Limit:          limit,
		Offset:         offset,
	}), nil
}

// Export renders a study sheet for a doubt. The export service is built
// over the same data store, so anonymity masking carries through.
func (s *Service) Export(ctx context.Context, doubtID string, format export.Format, verifiedOnly bool) (*export.Result, error) {
	svc := export.NewService(&exportStore{store: s.store})
	return svc.Export(ctx, export.Request{
		DoubtID:        doubtID,
		Format:         format,
		IncludeAnswers: true,
		VerifiedOnly:   verifiedOnly,
	})
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *Service) SMTPConfigured() bool {
	return s.email != nil && s.email.IsConfigured()
}

func (s *Service) notifyAnswerReceived(ctx context.Context, doubt store.Doubt, answererName string) {
	if !s.SMTPConfigured() {
		return
	}
	author, err := s.store.GetUserByID(ctx, doubt.UserID)
	if err != nil || author.Email == "" {
		return
	}
	go func() {
		if err := s.email.SendAnswerReceivedEmail(author.Email, author.Username, doubt.Title, answererName, ""); err != nil {
			log.Printf("app: send answer received email: %v", err)
		}
	}()
}

func (s *Service) notifyAnswerVerified(ctx context.Context, answer store.Answer, doubt store.Doubt, mentorName string) {
	if !s.SMTPConfigured() {
		return
	}
	author, err := s.store.GetUserByID(ctx, answer.UserID)
	if err != nil || author.Email == "" {
		return
	}
	go func() {
		if err := s.email.SendAnswerVerifiedEmail(author.Email, author.Username, doubt.Title, mentorName, ""); err != nil {
			log.Printf("app: send answer verified email: %v", err)
		}
	}()
}

func doubtPayload(doubt store.Doubt) map[string]any {
	username := doubt.Username
	if doubt.IsAnonymous {
		username = "Anonymous"
	}
	return map[string]any{
		"id":          doubt.ID,
		"username":    username,
		"title":       doubt.Title,
		"content":     doubt.Content,
		"category":    doubt.Category,
		"isAnonymous": doubt.IsAnonymous,
		"createdAt":   doubt.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func answerPayload(answer store.Answer) map[string]any {
	return map[string]any{
		"id":         answer.ID,
		"doubtId":    answer.DoubtID,
		"username":   answer.Username,
		"step1":      answer.Step1,
		"step2":      answer.Step2,
		"step3":      answer.Step3,
		"isVerified": answer.IsVerified,
		"createdAt":  answer.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// exportStore adapts the app data store to the export package.
type exportStore struct {
	store dataStore
}

func (e *exportStore) GetDoubt(ctx context.Context, id string) (export.DoubtInfo, error) {
	doubt, err := e.store.GetDoubt(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return export.DoubtInfo{}, err
	}
	if err != nil {
		return export.DoubtInfo{}, fmt.Errorf("%w: %v", export.ErrContentUnavailable, err)
	}
	return export.DoubtInfo{
		ID:        doubt.ID,
		Title:     doubt.Title,
		Content:   doubt.Content,
		Category:  doubt.Category,
		Author:    doubt.Username,
		Anonymous: doubt.IsAnonymous,
		CreatedAt: doubt.CreatedAt,
	}, nil
}

func (e *exportStore) ListAnswers(ctx context.Context, doubtID string) ([]export.AnswerInfo, error) {
	answers, err := e.store.ListAnswers(ctx, doubtID)
	if err != nil {
		return nil, err
	}
	items := make([]export.AnswerInfo, 0, len(answers))
	for _, answer := range answers {
		items = append(items, export.AnswerInfo{
			ID:        answer.ID,
			Author:    answer.Username,
			Step1:     answer.Step1,
			Step2:     answer.Step2,
			Step3:     answer.Step3,
			Verified:  answer.IsVerified,
			CreatedAt: answer.CreatedAt,
		})
	}
	return items, nil
}
