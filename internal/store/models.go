package store

import "time"

type User struct {
	ID               string
	Username         string
	Email            string
	PasswordHash     string
	Role             string
	CredibilityScore int
	CreatedAt        time.Time
}

type Doubt struct {
	ID          string
	UserID      string
	Username    string
	Title       string
	Content     string
	Category    string
	IsAnonymous bool
	CreatedAt   time.Time
}

type Answer struct {
	ID         string
	DoubtID    string
	UserID     string
	Username   string
	Step1      string
	Step2      string
	Step3      string
	IsVerified bool
	CreatedAt  time.Time
}

type Notification struct {
	ID        string
	UserID    string
	Message   string
	Kind      string
	IsRead    bool
	DoubtID   string
	CreatedAt time.Time
}

// DoubtTitle is the slim projection the similarity scan runs against.
type DoubtTitle struct {
	ID    string
	Title string
}
