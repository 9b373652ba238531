package models

import "encoding/json"

// Roles
const (
	RoleUser     = "user"
	RoleBusiness = "business"
	RoleAdmin    = "admin"
)

// Question types
const (
	QuestionSingleChoice   = "single_choice"
	QuestionMultipleChoice = "multiple_choice"
	QuestionText           = "text"
	QuestionRating         = "rating"
	QuestionYesNo          = "yes_no"
)

// IsChoiceType reports whether answers to questions of this type come from the option list
func IsChoiceType(t string) bool {
	switch t {
	case QuestionSingleChoice, QuestionMultipleChoice, QuestionYesNo:
		return true
	}
	return false
}

// IsValidQuestionType reports whether t is a known question type
func IsValidQuestionType(t string) bool {
	switch t {
	case QuestionSingleChoice, QuestionMultipleChoice, QuestionText, QuestionRating, QuestionYesNo:
		return true
	}
	return false
}

// User represents an account
type User struct {
	ID           int    `json:"id"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	PasswordHash string `json:"-"`
	Role         string `json:"role"`
	XP           int    `json:"xp"`
	CreatedAt    string `json:"created_at"`
}

// ConditionalLogicRules gates a question's visibility on the answer to another question.
// BaseQuestionSequence is the position-based reference and must be remapped on every
// structural change; BaseQuestionUUID survives reordering untouched.
type ConditionalLogicRules struct {
	BaseQuestionSequence *int     `json:"baseQuestionSequence,omitempty"`
	BaseQuestionUUID     string   `json:"baseQuestionUuid,omitempty"`
	Operator             string   `json:"operator"`
	Values               []string `json:"values,omitempty"`
}

// Clone returns a deep copy
func (r *ConditionalLogicRules) Clone() *ConditionalLogicRules {
	if r == nil {
		return nil
	}
	c := *r
	if r.BaseQuestionSequence != nil {
		seq := *r.BaseQuestionSequence
		c.BaseQuestionSequence = &seq
	}
	if r.Values != nil {
		c.Values = append([]string(nil), r.Values...)
	}
	return &c
}

// Question is a single survey question
type Question struct {
	ID                    int                    `json:"id,omitempty"`
	UUID                  string                 `json:"uuid"`
	SurveyID              int                    `json:"survey_id,omitempty"`
	SequenceNumber        int                    `json:"sequence_number"`
	Type                  string                 `json:"type"`
	Text                  string                 `json:"text"`
	Options               []string               `json:"options"`
	Required              bool                   `json:"required"`
	ConditionalLogicRules *ConditionalLogicRules `json:"conditional_logic_rules"`
	Branch                json.RawMessage        `json:"branch,omitempty"`
}

// Clone returns a deep copy
func (q Question) Clone() Question {
	c := q
	if q.Options != nil {
		c.Options = append([]string(nil), q.Options...)
	}
	if q.Branch != nil {
		c.Branch = append(json.RawMessage(nil), q.Branch...)
	}
	c.ConditionalLogicRules = q.ConditionalLogicRules.Clone()
	return c
}

// CloneQuestions deep-copies a question slice
func CloneQuestions(qs []Question) []Question {
	if qs == nil {
		return nil
	}
	out := make([]Question, len(qs))
	for i, q := range qs {
		out[i] = q.Clone()
	}
	return out
}

// Survey represents a survey or quick poll
type Survey struct {
	ID             int        `json:"id"`
	UUID           string     `json:"uuid"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	ParticipantMin *int       `json:"participant_min"`
	ParticipantMax *int       `json:"participant_max"`
	Published      bool       `json:"published"`
	IsQuickPoll    bool       `json:"is_quick_poll"`
	BusinessID     *int       `json:"business_id,omitempty"`
	CreatedBy      int        `json:"created_by"`
	ResponseCount  int        `json:"response_count"`
	Questions      []Question `json:"questions"`
	CreatedAt      string     `json:"created_at"`
	UpdatedAt      string     `json:"updated_at"`
}

// Response is one respondent's submission. Answers are keyed by question UUID.
type Response struct {
	ID        int                    `json:"id"`
	SurveyID  int                    `json:"survey_id"`
	UserID    *int                   `json:"user_id,omitempty"`
	Answers   map[string]interface{} `json:"answers"`
	CreatedAt string                 `json:"created_at"`
}

// QuestionBankItem is a reusable question template
type QuestionBankItem struct {
	ID        int      `json:"id"`
	UUID      string   `json:"uuid"`
	Type      string   `json:"type"`
	Text      string   `json:"text"`
	Options   []string `json:"options"`
	Category  string   `json:"category"`
	CreatedBy int      `json:"created_by"`
	CreatedAt string   `json:"created_at"`
}

// Season is a season pass period
type Season struct {
	ID                int    `json:"id"`
	Name              string `json:"name"`
	Description       string `json:"description"`
	StartsAt          string `json:"starts_at"`
	EndsAt            string `json:"ends_at"`
	Active            bool   `json:"active"`
	PremiumPriceCents int    `json:"premium_price_cents"`
}

// Reward kinds
const (
	RewardDigital  = "digital"
	RewardPhysical = "physical"
)

// Reward is a season pass tier reward
type Reward struct {
	ID          int    `json:"id"`
	SeasonID    int    `json:"season_id"`
	Tier        int    `json:"tier"`
	XPRequired  int    `json:"xp_required"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Kind        string `json:"kind"`
	Premium     bool   `json:"premium"`
}

// Purchase records a premium season pass purchase
type Purchase struct {
	ID          int    `json:"id"`
	UserID      int    `json:"user_id"`
	SeasonID    int    `json:"season_id"`
	AmountCents int    `json:"amount_cents"`
	CreatedAt   string `json:"created_at"`
}

// Delivery statuses
const (
	DeliveryPending    = "pending"
	DeliveryProcessing = "processing"
	DeliveryShipped    = "shipped"
	DeliveryDelivered  = "delivered"
	DeliveryCancelled  = "cancelled"
)

// Delivery is a claimed reward and its fulfilment state
type Delivery struct {
	ID              int    `json:"id"`
	UserID          int    `json:"user_id"`
	UserEmail       string `json:"user_email,omitempty"`
	UserName        string `json:"user_name,omitempty"`
	RewardID        int    `json:"reward_id"`
	RewardName      string `json:"reward_name,omitempty"`
	SeasonID        int    `json:"season_id"`
	Status          string `json:"status"`
	ShippingAddress string `json:"shipping_address,omitempty"`
	TrackingNumber  string `json:"tracking_number,omitempty"`
	Notes           string `json:"notes,omitempty"`
	CreatedAt       string `json:"created_at"`
	UpdatedAt       string `json:"updated_at"`
}

// Notification is a message delivered to one user
type Notification struct {
	ID         int    `json:"id"`
	UserID     int    `json:"user_id"`
	Title      string `json:"title"`
	Message    string `json:"message"`
	Type       string `json:"type"`
	Read       bool   `json:"read"`
	CreatedAt  string `json:"created_at"`
	CreatedAgo string `json:"created_ago,omitempty"`
}

// Idea statuses
const (
	IdeaOpen       = "open"
	IdeaPlanned    = "planned"
	IdeaInProgress = "in_progress"
	IdeaDone       = "done"
	IdeaDeclined   = "declined"
)

// Idea is an idea board entry
type Idea struct {
	ID          int           `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	AuthorID    int           `json:"author_id"`
	AuthorName  string        `json:"author_name,omitempty"`
	Status      string        `json:"status"`
	Votes       int           `json:"votes"`
	Voted       bool          `json:"voted"`
	Comments    []IdeaComment `json:"comments,omitempty"`
	CreatedAt   string        `json:"created_at"`
}

// IdeaComment is a comment on an idea
type IdeaComment struct {
	ID         int    `json:"id"`
	IdeaID     int    `json:"idea_id"`
	AuthorID   int    `json:"author_id"`
	AuthorName string `json:"author_name,omitempty"`
	Body       string `json:"body"`
	CreatedAt  string `json:"created_at"`
}

// BugReport is a user-submitted bug report
type BugReport struct {
	ID          int    `json:"id"`
	UserID      *int   `json:"user_id,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
	PageURL     string `json:"page_url"`
	Status      string `json:"status"`
	CreatedAt   string `json:"created_at"`
}

// Passkey is a registered device public key
type Passkey struct {
	ID        int    `json:"id"`
	UserID    int    `json:"user_id"`
	Name      string `json:"name"`
	PublicKey []byte `json:"-"`
	CreatedAt string `json:"created_at"`
}

// LeaderboardEntry is one ranked user
type LeaderboardEntry struct {
	Rank      int    `json:"rank"`
	UserID    int    `json:"user_id"`
	Name      string `json:"name"`
	XP        int    `json:"xp"`
	XPDisplay string `json:"xp_display"`
}

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// OTP purposes
const (
	OTPRegistration = "registration"
	OTPReset        = "reset"
)

// OTP is a pending one-time code. Only its bcrypt hash is stored.
type OTP struct {
	Email     string
	Purpose   string
	CodeHash  string
	ExpiresAt int64 // unix seconds
	Attempts  int
	Verified  bool
}

// PasskeyChallenge is a single-use login challenge
type PasskeyChallenge struct {
	ID        string
	UserID    int
	Challenge []byte
	ExpiresAt int64 // unix seconds
}

// Stats summarizes the system for the admin dashboard
type Stats struct {
	Users              int `json:"users"`
	Surveys            int `json:"surveys"`
	PublishedSurveys   int `json:"published_surveys"`
	Responses          int `json:"responses"`
	PendingDeliveries  int `json:"pending_deliveries"`
	OpenBugReports     int `json:"open_bug_reports"`
	UnreadNotification int `json:"unread_notifications"`
}
