package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Email       string         `gorm:"uniqueIndex;not null" json:"email"`
	Name        string         `gorm:"column:name" json:"name"`
	PremiumPaid bool           `gorm:"column:premium_paid;not null;default:false" json:"premium_paid"`
	CreatedAt   time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (User) TableName() string { return "user" }

// Question belongs to one tier's questionnaire; OrderNumber fixes the order
// in which answers are folded into the priming message.
type Question struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Tier        string    `gorm:"column:tier;not null;index" json:"tier"`
	OrderNumber int       `gorm:"column:order_number;not null" json:"order_number"`
	Text        string    `gorm:"column:text;type:text;not null" json:"text"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
}

func (Question) TableName() string { return "question" }

type Answer struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	QuestionID uuid.UUID `gorm:"type:uuid;not null;index" json:"question_id"`
	TextAnswer string    `gorm:"column:text_answer;type:text" json:"text_answer"`
	CreatedAt  time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time `gorm:"not null" json:"updated_at"`
}

func (Answer) TableName() string { return "answer" }
