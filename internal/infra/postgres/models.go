package postgres

import (
	"time"

	"github.com/uptrace/bun"

	"email-quiz-service/internal/domain"
)

type participantRow struct {
	bun.BaseModel `bun:"table:participants"`

	Email       string    `bun:"email,pk"`
	DisplayName string    `bun:"display_name"`
	CreatedAt   time.Time `bun:"created_at,nullzero,default:current_timestamp"`
}

type questionRow struct {
	bun.BaseModel `bun:"table:questions"`

	ID            int64     `bun:"id,pk,autoincrement"`
	Text          string    `bun:"question"`
	Option1       string    `bun:"option1"`
	Option2       string    `bun:"option2"`
	Option3       string    `bun:"option3"`
	CorrectOption int       `bun:"correct_option"`
	Active        bool      `bun:"active"`
	CreatedAt     time.Time `bun:"created_at,nullzero,default:current_timestamp"`
}

func (r questionRow) toDomain() domain.Question {
	return domain.Question{
		ID:            r.ID,
		Text:          r.Text,
		Options:       [domain.OptionCount]string{r.Option1, r.Option2, r.Option3},
		CorrectOption: r.CorrectOption,
		Active:        r.Active,
		CreatedAt:     r.CreatedAt,
	}
}

type sessionRow struct {
	bun.BaseModel `bun:"table:quiz_sessions"`

	Token       string    `bun:"token,pk"`
	QuestionID  int64     `bun:"question_id"`
	Email       string    `bun:"email"`
	DisplayName string    `bun:"display_name"`
	IssuedAt    time.Time `bun:"issued_at"`
	ExpiresAt   time.Time `bun:"expires_at"`
}

func (r sessionRow) toDomain() domain.Session {
	return domain.Session{
		Token:       r.Token,
		QuestionID:  r.QuestionID,
		Email:       r.Email,
		DisplayName: r.DisplayName,
		IssuedAt:    r.IssuedAt,
		ExpiresAt:   r.ExpiresAt,
	}
}

type voteRow struct {
	bun.BaseModel `bun:"table:votes"`

	ID             int64     `bun:"id,pk,autoincrement"`
	QuestionID     int64     `bun:"question_id"`
	Email          string    `bun:"email"`
	SelectedOption int       `bun:"selected_option"`
	IsCorrect      bool      `bun:"is_correct"`
	VotedAt        time.Time `bun:"voted_at"`
}

func (r voteRow) toDomain() domain.Attempt {
	return domain.Attempt{
		QuestionID:     r.QuestionID,
		Email:          r.Email,
		SelectedOption: r.SelectedOption,
		IsCorrect:      r.IsCorrect,
		VotedAt:        r.VotedAt,
	}
}
