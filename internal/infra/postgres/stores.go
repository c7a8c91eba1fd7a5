package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"

	"email-quiz-service/internal/domain"
)

// ParticipantStore is the Postgres-backed allow-list.
type ParticipantStore struct {
	db *bun.DB
}

func NewParticipantStore(db *bun.DB) *ParticipantStore {
	return &ParticipantStore{db: db}
}

func (s *ParticipantStore) Exists(ctx context.Context, email string) (bool, error) {
	return s.db.NewSelect().
		Model((*participantRow)(nil)).
		Where("email = ?", domain.NormalizeEmail(email)).
		Exists(ctx)
}

func (s *ParticipantStore) Put(ctx context.Context, p domain.Participant) error {
	row := participantRow{
		Email:       domain.NormalizeEmail(p.Email),
		DisplayName: p.DisplayName,
		CreatedAt:   p.CreatedAt,
	}
	_, err := s.db.NewInsert().
		Model(&row).
		On("CONFLICT (email) DO UPDATE").
		Set("display_name = EXCLUDED.display_name").
		Exec(ctx)
	return err
}

func (s *ParticipantStore) ResetAll(ctx context.Context) error {
	_, err := s.db.NewTruncateTable().Model((*participantRow)(nil)).Exec(ctx)
	return err
}

// QuestionStore is the writable Postgres question store. Reads go through a
// caching repository in front of Load/GetQuestion.
type QuestionStore struct {
	db *bun.DB
}

func NewQuestionStore(db *bun.DB) *QuestionStore {
	return &QuestionStore{db: db}
}

func (s *QuestionStore) GetQuestion(ctx context.Context, id int64) (domain.Question, error) {
	return s.LoadQuestion(ctx, id)
}

func (s *QuestionStore) LoadQuestion(ctx context.Context, id int64) (domain.Question, error) {
	row := questionRow{}
	err := s.db.NewSelect().Model(&row).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	if err != nil {
		return domain.Question{}, err
	}
	return row.toDomain(), nil
}

func (s *QuestionStore) Put(ctx context.Context, q domain.Question) (int64, error) {
	row := questionRow{
		ID:            q.ID,
		Text:          q.Text,
		Option1:       q.Options[0],
		Option2:       q.Options[1],
		Option3:       q.Options[2],
		CorrectOption: q.CorrectOption,
		Active:        q.Active,
		CreatedAt:     q.CreatedAt,
	}
	_, err := s.db.NewInsert().Model(&row).Returning("id").Exec(ctx)
	if err != nil {
		return 0, err
	}
	return row.ID, nil
}

func (s *QuestionStore) ResetAll(ctx context.Context) error {
	_, err := s.db.NewTruncateTable().Model((*questionRow)(nil)).Exec(ctx)
	return err
}

// SessionStore persists session tokens with replace-by-token semantics.
type SessionStore struct {
	db *bun.DB
}

func NewSessionStore(db *bun.DB) *SessionStore {
	return &SessionStore{db: db}
}

func (s *SessionStore) Upsert(ctx context.Context, session domain.Session) error {
	row := sessionRow{
		Token:       session.Token,
		QuestionID:  session.QuestionID,
		Email:       session.Email,
		DisplayName: session.DisplayName,
		IssuedAt:    session.IssuedAt,
		ExpiresAt:   session.ExpiresAt,
	}
	_, err := s.db.NewInsert().
		Model(&row).
		On("CONFLICT (token) DO UPDATE").
		Set("question_id = EXCLUDED.question_id").
		Set("email = EXCLUDED.email").
		Set("display_name = EXCLUDED.display_name").
		Set("issued_at = EXCLUDED.issued_at").
		Set("expires_at = EXCLUDED.expires_at").
		Exec(ctx)
	return err
}

func (s *SessionStore) Get(ctx context.Context, token string) (domain.Session, bool, error) {
	row := sessionRow{}
	err := s.db.NewSelect().Model(&row).Where("token = ?", token).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Session{}, false, nil
	}
	if err != nil {
		return domain.Session{}, false, err
	}
	return row.toDomain(), true, nil
}

func (s *SessionStore) PurgeExpired(ctx context.Context, cutoff time.Time) error {
	_, err := s.db.NewDelete().
		Model((*sessionRow)(nil)).
		Where("expires_at <= ?", cutoff).
		Exec(ctx)
	return err
}

func (s *SessionStore) ResetAll(ctx context.Context) error {
	_, err := s.db.NewTruncateTable().Model((*sessionRow)(nil)).Exec(ctx)
	return err
}

// VoteLedger is the Postgres-backed append-only attempt ledger.
type VoteLedger struct {
	db *bun.DB
}

func NewVoteLedger(db *bun.DB) *VoteLedger {
	return &VoteLedger{db: db}
}

func (l *VoteLedger) Append(ctx context.Context, a domain.Attempt) error {
	row := voteRow{
		QuestionID:     a.QuestionID,
		Email:          domain.NormalizeEmail(a.Email),
		SelectedOption: a.SelectedOption,
		IsCorrect:      a.IsCorrect,
		VotedAt:        a.VotedAt,
	}
	_, err := l.db.NewInsert().Model(&row).Exec(ctx)
	return err
}

func (l *VoteLedger) Count(ctx context.Context, questionID int64, email string) (int, error) {
	return l.db.NewSelect().
		Model((*voteRow)(nil)).
		Where("question_id = ?", questionID).
		Where("email = ?", domain.NormalizeEmail(email)).
		Count(ctx)
}

func (l *VoteLedger) HasCompleted(ctx context.Context, questionID int64, email string) (bool, error) {
	return l.db.NewSelect().
		Model((*voteRow)(nil)).
		Where("question_id = ?", questionID).
		Where("email = ?", domain.NormalizeEmail(email)).
		Where("is_correct").
		Exists(ctx)
}

func (l *VoteLedger) LastAttempt(ctx context.Context, questionID int64, email string) (domain.Attempt, bool, error) {
	row := voteRow{}
	err := l.db.NewSelect().
		Model(&row).
		Where("question_id = ?", questionID).
		Where("email = ?", domain.NormalizeEmail(email)).
		OrderExpr("voted_at DESC, id DESC").
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Attempt{}, false, nil
	}
	if err != nil {
		return domain.Attempt{}, false, err
	}
	return row.toDomain(), true, nil
}

func (l *VoteLedger) Tally(ctx context.Context, questionID int64) (domain.Tally, error) {
	var rows []struct {
		SelectedOption int       `bun:"selected_option"`
		Count          int       `bun:"count"`
		Latest         time.Time `bun:"latest"`
	}
	err := l.db.NewSelect().
		Model((*voteRow)(nil)).
		ColumnExpr("selected_option").
		ColumnExpr("count(*) AS count").
		ColumnExpr("max(voted_at) AS latest").
		Where("question_id = ?", questionID).
		GroupExpr("selected_option").
		Scan(ctx, &rows)
	if err != nil {
		return domain.Tally{}, err
	}

	tally := domain.Tally{QuestionID: questionID}
	for _, r := range rows {
		tally.Total += r.Count
		if domain.ValidOption(r.SelectedOption) {
			tally.Counts[r.SelectedOption-1] = r.Count
		}
		if r.Latest.After(tally.UpdatedAt) {
			tally.UpdatedAt = r.Latest
		}
	}
	return tally, nil
}

func (l *VoteLedger) ResetAll(ctx context.Context) error {
	_, err := l.db.NewTruncateTable().Model((*voteRow)(nil)).Exec(ctx)
	return err
}
