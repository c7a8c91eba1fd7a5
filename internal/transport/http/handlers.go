package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"email-quiz-service/internal/app"
	"email-quiz-service/internal/auth"
	"email-quiz-service/internal/domain"
)

// SessionCookie carries the issued token alongside the redirect URL so a
// participant who loses the link can still resume from the same browser.
const SessionCookie = "quiz_session"

// Handler wires the campaign use cases into plain HTTP/JSON endpoints.
type Handler struct {
	tokens       *app.TokenService
	gate         *app.AllowGate
	questions    app.QuestionRepository
	admission    *app.AdmissionController
	results      *app.ResultsService
	reset        *app.ResetService
	participants app.ParticipantStore
	ledger       app.AttemptLedger
	hub          *app.TallyHub
	proofSalt    string
	cookieTTL    time.Duration
}

func NewHandler(
	tokens *app.TokenService,
	gate *app.AllowGate,
	questions app.QuestionRepository,
	admission *app.AdmissionController,
	results *app.ResultsService,
	reset *app.ResetService,
	participants app.ParticipantStore,
	ledger app.AttemptLedger,
	hub *app.TallyHub,
	proofSalt string,
	cookieTTL time.Duration,
) *Handler {
	return &Handler{
		tokens:       tokens,
		gate:         gate,
		questions:    questions,
		admission:    admission,
		results:      results,
		reset:        reset,
		participants: participants,
		ledger:       ledger,
		hub:          hub,
		proofSalt:    proofSalt,
		cookieTTL:    cookieTTL,
	}
}

// Register attaches all routes to the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/survey", h.SurveyEntry)
	mux.HandleFunc("/vote", h.SubmitVote)
	mux.HandleFunc("/results", h.Results)
	mux.HandleFunc("/admin/reset", h.AdminReset)
	mux.HandleFunc("/admin/participants", h.AdminPutParticipants)
}

// resolveToken picks the session token from exactly one source, in order:
// the survey query param (when no raw email param is present), the short
// fallback param, then the persisted cookie.
func resolveToken(r *http.Request) string {
	q := r.URL.Query()
	if token := q.Get("survey"); token != "" && q.Get("email") == "" {
		return token
	}
	if token := q.Get("s"); token != "" {
		return token
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		return c.Value
	}
	return ""
}

type surveyView struct {
	Question     domain.Question `json:"question"`
	DisplayName  string          `json:"displayName,omitempty"`
	State        string          `json:"state"`
	AttemptCount int             `json:"attemptCount"`
	MaxAttempts  int             `json:"maxAttempts"`
	Preselected  int             `json:"preselected,omitempty"`
	VoteProof    string          `json:"voteProof"`
}

// SurveyEntry serves both halves of the entry flow. A request carrying a raw
// email is the link from the campaign mail: it is gated, issued a token, and
// redirected to the clean token URL. A request without one is a token visit
// and gets the question view for rendering.
func (h *Handler) SurveyEntry(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		errorResponse(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	q := r.URL.Query()

	if rawEmail := q.Get("email"); rawEmail != "" {
		questionID, err := strconv.ParseInt(q.Get("survey"), 10, 64)
		if err != nil {
			errorResponse(w, http.StatusBadRequest, "survey must be a question id")
			return
		}
		allowed, err := h.gate.IsAllowed(r.Context(), rawEmail)
		if err != nil {
			h.storageFailure(w, "allow-list lookup", err)
			return
		}
		if !allowed {
			// Same rejection for unknown and malformed addresses.
			errorResponse(w, http.StatusForbidden, "email not authorized for this campaign")
			return
		}

		session, err := h.tokens.Issue(r.Context(), questionID, rawEmail, q.Get("nombre"))
		if err != nil {
			h.storageFailure(w, "issue session", err)
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     SessionCookie,
			Value:    session.Token,
			Path:     "/",
			MaxAge:   int(h.cookieTTL.Seconds()),
			HttpOnly: true,
			SameSite: http.SameSiteStrictMode,
		})

		target := "/survey?survey=" + url.QueryEscape(session.Token)
		if opt, err := strconv.Atoi(q.Get("opt")); err == nil && domain.ValidOption(opt) {
			target += "&opt=" + strconv.Itoa(opt)
		}
		http.Redirect(w, r, target, http.StatusSeeOther)
		return
	}

	session, ok := h.requireSession(w, r)
	if !ok {
		return
	}

	question, err := h.questions.GetQuestion(r.Context(), session.QuestionID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	if !question.Active {
		h.writeDomainError(w, domain.ErrQuestionNotFound)
		return
	}

	state, count, err := h.admission.ComputeState(r.Context(), session.QuestionID, session.Email)
	if err != nil {
		h.storageFailure(w, "compute state", err)
		return
	}

	view := surveyView{
		Question:     question,
		DisplayName:  session.DisplayName,
		State:        state.String(),
		AttemptCount: count,
		MaxAttempts:  h.admission.MaxAttempts(),
		VoteProof:    auth.VoteProof(session.Token, h.proofSalt),
	}
	if opt, err := strconv.Atoi(q.Get("opt")); err == nil && domain.ValidOption(opt) {
		view.Preselected = opt
	}
	jsonResponse(w, http.StatusOK, view)
}

type voteRequest struct {
	SelectedOption int    `json:"selectedOption"`
	Proof          string `json:"proof"`
}

// SubmitVote validates the session and the anti-forgery proof, then hands
// the submission to the admission controller. The proof check always runs
// before admission logic.
func (h *Handler) SubmitVote(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		errorResponse(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	session, ok := h.requireSession(w, r)
	if !ok {
		return
	}

	var req voteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorResponse(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if !domain.ValidOption(req.SelectedOption) {
		errorResponse(w, http.StatusBadRequest, "selectedOption must be 1-3")
		return
	}
	if err := auth.VerifyVoteProof(session.Token, req.Proof, h.proofSalt); err != nil {
		errorResponse(w, http.StatusForbidden, "invalid vote proof")
		return
	}

	result, err := h.admission.SubmitVote(r.Context(), session.QuestionID, session.Email, req.SelectedOption)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	if tally, err := h.ledger.Tally(r.Context(), session.QuestionID); err == nil {
		h.hub.Publish(tally)
	} else {
		log.Printf("tally after vote failed: %v", err)
	}

	jsonResponse(w, http.StatusOK, result)
}

// Results renders display data for the caller's question: aggregate tallies,
// their own last attempt, and derived progress state. Never mutates.
func (h *Handler) Results(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		errorResponse(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	session, ok := h.requireSession(w, r)
	if !ok {
		return
	}
	view, err := h.results.View(r.Context(), session.QuestionID, session.Email, session.DisplayName)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, view)
}

type resetRequest struct {
	Targets []string `json:"targets"`
}

// AdminReset truncates the requested tables. Outcomes are reported per
// table; one failing table never hides the others.
func (h *Handler) AdminReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		errorResponse(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req resetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Targets) == 0 {
		errorResponse(w, http.StatusBadRequest, "targets required")
		return
	}

	outcomes := make([]app.ResetOutcome, 0, len(req.Targets))
	for _, target := range req.Targets {
		outcomes = append(outcomes, h.reset.Reset(r.Context(), target)...)
	}
	for _, o := range outcomes {
		if !o.OK {
			log.Printf("reset %s failed: %s", o.Target, o.Error)
		}
	}
	jsonResponse(w, http.StatusOK, map[string]any{"outcomes": outcomes})
}

type participantUpload struct {
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
}

// AdminPutParticipants upserts allow-list entries from a JSON array.
func (h *Handler) AdminPutParticipants(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		errorResponse(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var uploads []participantUpload
	if err := json.NewDecoder(r.Body).Decode(&uploads); err != nil {
		errorResponse(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	imported := 0
	for _, u := range uploads {
		email := domain.NormalizeEmail(u.Email)
		if email == "" {
			continue
		}
		if err := h.participants.Put(r.Context(), domain.Participant{
			Email:       email,
			DisplayName: u.DisplayName,
			CreatedAt:   time.Now(),
		}); err != nil {
			h.storageFailure(w, "store participant", err)
			return
		}
		imported++
	}
	jsonResponse(w, http.StatusOK, map[string]int{"imported": imported})
}

// requireSession resolves and validates the session token, writing the
// invalid-session response itself when validation fails.
func (h *Handler) requireSession(w http.ResponseWriter, r *http.Request) (domain.Session, bool) {
	token := resolveToken(r)
	session, status, err := h.tokens.Validate(r.Context(), token)
	if err != nil {
		h.storageFailure(w, "validate session", err)
		return domain.Session{}, false
	}
	if status != domain.TokenValid {
		errorResponse(w, http.StatusUnauthorized, "session is not valid, use the original link from your email")
		return domain.Session{}, false
	}
	return session, true
}

func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		errorResponse(w, http.StatusForbidden, "email not authorized for this campaign")
	case errors.Is(err, domain.ErrQuestionNotFound):
		errorResponse(w, http.StatusNotFound, "question not found")
	case errors.Is(err, domain.ErrInvalidSession):
		errorResponse(w, http.StatusUnauthorized, "session is not valid, use the original link from your email")
	case errors.Is(err, domain.ErrAlreadyCompleted):
		errorResponse(w, http.StatusConflict, "question already completed")
	case errors.Is(err, domain.ErrAttemptsExhausted):
		errorResponse(w, http.StatusTooManyRequests, "no attempts remaining")
	default:
		h.storageFailure(w, "admission", err)
	}
}

// storageFailure is the only path logged as an operational incident; the
// taxonomy errors above are expected control flow.
func (h *Handler) storageFailure(w http.ResponseWriter, op string, err error) {
	log.Printf("%s: storage failure: %v", op, err)
	errorResponse(w, http.StatusServiceUnavailable, "temporary storage failure, retry shortly")
}

func jsonResponse(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func errorResponse(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}
