package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"strings"
)

// ErrInvalidProof is returned when a vote proof is missing, forged, or was
// minted for a different token.
var ErrInvalidProof = errors.New("invalid vote proof")

// VoteProof mints an HMAC credential scoped to vote submissions for one
// session token. This is deterministic and verifiable; replaying it with
// another token fails verification.
func VoteProof(token, salt string) string {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte("vote:" + token))
	sum := h.Sum(nil)
	// URL-safe base64 without padding for cleaner embedding in forms.
	return strings.TrimRight(base64.URLEncoding.EncodeToString(sum), "=")
}

// VerifyVoteProof checks that proof was minted for this token and scope.
func VerifyVoteProof(token, proof, salt string) error {
	expected := VoteProof(token, salt)
	if !hmac.Equal([]byte(proof), []byte(expected)) {
		return ErrInvalidProof
	}
	return nil
}
