package service

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"

	"kursusku_backend/internals/helpers/apperror"
)

// StateTTL: state lebih tua dari ini ditolak.
const StateTTL = 10 * time.Minute

// StateToken dikirim ke provider apa adanya (base64 JSON) dan kembali di callback.
// Tidak disimpan di server; validitas cukup dari isi + jam.
type StateToken struct {
	State       string `json:"state"`
	Timestamp   int64  `json:"timestamp"` // unix millis
	Provider    string `json:"provider"`
	UserID      string `json:"userId,omitempty"`
	LinkingMode bool   `json:"linkingMode,omitempty"`
}

func randomState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// GenerateState: userID non-nil berarti mode linking.
func GenerateState(provider string, userID *uuid.UUID, now time.Time) (string, error) {
	st, err := randomState()
	if err != nil {
		return "", apperror.Internal("gagal membuat state", err)
	}
	tok := StateToken{
		State:     st,
		Timestamp: now.UnixMilli(),
		Provider:  strings.ToLower(provider),
	}
	if userID != nil {
		tok.UserID = userID.String()
		tok.LinkingMode = true
	}
	raw, err := sonic.Marshal(tok)
	if err != nil {
		return "", apperror.Internal("gagal encode state", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

func decodeState(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if raw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(s, "=")); err == nil {
		return raw, nil
	}
	return base64.StdEncoding.DecodeString(s)
}

// ValidateState menolak state rusak, kadaluarsa (> StateTTL), dari masa depan, atau beda provider.
func ValidateState(token, expectedProvider string, now time.Time) (*StateToken, error) {
	invalid := apperror.Unauthorized("OAuth state tidak valid")
	if token == "" {
		return nil, invalid
	}
	raw, err := decodeState(token)
	if err != nil {
		return nil, invalid
	}
	var st StateToken
	if err := sonic.Unmarshal(raw, &st); err != nil || st.State == "" {
		return nil, invalid
	}

	age := now.Sub(time.UnixMilli(st.Timestamp))
	// toleransi clock skew kecil ke depan
	if age > StateTTL || age < -30*time.Second {
		return nil, apperror.Unauthorized("OAuth state kadaluarsa")
	}
	if !strings.EqualFold(st.Provider, expectedProvider) {
		return nil, apperror.Unauthorized("OAuth state untuk provider lain")
	}
	if st.LinkingMode {
		if _, err := uuid.Parse(st.UserID); err != nil {
			return nil, invalid
		}
	}
	return &st, nil
}

// LinkUserID: user tujuan linking, nil untuk mode login.
func (s *StateToken) LinkUserID() *uuid.UUID {
	if !s.LinkingMode {
		return nil
	}
	id, err := uuid.Parse(s.UserID)
	if err != nil {
		return nil
	}
	return &id
}
