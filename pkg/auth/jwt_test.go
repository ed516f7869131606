package auth

import (
	"errors"
	"testing"
	"time"
)

const testSecret = "test-secret-key-for-unit-tests"

func TestParseAccessToken(t *testing.T) {
	t.Parallel()
	m := NewJWTManager(testSecret, "test", time.Hour)

	tests := []struct {
		name    string
		token   func(t *testing.T) string
		wantErr bool
		wantID  uint
	}{
		{
			name: "有效的访问令牌",
			token: func(t *testing.T) string {
				tok, err := m.GenerateToken(42, "user", AccessToken)
				if err != nil {
					t.Fatalf("GenerateToken() error: %v", err)
				}
				return tok
			},
			wantID: 42,
		},
		{
			name: "刷新令牌被拒绝",
			token: func(t *testing.T) string {
				tok, _ := m.GenerateToken(42, "user", RefreshToken)
				return tok
			},
			wantErr: true,
		},
		{
			name: "其他密钥签发的令牌被拒绝",
			token: func(t *testing.T) string {
				tok, _ := NewJWTManager("other", "test", time.Hour).GenerateToken(42, "user", AccessToken)
				return tok
			},
			wantErr: true,
		},
		{
			name: "过期令牌被拒绝",
			token: func(t *testing.T) string {
				tok, _ := NewJWTManager(testSecret, "test", -time.Minute).GenerateToken(42, "user", AccessToken)
				return tok
			},
			wantErr: true,
		},
		{
			name:    "格式错误",
			token:   func(t *testing.T) string { return "not-a-jwt" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			claims, err := m.ParseAccessToken(tt.token(t))
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidToken) {
					t.Fatalf("err = %v, want ErrInvalidToken", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAccessToken() error: %v", err)
			}
			if claims.UserID != tt.wantID {
				t.Errorf("UserID = %d, want %d", claims.UserID, tt.wantID)
			}
		})
	}
}
