package jwt_test

import (
	"testing"
	"time"

	"github.com/alexandernizov/moodiary/internal/domain"
	"github.com/alexandernizov/moodiary/internal/pkg/jwt"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewToken_Subject(t *testing.T) {
	secret := []byte("test")
	user := domain.User{Uuid: uuid.New(), Login: "alice"}

	testTable := []struct {
		name      string
		ttl       time.Duration
		secret    []byte
		expectErr bool
	}{
		{name: "valid", ttl: time.Minute, secret: secret},
		{name: "expired", ttl: -time.Minute, secret: secret, expectErr: true},
		{name: "wrong_secret", ttl: time.Minute, secret: []byte("other"), expectErr: true},
	}

	for _, testCase := range testTable {
		t.Run(testCase.name, func(t *testing.T) {
			token, err := jwt.NewToken(user, testCase.ttl, secret)
			require.NoError(t, err)

			sub, err := jwt.Subject(token, testCase.secret)
			if testCase.expectErr {
				assert.ErrorIs(t, err, jwt.ErrInvalidToken)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, user.Uuid, sub)
		})
	}
}
