package token_test

import (
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/coursehub-session/token"
	"github.com/stretchr/testify/require"
)

const testSecret = "inspector-test-secret"

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func signClaims(t *testing.T, claims jwtlib.MapClaims) string {
	t.Helper()
	raw, err := token.NewHMACSigner(testSecret).Sign(claims)
	require.NoError(t, err)
	return raw
}

func teacherClaims(exp time.Time) jwtlib.MapClaims {
	return jwtlib.MapClaims{
		"token_type": "access",
		"user_id":    float64(42),
		"username":   "ada",
		"email":      "ada@example.com",
		"full_name":  "Ada Lovelace",
		"role":       "teacher",
		"exp":        exp.Unix(),
	}
}

func TestInspector_Decode(t *testing.T) {
	inspector := token.NewInspector(token.WithNowFunc(func() time.Time { return fixedNow }))

	t.Run("valid token", func(t *testing.T) {
		exp := fixedNow.Add(5 * time.Minute)
		identity, err := inspector.Decode(signClaims(t, teacherClaims(exp)))
		require.NoError(t, err)
		require.Equal(t, "42", identity.SubjectID)
		require.Equal(t, "ada", identity.Username)
		require.Equal(t, "ada@example.com", identity.Email)
		require.Equal(t, "Ada Lovelace", identity.FullName)
		require.Equal(t, token.RoleTeacher, identity.Role)
		require.True(t, identity.ExpiresAt.Equal(exp))
	})

	t.Run("string user id", func(t *testing.T) {
		claims := teacherClaims(fixedNow.Add(time.Minute))
		claims["user_id"] = "u-7"
		identity, err := inspector.Decode(signClaims(t, claims))
		require.NoError(t, err)
		require.Equal(t, "u-7", identity.SubjectID)
	})

	t.Run("sub fallback", func(t *testing.T) {
		claims := teacherClaims(fixedNow.Add(time.Minute))
		delete(claims, "user_id")
		claims["sub"] = "subject-1"
		identity, err := inspector.Decode(signClaims(t, claims))
		require.NoError(t, err)
		require.Equal(t, "subject-1", identity.SubjectID)
	})

	t.Run("expired token still decodes", func(t *testing.T) {
		identity, err := inspector.Decode(signClaims(t, teacherClaims(fixedNow.Add(-time.Hour))))
		require.NoError(t, err)
		require.True(t, identity.ExpiredAt(fixedNow))
	})

	malformed := map[string]func(t *testing.T) string{
		"empty":           func(t *testing.T) string { return "" },
		"garbage":         func(t *testing.T) string { return "not-a-token" },
		"bad segments":    func(t *testing.T) string { return "a.b" },
		"bad base64":      func(t *testing.T) string { return "eyJhbGciOiJIUzI1NiJ9.!!!.sig" },
		"missing exp":     func(t *testing.T) string { c := teacherClaims(fixedNow); delete(c, "exp"); return signClaims(t, c) },
		"unknown role":    func(t *testing.T) string { c := teacherClaims(fixedNow.Add(time.Hour)); c["role"] = "janitor"; return signClaims(t, c) },
		"missing sub":     func(t *testing.T) string { c := teacherClaims(fixedNow.Add(time.Hour)); delete(c, "user_id"); return signClaims(t, c) },
		"non-numeric exp": func(t *testing.T) string { c := teacherClaims(fixedNow); c["exp"] = "tomorrow"; return signClaims(t, c) },
	}
	for name, raw := range malformed {
		t.Run("malformed "+name, func(t *testing.T) {
			value := raw(t)
			_, err := inspector.Decode(value)
			require.ErrorIs(t, err, token.ErrDecode)
			require.True(t, inspector.IsExpired(value))
		})
	}
}

func TestInspector_IsExpired(t *testing.T) {
	inspector := token.NewInspector(token.WithNowFunc(func() time.Time { return fixedNow }))

	t.Run("future expiry", func(t *testing.T) {
		require.False(t, inspector.IsExpired(signClaims(t, teacherClaims(fixedNow.Add(time.Second)))))
	})

	t.Run("past expiry", func(t *testing.T) {
		require.True(t, inspector.IsExpired(signClaims(t, teacherClaims(fixedNow.Add(-time.Second)))))
	})

	t.Run("expiry at the exact instant", func(t *testing.T) {
		require.True(t, inspector.IsExpired(signClaims(t, teacherClaims(fixedNow))))
	})
}

func TestInspector_DefaultClockUsesNowTimeFunc(t *testing.T) {
	original := token.NowTimeFunc
	t.Cleanup(func() { token.NowTimeFunc = original })
	token.NowTimeFunc = func() time.Time { return fixedNow }

	inspector := token.NewInspector()
	require.Equal(t, fixedNow, inspector.Now())
	require.False(t, inspector.IsExpired(signClaims(t, teacherClaims(fixedNow.Add(time.Minute)))))
}

func TestParseRole(t *testing.T) {
	for _, in := range []string{"student", "Teacher", " admin ", ""} {
		_, err := token.ParseRole(in)
		require.NoError(t, err, in)
	}
	_, err := token.ParseRole("owner")
	require.Error(t, err)
}
