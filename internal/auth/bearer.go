package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// BearerVerifier は外部IdPが発行したJWT Bearerトークンを検証する。
// CookieセッションをサポートしないSPA以外のクライアント
// （モバイル等）がIdPのトークンを直接提示するための代替経路。
// 検証に成功した場合、トークンのsubクレームをサブジェクトIDとして扱う。
type BearerVerifier struct {
	secret []byte
}

// NewBearerVerifier はBearerVerifierを生成する。
// secretが空の場合、Verifyは常にエラーを返す（Bearer経路の無効化）。
func NewBearerVerifier(secret string) *BearerVerifier {
	return &BearerVerifier{secret: []byte(secret)}
}

// Verify はHS256署名のJWTを検証し、subクレームを返す。
// 署名検証と有効期限検証の両方を行う。
func (v *BearerVerifier) Verify(tokenString string) (string, error) {
	if len(v.secret) == 0 {
		return "", fmt.Errorf("bearer token verification is not configured")
	}

	token, err := jwt.Parse(tokenString,
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return v.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", fmt.Errorf("invalid bearer token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("unexpected claims type")
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", fmt.Errorf("bearer token missing sub claim")
	}

	// expはWithExpirationRequiredで検証済みだが、念のため時刻の妥当性も確認する
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil || exp.Before(time.Now()) {
		return "", fmt.Errorf("bearer token expired")
	}

	return sub, nil
}
