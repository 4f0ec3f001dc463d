package controller

import (
	"context"
	"net/http"
	"strings"

	"github.com/Freeeeeet/aula_backend/internal/model"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const jwtAudience = "authenticated"

// Claims токен провайдера аутентификации; Subject это id пользователя
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`

	UserID uuid.UUID `json:"-"`
}

type claimsKey struct{}

func claimsFromContext(ctx context.Context) *Claims {
	claims, _ := ctx.Value(claimsKey{}).(*Claims)
	return claims
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// parseToken проверяет подпись HS256, audience и, если задан, issuer
func (s *Server) parseToken(raw string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(jwtAudience),
		jwt.WithExpirationRequired(),
	}
	if s.auth.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.auth.Issuer))
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return s.auth.Secret, nil
	}, opts...)
	if err != nil {
		return nil, err
	}

	claims.UserID, err = uuid.Parse(claims.Subject)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r.Header.Get("Authorization"))
		if token == "" {
			writeError(w, http.StatusUnauthorized, msgUnauthorized)
			return
		}

		claims, err := s.parseToken(token)
		if err != nil {
			s.logger.Debug("Token rejected", zap.String("request_id", requestID(r)), zap.Error(err))
			writeError(w, http.StatusUnauthorized, msgUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey{}, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireAdmin пропускает только пользователей с ролью admin в user_roles
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := claimsFromContext(r.Context())
		if claims == nil {
			writeError(w, http.StatusUnauthorized, msgUnauthorized)
			return
		}

		ok, err := s.users.IsAdmin(r.Context(), claims.UserID)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		if !ok {
			writeError(w, http.StatusForbidden, msgAdminOnly)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireProfesor возвращает учителя текущего пользователя
// Возвращает profesor и true если OK, nil и false если ответ уже записан
func (s *Server) requireProfesor(w http.ResponseWriter, r *http.Request) (*model.Profesor, bool) {
	claims := claimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, msgUnauthorized)
		return nil, false
	}

	profesor, err := s.users.RequireProfesor(r.Context(), claims.UserID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return nil, false
	}
	return profesor, true
}
