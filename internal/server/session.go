package server

import (
	"net/http"
	"net/url"
	"time"

	"viewfir/internal/auth"
)

// otpChallengeCookieName holds the pending OTP challenge between the
// request and verify posts. Short-lived on purpose.
const otpChallengeCookieName = "viewfir_otp_challenge"

const otpChallengeMaxAge = 5 * time.Minute

func (s *Service) sessionToken(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(s.config.CookieName)
	if err != nil {
		return "", false
	}

	var token string
	if err := s.cookie.Decode(s.config.CookieName, cookie.Value, &token); err != nil {
		s.logger.WithError(err).Debug("failed to decode session cookie")
		return "", false
	}

	return token, token != ""
}

// completeLogin seals the bearer token into the session cookie and sends the
// user to the record-lookup view.
func (s *Service) completeLogin(w http.ResponseWriter, r *http.Request, token string) {
	encoded, err := s.cookie.Encode(s.config.CookieName, token)
	if err != nil {
		s.logger.WithError(err).Error("failed to encode session cookie")
		s.internalServerError(w)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     s.config.CookieName,
		Value:    encoded,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   s.config.SessionMaxAgeSec,
		Path:     "/",
	})

	s.clearChallengeCookie(w)

	v := url.Values{}
	v.Set("notice", auth.MsgLoginSucceeded)
	http.Redirect(w, r, "/view?"+v.Encode(), http.StatusSeeOther)
}

func (s *Service) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.config.CookieName,
		Value:    "",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
		MaxAge:   -1,
	})
}

func (s *Service) setChallengeCookie(w http.ResponseWriter, challenge *auth.Challenge) error {
	encoded, err := s.cookie.Encode(otpChallengeCookieName, challenge)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     otpChallengeCookieName,
		Value:    encoded,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
		MaxAge:   int(otpChallengeMaxAge.Seconds()),
	})

	return nil
}

func (s *Service) challengeFromCookie(r *http.Request) (*auth.Challenge, bool) {
	cookie, err := r.Cookie(otpChallengeCookieName)
	if err != nil {
		return nil, false
	}

	challenge := new(auth.Challenge)
	if err := s.cookie.Decode(otpChallengeCookieName, cookie.Value, challenge); err != nil {
		s.logger.WithError(err).Debug("failed to decode otp challenge cookie")
		return nil, false
	}

	return challenge, challenge.Session != ""
}

func (s *Service) clearChallengeCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     otpChallengeCookieName,
		Value:    "",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
		MaxAge:   -1,
	})
}
