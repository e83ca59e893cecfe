package server

import (
	"net/http"
	"strings"

	"viewfir/internal/auth"
	"viewfir/pkg/types"
)

func (s *Service) handleGetLogin(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.sessionToken(r); ok {
		http.Redirect(w, r, "/view", http.StatusSeeOther)
		return
	}

	data := &types.LoginPageData{
		BasePageData: types.BasePageData{Title: "Login"},
		Notice:       strings.TrimSpace(r.URL.Query().Get("notice")),
		Error:        strings.TrimSpace(r.URL.Query().Get("error")),
	}

	if challenge, ok := s.challengeFromCookie(r); ok {
		data.OtpRequested = true
		data.PhoneNumber = localNumber(challenge.PhoneNumber, s.config.CountryCallingCode)
	}

	if err := s.renderTemplate(w, r, "page.login", data); err != nil {
		s.logger.WithError(err).Error("failed to render login page")
		s.internalServerError(w)
	}
}

func (s *Service) handlePostOTPRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseForm(); err != nil {
		s.logger.WithError(err).Error("failed to parse otp request form")
		s.internalServerError(w)
		return
	}

	phone := strings.TrimSpace(r.FormValue("phone_number"))
	phone = strings.TrimPrefix(phone, s.config.CountryCallingCode)

	data := &types.LoginPageData{
		BasePageData: types.BasePageData{Title: "Login"},
		PhoneNumber:  phone,
	}

	challenge, err := s.authClient.RequestOTP(ctx, phone)
	if err != nil {
		s.logger.WithError(err).Warn("otp request failed")

		data.Error = auth.RequestOTPMessage(err)
		if renderErr := s.renderTemplate(w, r, "page.login", data); renderErr != nil {
			s.logger.WithError(renderErr).Error("failed to render login page with otp error")
			s.internalServerError(w)
		}
		return
	}

	if err := s.setChallengeCookie(w, challenge); err != nil {
		s.logger.WithError(err).Error("failed to encode otp challenge cookie")
		s.internalServerError(w)
		return
	}

	data.OtpRequested = true
	data.Notice = auth.MsgOTPSent

	if err := s.renderTemplate(w, r, "page.login", data); err != nil {
		s.logger.WithError(err).Error("failed to render login page after otp request")
		s.internalServerError(w)
	}
}

func (s *Service) handlePostOTPVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseForm(); err != nil {
		s.logger.WithError(err).Error("failed to parse otp verify form")
		s.internalServerError(w)
		return
	}

	code := strings.TrimSpace(r.FormValue("otp"))

	data := &types.LoginPageData{
		BasePageData: types.BasePageData{Title: "Login"},
	}

	challenge, ok := s.challengeFromCookie(r)
	if !ok {
		// The handle expired or was never issued; back to square one.
		data.Error = auth.MsgVerifyFailed
		if err := s.renderTemplate(w, r, "page.login", data); err != nil {
			s.logger.WithError(err).Error("failed to render login page without challenge")
			s.internalServerError(w)
		}
		return
	}

	data.OtpRequested = true
	data.PhoneNumber = localNumber(challenge.PhoneNumber, s.config.CountryCallingCode)

	token, err := s.authClient.VerifyOTP(ctx, challenge, code)
	if err != nil {
		s.logger.WithError(err).Warn("otp verification failed")

		// The provider may have rotated the challenge session; keep the
		// cookie current so a retry answers the right challenge.
		if err := s.setChallengeCookie(w, challenge); err != nil {
			s.logger.WithError(err).Error("failed to refresh otp challenge cookie")
		}

		data.Error = auth.VerifyOTPMessage(err)
		if renderErr := s.renderTemplate(w, r, "page.login", data); renderErr != nil {
			s.logger.WithError(renderErr).Error("failed to render login page with verify error")
			s.internalServerError(w)
		}
		return
	}

	s.completeLogin(w, r, token)
}

func (s *Service) handlePostLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if token, ok := s.tokenFromContext(ctx); ok {
		// Local sign-out proceeds even when the provider call fails.
		if err := s.authClient.SignOut(ctx, token); err != nil {
			s.logger.WithError(err).Warn("provider sign out failed")
		}
	}

	s.clearSessionCookie(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func localNumber(formatted, countryCode string) string {
	return strings.TrimPrefix(formatted, countryCode)
}
