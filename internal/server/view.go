package server

import (
	"net/http"
	"strings"

	"viewfir/internal/record"
	"viewfir/pkg/types"
)

// timestampLayout renders the backend's epoch-seconds timestamps for humans.
const timestampLayout = "02 Jan 2006, 3:04 PM"

func (s *Service) handleGetView(w http.ResponseWriter, r *http.Request) {
	data := &types.ViewPageData{
		BasePageData: types.BasePageData{Title: "View Data"},
		Notice:       strings.TrimSpace(r.URL.Query().Get("notice")),
	}

	if err := s.renderTemplate(w, r, "page.view", data); err != nil {
		s.logger.WithError(err).Error("failed to render view page")
		s.internalServerError(w)
	}
}

func (s *Service) handlePostView(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseForm(); err != nil {
		s.logger.WithError(err).Error("failed to parse view form")
		s.internalServerError(w)
		return
	}

	id := strings.TrimSpace(r.FormValue("id"))
	year := strings.TrimSpace(r.FormValue("year"))

	data := &types.ViewPageData{
		BasePageData: types.BasePageData{Title: "View Data"},
		ID:           id,
		Year:         year,
	}

	if id == "" || year == "" {
		data.Error = record.MsgItemNotFound
		s.renderView(w, r, data)
		return
	}

	token, ok := s.tokenFromContext(ctx)
	if !ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	fetched, err := s.recordClient.FetchRecord(ctx, token, id, year)
	if err != nil {
		s.logger.WithError(err).Warn("record fetch failed")

		// Any previously shown record is gone; only the fixed message
		// remains.
		data.Record = nil
		data.Error = record.MsgItemNotFound
		s.renderView(w, r, data)
		return
	}

	data.Record = presentRecord(fetched)
	s.renderView(w, r, data)
}

func (s *Service) renderView(w http.ResponseWriter, r *http.Request, data *types.ViewPageData) {
	if err := s.renderTemplate(w, r, "page.view", data); err != nil {
		s.logger.WithError(err).Error("failed to render view page")
		s.internalServerError(w)
	}
}

func presentRecord(fetched *record.FetchedRecord) *types.ViewedRecord {
	viewed := &types.ViewedRecord{
		ID:          fetched.ID,
		Year:        fetched.Year,
		District:    fetched.District,
		City:        fetched.City,
		Address:     fetched.Address,
		Name:        fetched.Name,
		PhoneNumber: fetched.PhoneNumber,
		UploadDate:  "N/A",
		LastViewed:  "Never",
		FileURL:     fetched.FileURL,
	}

	if fetched.UploadDate != nil {
		viewed.UploadDate = fetched.UploadDate.Time().Local().Format(timestampLayout)
	}
	if fetched.RecentView != nil {
		viewed.LastViewed = fetched.RecentView.Time().Local().Format(timestampLayout)
	}

	return viewed
}
