package server

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"viewfir/internal/geo"
	"viewfir/internal/record"
	"viewfir/pkg/types"

	"github.com/sirupsen/logrus"
)

const (
	msgAddSucceeded = "Item added successfully!"
	msgAddFailed    = "Failed to add item. Please try again."
	msgInvalidFile  = "Invalid file type or size. Please upload a JPEG, PNG, or PDF file under 10MB."
)

// allowedFileTypes is the attachment allow-list. Anything else is discarded
// client-side of the backend, before the record is transmitted.
var allowedFileTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"application/pdf": true,
}

func (s *Service) handleGetAdd(w http.ResponseWriter, r *http.Request) {
	data := s.addPageData(types.RecordForm{})
	data.Notice = strings.TrimSpace(r.URL.Query().Get("notice"))

	if err := s.renderTemplate(w, r, "page.add", data); err != nil {
		s.logger.WithError(err).Error("failed to render add page")
		s.internalServerError(w)
	}
}

func (s *Service) handlePostAdd(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// One megabyte of slack over the attachment ceiling covers the other
	// multipart fields and boundaries.
	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxUploadBytes+1<<20)

	recordForm, parseErr := s.decodeRecordForm(r)

	data := s.addPageData(recordForm)

	if parseErr != nil {
		// An overrun body surfaces here before any field validation.
		if errors.As(parseErr, new(*http.MaxBytesError)) {
			data.Error = msgInvalidFile
			s.renderAdd(w, r, data)
			return
		}

		s.logger.WithError(parseErr).Error("failed to parse add form")
		s.internalServerError(w)
		return
	}

	// Selector changes post back with mode=refresh: re-derive the dependent
	// option lists and re-render without validating or submitting.
	if r.FormValue("mode") == "refresh" {
		s.renderAdd(w, r, data)
		return
	}

	data.FieldErrors = validateRecordForm(recordForm)
	if len(data.FieldErrors) > 0 {
		data.Error = "Please fix the highlighted fields."
		s.renderAdd(w, r, data)
		return
	}

	attachment, file, err := s.openAttachment(r)
	if err != nil {
		// The selection is discarded; the rest of the form stays usable.
		data.Error = msgInvalidFile
		s.renderAdd(w, r, data)
		return
	}
	if file != nil {
		defer file.Close()
	}

	token, ok := s.tokenFromContext(ctx)
	if !ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	rec := record.Record{
		ID:          recordForm.ID,
		Name:        recordForm.Name,
		Year:        recordForm.Year,
		State:       recordForm.State,
		District:    recordForm.District,
		City:        recordForm.City,
		Address:     recordForm.Address,
		PhoneNumber: recordForm.PhoneNumber,
		Attachment:  attachment,
	}

	var progress record.ProgressFunc
	if attachment != nil {
		progress = func(pct int) {
			s.logger.WithFields(logrus.Fields{
				"record_id": rec.ID,
				"percent":   pct,
			}).Debug("upload progress")
		}
	}

	if err := s.recordClient.AddRecord(ctx, token, rec, progress); err != nil {
		s.logger.WithError(err).Error("failed to add record")

		data.Error = msgAddFailed
		var se *record.ServerError
		if errors.As(err, &se) && se.Message != "" {
			data.Error = se.Message
		}

		s.renderAdd(w, r, data)
		return
	}

	// All fields reset after a successful submission.
	fresh := s.addPageData(types.RecordForm{})
	fresh.Notice = msgAddSucceeded
	s.renderAdd(w, r, fresh)
}

func (s *Service) decodeRecordForm(r *http.Request) (types.RecordForm, error) {
	var recordForm types.RecordForm

	if err := r.ParseMultipartForm(1 << 20); err != nil {
		return recordForm, err
	}

	if err := decoder.Decode(&recordForm, r.Form); err != nil {
		return recordForm, err
	}

	recordForm.ID = strings.TrimSpace(recordForm.ID)
	recordForm.Name = strings.TrimSpace(recordForm.Name)
	recordForm.Year = strings.TrimSpace(recordForm.Year)
	recordForm.Address = strings.TrimSpace(recordForm.Address)
	recordForm.PhoneNumber = strings.TrimSpace(recordForm.PhoneNumber)

	return recordForm, nil
}

// addPageData resolves the geo cascade for the current selection. A state or
// district that no longer fits its upstream choice is cleared here, which is
// also what keeps the dependent selects disabled until they have options.
func (s *Service) addPageData(recordForm types.RecordForm) *types.AddPageData {
	opts := geo.Resolve(geo.Selection{
		State:    recordForm.State,
		District: recordForm.District,
		City:     recordForm.City,
	})

	recordForm.State = opts.Selection.State
	recordForm.District = opts.Selection.District
	recordForm.City = opts.Selection.City

	return &types.AddPageData{
		BasePageData: types.BasePageData{Title: "Add Data"},
		Form:         recordForm,
		States:       opts.States,
		Districts:    opts.Districts,
		Cities:       opts.Cities,
	}
}

func (s *Service) renderAdd(w http.ResponseWriter, r *http.Request, data *types.AddPageData) {
	if err := s.renderTemplate(w, r, "page.add", data); err != nil {
		s.logger.WithError(err).Error("failed to render add page")
		s.internalServerError(w)
	}
}

// openAttachment pulls the optional file out of the multipart form and
// checks it against the allow-list and the size ceiling. A violation returns
// an error and no attachment; no file at all returns nils.
func (s *Service) openAttachment(r *http.Request) (*record.Attachment, multipart.File, error) {
	headers := r.MultipartForm.File["file"]
	if len(headers) == 0 {
		return nil, nil, nil
	}

	header := headers[0]
	contentType := header.Header.Get("Content-Type")

	if !allowedFileTypes[contentType] || header.Size > s.config.MaxUploadBytes {
		return nil, nil, errors.New("attachment rejected by allow-list or size ceiling")
	}

	file, err := header.Open()
	if err != nil {
		return nil, nil, err
	}

	return &record.Attachment{
		Filename:    header.Filename,
		ContentType: contentType,
		Size:        header.Size,
		Reader:      file,
	}, file, nil
}

func validateRecordForm(recordForm types.RecordForm) map[string]string {
	errs := map[string]string{}

	if !required(recordForm.ID) {
		errs["id"] = "FIR number is required."
	}
	if !required(recordForm.Name) {
		errs["name"] = "Name is required."
	}
	if !required(recordForm.Year) {
		errs["year"] = "Year is required."
	}
	if !required(recordForm.Address) {
		errs["address"] = "Address is required."
	}

	if !required(recordForm.PhoneNumber) {
		errs["phone_number"] = "Phone number is required."
	} else if !numeric(recordForm.PhoneNumber) {
		errs["phone_number"] = "Phone number must contain digits only."
	}

	sel := geo.Selection{
		State:    recordForm.State,
		District: recordForm.District,
		City:     recordForm.City,
	}
	if !geo.Valid(sel) {
		switch {
		case recordForm.State == "":
			errs["state"] = "State is required."
		case recordForm.District == "":
			errs["district"] = "District is required."
		default:
			errs["city"] = "City is required."
		}
	}

	return errs
}

func numeric(v string) bool {
	for _, r := range v {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(v) > 0
}
