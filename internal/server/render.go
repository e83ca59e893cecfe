package server

import (
	"net/http"

	"viewfir/pkg/types"
)

func (s *Service) renderTemplate(w http.ResponseWriter, r *http.Request, templateName string, data any) error {
	token, _ := r.Context().Value(contextKeyToken).(string)
	phone, _ := r.Context().Value(contextKeyPhone).(string)

	if setter, ok := data.(types.NavbarDataSetter); ok {
		setter.SetNavbarData(types.NavbarData{
			IsAuthenticated: token != "",
			PhoneNumber:     phone,
		})
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return s.templates.ExecuteTemplate(w, templateName, data)
}
