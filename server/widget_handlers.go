package server

import (
	"net/http"
)

type photoResponse struct {
	URL   string `json:"url"`
	Index int    `json:"index"`
	Count int    `json:"count"`
}

func (s *Server) WidgetsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.dashboard.View())
	}
}

func (s *Server) WidgetHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.PathValue("name")
		widget, ok := s.dashboard.Board().Get(name)
		if !ok {
			writeJSONError(w, "not_found", "Unknown widget "+name, http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, widget)
	}
}

func (s *Server) CurrentPhotoHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.writeCurrentPhoto(w)
	}
}

// StepPhotoHandler moves the carousel by direction and restarts its timer
func (s *Server) StepPhotoHandler(direction int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.dashboard.Scheduler().Advance(direction)
		s.writeCurrentPhoto(w)
	}
}

func (s *Server) writeCurrentPhoto(w http.ResponseWriter) {
	scheduler := s.dashboard.Scheduler()
	url, index, ok := scheduler.Current()
	if !ok {
		writeJSONError(w, "no_photos", "No photos to show", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, photoResponse{URL: url, Index: index, Count: scheduler.Set().Len()})
}
