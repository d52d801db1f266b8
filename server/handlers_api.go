package server

import (
	"errors"
	"net/http"
	"strings"

	apperrors "github.com/jrsteele09/coursehub-session/internal/errors"
	"github.com/jrsteele09/coursehub-session/token"
)

type meResponse struct {
	ID       string     `json:"id"`
	FullName string     `json:"full_name"`
	Email    string     `json:"email"`
	Role     token.Role `json:"role"`
}

type teacherResponse struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

type createCourseRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// MeHandler returns the profile of the account the access token belongs to.
func (s *Server) MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, _ := IdentityFromContext(r.Context())
		user, err := s.users.GetByID(identity.SubjectID)
		if err != nil {
			if errors.Is(err, apperrors.ErrUserNotFound) {
				writeDetail(w, http.StatusNotFound, "Not found.", "not_found")
				return
			}
			logError(r.Method, r.URL.Path, err.Error())
			writeDetail(w, http.StatusInternalServerError, "A server error occurred.", "")
			return
		}
		writeJSON(w, http.StatusOK, meResponse{ID: user.ID, FullName: user.FullName, Email: user.Email, Role: user.Role})
	}
}

func (s *Server) ListCoursesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.courses.list())
	}
}

// CreateCourseHandler adds a course owned by the calling teacher.
func (s *Server) CreateCourseHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, _ := IdentityFromContext(r.Context())

		var req createCourseRequest
		if err := decodeBody(w, r, &req); err != nil {
			writeDetail(w, http.StatusBadRequest, detailMalformed, "parse_error")
			return
		}
		if strings.TrimSpace(req.Title) == "" {
			writeJSON(w, http.StatusBadRequest, fieldErrors{"title": {msgBlank}})
			return
		}

		course := s.courses.add(Course{
			Title:       strings.TrimSpace(req.Title),
			Description: req.Description,
			TeacherID:   identity.SubjectID,
			Teacher:     identity.FullName,
			CreatedAt:   s.nowFunc(),
		})
		writeJSON(w, http.StatusCreated, course)
	}
}

// ListTeachersHandler lists every active teacher account.
func (s *Server) ListTeachersHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		all, err := s.users.List(0, 0)
		if err != nil {
			logError(r.Method, r.URL.Path, err.Error())
			writeDetail(w, http.StatusInternalServerError, "A server error occurred.", "")
			return
		}
		teachers := make([]teacherResponse, 0)
		for _, u := range all {
			if u.Role == token.RoleTeacher && !u.Inactive {
				teachers = append(teachers, teacherResponse{ID: u.ID, FullName: u.FullName, Email: u.Email})
			}
		}
		writeJSON(w, http.StatusOK, teachers)
	}
}
