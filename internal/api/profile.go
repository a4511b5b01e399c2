package api

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path"
	"strings"

	"resale-backend/internal/database"
	"resale-backend/internal/storage"
	"resale-backend/pkg/api"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const (
	DefaultMaxUploadBytes = 5 << 20

	profilePicPrefix = "profile_pics"
)

var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
}

const profileUpdateFailed = "An error occurred while updating your profile. Please try again."

func (s *Server) ProfilePage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "profile", "Profile", nil)
}

func (s *Server) UpdateProfile(w http.ResponseWriter, r *http.Request) error {
	user := currentUser(r)

	if err := r.ParseMultipartForm(s.cfg.MaxUploadBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		slog.Warn("error parsing profile form", "user_id", user.Id, "error", err)
		s.flashRedirect(w, r, flashDanger, profileUpdateFailed, "/profile")
		return nil
	}

	form, ok := parseAccountForm[api.ProfileForm](s, w, r, "/profile")
	if !ok {
		return nil
	}

	file, header, err := r.FormFile("profile_pic")
	switch {
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		file = nil
	case err != nil:
		slog.Warn("error reading profile picture", "user_id", user.Id, "error", err)
		s.flashRedirect(w, r, flashDanger, profileUpdateFailed, "/profile")
		return nil
	default:
		defer file.Close()
	}

	var ext string
	if file != nil {
		ext = strings.ToLower(path.Ext(header.Filename))
		if !imageExtensions[ext] {
			s.flashRedirect(w, r, flashDanger, "Unsupported image type. Please upload a PNG, JPG, GIF or WEBP file.", "/profile")
			return nil
		}
	}

	// A blank username leaves the current one in place.
	if username := strings.TrimSpace(form.Username); username != "" {
		if err := database.UpdateUsername(r.Context(), s.db, user.Id, username); err != nil {
			s.flashRedirect(w, r, flashDanger, profileUpdateFailed, "/profile")
			return nil
		}
	}

	if file != nil {
		if err := s.replaceProfilePic(r.Context(), user, ext, file); err != nil {
			slog.Error("error saving profile picture", "user_id", user.Id, "error", err)
			s.flashRedirect(w, r, flashDanger, profileUpdateFailed, "/profile")
			return nil
		}
	}

	s.flashRedirect(w, r, flashSuccess, "Profile updated!", "/profile")
	return nil
}

func (s *Server) replaceProfilePic(ctx context.Context, user *database.User, ext string, data io.Reader) error {
	key := path.Join(profilePicPrefix, user.Id.String(), uuid.NewString()+ext)

	if err := s.storage.PutObject(ctx, s.cfg.UploadBucket, key, data); err != nil {
		return err
	}

	if err := database.UpdateProfilePic(ctx, s.db, user.Id, key); err != nil {
		s.deleteProfilePic(ctx, key)
		return err
	}

	if user.ProfilePic.Valid && user.ProfilePic.String != key {
		s.deleteProfilePic(ctx, user.ProfilePic.String)
	}
	return nil
}

func (s *Server) deleteProfilePic(ctx context.Context, key string) {
	if err := s.storage.DeleteObject(ctx, s.cfg.UploadBucket, key); err != nil && !errors.Is(err, storage.ErrObjectNotFound) {
		slog.Warn("unable to delete profile picture", "key", key, "error", err)
	}
}

func (s *Server) ProfilePic(w http.ResponseWriter, r *http.Request) error {
	rest := chi.URLParam(r, "*")
	if rest == "" || strings.Contains(rest, "..") {
		return CodedErrorf(http.StatusNotFound, "not found")
	}
	key := profilePicPrefix + "/" + rest

	obj, err := s.storage.OpenObject(r.Context(), s.cfg.UploadBucket, key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return CodedErrorf(http.StatusNotFound, "not found")
		}
		return CodedErrorf(http.StatusInternalServerError, "unable to load image")
	}
	defer obj.Close()

	contentType := mime.TypeByExtension(path.Ext(key))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "private, max-age=86400")

	if _, err := io.Copy(w, obj); err != nil {
		slog.Warn("error streaming profile picture", "key", key, "error", err)
	}
	return nil
}
