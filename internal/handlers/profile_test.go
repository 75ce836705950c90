package handlers_test

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type profileBody struct {
	FullName  string `json:"fullName"`
	Website   string `json:"website"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatarUrl"`
}

func (s *server) upload(t *testing.T, token, contentType string, data []byte) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer

	mw := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="image"; filename="avatar"`)
	header.Set("Content-Type", contentType)

	part, err := mw.CreatePart(header)
	require.NoError(t, err)

	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/profile/avatar/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	return w
}

func TestProfile_GetAndUpdate(t *testing.T) {
	s := newServer(t, 5)
	token := s.login(t, "ada@example.com")

	w := s.do(t, http.MethodGet, "/profile", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Empty(t, decode[profileBody](t, w).FullName)

	w = s.do(t, http.MethodPatch, "/profile", token, map[string]string{
		"fullName": "Ada Lovelace",
		"website":  "https://ada.example",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodPatch, "/profile", token, map[string]string{"email": "Ada@Example.com"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	p := decode[profileBody](t, w)
	assert.Equal(t, "Ada Lovelace", p.FullName)
	assert.Equal(t, "https://ada.example", p.Website)
	assert.Equal(t, "ada@example.com", p.Email)

	t.Run("validation errors", func(t *testing.T) {
		w := s.do(t, http.MethodPatch, "/profile", token, map[string]string{"website": "ada.example"})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/profile", "", nil)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestProfile_Avatars(t *testing.T) {
	s := newServer(t, 5)
	token := s.login(t, "ada@example.com")

	require.NoError(t, s.gallery.Put(context.Background(), "cat.png", []byte("png"), "image/png"))

	t.Run("gallery", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/profile/avatars", token, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		assert.Equal(t, []string{galleryBase + "/cat.png"}, decode[struct {
			Avatars []string `json:"avatars"`
		}](t, w).Avatars)
	})

	t.Run("pick gallery avatar", func(t *testing.T) {
		w := s.do(t, http.MethodPut, "/profile/avatar", token, map[string]string{"url": galleryBase + "/cat.png"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		assert.Equal(t, galleryBase+"/cat.png", decode[profileBody](t, w).AvatarURL)
	})

	t.Run("foreign avatar url", func(t *testing.T) {
		w := s.do(t, http.MethodPut, "/profile/avatar", token, map[string]string{"url": "https://evil.example/cat.png"})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("upload", func(t *testing.T) {
		w := s.upload(t, token, "image/png", []byte("\x89PNG\r\n\x1a\nfake"))
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		url := decode[struct {
			URL string `json:"url"`
		}](t, w).URL
		assert.True(t, strings.HasPrefix(url, avatarBase+"/"), url)

		w = s.do(t, http.MethodGet, "/profile/avatars", token, nil)
		require.Equal(t, http.StatusOK, w.Code)

		avatars := decode[struct {
			Avatars []string `json:"avatars"`
		}](t, w).Avatars
		require.NotEmpty(t, avatars)
		assert.Equal(t, url, avatars[0], "own upload is listed first")

		w = s.do(t, http.MethodPut, "/profile/avatar", token, map[string]string{"url": url})
		assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	})

	t.Run("upload rejects other types", func(t *testing.T) {
		w := s.upload(t, token, "application/pdf", []byte("%PDF-1.7"))

		assert.GreaterOrEqual(t, w.Code, 400)
		assert.Less(t, w.Code, 500)
	})
}
