package imgur_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"imgstore/internal/imgur"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Upload(t *testing.T) {
	var gotAuth, gotFilename string
	var gotContent []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/3/image" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		gotAuth = r.Header.Get("Authorization")
		file, header, err := r.FormFile("image")
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		gotFilename = header.Filename
		gotContent, _ = io.ReadAll(file)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"id":"abc123","link":"https://i.imgur.com/abc123.png","deletehash":"del456"},"success":true,"status":200}`))
	}))
	defer srv.Close()

	c := imgur.NewClient(srv.URL, "my-client", 0)
	img, err := c.Upload(context.Background(), "cat.png", []byte("png-bytes"))
	require.NoError(t, err)

	assert.Equal(t, "Client-ID my-client", gotAuth)
	assert.Equal(t, "cat.png", gotFilename)
	assert.Equal(t, []byte("png-bytes"), gotContent)
	assert.Equal(t, &imgur.UploadedImage{ID: "abc123", Link: "https://i.imgur.com/abc123.png", DeleteHash: "del456"}, img)
}

func TestClient_UploadFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"data":{"error":"bad image"},"success":false,"status":400}`))
	}))
	defer srv.Close()

	c := imgur.NewClient(srv.URL, "my-client", 0)
	_, err := c.Upload(context.Background(), "cat.png", []byte("x"))
	assert.Error(t, err)
}

func TestClient_Delete(t *testing.T) {
	var gotPath, gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotMethod = r.URL.Path, r.Method
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":true,"success":true,"status":200}`))
	}))
	defer srv.Close()

	c := imgur.NewClient(srv.URL, "my-client", 0)
	require.NoError(t, c.Delete(context.Background(), "del456"))
	assert.Equal(t, http.MethodDelete, gotMethod)
	assert.Equal(t, "/3/image/del456", gotPath)
}

func TestClient_DeleteNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := imgur.NewClient(srv.URL, "my-client", 0)
	assert.Error(t, c.Delete(context.Background(), "missing"))
}

func TestClient_NotConfigured(t *testing.T) {
	c := imgur.NewClient("", "", 0)
	_, err := c.Upload(context.Background(), "cat.png", []byte("x"))
	assert.ErrorIs(t, err, imgur.ErrNotConfigured)
	assert.ErrorIs(t, c.Delete(context.Background(), "x"), imgur.ErrNotConfigured)
}
